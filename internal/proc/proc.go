// Package proc owns child processes for the shell: it spawns a command,
// streams its combined stdout/stderr as discrete lines through one channel,
// and reports the exit code as a final event. Nothing else in the program
// talks to os/exec directly.
package proc

import (
	"bufio"
	"errors"
	"io"
	"os/exec"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// ErrEmptyCommand is returned by Spawn before anything is started when the
// argv has no program element.
var ErrEmptyCommand = errors.New("command vector is empty")

// EventKind tags a process event.
type EventKind int

const (
	// EventLine carries one line of merged stdout/stderr, newline stripped.
	EventLine EventKind = iota
	// EventExit carries the final return code. Exactly one per handle,
	// always after every line event.
	EventExit
)

// Event is one item from a handle's feed. Code is nil when the exit status
// could not be determined (spawn failure, killed by signal).
type Event struct {
	Kind EventKind
	Text string
	Code *int
}

// Handle represents one spawned child. One producer (Spawn) and one
// consumer (the polling loop); handles are not shared further.
type Handle struct {
	events chan Event
	done   chan struct{}
}

// eventBuffer bounds how far the readers can run ahead of the poller.
// Readers block on a full channel rather than dropping lines.
const eventBuffer = 512

// Spawn starts argv[0] with the remaining arguments, an optional working
// directory, and an optional replacement environment. Reader goroutines
// forward each output line as an EventLine; relative order between
// stdout-origin and stderr-origin lines is not guaranteed. OS-level start
// failures are not returned here: they surface as a single synthetic
// EventExit with a nil code, so callers have one completion path.
func Spawn(argv []string, dir string, env map[string]string) (*Handle, error) {
	if len(argv) == 0 {
		return nil, ErrEmptyCommand
	}

	h := &Handle{
		events: make(chan Event, eventBuffer),
		done:   make(chan struct{}),
	}

	go func() {
		defer close(h.done)

		cmd := exec.Command(argv[0], argv[1:]...)
		if dir != "" {
			cmd.Dir = dir
		}
		if env != nil {
			cmd.Env = flattenEnv(env)
		}

		stdout, err := cmd.StdoutPipe()
		if err != nil {
			h.events <- Event{Kind: EventExit, Text: "exit -1 (" + err.Error() + ")"}
			close(h.events)
			return
		}
		stderr, err := cmd.StderrPipe()
		if err != nil {
			h.events <- Event{Kind: EventExit, Text: "exit -1 (" + err.Error() + ")"}
			close(h.events)
			return
		}

		if err := cmd.Start(); err != nil {
			h.events <- Event{Kind: EventExit, Text: "exit -1 (" + err.Error() + ")"}
			close(h.events)
			return
		}

		var readers sync.WaitGroup
		readers.Add(2)
		go h.readLines(stdout, &readers)
		go h.readLines(stderr, &readers)

		// Both pipes must hit EOF before Wait may close them.
		readers.Wait()

		var code *int
		if err := cmd.Wait(); err != nil {
			var exitErr *exec.ExitError
			if errors.As(err, &exitErr) {
				if c := exitErr.ExitCode(); c >= 0 {
					code = &c
				}
			}
		} else {
			zero := 0
			code = &zero
		}

		text := "exit -1"
		if code != nil {
			text = "exit " + strconv.Itoa(*code)
		}
		h.events <- Event{Kind: EventExit, Text: text, Code: code}
		close(h.events)
	}()

	return h, nil
}

func (h *Handle) readLines(r io.Reader, wg *sync.WaitGroup) {
	defer wg.Done()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		text := strings.TrimRight(scanner.Text(), "\r")
		h.events <- Event{Kind: EventLine, Text: text}
	}
}

// TryRecv polls for the next event without blocking. ok is false when no
// event is ready or the feed is finished.
func (h *Handle) TryRecv() (Event, bool) {
	select {
	case ev, open := <-h.events:
		if !open {
			return Event{}, false
		}
		return ev, true
	default:
		return Event{}, false
	}
}

// Join blocks until the background work for this handle has finished. It is
// meant to be called after the EventExit has been observed, at which point
// it returns promptly.
func (h *Handle) Join() {
	<-h.done
}

// flattenEnv turns an environment map into the KEY=VALUE form os/exec
// expects. Sorted for deterministic argv logging in tests.
func flattenEnv(env map[string]string) []string {
	out := make([]string, 0, len(env))
	for k, v := range env {
		out = append(out, k+"="+v)
	}
	sort.Strings(out)
	return out
}
