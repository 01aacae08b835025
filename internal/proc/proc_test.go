package proc

import (
	"runtime"
	"testing"
	"time"
)

func drain(t *testing.T, h *Handle) ([]string, *int) {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	var lines []string
	for {
		ev, ok := h.TryRecv()
		if !ok {
			if time.Now().After(deadline) {
				t.Fatal("timed out waiting for exit event")
			}
			time.Sleep(5 * time.Millisecond)
			continue
		}
		if ev.Kind == EventExit {
			h.Join()
			return lines, ev.Code
		}
		lines = append(lines, ev.Text)
	}
}

func TestSpawnEmptyArgv(t *testing.T) {
	t.Parallel()

	if _, err := Spawn(nil, "", nil); err != ErrEmptyCommand {
		t.Fatalf("Spawn(nil) error = %v, want ErrEmptyCommand", err)
	}
}

func TestSpawnStreamsLinesThenExit(t *testing.T) {
	t.Parallel()
	if runtime.GOOS == "windows" {
		t.Skip("uses sh")
	}

	h, err := Spawn([]string{"sh", "-c", "echo one; echo two"}, "", nil)
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	lines, code := drain(t, h)
	if code == nil || *code != 0 {
		t.Fatalf("exit code = %v, want 0", code)
	}
	if len(lines) != 2 || lines[0] != "one" || lines[1] != "two" {
		t.Fatalf("lines = %q, want [one two]", lines)
	}
}

func TestSpawnMergesBothStreams(t *testing.T) {
	t.Parallel()
	if runtime.GOOS == "windows" {
		t.Skip("uses sh")
	}

	h, err := Spawn([]string{"sh", "-c", "echo out; echo err 1>&2"}, "", nil)
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	lines, _ := drain(t, h)
	seen := map[string]bool{}
	for _, l := range lines {
		seen[l] = true
	}
	if !seen["out"] || !seen["err"] {
		t.Fatalf("lines = %q, want both out and err", lines)
	}
}

func TestSpawnNonZeroExit(t *testing.T) {
	t.Parallel()
	if runtime.GOOS == "windows" {
		t.Skip("uses sh")
	}

	h, err := Spawn([]string{"sh", "-c", "exit 3"}, "", nil)
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	_, code := drain(t, h)
	if code == nil || *code != 3 {
		t.Fatalf("exit code = %v, want 3", code)
	}
}

func TestSpawnMissingExecutableIsExitEvent(t *testing.T) {
	t.Parallel()

	h, err := Spawn([]string{"/nonexistent/definitely-not-a-binary"}, "", nil)
	if err != nil {
		t.Fatalf("Spawn returned hard error %v, want synthetic exit event", err)
	}
	lines, code := drain(t, h)
	if len(lines) != 0 {
		t.Fatalf("lines = %q, want none", lines)
	}
	if code != nil {
		t.Fatalf("exit code = %v, want nil for spawn failure", *code)
	}
}

func TestSpawnRespectsEnvAndDir(t *testing.T) {
	t.Parallel()
	if runtime.GOOS == "windows" {
		t.Skip("uses sh")
	}

	dir := t.TempDir()
	h, err := Spawn(
		[]string{"sh", "-c", "echo $PORTIDE_TEST_MARKER; pwd"},
		dir,
		map[string]string{"PATH": "/bin:/usr/bin", "PORTIDE_TEST_MARKER": "marker-42"},
	)
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	lines, code := drain(t, h)
	if code == nil || *code != 0 {
		t.Fatalf("exit code = %v, want 0", code)
	}
	if len(lines) != 2 || lines[0] != "marker-42" {
		t.Fatalf("lines = %q, want marker then cwd", lines)
	}
}

func TestShellArgvUnix(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix shape")
	}
	argv := ShellArgv("ls -la")
	if len(argv) != 3 || argv[0] != "sh" || argv[1] != "-lc" || argv[2] != "ls -la" {
		t.Fatalf("ShellArgv = %q", argv)
	}
}

func TestCleanPathWindowsPrefixes(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{`\\?\C:\tools\node.exe`, `C:\tools\node.exe`},
		{`\\?\UNC\server\share\x`, `\\server\share\x`},
		{`C:\plain\path`, `C:\plain\path`},
	}
	for _, tc := range cases {
		if got := cleanPathWindows(tc.in); got != tc.want {
			t.Fatalf("cleanPathWindows(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
