package proc

import (
	"os"
	"runtime"
	"strings"
)

// ShellArgv builds the argv for an ad-hoc shell command: the command
// processor on Windows, a login shell elsewhere.
func ShellArgv(command string) []string {
	if runtime.GOOS == "windows" {
		comspec := os.Getenv("COMSPEC")
		if comspec == "" {
			comspec = "cmd.exe"
		}
		return []string{comspec, "/d", "/s", "/c", command}
	}
	return []string{"sh", "-lc", command}
}

// PythonArgv builds the argv to run a script with the configured
// interpreter (PORTIDE_PYTHON, then PYTHON, then a bare "python").
func PythonArgv(script string) []string {
	exe := os.Getenv("PORTIDE_PYTHON")
	if exe == "" {
		exe = os.Getenv("PYTHON")
	}
	if exe == "" {
		exe = "python"
	}
	return []string{exe, CleanPath(script)}
}

// CleanPath strips the Windows extended-length prefixes from a path that is
// about to appear on a command line; the invoked tools do not accept them.
func CleanPath(path string) string {
	if runtime.GOOS != "windows" {
		return path
	}
	return cleanPathWindows(path)
}

func cleanPathWindows(path string) string {
	if rest, ok := strings.CutPrefix(path, `\\?\UNC\`); ok {
		return `\\` + rest
	}
	if rest, ok := strings.CutPrefix(path, `\\?\`); ok {
		return rest
	}
	return path
}
