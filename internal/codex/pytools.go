package codex

import (
	"path/filepath"
	"strings"

	"portide/internal/proc"
)

// ToolsInstallPrefix is where pip installs the Python dev tools under the
// workspace root (via --prefix, so the tree stays portable).
func ToolsInstallPrefix(root string) string {
	return filepath.Join(root, ".portide", "tools")
}

// PythonScriptsDir is the executables directory of a pip --prefix tree.
func PythonScriptsDir(prefix string) string {
	if isWindows() {
		return filepath.Join(prefix, "Scripts")
	}
	return filepath.Join(prefix, "bin")
}

// ToolsEnv builds the environment for running the installed Python tools:
// the caller's snapshot with the prefix's scripts directory prepended to
// PATH. The base map is never mutated.
func ToolsEnv(root string, base map[string]string) map[string]string {
	env := cloneEnv(base)
	normalizePathKey(env)
	prependPath(env, PythonScriptsDir(ToolsInstallPrefix(root)))
	return env
}

// ParseToolList splits a comma/space separated tool list, dropping
// duplicates while preserving first-seen order.
func ParseToolList(raw string) []string {
	items := strings.ReplaceAll(raw, ",", " ")
	seen := make(map[string]struct{})
	var cleaned []string
	for _, item := range strings.Fields(items) {
		if _, dup := seen[item]; dup {
			continue
		}
		seen[item] = struct{}{}
		cleaned = append(cleaned, item)
	}
	return cleaned
}

// ToolAvailable reports whether a tool resolves on the search path, with
// the workspace tools directory taking precedence when a root is given.
func ToolAvailable(tool, root string, env map[string]string) (bool, error) {
	if strings.TrimSpace(tool) == "" {
		return false, ErrEmptyTool
	}
	searchEnv := env
	if root != "" {
		searchEnv = ToolsEnv(root, env)
	} else if searchEnv == nil {
		searchEnv = cloneEnv(nil)
	}
	path, _ := envPath(searchEnv, isWindows())
	_, ok := FindInPath(tool, path, isWindows())
	return ok, nil
}

// PyInstallerAvailable is the probe run before offering the packaging
// action.
func PyInstallerAvailable(root string, env map[string]string) bool {
	ok, err := ToolAvailable("pyinstaller", root, env)
	return err == nil && ok
}

// PipInstallArgv builds a pip install into the portable prefix. An
// optional wheelhouse enables fully offline installs (--no-index plus
// --find-links).
func PipInstallArgv(prefix string, packages []string, findLinks string, noIndex bool) ([]string, error) {
	var cleaned []string
	for _, pkg := range packages {
		if trimmed := strings.TrimSpace(pkg); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	if len(cleaned) == 0 {
		return nil, ErrEmptyPackages
	}
	argv := []string{
		"python", "-m", "pip", "install", "--upgrade",
		"--prefix", proc.CleanPath(prefix),
	}
	if noIndex {
		argv = append(argv, "--no-index")
	}
	if findLinks != "" {
		argv = append(argv, "--find-links", proc.CleanPath(findLinks))
	}
	return append(argv, cleaned...), nil
}

// PyInstallerInstallArgv installs PyInstaller itself into the prefix.
func PyInstallerInstallArgv(prefix, findLinks string, noIndex bool) ([]string, error) {
	return PipInstallArgv(prefix, []string{"pyinstaller"}, findLinks, noIndex)
}

// PyInstallerBuildArgv builds the packaging invocation for a script.
func PyInstallerBuildArgv(script, distDir string, onefile bool, workDir, specDir string) ([]string, error) {
	if script == "" {
		return nil, ErrEmptyScript
	}
	argv := []string{"pyinstaller", "--noconfirm"}
	if onefile {
		argv = append(argv, "--onefile")
	} else {
		argv = append(argv, "--onedir")
	}
	argv = append(argv, "--distpath", proc.CleanPath(distDir))
	if workDir != "" {
		argv = append(argv, "--workpath", proc.CleanPath(workDir))
	}
	if specDir != "" {
		argv = append(argv, "--specpath", proc.CleanPath(specDir))
	}
	return append(argv, proc.CleanPath(script)), nil
}
