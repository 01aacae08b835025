package codex

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"portide/internal/proc"
)

func isWindows() bool {
	return runtime.GOOS == "windows"
}

func listSeparator(windows bool) string {
	if windows {
		return ";"
	}
	return ":"
}

// FindInPath resolves name against a PATH-style search string. A name that
// is absolute or already contains a separator is checked for existence
// directly. On Windows, names without an extension are tried with each
// PATHEXT extension in order. Directory order is preserved; first match
// wins.
func FindInPath(name, searchPath string, windows bool) (string, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", false
	}

	hasSeparator := strings.ContainsRune(name, os.PathSeparator) || (windows && strings.Contains(name, "/"))
	if filepath.IsAbs(name) || hasSeparator {
		if pathExists(name) {
			return name, true
		}
		return "", false
	}

	extensions := []string{""}
	if windows && filepath.Ext(name) == "" {
		pathext := os.Getenv("PATHEXT")
		if pathext == "" {
			pathext = ".COM;.EXE;.BAT;.CMD;.PS1"
		}
		extensions = extensions[:0]
		for _, ext := range strings.Split(pathext, ";") {
			if ext != "" {
				extensions = append(extensions, ext)
			}
		}
		if len(extensions) == 0 {
			extensions = []string{""}
		}
	}

	for _, dir := range strings.Split(searchPath, listSeparator(windows)) {
		if dir == "" {
			continue
		}
		for _, ext := range extensions {
			candidate := filepath.Join(dir, name+ext)
			if pathExists(candidate) {
				return candidate, true
			}
		}
	}
	return "", false
}

func pathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// envValue looks a key up in an environment map, case-insensitively on
// Windows where variable names are case-insensitive.
func envValue(env map[string]string, key string, windows bool) (string, bool) {
	if env == nil {
		return "", false
	}
	if v, ok := env[key]; ok {
		return v, true
	}
	if windows {
		for k, v := range env {
			if strings.EqualFold(k, key) {
				return v, true
			}
		}
	}
	return "", false
}

func envPath(env map[string]string, windows bool) (string, bool) {
	return envValue(env, "PATH", windows)
}

// ResolveInPath resolves a bare command through the environment map's
// search path using host platform conventions.
func ResolveInPath(cmd string, env map[string]string) (string, bool) {
	path, _ := envPath(env, isWindows())
	return FindInPath(cmd, path, isWindows())
}

// InstallPrefix is where the agent package is npm-installed under the
// workspace root.
func InstallPrefix(root string) string {
	return filepath.Join(root, ".portide", "codex")
}

// BinDir is the npm shim directory for an install prefix.
func BinDir(prefix string) string {
	return filepath.Join(prefix, "node_modules", ".bin")
}

// NodeToolsDir is where a portable node runtime is expected under the
// workspace root.
func NodeToolsDir(root string) string {
	return filepath.Join(root, "tools", "node")
}

// NodeExecutable locates a node interpreter: the portable runtime first,
// then the environment's search path.
func NodeExecutable(root string, env map[string]string) (string, bool) {
	return nodeExecutableOS(root, env, isWindows())
}

func nodeExecutableOS(root string, env map[string]string, windows bool) (string, bool) {
	nodeDir := NodeToolsDir(root)
	var candidates []string
	if windows {
		candidates = append(candidates, filepath.Join(nodeDir, "node.exe"))
	} else {
		candidates = append(candidates,
			filepath.Join(nodeDir, "bin", "node"),
			filepath.Join(nodeDir, "node"),
		)
	}

	path, ok := envPath(env, windows)
	if !ok {
		path = os.Getenv("PATH")
	}
	if found, ok := FindInPath("node", path, windows); ok {
		candidates = append(candidates, found)
	}

	for _, candidate := range candidates {
		if pathExists(candidate) {
			return candidate, true
		}
	}
	return "", false
}

// NpmCLI locates npm-cli.js relative to a node executable, trying the
// layouts the portable node archives ship with.
func NpmCLI(root, node string) (string, bool) {
	if node == "" {
		resolved, ok := NodeExecutable(root, nil)
		if !ok {
			return "", false
		}
		node = resolved
	}
	nodeDir := filepath.Dir(node)
	rel := filepath.Join("node_modules", "npm", "bin", "npm-cli.js")

	candidate := filepath.Join(nodeDir, rel)
	if pathExists(candidate) {
		return candidate, true
	}
	for _, alt := range []string{
		filepath.Join(filepath.Dir(nodeDir), "lib", rel),
		filepath.Join(nodeDir, "..", "lib", rel),
	} {
		if resolved, err := filepath.Abs(alt); err == nil && pathExists(resolved) {
			return resolved, true
		}
	}
	return "", false
}

// Env builds the environment for agent invocations: the caller's snapshot
// with the portable node directories and the npm bin dir prepended to PATH.
// The base map is never mutated.
func Env(root string, base map[string]string) map[string]string {
	env := cloneEnv(base)
	normalizePathKey(env)
	nodeDir := NodeToolsDir(root)
	nodeBin := filepath.Join(nodeDir, "bin")
	binDir := BinDir(InstallPrefix(root))
	if pathExists(nodeBin) {
		prependPath(env, nodeBin)
	}
	prependPath(env, nodeDir)
	prependPath(env, binDir)
	return env
}

func cloneEnv(base map[string]string) map[string]string {
	env := make(map[string]string, len(base))
	if base == nil {
		for _, kv := range os.Environ() {
			if i := strings.IndexByte(kv, '='); i >= 0 {
				env[kv[:i]] = kv[i+1:]
			}
		}
		return env
	}
	for k, v := range base {
		env[k] = v
	}
	return env
}

// prependPath puts dir at the front of PATH unless it is already present.
func prependPath(env map[string]string, dir string) {
	normalizePathKey(env)
	current := env["PATH"]
	sep := listSeparator(isWindows())
	if current == "" {
		env["PATH"] = dir
		return
	}
	for _, existing := range strings.Split(current, sep) {
		if existing == dir {
			return
		}
	}
	env["PATH"] = dir + sep + current
}

// normalizePathKey folds a differently-cased Path/path key into PATH on
// Windows so later lookups and joins see one canonical entry.
func normalizePathKey(env map[string]string) {
	if !isWindows() {
		return
	}
	if _, ok := env["PATH"]; ok {
		return
	}
	for k, v := range env {
		if strings.EqualFold(k, "PATH") {
			delete(env, k)
			env["PATH"] = v
			return
		}
	}
}

// PackageJSONPath is the manifest of the npm-installed agent package.
func PackageJSONPath(prefix string) string {
	return filepath.Join(prefix, "node_modules", "@openai", "codex", "package.json")
}

// EntrypointJS reads the package manifest and resolves its bin field,
// either the single string form or the named/first-entry object form,
// relative to the manifest's directory.
func EntrypointJS(prefix string) (string, bool) {
	pkgJSON := PackageJSONPath(prefix)
	data, err := os.ReadFile(pkgJSON)
	if err != nil {
		return "", false
	}
	var manifest struct {
		Bin json.RawMessage `json:"bin"`
	}
	if err := json.Unmarshal(data, &manifest); err != nil || len(manifest.Bin) == 0 {
		return "", false
	}

	var rel string
	var single string
	if err := json.Unmarshal(manifest.Bin, &single); err == nil {
		rel = single
	} else {
		var entries map[string]string
		if err := json.Unmarshal(manifest.Bin, &entries); err != nil {
			return "", false
		}
		if v, ok := entries["codex"]; ok {
			rel = v
		} else {
			for _, v := range entries {
				rel = v
				break
			}
		}
	}
	if rel == "" {
		return "", false
	}
	entry := filepath.Join(filepath.Dir(pkgJSON), rel)
	if !pathExists(entry) {
		return "", false
	}
	return entry, true
}

func shimNeedsShell(path string, windows bool) bool {
	if !windows {
		return false
	}
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")) {
	case "cmd", "bat", "ps1":
		return true
	}
	return false
}

// Available reports whether the agent CLI can be invoked at all: the
// portable runtime plus entry script, or a resolvable command on the
// search path (a Windows script shim still needs a node).
func Available(root string, env map[string]string) bool {
	if root != "" {
		_, nodeOK := NodeExecutable(root, env)
		_, entryOK := EntrypointJS(InstallPrefix(root))
		if nodeOK && entryOK {
			return true
		}
	}
	searchEnv := env
	if root != "" {
		searchEnv = Env(root, env)
	} else if searchEnv == nil {
		searchEnv = cloneEnv(nil)
	}
	path, _ := envPath(searchEnv, isWindows())
	resolved, ok := FindInPath("codex", path, isWindows())
	if !ok {
		return false
	}
	if shimNeedsShell(resolved, isWindows()) {
		if root != "" {
			_, ok := NodeExecutable(root, searchEnv)
			return ok
		}
		_, ok := FindInPath("node", path, isWindows())
		return ok
	}
	return true
}

// baseArgv decides how the agent binary itself is invoked: portable
// runtime + entry script when both are bundled, a resolved PATH entry
// (rewritten through the command processor or PowerShell for script
// shims), or the bare command as a last resort.
func baseArgv(root string, env map[string]string, windows bool) []string {
	if root != "" {
		node, nodeOK := nodeExecutableOS(root, env, windows)
		entry, entryOK := EntrypointJS(InstallPrefix(root))
		if nodeOK && entryOK {
			return []string{proc.CleanPath(node), proc.CleanPath(entry)}
		}
	}

	if windows {
		path, ok := envPath(env, windows)
		if !ok {
			path = os.Getenv("PATH")
		}
		if resolved, ok := FindInPath("codex", path, windows); ok {
			switch strings.ToLower(strings.TrimPrefix(filepath.Ext(resolved), ".")) {
			case "cmd", "bat":
				comspec, ok := envValue(env, "COMSPEC", windows)
				if !ok {
					comspec = os.Getenv("COMSPEC")
				}
				if comspec == "" {
					comspec = "cmd.exe"
				}
				return []string{comspec, "/d", "/s", "/c", proc.CleanPath(resolved)}
			case "ps1":
				powershell, ok := FindInPath("powershell", path, windows)
				if !ok {
					powershell = "powershell"
				}
				return []string{powershell, "-NoProfile", "-ExecutionPolicy", "Bypass", "-File", proc.CleanPath(resolved)}
			}
			return []string{proc.CleanPath(resolved)}
		}
	}

	return []string{"codex"}
}

// LoginArgv builds the login invocation, optionally with device auth for
// machines where a browser cannot be opened.
func LoginArgv(root string, env map[string]string, deviceAuth bool) []string {
	argv := baseArgv(root, env, isWindows())
	argv = append(argv, "login")
	if deviceAuth {
		argv = append(argv, "--device-auth")
	}
	return argv
}

// StatusArgv builds the login-status probe run before each exec.
func StatusArgv(root string, env map[string]string) []string {
	argv := baseArgv(root, env, isWindows())
	return append(argv, "login", "status")
}

// ExecArgv builds the exec invocation for a prompt. A prompt starting with
// a dash is guarded with a "--" so the CLI does not eat it as a flag.
func ExecArgv(prompt, root string, env map[string]string, jsonOutput bool, extra []string) ([]string, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, ErrEmptyPrompt
	}
	argv := baseArgv(root, env, isWindows())
	argv = append(argv, "exec")
	if jsonOutput {
		argv = append(argv, "--json")
	}
	for _, arg := range extra {
		if strings.TrimSpace(arg) != "" {
			argv = append(argv, arg)
		}
	}
	if strings.HasPrefix(strings.TrimLeft(prompt, " \t"), "-") {
		argv = append(argv, "--")
	}
	argv = append(argv, prompt)
	return argv, nil
}

// InstallArgv builds the npm install of the agent package into the
// workspace prefix using the bundled runtime.
func InstallArgv(root, prefix, pkg string) ([]string, error) {
	if strings.TrimSpace(pkg) == "" {
		return nil, ErrEmptyPackage
	}
	node, ok := NodeExecutable(root, nil)
	if !ok {
		return nil, ErrNodeMissing
	}
	npm, ok := NpmCLI(root, node)
	if !ok {
		return nil, ErrNpmMissing
	}
	return []string{
		proc.CleanPath(node),
		proc.CleanPath(npm),
		"install",
		"--prefix", proc.CleanPath(prefix),
		"--no-audit",
		"--no-fund",
		pkg,
	}, nil
}
