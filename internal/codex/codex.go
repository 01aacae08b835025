// Package codex builds command lines for the Codex CLI, negotiates which
// optional flags the installed version accepts, and turns its JSONL output
// into display items for the shell.
//
// The package is organized into focused files:
//   - resolver.go: executable/argv/environment resolution (portable node
//     runtime, npm prefix, PATH scan, Windows shim handling)
//   - capability.go: tri-state flag support and downgrade-and-retry
//   - normalize.go: JSONL event classification into display items
//   - translate.go: fixed table of CLI diagnostic translations
//   - hints.go: HTTP status extraction and human hints
//   - wrap.go: fence-preserving word wrap for the transcript
//   - pytools.go: pip / PyInstaller argv builders for the Python side
package codex

import "errors"

// Named conditions the UI turns into actionable messages rather than a
// stack of wrapped errors.
var (
	ErrEmptyPrompt   = errors.New("prompt must not be empty")
	ErrEmptyPackage  = errors.New("package must not be empty")
	ErrEmptyTool     = errors.New("tool must not be empty")
	ErrEmptyPackages = errors.New("package list must not be empty")
	ErrEmptyScript   = errors.New("script must not be empty")
	ErrNodeMissing   = errors.New("portable node runtime not found")
	ErrNpmMissing    = errors.New("npm-cli.js not found")
)
