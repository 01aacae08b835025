package codex

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestParseToolList(t *testing.T) {
	t.Parallel()

	got := ParseToolList("ruff, black  mypy, pytest ruff")
	want := []string{"ruff", "black", "mypy", "pytest"}
	if len(got) != len(want) {
		t.Fatalf("ParseToolList = %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ParseToolList = %q, want %q", got, want)
		}
	}
}

func TestToolAvailable(t *testing.T) {
	t.Parallel()

	if _, err := ToolAvailable("  ", "", nil); err != ErrEmptyTool {
		t.Fatalf("error = %v, want ErrEmptyTool", err)
	}

	bin := t.TempDir()
	touch(t, filepath.Join(bin, "ruff"))
	ok, err := ToolAvailable("ruff", "", map[string]string{"PATH": bin})
	if err != nil || !ok {
		t.Fatalf("ToolAvailable = %v, %v; want true", ok, err)
	}
	ok, err = ToolAvailable("missing", "", map[string]string{"PATH": bin})
	if err != nil || ok {
		t.Fatalf("ToolAvailable(missing) = %v, %v; want false", ok, err)
	}
}

func TestToolsEnvPrependsScriptsDir(t *testing.T) {
	t.Parallel()

	root := filepath.Join(string(filepath.Separator), "tmp", "portide-root")
	base := map[string]string{"PATH": "/bin"}
	env := ToolsEnv(root, base)

	scripts := PythonScriptsDir(ToolsInstallPrefix(root))
	if !strings.HasPrefix(env["PATH"], scripts) {
		t.Fatalf("PATH = %q, want %q first", env["PATH"], scripts)
	}
	if base["PATH"] != "/bin" {
		t.Fatalf("base PATH mutated to %q", base["PATH"])
	}
}

func TestPipInstallArgv(t *testing.T) {
	t.Parallel()

	prefix := "/tmp/portide/.portide/tools"
	argv, err := PipInstallArgv(prefix, []string{"ruff", " black "}, "", false)
	if err != nil {
		t.Fatalf("PipInstallArgv: %v", err)
	}
	joined := strings.Join(argv, " ")
	for _, want := range []string{"python -m pip install --upgrade", "--prefix " + prefix, "ruff", "black"} {
		if !strings.Contains(joined, want) {
			t.Fatalf("argv = %q, missing %q", argv, want)
		}
	}
}

func TestPipInstallArgvOffline(t *testing.T) {
	t.Parallel()

	argv, err := PipInstallArgv("/p", []string{"ruff"}, "/wheels", true)
	if err != nil {
		t.Fatalf("PipInstallArgv: %v", err)
	}
	joined := strings.Join(argv, " ")
	if !strings.Contains(joined, "--no-index") || !strings.Contains(joined, "--find-links /wheels") {
		t.Fatalf("argv = %q, want offline flags", argv)
	}
}

func TestPipInstallArgvRejectsEmpty(t *testing.T) {
	t.Parallel()

	if _, err := PipInstallArgv("/p", []string{" ", ""}, "", false); err != ErrEmptyPackages {
		t.Fatalf("error = %v, want ErrEmptyPackages", err)
	}
}

func TestPyInstallerBuildArgv(t *testing.T) {
	t.Parallel()

	argv, err := PyInstallerBuildArgv("/w/app.py", "/w/dist", true, "", "")
	if err != nil {
		t.Fatalf("PyInstallerBuildArgv: %v", err)
	}
	joined := strings.Join(argv, " ")
	if !strings.Contains(joined, "--onefile") || strings.Contains(joined, "--onedir") {
		t.Fatalf("argv = %q, want onefile without onedir", argv)
	}
	if argv[len(argv)-1] != "/w/app.py" {
		t.Fatalf("argv = %q, script must come last", argv)
	}

	argv, err = PyInstallerBuildArgv("/w/app.py", "/w/dist", false, "/w/build", "/w")
	if err != nil {
		t.Fatalf("PyInstallerBuildArgv: %v", err)
	}
	joined = strings.Join(argv, " ")
	for _, want := range []string{"--onedir", "--workpath /w/build", "--specpath /w"} {
		if !strings.Contains(joined, want) {
			t.Fatalf("argv = %q, missing %q", argv, want)
		}
	}
}

func TestPyInstallerBuildArgvRejectsEmptyScript(t *testing.T) {
	t.Parallel()

	if _, err := PyInstallerBuildArgv("", "/dist", false, "", ""); err != ErrEmptyScript {
		t.Fatalf("error = %v, want ErrEmptyScript", err)
	}
}

func TestModesParsing(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want SandboxMode
		ok   bool
	}{
		{"read-only", SandboxReadOnly, true},
		{"agent", SandboxWorkspaceWrite, true},
		{"danger-full-access", SandboxDangerFullAccess, true},
		{"???", SandboxWorkspaceWrite, false},
	}
	for _, tc := range cases {
		got, ok := ParseSandboxMode(tc.in)
		if got != tc.want || ok != tc.ok {
			t.Fatalf("ParseSandboxMode(%q) = %v, %v; want %v, %v", tc.in, got, ok, tc.want, tc.ok)
		}
	}

	policies := []struct {
		in   string
		want ApprovalPolicy
		ok   bool
	}{
		{"on-request", ApprovalOnRequest, true},
		{"onfailure", ApprovalOnFailure, true},
		{"untrusted", ApprovalUntrusted, true},
		{"off", ApprovalNever, true},
		{"???", ApprovalNever, false},
	}
	for _, tc := range policies {
		got, ok := ParseApprovalPolicy(tc.in)
		if got != tc.want || ok != tc.ok {
			t.Fatalf("ParseApprovalPolicy(%q) = %v, %v; want %v, %v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestModeCycling(t *testing.T) {
	t.Parallel()

	if SandboxReadOnly.Next() != SandboxWorkspaceWrite ||
		SandboxWorkspaceWrite.Next() != SandboxDangerFullAccess ||
		SandboxDangerFullAccess.Next() != SandboxReadOnly {
		t.Fatal("sandbox cycle order broken")
	}
	if ApprovalOnRequest.Next() != ApprovalOnFailure ||
		ApprovalOnFailure.Next() != ApprovalUntrusted ||
		ApprovalUntrusted.Next() != ApprovalNever ||
		ApprovalNever.Next() != ApprovalOnRequest {
		t.Fatal("approval cycle order broken")
	}
}
