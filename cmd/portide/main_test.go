package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWorkspaceRootDefaultsToCwd(t *testing.T) {
	got, err := workspaceRoot("")
	if err != nil {
		t.Fatal(err)
	}
	cwd, _ := os.Getwd()
	if got != cwd {
		t.Fatalf("got %q, want %q", got, cwd)
	}
}

func TestWorkspaceRootFlagIsAbsolutized(t *testing.T) {
	got, err := workspaceRoot(".")
	if err != nil {
		t.Fatal(err)
	}
	if !filepath.IsAbs(got) {
		t.Fatalf("expected absolute path, got %q", got)
	}
}

func TestOpenSessionLogCreatesStateDir(t *testing.T) {
	root := t.TempDir()
	f, err := openSessionLog(root)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	if _, err := os.Stat(filepath.Join(root, ".portide", "session.log")); err != nil {
		t.Fatalf("log file missing: %v", err)
	}
}
