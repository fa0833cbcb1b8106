package cli

import (
    "io"
    "os"
    "path/filepath"
    "strings"
    "testing"
)

func TestInit_WritesSampleConfig(t *testing.T) {
    t.Parallel()
    dir := t.TempDir()
    path := filepath.Join(dir, "config.yaml")

    root := NewRootCmd()
    root.SetOut(io.Discard)
    root.SetErr(io.Discard)
    root.SetArgs([]string{"init", "--out", path})

    if err := root.Execute(); err != nil {
        t.Fatalf("init execute: %v", err)
    }

    data, err := os.ReadFile(path)
    if err != nil {
        t.Fatalf("read config: %v", err)
    }
    s := string(data)
    if !strings.Contains(s, "qigen configuration") {
        t.Fatalf("unexpected config contents: %s", s)
    }
}

func TestInit_ExistingWithoutForce(t *testing.T) {
    t.Parallel()
    dir := t.TempDir()
    path := filepath.Join(dir, "config.yaml")
    if err := os.WriteFile(path, []byte("x"), 0o600); err != nil {
        t.Fatalf("prewrite: %v", err)
    }

    root := NewRootCmd()
    root.SetOut(io.Discard)
    root.SetErr(io.Discard)
    root.SetArgs([]string{"init", "--out", path})

    err := root.Execute()
    if err == nil {
        t.Fatalf("expected error for existing file without --force")
    }
    if _, ok := err.(usageError); !ok {
        t.Fatalf("expected usage error, got %T: %v", err, err)
    }
}


func TestInit_ForceOverwrites(t *testing.T) {
    t.Parallel()
    dir := t.TempDir()
    path := filepath.Join(dir, "nested", "qigen.yaml")
    if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
        t.Fatalf("mkdir: %v", err)
    }
    if err := os.WriteFile(path, []byte("x"), 0o600); err != nil {
        t.Fatalf("prewrite: %v", err)
    }

    var out strings.Builder
    root := NewRootCmd()
    root.SetOut(&out)
    root.SetErr(io.Discard)
    root.SetArgs([]string{"init", "--out", path, "--force"})

    if err := root.Execute(); err != nil {
        t.Fatalf("init execute: %v", err)
    }
    if !strings.Contains(out.String(), "Wrote sample config to") {
        t.Fatalf("unexpected output: %s", out.String())
    }
    data, err := os.ReadFile(path)
    if err != nil {
        t.Fatalf("read config: %v", err)
    }
    if !strings.Contains(string(data), "# target: go") {
        t.Fatalf("config was not overwritten: %s", data)
    }
}
