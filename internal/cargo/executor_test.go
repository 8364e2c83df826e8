package cargo

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

type mockRunner struct {
	calls    [][]string
	exitCode int
	stderr   string
}

func (m *mockRunner) Run(ctx context.Context, dir string, name string, args ...string) (string, string, int, error) {
	m.calls = append(m.calls, append([]string{name}, args...))
	return "", m.stderr, m.exitCode, nil
}

func TestBuildPackage(t *testing.T) {
	mock := &mockRunner{}
	e := NewExecutor(mock, "/ws", io.Discard)

	if err := e.BuildPackage(context.Background(), "proton-sdk-sys"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := strings.Join(mock.calls[0], " ")
	if got != "cargo build -p proton-sdk-sys" {
		t.Errorf("unexpected invocation: %q", got)
	}
}

func TestBuildWorkspace_FailureWrapsErrBuild(t *testing.T) {
	mock := &mockRunner{exitCode: 101, stderr: "warning: unused\nerror: could not compile `proton-sdk-rs`\n"}
	e := NewExecutor(mock, "/ws", io.Discard)

	err := e.BuildWorkspace(context.Background())
	if !errors.Is(err, ErrBuild) {
		t.Fatalf("expected ErrBuild, got %v", err)
	}
	if !strings.Contains(err.Error(), "could not compile") {
		t.Errorf("expected cargo's summary line in error, got %q", err.Error())
	}
}

func TestTestWorkspace(t *testing.T) {
	mock := &mockRunner{}
	e := NewExecutor(mock, "/ws", io.Discard)

	if err := e.TestWorkspace(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := strings.Join(mock.calls[0], " ")
	if got != "cargo test --workspace" {
		t.Errorf("unexpected invocation: %q", got)
	}
}

func TestLastLine(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"error: nope\n", "error: nope"},
		{"a\nb\nc", "c"},
		{"", ""},
		{"single", "single"},
	}
	for _, tt := range tests {
		if got := lastLine(tt.in); got != tt.want {
			t.Errorf("lastLine(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
