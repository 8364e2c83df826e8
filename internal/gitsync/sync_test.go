package gitsync

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
)

type mockRunner struct {
	calls    [][]string
	exitCode int
}

func (m *mockRunner) Run(ctx context.Context, dir string, name string, args ...string) (string, string, int, error) {
	m.calls = append(m.calls, append([]string{name}, args...))
	return "", "fatal: unable to access remote", m.exitCode, nil
}

func TestSync_Success(t *testing.T) {
	mock := &mockRunner{}
	s := NewSynchronizer(mock, t.TempDir(), io.Discard)

	if err := s.Sync(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(mock.calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(mock.calls))
	}
	want := []string{"git", "submodule", "update", "--init", "--recursive"}
	for i, arg := range want {
		if mock.calls[0][i] != arg {
			t.Errorf("arg %d: expected %q, got %q", i, arg, mock.calls[0][i])
		}
	}
}

func TestSync_FailureReturnsError(t *testing.T) {
	mock := &mockRunner{exitCode: 128}
	s := NewSynchronizer(mock, t.TempDir(), io.Discard)

	if err := s.Sync(context.Background()); err == nil {
		t.Fatal("expected error for non-zero exit")
	}
}

func TestCloneIfAbsent_SkipsExisting(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "dotnet-crypto"), 0o755); err != nil {
		t.Fatal(err)
	}

	mock := &mockRunner{}
	s := NewSynchronizer(mock, root, io.Discard)

	if err := s.CloneIfAbsent(context.Background(), "https://example.com/r", "dotnet-crypto"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(mock.calls) != 0 {
		t.Fatalf("expected no git invocation for existing checkout, got %d", len(mock.calls))
	}
}

func TestCloneIfAbsent_ClonesMissing(t *testing.T) {
	mock := &mockRunner{}
	s := NewSynchronizer(mock, t.TempDir(), io.Discard)

	if err := s.CloneIfAbsent(context.Background(), "https://example.com/r", "dotnet-crypto"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(mock.calls) != 1 || mock.calls[0][1] != "clone" {
		t.Fatalf("expected a single git clone, got %v", mock.calls)
	}
}

func TestSyncProtos_ReplacesStaleDefinitions(t *testing.T) {
	root := t.TempDir()
	sdkRoot := filepath.Join(root, "Proton.SDK")
	bindingsRoot := filepath.Join(root, "proton-sdk-sys")

	srcProtos := filepath.Join(sdkRoot, "protos")
	if err := os.MkdirAll(srcProtos, 0o755); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"drive.proto", "session.proto"} {
		if err := os.WriteFile(filepath.Join(srcProtos, name), []byte("syntax = \"proto3\";"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	dstProtos := filepath.Join(bindingsRoot, "protos")
	if err := os.MkdirAll(dstProtos, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dstProtos, "removed_upstream.proto"), []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}

	s := NewSynchronizer(&mockRunner{}, root, io.Discard)
	n, err := s.SyncProtos(sdkRoot, bindingsRoot)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("expected 2 definitions synced, got %d", n)
	}

	if _, err := os.Stat(filepath.Join(dstProtos, "drive.proto")); err != nil {
		t.Errorf("expected drive.proto in bindings crate: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dstProtos, "removed_upstream.proto")); !os.IsNotExist(err) {
		t.Error("stale definition should be removed")
	}
}

func TestSyncProtos_MissingSourceIsNotAnError(t *testing.T) {
	root := t.TempDir()
	bindingsRoot := filepath.Join(root, "proton-sdk-sys")
	if err := os.MkdirAll(bindingsRoot, 0o755); err != nil {
		t.Fatal(err)
	}

	s := NewSynchronizer(&mockRunner{}, root, io.Discard)
	n, err := s.SyncProtos(filepath.Join(root, "Proton.SDK"), bindingsRoot)
	if err != nil {
		t.Fatalf("absent SDK protos directory should only warn: %v", err)
	}
	if n != 0 {
		t.Errorf("expected 0 definitions synced, got %d", n)
	}
}

func TestSyncProtos_MissingBindingsCrateFails(t *testing.T) {
	root := t.TempDir()
	srcProtos := filepath.Join(root, "Proton.SDK", "protos")
	if err := os.MkdirAll(srcProtos, 0o755); err != nil {
		t.Fatal(err)
	}

	s := NewSynchronizer(&mockRunner{}, root, io.Discard)
	if _, err := s.SyncProtos(filepath.Join(root, "Proton.SDK"), filepath.Join(root, "proton-sdk-sys")); err == nil {
		t.Fatal("expected error for missing bindings crate")
	}
}
