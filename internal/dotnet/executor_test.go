package dotnet

import (
	"context"
	"errors"
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
	return "", "error MSB1009", m.exitCode, nil
}

func TestBuild_MissingDirFailsBeforeInvocation(t *testing.T) {
	mock := &mockRunner{}
	e := NewExecutor(mock, filepath.Join(t.TempDir(), "Proton.SDK"), io.Discard)

	err := e.Build(context.Background())
	if !errors.Is(err, ErrProjectDirMissing) {
		t.Fatalf("expected ErrProjectDirMissing, got %v", err)
	}
	if len(mock.calls) != 0 {
		t.Fatalf("expected no dotnet invocation, got %d", len(mock.calls))
	}
}

func TestBuild_ReleaseConfiguration(t *testing.T) {
	root := t.TempDir()
	mock := &mockRunner{}
	e := NewExecutor(mock, root, io.Discard)

	if err := e.Build(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"dotnet", "build", "-c", "Release"}
	if len(mock.calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(mock.calls))
	}
	for i, arg := range want {
		if mock.calls[0][i] != arg {
			t.Errorf("arg %d: expected %q, got %q", i, arg, mock.calls[0][i])
		}
	}
}

func TestBuild_NonZeroExitIsManagedBuildError(t *testing.T) {
	mock := &mockRunner{exitCode: 1}
	e := NewExecutor(mock, t.TempDir(), io.Discard)

	err := e.Build(context.Background())
	if !errors.Is(err, ErrManagedBuild) {
		t.Fatalf("expected ErrManagedBuild, got %v", err)
	}
}

func TestPublish_MissingProject(t *testing.T) {
	mock := &mockRunner{}
	e := NewExecutor(mock, t.TempDir(), io.Discard)

	err := e.Publish(context.Background(), "Proton.Sdk.Drive.CExports", "linux-x64")
	if !errors.Is(err, ErrProjectDirMissing) {
		t.Fatalf("expected ErrProjectDirMissing, got %v", err)
	}
}

func TestPublish_RunsRestoreThenPublish(t *testing.T) {
	root := t.TempDir()
	projDir := filepath.Join(root, "src", "Proton.Sdk.Drive.CExports")
	if err := os.MkdirAll(projDir, 0o755); err != nil {
		t.Fatal(err)
	}
	csproj := filepath.Join(projDir, "Proton.Sdk.Drive.CExports.csproj")
	if err := os.WriteFile(csproj, []byte("<Project/>"), 0o644); err != nil {
		t.Fatal(err)
	}

	mock := &mockRunner{}
	e := NewExecutor(mock, root, io.Discard)

	if err := e.Publish(context.Background(), "Proton.Sdk.Drive.CExports", "osx-arm64"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(mock.calls) != 2 {
		t.Fatalf("expected restore + publish, got %d calls", len(mock.calls))
	}
	if mock.calls[0][1] != "restore" {
		t.Errorf("expected first call restore, got %v", mock.calls[0])
	}
	publish := mock.calls[1]
	if publish[1] != "publish" {
		t.Fatalf("expected publish, got %v", publish)
	}
	found := false
	for _, arg := range publish {
		if arg == "osx-arm64" {
			found = true
		}
	}
	if !found {
		t.Errorf("runtime identifier missing from publish args: %v", publish)
	}
}

// scriptedRunner assigns exit codes per invocation.
type scriptedRunner struct {
	calls [][]string
	onRun func(name string, args []string) int
}

func (s *scriptedRunner) Run(ctx context.Context, dir string, name string, args ...string) (string, string, int, error) {
	s.calls = append(s.calls, append([]string{name}, args...))
	return "", "error: source not found", s.onRun(name, args), nil
}

func TestRegisterLocalSource_RemoveThenAdd(t *testing.T) {
	root := t.TempDir()
	feed := filepath.Join(root, "local-nuget-repository")

	mock := &scriptedRunner{onRun: func(name string, args []string) int { return 0 }}
	e := NewExecutor(mock, root, io.Discard)

	if err := e.RegisterLocalSource(context.Background(), "ProtonRepository-linux-x64", feed); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fi, err := os.Stat(feed); err != nil || !fi.IsDir() {
		t.Error("feed directory should be created before registration")
	}
	if len(mock.calls) != 2 {
		t.Fatalf("expected remove + add, got %d calls", len(mock.calls))
	}
	if mock.calls[0][2] != "remove" || mock.calls[1][2] != "add" {
		t.Errorf("expected remove then add, got %v", mock.calls)
	}
}

func TestRegisterLocalSource_ToleratesUnknownSource(t *testing.T) {
	mock := &scriptedRunner{onRun: func(name string, args []string) int {
		if len(args) > 1 && args[1] == "remove" {
			return 1
		}
		return 0
	}}
	e := NewExecutor(mock, t.TempDir(), io.Discard)

	if err := e.RegisterLocalSource(context.Background(), "ProtonRepository-win-x64", t.TempDir()); err != nil {
		t.Fatalf("removing a source that never existed should not fail registration: %v", err)
	}
}

func TestRegisterLocalSource_AddFailureIsFatal(t *testing.T) {
	mock := &scriptedRunner{onRun: func(name string, args []string) int {
		if len(args) > 1 && args[1] == "add" {
			return 1
		}
		return 0
	}}
	e := NewExecutor(mock, t.TempDir(), io.Discard)

	if err := e.RegisterLocalSource(context.Background(), "ProtonRepository-win-x64", t.TempDir()); err == nil {
		t.Fatal("expected error when the source cannot be added")
	}
}

func TestPublishOutputDir_PrefersPublishSubdir(t *testing.T) {
	root := t.TempDir()
	base := filepath.Join(root, "src", "Proton.Sdk.Drive.CExports", "bin", "Release", "net9.0", "linux-x64")
	if err := os.MkdirAll(filepath.Join(base, "publish"), 0o755); err != nil {
		t.Fatal(err)
	}

	e := NewExecutor(&mockRunner{}, root, io.Discard)
	dir, ok := e.PublishOutputDir("Proton.Sdk.Drive.CExports", "linux-x64")
	if !ok {
		t.Fatal("expected output dir to be found")
	}
	if filepath.Base(dir) != "publish" {
		t.Errorf("expected publish subdir, got %q", dir)
	}
}

func TestPublishOutputDir_FallsBackToOutputDir(t *testing.T) {
	root := t.TempDir()
	base := filepath.Join(root, "src", "Proton.Sdk.Drive.CExports", "bin", "Release", "net9.0", "linux-x64")
	if err := os.MkdirAll(base, 0o755); err != nil {
		t.Fatal(err)
	}

	e := NewExecutor(&mockRunner{}, root, io.Discard)
	dir, ok := e.PublishOutputDir("Proton.Sdk.Drive.CExports", "linux-x64")
	if !ok {
		t.Fatal("expected output dir to be found")
	}
	if dir != base {
		t.Errorf("expected %q, got %q", base, dir)
	}

	if _, ok := e.PublishOutputDir("Proton.Sdk.Drive.CExports", "win-x64"); ok {
		t.Error("expected missing runtime dir to be absent")
	}
}
