package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.SDK.Root != "Proton.SDK" {
		t.Errorf("expected sdk root Proton.SDK, got %q", cfg.SDK.Root)
	}
	if len(cfg.SDK.ExportProjects) != 3 {
		t.Errorf("expected 3 export projects, got %d", len(cfg.SDK.ExportProjects))
	}
	if len(cfg.Matrix) != 4 {
		t.Errorf("expected 4 matrix targets, got %d", len(cfg.Matrix))
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	data := []byte("sdk:\n  root: SDK.Fork\noutput:\n  nativeLibs: out/native\n")
	if err := os.WriteFile(filepath.Join(dir, ConfigFileName), data, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.SDK.Root != "SDK.Fork" {
		t.Errorf("expected overridden sdk root, got %q", cfg.SDK.Root)
	}
	if cfg.Output.NativeLibs != "out/native" {
		t.Errorf("expected overridden nativeLibs, got %q", cfg.Output.NativeLibs)
	}
	// Untouched sections keep their defaults.
	if cfg.Cargo.BindingsPackage != "proton-sdk-sys" {
		t.Errorf("expected default bindings package, got %q", cfg.Cargo.BindingsPackage)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ConfigFileName), []byte("sdk: ["), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(dir); err == nil {
		t.Fatal("expected parse error, got nil")
	}
}

func TestTarget(t *testing.T) {
	cfg := Default()

	target, ok := cfg.Target("osx-arm64")
	if !ok {
		t.Fatal("expected osx-arm64 in default matrix")
	}
	if target.OS != "macos" || target.Arch != "arm64" {
		t.Errorf("unexpected target: %+v", target)
	}

	if _, ok := cfg.Target("freebsd-x64"); ok {
		t.Error("expected unknown runtime to be absent")
	}
}
