// Package config provides the protonbuild workspace configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const ConfigFileName = "protonbuild.yaml"

// Config represents the workspace configuration. Every field has a default
// matching the proton-sdk-rs repository layout, so a bare checkout builds
// with no config file at all.
type Config struct {
	Version string           `yaml:"version"`
	SDK     SDKConfig        `yaml:"sdk"`
	Crypto  CryptoConfig     `yaml:"crypto"`
	Cargo   CargoConfig      `yaml:"cargo"`
	Output  OutputConfig     `yaml:"output"`
	Matrix  []PlatformTarget `yaml:"matrix"`
}

// SDKConfig describes the managed Proton.SDK checkout.
type SDKConfig struct {
	// Root is the SDK directory relative to the workspace root.
	Root string `yaml:"root"`
	// Repo is the upstream URL cloned by CI matrix cells.
	Repo string `yaml:"repo"`
	// ExportProjects are the sub-projects expected to emit native export
	// libraries under src/<name>/bin/Release.
	ExportProjects []string `yaml:"exportProjects"`
	// DriveExportProject is the project published ahead-of-time per
	// platform in CI.
	DriveExportProject string `yaml:"driveExportProject"`
}

// CryptoConfig describes the dotnet-crypto dependency built per matrix cell.
type CryptoConfig struct {
	Root    string `yaml:"root"`
	Repo    string `yaml:"repo"`
	Project string `yaml:"project"`
}

// CargoConfig names the Rust packages driven by the systems build.
type CargoConfig struct {
	// BindingsPackage is the unsafe low-level binding crate.
	BindingsPackage string `yaml:"bindingsPackage"`
	// WrapperPackage is the safe high-level wrapper crate.
	WrapperPackage string `yaml:"wrapperPackage"`
}

// OutputConfig holds the directories the pipeline produces.
type OutputConfig struct {
	NativeLibs string `yaml:"nativeLibs"`
	Dist       string `yaml:"dist"`
}

// PlatformTarget is one (OS family, architecture) cell of the CI matrix.
type PlatformTarget struct {
	OS      string `yaml:"os"`
	Arch    string `yaml:"arch"`
	Runtime string `yaml:"runtime"`
}

func (t PlatformTarget) String() string {
	return fmt.Sprintf("%s/%s (%s)", t.OS, t.Arch, t.Runtime)
}

// Default returns the configuration matching the proton-sdk-rs layout.
func Default() *Config {
	return &Config{
		Version: "1",
		SDK: SDKConfig{
			Root: "Proton.SDK",
			Repo: "https://github.com/4tkbytes/Proton.SDK",
			ExportProjects: []string{
				"Proton.Sdk.CExports",
				"Proton.Sdk.Drive.CExports",
				"Proton.Sdk.Instrumentation.CExports",
			},
			DriveExportProject: "Proton.Sdk.Drive.CExports",
		},
		Crypto: CryptoConfig{
			Root:    "dotnet-crypto",
			Repo:    "https://github.com/4tkbytes/dotnet-crypto",
			Project: filepath.Join("src", "dotnet", "Proton.Cryptography.csproj"),
		},
		Cargo: CargoConfig{
			BindingsPackage: "proton-sdk-sys",
			WrapperPackage:  "proton-sdk-rs",
		},
		Output: OutputConfig{
			NativeLibs: "native-libs",
			Dist:       "dist",
		},
		Matrix: []PlatformTarget{
			{OS: "windows", Arch: "amd64", Runtime: "win-x64"},
			{OS: "linux", Arch: "amd64", Runtime: "linux-x64"},
			{OS: "macos", Arch: "amd64", Runtime: "osx-x64"},
			{OS: "macos", Arch: "arm64", Runtime: "osx-arm64"},
		},
	}
}

// Load reads protonbuild.yaml from dir. A missing file is not an error; the
// defaults describe a standard checkout. Fields present in the file override
// the corresponding defaults.
func Load(dir string) (*Config, error) {
	cfg := Default()

	path := filepath.Join(dir, ConfigFileName)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", ConfigFileName, err)
	}
	return cfg, nil
}

// Target returns the matrix entry for the given runtime identifier.
func (c *Config) Target(runtime string) (PlatformTarget, bool) {
	for _, t := range c.Matrix {
		if t.Runtime == runtime {
			return t, true
		}
	}
	return PlatformTarget{}, false
}
