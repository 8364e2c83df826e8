package toolchain

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/4tkbytes/proton-sdk-build/internal/ui"
)

// MinDotnetScore is the minimum accepted dotnet version, encoded as
// major*10+minor. 90 corresponds to .NET 9.0, the floor for AOT-publishing
// the export projects.
const MinDotnetScore = 90

var (
	ErrToolMissing       = errors.New("required tool not found")
	ErrVersionTooLow     = errors.New("dotnet version too low")
	ErrVersionUnparsable = errors.New("cannot parse dotnet version")
)

// Versions reports what the host toolchains answered to their version query.
type Versions struct {
	Git    string
	Dotnet string
	Cargo  string
}

// Verifier is the pipeline's entry gate: it probes the host for the
// toolchains every later stage depends on.
type Verifier struct {
	runner CommandRunner
	out    io.Writer
}

func NewVerifier(runner CommandRunner, out io.Writer) *Verifier {
	return &Verifier{runner: runner, out: out}
}

// Verify probes git, dotnet and cargo and enforces the dotnet version gate.
// Any failure here is fatal to the pipeline.
func (v *Verifier) Verify(ctx context.Context) (*Versions, error) {
	versions := &Versions{}

	probes := []struct {
		tool string
		args []string
		dest *string
	}{
		{"git", []string{"--version"}, &versions.Git},
		{"dotnet", []string{"--version"}, &versions.Dotnet},
		{"cargo", []string{"--version"}, &versions.Cargo},
	}

	for _, p := range probes {
		stdout, _, exitCode, err := v.runner.Run(ctx, "", p.tool, p.args...)
		if err != nil || exitCode != 0 {
			fmt.Fprintln(v.out, ui.Error(p.tool+" is not available"))
			return nil, fmt.Errorf("%w: %s", ErrToolMissing, p.tool)
		}
		*p.dest = firstLine(stdout)
		fmt.Fprintf(v.out, "%s %s\n", ui.Success(p.tool+" is available"), ui.SubtleStyle.Render(*p.dest))
	}

	score, err := VersionScore(versions.Dotnet)
	if err != nil {
		fmt.Fprintln(v.out, ui.Error("could not determine dotnet version"))
		return nil, err
	}
	if score < MinDotnetScore {
		fmt.Fprintln(v.out, ui.Error(fmt.Sprintf("dotnet %s found, .NET 9.0 or newer required", versions.Dotnet)))
		return nil, fmt.Errorf("%w: found %d, required %d", ErrVersionTooLow, score, MinDotnetScore)
	}

	return versions, nil
}

// VersionScore converts a dotted version string into the major*10+minor
// value the gate compares against.
func VersionScore(version string) (int, error) {
	parts := strings.Split(strings.TrimSpace(version), ".")
	if len(parts) < 2 {
		return 0, fmt.Errorf("%w: %q", ErrVersionUnparsable, version)
	}
	major, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrVersionUnparsable, version)
	}
	minor, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrVersionUnparsable, version)
	}
	return major*10 + minor, nil
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}
