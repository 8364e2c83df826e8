// Package pipeline sequences the build steps and applies the
// failure-propagation policy: fatal failures abort the run, advisory
// failures are recorded and the run moves on.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/4tkbytes/proton-sdk-build/internal/ui"
)

// Severity decides what a step failure does to the run. It is fixed at
// construction and never mutated during execution.
type Severity int

const (
	// Advisory failures are logged; the pipeline keeps moving.
	Advisory Severity = iota
	// Fatal failures abort the run immediately.
	Fatal
)

func (s Severity) String() string {
	if s == Fatal {
		return "fatal"
	}
	return "advisory"
}

// State names where the machine currently is. The order is fixed; any
// fatal failure jumps straight to StateAborted.
type State int

const (
	StateInit State = iota
	StateCheckingDeps
	StateSyncing
	StateManagedBuild
	StateCollecting
	StateSystemsBuild
	StateTesting
	StateDone
	StateAborted
)

var stateNames = map[State]string{
	StateInit:         "init",
	StateCheckingDeps: "checking dependencies",
	StateSyncing:      "syncing",
	StateManagedBuild: "managed build",
	StateCollecting:   "collecting artifacts",
	StateSystemsBuild: "systems build",
	StateTesting:      "testing",
	StateDone:         "done",
	StateAborted:      "aborted",
}

func (s State) String() string { return stateNames[s] }

// Step is one externally observable unit of pipeline work.
type Step struct {
	Name     string
	State    State
	Severity Severity
	Run      func(ctx context.Context) error
}

// StepResult captures one step's execution for the final summary.
type StepResult struct {
	StepName  string
	Succeeded bool
	Err       error
	Duration  time.Duration
}

// Outcome aggregates every step result plus the overall verdict.
type Outcome struct {
	Results   []StepResult
	Warnings  []string
	Success   bool
	AbortedAt string
}

// Pipeline runs its steps strictly in order on a single host.
type Pipeline struct {
	steps []Step
	out   io.Writer
	state State
}

func New(out io.Writer, steps []Step) *Pipeline {
	return &Pipeline{steps: steps, out: out, state: StateInit}
}

// State exposes the machine's current state.
func (p *Pipeline) State() State { return p.state }

// Run executes the steps. The first fatal failure transitions to
// StateAborted and skips everything after it; cancellation of ctx aborts
// between steps with a clear message rather than leaving partial state
// silently.
func (p *Pipeline) Run(ctx context.Context) *Outcome {
	outcome := &Outcome{Success: true}

	for _, step := range p.steps {
		if err := ctx.Err(); err != nil {
			fmt.Fprintln(p.out, ui.Error("interrupted, aborting"))
			p.abort(outcome, "interrupted")
			return outcome
		}

		p.state = step.State
		fmt.Fprintln(p.out, ui.Step(step.Name))

		start := time.Now()
		err := step.Run(ctx)
		result := StepResult{
			StepName:  step.Name,
			Succeeded: err == nil,
			Err:       err,
			Duration:  time.Since(start),
		}
		outcome.Results = append(outcome.Results, result)

		switch {
		case err == nil:
			fmt.Fprintln(p.out, ui.Success(step.Name+" succeeded"))
		case ctx.Err() != nil:
			fmt.Fprintln(p.out, ui.Error("interrupted during "+step.Name))
			p.abort(outcome, step.Name)
			return outcome
		case step.Severity == Advisory:
			warning := fmt.Sprintf("%s failed: %v", step.Name, err)
			outcome.Warnings = append(outcome.Warnings, warning)
			fmt.Fprintln(p.out, ui.Warning(warning+" (continuing)"))
		default:
			fmt.Fprintln(p.out, ui.Error(fmt.Sprintf("%s failed: %v", step.Name, err)))
			p.abort(outcome, step.Name)
			return outcome
		}
	}

	p.state = StateDone
	p.summary(outcome)
	return outcome
}

func (p *Pipeline) abort(outcome *Outcome, at string) {
	p.state = StateAborted
	outcome.Success = false
	outcome.AbortedAt = at
	p.summary(outcome)
}

func (p *Pipeline) summary(outcome *Outcome) {
	fmt.Fprintln(p.out)
	if outcome.Success {
		msg := "build pipeline completed successfully"
		if n := len(outcome.Warnings); n > 0 {
			msg = fmt.Sprintf("%s (%d advisory warnings)", msg, n)
		}
		fmt.Fprintln(p.out, ui.Success(msg))
	} else {
		fmt.Fprintln(p.out, ui.Error("build pipeline aborted at: "+outcome.AbortedAt))
	}
	for _, w := range outcome.Warnings {
		fmt.Fprintln(p.out, ui.SubtleStyle.Render("  warning: "+w))
	}
}
