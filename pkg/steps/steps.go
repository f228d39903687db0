// Package steps models a provisioning or cleanup run as an ordered list of
// named step functions. Fatal steps abort the whole run on the first failure
// (strict mode, no rollback); best-effort steps log a warning and let the
// remaining steps run.
package steps

import (
	"context"

	"github.com/joomlactl/joomlactl/pkg/formatter"
	"github.com/joomlactl/joomlactl/pkg/telemetry"
	"github.com/joomlactl/joomlactl/pkg/utils"
)

// Mode controls how a step's failure is handled.
type Mode int

const (
	// Fatal aborts the run on failure.
	Fatal Mode = iota
	// BestEffort logs a warning on failure and continues.
	BestEffort
)

// Step is a single unit of work in a pipeline.
type Step struct {
	Name string
	Mode Mode
	Run  func(ctx context.Context) error
}

// Runner executes steps in order, printing progress through the formatter.
type Runner struct {
	pipeline string
	out      *formatter.Output
}

// NewRunner creates a step runner for the named pipeline.
func NewRunner(pipeline string, out *formatter.Output) *Runner {
	return &Runner{pipeline: pipeline, out: out}
}

// Run executes all steps in order. The first fatal failure aborts the run
// and is returned. Best-effort failures are printed as warnings, collected,
// and returned via Warnings on the result.
func (r *Runner) Run(ctx context.Context, list []Step) (*Result, error) {
	res := &Result{}

	for i, step := range list {
		r.out.Progress(i+1, len(list), "%s", step.Name)

		stepCtx, span := telemetry.TraceStep(ctx, r.pipeline, step.Name)
		err := step.Run(stepCtx)
		telemetry.EndWithError(span, err)

		if err == nil {
			res.Completed++
			continue
		}

		if step.Mode == BestEffort {
			r.out.Warning("%s: %v (continuing)", step.Name, err)
			res.warnings.Add(utils.NewError(step.Name, err))
			res.Completed++
			continue
		}

		r.out.Error("%s: %v", step.Name, err)
		return res, utils.NewError(step.Name, err)
	}

	return res, nil
}

// Result summarizes a pipeline run.
type Result struct {
	Completed int
	warnings  utils.MultiError
}

// Warnings returns the collected best-effort failures, or nil if none.
func (r *Result) Warnings() error {
	return r.warnings.ErrorOrNil()
}

// WarningCount returns the number of swallowed best-effort failures.
func (r *Result) WarningCount() int {
	return len(r.warnings.Errors)
}
