package deploy

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
)

// Task defines the basic function that the pipeline executes.
type Task func(ctx context.Context) error

// Stage is a named step of a pipeline.
type Stage struct {
	Name string
	Run  Task
}

// Pipeline runs stages one after the other. Unlike a task list where every task
// gets its chance, a pipeline stops at the first failing stage since later
// stages depend on the earlier ones having succeeded.
type Pipeline struct {
	PreExecHook  Task
	PostExecHook Task

	log io.Writer
}

// PipelineOpt customizes a [Pipeline].
type PipelineOpt func(p *Pipeline)

// NewPipeline constructs a pipeline.
func NewPipeline(opts ...PipelineOpt) *Pipeline {
	p := Pipeline{
		PreExecHook:  func(_ context.Context) error { return nil },
		PostExecHook: func(_ context.Context) error { return nil },
		log:          color.Error,
	}

	for _, opt := range opts {
		opt(&p)
	}

	return &p
}

// WithPreExecFunc allows specifying a task that will be run before the stages.
func WithPreExecFunc(hook Task) PipelineOpt {
	return func(p *Pipeline) {
		p.PreExecHook = hook
	}
}

// WithPostExecFunc allows specifying a task that will be run after all stages succeeded.
func WithPostExecFunc(hook Task) PipelineOpt {
	return func(p *Pipeline) {
		p.PostExecHook = hook
	}
}

// WithPipelineLog sets where stage progress is printed.
func WithPipelineLog(w io.Writer) PipelineOpt {
	return func(p *Pipeline) {
		p.log = w
	}
}

// Execute runs the stages in order, returning the error of the first one that fails,
// wrapped with the stage name. Stages after a failed one are not run.
func (p *Pipeline) Execute(ctx context.Context, stages ...Stage) error {
	start := time.Now()

	if err := p.PreExecHook(ctx); err != nil {
		return fmt.Errorf("failed to run pre exec hook: %w", err)
	}

	for _, stage := range stages {
		logstage(p.log, stage.Name)

		if err := stage.Run(ctx); err != nil {
			elapsed := time.Since(start).Round(time.Millisecond)
			color.New(color.FgHiBlack).Fprintf(p.log, "------------------------\n\n")
			color.New(color.FgRed).Fprintf(p.log, " ✘ %s failed after %s\n", stage.Name, elapsed)
			color.New(color.FgRed).Fprintf(p.log, "   • %s\n\n", err)
			return fmt.Errorf("%s: %w", stage.Name, err)
		}
	}

	if err := p.PostExecHook(ctx); err != nil {
		return fmt.Errorf("failed to run post exec hook: %w", err)
	}

	elapsed := time.Since(start).Round(time.Millisecond)
	color.New(color.FgHiBlack).Fprintf(p.log, "------------------------\n\n")
	color.New(color.FgGreen).Fprintf(p.log, " ✔ all good after %s\n\n", elapsed)

	return nil
}
