package ci

import (
	"sync"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"

	"github.com/conveyor-ci/conveyor/internal/behavior"
	"github.com/conveyor-ci/conveyor/internal/blocks"
	"github.com/conveyor-ci/conveyor/internal/dg"
	"github.com/conveyor-ci/conveyor/internal/runnable"
	"github.com/conveyor-ci/conveyor/internal/ui"
)

func StartHandlers(conductor *Conductor) *Handler {

	h := NewHandler(
		WithContext(conductor.Context()),
		WithLogger(conductor.RootLogger),
		WithDiagnosticWriter(conductor.DiagWriter),
		WithProcessBootTime(conductor.Process.BootTime),
	)
	go h.Interrupt()
	go h.Kill()
	return h
}

// Run expands the matrix and runs one job per matrix entry. Jobs never
// share state: each gets its own child conductor with its own
// evaluation context and temporary directory, so a job can neither
// observe nor corrupt another job's variables, services or outputs.
// Jobs run one after another unless --parallel is set.
func (pipe *Pipeline) Run(conductor *Conductor) (*Handler, dg.AbstractDiagnostics) {
	logger := conductor.Logger().WithField("orchestra", "run")
	h := StartHandlers(conductor)

	defer h.Cancel()
	defer h.WriteDiagnostics()

	conductor.Update(ConductorWithContext(h.Context()))

	jobs, d := pipe.Jobs()
	h.Diags.Extend(d)
	if h.Diags.HasErrors() {
		return h, h.Diags
	}

	if len(jobs) == 1 {
		d := pipe.clone().runJob(conductor, jobs[0], h.Diags)
		h.Diags.Extend(d)
		return h, h.Diags
	}

	logger.Infof("matrix expanded to %s job(s)", ui.Bold(len(jobs)))

	var wg sync.WaitGroup
	for _, job := range jobs {
		job := job
		jobPipe := pipe.clone()
		child := conductor.Child(ConductorWithConfig(childConfig(conductor, job)))
		child.Update(ConductorWithLogger(child.Logger().WithField("job", job.Name())))

		if conductor.Config.Behavior.Parallel {
			wg.Add(1)
			go func() {
				defer wg.Done()
				defer child.Destroy()
				d := jobPipe.runJob(child, job, h.Diags)
				h.Diags.Extend(d)
			}()
			continue
		}

		logger.Infof("%s %s", ui.Matrix, ui.Bold(job.Name()))
		d := jobPipe.runJob(child, job, h.Diags)
		h.Diags.Extend(d)
		child.Destroy()
	}
	wg.Wait()

	return h, h.Diags
}

// clone produces an independent copy of the pipeline for one matrix
// job. Block definitions are immutable once decoded, but blocks carry
// runtime state (processes, container ids, evaluated values) which must
// not leak between jobs.
func (pipe *Pipeline) clone() *Pipeline {
	p := &Pipeline{
		Builder:     pipe.Builder,
		Matrix:      pipe.Matrix,
		Coverage:    pipe.Coverage,
		Environment: pipe.Environment,
		Locals:      pipe.Locals,
	}
	p.Stages = append(Stages{}, pipe.Stages...)
	p.Services = append(Services{}, pipe.Services...)
	p.Databases = append(Databases{}, pipe.Databases...)
	for _, v := range pipe.Vars {
		vv := *v
		p.Vars = append(p.Vars, &vv)
	}
	return p
}

// Jobs returns the list of matrix jobs this pipeline expands to. A
// pipeline without a matrix block is a single default job.
func (pipe *Pipeline) Jobs() ([]*Job, hcl.Diagnostics) {
	if pipe.Matrix == nil {
		return []*Job{{Index: 0}}, nil
	}
	return pipe.Matrix.Expand()
}

func childConfig(conductor *Conductor, job *Job) ConductorConfig {
	cfg := conductor.Config
	b := *cfg.Behavior
	b.Child = behavior.Child{
		Enabled: true,
		Job:     job.Name(),
	}
	cfg.Behavior = &b
	return cfg
}

// runJob executes one matrix job's dependency graph to completion. The
// shared diagnostics accumulator is only consulted, never written, so
// that parallel jobs do not abort one another.
func (pipe *Pipeline) runJob(conductor *Conductor, job *Job, parentDiags *dg.SafeDiagnostics) hcl.Diagnostics {
	logger := conductor.Logger().WithField("orchestra", "run")
	cfg := conductor.Config

	h := NewHandler(
		WithContext(conductor.Context()),
		WithLogger(conductor.RootLogger),
		WithDiagnosticWriter(conductor.DiagWriter),
		WithProcessBootTime(conductor.Process.BootTime),
	)
	defer h.Cancel()
	defer h.WriteDiagnostics()

	// we will first expand all local blocks
	logger.Debugf("expanding local blocks")
	locals, d := pipe.Locals.Expand()
	h.Diags.Extend(d)
	if d.HasErrors() {
		return h.Diags.Diagnostics()
	}
	pipe.Local = locals

	conductor.SetPipeline(pipe)
	job.Publish(conductor)

	// pipeline-level env blocks are evaluated once per job, with the
	// matrix env set layered on top
	conductor.Eval().Mutex().RLock()
	pipeEnv, d := pipe.Environment.Evaluate(conductor, conductor.Eval().Context())
	conductor.Eval().Mutex().RUnlock()
	h.Diags.Extend(d)
	if d.HasErrors() {
		return h.Diags.Diagnostics()
	}
	environment := make(map[string]string, len(pipeEnv)+len(job.Env))
	for k, v := range pipeEnv {
		environment[k] = v
	}
	for k, v := range job.Env {
		environment[k] = v
	}

	// --> generate a dependency graph
	logger.Debugf("generating dependency graph")
	depGraph, d := GraphTopoSort(conductor, pipe)
	h.Diags.Extend(d)
	if h.Diags.HasErrors() {
		return h.Diags.Diagnostics()
	}

	opts := []runnable.Option{
		runnable.WithBehavior(cfg.Behavior),
		runnable.WithPaths(cfg.Paths),
		runnable.WithEnvironment(environment),
	}

	logger.Debugf("starting runnables")
	for _, layer := range depGraph.TopoSortedLayers() {
		// outputs written by earlier layers become output.* here
		d = ExpandOutputs(conductor)
		h.Diags.Extend(d)
		if h.Diags.HasErrors() {
			break
		}

		for _, runnableId := range layer {

			block, skip, d := pipe.Resolve(runnableId)
			if skip {
				continue
			}
			if d.HasErrors() {
				h.Diags.Extend(d)
				break
			}

			ok, overridden, d := BlockCanRun(block, conductor, runnableId, depGraph, opts...)
			h.Diags.Extend(d)
			if d.HasErrors() {
				break
			}

			// prepare step needs to run before the runnable runs
			// we will also need to prompt the user with the information saying that it has been skipped
			d = block.Prepare(conductor, !ok, overridden)
			h.Diags.Extend(d)
			if d.HasErrors() {
				break
			}

			if !ok {
				logger.Debugf("skipping runnable %s, condition evaluated to false", runnableId)
				continue
			}

			logger.Debugf("runnable %s is %T", runnableId, block)

			h.Tracker.AppendRunnable(block)
			if block.IsDaemon() {
				h.Tracker.AppendDaemon(block)
			}

			go BlockRunWithRetries(conductor, runnableId, block, h, conductor.Logger(), opts...)

			if cfg.Behavior.DryRun || cfg.Behavior.DisableConcurrency {
				h.Tracker.RunnableWait()
			}
		}
		h.Tracker.RunnableWait()

		if h.Diags.HasErrors() || parentDiags.HasErrors() {
			break
		}
	}

	if h.Tracker.HasDaemons() {
		h.TerminateDaemons()
	}

	if !h.Diags.HasErrors() && pipe.Coverage != nil {
		d := pipe.Coverage.Report(conductor, job, opts...)
		h.Diags.Extend(d)
	}

	return h.Diags.Diagnostics()
}

// Publish exposes the job's matrix coordinates on the conductor's
// evaluation context as matrix.* and job.*.
func (j *Job) Publish(conductor *Conductor) {
	axes := make(map[string]cty.Value, len(j.Axes))
	for k, v := range j.Axes {
		axes[k] = cty.StringVal(v)
	}

	conductor.Eval().Mutex().Lock()
	defer conductor.Eval().Mutex().Unlock()
	variables := conductor.Eval().Context().Variables
	if len(axes) > 0 {
		variables[blocks.MatrixBlock] = cty.ObjectVal(axes)
	}
	variables[blocks.JobBlock] = cty.ObjectVal(map[string]cty.Value{
		"name":  cty.StringVal(j.Name()),
		"index": cty.NumberIntVal(int64(j.Index)),
	})
}
