package ci

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"

	"github.com/conveyor-ci/conveyor/internal/meta"
	"github.com/conveyor-ci/conveyor/internal/runnable"
	"github.com/conveyor-ci/conveyor/internal/ui"
)

func (s *Stage) Prepare(conductor *Conductor, skip bool, overridden bool) hcl.Diagnostics {
	logger := conductor.Logger().WithField("stage", s.Id)

	var id string
	if skip {
		id = fmt.Sprintf("%s", ui.Grey("skipped"))
	}
	if overridden {
		id = fmt.Sprintf("%s", ui.Blue("overridden"))
	}
	logger.Infof("%s", id)
	return nil
}

func (s *Stage) Run(conductor *Conductor, options ...runnable.Option) hcl.Diagnostics {
	var diags hcl.Diagnostics
	var err error
	logger := conductor.Logger().WithField("stage", s.Id)
	cfg := runnable.NewConfig(options...)

	logger.Debugf("running %s", s.String())

	evalCtx := conductor.Eval().Context().NewChild()
	evalCtx.Variables = map[string]cty.Value{
		ThisBlock: cty.ObjectVal(map[string]cty.Value{
			"name":   cty.StringVal(s.Name),
			"id":     cty.StringVal(s.Id),
			"status": cty.StringVal(string(cfg.Status.Status)),
		}),
	}

	environment, d := s.Environment.Evaluate(conductor, evalCtx)
	diags = diags.Extend(d)
	if diags.HasErrors() {
		return diags
	}

	envStrings := s.processEnvironmentVariables(conductor, environment, cfg)

	cmd, d := s.parseExecCommand(conductor, evalCtx, cfg, envStrings)
	diags = diags.Extend(d)
	if diags.HasErrors() {
		return diags
	}
	logger.Tracef("script: %.30s... ", cmd.String())

	if s.Container == nil {
		s.process = cmd
		if !cfg.Behavior.DryRun {
			err = cmd.Run()

			if err != nil && err.Error() == "signal: terminated" && s.Terminated() {
				logger.Warnf("command terminated with signal: %s", cmd.ProcessState.String())
				err = nil
			}
		} else {
			fmt.Println(cmd.String())
		}
	} else {
		d := s.executeDocker(conductor, evalCtx, cmd, cfg)
		diags = diags.Extend(d)
	}

	if err != nil {
		if s.AllowFailure {
			logger.Warnf("%s failed, continuing (allow_failure): %s", s.Identifier(), err)
		} else {
			diags = diags.Append(&hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  fmt.Sprintf("failed to run command (%s)", s.Identifier()),
				Detail:   err.Error(),
			})
		}
	}

	return diags
}

func (s *Stage) parseExecCommand(conductor *Conductor, evalCtx *hcl.EvalContext, cfg *runnable.Config, envStrings []string) (*exec.Cmd, hcl.Diagnostics) {
	var diags hcl.Diagnostics
	logger := conductor.Logger().WithField("stage", s.Id)

	logger.Trace("evaluating script value")
	conductor.Eval().Mutex().RLock()
	script, d := s.Script.Value(evalCtx)
	conductor.Eval().Mutex().RUnlock()

	if d.HasErrors() && cfg.Behavior.DryRun {
		script = cty.StringVal(ui.Italic(ui.Yellow("(will be evaluated later)")))
	} else {
		diags = diags.Extend(d)
	}

	logger.Trace("evaluating shell value")
	conductor.Eval().Mutex().RLock()
	shellRaw, d := s.Shell.Value(evalCtx)
	conductor.Eval().Mutex().RUnlock()

	shell := ""
	if d.HasErrors() {
		diags = diags.Extend(d)
	} else {
		if shellRaw.IsNull() {
			shell = "bash"
		} else {
			shell = shellRaw.AsString()
		}
	}

	logger.Trace("evaluating args value")
	conductor.Eval().Mutex().RLock()
	args, d := s.Args.Value(evalCtx)
	conductor.Eval().Mutex().RUnlock()
	diags = diags.Extend(d)

	cmdHcl, d := s.parseCommand(evalCtx, shell, script, args)
	diags = diags.Extend(d)
	if diags.HasErrors() {
		return nil, diags
	}

	dir := cfg.Paths.Cwd

	conductor.Eval().Mutex().RLock()
	dirParsed, d := s.Dir.Value(evalCtx)
	conductor.Eval().Mutex().RUnlock()

	if d.HasErrors() {
		diags = diags.Extend(d)
	} else {
		if !dirParsed.IsNull() && dirParsed.AsString() != "" {
			dir = dirParsed.AsString()
		}
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(cfg.Paths.Cwd, dir)
		}
		if cfg.Behavior.DryRun {
			fmt.Println(ui.Blue("cd"), dir)
		}
	}

	cmd := exec.CommandContext(conductor.Context(), cmdHcl.command, cmdHcl.args...)
	cmd.Stdout = logger.Writer()
	cmd.Stderr = logger.Writer()
	cmd.Env = append(os.Environ(), envStrings...)
	cmd.Dir = dir
	return cmd, diags
}

type command struct {
	args    []string
	command string

	isEmpty bool
}

func (s *Stage) parseCommand(evalCtx *hcl.EvalContext, shell string, script cty.Value, args cty.Value) (command, hcl.Diagnostics) {
	var diags hcl.Diagnostics
	runArgs := make([]string, 0)
	runCommand := shell

	// emptyCommands - specifies if both args and scripts were unset
	emptyCommands := false
	if script.Type() == cty.String {
		if !script.IsKnown() {
			diags = diags.Append(&hcl.Diagnostic{
				Severity:    hcl.DiagError,
				Summary:     "invalid script",
				Detail:      "script is not a valid string",
				Subject:     s.Script.Range().Ptr(),
				EvalContext: evalCtx,
			})
			return command{}, diags
		}
		if shell == "bash" {
			runArgs = append(runArgs, "-e", "-u", "-c", script.AsString())
		} else if shell == "sh" {
			runArgs = append(runArgs, "-e", "-c", script.AsString())
		} else {
			runArgs = append(runArgs, script.AsString())
		}
	} else if !args.IsNull() && len(args.AsValueSlice()) != 0 {
		runCommand = args.AsValueSlice()[0].AsString()
		for i, a := range args.AsValueSlice() {
			if i == 0 {
				continue
			}
			runArgs = append(runArgs, a.AsString())
		}
	} else if s.Container == nil {
		// if the container is not null, we may rely on internal args or entrypoint scripts
		diags = diags.Append(&hcl.Diagnostic{
			Severity:    hcl.DiagError,
			Summary:     "No commands specified",
			Detail:      "Either script or args must be specified",
			Subject:     s.Script.Range().Ptr(),
			EvalContext: evalCtx,
		})
	} else {
		emptyCommands = true
	}
	return command{
		args:    runArgs,
		command: runCommand,
		isEmpty: emptyCommands,
	}, diags
}

func (s *Stage) processEnvironmentVariables(conductor *Conductor, environment map[string]string, cfg *runnable.Config) []string {
	logger := conductor.Logger().WithField("stage", s.Id)

	merged := make(map[string]string, len(environment)+len(cfg.Environment))
	for k, v := range cfg.Environment {
		merged[k] = v
	}
	for k, v := range environment {
		merged[k] = v
	}

	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	envStrings := make([]string, 0, len(merged)+1)
	for _, k := range keys {
		envParsed := fmt.Sprintf("%s=%s", k, merged[k])
		if cfg.Behavior.DryRun {
			fmt.Println(ui.Blue("export"), envParsed)
		}
		envStrings = append(envStrings, envParsed)
	}

	outputsEnvExport := fmt.Sprintf("%s=%s", meta.OutputEnvVar, filepath.Join(conductor.TempDir(), meta.OutputEnvFile))
	logger.Tracef("exporting %s", outputsEnvExport)
	envStrings = append(envStrings, outputsEnvExport)
	return envStrings
}

func (s *Stage) CanRun(conductor *Conductor, options ...runnable.Option) (ok bool, diags hcl.Diagnostics) {
	logger := conductor.Logger().WithField("stage", s.Id)
	logger.Debugf("checking if %s can run", s.String())
	evalCtx := conductor.Eval().Context()

	cfg := runnable.NewConfig(options...)

	evalCtx = evalCtx.NewChild()
	evalCtx.Variables = map[string]cty.Value{
		ThisBlock: cty.ObjectVal(map[string]cty.Value{
			"name":   cty.StringVal(s.Name),
			"id":     cty.StringVal(s.Id),
			"status": cty.StringVal(string(cfg.Status.Status)),
		}),
	}

	conductor.Eval().Mutex().RLock()
	v, d := s.Condition.Value(evalCtx)
	conductor.Eval().Mutex().RUnlock()
	if d.HasErrors() {
		return false, diags.Extend(d)
	}

	if v.Equals(cty.False).True() {
		// this stage has been explicitly evaluated to false
		// we will not run this
		return false, diags
	}

	return true, diags
}

func (s *Stage) Terminate(safe bool) hcl.Diagnostics {
	var diags hcl.Diagnostics
	s.terminated = true

	if s.Container != nil && s.ContainerId != "" {
		d := s.terminateDocker(nil)
		diags = diags.Extend(d)
	} else if s.process != nil && s.process.Process != nil {
		err := s.process.Process.Signal(os.Interrupt)
		if err != nil {
			diags = diags.Append(&hcl.Diagnostic{
				Severity: hcl.DiagWarning,
				Summary:  "error while terminating stage",
				Detail:   err.Error(),
			})
		}
	}
	return diags
}

func (s *Stage) Kill() hcl.Diagnostics {
	diags := s.Terminate(false)
	if s.process != nil && !s.terminated {
		s.terminated = true
		err := s.process.Process.Kill()
		if err != nil {
			diags = diags.Append(&hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "error while killing stage process",
				Detail:   err.Error(),
			})
		}
	}
	return diags
}

func (s *Stage) Terminated() bool {
	return s.terminated
}
