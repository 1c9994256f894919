package ci

import (
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"

	"github.com/conveyor-ci/conveyor/internal/blocks"
	"github.com/conveyor-ci/conveyor/internal/meta"
	"github.com/conveyor-ci/conveyor/internal/runnable"
	"github.com/conveyor-ci/conveyor/internal/ui"
)

func (v *Variable) Prepare(conductor *Conductor, skip bool, overridden bool) hcl.Diagnostics {
	return nil
}

func (v *Variable) CanRun(conductor *Conductor, options ...runnable.Option) (bool, hcl.Diagnostics) {
	return true, nil
}

// Run resolves the variable's value and publishes it under var.<id>.
func (v *Variable) Run(conductor *Conductor, options ...runnable.Option) hcl.Diagnostics {
	var diags hcl.Diagnostics
	logger := conductor.Logger().WithField("var", v.Id)
	cfg := runnable.NewConfig(options...)

	value, found := "", false

	// -var flag, passed through the conductor
	for _, provided := range conductor.Variables() {
		if provided.Id == v.Id {
			value, found = provided.value, true
			break
		}
	}

	if !found {
		envKey := fmt.Sprintf("%svar__%s", meta.EnvVarPrefix, v.Id)
		if envValue, ok := os.LookupEnv(envKey); ok {
			value, found = envValue, true
		}
	}

	if !found && v.Default != nil {
		value, found = *v.Default, true
	}

	if !found {
		if cfg.Behavior != nil && (cfg.Behavior.Unattended || cfg.Behavior.Ci) {
			return diags.Append(&hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "variable not provided",
				Detail:   fmt.Sprintf("%s has no value and the run is unattended", v.Identifier()),
			})
		}
		conductor.StdinLock()
		prompt := &ui.Prompter{}
		message := v.Desc
		if message == "" {
			message = fmt.Sprintf("value for %s", v.Identifier())
		}
		answer, err := prompt.String(message, "")
		conductor.StdinUnlock()
		if err != nil {
			return diags.Append(&hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "could not read variable",
				Detail:   err.Error(),
			})
		}
		value = answer
	}

	v.value = value
	if v.Sensitive {
		logger.Debugf("resolved (sensitive, value withheld)")
	} else {
		logger.Debugf("resolved to %q", value)
	}

	conductor.Eval().Mutex().Lock()
	defer conductor.Eval().Mutex().Unlock()

	evalCtx := conductor.Eval().Context()
	vars := map[string]cty.Value{}
	if existing, ok := evalCtx.Variables[blocks.VariableBlock]; ok && !existing.IsNull() {
		for k, val := range existing.AsValueMap() {
			vars[k] = val
		}
	}
	vars[v.Id] = cty.StringVal(value)
	evalCtx.Variables[blocks.VariableBlock] = cty.ObjectVal(vars)
	return diags
}

func (v *Variable) Value() string {
	return v.value
}
