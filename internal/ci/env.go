package ci

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
)

// EnvVar is a single environment variable block:
//
//	env "DJANGO" { value = "1.6.10" }
type EnvVar struct {
	Name  string         `hcl:"name,label" json:"name"`
	Value hcl.Expression `hcl:"value" json:"value"`
}

type EnvVars []EnvVar

func (e *EnvVar) Variables() []hcl.Traversal {
	return e.Value.Variables()
}

func (e EnvVars) Variables() []hcl.Traversal {
	var traversal []hcl.Traversal
	for _, env := range e {
		traversal = append(traversal, env.Variables()...)
	}
	return traversal
}

// Evaluate resolves every env block into a plain string map.
func (e EnvVars) Evaluate(conductor *Conductor, evalCtx *hcl.EvalContext) (map[string]string, hcl.Diagnostics) {
	var diags hcl.Diagnostics
	environment := make(map[string]string)
	for _, env := range e {
		conductor.Eval().Mutex().RLock()
		v, d := env.Value.Value(evalCtx)
		conductor.Eval().Mutex().RUnlock()

		diags = diags.Extend(d)
		if d.HasErrors() {
			continue
		}
		if v.IsNull() {
			diags = diags.Append(&hcl.Diagnostic{
				Severity:    hcl.DiagError,
				Summary:     "invalid environment variable",
				Detail:      fmt.Sprintf("environment variable %s is null", env.Name),
				EvalContext: evalCtx,
				Subject:     env.Value.Range().Ptr(),
			})
		} else if v.Type() != cty.String {
			diags = diags.Append(&hcl.Diagnostic{
				Severity:    hcl.DiagError,
				Summary:     "invalid environment variable",
				Detail:      fmt.Sprintf("environment variable %s is not a string", env.Name),
				EvalContext: evalCtx,
				Subject:     env.Value.Range().Ptr(),
			})
		} else {
			environment[env.Name] = v.AsString()
		}
	}
	return environment, diags
}
