package ci

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"

	"github.com/conveyor-ci/conveyor/internal/blocks"
	"github.com/conveyor-ci/conveyor/internal/x"
)

// Variable is a runtime input:
//
//	var "django" {
//	  description = "framework version under test"
//	  default     = "1.6.10"
//	}
//
// Values resolve, in order, from the -var flag, the CONVEYOR__var__<id>
// environment variable, the declared default, and finally an interactive
// prompt when the run is attended.
type Variable struct {
	Id string `hcl:"id,label" json:"id"`

	Desc      string  `hcl:"description,optional" json:"description"`
	Default   *string `hcl:"default,optional" json:"default"`
	Sensitive bool    `hcl:"sensitive,optional" json:"sensitive"`

	value string
}

type Variables []*Variable

func NewVariable(id, value string) *Variable {
	return &Variable{Id: id, value: value, Default: &value}
}

func (v *Variable) Description() Description {
	return Description{
		Name:        v.Id,
		Description: v.Desc,
	}
}

func (v *Variable) Identifier() string {
	return v.String()
}

func (v *Variable) Type() string {
	return blocks.VariableBlock
}

func (v *Variable) IsDaemon() bool {
	return false
}

func (v *Variable) String() string {
	return x.RenderBlock(blocks.VariableBlock, v.Id)
}

func (v *Variable) Variables() []hcl.Traversal {
	return nil
}

func (v *Variable) CanRetry() bool {
	return false
}

func (v *Variable) MaxRetries() int {
	return 0
}

func (v *Variable) MinRetryBackoff() int {
	return 0
}

func (v *Variable) MaxRetryBackoff() int {
	return 0
}

func (v *Variable) RetryExponentialBackoff() bool {
	return false
}

func (v *Variable) Terminate(safe bool) hcl.Diagnostics {
	return nil
}

func (v *Variable) Kill() hcl.Diagnostics {
	return nil
}

func (v *Variable) Terminated() bool {
	return true
}

func (s Variables) ById(id string) (*Variable, hcl.Diagnostics) {
	for _, variable := range s {
		if variable.Id == id {
			return variable, nil
		}
	}
	return nil, hcl.Diagnostics{
		{
			Severity: hcl.DiagError,
			Summary:  "Variable not found",
			Detail:   fmt.Sprintf("variable input with id %s not found", id),
		},
	}
}

func (s Variables) CheckIfDistinct(ss Variables) hcl.Diagnostics {
	var diags hcl.Diagnostics
	for _, variable := range s {
		for _, variable2 := range ss {
			if variable.Id == variable2.Id {
				diags = append(diags, &hcl.Diagnostic{
					Severity: hcl.DiagError,
					Summary:  "Duplicate variable",
					Detail:   "Variable with id " + variable.Id + " is defined more than once",
				})
			}
		}
	}
	return diags
}
