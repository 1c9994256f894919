package ci

import (
	"os"
	"path/filepath"

	"github.com/hashicorp/go-envparse"
	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"

	"github.com/conveyor-ci/conveyor/internal/meta"
	"github.com/conveyor-ci/conveyor/internal/x"
)

// ExpandOutputs reads the outputs env file of this conductor and makes
// its keys available as output.* in the evaluation context. Stages
// append KEY=value lines to the file, so later layers can consume what
// earlier layers produced.
func ExpandOutputs(conductor *Conductor) hcl.Diagnostics {
	var diags hcl.Diagnostics
	logger := conductor.Logger().WithField("orchestra", "outputs")
	outputEnvFile := filepath.Join(conductor.Process.TempDir, meta.OutputEnvFile)
	logger.Tracef("%s will be stored and exported here: %s", meta.OutputEnvVar, outputEnvFile)
	envFile, err := os.OpenFile(outputEnvFile, os.O_RDONLY|os.O_CREATE, 0644)
	if err == nil {
		e, err := envparse.Parse(envFile)
		x.Must(envFile.Close())
		if err != nil {
			diags = diags.Append(&hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "could not parse outputs file",
				Detail:   err.Error(),
			})
			return diags
		}
		ee := make(map[string]cty.Value)
		for k, v := range e {
			ee[k] = cty.StringVal(v)
		}
		conductor.Eval().Mutex().Lock()
		conductor.Eval().Context().Variables[OutputBlock] = cty.ObjectVal(ee)
		conductor.Eval().Mutex().Unlock()
	} else {
		logger.Warnf("could not open %s file, ignoring... :%s", meta.OutputEnvVar, err)
	}
	return diags
}
