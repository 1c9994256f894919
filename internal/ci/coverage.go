package ci

import (
	"fmt"
	"os"

	"github.com/bmatcuk/doublestar"
	"github.com/hashicorp/hcl/v2"

	"github.com/conveyor-ci/conveyor/internal/coverage"
	"github.com/conveyor-ci/conveyor/internal/runnable"
	"github.com/conveyor-ci/conveyor/internal/ui"
)

// Coverage describes what happens to coverage data once a job's script
// phase succeeds:
//
//	coverage {
//	  files  = ["coverage.out", "**/.coverage.lcov"]
//	  format = "coverprofile"
//	  upload {
//	    url       = "https://coveralls.example/api/v1/jobs"
//	    token_env = "COVERALLS_REPO_TOKEN"
//	  }
//	}
//
// It only ever runs on success, the way after_success phases do.
type Coverage struct {
	Files  []string `hcl:"files" json:"files"`
	Format string   `hcl:"format,optional" json:"format"`

	Upload *CoverageUpload `hcl:"upload,block" json:"upload"`
}

type CoverageUpload struct {
	URL string `hcl:"url" json:"url"`

	// TokenEnv names the environment variable holding the upload token.
	// The token itself never appears in the pipeline file or the logs.
	TokenEnv string `hcl:"token_env,optional" json:"token_env"`
}

// Report collects, parses and optionally uploads the job's coverage.
func (c *Coverage) Report(conductor *Conductor, job *Job, options ...runnable.Option) hcl.Diagnostics {
	var diags hcl.Diagnostics
	logger := conductor.Logger().WithField("coverage", "")
	cfg := runnable.NewConfig(options...)

	var matched []string
	for _, pattern := range c.Files {
		matches, err := doublestar.Glob(pattern)
		if err != nil {
			diags = diags.Append(&hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "invalid coverage file pattern",
				Detail:   fmt.Sprintf("pattern %q: %s", pattern, err),
			})
			continue
		}
		matched = append(matched, matches...)
	}
	if diags.HasErrors() {
		return diags
	}
	if len(matched) == 0 {
		logger.Warnf("no coverage files matched %v", c.Files)
		return diags
	}

	report, err := coverage.Collect(matched, c.Format)
	if err != nil {
		return diags.Append(&hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "could not parse coverage data",
			Detail:   err.Error(),
		})
	}
	logger.Infof("coverage: %s", ui.Bold(fmt.Sprintf("%.2f%%", report.Percent())))

	if c.Upload == nil {
		return diags
	}
	if cfg.Behavior.DryRun {
		fmt.Println(ui.Blue("coverage:upload"), ui.Green(c.Upload.URL))
		return diags
	}

	token := ""
	if c.Upload.TokenEnv != "" {
		token = os.Getenv(c.Upload.TokenEnv)
		if token == "" {
			return diags.Append(&hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "missing coverage upload token",
				Detail:   fmt.Sprintf("environment variable %s is empty", c.Upload.TokenEnv),
			})
		}
	}

	err = coverage.Upload(conductor.Context(), c.Upload.URL, token, job.Name(), report)
	if err != nil {
		return diags.Append(&hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "coverage upload failed",
			Detail:   err.Error(),
		})
	}
	logger.Infof("uploaded coverage to %s", c.Upload.URL)
	return diags
}
