package ci

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hashicorp/go-envparse"
	"github.com/hashicorp/hcl/v2"
	"github.com/imdario/mergo"
)

// Matrix is the environment matrix. Every axis-value combination is
// crossed with every env set; each surviving combination becomes an
// independent job which runs the whole stage graph on its own:
//
//	matrix {
//	  axis "python" { values = ["2.6", "2.7"] }
//	  env = [
//	    "DJANGO=1.5.12 POSTGRES_USER=postgres DB_NAME=avocado",
//	    "DJANGO=1.6.10 POSTGRES_USER=postgres DB_NAME=avocado",
//	  ]
//	  exclude = [{ python = "2.6", DJANGO = "1.6.10" }]
//	}
type Matrix struct {
	Axes []MatrixAxis `hcl:"axis,block" json:"axes"`

	// Env is a list of environment sets; each entry is a
	// whitespace-separated list of K=V assignments, the way CI
	// manifests usually spell them.
	Env []string `hcl:"env,optional" json:"env"`

	// Exclude removes combinations. A combination is excluded when
	// every key of an exclude entry matches the job's axis value or
	// env assignment.
	Exclude []map[string]string `hcl:"exclude,optional" json:"exclude"`
}

type MatrixAxis struct {
	Name   string   `hcl:"name,label" json:"name"`
	Values []string `hcl:"values" json:"values"`
}

// Job is one expanded matrix entry. Jobs do not communicate: each runs
// with its own conductor, eval context and service containers.
type Job struct {
	Index int

	// Axes maps axis name to the value selected for this job.
	Axes map[string]string

	// Env is the parsed env set for this job.
	Env map[string]string
}

// Name renders a stable human-readable job identity, e.g.
// "python=2.7 DJANGO=1.6.10".
func (j *Job) Name() string {
	var parts []string
	for _, k := range sortedKeys(j.Axes) {
		parts = append(parts, fmt.Sprintf("%s=%s", k, j.Axes[k]))
	}
	for _, k := range sortedKeys(j.Env) {
		parts = append(parts, fmt.Sprintf("%s=%s", k, j.Env[k]))
	}
	if len(parts) == 0 {
		return "default"
	}
	return strings.Join(parts, " ")
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Expand computes the cross product of all axes and env sets, minus
// excluded combinations. A nil matrix expands to the single default job.
func (m *Matrix) Expand() ([]*Job, hcl.Diagnostics) {
	var diags hcl.Diagnostics

	if m == nil {
		return []*Job{{Index: 0, Axes: map[string]string{}, Env: map[string]string{}}}, diags
	}

	combos := []map[string]string{{}}
	for _, axis := range m.Axes {
		if len(axis.Values) == 0 {
			diags = diags.Append(&hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "empty matrix axis",
				Detail:   fmt.Sprintf("axis %q has no values", axis.Name),
			})
			continue
		}
		var next []map[string]string
		for _, combo := range combos {
			for _, value := range axis.Values {
				expanded := map[string]string{axis.Name: value}
				if err := mergo.Merge(&expanded, combo); err != nil {
					diags = diags.Append(&hcl.Diagnostic{
						Severity: hcl.DiagError,
						Summary:  "could not expand matrix",
						Detail:   err.Error(),
					})
					continue
				}
				next = append(next, expanded)
			}
		}
		combos = next
	}
	if diags.HasErrors() {
		return nil, diags
	}

	envSets := []map[string]string{}
	if len(m.Env) == 0 {
		envSets = append(envSets, map[string]string{})
	}
	for _, raw := range m.Env {
		parsed, err := parseEnvSet(raw)
		if err != nil {
			diags = diags.Append(&hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "invalid matrix env entry",
				Detail:   fmt.Sprintf("could not parse %q: %s", raw, err),
			})
			continue
		}
		envSets = append(envSets, parsed)
	}
	if diags.HasErrors() {
		return nil, diags
	}

	var jobs []*Job
	for _, combo := range combos {
		for _, envSet := range envSets {
			job := &Job{
				Axes: combo,
				Env:  envSet,
			}
			if m.excluded(job) {
				continue
			}
			job.Index = len(jobs)
			jobs = append(jobs, job)
		}
	}
	return jobs, diags
}

func (m *Matrix) excluded(job *Job) bool {
	for _, exclude := range m.Exclude {
		matched := len(exclude) > 0
		for k, v := range exclude {
			if job.Axes[k] == v {
				continue
			}
			if job.Env[k] == v {
				continue
			}
			matched = false
			break
		}
		if matched {
			return true
		}
	}
	return false
}

// parseEnvSet splits a whitespace-separated "K=V K2=V2" entry and runs
// it through the env file parser, so quoting rules stay consistent with
// the outputs file.
func parseEnvSet(raw string) (map[string]string, error) {
	fields := strings.Fields(raw)
	return envparse.Parse(strings.NewReader(strings.Join(fields, "\n")))
}
