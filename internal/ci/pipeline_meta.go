package ci

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
)

// Meta is a helper struct to create a pipeline from multiple pipelines
// this additionally includes the file pointer f, and the filename
type Meta struct {
	pipe     *Pipeline
	f        *hcl.File
	filename string
}

func NewMeta(pipe *Pipeline, f *hcl.File, filename string) *Meta {
	return &Meta{
		pipe:     pipe,
		f:        f,
		filename: filename,
	}
}

type MetaList []*Meta

func (m MetaList) Append(p *Meta) MetaList {
	return append(m, p)
}

func (m MetaList) Extend(p MetaList) MetaList {
	return append(m, p...)
}

// Merge creates a pipeline from multiple pipelines. This is useful when you want to merge multiple
// pipelines together, without having to import them individually
func Merge(pipelines MetaList) (*Pipeline, hcl.Diagnostics) {
	pipe := &Pipeline{}

	var diags hcl.Diagnostics

	var versionDefinedFromFilename string
	var matrix *Matrix
	var coverage *Coverage

	for _, p := range pipelines {
		if p.pipe == nil {
			panic(fmt.Sprintf("pipeline %s is nil", p.filename))
		}
		if pipe.Builder.Version == 0 && p.pipe.Builder.Version != 0 {
			pipe.Builder.Version = p.pipe.Builder.Version
			versionDefinedFromFilename = p.filename
		}
		if p.pipe.Builder.Version != pipe.Builder.Version && p.pipe.Builder.Version != 0 {
			// when overriding and using multiple pipelines, the version of the pipeline schema is
			// required to be the same
			return nil, diags.Append(&hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "version mismatch",
				Detail:   fmt.Sprintf("version mismatch between pipelines: %d (%s) and %d (%s)", p.pipe.Builder.Version, p.filename, pipe.Builder.Version, versionDefinedFromFilename),
			})
		}

		if pipe.Stages.CheckIfDistinct(p.pipe.Stages).HasErrors() {
			return nil, diags.Append(&hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "duplicate stage",
				Detail:   fmt.Sprintf("duplicate stage definition in %s", p.filename),
			})
		}
		if pipe.Services.CheckIfDistinct(p.pipe.Services).HasErrors() {
			return nil, diags.Append(&hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "duplicate service",
				Detail:   fmt.Sprintf("duplicate service definition in %s", p.filename),
			})
		}
		if pipe.Databases.CheckIfDistinct(p.pipe.Databases).HasErrors() {
			return nil, diags.Append(&hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "duplicate database",
				Detail:   fmt.Sprintf("duplicate database definition in %s", p.filename),
			})
		}
		if pipe.Vars.CheckIfDistinct(p.pipe.Vars).HasErrors() {
			return nil, diags.Append(&hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "duplicate variable",
				Detail:   fmt.Sprintf("duplicate variable definition in %s", p.filename),
			})
		}
		if pipe.Local.CheckIfDistinct(p.pipe.Local).HasErrors() {
			return nil, diags.Append(&hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "duplicate local",
				Detail:   fmt.Sprintf("duplicate local definition in %s", p.filename),
			})
		}

		if p.pipe.Matrix != nil {
			if matrix != nil {
				return nil, diags.Append(&hcl.Diagnostic{
					Severity: hcl.DiagError,
					Summary:  "duplicate matrix",
					Detail:   fmt.Sprintf("duplicate matrix definition in %s", p.filename),
				})
			}
			matrix = p.pipe.Matrix
		}

		if p.pipe.Coverage != nil {
			if coverage != nil {
				return nil, diags.Append(&hcl.Diagnostic{
					Severity: hcl.DiagError,
					Summary:  "duplicate coverage",
					Detail:   fmt.Sprintf("duplicate coverage definition in %s", p.filename),
				})
			}
			coverage = p.pipe.Coverage
		}

		pipe.Stages = append(pipe.Stages, p.pipe.Stages...)
		pipe.Services = append(pipe.Services, p.pipe.Services...)
		pipe.Databases = append(pipe.Databases, p.pipe.Databases...)
		pipe.Local = append(pipe.Local, p.pipe.Local...)
		pipe.Locals = append(pipe.Locals, p.pipe.Locals...)
		pipe.Vars = append(pipe.Vars, p.pipe.Vars...)
		pipe.Environment = append(pipe.Environment, p.pipe.Environment...)

	}
	if pipe.Builder.Version != SupportedVersion {
		return nil, diags.Append(&hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "unsupported pipeline version",
			Detail:   fmt.Sprintf("pipeline version %d is not supported, expected %d", pipe.Builder.Version, SupportedVersion),
		})
	}
	pipe.Matrix = matrix
	pipe.Coverage = coverage
	return pipe, diags
}
