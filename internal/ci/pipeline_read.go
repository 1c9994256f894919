package ci

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"

	"github.com/conveyor-ci/conveyor/internal/parse"
)

// Read parses the pipeline from the configuration file directory. A
// configuration file directory is the one that contains conveyor.hcl,
// searched recursively outwards from the working directory. Every
// *.hcl file in that directory contributes to the same pipeline.
func Read(conductor *Conductor) (*Pipeline, hcl.Diagnostics) {
	return ReadDir(conductor)
}

// ReadDir parses an entire directory of *.hcl files and merges them together. This is useful when you want to
// split your pipeline into multiple files, without having to import them individually
func ReadDir(conductor *Conductor) (*Pipeline, hcl.Diagnostics) {
	dir := parse.ConfigFileDir(conductor.Config.Paths)
	return ReadDirFromPath(conductor, dir)
}

func ReadDirFromPath(conductor *Conductor, dir string) (*Pipeline, hcl.Diagnostics) {
	logger := conductor.Logger()
	var diags hcl.Diagnostics
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, diags.Append(&hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "could not read pipeline directory",
			Detail:   err.Error(),
		})
	}
	var pipes MetaList
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		if !strings.HasSuffix(file.Name(), ".hcl") {
			continue
		}
		if strings.Contains(file.Name(), ".lock.hcl") {
			// we will not process .lock.hcl files
			continue
		}

		f, d := conductor.Parser.ParseHCLFile(filepath.Join(dir, file.Name()))
		diags = diags.Extend(d)

		p := &Pipeline{}

		d = gohcl.DecodeBody(f.Body, nil, p)
		diags = diags.Extend(d)
		if d.HasErrors() {
			logger.Debugf("error parsing %s", file.Name())
			continue
		}
		pipes = pipes.Append(NewMeta(p, f, file.Name()))

	}
	pipe, d := Merge(pipes)
	diags = diags.Extend(d)
	return pipe, diags
}
