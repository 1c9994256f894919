package ci

import (
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2"

	"github.com/conveyor-ci/conveyor/internal/blocks"
)

// Resolve looks up a block by its dotted address, e.g. stage.build or
// service.postgres.
func Resolve(pipe *Pipeline, id string) (Block, hcl.Diagnostics) {
	var diags hcl.Diagnostics
	blockType, label, found := strings.Cut(id, ".")
	if !found {
		return nil, diags.Append(&hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "invalid block address",
			Detail:   fmt.Sprintf("%s is not a valid block address", id),
		})
	}
	switch blockType {
	case blocks.StageBlock:
		stage, d := pipe.Stages.ById(label)
		return stage, diags.Extend(d)
	case blocks.ServiceBlock:
		service, d := pipe.Services.ById(label)
		return service, diags.Extend(d)
	case blocks.DatabaseBlock:
		database, d := pipe.Databases.ById(label)
		return database, diags.Extend(d)
	case blocks.VariableBlock:
		variable, d := pipe.Vars.ById(label)
		return variable, diags.Extend(d)
	case blocks.LocalBlock:
		local, d := pipe.Local.ByKey(label)
		return local, diags.Extend(d)
	}
	return nil, diags.Append(&hcl.Diagnostic{
		Severity: hcl.DiagError,
		Summary:  "unknown block type",
		Detail:   fmt.Sprintf("cannot resolve %s, unknown block type %s", id, blockType),
	})
}

// ResolveFromTraversal converts an HCL variable reference into the graph
// node it depends on. References into ambient objects (env, matrix, this)
// do not create dependencies and resolve to "".
func ResolveFromTraversal(variable hcl.Traversal) (string, hcl.Diagnostics) {
	var diags hcl.Diagnostics
	root := variable.RootName()
	switch root {
	case blocks.StageBlock, blocks.ServiceBlock, blocks.DatabaseBlock,
		blocks.VariableBlock, blocks.LocalBlock:
		if len(variable) < 2 {
			return "", diags.Append(&hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "invalid reference",
				Detail:   fmt.Sprintf("a reference to a %s block requires a label", root),
			})
		}
		attr, ok := variable[1].(hcl.TraverseAttr)
		if !ok {
			return "", diags.Append(&hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "invalid reference",
				Detail:   fmt.Sprintf("cannot resolve reference on %s", root),
			})
		}
		return fmt.Sprintf("%s.%s", root, attr.Name), nil
	}
	return "", nil
}
