package ci

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/kendru/darwin/go/depgraph"

	"github.com/conveyor-ci/conveyor/internal/blocks"
	"github.com/conveyor-ci/conveyor/internal/meta"
	"github.com/conveyor-ci/conveyor/internal/x"
)

func GraphResolve(conductor *Conductor, pipe *Pipeline, g *depgraph.Graph, v []hcl.Traversal, child string) hcl.Diagnostics {
	var diags hcl.Diagnostics

	_, d := Resolve(pipe, child)
	diags = diags.Extend(d)
	if diags.HasErrors() {
		return diags
	}

	for _, variable := range v {
		parent, d := ResolveFromTraversal(variable)
		diags = diags.Extend(d)
		if parent == "" {
			continue
		}

		_, d = Resolve(pipe, parent)
		diags = diags.Extend(d)
		err := g.DependOn(child, parent)

		if err != nil {
			diags = diags.Append(&hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Invalid dependency",
				Detail:   err.Error(),
			})
		}

	}
	return diags
}

// GraphTopoSort arranges the pipeline's blocks into a dependency graph.
// Lifecycle ordering is expressed with synthetic phase barrier nodes:
// a stage depends on the barrier of its own phase, and the next phase's
// barrier depends on the stage. Explicit depends_on references and
// variable references add edges on top of that.
//
// Services sit between the pipeline root and the before_script barrier,
// databases between the before_script and the script barrier, so that
// script stages always find their services reachable and their
// databases created.
func GraphTopoSort(conductor *Conductor, pipe *Pipeline) (*depgraph.Graph, hcl.Diagnostics) {
	g := depgraph.New()
	var diags hcl.Diagnostics
	logger := conductor.Logger().WithField("orchestra", "graph")

	for i, phase := range PhaseOrder {
		if i == 0 {
			x.Must(g.DependOn(PhaseBarrier(phase), meta.RootStage))
			continue
		}
		x.Must(g.DependOn(PhaseBarrier(phase), PhaseBarrier(PhaseOrder[i-1])))
	}

	for _, local := range pipe.Local {
		self := x.RenderBlock(blocks.LocalBlock, local.Key)
		err := g.DependOn(self, meta.RootStage)
		if err != nil {
			panic(err)
		}
		// locals finish before the first phase opens
		x.Must(g.DependOn(PhaseBarrier(PhaseOrder[0]), self))

		v := local.Variables()
		d := GraphResolve(conductor, pipe, g, v, self)
		diags = diags.Extend(d)
	}

	for _, block := range pipe.Vars {
		self := x.RenderBlock(blocks.VariableBlock, block.Id)
		err := g.DependOn(self, meta.RootStage)
		// the addition of the root stage is to ensure that the var block is always executed
		// before any stage
		// this function should succeed always
		if err != nil {
			panic(err)
		}

		x.Must(g.DependOn(PhaseBarrier(PhaseOrder[0]), self))

		v := block.Variables()
		d := GraphResolve(conductor, pipe, g, v, self)
		diags = diags.Extend(d)
	}

	for _, service := range pipe.Services {
		self := x.RenderBlock(blocks.ServiceBlock, service.Id)
		err := g.DependOn(self, meta.RootStage)
		if err != nil {
			panic(err)
		}

		// service containers boot alongside the early phases but must
		// be reachable before before_script opens
		x.Must(g.DependOn(PhaseBarrier(PhaseBeforeScript), self))

		v := service.Variables()
		d := GraphResolve(conductor, pipe, g, v, self)
		diags = diags.Extend(d)
	}

	for _, database := range pipe.Databases {
		self := x.RenderBlock(blocks.DatabaseBlock, database.Name)
		err := g.DependOn(self, PhaseBarrier(PhaseBeforeScript))
		if err != nil {
			panic(err)
		}

		x.Must(g.DependOn(PhaseBarrier(PhaseScript), self))

		if database.Service != "" {
			err = g.DependOn(self, x.RenderBlock(blocks.ServiceBlock, database.Service))
			if err != nil {
				diags = diags.Append(&hcl.Diagnostic{
					Severity: hcl.DiagError,
					Summary:  "Invalid dependency",
					Detail:   err.Error(),
				})
			}
		}

		v := database.Variables()
		d := GraphResolve(conductor, pipe, g, v, self)
		diags = diags.Extend(d)
	}

	for _, stage := range pipe.Stages {
		self := x.RenderBlock(blocks.StageBlock, stage.Id)
		phase := stage.EffectivePhase()
		d := ValidatePhase(phase, nil)
		diags = diags.Extend(d)
		if d.HasErrors() {
			continue
		}

		err := g.DependOn(self, PhaseBarrier(phase))
		if err != nil {
			panic(err)
		}

		if next := PhaseIndex(phase) + 1; next < len(PhaseOrder) {
			x.Must(g.DependOn(PhaseBarrier(PhaseOrder[next]), self))
		}

		v := stage.Variables()
		d = GraphResolve(conductor, pipe, g, v, self)
		diags = diags.Extend(d)
	}

	for i, layer := range g.TopoSortedLayers() {
		logger.Debugf("layer %d: %s", i, layer)
	}
	return g, diags

}
