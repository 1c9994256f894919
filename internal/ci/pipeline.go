package ci

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/sirupsen/logrus"

	"github.com/conveyor-ci/conveyor/internal/meta"
)

const PipelineBlock = "pipeline"

type Pipeline struct {
	Builder Builder `hcl:"conveyor,block" json:"conveyor"`

	Matrix *Matrix `hcl:"matrix,block" json:"matrix"`

	Stages    Stages    `hcl:"stage,block" json:"stages"`
	Services  Services  `hcl:"service,block" json:"services"`
	Databases Databases `hcl:"database,block" json:"databases"`
	Coverage  *Coverage `hcl:"coverage,block" json:"coverage"`

	Vars        Variables   `hcl:"var,block" json:"vars"`
	Environment EnvVars     `hcl:"env,block" json:"env"`
	Locals      LocalsGroup `hcl:"locals,block" json:"locals"`

	// Local is the expanded form of Locals, populated before the graph
	// is built.
	Local LocalGroup
}

func (pipe *Pipeline) Variables() []hcl.Traversal {
	var traversal []hcl.Traversal
	traversal = append(traversal, pipe.Stages.Variables()...)
	traversal = append(traversal, pipe.Services.Variables()...)
	traversal = append(traversal, pipe.Databases.Variables()...)
	return traversal
}

func (pipe *Pipeline) Logger() *logrus.Entry {
	return logrus.WithField("pipeline", "")
}

// Resolve maps a dependency graph node back to its block. Phase barriers
// and the root node have no block behind them and are skipped.
func (pipe *Pipeline) Resolve(runnableId string) (Block, bool, hcl.Diagnostics) {
	if runnableId == meta.RootStage {
		return nil, true, nil
	}
	for _, phase := range PhaseOrder {
		if runnableId == PhaseBarrier(phase) {
			return nil, true, nil
		}
	}
	runnable, diags := Resolve(pipe, runnableId)
	return runnable, false, diags
}
