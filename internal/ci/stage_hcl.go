package ci

import (
	"github.com/hashicorp/hcl/v2"
)

func (e *StageContainerVolume) Variables() []hcl.Traversal {
	var traversal []hcl.Traversal
	traversal = append(traversal, e.Source.Variables()...)
	traversal = append(traversal, e.Destination.Variables()...)
	return traversal
}

func (e StageContainerVolumes) Variables() []hcl.Traversal {
	var traversal []hcl.Traversal
	for _, volume := range e {
		traversal = append(traversal, volume.Variables()...)
	}
	return traversal
}

func (s *Stage) Variables() []hcl.Traversal {
	var traversal []hcl.Traversal
	traversal = append(traversal, s.Condition.Variables()...)
	traversal = append(traversal, s.Dir.Variables()...)
	traversal = append(traversal, s.DependsOn.Variables()...)
	traversal = append(traversal, s.Script.Variables()...)
	traversal = append(traversal, s.Args.Variables()...)

	if s.Container != nil {
		traversal = append(traversal, s.Container.Image.Variables()...)
		traversal = append(traversal, s.Container.Volumes.Variables()...)
	}

	traversal = append(traversal, s.Environment.Variables()...)
	return traversal
}

func (s Stages) Variables() []hcl.Traversal {
	var traversal []hcl.Traversal
	for i := range s {
		traversal = append(traversal, s[i].Variables()...)
	}
	return traversal
}
