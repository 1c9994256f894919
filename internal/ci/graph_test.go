package ci

import (
	"context"
	"testing"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"

	"github.com/conveyor-ci/conveyor/internal/behavior"
	"github.com/conveyor-ci/conveyor/internal/path"
)

func graphTestConductor() *Conductor {
	conductor := NewConductor(ConductorConfig{
		Paths: &path.Path{},
		Interface: Interface{
			JSONLogging: true,
			Verbosity:   -1,
		},
		Behavior: behavior.NewDefaultBehavior(),
	})
	conductor.Update(ConductorWithContext(context.Background()))
	return conductor
}

func graphTestStage(id, phase string) Stage {
	return Stage{
		Id:        id,
		Phase:     phase,
		Condition: hcl.StaticExpr(cty.NilVal, hcl.Range{}),
		DependsOn: hcl.StaticExpr(cty.NilVal, hcl.Range{}),
		Dir:       hcl.StaticExpr(cty.NilVal, hcl.Range{}),
		Script:    hcl.StaticExpr(cty.NilVal, hcl.Range{}),
		Shell:     hcl.StaticExpr(cty.NilVal, hcl.Range{}),
		Args:      hcl.StaticExpr(cty.NilVal, hcl.Range{}),
	}
}

func TestGraphTopoSortPhases(t *testing.T) {
	conductor := graphTestConductor()
	defer conductor.Destroy()

	pipe := &Pipeline{
		Stages: Stages{
			graphTestStage("signoff", PhaseSignoff),
			graphTestStage("flake8", PhaseLint),
			graphTestStage("deps", PhaseInstall),
			graphTestStage("test", PhaseScript),
			graphTestStage("coverage", PhaseAfterSuccess),
		},
	}

	g, d := GraphTopoSort(conductor, pipe)
	if d.HasErrors() {
		t.Errorf("error while sorting: %s", d.Error())
		return
	}

	// each stage waits for the barrier of its own phase
	if !g.DependsOn("stage.test", PhaseBarrier(PhaseScript)) {
		t.Errorf("stage.test should depend on the script barrier")
	}
	// a later phase never starts before an earlier phase's stages finish
	if !g.DependsOn("stage.test", "stage.deps") {
		t.Errorf("stage.test should depend on stage.deps")
	}
	if !g.DependsOn("stage.deps", "stage.flake8") {
		t.Errorf("stage.deps should depend on stage.flake8")
	}
	if !g.DependsOn("stage.coverage", "stage.test") {
		t.Errorf("stage.coverage should depend on stage.test")
	}
	if !g.DependsOn("stage.flake8", "stage.signoff") {
		t.Errorf("stage.flake8 should depend on stage.signoff")
	}
	// never the other way around
	if g.DependsOn("stage.signoff", "stage.test") {
		t.Errorf("stage.signoff should not depend on stage.test")
	}
}

func TestGraphTopoSortServicesAndDatabases(t *testing.T) {
	conductor := graphTestConductor()
	defer conductor.Destroy()

	pipe := &Pipeline{
		Stages: Stages{
			graphTestStage("deps", PhaseInstall),
			graphTestStage("test", PhaseScript),
		},
		Services: Services{
			{
				Id:    "postgres",
				Image: hcl.StaticExpr(cty.StringVal("postgres:13"), hcl.Range{}),
				Port:  5432,
			},
			{
				Id:    "memcached",
				Image: hcl.StaticExpr(cty.StringVal("memcached:1.6"), hcl.Range{}),
				Port:  11211,
			},
		},
		Databases: Databases{
			{
				Name:    "avocado",
				Engine:  EnginePostgres,
				User:    "postgres",
				Service: "postgres",
			},
		},
	}

	g, d := GraphTopoSort(conductor, pipe)
	if d.HasErrors() {
		t.Errorf("error while sorting: %s", d.Error())
		return
	}

	// services are up before before_script opens, databases are created
	// between before_script and script
	if !g.DependsOn(PhaseBarrier(PhaseBeforeScript), "service.postgres") {
		t.Errorf("the before_script barrier should depend on service.postgres")
	}
	if !g.DependsOn("database.avocado", "service.postgres") {
		t.Errorf("database.avocado should depend on service.postgres")
	}
	if !g.DependsOn("stage.test", "database.avocado") {
		t.Errorf("stage.test should depend on database.avocado")
	}
	if !g.DependsOn("stage.test", "service.memcached") {
		t.Errorf("stage.test should depend on service.memcached")
	}
	// install stages do not wait for services
	if g.DependsOn("stage.deps", "service.postgres") {
		t.Errorf("stage.deps should not depend on service.postgres")
	}
	if g.DependsOn("database.avocado", "stage.test") {
		t.Errorf("database.avocado should not depend on stage.test")
	}
}

func TestGraphTopoSortInvalidPhase(t *testing.T) {
	conductor := graphTestConductor()
	defer conductor.Destroy()

	pipe := &Pipeline{
		Stages: Stages{
			graphTestStage("test", "deploy"),
		},
	}

	_, d := GraphTopoSort(conductor, pipe)
	if !d.HasErrors() {
		t.Errorf("expected an error for an unknown phase")
	}
}
