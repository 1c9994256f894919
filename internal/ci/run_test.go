package ci

import (
	"context"
	"testing"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"

	"github.com/conveyor-ci/conveyor/internal/behavior"
	"github.com/conveyor-ci/conveyor/internal/path"
	"github.com/conveyor-ci/conveyor/internal/rules"
)

func TestCanRun(t *testing.T) {
	ctx := context.Background()
	conductor := NewConductor(ConductorConfig{
		User:     "",
		Hostname: "",
		Paths: &path.Path{
			Pipeline: "",
			Owd:      "",
			Cwd:      "",
		},
		Interface: Interface{
			JSONLogging: true,
			Verbosity:   -1,
		},
		Pipeline: ConfigPipeline{
			Filtered: nil,
			DryRun:   false,
		},
		Behavior: behavior.NewDefaultBehavior(),
	})
	conductor.Update(ConductorWithContext(ctx))
	defer conductor.Destroy()

	stageSetup := Stage{
		Id:        "setup",
		Phase:     PhaseInstall,
		Condition: hcl.StaticExpr(cty.NilVal, hcl.Range{}),
		DependsOn: hcl.StaticExpr(cty.NilVal, hcl.Range{}),
		Dir:       hcl.StaticExpr(cty.NilVal, hcl.Range{}),
		Script:    hcl.StaticExpr(cty.NilVal, hcl.Range{}),
		Shell:     hcl.StaticExpr(cty.NilVal, hcl.Range{}),
		Args:      hcl.StaticExpr(cty.NilVal, hcl.Range{}),
	}

	stageLint := Stage{
		Id:        "lint",
		Phase:     PhaseLint,
		Condition: hcl.StaticExpr(cty.NilVal, hcl.Range{}),
		DependsOn: hcl.StaticExpr(cty.NilVal, hcl.Range{}),
		Dir:       hcl.StaticExpr(cty.NilVal, hcl.Range{}),
		Script:    hcl.StaticExpr(cty.NilVal, hcl.Range{}),
		Shell:     hcl.StaticExpr(cty.NilVal, hcl.Range{}),
		Args:      hcl.StaticExpr(cty.NilVal, hcl.Range{}),
	}

	stageTest := Stage{
		Id:        "test",
		Condition: hcl.StaticExpr(cty.NilVal, hcl.Range{}),
		DependsOn: hcl.StaticExpr(cty.ListVal([]cty.Value{
			cty.StringVal("stage.setup"),
		}), hcl.Range{}),
		Dir:    hcl.StaticExpr(cty.NilVal, hcl.Range{}),
		Script: hcl.StaticExpr(cty.NilVal, hcl.Range{}),
		Shell:  hcl.StaticExpr(cty.NilVal, hcl.Range{}),
		Args:   hcl.StaticExpr(cty.NilVal, hcl.Range{}),
	}

	stageDocs := Stage{
		Id:        "docs",
		Condition: hcl.StaticExpr(cty.False, hcl.Range{}),
		DependsOn: hcl.StaticExpr(cty.NilVal, hcl.Range{}),
		Dir:       hcl.StaticExpr(cty.NilVal, hcl.Range{}),
		Script:    hcl.StaticExpr(cty.NilVal, hcl.Range{}),
		Shell:     hcl.StaticExpr(cty.NilVal, hcl.Range{}),
		Args:      hcl.StaticExpr(cty.NilVal, hcl.Range{}),
	}

	stageCoverage := Stage{
		Id:        "coverage",
		Phase:     PhaseAfterSuccess,
		Condition: hcl.StaticExpr(cty.NilVal, hcl.Range{}),
		DependsOn: hcl.StaticExpr(cty.NilVal, hcl.Range{}),
		Dir:       hcl.StaticExpr(cty.NilVal, hcl.Range{}),
		Script:    hcl.StaticExpr(cty.NilVal, hcl.Range{}),
		Shell:     hcl.StaticExpr(cty.NilVal, hcl.Range{}),
		Args:      hcl.StaticExpr(cty.NilVal, hcl.Range{}),
	}

	pipe := &Pipeline{
		Stages: Stages{
			stageSetup,
			stageLint,
			stageTest,
			stageDocs,
			stageCoverage,
		},
	}

	depGraph, d := GraphTopoSort(conductor, pipe)
	if d.HasErrors() {
		t.Errorf("error while sorting: %s", d.Error())
		return
	}
	err := depGraph.DependOn(stageTest.Identifier(), stageSetup.Identifier())
	if err != nil {
		t.Errorf("error while adding dependency: %s", err.Error())
		return
	}

	filtered, d := rules.Unmarshal([]string{stageTest.Identifier()})
	if d.HasErrors() {
		t.Errorf("error while parsing rules: %s", d.Error())
		return
	}
	conductor.Config.Pipeline.Filtered = filtered

	ok, overridden, d := BlockCanRun(&stageTest, conductor, stageTest.Identifier(), depGraph)
	if d.HasErrors() {
		t.Errorf("error while running BlockCanRun: %s", d.Error())
		return
	}
	if !ok {
		t.Errorf("%s should be runnable", stageTest.Identifier())
		return
	}
	if !overridden {
		t.Errorf("%s should be overridden", stageTest.Identifier())
		return
	}

	// stage.setup is an explicit dependency, it comes along
	ok, _, d = BlockCanRun(&stageSetup, conductor, stageSetup.Identifier(), depGraph)
	if d.HasErrors() {
		t.Errorf("error while running BlockCanRun: %s", d.Error())
		return
	}
	if !ok {
		t.Errorf("%s should be runnable", stageSetup.Identifier())
		return
	}

	// stage.lint belongs to an earlier phase, the phase barriers make
	// stage.test depend on it transitively
	ok, _, d = BlockCanRun(&stageLint, conductor, stageLint.Identifier(), depGraph)
	if d.HasErrors() {
		t.Errorf("error while running BlockCanRun: %s", d.Error())
		return
	}
	if !ok {
		t.Errorf("%s should be runnable", stageLint.Identifier())
		return
	}

	// stage.coverage runs after stage.test, nothing pulls it in
	ok, _, d = BlockCanRun(&stageCoverage, conductor, stageCoverage.Identifier(), depGraph)
	if d.HasErrors() {
		t.Errorf("error while running BlockCanRun: %s", d.Error())
		return
	}
	if ok {
		t.Errorf("%s should not be runnable", stageCoverage.Identifier())
		return
	}

	conductor.Config.Pipeline.Filtered = nil

	ok, _, d = BlockCanRun(&stageCoverage, conductor, stageCoverage.Identifier(), depGraph)
	if d.HasErrors() {
		t.Errorf("error while running BlockCanRun: %s", d.Error())
		return
	}
	if !ok {
		t.Errorf("%s should be runnable", stageCoverage.Identifier())
		return
	}

	ok, _, d = BlockCanRun(&stageDocs, conductor, stageDocs.Identifier(), depGraph)
	if d.HasErrors() {
		t.Errorf("error while running BlockCanRun: %s", d.Error())
		return
	}
	if ok {
		t.Errorf("%s should not be runnable", stageDocs.Identifier())
		return
	}

	filtered, d = rules.Unmarshal([]string{"all"})
	if d.HasErrors() {
		t.Errorf("error while parsing rules: %s", d.Error())
		return
	}
	conductor.Config.Pipeline.Filtered = filtered

	ok, _, d = BlockCanRun(&stageCoverage, conductor, stageCoverage.Identifier(), depGraph)
	if d.HasErrors() {
		t.Errorf("error while running BlockCanRun: %s", d.Error())
		return
	}
	if !ok {
		t.Errorf("%s should be runnable", stageCoverage.Identifier())
		return
	}

	ok, _, d = BlockCanRun(&stageDocs, conductor, stageDocs.Identifier(), depGraph)
	if d.HasErrors() {
		t.Errorf("error while running BlockCanRun: %s", d.Error())
		return
	}
	if ok {
		t.Errorf("%s should not be runnable, its condition is false", stageDocs.Identifier())
		return
	}

	filtered, d = rules.Unmarshal([]string{PhaseLint})
	if d.HasErrors() {
		t.Errorf("error while parsing rules: %s", d.Error())
		return
	}
	conductor.Config.Pipeline.Filtered = filtered

	ok, _, d = BlockCanRun(&stageLint, conductor, stageLint.Identifier(), depGraph)
	if d.HasErrors() {
		t.Errorf("error while running BlockCanRun: %s", d.Error())
		return
	}
	if !ok {
		t.Errorf("%s should be runnable", stageLint.Identifier())
		return
	}

	ok, _, d = BlockCanRun(&stageTest, conductor, stageTest.Identifier(), depGraph)
	if d.HasErrors() {
		t.Errorf("error while running BlockCanRun: %s", d.Error())
		return
	}
	if ok {
		t.Errorf("%s should not be runnable", stageTest.Identifier())
		return
	}

	filtered, d = rules.Unmarshal([]string{"default", "^stage.test"})
	if d.HasErrors() {
		t.Errorf("error while parsing rules: %s", d.Error())
		return
	}
	conductor.Config.Pipeline.Filtered = filtered

	ok, overridden, d = BlockCanRun(&stageTest, conductor, stageTest.Identifier(), depGraph)
	if d.HasErrors() {
		t.Errorf("error while running BlockCanRun: %s", d.Error())
		return
	}
	if ok {
		t.Errorf("%s should not be runnable", stageTest.Identifier())
		return
	}
	if !overridden {
		t.Errorf("%s should be overridden", stageTest.Identifier())
		return
	}

	ok, _, d = BlockCanRun(&stageLint, conductor, stageLint.Identifier(), depGraph)
	if d.HasErrors() {
		t.Errorf("error while running BlockCanRun: %s", d.Error())
		return
	}
	if !ok {
		t.Errorf("%s should be runnable", stageLint.Identifier())
		return
	}

	filtered, d = rules.Unmarshal([]string{"+stage.docs"})
	if d.HasErrors() {
		t.Errorf("error while parsing rules: %s", d.Error())
		return
	}
	conductor.Config.Pipeline.Filtered = filtered

	ok, overridden, d = BlockCanRun(&stageDocs, conductor, stageDocs.Identifier(), depGraph)
	if d.HasErrors() {
		t.Errorf("error while running BlockCanRun: %s", d.Error())
		return
	}
	if !ok {
		t.Errorf("%s should be runnable, it was force enabled", stageDocs.Identifier())
		return
	}
	if !overridden {
		t.Errorf("%s should be overridden", stageDocs.Identifier())
		return
	}
}

func TestCanRunService(t *testing.T) {
	ctx := context.Background()
	conductor := NewConductor(ConductorConfig{
		Paths: &path.Path{},
		Interface: Interface{
			JSONLogging: true,
			Verbosity:   -1,
		},
		Behavior: behavior.NewDefaultBehavior(),
	})
	conductor.Update(ConductorWithContext(ctx))
	defer conductor.Destroy()

	service := Service{
		Id:    "postgres",
		Image: hcl.StaticExpr(cty.StringVal("postgres:13"), hcl.Range{}),
		Port:  5432,
	}
	stage := Stage{
		Id:        "test",
		Condition: hcl.StaticExpr(cty.NilVal, hcl.Range{}),
		DependsOn: hcl.StaticExpr(cty.NilVal, hcl.Range{}),
		Dir:       hcl.StaticExpr(cty.NilVal, hcl.Range{}),
		Script:    hcl.StaticExpr(cty.NilVal, hcl.Range{}),
		Shell:     hcl.StaticExpr(cty.NilVal, hcl.Range{}),
		Args:      hcl.StaticExpr(cty.NilVal, hcl.Range{}),
	}
	pipe := &Pipeline{
		Stages:   Stages{stage},
		Services: Services{service},
	}

	depGraph, d := GraphTopoSort(conductor, pipe)
	if d.HasErrors() {
		t.Errorf("error while sorting: %s", d.Error())
		return
	}

	// services follow their own condition, stage filters never drop them
	filtered, d := rules.Unmarshal([]string{"^service.postgres"})
	if d.HasErrors() {
		t.Errorf("error while parsing rules: %s", d.Error())
		return
	}
	conductor.Config.Pipeline.Filtered = filtered

	ok, overridden, d := BlockCanRun(&service, conductor, service.Identifier(), depGraph)
	if d.HasErrors() {
		t.Errorf("error while running BlockCanRun: %s", d.Error())
		return
	}
	if !ok {
		t.Errorf("%s should be runnable", service.Identifier())
		return
	}
	if overridden {
		t.Errorf("%s should not be overridden", service.Identifier())
		return
	}
}

func TestCanRunSqliteDatabase(t *testing.T) {
	ctx := context.Background()
	conductor := NewConductor(ConductorConfig{
		Paths: &path.Path{},
		Interface: Interface{
			JSONLogging: true,
			Verbosity:   -1,
		},
		Behavior: behavior.NewDefaultBehavior(),
	})
	conductor.Update(ConductorWithContext(ctx))
	defer conductor.Destroy()

	database := Database{
		Name:   "avocado",
		Engine: EngineSqlite,
	}
	pipe := &Pipeline{
		Databases: Databases{database},
	}

	depGraph, d := GraphTopoSort(conductor, pipe)
	if d.HasErrors() {
		t.Errorf("error while sorting: %s", d.Error())
		return
	}

	ok, _, d := BlockCanRun(&database, conductor, database.Identifier(), depGraph)
	if d.HasErrors() {
		t.Errorf("error while running BlockCanRun: %s", d.Error())
		return
	}
	if ok {
		t.Errorf("%s should not be runnable, sqlite needs no provisioning", database.Identifier())
		return
	}
}
