package ci

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/conveyor-ci/conveyor/internal/behavior"
	"github.com/conveyor-ci/conveyor/internal/path"
)

const pipelineFixture = `
conveyor {
  version = 1
}

matrix {
  axis "python" {
    values = ["2.6", "2.7"]
  }
  env = [
    "DJANGO=1.5.12 DB_NAME=avocado",
    "DJANGO=1.6.10 DB_NAME=avocado",
  ]
}

service "postgres" {
  image = "postgres:13"
  port  = 5432
}

database "avocado" {
  engine  = "postgres"
  user    = "postgres"
  service = "postgres"
}

stage "lint" {
  phase  = "lint"
  script = "flake8 avocado"
}

stage "test" {
  script = "coverage run test_suite.py --sqlite --postgres"
}
`

func TestReadDirFromPath(t *testing.T) {
	owd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(owd) })

	dir := t.TempDir()
	err = os.WriteFile(filepath.Join(dir, "conveyor.hcl"), []byte(pipelineFixture), 0644)
	if err != nil {
		t.Fatal(err)
	}

	conductor := NewConductor(ConductorConfig{
		Paths: &path.Path{Cwd: dir},
		Interface: Interface{
			JSONLogging: true,
			Verbosity:   -1,
		},
		Behavior: behavior.NewDefaultBehavior(),
	})
	conductor.Update(ConductorWithContext(context.Background()))
	defer conductor.Destroy()

	pipe, d := ReadDirFromPath(conductor, dir)
	if d.HasErrors() {
		t.Errorf("unexpected error: %s", d.Error())
		return
	}
	if pipe.Builder.Version != 1 {
		t.Errorf("expected version 1, got %d", pipe.Builder.Version)
	}
	if len(pipe.Stages) != 2 {
		t.Errorf("expected 2 stages, got %d", len(pipe.Stages))
		return
	}
	if len(pipe.Services) != 1 {
		t.Errorf("expected 1 service, got %d", len(pipe.Services))
	}
	if len(pipe.Databases) != 1 {
		t.Errorf("expected 1 database, got %d", len(pipe.Databases))
	}
	if pipe.Matrix == nil {
		t.Error("expected a matrix block")
		return
	}

	jobs, d := pipe.Jobs()
	if d.HasErrors() {
		t.Errorf("unexpected error: %s", d.Error())
		return
	}
	if len(jobs) != 4 {
		t.Errorf("expected 4 jobs, got %d", len(jobs))
	}

	// the decoded stages pass through graph construction, including
	// their optional expressions
	g, d := GraphTopoSort(conductor, pipe)
	if d.HasErrors() {
		t.Errorf("unexpected error: %s", d.Error())
		return
	}
	if !g.DependsOn("stage.test", "stage.lint") {
		t.Error("stage.test should depend on stage.lint")
	}
	if !g.DependsOn("stage.test", "database.avocado") {
		t.Error("stage.test should depend on database.avocado")
	}
}

func TestReadDirFromPathMissing(t *testing.T) {
	owd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(owd) })

	conductor := NewConductor(ConductorConfig{
		Paths: &path.Path{Cwd: t.TempDir()},
		Interface: Interface{
			JSONLogging: true,
			Verbosity:   -1,
		},
		Behavior: behavior.NewDefaultBehavior(),
	})
	conductor.Update(ConductorWithContext(context.Background()))
	defer conductor.Destroy()

	_, d := ReadDirFromPath(conductor, filepath.Join(conductor.Config.Paths.Cwd, "missing"))
	if !d.HasErrors() {
		t.Error("expected an error for a missing directory")
	}
}
