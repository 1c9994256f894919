package ci

import (
	"testing"

	"github.com/hashicorp/hcl/v2"
)

func TestResolve(t *testing.T) {
	pipe := &Pipeline{
		Stages: Stages{
			{Id: "test"},
		},
		Services: Services{
			{Id: "postgres"},
		},
		Databases: Databases{
			{Name: "avocado", Engine: EnginePostgres},
		},
	}

	block, d := Resolve(pipe, "stage.test")
	if d.HasErrors() {
		t.Errorf("unexpected error: %s", d.Error())
		return
	}
	if block.Identifier() != "stage.test" {
		t.Errorf("expected stage.test, got %s", block.Identifier())
	}

	block, d = Resolve(pipe, "service.postgres")
	if d.HasErrors() {
		t.Errorf("unexpected error: %s", d.Error())
		return
	}
	if block.Identifier() != "service.postgres" {
		t.Errorf("expected service.postgres, got %s", block.Identifier())
	}

	block, d = Resolve(pipe, "database.avocado")
	if d.HasErrors() {
		t.Errorf("unexpected error: %s", d.Error())
		return
	}
	if block.Identifier() != "database.avocado" {
		t.Errorf("expected database.avocado, got %s", block.Identifier())
	}

	_, d = Resolve(pipe, "stage.missing")
	if !d.HasErrors() {
		t.Error("expected an error for an unknown stage")
	}

	_, d = Resolve(pipe, "nonsense")
	if !d.HasErrors() {
		t.Error("expected an error for an address without a label")
	}

	_, d = Resolve(pipe, "widget.test")
	if !d.HasErrors() {
		t.Error("expected an error for an unknown block type")
	}
}

func TestResolveFromTraversal(t *testing.T) {
	id, d := ResolveFromTraversal(hcl.Traversal{
		hcl.TraverseRoot{Name: "stage"},
		hcl.TraverseAttr{Name: "build"},
	})
	if d.HasErrors() {
		t.Errorf("unexpected error: %s", d.Error())
		return
	}
	if id != "stage.build" {
		t.Errorf("expected stage.build, got %s", id)
	}

	// ambient objects never become graph nodes
	id, d = ResolveFromTraversal(hcl.Traversal{
		hcl.TraverseRoot{Name: "env"},
		hcl.TraverseAttr{Name: "DJANGO"},
	})
	if d.HasErrors() {
		t.Errorf("unexpected error: %s", d.Error())
		return
	}
	if id != "" {
		t.Errorf("expected empty id, got %s", id)
	}

	_, d = ResolveFromTraversal(hcl.Traversal{
		hcl.TraverseRoot{Name: "stage"},
	})
	if !d.HasErrors() {
		t.Error("expected an error for a bare block reference")
	}
}
