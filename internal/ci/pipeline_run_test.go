package ci

import "testing"

func TestPipelineClone(t *testing.T) {
	pipe := &Pipeline{
		Stages: Stages{
			{Id: "test"},
		},
		Services: Services{
			{Id: "postgres"},
		},
		Vars: Variables{
			NewVariable("django", "1.6.10"),
		},
	}

	clone := pipe.clone()
	clone.Stages[0].ContainerId = "deadbeef"
	clone.Services[0].Id = "mysql"
	clone.Vars[0].Id = "python"

	if pipe.Stages[0].ContainerId != "" {
		t.Error("cloned stage state leaked into the original pipeline")
	}
	if pipe.Services[0].Id != "postgres" {
		t.Error("cloned service state leaked into the original pipeline")
	}
	if pipe.Vars[0].Id != "django" {
		t.Error("cloned variable state leaked into the original pipeline")
	}
}

func TestPipelineJobs(t *testing.T) {
	pipe := &Pipeline{}
	jobs, d := pipe.Jobs()
	if d.HasErrors() {
		t.Errorf("unexpected error: %s", d.Error())
		return
	}
	if len(jobs) != 1 {
		t.Errorf("expected a single job, got %d", len(jobs))
		return
	}

	pipe.Matrix = &Matrix{
		Axes: []MatrixAxis{
			{Name: "python", Values: []string{"2.6", "2.7"}},
		},
	}
	jobs, d = pipe.Jobs()
	if d.HasErrors() {
		t.Errorf("unexpected error: %s", d.Error())
		return
	}
	if len(jobs) != 2 {
		t.Errorf("expected 2 jobs, got %d", len(jobs))
	}
}
