package orchestra

import (
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2"

	"github.com/conveyor-ci/conveyor/internal/ci"
	"github.com/conveyor-ci/conveyor/internal/ui"
)

// List prints the stages and matrix jobs of the pipeline without
// running anything.
func List(cfg ci.ConductorConfig) error {

	conductor := ci.NewConductor(cfg)
	defer conductor.Destroy()
	logger := conductor.Logger()

	dgwriter := hcl.NewDiagnosticTextWriter(os.Stdout, conductor.Parser.Files(), 0, true)
	pipe, hclDiags := ci.Read(conductor)
	if hclDiags.HasErrors() {
		logger.Fatal(dgwriter.WriteDiagnostics(hclDiags))
	}

	jobs, hclDiags := pipe.Jobs()
	if hclDiags.HasErrors() {
		logger.Fatal(dgwriter.WriteDiagnostics(hclDiags))
	}
	if pipe.Matrix != nil {
		for _, job := range jobs {
			fmt.Println(ui.Matrix, ui.Bold(job.Name()))
		}
	}

	for _, stage := range pipe.Stages {
		fmt.Println(ui.Stage, ui.Bold(stage.Id))
	}
	for _, service := range pipe.Services {
		fmt.Println(ui.Service, ui.Bold(service.Id))
	}
	return nil

}
