package orchestra

import (
	"context"

	"github.com/conveyor-ci/conveyor/internal/ci"
)

// Perform parses the pipeline and runs it to completion, returning the
// process exit code.
func Perform(conductor *ci.Conductor) int {
	ctx, cancel := context.WithCancel(conductor.Context())
	defer cancel()
	conductor.Update(ci.ConductorWithContext(ctx))

	logger := conductor.Logger().WithField("orchestra", "perform")
	logger.Debugf("starting watchdogs and signal handlers")

	// parse the config file
	pipe, hclDiags := ci.Read(conductor)
	if hclDiags.HasErrors() {
		logger.Fatal(conductor.DiagWriter.WriteDiagnostics(hclDiags))
	}

	h, d := pipe.Run(conductor)
	if d.HasErrors() {
		return h.Fatal()
	}
	return h.Ok()
}
