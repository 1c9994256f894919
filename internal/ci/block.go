package ci

import (
	"github.com/hashicorp/hcl/v2"

	"github.com/conveyor-ci/conveyor/internal/runnable"
)

type Description struct {
	Name        string
	Description string
}

// Block is a runnable unit of the pipeline. Stages, services, databases
// and variables all implement it; the conductor schedules them through
// the dependency graph without caring which is which.
type Block interface {
	Description() Description
	Identifier() string
	Type() string

	// IsDaemon reports whether the block keeps running after Run returns,
	// like an addon service container.
	IsDaemon() bool

	Variables() []hcl.Traversal

	CanRun(conductor *Conductor, options ...runnable.Option) (bool, hcl.Diagnostics)
	Prepare(conductor *Conductor, skip bool, overridden bool) hcl.Diagnostics
	Run(conductor *Conductor, options ...runnable.Option) hcl.Diagnostics

	CanRetry() bool
	MaxRetries() int
	MinRetryBackoff() int
	MaxRetryBackoff() int
	RetryExponentialBackoff() bool

	Terminate(safe bool) hcl.Diagnostics
	Kill() hcl.Diagnostics
	Terminated() bool
}

type Blocks []Block
