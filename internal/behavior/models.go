package behavior

// Child marks a conductor that runs a single matrix job on behalf of a
// parent conductor. Child conductors log without timestamps so that the
// parent's output stays readable.
type Child struct {
	// Enabled is the flag to indicate whether the program is running in child mode
	Enabled bool

	// Job is the name of the matrix job this child runs
	Job string
}

type Behavior struct {
	// Unattended is the flag to indicate whether the program is running in unattended mode.
	// When set, variable prompts are skipped and defaults are used.
	Unattended bool

	// Ci is the flag to indicate whether the program is running in CI mode
	Ci bool

	// DryRun prints the commands which would run instead of executing them
	DryRun bool

	// Parallel runs matrix jobs concurrently. Jobs never share state, so
	// this only changes wall-clock behavior, not results.
	Parallel bool

	// DisableConcurrency forces stages within a job to run one at a time
	DisableConcurrency bool

	// Child is set when this process runs a single matrix job
	Child Child
}

func NewDefaultBehavior() *Behavior {
	return &Behavior{
		Unattended: false,
		Ci:         false,
		DryRun:     false,
	}
}
