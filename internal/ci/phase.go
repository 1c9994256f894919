package ci

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
)

// Lifecycle phases, in execution order. Every stage belongs to exactly
// one phase; stages of a later phase never start before every stage of
// the earlier phases has finished.
const (
	PhaseSignoff       = "signoff"
	PhaseLint          = "lint"
	PhaseBeforeInstall = "before_install"
	PhaseInstall       = "install"
	PhaseBeforeScript  = "before_script"
	PhaseScript        = "script"
	PhaseAfterSuccess  = "after_success"
)

var PhaseOrder = []string{
	PhaseSignoff,
	PhaseLint,
	PhaseBeforeInstall,
	PhaseInstall,
	PhaseBeforeScript,
	PhaseScript,
	PhaseAfterSuccess,
}

const DefaultPhase = PhaseScript

// PhaseBarrier is the synthetic graph node which opens a phase.
// stage nodes of phase N depend on barrier(N); barrier(N+1) depends on
// every stage of phase N.
func PhaseBarrier(phase string) string {
	return fmt.Sprintf("phase.%s", phase)
}

func PhaseIndex(phase string) int {
	for i, p := range PhaseOrder {
		if p == phase {
			return i
		}
	}
	return -1
}

func ValidatePhase(phase string, subject *hcl.Range) hcl.Diagnostics {
	if PhaseIndex(phase) >= 0 {
		return nil
	}
	return hcl.Diagnostics{
		{
			Severity: hcl.DiagError,
			Summary:  "invalid phase",
			Detail:   fmt.Sprintf("phase %q is not a valid lifecycle phase", phase),
			Subject:  subject,
		},
	}
}
