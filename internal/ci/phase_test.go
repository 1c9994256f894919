package ci

import "testing"

func TestPhaseIndex(t *testing.T) {
	if PhaseIndex(PhaseSignoff) != 0 {
		t.Error("signoff should be the first phase")
	}
	if PhaseIndex(PhaseAfterSuccess) != len(PhaseOrder)-1 {
		t.Error("after_success should be the last phase")
	}
	if PhaseIndex("deploy") != -1 {
		t.Error("deploy is not a phase")
	}
}

func TestPhaseOrdering(t *testing.T) {
	if PhaseIndex(PhaseLint) >= PhaseIndex(PhaseBeforeInstall) {
		t.Error("lint should come before before_install")
	}
	if PhaseIndex(PhaseBeforeScript) >= PhaseIndex(PhaseScript) {
		t.Error("before_script should come before script")
	}
	if PhaseIndex(PhaseScript) >= PhaseIndex(PhaseAfterSuccess) {
		t.Error("script should come before after_success")
	}
}

func TestValidatePhase(t *testing.T) {
	if d := ValidatePhase(PhaseScript, nil); d.HasErrors() {
		t.Errorf("unexpected error: %s", d.Error())
	}
	if d := ValidatePhase("deploy", nil); !d.HasErrors() {
		t.Error("expected an error for an unknown phase")
	}
}

func TestStageEffectivePhase(t *testing.T) {
	stage := Stage{Id: "test"}
	if stage.EffectivePhase() != PhaseScript {
		t.Error("a stage without a phase belongs to script")
	}
	stage.Phase = PhaseLint
	if stage.EffectivePhase() != PhaseLint {
		t.Error("EffectivePhase() should honor the declared phase")
	}
}
