package ci

import (
	"fmt"
	"os/exec"

	"github.com/hashicorp/hcl/v2"

	"github.com/conveyor-ci/conveyor/internal/blocks"
	"github.com/conveyor-ci/conveyor/internal/x"
)

// Stage is a single unit of work within a phase. script runs under the
// configured shell; args bypasses the shell entirely. When a container
// block is present the command runs inside a docker container instead
// of on the host.
type Stage struct {
	Id   string `hcl:"id,label" json:"id"`
	Name string `hcl:"name,optional" json:"name"`

	Phase string `hcl:"phase,optional" json:"phase"`

	Condition hcl.Expression `hcl:"if,optional" json:"if"`
	DependsOn hcl.Expression `hcl:"depends_on,optional" json:"depends_on"`

	Dir    hcl.Expression `hcl:"dir,optional" json:"dir"`
	Script hcl.Expression `hcl:"script,optional" json:"script"`
	Shell  hcl.Expression `hcl:"shell,optional" json:"shell"`
	Args   hcl.Expression `hcl:"args,optional" json:"args"`

	// AllowFailure keeps the job green even when this stage fails,
	// mirroring the usual CI allow_failures knob.
	AllowFailure bool `hcl:"allow_failure,optional" json:"allow_failure"`

	Environment EnvVars         `hcl:"env,block" json:"environment"`
	Retry       *StageRetry     `hcl:"retry,block" json:"retry"`
	Container   *StageContainer `hcl:"container,block" json:"container"`

	ContainerId string

	process    *exec.Cmd
	terminated bool
}

type Stages []Stage

type StageRetry struct {
	Enabled            bool `hcl:"enabled" json:"enabled"`
	Attempts           int  `hcl:"attempts" json:"attempts"`
	ExponentialBackoff bool `hcl:"exponential_backoff,optional" json:"exponential_backoff"`
	MinBackoff         int  `hcl:"min_backoff,optional" json:"min_backoff"`
	MaxBackoff         int  `hcl:"max_backoff,optional" json:"max_backoff"`
}

type StageContainer struct {
	Image      hcl.Expression `hcl:"image" json:"image"`
	Entrypoint hcl.Expression `hcl:"entrypoint,optional" json:"entrypoint"`
	Stdin      bool           `hcl:"stdin,optional" json:"stdin"`

	Volumes StageContainerVolumes `hcl:"volume,block" json:"volumes"`
}

type StageContainerVolume struct {
	Source      hcl.Expression `hcl:"source" json:"source"`
	Destination hcl.Expression `hcl:"destination" json:"destination"`
}

type StageContainerVolumes []StageContainerVolume

func (s *Stage) Description() Description {
	return Description{
		Name:        s.Name,
		Description: "",
	}
}

func (s *Stage) Identifier() string {
	return s.String()
}

func (s *Stage) Type() string {
	return blocks.StageBlock
}

func (s *Stage) IsDaemon() bool {
	return false
}

func (s *Stage) String() string {
	return x.RenderBlock(blocks.StageBlock, s.Id)
}

// EffectivePhase falls back to the default phase when the stage does
// not declare one.
func (s *Stage) EffectivePhase() string {
	if s.Phase == "" {
		return DefaultPhase
	}
	return s.Phase
}

func (s Stages) ById(id string) (*Stage, hcl.Diagnostics) {
	for i := range s {
		if s[i].Id == id {
			return &s[i], nil
		}
	}
	return nil, hcl.Diagnostics{
		{
			Severity: hcl.DiagError,
			Summary:  "Stage not found",
			Detail:   fmt.Sprintf("Stage with id %s not found", id),
		},
	}
}

func (s Stages) CheckIfDistinct(ss Stages) hcl.Diagnostics {
	var diags hcl.Diagnostics
	for _, stage := range s {
		for _, stage2 := range ss {
			if stage.Id == stage2.Id {
				diags = append(diags, &hcl.Diagnostic{
					Severity: hcl.DiagError,
					Summary:  "Duplicate stage",
					Detail:   "Stage with id " + stage.Id + " is defined more than once",
				})
			}
		}
	}
	return diags
}
