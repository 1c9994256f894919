package ci

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"

	"github.com/conveyor-ci/conveyor/internal/blocks"
	"github.com/conveyor-ci/conveyor/internal/x"
)

// Service is an addon container the job's stages talk to, like a
// postgres or memcached instance. It is started before the first phase
// barrier and torn down after the job's last stage completes. The mapped
// address is published into the evaluation context as
// service.<id>.host and service.<id>.port.
type Service struct {
	Id string `hcl:"id,label" json:"id"`

	Image hcl.Expression `hcl:"image" json:"image"`

	// Port is the port the service listens on inside the container.
	// It is published on an ephemeral host port.
	Port int `hcl:"port,optional" json:"port"`

	Environment EnvVars `hcl:"env,block" json:"environment"`

	// ReadyTimeout bounds the TCP readiness wait, in seconds.
	ReadyTimeout int `hcl:"ready_timeout,optional" json:"ready_timeout"`

	containerId string
	hostPort    string
	terminated  bool
}

type Services []Service

const DefaultServiceReadyTimeout = 60

func (s *Service) Description() Description {
	return Description{
		Name:        s.Id,
		Description: "",
	}
}

func (s *Service) Identifier() string {
	return s.String()
}

func (s *Service) Type() string {
	return blocks.ServiceBlock
}

func (s *Service) IsDaemon() bool {
	return true
}

func (s *Service) String() string {
	return x.RenderBlock(blocks.ServiceBlock, s.Id)
}

func (s *Service) Variables() []hcl.Traversal {
	var traversal []hcl.Traversal
	traversal = append(traversal, s.Image.Variables()...)
	traversal = append(traversal, s.Environment.Variables()...)
	return traversal
}

func (s Services) Variables() []hcl.Traversal {
	var traversal []hcl.Traversal
	for i := range s {
		traversal = append(traversal, s[i].Variables()...)
	}
	return traversal
}

func (s *Service) CanRetry() bool {
	return false
}

func (s *Service) MaxRetries() int {
	return 0
}

func (s *Service) MinRetryBackoff() int {
	return 0
}

func (s *Service) MaxRetryBackoff() int {
	return 0
}

func (s *Service) RetryExponentialBackoff() bool {
	return false
}

func (s Services) ById(id string) (*Service, hcl.Diagnostics) {
	for i := range s {
		if s[i].Id == id {
			return &s[i], nil
		}
	}
	return nil, hcl.Diagnostics{
		{
			Severity: hcl.DiagError,
			Summary:  "Service not found",
			Detail:   fmt.Sprintf("Service with id %s not found", id),
		},
	}
}

func (s Services) CheckIfDistinct(ss Services) hcl.Diagnostics {
	var diags hcl.Diagnostics
	for _, service := range s {
		for _, service2 := range ss {
			if service.Id == service2.Id {
				diags = append(diags, &hcl.Diagnostic{
					Severity: hcl.DiagError,
					Summary:  "Duplicate service",
					Detail:   "Service with id " + service.Id + " is defined more than once",
				})
			}
		}
	}
	return diags
}
