package dg

import (
	"sync"

	"github.com/hashicorp/hcl/v2"
)

type AbstractDiagnostics interface {
	Append(diag *hcl.Diagnostic)
	Extend(diags hcl.Diagnostics)
	HasErrors() bool
	Diagnostics() hcl.Diagnostics
	Error() string
	Errs() []error
}

// SafeDiagnostics is an hcl.Diagnostics accumulator which may be shared
// between goroutines. Matrix jobs and stages report into one of these.
type SafeDiagnostics struct {
	mu    sync.Mutex
	diags hcl.Diagnostics
}

func (d *SafeDiagnostics) Append(diag *hcl.Diagnostic) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.diags = d.diags.Append(diag)
}

func (d *SafeDiagnostics) Extend(diags hcl.Diagnostics) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.diags = d.diags.Extend(diags)
}

func (d *SafeDiagnostics) HasErrors() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.diags.HasErrors()
}

func (d *SafeDiagnostics) Diagnostics() hcl.Diagnostics {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.diags
}

func (d *SafeDiagnostics) Error() string {
	return d.Diagnostics().Error()
}

func (d *SafeDiagnostics) Errs() []error {
	return d.Diagnostics().Errs()
}
