package dg

import (
	"sync"
	"testing"

	"github.com/hashicorp/hcl/v2"
)

func TestSafeDiagnostics_Append(t *testing.T) {
	// test for concurrent writes to the diagnostics

	d := &SafeDiagnostics{}
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			d.Append(&hcl.Diagnostic{
				Severity: hcl.DiagWarning,
				Summary:  "",
			})
			wg.Done()
		}()
	}
	wg.Wait()
	if len(d.Diagnostics()) != 100 {
		t.Errorf("Diagnostics not written concurrently")
	}
}

func TestSafeDiagnostics_Extend(t *testing.T) {
	d := &SafeDiagnostics{}
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			d.Extend(hcl.Diagnostics{
				{
					Severity: hcl.DiagWarning,
					Summary:  "",
				},
			})
			wg.Done()
		}()
	}
	wg.Wait()
	if len(d.Diagnostics()) != 100 {
		t.Errorf("Diagnostics not written concurrently")
	}
}

func TestSafeDiagnostics_HasErrors(t *testing.T) {
	d := &SafeDiagnostics{}
	if d.HasErrors() {
		t.Errorf("HasErrors on an empty accumulator")
	}
	d.Extend(hcl.Diagnostics{
		{
			Severity: hcl.DiagError,
			Summary:  "",
		},
	})
	if !d.HasErrors() {
		t.Errorf("HasErrors not working")
	}
}

func TestSafeDiagnostics_Diagnostics(t *testing.T) {
	d := &SafeDiagnostics{}
	d.Extend(hcl.Diagnostics{
		{
			Severity: hcl.DiagWarning,
			Summary:  "",
		},
	})
	if len(d.Diagnostics()) != 1 {
		t.Errorf("Diagnostics not working")
	}
}
