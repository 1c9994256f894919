package ci

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"

	"github.com/conveyor-ci/conveyor/internal/blocks"
	"github.com/conveyor-ci/conveyor/internal/runnable"
	"github.com/conveyor-ci/conveyor/internal/x"
)

// Locals is the raw `locals { ... }` block; every attribute inside
// becomes an individual Local once expanded.
type Locals struct {
	Body hcl.Body `hcl:",remain"`
}

type LocalsGroup []*Locals

type Local struct {
	Key  string
	Expr hcl.Expression

	terminated bool
}

type LocalGroup []*Local

func (l LocalsGroup) Expand() (LocalGroup, hcl.Diagnostics) {
	var diags hcl.Diagnostics
	var locals LocalGroup
	for _, group := range l {
		attrs, d := group.Body.JustAttributes()
		diags = diags.Extend(d)
		for name, attr := range attrs {
			locals = append(locals, &Local{
				Key:  name,
				Expr: attr.Expr,
			})
		}
	}
	return locals, diags
}

func (l *Local) Description() Description {
	return Description{Name: l.Key}
}

func (l *Local) Identifier() string {
	return l.String()
}

func (l *Local) Type() string {
	return blocks.LocalBlock
}

func (l *Local) IsDaemon() bool {
	return false
}

func (l *Local) String() string {
	return x.RenderBlock(blocks.LocalBlock, l.Key)
}

func (l *Local) Variables() []hcl.Traversal {
	return l.Expr.Variables()
}

func (l *Local) CanRetry() bool {
	return false
}

func (l *Local) MaxRetries() int {
	return 0
}

func (l *Local) MinRetryBackoff() int {
	return 0
}

func (l *Local) MaxRetryBackoff() int {
	return 0
}

func (l *Local) RetryExponentialBackoff() bool {
	return false
}

func (l *Local) Prepare(conductor *Conductor, skip bool, overridden bool) hcl.Diagnostics {
	return nil
}

func (l *Local) CanRun(conductor *Conductor, options ...runnable.Option) (bool, hcl.Diagnostics) {
	return true, nil
}

func (l *Local) Run(conductor *Conductor, options ...runnable.Option) hcl.Diagnostics {
	var diags hcl.Diagnostics

	conductor.Eval().Mutex().RLock()
	v, d := l.Expr.Value(conductor.Eval().Context())
	conductor.Eval().Mutex().RUnlock()
	diags = diags.Extend(d)
	if diags.HasErrors() {
		return diags
	}

	conductor.Eval().Mutex().Lock()
	defer conductor.Eval().Mutex().Unlock()

	evalCtx := conductor.Eval().Context()
	locals := map[string]cty.Value{}
	if existing, ok := evalCtx.Variables[blocks.LocalBlock]; ok && !existing.IsNull() {
		for k, val := range existing.AsValueMap() {
			locals[k] = val
		}
	}
	locals[l.Key] = v
	evalCtx.Variables[blocks.LocalBlock] = cty.ObjectVal(locals)
	return diags
}

func (l *Local) Terminate(safe bool) hcl.Diagnostics {
	l.terminated = true
	return nil
}

func (l *Local) Kill() hcl.Diagnostics {
	return l.Terminate(false)
}

func (l *Local) Terminated() bool {
	return l.terminated
}

func (g LocalGroup) ByKey(key string) (*Local, hcl.Diagnostics) {
	for _, local := range g {
		if local.Key == key {
			return local, nil
		}
	}
	return nil, hcl.Diagnostics{
		{
			Severity: hcl.DiagError,
			Summary:  "Local not found",
			Detail:   fmt.Sprintf("local with key %s not found", key),
		},
	}
}

func (g LocalGroup) CheckIfDistinct(gg LocalGroup) hcl.Diagnostics {
	var diags hcl.Diagnostics
	for _, local := range g {
		for _, local2 := range gg {
			if local.Key == local2.Key {
				diags = append(diags, &hcl.Diagnostic{
					Severity: hcl.DiagError,
					Summary:  "Duplicate local",
					Detail:   "Local with key " + local.Key + " is defined more than once",
				})
			}
		}
	}
	return diags
}
