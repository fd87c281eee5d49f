package assembly

import (
	"fmt"
	"sync"

	"github.com/guyde2011/assemblies/brain"
	"github.com/guyde2011/assemblies/types"
)

// Context carries the implicit parameters assembly operations resolve when
// they are not given explicit ones: the brain an operation should mutate,
// and the recording a deferred operation should append to (spec §9:
// "every operation takes an explicit Context").
type Context struct {
	Brain     *brain.Brain
	Recording *Recording
}

// IsZero reports whether ctx has neither a brain nor a recording bound.
func (ctx Context) IsZero() bool { return ctx.Brain == nil && ctx.Recording == nil }

// scopeStack is process-wide, not goroutine-local: Go exposes no public
// goroutine identifier to key per-goroutine storage by, and this module
// imports no runtime-introspection dependency to fabricate one. The
// binding-context convenience (BindBrain/BindRecording/Current) is
// therefore a single-goroutine-at-a-time facility by construction — only
// one scope chain may be open across the whole process at once. Spec §5's
// actual discipline ("a brain is owned by one logical task at a time
// during a scope") is narrower than this; callers running independent
// scopes concurrently, even on independent brains, must not use
// BindBrain/BindRecording/Current from more than one goroutine at a time.
// Callers who need true concurrent scopes should skip this package-level
// convenience and pass Context values explicitly instead — every
// operation in this package already accepts one.
var (
	scopeMu    sync.Mutex
	scopeStack []Context
)

// Scope is an RAII handle returned by BindBrain/BindRecording. Exit must be
// called exactly once, and scopes must close in LIFO order (spec §4.5:
// "Scopes must be entered and exited in LIFO order; violating this fails
// with ScopeMisuse").
type Scope struct {
	ctx   Context
	depth int
	done  bool
}

// Current returns the innermost bound context, or the zero Context if no
// scope is active.
func Current() Context {
	scopeMu.Lock()
	defer scopeMu.Unlock()
	if len(scopeStack) == 0 {
		return Context{}
	}
	return scopeStack[len(scopeStack)-1]
}

// BindBrain pushes a new scope binding b as the current brain. Any
// recording already bound by an enclosing scope is inherited.
func BindBrain(b *brain.Brain) *Scope {
	return push(Context{Brain: b})
}

// BindRecording pushes a new scope binding r as the current recording. Any
// brain already bound by an enclosing scope is inherited.
func BindRecording(r *Recording) *Scope {
	return push(Context{Recording: r})
}

func push(ctx Context) *Scope {
	scopeMu.Lock()
	defer scopeMu.Unlock()
	if len(scopeStack) > 0 {
		parent := scopeStack[len(scopeStack)-1]
		if ctx.Brain == nil {
			ctx.Brain = parent.Brain
		}
		if ctx.Recording == nil {
			ctx.Recording = parent.Recording
		}
	}
	scopeStack = append(scopeStack, ctx)
	return &Scope{ctx: ctx, depth: len(scopeStack)}
}

// Exit pops this scope. It fails with ErrScopeMisuse if scopes were not
// closed in LIFO order, or if this scope was already exited.
func (s *Scope) Exit() error {
	scopeMu.Lock()
	defer scopeMu.Unlock()
	if s.done {
		return fmt.Errorf("%w: scope already exited", types.ErrScopeMisuse)
	}
	if len(scopeStack) != s.depth {
		return fmt.Errorf("%w: scope exited out of LIFO order", types.ErrScopeMisuse)
	}
	scopeStack = scopeStack[:len(scopeStack)-1]
	s.done = true
	return nil
}
