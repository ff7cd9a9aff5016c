// Package errgroup provides an adapter that mimics golang.org/x/sync/errgroup
// semantics over a fail-fast scope, for callers migrating between the two.
package errgroup

import (
	"context"

	"github.com/NetPo4ki/go-supervise/scope"
)

// Group is an errgroup-like wrapper over a FailFast scope.
type Group struct {
	s   *scope.Scope
	ctx context.Context
}

// WithContext creates a Group bound to ctx. The returned context is
// cancelled when any function passed to Go returns a non-nil error or when
// ctx itself is cancelled.
func WithContext(ctx context.Context) (*Group, context.Context) {
	s := scope.New(ctx, scope.FailFast)
	g := &Group{s: s, ctx: s.Context()}
	return g, g.ctx
}

// Go starts f as a child task. A non-nil return cancels the group.
func (g *Group) Go(f func() error) {
	if f == nil {
		return
	}
	g.s.Go(func(context.Context) error {
		return f()
	})
}

// Wait blocks until all functions have returned. It returns the first
// non-nil error, including a propagated cancellation of the parent
// context, or nil on success.
func (g *Group) Wait() error {
	return g.s.Wait()
}

// Scope exposes the underlying scope, giving access to task handles and
// states that errgroup itself does not surface.
func (g *Group) Scope() *scope.Scope {
	return g.s
}
