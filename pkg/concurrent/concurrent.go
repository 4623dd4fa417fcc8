package concurrent

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Task is a long-running unit of work bound to the group's context.
type Task func(ctx context.Context) error

// Group runs tasks until all return or one fails. The first failure cancels
// the shared context so sibling tasks can wind down.
type Group struct {
	eg     *errgroup.Group
	ctx    context.Context
	cancel context.CancelFunc
	once   sync.Once
}

// NewGroup derives the group context from parent.
func NewGroup(parent context.Context) *Group {
	ctx, cancel := context.WithCancel(parent)
	eg, ctx := errgroup.WithContext(ctx)
	return &Group{eg: eg, ctx: ctx, cancel: cancel}
}

// Context returns the context passed to every task.
func (g *Group) Context() context.Context {
	return g.ctx
}

// Go starts task. Returning context.Canceled after Stop is not a failure.
func (g *Group) Go(task Task) {
	g.eg.Go(func() error {
		err := task(g.ctx)
		if errors.Is(err, context.Canceled) && g.ctx.Err() != nil {
			return nil
		}
		return err
	})
}

// Stop cancels the group context without reporting an error.
func (g *Group) Stop() {
	g.once.Do(g.cancel)
}

// Wait blocks until every task returned and yields the first failure.
func (g *Group) Wait() error {
	err := g.eg.Wait()
	g.Stop()
	return err
}

// Run is shorthand for a group that runs tasks and waits for them.
func Run(ctx context.Context, tasks ...Task) error {
	g := NewGroup(ctx)
	for _, t := range tasks {
		g.Go(t)
	}
	return g.Wait()
}
