package pipeline

import "context"

// Future is the handle of an execution started with Go.
type Future struct {
	done chan struct{}
	res  *Result
	err  error
}

// Done is closed when the execution has finished.
func (f *Future) Done() <-chan struct{} { return f.done }

// Wait blocks until the execution finishes or ctx ends. Giving up on the
// wait does not stop the execution; its result is simply dropped.
func (f *Future) Wait(ctx context.Context) (*Result, error) {
	select {
	case <-f.done:
		return f.res, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Go starts an execution in the background. The work is detached from
// ctx cancellation but keeps its values.
func (p *Pipeline) Go(ctx context.Context, sink Sink) *Future {
	f := &Future{done: make(chan struct{})}
	ops := p.snapshot()
	ctx = context.WithoutCancel(ctx)
	go func() {
		defer close(f.done)
		f.res, f.err = p.run(ctx, ops, sink)
	}()
	return f
}

// Then runs the execution in the background and calls fn with its outcome.
func (p *Pipeline) Then(ctx context.Context, sink Sink, fn func(*Result, error)) {
	f := p.Go(ctx, sink)
	go func() {
		<-f.done
		fn(f.res, f.err)
	}()
}
