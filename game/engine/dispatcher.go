package engine

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

const taskQueueBuf = 256

// ErrStopped is returned by Submit after the dispatcher has shut down.
var ErrStopped = errors.New("engine: dispatcher stopped")

// Task is a unit of work to run on the simulation goroutine.
type Task func() (interface{}, error)

type taskResult struct {
	val interface{}
	err error
}

type submission struct {
	fn  Task
	out chan taskResult
}

// Dispatcher serializes all access to live session state and event
// execution onto a single goroutine, mirroring the game-simulation
// thread the quest engine requires. Callers submit work and await the
// result; work is never run concurrently.
type Dispatcher struct {
	tasks  chan submission
	stop   chan struct{}
	done   chan struct{}
	logger *zap.Logger
}

// NewDispatcher creates a Dispatcher and starts its worker goroutine.
func NewDispatcher(logger *zap.Logger) *Dispatcher {
	d := &Dispatcher{
		tasks:  make(chan submission, taskQueueBuf),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
		logger: logger,
	}
	go d.run()
	return d
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for {
		select {
		case sub := <-d.tasks:
			sub.out <- d.execute(sub.fn)
		case <-d.stop:
			// Drain work already enqueued; its callers may have gone
			// away, but enqueued tasks still complete. A send racing
			// the drain's exit is caught on the Submit side via done.
			for {
				select {
				case sub := <-d.tasks:
					sub.out <- d.execute(sub.fn)
				default:
					return
				}
			}
		}
	}
}

func (d *Dispatcher) execute(fn Task) (res taskResult) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("dispatcher task panicked", zap.Any("recover", r))
			res = taskResult{err: fmt.Errorf("engine: task panicked: %v", r)}
		}
	}()
	val, err := fn()
	return taskResult{val: val, err: err}
}

// Submit enqueues fn on the worker goroutine and waits for its result.
// If ctx is cancelled while waiting, Submit returns the context error;
// the enqueued task still runs to completion and its result is
// discarded (no cooperative cancellation reaches the task itself).
// A Submit racing Stop may win the enqueue after the worker's drain has
// already finished; the worker never picks that task up, so Submit
// watches the worker's exit and reports ErrStopped instead of waiting
// on a result that will never come.
func (d *Dispatcher) Submit(ctx context.Context, fn Task) (interface{}, error) {
	out := make(chan taskResult, 1) // buffered: worker never blocks on an abandoned caller
	select {
	case d.tasks <- submission{fn: fn, out: out}:
	case <-d.stop:
		return nil, ErrStopped
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case res := <-out:
		return res.val, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-d.done:
		// Worker gone. It may still have executed this task during the
		// drain; the buffered result is there if so.
		select {
		case res := <-out:
			return res.val, res.err
		default:
			return nil, ErrStopped
		}
	}
}

// Stop shuts the dispatcher down after draining queued work.
func (d *Dispatcher) Stop() {
	select {
	case <-d.stop:
	default:
		close(d.stop)
	}
	<-d.done
}
