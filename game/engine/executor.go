package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/morinoparty/dailyquest/server/game/player"
	"go.uber.org/zap"
)

// ErrEventNotFound is returned by Fire when no handler is registered
// for the (package, event) pair. This indicates a deployment or config
// mismatch, not bad user input.
var ErrEventNotFound = errors.New("engine: event not found")

// EventFunc executes a named quest event against a live session. The
// returned bool reports whether the event's own conditions were met;
// false is a domain no-op, not an error. EventFuncs always run on the
// dispatcher goroutine and may touch session live state freely.
type EventFunc func(s *player.PlayerSession) (bool, error)

// EventExecutor looks up named quest events by (package, event) and
// fires them on the dispatcher.
type EventExecutor struct {
	mu     sync.RWMutex
	events map[string]EventFunc
	disp   *Dispatcher
	logger *zap.Logger
}

// NewEventExecutor creates an EventExecutor bound to the given dispatcher.
func NewEventExecutor(disp *Dispatcher, logger *zap.Logger) *EventExecutor {
	return &EventExecutor{
		events: make(map[string]EventFunc),
		disp:   disp,
		logger: logger,
	}
}

func eventKey(pkg, event string) string {
	return pkg + "/" + event
}

// Register installs a handler for the (package, event) pair, replacing
// any previous handler.
func (e *EventExecutor) Register(pkg, event string, fn EventFunc) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events[eventKey(pkg, event)] = fn
}

// Fire runs the named event against the session on the dispatcher and
// reports whether the event's conditions were met.
func (e *EventExecutor) Fire(ctx context.Context, s *player.PlayerSession, pkg, event string) (bool, error) {
	e.mu.RLock()
	fn, ok := e.events[eventKey(pkg, event)]
	e.mu.RUnlock()
	if !ok {
		return false, fmt.Errorf("%w: %s/%s", ErrEventNotFound, pkg, event)
	}

	val, err := e.disp.Submit(ctx, func() (interface{}, error) {
		ok, err := fn(s)
		return ok, err
	})
	if err != nil {
		return false, err
	}
	fired, _ := val.(bool)
	e.logger.Debug("event fired",
		zap.String("player_id", s.PlayerID),
		zap.String("package", pkg),
		zap.String("event", event),
		zap.Bool("success", fired))
	return fired, nil
}
