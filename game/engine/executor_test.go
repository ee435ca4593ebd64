package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/morinoparty/dailyquest/server/game/player"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newExecutor(t *testing.T) *EventExecutor {
	t.Helper()
	d := NewDispatcher(zap.NewNop())
	t.Cleanup(d.Stop)
	return NewEventExecutor(d, zap.NewNop())
}

func TestFire_UnknownEvent(t *testing.T) {
	e := newExecutor(t)
	s := player.NewDetachedSession("p1", "Steve", zap.NewNop())

	_, err := e.Fire(context.Background(), s, "SomePackage", "Some#event")
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestFire_ReportsConditionOutcome(t *testing.T) {
	e := newExecutor(t)
	s := player.NewDetachedSession("p1", "Steve", zap.NewNop())

	e.Register("Pkg", "ev#met", func(*player.PlayerSession) (bool, error) { return true, nil })
	e.Register("Pkg", "ev#unmet", func(*player.PlayerSession) (bool, error) { return false, nil })

	fired, err := e.Fire(context.Background(), s, "Pkg", "ev#met")
	require.NoError(t, err)
	assert.True(t, fired)

	fired, err = e.Fire(context.Background(), s, "Pkg", "ev#unmet")
	require.NoError(t, err)
	assert.False(t, fired)
}

func TestFire_HandlerError(t *testing.T) {
	e := newExecutor(t)
	s := player.NewDetachedSession("p1", "Steve", zap.NewNop())

	boom := errors.New("engine fault")
	e.Register("Pkg", "ev", func(*player.PlayerSession) (bool, error) { return false, boom })

	_, err := e.Fire(context.Background(), s, "Pkg", "ev")
	assert.ErrorIs(t, err, boom)
}

func TestFire_HandlerSeesSessionState(t *testing.T) {
	e := newExecutor(t)
	s := player.NewDetachedSession("p1", "Steve", zap.NewNop())
	s.SetObjective("label", "value")

	e.Register("Pkg", "ev", func(sess *player.PlayerSession) (bool, error) {
		v, ok := sess.Objective("label")
		return ok && v == "value", nil
	})

	fired, err := e.Fire(context.Background(), s, "Pkg", "ev")
	require.NoError(t, err)
	assert.True(t, fired)
}

func TestRegister_ReplacesHandler(t *testing.T) {
	e := newExecutor(t)
	s := player.NewDetachedSession("p1", "Steve", zap.NewNop())

	e.Register("Pkg", "ev", func(*player.PlayerSession) (bool, error) { return false, nil })
	e.Register("Pkg", "ev", func(*player.PlayerSession) (bool, error) { return true, nil })

	fired, err := e.Fire(context.Background(), s, "Pkg", "ev")
	require.NoError(t, err)
	assert.True(t, fired)
}
