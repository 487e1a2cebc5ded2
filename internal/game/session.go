package game

import (
	"context"
	"log/slog"
	"time"
)

const (
	DefaultIdleTimeout = 15 * time.Minute
)

// SessionTicker implements Ticker and kicks players who have been idle too
// long.
type SessionTicker struct {
	world       *WorldState
	publisher   Publisher
	idleTimeout time.Duration
	now         func() time.Time
}

type SessionTickerOpt func(*SessionTicker)

func NewSessionTicker(world *WorldState, pub Publisher, opts ...SessionTickerOpt) *SessionTicker {
	st := &SessionTicker{
		world:       world,
		publisher:   pub,
		idleTimeout: DefaultIdleTimeout,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(st)
	}
	return st
}

func WithIdleTimeout(d time.Duration) SessionTickerOpt {
	return func(st *SessionTicker) {
		st.idleTimeout = d
	}
}

func WithSessionClock(now func() time.Time) SessionTickerOpt {
	return func(st *SessionTicker) {
		st.now = now
	}
}

func (st *SessionTicker) Tick(ctx context.Context) error {
	if st.idleTimeout <= 0 {
		return nil
	}
	cutoff := st.now().Add(-st.idleTimeout)

	// ForEachPlayer holds the world lock, so act after collecting.
	var idle []*PlayerState
	st.world.ForEachPlayer(func(_ string, ps *PlayerState) {
		if ps.LastActivity.Before(cutoff) {
			idle = append(idle, ps)
		}
	})

	for _, ps := range idle {
		if st.publisher != nil {
			_ = st.publisher.PublishToPlayer(ps.UID, []byte("You have been idle too long."))
		}
		ps.Kick()
		slog.InfoContext(ctx, "idle player kicked", "uid", ps.UID)
	}

	return nil
}
