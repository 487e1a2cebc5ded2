package teleport

import (
	"context"
	"log/slog"
	"time"
)

// Sampler credits every online player with the distance walked since the
// previous tick. It is driven at Settings.SampleInterval.
type Sampler struct {
	svc       *Service
	sinceSave time.Duration
}

func NewSampler(svc *Service) *Sampler {
	return &Sampler{svc: svc}
}

// Interval is how often Tick should be called.
func (s *Sampler) Interval() time.Duration {
	return s.svc.settings.SampleInterval()
}

func (s *Sampler) Tick(ctx context.Context) error {
	svc := s.svc
	for _, p := range svc.world.OnlinePlayers() {
		s.sample(ctx, p.UID)
	}

	s.sinceSave += s.Interval()
	if s.sinceSave >= svc.settings.SaveInterval() {
		s.sinceSave = 0
		if n := svc.states.Flush(ctx); n > 0 {
			slog.DebugContext(ctx, "flushed walk credit", "players", n)
		}
	}
	return nil
}

// sample reads the player's position with their state locked, so a teleport
// cannot land between the read and the baseline update.
func (s *Sampler) sample(ctx context.Context, uid string) {
	ps := s.svc.states.Get(uid)
	ps.mu.Lock()
	defer ps.mu.Unlock()

	pos, err := s.svc.world.Locate(uid)
	if err != nil {
		slog.DebugContext(ctx, "skipping walk sample", "uid", uid, "error", err)
		return
	}
	if walked := ps.observe(pos); walked > 0 {
		ps.accrue(float64(walked), s.svc.settings.MaxWalkCredit)
	}
}

// Flush writes all pending credit. It is called once on shutdown.
func (s *Sampler) Flush(ctx context.Context) error {
	n := s.svc.states.Flush(ctx)
	slog.InfoContext(ctx, "walk credit flushed", "players", n)
	return nil
}
