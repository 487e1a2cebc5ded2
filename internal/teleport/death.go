package teleport

import (
	"context"
)

// HandleDeath reacts to a player dying: it arms the respawn suppression,
// applies the configured credit loss and persists the result. It runs before
// the host respawns the player.
func (svc *Service) HandleDeath(ctx context.Context, uid string) {
	s := svc.settings
	loss := s.DeathWalkLossPercent
	if s.ResetWalkOnDeath {
		loss = 100
	}
	loss = min(max(loss, 0), 100)

	ps := svc.states.Get(uid)
	ps.mu.Lock()
	if s.SuppressRespawnTick {
		ps.suppressed = true
		ps.corpse = nil
		if pos, err := svc.world.Locate(uid); err == nil {
			ps.corpse = &pos
		}
	}
	before, after := ps.decay(loss, s.MaxWalkCredit)
	svc.states.persist(ctx, ps)
	ps.mu.Unlock()

	svc.audit("%s died: walk credit %d -> %d (loss %g%%)",
		svc.nameOf(uid), BalanceDisplay(before), BalanceDisplay(after), loss)
}
