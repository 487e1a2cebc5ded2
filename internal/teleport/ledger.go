package teleport

import (
	"context"
)

// ActionCost is how an action is priced against walk credit.
type ActionCost struct {
	Free       bool
	Multiplier float64
}

func clampCredit(v, maxCredit float64) float64 {
	if v < 0 {
		return 0
	}
	if maxCredit > 0 && v > maxCredit {
		return maxCredit
	}
	return v
}

// accrue adds walked blocks to the player's credit. The caller must hold
// ps.mu.
func (ps *PlayerState) accrue(delta, maxCredit float64) bool {
	if delta <= 0 {
		return false
	}
	before := ps.record.Credit
	ps.record.Credit = clampCredit(before+delta, maxCredit)
	if ps.record.Credit != before {
		ps.dirty = true
		return true
	}
	return false
}

// price returns what travelling distance blocks costs, and false when the
// action is not charged at all.
func (s *Settings) price(distance int, cost ActionCost) (float64, bool) {
	if !s.CostEnabled || cost.Free {
		return 0, false
	}
	return float64(distance) * s.GlobalMultiplier * cost.Multiplier, true
}

// charge debits the cost of distance blocks. Nothing changes on failure.
// The caller must hold ps.mu.
func (ps *PlayerState) charge(s *Settings, distance int, cost ActionCost, what string) (float64, error) {
	needed, charged := s.price(distance, cost)
	if !charged {
		return 0, nil
	}
	if ps.record.Credit < needed {
		return 0, insufficientCredit(needed, ps.record.Credit, what)
	}
	ps.record.Credit = clampCredit(ps.record.Credit-needed, s.MaxWalkCredit)
	return needed, nil
}

// refund undoes a charge whose teleport could not be carried out.
func (ps *PlayerState) refund(amount, maxCredit float64) {
	if amount > 0 {
		ps.record.Credit = clampCredit(ps.record.Credit+amount, maxCredit)
	}
}

// decay applies a death loss of lossPercent and returns the balances before
// and after. The caller must hold ps.mu.
func (ps *PlayerState) decay(lossPercent, maxCredit float64) (float64, float64) {
	before := ps.record.Credit
	loss := min(max(lossPercent, 0), 100)
	switch {
	case loss == 0:
	case loss == 100:
		ps.record.Credit = 0
	default:
		ps.record.Credit = clampCredit(before*(1-loss/100), maxCredit)
	}
	return before, ps.record.Credit
}

// Accrue adds walked distance to uid's credit and marks it for the next flush.
func (svc *Service) Accrue(uid string, delta float64) {
	ps := svc.states.Get(uid)
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.accrue(delta, svc.settings.MaxWalkCredit)
}

// TryCharge is the cost gate on its own: it debits the cost of distance
// blocks and persists the new balance, or fails with InsufficientCredit and
// leaves the balance alone.
func (svc *Service) TryCharge(ctx context.Context, uid string, distance int, cost ActionCost) (float64, error) {
	ps := svc.states.Get(uid)
	ps.mu.Lock()
	defer ps.mu.Unlock()

	charged, err := ps.charge(svc.settings, distance, cost, "")
	if err != nil {
		return 0, err
	}
	if charged > 0 {
		svc.states.persist(ctx, ps)
	}
	return charged, nil
}

// ApplyDeathDecay reduces uid's credit by lossPercent and persists it.
func (svc *Service) ApplyDeathDecay(ctx context.Context, uid string, lossPercent float64) (float64, float64) {
	ps := svc.states.Get(uid)
	ps.mu.Lock()
	defer ps.mu.Unlock()

	before, after := ps.decay(lossPercent, svc.settings.MaxWalkCredit)
	svc.states.persist(ctx, ps)
	return before, after
}

// Balance returns uid's walk credit.
func (svc *Service) Balance(uid string) float64 {
	return svc.states.Get(uid).Credit()
}
