package teleport

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const (
	ActionSpawn = "spawn"
	ActionBack  = "back"
	ActionPeer  = "peer"
)

// Trip is the outcome of a completed teleport.
type Trip struct {
	From        Position
	Destination Position
	Distance    int
	Charged     float64
	Billed      bool
	Balance     float64
}

// journey describes one teleport for the shared goto protocol.
type journey struct {
	// action keys the cooldown; command names it in messages.
	action  string
	command string
	label   string

	settings ActionSettings
	cost     ActionCost

	// destination is resolved with the traveller's state locked.
	destination func(ps *PlayerState) (Position, error)
	// oneShot clears the stored previous position instead of replacing it.
	oneShot bool
}

// travel runs the goto protocol for uid. On any failure nothing about the
// player has changed: no credit is spent, no cooldown starts and no previous
// position is recorded.
func (svc *Service) travel(ctx context.Context, uid string, j journey) (Trip, error) {
	ps := svc.states.Get(uid)
	ps.mu.Lock()
	defer ps.mu.Unlock()

	from, err := svc.locateSelf(uid)
	if err != nil {
		return Trip{}, err
	}

	now := svc.now()
	if rem := ps.remaining(j.action, j.settings.Cooldown(), now); rem > 0 {
		return Trip{}, cooldownError(rem, j.command)
	}

	dest, err := j.destination(ps)
	if err != nil {
		return Trip{}, err
	}

	dist := Distance(from, dest)
	_, billed := svc.settings.price(dist, j.cost)
	charged, err := ps.charge(svc.settings, dist, j.cost, " to reach "+j.label)
	if err != nil {
		return Trip{}, err
	}

	if err := svc.world.Teleport(uid, dest); err != nil {
		ps.refund(charged, svc.settings.MaxWalkCredit)
		return Trip{}, newError(KindWorldUnavailable, "The teleport to %s failed: %v", j.label, err)
	}

	if j.oneShot {
		ps.record.Previous = nil
	} else {
		prev := from
		ps.record.Previous = &prev
	}
	ps.rebase(dest)
	ps.used(j.action, now)
	svc.states.persist(ctx, ps)

	trip := Trip{
		From:        from,
		Destination: dest,
		Distance:    dist,
		Charged:     charged,
		Billed:      billed,
		Balance:     ps.record.Credit,
	}
	svc.audit("%s teleported to %s from %s to %s (%d blocks, cost %d)",
		svc.nameOf(uid), j.label, from.Rounded(), dest.Rounded(), dist, CostDisplay(charged))

	return trip, nil
}

// describe renders the confirmation sent to a player after a teleport.
func (svc *Service) describe(label string, t Trip) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Teleported to %s (%d blocks", label, t.Distance)
	switch {
	case !svc.settings.CostEnabled:
	case t.Billed:
		fmt.Fprintf(&b, ", cost %d, walk credit left %d", CostDisplay(t.Charged), BalanceDisplay(t.Balance))
	default:
		fmt.Fprintf(&b, ", free, walk credit %d", BalanceDisplay(t.Balance))
	}
	b.WriteString(").")
	return b.String()
}

// GotoSpawn teleports uid to one block above the world spawn.
func (svc *Service) GotoSpawn(ctx context.Context, uid string) (string, error) {
	s := svc.settings.Spawn
	if !s.Enabled {
		return "", newError(KindDisabled, "Teleporting to spawn is disabled.")
	}

	const label = "spawn"
	trip, err := svc.travel(ctx, uid, journey{
		action:   ActionSpawn,
		command:  "tospawn",
		label:    label,
		settings: s,
		cost:     s.Cost(),
		destination: func(*PlayerState) (Position, error) {
			spawn, ok := svc.world.SpawnPosition()
			if !ok {
				return Position{}, newError(KindWorldUnavailable, "The world spawn is not known yet.")
			}
			return spawn.Add(Position{Y: 1}), nil
		},
	})
	if err != nil {
		return "", err
	}
	return svc.describe(label, trip), nil
}

// GotoBack returns uid to where they were before their last teleport. The
// previous position can be used once.
func (svc *Service) GotoBack(ctx context.Context, uid string) (string, error) {
	s := svc.settings.Back
	if !s.Enabled {
		return "", newError(KindDisabled, "The back command is disabled.")
	}

	const label = "your previous position"
	trip, err := svc.travel(ctx, uid, journey{
		action:   ActionBack,
		command:  "back",
		label:    label,
		settings: s,
		cost:     s.Cost(),
		oneShot:  true,
		destination: func(ps *PlayerState) (Position, error) {
			if ps.record.Previous == nil {
				return Position{}, newError(KindNotFound, "You have no previous position to return to.")
			}
			return *ps.record.Previous, nil
		},
	})
	if err != nil {
		return "", err
	}
	return svc.describe(label, trip), nil
}

// WalkCreditStatus describes the cost rules and uid's balance.
func (svc *Service) WalkCreditStatus(uid string) (string, error) {
	if _, err := svc.locateSelf(uid); err != nil {
		return "", err
	}
	s := svc.settings
	balance := svc.Balance(uid)

	lines := []string{fmt.Sprintf("Walk credit: %d blocks", BalanceDisplay(balance))}
	if s.MaxWalkCredit > 0 {
		lines[0] += fmt.Sprintf(" (max %d)", BalanceDisplay(s.MaxWalkCredit))
	}
	if !s.CostEnabled {
		lines = append(lines, "Teleport costs are disabled.")
		return strings.Join(lines, "\n"), nil
	}

	lines = append(lines, fmt.Sprintf("Teleport costs are enabled, %g credit per block.", s.GlobalMultiplier))
	for _, c := range Categories() {
		cs := s.Categories.Get(c)
		lines = append(lines, fmt.Sprintf("  %-9s %s, default %s", string(c)+":",
			costRule(cs.Free, cs.Multiplier), costRule(cs.DefaultFree, cs.DefaultMultiplier)))
	}
	lines = append(lines,
		fmt.Sprintf("  %-9s %s", "spawn:", costRule(s.Spawn.Free, s.Spawn.Multiplier)),
		fmt.Sprintf("  %-9s %s", "back:", costRule(s.Back.Free, s.Back.Multiplier)),
		fmt.Sprintf("  %-9s %s", "player:", costRule(s.Peer.Free, s.Peer.Multiplier)),
	)
	if s.ResetWalkOnDeath {
		lines = append(lines, "Dying resets your walk credit.")
	} else if s.DeathWalkLossPercent > 0 {
		lines = append(lines, fmt.Sprintf("Dying costs %g%% of your walk credit.", s.DeathWalkLossPercent))
	}
	return strings.Join(lines, "\n"), nil
}

func costRule(free bool, multiplier float64) string {
	if free {
		return "free"
	}
	return fmt.Sprintf("x%g", multiplier)
}

// Cooldown returns how long the player must still wait before using action.
func (ps *PlayerState) Cooldown(action string, cd time.Duration, now time.Time) time.Duration {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	return ps.remaining(action, cd, now)
}
