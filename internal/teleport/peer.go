package teleport

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/time/rate"
)

// maxPeerCostLines caps the all-players cost listing.
const maxPeerCostLines = 11

// ResolvePlayer finds an online player by name. An exact case-insensitive
// match wins over prefix matches; otherwise the prefix must be unique.
func (svc *Service) ResolvePlayer(name string) (Player, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Player{}, newError(KindInvalidArgument, "A player name is required.")
	}

	fold := cases.Fold()
	want := fold.String(name)

	var prefixed []Player
	for _, p := range svc.world.OnlinePlayers() {
		have := fold.String(p.Name)
		if have == want {
			return p, nil
		}
		if strings.HasPrefix(have, want) {
			prefixed = append(prefixed, p)
		}
	}

	switch len(prefixed) {
	case 0:
		return Player{}, newError(KindNotFound, "No online player matches '%s'.", name)
	case 1:
		return prefixed[0], nil
	default:
		names := make([]string, len(prefixed))
		for i, p := range prefixed {
			names[i] = p.Name
		}
		slices.Sort(names)
		return Player{}, newError(KindAmbiguous, "'%s' matches several players: %s.", name, strings.Join(names, ", "))
	}
}

// prune drops every pending request older than the timeout.
func (svc *Service) prune() {
	cutoff := svc.now().Add(-svc.settings.PeerTimeout())
	svc.states.each(func(ps *PlayerState) {
		if ps.pending != nil && ps.pending.at.Before(cutoff) {
			ps.pending = nil
		}
	})
}

// pendingFrom reports whether ps holds a live request from requester. The
// caller must hold ps.mu.
func (svc *Service) pendingFrom(ps *PlayerState, requester string) bool {
	p := ps.pending
	if p == nil || p.from != requester {
		return false
	}
	return svc.now().Sub(p.at) <= svc.settings.PeerTimeout()
}

func (svc *Service) allowRequest(uid string) bool {
	perMinute := svc.settings.PeerRequestsPerMinute
	if perMinute <= 0 {
		return true
	}

	svc.limitMu.Lock()
	defer svc.limitMu.Unlock()

	lim, ok := svc.limiters[uid]
	if !ok {
		lim = rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute)
		svc.limiters[uid] = lim
	}
	return lim.AllowN(svc.now(), 1)
}

// RequestPeer asks the named player to accept a teleport of uid to them. A
// new request replaces whatever the target had pending.
func (svc *Service) RequestPeer(ctx context.Context, uid, targetName string) (string, error) {
	if !svc.settings.Peer.Enabled {
		return "", newError(KindDisabled, "Teleporting to players is disabled.")
	}
	if _, err := svc.locateSelf(uid); err != nil {
		return "", err
	}
	svc.prune()

	target, err := svc.ResolvePlayer(targetName)
	if err != nil {
		return "", err
	}
	if target.UID == uid {
		return "", newError(KindSelfTargeting, "You cannot send a teleport request to yourself.")
	}

	self := svc.states.Get(uid)
	if rem := self.Cooldown(ActionPeer, svc.settings.Peer.Cooldown(), svc.now()); rem > 0 {
		return "", cooldownError(rem, "tp2p")
	}
	if !svc.allowRequest(uid) {
		return "", newError(KindRateLimited, "You are sending teleport requests too quickly.")
	}

	ts := svc.states.Get(target.UID)
	ts.mu.Lock()
	ts.pending = &pendingRequest{from: uid, at: svc.now()}
	ts.mu.Unlock()

	name := svc.nameOf(uid)
	svc.notify(ctx, target.UID, fmt.Sprintf(
		"%s wants to teleport to you. Type 'tpaccept %s' or 'tpdeny %s' within %s.",
		name, name, name, FormatRemaining(svc.settings.PeerTimeout())))
	svc.audit("%s requested a teleport to %s", name, target.Name)

	return fmt.Sprintf("Teleport request sent to %s.", target.Name), nil
}

// AcceptPeer lets uid accept the pending request from the named requester.
// Once the request is matched it is used up, even if the teleport then fails.
func (svc *Service) AcceptPeer(ctx context.Context, uid, requesterName string) (string, error) {
	if !svc.settings.Peer.Enabled {
		return "", newError(KindDisabled, "Teleporting to players is disabled.")
	}
	if _, err := svc.locateSelf(uid); err != nil {
		return "", err
	}
	svc.prune()

	requester, err := svc.ResolvePlayer(requesterName)
	if err != nil {
		return "", err
	}

	ts := svc.states.Get(uid)
	ts.mu.Lock()
	if !svc.pendingFrom(ts, requester.UID) {
		ts.mu.Unlock()
		return "", newError(KindNotFound, "You have no pending teleport request from %s.", requester.Name)
	}
	ts.pending = nil
	ts.mu.Unlock()

	name := svc.nameOf(uid)
	if _, err := svc.world.Locate(requester.UID); err != nil {
		return "", newError(KindNotFound, "%s is no longer online.", requester.Name)
	}

	s := svc.settings.Peer
	label := name
	trip, err := svc.travel(ctx, requester.UID, journey{
		action:   ActionPeer,
		command:  "tp2p",
		label:    label,
		settings: ActionSettings{Enabled: s.Enabled},
		cost:     s.Cost(),
		destination: func(*PlayerState) (Position, error) {
			pos, err := svc.world.Locate(uid)
			if err != nil {
				return Position{}, notAPlayer()
			}
			return pos, nil
		},
	})
	if err != nil {
		svc.notify(ctx, requester.UID, fmt.Sprintf("Your teleport to %s failed: %s", name, err))
		var e *Error
		if errors.As(err, &e) && e.Kind == KindInsufficientCredit {
			out := newError(KindInsufficientCredit, "%s does not have enough walk credit to reach you.", requester.Name)
			out.Needed, out.Have = e.Needed, e.Have
			return "", out
		}
		return "", err
	}

	svc.notify(ctx, requester.UID, svc.describe(label, trip))
	svc.audit("%s accepted a teleport from %s", name, requester.Name)

	return fmt.Sprintf("%s teleported to you.", requester.Name), nil
}

// DenyPeer drops the pending request from the named requester.
func (svc *Service) DenyPeer(ctx context.Context, uid, requesterName string) (string, error) {
	if _, err := svc.locateSelf(uid); err != nil {
		return "", err
	}
	svc.prune()

	requester, err := svc.ResolvePlayer(requesterName)
	if err != nil {
		return "", err
	}

	ts := svc.states.Get(uid)
	ts.mu.Lock()
	if !svc.pendingFrom(ts, requester.UID) {
		ts.mu.Unlock()
		return "", newError(KindNotFound, "You have no pending teleport request from %s.", requester.Name)
	}
	ts.pending = nil
	ts.mu.Unlock()

	name := svc.nameOf(uid)
	svc.notify(ctx, requester.UID, fmt.Sprintf("%s denied your teleport request.", name))
	svc.audit("%s denied a teleport from %s", name, requester.Name)

	return fmt.Sprintf("You denied the teleport request from %s.", requester.Name), nil
}

// PeerCost prices a teleport from uid to the named player, or to every other
// online player when name is empty.
func (svc *Service) PeerCost(uid, name string) (string, error) {
	from, err := svc.locateSelf(uid)
	if err != nil {
		return "", err
	}
	balance := svc.Balance(uid)
	cost := svc.settings.Peer.Cost()

	if name != "" {
		target, err := svc.ResolvePlayer(name)
		if err != nil {
			return "", err
		}
		if target.UID == uid {
			return "", newError(KindSelfTargeting, "That is you.")
		}
		to, err := svc.world.Locate(target.UID)
		if err != nil {
			return "", newError(KindNotFound, "%s is no longer online.", target.Name)
		}
		return svc.costLine(target.Name, Distance(from, to), cost, balance), nil
	}

	others := slices.DeleteFunc(svc.world.OnlinePlayers(), func(p Player) bool { return p.UID == uid })
	if len(others) == 0 {
		return "There is nobody else online.", nil
	}
	slices.SortFunc(others, func(a, b Player) int { return strings.Compare(a.Name, b.Name) })

	lines := []string{fmt.Sprintf("Costs to other players (walk credit %d):", BalanceDisplay(balance))}
	shown := 0
	for i, p := range others {
		if shown == maxPeerCostLines {
			lines = append(lines, fmt.Sprintf("  ...and %d more", len(others)-i))
			break
		}
		to, err := svc.world.Locate(p.UID)
		if err != nil {
			continue
		}
		lines = append(lines, "  "+svc.costLine(p.Name, Distance(from, to), cost, balance))
		shown++
	}
	return strings.Join(lines, "\n"), nil
}
