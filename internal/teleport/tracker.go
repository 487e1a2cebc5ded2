package teleport

// TrackState is where a player is in the walk tracking cycle.
type TrackState int

const (
	Unseen TrackState = iota
	Tracking
	Suppressed
)

func (t TrackState) String() string {
	switch t {
	case Tracking:
		return "tracking"
	case Suppressed:
		return "suppressed"
	default:
		return "unseen"
	}
}

// observe feeds a sampled position to the tracker and returns the walked
// distance to credit. The first sample only sets the baseline. A suppressed
// player is re-baselined without credit until they are seen away from where
// they died, which covers samples taken before the respawn moves them. The
// caller must hold ps.mu.
func (ps *PlayerState) observe(cur Position) int {
	prev := ps.baseline
	ps.baseline = &cur

	if ps.suppressed {
		if ps.corpse == nil || cur != *ps.corpse {
			ps.suppressed = false
			ps.corpse = nil
		}
		return 0
	}
	if prev == nil {
		return 0
	}
	return Distance(*prev, cur)
}

// rebase moves the baseline without crediting the jump.
func (ps *PlayerState) rebase(pos Position) {
	ps.baseline = &pos
}

// TrackState reports the tracking state of the player.
func (ps *PlayerState) TrackState() TrackState {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	switch {
	case ps.suppressed:
		return Suppressed
	case ps.baseline == nil:
		return Unseen
	default:
		return Tracking
	}
}

// Baseline returns the last observed position, if any.
func (ps *PlayerState) Baseline() (Position, bool) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	if ps.baseline == nil {
		return Position{}, false
	}
	return *ps.baseline, true
}
