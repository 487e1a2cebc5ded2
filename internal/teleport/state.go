package teleport

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/pixil98/go-errors"

	"github.com/pixil98/go-waypoint/internal/storage"
)

// DefaultLocation is the entry name used when none is given and the only
// name allowed in single mode.
const DefaultLocation = "default"

// PlayerRecord is the persisted part of a player's teleport state.
type PlayerRecord struct {
	Locations map[Category]map[string]Position `json:"locations,omitempty"`
	Previous  *Position                        `json:"previous,omitempty"`
	Credit    float64                          `json:"walk_credit"`
}

func (r *PlayerRecord) Validate() error {
	if r == nil {
		return nil
	}

	el := errors.NewErrorList()
	for c, set := range r.Locations {
		if !c.Valid() {
			el.Add(fmt.Errorf("unknown location category %q", c))
		}
		for name := range set {
			if name == "" {
				el.Add(fmt.Errorf("%s: location name must be set", c))
			}
		}
	}
	return el.Err()
}

func (r *PlayerRecord) clone() *PlayerRecord {
	out := &PlayerRecord{Credit: r.Credit}
	if r.Previous != nil {
		p := *r.Previous
		out.Previous = &p
	}
	if len(r.Locations) > 0 {
		out.Locations = make(map[Category]map[string]Position, len(r.Locations))
		for c, set := range r.Locations {
			cp := make(map[string]Position, len(set))
			for k, v := range set {
				cp[k] = v
			}
			out.Locations[c] = cp
		}
	}
	return out
}

// Set returns the locations saved for c, or nil.
func (r *PlayerRecord) Set(c Category) map[string]Position {
	return r.Locations[c]
}

func (r *PlayerRecord) put(c Category, name string, pos Position) {
	if r.Locations == nil {
		r.Locations = map[Category]map[string]Position{}
	}
	if r.Locations[c] == nil {
		r.Locations[c] = map[string]Position{}
	}
	r.Locations[c][name] = pos
}

func (r *PlayerRecord) remove(c Category, name string) {
	set := r.Locations[c]
	delete(set, name)
	if len(set) == 0 {
		delete(r.Locations, c)
	}
}

// normalize applies single mode and the credit ceiling to a freshly loaded
// record. It is idempotent.
func (r *PlayerRecord) normalize(s *Settings) {
	for _, c := range Categories() {
		if len(r.Locations[c]) == 0 {
			delete(r.Locations, c)
			continue
		}
		if s.Categories.Get(c).SingleMode {
			r.Locations[c] = singleModeSet(r.Locations[c])
		}
	}
	for c := range r.Locations {
		if !c.Valid() {
			delete(r.Locations, c)
		}
	}
	r.Credit = clampCredit(r.Credit, s.MaxWalkCredit)
}

// singleModeSet reduces set to a single entry named DefaultLocation. An
// existing default survives; otherwise the lexically first name does.
func singleModeSet(set map[string]Position) map[string]Position {
	if len(set) == 0 {
		return set
	}
	if pos, ok := set[DefaultLocation]; ok {
		return map[string]Position{DefaultLocation: pos}
	}
	names := sortedNames(set)
	return map[string]Position{DefaultLocation: set[names[0]]}
}

func sortedNames(set map[string]Position) []string {
	names := make([]string, 0, len(set))
	for n := range set {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

type pendingRequest struct {
	from string
	at   time.Time
}

// PlayerState is everything the module knows about one player. Every field
// is guarded by mu.
type PlayerState struct {
	mu sync.Mutex

	uid    string
	record *PlayerRecord
	dirty  bool

	baseline   *Position
	suppressed bool
	// corpse is where the player died. Suppression holds while they are
	// still seen there.
	corpse *Position

	lastUse map[string]time.Time
	pending *pendingRequest
}

func (ps *PlayerState) UID() string {
	return ps.uid
}

// Credit returns the player's current walk credit.
func (ps *PlayerState) Credit() float64 {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	return ps.record.Credit
}

// Record returns a copy of the persisted state.
func (ps *PlayerState) Record() *PlayerRecord {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	return ps.record.clone()
}

func (ps *PlayerState) remaining(action string, cd time.Duration, now time.Time) time.Duration {
	last, ok := ps.lastUse[action]
	if !ok || cd <= 0 {
		return 0
	}
	if elapsed := now.Sub(last); elapsed < cd {
		return cd - elapsed
	}
	return 0
}

func (ps *PlayerState) used(action string, now time.Time) {
	if ps.lastUse == nil {
		ps.lastUse = map[string]time.Time{}
	}
	ps.lastUse[action] = now
}

// StateStore hands out the single PlayerState for each UID, loading the
// persisted record on first use.
type StateStore struct {
	records  storage.Storer[*PlayerRecord]
	settings *Settings

	mu     sync.Mutex
	states map[string]*PlayerState
}

func NewStateStore(records storage.Storer[*PlayerRecord], settings *Settings) *StateStore {
	return &StateStore{
		records:  records,
		settings: settings,
		states:   map[string]*PlayerState{},
	}
}

// Get returns the state for uid, creating it if needed. The returned state is
// not locked.
func (s *StateStore) Get(uid string) *PlayerState {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ps, ok := s.states[uid]; ok {
		return ps
	}

	rec := &PlayerRecord{}
	if stored := s.records.Get(uid); stored != nil {
		rec = stored.clone()
	}
	rec.normalize(s.settings)

	ps := &PlayerState{uid: uid, record: rec}
	s.states[uid] = ps
	return ps
}

// each calls fn for every loaded state, locking one at a time.
func (s *StateStore) each(fn func(ps *PlayerState)) {
	s.mu.Lock()
	all := make([]*PlayerState, 0, len(s.states))
	for _, ps := range s.states {
		all = append(all, ps)
	}
	s.mu.Unlock()

	for _, ps := range all {
		ps.mu.Lock()
		fn(ps)
		ps.mu.Unlock()
	}
}

// persist writes ps to the record store. The caller must hold ps.mu. A failed
// write leaves the record dirty so the next flush retries it.
func (s *StateStore) persist(ctx context.Context, ps *PlayerState) {
	ps.record.Credit = clampCredit(ps.record.Credit, s.settings.MaxWalkCredit)
	if err := s.records.Save(ps.uid, ps.record.clone()); err != nil {
		ps.dirty = true
		slog.ErrorContext(ctx, "saving teleport state", "uid", ps.uid, "error", err)
		return
	}
	ps.dirty = false
}

// Flush writes every dirty record and reports how many were written.
func (s *StateStore) Flush(ctx context.Context) int {
	n := 0
	s.each(func(ps *PlayerState) {
		if !ps.dirty {
			return
		}
		s.persist(ctx, ps)
		if !ps.dirty {
			n++
		}
	})
	return n
}
