package game

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/pixil98/go-waypoint/internal/teleport"
)

// DeathListener is told about a player death before the player respawns.
type DeathListener func(ctx context.Context, uid string)

// WorldState is the single source of truth for online players and their
// positions. All access must go through its methods to ensure thread-safety.
type WorldState struct {
	mu         sync.RWMutex
	subscriber Subscriber
	players    map[string]*PlayerState
	spawn      *teleport.Position

	listenerMu sync.RWMutex
	onDeath    []DeathListener

	now func() time.Time
}

type WorldOpt func(*WorldState)

// WithSpawn sets the world spawn point.
func WithSpawn(pos teleport.Position) WorldOpt {
	return func(w *WorldState) {
		w.spawn = &pos
	}
}

// WithClock replaces the clock used for activity timestamps.
func WithClock(now func() time.Time) WorldOpt {
	return func(w *WorldState) {
		w.now = now
	}
}

func NewWorldState(sub Subscriber, opts ...WorldOpt) *WorldState {
	w := &WorldState{
		subscriber: sub,
		players:    make(map[string]*PlayerState),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Subscriber provides the ability to subscribe to message subjects
type Subscriber interface {
	Subscribe(subject string, handler func(data []byte)) (unsubscribe func(), err error)
}

// GetPlayer returns the player state. Returns nil if player not found.
func (w *WorldState) GetPlayer(uid string) *PlayerState {
	w.mu.RLock()
	defer w.mu.RUnlock()

	return w.players[uid]
}

// AddPlayer puts a player into the world at pos.
func (w *WorldState) AddPlayer(uid, name string, pos teleport.Position, msgs chan []byte) (*PlayerState, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, exists := w.players[uid]; exists {
		return nil, ErrPlayerExists
	}

	ps := &PlayerState{
		subscriber:   w.subscriber,
		subs:         make(map[string]func()),
		msgs:         msgs,
		UID:          uid,
		Name:         name,
		Position:     pos,
		LastActivity: w.now(),
		done:         make(chan struct{}),
	}
	w.players[uid] = ps
	return ps, nil
}

// RemovePlayer takes a player out of the world and drops their subscriptions.
func (w *WorldState) RemovePlayer(uid string) error {
	w.mu.Lock()
	ps, exists := w.players[uid]
	if !exists {
		w.mu.Unlock()
		return ErrPlayerNotFound
	}
	delete(w.players, uid)
	w.mu.Unlock()

	ps.UnsubscribeAll()
	return nil
}

// SetPlayerQuit sets the quit flag for a player.
func (w *WorldState) SetPlayerQuit(uid string, quit bool) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	p, exists := w.players[uid]
	if !exists {
		return ErrPlayerNotFound
	}

	p.Quit = quit
	return nil
}

// Quitting reports whether the player has asked to leave.
func (w *WorldState) Quitting(uid string) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()

	p, ok := w.players[uid]
	return ok && p.Quit
}

// MarkPlayerActive resets the player's idle timer.
func (w *WorldState) MarkPlayerActive(uid string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if p, ok := w.players[uid]; ok {
		p.LastActivity = w.now()
	}
}

// ForEachPlayer calls fn for each player in the world while holding the lock.
func (w *WorldState) ForEachPlayer(fn func(string, *PlayerState)) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	for id, ps := range w.players {
		fn(id, ps)
	}
}

// OnlinePlayers lists everyone in the world, ordered by name.
func (w *WorldState) OnlinePlayers() []teleport.Player {
	w.mu.RLock()
	out := make([]teleport.Player, 0, len(w.players))
	for uid, ps := range w.players {
		out = append(out, teleport.Player{UID: uid, Name: ps.Name})
	}
	w.mu.RUnlock()

	slices.SortFunc(out, func(a, b teleport.Player) int {
		return strings.Compare(a.Name, b.Name)
	})
	return out
}

// Locate returns where an online player stands.
func (w *WorldState) Locate(uid string) (teleport.Position, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	ps, ok := w.players[uid]
	if !ok {
		return teleport.Position{}, ErrPlayerNotFound
	}
	return ps.Position, nil
}

// SpawnPosition returns the world spawn, if one is set.
func (w *WorldState) SpawnPosition() (teleport.Position, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.spawn == nil {
		return teleport.Position{}, false
	}
	return *w.spawn, true
}

// SetSpawn moves the world spawn.
func (w *WorldState) SetSpawn(pos teleport.Position) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.spawn = &pos
}

// Teleport places a player at pos without walking there.
func (w *WorldState) Teleport(uid string, pos teleport.Position) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	ps, ok := w.players[uid]
	if !ok {
		return ErrPlayerNotFound
	}
	ps.Position = pos
	return nil
}

// Move walks a player by delta and returns the new position.
func (w *WorldState) Move(uid string, delta teleport.Position) (teleport.Position, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	ps, ok := w.players[uid]
	if !ok {
		return teleport.Position{}, ErrPlayerNotFound
	}
	ps.Position = ps.Position.Add(delta)
	return ps.Position, nil
}

// OnDeath registers a listener for player deaths.
func (w *WorldState) OnDeath(l DeathListener) {
	w.listenerMu.Lock()
	defer w.listenerMu.Unlock()
	w.onDeath = append(w.onDeath, l)
}

// Kill fires the death listeners for uid and then respawns them at the world
// spawn. Listeners run without the world lock held.
func (w *WorldState) Kill(ctx context.Context, uid string) error {
	if w.GetPlayer(uid) == nil {
		return ErrPlayerNotFound
	}

	w.listenerMu.RLock()
	listeners := slices.Clone(w.onDeath)
	w.listenerMu.RUnlock()

	for _, l := range listeners {
		l(ctx, uid)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	ps, ok := w.players[uid]
	if !ok {
		return nil
	}
	if w.spawn != nil {
		ps.Position = *w.spawn
	}
	slog.InfoContext(ctx, "player respawned", "uid", uid, "position", ps.Position.Rounded())
	return nil
}

// PlayerState holds all mutable state for an active player.
type PlayerState struct {
	subscriber Subscriber
	msgs       chan []byte

	UID      string
	Name     string
	Position teleport.Position

	// Subscriptions
	subs map[string]func()

	// Session state
	Quit         bool
	LastActivity time.Time

	// Closed to signal the active session goroutine to exit.
	done chan struct{}
}

// Done returns the channel that is closed when this session is kicked.
func (p *PlayerState) Done() <-chan struct{} {
	return p.done
}

// Subscribe adds a new subscription
func (p *PlayerState) Subscribe(subject string) error {
	if p.subscriber == nil {
		return fmt.Errorf("subscriber is nil")
	}

	unsub, err := p.subscriber.Subscribe(subject, func(data []byte) {
		p.msgs <- data
	})

	// If we some how are subscribing to a channel we already think we have
	// unsubscribe from the existing one.
	if unsub, ok := p.subs[subject]; ok {
		unsub()
	}

	if err != nil {
		return fmt.Errorf("subscribing to channel '%s': %w", subject, err)
	}
	p.subs[subject] = unsub
	return nil
}

// Unsubscribe removes a subscription by name
func (p *PlayerState) Unsubscribe(subject string) {
	if unsub, ok := p.subs[subject]; ok {
		unsub()
		delete(p.subs, subject)
	}
}

// UnsubscribeAll removes all subscriptions
func (p *PlayerState) UnsubscribeAll() {
	for name, unsub := range p.subs {
		unsub()
		delete(p.subs, name)
	}
}

// Kick closes the done channel, signaling the active session goroutine to
// exit. It is safe to call multiple times.
func (p *PlayerState) Kick() {
	select {
	case <-p.done:
	default:
		close(p.done)
	}
}

// PlayerSubject is the messaging subject a player's session listens on.
func PlayerSubject(uid string) string {
	return fmt.Sprintf("player-%s", uid)
}
