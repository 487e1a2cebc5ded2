package teleport

import (
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pixil98/go-waypoint/internal/storage"
)

type fakePlayer struct {
	name string
	pos  Position
}

// fakeWorld is an in-memory World.
type fakeWorld struct {
	mu         sync.Mutex
	players    map[string]*fakePlayer
	order      []string
	spawn      *Position
	failMoves  bool
	teleported map[string]Position
}

func newFakeWorld() *fakeWorld {
	return &fakeWorld{
		players:    map[string]*fakePlayer{},
		teleported: map[string]Position{},
	}
}

func (w *fakeWorld) add(uid, name string, pos Position) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.players[uid] = &fakePlayer{name: name, pos: pos}
	w.order = append(w.order, uid)
}

func (w *fakeWorld) remove(uid string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.players, uid)
}

func (w *fakeWorld) move(uid string, pos Position) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.players[uid].pos = pos
}

func (w *fakeWorld) OnlinePlayers() []Player {
	w.mu.Lock()
	defer w.mu.Unlock()
	var out []Player
	for _, uid := range w.order {
		if p, ok := w.players[uid]; ok {
			out = append(out, Player{UID: uid, Name: p.name})
		}
	}
	return out
}

func (w *fakeWorld) Locate(uid string) (Position, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	p, ok := w.players[uid]
	if !ok {
		return Position{}, fmt.Errorf("player %s is not online", uid)
	}
	return p.pos, nil
}

func (w *fakeWorld) SpawnPosition() (Position, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.spawn == nil {
		return Position{}, false
	}
	return *w.spawn, true
}

func (w *fakeWorld) Teleport(uid string, pos Position) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.failMoves {
		return fmt.Errorf("chunk not loaded")
	}
	p, ok := w.players[uid]
	if !ok {
		return fmt.Errorf("player %s is not online", uid)
	}
	p.pos = pos
	w.teleported[uid] = pos
	return nil
}

type recordingNotifier struct {
	mu       sync.Mutex
	messages map[string][]string
}

func (n *recordingNotifier) Notify(uid, msg string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.messages == nil {
		n.messages = map[string][]string{}
	}
	n.messages[uid] = append(n.messages[uid], msg)
	return nil
}

func (n *recordingNotifier) received(uid, substr string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, m := range n.messages[uid] {
		if strings.Contains(m, substr) {
			return true
		}
	}
	return false
}

type recordingAuditor struct {
	mu    sync.Mutex
	lines []string
}

func (a *recordingAuditor) Record(msg string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.lines = append(a.lines, msg)
}

func (a *recordingAuditor) last() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.lines) == 0 {
		return ""
	}
	return a.lines[len(a.lines)-1]
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type testEnv struct {
	svc      *Service
	world    *fakeWorld
	clock    *fakeClock
	notifier *recordingNotifier
	auditor  *recordingAuditor
	records  *storage.FileStore[*PlayerRecord]
}

const (
	alice = "0b4fcb1e-9c47-4bb4-8d4c-5c2c4b0a8e11"
	bob   = "5d7a1c52-3f1e-4c1b-9a53-2a0f6f1b7c22"
	carol = "9e2b6d43-1a8c-4f7e-8b21-7c3d5e9f0a33"
)

// newTestEnv builds a Service with cost enabled and no cooldowns unless
// configure says otherwise. Alice stands at the origin and is online.
func newTestEnv(t *testing.T, configure func(s *Settings)) *testEnv {
	t.Helper()

	settings := DefaultSettings()
	settings.CostEnabled = true
	for _, c := range Categories() {
		settings.Categories.Get(c).CooldownSeconds = 0
	}
	settings.Spawn.CooldownSeconds = 0
	settings.Back.CooldownSeconds = 0
	if configure != nil {
		configure(settings)
	}

	records, err := storage.NewFileStore[*PlayerRecord](t.TempDir())
	if err != nil {
		t.Fatalf("creating record store: %v", err)
	}

	env := &testEnv{
		world:    newFakeWorld(),
		clock:    &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)},
		notifier: &recordingNotifier{},
		auditor:  &recordingAuditor{},
		records:  records,
	}
	env.world.add(alice, "Alice", Position{})
	env.svc = NewService(settings, NewStateStore(records, settings), env.world,
		WithNotifier(env.notifier),
		WithAuditor(env.auditor),
		WithClock(env.clock.Now),
	)
	return env
}

// setCredit gives uid a balance without going through the sampler.
func (e *testEnv) setCredit(uid string, credit float64) {
	ps := e.svc.states.Get(uid)
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.record.Credit = credit
}

func (e *testEnv) setLocation(uid string, c Category, name string, pos Position) {
	ps := e.svc.states.Get(uid)
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.record.put(c, name, pos)
}

func assertKind(t *testing.T, err error, kind ErrorKind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", kind)
	}
	e, ok := err.(*Error)
	if !ok {
		t.Fatalf("expected *Error, got %T: %v", err, err)
	}
	if e.Kind != kind {
		t.Fatalf("error kind = %s, expected %s (%v)", e.Kind, kind, err)
	}
}
