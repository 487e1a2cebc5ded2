package teleport

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Player is an online player as the host world reports it.
type Player struct {
	UID  string
	Name string
}

// World is the host game world the module teleports players around in.
type World interface {
	OnlinePlayers() []Player
	// Locate fails when uid is not an online player.
	Locate(uid string) (Position, error)
	// SpawnPosition reports the world spawn block, if one is known.
	SpawnPosition() (Position, bool)
	Teleport(uid string, pos Position) error
}

// Notifier delivers a message to an online player.
type Notifier interface {
	Notify(uid string, msg string) error
}

// Auditor records a human readable line for every state-changing action.
type Auditor interface {
	Record(msg string)
}

type nopNotifier struct{}

func (nopNotifier) Notify(string, string) error { return nil }

type nopAuditor struct{}

func (nopAuditor) Record(string) {}

// Service implements the teleport commands and the walk credit economy on
// top of a host World.
type Service struct {
	settings *Settings
	states   *StateStore
	world    World
	notifier Notifier
	auditor  Auditor
	now      func() time.Time

	limitMu  sync.Mutex
	limiters map[string]*rate.Limiter
}

func NewService(settings *Settings, states *StateStore, world World, opts ...ServiceOpt) *Service {
	svc := &Service{
		settings: settings,
		states:   states,
		world:    world,
		notifier: nopNotifier{},
		auditor:  nopAuditor{},
		now:      time.Now,
		limiters: map[string]*rate.Limiter{},
	}

	for _, opt := range opts {
		opt(svc)
	}

	return svc
}

func (svc *Service) Settings() *Settings {
	return svc.settings
}

func (svc *Service) States() *StateStore {
	return svc.states
}

func (svc *Service) audit(format string, args ...any) {
	svc.auditor.Record(fmt.Sprintf(format, args...))
}

func (svc *Service) notify(ctx context.Context, uid, msg string) {
	if err := svc.notifier.Notify(uid, msg); err != nil {
		slog.WarnContext(ctx, "notifying player", "uid", uid, "error", err)
	}
}

// nameOf returns the display name of an online player, or uid.
func (svc *Service) nameOf(uid string) string {
	for _, p := range svc.world.OnlinePlayers() {
		if p.UID == uid {
			return p.Name
		}
	}
	return uid
}

// locateSelf resolves the acting player.
func (svc *Service) locateSelf(uid string) (Position, error) {
	pos, err := svc.world.Locate(uid)
	if err != nil {
		return Position{}, notAPlayer()
	}
	return pos, nil
}
