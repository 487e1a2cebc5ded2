package command

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/pixil98/go-errors"
	"github.com/pixil98/go-service"

	"github.com/pixil98/go-waypoint/internal/audit"
	"github.com/pixil98/go-waypoint/internal/commands"
	"github.com/pixil98/go-waypoint/internal/driver"
	"github.com/pixil98/go-waypoint/internal/listener"
	"github.com/pixil98/go-waypoint/internal/messaging"
	"github.com/pixil98/go-waypoint/internal/player"
	"github.com/pixil98/go-waypoint/internal/teleport"
)

func BuildWorkers(config interface{}) (service.WorkerList, error) {
	cfg, ok := config.(*Config)
	if !ok {
		return nil, fmt.Errorf("unable to cast config")
	}
	ctx := context.Background()

	settings := teleport.LoadSettings(ctx, cfg.SettingsPath)

	workers := service.WorkerList{}

	// Stores
	accounts, accountsCloser, err := cfg.Storage.Accounts.BuildStore(cfg.Storage.sqlite(), "accounts")
	if err != nil {
		return nil, fmt.Errorf("creating account store: %w", err)
	}
	records, recordsCloser, err := cfg.Storage.Players.BuildStore(cfg.Storage.sqlite(), "players")
	if err != nil {
		return nil, fmt.Errorf("creating player store: %w", err)
	}
	closers := storeClosers{"accounts": accountsCloser, "players": recordsCloser}
	cmdStore, err := cfg.Storage.Commands.BuildFileStore()
	if err != nil {
		return nil, fmt.Errorf("creating command store: %w", err)
	}

	// Messaging
	nats, err := cfg.Nats.buildNatsServer()
	if err != nil {
		return nil, fmt.Errorf("creating nats server: %w", err)
	}
	workers["nats"] = nats
	pub := messaging.NewNatsPublisher(nats)

	// World and teleports
	world := cfg.World.buildWorld(nats)

	svcOpts := []teleport.ServiceOpt{teleport.WithNotifier(pub)}
	if cfg.AuditPath != "" {
		auditLog, err := audit.Open(cfg.AuditPath)
		if err != nil {
			return nil, fmt.Errorf("opening audit log: %w", err)
		}
		workers["audit"] = auditLog
		svcOpts = append(svcOpts, teleport.WithAuditor(auditLog))
	}
	svc := teleport.NewService(settings, teleport.NewStateStore(records, settings), world, svcOpts...)
	world.OnDeath(svc.HandleDeath)

	// Drivers
	sampler := teleport.NewSampler(svc)
	workers["walk-sampler"] = driver.NewDriver(
		[]driver.Ticker{sampler},
		driver.WithTickLength(sampler.Interval()),
		driver.WithFlushers(sampler, closers),
	)
	workers["sessions"] = driver.NewDriver(
		[]driver.Ticker{cfg.Session.buildTicker(world, pub)},
		driver.WithTickLength(cfg.Session.tickInterval()),
	)

	// Commands
	cmdHandler := commands.NewHandler(cmdStore, world)
	if err := cmdHandler.RegisterBuiltins(svc, pub); err != nil {
		return nil, fmt.Errorf("registering command handlers: %w", err)
	}
	if err := cmdHandler.CompileAll(); err != nil {
		return nil, fmt.Errorf("compiling commands: %w", err)
	}

	// Listeners
	cm := listener.NewConnectionManager(player.NewManager(world, accounts, cmdHandler, svc))
	for i, l := range cfg.Listeners {
		lw, err := l.BuildListener(cm)
		if err != nil {
			return nil, fmt.Errorf("creating listener %d: %w", i, err)
		}
		workers[fmt.Sprintf("listener-%d", i)] = &afterReady{ready: nats.Ready(), w: lw}
	}

	return workers, nil
}

// afterReady holds a worker back until ready is closed. Listeners wait on
// the message bus so no session can log in before it can be messaged.
type afterReady struct {
	ready <-chan struct{}
	w     service.Worker
}

func (a *afterReady) Start(ctx context.Context) error {
	select {
	case <-a.ready:
	case <-ctx.Done():
		return nil
	}
	return a.w.Start(ctx)
}

// storeClosers closes database-backed stores. It runs as the walk sampler's
// last flusher so the final credit flush lands first.
type storeClosers map[string]io.Closer

func (sc storeClosers) Flush(ctx context.Context) error {
	el := errors.NewErrorList()
	for name, c := range sc {
		if c == nil {
			continue
		}
		if err := c.Close(); err != nil {
			slog.ErrorContext(ctx, "closing store", "store", name, "error", err)
			el.Add(fmt.Errorf("closing %s store: %w", name, err))
		}
	}
	return el.Err()
}
