package command

import (
	"fmt"
	"time"

	"github.com/pixil98/go-errors"

	"github.com/pixil98/go-waypoint/internal/game"
	"github.com/pixil98/go-waypoint/internal/teleport"
)

type Config struct {
	SettingsPath string           `json:"settings_path"`
	AuditPath    string           `json:"audit_path"`
	World        WorldConfig      `json:"world"`
	Session      SessionConfig    `json:"session"`
	Listeners    []ListenerConfig `json:"listeners"`
	Storage      StorageConfig    `json:"storage"`
	Nats         NatsConfig       `json:"nats"`
}

func (c *Config) Validate() error {
	el := errors.NewErrorList()

	if c.SettingsPath == "" {
		el.Add(fmt.Errorf("settings_path is required"))
	}

	if len(c.Listeners) == 0 {
		el.Add(fmt.Errorf("at least one listener is required"))
	}
	for i, l := range c.Listeners {
		err := l.validate()
		if err != nil {
			el.Add(fmt.Errorf("listener %d: %w", i, err))
		}
	}

	el.Add(c.Session.validate())
	el.Add(c.Storage.validate())
	el.Add(c.Nats.validate())

	return el.Err()
}

type WorldConfig struct {
	Spawn *teleport.Position `json:"spawn,omitempty"`
}

func (c *WorldConfig) buildWorld(sub game.Subscriber) *game.WorldState {
	var opts []game.WorldOpt
	if c.Spawn != nil {
		opts = append(opts, game.WithSpawn(*c.Spawn))
	}
	return game.NewWorldState(sub, opts...)
}

type SessionConfig struct {
	TickInterval string `json:"tick_interval"`
	IdleTimeout  string `json:"idle_timeout"`
}

func (c *SessionConfig) validate() error {
	el := errors.NewErrorList()

	if c.TickInterval != "" {
		d, err := time.ParseDuration(c.TickInterval)
		if err != nil {
			el.Add(fmt.Errorf("parsing tick_interval: %w", err))
		} else if d < time.Second {
			el.Add(fmt.Errorf("tick_interval must be at least 1 second"))
		}
	}

	if c.IdleTimeout != "" {
		d, err := time.ParseDuration(c.IdleTimeout)
		if err != nil {
			el.Add(fmt.Errorf("parsing idle_timeout: %w", err))
		} else if d <= 0 {
			el.Add(fmt.Errorf("idle_timeout must be positive"))
		}
	}

	return el.Err()
}

// tickInterval is how often idle sessions are checked. Validate has already
// vetted the string.
func (c *SessionConfig) tickInterval() time.Duration {
	d, err := time.ParseDuration(c.TickInterval)
	if err != nil {
		return 5 * time.Second
	}
	return d
}

func (c *SessionConfig) buildTicker(world *game.WorldState, pub game.Publisher) *game.SessionTicker {
	var opts []game.SessionTickerOpt
	if d, err := time.ParseDuration(c.IdleTimeout); err == nil {
		opts = append(opts, game.WithIdleTimeout(d))
	}
	return game.NewSessionTicker(world, pub, opts...)
}
