package teleport

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pixil98/go-errors"
	"gopkg.in/yaml.v3"
)

const (
	SettingsVersion = 1

	MinSampleInterval = 200 * time.Millisecond
	MaxSampleInterval = 60 * time.Second

	defaultPeerTimeoutSeconds = 60
	legacySingleMode          = "single"
)

// Category is a kind of saved location a player can keep a set of.
type Category string

const (
	CategoryHome     Category = "home"
	CategoryFarm     Category = "farm"
	CategoryIndustry Category = "industry"
)

// Categories lists every location category in display order.
func Categories() []Category {
	return []Category{CategoryHome, CategoryFarm, CategoryIndustry}
}

func (c Category) Valid() bool {
	switch c {
	case CategoryHome, CategoryFarm, CategoryIndustry:
		return true
	}
	return false
}

func (c Category) Plural() string {
	if c == CategoryIndustry {
		return "industries"
	}
	return string(c) + "s"
}

// ActionSettings holds the tunables shared by every teleport action.
type ActionSettings struct {
	Enabled         bool    `json:"enabled" yaml:"enabled"`
	CooldownSeconds int     `json:"cooldown_seconds" yaml:"cooldown_seconds"`
	Free            bool    `json:"free" yaml:"free"`
	Multiplier      float64 `json:"multiplier" yaml:"multiplier"`
}

func (a ActionSettings) Cooldown() time.Duration {
	return time.Duration(a.CooldownSeconds) * time.Second
}

func (a ActionSettings) Cost() ActionCost {
	return ActionCost{Free: a.Free, Multiplier: a.Multiplier}
}

// CategorySettings adds the location-set rules to ActionSettings. The entry
// named "default" is billed with DefaultFree and DefaultMultiplier.
type CategorySettings struct {
	ActionSettings    `yaml:",inline"`
	DefaultFree       bool    `json:"default_free" yaml:"default_free"`
	DefaultMultiplier float64 `json:"default_multiplier" yaml:"default_multiplier"`
	SingleMode        bool    `json:"single_mode" yaml:"single_mode"`
	MaxCount          int     `json:"max_count" yaml:"max_count"`
}

// CostFor returns the pricing for travelling to the named entry.
func (c CategorySettings) CostFor(name string) ActionCost {
	if name == DefaultLocation {
		return ActionCost{Free: c.DefaultFree, Multiplier: c.DefaultMultiplier}
	}
	return c.Cost()
}

// EffectiveMax is the number of entries a player may hold, 0 meaning no limit.
func (c CategorySettings) EffectiveMax() int {
	limit := max(0, c.MaxCount)
	if c.SingleMode {
		return min(1, limit)
	}
	return limit
}

type CategoryTable struct {
	Home     CategorySettings `json:"home" yaml:"home"`
	Farm     CategorySettings `json:"farm" yaml:"farm"`
	Industry CategorySettings `json:"industry" yaml:"industry"`
}

// Get returns the settings for c; unknown categories fall back to home.
func (t *CategoryTable) Get(c Category) *CategorySettings {
	switch c {
	case CategoryFarm:
		return &t.Farm
	case CategoryIndustry:
		return &t.Industry
	default:
		return &t.Home
	}
}

// Settings are the gameplay tunables. They are resolved once at load and
// treated as read-only afterwards.
type Settings struct {
	Version int `json:"version" yaml:"version"`

	CostEnabled      bool    `json:"cost_enabled" yaml:"cost_enabled"`
	GlobalMultiplier float64 `json:"global_multiplier" yaml:"global_multiplier"`
	MaxWalkCredit    float64 `json:"max_walk_credit" yaml:"max_walk_credit"`

	ResetWalkOnDeath     bool    `json:"reset_walk_on_death" yaml:"reset_walk_on_death"`
	DeathWalkLossPercent float64 `json:"death_walk_loss_percent" yaml:"death_walk_loss_percent"`
	SuppressRespawnTick  bool    `json:"suppress_respawn_tick" yaml:"suppress_respawn_tick"`

	WalkSampleIntervalMs int `json:"walk_sample_interval_ms" yaml:"walk_sample_interval_ms"`
	WalkSaveIntervalMs   int `json:"walk_save_interval_ms" yaml:"walk_save_interval_ms"`

	Categories CategoryTable  `json:"categories" yaml:"categories"`
	Spawn      ActionSettings `json:"spawn" yaml:"spawn"`
	Back       ActionSettings `json:"back" yaml:"back"`
	Peer       ActionSettings `json:"peer" yaml:"peer"`

	PeerRequestTimeoutSeconds int `json:"peer_request_timeout_seconds" yaml:"peer_request_timeout_seconds"`
	PeerRequestsPerMinute     int `json:"peer_requests_per_minute" yaml:"peer_requests_per_minute"`

	// TeleportMode is the pre-versioned way of turning on single homes.
	// It is folded into Categories.Home.SingleMode at load and never written.
	TeleportMode string `json:"teleport_mode,omitempty" yaml:"teleport_mode,omitempty"`
}

func defaultCategory() CategorySettings {
	return CategorySettings{
		ActionSettings: ActionSettings{
			Enabled:         true,
			CooldownSeconds: 300,
			Multiplier:      1,
		},
		DefaultMultiplier: 1,
	}
}

// DefaultSettings returns the built-in tunables.
func DefaultSettings() *Settings {
	return &Settings{
		Version:              SettingsVersion,
		GlobalMultiplier:     1,
		ResetWalkOnDeath:     true,
		SuppressRespawnTick:  true,
		WalkSampleIntervalMs: 1000,
		WalkSaveIntervalMs:   30000,
		Categories: CategoryTable{
			Home:     defaultCategory(),
			Farm:     defaultCategory(),
			Industry: defaultCategory(),
		},
		Spawn: ActionSettings{Enabled: true, CooldownSeconds: 300, Multiplier: 1},
		Back:  ActionSettings{Enabled: true, CooldownSeconds: 300, Free: true, Multiplier: 1},
		Peer:  ActionSettings{Enabled: true, Multiplier: 1},

		PeerRequestTimeoutSeconds: defaultPeerTimeoutSeconds,
	}
}

func (s *Settings) SampleInterval() time.Duration {
	d := time.Duration(s.WalkSampleIntervalMs) * time.Millisecond
	return min(max(d, MinSampleInterval), MaxSampleInterval)
}

// SaveInterval is how much sampled time may pass between flushes of accrued
// credit. Zero means every tick.
func (s *Settings) SaveInterval() time.Duration {
	if s.WalkSaveIntervalMs <= 0 {
		return 0
	}
	return time.Duration(s.WalkSaveIntervalMs) * time.Millisecond
}

func (s *Settings) PeerTimeout() time.Duration {
	return time.Duration(s.PeerRequestTimeoutSeconds) * time.Second
}

// Validate reports values that normalize would have to repair.
func (s *Settings) Validate() error {
	el := errors.NewErrorList()

	if s.GlobalMultiplier < 0 {
		el.Add(fmt.Errorf("global_multiplier must not be negative"))
	}
	if s.DeathWalkLossPercent < 0 || s.DeathWalkLossPercent > 100 {
		el.Add(fmt.Errorf("death_walk_loss_percent must be between 0 and 100"))
	}
	if s.PeerRequestTimeoutSeconds <= 0 {
		el.Add(fmt.Errorf("peer_request_timeout_seconds must be positive"))
	}
	if s.PeerRequestsPerMinute < 0 {
		el.Add(fmt.Errorf("peer_requests_per_minute must not be negative"))
	}
	for _, c := range Categories() {
		cs := s.Categories.Get(c)
		if cs.Multiplier < 0 || cs.DefaultMultiplier < 0 {
			el.Add(fmt.Errorf("%s: multipliers must not be negative", c))
		}
		if cs.CooldownSeconds < 0 {
			el.Add(fmt.Errorf("%s: cooldown_seconds must not be negative", c))
		}
		if cs.MaxCount < 0 {
			el.Add(fmt.Errorf("%s: max_count must not be negative", c))
		}
	}
	for name, a := range map[string]ActionSettings{"spawn": s.Spawn, "back": s.Back, "peer": s.Peer} {
		if a.Multiplier < 0 {
			el.Add(fmt.Errorf("%s: multiplier must not be negative", name))
		}
		if a.CooldownSeconds < 0 {
			el.Add(fmt.Errorf("%s: cooldown_seconds must not be negative", name))
		}
	}

	return el.Err()
}

// normalize migrates legacy fields and repairs out-of-range values. It
// reports whether anything changed so the caller can rewrite the file.
func (s *Settings) normalize() bool {
	changed := false

	if s.Version < SettingsVersion {
		s.Version = SettingsVersion
		changed = true
	}
	if s.TeleportMode != "" {
		if strings.EqualFold(s.TeleportMode, legacySingleMode) {
			s.Categories.Home.SingleMode = true
		}
		s.TeleportMode = ""
		changed = true
	}

	fix := func(v *float64, lo, hi float64) {
		if *v < lo {
			*v = lo
			changed = true
		} else if hi > lo && *v > hi {
			*v = hi
			changed = true
		}
	}
	fixInt := func(v *int, lo int) {
		if *v < lo {
			*v = lo
			changed = true
		}
	}

	fix(&s.GlobalMultiplier, 0, 0)
	fix(&s.DeathWalkLossPercent, 0, 100)
	fixInt(&s.PeerRequestsPerMinute, 0)
	if s.PeerRequestTimeoutSeconds <= 0 {
		s.PeerRequestTimeoutSeconds = defaultPeerTimeoutSeconds
		changed = true
	}

	for _, a := range []*ActionSettings{&s.Spawn, &s.Back, &s.Peer} {
		fix(&a.Multiplier, 0, 0)
		fixInt(&a.CooldownSeconds, 0)
	}
	for _, c := range Categories() {
		cs := s.Categories.Get(c)
		fix(&cs.Multiplier, 0, 0)
		fix(&cs.DefaultMultiplier, 0, 0)
		fixInt(&cs.CooldownSeconds, 0)
		fixInt(&cs.MaxCount, 0)
	}

	return changed
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

func decodeSettings(path string, data []byte) (*Settings, error) {
	s := DefaultSettings()
	// Decoding over the defaults leaves every missing field at its default.
	s.Version = 0

	var err error
	if isYAML(path) {
		err = yaml.Unmarshal(data, s)
	} else {
		err = json.Unmarshal(data, s)
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

// LoadSettings reads the settings file at path. A missing or unreadable file
// yields the defaults, which are written back so the operator has a file to
// edit. Write failures are logged and otherwise ignored.
func LoadSettings(ctx context.Context, path string) *Settings {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.WarnContext(ctx, "reading teleport settings, using defaults", "path", path, "error", err)
		}
		s := DefaultSettings()
		writeSettings(ctx, path, s)
		return s
	}

	s, err := decodeSettings(path, data)
	if err != nil {
		slog.WarnContext(ctx, "parsing teleport settings, using defaults", "path", path, "error", err)
		s = DefaultSettings()
		writeSettings(ctx, path, s)
		return s
	}

	if err := s.Validate(); err != nil {
		slog.WarnContext(ctx, "repairing teleport settings", "path", path, "error", err)
	}
	if s.normalize() {
		slog.InfoContext(ctx, "teleport settings migrated", "path", path, "version", s.Version)
		writeSettings(ctx, path, s)
	}

	return s
}

func writeSettings(ctx context.Context, path string, s *Settings) {
	if err := SaveSettings(path, s); err != nil {
		slog.WarnContext(ctx, "writing teleport settings", "path", path, "error", err)
	}
}

// SaveSettings writes s to path as YAML or indented JSON depending on the
// file extension.
func SaveSettings(path string, s *Settings) error {
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(s)
	} else {
		data, err = json.MarshalIndent(s, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating settings directory: %w", err)
		}
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing settings: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replacing settings: %w", err)
	}
	return nil
}
