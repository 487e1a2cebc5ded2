package command

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pixil98/go-errors"

	"github.com/pixil98/go-waypoint/internal/commands"
	"github.com/pixil98/go-waypoint/internal/game"
	"github.com/pixil98/go-waypoint/internal/storage"
	"github.com/pixil98/go-waypoint/internal/teleport"
)

const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

type StorageConfig struct {
	// Backend holds accounts and player records: "file" (the default) keeps
	// a directory of JSON files each, "sqlite" a database file each.
	Backend  string                              `json:"backend"`
	Accounts AssetConfig[*game.Account]          `json:"accounts"`
	Players  AssetConfig[*teleport.PlayerRecord] `json:"players"`
	Commands AssetConfig[*commands.Command]      `json:"commands"`
}

func (c *StorageConfig) validate() error {
	el := errors.NewErrorList()

	switch c.Backend {
	case "", BackendFile, BackendSQLite:
	default:
		el.Add(fmt.Errorf("storage backend %q must be %q or %q", c.Backend, BackendFile, BackendSQLite))
	}

	el.Add(c.Accounts.Validate("accounts", false))
	el.Add(c.Players.Validate("players", false))
	el.Add(c.Commands.Validate("commands", true))
	return el.Err()
}

func (c *StorageConfig) sqlite() bool {
	return c.Backend == BackendSQLite
}

type AssetConfig[T storage.ValidatingSpec] struct {
	Path string `json:"path"`
}

// Validate checks the path is set, and when mustExist that it is there.
func (c *AssetConfig[T]) Validate(name string, mustExist bool) error {
	if c.Path == "" {
		return fmt.Errorf("%s: path is required", name)
	}
	if !mustExist {
		return nil
	}
	_, err := os.Stat(c.Path)
	if err != nil {
		return fmt.Errorf("%s: invalid path %q: %w", name, c.Path, err)
	}

	return nil
}

func (c *AssetConfig[T]) BuildFileStore() (*storage.FileStore[T], error) {
	return storage.NewFileStore[T](c.Path)
}

// BuildStore opens the store on the configured backend. The returned closer
// is nil for file stores.
func (c *AssetConfig[T]) BuildStore(sqlite bool, table string) (storage.Storer[T], io.Closer, error) {
	if !sqlite {
		s, err := c.BuildFileStore()
		return s, nil, err
	}

	if err := os.MkdirAll(filepath.Dir(c.Path), 0755); err != nil {
		return nil, nil, fmt.Errorf("creating directory for %q: %w", c.Path, err)
	}
	s, err := storage.NewSQLiteStore[T](c.Path, table)
	if err != nil {
		return nil, nil, err
	}
	return s, s, nil
}
