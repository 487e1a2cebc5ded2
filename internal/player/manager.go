package player

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/pixil98/go-waypoint/internal/commands"
	"github.com/pixil98/go-waypoint/internal/game"
	"github.com/pixil98/go-waypoint/internal/storage"
	"github.com/pixil98/go-waypoint/internal/teleport"
)

const sessionBuffer = 32

var ErrNoAccount = errors.New("no such account")

// Manager logs players in and runs their sessions.
type Manager struct {
	world      *game.WorldState
	accounts   storage.Storer[*game.Account]
	cmdHandler *commands.Handler
	svc        *teleport.Service

	loginFlow *loginFlow
}

func NewManager(world *game.WorldState, accounts storage.Storer[*game.Account], cmd *commands.Handler, svc *teleport.Service) *Manager {
	return &Manager{
		world:      world,
		accounts:   accounts,
		cmdHandler: cmd,
		svc:        svc,
		loginFlow:  &loginFlow{accounts: accounts},
	}
}

// RunSession logs a player in over conn and plays until they quit, drop or
// are kicked. The player's position and walk credit are saved on the way out.
func (m *Manager) RunSession(ctx context.Context, conn io.ReadWriter) error {
	prompter := NewPrompter(conn)

	acct, err := m.loginFlow.Run(prompter)
	if err != nil {
		return fmt.Errorf("logging in: %w", err)
	}
	return m.play(ctx, prompter, acct)
}

// RunAccountSession plays as the named account without the login prompts.
// The transport must have checked the password already.
func (m *Manager) RunAccountSession(ctx context.Context, conn io.ReadWriter, name string) error {
	acct := m.accounts.Get(game.AccountKey(name))
	if acct == nil {
		return fmt.Errorf("account %q: %w", name, ErrNoAccount)
	}
	return m.play(ctx, NewPrompter(conn), acct)
}

// HasAccount reports whether an account is stored under name.
func (m *Manager) HasAccount(name string) bool {
	return m.accounts.Get(game.AccountKey(name)) != nil
}

// CheckPassword verifies password for the named account.
func (m *Manager) CheckPassword(name, password string) error {
	acct := m.accounts.Get(game.AccountKey(name))
	if acct == nil {
		return ErrNoAccount
	}
	return acct.CheckPassword(password)
}

func (m *Manager) play(ctx context.Context, prompter *Prompter, acct *game.Account) error {
	pos, ok := acct.LastPosition()
	if !ok {
		pos, _ = m.world.SpawnPosition()
	}

	msgs := make(chan []byte, sessionBuffer)
	ps, err := m.world.AddPlayer(acct.UID, acct.Name, pos, msgs)
	if errors.Is(err, game.ErrPlayerExists) {
		return prompter.writef("You are already playing from another connection.\n")
	}
	if err != nil {
		return fmt.Errorf("adding player: %w", err)
	}
	defer m.endSession(ctx, acct)

	if err := ps.Subscribe(game.PlayerSubject(acct.UID)); err != nil {
		return fmt.Errorf("subscribing player: %w", err)
	}

	slog.InfoContext(ctx, "player entered", "name", acct.Name, "uid", acct.UID)

	p := &Player{
		conn:       prompter,
		input:      prompter.Reader(),
		uid:        acct.UID,
		name:       acct.Name,
		world:      m.world,
		cmdHandler: m.cmdHandler,
		balance:    m.svc.Balance,
		msgs:       msgs,
		done:       ps.Done(),
	}
	return p.Play(ctx)
}

func (m *Manager) endSession(ctx context.Context, acct *game.Account) {
	ctx = context.WithoutCancel(ctx)

	pos, err := m.world.Locate(acct.UID)
	if err == nil {
		if err := acct.SetLastPosition(pos); err != nil {
			slog.WarnContext(ctx, "recording last position", "uid", acct.UID, "error", err)
		} else if err := m.accounts.Save(game.AccountKey(acct.Name), acct); err != nil {
			slog.ErrorContext(ctx, "saving account", "uid", acct.UID, "error", err)
		}
	}

	if err := m.world.RemovePlayer(acct.UID); err != nil {
		slog.WarnContext(ctx, "removing player", "uid", acct.UID, "error", err)
	}
	m.svc.States().Flush(ctx)

	slog.InfoContext(ctx, "player left", "name", acct.Name, "uid", acct.UID)
}
