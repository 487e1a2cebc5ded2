package listener

import (
	"context"
	"io"
	"log/slog"
)

// SessionRunner runs one player session over an accepted connection.
type SessionRunner interface {
	RunSession(ctx context.Context, conn io.ReadWriter) error
}

// AccountRunner is a SessionRunner that can also verify credentials a
// transport collected itself and run a session without the login prompts.
type AccountRunner interface {
	SessionRunner
	HasAccount(name string) bool
	CheckPassword(name, password string) error
	RunAccountSession(ctx context.Context, conn io.ReadWriter, name string) error
}

type ConnectionManager struct {
	pm SessionRunner
}

func NewConnectionManager(pm SessionRunner) *ConnectionManager {
	return &ConnectionManager{
		pm: pm,
	}
}

// Accounts returns the runner's account side, if it has one.
func (m *ConnectionManager) Accounts() (AccountRunner, bool) {
	ar, ok := m.pm.(AccountRunner)
	return ar, ok
}

func (m *ConnectionManager) AcceptConnection(ctx context.Context, conn io.ReadWriter) {
	if err := m.pm.RunSession(ctx, conn); err != nil {
		slog.WarnContext(ctx, "player session", "error", err)
	}
}

// AcceptAccount runs a session for an account the transport already
// authenticated. Without an account side it falls back to the login prompts.
func (m *ConnectionManager) AcceptAccount(ctx context.Context, conn io.ReadWriter, name string) {
	ar, ok := m.Accounts()
	if !ok {
		m.AcceptConnection(ctx, conn)
		return
	}
	if err := ar.RunAccountSession(ctx, conn, name); err != nil {
		slog.WarnContext(ctx, "player session", "name", name, "error", err)
	}
}
