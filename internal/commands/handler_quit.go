package commands

import (
	"context"
	"fmt"

	"github.com/pixil98/go-waypoint/internal/game"
)

// QuitHandlerFactory creates handlers that end the player's session. The
// session saves the player on the way out.
type QuitHandlerFactory struct {
	world *game.WorldState
}

func NewQuitHandlerFactory(world *game.WorldState) *QuitHandlerFactory {
	return &QuitHandlerFactory{world: world}
}

func (f *QuitHandlerFactory) Spec() *HandlerSpec {
	return nil
}

func (f *QuitHandlerFactory) ValidateConfig(config map[string]any) error {
	return nil
}

func (f *QuitHandlerFactory) Create() (CommandFunc, error) {
	return func(ctx context.Context, cmdCtx *CommandContext) error {
		if err := f.world.SetPlayerQuit(cmdCtx.Actor.UID, true); err != nil {
			return fmt.Errorf("quitting: %w", err)
		}
		return nil
	}, nil
}
