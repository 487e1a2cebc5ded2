package commands

import (
	"context"
	"fmt"

	"github.com/pixil98/go-waypoint/internal/game"
)

// DieHandlerFactory creates handlers that kill the player, firing the same
// death event the world raises for any other death.
type DieHandlerFactory struct {
	world *game.WorldState
	pub   Publisher
}

func NewDieHandlerFactory(world *game.WorldState, pub Publisher) *DieHandlerFactory {
	return &DieHandlerFactory{world: world, pub: pub}
}

func (f *DieHandlerFactory) Spec() *HandlerSpec {
	return nil
}

func (f *DieHandlerFactory) ValidateConfig(config map[string]any) error {
	return nil
}

func (f *DieHandlerFactory) Create() (CommandFunc, error) {
	return func(ctx context.Context, cmdCtx *CommandContext) error {
		if err := f.world.Kill(ctx, cmdCtx.Actor.UID); err != nil {
			return fmt.Errorf("killing player: %w", err)
		}

		msg := "You died."
		if _, ok := f.world.SpawnPosition(); ok {
			pos, err := f.world.Locate(cmdCtx.Actor.UID)
			if err == nil {
				msg = fmt.Sprintf("You died and respawned at %s.", pos.Rounded())
			}
		}
		return reply(f.pub, cmdCtx, msg)
	}, nil
}
