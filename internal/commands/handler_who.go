package commands

import (
	"context"
	"fmt"

	"github.com/pixil98/go-waypoint/internal/display"
	"github.com/pixil98/go-waypoint/internal/game"
	"github.com/pixil98/go-waypoint/internal/teleport"
)

// WhoHandlerFactory creates handlers that list online players.
type WhoHandlerFactory struct {
	world *game.WorldState
	pub   Publisher
}

// NewWhoHandlerFactory creates a new WhoHandlerFactory.
func NewWhoHandlerFactory(world *game.WorldState, pub Publisher) *WhoHandlerFactory {
	return &WhoHandlerFactory{world: world, pub: pub}
}

func (f *WhoHandlerFactory) Spec() *HandlerSpec {
	return nil
}

func (f *WhoHandlerFactory) ValidateConfig(config map[string]any) error {
	return nil
}

func (f *WhoHandlerFactory) Create() (CommandFunc, error) {
	return func(ctx context.Context, cmdCtx *CommandContext) error {
		players := f.world.OnlinePlayers()
		names := make([]string, 0, len(players))
		for _, p := range players {
			names = append(names, p.Name)
		}

		output := fmt.Sprintf("Players Online (%d):\n%s", len(names), display.List(names))
		return reply(f.pub, cmdCtx, output)
	}, nil
}

// WhereHandlerFactory creates handlers that show the player's position and
// walk credit.
type WhereHandlerFactory struct {
	world *game.WorldState
	svc   *teleport.Service
	pub   Publisher
}

func NewWhereHandlerFactory(world *game.WorldState, svc *teleport.Service, pub Publisher) *WhereHandlerFactory {
	return &WhereHandlerFactory{world: world, svc: svc, pub: pub}
}

func (f *WhereHandlerFactory) Spec() *HandlerSpec {
	return nil
}

func (f *WhereHandlerFactory) ValidateConfig(config map[string]any) error {
	return nil
}

func (f *WhereHandlerFactory) Create() (CommandFunc, error) {
	return func(ctx context.Context, cmdCtx *CommandContext) error {
		pos, err := f.world.Locate(cmdCtx.Actor.UID)
		if err != nil {
			return fmt.Errorf("locating player: %w", err)
		}
		return reply(f.pub, cmdCtx, fmt.Sprintf("You are at %s. Walk credit: %d.",
			pos.Rounded(), teleport.BalanceDisplay(f.svc.Balance(cmdCtx.Actor.UID))))
	}, nil
}
