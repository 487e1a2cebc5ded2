package commands

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/pixil98/go-waypoint/internal/game"
	"github.com/pixil98/go-waypoint/internal/teleport"
)

const maxWalkDistance = 1000

var directions = map[string]struct {
	name  string
	delta teleport.Position
}{
	"n": {"north", teleport.Position{Z: -1}},
	"s": {"south", teleport.Position{Z: 1}},
	"e": {"east", teleport.Position{X: 1}},
	"w": {"west", teleport.Position{X: -1}},
	"u": {"up", teleport.Position{Y: 1}},
	"d": {"down", teleport.Position{Y: -1}},
}

func lookupDirection(s string) (string, teleport.Position, bool) {
	s = strings.ToLower(s)
	if s == "" {
		return "", teleport.Position{}, false
	}
	d, ok := directions[s[:1]]
	if !ok || !strings.HasPrefix(d.name, s) {
		return "", teleport.Position{}, false
	}
	return d.name, d.delta, true
}

// WalkHandlerFactory creates handlers that move the player on foot. Walking
// is what earns walk credit.
// Config:
//   - direction (required): north, south, east, west, up, down or a prefix
//   - distance (optional): blocks to walk, 1 when empty or zero
type WalkHandlerFactory struct {
	world *game.WorldState
	pub   Publisher
}

func NewWalkHandlerFactory(world *game.WorldState, pub Publisher) *WalkHandlerFactory {
	return &WalkHandlerFactory{world: world, pub: pub}
}

func (f *WalkHandlerFactory) Spec() *HandlerSpec {
	return &HandlerSpec{
		Config: []ConfigRequirement{
			{Name: "direction", Required: true},
			{Name: "distance", Required: false},
		},
	}
}

func (f *WalkHandlerFactory) ValidateConfig(config map[string]any) error {
	return nil
}

func (f *WalkHandlerFactory) Create() (CommandFunc, error) {
	return func(ctx context.Context, cmdCtx *CommandContext) error {
		name, delta, ok := lookupDirection(cmdCtx.Config["direction"])
		if !ok {
			return NewUserError(fmt.Sprintf("%q is not a direction.", cmdCtx.Config["direction"]))
		}

		n := 1
		if raw := cmdCtx.Config["distance"]; raw != "" && raw != "0" {
			var err error
			n, err = strconv.Atoi(raw)
			if err != nil || n < 1 || n > maxWalkDistance {
				return NewUserError(fmt.Sprintf("You can walk between 1 and %d blocks at a time.", maxWalkDistance))
			}
		}

		step := teleport.Position{X: delta.X * float64(n), Y: delta.Y * float64(n), Z: delta.Z * float64(n)}
		pos, err := f.world.Move(cmdCtx.Actor.UID, step)
		if err != nil {
			return fmt.Errorf("walking: %w", err)
		}

		unit := "blocks"
		if n == 1 {
			unit = "block"
		}
		return reply(f.pub, cmdCtx, fmt.Sprintf("You walk %d %s %s to %s.", n, unit, name, pos.Rounded()))
	}, nil
}
