package commands

import (
	"context"
	"fmt"

	"github.com/pixil98/go-waypoint/internal/teleport"
)

// LocationOp is one of the saved-location operations.
type LocationOp string

const (
	LocationGoto      LocationOp = "goto"
	LocationSet       LocationOp = "set"
	LocationDelete    LocationOp = "delete"
	LocationRename    LocationOp = "rename"
	LocationDeleteAll LocationOp = "delete_all"
	LocationList      LocationOp = "list"
	LocationInfo      LocationOp = "info"
	LocationCosts     LocationOp = "costs"
)

// LocationOps lists every operation, in registration order.
func LocationOps() []LocationOp {
	return []LocationOp{
		LocationGoto, LocationSet, LocationDelete, LocationRename,
		LocationDeleteAll, LocationList, LocationInfo, LocationCosts,
	}
}

// HandlerName is the name the operation is registered under.
func (op LocationOp) HandlerName() string {
	return "location_" + string(op)
}

// LocationHandlerFactory creates handlers that work on one category of a
// player's saved locations.
// Config:
//   - category (required): home, farm or industry
//   - name (optional): the location, usually "{{ .Inputs.name }}"
//   - from, to (required for rename)
type LocationHandlerFactory struct {
	svc *teleport.Service
	pub Publisher
	op  LocationOp
}

func NewLocationHandlerFactory(svc *teleport.Service, pub Publisher, op LocationOp) *LocationHandlerFactory {
	return &LocationHandlerFactory{svc: svc, pub: pub, op: op}
}

func (f *LocationHandlerFactory) Spec() *HandlerSpec {
	spec := &HandlerSpec{
		Config: []ConfigRequirement{
			{Name: "category", Required: true},
		},
	}
	switch f.op {
	case LocationRename:
		spec.Config = append(spec.Config,
			ConfigRequirement{Name: "from", Required: true},
			ConfigRequirement{Name: "to", Required: true},
		)
	case LocationGoto, LocationSet, LocationDelete:
		spec.Config = append(spec.Config, ConfigRequirement{Name: "name", Required: false})
	}
	return spec
}

func (f *LocationHandlerFactory) ValidateConfig(config map[string]any) error {
	category, _ := config["category"].(string)
	if !teleport.Category(category).Valid() {
		return fmt.Errorf("unknown category %q", category)
	}
	return nil
}

func (f *LocationHandlerFactory) Create() (CommandFunc, error) {
	return func(ctx context.Context, cmdCtx *CommandContext) error {
		msg, err := f.run(ctx, cmdCtx)
		if err != nil {
			return err
		}
		return reply(f.pub, cmdCtx, msg)
	}, nil
}

func (f *LocationHandlerFactory) run(ctx context.Context, cmdCtx *CommandContext) (string, error) {
	uid := cmdCtx.Actor.UID
	c := teleport.Category(cmdCtx.Config["category"])
	name := cmdCtx.Config["name"]

	switch f.op {
	case LocationGoto:
		return f.svc.GotoLocation(ctx, uid, c, name)
	case LocationSet:
		return f.svc.SetLocation(ctx, uid, c, name)
	case LocationDelete:
		return f.svc.DeleteLocation(ctx, uid, c, name)
	case LocationRename:
		return f.svc.RenameLocation(ctx, uid, c, cmdCtx.Config["from"], cmdCtx.Config["to"])
	case LocationDeleteAll:
		return f.svc.DeleteAllLocations(ctx, uid, c)
	case LocationList:
		return f.svc.ListLocations(uid, c)
	case LocationInfo:
		return f.svc.LocationInfo(uid, c)
	case LocationCosts:
		return f.svc.ListLocationCosts(uid, c)
	default:
		return "", fmt.Errorf("unknown location operation %q", f.op)
	}
}
