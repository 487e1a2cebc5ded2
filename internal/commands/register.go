package commands

import (
	"github.com/pixil98/go-errors"

	"github.com/pixil98/go-waypoint/internal/game"
	"github.com/pixil98/go-waypoint/internal/teleport"
)

// RegisterBuiltins registers every handler factory the command assets can
// name.
func (h *Handler) RegisterBuiltins(svc *teleport.Service, pub Publisher) error {
	el := errors.NewErrorList()

	for _, op := range LocationOps() {
		el.Add(h.RegisterFactory(op.HandlerName(), NewLocationHandlerFactory(svc, pub, op)))
	}
	for _, op := range PeerOps() {
		el.Add(h.RegisterFactory(op.HandlerName(), NewPeerHandlerFactory(svc, pub, op)))
	}
	el.Add(h.RegisterFactory("spawn", NewSpawnHandlerFactory(svc, pub)))
	el.Add(h.RegisterFactory("back", NewBackHandlerFactory(svc, pub)))
	el.Add(h.RegisterFactory("walkcredit", NewWalkCreditHandlerFactory(svc, pub)))

	el.Add(h.registerHost(h.world, svc, pub))

	return el.Err()
}

func (h *Handler) registerHost(world *game.WorldState, svc *teleport.Service, pub Publisher) error {
	el := errors.NewErrorList()

	el.Add(h.RegisterFactory("walk", NewWalkHandlerFactory(world, pub)))
	el.Add(h.RegisterFactory("where", NewWhereHandlerFactory(world, svc, pub)))
	el.Add(h.RegisterFactory("who", NewWhoHandlerFactory(world, pub)))
	el.Add(h.RegisterFactory("die", NewDieHandlerFactory(world, pub)))
	el.Add(h.RegisterFactory("help", NewHelpHandlerFactory(h.store, svc.Settings(), pub)))
	el.Add(h.RegisterFactory("quit", NewQuitHandlerFactory(world)))

	return el.Err()
}
