package commands

import (
	"context"
	"fmt"

	"github.com/pixil98/go-waypoint/internal/teleport"
)

// SpawnHandlerFactory creates handlers that teleport the player to the world
// spawn.
type SpawnHandlerFactory struct {
	svc *teleport.Service
	pub Publisher
}

func NewSpawnHandlerFactory(svc *teleport.Service, pub Publisher) *SpawnHandlerFactory {
	return &SpawnHandlerFactory{svc: svc, pub: pub}
}

func (f *SpawnHandlerFactory) Spec() *HandlerSpec {
	return nil
}

func (f *SpawnHandlerFactory) ValidateConfig(config map[string]any) error {
	return nil
}

func (f *SpawnHandlerFactory) Create() (CommandFunc, error) {
	return func(ctx context.Context, cmdCtx *CommandContext) error {
		msg, err := f.svc.GotoSpawn(ctx, cmdCtx.Actor.UID)
		if err != nil {
			return err
		}
		return reply(f.pub, cmdCtx, msg)
	}, nil
}

// BackHandlerFactory creates handlers that return the player to where they
// were before their last teleport.
type BackHandlerFactory struct {
	svc *teleport.Service
	pub Publisher
}

func NewBackHandlerFactory(svc *teleport.Service, pub Publisher) *BackHandlerFactory {
	return &BackHandlerFactory{svc: svc, pub: pub}
}

func (f *BackHandlerFactory) Spec() *HandlerSpec {
	return nil
}

func (f *BackHandlerFactory) ValidateConfig(config map[string]any) error {
	return nil
}

func (f *BackHandlerFactory) Create() (CommandFunc, error) {
	return func(ctx context.Context, cmdCtx *CommandContext) error {
		msg, err := f.svc.GotoBack(ctx, cmdCtx.Actor.UID)
		if err != nil {
			return err
		}
		return reply(f.pub, cmdCtx, msg)
	}, nil
}

// WalkCreditHandlerFactory creates handlers that show the cost tunables and
// the player's balance.
type WalkCreditHandlerFactory struct {
	svc *teleport.Service
	pub Publisher
}

func NewWalkCreditHandlerFactory(svc *teleport.Service, pub Publisher) *WalkCreditHandlerFactory {
	return &WalkCreditHandlerFactory{svc: svc, pub: pub}
}

func (f *WalkCreditHandlerFactory) Spec() *HandlerSpec {
	return nil
}

func (f *WalkCreditHandlerFactory) ValidateConfig(config map[string]any) error {
	return nil
}

func (f *WalkCreditHandlerFactory) Create() (CommandFunc, error) {
	return func(ctx context.Context, cmdCtx *CommandContext) error {
		msg, err := f.svc.WalkCreditStatus(cmdCtx.Actor.UID)
		if err != nil {
			return err
		}
		return reply(f.pub, cmdCtx, msg)
	}, nil
}

// PeerOp is one step of the player-to-player teleport handshake.
type PeerOp string

const (
	PeerRequest PeerOp = "request"
	PeerAccept  PeerOp = "accept"
	PeerDeny    PeerOp = "deny"
	PeerCost    PeerOp = "cost"
)

func PeerOps() []PeerOp {
	return []PeerOp{PeerRequest, PeerAccept, PeerDeny, PeerCost}
}

func (op PeerOp) HandlerName() string {
	return "peer_" + string(op)
}

// PeerHandlerFactory creates handlers for the tp2p family of commands.
// Config:
//   - player: the other player's name, usually "{{ .Inputs.player }}".
//     Optional for cost, where an empty name lists everyone online.
type PeerHandlerFactory struct {
	svc *teleport.Service
	pub Publisher
	op  PeerOp
}

func NewPeerHandlerFactory(svc *teleport.Service, pub Publisher, op PeerOp) *PeerHandlerFactory {
	return &PeerHandlerFactory{svc: svc, pub: pub, op: op}
}

func (f *PeerHandlerFactory) Spec() *HandlerSpec {
	return &HandlerSpec{
		Config: []ConfigRequirement{
			{Name: "player", Required: f.op != PeerCost},
		},
	}
}

func (f *PeerHandlerFactory) ValidateConfig(config map[string]any) error {
	switch f.op {
	case PeerRequest, PeerAccept, PeerDeny, PeerCost:
		return nil
	}
	return fmt.Errorf("unknown peer operation %q", f.op)
}

func (f *PeerHandlerFactory) Create() (CommandFunc, error) {
	return func(ctx context.Context, cmdCtx *CommandContext) error {
		uid := cmdCtx.Actor.UID
		name := cmdCtx.Config["player"]

		var msg string
		var err error
		switch f.op {
		case PeerRequest:
			msg, err = f.svc.RequestPeer(ctx, uid, name)
		case PeerAccept:
			msg, err = f.svc.AcceptPeer(ctx, uid, name)
		case PeerDeny:
			msg, err = f.svc.DenyPeer(ctx, uid, name)
		case PeerCost:
			msg, err = f.svc.PeerCost(uid, name)
		}
		if err != nil {
			return err
		}
		return reply(f.pub, cmdCtx, msg)
	}, nil
}
