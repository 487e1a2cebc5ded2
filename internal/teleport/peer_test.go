package teleport

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/pixil98/go-testutil"
)

func TestService_ResolvePlayer(t *testing.T) {
	tests := map[string]struct {
		query   string
		expUID  string
		expKind ErrorKind
	}{
		"exact":              {query: "Bob", expUID: bob},
		"case insensitive":   {query: "bOB", expUID: bob},
		"exact beats prefix": {query: "bob", expUID: bob},
		"unique prefix":      {query: "car", expUID: carol},
		"ambiguous prefix":   {query: "bo", expKind: KindAmbiguous},
		"no match":           {query: "dave", expKind: KindNotFound},
		"empty":              {query: "  ", expKind: KindInvalidArgument},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			env := newTestEnv(t, nil)
			env.world.add(bob, "Bob", Position{})
			env.world.add("bobby-uid", "Bobby", Position{})
			env.world.add(carol, "Carol", Position{})

			p, err := env.svc.ResolvePlayer(tt.query)
			if tt.expKind != 0 {
				assertKind(t, err, tt.expKind)
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			testutil.AssertEqual(t, "uid", p.UID, tt.expUID)
		})
	}
}

func TestService_ResolvePlayerAmbiguousMessage(t *testing.T) {
	env := newTestEnv(t, nil)
	env.world.add(bob, "Bobby", Position{})
	env.world.add(carol, "Bob2", Position{})

	_, err := env.svc.ResolvePlayer("bo")
	assertKind(t, err, KindAmbiguous)
	testutil.AssertEqual(t, "message", err.Error(), "'bo' matches several players: Bob2, Bobby.")
}

// peerEnv puts Alice at the origin with 100 credit and Bob 40 blocks away
// with 50.
func peerEnv(t *testing.T, configure func(s *Settings)) *testEnv {
	t.Helper()
	env := newTestEnv(t, configure)
	env.world.add(bob, "Bob", Position{X: 40})
	env.setCredit(alice, 100)
	env.setCredit(bob, 50)
	return env
}

func TestService_PeerAccept(t *testing.T) {
	env := peerEnv(t, nil)
	ctx := context.Background()

	msg, err := env.svc.RequestPeer(ctx, alice, "bo")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	testutil.AssertEqual(t, "request message", msg, "Teleport request sent to Bob.")
	testutil.AssertEqual(t, "target told", env.notifier.received(bob, "Type 'tpaccept Alice' or 'tpdeny Alice' within 1 min 0 sec."), true)

	msg, err = env.svc.AcceptPeer(ctx, bob, "alice")
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	testutil.AssertEqual(t, "accept message", msg, "Alice teleported to you.")

	testutil.AssertEqual(t, "requester moved", env.world.teleported[alice], Position{X: 40})
	_, bobMoved := env.world.teleported[bob]
	testutil.AssertEqual(t, "target stays", bobMoved, false)
	testutil.AssertEqual(t, "requester charged", env.svc.Balance(alice), 60.0)
	testutil.AssertEqual(t, "target untouched", env.svc.Balance(bob), 50.0)
	testutil.AssertEqual(t, "requester told", env.notifier.received(alice, "Teleported to Bob (40 blocks, cost 40, walk credit left 60)."), true)

	prev := env.svc.states.Get(alice).Record().Previous
	if prev == nil {
		t.Fatal("expected a previous position for the requester")
	}
	testutil.AssertEqual(t, "previous", *prev, Position{})

	// The request was used up.
	_, err = env.svc.AcceptPeer(ctx, bob, "alice")
	assertKind(t, err, KindNotFound)
}

func TestService_PeerAcceptUsesLivePosition(t *testing.T) {
	env := peerEnv(t, nil)
	ctx := context.Background()

	if _, err := env.svc.RequestPeer(ctx, alice, "Bob"); err != nil {
		t.Fatalf("request: %v", err)
	}
	env.world.move(bob, Position{X: 30, Z: 40})

	if _, err := env.svc.AcceptPeer(ctx, bob, "Alice"); err != nil {
		t.Fatalf("accept: %v", err)
	}
	testutil.AssertEqual(t, "destination", env.world.teleported[alice], Position{X: 30, Z: 40})
	testutil.AssertEqual(t, "charged", env.svc.Balance(alice), 50.0)
}

func TestService_PeerAcceptInsufficientCredit(t *testing.T) {
	env := peerEnv(t, nil)
	env.setCredit(alice, 39)
	ctx := context.Background()

	if _, err := env.svc.RequestPeer(ctx, alice, "Bob"); err != nil {
		t.Fatalf("request: %v", err)
	}

	_, err := env.svc.AcceptPeer(ctx, bob, "Alice")
	assertKind(t, err, KindInsufficientCredit)
	testutil.AssertEqual(t, "message", err.Error(), "Alice does not have enough walk credit to reach you.")
	testutil.AssertEqual(t, "needed", err.(*Error).Needed, 40.0)
	testutil.AssertEqual(t, "have", err.(*Error).Have, 39.0)
	testutil.AssertEqual(t, "credit unchanged", env.svc.Balance(alice), 39.0)
	testutil.AssertEqual(t, "requester told", env.notifier.received(alice, "Your teleport to Bob failed"), true)

	_, err = env.svc.AcceptPeer(ctx, bob, "Alice")
	assertKind(t, err, KindNotFound)
}

func TestService_PeerRequestErrors(t *testing.T) {
	tests := map[string]struct {
		configure func(s *Settings)
		prepare   func(env *testEnv)
		target    string
		expKind   ErrorKind
	}{
		"self": {
			target:  "alice",
			expKind: KindSelfTargeting,
		},
		"unknown target": {
			target:  "zed",
			expKind: KindNotFound,
		},
		"disabled": {
			configure: func(s *Settings) { s.Peer.Enabled = false },
			target:    "Bob",
			expKind:   KindDisabled,
		},
		"requester offline": {
			prepare: func(env *testEnv) { env.world.remove(alice) },
			target:  "Bob",
			expKind: KindNotAPlayer,
		},
		"on cooldown": {
			configure: func(s *Settings) { s.Peer.CooldownSeconds = 120 },
			prepare: func(env *testEnv) {
				ps := env.svc.states.Get(alice)
				ps.mu.Lock()
				ps.used(ActionPeer, env.clock.Now().Add(-time.Minute))
				ps.mu.Unlock()
			},
			target:  "Bob",
			expKind: KindOnCooldown,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			env := peerEnv(t, tt.configure)
			if tt.prepare != nil {
				tt.prepare(env)
			}

			_, err := env.svc.RequestPeer(context.Background(), alice, tt.target)
			assertKind(t, err, tt.expKind)
		})
	}
}

func TestService_PeerCooldownStartsOnAccept(t *testing.T) {
	env := peerEnv(t, func(s *Settings) { s.Peer.CooldownSeconds = 120 })
	ctx := context.Background()

	if _, err := env.svc.RequestPeer(ctx, alice, "Bob"); err != nil {
		t.Fatalf("first request: %v", err)
	}
	// Asking again before anything was accepted is allowed.
	if _, err := env.svc.RequestPeer(ctx, alice, "Bob"); err != nil {
		t.Fatalf("repeat request: %v", err)
	}
	if _, err := env.svc.AcceptPeer(ctx, bob, "Alice"); err != nil {
		t.Fatalf("accept: %v", err)
	}

	_, err := env.svc.RequestPeer(ctx, alice, "Bob")
	assertKind(t, err, KindOnCooldown)
	testutil.AssertErrorContains(t, err, "2 min 0 sec before using tp2p again")
}

func TestService_PeerRequestExpires(t *testing.T) {
	env := peerEnv(t, nil)
	ctx := context.Background()

	if _, err := env.svc.RequestPeer(ctx, alice, "Bob"); err != nil {
		t.Fatalf("request: %v", err)
	}
	env.clock.Advance(61 * time.Second)

	_, err := env.svc.AcceptPeer(ctx, bob, "Alice")
	assertKind(t, err, KindNotFound)
	testutil.AssertEqual(t, "credit unchanged", env.svc.Balance(alice), 100.0)
}

func TestService_PeerRequestReplaced(t *testing.T) {
	env := peerEnv(t, nil)
	env.world.add(carol, "Carol", Position{X: -10})
	env.setCredit(carol, 100)
	ctx := context.Background()

	if _, err := env.svc.RequestPeer(ctx, alice, "Bob"); err != nil {
		t.Fatalf("alice request: %v", err)
	}
	if _, err := env.svc.RequestPeer(ctx, carol, "Bob"); err != nil {
		t.Fatalf("carol request: %v", err)
	}

	_, err := env.svc.AcceptPeer(ctx, bob, "Alice")
	assertKind(t, err, KindNotFound)
	if _, err := env.svc.AcceptPeer(ctx, bob, "Carol"); err != nil {
		t.Fatalf("accept carol: %v", err)
	}
	testutil.AssertEqual(t, "carol charged", env.svc.Balance(carol), 50.0)
}

func TestService_PeerRequesterLeft(t *testing.T) {
	env := peerEnv(t, nil)
	env.world.add(carol, "Carol", Position{X: 5})
	ctx := context.Background()

	if _, err := env.svc.RequestPeer(ctx, carol, "Bob"); err != nil {
		t.Fatalf("request: %v", err)
	}
	env.world.remove(carol)

	// Carol can no longer be resolved by name once she is offline.
	_, err := env.svc.AcceptPeer(ctx, bob, "Carol")
	assertKind(t, err, KindNotFound)
}

func TestService_DenyPeer(t *testing.T) {
	env := peerEnv(t, nil)
	ctx := context.Background()

	_, err := env.svc.DenyPeer(ctx, bob, "Alice")
	assertKind(t, err, KindNotFound)

	if _, err := env.svc.RequestPeer(ctx, alice, "Bob"); err != nil {
		t.Fatalf("request: %v", err)
	}
	msg, err := env.svc.DenyPeer(ctx, bob, "Alice")
	if err != nil {
		t.Fatalf("deny: %v", err)
	}
	testutil.AssertEqual(t, "message", msg, "You denied the teleport request from Alice.")
	testutil.AssertEqual(t, "requester told", env.notifier.received(alice, "Bob denied your teleport request."), true)

	_, err = env.svc.AcceptPeer(ctx, bob, "Alice")
	assertKind(t, err, KindNotFound)
	_, moved := env.world.teleported[alice]
	testutil.AssertEqual(t, "moved", moved, false)
}

func TestService_PeerRateLimit(t *testing.T) {
	env := peerEnv(t, func(s *Settings) { s.PeerRequestsPerMinute = 2 })
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := env.svc.RequestPeer(ctx, alice, "Bob"); err != nil {
			t.Fatalf("request %d: %v", i, err)
		}
	}
	_, err := env.svc.RequestPeer(ctx, alice, "Bob")
	assertKind(t, err, KindRateLimited)

	env.clock.Advance(30 * time.Second)
	if _, err := env.svc.RequestPeer(ctx, alice, "Bob"); err != nil {
		t.Fatalf("request after refill: %v", err)
	}
}

func TestService_PeerCost(t *testing.T) {
	env := peerEnv(t, nil)
	env.world.add(carol, "Carol", Position{X: 300, Z: 400})

	msg, err := env.svc.PeerCost(alice, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	exp := "Costs to other players (walk credit 100):\n" +
		"  Bob: 40 blocks, cost 40\n" +
		"  Carol: 500 blocks, cost 500 [NOT ENOUGH]"
	testutil.AssertEqual(t, "all", msg, exp)

	msg, err = env.svc.PeerCost(alice, "car")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "one", msg, "Carol: 500 blocks, cost 500 [NOT ENOUGH]")

	_, err = env.svc.PeerCost(alice, "Alice")
	assertKind(t, err, KindSelfTargeting)
}

func TestService_PeerCostCapped(t *testing.T) {
	env := newTestEnv(t, func(s *Settings) { s.Peer.Free = true })
	for i := 0; i < 15; i++ {
		env.world.add(fmt.Sprintf("uid-%02d", i), fmt.Sprintf("Player%02d", i), Position{X: float64(i)})
	}

	msg, err := env.svc.PeerCost(alice, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lines := strings.Split(msg, "\n")
	testutil.AssertEqual(t, "lines", len(lines), 1+maxPeerCostLines+1)
	testutil.AssertEqual(t, "first", lines[1], "  Player00: 0 blocks, free")
	testutil.AssertEqual(t, "overflow", lines[len(lines)-1], "  ...and 4 more")

	alone := newTestEnv(t, nil)
	msg, err = alone.svc.PeerCost(alice, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "alone", msg, "There is nobody else online.")
}
