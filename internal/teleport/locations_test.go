package teleport

import (
	"context"
	"testing"

	"github.com/pixil98/go-testutil"
)

func TestService_SetLocation(t *testing.T) {
	tests := map[string]struct {
		configure  func(s *Settings)
		existing   []string
		name       string
		expKind    ErrorKind
		expMessage string
		expNames   []string
	}{
		"default name": {
			expMessage: "Home 'default' set at X=12 Y=64 Z=-3.",
			expNames:   []string{DefaultLocation},
		},
		"named": {
			name:       "base",
			expMessage: "Home 'base' set at X=12 Y=64 Z=-3.",
			expNames:   []string{"base"},
		},
		"overwrite at limit": {
			configure: func(s *Settings) { s.Categories.Home.MaxCount = 2 },
			existing:  []string{"base", "mine"},
			name:      "base",
			expNames:  []string{"base", "mine"},
		},
		"limit reached": {
			configure: func(s *Settings) { s.Categories.Home.MaxCount = 2 },
			existing:  []string{"base", "mine"},
			name:      "tower",
			expKind:   KindLimitReached,
			expNames:  []string{"base", "mine"},
		},
		"single mode rejects names": {
			configure: func(s *Settings) { s.Categories.Home.SingleMode = true },
			name:      "base",
			expKind:   KindSingleModeViolation,
		},
		"single mode replaces default": {
			configure: func(s *Settings) { s.Categories.Home.SingleMode = true },
			existing:  []string{DefaultLocation},
			expNames:  []string{DefaultLocation},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			env := newTestEnv(t, tt.configure)
			env.world.move(alice, Position{X: 12.4, Y: 64, Z: -2.6})
			for _, n := range tt.existing {
				env.setLocation(alice, CategoryHome, n, Position{X: 500})
			}

			msg, err := env.svc.SetLocation(context.Background(), alice, CategoryHome, tt.name)
			if tt.expKind != 0 {
				assertKind(t, err, tt.expKind)
			} else if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.expMessage != "" {
				testutil.AssertEqual(t, "message", msg, tt.expMessage)
			}

			got := sortedNames(env.svc.states.Get(alice).Record().Set(CategoryHome))
			testutil.AssertEqual(t, "count", len(got), len(tt.expNames))
			for i := range tt.expNames {
				testutil.AssertEqual(t, "name", got[i], tt.expNames[i])
			}
		})
	}
}

func TestService_SetLocationLimitDetails(t *testing.T) {
	env := newTestEnv(t, func(s *Settings) { s.Categories.Farm.MaxCount = 1 })
	env.setLocation(alice, CategoryFarm, "wheat", Position{})

	_, err := env.svc.SetLocation(context.Background(), alice, CategoryFarm, "cane")
	assertKind(t, err, KindLimitReached)
	testutil.AssertEqual(t, "limit", err.(*Error).Limit, 1)
	testutil.AssertErrorContains(t, err, "1 of 1 farms")
}

func TestService_SetLocationPersists(t *testing.T) {
	env := newTestEnv(t, nil)
	env.world.move(alice, Position{X: 1, Y: 2, Z: 3})

	if _, err := env.svc.SetLocation(context.Background(), alice, CategoryIndustry, "smelter"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stored := env.records.Get(alice)
	if stored == nil {
		t.Fatal("expected the record to be saved")
	}
	testutil.AssertEqual(t, "stored", stored.Set(CategoryIndustry)["smelter"], Position{X: 1, Y: 2, Z: 3})
	testutil.AssertEqual(t, "audit", env.auditor.last(), "Alice set industry 'smelter' at X=1 Y=2 Z=3")
}

func TestService_DeleteLocation(t *testing.T) {
	tests := map[string]struct {
		configure  func(s *Settings)
		name       string
		expKind    ErrorKind
		expMessage string
		expLeft    int
	}{
		"named": {
			name:       "base",
			expMessage: "Home 'base' deleted.",
			expLeft:    1,
		},
		"default": {
			expMessage: "Home 'default' deleted.",
			expLeft:    1,
		},
		"missing": {
			name:    "tower",
			expKind: KindNotFound,
			expLeft: 2,
		},
		"single mode named": {
			configure: func(s *Settings) { s.Categories.Home.SingleMode = true },
			name:      "base",
			expKind:   KindSingleModeViolation,
			expLeft:   2,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			env := newTestEnv(t, tt.configure)
			env.setLocation(alice, CategoryHome, "base", Position{})
			env.setLocation(alice, CategoryHome, DefaultLocation, Position{})

			msg, err := env.svc.DeleteLocation(context.Background(), alice, CategoryHome, tt.name)
			if tt.expKind != 0 {
				assertKind(t, err, tt.expKind)
			} else {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				testutil.AssertEqual(t, "message", msg, tt.expMessage)
			}
			testutil.AssertEqual(t, "left", len(env.svc.states.Get(alice).Record().Set(CategoryHome)), tt.expLeft)
		})
	}
}

func TestService_RenameLocation(t *testing.T) {
	tests := map[string]struct {
		configure func(s *Settings)
		from      string
		to        string
		expKind   ErrorKind
		expNames  []string
	}{
		"renamed": {
			from:     "base",
			to:       "castle",
			expNames: []string{"castle", "mine"},
		},
		"missing old name": {
			from:     "tower",
			to:       "castle",
			expKind:  KindNotFound,
			expNames: []string{"base", "mine"},
		},
		"new name taken": {
			from:     "base",
			to:       "mine",
			expKind:  KindAlreadyExists,
			expNames: []string{"base", "mine"},
		},
		"same name": {
			from:     "base",
			to:       "base",
			expKind:  KindInvalidArgument,
			expNames: []string{"base", "mine"},
		},
		"empty name": {
			from:     "base",
			expKind:  KindInvalidArgument,
			expNames: []string{"base", "mine"},
		},
		"single mode": {
			configure: func(s *Settings) { s.Categories.Farm.SingleMode = true },
			from:      "base",
			to:        "castle",
			expKind:   KindSingleModeViolation,
			expNames:  []string{"base", "mine"},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			env := newTestEnv(t, tt.configure)
			env.setLocation(alice, CategoryFarm, "base", Position{X: 7})
			env.setLocation(alice, CategoryFarm, "mine", Position{X: 9})

			_, err := env.svc.RenameLocation(context.Background(), alice, CategoryFarm, tt.from, tt.to)
			if tt.expKind != 0 {
				assertKind(t, err, tt.expKind)
			} else if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			set := env.svc.states.Get(alice).Record().Set(CategoryFarm)
			got := sortedNames(set)
			testutil.AssertEqual(t, "count", len(got), len(tt.expNames))
			for i := range tt.expNames {
				testutil.AssertEqual(t, "name", got[i], tt.expNames[i])
			}
			if tt.expKind == 0 {
				testutil.AssertEqual(t, "position kept", set[tt.to], Position{X: 7})
			}
		})
	}
}

func TestService_DeleteAllLocations(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	_, err := env.svc.DeleteAllLocations(ctx, alice, CategoryIndustry)
	assertKind(t, err, KindNotFound)

	env.setLocation(alice, CategoryIndustry, "smelter", Position{})
	env.setLocation(alice, CategoryIndustry, "quarry", Position{})
	env.setLocation(alice, CategoryHome, "base", Position{})

	msg, err := env.svc.DeleteAllLocations(ctx, alice, CategoryIndustry)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "message", msg, "Deleted 2 industries.")

	rec := env.svc.states.Get(alice).Record()
	testutil.AssertEqual(t, "industries", len(rec.Set(CategoryIndustry)), 0)
	testutil.AssertEqual(t, "homes untouched", len(rec.Set(CategoryHome)), 1)
}

func TestService_ListLocations(t *testing.T) {
	env := newTestEnv(t, func(s *Settings) { s.Categories.Home.MaxCount = 5 })

	msg, err := env.svc.ListLocations(alice, CategoryHome)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "empty", msg, "You have no homes. Use sethome to save one.")

	env.setLocation(alice, CategoryHome, "north", Position{Z: -300})
	env.setLocation(alice, CategoryHome, "base", Position{X: 12.4, Y: 64, Z: 3})

	msg, err = env.svc.ListLocations(alice, CategoryHome)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "list", msg, "Your homes (2/5): base, north")

	msg, err = env.svc.LocationInfo(alice, CategoryHome)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "info", msg, "Your homes:\n  base: X=12 Y=64 Z=3\n  north: X=0 Y=0 Z=-300")

	_, err = env.svc.ListLocations(alice, "castle")
	assertKind(t, err, KindInvalidArgument)
}

func TestService_ListLocationCosts(t *testing.T) {
	env := newTestEnv(t, func(s *Settings) { s.Categories.Farm.DefaultFree = true })
	env.setCredit(alice, 60.5)
	env.setLocation(alice, CategoryFarm, "near", Position{X: 30, Z: 40})
	env.setLocation(alice, CategoryFarm, "far", Position{X: 300, Z: 400})
	env.setLocation(alice, CategoryFarm, DefaultLocation, Position{X: 600, Z: 800})

	msg, err := env.svc.ListLocationCosts(alice, CategoryFarm)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	exp := "Costs to your farms (walk credit 60):\n" +
		"  default: 1000 blocks, free\n" +
		"  far: 500 blocks, cost 500 [NOT ENOUGH]\n" +
		"  near: 50 blocks, cost 50"
	testutil.AssertEqual(t, "costs", msg, exp)
}
