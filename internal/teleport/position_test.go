package teleport

import (
	"testing"

	"github.com/pixil98/go-testutil"
)

func TestDistance(t *testing.T) {
	tests := map[string]struct {
		from Position
		to   Position
		exp  int
	}{
		"same point": {
			from: Position{X: 4, Y: 64, Z: -9},
			to:   Position{X: 4, Y: 64, Z: -9},
			exp:  0,
		},
		"single axis": {
			to:  Position{X: 10},
			exp: 10,
		},
		"vertical counts": {
			to:  Position{Y: 7},
			exp: 7,
		},
		"three four five": {
			from: Position{X: 1, Y: 1, Z: 1},
			to:   Position{X: 4, Y: 5, Z: 1},
			exp:  5,
		},
		"full 3d": {
			to:  Position{X: 2, Y: 3, Z: 6},
			exp: 7,
		},
		"half rounds away from zero": {
			to:  Position{X: 2.5},
			exp: 3,
		},
		"below half rounds down": {
			to:  Position{X: 1, Y: 1},
			exp: 1,
		},
		"negative coordinates": {
			from: Position{X: -100, Z: -100},
			to:   Position{X: -40, Z: -20},
			exp:  100,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			testutil.AssertEqual(t, "distance", Distance(tt.from, tt.to), tt.exp)
			testutil.AssertEqual(t, "reverse distance", Distance(tt.to, tt.from), tt.exp)
		})
	}
}

func TestPosition_Rounded(t *testing.T) {
	p := Position{X: 10.4, Y: 64.5, Z: -3.6}
	testutil.AssertEqual(t, "rounded", p.Rounded(), "X=10 Y=65 Z=-4")
}
