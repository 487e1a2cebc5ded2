package teleport

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/pixil98/go-testutil"
)

func TestFormatRemaining(t *testing.T) {
	tests := map[string]struct {
		d   time.Duration
		exp string
	}{
		"whole minutes":           {d: 5 * time.Minute, exp: "5 min 0 sec"},
		"minutes and seconds":     {d: 61*time.Second + 200*time.Millisecond, exp: "1 min 2 sec"},
		"seconds only":            {d: 30 * time.Second, exp: "30 sec"},
		"fraction rounds up":      {d: 200 * time.Millisecond, exp: "1 sec"},
		"rounds into next minute": {d: 59*time.Second + 500*time.Millisecond, exp: "1 min 0 sec"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			testutil.AssertEqual(t, "formatted", FormatRemaining(tt.d), tt.exp)
		})
	}
}

func TestDisplayRounding(t *testing.T) {
	testutil.AssertEqual(t, "cost rounds up", CostDisplay(39.01), int64(40))
	testutil.AssertEqual(t, "whole cost", CostDisplay(40), int64(40))
	testutil.AssertEqual(t, "balance rounds down", BalanceDisplay(39.99), int64(39))
	testutil.AssertEqual(t, "whole balance", BalanceDisplay(40), int64(40))
}

func TestError_Is(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", insufficientCredit(40, 10, ""))

	testutil.AssertEqual(t, "matches kind", errors.Is(err, ErrInsufficientCredit), true)
	testutil.AssertEqual(t, "other kind", errors.Is(err, ErrNotFound), false)

	var e *Error
	if !errors.As(err, &e) {
		t.Fatal("expected *Error in chain")
	}
	testutil.AssertEqual(t, "needed", e.Needed, 40.0)
	testutil.AssertEqual(t, "have", e.Have, 10.0)
	testutil.AssertErrorContains(t, err, "need 40 blocks, you have 10")
}

func TestCooldownError(t *testing.T) {
	err := cooldownError(90*time.Second, "home")
	testutil.AssertEqual(t, "remaining", err.Remaining, 90*time.Second)
	testutil.AssertEqual(t, "message", err.Error(), "You must wait 1 min 30 sec before using home again.")
}
