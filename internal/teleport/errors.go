package teleport

import (
	"fmt"
	"math"
	"time"
)

type ErrorKind int

const (
	KindNotAPlayer ErrorKind = iota + 1
	KindOnCooldown
	KindNotFound
	KindAmbiguous
	KindSingleModeViolation
	KindLimitReached
	KindInsufficientCredit
	KindSelfTargeting
	KindAlreadyExists
	KindWorldUnavailable
	KindDisabled
	KindInvalidArgument
	KindRateLimited
)

var kindNames = map[ErrorKind]string{
	KindNotAPlayer:          "not a player",
	KindOnCooldown:          "on cooldown",
	KindNotFound:            "not found",
	KindAmbiguous:           "ambiguous",
	KindSingleModeViolation: "single mode violation",
	KindLimitReached:        "limit reached",
	KindInsufficientCredit:  "insufficient credit",
	KindSelfTargeting:       "self targeting",
	KindAlreadyExists:       "already exists",
	KindWorldUnavailable:    "world unavailable",
	KindDisabled:            "disabled",
	KindInvalidArgument:     "invalid argument",
	KindRateLimited:         "rate limited",
}

func (k ErrorKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is a failure of a single player action. Its message is meant to be
// shown to the player verbatim; the state it was raised from is unchanged.
type Error struct {
	Kind    ErrorKind
	Message string

	// Set for KindOnCooldown.
	Remaining time.Duration
	// Set for KindInsufficientCredit.
	Needed float64
	Have   float64
	// Set for KindLimitReached.
	Limit int
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Kind.String()
	}
	return e.Message
}

// Is matches on kind so callers can test errors.Is(err, ErrNotFound).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrNotAPlayer          = &Error{Kind: KindNotAPlayer}
	ErrOnCooldown          = &Error{Kind: KindOnCooldown}
	ErrNotFound            = &Error{Kind: KindNotFound}
	ErrAmbiguous           = &Error{Kind: KindAmbiguous}
	ErrSingleModeViolation = &Error{Kind: KindSingleModeViolation}
	ErrLimitReached        = &Error{Kind: KindLimitReached}
	ErrInsufficientCredit  = &Error{Kind: KindInsufficientCredit}
	ErrSelfTargeting       = &Error{Kind: KindSelfTargeting}
	ErrAlreadyExists       = &Error{Kind: KindAlreadyExists}
	ErrWorldUnavailable    = &Error{Kind: KindWorldUnavailable}
	ErrDisabled            = &Error{Kind: KindDisabled}
	ErrInvalidArgument     = &Error{Kind: KindInvalidArgument}
	ErrRateLimited         = &Error{Kind: KindRateLimited}
)

func newError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func notAPlayer() *Error {
	return newError(KindNotAPlayer, "This command can only be used by a player.")
}

func cooldownError(remaining time.Duration, command string) *Error {
	e := newError(KindOnCooldown, "You must wait %s before using %s again.", FormatRemaining(remaining), command)
	e.Remaining = remaining
	return e
}

func insufficientCredit(needed, have float64, what string) *Error {
	e := newError(KindInsufficientCredit, "Not enough walk credit%s: need %d blocks, you have %d.",
		what, CostDisplay(needed), BalanceDisplay(have))
	e.Needed = needed
	e.Have = have
	return e
}

// CostDisplay rounds a cost up so a player is never shown less than they pay.
func CostDisplay(v float64) int64 {
	return int64(math.Ceil(v))
}

// BalanceDisplay rounds a balance down so available credit is never overstated.
func BalanceDisplay(v float64) int64 {
	return int64(math.Floor(v))
}

// FormatRemaining renders a wait as "N min M sec", or "M sec" under a minute.
func FormatRemaining(d time.Duration) string {
	secs := d.Seconds()
	mins := math.Floor(secs / 60)
	rest := math.Ceil(math.Mod(secs, 60))
	if rest == 60 {
		mins++
		rest = 0
	}
	if mins > 0 {
		return fmt.Sprintf("%d min %d sec", int64(mins), int64(rest))
	}
	return fmt.Sprintf("%d sec", int64(rest))
}
