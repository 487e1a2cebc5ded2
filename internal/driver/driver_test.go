package driver

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/pixil98/go-testutil"
)

type countingTicker struct {
	ticks int
	err   error
}

func (c *countingTicker) Tick(context.Context) error {
	c.ticks++
	return c.err
}

type recordingFlusher struct {
	flushed int
	ctxErr  error
	err     error
}

func (r *recordingFlusher) Flush(ctx context.Context) error {
	r.flushed++
	r.ctxErr = ctx.Err()
	return r.err
}

func TestDriver_Tick(t *testing.T) {
	tests := map[string]struct {
		firstErr  error
		expErr    string
		expSecond int
	}{
		"all handlers run": {
			expSecond: 1,
		},
		"error stops the tick": {
			firstErr:  fmt.Errorf("boom"),
			expErr:    "boom",
			expSecond: 0,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			first := &countingTicker{err: tt.firstErr}
			second := &countingTicker{}
			d := NewDriver([]Ticker{first, second})

			err := d.Tick(context.Background())
			if tt.expErr != "" {
				testutil.AssertErrorContains(t, err, tt.expErr)
			} else if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			testutil.AssertEqual(t, "first", first.ticks, 1)
			testutil.AssertEqual(t, "second", second.ticks, tt.expSecond)
		})
	}
}

func TestDriver_StartFlushesOnShutdown(t *testing.T) {
	ticker := &countingTicker{}
	ok := &recordingFlusher{}
	failing := &recordingFlusher{err: fmt.Errorf("disk full")}
	d := NewDriver([]Ticker{ticker},
		WithTickLength(5*time.Millisecond),
		WithFlushers(failing, ok),
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Start(ctx) }()

	time.Sleep(30 * time.Millisecond)
	cancel()

	var err error
	select {
	case err = <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("driver did not stop")
	}

	testutil.AssertErrorContains(t, err, "disk full")
	testutil.AssertEqual(t, "failing flushed", failing.flushed, 1)
	testutil.AssertEqual(t, "ok flushed", ok.flushed, 1)
	if ok.ctxErr != nil {
		t.Errorf("flush context should not be canceled: %v", ok.ctxErr)
	}
	if ticker.ticks == 0 {
		t.Error("expected at least one tick")
	}
}
