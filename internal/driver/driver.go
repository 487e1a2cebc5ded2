package driver

import (
	"context"
	"fmt"
	"time"

	"github.com/pixil98/go-errors"
)

const (
	DefaultTickLength = time.Second * 2
)

// Ticker is run once per tick.
type Ticker interface {
	Tick(context.Context) error
}

// Flusher is given a last chance to persist state when the driver stops.
type Flusher interface {
	Flush(context.Context) error
}

type Driver struct {
	tickLength time.Duration
	handlers   []Ticker
	flushers   []Flusher
}

func NewDriver(h []Ticker, opts ...DriverOpt) *Driver {
	d := &Driver{
		tickLength: DefaultTickLength,
		handlers:   h,
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

func (d *Driver) Start(ctx context.Context) error {
	ticker := time.NewTicker(d.tickLength)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return d.Flush(context.WithoutCancel(ctx))
		case <-ticker.C:
			err := d.Tick(ctx)
			if err != nil {
				return err
			}
		}
	}
}

func (d *Driver) Tick(ctx context.Context) error {
	for _, h := range d.handlers {
		err := h.Tick(ctx)
		if err != nil {
			return err
		}
	}
	return nil
}

// Flush runs every flusher, even when an earlier one fails.
func (d *Driver) Flush(ctx context.Context) error {
	el := errors.NewErrorList()
	for i, f := range d.flushers {
		if err := f.Flush(ctx); err != nil {
			el.Add(fmt.Errorf("flusher %d: %w", i, err))
		}
	}
	return el.Err()
}
