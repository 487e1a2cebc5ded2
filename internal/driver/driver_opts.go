package driver

import "time"

type DriverOpt func(*Driver)

func WithTickLength(tickLength time.Duration) DriverOpt {
	return func(d *Driver) {
		d.tickLength = tickLength
	}
}

// WithFlushers registers hooks run when the driver shuts down.
func WithFlushers(f ...Flusher) DriverOpt {
	return func(d *Driver) {
		d.flushers = append(d.flushers, f...)
	}
}
