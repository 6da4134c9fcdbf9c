package at29

import (
	"time"

	"github.com/breadboardlabs/go-at29/hal"
)

// Config holds the driver configuration. The four durations are chip
// timing parameters with datasheet floors; options can lengthen them
// for marginal wiring but never shorten them below the defaults.
type Config struct {
	// WritePulse is the write-pulse width and post-deassert hold time
	WritePulse time.Duration

	// ReadSettle is the wait between asserting the read strobes and
	// sampling the data bus
	ReadSettle time.Duration

	// PageCycle is the wait for the chip's internal page program cycle
	PageCycle time.Duration

	// EraseCycle is the wait for the chip's internal erase cycle
	EraseCycle time.Duration

	// Sleep is the delay primitive used for all of the above
	Sleep hal.SleepFunc

	// Logger is used for logging operations (optional)
	Logger Logger
}

// defaultConfig returns the default configuration.
func defaultConfig() Config {
	return Config{
		WritePulse: DefaultWritePulse,
		ReadSettle: DefaultReadSettle,
		PageCycle:  DefaultPageCycle,
		EraseCycle: DefaultEraseCycle,
		Sleep:      time.Sleep,
	}
}

// Option is a functional option for configuring the Bus and the Driver.
// Options given to New are applied on top of the bus's configuration
// and shared back with it, so passing a list once is enough.
type Option func(*Config)

// WithWritePulse lengthens the write-pulse width. Values below the
// datasheet floor are ignored.
func WithWritePulse(d time.Duration) Option {
	return func(c *Config) {
		if d >= DefaultWritePulse {
			c.WritePulse = d
		}
	}
}

// WithReadSettle lengthens the read settling time. Values below the
// datasheet floor are ignored.
func WithReadSettle(d time.Duration) Option {
	return func(c *Config) {
		if d >= DefaultReadSettle {
			c.ReadSettle = d
		}
	}
}

// WithPageCycle lengthens the page program wait. Values below the
// datasheet floor are ignored.
func WithPageCycle(d time.Duration) Option {
	return func(c *Config) {
		if d >= DefaultPageCycle {
			c.PageCycle = d
		}
	}
}

// WithEraseCycle lengthens the chip erase wait. Values below the
// datasheet floor are ignored.
func WithEraseCycle(d time.Duration) Option {
	return func(c *Config) {
		if d >= DefaultEraseCycle {
			c.EraseCycle = d
		}
	}
}

// WithSleep replaces the delay primitive. Intended for tests that
// record timing instead of spending it; a replacement used against
// real hardware must honor the lower-bound contract of hal.SleepFunc.
func WithSleep(sleep hal.SleepFunc) Option {
	return func(c *Config) {
		if sleep != nil {
			c.Sleep = sleep
		}
	}
}

// WithLogger sets a logger for driver operations.
//
// Example:
//
//	drv := at29.New(bus, at29.WithLogger(myLogger))
func WithLogger(logger Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}
