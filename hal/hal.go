package hal

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"
)

// Pin is a single direction-configurable hardware line.
//
// The method set is a subset of periph.io's gpio.PinIO, so real pins
// satisfy Pin without adapters. Implementations must make In, Out and
// Read take effect before returning; the driver's timing depends on it.
type Pin interface {
	// In configures the pin as a high-impedance input with the given pull.
	In(pull gpio.Pull, edge gpio.Edge) error

	// Out configures the pin as an output and drives it to the given level.
	Out(l gpio.Level) error

	// Read returns the level currently present on the pin.
	Read() gpio.Level
}

// SleepFunc blocks for at least d. The durations handed to it are
// datasheet minimums; sleeping longer is always safe, returning early
// never is.
type SleepFunc func(d time.Duration)

// PortWidth is the number of pins in a Port.
const PortWidth = 8

// Port is an ordered group of eight pins treated as one 8-bit bus
// segment. Bit i of a port value corresponds to pin i.
type Port struct {
	pins [PortWidth]Pin
}

// NewPort builds a Port from exactly eight pins, least significant
// bit first.
func NewPort(pins ...Pin) (*Port, error) {
	if len(pins) != PortWidth {
		return nil, fmt.Errorf("port requires exactly %d pins, got %d", PortWidth, len(pins))
	}
	p := &Port{}
	for i, pin := range pins {
		if pin == nil {
			return nil, fmt.Errorf("pin %d is nil", i)
		}
		p.pins[i] = pin
	}
	return p, nil
}

// Write configures every pin as an output and drives the given value
// onto the port.
func (p *Port) Write(b byte) error {
	for i, pin := range p.pins {
		if err := pin.Out(gpio.Level(b&(1<<i) != 0)); err != nil {
			return fmt.Errorf("drive pin %d: %w", i, err)
		}
	}
	return nil
}

// Read samples every pin and assembles the port value.
func (p *Port) Read() byte {
	var b byte
	for i, pin := range p.pins {
		if pin.Read() {
			b |= 1 << i
		}
	}
	return b
}

// Float releases the port: every pin becomes a high-impedance input
// with no pull, so another bus master may drive it.
func (p *Port) Float() error {
	for i, pin := range p.pins {
		if err := pin.In(gpio.Float, gpio.NoEdge); err != nil {
			return fmt.Errorf("float pin %d: %w", i, err)
		}
	}
	return nil
}
