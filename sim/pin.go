package sim

import "periph.io/x/conn/v3/gpio"

// Dir is the configured direction of a simulated pin.
type Dir int

const (
	// Input means the pin is high impedance; nothing is driven.
	Input Dir = iota

	// Output means the controller is driving the pin.
	Output
)

// Pin is an in-memory hal.Pin. It remembers its direction, driven
// level and pull, and can notify an attached chip model on changes.
type Pin struct {
	name     string
	dir      Dir
	level    gpio.Level
	pull     gpio.Pull
	onChange func()
	read     func() gpio.Level
}

func newPin(name string) *Pin {
	return &Pin{name: name, dir: Input, pull: gpio.Float}
}

// Name returns the pin's wiring label.
func (p *Pin) Name() string {
	return p.name
}

// Dir returns the pin's current direction.
func (p *Pin) Dir() Dir {
	return p.dir
}

// Level returns the last level driven onto the pin.
func (p *Pin) Level() gpio.Level {
	return p.level
}

// In reconfigures the pin as an input with the given pull.
func (p *Pin) In(pull gpio.Pull, edge gpio.Edge) error {
	p.dir = Input
	p.pull = pull
	if p.onChange != nil {
		p.onChange()
	}
	return nil
}

// Out reconfigures the pin as an output driving the given level.
func (p *Pin) Out(l gpio.Level) error {
	p.dir = Output
	p.level = l
	if p.onChange != nil {
		p.onChange()
	}
	return nil
}

// Read returns the level present on the pin. For data-bus pins this is
// whatever the chip model is currently driving; for all other pins it
// is the last driven level.
func (p *Pin) Read() gpio.Level {
	if p.read != nil {
		return p.read()
	}
	return p.level
}

func (p *Pin) driven() bool {
	return p.dir == Output
}
