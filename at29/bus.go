package at29

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"

	"github.com/breadboardlabs/go-at29/hal"
)

// Wiring names the hardware lines the driver is attached to. The three
// control lines toward the flash (CE, OE, WE) are active low, as is
// BufOE, the output enable of the external buffer that connects the
// other bus master to the shared address/data bus.
type Wiring struct {
	// AddrLow carries address bits 0-7
	AddrLow *hal.Port

	// AddrHigh carries address bits 8-15
	AddrHigh *hal.Port

	// Data carries the 8-bit data bus
	Data *hal.Port

	// CE is the flash chip enable
	CE hal.Pin

	// OE is the flash output enable
	OE hal.Pin

	// WE is the flash write enable
	WE hal.Pin

	// BufOE is the external buffer output enable
	BufOE hal.Pin
}

func (w Wiring) validate() error {
	if w.AddrLow == nil || w.AddrHigh == nil || w.Data == nil {
		return fmt.Errorf("all three bus ports must be wired")
	}
	if w.CE == nil || w.OE == nil || w.WE == nil || w.BufOE == nil {
		return fmt.Errorf("all four control lines must be wired")
	}
	return nil
}

// Bus arbitrates ownership of the shared address/data bus and performs
// single electrically-correct byte transactions against the flash chip.
//
// Bus is not safe for concurrent use; the whole driver is synchronous
// by design, one transaction at a time inside one captured window.
type Bus struct {
	w      Wiring
	config Config
	held   bool
}

// NewBus creates a Bus over the given wiring. Timing options apply to
// the per-byte dwell and settle times; sequence-level waits belong to
// the Driver.
func NewBus(w Wiring, opts ...Option) (*Bus, error) {
	if err := w.validate(); err != nil {
		return nil, err
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Bus{w: w, config: cfg}, nil
}

// Held reports whether the controller currently owns the bus.
func (b *Bus) Held() bool {
	return b.held
}

// Capture takes electrical ownership of the shared bus: the external
// buffer is switched off, the control lines become controller-driven
// and deasserted, and the address and data buses are left released.
//
// Every Capture must be paired with exactly one Release before the
// next command is processed. Capturing while ownership is already held
// returns ErrBusHeld.
func (b *Bus) Capture() error {
	if b.held {
		return ErrBusHeld
	}

	// Buffer off first so the two masters never drive the bus at once.
	if err := b.w.BufOE.Out(gpio.High); err != nil {
		return fmt.Errorf("disable external buffer: %w", err)
	}

	// Control lines controller-driven, deasserted high.
	if err := b.w.CE.Out(gpio.High); err != nil {
		return fmt.Errorf("deassert CE: %w", err)
	}
	if err := b.w.WE.Out(gpio.High); err != nil {
		return fmt.Errorf("deassert WE: %w", err)
	}
	if err := b.w.OE.Out(gpio.High); err != nil {
		return fmt.Errorf("deassert OE: %w", err)
	}

	// Address and data released until a transaction needs them.
	if err := b.w.AddrLow.Float(); err != nil {
		return fmt.Errorf("release address low: %w", err)
	}
	if err := b.w.AddrHigh.Float(); err != nil {
		return fmt.Errorf("release address high: %w", err)
	}
	if err := b.w.Data.Float(); err != nil {
		return fmt.Errorf("release data: %w", err)
	}

	b.held = true
	return nil
}

// Release returns the bus to the external master: WE deasserted, OE
// asserted so the master's reads pass through, CE reconfigured as a
// high-impedance input with no pull, buses floated, buffer re-enabled.
// Releasing while ownership is not held returns ErrBusReleased.
func (b *Bus) Release() error {
	if !b.held {
		return ErrBusReleased
	}

	if err := b.w.WE.Out(gpio.High); err != nil {
		return fmt.Errorf("deassert WE: %w", err)
	}
	if err := b.w.OE.Out(gpio.Low); err != nil {
		return fmt.Errorf("assert OE: %w", err)
	}
	if err := b.w.CE.In(gpio.Float, gpio.NoEdge); err != nil {
		return fmt.Errorf("release CE: %w", err)
	}
	if err := b.w.AddrLow.Float(); err != nil {
		return fmt.Errorf("release address low: %w", err)
	}
	if err := b.w.AddrHigh.Float(); err != nil {
		return fmt.Errorf("release address high: %w", err)
	}
	if err := b.w.Data.Float(); err != nil {
		return fmt.Errorf("release data: %w", err)
	}
	if err := b.w.BufOE.Out(gpio.Low); err != nil {
		return fmt.Errorf("enable external buffer: %w", err)
	}

	b.held = false
	return nil
}

// OutputMode drives zeroes onto the address and data buses, putting
// all 24 lines into output direction ahead of a write sequence. The
// per-byte write path assumes this has been done and does not re-assert
// direction.
func (b *Bus) OutputMode() error {
	if !b.held {
		return ErrBusReleased
	}
	if err := b.driveAddress(0); err != nil {
		return err
	}
	if err := b.w.Data.Write(0); err != nil {
		return fmt.Errorf("drive data bus: %w", err)
	}
	return nil
}

// WriteByte performs one write cycle: address and data are driven onto
// the bus, WE and CE are pulled low together (WE no later than CE, so
// the later falling edge latches a stable address), held for the write
// pulse width, then deasserted and held again for the same minimum.
//
// Must be called inside a captured window with the buses in output
// mode. The dwell times are hard lower bounds; see Config.WritePulse.
func (b *Bus) WriteByte(addr uint16, data byte) error {
	if !b.held {
		return ErrBusReleased
	}

	if err := b.driveAddress(addr); err != nil {
		return err
	}
	if err := b.w.Data.Write(data); err != nil {
		return fmt.Errorf("drive data bus: %w", err)
	}

	if err := b.w.WE.Out(gpio.Low); err != nil {
		return fmt.Errorf("assert WE: %w", err)
	}
	if err := b.w.CE.Out(gpio.Low); err != nil {
		return fmt.Errorf("assert CE: %w", err)
	}

	b.config.Sleep(b.config.WritePulse)

	if err := b.w.CE.Out(gpio.High); err != nil {
		return fmt.Errorf("deassert CE: %w", err)
	}
	if err := b.w.OE.Out(gpio.High); err != nil {
		return fmt.Errorf("deassert OE: %w", err)
	}
	if err := b.w.WE.Out(gpio.High); err != nil {
		return fmt.Errorf("deassert WE: %w", err)
	}

	b.config.Sleep(b.config.WritePulse)
	return nil
}

// ReadByte performs one read cycle: the address bus is temporarily
// driven, CE and OE are asserted, the data bus is sampled after the
// settle time, then the strobes are deasserted and the address bus is
// floated again.
//
// Must be called inside a captured window. The returned byte reflects
// the flash cell contents at addr at the moment of assertion.
func (b *Bus) ReadByte(addr uint16) (byte, error) {
	if !b.held {
		return 0, ErrBusReleased
	}

	if err := b.driveAddress(addr); err != nil {
		return 0, err
	}

	if err := b.w.CE.Out(gpio.Low); err != nil {
		return 0, fmt.Errorf("assert CE: %w", err)
	}
	if err := b.w.OE.Out(gpio.Low); err != nil {
		return 0, fmt.Errorf("assert OE: %w", err)
	}

	// Must exceed the chip's access time before the bus is valid.
	b.config.Sleep(b.config.ReadSettle)

	data := b.w.Data.Read()

	if err := b.w.OE.Out(gpio.High); err != nil {
		return 0, fmt.Errorf("deassert OE: %w", err)
	}
	if err := b.w.CE.Out(gpio.High); err != nil {
		return 0, fmt.Errorf("deassert CE: %w", err)
	}

	if err := b.w.AddrLow.Float(); err != nil {
		return 0, fmt.Errorf("release address low: %w", err)
	}
	if err := b.w.AddrHigh.Float(); err != nil {
		return 0, fmt.Errorf("release address high: %w", err)
	}

	return data, nil
}

// floatData releases the data bus back to input direction, used by
// sequences that switch from command writes to reads inside one
// captured window.
func (b *Bus) floatData() error {
	if err := b.w.Data.Float(); err != nil {
		return fmt.Errorf("release data: %w", err)
	}
	return nil
}

func (b *Bus) driveAddress(addr uint16) error {
	if err := b.w.AddrLow.Write(byte(addr)); err != nil {
		return fmt.Errorf("drive address low: %w", err)
	}
	if err := b.w.AddrHigh.Write(byte(addr >> 8)); err != nil {
		return fmt.Errorf("drive address high: %w", err)
	}
	return nil
}
