// Package at29 drives an AT29C512-class parallel NOR flash chip over
// its native command-sequence interface.
//
// # Overview
//
// The package has two layers:
//
//   - Bus arbitrates ownership of the shared address/data bus against
//     an external bus master and performs single electrically-correct
//     byte read and write cycles.
//   - Driver composes Bus transactions into the chip's software
//     command sequences: 128-byte page program, whole-chip erase, page
//     read and software product identification.
//
// # Basic Usage
//
//	// Pins come from periph.io on real hardware, or from the sim
//	// package for testing.
//	bus, err := at29.NewBus(at29.Wiring{
//	    AddrLow:  addrLow,
//	    AddrHigh: addrHigh,
//	    Data:     data,
//	    CE:       ce,
//	    OE:       oe,
//	    WE:       we,
//	    BufOE:    bufOE,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	drv := at29.New(bus)
//	err = drv.WritePage(context.Background(), 3, payload)
//
// # Bus Ownership
//
// The address/data bus and the chip enable line are shared with
// another bus master through an external buffer. Every Driver
// operation captures ownership on entry and releases it on every
// return path; between operations the external master owns the bus.
// Capture and release never nest.
//
// # Timing
//
// All chip timing is expressed as blocking delays with datasheet
// minimums (write pulse width, read access settle, page program cycle,
// erase cycle). These are hard lower bounds. There is no status
// polling: the driver is an open-loop, fire-and-forget sequencer, and
// a failed or worn-out chip manifests only as wrong data on read-back.
//
// # Error Handling
//
// Page index and length are validated up front (PageOutOfRangeError,
// PageSizeError). Bus ownership misuse is reported via ErrBusHeld and
// ErrBusReleased. Hardware line errors from the hal layer are wrapped
// and propagated; the physical command byte sequences are unaffected
// by any of this validation.
//
// # Hardware Independence
//
// The package touches hardware only through the hal package's Pin and
// Port abstractions, so any gpio.PinIO from periph.io works directly
// and the sim package provides a full software model for tests.
package at29
