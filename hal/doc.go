// Package hal defines the minimal hardware abstraction the flash driver
// is built on: individually direction-configurable, driveable pins and
// 8-bit ports composed of them.
//
// # Pins
//
// Pin is a deliberately small subset of periph.io's gpio.PinIO, so any
// pin obtained from periph.io (for example via gpioreg.ByName after
// host.Init) can be wired into the driver directly:
//
//	p := gpioreg.ByName("GPIO17") // satisfies hal.Pin
//
// Simulated pins for testing live in the sim package.
//
// # Ports
//
// A Port groups eight pins into one bus segment. Bit 0 of a port value
// maps to the first pin, bit 7 to the last:
//
//	port, err := hal.NewPort(d0, d1, d2, d3, d4, d5, d6, d7)
//	err = port.Write(0xA5) // drives all eight pins as outputs
//
// # Delays
//
// SleepFunc is the delay primitive used for all chip timing. Durations
// passed to it are hard lower bounds from the device datasheet, never
// advisory; an implementation may block longer but must never return
// early.
package hal
