// Package sim provides a software model of the programmer hardware:
// in-memory pins satisfying hal.Pin and a behavioral AT29C512 flash
// chip attached to them.
//
// The chip reacts to the same electrical protocol as the physical
// part, so the driver can be exercised end to end without hardware:
//
//	chip := sim.New()
//	bus, _ := at29.NewBus(chip.Wiring())
//	drv := at29.New(bus, at29.WithSleep(func(time.Duration) {}))
//
//	_ = drv.WritePage(ctx, 3, payload)
//	got := chip.Page(3)
//
// Replacing the sleep primitive is safe here: the model latches on
// signal edges and needs no real time to pass.
//
// Software data protection, the double-sequence chip erase and the
// software product ID mode are all modeled, and every latched write
// cycle is recorded in Chip.Log so tests can assert exact command
// sequences.
package sim
