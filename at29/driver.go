package at29

import (
	"context"
	"fmt"
)

// Driver issues the chip's multi-byte command sequences on top of a
// Bus: page program, chip erase, page read and software product ID.
//
// Every operation captures bus ownership on entry and releases it on
// every return path, so ownership always reverts to the external
// master before the operation completes. Once a sequence has started
// it runs to completion including its fixed wait; the context is
// only honored before the bus is captured.
type Driver struct {
	bus    *Bus
	config Config
}

// New creates a Driver over the given bus. The driver starts from the
// bus's configuration and applies opts on top, then shares the result
// with the bus, so timing and sleep options given to either
// constructor stay consistent across both halves.
//
// Example:
//
//	bus, err := at29.NewBus(wiring)
//	drv := at29.New(bus,
//	    at29.WithLogger(myLogger),
//	    at29.WithEraseCycle(100*time.Millisecond),
//	)
func New(bus *Bus, opts ...Option) *Driver {
	if bus == nil {
		panic("bus cannot be nil")
	}

	cfg := bus.config
	for _, opt := range opts {
		opt(&cfg)
	}
	bus.config = cfg

	return &Driver{
		bus:    bus,
		config: cfg,
	}
}

// WritePage programs one 128-byte page. Data shorter than PageSize is
// zero-padded; longer data is rejected with a PageSizeError.
//
// The full page is buffered before the first bus transition, so the
// chip's load-to-load interval limit is never exposed to the caller's
// data source. Callers streaming from a slow transport must collect
// the page first and hand it over complete.
//
// Sequence: unlock (0xAA@0x5555, 0x55@0x2AAA, 0xA0@0x5555), then the
// 128 bytes in strictly ascending address order with no other bus
// activity in between, then the page program wait.
func (d *Driver) WritePage(ctx context.Context, page int, data []byte) (err error) {
	if err = ctx.Err(); err != nil {
		return fmt.Errorf("cancelled: %w", err)
	}
	if page < 0 || page >= NumPages {
		return &PageOutOfRangeError{Page: page, MaxPage: NumPages - 1}
	}
	if len(data) > PageSize {
		return &PageSizeError{Size: len(data)}
	}

	var buf [PageSize]byte
	copy(buf[:], data)

	base := uint16(page) * PageSize

	if err = d.bus.Capture(); err != nil {
		return fmt.Errorf("capture bus: %w", err)
	}
	defer func() {
		if rerr := d.bus.Release(); rerr != nil && err == nil {
			err = fmt.Errorf("release bus: %w", rerr)
		}
	}()

	if err = d.bus.OutputMode(); err != nil {
		return err
	}
	if err = d.command(CmdPageProgram); err != nil {
		return fmt.Errorf("page program command: %w", err)
	}
	for i := 0; i < PageSize; i++ {
		if err = d.bus.WriteByte(base+uint16(i), buf[i]); err != nil {
			return fmt.Errorf("load byte %d: %w", i, err)
		}
	}

	// The chip commits the page internally; no status polling, the
	// fixed wait is the contract.
	d.config.Sleep(d.config.PageCycle)

	d.logDebug("page programmed", "page", page, "base", fmt.Sprintf("0x%04X", base))
	return nil
}

// ReadPage reads one 128-byte page. No command sequence is needed;
// reads are plain array accesses.
func (d *Driver) ReadPage(ctx context.Context, page int) (data []byte, err error) {
	if err = ctx.Err(); err != nil {
		return nil, fmt.Errorf("cancelled: %w", err)
	}
	if page < 0 || page >= NumPages {
		return nil, &PageOutOfRangeError{Page: page, MaxPage: NumPages - 1}
	}

	base := uint16(page) * PageSize

	if err = d.bus.Capture(); err != nil {
		return nil, fmt.Errorf("capture bus: %w", err)
	}
	defer func() {
		if rerr := d.bus.Release(); rerr != nil && err == nil {
			err = fmt.Errorf("release bus: %w", rerr)
			data = nil
		}
	}()

	buf := make([]byte, PageSize)
	for i := range buf {
		if buf[i], err = d.bus.ReadByte(base + uint16(i)); err != nil {
			return nil, fmt.Errorf("read byte %d: %w", i, err)
		}
	}

	d.logDebug("page read", "page", page, "base", fmt.Sprintf("0x%04X", base))
	return buf, nil
}

// ChipErase erases the entire chip to 0xFF. The operation is
// irreversible, covers the whole array, and is committed by a fixed
// conservative wait instead of completion polling.
//
// Sequence: unlock with 0x80 (erase setup), then a second unlock with
// 0x10 (erase confirm), then the erase wait. No address-specific data
// is involved.
func (d *Driver) ChipErase(ctx context.Context) (err error) {
	if err = ctx.Err(); err != nil {
		return fmt.Errorf("cancelled: %w", err)
	}

	if err = d.bus.Capture(); err != nil {
		return fmt.Errorf("capture bus: %w", err)
	}
	defer func() {
		if rerr := d.bus.Release(); rerr != nil && err == nil {
			err = fmt.Errorf("release bus: %w", rerr)
		}
	}()

	if err = d.bus.OutputMode(); err != nil {
		return err
	}
	if err = d.command(CmdEraseSetup); err != nil {
		return fmt.Errorf("erase setup command: %w", err)
	}
	if err = d.command(CmdEraseConfirm); err != nil {
		return fmt.Errorf("erase confirm command: %w", err)
	}

	d.config.Sleep(d.config.EraseCycle)

	d.logInfo("chip erased")
	return nil
}

// ProductID reads the chip's software product identification codes:
// the manufacturer byte at address 0x0000 and the device byte at
// address 0x0001. The chip is returned to normal read mode before the
// bus is released.
func (d *Driver) ProductID(ctx context.Context) (manufacturer, device byte, err error) {
	if err = ctx.Err(); err != nil {
		return 0, 0, fmt.Errorf("cancelled: %w", err)
	}

	if err = d.bus.Capture(); err != nil {
		return 0, 0, fmt.Errorf("capture bus: %w", err)
	}
	defer func() {
		if rerr := d.bus.Release(); rerr != nil && err == nil {
			err = fmt.Errorf("release bus: %w", rerr)
		}
	}()

	if err = d.bus.OutputMode(); err != nil {
		return 0, 0, err
	}
	if err = d.command(CmdSoftwareIDEntry); err != nil {
		return 0, 0, fmt.Errorf("software ID entry: %w", err)
	}
	d.config.Sleep(d.config.PageCycle)

	if err = d.bus.floatData(); err != nil {
		return 0, 0, err
	}
	if manufacturer, err = d.bus.ReadByte(ManufacturerIDAddr); err != nil {
		return 0, 0, fmt.Errorf("read manufacturer code: %w", err)
	}
	if device, err = d.bus.ReadByte(DeviceIDAddr); err != nil {
		return 0, 0, fmt.Errorf("read device code: %w", err)
	}

	if err = d.command(CmdSoftwareIDExit); err != nil {
		return 0, 0, fmt.Errorf("software ID exit: %w", err)
	}
	d.config.Sleep(d.config.PageCycle)

	d.logDebug("product ID read",
		"manufacturer", fmt.Sprintf("0x%02X", manufacturer),
		"device", fmt.Sprintf("0x%02X", device),
	)
	return manufacturer, device, nil
}

// command issues one three-write software command sequence: the two
// unlock bytes followed by the command byte.
func (d *Driver) command(cmd byte) error {
	if err := d.bus.WriteByte(CmdAddr1, CmdUnlock1); err != nil {
		return fmt.Errorf("unlock 1: %w", err)
	}
	if err := d.bus.WriteByte(CmdAddr2, CmdUnlock2); err != nil {
		return fmt.Errorf("unlock 2: %w", err)
	}
	if err := d.bus.WriteByte(CmdAddr1, cmd); err != nil {
		return fmt.Errorf("command byte 0x%02X: %w", cmd, err)
	}
	return nil
}

// logDebug logs a debug message if a logger is configured.
func (d *Driver) logDebug(msg string, keysAndValues ...interface{}) {
	if d.config.Logger != nil {
		d.config.Logger.Debug(msg, keysAndValues...)
	}
}

// logInfo logs an info message if a logger is configured.
func (d *Driver) logInfo(msg string, keysAndValues ...interface{}) {
	if d.config.Logger != nil {
		d.config.Logger.Info(msg, keysAndValues...)
	}
}
