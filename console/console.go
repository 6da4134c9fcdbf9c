package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/breadboardlabs/go-at29/at29"
)

// Flash is the set of chip operations the console dispatches to.
// *at29.Driver satisfies it; tests substitute an in-memory fake.
type Flash interface {
	WritePage(ctx context.Context, page int, data []byte) error
	ReadPage(ctx context.Context, page int) ([]byte, error)
	ChipErase(ctx context.Context) error
	ProductID(ctx context.Context) (manufacturer, device byte, err error)
}

// Config holds the console configuration.
type Config struct {
	// Logger is used for logging operations (optional)
	Logger at29.Logger
}

// Option is a functional option for configuring the Console.
type Option func(*Config)

// WithLogger sets a logger for console operations.
func WithLogger(logger at29.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// Console serves the line-oriented programming protocol over a byte
// stream, typically a serial port:
//
//	w<digit> <hex pairs>*   write a page, zero-padded, '*' terminated
//	d<digit>                dump a page as hex, 16 bytes per line
//	e                       erase the whole chip
//	i                       read the chip's product identification
//
// The loop is single-threaded and fully synchronous: one command runs
// to completion before the next byte is read. Unrecognized bytes and
// whitespace between commands are skipped. Chip-level failures are
// reported on the stream and the loop continues; only transport
// failures end it.
type Console struct {
	rw     io.ReadWriter
	flash  Flash
	config Config
	br     *bufio.Reader
}

// New creates a Console reading commands from and writing responses to
// rw, executing them against flash.
func New(rw io.ReadWriter, flash Flash, opts ...Option) *Console {
	if rw == nil {
		panic("rw cannot be nil")
	}
	if flash == nil {
		panic("flash cannot be nil")
	}

	cfg := Config{}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Console{
		rw:     rw,
		flash:  flash,
		config: cfg,
		br:     bufio.NewReader(rw),
	}
}

// Run processes commands until the stream ends or the context is
// cancelled. Cancellation is honored between commands only; a command
// already started runs to completion.
func (c *Console) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		cmd, err := c.br.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("read command: %w", err)
		}

		switch cmd {
		case 'w':
			err = c.writePage(ctx)
		case 'd':
			err = c.dumpPage(ctx)
		case 'e':
			err = c.eraseChip(ctx)
		case 'i':
			err = c.productID(ctx)
		default:
			// Whitespace and unknown bytes between commands.
			continue
		}

		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
}

// writePage handles 'w': one decimal page digit, then hex pairs until
// the sentinel or a full page. Short input is zero-padded; the page is
// buffered completely before the driver is invoked, so the chip's
// load-to-load interval never depends on transport speed.
func (c *Console) writePage(ctx context.Context) error {
	page, err := c.readPageIndex()
	if err != nil {
		return err
	}

	var buf [at29.PageSize]byte
	count := 0
	var hi byte
	haveHi := false

collect:
	for count < at29.PageSize {
		b, err := c.br.ReadByte()
		if err != nil {
			return err
		}
		switch {
		case b == Sentinel:
			break collect
		case b == ' ' || b == '\t' || b == '\r' || b == '\n':
			continue
		}
		if !hexDigit(b) {
			c.logDebug("malformed hex digit decodes to zero", "byte", fmt.Sprintf("0x%02X", b))
		}
		if !haveHi {
			hi = b
			haveHi = true
			continue
		}
		buf[count] = decodeNibble(hi)<<4 | decodeNibble(b)
		count++
		haveHi = false
	}
	if haveHi {
		c.logDebug("dangling hex digit before sentinel dropped", "page", page)
	}

	if err := c.flash.WritePage(ctx, page, buf[:]); err != nil {
		return c.reportError("write", err)
	}

	c.logDebug("page written", "page", page, "bytes", count)
	return c.ack()
}

// dumpPage handles 'd': one decimal page digit, then the page contents
// as 8 lines of 16 hex pairs.
func (c *Console) dumpPage(ctx context.Context) error {
	page, err := c.readPageIndex()
	if err != nil {
		return err
	}

	data, err := c.flash.ReadPage(ctx, page)
	if err != nil {
		return c.reportError("dump", err)
	}

	if _, err := io.WriteString(c.rw, FormatPage(data)); err != nil {
		return fmt.Errorf("write response: %w", err)
	}
	return nil
}

// eraseChip handles 'e'.
func (c *Console) eraseChip(ctx context.Context) error {
	if err := c.flash.ChipErase(ctx); err != nil {
		return c.reportError("erase", err)
	}
	return c.ack()
}

// productID handles 'i': responds with the manufacturer and device
// codes as one line of two hex pairs.
func (c *Console) productID(ctx context.Context) error {
	manufacturer, device, err := c.flash.ProductID(ctx)
	if err != nil {
		return c.reportError("id", err)
	}

	if _, err := fmt.Fprintf(c.rw, "%02X %02X\r\n", manufacturer, device); err != nil {
		return fmt.Errorf("write response: %w", err)
	}
	return nil
}

// readPageIndex reads the single decimal page digit following 'w' or
// 'd'. A non-digit decodes to page zero, the same best-effort rule the
// hex path uses.
func (c *Console) readPageIndex() (int, error) {
	b, err := c.br.ReadByte()
	if err != nil {
		return 0, err
	}
	if b < '0' || b > '9' {
		c.logDebug("page index is not a decimal digit", "byte", fmt.Sprintf("0x%02X", b))
		return 0, nil
	}
	return int(b - '0'), nil
}

// ack confirms a completed command so a line-mode host can
// re-synchronize.
func (c *Console) ack() error {
	if _, err := io.WriteString(c.rw, "ok\r\n"); err != nil {
		return fmt.Errorf("write response: %w", err)
	}
	return nil
}

// reportError puts a chip-level failure on the stream and keeps the
// command loop alive. Only a transport failure is returned.
func (c *Console) reportError(op string, opErr error) error {
	c.logError(op+" failed", "err", opErr.Error())
	if _, err := fmt.Fprintf(c.rw, "err %s: %v\r\n", op, opErr); err != nil {
		return fmt.Errorf("write response: %w", err)
	}
	return nil
}

// logDebug logs a debug message if a logger is configured.
func (c *Console) logDebug(msg string, keysAndValues ...interface{}) {
	if c.config.Logger != nil {
		c.config.Logger.Debug(msg, keysAndValues...)
	}
}

// logError logs an error message if a logger is configured.
func (c *Console) logError(msg string, keysAndValues ...interface{}) {
	if c.config.Logger != nil {
		c.config.Logger.Error(msg, keysAndValues...)
	}
}
