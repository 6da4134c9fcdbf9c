package sim

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"

	"github.com/breadboardlabs/go-at29/at29"
	"github.com/breadboardlabs/go-at29/hal"
)

// Chip geometry and identification codes for the modeled part.
const (
	// PageSize is the chip's programming page size in bytes.
	PageSize = 128

	// FlashSize is the chip's capacity in bytes.
	FlashSize = 64 * 1024

	// ManufacturerID is the Atmel manufacturer code.
	ManufacturerID = 0x1F

	// DeviceID is the AT29C512 device code.
	DeviceID = 0x5D
)

// BusWrite is one write cycle as latched by the chip.
type BusWrite struct {
	Addr uint16
	Data byte
}

// Chip is a behavioral model of an AT29C512 parallel NOR flash wired
// to simulated pins. It watches the control strobes exactly as the
// physical part does: the later falling edge of CE/WE latches the
// address, the first rising edge latches the data, and reads are
// served onto the data bus whenever CE and OE are low with WE high.
//
// Software data protection is modeled: writes outside an unlock-opened
// page load session are ignored, chip erase requires the full double
// command sequence, and software ID mode substitutes the manufacturer
// and device codes for the first two array bytes.
//
// The chip starts fully erased (all 0xFF). Every latched write cycle,
// including command writes, is appended to Log for inspection.
type Chip struct {
	// AddrLow, AddrHigh and Data are the chip's bus connections,
	// ready to be placed in an at29.Wiring.
	AddrLow  *hal.Port
	AddrHigh *hal.Port
	Data     *hal.Port

	// CE, OE, WE and BufOE are the control line connections. BufOE is
	// not part of the chip proper; it models the external buffer
	// enable so tests can observe arbiter behavior.
	CE    *Pin
	OE    *Pin
	WE    *Pin
	BufOE *Pin

	// Log records every latched write cycle in order.
	Log []BusWrite

	addrPins [16]*Pin
	dataPins [8]*Pin

	mem [FlashSize]byte

	seq          int
	erasePending bool
	loading      bool
	loadCount    int
	idMode       bool

	writeActive bool
	writeAddr   uint16
}

// New creates a fully erased chip with all pins floating.
func New() *Chip {
	c := &Chip{}
	for i := range c.mem {
		c.mem[i] = 0xFF
	}

	for i := range c.addrPins {
		c.addrPins[i] = newPin(fmt.Sprintf("A%d", i))
	}
	for i := range c.dataPins {
		bit := i
		p := newPin(fmt.Sprintf("D%d", i))
		p.read = func() gpio.Level { return c.dataBit(bit) }
		c.dataPins[i] = p
	}

	c.CE = newPin("CE")
	c.CE.onChange = c.update
	c.WE = newPin("WE")
	c.WE.onChange = c.update
	c.OE = newPin("OE")
	c.BufOE = newPin("BUF_OE")

	low := make([]hal.Pin, 8)
	high := make([]hal.Pin, 8)
	data := make([]hal.Pin, 8)
	for i := 0; i < 8; i++ {
		low[i] = c.addrPins[i]
		high[i] = c.addrPins[i+8]
		data[i] = c.dataPins[i]
	}

	// The pin counts are fixed above, so these cannot fail.
	c.AddrLow, _ = hal.NewPort(low...)
	c.AddrHigh, _ = hal.NewPort(high...)
	c.Data, _ = hal.NewPort(data...)

	return c
}

// Wiring returns the chip's connections as a driver wiring.
func (c *Chip) Wiring() at29.Wiring {
	return at29.Wiring{
		AddrLow:  c.AddrLow,
		AddrHigh: c.AddrHigh,
		Data:     c.Data,
		CE:       c.CE,
		OE:       c.OE,
		WE:       c.WE,
		BufOE:    c.BufOE,
	}
}

// Load stores data directly into the chip's array at the given page,
// bypassing the command protocol. Test setup helper.
func (c *Chip) Load(page int, data []byte) {
	base := page * PageSize
	copy(c.mem[base:base+PageSize], data)
}

// Page returns a copy of the 128 bytes stored at the given page.
func (c *Chip) Page(page int) []byte {
	base := page * PageSize
	out := make([]byte, PageSize)
	copy(out, c.mem[base:base+PageSize])
	return out
}

// Byte returns the array byte at addr.
func (c *Chip) Byte(addr uint16) byte {
	return c.mem[addr]
}

// update runs on every CE or WE transition and models the chip's
// write latching.
func (c *Chip) update() {
	ce := c.ctrl(c.CE)
	we := c.ctrl(c.WE)

	// The later falling edge of CE/WE opens the cycle and latches the
	// address present on the bus at that moment.
	if !c.writeActive && ce == gpio.Low && we == gpio.Low {
		c.writeActive = true
		c.writeAddr = c.sampleAddr()
		return
	}

	// The first rising edge latches the data and ends the cycle.
	if c.writeActive && (ce == gpio.High || we == gpio.High) {
		c.writeActive = false
		c.latch(c.writeAddr, c.sampleData())
	}
}

// latch commits one write cycle into the software-data-protection
// state machine. Command sequences per the AT29C512 datasheet.
func (c *Chip) latch(addr uint16, d byte) {
	c.Log = append(c.Log, BusWrite{Addr: addr, Data: d})

	// A load session only closes after a full page of writes. The real
	// chip would instead commit a partial load after its internal byte
	// load timeout (~200us); that timeout is not modeled, so a partial
	// session would swallow the next command's unlock writes as data.
	// The driver always issues exactly PageSize loads per session.
	if c.loading {
		c.mem[addr] = d
		c.loadCount++
		if c.loadCount == PageSize {
			c.loading = false
		}
		return
	}

	switch {
	case c.seq == 0 && addr == 0x5555 && d == 0xAA:
		c.seq = 1
	case c.seq == 1 && addr == 0x2AAA && d == 0x55:
		c.seq = 2
	case c.seq == 2 && addr == 0x5555:
		c.seq = 0
		switch d {
		case 0xA0:
			c.loading = true
			c.loadCount = 0
			c.erasePending = false
		case 0x80:
			c.erasePending = true
		case 0x10:
			if c.erasePending {
				for i := range c.mem {
					c.mem[i] = 0xFF
				}
			}
			c.erasePending = false
		case 0x90:
			c.idMode = true
			c.erasePending = false
		case 0xF0:
			c.idMode = false
			c.erasePending = false
		default:
			c.erasePending = false
		}
	default:
		// Software data protection: stray writes are ignored. A write
		// of the first unlock byte restarts sequence tracking.
		c.seq = 0
		if addr == 0x5555 && d == 0xAA {
			c.seq = 1
		}
	}
}

// dataBit serves the data bus. While a read window is open (CE and OE
// low, WE high) the chip drives the array byte, or the ID codes in
// software ID mode; otherwise the controller's driven level is seen.
func (c *Chip) dataBit(bit int) gpio.Level {
	if c.reading() {
		return gpio.Level(c.outputByte()&(1<<bit) != 0)
	}
	return c.dataPins[bit].level
}

func (c *Chip) reading() bool {
	return c.ctrl(c.CE) == gpio.Low &&
		c.ctrl(c.OE) == gpio.Low &&
		c.ctrl(c.WE) == gpio.High
}

func (c *Chip) outputByte() byte {
	addr := c.sampleAddr()
	if c.idMode {
		switch addr {
		case 0x0000:
			return ManufacturerID
		case 0x0001:
			return DeviceID
		}
	}
	return c.mem[addr]
}

// ctrl returns the effective level of a control line. Released lines
// read high: the board pulls the strobes up when nobody drives them.
func (c *Chip) ctrl(p *Pin) gpio.Level {
	if p.driven() {
		return p.level
	}
	return gpio.High
}

func (c *Chip) sampleAddr() uint16 {
	var a uint16
	for i, p := range c.addrPins {
		if p.driven() && p.level == gpio.High {
			a |= 1 << i
		}
	}
	return a
}

func (c *Chip) sampleData() byte {
	var d byte
	for i, p := range c.dataPins {
		if p.driven() && p.level == gpio.High {
			d |= 1 << i
		}
	}
	return d
}
