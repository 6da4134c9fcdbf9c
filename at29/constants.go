package at29

import "time"

// Device geometry for AT29C512-class parts.
const (
	// PageSize is the number of bytes the chip programs in one
	// internal operation. A page is the atomic programming unit.
	PageSize = 128

	// FlashSize is the total addressable capacity in bytes.
	FlashSize = 64 * 1024

	// NumPages is the number of pages on the chip (512).
	NumPages = FlashSize / PageSize
)

// Software command addresses per the AT29C512 datasheet. Every command
// sequence is written to these two reserved addresses regardless of
// which page is being operated on.
const (
	// CmdAddr1 is the first command address (0x5555).
	CmdAddr1 = 0x5555

	// CmdAddr2 is the second command address (0x2AAA).
	CmdAddr2 = 0x2AAA
)

// Command bytes per the AT29C512 datasheet. A command is issued by
// writing CmdUnlock1 to CmdAddr1, CmdUnlock2 to CmdAddr2, then the
// command byte to CmdAddr1.
const (
	// CmdUnlock1 is the first unlock byte (0xAA at 0x5555)
	CmdUnlock1 = 0xAA

	// CmdUnlock2 is the second unlock byte (0x55 at 0x2AAA)
	CmdUnlock2 = 0x55

	// CmdPageProgram enables a page load session; the following 128
	// byte writes are loaded into the page buffer
	CmdPageProgram = 0xA0

	// CmdEraseSetup arms chip erase; must be followed by a second
	// unlock sequence ending in CmdEraseConfirm
	CmdEraseSetup = 0x80

	// CmdEraseConfirm commits chip erase when armed by CmdEraseSetup
	CmdEraseConfirm = 0x10

	// CmdSoftwareIDEntry enters software product identification mode
	CmdSoftwareIDEntry = 0x90

	// CmdSoftwareIDExit leaves software product identification mode
	CmdSoftwareIDExit = 0xF0
)

// Addresses read while in software product identification mode.
const (
	// ManufacturerIDAddr holds the manufacturer code
	ManufacturerIDAddr = 0x0000

	// DeviceIDAddr holds the device code
	DeviceIDAddr = 0x0001
)

// Timing floors per the AT29C512 datasheet. All of these are hard
// lower bounds: configuration may lengthen them but never shorten them.
const (
	// DefaultWritePulse is the minimum write-pulse width and the
	// minimum recovery hold after deassert (tWP/tWPH)
	DefaultWritePulse = 1 * time.Microsecond

	// DefaultReadSettle is the minimum wait between asserting the read
	// strobes and sampling the data bus; must exceed the chip's access
	// time (tACC)
	DefaultReadSettle = 10 * time.Microsecond

	// DefaultPageCycle is the internal page program time (tWC). The
	// driver waits this long after loading a page instead of polling.
	DefaultPageCycle = 10 * time.Millisecond

	// DefaultEraseCycle is a conservative worst case for the internal
	// chip erase time (tEC)
	DefaultEraseCycle = 50 * time.Millisecond
)
