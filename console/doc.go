// Package console serves the programmer's line-oriented serial
// command protocol.
//
// # Protocol
//
// Commands are single ASCII characters, some with arguments:
//
//	w<digit>  write the selected page: ASCII hex pairs follow, ended
//	          by a '*' sentinel or after 128 bytes; short input is
//	          zero-padded to a full page
//	d<digit>  dump the selected page as 8 lines of 16 space-separated
//	          hex pairs
//	e         erase the entire chip
//	i         report the chip's manufacturer and device codes
//
// Example session:
//
//	> w3DEADBEEF*
//	ok
//	> d3
//	DE AD BE EF 00 00 00 00 00 00 00 00 00 00 00 00
//	...
//
// # Error Handling
//
// The protocol is best effort: malformed hex digits and page indices
// decode to zero, unknown command bytes are skipped, and chip-level
// failures are reported as an "err ..." line without stopping the
// loop. Only transport failures terminate Run.
//
// # Transports
//
// Console works over any io.ReadWriter: a serial port, a network
// connection, or an in-memory pipe in tests. Writes buffer the full
// page before the driver is invoked, so a slow transport can never
// violate the chip's load-to-load timing.
package console
