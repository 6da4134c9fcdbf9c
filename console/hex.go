package console

import (
	"fmt"
	"strings"
)

// Sentinel terminates the hex byte stream of a write command before a
// full page has been supplied.
const Sentinel = '*'

// BytesPerLine is the page dump formatting width.
const BytesPerLine = 16

// decodeNibble converts one ASCII hex digit to its value. Malformed
// digits decode to zero: the protocol continues best effort instead of
// raising conditions.
func decodeNibble(b byte) byte {
	switch {
	case b >= '0' && b <= '9':
		return b - '0'
	case b >= 'A' && b <= 'F':
		return b - 'A' + 10
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10
	}
	return 0
}

func hexDigit(b byte) bool {
	return (b >= '0' && b <= '9') || (b >= 'A' && b <= 'F') || (b >= 'a' && b <= 'f')
}

// FormatPage renders page data as space-separated uppercase hex byte
// pairs, BytesPerLine per line, each line terminated with CRLF.
func FormatPage(data []byte) string {
	var sb strings.Builder
	for i, b := range data {
		if i%BytesPerLine != 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%02X", b)
		if (i+1)%BytesPerLine == 0 {
			sb.WriteString("\r\n")
		}
	}
	if len(data)%BytesPerLine != 0 {
		sb.WriteString("\r\n")
	}
	return sb.String()
}
