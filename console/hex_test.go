package console

import (
	"strings"
	"testing"
)

func TestDecodeNibble(t *testing.T) {
	tests := []struct {
		name string
		in   byte
		want byte
	}{
		{name: "digit zero", in: '0', want: 0x0},
		{name: "digit nine", in: '9', want: 0x9},
		{name: "upper A", in: 'A', want: 0xA},
		{name: "upper F", in: 'F', want: 0xF},
		{name: "lower a", in: 'a', want: 0xA},
		{name: "lower f", in: 'f', want: 0xF},
		{name: "malformed letter decodes to zero", in: 'G', want: 0x0},
		{name: "malformed punctuation decodes to zero", in: '!', want: 0x0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := decodeNibble(tt.in); got != tt.want {
				t.Errorf("decodeNibble(%q) = 0x%X, want 0x%X", tt.in, got, tt.want)
			}
		})
	}
}

func TestFormatPage(t *testing.T) {
	data := make([]byte, 128)
	for i := range data {
		data[i] = byte(i)
	}

	out := FormatPage(data)
	lines := strings.Split(strings.TrimRight(out, "\r\n"), "\r\n")
	if len(lines) != 8 {
		t.Fatalf("got %d lines, want 8", len(lines))
	}
	if lines[0] != "00 01 02 03 04 05 06 07 08 09 0A 0B 0C 0D 0E 0F" {
		t.Errorf("first line = %q", lines[0])
	}
	if lines[7] != "70 71 72 73 74 75 76 77 78 79 7A 7B 7C 7D 7E 7F" {
		t.Errorf("last line = %q", lines[7])
	}
}

func TestFormatPagePartialLine(t *testing.T) {
	out := FormatPage([]byte{0xDE, 0xAD})
	if out != "DE AD\r\n" {
		t.Errorf("FormatPage = %q", out)
	}
}

func TestFormatPageEmpty(t *testing.T) {
	if out := FormatPage(nil); out != "" {
		t.Errorf("FormatPage(nil) = %q, want empty", out)
	}
}
