package at29

import (
	"errors"
	"fmt"
)

// ErrBusHeld indicates a capture attempt while bus ownership is
// already held. Capture/release pairs must not nest or double-fire.
var ErrBusHeld = errors.New("bus ownership already held")

// ErrBusReleased indicates a transactor operation or release attempt
// outside a captured bus window.
var ErrBusReleased = errors.New("bus ownership not held")

// PageOutOfRangeError indicates a page index outside the chip's page range.
type PageOutOfRangeError struct {
	Page    int
	MaxPage int
}

func (e *PageOutOfRangeError) Error() string {
	return fmt.Sprintf("page %d is out of range: valid range is 0-%d", e.Page, e.MaxPage)
}

// PageSizeError indicates page data longer than the chip's page size.
// Shorter data is zero-padded, longer data cannot be split silently.
type PageSizeError struct {
	Size int
}

func (e *PageSizeError) Error() string {
	return fmt.Sprintf("page data is %d bytes, maximum is %d", e.Size, PageSize)
}
