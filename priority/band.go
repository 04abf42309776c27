// Package priority models the real-time priority band the dispatcher
// assigns to workers, without exposing raw OS priority numbers to the
// scheduling logic (see the design notes on priority arithmetic).
package priority

import "fmt"

// Band is an opaque real-time priority, anchored at either end of the
// usable RT range and shiftable by integer offsets. Two Bands compare
// equal only if they were derived from the same anchor with the same net
// offset; callers never construct a Band from a raw integer.
type Band struct {
	anchor anchor
	offset int
}

type anchor int

const (
	anchorMax anchor = iota
	anchorMin
)

// Max returns the highest usable RT priority band (rt_max).
func Max() Band { return Band{anchor: anchorMax} }

// Min returns the lowest usable RT priority band (rt_min).
func Min() Band { return Band{anchor: anchorMin} }

// Minus returns the band k steps below b.
func (b Band) Minus(k int) Band { return Band{anchor: b.anchor, offset: b.offset - k} }

// Plus returns the band k steps above b.
func (b Band) Plus(k int) Band { return Band{anchor: b.anchor, offset: b.offset + k} }

// Resolve converts the band to a concrete OS priority number given the
// usable range [min, max] the platform reports. Offsets that would escape
// the range saturate at the boundary rather than wrapping: a chain of
// decrements from rt_max that runs past the floor resolves to min, the
// same number rt_min resolves to.
func (b Band) Resolve(min, max int) int {
	var v int
	switch b.anchor {
	case anchorMax:
		v = max + b.offset
	case anchorMin:
		v = min + b.offset
	}
	if v > max {
		return max
	}
	if v < min {
		return min
	}
	return v
}

func (b Band) String() string {
	name := "rt_max"
	if b.anchor == anchorMin {
		name = "rt_min"
	}
	switch {
	case b.offset > 0:
		return fmt.Sprintf("%s + %d", name, b.offset)
	case b.offset < 0:
		return fmt.Sprintf("%s - %d", name, -b.offset)
	default:
		return name
	}
}
