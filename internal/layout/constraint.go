// internal/layout/constraint.go
package layout

import (
	"fmt"
	"math"

	"github.com/xkilldash9x/boxflow/internal/style"
)

// SpaceKind tags how much space a parent offers along one axis.
type SpaceKind uint8

const (
	// Indefinite means the size is determined by content.
	Indefinite SpaceKind = iota
	// Definite means exactly Value is available.
	Definite
	// AtMost means up to Value is available (shrink-to-fit).
	AtMost
)

func (k SpaceKind) String() string {
	switch k {
	case Indefinite:
		return "indefinite"
	case Definite:
		return "definite"
	case AtMost:
		return "at-most"
	}
	return fmt.Sprintf("space(%d)", uint8(k))
}

// AvailableSpace is one axis of a Constraint. Value is ignored for Indefinite.
type AvailableSpace struct {
	Kind  SpaceKind
	Value float64
}

// DefiniteSpace offers exactly v.
func DefiniteSpace(v float64) AvailableSpace {
	return AvailableSpace{Kind: Definite, Value: sanitize(v)}
}

// AtMostSpace offers up to v.
func AtMostSpace(v float64) AvailableSpace {
	return AvailableSpace{Kind: AtMost, Value: sanitize(v)}
}

// IndefiniteSpace offers no bound.
func IndefiniteSpace() AvailableSpace {
	return AvailableSpace{}
}

func (a AvailableSpace) IsDefinite() bool { return a.Kind == Definite }

// Bounded reports whether the space carries a numeric limit.
func (a AvailableSpace) Bounded() bool { return a.Kind != Indefinite }

// Shrink reduces a bounded space by delta, flooring at 0.
func (a AvailableSpace) Shrink(delta float64) AvailableSpace {
	if a.Kind == Indefinite {
		return a
	}
	return AvailableSpace{Kind: a.Kind, Value: math.Max(0, a.Value-delta)}
}

// AsAtMost converts a bounded space to an AtMost bound.
func (a AvailableSpace) AsAtMost() AvailableSpace {
	if a.Kind == Indefinite {
		return a
	}
	return AvailableSpace{Kind: AtMost, Value: a.Value}
}

// normalize zeroes Value for Indefinite so the struct compares by meaning.
func (a AvailableSpace) normalize() AvailableSpace {
	if a.Kind == Indefinite {
		return AvailableSpace{}
	}
	if a.Kind > AtMost {
		return AvailableSpace{}
	}
	a.Value = sanitize(a.Value)
	return a
}

func (a AvailableSpace) String() string {
	if a.Kind == Indefinite {
		return "indefinite"
	}
	return fmt.Sprintf("%s(%g)", a.Kind, a.Value)
}

// Constraint is the pair of per-axis spaces a parent hands to a child.
type Constraint struct {
	Width, Height AvailableSpace
}

// Along returns the axis component of c.
func (c Constraint) Along(axis Axis) AvailableSpace {
	if axis == Horizontal {
		return c.Width
	}
	return c.Height
}

func (c *Constraint) set(axis Axis, a AvailableSpace) {
	if axis == Horizontal {
		c.Width = a
	} else {
		c.Height = a
	}
}

func (c Constraint) normalize() Constraint {
	return Constraint{Width: c.Width.normalize(), Height: c.Height.normalize()}
}

// Exact builds a fully Definite constraint.
func Exact(w, h float64) Constraint {
	return Constraint{Width: DefiniteSpace(w), Height: DefiniteSpace(h)}
}

func sanitize(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if math.IsInf(v, 1) {
		return math.MaxFloat64
	}
	return v
}

// -- Length Resolution --

// Resolved is a Length evaluated against its containing dimension.
type Resolved struct {
	Auto  bool
	Value float64
}

// Resolve turns a style length into pixels. Percentages only resolve against a
// Definite containing dimension; otherwise they behave like auto.
func Resolve(l style.Length, containing AvailableSpace) Resolved {
	switch l.Unit {
	case style.UnitFixed:
		return Resolved{Value: l.Value}
	case style.UnitPercent:
		if containing.Kind == Definite {
			return Resolved{Value: l.Value / 100 * containing.Value}
		}
	}
	return Resolved{Auto: true}
}

// resolveOr resolves l, substituting fallback for auto.
func resolveOr(l style.Length, containing AvailableSpace, fallback float64) float64 {
	r := Resolve(l, containing)
	if r.Auto {
		return fallback
	}
	return r.Value
}
