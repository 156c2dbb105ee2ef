// internal/layout/geometry.go
package layout

// -- Core Structures: Box Model --

// Axis represents a layout direction.
type Axis int

const (
	// Horizontal is the inline (x) axis.
	Horizontal Axis = iota
	// Vertical is the block (y) axis.
	Vertical
)

// Cross returns the perpendicular axis.
func (a Axis) Cross() Axis {
	if a == Horizontal {
		return Vertical
	}
	return Horizontal
}

// Size is a width/height pair.
type Size struct {
	Width, Height float64
}

// Along returns the extent of s on the given axis.
func (s Size) Along(axis Axis) float64 {
	if axis == Horizontal {
		return s.Width
	}
	return s.Height
}

type Rect struct {
	X, Y, Width, Height float64
}

// ExpandedBy returns a new rectangle grown outward by the edge sizes.
func (r Rect) ExpandedBy(e Edges) Rect {
	return Rect{
		X:      r.X - e.Left,
		Y:      r.Y - e.Top,
		Width:  r.Width + e.Left + e.Right,
		Height: r.Height + e.Top + e.Bottom,
	}
}

// Edges holds resolved pixel widths for the four sides of a box.
type Edges struct {
	Top, Right, Bottom, Left float64
}

// Add sums two edge sets side by side.
func (e Edges) Add(o Edges) Edges {
	return Edges{Top: e.Top + o.Top, Right: e.Right + o.Right, Bottom: e.Bottom + o.Bottom, Left: e.Left + o.Left}
}

// Horizontal returns left + right.
func (e Edges) Horizontal() float64 { return e.Left + e.Right }

// Vertical returns top + bottom.
func (e Edges) Vertical() float64 { return e.Top + e.Bottom }

// Sum returns the total along an axis.
func (e Edges) Sum(axis Axis) float64 {
	if axis == Horizontal {
		return e.Horizontal()
	}
	return e.Vertical()
}

// MainStart is the leading edge along axis.
func (e Edges) MainStart(axis Axis) float64 {
	if axis == Horizontal {
		return e.Left
	}
	return e.Top
}

// MainEnd is the trailing edge along axis.
func (e Edges) MainEnd(axis Axis) float64 {
	if axis == Horizontal {
		return e.Right
	}
	return e.Bottom
}

func (e *Edges) setStart(axis Axis, v float64) {
	if axis == Horizontal {
		e.Left = v
	} else {
		e.Top = v
	}
}

func (e *Edges) setEnd(axis Axis, v float64) {
	if axis == Horizontal {
		e.Right = v
	} else {
		e.Bottom = v
	}
}

// LayoutResult is the committed geometry of one node.
type LayoutResult struct {
	// X and Y locate the content box relative to the parent's content box.
	// A layout root is positioned relative to the origin of its available space.
	X, Y float64
	// Width and Height are the content box size.
	Width, Height float64

	Margin  Edges
	Border  Edges
	Padding Edges
}

// ContentBox returns the rectangle enclosing the content area.
func (r LayoutResult) ContentBox() Rect {
	return Rect{X: r.X, Y: r.Y, Width: r.Width, Height: r.Height}
}

// PaddingBox returns the rectangle enclosing the padding area.
func (r LayoutResult) PaddingBox() Rect {
	return r.ContentBox().ExpandedBy(r.Padding)
}

// BorderBox returns the rectangle enclosing the border area.
func (r LayoutResult) BorderBox() Rect {
	return r.PaddingBox().ExpandedBy(r.Border)
}

// MarginBox returns the rectangle enclosing the margin area.
func (r LayoutResult) MarginBox() Rect {
	return r.BorderBox().ExpandedBy(r.Margin)
}
