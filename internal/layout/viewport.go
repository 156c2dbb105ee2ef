// internal/layout/viewport.go
package layout

// Viewport is the host-reported environment a layout root is sized against.
// An axis the host declines to report lays out as Indefinite.
type Viewport struct {
	Width, Height       float64
	HasWidth, HasHeight bool
}

// NewViewport reports both axes.
func NewViewport(width, height float64) Viewport {
	return Viewport{Width: width, Height: height, HasWidth: true, HasHeight: true}
}

// Constraint converts the viewport into the root constraint.
func (v Viewport) Constraint() Constraint {
	var c Constraint
	if v.HasWidth {
		c.Width = DefiniteSpace(v.Width)
	}
	if v.HasHeight {
		c.Height = DefiniteSpace(v.Height)
	}
	return c
}
