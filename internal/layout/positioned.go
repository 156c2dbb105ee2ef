// internal/layout/positioned.go
package layout

import (
	"math"

	"github.com/xkilldash9x/boxflow/internal/style"
)

// layoutAbsoluteChildren places out-of-flow children against the parent's
// padding box once the parent size is final. Offsets are relative to the
// parent's content box like every other placement.
func (p *pass) layoutAbsoluteChildren(nodes []*node, parent *box) ([]placement, error) {
	if len(nodes) == 0 {
		return nil, nil
	}
	pw := parent.width + parent.padding.Horizontal()
	ph := parent.height + parent.padding.Vertical()
	containing := Constraint{Width: DefiniteSpace(pw), Height: DefiniteSpace(ph)}

	out := make([]placement, 0, len(nodes))
	for _, c := range nodes {
		s := c.computed()
		f := newFrame(s, containing.Width)
		in := f.insets()
		left := Resolve(s.Inset.Left, containing.Width)
		right := Resolve(s.Inset.Right, containing.Width)
		top := Resolve(s.Inset.Top, containing.Height)
		bottom := Resolve(s.Inset.Bottom, containing.Height)

		req := request{parent: containing}
		req.size.Width, req.available.Width = insetSpan(s.Width, left, right, pw, f.margin.Horizontal(), s.BoxSizing, in.Horizontal())
		req.size.Height, req.available.Height = insetSpan(s.Height, top, bottom, ph, f.margin.Vertical(), s.BoxSizing, in.Vertical())

		cb, err := p.compute(c, req)
		if err != nil {
			return nil, err
		}
		outer := cb.outer()
		ox, oy := cb.contentOrigin()
		x := insetOffset(left, right, pw, outer.Width) + ox - parent.padding.Left
		y := insetOffset(top, bottom, ph, outer.Height) + oy - parent.padding.Top
		out = append(out, placement{node: c, req: req, x: x, y: y})
	}
	return out, nil
}

// insetSpan derives the imposed border-box size and the available space for
// one axis of an absolutely positioned box. With both insets set and an auto
// size, the box stretches between them.
func insetSpan(size style.Length, start, end Resolved, containing, margins float64, sizing style.BoxSizing, inset float64) (imposed, available AvailableSpace) {
	room := containing
	if !start.Auto {
		room -= start.Value
	}
	if !end.Auto {
		room -= end.Value
	}
	room = math.Max(0, room)
	if r := Resolve(size, DefiniteSpace(containing)); !r.Auto {
		v := r.Value
		if sizing == style.ContentBox {
			v += inset
		}
		return DefiniteSpace(math.Max(v, inset)), DefiniteSpace(room)
	}
	if !start.Auto && !end.Auto {
		return DefiniteSpace(math.Max(room-margins, inset)), DefiniteSpace(room)
	}
	return IndefiniteSpace(), AtMostSpace(room)
}

// insetOffset returns the margin-box start within the padding box.
func insetOffset(start, end Resolved, containing, outer float64) float64 {
	switch {
	case !start.Auto:
		return start.Value
	case !end.Auto:
		return containing - end.Value - outer
	}
	return 0
}
