// internal/layout/inline.go
package layout

import (
	"github.com/xkilldash9x/boxflow/internal/style"
)

// layoutInline hands sizing to the measurer. Inline boxes are terminal: their
// children are not laid out, and without a measurer the content is empty.
func (p *pass) layoutInline(n *node, s *style.ComputedStyle, req request) (*box, error) {
	f := newFrame(s, req.parent.Width)
	in := f.insets()
	b := f.newBox()
	b.terminal = true

	var width AvailableSpace
	if imposed := req.size.Width; imposed.IsDefinite() {
		width = imposed.Shrink(in.Horizontal())
	} else {
		width = req.available.Width.Shrink(f.margin.Horizontal() + in.Horizontal()).AsAtMost()
	}
	var height AvailableSpace
	if imposed := req.size.Height; imposed.IsDefinite() {
		height = imposed.Shrink(in.Vertical())
	}

	var content Size
	if n.measurer != nil {
		sz, err := p.measure(n, width, height)
		if err != nil {
			return nil, err
		}
		content = sz
	}
	b.width = content.Width
	if width.IsDefinite() {
		b.width = width.Value
	}
	b.height = content.Height
	if height.IsDefinite() {
		b.height = height.Value
	}
	return b, nil
}
