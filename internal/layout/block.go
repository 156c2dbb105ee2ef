// internal/layout/block.go
package layout

import (
	"math"

	"github.com/xkilldash9x/boxflow/internal/style"
)

// -- Block Flow --

// layoutBlock stacks in-flow children along the block axis. Margins between
// siblings are added, never collapsed.
func (p *pass) layoutBlock(n *node, s *style.ComputedStyle, req request) (*box, error) {
	f := newFrame(s, req.parent.Width)
	in := f.insets()
	wLim := limitsFor(s, Horizontal, req.parent.Width, in.Horizontal())
	hLim := limitsFor(s, Vertical, req.parent.Height, in.Vertical())
	width := resolveAxis(s, &f, req, Horizontal, wLim)
	height := resolveAxis(s, &f, req, Vertical, hLim)

	b := f.newBox()
	if n.measurer != nil && len(n.children) == 0 {
		sz, err := p.measure(n, width.space(), height.space())
		if err != nil {
			return nil, err
		}
		b.width = settle(width, sz.Width, wLim)
		b.height = settle(height, sz.Height, hLim)
		centerAutoMargins(b, &f, req.available.Width)
		return b, nil
	}

	flow, err := p.flowChildren(n, width, height)
	if err != nil {
		return nil, err
	}
	if !width.known {
		// Shrink-to-fit: settle on the widest child, then lay the children out
		// again against the now definite width so auto-width children fill it.
		width = axisSize{value: settle(width, flow.maxWidth, wLim), known: true}
		if flow, err = p.flowChildren(n, width, height); err != nil {
			return nil, err
		}
	}
	b.width = width.value
	b.height = settle(height, flow.height, hLim)
	b.children = flow.placements
	centerAutoMargins(b, &f, req.available.Width)

	abs, err := p.layoutAbsoluteChildren(flow.absolute, b)
	if err != nil {
		return nil, err
	}
	b.children = append(b.children, abs...)
	return b, nil
}

type blockFlow struct {
	placements []placement
	absolute   []*node
	height     float64
	maxWidth   float64
}

func (p *pass) flowChildren(n *node, width, height axisSize) (blockFlow, error) {
	var flow blockFlow
	childReq := request{
		available: Constraint{Width: width.space(), Height: height.containing()},
		parent:    Constraint{Width: width.containing(), Height: height.containing()},
	}
	for _, c := range n.children {
		cs := c.computed()
		if cs.Display == style.DisplayNone {
			flow.placements = append(flow.placements, placement{node: c, req: childReq})
			continue
		}
		if cs.Position == style.PositionAbsolute {
			flow.absolute = append(flow.absolute, c)
			continue
		}
		cb, err := p.compute(c, childReq)
		if err != nil {
			return blockFlow{}, err
		}
		x, y := cb.contentOrigin()
		flow.placements = append(flow.placements, placement{node: c, req: childReq, x: x, y: flow.height + y})
		outer := cb.outer()
		flow.height += outer.Height
		flow.maxWidth = math.Max(flow.maxWidth, outer.Width)
	}
	return flow, nil
}

// settle picks the final content size of an axis: the resolved size if known,
// otherwise the content size clamped by the bound and the min/max limits.
func settle(a axisSize, content float64, lim sizeLimits) float64 {
	if a.known {
		return a.value
	}
	if a.bound.Bounded() && content > a.bound.Value {
		content = a.bound.Value
	}
	return lim.clamp(content)
}
