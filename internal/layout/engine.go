// internal/layout/engine.go
package layout

import (
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/boxflow/internal/style"
)

// request is what a parent asks of a child. It doubles as the cache key once
// normalized by keyFor.
type request struct {
	// size is the border-box size imposed by the parent. Definite axes are fixed.
	size Constraint
	// available is the space offered to the child's margin box.
	available Constraint
	// parent is the containing block content size, used for percentages.
	parent Constraint
}

// keyFor drops the containing block from the key when nothing in the style
// refers to it, so the same entry serves every parent size.
func (r request) keyFor(s *style.ComputedStyle) request {
	r.size = r.size.normalize()
	r.available = r.available.normalize()
	if s.HasPercentages() {
		r.parent = r.parent.normalize()
	} else {
		r.parent = Constraint{}
	}
	return r
}

// box is a computed, uncommitted layout of one node for one request.
type box struct {
	width, height float64
	margin        Edges
	border        Edges
	padding       Edges
	hidden        bool
	terminal      bool // children are not laid out and commit zero results
	children      []placement
}

// placement records where a parent put a child and what it asked for, so a
// cached parent can replay its children's commits.
type placement struct {
	node *node
	req  request
	x, y float64
	// margins replaces the child's own margins when the parent resolved its
	// auto margins (flex items).
	margins         Edges
	overrideMargins bool
}

func (b *box) insets() Edges { return b.border.Add(b.padding) }

// outer is the margin box size.
func (b *box) outer() Size {
	e := b.margin.Add(b.insets())
	return Size{Width: b.width + e.Horizontal(), Height: b.height + e.Vertical()}
}

func (b *box) contentSize() Size { return Size{Width: b.width, Height: b.height} }

// contentOrigin is the offset of the content box from the margin box corner.
func (b *box) contentOrigin() (float64, float64) {
	return b.margin.Left + b.border.Left + b.padding.Left, b.margin.Top + b.border.Top + b.padding.Top
}

func (b *box) result(x, y float64) LayoutResult {
	return LayoutResult{
		X: x, Y: y,
		Width: b.width, Height: b.height,
		Margin: b.margin, Border: b.border, Padding: b.padding,
	}
}

// Stats counts engine work since the arena was created.
type Stats struct {
	Passes       int
	CacheHits    int
	CacheMisses  int
	Measurements int
}

// Stats returns a copy of the engine counters.
func (a *Arena) Stats() Stats { return a.stats }

// -- Entry Points --

// ComputeLayout lays out the tree rooted at root within available space and
// commits the results. Percentages at the root resolve against available.
func (a *Arena) ComputeLayout(root Handle, available Constraint) (LayoutResult, error) {
	return a.run(root, available, available, true)
}

// ComputeLayoutWithContainingSize is ComputeLayout with a separate containing
// block for resolving the root's percentages.
func (a *Arena) ComputeLayoutWithContainingSize(root Handle, available, containing Constraint) (LayoutResult, error) {
	return a.run(root, available, containing, true)
}

// ComputeLayoutInViewport sizes the root against the host-reported viewport.
func (a *Arena) ComputeLayoutInViewport(root Handle, vp Viewport) (LayoutResult, error) {
	c := vp.Constraint()
	return a.run(root, c, c, true)
}

// DryLayout computes and commits geometry but leaves dirty flags untouched, so
// hosts tracking dirtiness still see the pending changes.
func (a *Arena) DryLayout(root Handle, available Constraint) (LayoutResult, error) {
	return a.run(root, available, available, false)
}

func (a *Arena) run(root Handle, available, containing Constraint, clearDirty bool) (LayoutResult, error) {
	n, err := a.lookup(root)
	if err != nil {
		return LayoutResult{}, err
	}
	if a.inPass {
		return LayoutResult{}, fmt.Errorf("%w: pass already running", ErrReentrantLayout)
	}
	if a.notifying > 0 {
		return LayoutResult{}, fmt.Errorf("%w: layout started from a dirty observer", ErrReentrantLayout)
	}
	if err := a.checkLimits(n); err != nil {
		return LayoutResult{}, err
	}

	a.inPass = true
	defer func() { a.inPass = false }()
	start := time.Now()

	p := &pass{arena: a, staged: make(map[*node]LayoutResult)}
	req := request{available: available.normalize(), parent: containing.normalize()}
	b, err := p.compute(n, req)
	if err == nil {
		x, y := b.contentOrigin()
		err = p.stage(n, b, x, y)
	}
	if err != nil {
		a.logger.Warn("Layout pass aborted; previous results retained.",
			zap.Stringer("root", root), zap.Error(err))
		return LayoutResult{}, err
	}

	for nd, r := range p.staged {
		nd.result = r
	}
	if clearDirty {
		walk(n, func(d *node) bool {
			d.dirty = false
			return true
		})
	}
	a.stats.Passes++
	a.logger.Debug("Layout pass committed.",
		zap.Stringer("root", root),
		zap.Stringer("width", available.Width),
		zap.Stringer("height", available.Height),
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("nodes", len(p.staged)),
		zap.Int("cache_misses", p.misses),
		zap.Int("cache_hits", p.hits))
	return n.result, nil
}

func (a *Arena) checkLimits(root *node) error {
	if a.maxDepth <= 0 && a.maxNodes <= 0 {
		return nil
	}
	count := 0
	var visit func(n *node, depth int) error
	visit = func(n *node, depth int) error {
		count++
		if a.maxDepth > 0 && depth > a.maxDepth {
			return fmt.Errorf("%w: depth %d > %d", ErrLimitExceeded, depth, a.maxDepth)
		}
		if a.maxNodes > 0 && count > a.maxNodes {
			return fmt.Errorf("%w: more than %d nodes", ErrLimitExceeded, a.maxNodes)
		}
		for _, c := range n.children {
			if err := visit(c, depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	return visit(root, 1)
}

// pass holds the state of one top-level layout call.
type pass struct {
	arena  *Arena
	staged map[*node]LayoutResult
	hits   int
	misses int
}

// compute returns the node's box for req, from cache when possible. Results
// are cached only on success.
func (p *pass) compute(n *node, req request) (*box, error) {
	s := n.computed()
	key := req.keyFor(s)
	if b, ok := n.cache.get(key); ok {
		p.hits++
		p.arena.stats.CacheHits++
		return b, nil
	}
	if n.computing {
		return nil, fmt.Errorf("%w: %s is already being laid out", ErrReentrantLayout, n.handle)
	}
	n.computing = true
	defer func() { n.computing = false }()
	p.misses++
	p.arena.stats.CacheMisses++

	var (
		b   *box
		err error
	)
	switch s.Display {
	case style.DisplayNone:
		b = &box{hidden: true}
	case style.DisplayInline:
		b, err = p.layoutInline(n, s, key)
	case style.DisplayFlex:
		b, err = p.layoutFlex(n, s, key)
	default:
		b, err = p.layoutBlock(n, s, key)
	}
	if err != nil {
		return nil, err
	}
	n.cache.put(key, b)
	return b, nil
}

// stage records the results of n and, through the placements, its subtree.
// Children evicted from cache since the parent ran are recomputed.
func (p *pass) stage(n *node, b *box, x, y float64) error {
	if b.hidden {
		walk(n, func(d *node) bool {
			p.staged[d] = LayoutResult{}
			return true
		})
		return nil
	}
	p.staged[n] = b.result(x, y)
	if b.terminal {
		for _, c := range n.children {
			walk(c, func(d *node) bool {
				p.staged[d] = LayoutResult{}
				return true
			})
		}
		return nil
	}
	for _, pl := range b.children {
		cb, err := p.compute(pl.node, pl.req)
		if err != nil {
			return err
		}
		if err := p.stage(pl.node, cb, pl.x, pl.y); err != nil {
			return err
		}
		if pl.overrideMargins && !cb.hidden {
			r := p.staged[pl.node]
			r.Margin = pl.margins
			p.staged[pl.node] = r
		}
	}
	return nil
}

// measure asks the host measurer for a content size.
func (p *pass) measure(n *node, width, height AvailableSpace) (Size, error) {
	key := Constraint{Width: width, Height: height}.normalize()
	if sz, ok := n.measured.get(key); ok {
		return sz, nil
	}
	p.arena.stats.Measurements++
	sz, err := n.measurer.Measure(n.handle, key.Width, key.Height)
	if err != nil {
		p.arena.logger.Warn("Measurer failed.", zap.Stringer("node", n.handle), zap.Error(err))
		return Size{}, &MeasurementError{Handle: n.handle, Err: err}
	}
	sz.Width = sanitize(sz.Width)
	sz.Height = sanitize(sz.Height)
	n.measured.put(key, sz)
	return sz, nil
}

// -- Box Model Helpers --

type autoMargins struct {
	top, right, bottom, left bool
}

func (m autoMargins) start(axis Axis) bool {
	if axis == Horizontal {
		return m.left
	}
	return m.top
}

func (m autoMargins) end(axis Axis) bool {
	if axis == Horizontal {
		return m.right
	}
	return m.bottom
}

// frame is the resolved box model of a node: margins (auto as 0), border and
// padding. All edges resolve against the containing block width.
type frame struct {
	margin  Edges
	border  Edges
	padding Edges
	auto    autoMargins
}

func newFrame(s *style.ComputedStyle, containingWidth AvailableSpace) frame {
	edge := func(l style.Length) float64 {
		return math.Max(0, resolveOr(l, containingWidth, 0))
	}
	margin := func(l style.Length) (float64, bool) {
		if l.IsAuto() {
			return 0, true
		}
		// Negative margins are allowed.
		return resolveOr(l, containingWidth, 0), false
	}
	var f frame
	f.margin.Top, f.auto.top = margin(s.Margin.Top)
	f.margin.Right, f.auto.right = margin(s.Margin.Right)
	f.margin.Bottom, f.auto.bottom = margin(s.Margin.Bottom)
	f.margin.Left, f.auto.left = margin(s.Margin.Left)
	f.border = Edges{Top: edge(s.Border.Top), Right: edge(s.Border.Right), Bottom: edge(s.Border.Bottom), Left: edge(s.Border.Left)}
	f.padding = Edges{Top: edge(s.Padding.Top), Right: edge(s.Padding.Right), Bottom: edge(s.Padding.Bottom), Left: edge(s.Padding.Left)}
	return f
}

func (f *frame) insets() Edges { return f.border.Add(f.padding) }

func (f *frame) newBox() *box {
	return &box{margin: f.margin, border: f.border, padding: f.padding}
}

// sizeLimits are content-box clamp bounds along one axis.
type sizeLimits struct {
	min, max float64
}

func (l sizeLimits) clamp(v float64) float64 {
	if v > l.max {
		v = l.max
	}
	if v < l.min {
		v = l.min
	}
	return math.Max(0, v)
}

// specifiedSize resolves a width or height style value to a content-box length.
func specifiedSize(l style.Length, containing AvailableSpace, sizing style.BoxSizing, inset float64) (float64, bool) {
	r := Resolve(l, containing)
	if r.Auto {
		return 0, false
	}
	v := r.Value
	if sizing == style.BorderBox {
		v -= inset
	}
	return math.Max(0, v), true
}

func limitsFor(s *style.ComputedStyle, axis Axis, containing AvailableSpace, inset float64) sizeLimits {
	minL, maxL := s.MinWidth, s.MaxWidth
	if axis == Vertical {
		minL, maxL = s.MinHeight, s.MaxHeight
	}
	lim := sizeLimits{max: math.Inf(1)}
	if v, ok := specifiedSize(minL, containing, s.BoxSizing, inset); ok {
		lim.min = v
	}
	if v, ok := specifiedSize(maxL, containing, s.BoxSizing, inset); ok {
		lim.max = math.Max(v, lim.min)
	}
	return lim
}

func sizeStyle(s *style.ComputedStyle, axis Axis) style.Length {
	if axis == Horizontal {
		return s.Width
	}
	return s.Height
}

// axisSize is the outcome of sizing one axis before children are laid out.
type axisSize struct {
	value float64
	known bool
	// bound is the space offered to children when the size is not yet known.
	bound AvailableSpace
}

// space is the constraint children see along this axis.
func (a axisSize) space() AvailableSpace {
	if a.known {
		return DefiniteSpace(a.value)
	}
	return a.bound
}

// containing is the value used for children's percentages.
func (a axisSize) containing() AvailableSpace {
	if a.known {
		return DefiniteSpace(a.value)
	}
	return IndefiniteSpace()
}

// resolveAxis sizes one axis of a block-level box: imposed size first, then
// the style value, then filling a Definite available width. Anything else is
// left for content, bounded by the available space.
func resolveAxis(s *style.ComputedStyle, f *frame, req request, axis Axis, lim sizeLimits) axisSize {
	inset := f.insets().Sum(axis)
	if imposed := req.size.Along(axis); imposed.IsDefinite() {
		return axisSize{value: math.Max(0, imposed.Value-inset), known: true}
	}
	if v, ok := specifiedSize(sizeStyle(s, axis), req.parent.Along(axis), s.BoxSizing, inset); ok {
		return axisSize{value: lim.clamp(v), known: true}
	}
	avail := req.available.Along(axis)
	outside := f.margin.Sum(axis) + inset
	if axis == Horizontal && avail.IsDefinite() {
		return axisSize{value: lim.clamp(avail.Value - outside), known: true}
	}
	bound := avail.Shrink(outside).AsAtMost()
	if axis == Vertical {
		// Content decides block-axis size; only a Definite height is ever passed down.
		bound = IndefiniteSpace()
	}
	if bound.Bounded() && bound.Value > lim.max {
		bound.Value = lim.max
	}
	return axisSize{bound: bound}
}

// centerAutoMargins distributes free inline space into auto margins once the
// width is known.
func centerAutoMargins(b *box, f *frame, avail AvailableSpace) {
	if !avail.IsDefinite() || !(f.auto.left || f.auto.right) {
		return
	}
	free := avail.Value - b.width - b.insets().Horizontal() - b.margin.Horizontal()
	if free <= 0 {
		return
	}
	switch {
	case f.auto.left && f.auto.right:
		b.margin.Left += free / 2
		b.margin.Right += free / 2
	case f.auto.left:
		b.margin.Left += free
	default:
		b.margin.Right += free
	}
}
