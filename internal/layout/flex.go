// internal/layout/flex.go
package layout

import (
	"math"
	"sort"

	"github.com/xkilldash9x/boxflow/internal/style"
)

// -- Flexbox Layout --

type flexItem struct {
	node  *node
	style *style.ComputedStyle
	frame frame

	mainInset  float64 // border + padding on the main axis
	crossInset float64

	base         float64
	hypothetical float64
	target       float64 // content-box main size after flexing
	limits       sizeLimits
	crossLimits  sizeLimits
	grow, shrink float64
	frozen       bool
	violation    float64

	cross       float64 // content-box cross size
	crossOffset float64
	req         request
}

func (it *flexItem) mainExtras(axis Axis) float64 {
	return it.mainInset + it.frame.margin.Sum(axis)
}

func (it *flexItem) outerMain(axis Axis) float64 {
	return it.target + it.mainExtras(axis)
}

type flexLine struct {
	items      []*flexItem
	cross      float64
	crossStart float64
}

// layoutFlex runs the flex algorithm in the usual steps: base sizes, line
// collection, flexible lengths, cross sizes, cross alignment and main-axis
// alignment.
func (p *pass) layoutFlex(n *node, s *style.ComputedStyle, req request) (*box, error) {
	f := newFrame(s, req.parent.Width)
	in := f.insets()
	wLim := limitsFor(s, Horizontal, req.parent.Width, in.Horizontal())
	hLim := limitsFor(s, Vertical, req.parent.Height, in.Vertical())
	width := resolveAxis(s, &f, req, Horizontal, wLim)
	height := resolveAxis(s, &f, req, Vertical, hLim)

	mainAxis := Horizontal
	mainSz, crossSz := &width, &height
	mainLim, crossLim := wLim, hLim
	if !s.FlexDirection.IsRow() {
		mainAxis = Vertical
		mainSz, crossSz = &height, &width
		mainLim, crossLim = hLim, wLim
	}
	crossAxis := mainAxis.Cross()

	containing := Constraint{Width: width.containing(), Height: height.containing()}
	mainGap := gapAlong(s, mainAxis, containing)
	crossGap := gapAlong(s, crossAxis, containing)

	// Step 1: items and their flex base sizes.
	var (
		items    []*flexItem
		hidden   []placement
		absolute []*node
	)
	for _, c := range n.children {
		cs := c.computed()
		switch {
		case cs.Display == style.DisplayNone:
			hidden = append(hidden, placement{node: c, req: request{parent: containing}})
		case cs.Position == style.PositionAbsolute:
			absolute = append(absolute, c)
		default:
			it, err := p.newFlexItem(c, cs, containing, mainAxis)
			if err != nil {
				return nil, err
			}
			items = append(items, it)
		}
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].style.Order < items[j].style.Order })

	if !mainSz.known {
		// No definite main size: the container hugs its items and nothing flexes.
		sum := 0.0
		for _, it := range items {
			sum += it.hypothetical + it.mainExtras(mainAxis)
		}
		sum += gapTotal(mainGap, len(items))
		*mainSz = axisSize{value: settle(*mainSz, sum, mainLim), known: true}
	}

	// Steps 2 and 3: lines, flexible lengths, main-axis auto margins.
	lines := collectFlexLines(items, s.FlexWrap, mainSz.value, mainGap, mainAxis)
	for _, line := range lines {
		resolveFlexibleLengths(line, mainSz.value, mainGap, mainAxis)
		distributeMainAutoMargins(line, mainSz.value, mainGap, mainAxis)
	}

	// Step 4: hypothetical cross sizes.
	for _, line := range lines {
		for _, it := range line.items {
			it.req = request{parent: containing}
			it.req.size.set(mainAxis, DefiniteSpace(it.target+it.mainInset))
			it.req.available.set(mainAxis, DefiniteSpace(it.outerMain(mainAxis)))
			it.req.available.set(crossAxis, crossSz.space().Shrink(it.frame.margin.Sum(crossAxis)).AsAtMost())
			cb, err := p.compute(it.node, it.req)
			if err != nil {
				return nil, err
			}
			it.cross = cb.contentSize().Along(crossAxis)
			line.cross = math.Max(line.cross, it.cross+it.crossInset+it.frame.margin.Sum(crossAxis))
		}
	}
	singleLine := s.FlexWrap == style.FlexNoWrap
	if !crossSz.known {
		total := gapTotal(crossGap, len(lines))
		for _, line := range lines {
			total += line.cross
		}
		*crossSz = axisSize{value: settle(*crossSz, total, crossLim), known: true}
	}
	if singleLine && len(lines) == 1 {
		lines[0].cross = crossSz.value
	}

	// Step 5: align-content and line positions.
	alignLines(lines, s, crossSz.value, crossGap)

	// Step 6: per-item cross alignment, stretching where asked.
	for _, line := range lines {
		for _, it := range line.items {
			if err := p.alignFlexItem(it, line, s, crossAxis); err != nil {
				return nil, err
			}
		}
	}

	// Step 7: main-axis placement.
	b := f.newBox()
	b.width, b.height = width.value, height.value
	reverse := s.FlexDirection.IsReverse()
	for _, line := range lines {
		used := gapTotal(mainGap, len(line.items))
		for _, it := range line.items {
			used += it.outerMain(mainAxis)
		}
		offset, spacing := distribute(justifyDistribution(s.JustifyContent), len(line.items), mainSz.value-used)
		spacing += mainGap
		cursor := offset
		for _, it := range line.items {
			outer := it.outerMain(mainAxis)
			pos := cursor
			if reverse {
				pos = mainSz.value - cursor - outer
			}
			insets := it.frame.insets()
			mainStart := pos + it.frame.margin.MainStart(mainAxis) + insets.MainStart(mainAxis)
			crossStart := line.crossStart + it.crossOffset + it.frame.margin.MainStart(crossAxis) + insets.MainStart(crossAxis)
			pl := placement{node: it.node, req: it.req, margins: it.frame.margin, overrideMargins: true}
			if mainAxis == Horizontal {
				pl.x, pl.y = mainStart, crossStart
			} else {
				pl.x, pl.y = crossStart, mainStart
			}
			b.children = append(b.children, pl)
			cursor += outer + spacing
		}
	}
	b.children = append(b.children, hidden...)
	centerAutoMargins(b, &f, req.available.Width)

	abs, err := p.layoutAbsoluteChildren(absolute, b)
	if err != nil {
		return nil, err
	}
	b.children = append(b.children, abs...)
	return b, nil
}

func (p *pass) newFlexItem(c *node, cs *style.ComputedStyle, containing Constraint, mainAxis Axis) (*flexItem, error) {
	crossAxis := mainAxis.Cross()
	f := newFrame(cs, containing.Width)
	in := f.insets()
	it := &flexItem{
		node:       c,
		style:      cs,
		frame:      f,
		mainInset:  in.Sum(mainAxis),
		crossInset: in.Sum(crossAxis),
		grow:       flexFactor(cs.FlexGrow),
		shrink:     flexFactor(cs.FlexShrink),
	}
	mainSpace := containing.Along(mainAxis)
	it.limits = limitsFor(cs, mainAxis, mainSpace, it.mainInset)
	it.crossLimits = limitsFor(cs, crossAxis, containing.Along(crossAxis), it.crossInset)

	if basis := Resolve(cs.FlexBasis, mainSpace); !basis.Auto {
		v := basis.Value
		if cs.BoxSizing == style.BorderBox {
			v -= it.mainInset
		}
		it.base = math.Max(0, v)
	} else if v, ok := specifiedSize(sizeStyle(cs, mainAxis), mainSpace, cs.BoxSizing, it.mainInset); ok {
		it.base = v
	} else {
		// Content size with nothing imposed on either axis.
		cb, err := p.compute(c, request{parent: containing})
		if err != nil {
			return nil, err
		}
		it.base = cb.contentSize().Along(mainAxis)
	}
	it.hypothetical = it.limits.clamp(it.base)
	it.target = it.hypothetical
	return it, nil
}

// flexFactor maps a grow or shrink factor to a usable weight. Negative and
// non-finite factors count as 0.
func flexFactor(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

// normalizeFactors rescales a line's grow and shrink factors, keeping their
// ratios, when summing them would overflow.
func normalizeFactors(items []*flexItem) {
	var growSum, shrinkSum, maxGrow, maxShrink float64
	for _, it := range items {
		growSum += it.grow
		shrinkSum += it.shrink * math.Max(1, it.base)
		maxGrow = math.Max(maxGrow, it.grow)
		maxShrink = math.Max(maxShrink, it.shrink)
	}
	if math.IsInf(growSum, 0) && maxGrow > 1 {
		for _, it := range items {
			it.grow /= maxGrow
		}
	}
	if math.IsInf(shrinkSum, 0) && maxShrink > 1 {
		for _, it := range items {
			it.shrink /= maxShrink
		}
	}
}

func gapAlong(s *style.ComputedStyle, axis Axis, containing Constraint) float64 {
	if axis == Horizontal {
		return math.Max(0, resolveOr(s.ColumnGap, containing.Width, 0))
	}
	return math.Max(0, resolveOr(s.RowGap, containing.Height, 0))
}

func gapTotal(gap float64, count int) float64 {
	if count < 2 {
		return 0
	}
	return gap * float64(count-1)
}

// collectFlexLines breaks items into lines by hypothetical outer size. A line
// always holds at least one item.
func collectFlexLines(items []*flexItem, wrap style.FlexWrap, mainSize, gap float64, axis Axis) []*flexLine {
	current := &flexLine{}
	lines := []*flexLine{current}
	if wrap == style.FlexNoWrap {
		current.items = items
		return lines
	}
	used := 0.0
	for _, it := range items {
		size := it.hypothetical + it.mainExtras(axis)
		if len(current.items) > 0 && used+gap+size > mainSize {
			current = &flexLine{}
			lines = append(lines, current)
			used = 0
		}
		if len(current.items) > 0 {
			used += gap
		}
		current.items = append(current.items, it)
		used += size
	}
	return lines
}

// resolveFlexibleLengths distributes free space by grow or weighted shrink
// factors, freezing items that hit their min/max limits and redistributing
// the remainder until every item is frozen.
func resolveFlexibleLengths(line *flexLine, mainSize, gap float64, axis Axis) {
	gaps := gapTotal(gap, len(line.items))
	used := gaps
	for _, it := range line.items {
		used += it.hypothetical + it.mainExtras(axis)
	}
	growing := used < mainSize
	normalizeFactors(line.items)

	for _, it := range line.items {
		it.target = it.base
		factor := it.shrink
		if growing {
			factor = it.grow
		}
		if factor == 0 || (growing && it.base > it.hypothetical) || (!growing && it.base < it.hypothetical) {
			it.frozen = true
			it.target = it.hypothetical
		} else {
			it.frozen = false
		}
	}

	initialFree := freeSpace(line, mainSize, gaps, axis)
	for {
		var unfrozen []*flexItem
		for _, it := range line.items {
			if !it.frozen {
				unfrozen = append(unfrozen, it)
			}
		}
		if len(unfrozen) == 0 {
			return
		}

		remaining := freeSpace(line, mainSize, gaps, axis)
		factors := 0.0
		for _, it := range unfrozen {
			if growing {
				factors += it.grow
			} else {
				factors += it.shrink
			}
		}
		if factors < 1 {
			if scaled := initialFree * factors; math.Abs(scaled) < math.Abs(remaining) {
				remaining = scaled
			}
		}

		if growing {
			for _, it := range unfrozen {
				it.target = it.base + remaining*it.grow/factors
			}
		} else {
			weighted := 0.0
			for _, it := range unfrozen {
				weighted += it.shrink * it.base
			}
			for _, it := range unfrozen {
				it.target = it.base
				if weighted > 0 {
					it.target += remaining * it.shrink * it.base / weighted
				}
			}
		}

		total := 0.0
		for _, it := range unfrozen {
			if math.IsNaN(it.target) || math.IsInf(it.target, 0) {
				it.target = it.base
			}
			clamped := it.limits.clamp(it.target)
			it.violation = clamped - it.target
			it.target = clamped
			total += it.violation
		}
		progress := false
		for _, it := range unfrozen {
			switch {
			case total == 0:
				it.frozen = true
			case total > 0 && it.violation > 0:
				it.frozen = true
			case total < 0 && it.violation < 0:
				it.frozen = true
			}
			progress = progress || it.frozen
		}
		if !progress {
			// Nothing froze this round; settle everything where it is.
			for _, it := range unfrozen {
				it.frozen = true
			}
		}
	}
}

// freeSpace is the main size left once frozen items take their target and
// the rest their base size.
func freeSpace(line *flexLine, mainSize, gaps float64, axis Axis) float64 {
	used := gaps
	for _, it := range line.items {
		size := it.base
		if it.frozen {
			size = it.target
		}
		used += size + it.mainExtras(axis)
	}
	return mainSize - used
}

// distributeMainAutoMargins splits positive leftover space equally among auto
// main-axis margins. With none left they stay at 0.
func distributeMainAutoMargins(line *flexLine, mainSize, gap float64, axis Axis) {
	used := gapTotal(gap, len(line.items))
	autos := 0
	for _, it := range line.items {
		used += it.outerMain(axis)
		if it.frame.auto.start(axis) {
			autos++
		}
		if it.frame.auto.end(axis) {
			autos++
		}
	}
	free := mainSize - used
	if autos == 0 || free <= 0 {
		return
	}
	share := free / float64(autos)
	for _, it := range line.items {
		if it.frame.auto.start(axis) {
			it.frame.margin.setStart(axis, share)
		}
		if it.frame.auto.end(axis) {
			it.frame.margin.setEnd(axis, share)
		}
	}
}

// alignLines positions lines along the cross axis per align-content. Single
// line containers always start at 0.
func alignLines(lines []*flexLine, s *style.ComputedStyle, crossSize, gap float64) {
	if s.FlexWrap == style.FlexNoWrap {
		for _, line := range lines {
			line.crossStart = 0
		}
		return
	}
	total := gapTotal(gap, len(lines))
	for _, line := range lines {
		total += line.cross
	}
	free := crossSize - total
	if s.AlignContent == style.AlignContentStretch && free > 0 {
		extra := free / float64(len(lines))
		for _, line := range lines {
			line.cross += extra
		}
		free = 0
	}
	offset, spacing := distribute(alignContentDistribution(s.AlignContent), len(lines), free)
	spacing += gap
	cursor := offset
	for _, line := range lines {
		if s.FlexWrap == style.FlexWrapReverse {
			line.crossStart = crossSize - cursor - line.cross
		} else {
			line.crossStart = cursor
		}
		cursor += line.cross + spacing
	}
}

// alignFlexItem settles an item's cross size and offset within its line.
// Stretch imposes a definite cross size only for auto cross sizes without auto
// cross margins. Baseline alignment is treated as flex-start.
func (p *pass) alignFlexItem(it *flexItem, line *flexLine, container *style.ComputedStyle, crossAxis Axis) error {
	margins := it.frame.margin.Sum(crossAxis)
	autoStart, autoEnd := it.frame.auto.start(crossAxis), it.frame.auto.end(crossAxis)
	align := effectiveAlign(container.AlignItems, it.style.AlignSelf)

	if align == style.AlignSelfStretch && sizeStyle(it.style, crossAxis).IsAuto() && !autoStart && !autoEnd {
		size := it.crossLimits.clamp(line.cross - margins - it.crossInset)
		it.req.size.set(crossAxis, DefiniteSpace(size+it.crossInset))
		it.req.available.set(crossAxis, DefiniteSpace(line.cross))
		cb, err := p.compute(it.node, it.req)
		if err != nil {
			return err
		}
		it.cross = cb.contentSize().Along(crossAxis)
		it.crossOffset = 0
		return nil
	}

	free := line.cross - (it.cross + it.crossInset + margins)
	if autoStart || autoEnd {
		it.crossOffset = 0
		if free > 0 {
			switch {
			case autoStart && autoEnd:
				it.frame.margin.setStart(crossAxis, free/2)
				it.frame.margin.setEnd(crossAxis, free/2)
			case autoStart:
				it.frame.margin.setStart(crossAxis, free)
			default:
				it.frame.margin.setEnd(crossAxis, free)
			}
		}
		return nil
	}

	switch align {
	case style.AlignSelfFlexEnd:
		it.crossOffset = free
	case style.AlignSelfCenter:
		it.crossOffset = free / 2
	default:
		it.crossOffset = 0
	}
	if container.FlexWrap == style.FlexWrapReverse {
		it.crossOffset = free - it.crossOffset
	}
	return nil
}

func effectiveAlign(items style.AlignItems, self style.AlignSelf) style.AlignSelf {
	if self != style.AlignSelfAuto {
		return self
	}
	switch items {
	case style.AlignFlexStart:
		return style.AlignSelfFlexStart
	case style.AlignFlexEnd:
		return style.AlignSelfFlexEnd
	case style.AlignCenter:
		return style.AlignSelfCenter
	case style.AlignBaseline:
		return style.AlignSelfBaseline
	}
	return style.AlignSelfStretch
}

// -- Free Space Distribution --

type distribution int

const (
	distributeStart distribution = iota
	distributeEnd
	distributeCenter
	distributeBetween
	distributeAround
	distributeEvenly
)

func justifyDistribution(j style.JustifyContent) distribution {
	switch j {
	case style.JustifyFlexEnd:
		return distributeEnd
	case style.JustifyCenter:
		return distributeCenter
	case style.JustifySpaceBetween:
		return distributeBetween
	case style.JustifySpaceAround:
		return distributeAround
	case style.JustifySpaceEvenly:
		return distributeEvenly
	}
	return distributeStart
}

func alignContentDistribution(a style.AlignContent) distribution {
	switch a {
	case style.AlignContentFlexEnd:
		return distributeEnd
	case style.AlignContentCenter:
		return distributeCenter
	case style.AlignContentSpaceBetween:
		return distributeBetween
	case style.AlignContentSpaceAround:
		return distributeAround
	case style.AlignContentSpaceEvenly:
		return distributeEvenly
	}
	return distributeStart
}

// distribute returns the leading offset and the extra spacing between count
// items sharing free space. Overflow (free <= 0) packs at the start.
func distribute(d distribution, count int, free float64) (offset, spacing float64) {
	if free <= 0 || count == 0 {
		return 0, 0
	}
	switch d {
	case distributeEnd:
		offset = free
	case distributeCenter:
		offset = free / 2
	case distributeBetween:
		if count > 1 {
			spacing = free / float64(count-1)
		}
	case distributeAround:
		spacing = free / float64(count)
		offset = spacing / 2
	case distributeEvenly:
		spacing = free / float64(count+1)
		offset = spacing
	}
	return offset, spacing
}
