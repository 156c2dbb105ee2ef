// internal/style/style.go

// Package style defines the computed style snapshot consumed by the layout engine.
//
// Cascading, selector matching and value parsing happen elsewhere. By the time a
// ComputedStyle reaches this package's consumers every value is already typed:
// lengths are Fixed, Percent or Auto, and keywords are enum constants.
package style

// -- Lengths --

// Unit specifies how a Length is interpreted.
type Unit uint8

const (
	UnitAuto    Unit = iota // Size determined by content or by the algorithm
	UnitFixed               // Absolute pixels
	UnitPercent             // Percentage of the containing dimension, 0-100 scale
)

func (u Unit) String() string {
	switch u {
	case UnitAuto:
		return "auto"
	case UnitFixed:
		return "px"
	case UnitPercent:
		return "%"
	default:
		return "unknown"
	}
}

// Length is a style dimension: fixed, percentage or auto.
type Length struct {
	Unit  Unit
	Value float64
}

// Auto returns a Length resolved by the layout algorithm.
func Auto() Length {
	return Length{Unit: UnitAuto}
}

// Px returns a fixed Length in pixels.
func Px(v float64) Length {
	return Length{Unit: UnitFixed, Value: v}
}

// Percent returns a percentage Length. The value is on a 0-100 scale (50 = 50%).
func Percent(p float64) Length {
	return Length{Unit: UnitPercent, Value: p}
}

// IsAuto reports whether the length is auto.
func (l Length) IsAuto() bool { return l.Unit == UnitAuto }

// IsPercent reports whether the length depends on a containing dimension.
func (l Length) IsPercent() bool { return l.Unit == UnitPercent }

// Edges holds a Length for each side of a box.
type Edges struct {
	Top, Right, Bottom, Left Length
}

// Uniform returns Edges with the same length on every side.
func Uniform(l Length) Edges {
	return Edges{Top: l, Right: l, Bottom: l, Left: l}
}

func (e Edges) hasPercent() bool {
	return e.Top.IsPercent() || e.Right.IsPercent() || e.Bottom.IsPercent() || e.Left.IsPercent()
}

// -- Keyword Types --

type Display uint8

const (
	DisplayBlock Display = iota
	DisplayFlex
	DisplayInline
	DisplayNone
)

type Position uint8

const (
	PositionRelative Position = iota
	PositionAbsolute
)

type BoxSizing uint8

const (
	ContentBox BoxSizing = iota
	BorderBox
)

type FlexDirection uint8

const (
	FlexDirectionRow FlexDirection = iota
	FlexDirectionRowReverse
	FlexDirectionColumn
	FlexDirectionColumnReverse
)

// IsRow reports whether the main axis is horizontal.
func (d FlexDirection) IsRow() bool {
	return d == FlexDirectionRow || d == FlexDirectionRowReverse
}

// IsReverse reports whether items run from the main end.
func (d FlexDirection) IsReverse() bool {
	return d == FlexDirectionRowReverse || d == FlexDirectionColumnReverse
}

type FlexWrap uint8

const (
	FlexNoWrap FlexWrap = iota
	FlexWrapWrap
	FlexWrapReverse
)

type JustifyContent uint8

const (
	JustifyFlexStart JustifyContent = iota
	JustifyFlexEnd
	JustifyCenter
	JustifySpaceBetween
	JustifySpaceAround
	JustifySpaceEvenly
)

type AlignItems uint8

const (
	AlignStretch AlignItems = iota
	AlignFlexStart
	AlignFlexEnd
	AlignCenter
	AlignBaseline
)

type AlignSelf uint8

const (
	AlignSelfAuto AlignSelf = iota
	AlignSelfFlexStart
	AlignSelfFlexEnd
	AlignSelfCenter
	AlignSelfBaseline
	AlignSelfStretch
)

type AlignContent uint8

const (
	AlignContentStretch AlignContent = iota
	AlignContentFlexStart
	AlignContentFlexEnd
	AlignContentCenter
	AlignContentSpaceBetween
	AlignContentSpaceAround
	AlignContentSpaceEvenly
)

type TextAlign uint8

const (
	TextAlignLeft TextAlign = iota
	TextAlignCenter
	TextAlignRight
)

type Overflow uint8

const (
	OverflowVisible Overflow = iota
	OverflowHidden
	OverflowScroll
)

// -- Computed Style --

// ComputedStyle is the per-node style snapshot. The layout engine borrows it and
// never mutates or frees it.
type ComputedStyle struct {
	Display   Display
	Position  Position
	BoxSizing BoxSizing

	Width     Length
	Height    Length
	MinWidth  Length
	MinHeight Length
	MaxWidth  Length
	MaxHeight Length

	Margin  Edges
	Padding Edges
	Border  Edges
	// Inset carries left/top/right/bottom for absolutely positioned boxes.
	Inset Edges

	// Flex container
	FlexDirection  FlexDirection
	FlexWrap       FlexWrap
	JustifyContent JustifyContent
	AlignItems     AlignItems
	AlignContent   AlignContent
	RowGap         Length
	ColumnGap      Length

	// Flex item
	FlexGrow   float64
	FlexShrink float64
	FlexBasis  Length
	AlignSelf  AlignSelf
	Order      int32

	TextAlign TextAlign
	OverflowX Overflow
	OverflowY Overflow
}

// Default returns a ComputedStyle holding the initial value of every property.
func Default() ComputedStyle {
	return ComputedStyle{
		Display:    DisplayBlock,
		Width:      Auto(),
		Height:     Auto(),
		MinWidth:   Auto(), // resolves to 0
		MinHeight:  Auto(),
		MaxWidth:   Auto(), // no maximum
		MaxHeight:  Auto(),
		Margin:     Uniform(Px(0)),
		Padding:    Uniform(Px(0)),
		Border:     Uniform(Px(0)),
		Inset:      Uniform(Auto()),
		AlignItems: AlignStretch,
		RowGap:     Px(0),
		ColumnGap:  Px(0),
		FlexShrink: 1,
		FlexBasis:  Auto(),
	}
}

// HasPercentages reports whether any length depends on the containing block.
// Layout results of such nodes must be keyed on the containing block size.
func (s *ComputedStyle) HasPercentages() bool {
	for _, l := range []Length{s.Width, s.Height, s.MinWidth, s.MinHeight, s.MaxWidth, s.MaxHeight, s.FlexBasis, s.RowGap, s.ColumnGap} {
		if l.IsPercent() {
			return true
		}
	}
	return s.Margin.hasPercent() || s.Padding.hasPercent() || s.Border.hasPercent() || s.Inset.hasPercent()
}
