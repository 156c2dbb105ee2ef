// internal/style/schema.go
package style

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrUnknownProperty = errors.New("style: unknown property")
	ErrKindMismatch    = errors.New("style: value kind does not match property")
	ErrEnumOutOfRange  = errors.New("style: keyword value out of range")
	ErrNotFinite       = errors.New("style: value is not finite")
)

// Property identifies one settable style field. The numeric ids are stable
// and are the ones exposed across the handle boundary.
type Property uint16

const (
	PropInvalid Property = iota
	PropDisplay
	PropPosition
	PropBoxSizing
	PropWidth
	PropHeight
	PropMinWidth
	PropMinHeight
	PropMaxWidth
	PropMaxHeight
	PropMarginTop
	PropMarginRight
	PropMarginBottom
	PropMarginLeft
	PropPaddingTop
	PropPaddingRight
	PropPaddingBottom
	PropPaddingLeft
	PropBorderTop
	PropBorderRight
	PropBorderBottom
	PropBorderLeft
	PropTop
	PropRight
	PropBottom
	PropLeft
	PropFlexDirection
	PropFlexWrap
	PropJustifyContent
	PropAlignItems
	PropAlignContent
	PropRowGap
	PropColumnGap
	PropFlexGrow
	PropFlexShrink
	PropFlexBasis
	PropAlignSelf
	PropOrder
	PropTextAlign
	PropOverflowX
	PropOverflowY
	// Shorthands write all four edges and read back the top edge.
	PropMargin
	PropPadding
	PropBorder
	propCount
)

// Kind is the value type a property accepts.
type Kind uint8

const (
	KindLength Kind = iota
	KindNumber
	KindEnum
)

func (k Kind) String() string {
	switch k {
	case KindLength:
		return "length"
	case KindNumber:
		return "number"
	case KindEnum:
		return "enum"
	}
	return "unknown"
}

// Impact classifies what a change to a property invalidates.
type Impact uint8

const (
	// ImpactNone changes nothing observable by layout.
	ImpactNone Impact = iota
	// ImpactSelf only affects the node's own paint-facing state.
	ImpactSelf
	// ImpactLayout may move or resize the node, so every ancestor is invalidated too.
	ImpactLayout
)

func (i Impact) String() string {
	switch i {
	case ImpactNone:
		return "none"
	case ImpactSelf:
		return "self"
	case ImpactLayout:
		return "layout"
	}
	return "unknown"
}

// Value carries a property value. Only the field matching the property Kind is read.
type Value struct {
	Length Length
	Number float64
	Enum   int32
}

// LengthValue wraps a Length.
func LengthValue(l Length) Value { return Value{Length: l} }

// NumberValue wraps a plain number.
func NumberValue(n float64) Value { return Value{Number: n} }

// EnumValue wraps a keyword ordinal.
func EnumValue(e int32) Value { return Value{Enum: e} }

type propertySpec struct {
	name      string
	kind      Kind
	impact    Impact
	keywords  []string
	shorthand bool
	read      func(*ComputedStyle) Value
	write     func(*ComputedStyle, Value)
}

func lengthProp(name string, field func(*ComputedStyle) *Length) propertySpec {
	return propertySpec{
		name:   name,
		kind:   KindLength,
		impact: ImpactLayout,
		read:   func(s *ComputedStyle) Value { return LengthValue(*field(s)) },
		write:  func(s *ComputedStyle, v Value) { *field(s) = v.Length },
	}
}

func numberProp(name string, field func(*ComputedStyle) *float64) propertySpec {
	return propertySpec{
		name:   name,
		kind:   KindNumber,
		impact: ImpactLayout,
		read:   func(s *ComputedStyle) Value { return NumberValue(*field(s)) },
		write:  func(s *ComputedStyle, v Value) { *field(s) = v.Number },
	}
}

// enumProp builds a keyword property over any uint8-backed enum field.
func enumProp[E ~uint8](name string, impact Impact, keywords []string, field func(*ComputedStyle) *E) propertySpec {
	return propertySpec{
		name:     name,
		kind:     KindEnum,
		impact:   impact,
		keywords: keywords,
		read:     func(s *ComputedStyle) Value { return EnumValue(int32(*field(s))) },
		write:    func(s *ComputedStyle, v Value) { *field(s) = E(v.Enum) },
	}
}

func edgesProp(name string, field func(*ComputedStyle) *Edges) propertySpec {
	return propertySpec{
		name:      name,
		kind:      KindLength,
		impact:    ImpactLayout,
		shorthand: true,
		read:      func(s *ComputedStyle) Value { return LengthValue(field(s).Top) },
		write:     func(s *ComputedStyle, v Value) { *field(s) = Uniform(v.Length) },
	}
}

var (
	displayKeywords        = []string{"block", "flex", "inline", "none"}
	positionKeywords       = []string{"relative", "absolute"}
	boxSizingKeywords      = []string{"content-box", "border-box"}
	flexDirectionKeywords  = []string{"row", "row-reverse", "column", "column-reverse"}
	flexWrapKeywords       = []string{"nowrap", "wrap", "wrap-reverse"}
	justifyContentKeywords = []string{"flex-start", "flex-end", "center", "space-between", "space-around", "space-evenly"}
	alignItemsKeywords     = []string{"stretch", "flex-start", "flex-end", "center", "baseline"}
	alignSelfKeywords      = []string{"auto", "flex-start", "flex-end", "center", "baseline", "stretch"}
	alignContentKeywords   = []string{"stretch", "flex-start", "flex-end", "center", "space-between", "space-around", "space-evenly"}
	textAlignKeywords      = []string{"left", "center", "right"}
	overflowKeywords       = []string{"visible", "hidden", "scroll"}
)

var schema = [propCount]propertySpec{
	PropDisplay:   enumProp("display", ImpactLayout, displayKeywords, func(s *ComputedStyle) *Display { return &s.Display }),
	PropPosition:  enumProp("position", ImpactLayout, positionKeywords, func(s *ComputedStyle) *Position { return &s.Position }),
	PropBoxSizing: enumProp("box-sizing", ImpactLayout, boxSizingKeywords, func(s *ComputedStyle) *BoxSizing { return &s.BoxSizing }),

	PropWidth:     lengthProp("width", func(s *ComputedStyle) *Length { return &s.Width }),
	PropHeight:    lengthProp("height", func(s *ComputedStyle) *Length { return &s.Height }),
	PropMinWidth:  lengthProp("min-width", func(s *ComputedStyle) *Length { return &s.MinWidth }),
	PropMinHeight: lengthProp("min-height", func(s *ComputedStyle) *Length { return &s.MinHeight }),
	PropMaxWidth:  lengthProp("max-width", func(s *ComputedStyle) *Length { return &s.MaxWidth }),
	PropMaxHeight: lengthProp("max-height", func(s *ComputedStyle) *Length { return &s.MaxHeight }),

	PropMarginTop:     lengthProp("margin-top", func(s *ComputedStyle) *Length { return &s.Margin.Top }),
	PropMarginRight:   lengthProp("margin-right", func(s *ComputedStyle) *Length { return &s.Margin.Right }),
	PropMarginBottom:  lengthProp("margin-bottom", func(s *ComputedStyle) *Length { return &s.Margin.Bottom }),
	PropMarginLeft:    lengthProp("margin-left", func(s *ComputedStyle) *Length { return &s.Margin.Left }),
	PropPaddingTop:    lengthProp("padding-top", func(s *ComputedStyle) *Length { return &s.Padding.Top }),
	PropPaddingRight:  lengthProp("padding-right", func(s *ComputedStyle) *Length { return &s.Padding.Right }),
	PropPaddingBottom: lengthProp("padding-bottom", func(s *ComputedStyle) *Length { return &s.Padding.Bottom }),
	PropPaddingLeft:   lengthProp("padding-left", func(s *ComputedStyle) *Length { return &s.Padding.Left }),
	PropBorderTop:     lengthProp("border-top-width", func(s *ComputedStyle) *Length { return &s.Border.Top }),
	PropBorderRight:   lengthProp("border-right-width", func(s *ComputedStyle) *Length { return &s.Border.Right }),
	PropBorderBottom:  lengthProp("border-bottom-width", func(s *ComputedStyle) *Length { return &s.Border.Bottom }),
	PropBorderLeft:    lengthProp("border-left-width", func(s *ComputedStyle) *Length { return &s.Border.Left }),
	PropTop:           lengthProp("top", func(s *ComputedStyle) *Length { return &s.Inset.Top }),
	PropRight:         lengthProp("right", func(s *ComputedStyle) *Length { return &s.Inset.Right }),
	PropBottom:        lengthProp("bottom", func(s *ComputedStyle) *Length { return &s.Inset.Bottom }),
	PropLeft:          lengthProp("left", func(s *ComputedStyle) *Length { return &s.Inset.Left }),

	PropFlexDirection:  enumProp("flex-direction", ImpactLayout, flexDirectionKeywords, func(s *ComputedStyle) *FlexDirection { return &s.FlexDirection }),
	PropFlexWrap:       enumProp("flex-wrap", ImpactLayout, flexWrapKeywords, func(s *ComputedStyle) *FlexWrap { return &s.FlexWrap }),
	PropJustifyContent: enumProp("justify-content", ImpactLayout, justifyContentKeywords, func(s *ComputedStyle) *JustifyContent { return &s.JustifyContent }),
	PropAlignItems:     enumProp("align-items", ImpactLayout, alignItemsKeywords, func(s *ComputedStyle) *AlignItems { return &s.AlignItems }),
	PropAlignContent:   enumProp("align-content", ImpactLayout, alignContentKeywords, func(s *ComputedStyle) *AlignContent { return &s.AlignContent }),
	PropRowGap:         lengthProp("row-gap", func(s *ComputedStyle) *Length { return &s.RowGap }),
	PropColumnGap:      lengthProp("column-gap", func(s *ComputedStyle) *Length { return &s.ColumnGap }),

	PropFlexGrow:   numberProp("flex-grow", func(s *ComputedStyle) *float64 { return &s.FlexGrow }),
	PropFlexShrink: numberProp("flex-shrink", func(s *ComputedStyle) *float64 { return &s.FlexShrink }),
	PropFlexBasis:  lengthProp("flex-basis", func(s *ComputedStyle) *Length { return &s.FlexBasis }),
	PropAlignSelf:  enumProp("align-self", ImpactLayout, alignSelfKeywords, func(s *ComputedStyle) *AlignSelf { return &s.AlignSelf }),
	PropOrder: {
		name:   "order",
		kind:   KindNumber,
		impact: ImpactLayout,
		read:   func(s *ComputedStyle) Value { return NumberValue(float64(s.Order)) },
		write:  func(s *ComputedStyle, v Value) { s.Order = int32(v.Number) },
	},

	PropTextAlign: enumProp("text-align", ImpactSelf, textAlignKeywords, func(s *ComputedStyle) *TextAlign { return &s.TextAlign }),
	PropOverflowX: enumProp("overflow-x", ImpactSelf, overflowKeywords, func(s *ComputedStyle) *Overflow { return &s.OverflowX }),
	PropOverflowY: enumProp("overflow-y", ImpactSelf, overflowKeywords, func(s *ComputedStyle) *Overflow { return &s.OverflowY }),

	PropMargin:  edgesProp("margin", func(s *ComputedStyle) *Edges { return &s.Margin }),
	PropPadding: edgesProp("padding", func(s *ComputedStyle) *Edges { return &s.Padding }),
	PropBorder:  edgesProp("border-width", func(s *ComputedStyle) *Edges { return &s.Border }),
}

var byName = func() map[string]Property {
	m := make(map[string]Property, len(schema))
	for p := PropDisplay; p < propCount; p++ {
		m[schema[p].name] = p
	}
	return m
}()

func (p Property) spec() (*propertySpec, bool) {
	if p == PropInvalid || p >= propCount {
		return nil, false
	}
	return &schema[p], true
}

// Valid reports whether p names a known property.
func (p Property) Valid() bool {
	_, ok := p.spec()
	return ok
}

func (p Property) String() string {
	if s, ok := p.spec(); ok {
		return s.name
	}
	return fmt.Sprintf("property(%d)", uint16(p))
}

// Kind returns the value type the property accepts.
func (p Property) Kind() Kind {
	if s, ok := p.spec(); ok {
		return s.kind
	}
	return KindNumber
}

// Impact returns the invalidation class of the property.
func (p Property) Impact() Impact {
	if s, ok := p.spec(); ok {
		return s.impact
	}
	return ImpactNone
}

// Keywords lists the accepted keywords of an enum property, indexed by ordinal.
func (p Property) Keywords() []string {
	if s, ok := p.spec(); ok {
		return s.keywords
	}
	return nil
}

// Lookup finds a property by its CSS-style name.
func Lookup(name string) (Property, bool) {
	p, ok := byName[name]
	return p, ok
}

// Properties returns every known property id, shorthands last.
func Properties() []Property {
	out := make([]Property, 0, propCount-1)
	for p := PropDisplay; p < propCount; p++ {
		out = append(out, p)
	}
	return out
}

// Keyword returns the ordinal of an enum keyword for the property.
func Keyword(p Property, name string) (int32, bool) {
	for i, k := range p.Keywords() {
		if k == name {
			return int32(i), true
		}
	}
	return 0, false
}

// Get reads a property from s.
func Get(s *ComputedStyle, p Property) (Value, error) {
	spec, ok := p.spec()
	if !ok {
		return Value{}, fmt.Errorf("%w: %d", ErrUnknownProperty, uint16(p))
	}
	return spec.read(s), nil
}

// Set writes a property into s. The value must match the property Kind: enum
// ordinals are range-checked, lengths must carry a known unit and numbers
// must be finite.
func Set(s *ComputedStyle, p Property, kind Kind, v Value) error {
	spec, ok := p.spec()
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownProperty, uint16(p))
	}
	if spec.kind != kind {
		return fmt.Errorf("%w: %s wants %s, got %s", ErrKindMismatch, spec.name, spec.kind, kind)
	}
	switch kind {
	case KindEnum:
		if v.Enum < 0 || int(v.Enum) >= len(spec.keywords) {
			return fmt.Errorf("%w: %s=%d", ErrEnumOutOfRange, spec.name, v.Enum)
		}
	case KindLength:
		if v.Length.Unit > UnitPercent {
			return fmt.Errorf("%w: %s has unit %d", ErrKindMismatch, spec.name, v.Length.Unit)
		}
		if !finite(v.Length.Value) {
			return fmt.Errorf("%w: %s=%g", ErrNotFinite, spec.name, v.Length.Value)
		}
	case KindNumber:
		if !finite(v.Number) {
			return fmt.Errorf("%w: %s=%g", ErrNotFinite, spec.name, v.Number)
		}
	}
	spec.write(s, v)
	return nil
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// Diff returns the strongest Impact among the properties that differ between
// old and next.
func Diff(old, next *ComputedStyle) Impact {
	if *old == *next {
		return ImpactNone
	}
	strongest := ImpactNone
	for p := PropDisplay; p < propCount; p++ {
		spec := &schema[p]
		if spec.shorthand || spec.impact <= strongest {
			continue
		}
		if spec.read(old) != spec.read(next) {
			strongest = spec.impact
			if strongest == ImpactLayout {
				break
			}
		}
	}
	return strongest
}
