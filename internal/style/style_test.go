package style_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/boxflow/internal/style"
)

func TestDefault(t *testing.T) {
	s := style.Default()
	assert.Equal(t, style.DisplayBlock, s.Display)
	assert.True(t, s.Width.IsAuto())
	assert.True(t, s.FlexBasis.IsAuto())
	assert.Equal(t, 1.0, s.FlexShrink)
	assert.Equal(t, 0.0, s.FlexGrow)
	assert.Equal(t, style.Px(0), s.Margin.Left)
	assert.True(t, s.Inset.Top.IsAuto())
	assert.False(t, s.HasPercentages())
}

func TestHasPercentages(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*style.ComputedStyle)
		want   bool
	}{
		{"fixed width", func(s *style.ComputedStyle) { s.Width = style.Px(10) }, false},
		{"percent width", func(s *style.ComputedStyle) { s.Width = style.Percent(50) }, true},
		{"percent padding", func(s *style.ComputedStyle) { s.Padding.Left = style.Percent(5) }, true},
		{"percent basis", func(s *style.ComputedStyle) { s.FlexBasis = style.Percent(25) }, true},
		{"percent inset", func(s *style.ComputedStyle) { s.Inset.Left = style.Percent(10) }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := style.Default()
			tt.mutate(&s)
			assert.Equal(t, tt.want, s.HasPercentages())
		})
	}
}

func TestSchemaLookupRoundTrip(t *testing.T) {
	for _, p := range style.Properties() {
		got, ok := style.Lookup(p.String())
		require.True(t, ok, "property %s not found by name", p)
		assert.Equal(t, p, got)
	}
	_, ok := style.Lookup("color")
	assert.False(t, ok)
}

func TestSetAndGet(t *testing.T) {
	s := style.Default()

	require.NoError(t, style.Set(&s, style.PropWidth, style.KindLength, style.LengthValue(style.Percent(40))))
	assert.Equal(t, style.Percent(40), s.Width)

	require.NoError(t, style.Set(&s, style.PropFlexGrow, style.KindNumber, style.NumberValue(2)))
	assert.Equal(t, 2.0, s.FlexGrow)

	flex, ok := style.Keyword(style.PropDisplay, "flex")
	require.True(t, ok)
	require.NoError(t, style.Set(&s, style.PropDisplay, style.KindEnum, style.EnumValue(flex)))
	assert.Equal(t, style.DisplayFlex, s.Display)

	v, err := style.Get(&s, style.PropDisplay)
	require.NoError(t, err)
	assert.Equal(t, int32(style.DisplayFlex), v.Enum)

	require.NoError(t, style.Set(&s, style.PropMargin, style.KindLength, style.LengthValue(style.Auto())))
	assert.Equal(t, style.Uniform(style.Auto()), s.Margin)
}

func TestSetRejectsBadValues(t *testing.T) {
	s := style.Default()
	before := s

	err := style.Set(&s, style.PropDisplay, style.KindEnum, style.EnumValue(99))
	assert.ErrorIs(t, err, style.ErrEnumOutOfRange)

	err = style.Set(&s, style.PropWidth, style.KindNumber, style.NumberValue(3))
	assert.ErrorIs(t, err, style.ErrKindMismatch)

	err = style.Set(&s, style.Property(999), style.KindNumber, style.NumberValue(3))
	assert.ErrorIs(t, err, style.ErrUnknownProperty)

	err = style.Set(&s, style.PropWidth, style.KindLength, style.LengthValue(style.Length{Unit: 7}))
	assert.ErrorIs(t, err, style.ErrKindMismatch)

	err = style.Set(&s, style.PropFlexGrow, style.KindNumber, style.NumberValue(math.Inf(1)))
	assert.ErrorIs(t, err, style.ErrNotFinite)

	err = style.Set(&s, style.PropFlexShrink, style.KindNumber, style.NumberValue(math.NaN()))
	assert.ErrorIs(t, err, style.ErrNotFinite)

	err = style.Set(&s, style.PropWidth, style.KindLength, style.LengthValue(style.Px(math.Inf(-1))))
	assert.ErrorIs(t, err, style.ErrNotFinite)

	assert.Equal(t, before, s, "rejected writes must leave the style untouched")
}

func TestDiffImpact(t *testing.T) {
	base := style.Default()

	same := base
	assert.Equal(t, style.ImpactNone, style.Diff(&base, &same))

	selfOnly := base
	selfOnly.TextAlign = style.TextAlignCenter
	selfOnly.OverflowX = style.OverflowHidden
	assert.Equal(t, style.ImpactSelf, style.Diff(&base, &selfOnly))

	layout := selfOnly
	layout.Padding.Top = style.Px(4)
	assert.Equal(t, style.ImpactLayout, style.Diff(&base, &layout))
}

func TestFlexDirectionHelpers(t *testing.T) {
	assert.True(t, style.FlexDirectionRow.IsRow())
	assert.True(t, style.FlexDirectionRowReverse.IsReverse())
	assert.False(t, style.FlexDirectionColumn.IsRow())
	assert.False(t, style.FlexDirectionColumn.IsReverse())
}
