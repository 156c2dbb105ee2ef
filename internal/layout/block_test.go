package layout_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/boxflow/internal/layout"
	"github.com/xkilldash9x/boxflow/internal/style"
)

func TestBoxSizing(t *testing.T) {
	tests := []struct {
		name   string
		sizing style.BoxSizing
		want   float64
	}{
		{"border-box subtracts border and padding", style.BorderBox, 160},
		{"content-box keeps the declared width", style.ContentBox, 200},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := layout.NewArena()
			root := node(t, a, func(s *style.ComputedStyle) {
				s.Width = style.Px(200)
				s.BoxSizing = tt.sizing
				s.Border = style.Uniform(style.Px(10))
				s.Padding = style.Uniform(style.Px(10))
			})
			r, err := a.ComputeLayout(root, viewport)
			require.NoError(t, err)
			assert.Equal(t, tt.want, r.Width)
			assert.Equal(t, layout.Edges{Top: 10, Right: 10, Bottom: 10, Left: 10}, r.Padding)
			assert.Equal(t, tt.want+40, r.BorderBox().Width)
		})
	}
}

func TestBlockAutoHeightSumsChildren(t *testing.T) {
	a := layout.NewArena()
	first := node(t, a, fixed(100, 50))
	second := node(t, a, fixed(100, 30))
	root := node(t, a, nil, first, second)

	r, err := a.ComputeLayout(root, viewport)
	require.NoError(t, err)
	assert.Equal(t, 80.0, r.Height)
	assert.Equal(t, 800.0, r.Width, "auto width fills a definite available width")

	assert.Equal(t, 0.0, result(t, a, first).Y)
	assert.Equal(t, 50.0, result(t, a, second).Y)
}

func TestBlockMarginsDoNotCollapse(t *testing.T) {
	a := layout.NewArena()
	withMargin := func(s *style.ComputedStyle) {
		s.Height = style.Px(10)
		s.Margin = style.Uniform(style.Px(5))
	}
	first := node(t, a, withMargin)
	second := node(t, a, withMargin)
	root := node(t, a, nil, first, second)

	r, err := a.ComputeLayout(root, viewport)
	require.NoError(t, err)
	assert.Equal(t, 40.0, r.Height)

	s := result(t, a, second)
	assert.Equal(t, 25.0, s.Y, "margin box of the second child starts after 20px, plus its own top margin")
	assert.Equal(t, 5.0, s.X)
	assert.Equal(t, 790.0, s.Width)
}

func TestPercentHeightUnderIndefiniteAncestor(t *testing.T) {
	a := layout.NewArena()
	half := func(s *style.ComputedStyle) { s.Height = style.Percent(50) }

	leaf := node(t, a, half)
	middle := node(t, a, nil, leaf)
	root := node(t, a, nil, middle)

	_, err := a.ComputeLayout(root, layout.Constraint{Width: layout.DefiniteSpace(400)})
	require.NoError(t, err)
	assert.Equal(t, 0.0, result(t, a, leaf).Height)

	// A definite ancestor height makes the percentage resolvable.
	definite := node(t, a, half)
	sized := node(t, a, func(s *style.ComputedStyle) { s.Height = style.Px(200) }, definite)
	_, err = a.ComputeLayout(sized, layout.Constraint{Width: layout.DefiniteSpace(400)})
	require.NoError(t, err)
	assert.Equal(t, 100.0, result(t, a, definite).Height)
}

func TestPercentWidthUsesContainingSize(t *testing.T) {
	a := layout.NewArena()
	root := node(t, a, func(s *style.ComputedStyle) { s.Width = style.Percent(25) })

	r, err := a.ComputeLayoutWithContainingSize(root, viewport, layout.Exact(400, 400))
	require.NoError(t, err)
	assert.Equal(t, 100.0, r.Width)

	r, err = a.ComputeLayout(root, viewport)
	require.NoError(t, err)
	assert.Equal(t, 200.0, r.Width, "a different containing size is a different cache entry")
}

func TestBlockAutoMarginsCenter(t *testing.T) {
	a := layout.NewArena()
	child := node(t, a, func(s *style.ComputedStyle) {
		s.Width = style.Px(200)
		s.Margin.Left = style.Auto()
		s.Margin.Right = style.Auto()
	})
	root := node(t, a, nil, child)

	_, err := a.ComputeLayout(root, viewport)
	require.NoError(t, err)
	r := result(t, a, child)
	assert.Equal(t, 300.0, r.X)
	assert.Equal(t, 300.0, r.Margin.Left)
	assert.Equal(t, 300.0, r.Margin.Right)
}

func TestMinMaxClamp(t *testing.T) {
	a := layout.NewArena()
	capped := node(t, a, func(s *style.ComputedStyle) {
		s.MaxWidth = style.Px(300)
		s.MinHeight = style.Px(40)
	})
	root := node(t, a, nil, capped)

	_, err := a.ComputeLayout(root, viewport)
	require.NoError(t, err)
	r := result(t, a, capped)
	assert.Equal(t, 300.0, r.Width)
	assert.Equal(t, 40.0, r.Height)
}

func TestShrinkToFitUnderAtMost(t *testing.T) {
	a := layout.NewArena()
	narrow := node(t, a, fixed(100, 10))
	wide := node(t, a, fixed(150, 10))
	auto := node(t, a, func(s *style.ComputedStyle) { s.Height = style.Px(10) })
	root := node(t, a, nil, narrow, wide, auto)

	r, err := a.ComputeLayout(root, layout.Constraint{Width: layout.AtMostSpace(500)})
	require.NoError(t, err)
	assert.Equal(t, 150.0, r.Width)
	assert.Equal(t, 150.0, result(t, a, auto).Width, "auto-width children fill the shrink-wrapped parent")

	bounded := node(t, a, nil, node(t, a, fixed(900, 10)))
	r, err = a.ComputeLayout(bounded, layout.Constraint{Width: layout.AtMostSpace(500)})
	require.NoError(t, err)
	assert.Equal(t, 500.0, r.Width)
}

func TestDisplayNoneIsSkipped(t *testing.T) {
	a := layout.NewArena()
	hiddenLeaf := node(t, a, fixed(10, 10))
	hidden := node(t, a, func(s *style.ComputedStyle) {
		s.Display = style.DisplayNone
		s.Height = style.Px(50)
	}, hiddenLeaf)
	visible := node(t, a, fixed(10, 20))
	root := node(t, a, nil, hidden, visible)

	r, err := a.ComputeLayout(root, viewport)
	require.NoError(t, err)
	assert.Equal(t, 20.0, r.Height)
	assert.Equal(t, layout.LayoutResult{}, result(t, a, hidden))
	assert.Equal(t, layout.LayoutResult{}, result(t, a, hiddenLeaf))
	assert.Equal(t, 0.0, result(t, a, visible).Y)
}

func TestMeasuredLeaf(t *testing.T) {
	a := layout.NewArena()
	m := &fixedMeasurer{size: layout.Size{Width: 120, Height: 18}}
	leaf := node(t, a, nil)
	require.NoError(t, a.SetMeasurer(leaf, m))

	r, err := a.ComputeLayout(leaf, layout.Constraint{Width: layout.AtMostSpace(500)})
	require.NoError(t, err)
	assert.Equal(t, 120.0, r.Width)
	assert.Equal(t, 18.0, r.Height)
	assert.Equal(t, layout.AtMostSpace(500), m.last[0])

	// Inside a definite-width parent the leaf fills the width and the
	// measurer sees it as Definite.
	root := node(t, a, nil, leaf)
	_, err = a.ComputeLayout(root, viewport)
	require.NoError(t, err)
	assert.Equal(t, 800.0, result(t, a, leaf).Width)
	assert.Equal(t, layout.DefiniteSpace(800), m.last[0])
}

func TestInlineUsesMeasurer(t *testing.T) {
	a := layout.NewArena()
	m := &fixedMeasurer{size: layout.Size{Width: 64, Height: 16}}
	text := node(t, a, func(s *style.ComputedStyle) { s.Display = style.DisplayInline })
	require.NoError(t, a.SetMeasurer(text, m))
	empty := node(t, a, func(s *style.ComputedStyle) { s.Display = style.DisplayInline })
	root := node(t, a, nil, text, empty)

	_, err := a.ComputeLayout(root, viewport)
	require.NoError(t, err)

	assert.Equal(t, layout.AvailableSpace{Kind: layout.AtMost, Value: 800}, m.last[0])
	assert.Equal(t, layout.Indefinite, m.last[1].Kind)
	tr := result(t, a, text)
	assert.Equal(t, 64.0, tr.Width)
	assert.Equal(t, 16.0, tr.Height)
	assert.Equal(t, 0.0, result(t, a, empty).Width)
	assert.Equal(t, 16.0, result(t, a, empty).Y)
}

func TestSwitchToInlineZeroesChildren(t *testing.T) {
	a := layout.NewArena()
	grandchild := node(t, a, fixed(20, 20))
	child := node(t, a, fixed(40, 30), grandchild)
	parent := node(t, a, nil, child)

	_, err := a.ComputeLayout(parent, viewport)
	require.NoError(t, err)
	require.Equal(t, 40.0, result(t, a, child).Width)

	s, err := a.Style(parent)
	require.NoError(t, err)
	inline := *s
	inline.Display = style.DisplayInline
	require.NoError(t, a.SetStyle(parent, &inline))

	_, err = a.ComputeLayout(parent, viewport)
	require.NoError(t, err)
	assert.Equal(t, layout.LayoutResult{}, result(t, a, child))
	assert.Equal(t, layout.LayoutResult{}, result(t, a, grandchild))
}

func TestAbsoluteChildUsesPaddingBox(t *testing.T) {
	a := layout.NewArena()
	topLeft := node(t, a, func(s *style.ComputedStyle) {
		s.Position = style.PositionAbsolute
		s.Inset.Left = style.Px(0)
		s.Inset.Top = style.Px(0)
		s.Width = style.Px(20)
		s.Height = style.Px(20)
	})
	bottomRight := node(t, a, func(s *style.ComputedStyle) {
		s.Position = style.PositionAbsolute
		s.Inset.Right = style.Px(0)
		s.Inset.Bottom = style.Px(0)
		s.Width = style.Px(20)
		s.Height = style.Px(20)
	})
	stretched := node(t, a, func(s *style.ComputedStyle) {
		s.Position = style.PositionAbsolute
		s.Inset = style.Uniform(style.Px(5))
	})
	root := node(t, a, func(s *style.ComputedStyle) {
		s.Width = style.Px(200)
		s.Height = style.Px(100)
		s.Padding = style.Uniform(style.Px(10))
	}, topLeft, bottomRight, stretched)

	r, err := a.ComputeLayout(root, viewport)
	require.NoError(t, err)
	assert.Equal(t, 100.0, r.Height, "absolute children do not contribute to flow")

	tl := result(t, a, topLeft)
	assert.Equal(t, -10.0, tl.X)
	assert.Equal(t, -10.0, tl.Y)

	br := result(t, a, bottomRight)
	assert.Equal(t, 190.0, br.X)
	assert.Equal(t, 90.0, br.Y)

	st := result(t, a, stretched)
	assert.Equal(t, 210.0, st.Width)
	assert.Equal(t, 110.0, st.Height)
	assert.Equal(t, -5.0, st.X)
}

func TestViewport(t *testing.T) {
	a := layout.NewArena()
	root := node(t, a, func(s *style.ComputedStyle) { s.Height = style.Percent(100) })

	r, err := a.ComputeLayoutInViewport(root, layout.NewViewport(1024, 768))
	require.NoError(t, err)
	assert.Equal(t, 1024.0, r.Width)
	assert.Equal(t, 768.0, r.Height)

	r, err = a.ComputeLayoutInViewport(root, layout.Viewport{Width: 320, HasWidth: true})
	require.NoError(t, err)
	assert.Equal(t, 320.0, r.Width)
	assert.Equal(t, 0.0, r.Height, "unreported height is indefinite")
}
