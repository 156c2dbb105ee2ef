package layout_test

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/boxflow/internal/layout"
	"github.com/xkilldash9x/boxflow/internal/style"
)

func flexRow(width float64, extra func(*style.ComputedStyle)) func(*style.ComputedStyle) {
	return func(s *style.ComputedStyle) {
		s.Display = style.DisplayFlex
		s.Width = style.Px(width)
		if extra != nil {
			extra(s)
		}
	}
}

func xs(t *testing.T, a *layout.Arena, hs ...layout.Handle) []float64 {
	t.Helper()
	out := make([]float64, len(hs))
	for i, h := range hs {
		out[i] = result(t, a, h).X
	}
	return out
}

func widths(t *testing.T, a *layout.Arena, hs ...layout.Handle) []float64 {
	t.Helper()
	out := make([]float64, len(hs))
	for i, h := range hs {
		out[i] = result(t, a, h).Width
	}
	return out
}

func TestFlexAutoMarginsSplitFreeSpace(t *testing.T) {
	a := layout.NewArena()
	item := func(s *style.ComputedStyle) {
		s.Width = style.Px(30)
		s.Margin.Left = style.Auto()
		s.Margin.Right = style.Auto()
	}
	first := node(t, a, item)
	second := node(t, a, item)
	root := node(t, a, flexRow(100, nil), first, second)

	_, err := a.ComputeLayout(root, viewport)
	require.NoError(t, err)
	assert.Equal(t, []float64{10, 60}, xs(t, a, first, second))
	assert.Equal(t, 10.0, result(t, a, first).Margin.Left)
	assert.Equal(t, 10.0, result(t, a, second).Margin.Right)
}

func TestFlexAutoMarginsWithoutFreeSpace(t *testing.T) {
	a := layout.NewArena()
	item := func(s *style.ComputedStyle) {
		s.Width = style.Px(60)
		s.FlexShrink = 0
		s.Margin.Left = style.Auto()
	}
	first := node(t, a, item)
	second := node(t, a, item)
	root := node(t, a, flexRow(100, nil), first, second)

	_, err := a.ComputeLayout(root, viewport)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 60}, xs(t, a, first, second))
	assert.Equal(t, 0.0, result(t, a, first).Margin.Left)
}

func TestFlexGrow(t *testing.T) {
	a := layout.NewArena()
	grow := func(g float64) func(*style.ComputedStyle) {
		return func(s *style.ComputedStyle) {
			s.FlexBasis = style.Px(0)
			s.FlexGrow = g
		}
	}
	first := node(t, a, grow(1))
	second := node(t, a, grow(2))
	idle := node(t, a, func(s *style.ComputedStyle) { s.Width = style.Px(0) })
	root := node(t, a, flexRow(300, nil), first, second, idle)

	_, err := a.ComputeLayout(root, viewport)
	require.NoError(t, err)
	assert.Equal(t, []float64{100, 200, 0}, widths(t, a, first, second, idle))
	assert.Equal(t, []float64{0, 100, 300}, xs(t, a, first, second, idle))
}

// computeWithin fails the test instead of hanging when a pass never returns.
func computeWithin(t *testing.T, a *layout.Arena, root layout.Handle) {
	t.Helper()
	done := make(chan error, 1)
	go func() {
		_, err := a.ComputeLayout(root, viewport)
		done <- err
	}()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("ComputeLayout did not return")
	}
}

func TestFlexExtremeFactors(t *testing.T) {
	withWidth := func(w float64, mutate func(*style.ComputedStyle)) func(*style.ComputedStyle) {
		return func(s *style.ComputedStyle) {
			s.Width = style.Px(w)
			mutate(s)
		}
	}

	t.Run("huge grow factors keep their ratio", func(t *testing.T) {
		a := layout.NewArena()
		huge := func(s *style.ComputedStyle) { s.FlexGrow = 1e308 }
		first := node(t, a, withWidth(10, huge))
		second := node(t, a, withWidth(10, huge))
		root := node(t, a, flexRow(100, nil), first, second)

		computeWithin(t, a, root)
		assert.Equal(t, []float64{50, 50}, widths(t, a, first, second))
		assert.Equal(t, []float64{0, 50}, xs(t, a, first, second))
	})

	t.Run("huge shrink factors keep their ratio", func(t *testing.T) {
		a := layout.NewArena()
		huge := func(s *style.ComputedStyle) { s.FlexShrink = 1e308 }
		first := node(t, a, withWidth(100, huge))
		second := node(t, a, withWidth(100, huge))
		root := node(t, a, flexRow(100, nil), first, second)

		computeWithin(t, a, root)
		assert.Equal(t, []float64{50, 50}, widths(t, a, first, second))
	})

	t.Run("non-finite factors do not flex", func(t *testing.T) {
		a := layout.NewArena()
		nan := node(t, a, withWidth(10, func(s *style.ComputedStyle) { s.FlexGrow = math.NaN() }))
		inf := node(t, a, withWidth(10, func(s *style.ComputedStyle) { s.FlexGrow = math.Inf(1) }))
		normal := node(t, a, withWidth(10, func(s *style.ComputedStyle) { s.FlexGrow = 1 }))
		root := node(t, a, flexRow(100, nil), nan, inf, normal)

		computeWithin(t, a, root)
		assert.Equal(t, []float64{10, 10, 80}, widths(t, a, nan, inf, normal))
	})
}

func TestFlexShrinkRespectsMinAndRedistributes(t *testing.T) {
	a := layout.NewArena()
	first := node(t, a, func(s *style.ComputedStyle) {
		s.Width = style.Px(100)
		s.MinWidth = style.Px(80)
	})
	second := node(t, a, func(s *style.ComputedStyle) { s.Width = style.Px(100) })
	root := node(t, a, flexRow(100, nil), first, second)

	_, err := a.ComputeLayout(root, viewport)
	require.NoError(t, err)
	assert.Equal(t, []float64{80, 20}, widths(t, a, first, second))
}

func TestFlexShrinkNeverBelowZero(t *testing.T) {
	a := layout.NewArena()
	small := node(t, a, func(s *style.ComputedStyle) { s.Width = style.Px(10) })
	big := node(t, a, func(s *style.ComputedStyle) {
		s.Width = style.Px(100)
		s.FlexShrink = 0
	})
	root := node(t, a, flexRow(50, nil), small, big)

	_, err := a.ComputeLayout(root, viewport)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 100}, widths(t, a, small, big))
}

func TestFlexJustifyContent(t *testing.T) {
	tests := []struct {
		name    string
		justify style.JustifyContent
		want    []float64
	}{
		{"flex-start", style.JustifyFlexStart, []float64{0, 50}},
		{"flex-end", style.JustifyFlexEnd, []float64{200, 250}},
		{"center", style.JustifyCenter, []float64{100, 150}},
		{"space-between", style.JustifySpaceBetween, []float64{0, 250}},
		{"space-around", style.JustifySpaceAround, []float64{50, 200}},
		{"space-evenly", style.JustifySpaceEvenly, []float64{200.0 / 3, 200.0/3*2 + 50}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := layout.NewArena()
			first := node(t, a, fixed(50, 10))
			second := node(t, a, fixed(50, 10))
			root := node(t, a, flexRow(300, func(s *style.ComputedStyle) { s.JustifyContent = tt.justify }), first, second)

			_, err := a.ComputeLayout(root, viewport)
			require.NoError(t, err)
			got := xs(t, a, first, second)
			assert.InDeltaSlice(t, tt.want, got, 1e-9)
		})
	}
}

func TestFlexRowReverse(t *testing.T) {
	a := layout.NewArena()
	first := node(t, a, fixed(50, 10))
	second := node(t, a, fixed(50, 10))
	root := node(t, a, flexRow(300, func(s *style.ComputedStyle) { s.FlexDirection = style.FlexDirectionRowReverse }), first, second)

	_, err := a.ComputeLayout(root, viewport)
	require.NoError(t, err)
	assert.Equal(t, []float64{250, 200}, xs(t, a, first, second))
}

func TestFlexOrder(t *testing.T) {
	a := layout.NewArena()
	first := node(t, a, func(s *style.ComputedStyle) {
		s.Width = style.Px(40)
		s.Order = 2
	})
	second := node(t, a, func(s *style.ComputedStyle) {
		s.Width = style.Px(40)
		s.Order = 1
	})
	root := node(t, a, flexRow(200, nil), first, second)

	_, err := a.ComputeLayout(root, viewport)
	require.NoError(t, err)
	assert.Equal(t, []float64{40, 0}, xs(t, a, first, second))
}

func TestFlexWrapBreaksLines(t *testing.T) {
	a := layout.NewArena()
	items := []layout.Handle{node(t, a, fixed(40, 10)), node(t, a, fixed(40, 10)), node(t, a, fixed(40, 10))}
	root := node(t, a, flexRow(100, func(s *style.ComputedStyle) { s.FlexWrap = style.FlexWrapWrap }), items...)

	r, err := a.ComputeLayout(root, viewport)
	require.NoError(t, err)
	assert.Equal(t, 20.0, r.Height)

	third := result(t, a, items[2])
	assert.Equal(t, 0.0, third.X)
	assert.Equal(t, 10.0, third.Y)
	assert.Equal(t, 40.0, result(t, a, items[1]).X)
}

func TestFlexGaps(t *testing.T) {
	a := layout.NewArena()
	items := []layout.Handle{node(t, a, fixed(40, 10)), node(t, a, fixed(40, 10)), node(t, a, fixed(40, 10))}
	root := node(t, a, flexRow(100, func(s *style.ComputedStyle) {
		s.FlexWrap = style.FlexWrapWrap
		s.ColumnGap = style.Px(10)
		s.RowGap = style.Px(5)
	}), items...)

	r, err := a.ComputeLayout(root, viewport)
	require.NoError(t, err)
	assert.Equal(t, 25.0, r.Height)
	assert.Equal(t, 50.0, result(t, a, items[1]).X)
	assert.Equal(t, 15.0, result(t, a, items[2]).Y)
}

func TestFlexStretchAndCrossAlignment(t *testing.T) {
	a := layout.NewArena()
	stretched := node(t, a, func(s *style.ComputedStyle) { s.Width = style.Px(20) })
	centered := node(t, a, func(s *style.ComputedStyle) {
		s.Width = style.Px(20)
		s.Height = style.Px(10)
		s.AlignSelf = style.AlignSelfCenter
	})
	ended := node(t, a, func(s *style.ComputedStyle) {
		s.Width = style.Px(20)
		s.Height = style.Px(10)
		s.AlignSelf = style.AlignSelfFlexEnd
	})
	autoMargin := node(t, a, func(s *style.ComputedStyle) {
		s.Width = style.Px(20)
		s.Height = style.Px(10)
		s.Margin.Top = style.Auto()
	})
	root := node(t, a, flexRow(200, func(s *style.ComputedStyle) { s.Height = style.Px(50) }),
		stretched, centered, ended, autoMargin)

	_, err := a.ComputeLayout(root, viewport)
	require.NoError(t, err)
	assert.Equal(t, 50.0, result(t, a, stretched).Height)
	assert.Equal(t, 20.0, result(t, a, centered).Y)
	assert.Equal(t, 40.0, result(t, a, ended).Y)
	assert.Equal(t, 40.0, result(t, a, autoMargin).Y)
	assert.Equal(t, 40.0, result(t, a, autoMargin).Margin.Top)
}

func TestFlexColumn(t *testing.T) {
	a := layout.NewArena()
	first := node(t, a, func(s *style.ComputedStyle) { s.Height = style.Px(30) })
	second := node(t, a, func(s *style.ComputedStyle) { s.Height = style.Px(20) })
	root := node(t, a, func(s *style.ComputedStyle) {
		s.Display = style.DisplayFlex
		s.FlexDirection = style.FlexDirectionColumn
		s.Width = style.Px(200)
	}, first, second)

	r, err := a.ComputeLayout(root, viewport)
	require.NoError(t, err)
	assert.Equal(t, 50.0, r.Height, "indefinite main size is the sum of the items")
	assert.Equal(t, 30.0, result(t, a, second).Y)
	assert.Equal(t, 200.0, result(t, a, first).Width, "items stretch across the cross axis")
}

func TestFlexContentBasisUsesMeasurer(t *testing.T) {
	a := layout.NewArena()
	text := node(t, a, nil)
	m := &fixedMeasurer{size: layout.Size{Width: 70, Height: 12}}
	require.NoError(t, a.SetMeasurer(text, m))
	root := node(t, a, flexRow(200, nil), text)

	_, err := a.ComputeLayout(root, viewport)
	require.NoError(t, err)
	r := result(t, a, text)
	assert.Equal(t, 70.0, r.Width)
	assert.Equal(t, 12.0, r.Height)
}
