package layout_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/boxflow/internal/layout"
	"github.com/xkilldash9x/boxflow/internal/style"
)

// node creates a styled node under arena a and appends the given children.
func node(t *testing.T, a *layout.Arena, mutate func(*style.ComputedStyle), children ...layout.Handle) layout.Handle {
	t.Helper()
	h := a.Create()
	s := style.Default()
	if mutate != nil {
		mutate(&s)
	}
	require.NoError(t, a.SetStyle(h, &s))
	for _, c := range children {
		require.NoError(t, a.AppendChild(h, c))
	}
	return h
}

func fixed(w, h float64) func(*style.ComputedStyle) {
	return func(s *style.ComputedStyle) {
		s.Width = style.Px(w)
		s.Height = style.Px(h)
	}
}

func result(t *testing.T, a *layout.Arena, h layout.Handle) layout.LayoutResult {
	t.Helper()
	r, err := a.Layout(h)
	require.NoError(t, err)
	return r
}

// snapshot collects the committed result of every node under root.
func snapshot(t *testing.T, a *layout.Arena, root layout.Handle) map[layout.Handle]layout.LayoutResult {
	t.Helper()
	out := map[layout.Handle]layout.LayoutResult{}
	require.NoError(t, a.Walk(root, func(h layout.Handle) bool {
		out[h] = result(t, a, h)
		return true
	}))
	return out
}

// fixedMeasurer reports a constant size and counts its calls.
type fixedMeasurer struct {
	size  layout.Size
	err   error
	calls int
	last  [2]layout.AvailableSpace
}

func (m *fixedMeasurer) Measure(_ layout.Handle, w, h layout.AvailableSpace) (layout.Size, error) {
	m.calls++
	m.last = [2]layout.AvailableSpace{w, h}
	return m.size, m.err
}

var viewport = layout.Exact(800, 600)
