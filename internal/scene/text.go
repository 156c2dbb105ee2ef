// internal/scene/text.go
package scene

import (
	"math"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/xkilldash9x/boxflow/internal/layout"
)

// TextMeasurer sizes text on a fixed grid: every terminal column is CharWidth
// wide and every line LineHeight tall. Wide runes take two columns.
type TextMeasurer struct {
	CharWidth  float64
	LineHeight float64
}

// DefaultText is the measurer scenes use when none is configured.
var DefaultText = TextMeasurer{CharWidth: 8, LineHeight: 16}

// Lines greedily wraps text at word boundaries into lines no wider than
// maxColumns. A word longer than the limit occupies a line of its own.
// maxColumns of 0 or less disables wrapping.
func Lines(text string, maxColumns int) []string {
	var lines []string
	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}
		line := words[0]
		cols := runewidth.StringWidth(line)
		for _, w := range words[1:] {
			ww := runewidth.StringWidth(w)
			if maxColumns > 0 && cols+1+ww > maxColumns {
				lines = append(lines, line)
				line, cols = w, ww
				continue
			}
			line += " " + w
			cols += 1 + ww
		}
		lines = append(lines, line)
	}
	return lines
}

// Measure wraps text against the offered width and reports its content size.
func (m TextMeasurer) Measure(text string, width layout.AvailableSpace) layout.Size {
	if strings.TrimSpace(text) == "" || m.CharWidth <= 0 {
		return layout.Size{}
	}
	limit := 0
	if width.Bounded() {
		// Widths beyond any real line length wrap like unbounded space.
		if cols := math.Floor(width.Value / m.CharWidth); cols < math.MaxInt32 {
			limit = max(int(cols), 1)
		}
	}
	lines := Lines(text, limit)
	widest := 0
	for _, l := range lines {
		widest = max(widest, runewidth.StringWidth(l))
	}
	return layout.Size{
		Width:  float64(widest) * m.CharWidth,
		Height: float64(len(lines)) * m.LineHeight,
	}
}

// For returns a layout measurer bound to one text run.
func (m TextMeasurer) For(text string) layout.Measurer {
	return layout.MeasureFunc(func(_ layout.Handle, width, _ layout.AvailableSpace) (layout.Size, error) {
		return m.Measure(text, width), nil
	})
}
