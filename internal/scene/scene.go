// internal/scene/scene.go

// Package scene reads YAML scene descriptions and builds them into layout
// arenas. It stands in for the style and markup systems a real host would
// bring: each node carries already-computed property values keyed by name.
package scene

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v3"

	"github.com/xkilldash9x/boxflow/internal/layout"
	"github.com/xkilldash9x/boxflow/internal/style"
)

var (
	ErrInvalidValue = errors.New("scene: invalid style value")
	ErrDuplicateID  = errors.New("scene: duplicate node id")
)

// Document is the top level of a scene file.
type Document struct {
	Viewport *ViewportSpec `yaml:"viewport,omitempty"`
	Root     NodeSpec      `yaml:"root"`
}

// ViewportSpec reports zero, one or both viewport axes.
type ViewportSpec struct {
	Width  *float64 `yaml:"width,omitempty"`
	Height *float64 `yaml:"height,omitempty"`
}

// NodeSpec describes one box. Text makes the node measured by the scene's
// TextMeasurer.
type NodeSpec struct {
	ID       string            `yaml:"id,omitempty"`
	Style    map[string]string `yaml:"style,omitempty"`
	Text     string            `yaml:"text,omitempty"`
	Children []NodeSpec        `yaml:"children,omitempty"`
}

// Parse decodes a scene document. Unknown fields are rejected.
func Parse(r io.Reader) (*Document, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var doc Document
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to parse scene: empty document")
		}
		return nil, fmt.Errorf("failed to parse scene: %w", err)
	}
	return &doc, nil
}

// Load reads a scene file. A leading ~ in path is expanded.
func Load(path string) (*Document, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return nil, fmt.Errorf("failed to expand scene path: %w", err)
	}
	data, err := os.ReadFile(expanded)
	if err != nil {
		return nil, fmt.Errorf("failed to read scene file: %w", err)
	}
	return Parse(bytes.NewReader(data))
}

// ViewportOr returns the document's viewport, falling back to def when the
// document does not declare one.
func (d *Document) ViewportOr(def layout.Viewport) layout.Viewport {
	if d.Viewport == nil {
		return def
	}
	var vp layout.Viewport
	if w := d.Viewport.Width; w != nil {
		vp.Width, vp.HasWidth = *w, true
	}
	if h := d.Viewport.Height; h != nil {
		vp.Height, vp.HasHeight = *h, true
	}
	return vp
}

// ParseValue converts a raw property value. Lengths accept "auto", a bare
// number or "px" suffix for pixels, and a "%" suffix for percentages.
func ParseValue(p style.Property, raw string) (style.Value, error) {
	if !p.Valid() {
		return style.Value{}, fmt.Errorf("%w: %d", style.ErrUnknownProperty, uint16(p))
	}
	raw = strings.TrimSpace(raw)
	switch p.Kind() {
	case style.KindLength:
		l, err := parseLength(raw)
		if err != nil {
			return style.Value{}, fmt.Errorf("%w: %s: %q", ErrInvalidValue, p, raw)
		}
		return style.LengthValue(l), nil
	case style.KindNumber:
		n, err := parseFinite(raw)
		if err != nil {
			return style.Value{}, fmt.Errorf("%w: %s: %q", ErrInvalidValue, p, raw)
		}
		return style.NumberValue(n), nil
	case style.KindEnum:
		e, ok := style.Keyword(p, raw)
		if !ok {
			return style.Value{}, fmt.Errorf("%w: %s: %q, want one of %s",
				ErrInvalidValue, p, raw, strings.Join(p.Keywords(), ", "))
		}
		return style.EnumValue(e), nil
	}
	return style.Value{}, fmt.Errorf("%w: %s has kind %s", ErrInvalidValue, p, p.Kind())
}

func parseLength(raw string) (style.Length, error) {
	if raw == "auto" {
		return style.Auto(), nil
	}
	if num, ok := strings.CutSuffix(raw, "%"); ok {
		v, err := parseFinite(strings.TrimSpace(num))
		if err != nil {
			return style.Length{}, err
		}
		return style.Percent(v), nil
	}
	num, _ := strings.CutSuffix(raw, "px")
	v, err := parseFinite(strings.TrimSpace(num))
	if err != nil {
		return style.Length{}, err
	}
	return style.Px(v), nil
}

// parseFinite is strconv.ParseFloat without the inf and nan spellings.
func parseFinite(raw string) (float64, error) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%q is not a finite number", raw)
	}
	return v, nil
}

// BuildStyle turns a name/value map into a ComputedStyle. Shorthands apply
// before longhands so "margin" and "margin-top" compose.
func BuildStyle(decls map[string]string) (style.ComputedStyle, error) {
	cs := style.Default()
	type decl struct {
		prop style.Property
		raw  string
	}
	list := make([]decl, 0, len(decls))
	for name, raw := range decls {
		p, ok := style.Lookup(name)
		if !ok {
			return style.ComputedStyle{}, fmt.Errorf("%w: %q", style.ErrUnknownProperty, name)
		}
		list = append(list, decl{p, raw})
	}
	shorthand := func(p style.Property) bool {
		return p == style.PropMargin || p == style.PropPadding || p == style.PropBorder
	}
	sort.Slice(list, func(i, j int) bool {
		si, sj := shorthand(list[i].prop), shorthand(list[j].prop)
		if si != sj {
			return si
		}
		return list[i].prop < list[j].prop
	})
	for _, d := range list {
		v, err := ParseValue(d.prop, d.raw)
		if err != nil {
			return style.ComputedStyle{}, err
		}
		if err := style.Set(&cs, d.prop, d.prop.Kind(), v); err != nil {
			return style.ComputedStyle{}, err
		}
	}
	return cs, nil
}

// -- Building --

// Scene is a document materialized into an arena.
type Scene struct {
	Arena *layout.Arena
	Root  layout.Handle
	// Names maps handles of nodes with an id back to that id.
	Names map[layout.Handle]string
	// IDs is the inverse of Names.
	IDs map[string]layout.Handle
	// styles keeps every ComputedStyle the arena borrows alive and in one place.
	styles map[layout.Handle]*style.ComputedStyle
}

// Build creates a fresh arena holding the document's tree. Text nodes are
// measured with text.
func Build(doc *Document, text TextMeasurer, opts ...layout.Option) (*Scene, error) {
	s := &Scene{
		Arena:  layout.NewArena(opts...),
		Names:  make(map[layout.Handle]string),
		IDs:    make(map[string]layout.Handle),
		styles: make(map[layout.Handle]*style.ComputedStyle),
	}
	root, err := s.build(&doc.Root, text, "root")
	if err != nil {
		return nil, err
	}
	s.Root = root
	return s, nil
}

func (s *Scene) build(spec *NodeSpec, text TextMeasurer, path string) (layout.Handle, error) {
	label := path
	if spec.ID != "" {
		label = spec.ID
		if _, dup := s.IDs[spec.ID]; dup {
			return layout.NullHandle, fmt.Errorf("%w: %q", ErrDuplicateID, spec.ID)
		}
	}
	cs, err := BuildStyle(spec.Style)
	if err != nil {
		return layout.NullHandle, fmt.Errorf("node %s: %w", label, err)
	}

	h := s.Arena.Create()
	if spec.ID != "" {
		s.Names[h] = spec.ID
		s.IDs[spec.ID] = h
	}
	owned := &cs
	s.styles[h] = owned
	if err := s.Arena.SetStyle(h, owned); err != nil {
		return layout.NullHandle, err
	}
	if spec.Text != "" {
		if err := s.Arena.SetMeasurer(h, text.For(spec.Text)); err != nil {
			return layout.NullHandle, err
		}
	}
	for i := range spec.Children {
		c, err := s.build(&spec.Children[i], text, fmt.Sprintf("%s/%d", path, i))
		if err != nil {
			return layout.NullHandle, err
		}
		if err := s.Arena.AppendChild(h, c); err != nil {
			return layout.NullHandle, err
		}
	}
	return h, nil
}

// Style returns the style the node borrows, for hosts that edit it in place.
// Edits take effect after the caller marks the node dirty or re-sets it.
func (s *Scene) Style(h layout.Handle) (*style.ComputedStyle, bool) {
	cs, ok := s.styles[h]
	return cs, ok
}

// Node looks up a handle by id.
func (s *Scene) Node(id string) (layout.Handle, bool) {
	h, ok := s.IDs[id]
	return h, ok
}
