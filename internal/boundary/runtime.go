// internal/boundary/runtime.go
package boundary

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/xkilldash9x/boxflow/internal/layout"
	"github.com/xkilldash9x/boxflow/internal/report"
	"github.com/xkilldash9x/boxflow/internal/style"
)

// HandleResult carries a node handle or a failure code.
type HandleResult struct {
	Handle uint64
	Code   Code
}

// CountResult carries a count or a failure code.
type CountResult struct {
	Value uint32
	Code  Code
}

// BoolResult carries a flag or a failure code.
type BoolResult struct {
	Value bool
	Code  Code
}

// LayoutValues is the flat committed geometry of one node. Edge arrays are
// ordered top, right, bottom, left.
type LayoutValues struct {
	Code          Code
	X, Y          float32
	Width, Height float32
	Margin        [4]float32
	Border        [4]float32
	Padding       [4]float32
}

// BufferResult names a runtime-owned byte buffer. The host reads it with
// ReadBuffer and must release it with FreeBuffer.
type BufferResult struct {
	Ptr  uint32
	Len  uint32
	Code Code
}

// MeasureFunc is the host measurement callback. Space kinds use the same
// encoding as ComputeLayout. Returning ok=false reports a failure.
type MeasureFunc func(node uint64, widthKind uint8, width float32, heightKind uint8, height float32) (outWidth, outHeight float32, ok bool)

// DirtyFunc is called with the handle of a node that just became dirty.
type DirtyFunc func(node uint64)

// Runtime owns an arena plus the styles and buffers handed across the boundary.
// It is not safe for concurrent use.
type Runtime struct {
	arena   *layout.Arena
	logger  *zap.Logger
	styles  map[layout.Handle]*style.ComputedStyle
	buffers map[uint32][]byte
	nextBuf uint32
}

// New creates a runtime over a fresh arena.
func New(logger *zap.Logger, opts ...layout.Option) *Runtime {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("boundary")
	opts = append([]layout.Option{layout.WithLogger(logger)}, opts...)
	return &Runtime{
		arena:   layout.NewArena(opts...),
		logger:  logger,
		styles:  make(map[layout.Handle]*style.ComputedStyle),
		buffers: make(map[uint32][]byte),
	}
}

// Arena exposes the underlying arena for in-process hosts.
func (r *Runtime) Arena() *layout.Arena { return r.arena }

func handleOf(h uint64) (layout.Handle, Code) {
	if h == 0 {
		return layout.NullHandle, CodeNullPointer
	}
	return layout.Handle(h), CodeOK
}

func pair(a, b uint64) (layout.Handle, layout.Handle, Code) {
	ha, c := handleOf(a)
	if c != CodeOK {
		return 0, 0, c
	}
	hb, c := handleOf(b)
	if c != CodeOK {
		return 0, 0, c
	}
	return ha, hb, CodeOK
}

// -- Lifecycle --

func (r *Runtime) NodeNew() HandleResult {
	return HandleResult{Handle: uint64(r.arena.Create())}
}

// NodeFree destroys the node and its subtree together with their styles.
func (r *Runtime) NodeFree(node uint64) Code {
	h, c := handleOf(node)
	if c != CodeOK {
		return c
	}
	var doomed []layout.Handle
	if err := r.arena.Walk(h, func(d layout.Handle) bool {
		doomed = append(doomed, d)
		return true
	}); err != nil {
		return codeOf(err)
	}
	if err := r.arena.Destroy(h); err != nil {
		return codeOf(err)
	}
	for _, d := range doomed {
		delete(r.styles, d)
	}
	return CodeOK
}

// -- Tree --

func (r *Runtime) AppendChild(parent, child uint64) Code {
	p, c, code := pair(parent, child)
	if code != CodeOK {
		return code
	}
	return codeOf(r.arena.AppendChild(p, c))
}

func (r *Runtime) InsertChildAt(parent, child uint64, index uint32) Code {
	p, c, code := pair(parent, child)
	if code != CodeOK {
		return code
	}
	return codeOf(r.arena.InsertChildAt(p, c, int(index)))
}

func (r *Runtime) InsertChildBefore(parent, child, pivot uint64) Code {
	p, c, code := pair(parent, child)
	if code != CodeOK {
		return code
	}
	pv, code := handleOf(pivot)
	if code != CodeOK {
		return code
	}
	return codeOf(r.arena.InsertChildBefore(p, c, pv))
}

func (r *Runtime) RemoveChild(parent uint64, index uint32) HandleResult {
	p, code := handleOf(parent)
	if code != CodeOK {
		return HandleResult{Code: code}
	}
	h, err := r.arena.RemoveChild(p, int(index))
	if err != nil {
		return HandleResult{Code: codeOf(err)}
	}
	return HandleResult{Handle: uint64(h)}
}

func (r *Runtime) RemoveAllChildren(parent uint64) Code {
	p, code := handleOf(parent)
	if code != CodeOK {
		return code
	}
	return codeOf(r.arena.RemoveAllChildren(p))
}

func (r *Runtime) ChildCount(node uint64) CountResult {
	h, code := handleOf(node)
	if code != CodeOK {
		return CountResult{Code: code}
	}
	n, err := r.arena.ChildCount(h)
	if err != nil {
		return CountResult{Code: codeOf(err)}
	}
	return CountResult{Value: uint32(n)}
}

func (r *Runtime) ChildAt(node uint64, index uint32) HandleResult {
	h, code := handleOf(node)
	if code != CodeOK {
		return HandleResult{Code: code}
	}
	c, err := r.arena.ChildAt(h, int(index))
	if err != nil {
		return HandleResult{Code: codeOf(err)}
	}
	return HandleResult{Handle: uint64(c)}
}

// Parent returns handle 0 with CodeOK for a root.
func (r *Runtime) Parent(node uint64) HandleResult {
	h, code := handleOf(node)
	if code != CodeOK {
		return HandleResult{Code: code}
	}
	p, err := r.arena.Parent(h)
	if err != nil {
		return HandleResult{Code: codeOf(err)}
	}
	return HandleResult{Handle: uint64(p)}
}

// -- Style --

// setProperty writes one property into the node's runtime-owned style.
func (r *Runtime) setProperty(node uint64, prop uint16, kind style.Kind, v style.Value) Code {
	h, code := handleOf(node)
	if code != CodeOK {
		return code
	}
	if !r.arena.Contains(h) {
		return CodeInvalidHandle
	}
	owned, ok := r.styles[h]
	next := style.Default()
	if ok {
		next = *owned
	}
	if err := style.Set(&next, style.Property(prop), kind, v); err != nil {
		r.logger.Debug("Rejected style write.", zap.Uint16("property", prop), zap.Error(err))
		return codeOf(err)
	}
	// The arena borrows the stored style, so a write goes to a fresh copy that
	// replaces it only once the arena has accepted it.
	fresh := new(style.ComputedStyle)
	*fresh = next
	if err := r.arena.SetStyle(h, fresh); err != nil {
		return codeOf(err)
	}
	r.styles[h] = fresh
	return CodeOK
}

// SetLength sets a length property. unit follows style.Unit: 0 auto, 1 px, 2 percent.
func (r *Runtime) SetLength(node uint64, prop uint16, unit uint8, value float32) Code {
	if math.IsNaN(float64(value)) || math.IsInf(float64(value), 0) {
		return CodeInvalidArgument
	}
	l := style.Length{Unit: style.Unit(unit), Value: float64(value)}
	return r.setProperty(node, prop, style.KindLength, style.LengthValue(l))
}

func (r *Runtime) SetNumber(node uint64, prop uint16, value float32) Code {
	if math.IsNaN(float64(value)) || math.IsInf(float64(value), 0) {
		return CodeInvalidArgument
	}
	return r.setProperty(node, prop, style.KindNumber, style.NumberValue(float64(value)))
}

func (r *Runtime) SetEnum(node uint64, prop uint16, value int32) Code {
	return r.setProperty(node, prop, style.KindEnum, style.EnumValue(value))
}

// ResetStyle drops the node's style back to the defaults.
func (r *Runtime) ResetStyle(node uint64) Code {
	h, code := handleOf(node)
	if code != CodeOK {
		return code
	}
	if err := r.arena.SetStyle(h, nil); err != nil {
		return codeOf(err)
	}
	delete(r.styles, h)
	return CodeOK
}

// -- Measurement and Dirtiness --

type hostMeasurer struct {
	fn     MeasureFunc
	logger *zap.Logger
}

func (m hostMeasurer) Measure(node layout.Handle, width, height layout.AvailableSpace) (size layout.Size, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			m.logger.Error("Host measure callback panicked.", zap.Stringer("node", node), zap.Any("panic", rec))
			err = fmt.Errorf("measure callback panicked: %v", rec)
		}
	}()
	w, h, ok := m.fn(uint64(node), uint8(width.Kind), float32(width.Value), uint8(height.Kind), float32(height.Value))
	if !ok {
		return layout.Size{}, fmt.Errorf("host measure callback reported failure")
	}
	return layout.Size{Width: float64(w), Height: float64(h)}, nil
}

func (r *Runtime) SetMeasureFunc(node uint64, fn MeasureFunc) Code {
	h, code := handleOf(node)
	if code != CodeOK {
		return code
	}
	if fn == nil {
		return CodeNullPointer
	}
	return codeOf(r.arena.SetMeasurer(h, hostMeasurer{fn: fn, logger: r.logger}))
}

func (r *Runtime) ClearMeasureFunc(node uint64) Code {
	h, code := handleOf(node)
	if code != CodeOK {
		return code
	}
	return codeOf(r.arena.ClearMeasurer(h))
}

// SetDirtyCallback registers fn for clean-to-dirty transitions of the node.
// A nil fn unregisters.
func (r *Runtime) SetDirtyCallback(node uint64, fn DirtyFunc) Code {
	h, code := handleOf(node)
	if code != CodeOK {
		return code
	}
	if fn == nil {
		return codeOf(r.arena.ObserveDirty(h, nil))
	}
	logger := r.logger
	return codeOf(r.arena.ObserveDirty(h, func(d layout.Handle) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.Error("Host dirty callback panicked.", zap.Stringer("node", d), zap.Any("panic", rec))
			}
		}()
		fn(uint64(d))
	}))
}

func (r *Runtime) MarkDirty(node uint64) Code {
	h, code := handleOf(node)
	if code != CodeOK {
		return code
	}
	return codeOf(r.arena.MarkDirty(h))
}

func (r *Runtime) IsDirty(node uint64) BoolResult {
	h, code := handleOf(node)
	if code != CodeOK {
		return BoolResult{Code: code}
	}
	d, err := r.arena.IsDirty(h)
	if err != nil {
		return BoolResult{Code: codeOf(err)}
	}
	return BoolResult{Value: d}
}

// -- Layout --

func spaceOf(kind uint8, value float32) (layout.AvailableSpace, Code) {
	v := float64(value)
	if math.IsNaN(v) {
		return layout.AvailableSpace{}, CodeInvalidArgument
	}
	switch layout.SpaceKind(kind) {
	case layout.Indefinite:
		return layout.IndefiniteSpace(), CodeOK
	case layout.Definite:
		return layout.DefiniteSpace(v), CodeOK
	case layout.AtMost:
		return layout.AtMostSpace(v), CodeOK
	}
	return layout.AvailableSpace{}, CodeInvalidArgument
}

// ComputeLayout lays out the tree at node. Kinds: 0 indefinite, 1 definite, 2 at-most.
func (r *Runtime) ComputeLayout(node uint64, widthKind uint8, width float32, heightKind uint8, height float32) Code {
	h, code := handleOf(node)
	if code != CodeOK {
		return code
	}
	w, code := spaceOf(widthKind, width)
	if code != CodeOK {
		return code
	}
	hh, code := spaceOf(heightKind, height)
	if code != CodeOK {
		return code
	}
	_, err := r.arena.ComputeLayout(h, layout.Constraint{Width: w, Height: hh})
	return codeOf(err)
}

// ComputeLayoutInViewport sizes the root against present/value viewport pairs.
func (r *Runtime) ComputeLayoutInViewport(node uint64, hasWidth bool, width float32, hasHeight bool, height float32) Code {
	h, code := handleOf(node)
	if code != CodeOK {
		return code
	}
	vp := layout.Viewport{Width: float64(width), Height: float64(height), HasWidth: hasWidth, HasHeight: hasHeight}
	_, err := r.arena.ComputeLayoutInViewport(h, vp)
	return codeOf(err)
}

func edges32(e layout.Edges) [4]float32 {
	return [4]float32{float32(e.Top), float32(e.Right), float32(e.Bottom), float32(e.Left)}
}

// GetLayoutResult returns the last committed geometry of the node.
func (r *Runtime) GetLayoutResult(node uint64) LayoutValues {
	h, code := handleOf(node)
	if code != CodeOK {
		return LayoutValues{Code: code}
	}
	res, err := r.arena.Layout(h)
	if err != nil {
		return LayoutValues{Code: codeOf(err)}
	}
	return LayoutValues{
		X: float32(res.X), Y: float32(res.Y),
		Width: float32(res.Width), Height: float32(res.Height),
		Margin: edges32(res.Margin), Border: edges32(res.Border), Padding: edges32(res.Padding),
	}
}

// -- Buffers --

func (r *Runtime) store(data []byte) BufferResult {
	r.nextBuf++
	if r.nextBuf == 0 {
		r.nextBuf = 1
	}
	r.buffers[r.nextBuf] = data
	return BufferResult{Ptr: r.nextBuf, Len: uint32(len(data))}
}

// NodeToString renders the subtree at node as JSON into a runtime buffer.
func (r *Runtime) NodeToString(node uint64) BufferResult {
	h, code := handleOf(node)
	if code != CodeOK {
		return BufferResult{Code: code}
	}
	s, err := report.Dump(r.arena, h)
	if err != nil {
		return BufferResult{Code: codeOf(err)}
	}
	return r.store([]byte(s))
}

// Snapshot encodes the subtree at node as CBOR into a runtime buffer.
func (r *Runtime) Snapshot(node uint64) BufferResult {
	h, code := handleOf(node)
	if code != CodeOK {
		return BufferResult{Code: code}
	}
	tree, err := report.Collect(r.arena, h, nil)
	if err != nil {
		return BufferResult{Code: codeOf(err)}
	}
	data, err := report.EncodeSnapshot(report.Snapshot{Arena: r.arena.ID().String(), Root: tree})
	if err != nil {
		r.logger.Error("Snapshot encoding failed.", zap.Error(err))
		return BufferResult{Code: CodeInternal}
	}
	return r.store(data)
}

// ReadBuffer returns a copy of a live buffer.
func (r *Runtime) ReadBuffer(ptr uint32) ([]byte, Code) {
	if ptr == 0 {
		return nil, CodeNullPointer
	}
	data, ok := r.buffers[ptr]
	if !ok {
		return nil, CodeUnknownBuffer
	}
	return append([]byte(nil), data...), CodeOK
}

// FreeBuffer releases a buffer. Freeing twice reports CodeUnknownBuffer.
func (r *Runtime) FreeBuffer(ptr uint32) Code {
	if ptr == 0 {
		return CodeNullPointer
	}
	if _, ok := r.buffers[ptr]; !ok {
		return CodeUnknownBuffer
	}
	delete(r.buffers, ptr)
	return CodeOK
}

// LiveBuffers counts buffers not yet freed.
func (r *Runtime) LiveBuffers() int { return len(r.buffers) }
