// internal/layout/arena.go
package layout

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/boxflow/internal/style"
)

const (
	// DefaultCacheEntries bounds the layout results retained per node.
	DefaultCacheEntries = 8
	// DefaultMeasureCacheEntries bounds the measurer results retained per node.
	DefaultMeasureCacheEntries = 8
)

var defaultStyle = style.Default()

// NodeState is the lifecycle state of a node's layout data.
type NodeState uint8

const (
	StateClean NodeState = iota
	StateDirty
	StateComputing
)

func (s NodeState) String() string {
	switch s {
	case StateClean:
		return "clean"
	case StateDirty:
		return "dirty"
	case StateComputing:
		return "computing"
	}
	return "unknown"
}

// Measurer sizes leaf content (text, images) the engine cannot see into.
// Width and height are the space on offer; the returned Size is the content box.
type Measurer interface {
	Measure(node Handle, width, height AvailableSpace) (Size, error)
}

// MeasureFunc adapts a function to Measurer.
type MeasureFunc func(node Handle, width, height AvailableSpace) (Size, error)

func (f MeasureFunc) Measure(node Handle, width, height AvailableSpace) (Size, error) {
	return f(node, width, height)
}

// DirtyObserver is called when a clean node becomes dirty.
type DirtyObserver func(node Handle)

type node struct {
	handle   Handle
	parent   *node
	children []*node

	style *style.ComputedStyle
	// seen is the value the style pointer held at the last SetStyle, used to
	// classify the next change.
	seen style.ComputedStyle

	measurer Measurer
	observer DirtyObserver

	dirty     bool
	computing bool

	cache    *boundedCache[request, *box]
	measured *boundedCache[Constraint, Size]

	result LayoutResult
}

func (n *node) computed() *style.ComputedStyle {
	if n.style == nil {
		return &defaultStyle
	}
	return n.style
}

func (n *node) indexOf(child *node) int {
	for i, c := range n.children {
		if c == child {
			return i
		}
	}
	return -1
}

type slot struct {
	gen  uint16
	node *node
}

// Arena owns every node of one or more box trees and hands out Handles to them.
// An Arena is not safe for concurrent use; hosts serialize access to it.
type Arena struct {
	id     uuid.UUID
	tag    uint16
	logger *zap.Logger

	slots []slot
	free  []uint32
	live  int

	cacheEntries   int
	measureEntries int
	maxDepth       int
	maxNodes       int

	inPass    bool
	notifying int // dirty observers currently running
	stats     Stats
}

// Option configures an Arena.
type Option func(*Arena)

// WithLogger sets the logger used for pass diagnostics. The default discards output.
func WithLogger(l *zap.Logger) Option {
	return func(a *Arena) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithCacheEntries sets the per-node layout cache capacity.
func WithCacheEntries(n int) Option {
	return func(a *Arena) {
		if n > 0 {
			a.cacheEntries = n
		}
	}
}

// WithMeasureCacheEntries sets the per-node measurement cache capacity.
func WithMeasureCacheEntries(n int) Option {
	return func(a *Arena) {
		if n > 0 {
			a.measureEntries = n
		}
	}
}

// WithLimits caps tree depth and node count for a single layout pass.
// Zero disables a limit.
func WithLimits(maxDepth, maxNodes int) Option {
	return func(a *Arena) {
		a.maxDepth = maxDepth
		a.maxNodes = maxNodes
	}
}

// NewArena creates an empty arena.
func NewArena(opts ...Option) *Arena {
	a := &Arena{
		id:             uuid.New(),
		tag:            nextArenaTag(),
		logger:         zap.NewNop(),
		cacheEntries:   DefaultCacheEntries,
		measureEntries: DefaultMeasureCacheEntries,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = a.logger.With(zap.String("arena", a.id.String()))
	return a
}

// ID identifies the arena in logs and snapshots.
func (a *Arena) ID() uuid.UUID { return a.id }

// Len returns the number of live nodes.
func (a *Arena) Len() int { return a.live }

// -- Node Lifecycle --

// Create allocates a detached node with the default style.
func (a *Arena) Create() Handle {
	var idx uint32
	if n := len(a.free); n > 0 {
		idx = a.free[n-1]
		a.free = a.free[:n-1]
	} else {
		idx = uint32(len(a.slots))
		a.slots = append(a.slots, slot{gen: 1})
	}
	s := &a.slots[idx]
	h := makeHandle(a.tag, s.gen, idx)
	s.node = &node{
		handle:   h,
		seen:     defaultStyle,
		dirty:    true,
		cache:    newBoundedCache[request, *box](a.cacheEntries),
		measured: newBoundedCache[Constraint, Size](a.measureEntries),
	}
	a.live++
	return h
}

func (a *Arena) lookup(h Handle) (*node, error) {
	idx, ok := h.index()
	if !ok || h.tag() != a.tag || int(idx) >= len(a.slots) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidHandle, h)
	}
	s := a.slots[idx]
	if s.node == nil || s.gen != h.gen() {
		return nil, fmt.Errorf("%w: %s is stale", ErrInvalidHandle, h)
	}
	return s.node, nil
}

// Contains reports whether h refers to a live node of this arena.
func (a *Arena) Contains(h Handle) bool {
	_, err := a.lookup(h)
	return err == nil
}

func (a *Arena) guardMutation() error {
	if a.inPass {
		return fmt.Errorf("%w: tree mutated during a layout pass", ErrReentrantLayout)
	}
	if a.notifying > 0 {
		return fmt.Errorf("%w: tree mutated from a dirty observer", ErrReentrantLayout)
	}
	return nil
}

// Destroy detaches the node and frees it together with its whole subtree.
// Every handle in the subtree becomes invalid.
func (a *Arena) Destroy(h Handle) error {
	n, err := a.lookup(h)
	if err != nil {
		return err
	}
	if err := a.guardMutation(); err != nil {
		return err
	}
	if n.parent != nil {
		a.detach(n)
	}
	a.release(n)
	return nil
}

// release frees n and its subtree. A node already released is skipped.
func (a *Arena) release(n *node) {
	idx, _ := n.handle.index()
	s := &a.slots[idx]
	if s.node != n {
		return
	}
	for _, c := range n.children {
		a.release(c)
	}
	s.node = nil
	s.gen++
	if s.gen == 0 {
		s.gen = 1
	}
	a.free = append(a.free, idx)
	a.live--
	n.children = nil
	n.parent = nil
}

// -- Tree Structure --

// AppendChild attaches child as the last child of parent, detaching it from any
// current parent first.
func (a *Arena) AppendChild(parent, child Handle) error {
	p, c, err := a.attachPair(parent, child)
	if err != nil {
		return err
	}
	a.detach(c)
	a.insert(p, c, len(p.children))
	return nil
}

// InsertChildAt attaches child so that it ends up at index among parent's children.
func (a *Arena) InsertChildAt(parent, child Handle, index int) error {
	p, c, err := a.attachPair(parent, child)
	if err != nil {
		return err
	}
	limit := len(p.children)
	if c.parent == p {
		limit--
	}
	if index < 0 || index > limit {
		return fmt.Errorf("%w: %d not in [0, %d]", ErrIndexOutOfRange, index, limit)
	}
	a.detach(c)
	a.insert(p, c, index)
	return nil
}

// InsertChildBefore attaches child immediately before pivot, which must already
// be a child of parent.
func (a *Arena) InsertChildBefore(parent, child, pivot Handle) error {
	p, c, err := a.attachPair(parent, child)
	if err != nil {
		return err
	}
	pv, err := a.lookup(pivot)
	if err != nil {
		return err
	}
	if pv.parent != p {
		return fmt.Errorf("%w: pivot %s is not a child of %s", ErrInvalidHandle, pivot, parent)
	}
	if pv == c {
		return nil
	}
	a.detach(c)
	a.insert(p, c, p.indexOf(pv))
	return nil
}

func (a *Arena) attachPair(parent, child Handle) (*node, *node, error) {
	p, err := a.lookup(parent)
	if err != nil {
		return nil, nil, err
	}
	c, err := a.lookup(child)
	if err != nil {
		return nil, nil, err
	}
	if err := a.guardMutation(); err != nil {
		return nil, nil, err
	}
	for anc := p; anc != nil; anc = anc.parent {
		if anc == c {
			return nil, nil, fmt.Errorf("%w: %s is an ancestor of %s", ErrCycleDetected, child, parent)
		}
	}
	return p, c, nil
}

func (a *Arena) insert(p, c *node, index int) {
	p.children = append(p.children, nil)
	copy(p.children[index+1:], p.children[index:])
	p.children[index] = c
	c.parent = p
	a.markDirty(p)
}

func (a *Arena) detach(c *node) {
	p := c.parent
	if p == nil {
		return
	}
	if i := p.indexOf(c); i >= 0 {
		p.children = append(p.children[:i], p.children[i+1:]...)
	}
	c.parent = nil
	a.markDirty(p)
}

// RemoveChild detaches the child at index and returns its handle. The child
// stays alive as the root of its own tree.
func (a *Arena) RemoveChild(parent Handle, index int) (Handle, error) {
	p, err := a.lookup(parent)
	if err != nil {
		return NullHandle, err
	}
	if err := a.guardMutation(); err != nil {
		return NullHandle, err
	}
	if index < 0 || index >= len(p.children) {
		return NullHandle, fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, index, len(p.children))
	}
	c := p.children[index]
	a.detach(c)
	return c.handle, nil
}

// RemoveChildHandle detaches child from parent.
func (a *Arena) RemoveChildHandle(parent, child Handle) error {
	p, err := a.lookup(parent)
	if err != nil {
		return err
	}
	c, err := a.lookup(child)
	if err != nil {
		return err
	}
	if err := a.guardMutation(); err != nil {
		return err
	}
	if c.parent != p {
		return fmt.Errorf("%w: %s is not a child of %s", ErrInvalidHandle, child, parent)
	}
	a.detach(c)
	return nil
}

// RemoveAllChildren detaches every child of parent.
func (a *Arena) RemoveAllChildren(parent Handle) error {
	p, err := a.lookup(parent)
	if err != nil {
		return err
	}
	if err := a.guardMutation(); err != nil {
		return err
	}
	if len(p.children) == 0 {
		return nil
	}
	for _, c := range p.children {
		c.parent = nil
	}
	p.children = nil
	a.markDirty(p)
	return nil
}

// Detach removes node from its parent, if any.
func (a *Arena) Detach(h Handle) error {
	n, err := a.lookup(h)
	if err != nil {
		return err
	}
	if err := a.guardMutation(); err != nil {
		return err
	}
	a.detach(n)
	return nil
}

// Parent returns the parent handle, or NullHandle for a root.
func (a *Arena) Parent(h Handle) (Handle, error) {
	n, err := a.lookup(h)
	if err != nil {
		return NullHandle, err
	}
	if n.parent == nil {
		return NullHandle, nil
	}
	return n.parent.handle, nil
}

// Children returns a copy of the child handles in order.
func (a *Arena) Children(h Handle) ([]Handle, error) {
	n, err := a.lookup(h)
	if err != nil {
		return nil, err
	}
	out := make([]Handle, len(n.children))
	for i, c := range n.children {
		out[i] = c.handle
	}
	return out, nil
}

func (a *Arena) ChildCount(h Handle) (int, error) {
	n, err := a.lookup(h)
	if err != nil {
		return 0, err
	}
	return len(n.children), nil
}

func (a *Arena) ChildAt(h Handle, index int) (Handle, error) {
	n, err := a.lookup(h)
	if err != nil {
		return NullHandle, err
	}
	if index < 0 || index >= len(n.children) {
		return NullHandle, fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, index, len(n.children))
	}
	return n.children[index].handle, nil
}

// ChildIndex returns the position of child under parent.
func (a *Arena) ChildIndex(parent, child Handle) (int, error) {
	p, err := a.lookup(parent)
	if err != nil {
		return -1, err
	}
	c, err := a.lookup(child)
	if err != nil {
		return -1, err
	}
	if c.parent != p {
		return -1, fmt.Errorf("%w: %s is not a child of %s", ErrInvalidHandle, child, parent)
	}
	return p.indexOf(c), nil
}

// Walk visits h and its descendants depth-first, parents before children.
// Returning false from fn skips that node's subtree.
func (a *Arena) Walk(h Handle, fn func(Handle) bool) error {
	n, err := a.lookup(h)
	if err != nil {
		return err
	}
	walk(n, func(n *node) bool { return fn(n.handle) })
	return nil
}

func walk(n *node, fn func(*node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range n.children {
		walk(c, fn)
	}
}

// -- Style and Content --

// SetStyle points the node at s. The arena borrows s and never mutates it;
// passing nil restores the default style. The node is always invalidated, and
// ancestors too when the change can affect geometry. Hosts that mutate a
// style in place must call MarkDirty themselves.
func (a *Arena) SetStyle(h Handle, s *style.ComputedStyle) error {
	n, err := a.lookup(h)
	if err != nil {
		return err
	}
	if err := a.guardMutation(); err != nil {
		return err
	}
	next := defaultStyle
	if s != nil {
		next = *s
	}
	impact := style.Diff(&n.seen, &next)
	n.style = s
	n.seen = next
	if impact == style.ImpactLayout {
		a.markDirty(n)
	} else {
		a.invalidate(n)
	}
	return nil
}

// Style returns the style the node currently borrows, or nil for the default.
func (a *Arena) Style(h Handle) (*style.ComputedStyle, error) {
	n, err := a.lookup(h)
	if err != nil {
		return nil, err
	}
	return n.style, nil
}

// SetMeasurer makes the node measurable. Measured nodes are sized by m when
// they have no children.
func (a *Arena) SetMeasurer(h Handle, m Measurer) error {
	n, err := a.lookup(h)
	if err != nil {
		return err
	}
	if err := a.guardMutation(); err != nil {
		return err
	}
	n.measurer = m
	a.markDirty(n)
	return nil
}

func (a *Arena) ClearMeasurer(h Handle) error {
	return a.SetMeasurer(h, nil)
}

// IsMeasurable reports whether a measurer is attached.
func (a *Arena) IsMeasurable(h Handle) (bool, error) {
	n, err := a.lookup(h)
	if err != nil {
		return false, err
	}
	return n.measurer != nil, nil
}

// -- Dirty Tracking --

// invalidate drops the node's cached results and flags it dirty.
func (a *Arena) invalidate(n *node) {
	n.cache.clear()
	n.measured.clear()
	if !n.dirty {
		n.dirty = true
		if n.observer != nil {
			a.notify(n)
		}
	}
}

// notify runs the node's observer. Mutations and layout passes started from
// inside it fail with ErrReentrantLayout.
func (a *Arena) notify(n *node) {
	a.notifying++
	defer func() { a.notifying-- }()
	n.observer(n.handle)
}

// markDirty invalidates n and every ancestor up to its root.
func (a *Arena) markDirty(n *node) {
	for c := n; c != nil; c = c.parent {
		a.invalidate(c)
	}
}

// MarkDirty tells the engine that the node's content changed outside of SetStyle.
func (a *Arena) MarkDirty(h Handle) error {
	n, err := a.lookup(h)
	if err != nil {
		return err
	}
	if err := a.guardMutation(); err != nil {
		return err
	}
	a.markDirty(n)
	return nil
}

// MarkDirtyDescendants invalidates the whole subtree and the ancestors of h.
func (a *Arena) MarkDirtyDescendants(h Handle) error {
	n, err := a.lookup(h)
	if err != nil {
		return err
	}
	if err := a.guardMutation(); err != nil {
		return err
	}
	walk(n, func(d *node) bool {
		a.invalidate(d)
		return true
	})
	a.markDirty(n)
	return nil
}

func (a *Arena) IsDirty(h Handle) (bool, error) {
	n, err := a.lookup(h)
	if err != nil {
		return false, err
	}
	return n.dirty, nil
}

// State reports the node's state machine position.
func (a *Arena) State(h Handle) (NodeState, error) {
	n, err := a.lookup(h)
	if err != nil {
		return StateClean, err
	}
	switch {
	case n.computing:
		return StateComputing, nil
	case n.dirty:
		return StateDirty, nil
	}
	return StateClean, nil
}

// ObserveDirty registers fn to run whenever the node turns dirty. A nil fn
// stops observing. fn may read the tree but must not mutate it or lay it out.
func (a *Arena) ObserveDirty(h Handle, fn DirtyObserver) error {
	n, err := a.lookup(h)
	if err != nil {
		return err
	}
	n.observer = fn
	return nil
}

// Layout returns the node's last committed result.
func (a *Arena) Layout(h Handle) (LayoutResult, error) {
	n, err := a.lookup(h)
	if err != nil {
		return LayoutResult{}, err
	}
	return n.result, nil
}
