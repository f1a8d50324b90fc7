package binui

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/gogpu/binui/render"
)

// BinID identifies a bin for the lifetime of its Interface.
type BinID = render.BinID

// Event is the record delivered to bin callbacks. Timestamp is
// monotonic time since the interface was created. Only the fields
// relevant to the triggering callback are set.
type Event struct {
	Timestamp time.Duration
	X, Y      float32
	DX, DY    float32
	Button    MouseButton
	Code      uint32
	Char      rune
	Mods      Modifiers
	Width     uint32
	Height    uint32
}

// Callback runs on the event thread. It must not block; long work
// belongs on another goroutine.
type Callback func(*Bin, Event)

// Bin is one retained node of the UI tree. Bins are created by
// Interface.NewBin and live in the interface's arena; a *Bin is a
// handle into that arena. All methods are safe for concurrent use.
type Bin struct {
	id  BinID
	seq uint64
	itf *Interface

	style atomic.Pointer[BinStyle]

	mu       sync.Mutex
	parent   BinID
	children []BinID

	cbs callbackSet
}

type callbackSet struct {
	mu         sync.Mutex
	press      map[MouseButton][]Callback
	release    map[MouseButton][]Callback
	move       []Callback
	enter      []Callback
	leave      []Callback
	scroll     []Callback
	keyPress   []Callback
	keyRelease []Callback
	focus      []Callback
	focusLost  []Callback
	textChange []Callback
}

// ID returns the bin's process-unique identifier.
func (b *Bin) ID() BinID { return b.id }

// Style returns a copy of the current style.
func (b *Bin) Style() BinStyle {
	if s := b.style.Load(); s != nil {
		return *s
	}
	return BinStyle{}
}

// StyleUpdate atomically replaces the style, marks the bin and its
// descendants layout-dirty, and notifies style subscribers.
//
// When the update changes the bin's text, text-change callbacks run
// synchronously on the calling goroutine before StyleUpdate returns,
// not on the event goroutine that delivers input callbacks.
func (b *Bin) StyleUpdate(style BinStyle) {
	prev := b.style.Load()
	b.style.Store(&style)
	b.itf.markDirtySubtree(b.id)
	b.itf.styleTopic.Publish(b.id)

	if prev != nil && prev.Text != style.Text {
		b.cbs.invoke(b, b.cbs.snapshot(&b.cbs.textChange), Event{Timestamp: b.itf.now()})
	}
}

// Parent returns the parent handle, or nil for a detached bin.
func (b *Bin) Parent() *Bin {
	b.mu.Lock()
	pid := b.parent
	b.mu.Unlock()
	if pid == 0 {
		return nil
	}
	return b.itf.Bin(pid)
}

// Children returns handles for the current children in insertion
// order.
func (b *Bin) Children() []*Bin {
	b.mu.Lock()
	ids := make([]BinID, len(b.children))
	copy(ids, b.children)
	b.mu.Unlock()

	out := make([]*Bin, 0, len(ids))
	for _, id := range ids {
		if c := b.itf.Bin(id); c != nil {
			out = append(out, c)
		}
	}
	return out
}

// AddChild attaches a detached bin under this one. A bin that already
// has a parent must be removed there first; attaching an ancestor
// fails the same way to keep the tree acyclic.
func (b *Bin) AddChild(child *Bin) error {
	if child == nil || child.id == b.id {
		return &ReparentError{Parent: b.id, Child: b.id}
	}

	// An ancestor of b as a child would create a cycle.
	for anc := b; anc != nil; anc = anc.Parent() {
		if anc.id == child.id {
			return &ReparentError{Parent: b.id, Child: child.id}
		}
	}

	child.mu.Lock()
	if child.parent != 0 {
		child.mu.Unlock()
		return &ReparentError{Parent: b.id, Child: child.id}
	}
	child.parent = b.id
	child.mu.Unlock()

	b.mu.Lock()
	b.children = append(b.children, child.id)
	b.mu.Unlock()

	b.itf.markDirtySubtree(child.id)
	return nil
}

// RemoveChild detaches a direct child. The child keeps existing while
// user handles retain it, but leaves layout until reattached.
func (b *Bin) RemoveChild(child *Bin) error {
	if child == nil {
		return &ReparentError{Parent: b.id}
	}

	child.mu.Lock()
	if child.parent != b.id {
		child.mu.Unlock()
		return &ReparentError{Parent: b.id, Child: child.id}
	}
	child.parent = 0
	child.mu.Unlock()

	b.mu.Lock()
	for i, id := range b.children {
		if id == child.id {
			b.children = append(b.children[:i], b.children[i+1:]...)
			break
		}
	}
	b.mu.Unlock()

	b.itf.markDirtySubtree(child.id)
	b.itf.markDirty(b.id)
	return nil
}

// OnPointerPress registers a callback for presses of one button.
func (b *Bin) OnPointerPress(btn MouseButton, fn Callback) {
	b.cbs.mu.Lock()
	if b.cbs.press == nil {
		b.cbs.press = make(map[MouseButton][]Callback)
	}
	b.cbs.press[btn] = append(b.cbs.press[btn], fn)
	b.cbs.mu.Unlock()
}

// OnPointerRelease registers a callback for releases of one button.
func (b *Bin) OnPointerRelease(btn MouseButton, fn Callback) {
	b.cbs.mu.Lock()
	if b.cbs.release == nil {
		b.cbs.release = make(map[MouseButton][]Callback)
	}
	b.cbs.release[btn] = append(b.cbs.release[btn], fn)
	b.cbs.mu.Unlock()
}

// OnPointerMove registers a callback for pointer movement over the
// bin.
func (b *Bin) OnPointerMove(fn Callback) { b.cbs.add(&b.cbs.move, fn) }

// OnPointerEnter registers a callback for the pointer entering the
// bin's rect.
func (b *Bin) OnPointerEnter(fn Callback) { b.cbs.add(&b.cbs.enter, fn) }

// OnPointerLeave registers a callback for the pointer leaving the
// bin's rect.
func (b *Bin) OnPointerLeave(fn Callback) { b.cbs.add(&b.cbs.leave, fn) }

// OnScroll registers a callback for scroll wheel movement over the
// bin.
func (b *Bin) OnScroll(fn Callback) { b.cbs.add(&b.cbs.scroll, fn) }

// OnKeyPress registers a callback for key presses while focused.
func (b *Bin) OnKeyPress(fn Callback) { b.cbs.add(&b.cbs.keyPress, fn) }

// OnKeyRelease registers a callback for key releases while focused.
func (b *Bin) OnKeyRelease(fn Callback) { b.cbs.add(&b.cbs.keyRelease, fn) }

// OnFocus registers a callback for gaining keyboard focus.
func (b *Bin) OnFocus(fn Callback) { b.cbs.add(&b.cbs.focus, fn) }

// OnFocusLost registers a callback for losing keyboard focus.
func (b *Bin) OnFocusLost(fn Callback) { b.cbs.add(&b.cbs.focusLost, fn) }

// OnTextChange registers a callback for the bin's text content
// changing. Unlike input callbacks, it fires on whichever goroutine
// calls [Bin.StyleUpdate].
func (b *Bin) OnTextChange(fn Callback) { b.cbs.add(&b.cbs.textChange, fn) }

func (c *callbackSet) add(list *[]Callback, fn Callback) {
	c.mu.Lock()
	*list = append(*list, fn)
	c.mu.Unlock()
}

func (c *callbackSet) snapshot(list *[]Callback) []Callback {
	c.mu.Lock()
	out := make([]Callback, len(*list))
	copy(out, *list)
	c.mu.Unlock()
	return out
}

func (c *callbackSet) pressFor(btn MouseButton) []Callback {
	c.mu.Lock()
	out := make([]Callback, len(c.press[btn]))
	copy(out, c.press[btn])
	c.mu.Unlock()
	return out
}

func (c *callbackSet) releaseFor(btn MouseButton) []Callback {
	c.mu.Lock()
	out := make([]Callback, len(c.release[btn]))
	copy(out, c.release[btn])
	c.mu.Unlock()
	return out
}

// invoke runs callbacks one by one, recovering per-callback panics so
// one bad handler cannot take down the event thread.
func (c *callbackSet) invoke(b *Bin, fns []Callback, ev Event) {
	for _, fn := range fns {
		func() {
			defer func() {
				if r := recover(); r != nil {
					Logger().Error("callback panicked", "bin", b.id, "panic", r)
				}
			}()
			fn(b, ev)
		}()
	}
}
