package binui

// hitTarget is one hit-testable bin in a frame snapshot. Its rect is
// already intersected with the bin's clip rect.
type hitTarget struct {
	id        BinID
	rect      Rect
	z         int32
	seq       uint64
	focusable bool
}

// router turns normalized window events into bin callbacks. It runs
// on the event goroutine and owns pointer, capture and focus state.
type router struct {
	itf *Interface

	px, py     float32
	capture    BinID
	captureBtn MouseButton
	hovered    BinID
	focus      BinID
}

// hit returns the topmost bin containing the point: largest z, then
// latest created among equals.
func (r *router) hit(x, y float32) *hitTarget {
	targets := r.itf.hitTargets()
	var best *hitTarget
	for i := range targets {
		t := &targets[i]
		if t.rect.Empty() || !t.rect.Contains(x, y) {
			continue
		}
		if best == nil || t.z > best.z || (t.z == best.z && t.seq > best.seq) {
			best = t
		}
	}
	return best
}

func (r *router) dispatch(ev WindowEvent) {
	switch ev.Kind {
	case EventPointerMove:
		r.pointerMove(ev)
	case EventPointerPress:
		r.pointerPress(ev)
	case EventPointerRelease:
		r.pointerRelease(ev)
	case EventScroll:
		r.scroll(ev)
	case EventKeyPress:
		r.key(ev, true)
	case EventKeyRelease:
		r.key(ev, false)
	case EventChar:
		r.char(ev)
	case EventFocusLost:
		r.dropFocus()
	case EventCloseRequested:
		r.itf.Exit()
	}
}

func (r *router) pointerMove(ev WindowEvent) {
	x, y := float32(ev.X), float32(ev.Y)
	dx := x - r.px
	dy := y - r.py
	r.px, r.py = x, y

	target := r.hit(x, y)
	var targetID BinID
	if target != nil {
		targetID = target.id
	}

	// Enter/leave track the actual hit bin even while captured.
	if targetID != r.hovered {
		if old := r.itf.Bin(r.hovered); old != nil {
			old.cbs.invoke(old, old.cbs.snapshot(&old.cbs.leave), r.event(ev, 0, 0))
		}
		if next := r.itf.Bin(targetID); next != nil {
			next.cbs.invoke(next, next.cbs.snapshot(&next.cbs.enter), r.event(ev, 0, 0))
		}
		r.hovered = targetID
	}

	// Moves go to the capture holder while a press is outstanding.
	moveID := targetID
	if r.capture != 0 {
		moveID = r.capture
	}
	if b := r.itf.Bin(moveID); b != nil {
		b.cbs.invoke(b, b.cbs.snapshot(&b.cbs.move), r.event(ev, dx, dy))
	}
}

func (r *router) pointerPress(ev WindowEvent) {
	target := r.hit(float32(ev.X), float32(ev.Y))
	if target == nil {
		if ev.Button == MouseLeft {
			r.dropFocus()
		}
		return
	}

	if r.capture == 0 {
		r.capture = target.id
		r.captureBtn = ev.Button
	}

	if ev.Button == MouseLeft && target.focusable && target.id != r.focus {
		r.dropFocus()
		r.focus = target.id
		if b := r.itf.Bin(target.id); b != nil {
			b.cbs.invoke(b, b.cbs.snapshot(&b.cbs.focus), r.event(ev, 0, 0))
		}
	}

	if b := r.itf.Bin(target.id); b != nil {
		b.cbs.invoke(b, b.cbs.pressFor(ev.Button), r.event(ev, 0, 0))
	}
}

func (r *router) pointerRelease(ev WindowEvent) {
	// A release matching the capture button always goes to the
	// capture holder, wherever the pointer is now.
	if r.capture != 0 && ev.Button == r.captureBtn {
		if b := r.itf.Bin(r.capture); b != nil {
			b.cbs.invoke(b, b.cbs.releaseFor(ev.Button), r.event(ev, 0, 0))
		}
		r.capture = 0
		return
	}
	if target := r.hit(float32(ev.X), float32(ev.Y)); target != nil {
		if b := r.itf.Bin(target.id); b != nil {
			b.cbs.invoke(b, b.cbs.releaseFor(ev.Button), r.event(ev, 0, 0))
		}
	}
}

func (r *router) scroll(ev WindowEvent) {
	target := r.hit(r.px, r.py)
	if target == nil {
		return
	}
	if b := r.itf.Bin(target.id); b != nil {
		b.cbs.invoke(b, b.cbs.snapshot(&b.cbs.scroll), r.event(ev, float32(ev.DX), float32(ev.DY)))
	}
}

func (r *router) key(ev WindowEvent, press bool) {
	b := r.itf.Bin(r.focus)
	if b == nil {
		return
	}
	if press {
		b.cbs.invoke(b, b.cbs.snapshot(&b.cbs.keyPress), r.event(ev, 0, 0))
	} else {
		b.cbs.invoke(b, b.cbs.snapshot(&b.cbs.keyRelease), r.event(ev, 0, 0))
	}
}

// char routes text input to the focused bin's key-press listeners
// with the Char field set.
func (r *router) char(ev WindowEvent) {
	if b := r.itf.Bin(r.focus); b != nil {
		b.cbs.invoke(b, b.cbs.snapshot(&b.cbs.keyPress), r.event(ev, 0, 0))
	}
}

func (r *router) dropFocus() {
	if r.focus == 0 {
		return
	}
	if b := r.itf.Bin(r.focus); b != nil {
		b.cbs.invoke(b, b.cbs.snapshot(&b.cbs.focusLost), Event{Timestamp: r.itf.now()})
	}
	r.focus = 0
}

func (r *router) event(ev WindowEvent, dx, dy float32) Event {
	return Event{
		Timestamp: r.itf.now(),
		X:         float32(ev.X),
		Y:         float32(ev.Y),
		DX:        dx,
		DY:        dy,
		Button:    ev.Button,
		Code:      ev.Code,
		Char:      ev.Char,
		Mods:      ev.Mods,
		Width:     ev.Width,
		Height:    ev.Height,
	}
}
