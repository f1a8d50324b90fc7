package binui

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gogpu/binui/atlas"
	"github.com/gogpu/binui/render"
	"github.com/gogpu/binui/text"
)

// Interface is the root object of a UI. It owns the bin arena, the
// font registry, both atlases and the vertex range table, and drives
// the event, layout and render goroutines from [Interface.Run].
type Interface struct {
	opts  Options
	wm    WindowManager
	start time.Time

	mu     sync.Mutex
	bins   map[BinID]*Bin
	nextID atomic.Uint64

	fontMu      sync.Mutex
	fonts       []*text.Font
	defaultFont *text.Font

	dirtyMu sync.Mutex
	dirty   map[BinID]struct{}
	dirtyCh chan struct{}
	frameCh chan struct{}

	// styleTopic fans out the id of every bin whose style was replaced.
	styleTopic *Topic[BinID]

	// targets is the hit-test snapshot of the last completed layout.
	targets atomic.Pointer[[]hitTarget]

	sizeMu     sync.Mutex
	devW, devH uint32

	tess   *tessellator
	ranges *render.RangeTable

	// held pins the atlas entries each bin's vertex range samples from,
	// so eviction cannot reclaim glyphs that are still on screen.
	heldMu sync.Mutex
	held   map[BinID][]*atlas.Entry

	glyphAtlas *atlas.Atlas
	imageAtlas *atlas.Atlas

	running  atomic.Bool
	quit     chan struct{}
	exitOnce sync.Once
}

// New builds an Interface from the given options. A WindowManager is
// required; binui never opens OS windows itself. With AppLoop set, New
// spawns the loop goroutines and returns once they are running.
func New(options ...Option) (*Interface, error) {
	opts := DefaultOptions()
	for _, o := range options {
		o(&opts)
	}
	return NewWithOptions(opts)
}

// NewWithOptions is [New] for a pre-built Options value, typically one
// loaded with [LoadOptions].
func NewWithOptions(opts Options) (*Interface, error) {
	if opts.WindowManager == nil {
		return nil, ErrWindowUnavailable
	}
	if opts.Workers <= 0 {
		opts.Workers = defaultWorkers()
	}
	if opts.MaxAtlasSize <= 0 {
		opts.MaxAtlasSize = 4096
	}

	itf := &Interface{
		opts:       opts,
		wm:         opts.WindowManager,
		start:      time.Now(),
		bins:       make(map[BinID]*Bin),
		dirty:      make(map[BinID]struct{}),
		dirtyCh:    make(chan struct{}, 1),
		frameCh:    make(chan struct{}, 1),
		styleTopic: NewTopic[BinID](),
		quit:       make(chan struct{}),
		ranges:     render.NewRangeTable(),
		held:       make(map[BinID][]*atlas.Entry),
	}
	itf.glyphAtlas = atlas.New(atlas.Config{
		MaxSize:       opts.MaxAtlasSize,
		BytesPerPixel: 1,
	})
	itf.imageAtlas = atlas.New(atlas.Config{
		MaxSize:       opts.MaxAtlasSize,
		BytesPerPixel: 4,
	})

	shaper := opts.TextShaper
	if shaper == nil {
		shaper = text.NewHarfbuzzShaper()
	}
	itf.tess = newTessellator(itf.glyphAtlas, itf.imageAtlas, shaper, opts.Workers)

	w, h := itf.wm.Size()
	itf.devW, itf.devH = w, h
	itf.wm.SetTitle(opts.Title)

	if opts.AppLoop {
		go func() {
			if err := itf.Run(); err != nil && !errors.Is(err, ErrShutdown) {
				Logger().Error("interface loop failed", "err", err)
			}
		}()
	}
	return itf, nil
}

// NewBin creates a detached bin with an empty style.
func (itf *Interface) NewBin() *Bin {
	id := BinID(itf.nextID.Add(1))
	b := &Bin{id: id, seq: uint64(id), itf: itf}
	b.style.Store(&BinStyle{})

	itf.mu.Lock()
	itf.bins[id] = b
	itf.mu.Unlock()

	itf.markDirty(id)
	return b
}

// Bin returns the handle for an id, or nil for an unknown id.
func (itf *Interface) Bin(id BinID) *Bin {
	itf.mu.Lock()
	defer itf.mu.Unlock()
	return itf.bins[id]
}

// DropBin removes a bin from the arena. It is detached from its parent
// first; children become detached roots.
func (itf *Interface) DropBin(id BinID) {
	b := itf.Bin(id)
	if b == nil {
		return
	}
	if p := b.Parent(); p != nil {
		_ = p.RemoveChild(b)
	}
	for _, c := range b.Children() {
		_ = b.RemoveChild(c)
	}

	itf.mu.Lock()
	delete(itf.bins, id)
	itf.mu.Unlock()

	itf.ranges.Remove(id)
	itf.releaseHeld(id)
	itf.markDirty(id)
}

// swapHeld replaces the pinned atlas entries for a bin, releasing the
// previous set. The new entries must already carry their references.
func (itf *Interface) swapHeld(id BinID, entries []*atlas.Entry) {
	itf.heldMu.Lock()
	old := itf.held[id]
	if len(entries) == 0 {
		delete(itf.held, id)
	} else {
		itf.held[id] = entries
	}
	itf.heldMu.Unlock()
	releaseEntries(old)
}

func (itf *Interface) releaseHeld(id BinID) {
	itf.swapHeld(id, nil)
}

// RegisterFont parses font bytes and adds the face to the registry.
// The first registered face becomes the default.
func (itf *Interface) RegisterFont(data []byte) (*text.Font, error) {
	f, err := text.Parse(data)
	if err != nil {
		return nil, err
	}
	itf.fontMu.Lock()
	itf.fonts = append(itf.fonts, f)
	if itf.defaultFont == nil {
		itf.defaultFont = f
	}
	itf.fontMu.Unlock()
	Logger().Info("font registered", "family", f.Family(), "weight", f.Weight())
	itf.markAllDirty()
	return f, nil
}

// DefaultFont returns the fallback face, or nil before any RegisterFont.
func (itf *Interface) DefaultFont() *text.Font {
	itf.fontMu.Lock()
	defer itf.fontMu.Unlock()
	return itf.defaultFont
}

// fontFor picks the face for a style: exact family match with nearest
// weight, else any family match, else the default.
func (itf *Interface) fontFor(style *BinStyle) *text.Font {
	itf.fontMu.Lock()
	defer itf.fontMu.Unlock()

	if style.FontFamily == "" {
		return itf.defaultFont
	}
	want := 400
	if style.FontWeight != nil {
		want = int(*style.FontWeight)
	}
	var best *text.Font
	bestDist := -1
	for _, f := range itf.fonts {
		if !strings.EqualFold(f.Family(), style.FontFamily) {
			continue
		}
		d := f.Weight() - want
		if d < 0 {
			d = -d
		}
		if best == nil || d < bestDist {
			best, bestDist = f, d
		}
	}
	if best != nil {
		return best
	}
	return itf.defaultFont
}

// StyleSubscription returns a subscription delivering the id of every
// bin whose style is replaced.
func (itf *Interface) StyleSubscription(capacity int, policy SubscribePolicy) *Subscription[BinID] {
	return itf.styleTopic.Subscribe(capacity, policy)
}

// ExportStyles snapshots every bin's id, parent and style for
// serialization with [EncodeStyles]. Records are ordered by id.
func (itf *Interface) ExportStyles() []StyleRecord {
	itf.mu.Lock()
	bins := make([]*Bin, 0, len(itf.bins))
	for _, b := range itf.bins {
		bins = append(bins, b)
	}
	itf.mu.Unlock()
	sort.Slice(bins, func(i, j int) bool { return bins[i].id < bins[j].id })

	out := make([]StyleRecord, 0, len(bins))
	for _, b := range bins {
		b.mu.Lock()
		parent := b.parent
		b.mu.Unlock()
		out = append(out, StyleRecord{ID: b.id, Parent: parent, Style: b.Style()})
	}
	return out
}

// ImportStyles recreates bins from records, preserving the recorded
// tree shape. Returned handles are indexed by the recorded ids.
func (itf *Interface) ImportStyles(records []StyleRecord) (map[BinID]*Bin, error) {
	made := make(map[BinID]*Bin, len(records))
	for _, rec := range records {
		b := itf.NewBin()
		b.StyleUpdate(rec.Style)
		made[rec.ID] = b
	}
	for _, rec := range records {
		if rec.Parent == 0 {
			continue
		}
		parent, ok := made[rec.Parent]
		if !ok {
			return nil, fmt.Errorf("binui: record %d references missing parent %d", rec.ID, rec.Parent)
		}
		if err := parent.AddChild(made[rec.ID]); err != nil {
			return nil, err
		}
	}
	return made, nil
}

// Exit asks Run to shut down. Safe to call from any goroutine,
// including callbacks; repeat calls are no-ops.
func (itf *Interface) Exit() {
	itf.exitOnce.Do(func() { close(itf.quit) })
}

// now returns monotonic time since the interface was created.
func (itf *Interface) now() time.Duration {
	return time.Since(itf.start)
}

// hitTargets returns the hit-test snapshot of the last layout pass.
func (itf *Interface) hitTargets() []hitTarget {
	if p := itf.targets.Load(); p != nil {
		return *p
	}
	return nil
}

func (itf *Interface) markDirty(id BinID) {
	itf.dirtyMu.Lock()
	itf.dirty[id] = struct{}{}
	itf.dirtyMu.Unlock()
	select {
	case itf.dirtyCh <- struct{}{}:
	default:
	}
}

// markDirtySubtree marks a bin and all of its descendants.
func (itf *Interface) markDirtySubtree(id BinID) {
	itf.markDirty(id)
	b := itf.Bin(id)
	if b == nil {
		return
	}
	b.mu.Lock()
	children := make([]BinID, len(b.children))
	copy(children, b.children)
	b.mu.Unlock()
	for _, c := range children {
		itf.markDirtySubtree(c)
	}
}

func (itf *Interface) markAllDirty() {
	itf.mu.Lock()
	ids := make([]BinID, 0, len(itf.bins))
	for id := range itf.bins {
		ids = append(ids, id)
	}
	itf.mu.Unlock()

	itf.dirtyMu.Lock()
	for _, id := range ids {
		itf.dirty[id] = struct{}{}
	}
	itf.dirtyMu.Unlock()
	select {
	case itf.dirtyCh <- struct{}{}:
	default:
	}
}

func (itf *Interface) takeDirty() []BinID {
	itf.dirtyMu.Lock()
	defer itf.dirtyMu.Unlock()
	if len(itf.dirty) == 0 {
		return nil
	}
	out := make([]BinID, 0, len(itf.dirty))
	for id := range itf.dirty {
		out = append(out, id)
	}
	itf.dirty = make(map[BinID]struct{})
	return out
}

func (itf *Interface) size() (w, h uint32) {
	itf.sizeMu.Lock()
	defer itf.sizeMu.Unlock()
	return itf.devW, itf.devH
}

func (itf *Interface) setSize(w, h uint32) {
	itf.sizeMu.Lock()
	itf.devW, itf.devH = w, h
	itf.sizeMu.Unlock()
}

// Run drives the event, layout and render goroutines until Exit is
// called or the window closes, then returns ErrShutdown. A GPU device
// provider upgrades the render goroutine from layout-only to full
// frame presentation; without one the interface runs headless.
func (itf *Interface) Run() error {
	if !itf.running.CompareAndSwap(false, true) {
		return fmt.Errorf("%w: already running", ErrInit)
	}
	defer itf.running.Store(false)

	g, ctx := errgroup.WithContext(context.Background())

	g.Go(func() error { return itf.eventLoop(ctx) })
	g.Go(func() error { return itf.layoutLoop(ctx) })

	if itf.opts.DeviceProvider != nil {
		rl, err := newRenderLoop(itf)
		if err != nil {
			itf.Exit()
			_ = g.Wait()
			return err
		}
		g.Go(func() error {
			defer rl.close()
			return rl.run(ctx)
		})
	}

	err := g.Wait()
	itf.styleTopic.Close()
	if err == nil || errors.Is(err, errShutdownSignal) || errors.Is(err, context.Canceled) {
		return ErrShutdown
	}
	return err
}

// eventLoop consumes the window event stream and feeds the router.
// It is the only goroutine that runs bin callbacks.
func (itf *Interface) eventLoop(ctx context.Context) error {
	r := &router{itf: itf}
	events := itf.wm.Events()

	if itf.opts.AppLoop && itf.opts.AppFunc != nil {
		itf.opts.AppFunc(itf)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-itf.quit:
			return errShutdownSignal
		case ev, ok := <-events:
			if !ok {
				return errShutdownSignal
			}
			if itf.opts.NativeInput {
				ev = itf.normalizeEvent(ev)
			}
			if ev.Kind == EventResize {
				itf.setSize(ev.Width, ev.Height)
				itf.markAllDirty()
			}
			r.dispatch(ev)
		}
	}
}

// normalizeEvent converts raw OS pointer coordinates, delivered in
// logical points, into the device-pixel space hit targets live in.
// Runs only when the window manager delivers native input.
func (itf *Interface) normalizeEvent(ev WindowEvent) WindowEvent {
	dpi := itf.wm.DPIScale()
	if itf.opts.IgnoreDPI || dpi <= 0 || dpi == 1 {
		return ev
	}
	switch ev.Kind {
	case EventPointerMove, EventPointerPress, EventPointerRelease:
		ev.X *= dpi
		ev.Y *= dpi
	case EventScroll:
		ev.DX *= dpi
		ev.DY *= dpi
	}
	return ev
}

// errShutdownSignal propagates a clean exit through the errgroup; Run
// translates it to ErrShutdown.
var errShutdownSignal = errors.New("binui: shutdown requested")

// layoutLoop recomputes layout and tessellation whenever bins are
// dirty, then publishes the hit-test snapshot and wakes the render
// goroutine.
func (itf *Interface) layoutLoop(ctx context.Context) error {
	laidOut := make(map[BinID]bool)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-itf.quit:
			return errShutdownSignal
		case <-itf.dirtyCh:
		}

		dirty := itf.takeDirty()
		if len(dirty) == 0 {
			continue
		}
		if err := itf.layoutPass(ctx, laidOut); err != nil {
			return err
		}

		select {
		case itf.frameCh <- struct{}{}:
		default:
		}
	}
}

// layoutPass runs one full layout + tessellation over the current
// tree. Per-bin style errors are logged and skip the bin; everything
// else aborts the pass.
func (itf *Interface) layoutPass(ctx context.Context, laidOut map[BinID]bool) error {
	roots := itf.snapshotTree()
	devW, devH := itf.size()
	dpi := itf.wm.DPIScale()
	if itf.opts.IgnoreDPI || dpi <= 0 {
		dpi = 1
	}
	logicalW := float32(float64(devW) / dpi)
	logicalH := float32(float64(devH) / dpi)

	out := computeLayout(roots, logicalW, logicalH, dpi, itf.opts.IgnoreDPI)

	for id, serr := range out.Errors {
		Logger().Warn("bin skipped", "bin", id, "err", serr)
	}

	next := make(map[BinID]bool, len(out.Order))
	// Tessellating a later bin can grow or repack an atlas, which moves
	// every entry and stales the UVs already written for earlier bins.
	// Re-run the pass until the atlas generations hold still; entries
	// already resident make the rerun pure lookups, so it converges.
	for attempt := 0; attempt < 3; attempt++ {
		glyphGen := itf.glyphAtlas.Generation()
		imageGen := itf.imageAtlas.Generation()

		for _, id := range out.Order {
			next[id] = true
			b := itf.Bin(id)
			if b == nil {
				continue
			}
			style := b.style.Load()
			cr := out.Rects[id]
			clip := out.Clips[id]

			var font *text.Font
			if style.Text != "" {
				font = itf.fontFor(style)
			}
			verts, held, err := itf.tess.binVertices(ctx, style, cr.Rect, clip, cr.Z, font)
			if err != nil {
				if errors.Is(err, ErrAtlasFull) || errors.Is(err, ErrInvalidImage) {
					Logger().Error("tessellation skipped bin", "bin", id, "err", err)
					continue
				}
				return err
			}
			itf.ranges.Upsert(id, int(cr.Z), verts)
			itf.swapHeld(id, held)
		}

		if itf.glyphAtlas.Generation() == glyphGen && itf.imageAtlas.Generation() == imageGen {
			break
		}
	}

	// Bins that left layout give their vertex range back.
	for id := range laidOut {
		if !next[id] {
			itf.ranges.Remove(id)
			itf.releaseHeld(id)
			delete(laidOut, id)
		}
	}
	for id := range next {
		laidOut[id] = true
	}
	itf.ranges.MaybeCompact()

	itf.publishHitTargets(out)
	itf.glyphAtlas.NextFrame()
	itf.imageAtlas.NextFrame()
	return nil
}

// snapshotTree freezes the arena into immutable layout nodes. Bins
// without a parent are laid out as roots, ordered by creation.
func (itf *Interface) snapshotTree() []*layoutBin {
	itf.mu.Lock()
	bins := make([]*Bin, 0, len(itf.bins))
	for _, b := range itf.bins {
		bins = append(bins, b)
	}
	itf.mu.Unlock()
	sort.Slice(bins, func(i, j int) bool { return bins[i].seq < bins[j].seq })

	var build func(b *Bin) *layoutBin
	build = func(b *Bin) *layoutBin {
		lb := &layoutBin{id: b.id, seq: b.seq, style: b.style.Load()}
		for _, c := range b.Children() {
			lb.children = append(lb.children, build(c))
		}
		return lb
	}

	var roots []*layoutBin
	for _, b := range bins {
		b.mu.Lock()
		detached := b.parent == 0
		b.mu.Unlock()
		if detached {
			roots = append(roots, build(b))
		}
	}
	return roots
}

// publishHitTargets swaps in the hit-test snapshot for the router.
// Rects are pre-intersected with their clip so hits respect overflow.
func (itf *Interface) publishHitTargets(out *layoutOutput) {
	targets := make([]hitTarget, 0, len(out.Order))
	for _, id := range out.Order {
		b := itf.Bin(id)
		if b == nil {
			continue
		}
		cr := out.Rects[id]
		style := b.style.Load()
		targets = append(targets, hitTarget{
			id:        id,
			rect:      cr.Rect.Intersect(out.Clips[id]),
			z:         cr.Z,
			seq:       b.seq,
			focusable: style.Focusable,
		})
	}
	itf.targets.Store(&targets)
}

func defaultWorkers() int {
	return runtime.GOMAXPROCS(0)
}
