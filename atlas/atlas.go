package atlas

import (
	"errors"
	"hash/fnv"
	"sort"
	"sync"
)

// Atlas errors.
var (
	// ErrAtlasFull is returned when an allocation cannot fit even after
	// growth and a zero-reference eviction pass.
	ErrAtlasFull = errors.New("atlas: full")

	// ErrBadDimensions is returned for non-positive entry sizes.
	ErrBadDimensions = errors.New("atlas: entry dimensions must be positive")

	// ErrPixelSize is returned when the pixel payload does not match
	// the entry dimensions and format.
	ErrPixelSize = errors.New("atlas: pixel data does not match dimensions")
)

// Default sizing.
const (
	// DefaultInitialSize is the starting atlas dimension.
	DefaultInitialSize = 1024

	// DefaultMaxSize caps atlas growth.
	DefaultMaxSize = 4096

	// DefaultPadding separates packed entries to stop sampler bleed.
	DefaultPadding = 1
)

// Fingerprint identifies atlas content. Identical content maps to the
// same fingerprint, which is what makes rasterization idempotent.
type Fingerprint uint64

// GlyphFingerprint keys a rasterized glyph by font, glyph index, and
// pixel size. The size is 26.6 fixed point so fractional sizes and
// sizes past 1024 stay distinct.
func GlyphFingerprint(fontID uint64, gid uint16, pixelSize uint32) Fingerprint {
	h := fnv.New64a()
	var buf [14]byte
	for i := 0; i < 8; i++ {
		buf[i] = byte(fontID >> (8 * i))
	}
	buf[8] = byte(gid)
	buf[9] = byte(gid >> 8)
	buf[10] = byte(pixelSize)
	buf[11] = byte(pixelSize >> 8)
	buf[12] = byte(pixelSize >> 16)
	buf[13] = byte(pixelSize >> 24)
	h.Write(buf[:])
	return Fingerprint(h.Sum64())
}

// ImageFingerprint keys a user image by its bytes.
func ImageFingerprint(data []byte) Fingerprint {
	h := fnv.New64a()
	h.Write(data)
	return Fingerprint(h.Sum64())
}

// Region is a rectangular allocation inside the atlas image.
type Region struct {
	X, Y, W, H int
}

// Entry is an immutable allocation in the atlas. Entries are looked up by
// fingerprint and reference-counted; Release makes an entry eligible for
// eviction once its count reaches zero.
type Entry struct {
	fp     Fingerprint
	region Region

	atlas *Atlas

	// guarded by atlas.mu
	refs    int
	lastUse uint64
}

// Region returns the entry's pixel rectangle.
func (e *Entry) Region() Region { return e.region }

// Fingerprint returns the entry's content key.
func (e *Entry) Fingerprint() Fingerprint { return e.fp }

// UV returns the entry's normalized texture coordinates as
// (u0, v0, u1, v1) for the current atlas size.
func (e *Entry) UV() (u0, v0, u1, v1 float32) {
	size := float32(e.atlas.Size())
	return float32(e.region.X) / size,
		float32(e.region.Y) / size,
		float32(e.region.X+e.region.W) / size,
		float32(e.region.Y+e.region.H) / size
}

// Retain increments the entry's reference count.
func (e *Entry) Retain() {
	e.atlas.mu.Lock()
	e.refs++
	e.atlas.mu.Unlock()
}

// Release decrements the reference count. Zero-reference entries stay
// resident until space pressure evicts them.
func (e *Entry) Release() {
	e.atlas.mu.Lock()
	if e.refs > 0 {
		e.refs--
	}
	e.atlas.mu.Unlock()
}

// Refs returns the current reference count.
func (e *Entry) Refs() int {
	e.atlas.mu.Lock()
	defer e.atlas.mu.Unlock()
	return e.refs
}

// Config holds atlas construction parameters.
type Config struct {
	// InitialSize is the starting dimension. Default 1024.
	InitialSize int

	// MaxSize caps growth. Default 4096.
	MaxSize int

	// Padding separates entries. Default 1.
	Padding int

	// BytesPerPixel is 1 for coverage masks, 4 for RGBA images.
	BytesPerPixel int
}

// Atlas is a CPU-side packed image with fingerprint-keyed, refcounted
// entries. The GPU mirror lives in [Images] and is synced per frame.
//
// Atlas is safe for concurrent use.
type Atlas struct {
	mu sync.Mutex

	config  Config
	size    int
	packer  *shelfPacker
	entries map[Fingerprint]*Entry

	pixels []byte
	dirty  bool

	frame      uint64
	generation uint64
}

// New creates an empty atlas.
func New(config Config) *Atlas {
	if config.InitialSize <= 0 {
		config.InitialSize = DefaultInitialSize
	}
	if config.MaxSize <= 0 {
		config.MaxSize = DefaultMaxSize
	}
	if config.MaxSize < config.InitialSize {
		config.MaxSize = config.InitialSize
	}
	if config.Padding < 0 {
		config.Padding = DefaultPadding
	}
	if config.BytesPerPixel <= 0 {
		config.BytesPerPixel = 1
	}
	return &Atlas{
		config:  config,
		size:    config.InitialSize,
		packer:  newShelfPacker(config.InitialSize, config.InitialSize, config.Padding),
		entries: make(map[Fingerprint]*Entry),
		pixels:  make([]byte, config.InitialSize*config.InitialSize*config.BytesPerPixel),
	}
}

// Size returns the current atlas dimension in pixels.
func (a *Atlas) Size() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.size
}

// Generation counts repacks. Any grow or eviction moves entries and
// invalidates previously computed UVs, so callers that cache UVs must
// re-tessellate when the generation they sampled under has passed.
func (a *Atlas) Generation() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.generation
}

// NextFrame advances the LRU clock. The interface calls this once per
// rendered frame.
func (a *Atlas) NextFrame() {
	a.mu.Lock()
	a.frame++
	a.mu.Unlock()
}

// Lookup returns the entry for a fingerprint, bumping its LRU stamp.
func (a *Atlas) Lookup(fp Fingerprint) (*Entry, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	e, ok := a.entries[fp]
	if ok {
		e.lastUse = a.frame
	}
	return e, ok
}

// Upsert returns the existing entry for fp, or packs pixels as a new
// entry. Returning an existing entry never touches pixel data: inserting
// the same content twice is idempotent and free.
func (a *Atlas) Upsert(fp Fingerprint, w, h int, pixels []byte) (*Entry, error) {
	if w <= 0 || h <= 0 {
		return nil, ErrBadDimensions
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	if e, ok := a.entries[fp]; ok {
		e.lastUse = a.frame
		return e, nil
	}
	if len(pixels) != w*h*a.config.BytesPerPixel {
		return nil, ErrPixelSize
	}

	x, y, ok := a.packer.allocate(w, h)
	if !ok {
		// Grow by doubling first, then evict.
		for !ok && a.size < a.config.MaxSize {
			a.growLocked()
			x, y, ok = a.packer.allocate(w, h)
		}
		if !ok {
			a.evictLocked()
			x, y, ok = a.packer.allocate(w, h)
		}
		if !ok {
			return nil, ErrAtlasFull
		}
	}

	e := &Entry{
		fp:      fp,
		region:  Region{X: x, Y: y, W: w, H: h},
		atlas:   a,
		lastUse: a.frame,
	}
	a.entries[fp] = e
	a.blitLocked(e.region, pixels)
	a.dirty = true
	return e, nil
}

// growLocked doubles the atlas dimension and repacks all live entries.
func (a *Atlas) growLocked() {
	newSize := a.size * 2
	if newSize > a.config.MaxSize {
		newSize = a.config.MaxSize
	}
	if newSize == a.size {
		return
	}
	a.repackLocked(newSize)
	slogger().Info("atlas grown", "size", a.size)
}

// evictLocked runs one eviction pass: zero-reference entries are dropped
// least recently used first until half the area is reclaimed or no
// candidates remain, then the survivors are repacked at the current size.
func (a *Atlas) evictLocked() {
	candidates := make([]*Entry, 0, len(a.entries))
	for _, e := range a.entries {
		if e.refs == 0 {
			candidates = append(candidates, e)
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].lastUse < candidates[j].lastUse
	})

	freed, target := 0, a.size*a.size/2
	var evicted int
	for _, e := range candidates {
		if freed >= target {
			break
		}
		delete(a.entries, e.fp)
		freed += e.region.W * e.region.H
		evicted++
	}
	if evicted > 0 {
		a.repackLocked(a.size)
		slogger().Info("atlas evicted entries", "count", evicted)
	}
}

// repackLocked re-allocates every surviving entry into a fresh packer of
// the given size, moving pixels accordingly.
func (a *Atlas) repackLocked(newSize int) {
	bpp := a.config.BytesPerPixel
	packer := newShelfPacker(newSize, newSize, a.config.Padding)
	pixels := make([]byte, newSize*newSize*bpp)

	for _, e := range a.entries {
		x, y, ok := packer.allocate(e.region.W, e.region.H)
		if !ok {
			// Cannot happen: the new area is at least as large and
			// repacking never adds entries.
			continue
		}
		for row := 0; row < e.region.H; row++ {
			srcOff := ((e.region.Y+row)*a.size + e.region.X) * bpp
			dstOff := ((y+row)*newSize + x) * bpp
			copy(pixels[dstOff:dstOff+e.region.W*bpp], a.pixels[srcOff:srcOff+e.region.W*bpp])
		}
		e.region.X, e.region.Y = x, y
	}

	a.size = newSize
	a.packer = packer
	a.pixels = pixels
	a.dirty = true
	a.generation++
}

// blitLocked copies pixel rows into the backing image.
func (a *Atlas) blitLocked(r Region, pixels []byte) {
	bpp := a.config.BytesPerPixel
	for row := 0; row < r.H; row++ {
		dstOff := ((r.Y+row)*a.size + r.X) * bpp
		srcOff := row * r.W * bpp
		copy(a.pixels[dstOff:dstOff+r.W*bpp], pixels[srcOff:srcOff+r.W*bpp])
	}
}

// Snapshot returns the backing pixels and size, clearing the dirty flag.
// The second result reports whether the content changed since the last
// snapshot.
func (a *Atlas) Snapshot() (pixels []byte, size int, dirty bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	dirty = a.dirty
	a.dirty = false
	return a.pixels, a.size, dirty
}

// Len returns the number of resident entries.
func (a *Atlas) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.entries)
}
