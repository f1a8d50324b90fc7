package render

import (
	"sort"
	"sync"
)

// BinID identifies a bin; it is the key of the vertex range table and the
// unit of incremental update.
type BinID uint64

// Range is a half-open [Start, End) span of vertex indices inside the
// shared vertex buffer.
type Range struct {
	Start, End int
}

// Len returns the number of vertices in the range.
func (r Range) Len() int { return r.End - r.Start }

// Overlaps reports whether two ranges intersect.
func (r Range) Overlaps(o Range) bool {
	return r.Start < o.End && o.Start < r.End
}

// Transfer is one staging-to-device buffer copy, in bytes.
type Transfer struct {
	SrcOff int
	DstOff int
	Size   int
}

// DefaultCompactionThreshold is the free-to-used ratio above which the
// table schedules a compaction.
const DefaultCompactionThreshold = 0.25

// RangeTable maps bins to their vertex spans inside one logically shared
// buffer and tracks the staging writes and transfers needed to keep the
// device copy current.
//
// Invariants maintained across any sequence of updates:
//   - ranges of distinct bins never overlap;
//   - after compaction, the union of ranges is contiguous from zero and
//     ordered by bin insertion order.
//
// RangeTable is safe for concurrent use.
type RangeTable struct {
	mu sync.Mutex

	entries map[BinID]Range
	layers  map[BinID]int
	order   []BinID

	// verts is the staging mirror. Device content equals this slice
	// after the pending transfers have been applied.
	verts []Vertex

	tail      int // next free vertex index at the buffer tail
	freeVerts int // vertices in freed holes below tail

	pending   []Transfer
	threshold float64
}

// NewRangeTable creates an empty table with the default compaction
// threshold.
func NewRangeTable() *RangeTable {
	return &RangeTable{
		entries:   make(map[BinID]Range),
		layers:    make(map[BinID]int),
		threshold: DefaultCompactionThreshold,
	}
}

// SetCompactionThreshold overrides the free-to-used ratio that triggers
// compaction. Values <= 0 restore the default.
func (t *RangeTable) SetCompactionThreshold(ratio float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if ratio <= 0 {
		ratio = DefaultCompactionThreshold
	}
	t.threshold = ratio
}

// Upsert replaces the vertex data for a bin. Same-size updates are written
// in place; size changes move the bin to a fresh allocation at the buffer
// tail and leave a hole behind, to be reclaimed by the next compaction.
func (t *RangeTable) Upsert(id BinID, layer int, verts []Vertex) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.layers[id] = layer

	r, ok := t.entries[id]
	if ok && r.Len() == len(verts) {
		copy(t.verts[r.Start:r.End], verts)
		t.addTransferLocked(r)
		return
	}
	if ok {
		t.freeVerts += r.Len()
		// Hole contents stay in place; only the range map forgets them.
	}
	if !ok {
		t.order = append(t.order, id)
	}

	nr := Range{Start: t.tail, End: t.tail + len(verts)}
	if need := nr.End; need > len(t.verts) {
		grown := make([]Vertex, need, max(need, 2*len(t.verts)))
		copy(grown, t.verts)
		t.verts = grown
	}
	copy(t.verts[nr.Start:nr.End], verts)
	t.tail = nr.End
	t.entries[id] = nr
	t.addTransferLocked(nr)
}

// Remove drops a bin's vertices from the table.
func (t *RangeTable) Remove(id BinID) {
	t.mu.Lock()
	defer t.mu.Unlock()

	r, ok := t.entries[id]
	if !ok {
		return
	}
	t.freeVerts += r.Len()
	delete(t.entries, id)
	delete(t.layers, id)
	for i, oid := range t.order {
		if oid == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
}

// Lookup returns the range of a bin.
func (t *RangeTable) Lookup(id BinID) (Range, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	r, ok := t.entries[id]
	return r, ok
}

// FreeRatio returns the current free-to-used vertex ratio.
func (t *RangeTable) FreeRatio() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.freeRatioLocked()
}

func (t *RangeTable) freeRatioLocked() float64 {
	used := t.tail - t.freeVerts
	if used <= 0 {
		if t.freeVerts > 0 {
			return 1
		}
		return 0
	}
	return float64(t.freeVerts) / float64(used)
}

// MaybeCompact compacts the buffer when the free ratio exceeds the
// threshold. Returns true when a compaction ran.
func (t *RangeTable) MaybeCompact() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.freeVerts == 0 || t.freeRatioLocked() <= t.threshold {
		return false
	}
	t.compactLocked()
	return true
}

// Compact rewrites the buffer contiguously in bin insertion order.
func (t *RangeTable) Compact() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.compactLocked()
}

func (t *RangeTable) compactLocked() {
	packed := make([]Vertex, 0, t.tail-t.freeVerts)
	for _, id := range t.order {
		r := t.entries[id]
		start := len(packed)
		packed = append(packed, t.verts[r.Start:r.End]...)
		t.entries[id] = Range{Start: start, End: len(packed)}
	}
	copy(t.verts, packed)
	t.tail = len(packed)
	t.freeVerts = 0

	// A single transfer covering the live span supersedes everything
	// queued before it.
	t.pending = t.pending[:0]
	if t.tail > 0 {
		t.addTransferLocked(Range{Start: 0, End: t.tail})
	}
	slogger().Debug("range table compacted", "vertices", t.tail, "bins", len(t.order))
}

func (t *RangeTable) addTransferLocked(r Range) {
	t.pending = append(t.pending, Transfer{
		SrcOff: r.Start * VertexStride,
		DstOff: r.Start * VertexStride,
		Size:   r.Len() * VertexStride,
	})
}

// TakeTransfers returns the queued transfers with adjacent destinations
// coalesced, clearing the queue. The second result is the staging byte
// image the transfers read from.
func (t *RangeTable) TakeTransfers() ([]Transfer, []byte) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.pending) == 0 {
		return nil, nil
	}
	transfers := coalesce(t.pending)
	t.pending = nil
	return transfers, EncodeVertices(t.verts[:t.tail])
}

// coalesce sorts transfers by destination and merges runs that are
// adjacent in both source and destination.
func coalesce(in []Transfer) []Transfer {
	if len(in) <= 1 {
		return in
	}
	sorted := make([]Transfer, len(in))
	copy(sorted, in)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].DstOff < sorted[j].DstOff })

	out := sorted[:1]
	for _, tr := range sorted[1:] {
		last := &out[len(out)-1]
		if tr.DstOff <= last.DstOff+last.Size && tr.SrcOff-tr.DstOff == last.SrcOff-last.DstOff {
			if end := tr.DstOff + tr.Size; end > last.DstOff+last.Size {
				last.Size = end - last.DstOff
			}
			continue
		}
		out = append(out, tr)
	}
	return out
}

// VertexCount returns the number of live vertices (excluding holes).
func (t *RangeTable) VertexCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, r := range t.entries {
		n += r.Len()
	}
	return n
}

// Concatenated returns the per-bin vertex lists joined in bin insertion
// order. This is the reference content the device buffer converges to.
func (t *RangeTable) Concatenated() []Vertex {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Vertex, 0, t.tail-t.freeVerts)
	for _, id := range t.order {
		r := t.entries[id]
		out = append(out, t.verts[r.Start:r.End]...)
	}
	return out
}

// Ranges returns every bin's range. The caller must not mutate the map.
func (t *RangeTable) Ranges() map[BinID]Range {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[BinID]Range, len(t.entries))
	for id, r := range t.entries {
		out[id] = r
	}
	return out
}

// LayerSpans returns, per layer in ascending order, the vertex ranges to
// draw for that layer. Ranges within a layer follow bin insertion order.
func (t *RangeTable) LayerSpans() []LayerSpan {
	t.mu.Lock()
	defer t.mu.Unlock()

	byLayer := make(map[int][]Range)
	for _, id := range t.order {
		r := t.entries[id]
		if r.Len() == 0 {
			continue
		}
		l := t.layers[id]
		byLayer[l] = append(byLayer[l], r)
	}
	layers := make([]int, 0, len(byLayer))
	for l := range byLayer {
		layers = append(layers, l)
	}
	sort.Ints(layers)

	out := make([]LayerSpan, 0, len(layers))
	for _, l := range layers {
		out = append(out, LayerSpan{Layer: l, Ranges: byLayer[l]})
	}
	return out
}

// LayerSpan groups the vertex ranges belonging to one z-layer.
type LayerSpan struct {
	Layer  int
	Ranges []Range
}
