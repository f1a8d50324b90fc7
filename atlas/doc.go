// Package atlas packs many small rasterizations (glyph coverage masks,
// user images) into large GPU-resident images so the compositor can batch
// its sampling.
//
// Entries are keyed by a content fingerprint and reference-counted; only
// zero-reference entries are eligible for eviction. The backing image
// grows by doubling up to a configured maximum, after which a LRU pass
// over zero-reference entries runs before an allocation fails with
// [ErrAtlasFull].
package atlas
