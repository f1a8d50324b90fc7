// Package text parses fonts, shapes text into positioned glyph lines,
// and rasterizes glyph outlines into 8-bit coverage masks for atlas
// upload.
//
// A Font exposes metrics, a character map, and glyph outlines in the
// font's design em-square with y pointing up. Shaping converts a string
// plus a Face into lines of positioned glyphs; the default shaper does
// plain cmap lookup with advance accumulation, while the HarfBuzz shaper
// built on go-text/typesetting adds kerning and ligatures as an opt-in.
// Rasterize turns one glyph at one pixel size into a coverage Mask.
package text
