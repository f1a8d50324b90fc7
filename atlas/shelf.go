package atlas

// shelf is one horizontal strip of the packing area.
type shelf struct {
	y      int // top Y coordinate
	height int // height, set by the tallest item so far
	x      int // next free X position
}

// shelfPacker places rectangles into horizontal shelves. Each new
// rectangle goes onto the first shelf tall and wide enough; the newest
// shelf may still grow its height while it is the bottom one. When no
// shelf fits, a new shelf opens below.
type shelfPacker struct {
	width   int
	height  int
	padding int
	shelves []shelf

	usedArea int
}

func newShelfPacker(width, height, padding int) *shelfPacker {
	return &shelfPacker{
		width:   width,
		height:  height,
		padding: padding,
		shelves: make([]shelf, 0, 16),
	}
}

// allocate finds space for a w x h rectangle. Returns the top-left
// position, or ok=false when the packer is full.
func (p *shelfPacker) allocate(w, h int) (x, y int, ok bool) {
	paddedW := w + p.padding
	paddedH := h + p.padding
	if w <= 0 || h <= 0 || paddedW > p.width || paddedH > p.height {
		return -1, -1, false
	}

	for i := range p.shelves {
		s := &p.shelves[i]
		if s.x+paddedW > p.width {
			continue
		}
		if h > s.height {
			// Taller than the shelf. Only the newest shelf may
			// grow, and only while there is room below it.
			if i == len(p.shelves)-1 && s.y+paddedH <= p.height {
				s.height = h
				x, y = s.x, s.y
				s.x += paddedW
				p.usedArea += w * h
				return x, y, true
			}
			continue
		}
		x, y = s.x, s.y
		s.x += paddedW
		p.usedArea += w * h
		return x, y, true
	}

	newY := 0
	if n := len(p.shelves); n > 0 {
		last := p.shelves[n-1]
		newY = last.y + last.height + p.padding
	}
	if newY+paddedH > p.height {
		return -1, -1, false
	}
	p.shelves = append(p.shelves, shelf{y: newY, height: h, x: paddedW})
	p.usedArea += w * h
	return 0, newY, true
}

// utilization returns the fraction of the packing area in use.
func (p *shelfPacker) utilization() float64 {
	total := p.width * p.height
	if total == 0 {
		return 0
	}
	return float64(p.usedArea) / float64(total)
}
