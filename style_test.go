package binui

import "testing"

func TestBinStyle_AxisSpec(t *testing.T) {
	tests := []struct {
		name  string
		style BinStyle
		horiz bool
		vert  bool
	}{
		{"empty", BinStyle{}, false, false},
		{"both offsets", BinStyle{
			Left: F32(0), Right: F32(0), Top: F32(0), Bottom: F32(0),
		}, true, true},
		{"size plus low offset", BinStyle{
			Left: F32(0), Width: F32(10), Top: F32(0), Height: F32(10),
		}, true, true},
		{"size plus high offset", BinStyle{
			Right: F32(0), Width: F32(10), Bottom: F32(0), Height: F32(10),
		}, true, true},
		{"width alone", BinStyle{Width: F32(10)}, false, false},
		{"one offset alone", BinStyle{Left: F32(5)}, false, false},
		{"mixed axes", BinStyle{
			Left: F32(0), Width: F32(10), Height: F32(10),
		}, true, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.style.horizontalSpec(); got != tc.horiz {
				t.Fatalf("horizontalSpec = %v, want %v", got, tc.horiz)
			}
			if got := tc.style.verticalSpec(); got != tc.vert {
				t.Fatalf("verticalSpec = %v, want %v", got, tc.vert)
			}
		})
	}
}

func TestBinStyle_OpacityDefaultsAndClamps(t *testing.T) {
	if got := (&BinStyle{}).opacity(); got != 1 {
		t.Fatalf("default opacity = %v, want 1", got)
	}
	if got := (&BinStyle{Opacity: F32(0.25)}).opacity(); got != 0.25 {
		t.Fatalf("opacity = %v, want 0.25", got)
	}
	if got := (&BinStyle{Opacity: F32(4)}).opacity(); got != 1 {
		t.Fatalf("opacity = %v, want clamped 1", got)
	}
	if got := (&BinStyle{Opacity: F32(-1)}).opacity(); got != 0 {
		t.Fatalf("opacity = %v, want clamped 0", got)
	}
}

func TestBinStyle_Pad(t *testing.T) {
	s := &BinStyle{PadT: F32(1), PadB: F32(2), PadL: F32(3), PadR: F32(4)}
	pt, pb, pl, pr := s.pad()
	if pt != 1 || pb != 2 || pl != 3 || pr != 4 {
		t.Fatalf("pad = %v,%v,%v,%v", pt, pb, pl, pr)
	}
	pt, pb, pl, pr = (&BinStyle{}).pad()
	if pt != 0 || pb != 0 || pl != 0 || pr != 0 {
		t.Fatal("unset padding must read as zero")
	}
}

func TestRect_Basics(t *testing.T) {
	r := Rect{X: 10, Y: 20, W: 30, H: 40}
	if !r.Contains(10, 20) || !r.Contains(39.9, 59.9) {
		t.Fatal("rect must contain its top-left and interior")
	}
	if r.Contains(40, 20) || r.Contains(10, 60) {
		t.Fatal("rect must exclude its exclusive edges")
	}
	if got := r.Intersect(Rect{X: 30, Y: 50, W: 100, H: 100}); got != (Rect{X: 30, Y: 50, W: 10, H: 10}) {
		t.Fatalf("intersect = %+v", got)
	}
	if !r.Intersect(Rect{X: 100, Y: 100, W: 5, H: 5}).Empty() {
		t.Fatal("disjoint intersect must be empty")
	}
}
