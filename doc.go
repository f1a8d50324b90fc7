// Package binui is a GPU-accelerated retained-mode user interface toolkit.
//
// Programs compose a tree of styled rectangular nodes called bins. The
// toolkit lays them out, rasterizes them (including text) into a shared
// vertex buffer, and presents frames through a wgpu device while routing
// pointer and keyboard events back to the bins that own them.
//
// The entry point is [New], which builds an [Interface] from a set of
// [Option] values. Bins are created with [Interface.NewBin] and styled
// through [BinStyle] values applied with [Bin.StyleUpdate]:
//
//	itf, err := binui.New(binui.WithWindowSize(800, 600))
//	if err != nil {
//		log.Fatal(err)
//	}
//	bg := itf.NewBin()
//	bg.StyleUpdate(binui.BinStyle{
//		Position:  binui.PositionWindow,
//		Top:       binui.F32(0),
//		Left:      binui.F32(0),
//		Width:     binui.F32(800),
//		Height:    binui.F32(600),
//		BackColor: binui.MustSRGBHex("f0f0f0"),
//	})
//	itf.Run()
//
// Window and surface creation live behind the narrow [WindowManager]
// interface; the toolkit itself never talks to the OS directly.
package binui
