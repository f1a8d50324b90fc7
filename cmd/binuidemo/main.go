// Command binuidemo builds a small retained-mode UI headlessly, feeds
// it synthetic pointer input and reports what the toolkit produced.
// It exists to exercise the public API without an OS window or GPU.
package main

import (
	"flag"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/gogpu/binui"
	"github.com/gogpu/binui/internal/wm"
)

func main() {
	var (
		width   = flag.Uint("width", 800, "window width in pixels")
		height  = flag.Uint("height", 600, "window height in pixels")
		clicks  = flag.Int("clicks", 3, "synthetic button clicks to send")
		verbose = flag.Bool("v", false, "enable debug logging")
	)
	flag.Parse()

	if *verbose {
		binui.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}

	window := wm.NewHeadless(uint32(*width), uint32(*height), 1)
	itf, err := binui.New(
		binui.WithWindowManager(window),
		binui.WithWindowSize(uint32(*width), uint32(*height)),
		binui.WithTitle("binui demo"),
		binui.WithIgnoreDPI(),
	)
	if err != nil {
		log.Fatalf("create interface: %v", err)
	}

	background := itf.NewBin()
	background.StyleUpdate(binui.BinStyle{
		Position: binui.PositionWindow,
		Left:     binui.F32(0), Top: binui.F32(0),
		Right: binui.F32(0), Bottom: binui.F32(0),
		BackColor: binui.MustSRGBHex("f0f0f0"),
	})

	button := itf.NewBin()
	button.StyleUpdate(binui.BinStyle{
		Position: binui.PositionParent,
		Left:     binui.F32(75), Top: binui.F32(75),
		Width:    binui.F32(120), Height: binui.F32(32),
		BackColor:   binui.MustSRGBHex("3a6ea5"),
		BorderSizeT: binui.F32(1), BorderSizeB: binui.F32(1),
		BorderSizeL: binui.F32(1), BorderSizeR: binui.F32(1),
		BorderColorT: binui.MustSRGBHex("1d3b58"), BorderColorB: binui.MustSRGBHex("1d3b58"),
		BorderColorL: binui.MustSRGBHex("1d3b58"), BorderColorR: binui.MustSRGBHex("1d3b58"),
		Focusable: true,
	})
	if err := background.AddChild(button); err != nil {
		log.Fatalf("attach button: %v", err)
	}

	clicked := make(chan struct{}, *clicks+1)
	button.OnPointerPress(binui.MouseLeft, func(_ *binui.Bin, ev binui.Event) {
		log.Printf("button pressed at (%.0f, %.0f) after %s", ev.X, ev.Y, ev.Timestamp)
		clicked <- struct{}{}
	})

	done := make(chan error, 1)
	go func() { done <- itf.Run() }()

	go func() {
		for i := 0; i < *clicks; i++ {
			time.Sleep(50 * time.Millisecond)
			window.Send(binui.WindowEvent{
				Kind: binui.EventPointerPress, Button: binui.MouseLeft,
				X: 100, Y: 90,
			})
			window.Send(binui.WindowEvent{
				Kind: binui.EventPointerRelease, Button: binui.MouseLeft,
				X: 100, Y: 90,
			})
		}
		time.Sleep(50 * time.Millisecond)
		itf.Exit()
	}()

	err = <-done
	log.Printf("interface exited: %v", err)
	log.Printf("received %d of %d clicks", len(clicked), *clicks)
}
