package binui

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultOptions(t *testing.T) {
	o := DefaultOptions()
	if o.WindowWidth != 800 || o.WindowHeight != 600 {
		t.Fatalf("default size = %dx%d", o.WindowWidth, o.WindowHeight)
	}
	if o.MaxAtlasSize != 4096 {
		t.Fatalf("default atlas cap = %d", o.MaxAtlasSize)
	}
	if o.MSAA != 1 {
		t.Fatalf("default msaa = %d", o.MSAA)
	}
	if o.IgnoreDPI || o.NativeInput || o.AppLoop {
		t.Fatal("boolean options must default to false")
	}
}

func TestOptionFuncs(t *testing.T) {
	o := DefaultOptions()
	for _, fn := range []Option{
		WithIgnoreDPI(),
		WithWindowSize(1024, 768),
		WithTitle("demo"),
		WithMaxAtlasSize(2048),
		WithMSAA(4),
		WithWorkers(3),
	} {
		fn(&o)
	}
	if !o.IgnoreDPI || o.WindowWidth != 1024 || o.WindowHeight != 768 {
		t.Fatalf("options not applied: %+v", o)
	}
	if o.Title != "demo" || o.MaxAtlasSize != 2048 || o.MSAA != 4 || o.Workers != 3 {
		t.Fatalf("options not applied: %+v", o)
	}
}

func TestLoadOptions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "binui.toml")
	content := []byte(`
ignore_dpi = true
window_width = 640
window_height = 360
title = "from file"
max_atlas_size = 1024
msaa = 2
`)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}

	o, err := LoadOptions(path)
	if err != nil {
		t.Fatal(err)
	}
	if !o.IgnoreDPI || o.WindowWidth != 640 || o.WindowHeight != 360 {
		t.Fatalf("loaded = %+v", o)
	}
	if o.Title != "from file" || o.MaxAtlasSize != 1024 || o.MSAA != 2 {
		t.Fatalf("loaded = %+v", o)
	}
	// Fields absent from the file keep defaults.
	if o.NativeInput || o.AppLoop {
		t.Fatal("absent fields must keep defaults")
	}
}

func TestLoadOptions_Missing(t *testing.T) {
	if _, err := LoadOptions(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Fatal("missing file must error")
	}
}
