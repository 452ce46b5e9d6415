package main

import (
	"errors"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func TestWritePNG_RoundTrip(t *testing.T) {
	frame := &Frame{
		Width:  2,
		Height: 2,
		Pix: []byte{
			0, 0, 255,
			0, 255, 0,
			255, 0, 0,
			255, 255, 255,
		},
	}
	path := filepath.Join(t.TempDir(), "out.png")

	if err := writePNG(frame, path); err != nil {
		t.Fatalf("writePNG: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("opening output: %v", err)
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decoding output: %v", err)
	}
	if img.Bounds().Dx() != 2 || img.Bounds().Dy() != 2 {
		t.Fatalf("got %v, want 2x2", img.Bounds())
	}

	for i := 0; i < 4; i++ {
		x, y := i%2, i/2
		r, g, b, _ := img.At(x, y).RGBA()
		wantR, wantG, wantB := frame.Pix[i*3], frame.Pix[i*3+1], frame.Pix[i*3+2]
		if uint8(r>>8) != wantR || uint8(g>>8) != wantG || uint8(b>>8) != wantB {
			t.Errorf("pixel (%d,%d) = (%d, %d, %d), want (%d, %d, %d)",
				x, y, r>>8, g>>8, b>>8, wantR, wantG, wantB)
		}
	}
}

// Re-encoding the same frame produces byte-identical files.
func TestWritePNG_Deterministic(t *testing.T) {
	frame := &Frame{Width: 1, Height: 1, Pix: []byte{1, 2, 3}}
	dir := t.TempDir()
	pathA := filepath.Join(dir, "a.png")
	pathB := filepath.Join(dir, "b.png")

	if err := writePNG(frame, pathA); err != nil {
		t.Fatalf("writePNG: %v", err)
	}
	if err := writePNG(frame, pathB); err != nil {
		t.Fatalf("writePNG: %v", err)
	}

	a, err := os.ReadFile(pathA)
	if err != nil {
		t.Fatal(err)
	}
	b, err := os.ReadFile(pathB)
	if err != nil {
		t.Fatal(err)
	}
	if string(a) != string(b) {
		t.Error("two encodes of the same frame differ")
	}
}

func TestWritePNG_UnwritablePath(t *testing.T) {
	frame := &Frame{Width: 1, Height: 1, Pix: []byte{0, 0, 0}}
	path := filepath.Join(t.TempDir(), "missing", "out.png")

	err := writePNG(frame, path)
	if !errors.Is(err, ErrIoFailure) {
		t.Errorf("got %v, want ErrIoFailure", err)
	}
	if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
		t.Error("output file should not exist after failure")
	}
}

func TestWritePNG_RejectsZeroDimensions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.png")

	err := writePNG(&Frame{Width: 0, Height: 1}, path)
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("got %v, want ErrUnsupportedFormat", err)
	}
	if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
		t.Error("output file should not exist after rejection")
	}
}

func TestWritePNG_RejectsShortRaster(t *testing.T) {
	err := writePNG(&Frame{Width: 2, Height: 2, Pix: make([]byte, 3)}, filepath.Join(t.TempDir(), "out.png"))
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("got %v, want ErrUnsupportedFormat", err)
	}
}
