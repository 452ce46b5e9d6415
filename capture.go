package main

import (
	"fmt"
	"image"
	"log/slog"

	"golang.org/x/sys/unix"
)

// Frame is a captured screen image in canonical form: row-major RGB,
// 3 bytes per pixel, len(Pix) == 3*Width*Height.
type Frame struct {
	Width  int
	Height int
	Pix    []byte
}

// Capturer grabs one frame of the current display content.
type Capturer interface {
	CaptureFrame() (*Frame, error)
	Close() error
}

// Backend names accepted by -backend and the config file.
const (
	backendAuto   = "auto"
	backendDRM    = "drm"
	backendPortal = "portal"
	backendX11    = "x11"
)

// Memory mapping entry points, overridable for tests.
var (
	mapBuffer = func(fd, length int) ([]byte, error) {
		return unix.Mmap(fd, 0, length, unix.PROT_READ, unix.MAP_PRIVATE)
	}
	unmapBuffer = unix.Munmap
)

// drmCapturer reads the active framebuffer straight from the kernel
// display controller. Card < 0 probes for the first capture-capable card;
// crtc == 0 takes the first CRTC with a buffer bound.
type drmCapturer struct {
	card     int
	crtc     uint32
	maxCards int
}

func newDRMCapturer(card int, crtc uint32, maxCards int) *drmCapturer {
	return &drmCapturer{card: card, crtc: crtc, maxCards: maxCards}
}

// CaptureFrame runs the whole pipeline: resolve device, locate and export
// the active framebuffer, map it, convert. Resources unwind in reverse
// acquisition order on every path.
func (c *drmCapturer) CaptureFrame() (*Frame, error) {
	var dev *Device
	var err error
	if c.card >= 0 {
		dev, err = openCard(c.card)
	} else {
		dev, err = resolveDevice(c.maxCards)
	}
	if err != nil {
		return nil, err
	}
	defer dev.Close()

	var fb *FramebufferMeta
	var primeFD int
	if c.crtc != 0 {
		fbID, cerr := dev.crtcFramebuffer(c.crtc)
		if cerr != nil {
			return nil, fmt.Errorf("%w: CRTC %d: %v", ErrResourceQuery, c.crtc, cerr)
		}
		if fbID == 0 {
			return nil, fmt.Errorf("%w: CRTC %d", ErrNoActiveOutput, c.crtc)
		}
		fb, primeFD, err = exportFramebuffer(dev, fbID)
	} else {
		fb, primeFD, err = locateAndExport(dev)
	}
	if err != nil {
		return nil, err
	}
	defer fb.Close()
	defer closeFD(primeFD)

	buf, err := mapBuffer(primeFD, fb.Size())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMapFailed, err)
	}
	defer unmapBuffer(buf)

	pix, err := convertNative(int(fb.Width), int(fb.Height), int(fb.BPP), buf)
	if err != nil {
		return nil, err
	}

	return &Frame{Width: int(fb.Width), Height: int(fb.Height), Pix: pix}, nil
}

func (c *drmCapturer) Close() error { return nil }

// NewCapturer returns the capturer for the requested backend, along with a
// printable backend name.
func NewCapturer(backend string, card int, crtc uint32, maxCards int) (Capturer, string, error) {
	switch backend {
	case backendDRM:
		return newDRMCapturer(card, crtc, maxCards), "DRM", nil
	case backendPortal:
		return &portalCapturer{}, "portal", nil
	case backendX11:
		return x11Capturer{}, "X11", nil
	}
	return nil, "", fmt.Errorf("unknown backend %q", backend)
}

// captureFrame grabs a frame with the configured backend and reports which
// backend produced it.
func captureFrame(backend string, card int, crtc uint32, maxCards int) (*Frame, string, error) {
	if backend == backendAuto {
		return captureAuto(card, crtc, maxCards)
	}

	c, method, err := NewCapturer(backend, card, crtc, maxCards)
	if err != nil {
		return nil, "", err
	}
	defer c.Close()

	frame, err := c.CaptureFrame()
	if err != nil {
		return nil, method, err
	}
	return frame, method, nil
}

// captureAuto tries DRM → portal → X11 and returns the first frame that
// works. When every backend fails, the DRM error is the one reported,
// since that is the backend this tool exists for.
func captureAuto(card int, crtc uint32, maxCards int) (*Frame, string, error) {
	drm := newDRMCapturer(card, crtc, maxCards)
	frame, drmErr := drm.CaptureFrame()
	if drmErr == nil {
		return frame, "DRM", nil
	}
	slog.Debug("DRM capture failed, falling back", "error", drmErr)

	portal := &portalCapturer{}
	frame, err := portal.CaptureFrame()
	portal.Close()
	if err == nil {
		return frame, "portal", nil
	}
	slog.Debug("portal capture failed, falling back", "error", err)

	frame, err = x11Capturer{}.CaptureFrame()
	if err == nil {
		return frame, "X11", nil
	}
	slog.Debug("X11 capture failed", "error", err)

	return nil, "", drmErr
}

// rasterFromImage repacks a decoded image into the canonical raster. The
// fast path skips the color interface for the RGBA images the X11 backend
// produces.
func rasterFromImage(img image.Image) *Frame {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	pix := make([]byte, w*h*3)

	if rgba, ok := img.(*image.RGBA); ok {
		for y := 0; y < h; y++ {
			row := rgba.Pix[y*rgba.Stride:]
			for x := 0; x < w; x++ {
				off := (y*w + x) * 3
				pix[off] = row[x*4]
				pix[off+1] = row[x*4+1]
				pix[off+2] = row[x*4+2]
			}
		}
		return &Frame{Width: w, Height: h, Pix: pix}
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			off := (y*w + x) * 3
			pix[off] = uint8(r >> 8)
			pix[off+1] = uint8(g >> 8)
			pix[off+2] = uint8(b >> 8)
		}
	}
	return &Frame{Width: w, Height: h, Pix: pix}
}
