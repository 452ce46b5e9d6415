package main

import (
	"fmt"
	"log/slog"
	"unsafe"
)

// FramebufferMeta describes the framebuffer currently bound to a CRTC. It
// owns the kernel GEM handle returned by the lookup; Close releases it
// exactly once.
type FramebufferMeta struct {
	Width  uint32
	Height uint32
	Pitch  uint32
	BPP    uint32
	Depth  uint32

	dev    *Device
	handle uint32
	closed bool
}

// crtcIDs lists the CRTC identifiers of the device, in the order the kernel
// reports them. GETRESOURCES is a two-call interface: the first call only
// fills in the counts.
func (d *Device) crtcIDs() ([]uint32, error) {
	var res drmModeCardRes
	if err := devIoctl(d.fd, drmIoctlModeGetResources, unsafe.Pointer(&res)); err != nil {
		return nil, err
	}
	if res.countCRTCs == 0 {
		return nil, nil
	}

	crtcs := make([]uint32, res.countCRTCs)
	res = drmModeCardRes{
		crtcIDPtr:  uint64(uintptr(unsafe.Pointer(&crtcs[0]))),
		countCRTCs: uint32(len(crtcs)),
	}
	if err := devIoctl(d.fd, drmIoctlModeGetResources, unsafe.Pointer(&res)); err != nil {
		return nil, err
	}

	// A CRTC may disappear between the two calls; trust the second count.
	if int(res.countCRTCs) < len(crtcs) {
		crtcs = crtcs[:res.countCRTCs]
	}
	return crtcs, nil
}

// crtcFramebuffer returns the id of the framebuffer bound to the CRTC, or
// zero if the CRTC is idle.
func (d *Device) crtcFramebuffer(crtcID uint32) (uint32, error) {
	crtc := drmModeCrtc{crtcID: crtcID}
	if err := devIoctl(d.fd, drmIoctlModeGetCrtc, unsafe.Pointer(&crtc)); err != nil {
		return 0, err
	}
	return crtc.fbID, nil
}

// framebuffer resolves the metadata for a framebuffer id. The caller owns
// the returned metadata and must Close it.
func (d *Device) framebuffer(fbID uint32) (*FramebufferMeta, error) {
	cmd := drmModeFBCmd{fbID: fbID}
	if err := devIoctl(d.fd, drmIoctlModeGetFB, unsafe.Pointer(&cmd)); err != nil {
		return nil, fmt.Errorf("%w: framebuffer %d: %v", ErrFramebufferUnavailable, fbID, err)
	}
	return &FramebufferMeta{
		Width:  cmd.width,
		Height: cmd.height,
		Pitch:  cmd.pitch,
		BPP:    cmd.bpp,
		Depth:  cmd.depth,
		dev:    d,
		handle: cmd.handle,
	}, nil
}

// Export converts the framebuffer's GEM handle into a read-only PRIME file
// descriptor referencing the same physical memory.
func (fb *FramebufferMeta) Export() (int, error) {
	// Flags 0 = O_RDONLY; the mapping side never needs write access.
	arg := drmPrimeHandle{handle: fb.handle}
	if err := devIoctl(fb.dev.fd, drmIoctlPrimeHandleToFD, unsafe.Pointer(&arg)); err != nil {
		return -1, fmt.Errorf("%w: %v", ErrExportFailed, err)
	}
	return int(arg.fd), nil
}

// Size returns the byte length of the framebuffer's backing store as this
// tool maps it: height * width * bytes-per-pixel, no row padding.
func (fb *FramebufferMeta) Size() int {
	return int(fb.Height) * int(fb.Width) * int(fb.BPP/8)
}

// Close releases the GEM handle. Safe to call once only per descriptor;
// further calls are no-ops.
func (fb *FramebufferMeta) Close() error {
	if fb.closed {
		return nil
	}
	fb.closed = true
	arg := drmGemClose{handle: fb.handle}
	return devIoctl(fb.dev.fd, drmIoctlGemClose, unsafe.Pointer(&arg))
}

// activeFramebuffer walks the device's CRTCs in kernel order and returns
// the framebuffer id of the first one with a buffer bound.
func (d *Device) activeFramebuffer() (uint32, error) {
	crtcs, err := d.crtcIDs()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrResourceQuery, err)
	}

	for _, id := range crtcs {
		fbID, err := d.crtcFramebuffer(id)
		if err != nil {
			// An unqueryable CRTC is no different from an idle one.
			continue
		}
		if fbID != 0 {
			slog.Debug("found active CRTC", "crtc", id, "fb", fbID)
			return fbID, nil
		}
	}

	return 0, fmt.Errorf("%w on %s", ErrNoActiveOutput, d.Path())
}

// locateAndExport finds the first active framebuffer on the device,
// resolves its metadata and exports its backing memory. On failure nothing
// leaks: the metadata, if already resolved, is released before returning.
func locateAndExport(d *Device) (*FramebufferMeta, int, error) {
	fbID, err := d.activeFramebuffer()
	if err != nil {
		return nil, -1, err
	}
	return exportFramebuffer(d, fbID)
}

func exportFramebuffer(d *Device, fbID uint32) (*FramebufferMeta, int, error) {
	fb, err := d.framebuffer(fbID)
	if err != nil {
		return nil, -1, err
	}

	primeFD, err := fb.Export()
	if err != nil {
		fb.Close()
		return nil, -1, err
	}

	slog.Debug("exported framebuffer",
		"fb", fbID, "width", fb.Width, "height", fb.Height, "bpp", fb.BPP)
	return fb, primeFD, nil
}
