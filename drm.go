package main

import (
	"fmt"
	"log/slog"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Raw DRM ioctl layer. The kernel ABI structs and request codes below match
// include/uapi/drm/drm.h and drm_mode.h; no libdrm, no cgo.

const (
	iocWrite = 1
	iocRead  = 2

	drmIoctlBase = 'd'
)

// ioc computes a Linux _IOC ioctl request number.
func ioc(dir, nr, size uintptr) uintptr {
	return dir<<30 | size<<16 | drmIoctlBase<<8 | nr
}

var (
	drmIoctlGetCap           = ioc(iocRead|iocWrite, 0x0c, unsafe.Sizeof(drmGetCap{}))
	drmIoctlSetClientCap     = ioc(iocWrite, 0x0d, unsafe.Sizeof(drmSetClientCap{}))
	drmIoctlPrimeHandleToFD  = ioc(iocRead|iocWrite, 0x2d, unsafe.Sizeof(drmPrimeHandle{}))
	drmIoctlGemClose         = ioc(iocWrite, 0x09, unsafe.Sizeof(drmGemClose{}))
	drmIoctlModeGetResources = ioc(iocRead|iocWrite, 0xa0, unsafe.Sizeof(drmModeCardRes{}))
	drmIoctlModeGetCrtc      = ioc(iocRead|iocWrite, 0xa1, unsafe.Sizeof(drmModeCrtc{}))
	drmIoctlModeGetFB        = ioc(iocRead|iocWrite, 0xad, unsafe.Sizeof(drmModeFBCmd{}))
)

const (
	drmCapDumbBuffer = 0x1

	drmClientCapUniversalPlanes = 2
	drmClientCapAtomic          = 3
)

type drmGetCap struct {
	capability uint64
	value      uint64
}

type drmSetClientCap struct {
	capability uint64
	value      uint64
}

type drmPrimeHandle struct {
	handle uint32
	flags  uint32
	fd     int32
}

type drmGemClose struct {
	handle uint32
	pad    uint32
}

type drmModeCardRes struct {
	fbIDPtr         uint64
	crtcIDPtr       uint64
	connectorIDPtr  uint64
	encoderIDPtr    uint64
	countFBs        uint32
	countCRTCs      uint32
	countConnectors uint32
	countEncoders   uint32
	minWidth        uint32
	maxWidth        uint32
	minHeight       uint32
	maxHeight       uint32
}

type drmModeInfo struct {
	clock                                          uint32
	hdisplay, hsyncStart, hsyncEnd, htotal, hskew  uint16
	vdisplay, vsyncStart, vsyncEnd, vtotal, vscan  uint16
	vrefresh                                       uint32
	flags                                          uint32
	typ                                            uint32
	name                                           [32]byte
}

type drmModeCrtc struct {
	setConnectorsPtr uint64
	countConnectors  uint32
	crtcID           uint32
	fbID             uint32
	x, y             uint32
	gammaSize        uint32
	modeValid        uint32
	mode             drmModeInfo
}

type drmModeFBCmd struct {
	fbID   uint32
	width  uint32
	height uint32
	pitch  uint32
	bpp    uint32
	depth  uint32
	handle uint32
}

// Kernel entry points, overridable for tests.
var (
	openDevice = func(path string) (int, error) {
		return unix.Open(path, unix.O_RDWR|unix.O_CLOEXEC, 0)
	}
	closeFD  = unix.Close
	devIoctl = func(fd int, req uintptr, arg unsafe.Pointer) error {
		_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), req, uintptr(arg))
		if errno != 0 {
			return errno
		}
		return nil
	}
)

func cardPath(card int) string {
	return fmt.Sprintf("/dev/dri/card%d", card)
}

// Device is an open KMS/DRM device node with the client capabilities needed
// for capture already negotiated.
type Device struct {
	fd   int
	card int
}

func getCap(fd int, capability uint64) (uint64, error) {
	arg := drmGetCap{capability: capability}
	if err := devIoctl(fd, drmIoctlGetCap, unsafe.Pointer(&arg)); err != nil {
		return 0, err
	}
	return arg.value, nil
}

func setClientCap(fd int, capability, value uint64) error {
	arg := drmSetClientCap{capability: capability, value: value}
	return devIoctl(fd, drmIoctlSetClientCap, unsafe.Pointer(&arg))
}

// openCard opens the given card index and enables atomic modesetting and
// universal planes. Both capabilities are mandatory; on failure the fd is
// closed before returning.
func openCard(card int) (*Device, error) {
	path := cardPath(card)
	fd, err := openDevice(path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %v", ErrNoDevice, path, err)
	}

	if err := setClientCap(fd, drmClientCapAtomic, 1); err != nil {
		closeFD(fd)
		return nil, fmt.Errorf("%w: atomic modesetting on %s: %v", ErrCapabilityUnavailable, path, err)
	}
	if err := setClientCap(fd, drmClientCapUniversalPlanes, 1); err != nil {
		closeFD(fd)
		return nil, fmt.Errorf("%w: universal planes on %s: %v", ErrCapabilityUnavailable, path, err)
	}

	return &Device{fd: fd, card: card}, nil
}

// resolveDevice probes card indices from 0 looking for a device that
// supports dumb buffers, then re-opens the first match with the client
// capabilities enabled. An open failure means there are no further device
// nodes to try. The scan is capped so systems with no display hardware
// don't loop forever.
func resolveDevice(maxCards int) (*Device, error) {
	for card := 0; card < maxCards; card++ {
		path := cardPath(card)
		fd, err := openDevice(path)
		if err != nil {
			return nil, fmt.Errorf("%w: opening %s: %v", ErrNoDevice, path, err)
		}

		dumb, err := getCap(fd, drmCapDumbBuffer)
		closeFD(fd)
		if err == nil && dumb != 0 {
			slog.Debug("found capture-capable device", "path", path)
			return openCard(card)
		}
		slog.Debug("skipping device without dumb buffers", "path", path)
	}

	return nil, fmt.Errorf("%w: no dumb-buffer device in the first %d cards", ErrNoDevice, maxCards)
}

// Close releases the device fd.
func (d *Device) Close() error {
	return closeFD(d.fd)
}

func (d *Device) Path() string {
	return cardPath(d.card)
}
