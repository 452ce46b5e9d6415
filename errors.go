package main

import "errors"

// Capture errors. Every stage wraps one of these with fmt.Errorf("...: %w")
// so the top level can classify with errors.Is while still printing the
// underlying system error text. None of them is ever retried: a failure at
// any stage is terminal for the run.

// Device resolution errors
var (
	// ErrNoDevice is returned when no DRM device node can be opened, or
	// none of the openable ones supports dumb buffers.
	ErrNoDevice = errors.New("no usable KMS/DRM device")

	// ErrCapabilityUnavailable is returned when the chosen device refuses
	// atomic modesetting or universal planes.
	ErrCapabilityUnavailable = errors.New("required DRM capability unavailable")
)

// Frame location and export errors
var (
	// ErrResourceQuery is returned when the device cannot report its mode
	// resources.
	ErrResourceQuery = errors.New("mode resource query failed")

	// ErrNoActiveOutput is returned when no CRTC has a framebuffer bound.
	ErrNoActiveOutput = errors.New("no CRTC with an active framebuffer")

	// ErrFramebufferUnavailable is returned when the framebuffer id read
	// from a CRTC can no longer be resolved. The display content can change
	// between the CRTC query and the framebuffer lookup; the race is
	// reported, not retried.
	ErrFramebufferUnavailable = errors.New("framebuffer unavailable")

	// ErrExportFailed is returned when the kernel denies exporting the
	// framebuffer's backing memory as a PRIME descriptor.
	ErrExportFailed = errors.New("PRIME export failed")
)

// Conversion and sink errors
var (
	// ErrMapFailed is returned when the exported buffer cannot be mapped,
	// or the mapping is shorter than the framebuffer metadata promises.
	ErrMapFailed = errors.New("mapping framebuffer failed")

	// ErrOutOfMemory is returned when the canonical raster cannot be
	// allocated because its computed size is nonsensical.
	ErrOutOfMemory = errors.New("raster too large")

	// ErrUnsupportedFormat is returned for any pixel depth other than 16
	// or 32 bits, and for zero-sized framebuffers.
	ErrUnsupportedFormat = errors.New("unsupported framebuffer format")

	// ErrIoFailure is returned when the output file cannot be created.
	ErrIoFailure = errors.New("cannot create output file")

	// ErrEncodeFailed is returned when the PNG encoder fails.
	ErrEncodeFailed = errors.New("PNG encode failed")
)
