package main

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"syscall"

	"golang.org/x/sys/unix"
)

// dropPrivileges resets the effective uid to the real uid so the output
// file is written with the invoking user's rights, not root's. Must run
// after every kernel operation that needs elevated access and before the
// output file is created. No-op when the binary is not setuid.
var dropPrivileges = func() error {
	uid := unix.Getuid()
	if unix.Geteuid() == uid {
		return nil
	}
	return syscall.Seteuid(uid)
}

// writePNG drops privileges, then encodes the frame as an 8-bit RGB PNG at
// the given path in a single write-once operation.
func writePNG(frame *Frame, path string) error {
	if frame.Width <= 0 || frame.Height <= 0 {
		return fmt.Errorf("%w: %dx%d frame", ErrUnsupportedFormat, frame.Width, frame.Height)
	}
	if len(frame.Pix) != frame.Width*frame.Height*3 {
		return fmt.Errorf("%w: raster is %d bytes, want %d",
			ErrUnsupportedFormat, len(frame.Pix), frame.Width*frame.Height*3)
	}

	if err := dropPrivileges(); err != nil {
		return fmt.Errorf("%w: dropping privileges: %v", ErrIoFailure, err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIoFailure, err)
	}

	img := image.NewNRGBA(image.Rect(0, 0, frame.Width, frame.Height))
	for i := 0; i < frame.Width*frame.Height; i++ {
		img.Pix[i*4] = frame.Pix[i*3]
		img.Pix[i*4+1] = frame.Pix[i*3+1]
		img.Pix[i*4+2] = frame.Pix[i*3+2]
		img.Pix[i*4+3] = 0xff
	}

	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("%w: %v", ErrEncodeFailed, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: %v", ErrEncodeFailed, err)
	}
	return nil
}
