package main

import "fmt"

// Output describes one active display output discovered during a scan.
type Output struct {
	Card   int
	CrtcID uint32
	FBID   uint32
	Width  uint32
	Height uint32
	BPP    uint32
}

func (o Output) String() string {
	return fmt.Sprintf("card%d CRTC %d: %dx%d @ %d bpp", o.Card, o.CrtcID, o.Width, o.Height, o.BPP)
}

// listOutputs scans card indices from 0 and collects every CRTC with a
// framebuffer bound, together with the buffer's geometry. Cards without
// dumb-buffer support are skipped; the scan stops at the first index that
// fails to open, since DRM nodes are numbered contiguously.
func listOutputs(maxCards int) ([]Output, error) {
	var outputs []Output

	for card := 0; card < maxCards; card++ {
		fd, err := openDevice(cardPath(card))
		if err != nil {
			break
		}
		dumb, err := getCap(fd, drmCapDumbBuffer)
		closeFD(fd)
		if err != nil || dumb == 0 {
			continue
		}

		dev, err := openCard(card)
		if err != nil {
			continue
		}
		outputs = append(outputs, deviceOutputs(dev)...)
		dev.Close()
	}

	if len(outputs) == 0 {
		return nil, fmt.Errorf("%w: no card reported an active CRTC", ErrNoActiveOutput)
	}
	return outputs, nil
}

func deviceOutputs(dev *Device) []Output {
	crtcs, err := dev.crtcIDs()
	if err != nil {
		return nil
	}

	var outputs []Output
	for _, id := range crtcs {
		fbID, err := dev.crtcFramebuffer(id)
		if err != nil || fbID == 0 {
			continue
		}
		fb, err := dev.framebuffer(fbID)
		if err != nil {
			continue
		}
		outputs = append(outputs, Output{
			Card:   dev.card,
			CrtcID: id,
			FBID:   fbID,
			Width:  fb.Width,
			Height: fb.Height,
			BPP:    fb.BPP,
		})
		fb.Close()
	}
	return outputs
}
