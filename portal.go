package main

import (
	"context"
	"fmt"
	"image"
	_ "image/png"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/godbus/dbus/v5"
)

const (
	portalDest      = "org.freedesktop.portal.Desktop"
	portalPath      = "/org/freedesktop/portal/desktop"
	screenshotIface = "org.freedesktop.portal.Screenshot"
	requestIface    = "org.freedesktop.portal.Request"

	portalTimeout = 120 * time.Second // user may need to confirm a dialog
)

// portalCapturer takes a one-shot screenshot through the XDG desktop
// portal. The portal writes a PNG somewhere under the user's home and
// hands back a file URI; the capturer reads it back, re-rasters it to the
// canonical form and removes the portal's copy.
type portalCapturer struct {
	conn *dbus.Conn
}

func (c *portalCapturer) CaptureFrame() (*Frame, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("connecting to session bus: %w", err)
	}
	c.conn = conn

	portal := conn.Object(portalDest, dbus.ObjectPath(portalPath))
	sender := senderToToken(conn.Names()[0])

	reqToken := "kmsgrab_req_shot"
	reqPath := dbus.ObjectPath(fmt.Sprintf("/org/freedesktop/portal/desktop/request/%s/%s", sender, reqToken))

	sigCh := subscribeSignal(conn, reqPath)
	defer conn.RemoveSignal(sigCh)

	call := portal.Call(screenshotIface+".Screenshot", 0, "", map[string]dbus.Variant{
		"handle_token": dbus.MakeVariant(reqToken),
		"interactive":  dbus.MakeVariant(false),
	})
	if call.Err != nil {
		return nil, fmt.Errorf("Screenshot: %w", call.Err)
	}

	resp, err := waitForResponse(sigCh, portalTimeout)
	if err != nil {
		return nil, fmt.Errorf("Screenshot response: %w", err)
	}

	path, err := fileURIPath(resp)
	if err != nil {
		return nil, err
	}
	defer os.Remove(path)

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening portal screenshot: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding portal screenshot: %w", err)
	}

	return rasterFromImage(img), nil
}

func (c *portalCapturer) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// subscribeSignal registers a D-Bus signal match for the portal Response
// signal at the given path and returns a channel receiving matching signals.
func subscribeSignal(conn *dbus.Conn, path dbus.ObjectPath) chan *dbus.Signal {
	ch := make(chan *dbus.Signal, 1)
	conn.Signal(ch)
	conn.BusObject().Call("org.freedesktop.DBus.AddMatch", 0,
		fmt.Sprintf("type='signal',interface='%s',member='Response',path='%s'", requestIface, path))
	return ch
}

// waitForResponse waits for a portal Response signal and returns the results
// map. A non-zero response code means the user denied or the request failed.
func waitForResponse(ch chan *dbus.Signal, timeout time.Duration) (map[string]dbus.Variant, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	for {
		select {
		case sig := <-ch:
			if sig == nil {
				return nil, fmt.Errorf("signal channel closed")
			}
			if len(sig.Body) < 2 {
				continue
			}
			code, ok := sig.Body[0].(uint32)
			if !ok {
				continue
			}
			if code != 0 {
				return nil, fmt.Errorf("portal request denied (code %d)", code)
			}
			results, ok := sig.Body[1].(map[string]dbus.Variant)
			if !ok {
				return nil, fmt.Errorf("unexpected response type")
			}
			return results, nil
		case <-ctx.Done():
			return nil, fmt.Errorf("timed out waiting for portal response")
		}
	}
}

// senderToToken converts a D-Bus sender name like ":1.42" to "1_42" for use
// in request object paths.
func senderToToken(sender string) string {
	s := strings.TrimPrefix(sender, ":")
	return strings.ReplaceAll(s, ".", "_")
}

// fileURIPath extracts the local filesystem path from the portal response's
// uri field.
func fileURIPath(resp map[string]dbus.Variant) (string, error) {
	uriVariant, ok := resp["uri"]
	if !ok {
		return "", fmt.Errorf("no uri in Screenshot response")
	}
	uri, ok := uriVariant.Value().(string)
	if !ok {
		return "", fmt.Errorf("unexpected uri type: %T", uriVariant.Value())
	}

	u, err := url.Parse(uri)
	if err != nil {
		return "", fmt.Errorf("parsing screenshot uri %q: %w", uri, err)
	}
	if u.Scheme != "file" {
		return "", fmt.Errorf("unexpected screenshot uri scheme %q", u.Scheme)
	}
	return u.Path, nil
}
