package main

import (
	"testing"

	"github.com/godbus/dbus/v5"
)

func TestSenderToToken(t *testing.T) {
	if got := senderToToken(":1.42"); got != "1_42" {
		t.Errorf("senderToToken(\":1.42\") = %q, want \"1_42\"", got)
	}
	if got := senderToToken(":1.2.3"); got != "1_2_3" {
		t.Errorf("senderToToken(\":1.2.3\") = %q, want \"1_2_3\"", got)
	}
}

func TestFileURIPath(t *testing.T) {
	resp := map[string]dbus.Variant{
		"uri": dbus.MakeVariant("file:///tmp/screenshot.png"),
	}
	path, err := fileURIPath(resp)
	if err != nil {
		t.Fatalf("fileURIPath: %v", err)
	}
	if path != "/tmp/screenshot.png" {
		t.Errorf("got %q, want /tmp/screenshot.png", path)
	}
}

func TestFileURIPath_Escaped(t *testing.T) {
	resp := map[string]dbus.Variant{
		"uri": dbus.MakeVariant("file:///home/user/Pictures/Screenshot%20From%20Today.png"),
	}
	path, err := fileURIPath(resp)
	if err != nil {
		t.Fatalf("fileURIPath: %v", err)
	}
	if path != "/home/user/Pictures/Screenshot From Today.png" {
		t.Errorf("got %q", path)
	}
}

func TestFileURIPath_MissingURI(t *testing.T) {
	if _, err := fileURIPath(map[string]dbus.Variant{}); err == nil {
		t.Error("expected error for missing uri")
	}
}

func TestFileURIPath_WrongScheme(t *testing.T) {
	resp := map[string]dbus.Variant{
		"uri": dbus.MakeVariant("http://example.com/shot.png"),
	}
	if _, err := fileURIPath(resp); err == nil {
		t.Error("expected error for non-file scheme")
	}
}
