package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
)

func usage() {
	fmt.Println("Usage: kmsgrab [flags] <output.png>")
	flag.CommandLine.SetOutput(os.Stdout)
	flag.PrintDefaults()
}

func main() {
	os.Exit(run())
}

func run() int {
	backend := flag.String("backend", "", "capture backend: drm, portal, x11 or auto")
	card := flag.Int("card", -1, "capture this DRM card index instead of probing")
	crtc := flag.Uint("crtc", 0, "capture this CRTC id instead of the first active one")
	interactive := flag.Bool("interactive", false, "pick the output to capture in a TUI")
	verbose := flag.Bool("verbose", false, "debug logging")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() != 1 {
		usage()
		return 1
	}
	outPath := flag.Arg(0)

	cfg, err := LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if *backend != "" {
		cfg.Backend = *backend
		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
	}
	if *verbose {
		cfg.Log.Level = "debug"
	}
	initLogger(cfg.Log.Level)

	if *interactive {
		p := tea.NewProgram(newModel(cfg, outPath))
		result, err := p.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		if m := result.(model); m.err != nil {
			return 1
		}
		return 0
	}

	frame, method, err := captureFrame(cfg.Backend, *card, uint32(*crtc), cfg.MaxCards)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	if err := writePNG(frame, outPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	slog.Info("captured screen",
		"backend", method, "width", frame.Width, "height", frame.Height, "output", outPath)
	return 0
}
