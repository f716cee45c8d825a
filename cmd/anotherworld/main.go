package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"anotherworld/internal/debug"
	"anotherworld/internal/host"
	"anotherworld/internal/mixer"
	"anotherworld/internal/resource"
	"anotherworld/internal/sfx"
	"anotherworld/internal/video"
	"anotherworld/internal/vm"
)

func main() {
	assetDir := flag.String("asset-path", "data", "Path to the original game's data directory")
	part := flag.Int("game-part", 2, "Logical part number to start from (1-10)")
	noBypass := flag.Bool("no-bypass", false, "Disable the protection-screen bypass variables")
	platform6000 := flag.Bool("platform6000", false, "Use the Amiga/Atari pause-slices constant instead of the PC one")
	hires := flag.Bool("hires", false, "Render at 2x scale instead of 1x")
	scanlines := flag.Bool("scanlines", false, "Render a scanline overlay")
	enableLogging := flag.Bool("log", false, "Enable logging for every component")
	flag.Parse()

	if *part < 1 || *part > 10 {
		fmt.Fprintf(os.Stderr, "Error: part must be between 1 and 10\n")
		os.Exit(1)
	}
	scale := 1
	if *hires {
		scale = 2
	}

	var logger *debug.Logger
	if *enableLogging {
		logger = debug.NewLogger(10000)
		logger.EnableAll()
	}

	mem := resource.New(*assetDir, logger)
	if err := mem.ReadMemList(); err != nil {
		fmt.Fprintf(os.Stderr, "Error reading memlist: %v\n", err)
		os.Exit(1)
	}

	vid := video.New(logger)
	mx := mixer.New(logger)
	sfxPlayer := sfx.New(mx, logger)

	opts := vm.Options{Bypass: !*noBypass, Platform6000: *platform6000}
	m := vm.New(mem, vid, mx, sfxPlayer, opts, logger)

	partID := uint16(resource.PartIDFirst + (*part - 1))
	m.RequestPartSwitch(partID)

	sdlHost, err := host.NewSDLHost("Another World", video.Width, video.Height, scale, *scanlines, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating host: %v\n", err)
		os.Exit(1)
	}
	defer sdlHost.Close()

	audioSink, err := sdlHost.OpenAudio(mixer.SampleRate, 1)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening audio: %v\n", err)
		os.Exit(1)
	}
	defer audioSink.Close()

	stopAudio := make(chan struct{})
	go pumpAudio(mx, audioSink, stopAudio)
	defer close(stopAudio)

	fmt.Println("Another World")
	fmt.Println("=============")
	fmt.Printf("Assets: %s\n", *assetDir)
	fmt.Printf("Starting part: 0x%04x\n", partID)
	fmt.Println("\nControls:")
	fmt.Println("  Arrow Keys - Move")
	fmt.Println("  Space / Return - Action")
	fmt.Println("  C - Password/cheat-code screen")
	fmt.Println("  Escape - Quit")

	if err := m.Run(sdlHost); err != nil {
		fmt.Fprintf(os.Stderr, "Runtime error: %v\n", err)
		os.Exit(1)
	}
}

// pumpAudio renders fixed-size chunks from the mixer and queues them to
// the host's audio sink until stopped, running independently of the
// frame loop the way the original's separate sound IRQ did. Each chunk
// is 256 samples (~11.6 ms at 22050 Hz); rendering at half that period
// keeps the queue fed without spinning, and the sink drops its backlog
// if it grows too deep.
func pumpAudio(mx *mixer.Mixer, sink host.AudioSink, stop <-chan struct{}) {
	const chunkSamples = 256
	const period = chunkSamples * time.Second / (2 * mixer.SampleRate)
	buf := make([]int8, chunkSamples)
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}
		mx.Render(buf)
		if err := sink.QueueAudio(buf); err != nil {
			return
		}
	}
}
