package main

import (
	"time"

	"anotherworld/internal/host"
	"anotherworld/internal/video"
)

// headlessHost drives the VM's frame loop with a real wall clock but no
// window or audio device, standing in for host.SDLHost the way the
// engine's own FakeHost stands in during tests — except this one paces
// against real time so the inspector's thread/variable table reflects a
// live-running engine.
type headlessHost struct {
	start time.Time
	quit  chan struct{}
}

func newHeadlessHost() *headlessHost {
	return &headlessHost{start: time.Now(), quit: make(chan struct{})}
}

func (h *headlessHost) NowMillis() uint64 {
	return uint64(time.Since(h.start).Milliseconds())
}

func (h *headlessHost) Sleep(ms uint64) {
	time.Sleep(time.Duration(ms) * time.Millisecond)
}

func (h *headlessHost) SetPalette(colors [16]video.Color) {}

func (h *headlessHost) Present(frame []byte, width, height int) error { return nil }

func (h *headlessHost) PollInput() host.InputState {
	select {
	case <-h.quit:
		return host.InputState{Quit: true}
	default:
		return host.InputState{}
	}
}

func (h *headlessHost) OpenAudio(rate, channels int) (host.AudioSink, error) {
	return &discardSink{}, nil
}

// stop requests the VM's Run loop exit on the next PollInput.
func (h *headlessHost) stop() { close(h.quit) }

type discardSink struct{}

func (discardSink) QueueAudio(samples []int8) error { return nil }
func (discardSink) Close() error                    { return nil }
