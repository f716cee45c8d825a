package host

import "anotherworld/internal/video"

// FakeHost is a deterministic in-memory Host used by engine tests: a
// scripted clock, a recorded palette/frame history, and a queue of
// canned input states, matching the teacher's mock-interface test style
// instead of a real window/audio backend.
type FakeHost struct {
	Millis uint64
	Slept  []uint64

	Palette      [16]video.Color
	PresentCount int
	LastFrame    []byte
	LastWidth    int
	LastHeight   int

	Inputs []InputState

	AudioQueued [][]int8
}

func (h *FakeHost) NowMillis() uint64 { return h.Millis }

func (h *FakeHost) Sleep(ms uint64) {
	h.Slept = append(h.Slept, ms)
	h.Millis += ms
}

func (h *FakeHost) SetPalette(colors [16]video.Color) { h.Palette = colors }

func (h *FakeHost) Present(frame []byte, width, height int) error {
	h.PresentCount++
	h.LastFrame = append([]byte(nil), frame...)
	h.LastWidth, h.LastHeight = width, height
	return nil
}

func (h *FakeHost) PollInput() InputState {
	if len(h.Inputs) == 0 {
		return InputState{}
	}
	next := h.Inputs[0]
	h.Inputs = h.Inputs[1:]
	return next
}

func (h *FakeHost) OpenAudio(rate, channels int) (AudioSink, error) {
	return &fakeAudioSink{host: h}, nil
}

type fakeAudioSink struct {
	host *FakeHost
}

func (s *fakeAudioSink) QueueAudio(samples []int8) error {
	s.host.AudioQueued = append(s.host.AudioQueued, append([]int8(nil), samples...))
	return nil
}

func (s *fakeAudioSink) Close() error { return nil }
