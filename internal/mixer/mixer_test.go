package mixer

import "testing"

func sampleChunk() Chunk {
	data := make([]byte, 100)
	for i := range data {
		data[i] = byte(int8(127))
	}
	return Chunk{Data: data, Len: len(data)}
}

func TestPlayAndStopChannel(t *testing.T) {
	m := New(nil)
	m.PlayChannel(0, sampleChunk(), 22050, MaxVolume)
	if !m.ChannelActive(0) {
		t.Fatalf("channel 0 should be active after play")
	}
	m.StopChannel(0)
	if m.ChannelActive(0) {
		t.Fatalf("channel 0 should be inactive after stop")
	}
}

func TestVolumeClampedToMax(t *testing.T) {
	m := New(nil)
	m.PlayChannel(0, sampleChunk(), 22050, 0xFF)
	if m.channels[0].volume != MaxVolume {
		t.Fatalf("volume = 0x%x, want clamped to 0x%x", m.channels[0].volume, MaxVolume)
	}
}

func TestRenderSaturatesToInt8Range(t *testing.T) {
	m := New(nil)
	for ch := 0; ch < NumChannels; ch++ {
		m.PlayChannel(ch, sampleChunk(), 22050, MaxVolume)
	}
	out := make([]int8, 50)
	m.Render(out)
	for i, s := range out {
		if s > 127 || s < -128 {
			t.Fatalf("sample %d = %d out of int8 range", i, s)
		}
	}
}

func TestNonLoopingChannelStopsAtEnd(t *testing.T) {
	m := New(nil)
	chunk := Chunk{Data: []byte{10, 20, 30}, Len: 3}
	m.PlayChannel(0, chunk, SampleRate, MaxVolume) // inc = 0x100, advances 1 sample per output sample
	out := make([]int8, 10)
	m.Render(out)
	if m.ChannelActive(0) {
		t.Fatalf("non-looping channel should have auto-stopped after running off its end")
	}
}

func TestLoopingChannelWraps(t *testing.T) {
	m := New(nil)
	chunk := Chunk{Data: []byte{1, 2, 3, 4}, Len: 4, LoopPos: 0, LoopLen: 4}
	m.PlayChannel(0, chunk, SampleRate, MaxVolume)
	out := make([]int8, 20)
	m.Render(out)
	if !m.ChannelActive(0) {
		t.Fatalf("looping channel should remain active past its nominal length")
	}
}

func TestLoopingChannelSurvivesFractionalOvershoot(t *testing.T) {
	m := New(nil)
	// 2x playback rate steps the sample position by 2 per output sample,
	// which can jump past the exact loop-end index; the wrap must still
	// trigger instead of reading off the end of the PCM.
	chunk := Chunk{Data: []byte{1, 2, 3, 4, 5}, Len: 5, LoopPos: 0, LoopLen: 5}
	m.PlayChannel(0, chunk, 2*SampleRate, MaxVolume)
	out := make([]int8, 100)
	m.Render(out)
	if !m.ChannelActive(0) {
		t.Fatalf("looping channel should survive a fractional overshoot of its loop end")
	}
}
