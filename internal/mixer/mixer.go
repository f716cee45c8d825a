// Package mixer implements the 4-channel PCM resampler the audio thread
// pulls samples from: a linear-interpolating fixed-point resampler with
// volume scaling and saturating accumulation.
package mixer

import (
	"sync"

	"anotherworld/internal/debug"
)

// SampleRate is the output rate the mixer always resamples to.
const SampleRate = 22050

// NumChannels is the fixed channel count the original hardware mixer
// exposes to the VM's PlaySound opcode.
const NumChannels = 4

// MaxVolume is the channel volume ceiling; PlayChannel clamps to it.
const MaxVolume = 0x3F

// Chunk is PCM data plus looping bookkeeping, ready to play on a channel.
type Chunk struct {
	Data    []byte // signed-8 samples
	Len     int
	LoopPos int
	LoopLen int
}

func (c Chunk) looping() bool { return c.LoopLen > 0 }

type channel struct {
	active   bool
	chunk    Chunk
	chunkPos uint32 // 24.8 fixed point
	chunkInc uint32
	volume   uint8
}

// Mixer is the single shared-mutable object in the audio path: the audio
// push goroutine, the sfx ticker, and the VM's play/stop calls all take
// the same lock before touching channels.
type Mixer struct {
	mu       sync.Mutex
	channels [NumChannels]channel
	logger   *debug.Logger
}

// New creates an idle mixer.
func New(logger *debug.Logger) *Mixer {
	return &Mixer{logger: logger}
}

func (m *Mixer) logf(level debug.LogLevel, format string, args ...interface{}) {
	if m.logger != nil {
		m.logger.LogMixerf(level, format, args...)
	}
}

// Lock takes the mixer's channel lock so a caller can batch several
// channel updates into one critical section the audio thread cannot
// interleave with. Pair with Unlock.
func (m *Mixer) Lock() { m.mu.Lock() }

// Unlock releases the lock taken by Lock.
func (m *Mixer) Unlock() { m.mu.Unlock() }

// PlayChannel replaces ch's slot with chunk, resampled from freqHz to
// SampleRate, at the given volume (clamped to MaxVolume).
func (m *Mixer) PlayChannel(ch int, chunk Chunk, freqHz int, volume uint8) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PlayChannelLocked(ch, chunk, freqHz, volume)
}

// PlayChannelLocked is PlayChannel for callers already holding the
// mixer lock.
func (m *Mixer) PlayChannelLocked(ch int, chunk Chunk, freqHz int, volume uint8) {
	if ch < 0 || ch >= NumChannels {
		return
	}
	if volume > MaxVolume {
		volume = MaxVolume
	}
	m.channels[ch] = channel{
		active:   true,
		chunk:    chunk,
		chunkInc: uint32(freqHz) << 8 / SampleRate,
		volume:   volume,
	}
	m.logf(debug.LogLevelDebug, "play channel %d: freq=%d volume=%d len=%d", ch, freqHz, volume, chunk.Len)
}

// StopChannel silences one channel.
func (m *Mixer) StopChannel(ch int) {
	m.mu.Lock()
	m.StopChannelLocked(ch)
	m.mu.Unlock()
}

// StopChannelLocked is StopChannel for callers already holding the
// mixer lock.
func (m *Mixer) StopChannelLocked(ch int) {
	if ch < 0 || ch >= NumChannels {
		return
	}
	m.channels[ch] = channel{}
}

// StopAll silences every channel, used on part switches and
// UpdateMemList(0).
func (m *Mixer) StopAll() {
	m.mu.Lock()
	for i := range m.channels {
		m.channels[i] = channel{}
	}
	m.mu.Unlock()
}

// ChannelActive reports whether ch currently holds a playing chunk,
// exposed for tests that assert on mixer state after a stop.
func (m *Mixer) ChannelActive(ch int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ch < 0 || ch >= NumChannels {
		return false
	}
	return m.channels[ch].active
}

// Render fills out with one mono i8 sample per slot, advancing every
// active channel exactly once per call. Call this at SampleRate from the
// audio push goroutine.
func (m *Mixer) Render(out []int8) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range out {
		out[i] = m.renderSample()
	}
}

func (m *Mixer) renderSample() int8 {
	var acc int32
	for i := range m.channels {
		ch := &m.channels[i]
		if !ch.active {
			continue
		}
		s, ok := ch.step()
		if !ok {
			*ch = channel{}
			continue
		}
		// Saturation applies per channel accumulation, not once at the
		// end; a loud pair of channels clamps before a third is added.
		acc = addClamp(acc, int32(s)*int32(ch.volume)/0x40)
	}
	return int8(acc)
}

func addClamp(a, b int32) int32 {
	v := a + b
	if v > 127 {
		return 127
	}
	if v < -128 {
		return -128
	}
	return v
}

// step advances the channel's fixed-point position by one output sample
// and returns the linearly-interpolated signed sample, or ok=false if a
// non-looping channel has run off its end (the caller then drops it).
func (c *channel) step() (int8, bool) {
	p1 := int(c.chunkPos >> 8)
	ilc := c.chunkPos & 0xFF
	c.chunkPos += c.chunkInc

	var p2 int
	if c.chunk.looping() {
		// A fractional increment can step past the exact end sample, so
		// the wrap test is >= rather than ==. The reset stores loop_pos
		// into the fixed-point position unshifted, as the original does.
		if p1 >= c.chunk.LoopPos+c.chunk.LoopLen-1 {
			p1 = c.chunk.LoopPos + c.chunk.LoopLen - 1
			c.chunkPos = uint32(c.chunk.LoopPos)
			p2 = c.chunk.LoopPos
		} else {
			p2 = p1 + 1
		}
	} else {
		if p1 >= c.chunk.Len-1 {
			return 0, false
		}
		p2 = p1 + 1
	}

	if p1 >= len(c.chunk.Data) || p2 >= len(c.chunk.Data) {
		return 0, false
	}
	s1 := int32(int8(c.chunk.Data[p1]))
	s2 := int32(int8(c.chunk.Data[p2]))
	b := (s1*(0xFF-int32(ilc)) + s2*int32(ilc)) >> 8
	return int8(b), true
}
