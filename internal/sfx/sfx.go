// Package sfx implements the pattern/instrument sequencer: a ticker that
// walks a music module's pattern data and pushes play/stop commands into
// the mixer, independent of and parallel to the VM's frame loop.
package sfx

import (
	"sync"
	"time"

	"anotherworld/internal/debug"
	"anotherworld/internal/mixer"
	"anotherworld/internal/resource"
)

const (
	patternBytesPerTick  = 16
	patternBytesPerOrder = 1024
	patternsPerTick      = 4
	patternWordSize      = 4

	markNote = 0xFFFD
	stopNote = 0xFFFE

	noteFreqBase = 7159092

	noteMin = 0x37
	noteMax = 0x1000

	// delay_ms = base * 60 / 7050, per the module's default-tick->ms
	// conversion.
	delayNumerator   = 60
	delayDenominator = 7050
)

// Player holds an optional module and drives the mixer from a ticker
// goroutine while playing.
type Player struct {
	mu sync.Mutex

	module   *resource.MusicModule
	curPos   int
	curOrder int

	delay  time.Duration
	mixer  *mixer.Mixer
	logger *debug.Logger

	mark    chan int
	ticker  *time.Ticker
	stopCh  chan struct{}
	wg      sync.WaitGroup
	playing bool
}

// New creates a stopped player bound to mx.
func New(mx *mixer.Mixer, logger *debug.Logger) *Player {
	return &Player{
		mixer:  mx,
		logger: logger,
		mark:   make(chan int, 1),
	}
}

func (p *Player) logf(level debug.LogLevel, format string, args ...interface{}) {
	if p.logger != nil {
		p.logger.LogSfxf(level, format, args...)
	}
}

// DelayMillis converts a raw event-delay tick value (as stored in a
// module header or passed by the PlayMusic opcode) to milliseconds.
func DelayMillis(base uint16) int {
	return int(base) * delayNumerator / delayDenominator
}

// Start begins playing module from order index pos. delayRaw is in the
// module's own tick units; 0 selects the module's default delay. Any
// previously running module is stopped first.
func (p *Player) Start(module *resource.MusicModule, delayRaw int, pos int) {
	p.Stop()

	if delayRaw == 0 {
		delayRaw = int(module.DefaultDelay)
	}
	delayMs := DelayMillis(uint16(delayRaw))
	if delayMs <= 0 {
		delayMs = 1
	}

	p.mu.Lock()
	p.module = module
	p.curPos = 0
	p.curOrder = pos
	p.delay = time.Duration(delayMs) * time.Millisecond
	p.mu.Unlock()

	p.startTicker()
}

// Retune changes the tick period of an already-playing module without
// resetting its position, the PlayMusic(id=0, delay!=0) path. delayRaw
// is in the same tick units Start takes.
func (p *Player) Retune(delayRaw int) {
	delayMs := DelayMillis(uint16(delayRaw))
	if delayMs <= 0 {
		delayMs = 1
	}

	p.mu.Lock()
	p.delay = time.Duration(delayMs) * time.Millisecond
	running := p.playing
	p.mu.Unlock()

	if running {
		p.startTicker()
	}
}

func (p *Player) startTicker() {
	p.stopTickerLocked()

	p.mu.Lock()
	delay := p.delay
	p.playing = true
	p.mu.Unlock()

	p.ticker = time.NewTicker(delay)
	p.stopCh = make(chan struct{})
	p.wg.Add(1)
	go p.run(p.ticker, p.stopCh)
}

func (p *Player) run(ticker *time.Ticker, stop chan struct{}) {
	defer p.wg.Done()
	for {
		select {
		case <-ticker.C:
			if !p.tick() {
				return
			}
		case <-stop:
			return
		}
	}
}

// Stop halts playback synchronously: no pending tick may observe a
// dropped module after Stop returns.
func (p *Player) Stop() {
	p.stopTickerLocked()
	p.mu.Lock()
	p.module = nil
	p.playing = false
	p.mu.Unlock()
}

func (p *Player) stopTickerLocked() {
	if p.ticker == nil {
		return
	}
	p.ticker.Stop()
	close(p.stopCh)
	p.wg.Wait()
	p.ticker = nil
	p.stopCh = nil
}

// TakeMark performs a non-blocking receive of the latest posted mark
// value, the Sfx Player -> VM mailbox.
func (p *Player) TakeMark() (int, bool) {
	select {
	case v := <-p.mark:
		return v, true
	default:
		return 0, false
	}
}

func (p *Player) postMark(v int) {
	select {
	case p.mark <- v:
	default:
		select {
		case <-p.mark:
		default:
		}
		p.mark <- v
	}
}

// tick performs one pattern step across all four channels and advances
// the play cursor, stopping playback once the order table is exhausted.
// It returns false when playback has stopped, signalling the ticker
// goroutine to exit.
func (p *Player) tick() bool {
	p.mu.Lock()
	module := p.module
	if module == nil {
		p.mu.Unlock()
		return false
	}
	curPos, curOrder := p.curPos, p.curOrder
	p.mu.Unlock()

	if curOrder >= len(module.OrderTable) || curOrder >= int(module.NumOrder) {
		p.mu.Lock()
		p.playing = false
		p.mu.Unlock()
		return false
	}

	// All four channel updates land in one mixer critical section so
	// the audio thread never renders a half-applied row.
	base := curPos + int(module.OrderTable[curOrder])*patternBytesPerOrder
	p.mixer.Lock()
	for ch := 0; ch < patternsPerTick; ch++ {
		off := base + ch*patternWordSize
		if off+patternWordSize > len(module.Patterns) {
			continue
		}
		note1 := be16(module.Patterns[off : off+2])
		note2 := be16(module.Patterns[off+2 : off+4])
		p.handleNote(module, ch, note1, note2)
	}
	p.mixer.Unlock()

	curPos += patternBytesPerTick
	stopped := false
	if curPos >= patternBytesPerOrder {
		curPos = 0
		curOrder++
		if curOrder >= int(module.NumOrder) {
			stopped = true
		}
	}

	p.mu.Lock()
	p.curPos, p.curOrder = curPos, curOrder
	if stopped {
		p.playing = false
	}
	p.mu.Unlock()

	return !stopped
}

// handleNote runs inside the tick's mixer critical section; it must use
// the mixer's locked channel operations.
func (p *Player) handleNote(module *resource.MusicModule, ch int, note1, note2 uint16) {
	switch note1 {
	case markNote:
		p.postMark(int(note2))
		return
	case stopNote:
		p.mixer.StopChannelLocked(ch)
		return
	case 0:
		return
	}

	instrumentIdx := int(note2>>12) & 0xF
	if instrumentIdx == 0 || instrumentIdx > len(module.Instruments) {
		return
	}
	instr := module.Instruments[instrumentIdx-1]
	if !instr.Present {
		p.logf(debug.LogLevelWarning, "pattern references empty instrument slot %d", instrumentIdx)
		return
	}

	if note1 < noteMin || note1 >= noteMax {
		p.logf(debug.LogLevelWarning, "pattern note 0x%04x out of range, skipping", note1)
		return
	}

	volume := applyEffect(instr.Volume, note2)
	freq := noteFreqBase / (int(note1) * 2)

	chunk := mixer.Chunk{
		Data:    instr.Chunk.Data,
		Len:     instr.Chunk.Len,
		LoopPos: instr.Chunk.LoopPos,
		LoopLen: instr.Chunk.LoopLen,
	}
	p.mixer.PlayChannelLocked(ch, chunk, freq, volume)
}

// applyEffect applies note2's volume-modulation effect (bits 8-11) to
// base: effect 5 adds note2&0xFF saturating at 0x3F, effect 6 subtracts
// floored at 0, anything else leaves base unchanged.
func applyEffect(base uint8, note2 uint16) uint8 {
	effect := (note2 >> 8) & 0xF
	delta := uint8(note2 & 0xFF)
	switch effect {
	case 5:
		v := int(base) + int(delta)
		if v > mixer.MaxVolume {
			v = mixer.MaxVolume
		}
		return uint8(v)
	case 6:
		v := int(base) - int(delta)
		if v < 0 {
			v = 0
		}
		return uint8(v)
	default:
		return base
	}
}

func be16(b []byte) uint16 {
	return uint16(b[0])<<8 | uint16(b[1])
}
