package resource

import (
	"fmt"

	"anotherworld/internal/debug"
)

// Instrument is a decoded music instrument: a PCM sample plus its base
// volume, referenced from pattern data by instrument index.
type Instrument struct {
	Present bool
	Chunk   SoundChunk
	Volume  uint8
}

// MusicModule is the decoded form of a Music resource: the pattern/order
// data the Sfx Player steps through plus its 15 instrument slots.
type MusicModule struct {
	DefaultDelay uint16
	NumOrder     uint16
	OrderTable   [128]byte
	Patterns     []byte
	Instruments  [15]Instrument
}

const (
	musicNumInstruments   = 15
	musicInstrumentSize   = 4
	musicInstrumentOffset = 2
	musicOrderOffset      = 0x40
	musicOrderEnd         = 0xC0
	musicNumOrderOffset   = 0x3E
)

// MusicModule loads (if needed) and decodes the Music entry at idx,
// cloning each referenced Sound entry's PCM to build the instrument
// table.
func (m *Manager) MusicModule(idx int) (*MusicModule, error) {
	if err := m.EnsureLoaded(idx); err != nil {
		return nil, err
	}
	entry := m.Entries[idx]
	if entry.Type != TypeMusic {
		return nil, fmt.Errorf("%w: entry %d is not a music resource", ErrBankCorrupt, idx)
	}
	raw := m.Memory[entry.BufPtr : entry.BufPtr+entry.Size]
	if len(raw) < musicOrderEnd {
		return nil, fmt.Errorf("%w: music resource shorter than its header", ErrBankCorrupt)
	}

	mod := &MusicModule{
		DefaultDelay: uint16(raw[0])<<8 | uint16(raw[1]),
		NumOrder:     uint16(be16(raw[musicNumOrderOffset : musicNumOrderOffset+2])),
	}
	copy(mod.OrderTable[:], raw[musicOrderOffset:musicOrderEnd])
	mod.Patterns = raw[musicOrderEnd:]

	// Instrument records sit between the delay word and num_order:
	// [2..0x3E), 15 records of 4 bytes each.
	for i := 0; i < musicNumInstruments; i++ {
		off := musicInstrumentOffset + i*musicInstrumentSize
		rec := raw[off : off+musicInstrumentSize]
		sampleID := int(be16(rec[0:2]))
		volume := uint8(be16(rec[2:4]))
		if sampleID == 0 {
			continue
		}
		chunk, err := m.SoundChunk(sampleID)
		if err != nil {
			m.logf(debug.LogLevelWarning, "music %d: instrument %d references missing sample %d: %v", idx, i, sampleID, err)
			continue
		}
		// The instrument clones the sample's PCM but zeroes the
		// original's looping-header bytes [8..12): instruments carry
		// their own loop bookkeeping decoded above, not the raw
		// sample's.
		clone := make([]byte, len(chunk.Data))
		copy(clone, chunk.Data)
		zeroHeaderTail(clone)
		chunk.Data = clone
		mod.Instruments[i] = Instrument{Present: true, Chunk: chunk, Volume: volume}
	}

	return mod, nil
}

// zeroHeaderTail zeroes bytes [0..4) of the PCM slice, corresponding to
// original offsets [8..12) of the underlying Sound entry: the sample's
// own loop-length header, which an instrument clone must not inherit.
func zeroHeaderTail(pcm []byte) {
	for i := 0; i < 4 && i < len(pcm); i++ {
		pcm[i] = 0
	}
}
