package resource

import "fmt"

// SoundChunk is the decoded form of a Sound resource: PCM bytes plus
// looping bookkeeping, ready to hand to the mixer.
type SoundChunk struct {
	Data    []byte
	Len     int
	LoopPos int
	LoopLen int
}

// SoundChunk loads (if needed) and decodes the Sound entry at idx. The
// entry's first 8 bytes are two big-endian word counts; everything after
// is PCM.
func (m *Manager) SoundChunk(idx int) (SoundChunk, error) {
	if err := m.EnsureLoaded(idx); err != nil {
		return SoundChunk{}, err
	}
	entry := m.Entries[idx]
	if entry.Type != TypeSound {
		return SoundChunk{}, fmt.Errorf("%w: entry %d is not a sound resource", ErrBankCorrupt, idx)
	}
	return decodeSoundChunk(m.Memory[entry.BufPtr : entry.BufPtr+entry.Size])
}

func decodeSoundChunk(raw []byte) (SoundChunk, error) {
	if len(raw) < 8 {
		return SoundChunk{}, fmt.Errorf("%w: sound resource shorter than its header", ErrBankCorrupt)
	}
	lenWords := int(be16(raw[0:2]))
	loopLenWords := int(be16(raw[2:4]))

	chunk := SoundChunk{
		Len: lenWords * 2,
	}
	if loopLenWords > 0 {
		chunk.LoopPos = chunk.Len
		chunk.LoopLen = loopLenWords * 2
	}

	// Looping samples store their loop tail past len, so the PCM spans
	// len + loop_len bytes.
	dataLen := chunk.Len + chunk.LoopLen
	pcm := raw[8:]
	if dataLen > len(pcm) {
		return SoundChunk{}, fmt.Errorf("%w: sound resource PCM shorter than its declared length", ErrBankCorrupt)
	}
	chunk.Data = pcm[:dataLen]
	return chunk, nil
}
