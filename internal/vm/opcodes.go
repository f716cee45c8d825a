package vm

import (
	"fmt"

	"anotherworld/internal/debug"
	"anotherworld/internal/host"
	"anotherworld/internal/mixer"
	"anotherworld/internal/resource"
)

// Named opcode values, matching the original interpreter's dispatch
// table for the low 27 codes; 0x40..0x7F and 0x80..0xFF are claimed by
// the draw-poly-background/draw-poly-sprite range encoding instead.
const (
	opMovConst      = 0x00
	opMov           = 0x01
	opAdd           = 0x02
	opAddConst      = 0x03
	opCall          = 0x04
	opRet           = 0x05
	opPause         = 0x06
	opJmp           = 0x07
	opSetVect       = 0x08
	opJnz           = 0x09
	opCondJmp       = 0x0A
	opSetPal        = 0x0B
	opResetThread   = 0x0C
	opSelectPage    = 0x0D
	opFillPage      = 0x0E
	opCopyPage      = 0x0F
	opBlit          = 0x10
	opKillThread    = 0x11
	opDrawString    = 0x12
	opSub           = 0x13
	opAnd           = 0x14
	opOr            = 0x15
	opShl           = 0x16
	opShr           = 0x17
	opPlaySound     = 0x18
	opUpdateMemList = 0x19
	opPlayMusic     = 0x1A
)

// step executes one opcode of the currently scheduled thread and reports
// whether it yielded control back to the scheduler.
func (v *VM) step(h host.Host, tid int) (bool, error) {
	if mark, ok := v.Sfx.TakeMark(); ok {
		v.Vars[VarMusMark] = int16(mark)
	}

	opcode := v.fetchByte()

	switch {
	case opcode&0x80 != 0:
		v.drawPolySprite(opcode & 0x7F)
		return false, nil
	case opcode&0x40 != 0:
		v.drawPolyBackground(opcode)
		return false, nil
	}

	switch opcode {
	case opMovConst:
		idx := v.fetchByte()
		v.Vars[idx] = int16(v.fetchWord())

	case opMov:
		dv := v.fetchByte()
		sv := v.fetchByte()
		v.Vars[dv] = v.Vars[sv]

	case opAdd:
		dv := v.fetchByte()
		sv := v.fetchByte()
		v.Vars[dv] += v.Vars[sv]

	case opAddConst:
		idx := v.fetchByte()
		v.Vars[idx] += int16(v.fetchWord())

	case opCall:
		target := v.fetchWord()
		ret := uint16(v.scriptPtr - v.Mem.SegBytecode)
		if err := v.push(ret); err != nil {
			return false, err
		}
		v.scriptPtr = v.Mem.SegBytecode + uint32(target)

	case opRet:
		ret, err := v.pop()
		if err != nil {
			return false, err
		}
		v.scriptPtr = v.Mem.SegBytecode + uint32(ret)

	case opPause:
		return true, nil

	case opJmp:
		target := v.fetchWord()
		v.scriptPtr = v.Mem.SegBytecode + uint32(target)

	case opSetVect:
		id := v.fetchByte()
		target := v.fetchWord()
		if int(id) < NumThreads {
			v.Threads[id].hasRequestedPC = true
			v.Threads[id].requestedPC = target
		}

	case opJnz:
		idx := v.fetchByte()
		target := v.fetchWord()
		v.Vars[idx]--
		if v.Vars[idx] != 0 {
			v.scriptPtr = v.Mem.SegBytecode + uint32(target)
		}

	case opCondJmp:
		v.execCondJmp()

	case opSetPal:
		word := v.fetchWord()
		v.stagePalette(word)

	case opResetThread:
		from := v.fetchByte()
		to := v.fetchByte()
		mode := v.fetchByte()
		v.execResetThread(from, to, mode)

	case opSelectPage:
		id := v.fetchByte()
		v.Video.SelectDrawPage(id)

	case opFillPage:
		id := v.fetchByte()
		color := v.fetchByte()
		v.Video.FillPage(id, color)

	case opCopyPage:
		src := v.fetchByte()
		dst := v.fetchByte()
		v.Video.CopyPage(src, dst, int(v.Vars[VarScrollY]))

	case opBlit:
		page := v.fetchByte()
		v.execBlit(h, page)
		return true, nil

	case opKillThread:
		v.Threads[tid].PC = ThreadInactive
		return true, nil

	case opDrawString:
		stringID := v.fetchWord()
		x := v.fetchByte()
		y := v.fetchByte()
		color := v.fetchByte()
		v.Video.DrawString(color, int16(x), int16(y), stringID, 1)

	case opSub:
		dv := v.fetchByte()
		sv := v.fetchByte()
		v.Vars[dv] -= v.Vars[sv]

	case opAnd:
		idx := v.fetchByte()
		mask := v.fetchWord()
		v.Vars[idx] = int16(uint16(v.Vars[idx]) & mask)

	case opOr:
		idx := v.fetchByte()
		mask := v.fetchWord()
		v.Vars[idx] = int16(uint16(v.Vars[idx]) | mask)

	case opShl:
		idx := v.fetchByte()
		n := v.fetchWord()
		v.Vars[idx] = int16(uint16(v.Vars[idx]) << n)

	case opShr:
		idx := v.fetchByte()
		n := v.fetchWord()
		v.Vars[idx] = int16(uint16(v.Vars[idx]) >> n)

	case opPlaySound:
		v.execPlaySound()

	case opUpdateMemList:
		v.execUpdateMemList()

	case opPlayMusic:
		v.execPlayMusic()

	default:
		return false, fmt.Errorf("%w: 0x%02x", ErrUnknownOpcode, opcode)
	}

	return false, nil
}

// execCondJmp decodes and, if the comparison holds, takes the branch
// target, per the left-hand-variable/right-hand-operand encoding in the
// opcode byte's high bits.
func (v *VM) execCondJmp() {
	opcode := v.fetchByte()
	b := v.Vars[v.fetchByte()]

	var a int16
	switch {
	case opcode&0x80 != 0:
		a = v.Vars[v.fetchByte()]
	case opcode&0x40 != 0:
		a = int16(v.fetchWord())
	default:
		a = int16(v.fetchByte())
	}

	target := v.fetchWord()

	var take bool
	switch opcode & 7 {
	case 0:
		take = b == a
	case 1:
		take = b != a
	case 2:
		take = b > a
	case 3:
		take = b >= a
	case 4:
		take = b < a
	case 5:
		take = b <= a
	default:
		v.logf(debug.LogLevelWarning, "condjmp: disabled comparison mode %d", opcode&7)
		take = false
	}

	if take {
		v.scriptPtr = v.Mem.SegBytecode + uint32(target)
	}
}

// execResetThread applies mode 0/1 (unpause/pause) or mode 2 (request
// deactivation) to threads [from, to] inclusive.
func (v *VM) execResetThread(from, to, mode uint8) {
	if to < from {
		return
	}
	for tid := int(from); tid <= int(to) && tid < NumThreads; tid++ {
		switch mode {
		case 0:
			v.Threads[tid].PausedRequested = false
		case 1:
			v.Threads[tid].PausedRequested = true
		case 2:
			v.Threads[tid].hasRequestedPC = true
			v.Threads[tid].requestedPC = deactivateSentinel
		}
	}
}

func (v *VM) stagePalette(word uint16) {
	paletteID := uint8(word >> 8)
	if paletteID >= 32 {
		return
	}
	off := v.Mem.SegPalettes + uint32(paletteID)*32
	v.Video.StagePalette(v.Mem.Memory[off : off+32])
}

func (v *VM) execBlit(h host.Host, page uint8) {
	target := uint64(v.Vars[VarPauseSlices]) * pauseSliceMillis
	now := h.NowMillis()
	elapsed := now - v.lastBlitMillis
	if target > elapsed {
		h.Sleep(target - elapsed)
	}
	v.lastBlitMillis = h.NowMillis()
	v.Vars[0xF7] = 0

	if err := v.Video.Blit(page, h); err != nil {
		v.logf(debug.LogLevelError, "blit: %v", err)
	}
	v.BlitCount++
}

func (v *VM) execPlaySound() {
	id := v.fetchWord()
	freqIdx := v.fetchByte()
	vol := v.fetchByte()
	ch := v.fetchByte()

	if vol == 0 {
		v.Mixer.StopChannel(int(ch))
		return
	}

	chunk, err := v.Mem.SoundChunk(int(id))
	if err != nil {
		v.logf(debug.LogLevelWarning, "play_sound: resource %d unavailable: %v", id, err)
		return
	}

	idx := int(freqIdx)
	if idx >= len(frequencyTable) {
		v.logf(debug.LogLevelWarning, "play_sound: frequency index %d out of range", idx)
		idx = len(frequencyTable) - 1
	}
	freq := int(frequencyTable[idx])
	v.Mixer.PlayChannel(int(ch), mixer.Chunk{
		Data:    chunk.Data,
		Len:     chunk.Len,
		LoopPos: chunk.LoopPos,
		LoopLen: chunk.LoopLen,
	}, freq, vol)
}

func (v *VM) execPlayMusic() {
	id := v.fetchWord()
	delay := v.fetchWord()
	pos := v.fetchByte()

	switch {
	case id != 0:
		mod, err := v.Mem.MusicModule(int(id))
		if err != nil {
			v.logf(debug.LogLevelWarning, "play_music: resource %d unavailable: %v", id, err)
			return
		}
		v.Sfx.Start(mod, int(delay), int(pos))
	case delay != 0:
		v.Sfx.Retune(int(delay))
	default:
		v.Sfx.Stop()
	}
}

func (v *VM) execUpdateMemList() {
	id := v.fetchWord()

	switch {
	case id == 0:
		v.Mem.InvalidateResources()
		v.Mixer.StopAll()
		v.Sfx.Stop()
	case id >= resource.PartIDFirst && id <= resource.PartIDLast:
		v.RequestPartSwitch(id)
	default:
		if err := v.Mem.EnsureLoaded(int(id)); err != nil {
			v.logf(debug.LogLevelWarning, "update_memlist: entry %d: %v", id, err)
			return
		}
		if raw, ok := v.Mem.TakePendingPolyAnim(); ok {
			v.Video.CopyPageBuffer(v.Mem.DecodeVideoPage(raw))
		}
	}
}

func (v *VM) segCinematic() []byte {
	return v.Mem.Memory[v.Mem.SegCinematic:]
}

func (v *VM) segVideo2() []byte {
	return v.Mem.Memory[v.Mem.SegVideo2:]
}
