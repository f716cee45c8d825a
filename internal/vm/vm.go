// Package vm implements the bytecode interpreter: 256 variables, 64
// cooperative threads, the opcode dispatch table, and the per-host-frame
// scheduler that ties the Resource Manager, Video, Mixer, and Sfx Player
// together.
package vm

import (
	"errors"
	"fmt"
	"math/rand"

	"anotherworld/internal/debug"
	"anotherworld/internal/host"
	"anotherworld/internal/mixer"
	"anotherworld/internal/resource"
	"anotherworld/internal/sfx"
	"anotherworld/internal/video"
)

const (
	NumVars    = 256
	NumThreads = 64
	MaxStack   = 255

	// ThreadInactive is the pc value marking a thread with nothing to run.
	ThreadInactive = 0xFFFF

	// deactivateSentinel is the requested_pc value meaning "deactivate
	// this thread at the next frame boundary".
	deactivateSentinel = 0xFFFE

	pauseSliceMillis = 20
)

// Named variable indices, matching the original interpreter's layout.
const (
	VarRandomSeed        = 0x3C
	VarLastKeychar       = 0xDA
	VarHeroPosUpDown     = 0xE5
	VarMusMark           = 0xF4
	VarScrollY           = 0xF9
	VarHeroAction        = 0xFA
	VarHeroPosJumpDown   = 0xFB
	VarHeroPosLeftRight  = 0xFC
	VarHeroPosMask       = 0xFD
	VarHeroActionPosMask = 0xFE
	VarPauseSlices       = 0xFF
)

var (
	ErrStackOverflow  = errors.New("vm: stack overflow")
	ErrStackUnderflow = errors.New("vm: stack underflow")
	ErrUnknownOpcode  = errors.New("vm: unknown opcode")
	ErrInvalidPart    = resource.ErrInvalidPart
)

// frequencyTable is FREQUENCE_TABLE from the original sound engine,
// indexed by PlaySound's freq_idx operand.
var frequencyTable = [...]uint16{
	0x0CFF, 0x0DC3, 0x0E91, 0x0F6F, 0x1056, 0x114E, 0x1259, 0x136C,
	0x149F, 0x15D9, 0x1726, 0x1888, 0x19FD, 0x1B86, 0x1D21, 0x1EDE,
	0x20AB, 0x229C, 0x24B3, 0x26D7, 0x293F, 0x2BB2, 0x2E4C, 0x3110,
	0x33FB, 0x370D, 0x3A43, 0x3DDF, 0x4157, 0x4538, 0x4998, 0x4DAE,
	0x5240, 0x5764, 0x5C9A, 0x61C8, 0x6793, 0x6E19, 0x7485, 0x7BBD,
}

// Thread is one of the VM's 64 cooperative program counters.
type Thread struct {
	PC              uint16
	PausedCurrent   bool
	PausedRequested bool
	hasRequestedPC  bool
	requestedPC     uint16
}

// VM is the bytecode interpreter, wired to the quartet of components it
// drives.
type VM struct {
	Vars    [NumVars]int16
	Threads [NumThreads]Thread

	stack    [MaxStack]uint16
	stackPtr int

	scriptPtr uint32

	CurrentPart   uint16
	pendingPart   *uint16
	lastPart      uint16
	firstPartSeen bool

	lastBlitMillis uint64
	BlitCount      int

	Mem   *resource.Manager
	Video *video.Video
	Mixer *mixer.Mixer
	Sfx   *sfx.Player

	quit bool

	logger *debug.Logger
}

// Options configures initial-variable setup.
type Options struct {
	Bypass       bool
	Platform6000 bool // true selects the Amiga/Atari 6000 pause-slices constant, false the PC 4000
}

// New constructs a VM wired to the given components and applies the
// documented initial-variable setup.
func New(mem *resource.Manager, vid *video.Video, mix *mixer.Mixer, sfxPlayer *sfx.Player, opts Options, logger *debug.Logger) *VM {
	v := &VM{
		Mem:    mem,
		Video:  vid,
		Mixer:  mix,
		Sfx:    sfxPlayer,
		logger: logger,
	}
	for i := range v.Threads {
		v.Threads[i].PC = ThreadInactive
	}

	v.Vars[0x54] = 0x81
	v.Vars[VarRandomSeed] = int16(rand.Int31())

	if opts.Bypass {
		v.Vars[0xBC] = 0x10
		v.Vars[0xC6] = 0x80
		v.Vars[0xDC] = 33
		if opts.Platform6000 {
			v.Vars[0xF2] = 6000
		} else {
			v.Vars[0xF2] = 4000
		}
	}

	return v
}

func (v *VM) logf(level debug.LogLevel, format string, args ...interface{}) {
	if v.logger != nil {
		v.logger.LogVMf(level, format, args...)
	}
}

// RequestPartSwitch records a part change to be performed at the next
// frame boundary, the UpdateMemList(id >= 0x3E80) path.
func (v *VM) RequestPartSwitch(partID uint16) {
	id := partID
	v.pendingPart = &id
}

// performPartSwitch loads the part's resources, stops all audio, and
// resets every thread so only thread 0 runs, starting at pc 0.
func (v *VM) performPartSwitch(partID uint16) error {
	if err := v.Mem.SetupPart(partID); err != nil {
		return err
	}
	v.Mixer.StopAll()
	v.Sfx.Stop()

	for i := range v.Threads {
		v.Threads[i].PC = ThreadInactive
		v.Threads[i].PausedCurrent = false
		v.Threads[i].PausedRequested = false
		v.Threads[i].hasRequestedPC = false
	}
	v.Threads[0].PC = 0

	v.lastPart = v.CurrentPart
	v.CurrentPart = partID
	v.firstPartSeen = true

	v.Vars[0xE4] = 0x14
	v.logf(debug.LogLevelInfo, "switched to part 0x%04x", partID)
	return nil
}

// Run drives the VM's host-frame loop until the host requests quit or a
// fatal error occurs.
func (v *VM) Run(h host.Host) error {
	for !v.quit {
		if err := v.hostFrame(h); err != nil {
			return err
		}
		input := h.PollInput()
		v.applyInput(input)
		if input.Quit {
			v.quit = true
		}
	}
	return nil
}

// hostFrame performs one pass of the thread scheduler: part-switch
// application, the requested->current sync point, then one opcode burst
// per active, unpaused thread.
func (v *VM) hostFrame(h host.Host) error {
	if v.pendingPart != nil {
		partID := *v.pendingPart
		v.pendingPart = nil
		if err := v.performPartSwitch(partID); err != nil {
			return err
		}
	}

	v.syncThreads()

	for tid := 0; tid < NumThreads; tid++ {
		th := &v.Threads[tid]
		if th.PausedCurrent || th.PC == ThreadInactive {
			continue
		}

		v.scriptPtr = v.Mem.SegBytecode + uint32(th.PC)
		v.stackPtr = 0
		yield := false

		for !yield {
			var err error
			yield, err = v.step(h, tid)
			if err != nil {
				return fmt.Errorf("vm: thread %d: %w", tid, err)
			}
		}

		if th.PC != ThreadInactive {
			th.PC = uint16(v.scriptPtr - v.Mem.SegBytecode)
		}
	}

	return nil
}

// syncThreads copies paused_requested -> paused_current and applies any
// pending requested_pc, the frame-boundary synchronization point.
func (v *VM) syncThreads() {
	for i := range v.Threads {
		th := &v.Threads[i]
		th.PausedCurrent = th.PausedRequested
		if th.hasRequestedPC {
			if th.requestedPC == deactivateSentinel {
				th.PC = ThreadInactive
			} else {
				th.PC = th.requestedPC
			}
			th.hasRequestedPC = false
		}
	}
}

// applyInput maps one frame's polled input onto the hero-control
// variables and the password-screen/cheat-code variables.
func (v *VM) applyInput(in host.InputState) {
	upDown := int16(0)
	if in.Dir&host.DirUp != 0 {
		upDown = -1
	} else if in.Dir&host.DirDown != 0 {
		upDown = 1
	}
	v.Vars[VarHeroPosUpDown] = upDown
	v.Vars[VarHeroPosJumpDown] = upDown

	leftRight := int16(0)
	if in.Dir&host.DirLeft != 0 {
		leftRight = -1
	} else if in.Dir&host.DirRight != 0 {
		leftRight = 1
	}
	v.Vars[VarHeroPosLeftRight] = leftRight

	mask := in.Dir
	v.Vars[VarHeroPosMask] = int16(mask)

	action := int16(0)
	actionMask := int16(mask)
	if in.Button {
		action = 1
		actionMask |= 0x80
	}
	v.Vars[VarHeroAction] = action
	v.Vars[VarHeroActionPosMask] = actionMask

	if v.onPasswordScreen() {
		switch {
		case in.LastChar == '\b':
			v.Vars[VarLastKeychar] = '\b'
		case in.LastChar >= 'A' && in.LastChar <= 'Z':
			v.Vars[VarLastKeychar] = int16(in.LastChar)
		case in.LastChar == 0:
			v.Vars[VarLastKeychar] = 0
		}
	}

	if in.Code && v.firstPartSeen {
		if v.CurrentPart != resource.PartIDFirst && v.CurrentPart != resource.PartIDLast {
			v.RequestPartSwitch(resource.PartIDLast)
		}
	}
}

// onPasswordScreen reports whether the current part is the password/code
// entry screen, the last logical part id.
func (v *VM) onPasswordScreen() bool {
	return v.CurrentPart == resource.PartIDLast
}

// Snapshot is a point-in-time, best-effort copy of VM state for tooling
// (cmd/inspector) to display; it is read without synchronization the
// same way the teacher's register/memory viewer panels read live
// emulator state, so a torn read is possible but harmless for display.
type Snapshot struct {
	Vars        [NumVars]int16
	Threads     [NumThreads]Thread
	CurrentPart uint16
	BlitCount   int
}

// Snapshot returns a copy of the VM's variables, threads, current part,
// and blit counter.
func (v *VM) Snapshot() Snapshot {
	return Snapshot{
		Vars:        v.Vars,
		Threads:     v.Threads,
		CurrentPart: v.CurrentPart,
		BlitCount:   v.BlitCount,
	}
}
