package vm

import (
	"testing"

	"anotherworld/internal/host"
	"anotherworld/internal/mixer"
	"anotherworld/internal/resource"
	"anotherworld/internal/sfx"
	"anotherworld/internal/video"
)

func newTestVM(t *testing.T) (*VM, *resource.Manager) {
	t.Helper()
	mem := &resource.Manager{}
	mx := mixer.New(nil)
	vid := video.New(nil)
	sfxPlayer := sfx.New(mx, nil)
	v := New(mem, vid, mx, sfxPlayer, Options{Bypass: false}, nil)
	return v, mem
}

func writeBytecode(mem *resource.Manager, code []byte) {
	copy(mem.Memory[mem.SegBytecode:], code)
}

func TestMovConstAndPauseYields(t *testing.T) {
	v, mem := newTestVM(t)
	writeBytecode(mem, []byte{
		opMovConst, 0x05, 0x00, 0x2A, // V[5] = 42
		opPause,
	})
	v.Threads[0].PC = 0

	h := &host.FakeHost{}
	if err := v.hostFrame(h); err != nil {
		t.Fatalf("hostFrame: %v", err)
	}
	if v.Vars[5] != 42 {
		t.Fatalf("V[5] = %d, want 42", v.Vars[5])
	}
	if v.Threads[0].PC != 4 {
		t.Fatalf("thread 0 PC = %d, want 4 (resumed after pause)", v.Threads[0].PC)
	}
}

func TestCondJmpTakesBranchOnEquality(t *testing.T) {
	v, mem := newTestVM(t)
	// V[0] starts 0; compare V[0] == 0 (immediate byte operand), jump to
	// offset 8 which sets V[1] = 99; fall-through path (not taken) would
	// set V[1] = 1.
	writeBytecode(mem, []byte{
		opCondJmp, 0x00, 0x00, 0x00, 0x00, 0x0A, // op=eq(0), var=0, imm=0, target=10
		opMovConst, 0x01, 0x00, 0x01, // not reached
		opMovConst, 0x01, 0x00, 0x63, // offset 10: V[1] = 0x63 = 99
		opPause,
	})
	v.Threads[0].PC = 0

	if err := v.hostFrame(&host.FakeHost{}); err != nil {
		t.Fatalf("hostFrame: %v", err)
	}
	if v.Vars[1] != 99 {
		t.Fatalf("V[1] = %d, want 99 (branch should have been taken)", v.Vars[1])
	}
}

func TestCallAndRet(t *testing.T) {
	v, mem := newTestVM(t)
	writeBytecode(mem, []byte{
		opCall, 0x00, 0x08, // call sub at offset 8
		opMovConst, 0x02, 0x00, 0x07, // V[2] = 7, after return
		opPause,
		opMovConst, 0x03, 0x00, 0x09, // offset 8: sub: V[3] = 9
		opRet,
	})
	v.Threads[0].PC = 0

	if err := v.hostFrame(&host.FakeHost{}); err != nil {
		t.Fatalf("hostFrame: %v", err)
	}
	if v.Vars[3] != 9 || v.Vars[2] != 7 {
		t.Fatalf("V[2]=%d V[3]=%d, want 7 and 9", v.Vars[2], v.Vars[3])
	}
}

func TestRetUnderflowIsFatal(t *testing.T) {
	v, mem := newTestVM(t)
	writeBytecode(mem, []byte{opRet})
	v.Threads[0].PC = 0

	err := v.hostFrame(&host.FakeHost{})
	if err == nil {
		t.Fatalf("expected stack underflow error")
	}
}

func TestUnknownOpcodeIsFatal(t *testing.T) {
	v, mem := newTestVM(t)
	writeBytecode(mem, []byte{0x1B})
	v.Threads[0].PC = 0

	err := v.hostFrame(&host.FakeHost{})
	if err == nil {
		t.Fatalf("expected unknown opcode error")
	}
}

func TestKillThreadDeactivatesThread(t *testing.T) {
	v, mem := newTestVM(t)
	writeBytecode(mem, []byte{opKillThread})
	v.Threads[0].PC = 0

	if err := v.hostFrame(&host.FakeHost{}); err != nil {
		t.Fatalf("hostFrame: %v", err)
	}
	if v.Threads[0].PC != ThreadInactive {
		t.Fatalf("thread 0 should be inactive after KillThread")
	}
}

func TestResetThreadPauseAndDeactivate(t *testing.T) {
	v, _ := newTestVM(t)
	v.execResetThread(2, 4, 1) // pause threads 2..4
	for tid := 2; tid <= 4; tid++ {
		if !v.Threads[tid].PausedRequested {
			t.Fatalf("thread %d should have paused_requested set", tid)
		}
	}

	v.execResetThread(2, 4, 2) // request deactivation
	v.syncThreads()
	for tid := 2; tid <= 4; tid++ {
		if v.Threads[tid].PC != ThreadInactive {
			t.Fatalf("thread %d should be inactive after sync", tid)
		}
	}
}

func TestSetVectInstallsRequestedPCAtSyncPoint(t *testing.T) {
	v, _ := newTestVM(t)
	v.Threads[7].hasRequestedPC = true
	v.Threads[7].requestedPC = 0x1234
	v.syncThreads()
	if v.Threads[7].PC != 0x1234 {
		t.Fatalf("thread 7 PC = 0x%04x, want 0x1234", v.Threads[7].PC)
	}
}

func TestBlitFrameBufferPacesAgainstPauseSlices(t *testing.T) {
	v, mem := newTestVM(t)
	writeBytecode(mem, []byte{opBlit, 0x00})
	v.Threads[0].PC = 0
	v.Vars[VarPauseSlices] = 5 // 5*20ms = 100ms target

	h := &host.FakeHost{Millis: 0}
	if err := v.hostFrame(h); err != nil {
		t.Fatalf("hostFrame: %v", err)
	}
	if len(h.Slept) != 1 || h.Slept[0] != 100 {
		t.Fatalf("Slept = %v, want a single 100ms sleep", h.Slept)
	}
	if h.PresentCount != 1 {
		t.Fatalf("PresentCount = %d, want 1", h.PresentCount)
	}
}

func TestPlaySoundZeroVolumeStopsChannel(t *testing.T) {
	v, mem := newTestVM(t)
	mem.Entries = make([]resource.MemEntry, 1)
	mem.Entries[0] = resource.MemEntry{State: resource.StateLoaded, Type: resource.TypeSound, BufPtr: 0x1000, Size: 16}
	header := []byte{0x00, 0x04, 0x00, 0x00, 0, 0, 0, 0}
	copy(mem.Memory[0x1000:], header)
	v.Mixer.PlayChannel(0, mixer.Chunk{Data: make([]byte, 8), Len: 8}, 22050, 0x20)

	writeBytecode(mem, []byte{opPlaySound, 0x00, 0x00, 0x00, 0x00, 0x00, opPause})
	v.Threads[0].PC = 0
	if err := v.hostFrame(&host.FakeHost{}); err != nil {
		t.Fatalf("hostFrame: %v", err)
	}
	if v.Mixer.ChannelActive(0) {
		t.Fatalf("channel 0 should be stopped after PlaySound with vol=0")
	}
}

func TestApplyInputMapsDirectionsAndButton(t *testing.T) {
	v, _ := newTestVM(t)
	v.applyInput(host.InputState{Dir: host.DirRight | host.DirUp, Button: true})
	if v.Vars[VarHeroPosLeftRight] != 1 {
		t.Fatalf("left_right = %d, want 1", v.Vars[VarHeroPosLeftRight])
	}
	if v.Vars[VarHeroPosUpDown] != -1 {
		t.Fatalf("up_down = %d, want -1", v.Vars[VarHeroPosUpDown])
	}
	if v.Vars[VarHeroAction] != 1 {
		t.Fatalf("hero_action = %d, want 1", v.Vars[VarHeroAction])
	}
	wantMask := int16(host.DirRight | host.DirUp)
	if v.Vars[VarHeroPosMask] != wantMask {
		t.Fatalf("pos_mask = %d, want %d", v.Vars[VarHeroPosMask], wantMask)
	}
}

func TestApplyInputPasswordScreenCapturesLastKeychar(t *testing.T) {
	v, _ := newTestVM(t)
	v.CurrentPart = resource.PartIDLast
	v.applyInput(host.InputState{LastChar: 'Q'})
	if v.Vars[VarLastKeychar] != 'Q' {
		t.Fatalf("V[LAST_KEYCHAR] = %d, want 'Q' (0x%02x)", v.Vars[VarLastKeychar], byte('Q'))
	}
}

func TestFrameOutputIsDeterministic(t *testing.T) {
	run := func() []byte {
		v, mem := newTestVM(t)
		// Cinematic segment holds one leaf polygon at word offset 0.
		mem.SegCinematic = 0x4000
		leaf := []byte{0xC1, 20, 20, 4, 20, 0, 20, 20, 0, 20, 0, 0}
		copy(mem.Memory[mem.SegCinematic:], leaf)

		writeBytecode(mem, []byte{
			opSelectPage, 0x00,
			0x40, 0x00, 100, 100, // draw-poly-background at offset 0, (100,100)
			opBlit, 0x00, // present the draw page
		})
		v.Threads[0].PC = 0

		h := &host.FakeHost{}
		if err := v.hostFrame(h); err != nil {
			t.Fatalf("hostFrame: %v", err)
		}
		return h.LastFrame
	}

	first := run()
	second := run()
	drawn := 0
	for _, b := range first {
		if b != 0 {
			drawn++
		}
	}
	if drawn == 0 {
		t.Fatalf("expected the presented frame to contain the filled polygon")
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("frames diverged at pixel %d", i)
		}
	}
}

func TestInitialVariablesWithBypass(t *testing.T) {
	mem := &resource.Manager{}
	mx := mixer.New(nil)
	vid := video.New(nil)
	sfxPlayer := sfx.New(mx, nil)
	v := New(mem, vid, mx, sfxPlayer, Options{Bypass: true, Platform6000: false}, nil)

	if v.Vars[0x54] != 0x81 {
		t.Fatalf("V[0x54] = %d, want 0x81", v.Vars[0x54])
	}
	if v.Vars[0xBC] != 0x10 || v.Vars[0xC6] != 0x80 || v.Vars[0xDC] != 33 || v.Vars[0xF2] != 4000 {
		t.Fatalf("bypass variables not set as documented")
	}
}
