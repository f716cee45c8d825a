package script

import (
	"bytes"
	"testing"
)

func TestAssembleSimpleProgram(t *testing.T) {
	src := `
start:
	movc 5, 42
	pause
	ret
`
	res, err := AssembleSource(src, "test.asm")
	if err != nil {
		t.Fatalf("AssembleSource: %v", err)
	}
	want := []byte{opMovConst, 5, 0x00, 0x2A, opPause, opRet}
	if !bytes.Equal(res.Bytecode, want) {
		t.Fatalf("bytecode = % x, want % x", res.Bytecode, want)
	}
	if off, ok := res.Labels["START"]; !ok || off != 0 {
		t.Fatalf("label START = (%d, %v), want (0, true)", off, ok)
	}
}

func TestAssembleForwardLabelReference(t *testing.T) {
	src := `
	jmp target
	kill
target:
	ret
`
	res, err := AssembleSource(src, "test.asm")
	if err != nil {
		t.Fatalf("AssembleSource: %v", err)
	}
	// jmp (3 bytes) + kill (1 byte) = target at offset 4.
	want := []byte{opJmp, 0x00, 0x04, opKillThread, opRet}
	if !bytes.Equal(res.Bytecode, want) {
		t.Fatalf("bytecode = % x, want % x", res.Bytecode, want)
	}
}

func TestAssembleArithmeticAndBitwiseOps(t *testing.T) {
	src := `
	sub 2, 3
	and 4, 0x00FF
	or 4, 0x0100
	shl 5, 1
	shr 5, 2
`
	res, err := AssembleSource(src, "test.asm")
	if err != nil {
		t.Fatalf("AssembleSource: %v", err)
	}
	want := []byte{
		opSub, 2, 3,
		opAnd, 4, 0x00, 0xFF,
		opOr, 4, 0x01, 0x00,
		opShl, 5, 0x00, 0x01,
		opShr, 5, 0x00, 0x02,
	}
	if !bytes.Equal(res.Bytecode, want) {
		t.Fatalf("bytecode = % x, want % x", res.Bytecode, want)
	}
}

func TestCondJmpOperandWidthVariesByOpBits(t *testing.T) {
	// bit6 set (0x40 | eq=0 = 0x40): right-hand is a 2-byte immediate.
	src := `condjmp 0x40, 3, 1000, 20`
	res, err := AssembleSource(src, "test.asm")
	if err != nil {
		t.Fatalf("AssembleSource: %v", err)
	}
	if len(res.Bytecode) != 7 {
		t.Fatalf("len(bytecode) = %d, want 7 for a 2-byte-operand condjmp", len(res.Bytecode))
	}

	// plain byte-immediate form.
	src2 := `condjmp 0x00, 3, 5, 20`
	res2, err := AssembleSource(src2, "test.asm")
	if err != nil {
		t.Fatalf("AssembleSource: %v", err)
	}
	if len(res2.Bytecode) != 6 {
		t.Fatalf("len(bytecode) = %d, want 6 for a 1-byte-operand condjmp", len(res2.Bytecode))
	}
}

func TestDuplicateLabelIsAnError(t *testing.T) {
	src := `
a: ret
a: kill
`
	if _, err := AssembleSource(src, "test.asm"); err == nil {
		t.Fatalf("expected duplicate label error")
	}
}

func TestByteAndWordDirectives(t *testing.T) {
	src := `
.byte 1, 2, 3
.word 0x0102, 0x0304
`
	res, err := AssembleSource(src, "test.asm")
	if err != nil {
		t.Fatalf("AssembleSource: %v", err)
	}
	want := []byte{1, 2, 3, 0x01, 0x02, 0x03, 0x04}
	if !bytes.Equal(res.Bytecode, want) {
		t.Fatalf("bytecode = % x, want % x", res.Bytecode, want)
	}
}
