package unpack

import (
	"encoding/binary"
	"errors"
	"testing"
)

// trailer builds the 12-byte tail (datasize, crc, chk) any packed blob
// must end with.
func trailer(datasize, crc, chk uint32) []byte {
	buf := make([]byte, 12)
	binary.BigEndian.PutUint32(buf[0:4], datasize)
	binary.BigEndian.PutUint32(buf[4:8], crc)
	binary.BigEndian.PutUint32(buf[8:12], chk)
	return buf
}

func TestUnpackEmptyWhenDatasizeZero(t *testing.T) {
	// datasize=0 means the decode loop never runs; crc must already be
	// zero once XORed with chk for the stream to be considered valid.
	data := trailer(0, 0, 0)

	out, err := Unpack(data, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("expected empty output, got %d bytes", len(out))
	}
}

func TestUnpackChecksumMismatch(t *testing.T) {
	// crc=1, chk=0 leaves a residual crc of 1 once datasize hits zero
	// without ever executing the loop.
	data := trailer(0, 1, 0)

	_, err := Unpack(data, nil)
	if !errors.Is(err, ErrChecksumMismatch) {
		t.Fatalf("expected ErrChecksumMismatch, got %v", err)
	}
}

func TestUnpackBogusBackrefEmitsZeros(t *testing.T) {
	// Hand-built bitstream: control bits 0,1 select the short
	// back-reference, whose 8-bit offset is 0 -- outside the (empty)
	// output. Bits are consumed LSB-first from the chunk register, so
	// 0x402 encodes [0, 1, 0x00 offset] with a guard bit on top.
	// datasize=2 and crc==chk leave a clean CRC, so the decoder must
	// survive the bogus offset and emit two zero bytes.
	data := make([]byte, 12)
	binary.BigEndian.PutUint32(data[0:4], 0x402) // chk
	binary.BigEndian.PutUint32(data[4:8], 0x402) // crc
	binary.BigEndian.PutUint32(data[8:12], 2)    // datasize

	out, err := Unpack(data, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 2 || out[0] != 0 || out[1] != 0 {
		t.Fatalf("output = % x, want two zero bytes", out)
	}
}

func TestUnpackTooSmall(t *testing.T) {
	_, err := Unpack([]byte{1, 2, 3}, nil)
	if err == nil {
		t.Fatal("expected error for undersized blob")
	}
}

func TestIsCompressed(t *testing.T) {
	cases := []struct {
		packed, size uint32
		want         bool
	}{
		{100, 100, false},
		{80, 100, true},
		{0, 0, false},
	}
	for _, c := range cases {
		if got := IsCompressed(c.packed, c.size); got != c.want {
			t.Errorf("IsCompressed(%d, %d) = %v, want %v", c.packed, c.size, got, c.want)
		}
	}
}
