// Package unpack implements the backward bitstream codec used to
// decompress "packed" resource bank blobs.
package unpack

import (
	"encoding/binary"
	"errors"
	"fmt"

	"anotherworld/internal/debug"
)

// ErrChecksumMismatch is returned when the final CRC register is non-zero
// after a full decode pass.
var ErrChecksumMismatch = errors.New("unpack: checksum mismatch")

// IsCompressed reports whether a bank entry is stored packed, per the
// resource manager's size-comparison rule: equal sizes mean raw bytes.
func IsCompressed(packedSize, size uint32) bool {
	return packedSize != size
}

// Unpack decodes a packed blob produced by the original bank compressor.
// The algorithm consumes the input back-to-front: three trailing 32-bit
// big-endian words give the uncompressed size, a running CRC, and the
// initial bit-chunk register. Output bytes are produced in reverse order
// and flipped once decoding completes.
func Unpack(data []byte, logger *debug.Logger) ([]byte, error) {
	u := &unpacker{data: data, logger: logger}
	return u.run()
}

type unpacker struct {
	data   []byte
	logger *debug.Logger

	i        int
	size     uint32
	datasize uint32
	crc      uint32
	chk      uint32
	output   []byte
}

// readReverseBE32 reads a big-endian uint32 at the current cursor and
// steps the cursor back by 4 — except when the cursor already sits below
// 4, in which case it is left in place and the same leading word is read
// again. That repeated final read is intentional: the decoder's last
// refill depends on it to terminate cleanly rather than walking off the
// front of the buffer.
func (u *unpacker) readReverseBE32() uint32 {
	result := binary.BigEndian.Uint32(u.data[u.i:])
	if u.i >= 4 {
		u.i -= 4
	}
	return result
}

func (u *unpacker) nextChunk() bool {
	cf := u.rcr(false)
	if u.chk == 0 {
		u.chk = u.readReverseBE32()
		u.crc ^= u.chk
		cf = u.rcr(true)
	}
	return cf
}

func (u *unpacker) rcr(carryIn bool) bool {
	carryOut := u.chk&1 != 0
	u.chk >>= 1
	if carryIn {
		u.chk |= 0x80000000
	}
	return carryOut
}

func (u *unpacker) getCode(numChunks uint32) uint32 {
	var c uint32
	for ; numChunks > 0; numChunks-- {
		c <<= 1
		if u.nextChunk() {
			c |= 1
		}
	}
	return c
}

// decLiteralRun reads a numChunks-bit count (plus addCount, plus one) of
// raw 8-bit codes and appends them to the (reversed) output.
func (u *unpacker) decLiteralRun(numChunks, addCount uint32) {
	count := u.getCode(numChunks) + addCount + 1
	u.consume(count)
	for ; count > 0; count-- {
		u.output = append(u.output, byte(u.getCode(8)))
	}
}

// decBackref reads a numChunks-bit back-reference offset and copies
// size+1 bytes from output[len-offset:] onto the end of output. An
// offset outside the produced output can only come from a corrupt
// stream; zero bytes are emitted so datasize accounting stays intact and
// the final CRC check reports the corruption.
func (u *unpacker) decBackref(numChunks uint32) {
	offset := int(u.getCode(numChunks))
	count := u.size + 1
	u.consume(count)
	bogus := offset <= 0 || offset > len(u.output)
	if bogus && u.logger != nil {
		u.logger.LogUnpack(debug.LogLevelWarning, fmt.Sprintf("back-reference offset %d outside output (%d bytes)", offset, len(u.output)), nil)
	}
	for ; count > 0; count-- {
		if bogus {
			u.output = append(u.output, 0)
			continue
		}
		u.output = append(u.output, u.output[len(u.output)-offset])
	}
}

// consume decrements the remaining-output counter without letting a
// corrupt stream's oversized run wrap it around.
func (u *unpacker) consume(count uint32) {
	if count >= u.datasize {
		u.datasize = 0
		return
	}
	u.datasize -= count
}

func (u *unpacker) run() ([]byte, error) {
	if len(u.data) < 12 {
		return nil, fmt.Errorf("unpack: blob too small (%d bytes)", len(u.data))
	}

	u.i = len(u.data) - 4
	u.datasize = u.readReverseBE32()
	u.crc = u.readReverseBE32()
	u.chk = u.readReverseBE32()
	u.crc ^= u.chk

	for u.datasize > 0 {
		if !u.nextChunk() {
			u.size = 1
			if !u.nextChunk() {
				u.decLiteralRun(3, 0)
			} else {
				u.decBackref(8)
			}
			continue
		}

		c := u.getCode(2)
		switch {
		case c == 3:
			u.decLiteralRun(8, 8)
		case c < 2:
			u.size = c + 2
			u.decBackref(c + 9)
		default:
			u.size = u.getCode(8)
			u.decBackref(12)
		}
	}

	if u.crc != 0 {
		if u.logger != nil {
			u.logger.LogUnpack(debug.LogLevelError, fmt.Sprintf("crc mismatch: 0x%08x", u.crc), nil)
		}
		return nil, fmt.Errorf("%w: residual crc 0x%08x", ErrChecksumMismatch, u.crc)
	}

	reverse(u.output)
	return u.output, nil
}

func reverse(b []byte) {
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
}
