package resource

import (
	"fmt"
	"os"
	"path/filepath"

	"anotherworld/internal/debug"
	"anotherworld/internal/platform"
)

// recordSize is the on-disk width of one MEMLIST entry.
const recordSize = 20

// entryTerminator is the state byte marking the end of the MEMLIST table.
const entryTerminator = 0xff

// embeddedScanRun is the number of consecutive 0xff bytes that flags the
// start of the embedded MEMLIST table inside an Amiga/Atari ST
// executable, and embeddedScanBack the distance back from that run to
// the table's actual start.
const (
	embeddedScanRun  = 20
	embeddedScanBack = 2939
)

// ReadMemList locates and parses the MEMLIST table for m's asset
// directory and platform, populating m.Entries.
func (m *Manager) ReadMemList() error {
	var raw []byte
	var err error

	switch m.Platform {
	case platform.PC:
		raw, err = os.ReadFile(filepath.Join(m.AssetDir, "Memlist.bin"))
		if err != nil {
			return fmt.Errorf("%w: %v", ErrAssetNotFound, err)
		}
	default:
		exeName := platform.ExecutableName(m.Platform)
		full, rerr := os.ReadFile(filepath.Join(m.AssetDir, exeName))
		if rerr != nil {
			return fmt.Errorf("%w: %v", ErrAssetNotFound, rerr)
		}
		start, ferr := findEmbeddedMemList(full)
		if ferr != nil {
			return ferr
		}
		raw = full[start:]
	}

	entries, err := parseMemListTable(raw)
	if err != nil {
		return err
	}
	m.Entries = entries
	m.logf(debug.LogLevelInfo, "loaded %d memlist entries (%s)", len(entries), m.Platform)
	return nil
}

// findEmbeddedMemList scans exe for a run of embeddedScanRun consecutive
// 0xff bytes, the marker the Amiga and Atari ST executables carry past
// the end of the embedded MEMLIST table, and returns the offset of the
// table's first record: embeddedScanBack bytes before the byte that
// completes the run.
func findEmbeddedMemList(exe []byte) (int, error) {
	run := 0
	for i, b := range exe {
		if b == 0xff {
			run++
			if run == embeddedScanRun {
				start := i - embeddedScanBack
				if start < 0 {
					return 0, fmt.Errorf("%w: embedded memlist marker too close to start of file", ErrMemlistCorrupt)
				}
				return start, nil
			}
		} else {
			run = 0
		}
	}
	return 0, fmt.Errorf("%w: no embedded memlist marker found", ErrMemlistCorrupt)
}

// parseMemListTable decodes sequential 20-byte records from raw until the
// terminator record is hit.
func parseMemListTable(raw []byte) ([]MemEntry, error) {
	var entries []MemEntry
	for off := 0; ; off += recordSize {
		if off+recordSize > len(raw) {
			return nil, fmt.Errorf("%w: table runs past end of buffer", ErrMemlistCorrupt)
		}
		rec := raw[off : off+recordSize]
		if rec[0] == entryTerminator {
			entries = append(entries, MemEntry{State: StateEndOfMemList})
			return entries, nil
		}
		entries = append(entries, decodeRecord(rec))
	}
}

// decodeRecord parses one 20-byte MEMLIST record:
//
//	state(1) type(1) bufPtr(2) unk0(2) rank(1) bankID(1) bankOffset(4)
//	unk1(2) packedSize(2) unk2(2) size(2)
func decodeRecord(rec []byte) MemEntry {
	rawType := rec[1]
	return MemEntry{
		State:      State(rec[0]),
		Type:       decodeType(rawType),
		RawType:    rawType,
		Rank:       rec[6],
		BankID:     rec[7],
		BankOffset: be32(rec[8:12]),
		PackedSize: be16(rec[14:16]),
		Size:       be16(rec[18:20]),
	}
}

func decodeType(raw uint8) Type {
	switch raw {
	case 0:
		return TypeSound
	case 1:
		return TypeMusic
	case 2:
		return TypePolyAnim
	case 3:
		return TypePalette
	case 4:
		return TypeBytecode
	case 5:
		return TypePolyCinematic
	default:
		return TypeUnknown
	}
}

func be16(b []byte) uint32 {
	return uint32(b[0])<<8 | uint32(b[1])
}

func be32(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}
