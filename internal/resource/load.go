package resource

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"anotherworld/internal/debug"
	"anotherworld/internal/platform"
	"anotherworld/internal/unpack"
)

// loadEntry reads entry idx's bytes from its bank file, decompressing if
// needed, and places them in the arena: PolyAnim entries overwrite the
// fixed video region in place, everything else is appended at
// script_cur_ptr.
func (m *Manager) loadEntry(idx int) error {
	entry := &m.Entries[idx]

	if entry.BankID == 0 {
		entry.State = StateNotNeeded
		m.logf(debug.LogLevelWarning, "entry %d has no bank, skipping", idx)
		return nil
	}

	raw, err := m.readBank(entry)
	if err != nil {
		return err
	}

	if entry.Type == TypePolyAnim {
		m.VidCurPtr = VidBakOffset
		n := copy(m.Memory[m.VidCurPtr:], raw)
		if n < len(raw) {
			return fmt.Errorf("%w: polyanim entry %d exceeds video region", ErrOutOfArena, idx)
		}
		// The video region gets overwritten by the next background, so
		// the entry drops straight back to NotNeeded and reloads on the
		// next request.
		entry.BufPtr = m.VidCurPtr
		entry.State = StateNotNeeded
		m.pendingPolyAnim = true
		m.pendingPolyAnimLen = uint32(len(raw))
	} else {
		dest := m.ScriptCurPtr
		if dest+uint32(len(raw)) > VidBakOffset {
			return fmt.Errorf("%w: entry %d at 0x%x would overrun video region", ErrOutOfArena, idx, dest)
		}
		n := copy(m.Memory[dest:], raw)
		entry.BufPtr = dest
		entry.State = StateLoaded
		m.ScriptCurPtr += uint32(n)
	}

	m.logf(debug.LogLevelDebug, "loaded entry %d (type=%v bank=%d size=%d) at 0x%x", idx, entry.Type, entry.BankID, len(raw), entry.BufPtr)
	return nil
}

// readBank opens entry's bank file, seeks to its offset, and returns its
// decompressed bytes.
func (m *Manager) readBank(entry *MemEntry) ([]byte, error) {
	name := platform.BankFilename(m.Platform, entry.BankID)
	f, err := os.Open(filepath.Join(m.AssetDir, name))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAssetNotFound, err)
	}
	defer f.Close()

	if _, err := f.Seek(int64(entry.BankOffset), 0); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAssetIO, err)
	}

	packed := make([]byte, entry.PackedSize)
	if _, err := io.ReadFull(f, packed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAssetIO, err)
	}

	if !unpack.IsCompressed(entry.PackedSize, entry.Size) {
		return packed, nil
	}

	out, err := unpack.Unpack(packed, m.logger)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBankCorrupt, err)
	}
	return out, nil
}
