// Package resource implements the asset loader: MEMLIST parsing, bank
// decompression, and the fixed 600 KiB memory arena that backs every
// other component's view of game data.
package resource

import (
	"errors"
	"fmt"
	"sort"

	"anotherworld/internal/debug"
	"anotherworld/internal/platform"
)

// Arena layout. The PolyAnim region sits at a fixed offset near the top
// of the arena and is overwritten in place; it never participates in the
// growing script_cur_ptr allocation.
const (
	ArenaSize    = 600 * 1024
	VidRegion    = 16 * 2048
	VidBakOffset = ArenaSize - VidRegion
)

// Type identifies what a MemEntry's bytes decode to.
type Type int

const (
	TypeSound Type = iota
	TypeMusic
	TypePolyAnim
	TypePalette
	TypeBytecode
	TypePolyCinematic
	TypeUnknown
)

// State is a MemEntry's position in its NotNeeded/LoadMe/Loaded lifecycle.
type State int

const (
	StateNotNeeded State = iota
	StateLoaded
	StateLoadMe
	StateEndOfMemList
)

// MemEntry describes one resource listed in MEMLIST.
type MemEntry struct {
	State      State
	Type       Type
	RawType    uint8
	BufPtr     uint32
	Rank       uint8
	BankID     uint8
	BankOffset uint32
	PackedSize uint32
	Size       uint32
}

// Part names the four resources (palette, bytecode, cinematic, optional
// secondary video segment) needed to run one chapter of the game.
type Part struct {
	Palette int
	Code    int
	Video1  int
	Video2  int // -1 when absent
}

// Parts is indexed 0..9 and corresponds to logical part ids
// PartIDFirst..PartIDLast.
var Parts = [10]Part{
	{0x14, 0x15, 0x16, -1},
	{0x17, 0x18, 0x19, -1},
	{0x1A, 0x1B, 0x1C, 0x11},
	{0x1D, 0x1E, 0x1F, 0x11},
	{0x20, 0x21, 0x22, 0x11},
	{0x23, 0x24, 0x25, -1},
	{0x26, 0x27, 0x28, 0x11},
	{0x29, 0x2A, 0x2B, 0x11},
	{0x7D, 0x7E, 0x7F, -1},
	{0x7D, 0x7E, 0x7F, -1},
}

const (
	PartIDFirst = 0x3e80
	PartIDLast  = 0x3e89
)

var (
	ErrAssetNotFound  = errors.New("resource: asset not found")
	ErrAssetIO        = errors.New("resource: asset io error")
	ErrMemlistCorrupt = errors.New("resource: memlist corrupt")
	ErrBankCorrupt    = errors.New("resource: bank corrupt")
	ErrOutOfArena     = errors.New("resource: arena exhausted")
	ErrInvalidPart    = errors.New("resource: invalid part id")
)

// Manager owns the memory arena and the MEMLIST-derived entry table. It
// is the sole owner of resource bytes; Video and the VM borrow slices of
// Memory but never mutate them during execution.
type Manager struct {
	Memory [ArenaSize]byte

	Entries []MemEntry

	ScriptCurPtr uint32
	ScriptBakPtr uint32
	VidCurPtr    uint32

	SegPalettes  uint32
	SegBytecode  uint32
	SegCinematic uint32
	SegVideo2    uint32

	CurrentPart int

	AssetDir string
	Platform platform.Platform

	pendingPolyAnim    bool
	pendingPolyAnimLen uint32

	logger *debug.Logger
}

// TakePendingPolyAnim returns the raw bytes of the most recently loaded
// PolyAnim background and clears the copy_vid_ptr flag loadEntry set,
// for the VM to decode via DecodeVideoPage and push to Video exactly
// once per load.
func (m *Manager) TakePendingPolyAnim() ([]byte, bool) {
	if !m.pendingPolyAnim {
		return nil, false
	}
	m.pendingPolyAnim = false
	return m.Memory[m.VidCurPtr : m.VidCurPtr+m.pendingPolyAnimLen], true
}

// New creates a Manager rooted at assetDir, auto-detecting the release.
func New(assetDir string, logger *debug.Logger) *Manager {
	return &Manager{
		AssetDir:  assetDir,
		Platform:  platform.Detect(assetDir),
		VidCurPtr: VidBakOffset,
		logger:    logger,
	}
}

func (m *Manager) logf(level debug.LogLevel, format string, args ...interface{}) {
	if m.logger != nil {
		m.logger.LogResourcef(level, format, args...)
	}
}

// ReadByte reads one byte from the arena at offset.
func (m *Manager) ReadByte(offset uint32) byte {
	return m.Memory[offset]
}

// ReadWord reads a big-endian 16-bit value from the arena at offset.
func (m *Manager) ReadWord(offset uint32) uint16 {
	return uint16(m.Memory[offset])<<8 | uint16(m.Memory[offset+1])
}

// resetAllEntries marks every entry NotNeeded and rewinds the script
// cursor, the first step of setting up a new part.
func (m *Manager) resetAllEntries() {
	for i := range m.Entries {
		if m.Entries[i].State != StateEndOfMemList {
			m.Entries[i].State = StateNotNeeded
		}
	}
	m.ScriptCurPtr = 0
}

// SetupPart performs the five-step part-switch sequence described in the
// resource manager design: reset, mark-needed, load-in-rank-order,
// record segments, snapshot the rollback cursor.
func (m *Manager) SetupPart(partID uint16) error {
	if int(partID) == m.CurrentPart {
		return nil
	}
	if partID < PartIDFirst || partID > PartIDLast {
		return fmt.Errorf("%w: 0x%04x", ErrInvalidPart, partID)
	}
	part := Parts[partID-PartIDFirst]

	m.resetAllEntries()

	m.markLoadMe(part.Palette)
	m.markLoadMe(part.Code)
	m.markLoadMe(part.Video1)
	if part.Video2 >= 0 {
		m.markLoadMe(part.Video2)
	}

	if err := m.loadMarkedAsNeeded(); err != nil {
		return err
	}

	m.SegPalettes = m.Entries[part.Palette].BufPtr
	m.SegBytecode = m.Entries[part.Code].BufPtr
	m.SegCinematic = m.Entries[part.Video1].BufPtr
	if part.Video2 >= 0 {
		m.SegVideo2 = m.Entries[part.Video2].BufPtr
	}

	m.ScriptBakPtr = m.ScriptCurPtr
	m.CurrentPart = int(partID)
	return nil
}

func (m *Manager) markLoadMe(idx int) {
	if idx < 0 || idx >= len(m.Entries) {
		return
	}
	if m.Entries[idx].State == StateNotNeeded {
		m.Entries[idx].State = StateLoadMe
	}
}

// loadMarkedAsNeeded loads every LoadMe entry in descending rank order,
// preferring the higher MEMLIST index on ties. This is the canonical
// resolution of the resource manager's documented rank-ordering
// ambiguity: a single comparator encodes "rank descending, index
// descending" directly rather than relying on sort stability.
func (m *Manager) loadMarkedAsNeeded() error {
	var pending []int
	for i, e := range m.Entries {
		if e.State == StateLoadMe {
			pending = append(pending, i)
		}
	}

	sort.Slice(pending, func(a, b int) bool {
		ia, ib := pending[a], pending[b]
		ra, rb := m.Entries[ia].Rank, m.Entries[ib].Rank
		if ra != rb {
			return ra > rb
		}
		return ia > ib
	})

	for _, idx := range pending {
		if m.Entries[idx].State != StateLoadMe {
			continue
		}
		if err := m.loadEntry(idx); err != nil {
			// Arena exhaustion is recoverable: the entry is dropped and
			// loading continues. Corrupt banks and missing assets abort.
			if errors.Is(err, ErrOutOfArena) {
				m.Entries[idx].State = StateNotNeeded
				m.logf(debug.LogLevelWarning, "entry %d skipped: %v", idx, err)
				continue
			}
			return err
		}
	}
	return nil
}

// InvalidateResources implements UpdateMemList(0): transient PolyAnim and
// Unknown entries are flushed and the script cursor rewound, but
// palettes/bytecode/sounds/music loaded for the current part stay put.
func (m *Manager) InvalidateResources() {
	for i := range m.Entries {
		if m.Entries[i].Type == TypePolyAnim || m.Entries[i].Type == TypeUnknown {
			m.Entries[i].State = StateNotNeeded
		}
	}
	m.ScriptCurPtr = m.ScriptBakPtr
}

// EnsureLoaded loads a single MEMLIST entry on demand (sounds, music,
// and in-game polygon resources requested mid-part by UpdateMemList).
func (m *Manager) EnsureLoaded(idx int) error {
	if idx < 0 || idx >= len(m.Entries) {
		return fmt.Errorf("%w: index %d", ErrMemlistCorrupt, idx)
	}
	if m.Entries[idx].State == StateLoaded {
		return nil
	}
	m.Entries[idx].State = StateLoadMe
	return m.loadEntry(idx)
}

// Entry returns a copy of the entry at idx for callers that only need to
// inspect its bank bookkeeping (used by the sound/music extractors).
func (m *Manager) Entry(idx int) MemEntry {
	return m.Entries[idx]
}
