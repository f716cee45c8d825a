// Package video implements the paletted polygon rasterizer: four 320x200
// pages, palette staging, and the draw operations the VM's opcode
// handlers delegate to (fills, page copies/flips, string and polygon
// drawing).
package video

import (
	"fmt"

	"anotherworld/internal/debug"
)

// Width and Height are the rasterizer's logical resolution. The host may
// present an integer-scaled framebuffer, but polygon math always happens
// at this resolution.
const (
	Width  = 320
	Height = 200
)

// Color is one palette entry.
type Color struct {
	R, G, B, A uint8
}

// Page ids 0xFE and 0xFF are indirections onto ptr2/ptr3 rather than
// direct page indices; anything else out of 0..3 resolves to page 0.
const (
	PageFrontBuffer = 0xFE
	PageSpare       = 0xFF
)

// Point is a screen-space coordinate used by polygon drawing.
type Point struct {
	X, Y int16
}

// Video owns the four paletted pages and the current/staged palettes.
// Pages are addressed indirectly through Ptr1 (render target), Ptr2
// (front buffer) and Ptr3 (spare); opcode page ids 0-3 select a page
// directly, 0xFE/0xFF alias ptr2/ptr3.
type Video struct {
	Pages [4][]byte

	Ptr1 int
	Ptr2 int
	Ptr3 int

	Palette       [16]Color
	stagedPalette *[16]Color

	logger *debug.Logger
}

// New allocates four blank pages and sets the default page indirection
// (render to and present from page 2, spare page 1), mirroring the
// original interpreter's startup state.
func New(logger *debug.Logger) *Video {
	v := &Video{Ptr1: 2, Ptr2: 2, Ptr3: 1, logger: logger}
	for i := range v.Pages {
		v.Pages[i] = make([]byte, Width*Height)
	}
	return v
}

func (v *Video) logf(level debug.LogLevel, format string, args ...interface{}) {
	if v.logger != nil {
		v.logger.LogVideof(level, format, args...)
	}
}

// resolvePage maps an opcode page id to a concrete page index: 0-3
// select directly, 0xFE -> ptr2, 0xFF -> ptr3, anything else logs and
// resolves to page 0.
func (v *Video) resolvePage(id uint8) int {
	switch {
	case id <= 3:
		return int(id)
	case id == PageFrontBuffer:
		return v.Ptr2
	case id == PageSpare:
		return v.Ptr3
	default:
		v.logf(debug.LogLevelWarning, "unknown page id 0x%02x, resolving to page 0", id)
		return 0
	}
}

// FillPage fills every byte of the resolved page with color.
func (v *Video) FillPage(pageID uint8, color uint8) {
	page := v.Pages[v.resolvePage(pageID)]
	for i := range page {
		page[i] = color
	}
}

// SelectDrawPage sets ptr1, the page subsequent draw operations target.
func (v *Video) SelectDrawPage(pageID uint8) {
	v.Ptr1 = v.resolvePage(pageID)
}

// CopyPage copies a full page into another. Bit 7 of srcID selects the
// vertically-scrolled path (bit 6 is masked off before the page id
// resolves); a scroll whose magnitude reaches Height copies nothing.
func (v *Video) CopyPage(srcID, dstID uint8, vscroll int) {
	if srcID == dstID {
		return
	}

	if srcID >= 0xFE || srcID&0x80 == 0 {
		if srcID < 0xFE {
			srcID &= 0xBF
		}
		src := v.Pages[v.resolvePage(srcID)]
		dst := v.Pages[v.resolvePage(dstID)]
		copy(dst, src)
		return
	}

	src := v.Pages[srcID&3]
	dst := v.Pages[v.resolvePage(dstID)]
	if vscroll <= -Height || vscroll >= Height {
		v.logf(debug.LogLevelWarning, "copy_page: dropping out-of-range scroll %d", vscroll)
		return
	}
	for y := 0; y < Height; y++ {
		sy := y - vscroll
		if sy < 0 || sy >= Height {
			continue
		}
		copy(dst[y*Width:(y+1)*Width], src[sy*Width:(sy+1)*Width])
	}
}

// StagePalette expands the 32 raw palette bytes (16 entries, 2 bytes
// each) into RGBA and holds it for application at the next Blit.
func (v *Video) StagePalette(raw []byte) {
	if len(raw) < 32 {
		v.logf(debug.LogLevelError, "stage_palette: short palette data (%d bytes)", len(raw))
		return
	}
	var pal [16]Color
	for i := 0; i < 16; i++ {
		hi := raw[i*2]
		lo := raw[i*2+1]
		r := expand4(hi & 0x0F)
		g := expand4((lo & 0xF0) >> 4)
		b := expand4(lo & 0x0F)
		pal[i] = Color{R: r, G: g, B: b, A: 0xFF}
	}
	v.stagedPalette = &pal
}

// expand4 widens a 4-bit nibble into an 8-bit channel via the
// ((x<<2)|(x>>2))<<2 expansion the original palette loader uses.
func expand4(n uint8) uint8 {
	x := n
	return (((x << 2) | (x >> 2)) << 2)
}

// Blit is the present step: resolve the front-buffer indirection (0xFF
// swaps ptr2/ptr3, any other id except 0xFE repoints ptr2), apply any
// staged palette exactly once, then hand the resolved page to host.
func (v *Video) Blit(pageID uint8, host Presenter) error {
	switch {
	case pageID == PageSpare:
		v.Ptr2, v.Ptr3 = v.Ptr3, v.Ptr2
	case pageID != PageFrontBuffer:
		v.Ptr2 = v.resolvePage(pageID)
	}

	if v.stagedPalette != nil {
		v.Palette = *v.stagedPalette
		v.stagedPalette = nil
		if host != nil {
			host.SetPalette(v.Palette)
		}
	}

	if host == nil {
		return nil
	}
	if err := host.Present(v.Pages[v.Ptr2], Width, Height); err != nil {
		return fmt.Errorf("video: blit: %w", err)
	}
	return nil
}

// Presenter is the narrow slice of the host abstraction Video needs at
// blit time: applying a staged palette and presenting a resolved page.
type Presenter interface {
	SetPalette(colors [16]Color)
	Present(frame []byte, width, height int) error
}

// CopyPageBuffer overwrites page 0 with a pre-expanded planar bitmap, the
// path PolyAnim backgrounds take once the resource manager has decoded
// their platform-specific planar layout.
func (v *Video) CopyPageBuffer(raw []byte) {
	n := copy(v.Pages[0], raw)
	if n < len(v.Pages[0]) {
		v.logf(debug.LogLevelWarning, "copy_page_buffer: short raw frame (%d of %d bytes)", n, len(v.Pages[0]))
	}
}

// drawPoint writes the color byte raw; only scanline fills dispatch the
// blend and copy-from-page-0 modes.
func (v *Video) drawPoint(x, y int16, color uint8) {
	if x < 0 || x >= Width || y < 0 || y >= Height {
		return
	}
	v.Pages[v.Ptr1][int(y)*Width+int(x)] = color
}

func (v *Video) setPixel(page, x, y int, color uint8) {
	idx := y*Width + x
	switch {
	case color <= 0x0F:
		v.Pages[page][idx] = color
	case color == 0x10:
		d := v.Pages[page][idx]
		v.Pages[page][idx] = (d & 0x77) | 0x08
	default:
		v.Pages[page][idx] = v.Pages[0][idx]
	}
}
