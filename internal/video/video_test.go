package video

import "testing"

type fakeHost struct {
	palette [16]Color
	frame   []byte
	w, h    int
}

func (f *fakeHost) SetPalette(colors [16]Color) { f.palette = colors }
func (f *fakeHost) Present(frame []byte, width, height int) error {
	f.frame = append([]byte(nil), frame...)
	f.w, f.h = width, height
	return nil
}

func TestFillPageAndSelectDrawPage(t *testing.T) {
	v := New(nil)
	v.FillPage(0, 7)
	for i, b := range v.Pages[0] {
		if b != 7 {
			t.Fatalf("page 0 byte %d = %d, want 7", i, b)
		}
	}
	v.SelectDrawPage(2)
	if v.Ptr1 != 2 {
		t.Fatalf("ptr1 = %d, want 2", v.Ptr1)
	}
}

func TestResolvePageAliases(t *testing.T) {
	v := New(nil)
	v.Ptr2, v.Ptr3 = 1, 2
	if got := v.resolvePage(PageFrontBuffer); got != 1 {
		t.Fatalf("0xFE resolved to %d, want ptr2=1", got)
	}
	if got := v.resolvePage(PageSpare); got != 2 {
		t.Fatalf("0xFF resolved to %d, want ptr3=2", got)
	}
	if got := v.resolvePage(0x55); got != 0 {
		t.Fatalf("unknown page id resolved to %d, want 0", got)
	}
}

func TestCopyPageNoScroll(t *testing.T) {
	v := New(nil)
	v.FillPage(0, 9)
	v.CopyPage(0, 1, 0)
	for i, b := range v.Pages[1] {
		if b != 9 {
			t.Fatalf("page 1 byte %d = %d, want 9", i, b)
		}
	}
}

func TestCopyPageScrolledPath(t *testing.T) {
	v := New(nil)
	v.FillPage(1, 9)
	// Bit 7 of the source id selects the scrolled copy; src resolves to
	// page id&3 = 1.
	v.CopyPage(0x81, 0, 10)
	if v.Pages[0][5*Width] != 0 {
		t.Fatalf("row 5 should be untouched by a +10 scroll")
	}
	if v.Pages[0][15*Width] != 9 {
		t.Fatalf("row 15 should hold scrolled source pixels")
	}
}

func TestCopyPageSamePageIsNoOp(t *testing.T) {
	v := New(nil)
	v.FillPage(0, 3)
	v.CopyPage(0, 0, 0)
	if v.Pages[0][0] != 3 {
		t.Fatalf("copying a page onto itself should leave it unchanged")
	}
}

func TestDrawStringPositionsByColumn(t *testing.T) {
	v := New(nil)
	v.SelectDrawPage(0)
	v.DrawString(5, 2, 40, 0x00C9, 1) // "ENTER PASSWORD" at column 2, row 40
	colStart := 2 * 8
	found := false
	for y := 40; y < 48 && !found; y++ {
		for x := colStart; x < colStart+8; x++ {
			if v.Pages[0][y*Width+x] == 5 {
				found = true
				break
			}
		}
	}
	if !found {
		t.Fatalf("expected glyph pixels in the first character cell at column 2")
	}
}

func TestBlitSwapsSpareAndAppliesPalette(t *testing.T) {
	v := New(nil)
	v.Ptr2, v.Ptr3 = 1, 2
	v.Pages[2][0] = 5
	v.StagePalette(make([]byte, 32))

	host := &fakeHost{}
	if err := v.Blit(PageSpare, host); err != nil {
		t.Fatalf("blit: %v", err)
	}
	if v.Ptr2 != 2 || v.Ptr3 != 1 {
		t.Fatalf("ptr2/ptr3 after spare blit = %d/%d, want 2/1", v.Ptr2, v.Ptr3)
	}
	if host.w != Width || host.h != Height {
		t.Fatalf("presented dims = %dx%d, want %dx%d", host.w, host.h, Width, Height)
	}
	if v.stagedPalette != nil {
		t.Fatalf("staged palette should be consumed after one blit")
	}
}

func TestExpand4Palette(t *testing.T) {
	v := New(nil)
	raw := make([]byte, 32)
	raw[0] = 0x0F // entry 0 red nibble = 0xF
	v.StagePalette(raw)
	v.Blit(0, nil)
	if v.Palette[0].R == 0 {
		t.Fatalf("expected non-zero red channel after expansion, got %+v", v.Palette[0])
	}
}
