package video

import "anotherworld/internal/debug"

// fontFirstChar and fontGlyphCount bound the embedded font's coverage:
// printable ASCII, the same 96-glyph range the original ROM font covers.
const (
	fontFirstChar  = 0x20
	fontGlyphCount = 96
	glyphSize      = 8
)

// font holds one 8x8 bitmap per glyph for ASCII 0x20..0x7F, row-major,
// MSB-first per row. The shapes are an original redraw, not the shipped
// game's font data; no game assets are bundled with this engine.
var font = [fontGlyphCount][glyphSize]byte{
	{0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}, // 0x20 ' '
	{0x18, 0x18, 0x18, 0x18, 0x18, 0x00, 0x18, 0x00}, // 0x21 '!'
	{0x66, 0x66, 0x24, 0x00, 0x00, 0x00, 0x00, 0x00}, // 0x22 '"'
	{0x36, 0x36, 0x7F, 0x36, 0x7F, 0x36, 0x36, 0x00}, // 0x23 '#'
	{0x18, 0x3E, 0x60, 0x3C, 0x06, 0x7C, 0x18, 0x00}, // 0x24 '$'
	{0x62, 0x64, 0x08, 0x10, 0x26, 0x46, 0x00, 0x00}, // 0x25 '%'
	{0x3C, 0x66, 0x3C, 0x38, 0x67, 0x66, 0x3F, 0x00}, // 0x26 '&'
	{0x18, 0x18, 0x30, 0x00, 0x00, 0x00, 0x00, 0x00}, // 0x27 '\''
	{0x0C, 0x18, 0x30, 0x30, 0x30, 0x18, 0x0C, 0x00}, // 0x28 '('
	{0x30, 0x18, 0x0C, 0x0C, 0x0C, 0x18, 0x30, 0x00}, // 0x29 ')'
	{0x00, 0x66, 0x3C, 0xFF, 0x3C, 0x66, 0x00, 0x00}, // 0x2A '*'
	{0x00, 0x18, 0x18, 0x7E, 0x18, 0x18, 0x00, 0x00}, // 0x2B '+'
	{0x00, 0x00, 0x00, 0x00, 0x00, 0x18, 0x18, 0x30}, // 0x2C ','
	{0x00, 0x00, 0x00, 0x7E, 0x00, 0x00, 0x00, 0x00}, // 0x2D '-'
	{0x00, 0x00, 0x00, 0x00, 0x00, 0x18, 0x18, 0x00}, // 0x2E '.'
	{0x02, 0x06, 0x0C, 0x18, 0x30, 0x60, 0x40, 0x00}, // 0x2F '/'
	{0x3C, 0x66, 0x6E, 0x76, 0x66, 0x66, 0x3C, 0x00}, // 0x30 '0'
	{0x18, 0x38, 0x18, 0x18, 0x18, 0x18, 0x7E, 0x00}, // 0x31 '1'
	{0x3C, 0x66, 0x06, 0x0C, 0x18, 0x30, 0x7E, 0x00}, // 0x32 '2'
	{0x3C, 0x66, 0x06, 0x1C, 0x06, 0x66, 0x3C, 0x00}, // 0x33 '3'
	{0x0C, 0x1C, 0x2C, 0x4C, 0x7E, 0x0C, 0x0C, 0x00}, // 0x34 '4'
	{0x7E, 0x60, 0x7C, 0x06, 0x06, 0x66, 0x3C, 0x00}, // 0x35 '5'
	{0x3C, 0x66, 0x60, 0x7C, 0x66, 0x66, 0x3C, 0x00}, // 0x36 '6'
	{0x7E, 0x06, 0x0C, 0x18, 0x30, 0x30, 0x30, 0x00}, // 0x37 '7'
	{0x3C, 0x66, 0x66, 0x3C, 0x66, 0x66, 0x3C, 0x00}, // 0x38 '8'
	{0x3C, 0x66, 0x66, 0x3E, 0x06, 0x66, 0x3C, 0x00}, // 0x39 '9'
	{0x00, 0x18, 0x18, 0x00, 0x18, 0x18, 0x00, 0x00}, // 0x3A ':'
	{0x00, 0x18, 0x18, 0x00, 0x18, 0x18, 0x30, 0x00}, // 0x3B ';'
	{0x0E, 0x18, 0x30, 0x60, 0x30, 0x18, 0x0E, 0x00}, // 0x3C '<'
	{0x00, 0x00, 0x7E, 0x00, 0x7E, 0x00, 0x00, 0x00}, // 0x3D '='
	{0x70, 0x18, 0x0C, 0x06, 0x0C, 0x18, 0x70, 0x00}, // 0x3E '>'
	{0x3C, 0x66, 0x06, 0x0C, 0x18, 0x00, 0x18, 0x00}, // 0x3F '?'
	{0x3C, 0x66, 0x6E, 0x6A, 0x6E, 0x60, 0x3C, 0x00}, // 0x40 '@'
	{0x18, 0x3C, 0x66, 0x66, 0x7E, 0x66, 0x66, 0x00}, // 0x41 'A'
	{0x7C, 0x66, 0x66, 0x7C, 0x66, 0x66, 0x7C, 0x00}, // 0x42 'B'
	{0x3C, 0x66, 0x60, 0x60, 0x60, 0x66, 0x3C, 0x00}, // 0x43 'C'
	{0x78, 0x6C, 0x66, 0x66, 0x66, 0x6C, 0x78, 0x00}, // 0x44 'D'
	{0x7E, 0x60, 0x60, 0x7C, 0x60, 0x60, 0x7E, 0x00}, // 0x45 'E'
	{0x7E, 0x60, 0x60, 0x7C, 0x60, 0x60, 0x60, 0x00}, // 0x46 'F'
	{0x3C, 0x66, 0x60, 0x6E, 0x66, 0x66, 0x3C, 0x00}, // 0x47 'G'
	{0x66, 0x66, 0x66, 0x7E, 0x66, 0x66, 0x66, 0x00}, // 0x48 'H'
	{0x3C, 0x18, 0x18, 0x18, 0x18, 0x18, 0x3C, 0x00}, // 0x49 'I'
	{0x1E, 0x0C, 0x0C, 0x0C, 0x0C, 0x6C, 0x38, 0x00}, // 0x4A 'J'
	{0x66, 0x6C, 0x78, 0x70, 0x78, 0x6C, 0x66, 0x00}, // 0x4B 'K'
	{0x60, 0x60, 0x60, 0x60, 0x60, 0x60, 0x7E, 0x00}, // 0x4C 'L'
	{0x63, 0x77, 0x7F, 0x6B, 0x63, 0x63, 0x63, 0x00}, // 0x4D 'M'
	{0x66, 0x76, 0x7E, 0x7E, 0x6E, 0x66, 0x66, 0x00}, // 0x4E 'N'
	{0x3C, 0x66, 0x66, 0x66, 0x66, 0x66, 0x3C, 0x00}, // 0x4F 'O'
	{0x7C, 0x66, 0x66, 0x7C, 0x60, 0x60, 0x60, 0x00}, // 0x50 'P'
	{0x3C, 0x66, 0x66, 0x66, 0x6A, 0x6C, 0x36, 0x00}, // 0x51 'Q'
	{0x7C, 0x66, 0x66, 0x7C, 0x6C, 0x66, 0x66, 0x00}, // 0x52 'R'
	{0x3C, 0x66, 0x60, 0x3C, 0x06, 0x66, 0x3C, 0x00}, // 0x53 'S'
	{0x7E, 0x18, 0x18, 0x18, 0x18, 0x18, 0x18, 0x00}, // 0x54 'T'
	{0x66, 0x66, 0x66, 0x66, 0x66, 0x66, 0x3C, 0x00}, // 0x55 'U'
	{0x66, 0x66, 0x66, 0x66, 0x66, 0x3C, 0x18, 0x00}, // 0x56 'V'
	{0x63, 0x63, 0x63, 0x6B, 0x7F, 0x77, 0x63, 0x00}, // 0x57 'W'
	{0x66, 0x66, 0x3C, 0x18, 0x3C, 0x66, 0x66, 0x00}, // 0x58 'X'
	{0x66, 0x66, 0x66, 0x3C, 0x18, 0x18, 0x18, 0x00}, // 0x59 'Y'
	{0x7E, 0x06, 0x0C, 0x18, 0x30, 0x60, 0x7E, 0x00}, // 0x5A 'Z'
	{0x3C, 0x30, 0x30, 0x30, 0x30, 0x30, 0x3C, 0x00}, // 0x5B '['
	{0x40, 0x60, 0x30, 0x18, 0x0C, 0x06, 0x02, 0x00}, // 0x5C '\\'
	{0x3C, 0x0C, 0x0C, 0x0C, 0x0C, 0x0C, 0x3C, 0x00}, // 0x5D ']'
	{0x18, 0x3C, 0x66, 0x00, 0x00, 0x00, 0x00, 0x00}, // 0x5E '^'
	{0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x7E}, // 0x5F '_'
	{0x30, 0x18, 0x0C, 0x00, 0x00, 0x00, 0x00, 0x00}, // 0x60 '`'
	{0x00, 0x00, 0x3C, 0x06, 0x3E, 0x66, 0x3E, 0x00}, // 0x61 'a'
	{0x60, 0x60, 0x7C, 0x66, 0x66, 0x66, 0x7C, 0x00}, // 0x62 'b'
	{0x00, 0x00, 0x3C, 0x66, 0x60, 0x66, 0x3C, 0x00}, // 0x63 'c'
	{0x06, 0x06, 0x3E, 0x66, 0x66, 0x66, 0x3E, 0x00}, // 0x64 'd'
	{0x00, 0x00, 0x3C, 0x66, 0x7E, 0x60, 0x3C, 0x00}, // 0x65 'e'
	{0x1C, 0x30, 0x7C, 0x30, 0x30, 0x30, 0x30, 0x00}, // 0x66 'f'
	{0x00, 0x00, 0x3E, 0x66, 0x66, 0x3E, 0x06, 0x3C}, // 0x67 'g'
	{0x60, 0x60, 0x7C, 0x66, 0x66, 0x66, 0x66, 0x00}, // 0x68 'h'
	{0x18, 0x00, 0x38, 0x18, 0x18, 0x18, 0x3C, 0x00}, // 0x69 'i'
	{0x0C, 0x00, 0x1C, 0x0C, 0x0C, 0x0C, 0x6C, 0x38}, // 0x6A 'j'
	{0x60, 0x60, 0x66, 0x6C, 0x78, 0x6C, 0x66, 0x00}, // 0x6B 'k'
	{0x38, 0x18, 0x18, 0x18, 0x18, 0x18, 0x3C, 0x00}, // 0x6C 'l'
	{0x00, 0x00, 0x76, 0x7F, 0x6B, 0x6B, 0x63, 0x00}, // 0x6D 'm'
	{0x00, 0x00, 0x7C, 0x66, 0x66, 0x66, 0x66, 0x00}, // 0x6E 'n'
	{0x00, 0x00, 0x3C, 0x66, 0x66, 0x66, 0x3C, 0x00}, // 0x6F 'o'
	{0x00, 0x00, 0x7C, 0x66, 0x66, 0x7C, 0x60, 0x60}, // 0x70 'p'
	{0x00, 0x00, 0x3E, 0x66, 0x66, 0x3E, 0x06, 0x06}, // 0x71 'q'
	{0x00, 0x00, 0x6C, 0x76, 0x60, 0x60, 0x60, 0x00}, // 0x72 'r'
	{0x00, 0x00, 0x3E, 0x60, 0x3C, 0x06, 0x7C, 0x00}, // 0x73 's'
	{0x30, 0x30, 0x7C, 0x30, 0x30, 0x30, 0x1C, 0x00}, // 0x74 't'
	{0x00, 0x00, 0x66, 0x66, 0x66, 0x66, 0x3E, 0x00}, // 0x75 'u'
	{0x00, 0x00, 0x66, 0x66, 0x66, 0x3C, 0x18, 0x00}, // 0x76 'v'
	{0x00, 0x00, 0x63, 0x6B, 0x6B, 0x7F, 0x36, 0x00}, // 0x77 'w'
	{0x00, 0x00, 0x66, 0x3C, 0x18, 0x3C, 0x66, 0x00}, // 0x78 'x'
	{0x00, 0x00, 0x66, 0x66, 0x66, 0x3E, 0x06, 0x3C}, // 0x79 'y'
	{0x00, 0x00, 0x7E, 0x0C, 0x18, 0x30, 0x7E, 0x00}, // 0x7A 'z'
	{0x0E, 0x18, 0x18, 0x70, 0x18, 0x18, 0x0E, 0x00}, // 0x7B '{'
	{0x18, 0x18, 0x18, 0x18, 0x18, 0x18, 0x18, 0x00}, // 0x7C '|'
	{0x70, 0x18, 0x18, 0x0E, 0x18, 0x18, 0x70, 0x00}, // 0x7D '}'
	{0x31, 0x6B, 0x46, 0x00, 0x00, 0x00, 0x00, 0x00}, // 0x7E '~'
	{0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}, // 0x7F
}

// DrawString renders stringID (looked up in the English string table)
// into ptr1, wrapping on '\n', each 8x8 glyph scaled by scale in both
// axes. x is in 8-pixel character columns, y in pixel rows, matching the
// opcode's operand units.
func (v *Video) DrawString(color uint8, x, y int16, stringID uint16, scale uint8) {
	text, ok := stringTable[stringID]
	if !ok {
		v.logf(debug.LogLevelWarning, "draw_string: unknown string id 0x%04x", stringID)
		return
	}
	if scale == 0 {
		scale = 1
	}

	col, row := x, y
	for _, ch := range []byte(text) {
		if ch == '\n' {
			col = x
			row += glyphSize
			continue
		}
		v.drawGlyph(color, col, row, ch, scale)
		col++
	}
}

// drawGlyph draws one 8x8 glyph at character column col, pixel row row.
// Glyphs past column 39 or row 192 are dropped whole rather than
// clipped.
func (v *Video) drawGlyph(color uint8, col, row int16, ch byte, scale uint8) {
	if col < 0 || col > 39 || row < 0 || row > 192 {
		return
	}
	idx := int(ch) - fontFirstChar
	if idx < 0 || idx >= fontGlyphCount {
		return
	}
	glyph := font[idx]
	x0 := int16(int(col) * glyphSize * int(scale))
	y0 := int16(int(row) * int(scale))
	for gy := 0; gy < glyphSize; gy++ {
		bits := glyph[gy]
		for gx := 0; gx < glyphSize; gx++ {
			if bits&(0x80>>uint(gx)) == 0 {
				continue
			}
			px0 := x0 + int16(gx)*int16(scale)
			py0 := y0 + int16(gy)*int16(scale)
			for sy := uint8(0); sy < scale; sy++ {
				for sx := uint8(0); sx < scale; sx++ {
					v.drawPoint(px0+int16(sx), py0+int16(sy), color)
				}
			}
		}
	}
}
