package video

import "anotherworld/internal/debug"

// PolyReader is a value-type cursor over one polygon-data segment
// (cinematic or video2). Its position is public so the hierarchy walker
// can save/restore it around a recursive seek without threading mutable
// borrowed state through the call stack.
type PolyReader struct {
	Data []byte
	Pos  int
}

func NewPolyReader(data []byte, pos int) *PolyReader {
	return &PolyReader{Data: data, Pos: pos}
}

func (r *PolyReader) u8() uint8 {
	if r.Pos >= len(r.Data) {
		return 0
	}
	b := r.Data[r.Pos]
	r.Pos++
	return b
}

func (r *PolyReader) u16() uint16 {
	hi := uint16(r.u8())
	lo := uint16(r.u8())
	return hi<<8 | lo
}

// scaleUnsigned applies the zoom/64 scale to an unsigned byte (polygon
// vertex coordinates and bounding-box dimensions).
func scaleUnsigned(v uint8, zoom uint16) int16 {
	return int16(int32(v) * int32(zoom) / 64)
}

// scaleSigned applies the zoom/64 scale to a signed byte (hierarchy
// origin and child-position deltas).
func scaleSigned(v uint8, zoom uint16) int16 {
	return int16(int32(int8(v)) * int32(zoom) / 64)
}

const maxPolyPoints = 50

// ReadAndDraw decodes one polygon command at cursor's current position
// into Ptr1, recursing through hierarchy nodes as needed. color carries
// the "override allowed" bit 7 convention: when set, a leaf command's own
// embedded color (i & 0x3F) replaces it; when clear, color is used
// verbatim as the fill color for that leaf.
func (v *Video) ReadAndDraw(cursor *PolyReader, color uint8, zoom uint16, origin Point) {
	i := cursor.u8()

	if i >= 0xC0 {
		if color&0x80 != 0 {
			color = i & 0x3F
		}
		v.readAndFillLeaf(cursor, color, zoom, origin)
		return
	}

	if i&0x3F != 2 {
		v.logf(debug.LogLevelWarning, "poly: unexpected opcode byte 0x%02x at offset %d", i, cursor.Pos-1)
		return
	}
	v.readAndDrawHierarchy(cursor, color, zoom, origin)
}

func (v *Video) readAndDrawHierarchy(cursor *PolyReader, color uint8, zoom uint16, origin Point) {
	origin.X -= scaleSigned(cursor.u8(), zoom)
	origin.Y -= scaleSigned(cursor.u8(), zoom)

	numChildren := int(cursor.u8()) + 1
	for c := 0; c < numChildren; c++ {
		rawOffset := cursor.u16()

		childPt := origin
		childPt.X += scaleSigned(cursor.u8(), zoom)
		childPt.Y += scaleSigned(cursor.u8(), zoom)

		childColor := color
		if rawOffset&0x8000 != 0 {
			childColor = cursor.u8() & 0x7F
			cursor.u8() // padding byte
		}

		offset := int(rawOffset&0x7FFF) * 2
		saved := cursor.Pos
		cursor.Pos = offset
		v.ReadAndDraw(cursor, childColor, zoom, childPt)
		cursor.Pos = saved
	}
}

func (v *Video) readAndFillLeaf(cursor *PolyReader, color uint8, zoom uint16, origin Point) {
	bbw := cursor.u8()
	bbh := cursor.u8()
	n := cursor.u8()

	if n < 2 || n >= maxPolyPoints || n%2 != 0 {
		v.logf(debug.LogLevelWarning, "poly: invalid vertex count %d", n)
		return
	}

	w := scaleUnsigned(bbw, zoom)
	h := scaleUnsigned(bbh, zoom)
	x1 := origin.X - w/2
	y1 := origin.Y - h/2
	x2 := origin.X + w/2
	y2 := origin.Y + h/2

	points := make([]Point, n)
	for p := 0; p < int(n); p++ {
		px := x1 + scaleUnsigned(cursor.u8(), zoom)
		py := y1 + scaleUnsigned(cursor.u8(), zoom)
		points[p] = Point{X: px, Y: py}
	}

	if bbw == 0 && bbh == 1 && n == 4 {
		v.drawPoint(origin.X, origin.Y, color)
		return
	}

	if x1 >= Width || x2 < 0 || y1 >= Height || y2 < 0 {
		return
	}

	v.fillPolygon(points, color, y1)
}

// fillPolygon walks vertices in mirrored pairs from both ends of the
// point list: the leading edge follows points[0], points[1], ... and the
// trailing edge points[n-1], points[n-2], ... as two 16.16 fixed-point
// x positions stepped once per scanline. Before each paired segment the
// fractional bits are reset to the asymmetric 0x7FFF/0x8000 rounding
// constants, which reproduces the original rasterizer's pixel-exact
// edge placement.
func (v *Video) fillPolygon(points []Point, color uint8, top int16) {
	n := len(points)
	i, j := 0, n-1

	cpt2 := int64(points[i].X) << 16 // leading edge
	cpt1 := int64(points[j].X) << 16 // trailing edge
	i++
	j--

	scanY := int(top)
	remaining := n
	for {
		remaining -= 2
		if remaining == 0 {
			break
		}
		step1 := edgeStep(points[j+1], points[j])
		step2 := edgeStep(points[i-1], points[i])
		// The height is read as an unsigned 16-bit count: a negative dy
		// wraps huge and the scanline loop runs until it falls off the
		// bottom of the page, exactly as the original renderer does.
		dy := int(uint16(points[i].Y - points[i-1].Y))
		i++
		j--

		cpt1 = (cpt1 &^ 0xFFFF) | 0x7FFF
		cpt2 = (cpt2 &^ 0xFFFF) | 0x8000

		if dy == 0 {
			// Horizontal degeneracy: both edges still advance once, but
			// no scanline is drawn for a zero-height segment.
			cpt1 += step1
			cpt2 += step2
			continue
		}
		for s := 0; s < dy; s++ {
			if scanY >= 0 {
				x1 := int(cpt1 >> 16)
				x2 := int(cpt2 >> 16)
				if x1 < Width && x2 >= 0 {
					if x1 < 0 {
						x1 = 0
					}
					if x2 >= Width {
						x2 = Width - 1
					}
					v.drawScanline(int16(scanY), int16(x1), int16(x2), color)
				}
			}
			cpt1 += step1
			cpt2 += step2
			scanY++
			if scanY >= Height {
				return
			}
		}
	}
}

// edgeStep computes the per-scanline x increment for the segment p1->p2,
// per the rasterizer's documented edge-step formula.
func edgeStep(p1, p2 Point) int64 {
	dy := int64(p2.Y - p1.Y)
	var m int64
	if dy == 0 {
		m = 0x4000
	} else {
		m = 0x4000 / dy
	}
	return int64(p2.X-p1.X) * m * 4
}

func (v *Video) drawScanline(y, x1, x2 int16, color uint8) {
	if x1 > x2 {
		x1, x2 = x2, x1
	}
	if x1 >= Width || x2 < 0 {
		return
	}
	if x1 < 0 {
		x1 = 0
	}
	if x2 >= Width {
		x2 = Width - 1
	}
	for x := x1; x <= x2; x++ {
		v.setPixel(v.Ptr1, int(x), int(y), color)
	}
}
