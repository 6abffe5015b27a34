package codec

// The interleaved compressor is the dual of the decoder. It walks the tile
// scanline by scanline and covers each row with background runs (pixels equal
// to the previous scanline, or black on the first one), color runs, and
// color-image literals. No order ever crosses a scanline boundary, and no
// foreground-dependent order is emitted, so the decoder's foreground state
// never comes into play and the output round-trips bit-exactly.

// rleWriter appends order bytes to a caller-provided buffer, failing once
// the encoding no longer fits.
type rleWriter struct {
	buf []byte
	n   int
}

func (w *rleWriter) writeByte(b byte) error {
	if w.n >= len(w.buf) {
		return ErrDestOverrun
	}

	w.buf[w.n] = b
	w.n++

	return nil
}

func (w *rleWriter) writeBytes(p []byte) error {
	if w.n+len(p) > len(w.buf) {
		return ErrDestOverrun
	}

	copy(w.buf[w.n:], p)
	w.n += len(p)

	return nil
}

// writeRunHeader emits the shortest header encoding a REGULAR-family run of
// n pixels: the length inline in the low 5 bits, a zero length plus an
// extension byte biased by 32, or the MEGA-MEGA form with a 16-bit length.
func (w *rleWriter) writeRunHeader(regularCode uint, megaCode byte, n int) error {
	switch {
	case n <= maskRegularRunLength:
		return w.writeByte(byte(regularCode)<<5 | byte(n))
	case n <= 0xFF+32:
		if err := w.writeByte(byte(regularCode) << 5); err != nil {
			return err
		}

		return w.writeByte(byte(n - 32))
	default:
		if err := w.writeByte(megaCode); err != nil {
			return err
		}
		if err := w.writeByte(byte(n)); err != nil {
			return err
		}

		return w.writeByte(byte(n >> 8))
	}
}

// rleCompress encodes a tile buffer as an interleaved RLE stream and returns
// the number of bytes written. The buffer must hold exactly the wire
// orientation the decoder will reproduce.
func rleCompress[T uint8 | uint16 | uint32](pf PixelFormat[T], src, dst []byte,
	rowDelta, width, height int) (int, error) {
	bpp := pf.BytesPerPixel

	if width <= 0 || height <= 0 || rowDelta != width*bpp {
		return 0, ErrInvalidParams
	}
	if len(src) < rowDelta*height {
		return 0, ErrInvalidParams
	}

	w := &rleWriter{buf: dst}

	for y := 0; y < height; y++ {
		row := y * rowDelta

		// reports whether pixel x of this row decodes as a background run pixel
		background := func(x int) bool {
			idx := row + x*bpp
			if y == 0 {
				return pf.ReadPixel(src, idx) == 0
			}

			return pf.ReadPixel(src, idx) == pf.ReadPixel(src, idx-rowDelta)
		}

		for x := 0; x < width; {
			nBg := 0
			for x+nBg < width && background(x+nBg) {
				nBg++
			}

			if nBg > 0 {
				if err := w.writeRunHeader(RegularBgRun, MegaMegaBgRun, nBg); err != nil {
					return 0, err
				}

				x += nBg

				continue
			}

			pixel := pf.ReadPixel(src, row+x*bpp)

			nRun := 1
			for x+nRun < width && pf.ReadPixel(src, row+(x+nRun)*bpp) == pixel {
				nRun++
			}

			if nRun >= 3 {
				if err := w.writeRunHeader(RegularColorRun, MegaMegaColorRun, nRun); err != nil {
					return 0, err
				}
				if err := w.writeBytes(src[row+x*bpp : row+x*bpp+bpp]); err != nil {
					return 0, err
				}

				x += nRun

				continue
			}

			// Literal span: extend until a background pixel or a run of three
			// identical pixels starts, then emit the span verbatim.
			end := x + 1
			for end < width && !background(end) {
				if end+2 < width {
					p := pf.ReadPixel(src, row+end*bpp)
					if pf.ReadPixel(src, row+(end+1)*bpp) == p &&
						pf.ReadPixel(src, row+(end+2)*bpp) == p {
						break
					}
				}

				end++
			}

			if err := w.writeRunHeader(RegularColorImage, MegaMegaColorImage, end-x); err != nil {
				return 0, err
			}
			if err := w.writeBytes(src[row+x*bpp : row+end*bpp]); err != nil {
				return 0, err
			}

			x = end
		}
	}

	return w.n, nil
}
