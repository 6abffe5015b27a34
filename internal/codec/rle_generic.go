package codec

// PixelFormat defines the operations for a specific pixel bit depth. The
// decoder and encoder bodies are generic over it, one instantiation per
// depth, so every depth gets an identical engine.
type PixelFormat[T uint8 | uint16 | uint32] struct {
	BytesPerPixel int
	WhitePixel    T
	ReadPixel     func(data []byte, idx int) T
	WritePixel    func(data []byte, idx int, pixel T)
}

// writeFgBgImage writes up to cBits pixels selected by a fg/bg bitmap byte,
// LSB first. Set bits write the foreground color on the first scanline and
// the previous-scanline pixel XOR foreground afterwards; clear bits write
// black on the first scanline and the previous-scanline pixel afterwards.
// The first-line rule is decided per pixel, so a group may straddle the
// boundary. The caller has verified capacity for cBits pixels.
func writeFgBgImage[T uint8 | uint16 | uint32](pf PixelFormat[T], dst []byte,
	destIdx, rowDelta int, bitmask byte, fgPel T, cBits int) int {
	bpp := pf.BytesPerPixel

	for i := 0; i < cBits; i++ {
		if destIdx < rowDelta {
			if bitmask&fgBgMasks[i] != 0 {
				pf.WritePixel(dst, destIdx, fgPel)
			} else {
				pf.WritePixel(dst, destIdx, 0)
			}
		} else {
			prevPel := pf.ReadPixel(dst, destIdx-rowDelta)
			if bitmask&fgBgMasks[i] != 0 {
				pf.WritePixel(dst, destIdx, prevPel^fgPel)
			} else {
				pf.WritePixel(dst, destIdx, prevPel)
			}
		}

		destIdx += bpp
	}

	return destIdx
}

// rleDecompress decodes an interleaved RLE stream into dst. The destination
// is written strictly left to right, bottom row of the tile first; decoding
// succeeds only when exactly rowDelta*height bytes have been produced.
// Trailing input after the last pixel is ignored; running out of input
// earlier, an order code with no mapping, or an order that would write past
// the tile all fail the decode and leave the destination unspecified.
func rleDecompress[T uint8 | uint16 | uint32](pf PixelFormat[T], src, dst []byte,
	rowDelta, width, height int) error {
	bpp := pf.BytesPerPixel

	if width <= 0 || height <= 0 || rowDelta != width*bpp {
		return ErrInvalidParams
	}

	total := rowDelta * height
	if len(dst) < total {
		return ErrInvalidParams
	}

	srcIdx := 0
	destIdx := 0
	fgPel := pf.WhitePixel
	insertFgPel := false

	// Remaining pixel capacity. The division keeps the comparison safe from
	// wraparound however hostile the declared run length is.
	fits := func(n int) bool {
		return n <= (total-destIdx)/bpp
	}

	for destIdx < total {
		if srcIdx >= len(src) {
			return ErrTruncated
		}

		code := ExtractCodeID(src[srcIdx])

		switch code {
		case RegularBgRun, MegaMegaBgRun:
			runLength, nextIdx, err := extractRunLength(code, src, srcIdx)
			if err != nil {
				return err
			}
			srcIdx = nextIdx

			if !fits(runLength) {
				return ErrDestOverrun
			}

			// On the first scanline a background run is black, unless the
			// previous order was a foreground run: then the run inherits
			// that color. Later scanlines copy the previous scanline.
			for i := 0; i < runLength; i++ {
				if destIdx < rowDelta {
					if insertFgPel {
						pf.WritePixel(dst, destIdx, fgPel)
					} else {
						pf.WritePixel(dst, destIdx, 0)
					}
				} else {
					pf.WritePixel(dst, destIdx, pf.ReadPixel(dst, destIdx-rowDelta))
				}
				destIdx += bpp
			}

			insertFgPel = false

		case RegularFgRun, MegaMegaFgRun, LiteSetFgFgRun, MegaMegaSetFgRun:
			runLength, nextIdx, err := extractRunLength(code, src, srcIdx)
			if err != nil {
				return err
			}
			srcIdx = nextIdx

			if code == LiteSetFgFgRun || code == MegaMegaSetFgRun {
				if srcIdx+bpp > len(src) {
					return ErrTruncated
				}
				fgPel = pf.ReadPixel(src, srcIdx)
				srcIdx += bpp
			}

			if !fits(runLength) {
				return ErrDestOverrun
			}

			for i := 0; i < runLength; i++ {
				if destIdx < rowDelta {
					pf.WritePixel(dst, destIdx, fgPel)
				} else {
					pf.WritePixel(dst, destIdx, pf.ReadPixel(dst, destIdx-rowDelta)^fgPel)
				}
				destIdx += bpp
			}

			insertFgPel = true

		case LiteDitheredRun, MegaMegaDitheredRun:
			runLength, nextIdx, err := extractRunLength(code, src, srcIdx)
			if err != nil {
				return err
			}
			srcIdx = nextIdx

			if srcIdx+2*bpp > len(src) {
				return ErrTruncated
			}
			pixelA := pf.ReadPixel(src, srcIdx)
			srcIdx += bpp
			pixelB := pf.ReadPixel(src, srcIdx)
			srcIdx += bpp

			// A dithered run produces runLength repetitions of the pair.
			if runLength > total/bpp || !fits(2*runLength) {
				return ErrDestOverrun
			}

			for i := 0; i < runLength; i++ {
				pf.WritePixel(dst, destIdx, pixelA)
				destIdx += bpp
				pf.WritePixel(dst, destIdx, pixelB)
				destIdx += bpp
			}

			insertFgPel = false

		case RegularColorRun, MegaMegaColorRun:
			runLength, nextIdx, err := extractRunLength(code, src, srcIdx)
			if err != nil {
				return err
			}
			srcIdx = nextIdx

			if srcIdx+bpp > len(src) {
				return ErrTruncated
			}
			pixel := pf.ReadPixel(src, srcIdx)
			srcIdx += bpp

			if !fits(runLength) {
				return ErrDestOverrun
			}

			for i := 0; i < runLength; i++ {
				pf.WritePixel(dst, destIdx, pixel)
				destIdx += bpp
			}

			insertFgPel = false

		case RegularColorImage, MegaMegaColorImage:
			runLength, nextIdx, err := extractRunLength(code, src, srcIdx)
			if err != nil {
				return err
			}
			srcIdx = nextIdx

			if !fits(runLength) {
				return ErrDestOverrun
			}
			if runLength > (len(src)-srcIdx)/bpp {
				return ErrTruncated
			}

			for i := 0; i < runLength; i++ {
				pf.WritePixel(dst, destIdx, pf.ReadPixel(src, srcIdx))
				srcIdx += bpp
				destIdx += bpp
			}

			insertFgPel = false

		case RegularFgBgImage, MegaMegaFgBgImage, LiteSetFgFgBgImage, MegaMegaSetFgBgImage:
			runLength, nextIdx, err := extractRunLength(code, src, srcIdx)
			if err != nil {
				return err
			}
			srcIdx = nextIdx

			if code == LiteSetFgFgBgImage || code == MegaMegaSetFgBgImage {
				if srcIdx+bpp > len(src) {
					return ErrTruncated
				}
				fgPel = pf.ReadPixel(src, srcIdx)
				srcIdx += bpp
			}

			if !fits(runLength) {
				return ErrDestOverrun
			}

			// One bitmap byte covers eight pixels; a final partial group
			// still consumes a whole byte and uses only its low bits.
			for runLength > 0 {
				if srcIdx >= len(src) {
					return ErrTruncated
				}
				bitmask := src[srcIdx]
				srcIdx++

				cBits := 8
				if runLength < 8 {
					cBits = runLength
				}

				destIdx = writeFgBgImage(pf, dst, destIdx, rowDelta, bitmask, fgPel, cBits)
				runLength -= cBits
			}

			insertFgPel = false

		case SpecialFgBg1, SpecialFgBg2:
			srcIdx++

			if !fits(8) {
				return ErrDestOverrun
			}

			bitmask := byte(maskSpecialFgBg1)
			if code == SpecialFgBg2 {
				bitmask = maskSpecialFgBg2
			}

			destIdx = writeFgBgImage(pf, dst, destIdx, rowDelta, bitmask, fgPel, 8)
			insertFgPel = false

		case SpecialWhite:
			srcIdx++

			if !fits(1) {
				return ErrDestOverrun
			}

			pf.WritePixel(dst, destIdx, pf.WhitePixel)
			destIdx += bpp
			insertFgPel = false

		case SpecialBlack:
			srcIdx++

			if !fits(1) {
				return ErrDestOverrun
			}

			pf.WritePixel(dst, destIdx, 0)
			destIdx += bpp
			insertFgPel = false

		default:
			return ErrUnknownOrder
		}
	}

	return nil
}
