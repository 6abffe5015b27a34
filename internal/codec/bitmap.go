package codec

import "fmt"

// Format identifies a pixel memory layout handled by the image copy.
type Format int

const (
	FormatPalette8 Format = iota // 8-bit indexed, palette required
	FormatRGB555                 // 2 bytes little-endian, 5/5/5
	FormatRGB565                 // 2 bytes little-endian, 5/6/5
	FormatBGR24                  // 3 bytes, B G R memory order
	FormatRGBA32                 // 4 bytes, R G B A memory order
	FormatBGRA32                 // 4 bytes, B G R A memory order
)

// BytesPerPixel returns the pixel stride of the format.
func (f Format) BytesPerPixel() int {
	switch f {
	case FormatPalette8:
		return 1
	case FormatRGB555, FormatRGB565:
		return 2
	case FormatBGR24:
		return 3
	case FormatRGBA32, FormatBGRA32:
		return 4
	}

	return 0
}

func (f Format) String() string {
	switch f {
	case FormatPalette8:
		return "PALETTE8"
	case FormatRGB555:
		return "RGB555"
	case FormatRGB565:
		return "RGB565"
	case FormatBGR24:
		return "BGR24"
	case FormatRGBA32:
		return "RGBA32"
	case FormatBGRA32:
		return "BGRA32"
	}

	return fmt.Sprintf("Format(%d)", int(f))
}

// Palette maps 8-bit indexed pixels to RGB.
type Palette [256][3]byte

// readRGBA reads the pixel at idx and expands it to 8-bit RGBA channels.
func readRGBA(f Format, src []byte, idx int, pal *Palette) (r, g, b, a byte) {
	switch f {
	case FormatPalette8:
		e := pal[src[idx]]
		return e[0], e[1], e[2], 0xFF
	case FormatRGB555:
		pel := uint16(src[idx]) | uint16(src[idx+1])<<8
		r5 := byte(pel >> 10 & 0x1F)
		g5 := byte(pel >> 5 & 0x1F)
		b5 := byte(pel & 0x1F)
		return r5<<3 | r5>>2, g5<<3 | g5>>2, b5<<3 | b5>>2, 0xFF
	case FormatRGB565:
		pel := uint16(src[idx]) | uint16(src[idx+1])<<8
		r5 := byte(pel >> 11 & 0x1F)
		g6 := byte(pel >> 5 & 0x3F)
		b5 := byte(pel & 0x1F)
		return r5<<3 | r5>>2, g6<<2 | g6>>4, b5<<3 | b5>>2, 0xFF
	case FormatBGR24:
		return src[idx+2], src[idx+1], src[idx], 0xFF
	case FormatRGBA32:
		return src[idx], src[idx+1], src[idx+2], src[idx+3]
	case FormatBGRA32:
		return src[idx+2], src[idx+1], src[idx], src[idx+3]
	}

	return 0, 0, 0, 0
}

// writeRGBA packs 8-bit RGBA channels into the pixel at idx.
func writeRGBA(f Format, dst []byte, idx int, r, g, b, a byte) {
	switch f {
	case FormatRGB555:
		pel := uint16(r>>3)<<10 | uint16(g>>3)<<5 | uint16(b>>3)
		dst[idx] = byte(pel)
		dst[idx+1] = byte(pel >> 8)
	case FormatRGB565:
		pel := uint16(r>>3)<<11 | uint16(g>>2)<<5 | uint16(b>>3)
		dst[idx] = byte(pel)
		dst[idx+1] = byte(pel >> 8)
	case FormatBGR24:
		dst[idx] = b
		dst[idx+1] = g
		dst[idx+2] = r
	case FormatRGBA32:
		dst[idx] = r
		dst[idx+1] = g
		dst[idx+2] = b
		dst[idx+3] = a
	case FormatBGRA32:
		dst[idx] = b
		dst[idx+1] = g
		dst[idx+2] = r
		dst[idx+3] = a
	}
}

// ImageCopy converts the top-left w x h region of src into dst at
// (xDst, yDst), optionally flipping it vertically on the way. An indexed
// source requires a palette unless the destination is also indexed; an
// indexed destination is supported only from an indexed source, as a raw
// index copy.
func ImageCopy(dst []byte, dstFormat Format, dstStep, xDst, yDst, w, h int,
	src []byte, srcFormat Format, srcStep int, pal *Palette, flipVertical bool) error {
	return imageCopyRegion(dst, dstFormat, dstStep, xDst, yDst, w, h,
		src, srcFormat, srcStep, 0, 0, pal, flipVertical)
}

func imageCopyRegion(dst []byte, dstFormat Format, dstStep, xDst, yDst, w, h int,
	src []byte, srcFormat Format, srcStep, xSrc, ySrc int, pal *Palette, flipVertical bool) error {
	srcBpp := srcFormat.BytesPerPixel()
	dstBpp := dstFormat.BytesPerPixel()

	if srcBpp == 0 || dstBpp == 0 {
		return ErrInvalidParams
	}
	// An indexed destination only works as a raw index copy; there is no
	// quantization path.
	if dstFormat == FormatPalette8 && srcFormat != FormatPalette8 {
		return ErrInvalidParams
	}
	if w <= 0 || h <= 0 || xDst < 0 || yDst < 0 || xSrc < 0 || ySrc < 0 {
		return ErrInvalidParams
	}
	if srcStep < (xSrc+w)*srcBpp || dstStep < (xDst+w)*dstBpp {
		return ErrInvalidParams
	}
	if len(src) < (ySrc+h)*srcStep || len(dst) < (yDst+h-1)*dstStep+(xDst+w)*dstBpp {
		return ErrInvalidParams
	}
	if srcFormat == FormatPalette8 && dstFormat != FormatPalette8 && pal == nil {
		return ErrInvalidParams
	}

	for y := 0; y < h; y++ {
		srcY := ySrc + y
		if flipVertical {
			srcY = ySrc + h - 1 - y
		}

		srcRow := srcY*srcStep + xSrc*srcBpp
		dstRow := (yDst+y)*dstStep + xDst*dstBpp

		if srcFormat == dstFormat {
			copy(dst[dstRow:dstRow+w*dstBpp], src[srcRow:srcRow+w*srcBpp])
			continue
		}

		for x := 0; x < w; x++ {
			r, g, b, a := readRGBA(srcFormat, src, srcRow+x*srcBpp, pal)
			writeRGBA(dstFormat, dst, dstRow+x*dstBpp, r, g, b, a)
		}
	}

	return nil
}
