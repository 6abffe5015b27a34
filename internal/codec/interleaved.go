// Package codec implements the Interleaved RLE bitmap codec used to
// transport compressed 64x64 screen tiles, as specified in MS-RDPBCGR
// section 2.2.9.1.1.3.1.2.4.
package codec

import (
	"errors"

	"github.com/kulaginds/rdp-bitmap/internal/logging"
)

// RLE compression order codes
const (
	RegularBgRun         = 0x0
	RegularFgRun         = 0x1
	RegularFgBgImage     = 0x2
	RegularColorRun      = 0x3
	RegularColorImage    = 0x4
	LiteSetFgFgRun       = 0xC
	LiteSetFgFgBgImage   = 0xD
	LiteDitheredRun      = 0xE
	MegaMegaBgRun        = 0xF0
	MegaMegaFgRun        = 0xF1
	MegaMegaFgBgImage    = 0xF2
	MegaMegaColorRun     = 0xF3
	MegaMegaColorImage   = 0xF4
	MegaMegaSetFgRun     = 0xF6
	MegaMegaSetFgBgImage = 0xF7
	MegaMegaDitheredRun  = 0xF8
	SpecialFgBg1         = 0xF9
	SpecialFgBg2         = 0xFA
	SpecialWhite         = 0xFD
	SpecialBlack         = 0xFE
)

const (
	maskRegularRunLength = 0x1F
	maskLiteRunLength    = 0x0F
	maskSpecialFgBg1     = 0x03
	maskSpecialFgBg2     = 0x05
)

var (
	ErrTruncated     = errors.New("codec: truncated interleaved stream")
	ErrUnknownOrder  = errors.New("codec: unknown compression order")
	ErrDestOverrun   = errors.New("codec: tile destination overrun")
	ErrInvalidParams = errors.New("codec: invalid codec parameters")
)

// MaxTileSize is the largest tile edge the interleaved codec handles.
const MaxTileSize = 64

// ExtractCodeID extracts the compression order code from a header byte.
func ExtractCodeID(bOrderHdr byte) uint {
	if (bOrderHdr & 0xC0) != 0xC0 {
		// REGULAR orders (000x xxxx .. 100x xxxx)
		return uint(bOrderHdr >> 5)
	}
	if (bOrderHdr & 0xF0) == 0xF0 {
		// MEGA and SPECIAL orders (0xF*)
		return uint(bOrderHdr)
	}
	// LITE orders (1100 xxxx .. 1110 xxxx)
	return uint(bOrderHdr >> 4)
}

// extractRunLength reads the run length of the order whose header byte sits at
// src[idx] and returns it together with the index of the first byte after the
// header and any length-extension bytes.
//
// A run length of zero in a REGULAR or LITE header selects an extended run:
// the next byte holds the length, biased per order family. MEGA variants carry
// the length in two little-endian bytes after the header.
func extractRunLength(code uint, src []byte, idx int) (runLength, nextIdx int, err error) {
	if idx >= len(src) {
		return 0, 0, ErrTruncated
	}

	switch code {
	case RegularFgBgImage, LiteSetFgFgBgImage:
		mask := byte(maskRegularRunLength)
		if code == LiteSetFgFgBgImage {
			mask = maskLiteRunLength
		}

		runLength = int(src[idx] & mask)
		if runLength == 0 {
			if idx+1 >= len(src) {
				return 0, 0, ErrTruncated
			}

			return int(src[idx+1]) + 1, idx + 2, nil
		}

		return runLength * 8, idx + 1, nil

	case RegularBgRun, RegularFgRun, RegularColorRun, RegularColorImage:
		runLength = int(src[idx] & maskRegularRunLength)
		if runLength == 0 {
			// An extended (MEGA) run.
			if idx+1 >= len(src) {
				return 0, 0, ErrTruncated
			}

			return int(src[idx+1]) + 32, idx + 2, nil
		}

		return runLength, idx + 1, nil

	case LiteSetFgFgRun, LiteDitheredRun:
		runLength = int(src[idx] & maskLiteRunLength)
		if runLength == 0 {
			// An extended (MEGA) run.
			if idx+1 >= len(src) {
				return 0, 0, ErrTruncated
			}

			return int(src[idx+1]) + 16, idx + 2, nil
		}

		return runLength, idx + 1, nil

	case MegaMegaBgRun, MegaMegaFgRun, MegaMegaSetFgRun, MegaMegaDitheredRun,
		MegaMegaColorRun, MegaMegaFgBgImage, MegaMegaSetFgBgImage, MegaMegaColorImage:
		if idx+2 >= len(src) {
			return 0, 0, ErrTruncated
		}

		runLength = int(src[idx+1]) | int(src[idx+2])<<8

		return runLength, idx + 3, nil
	}

	return 0, 0, ErrUnknownOrder
}

// fgBgMasks selects the bit for each pixel of a fg/bg image bitmap byte, LSB first.
var fgBgMasks = [8]byte{0x01, 0x02, 0x04, 0x08, 0x10, 0x20, 0x40, 0x80}

// Interleaved is a codec context. It owns the scratch tile buffer shared by
// decompression and compression; distinct contexts may be used concurrently,
// a single context must not.
type Interleaved struct {
	temp []byte
}

// NewInterleaved returns a codec context with a scratch buffer sized for the
// largest supported tile.
func NewInterleaved() *Interleaved {
	return &Interleaved{
		temp: make([]byte, MaxTileSize*MaxTileSize*4),
	}
}

// Decompress decodes an interleaved RLE stream of srcWidth x srcHeight pixels
// at the given source depth and places the tile at (xDst, yDst) in dst,
// converted to dstFormat and flipped top-down. A palette is required for
// 8 bpp sources. Reports whether decoding succeeded; on failure the
// destination region is unspecified and the tile must be discarded.
func (c *Interleaved) Decompress(src []byte, srcWidth, srcHeight, bpp int, dst []byte,
	dstFormat Format, dstStep, xDst, yDst, dstWidth, dstHeight int, pal *Palette) bool {
	if c == nil || src == nil || dst == nil {
		return false
	}

	var (
		scanline  int
		srcFormat Format
	)

	switch bpp {
	case 24:
		scanline = srcWidth * 3
		srcFormat = FormatBGR24
	case 16:
		scanline = srcWidth * 2
		srcFormat = FormatRGB565
	case 15:
		scanline = srcWidth * 2
		srcFormat = FormatRGB555
	case 8:
		scanline = srcWidth
		srcFormat = FormatPalette8
	default:
		logging.Warn("interleaved: invalid color depth %d", bpp)
		return false
	}

	if srcWidth <= 0 || srcHeight <= 0 {
		return false
	}

	bufferSize := scanline * srcHeight
	if bufferSize > len(c.temp) {
		c.temp = make([]byte, bufferSize)
	}

	var err error

	switch bpp {
	case 24:
		err = RLEDecompress24(src, c.temp[:bufferSize], scanline, srcWidth, srcHeight)
	case 16, 15:
		err = RLEDecompress16(src, c.temp[:bufferSize], scanline, srcWidth, srcHeight)
	case 8:
		err = RLEDecompress8(src, c.temp[:bufferSize], scanline, srcWidth, srcHeight)
	}

	if err != nil {
		logging.Debug("interleaved: decompress %dx%d@%d: %v", srcWidth, srcHeight, bpp, err)
		return false
	}

	// The stream is bottom-up on the wire; the copy flips it top-down.
	err = ImageCopy(dst, dstFormat, dstStep, xDst, yDst, dstWidth, dstHeight,
		c.temp[:bufferSize], srcFormat, scanline, pal, true)
	if err != nil {
		logging.Debug("interleaved: image copy: %v", err)
		return false
	}

	return true
}

// Compress encodes the width x height region at (xSrc, ySrc) of src as an
// interleaved RLE stream at the given depth, writing the stream into dst.
// Tiles are limited to 64x64 and width must be a multiple of 4. Returns the
// number of bytes written and whether encoding succeeded.
func (c *Interleaved) Compress(dst []byte, src []byte, srcFormat Format,
	srcStep, xSrc, ySrc, width, height, bpp int, pal *Palette) (int, bool) {
	if c == nil || dst == nil || src == nil {
		return 0, false
	}

	if width == 0 || height == 0 {
		return 0, false
	}

	if width%4 != 0 {
		logging.Warn("interleaved: compress width %d is not a multiple of 4", width)
		return 0, false
	}

	if width > MaxTileSize || height > MaxTileSize {
		logging.Warn("interleaved: compress tile %dx%d exceeds %d", width, height, MaxTileSize)
		return 0, false
	}

	var (
		scanline   int
		wireFormat Format
	)

	switch bpp {
	case 24:
		scanline = width * 3
		wireFormat = FormatBGR24
	case 16:
		scanline = width * 2
		wireFormat = FormatRGB565
	case 15:
		scanline = width * 2
		wireFormat = FormatRGB555
	case 8:
		scanline = width
		wireFormat = FormatPalette8
	default:
		return 0, false
	}

	bufferSize := scanline * height
	if bufferSize > len(c.temp) {
		c.temp = make([]byte, bufferSize)
	}

	// Encode bottom-up, the orientation the decoder expects on the wire.
	err := imageCopyRegion(c.temp[:bufferSize], wireFormat, scanline, 0, 0, width, height,
		src, srcFormat, srcStep, xSrc, ySrc, pal, true)
	if err != nil {
		logging.Debug("interleaved: compress copy: %v", err)
		return 0, false
	}

	var n int

	switch bpp {
	case 24:
		n, err = RLECompress24(c.temp[:bufferSize], dst, scanline, width, height)
	case 16, 15:
		n, err = RLECompress16(c.temp[:bufferSize], dst, scanline, width, height)
	case 8:
		n, err = RLECompress8(c.temp[:bufferSize], dst, scanline, width, height)
	}

	if err != nil {
		logging.Debug("interleaved: compress %dx%d@%d: %v", width, height, bpp, err)
		return 0, false
	}

	return n, true
}
