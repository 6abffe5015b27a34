package main

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"os"

	"github.com/klauspost/compress/zstd"

	"github.com/kulaginds/rdp-bitmap/internal/codec"
)

// Tile dump file layout (all integers little-endian):
//
//	magic "RTD1", u8 hasPalette
//	[768-byte RGB palette when hasPalette != 0]
//	records: u16 width, u16 height, u8 bpp, u8 flags, u16 reserved,
//	         u32 payloadLen, [768-byte palette when flags bit1], payload
//
// flags bit0 marks a compressed payload. Dumps may be zstd-compressed as a
// whole; that is detected by the zstd frame magic.
const (
	dumpMagic        = "RTD1"
	recordHeaderSize = 12
	paletteSize      = 768

	recordFlagCompressed = 0x01
	recordFlagPalette    = 0x02
)

var zstdMagic = []byte{0x28, 0xB5, 0x2F, 0xFD}

var (
	errBadMagic  = errors.New("not a tile dump file")
	errBadRecord = errors.New("truncated tile record")
)

type tileRecord struct {
	Width      int
	Height     int
	Bpp        int
	Compressed bool
	Palette    *codec.Palette
	Payload    []byte
}

type tileDump struct {
	Palette *codec.Palette
	Tiles   []tileRecord
}

func readDump(path string) (*tileDump, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if bytes.HasPrefix(data, zstdMagic) {
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, err
		}
		defer dec.Close()

		data, err = dec.DecodeAll(data, nil)
		if err != nil {
			return nil, fmt.Errorf("zstd: %w", err)
		}
	}

	if len(data) < len(dumpMagic)+1 || string(data[:len(dumpMagic)]) != dumpMagic {
		return nil, errBadMagic
	}

	hasPalette := data[len(dumpMagic)] != 0
	data = data[len(dumpMagic)+1:]

	dump := &tileDump{}

	if hasPalette {
		if len(data) < paletteSize {
			return nil, errBadRecord
		}

		dump.Palette = parsePalette(data)
		data = data[paletteSize:]
	}

	for len(data) > 0 {
		rec, n, err := parseRecord(data)
		if err != nil {
			return nil, err
		}

		dump.Tiles = append(dump.Tiles, rec)
		data = data[n:]
	}

	return dump, nil
}

func parsePalette(data []byte) *codec.Palette {
	pal := &codec.Palette{}
	for i := 0; i < 256; i++ {
		pal[i] = [3]byte{data[i*3], data[i*3+1], data[i*3+2]}
	}

	return pal
}

// parseRecord decodes one tile record from data and returns it with the
// number of bytes it occupied.
func parseRecord(data []byte) (tileRecord, int, error) {
	if len(data) < recordHeaderSize {
		return tileRecord{}, 0, errBadRecord
	}

	rec := tileRecord{
		Width:      int(binary.LittleEndian.Uint16(data[0:2])),
		Height:     int(binary.LittleEndian.Uint16(data[2:4])),
		Bpp:        int(data[4]),
		Compressed: data[5]&recordFlagCompressed != 0,
	}

	payloadLen := int(binary.LittleEndian.Uint32(data[8:12]))
	n := recordHeaderSize

	if data[5]&recordFlagPalette != 0 {
		if len(data) < n+paletteSize {
			return tileRecord{}, 0, errBadRecord
		}

		rec.Palette = parsePalette(data[n:])
		n += paletteSize
	}

	if payloadLen < 0 || len(data) < n+payloadLen {
		return tileRecord{}, 0, errBadRecord
	}

	rec.Payload = data[n : n+payloadLen]
	n += payloadLen

	return rec, n, nil
}

// wireFormat maps a source depth to its wire pixel layout and scanline stride.
func wireFormat(bpp, width int) (codec.Format, int, error) {
	switch bpp {
	case 24:
		return codec.FormatBGR24, width * 3, nil
	case 16:
		return codec.FormatRGB565, width * 2, nil
	case 15:
		return codec.FormatRGB555, width * 2, nil
	case 8:
		return codec.FormatPalette8, width, nil
	default:
		return 0, 0, fmt.Errorf("unsupported color depth %d", bpp)
	}
}

func decodeTile(ctx *codec.Interleaved, rec tileRecord, defaultPal *codec.Palette) (*image.RGBA, error) {
	pal := rec.Palette
	if pal == nil {
		pal = defaultPal
	}

	img := image.NewRGBA(image.Rect(0, 0, rec.Width, rec.Height))

	if rec.Compressed {
		ok := ctx.Decompress(rec.Payload, rec.Width, rec.Height, rec.Bpp,
			img.Pix, codec.FormatRGBA32, img.Stride, 0, 0, rec.Width, rec.Height, pal)
		if !ok {
			return nil, fmt.Errorf("decompress %dx%d@%d failed", rec.Width, rec.Height, rec.Bpp)
		}

		return img, nil
	}

	// Raw payload: still in the wire pixel layout and bottom-up.
	srcFormat, scanline, err := wireFormat(rec.Bpp, rec.Width)
	if err != nil {
		return nil, err
	}

	err = codec.ImageCopy(img.Pix, codec.FormatRGBA32, img.Stride, 0, 0, rec.Width, rec.Height,
		rec.Payload, srcFormat, scanline, pal, true)
	if err != nil {
		return nil, err
	}

	return img, nil
}
