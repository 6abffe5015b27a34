package codec

// Pixel8 is the 8-bit indexed pixel format (1 byte per pixel).
var Pixel8 = PixelFormat[uint8]{
	BytesPerPixel: 1,
	WhitePixel:    0xFF,
	ReadPixel: func(data []byte, idx int) uint8 {
		return data[idx]
	},
	WritePixel: func(data []byte, idx int, pixel uint8) {
		data[idx] = pixel
	},
}

// RLEDecompress8 decompresses an 8-bit interleaved RLE stream into dst.
func RLEDecompress8(src, dst []byte, rowDelta, width, height int) error {
	return rleDecompress(Pixel8, src, dst, rowDelta, width, height)
}

// RLECompress8 compresses an 8-bit tile buffer into an interleaved RLE stream.
func RLECompress8(src, dst []byte, rowDelta, width, height int) (int, error) {
	return rleCompress(Pixel8, src, dst, rowDelta, width, height)
}
