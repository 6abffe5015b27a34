package codec

import "testing"

// Fuzzing pairs arbitrary encoded bytes with arbitrary declared dimensions:
// the decoder must either fail or fill the tile exactly, and it must never
// touch a byte beyond the declared tile.

func fuzzDecode(t *testing.T, decode func(src, dst []byte, rowDelta, width, height int) error,
	bpp int, data []byte, w, h uint8) {
	t.Helper()

	width := int(w)%MaxTileSize + 1
	height := int(h)%MaxTileSize + 1
	rowDelta := width * bpp

	const canary = 0xC7

	buf := make([]byte, rowDelta*height+16)
	for i := range buf {
		buf[i] = canary
	}

	err := decode(data, buf, rowDelta, width, height)

	for i := rowDelta * height; i < len(buf); i++ {
		if buf[i] != canary {
			t.Fatalf("decode err=%v wrote beyond tile at offset %d", err, i)
		}
	}
}

func FuzzRLEDecompress8(f *testing.F) {
	f.Add([]byte{0xFD}, uint8(0), uint8(0))
	f.Add([]byte{0x63, 0xAA}, uint8(2), uint8(0))
	f.Add([]byte{0x21, 0x02}, uint8(2), uint8(0))
	f.Add([]byte{0x41, 0xA5}, uint8(7), uint8(0))
	f.Add([]byte{0xF0, 0x40, 0x00}, uint8(7), uint8(7))
	f.Add([]byte{0xF9, 0xFA, 0xFE}, uint8(10), uint8(0))

	f.Fuzz(func(t *testing.T, data []byte, w, h uint8) {
		fuzzDecode(t, RLEDecompress8, 1, data, w, h)
	})
}

func FuzzRLEDecompress16(f *testing.F) {
	f.Add([]byte{0xFD}, uint8(0), uint8(0))
	f.Add([]byte{0xC2, 0x34, 0x12}, uint8(1), uint8(0))
	f.Add([]byte{0xE1, 0x11, 0x22, 0x33, 0x44}, uint8(1), uint8(0))

	f.Fuzz(func(t *testing.T, data []byte, w, h uint8) {
		fuzzDecode(t, RLEDecompress16, 2, data, w, h)
	})
}

func FuzzRLEDecompress24(f *testing.F) {
	f.Add([]byte{0xFD}, uint8(0), uint8(0))
	f.Add([]byte{0x62, 0x11, 0x22, 0x33}, uint8(1), uint8(0))

	f.Fuzz(func(t *testing.T, data []byte, w, h uint8) {
		fuzzDecode(t, RLEDecompress24, 3, data, w, h)
	})
}

func FuzzRoundTrip8(f *testing.F) {
	f.Add([]byte{0x00, 0x01, 0x02, 0x03}, uint8(3))

	f.Fuzz(func(t *testing.T, data []byte, w uint8) {
		width := (int(w)%(MaxTileSize/4) + 1) * 4
		height := len(data) / width
		if height == 0 {
			t.Skip()
		}
		if height > MaxTileSize {
			height = MaxTileSize
		}

		src := data[:width*height]

		encoded := make([]byte, len(src)*2+64)
		n, err := RLECompress8(src, encoded, width, width, height)
		if err != nil {
			t.Fatalf("compress: %v", err)
		}

		dst := make([]byte, len(src))
		if err := RLEDecompress8(encoded[:n], dst, width, width, height); err != nil {
			t.Fatalf("decompress: %v", err)
		}

		for i := range src {
			if src[i] != dst[i] {
				t.Fatalf("round trip mismatch at %d: %02x != %02x", i, src[i], dst[i])
			}
		}
	})
}
