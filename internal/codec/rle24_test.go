package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode24(t *testing.T, src []byte, width, height int) []byte {
	t.Helper()

	dst := make([]byte, width*height*3)
	require.NoError(t, RLEDecompress24(src, dst, width*3, width, height))

	return dst
}

func TestRLEDecompress24_SpecialWhiteBlack(t *testing.T) {
	out := decode24(t, []byte{0xFD, 0xFE}, 2, 1)
	assert.Equal(t, []byte{0xFF, 0xFF, 0xFF, 0x00, 0x00, 0x00}, out)
}

func TestRLEDecompress24_ColorRunBGR(t *testing.T) {
	// three payload bytes per pixel, B G R memory order
	out := decode24(t, []byte{0x62, 0x11, 0x22, 0x33}, 2, 1)
	assert.Equal(t, []byte{0x11, 0x22, 0x33, 0x11, 0x22, 0x33}, out)
}

func TestRLEDecompress24_FgRunDefaultWhite(t *testing.T) {
	out := decode24(t, []byte{0x22}, 2, 1)
	assert.Equal(t, []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}, out)
}

func TestRLEDecompress24_SetFgFgRunSecondLine(t *testing.T) {
	src := []byte{
		0x82, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, // color image, first scanline
		0xC2, 0xFF, 0x00, 0x00, // set-fg fg run, fg 0x0000FF
	}
	out := decode24(t, src, 2, 2)
	assert.Equal(t, []byte{
		0x01, 0x02, 0x03, 0x04, 0x05, 0x06,
		0xFE, 0x02, 0x03, 0xFB, 0x05, 0x06,
	}, out)
}

func TestRLEDecompress24_TruncatedPixelPayload(t *testing.T) {
	dst := make([]byte, 9)

	err := RLEDecompress24([]byte{0x63, 0x11, 0x22}, dst, 9, 3, 1)
	require.ErrorIs(t, err, ErrTruncated)
}

func TestRLEDecompress24_RoundTrip(t *testing.T) {
	const width, height = 8, 8

	src := make([]byte, width*height*3)
	state := uint32(99)
	for i := range src {
		state = state*1664525 + 1013904223
		// low entropy to exercise runs and background matches
		src[i] = byte(state>>28) & 0x03
	}

	encoded := make([]byte, len(src)*2+64)
	n, err := RLECompress24(src, encoded, width*3, width, height)
	require.NoError(t, err)

	dst := make([]byte, len(src))
	require.NoError(t, RLEDecompress24(encoded[:n], dst, width*3, width, height))
	assert.Equal(t, src, dst)
}
