package compress

import (
	"bytes"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/statmix/randcoef/format"
)

// snapshotLikePayload builds a payload resembling a real snapshot body:
// short label strings followed by packed float64 parameters.
func snapshotLikePayload(groups int) []byte {
	rng := rand.New(rand.NewSource(42))
	var buf bytes.Buffer
	for i := 0; i < groups; i++ {
		buf.WriteString("subject-")
		buf.WriteByte(byte('a' + i%26))
		for j := 0; j < 2; j++ {
			v := math.Float64bits(rng.NormFloat64())
			for s := 0; s < 64; s += 8 {
				buf.WriteByte(byte(v >> s))
			}
		}
	}

	return buf.Bytes()
}

func TestCodecRoundTrip(t *testing.T) {
	payload := snapshotLikePayload(100)

	tests := []struct {
		name string
		typ  format.CompressionType
	}{
		{"none", format.CompressionNone},
		{"zstd", format.CompressionZstd},
		{"s2", format.CompressionS2},
		{"lz4", format.CompressionLZ4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			codec, err := GetCodec(tt.typ)
			require.NoError(t, err)

			compressed, err := codec.Compress(payload)
			require.NoError(t, err)

			restored, err := codec.Decompress(compressed)
			require.NoError(t, err)
			require.Equal(t, payload, restored)
		})
	}
}

func TestCodecEmptyInput(t *testing.T) {
	for _, typ := range []format.CompressionType{
		format.CompressionNone, format.CompressionZstd, format.CompressionS2, format.CompressionLZ4,
	} {
		codec, err := GetCodec(typ)
		require.NoError(t, err)

		compressed, err := codec.Compress(nil)
		require.NoError(t, err)

		restored, err := codec.Decompress(compressed)
		require.NoError(t, err)
		require.Empty(t, restored)
	}
}

func TestGetCodecUnknownType(t *testing.T) {
	_, err := GetCodec(format.CompressionType(0xff))
	require.Error(t, err)
}

func TestLZ4DecompressCorrupted(t *testing.T) {
	codec := NewLZ4Compressor()
	_, err := codec.Decompress([]byte{0xff, 0xfe, 0xfd, 0xfc, 0xfb})
	require.Error(t, err)
}
