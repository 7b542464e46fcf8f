// Package compress provides the compression codecs used for snapshot
// payloads.
//
// Snapshot payloads are small binary blobs (typically a few hundred bytes to
// a few hundred kilobytes, depending on the number of groups carried), so
// the codecs favor low setup cost over streaming throughput: every codec
// operates on whole byte slices, and stateful encoders and decoders are
// pooled for reuse.
package compress

import (
	"fmt"

	"github.com/statmix/randcoef/format"
)

// Compressor compresses a whole payload in one call.
//
// The returned slice is newly allocated and owned by the caller; the input
// slice is never modified.
type Compressor interface {
	Compress(data []byte) ([]byte, error)
}

// Decompressor restores a payload previously compressed with the matching
// algorithm. It returns an error for corrupted or mismatched input.
type Decompressor interface {
	Decompress(data []byte) ([]byte, error)
}

// Codec combines both directions of one compression algorithm.
type Codec interface {
	Compressor
	Decompressor
}

var builtinCodecs = map[format.CompressionType]Codec{
	format.CompressionNone: NewNoOpCompressor(),
	format.CompressionZstd: NewZstdCompressor(),
	format.CompressionS2:   NewS2Compressor(),
	format.CompressionLZ4:  NewLZ4Compressor(),
}

// GetCodec retrieves the built-in Codec for the specified compression type.
func GetCodec(compressionType format.CompressionType) (Codec, error) {
	if codec, ok := builtinCodecs[compressionType]; ok {
		return codec, nil
	}

	return nil, fmt.Errorf("unsupported compression type: %s", compressionType)
}
