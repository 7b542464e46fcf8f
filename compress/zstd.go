package compress

// ZstdCompressor implements the Codec interface with Zstandard compression.
//
// Two implementations exist behind build tags: the default pure-Go one
// (klauspost/compress/zstd) and a cgo binding (valyala/gozstd) selected by
// the cgozstd tag for hosts that prefer the reference implementation.
type ZstdCompressor struct{}

var _ Codec = (*ZstdCompressor)(nil)

// NewZstdCompressor creates a new Zstandard codec.
func NewZstdCompressor() ZstdCompressor {
	return ZstdCompressor{}
}
