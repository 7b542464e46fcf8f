package compress

// NoOpCompressor passes payloads through unchanged.
//
// It is the codec behind format.CompressionNone and is also useful as a
// baseline when measuring the other codecs. Both directions return the
// input slice as-is without copying, so callers must not modify the input
// afterwards if they keep the returned slice.
type NoOpCompressor struct{}

var _ Codec = (*NoOpCompressor)(nil)

// NewNoOpCompressor creates a pass-through codec.
func NewNoOpCompressor() NoOpCompressor {
	return NoOpCompressor{}
}

// Compress returns the input data unchanged.
func (c NoOpCompressor) Compress(data []byte) ([]byte, error) {
	return data, nil
}

// Decompress returns the input data unchanged.
func (c NoOpCompressor) Decompress(data []byte) ([]byte, error) {
	return data, nil
}
