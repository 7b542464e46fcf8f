// Package snapshot serializes fitted-model state to a compact binary form.
//
// A snapshot captures everything needed to report or predict from a fitted
// model without the training data: formulas, fixed effects with their
// covariance, the random-effects covariance, per-group BLUPs and the fit
// statistics. It deliberately does not capture the dataset, so a decoded
// snapshot supports prediction on new data but not refitting.
//
// The wire layout is a fixed header (magic, version, compression type)
// followed by a little-endian payload compressed with the codec named in
// the header.
package snapshot

import (
	"fmt"
	"math"

	"github.com/statmix/randcoef/compress"
	"github.com/statmix/randcoef/endian"
	"github.com/statmix/randcoef/errs"
	"github.com/statmix/randcoef/format"
	"github.com/statmix/randcoef/internal/options"
)

const (
	// Magic identifies a snapshot blob.
	Magic = "RCRS"
	// Version is the current payload layout version.
	Version = 1

	headerSize = len(Magic) + 2 // magic + version byte + compression byte
)

// GroupEffects is the BLUP vector of one group, in random-effect term order.
type GroupEffects struct {
	Label   string
	Effects []float64
}

// Snapshot is the serializable state of a fitted model.
//
// Matrix fields are stored row-major: FixedCovariance is p×p for p fixed
// effects and RandomCovariance is q×q for q random-effect terms.
type Snapshot struct {
	FixedFormula  string
	RandomFormula string
	Formula       string
	Grouping      string
	TimeVariable  string
	Structure     uint8
	Method        uint8

	FixedNames      []string
	FixedEffects    []float64
	FixedCovariance []float64

	RandomNames      []string
	RandomCovariance []float64

	ResidualVariance float64
	LogLikelihood    float64
	AIC              float64
	BIC              float64

	NumObs    int
	NumGroups int
	NumParams int

	// Groups holds per-group BLUPs sorted by label for deterministic output.
	Groups []GroupEffects
}

type encodeConfig struct {
	Compression format.CompressionType
}

// EncodeOption is a functional option for Encode.
type EncodeOption = options.Option[*encodeConfig]

// WithCompression selects the payload codec (default zstd).
func WithCompression(ct format.CompressionType) EncodeOption {
	return options.New(func(cfg *encodeConfig) error {
		if !ct.Valid() {
			return fmt.Errorf("%w: invalid compression type %d", errs.ErrInvalidArgument, ct)
		}
		cfg.Compression = ct

		return nil
	})
}

// Encode serializes the snapshot.
func (s *Snapshot) Encode(opts ...EncodeOption) ([]byte, error) {
	cfg := encodeConfig{Compression: format.CompressionZstd}
	if err := options.Apply(&cfg, opts...); err != nil {
		return nil, err
	}

	codec, err := compress.GetCodec(cfg.Compression)
	if err != nil {
		return nil, err
	}

	payload, err := codec.Compress(s.encodePayload())
	if err != nil {
		return nil, fmt.Errorf("compress snapshot payload: %w", err)
	}

	buf := make([]byte, 0, headerSize+len(payload))
	buf = append(buf, Magic...)
	buf = append(buf, Version, byte(cfg.Compression))
	buf = append(buf, payload...)

	return buf, nil
}

// Decode parses a snapshot previously produced by Encode.
func Decode(data []byte) (*Snapshot, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("%w: snapshot too short (%d bytes)", errs.ErrInvalidArgument, len(data))
	}
	if string(data[:len(Magic)]) != Magic {
		return nil, fmt.Errorf("%w: bad snapshot magic", errs.ErrInvalidArgument)
	}
	if data[len(Magic)] != Version {
		return nil, fmt.Errorf("%w: unsupported snapshot version %d", errs.ErrInvalidArgument, data[len(Magic)])
	}

	ct := format.CompressionType(data[len(Magic)+1])
	codec, err := compress.GetCodec(ct)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", errs.ErrInvalidArgument, err)
	}

	payload, err := codec.Decompress(data[headerSize:])
	if err != nil {
		return nil, fmt.Errorf("decompress snapshot payload: %w", err)
	}

	return decodePayload(payload)
}

func (s *Snapshot) encodePayload() []byte {
	eng := endian.GetLittleEndianEngine()
	buf := make([]byte, 0, 256)

	buf = appendString(buf, eng, s.FixedFormula)
	buf = appendString(buf, eng, s.RandomFormula)
	buf = appendString(buf, eng, s.Formula)
	buf = appendString(buf, eng, s.Grouping)
	buf = appendString(buf, eng, s.TimeVariable)
	buf = append(buf, s.Structure, s.Method)

	buf = appendStrings(buf, eng, s.FixedNames)
	buf = appendFloats(buf, eng, s.FixedEffects)
	buf = appendFloats(buf, eng, s.FixedCovariance)

	buf = appendStrings(buf, eng, s.RandomNames)
	buf = appendFloats(buf, eng, s.RandomCovariance)

	buf = eng.AppendUint64(buf, math.Float64bits(s.ResidualVariance))
	buf = eng.AppendUint64(buf, math.Float64bits(s.LogLikelihood))
	buf = eng.AppendUint64(buf, math.Float64bits(s.AIC))
	buf = eng.AppendUint64(buf, math.Float64bits(s.BIC))

	buf = eng.AppendUint32(buf, uint32(s.NumObs))
	buf = eng.AppendUint32(buf, uint32(s.NumGroups))
	buf = eng.AppendUint32(buf, uint32(s.NumParams))

	buf = eng.AppendUint32(buf, uint32(len(s.Groups)))
	for _, g := range s.Groups {
		buf = appendString(buf, eng, g.Label)
		buf = appendFloats(buf, eng, g.Effects)
	}

	return buf
}

func decodePayload(payload []byte) (*Snapshot, error) {
	r := reader{buf: payload, eng: endian.GetLittleEndianEngine()}
	s := &Snapshot{}

	s.FixedFormula = r.readString()
	s.RandomFormula = r.readString()
	s.Formula = r.readString()
	s.Grouping = r.readString()
	s.TimeVariable = r.readString()
	s.Structure = r.readByte()
	s.Method = r.readByte()

	s.FixedNames = r.readStrings()
	s.FixedEffects = r.readFloats()
	s.FixedCovariance = r.readFloats()

	s.RandomNames = r.readStrings()
	s.RandomCovariance = r.readFloats()

	s.ResidualVariance = r.readFloat()
	s.LogLikelihood = r.readFloat()
	s.AIC = r.readFloat()
	s.BIC = r.readFloat()

	s.NumObs = int(r.readUint32())
	s.NumGroups = int(r.readUint32())
	s.NumParams = int(r.readUint32())

	numGroups := int(r.readUint32())
	if r.err == nil && numGroups > len(r.buf) {
		r.err = fmt.Errorf("%w: group count %d exceeds remaining payload", errs.ErrInvalidArgument, numGroups)
	}
	if r.err == nil {
		s.Groups = make([]GroupEffects, 0, numGroups)
		for i := 0; i < numGroups && r.err == nil; i++ {
			g := GroupEffects{Label: r.readString(), Effects: r.readFloats()}
			s.Groups = append(s.Groups, g)
		}
	}

	if r.err != nil {
		return nil, r.err
	}
	if r.off != len(r.buf) {
		return nil, fmt.Errorf("%w: %d trailing bytes after snapshot payload", errs.ErrInvalidArgument, len(r.buf)-r.off)
	}

	return s, nil
}

func appendString(buf []byte, eng endian.EndianEngine, s string) []byte {
	buf = eng.AppendUint16(buf, uint16(len(s)))

	return append(buf, s...)
}

func appendStrings(buf []byte, eng endian.EndianEngine, ss []string) []byte {
	buf = eng.AppendUint16(buf, uint16(len(ss)))
	for _, s := range ss {
		buf = appendString(buf, eng, s)
	}

	return buf
}

func appendFloats(buf []byte, eng endian.EndianEngine, vs []float64) []byte {
	buf = eng.AppendUint32(buf, uint32(len(vs)))
	for _, v := range vs {
		buf = eng.AppendUint64(buf, math.Float64bits(v))
	}

	return buf
}

// reader is a bounds-checked sequential payload reader. The first failure
// sticks; all subsequent reads return zero values.
type reader struct {
	buf []byte
	off int
	eng endian.EndianEngine
	err error
}

func (r *reader) fail() {
	if r.err == nil {
		r.err = fmt.Errorf("%w: truncated snapshot payload at offset %d", errs.ErrInvalidArgument, r.off)
	}
}

func (r *reader) readByte() byte {
	if r.err != nil || r.off+1 > len(r.buf) {
		r.fail()
		return 0
	}
	b := r.buf[r.off]
	r.off++

	return b
}

func (r *reader) readUint16() uint16 {
	if r.err != nil || r.off+2 > len(r.buf) {
		r.fail()
		return 0
	}
	v := r.eng.Uint16(r.buf[r.off:])
	r.off += 2

	return v
}

func (r *reader) readUint32() uint32 {
	if r.err != nil || r.off+4 > len(r.buf) {
		r.fail()
		return 0
	}
	v := r.eng.Uint32(r.buf[r.off:])
	r.off += 4

	return v
}

func (r *reader) readFloat() float64 {
	if r.err != nil || r.off+8 > len(r.buf) {
		r.fail()
		return 0
	}
	v := math.Float64frombits(r.eng.Uint64(r.buf[r.off:]))
	r.off += 8

	return v
}

func (r *reader) readString() string {
	n := int(r.readUint16())
	if r.err != nil || r.off+n > len(r.buf) {
		r.fail()
		return ""
	}
	s := string(r.buf[r.off : r.off+n])
	r.off += n

	return s
}

func (r *reader) readStrings() []string {
	n := int(r.readUint16())
	if r.err != nil {
		return nil
	}
	ss := make([]string, 0, n)
	for i := 0; i < n && r.err == nil; i++ {
		ss = append(ss, r.readString())
	}

	return ss
}

func (r *reader) readFloats() []float64 {
	n := int(r.readUint32())
	if r.err != nil {
		return nil
	}
	if n*8 > len(r.buf)-r.off {
		r.fail()
		return nil
	}
	vs := make([]float64, 0, n)
	for i := 0; i < n && r.err == nil; i++ {
		vs = append(vs, r.readFloat())
	}

	return vs
}
