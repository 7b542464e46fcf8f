package snapshot

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/statmix/randcoef/errs"
	"github.com/statmix/randcoef/format"
)

func sampleSnapshot() *Snapshot {
	return &Snapshot{
		FixedFormula:  "score ~ week",
		RandomFormula: "(1 + week | id)",
		Formula:       "score ~ week + (1 + week | id)",
		Grouping:      "id",
		TimeVariable:  "week",
		Structure:     3,
		Method:        1,

		FixedNames:      []string{"(Intercept)", "week"},
		FixedEffects:    []float64{10.2, 1.97},
		FixedCovariance: []float64{0.04, 0.001, 0.001, 0.002},

		RandomNames:      []string{"(Intercept)", "week"},
		RandomCovariance: []float64{4.1, 0.5, 0.5, 0.9},

		ResidualVariance: 3.8,
		LogLikelihood:    -512.3,
		AIC:              1038.6,
		BIC:              1061.2,

		NumObs:    240,
		NumGroups: 40,
		NumParams: 7,

		Groups: []GroupEffects{
			{Label: "s01", Effects: []float64{1.2, -0.3}},
			{Label: "s02", Effects: []float64{-0.8, 0.1}},
		},
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	codecs := []format.CompressionType{
		format.CompressionNone,
		format.CompressionZstd,
		format.CompressionS2,
		format.CompressionLZ4,
	}

	for _, ct := range codecs {
		t.Run(ct.String(), func(t *testing.T) {
			orig := sampleSnapshot()
			blob, err := orig.Encode(WithCompression(ct))
			require.NoError(t, err)
			require.Equal(t, Magic, string(blob[:4]))
			require.Equal(t, byte(Version), blob[4])
			require.Equal(t, byte(ct), blob[5])

			got, err := Decode(blob)
			require.NoError(t, err)
			require.Equal(t, orig, got)
		})
	}
}

func TestSnapshotDefaultCompression(t *testing.T) {
	blob, err := sampleSnapshot().Encode()
	require.NoError(t, err)
	require.Equal(t, byte(format.CompressionZstd), blob[5])
}

func TestSnapshotEmptyGroups(t *testing.T) {
	orig := sampleSnapshot()
	orig.Groups = nil

	blob, err := orig.Encode(WithCompression(format.CompressionNone))
	require.NoError(t, err)

	got, err := Decode(blob)
	require.NoError(t, err)
	require.Empty(t, got.Groups)
}

func TestSnapshotDecodeErrors(t *testing.T) {
	valid, err := sampleSnapshot().Encode(WithCompression(format.CompressionNone))
	require.NoError(t, err)

	tests := []struct {
		name string
		data []byte
	}{
		{name: "empty", data: nil},
		{name: "short header", data: []byte("RCR")},
		{name: "bad magic", data: append([]byte("XXXX"), valid[4:]...)},
		{name: "bad version", data: append([]byte("RCRS\xff"), valid[5:]...)},
		{name: "bad compression", data: append(append([]byte{}, valid[:5]...), append([]byte{0xfe}, valid[6:]...)...)},
		{name: "truncated payload", data: valid[:len(valid)-9]},
		{name: "trailing bytes", data: append(append([]byte{}, valid...), 0x00)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.data)
			require.Error(t, err)
		})
	}
}

func TestSnapshotInvalidCompressionOption(t *testing.T) {
	_, err := sampleSnapshot().Encode(WithCompression(format.CompressionType(0xfe)))
	require.ErrorIs(t, err, errs.ErrInvalidArgument)
}
