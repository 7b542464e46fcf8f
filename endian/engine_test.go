package endian

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLittleEndianEngine(t *testing.T) {
	engine := GetLittleEndianEngine()
	require.Equal(t, binary.LittleEndian, engine)

	buf := engine.AppendUint64(nil, math.Float64bits(2.5))
	require.Len(t, buf, 8)
	require.Equal(t, 2.5, math.Float64frombits(engine.Uint64(buf)))
}

func TestBigEndianEngine(t *testing.T) {
	engine := GetBigEndianEngine()
	require.Equal(t, binary.BigEndian, engine)

	buf := engine.AppendUint32(nil, 0xdeadbeef)
	require.Equal(t, []byte{0xde, 0xad, 0xbe, 0xef}, buf)
	require.Equal(t, uint32(0xdeadbeef), engine.Uint32(buf))
}

func TestAppendRoundTrip(t *testing.T) {
	engine := GetLittleEndianEngine()

	var buf []byte
	buf = engine.AppendUint16(buf, 42)
	buf = engine.AppendUint32(buf, 7)
	buf = engine.AppendUint64(buf, math.Float64bits(-1.25))

	require.Equal(t, uint16(42), engine.Uint16(buf[0:2]))
	require.Equal(t, uint32(7), engine.Uint32(buf[2:6]))
	require.Equal(t, -1.25, math.Float64frombits(engine.Uint64(buf[6:14])))
}
