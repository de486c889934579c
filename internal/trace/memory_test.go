package trace

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReadWriteWordRoundTrip(t *testing.T) {
	ft := newFakeTracer()

	require.NoError(t, WriteWord(ft, 0x1000, 0xdeadbeef))
	v, err := ReadWord(ft, 0x1000)
	require.NoError(t, err)
	require.Equal(t, uint64(0xdeadbeef), v)
}

func TestWriteWordDoesNotTouchNeighboringBytes(t *testing.T) {
	ft := newFakeTracer()

	require.NoError(t, WriteWord(ft, 0x2000, 0x1111111111111111))
	require.NoError(t, WriteWord(ft, 0x2008, 0x2222222222222222))

	v, err := ReadWord(ft, 0x2000)
	require.NoError(t, err)
	require.Equal(t, uint64(0x1111111111111111), v)
}
