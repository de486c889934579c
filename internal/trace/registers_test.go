package trace

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetSetRoundTrip(t *testing.T) {
	ft := newFakeTracer()

	require.NoError(t, Set(ft, RAX, 0x2a))
	v, err := Get(ft, RAX)
	require.NoError(t, err)
	require.Equal(t, uint64(0x2a), v)

	require.NoError(t, Set(ft, RIP, 0x401130))
	v, err = Get(ft, RIP)
	require.NoError(t, err)
	require.Equal(t, uint64(0x401130), v)
}

func TestGetByDwarf(t *testing.T) {
	ft := newFakeTracer()
	require.NoError(t, Set(ft, RBP, 0x7ffff0))

	v, err := GetByDwarf(ft, 6) // rbp's DWARF register number
	require.NoError(t, err)
	require.Equal(t, uint64(0x7ffff0), v)

	_, err = GetByDwarf(ft, 200)
	require.Error(t, err)
}

func TestIDOfUnknownName(t *testing.T) {
	_, err := IDOf("not-a-register")
	require.Error(t, err)
}

func TestAllNamesCoversOrigRax(t *testing.T) {
	names := AllNames()
	require.Contains(t, names, "orig_rax")
	require.Contains(t, names, "rip")
}
