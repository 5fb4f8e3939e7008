package wire

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestU16RoundTrip(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	buf := make([]byte, 2)
	for i := 0; i < 1000; i++ {
		u := uint16(r.Intn(1 << 16))
		WriteU16LE(buf, u)
		require.Equal(t, u, ReadU16LE(buf))
		WriteU16BE(buf, u)
		require.Equal(t, u, ReadU16BE(buf))
	}
}

func TestU32RoundTrip(t *testing.T) {
	r := rand.New(rand.NewSource(2))
	buf := make([]byte, 4)
	for i := 0; i < 1000; i++ {
		u := r.Uint32()
		WriteU32LE(buf, u)
		require.Equal(t, u, ReadU32LE(buf))
		WriteU32BE(buf, u)
		require.Equal(t, u, ReadU32BE(buf))
	}
}

func TestU32Boundaries(t *testing.T) {
	buf := make([]byte, 4)
	for _, u := range []uint32{0, 1, 0xFFFFFFFF, 0x80000000} {
		WriteU32LE(buf, u)
		require.Equal(t, u, ReadU32LE(buf))
		WriteU32BE(buf, u)
		require.Equal(t, u, ReadU32BE(buf))
	}
}
