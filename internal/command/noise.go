package command

import (
	"crypto/rand"
	"encoding/binary"
)

// noise range bounds, per the reference implementation's RANGE_BASE/RANGE_TOP.
const (
	noiseRangeBase = 10001
	noiseRangeTop  = 32766
	noiseRangeSize = noiseRangeTop - noiseRangeBase
)

// noiseSource produces the per-frame filler word mixed into every move/cut
// payload. The plotter does not check this value; it exists only to vary
// the ciphertext of otherwise-repetitive frames.
type noiseSource struct {
	fixed   bool
	current uint32
}

// newNoiseSource returns a CSPRNG-backed source, unless seed is nonzero, in
// which case it returns a deterministic source starting at seed — used to
// produce reproducible ciphertexts in tests.
func newNoiseSource(seed uint32) *noiseSource {
	if seed == 0 {
		return &noiseSource{}
	}
	return &noiseSource{fixed: true, current: seed}
}

// next draws one value in [10001, 32766]. In fixed mode the sequence is
// seed, seed+1, seed+2, ... each reduced into range (the low 16 bits of
// value-10001, modulo the range size, added to 10001); in random mode every
// call reads fresh entropy.
func (n *noiseSource) next() uint32 {
	if n.fixed {
		v := n.current
		n.current++
		return noiseRangeBase + uint32(uint16(v-noiseRangeBase))%noiseRangeSize
	}
	var b [2]byte
	if _, err := rand.Read(b[:]); err != nil {
		// crypto/rand failing means the platform CSPRNG is unusable;
		// fall back to a fixed but non-zero value rather than panicking
		// mid-cut.
		return noiseRangeBase
	}
	u := binary.LittleEndian.Uint16(b[:])
	return noiseRangeBase + uint32(u)%noiseRangeSize
}
