package types

import "github.com/permachain/core/crypto"

// BloomByteLength/BitLength define a 2048-bit per-block log bloom, the
// `log_bloom` field of a header.
const (
	BloomByteLength = 256
	BloomBitLength  = 8 * BloomByteLength
)

type Bloom [BloomByteLength]byte

// Add ORs the bloom bits of data into b, used once per log topic/address
// when building a receipt's log_bloom.
func (b *Bloom) Add(data []byte) {
	h := crypto.Keccak256(data)
	for i := 0; i < 3; i++ {
		bit := (uint(h[2*i])<<8 + uint(h[2*i+1])) & 2047
		b[BloomByteLength-1-bit/8] |= 1 << (bit % 8)
	}
}

// Test reports whether data's bits are all set in b — a possibility, not a
// certainty, the caller must still confirm against the real log.
func (b Bloom) Test(data []byte) bool {
	var probe Bloom
	probe.Add(data)
	for i := range b {
		if b[i]&probe[i] != probe[i] {
			return false
		}
	}
	return true
}

// OrInto ORs other's bits into b, used to aggregate per-height blooms into
// bloom-group levels.
func (b *Bloom) OrInto(other Bloom) {
	for i := range b {
		b[i] |= other[i]
	}
}
