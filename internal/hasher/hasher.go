package hasher

import (
	"lukechampine.com/blake3"
)

// This package provides the tagged Blake3 construction used for all
// domain-separated hashing in the MWEB protocol. A Hasher optionally
// commits to a single-byte domain tag before any data is written.

const OutputBytesLen = 32

// Tag is the single-byte domain separator written ahead of the hashed data.
// The tag set is fixed by the protocol; no other tags may be introduced.
type Tag byte

const (
	TagAddress   Tag = 'A' // per-index spend-key derivation
	TagBlind     Tag = 'B' // output blinding factor from shared secret
	TagDerive    Tag = 'D' // ECDH shared-secret derivation
	TagNonce     Tag = 'N' // output nonce from sender key
	TagOutKey    Tag = 'O' // one-time output key tweak
	TagSendKey   Tag = 'S' // ephemeral send-key derivation
	TagViewTag   Tag = 'T' // one-byte output view tag
	TagNonceMask Tag = 'X' // nonce mask
	TagValueMask Tag = 'Y' // value mask
)

// Hasher wraps a 32-byte-output Blake3 state.
type Hasher struct {
	h *blake3.Hasher
}

// New returns an untagged Hasher.
func New() *Hasher {
	return &Hasher{h: blake3.New(OutputBytesLen, nil)}
}

// NewTagged returns a Hasher whose state commits to the given domain tag.
func NewTagged(tag Tag) *Hasher {
	hs := New()
	hs.h.Write([]byte{byte(tag)})
	return hs
}

func (hs *Hasher) Write(p []byte) (int, error) {
	return hs.h.Write(p)
}

// Sum returns the 32-byte digest of everything written so far.
func (hs *Hasher) Sum() [OutputBytesLen]byte {
	var out [OutputBytesLen]byte
	hs.h.Sum(out[:0])
	return out
}

// Hashed is a convenience for the common hash-of-one-shot-data case.
func Hashed(tag Tag, data ...[]byte) [OutputBytesLen]byte {
	hs := NewTagged(tag)
	for _, d := range data {
		hs.Write(d)
	}
	return hs.Sum()
}
