package mwebctx

import (
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

type (
	// SecretKey is a scalar mod the secp256k1 group order, big-endian.
	SecretKey [32]byte

	// PublicKey is a compressed secp256k1 point.
	PublicKey [33]byte

	// BlindingFactor is a Pedersen blinding scalar, big-endian.
	BlindingFactor [32]byte

	// Hash is a 32-byte Blake3 digest.
	Hash [32]byte

	// Signature is a 64-byte BIP-340 Schnorr signature.
	Signature [64]byte
)

func (k *SecretKey) scalar() *secp256k1.ModNScalar {
	s := &secp256k1.ModNScalar{}
	if s.SetBytes((*[32]byte)(k)) > 0 {
		panic("SecretKey.scalar: overflowed")
	}
	return s
}

func secretKeyFromScalar(s *secp256k1.ModNScalar) *SecretKey {
	k := SecretKey(s.Bytes())
	return &k
}

func (k *SecretKey) Add(key *SecretKey) *SecretKey {
	return secretKeyFromScalar(k.scalar().Add(key.scalar()))
}

func (k *SecretKey) Sub(key *SecretKey) *SecretKey {
	return secretKeyFromScalar(k.scalar().Add(key.scalar().Negate()))
}

func (k *SecretKey) Mul(key *SecretKey) *SecretKey {
	return secretKeyFromScalar(k.scalar().Mul(key.scalar()))
}

// Inverse returns k^-1 mod the group order.
func (k *SecretKey) Inverse() *SecretKey {
	return secretKeyFromScalar(k.scalar().InverseNonConst())
}

func (k *SecretKey) PubKey() *PublicKey {
	var j secp256k1.JacobianPoint
	secp256k1.ScalarBaseMultNonConst(k.scalar(), &j)
	return toPubKey(&j)
}

// Zero clears the key material in place.
func (k *SecretKey) Zero() {
	for i := range k {
		k[i] = 0
	}
}

func (b *BlindingFactor) scalar() *secp256k1.ModNScalar {
	s := &secp256k1.ModNScalar{}
	if s.SetBytes((*[32]byte)(b)) > 0 {
		panic("BlindingFactor.scalar: overflowed")
	}
	return s
}

func blindFromScalar(s *secp256k1.ModNScalar) *BlindingFactor {
	b := BlindingFactor(s.Bytes())
	return &b
}

func (b *BlindingFactor) Add(blind *BlindingFactor) *BlindingFactor {
	return blindFromScalar(b.scalar().Add(blind.scalar()))
}

func (b *BlindingFactor) Sub(blind *BlindingFactor) *BlindingFactor {
	return blindFromScalar(b.scalar().Add(blind.scalar().Negate()))
}

// Zero clears the blinding factor in place.
func (b *BlindingFactor) Zero() {
	for i := range b {
		b[i] = 0
	}
}

func toPubKey(j *secp256k1.JacobianPoint) *PublicKey {
	j.ToAffine()
	p := &PublicKey{0x02}
	if j.Y.IsOdd() {
		p[0] = 0x03
	}
	j.X.PutBytesUnchecked(p[1:])
	return p
}

// point decompresses the key. Callers on wire paths must have validated
// the encoding via deserialization first; an invalid point panics here.
func (p *PublicKey) point() *secp256k1.JacobianPoint {
	pub, err := secp256k1.ParsePubKey(p[:])
	if err != nil {
		panic("PublicKey.point: " + err.Error())
	}
	var j secp256k1.JacobianPoint
	pub.AsJacobian(&j)
	return &j
}

// Valid reports whether the key is a parseable compressed point.
func (p *PublicKey) Valid() bool {
	_, err := secp256k1.ParsePubKey(p[:])
	return err == nil
}

func (p *PublicKey) Add(key *PublicKey) *PublicKey {
	var r secp256k1.JacobianPoint
	secp256k1.AddNonConst(p.point(), key.point(), &r)
	return toPubKey(&r)
}

func (p *PublicKey) mul(s *secp256k1.ModNScalar) *PublicKey {
	var r secp256k1.JacobianPoint
	secp256k1.ScalarMultNonConst(s, p.point(), &r)
	return toPubKey(&r)
}

func (p *PublicKey) Mul(key *SecretKey) *PublicKey {
	return p.mul(key.scalar())
}

// Div multiplies by the scalar inverse of key.
func (p *PublicKey) Div(key *SecretKey) *PublicKey {
	return p.mul(key.scalar().InverseNonConst())
}

// StealthAddress is the pair (scan pubkey A_i, spend pubkey B_i) with
// A_i = a*B_i for the wallet's private scan scalar a.
type StealthAddress struct {
	Scan  *PublicKey
	Spend *PublicKey
}

// A returns the scan pubkey.
func (sa *StealthAddress) A() *PublicKey { return sa.Scan }

// B returns the spend pubkey.
func (sa *StealthAddress) B() *PublicKey { return sa.Spend }

func (sa *StealthAddress) Equal(other *StealthAddress) bool {
	return *sa.Scan == *other.Scan && *sa.Spend == *other.Spend
}
