package mwebctx

import (
	"encoding/binary"
	"errors"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"

	"github.com/mwebsuite/mwebctx/internal/hasher"
)

// Commitment is a Pedersen commitment v*H + r*G in the 33-byte commitment
// encoding: prefix 0x08 when y is a quadratic residue, 0x09 otherwise,
// followed by the x coordinate.
type Commitment [33]byte

func newCommitmentPoint(blind *secp256k1.ModNScalar, value uint64) *secp256k1.JacobianPoint {
	var vs secp256k1.ModNScalar
	var bj, rj secp256k1.JacobianPoint
	vs.SetByteSlice(binary.BigEndian.AppendUint64(nil, value))
	secp256k1.ScalarBaseMultNonConst(blind, &bj)
	secp256k1.ScalarMultNonConst(&vs, generatorH(), &rj)
	secp256k1.AddNonConst(&bj, &rj, &rj)
	rj.ToAffine()
	return &rj
}

func commitmentFromPoint(p *secp256k1.JacobianPoint) *Commitment {
	c := &Commitment{8}
	p.X.PutBytesUnchecked(c[1:])
	if !isQuadraticResidue(&p.Y) {
		c[0]++
	}
	return c
}

// NewCommitment computes v*H + r*G with the blinding factor used as-is.
func NewCommitment(blind *BlindingFactor, value uint64) *Commitment {
	return commitmentFromPoint(newCommitmentPoint(blind.scalar(), value))
}

// SwitchCommit commits to value under the switch-blinded factor.
func SwitchCommit(blind *BlindingFactor, value uint64) *Commitment {
	return NewCommitment(BlindSwitch(blind, value), value)
}

// BlindSwitch deterministically rebinds r to the committed value:
// r' = r + Blake3(commit(v, r) || (v*J + r*G)).
func BlindSwitch(blind *BlindingFactor, value uint64) *BlindingFactor {
	var vs secp256k1.ModNScalar
	var vj, rg secp256k1.JacobianPoint
	vs.SetByteSlice(binary.BigEndian.AppendUint64(nil, value))
	secp256k1.ScalarMultNonConst(&vs, generatorJ(), &vj)
	secp256k1.ScalarBaseMultNonConst(blind.scalar(), &rg)
	secp256k1.AddNonConst(&vj, &rg, &rg)

	h := hasher.New()
	h.Write(NewCommitment(blind, value)[:])
	h.Write(toPubKey(&rg)[:])
	sum := h.Sum()

	var s secp256k1.ModNScalar
	s.SetByteSlice(sum[:])
	return blindFromScalar(s.Add(blind.scalar()))
}

// AddBlindingFactors returns the sum of the positive factors minus the sum
// of the negative ones, mod the group order.
func AddBlindingFactors(pos, neg []*BlindingFactor) *BlindingFactor {
	var sum secp256k1.ModNScalar
	for _, b := range pos {
		sum.Add(b.scalar())
	}
	for _, b := range neg {
		sum.Add(b.scalar().Negate())
	}
	return blindFromScalar(&sum)
}

var errBadCommitment = errors.New("commitment x is not on the curve")

// point decompresses the commitment; the stored parity bit selects between
// the quadratic-residue root and its negation.
func (c *Commitment) point() (*secp256k1.JacobianPoint, error) {
	var q secp256k1.JacobianPoint
	var alpha secp256k1.FieldVal
	if c[0]&0xFE != 8 {
		return nil, errBadCommitment
	}
	if q.X.SetByteSlice(c[1:]) {
		return nil, errBadCommitment
	}
	alpha.SquareVal(&q.X).Mul(&q.X).AddInt(7).Normalize()
	if !q.Y.SquareRootVal(&alpha) {
		return nil, errBadCommitment
	}
	q.Y.Normalize()
	if c[0]&1 > 0 {
		q.Y.Negate(1).Normalize()
	}
	q.Z.SetInt(1)
	return &q, nil
}

// PubKey reinterprets the commitment point as a public key. It panics on a
// commitment that did not come from a validated source.
func (c *Commitment) PubKey() *PublicKey {
	q, err := c.point()
	if err != nil {
		panic("Commitment.PubKey: " + err.Error())
	}
	return toPubKey(q)
}
