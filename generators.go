package mwebctx

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

// isQuadraticResidue reports whether y has a square root mod the field
// prime, i.e. whether the Jacobi symbol (y/p) is non-negative.
func isQuadraticResidue(y *secp256k1.FieldVal) bool {
	return new(secp256k1.FieldVal).SquareRootVal(y)
}

// generatorH returns a fresh copy of the Pedersen value generator H.
func generatorH() *secp256k1.JacobianPoint {
	var H secp256k1.JacobianPoint
	H.X.SetByteSlice(generatorHBytes[:32])
	H.Y.SetByteSlice(generatorHBytes[32:])
	H.Z.SetInt(1)
	return &H
}

// generatorJ returns a fresh copy of the switch-commitment generator J,
// decompressed from its fixed encoding.
func generatorJ() *secp256k1.JacobianPoint {
	var J secp256k1.JacobianPoint
	var alpha secp256k1.FieldVal
	J.X.SetByteSlice(generatorJBytes[1:])
	alpha.SquareVal(&J.X).Mul(&J.X).AddInt(7).Normalize()
	if !J.Y.SquareRootVal(&alpha) {
		panic("generatorJ: x is not on the curve")
	}
	J.Y.Normalize()
	if J.Y.IsOdd() != (generatorJBytes[0] == 0x03) {
		J.Y.Negate(1).Normalize()
	}
	J.Z.SetInt(1)
	return &J
}

// Shallue-van de Woestijne constants: c = sqrt(-3) mod p, d = (c-1)/2.
var svdwC, svdwD = func() (c, d secp256k1.FieldVal) {
	cb, _ := hex.DecodeString(
		"0a2d2ba93507f1df233770c2a797962cc61f6d15da14ecd47d8d27ae1cd5f852")
	db, _ := hex.DecodeString(
		"851695d49a83f8ef919bb86153cbcb16630fb68aed0a766a3ec693d68e6afa40")
	c.SetByteSlice(cb)
	d.SetByteSlice(db)
	return
}()

// shallueVanDeWoestijne maps a field element t to a curve point. The three
// candidate x-coordinates x1 = d - t*w, x2 = -x1 - 1, x3 = 1 + 1/w^2 with
// w = c*t/(1 + b + t^2) cover the curve; the first whose x^3 + b is a
// quadratic residue is selected and y negated when t is odd.
func shallueVanDeWoestijne(t *secp256k1.FieldVal) *secp256k1.JacobianPoint {
	var wd, w, tw, x1, x2, x3 secp256k1.FieldVal

	wd.SquareVal(t).AddInt(8).Normalize() // t^2 + b + 1, b = 7
	w.Set(&wd).Inverse()
	w.Mul(&svdwC).Mul(t).Normalize()

	tw.Mul2(t, &w).Negate(1)
	x1.Add2(&svdwD, &tw).Normalize()

	x2.Set(&x1).AddInt(1).Negate(2).Normalize()

	x3.SquareVal(&w).Inverse()
	x3.AddInt(1).Normalize()

	for _, x := range []*secp256k1.FieldVal{&x1, &x2, &x3} {
		var alpha, y secp256k1.FieldVal
		alpha.SquareVal(x).Mul(x).AddInt(7).Normalize()
		if !y.SquareRootVal(&alpha) {
			continue
		}
		y.Normalize()
		if t.IsOdd() {
			y.Negate(1).Normalize()
		}
		var p secp256k1.JacobianPoint
		p.X.Set(x)
		p.Y.Set(&y)
		p.Z.SetInt(1)
		return &p
	}
	panic("shallueVanDeWoestijne: no candidate x was on the curve")
}

// generatorGenerate derives a generator from a 32-byte key by hashing it
// into two field elements, mapping each to the curve and adding the results.
func generatorGenerate(key []byte) *secp256k1.JacobianPoint {
	var t secp256k1.FieldVal

	h := sha256.New()
	h.Write([]byte("1st generation: "))
	h.Write(key)
	t.SetByteSlice(h.Sum(nil))
	t.Normalize()
	p1 := shallueVanDeWoestijne(&t)

	h.Reset()
	h.Write([]byte("2nd generation: "))
	h.Write(key)
	t.SetByteSlice(h.Sum(nil))
	t.Normalize()
	p2 := shallueVanDeWoestijne(&t)

	var r secp256k1.JacobianPoint
	secp256k1.AddNonConst(p1, p2, &r)
	r.ToAffine()
	return &r
}

// getGenerators derives n auxiliary generators from an RFC6979 stream
// seeded with the base point coordinates.
func getGenerators(n int) []*secp256k1.JacobianPoint {
	drbg := NewRfc6979HmacSha256(baseGxGy[:])
	gens := make([]*secp256k1.JacobianPoint, n)
	var key [32]byte
	for i := range gens {
		drbg.Generate(key[:])
		gens[i] = generatorGenerate(key[:])
	}
	return gens
}

// rangeProofGenerators holds the 256 fixed generators of the range proof;
// index j carries G_j and index j+128 carries H_j for j < 64.
var rangeProofGenerators = getGenerators(256)
