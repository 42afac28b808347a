package mwebctx

import (
	"testing"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

func pointOnCurve(p *secp256k1.JacobianPoint) bool {
	var lhs, rhs secp256k1.FieldVal
	lhs.SquareVal(&p.Y).Normalize()
	rhs.SquareVal(&p.X).Mul(&p.X).AddInt(7).Normalize()
	return lhs.Equals(&rhs)
}

func TestFixedGeneratorsOnCurve(t *testing.T) {
	if !pointOnCurve(generatorH()) {
		t.Error("generator H is not on the curve")
	}
	if !pointOnCurve(generatorJ()) {
		t.Error("generator J is not on the curve")
	}
}

func TestGeneratorJMatchesEncoding(t *testing.T) {
	J := generatorJ()
	var x secp256k1.FieldVal
	x.SetByteSlice(generatorJBytes[1:])
	if !J.X.Equals(&x) {
		t.Error("generator J x-coordinate drifted from its encoding")
	}
	if J.Y.IsOdd() != (generatorJBytes[0] == 0x03) {
		t.Error("generator J y parity disagrees with its encoding")
	}
}

// The map constants are pinned down by algebra: c^2 = -3 and 2d + 1 = c.
func TestShallueVanDeWoestijneConstants(t *testing.T) {
	var csq, want secp256k1.FieldVal
	csq.SquareVal(&svdwC).Normalize()
	want.SetInt(3).Negate(1).Normalize()
	if !csq.Equals(&want) {
		t.Error("c is not a square root of -3")
	}

	var twoD secp256k1.FieldVal
	twoD.Set(&svdwD).Add(&svdwD).AddInt(1).Normalize()
	var c secp256k1.FieldVal
	c.Set(&svdwC).Normalize()
	if !twoD.Equals(&c) {
		t.Error("d is not (c-1)/2")
	}
}

func TestShallueVanDeWoestijneMapsToCurve(t *testing.T) {
	for i := byte(1); i < 20; i++ {
		var fe secp256k1.FieldVal
		fe.SetByteSlice([]byte{i, 0x5a, i * 3})
		p := shallueVanDeWoestijne(&fe)
		if !pointOnCurve(p) {
			t.Fatalf("input %d mapped off the curve", i)
		}
	}
}

func TestRangeProofGenerators(t *testing.T) {
	if len(rangeProofGenerators) != 256 {
		t.Fatalf("expected 256 generators, have %d", len(rangeProofGenerators))
	}
	seen := make(map[[32]byte]int)
	for i, g := range rangeProofGenerators {
		if !pointOnCurve(g) {
			t.Fatalf("generator %d is off the curve", i)
		}
		x := g.X.Bytes()
		if j, ok := seen[*x]; ok {
			t.Fatalf("generators %d and %d share an x-coordinate", j, i)
		}
		seen[*x] = i
	}
}

func TestGetGeneratorsDeterministic(t *testing.T) {
	again := getGenerators(8)
	for i, g := range again {
		if !g.X.Equals(&rangeProofGenerators[i].X) ||
			!g.Y.Equals(&rangeProofGenerators[i].Y) {
			t.Fatalf("generator %d differs between derivations", i)
		}
	}
}

func TestGeneratorGenerateDeterministic(t *testing.T) {
	key := make([]byte, 32)
	key[0] = 0x42
	p1 := generatorGenerate(key)
	p2 := generatorGenerate(key)
	if !p1.X.Equals(&p2.X) || !p1.Y.Equals(&p2.Y) {
		t.Fatal("generatorGenerate is not deterministic")
	}
	key[31] = 1
	p3 := generatorGenerate(key)
	if p1.X.Equals(&p3.X) {
		t.Fatal("distinct keys produced the same generator")
	}
}
