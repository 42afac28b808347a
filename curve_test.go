package mwebctx

import (
	"math/big"
	"testing"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

// The square-root predicate must agree with the Jacobi symbol (y/p).
func TestIsQuadraticResidueMatchesJacobi(t *testing.T) {
	p := new(big.Int).SetBytes([]byte{
		0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
		0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
		0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
		0xff, 0xff, 0xff, 0xfe, 0xff, 0xff, 0xfc, 0x2f,
	})

	drbg := NewRfc6979HmacSha256([]byte("quadratic residue test vectors"))
	var buf [32]byte
	for i := 0; i < 100; i++ {
		drbg.Generate(buf[:])
		val := new(big.Int).SetBytes(buf[:])
		val.Mod(val, p)
		if val.Sign() == 0 {
			continue
		}

		var fe secp256k1.FieldVal
		fe.SetByteSlice(val.Bytes())
		fe.Normalize()

		want := big.Jacobi(val, p) >= 0
		if got := isQuadraticResidue(&fe); got != want {
			t.Fatalf("value %x: predicate %v, jacobi %v", buf, got, want)
		}
	}
}
