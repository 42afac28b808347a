package mwebctx

import (
	"testing"
)

func testBlind(fill byte) *BlindingFactor {
	b := &BlindingFactor{}
	for i := 8; i < 32; i++ {
		b[i] = fill
	}
	return b
}

func TestCommitmentHomomorphism(t *testing.T) {
	b1, b2 := testBlind(0x11), testBlind(0x22)
	v1, v2 := uint64(5000), uint64(1234567)

	sum := NewCommitment(b1.Add(b2), v1+v2)
	lhs := NewCommitment(b1, v1).PubKey().Add(NewCommitment(b2, v2).PubKey())
	if *lhs != *sum.PubKey() {
		t.Fatal("commitments are not additively homomorphic")
	}
}

func TestCommitmentPubKeyRoundTrip(t *testing.T) {
	for _, value := range []uint64{0, 1, 1 << 40, ^uint64(0)} {
		c := NewCommitment(testBlind(0x33), value)
		pub := c.PubKey()
		if !pub.Valid() {
			t.Fatalf("value %d: commitment pubkey is invalid", value)
		}
		// The x coordinate must carry over unchanged.
		for i := 1; i < 33; i++ {
			if pub[i] != c[i] {
				t.Fatalf("value %d: x coordinate changed at byte %d", value, i)
			}
		}
	}
}

func TestCommitmentPrefix(t *testing.T) {
	c := NewCommitment(testBlind(0x44), 99)
	if c[0] != 8 && c[0] != 9 {
		t.Fatalf("unexpected commitment prefix %#02x", c[0])
	}
	if _, err := c.point(); err != nil {
		t.Fatalf("commitment does not decompress: %v", err)
	}
}

func TestBlindSwitchDeterministic(t *testing.T) {
	blind := testBlind(0x55)
	a := BlindSwitch(blind, 1000)
	b := BlindSwitch(blind, 1000)
	if *a != *b {
		t.Fatal("blind switch is not deterministic")
	}
	if *a == *blind {
		t.Fatal("blind switch did not re-randomize the blind")
	}
	c := BlindSwitch(blind, 1001)
	if *a == *c {
		t.Fatal("blind switch does not bind to the value")
	}
}

func TestSwitchCommitConsistent(t *testing.T) {
	blind := testBlind(0x66)
	value := uint64(424242)
	direct := NewCommitment(BlindSwitch(blind, value), value)
	if *SwitchCommit(blind, value) != *direct {
		t.Fatal("SwitchCommit disagrees with explicit switch-then-commit")
	}
}

func TestAddBlindingFactors(t *testing.T) {
	b1, b2, b3 := testBlind(1), testBlind(2), testBlind(3)

	sum := AddBlindingFactors([]*BlindingFactor{b1, b2}, []*BlindingFactor{b3})
	manual := b1.Add(b2).Sub(b3)
	if *sum != *manual {
		t.Fatal("blind sum disagrees with pairwise add/sub")
	}

	zero := AddBlindingFactors([]*BlindingFactor{b1}, []*BlindingFactor{b1})
	if *zero != (BlindingFactor{}) {
		t.Fatal("x - x did not cancel")
	}

	empty := AddBlindingFactors(nil, nil)
	if *empty != (BlindingFactor{}) {
		t.Fatal("empty sum is not zero")
	}
}

func TestCommitmentBindsBlind(t *testing.T) {
	if *NewCommitment(testBlind(7), 10) == *NewCommitment(testBlind(8), 10) {
		t.Fatal("different blinds committed identically")
	}
	if *NewCommitment(testBlind(7), 10) == *NewCommitment(testBlind(7), 11) {
		t.Fatal("different values committed identically")
	}
}
