package mwebctx

import (
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
)

// Sign produces a BIP-340 Schnorr signature over a 32-byte message hash.
func Sign(key *SecretKey, msgHash []byte) Signature {
	priv, _ := btcec.PrivKeyFromBytes(key[:])
	sig, err := schnorr.Sign(priv, msgHash)
	if err != nil {
		panic("Sign: " + err.Error())
	}
	var s Signature
	copy(s[:], sig.Serialize())
	return s
}

// Verify checks the signature against the x-only form of pub.
func (s *Signature) Verify(pub *PublicKey, msgHash []byte) bool {
	pk, err := schnorr.ParsePubKey(pub[1:])
	if err != nil {
		return false
	}
	sig, err := schnorr.ParseSignature(s[:])
	if err != nil {
		return false
	}
	return sig.Verify(msgHash, pk)
}
