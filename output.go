package mwebctx

import (
	"bytes"
	"encoding/binary"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"

	"github.com/mwebsuite/mwebctx/internal/hasher"
)

// Coin is a wallet-owned output reconstructed by rewinding, or recorded at
// build time for outputs the wallet created itself.
type Coin struct {
	// AddressIndex is the key-chain index the output pays, possibly one
	// of the reserved pseudo-indices.
	AddressIndex uint32
	// Blind is the pre-switch blinding factor; nil when unknown.
	Blind *BlindingFactor
	// Value in satoshi.
	Value uint64
	// OutputId identifies the output on chain.
	OutputId Hash
	// Address the output pays, when known.
	Address *StealthAddress
	// SharedSecret is the derived ECDH secret t; nil for coins whose
	// output the wallet built without one.
	SharedSecret *SecretKey
	// SpendKey is the output's one-time spend key; only derivable for
	// ordinary wallet indices.
	SpendKey *SecretKey
	// SenderKey is the ephemeral key used when this wallet built the
	// output.
	SenderKey *SecretKey
	// Spent marks coins consumed by a built transaction.
	Spent bool
}

// Recipient is an (amount, stealth address) pair an output is built for.
type Recipient struct {
	Value   uint64
	Address *StealthAddress
}

// OutputMask carries the blinding factor and the value and nonce masks
// derived from an output's shared secret.
type OutputMask struct {
	Blind     BlindingFactor
	valueMask uint64
	nonceMask [16]byte
}

// OutputMaskFromShared derives the canonical mask set from the shared
// secret t.
func OutputMaskFromShared(t *SecretKey) *OutputMask {
	m := &OutputMask{}

	var s secp256k1.ModNScalar
	blind := hasher.Hashed(hasher.TagBlind, t[:])
	s.SetByteSlice(blind[:])
	m.Blind = *blindFromScalar(&s)

	v := hasher.Hashed(hasher.TagValueMask, t[:])
	m.valueMask = binary.BigEndian.Uint64(v[:8])

	x := hasher.Hashed(hasher.TagNonceMask, t[:])
	copy(m.nonceMask[:], x[:16])
	return m
}

// MaskValue XORs the value with the value mask, in both directions.
func (m *OutputMask) MaskValue(value uint64) uint64 {
	return value ^ m.valueMask
}

// MaskNonce XORs the nonce with the nonce mask, in both directions.
func (m *OutputMask) MaskNonce(nonce *[16]byte) (masked [16]byte) {
	for i := range masked {
		masked[i] = nonce[i] ^ m.nonceMask[i]
	}
	return
}

// sendKeyFor derives the ephemeral send scalar s = Blake3_S(A, B, v, n).
func sendKeyFor(addr *StealthAddress, value uint64, nonce *[16]byte) *SecretKey {
	h := hasher.NewTagged(hasher.TagSendKey)
	h.Write(addr.A()[:])
	h.Write(addr.B()[:])
	binary.Write(h, binary.LittleEndian, value)
	h.Write(nonce[:])
	sum := h.Sum()
	return (*SecretKey)(&sum)
}

// CreateOutput builds an unsigned output for the recipient, deriving the
// 128-bit output nonce from the ephemeral sender key. It returns the
// output, its pre-switch blinding factor and the shared secret t.
func CreateOutput(recipient *Recipient, senderKey *SecretKey) (
	output *Output, blind *BlindingFactor, shared *SecretKey) {

	// n = first 16 bytes of Blake3_N(sender key)
	nsum := hasher.Hashed(hasher.TagNonce, senderKey[:])
	var n [16]byte
	copy(n[:], nsum[:16])

	output, blind, shared = createOutput(recipient, &n)
	output.SenderPubKey = *senderKey.PubKey()
	return
}

func createOutput(recipient *Recipient, n *[16]byte) (
	*Output, *BlindingFactor, *SecretKey) {

	// Only standard fields are produced.
	features := byte(OutputMessageStandardFieldsFeatureBit)

	// Unique sending key 's' = H(T_send, A, B, v, n)
	s := sendKeyFor(recipient.Address, recipient.Value, n)

	// Shared secret 't' = H(T_derive, s*A)
	sA := recipient.Address.A().Mul(s)
	tsum := hasher.Hashed(hasher.TagDerive, sA[:])
	t := (*SecretKey)(&tsum)

	// One-time public key for the receiver 'Ko' = H(T_outkey, t)*B
	osum := hasher.Hashed(hasher.TagOutKey, t[:])
	Ko := recipient.Address.B().Mul((*SecretKey)(&osum))

	// Key exchange public key 'Ke' = s*B
	Ke := recipient.Address.B().Mul(s)

	// Blinding factor and masked value and nonce.
	mask := OutputMaskFromShared(t)
	blind := BlindSwitch(&mask.Blind, recipient.Value)
	mv := mask.MaskValue(recipient.Value)
	mn := mask.MaskNonce(n)

	// Commitment 'C' = r*G + v*H
	outputCommit := NewCommitment(blind, recipient.Value)

	// View tag is the first byte of H(T_tag, sA).
	viewTag := hasher.Hashed(hasher.TagViewTag, sA[:])[0]

	return &Output{
		Commitment:     *outputCommit,
		ReceiverPubKey: *Ko,
		Message: OutputMessage{
			Features:          features,
			KeyExchangePubKey: *Ke,
			ViewTag:           viewTag,
			MaskedValue:       mv,
			MaskedNonce:       mn,
		},
	}, &mask.Blind, t
}

// SignOutput attaches the range proof over the output's value and the
// sender signature. The shared secret doubles as the proof's rewind nonce
// so the receiver can later decrypt the value from -mu.
func SignOutput(output *Output, value uint64, blind *BlindingFactor,
	shared, senderKey, privateNonce *SecretKey) {

	var messageBuf bytes.Buffer
	output.Message.Serialize(&messageBuf)

	var proofMessage [20]byte
	output.RangeProof = NewRangeProof(value, BlindSwitch(blind, value),
		shared, privateNonce, proofMessage, messageBuf.Bytes())

	h := newBlake3()
	h.Write(output.Commitment[:])
	h.Write(output.SenderPubKey[:])
	h.Write(output.ReceiverPubKey[:])
	h.Write(output.Message.Hash()[:])
	h.Write(output.RangeProofHash()[:])
	output.Signature = Sign(senderKey, blake3Sum(h)[:])
}

// rewindOutput attempts to claim an output for the holder of scanKey. A
// (nil, nil) return means the output is simply not ours; every mismatch on
// the way is an expected skip, not an error.
func rewindOutput(output *Output, scanKey *SecretKey,
	lookup func(*PublicKey) (uint32, bool)) (*Coin, error) {

	if output.Message.Features&OutputMessageStandardFieldsFeatureBit == 0 {
		return nil, nil
	}

	// Cheap view-tag filter over the raw ECDH secret a*Ke.
	sharedRaw := output.Message.KeyExchangePubKey.Mul(scanKey)
	if hasher.Hashed(hasher.TagViewTag, sharedRaw[:])[0] != output.Message.ViewTag {
		return nil, nil
	}

	tsum := hasher.Hashed(hasher.TagDerive, sharedRaw[:])
	t := (*SecretKey)(&tsum)

	// Recover B_i = H(T_outkey, t)^-1 * Ko and find its index.
	osum := hasher.Hashed(hasher.TagOutKey, t[:])
	tweak := (*SecretKey)(&osum)
	Bi := output.ReceiverPubKey.Div(tweak)
	index, ok := lookup(Bi)
	if !ok {
		return nil, nil
	}

	// Unmask value and nonce and check them against the commitment.
	mask := OutputMaskFromShared(t)
	value := mask.MaskValue(output.Message.MaskedValue)
	nonce := mask.MaskNonce(&output.Message.MaskedNonce)
	if *SwitchCommit(&mask.Blind, value) != output.Commitment {
		return nil, nil
	}

	// Re-derive the send key and require Ke = s*B_i.
	Ai := Bi.Mul(scanKey)
	addr := &StealthAddress{Scan: Ai, Spend: Bi}
	s := sendKeyFor(addr, value, &nonce)
	if *Bi.Mul(s) != output.Message.KeyExchangePubKey {
		return nil, nil
	}

	return &Coin{
		AddressIndex: index,
		Blind:        &mask.Blind,
		Value:        value,
		OutputId:     *output.Hash(),
		Address:      addr,
		SharedSecret: t,
	}, nil
}
