package mwebctx

import (
	"bytes"
	"sort"
)

// OutputMessage carries the fields a receiver needs to rewind an output.
type OutputMessage struct {
	Features          byte
	KeyExchangePubKey PublicKey
	ViewTag           byte
	MaskedValue       uint64
	MaskedNonce       [16]byte
	ExtraData         []byte
}

// Output is a confidential MWEB output.
type Output struct {
	Commitment     Commitment
	SenderPubKey   PublicKey
	ReceiverPubKey PublicKey
	Message        OutputMessage
	RangeProof     *RangeProof
	Signature      Signature
}

// Input spends a previous output by ID.
type Input struct {
	Features     byte
	OutputId     Hash
	Commitment   Commitment
	InputPubKey  *PublicKey // present with the stealth-key feature bit
	OutputPubKey PublicKey
	ExtraData    []byte
	Signature    Signature
}

// Pegout requests value to leave the extension block to a Litecoin script.
type Pegout struct {
	Value    uint64
	PkScript []byte
}

// Kernel carries the signed excess commitment and the transaction's
// pegin/pegout and fee metadata.
type Kernel struct {
	Features      byte
	Fee           uint64
	Pegin         uint64
	Pegouts       []*Pegout
	LockHeight    int32
	StealthExcess PublicKey
	ExtraData     []byte
	Excess        Commitment
	Signature     Signature
}

// TxBody is the three sorted component vectors of an MWEB transaction.
type TxBody struct {
	Inputs  []*Input
	Outputs []*Output
	Kernels []*Kernel
}

// Transaction is a full MWEB transaction.
type Transaction struct {
	KernelOffset  BlindingFactor
	StealthOffset BlindingFactor
	Body          *TxBody
}

// Hash returns the Blake3 digest of the serialized output, used as the
// output's chain-wide ID.
func (o *Output) Hash() *Hash {
	var buf bytes.Buffer
	o.Serialize(&buf)
	return blake3Hash(buf.Bytes())
}

// Hash returns the Blake3 digest of the serialized message.
func (m *OutputMessage) Hash() *Hash {
	var buf bytes.Buffer
	m.Serialize(&buf)
	return blake3Hash(buf.Bytes())
}

// RangeProofHash returns the Blake3 digest of the range proof bytes.
func (o *Output) RangeProofHash() *Hash {
	return blake3Hash(o.RangeProof[:])
}

// SignatureMessage is the hash the sender signs over the output.
func (o *Output) SignatureMessage() *Hash {
	h := newBlake3()
	h.Write(o.Commitment[:])
	h.Write(o.SenderPubKey[:])
	h.Write(o.ReceiverPubKey[:])
	h.Write(o.Message.Hash()[:])
	h.Write(o.RangeProofHash()[:])
	return blake3Sum(h)
}

func (i *Input) Hash() *Hash {
	var buf bytes.Buffer
	i.Serialize(&buf)
	return blake3Hash(buf.Bytes())
}

// SignatureMessage is the hash signed by the input's aggregated key.
func (i *Input) SignatureMessage() *Hash {
	h := newBlake3()
	h.Write([]byte{i.Features})
	h.Write(i.OutputId[:])
	return blake3Sum(h)
}

func (k *Kernel) Hash() *Hash {
	var buf bytes.Buffer
	k.Serialize(&buf)
	return blake3Hash(buf.Bytes())
}

// MessageHash is the hash signed by the kernel's excess key: the serialized
// kernel without excess and signature.
func (k *Kernel) MessageHash() *Hash {
	var buf bytes.Buffer
	k.serializeMessageFields(&buf)
	return blake3Hash(buf.Bytes())
}

// Sort orders each component vector by hash, the canonical body order.
func (b *TxBody) Sort() {
	sort.Slice(b.Inputs, func(i, j int) bool {
		return bytes.Compare(b.Inputs[i].Hash()[:], b.Inputs[j].Hash()[:]) < 0
	})
	sort.Slice(b.Outputs, func(i, j int) bool {
		return bytes.Compare(b.Outputs[i].Hash()[:], b.Outputs[j].Hash()[:]) < 0
	})
	sort.Slice(b.Kernels, func(i, j int) bool {
		return bytes.Compare(b.Kernels[i].Hash()[:], b.Kernels[j].Hash()[:]) < 0
	})
}

// TotalFee sums the fees of every kernel.
func (b *TxBody) TotalFee() (fee uint64) {
	for _, k := range b.Kernels {
		fee += k.Fee
	}
	return
}

// TotalPegin sums the pegin amounts of every kernel.
func (b *TxBody) TotalPegin() (pegin uint64) {
	for _, k := range b.Kernels {
		pegin += k.Pegin
	}
	return
}

// TotalPegout sums the pegout amounts of every kernel.
func (b *TxBody) TotalPegout() (pegout uint64) {
	for _, k := range b.Kernels {
		for _, p := range k.Pegouts {
			pegout += p.Value
		}
	}
	return
}
