package mwebctx

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

// Wire rules: multi-byte integers inside MWEB structures are big-endian;
// the outer Litecoin envelope keeps its native little-endian layout. Every
// vector and byte string is preceded by a canonical compact-size varint.

const (
	// maxBodyElements bounds the per-transaction vector sizes accepted by
	// the deserializer.
	maxBodyElements = 1 << 16

	// maxExtraDataSize bounds the optional extra-data fields.
	maxExtraDataSize = 1 << 16

	// maxScriptSize bounds pegout and envelope scripts.
	maxScriptSize = 1 << 16
)

func readFull(r io.Reader, buf []byte) error {
	if _, err := io.ReadFull(r, buf); err != nil {
		return ErrTruncatedStream
	}
	return nil
}

// VarIntSerializeSize returns the encoded size of a compact-size varint.
func VarIntSerializeSize(val uint64) int {
	switch {
	case val < 0xfd:
		return 1
	case val <= 0xffff:
		return 3
	case val <= 0xffffffff:
		return 5
	default:
		return 9
	}
}

// WriteVarInt writes a canonical compact-size varint.
func WriteVarInt(w io.Writer, val uint64) error {
	var buf [9]byte
	switch {
	case val < 0xfd:
		buf[0] = byte(val)
		_, err := w.Write(buf[:1])
		return err
	case val <= 0xffff:
		buf[0] = 0xfd
		binary.LittleEndian.PutUint16(buf[1:], uint16(val))
		_, err := w.Write(buf[:3])
		return err
	case val <= 0xffffffff:
		buf[0] = 0xfe
		binary.LittleEndian.PutUint32(buf[1:], uint32(val))
		_, err := w.Write(buf[:5])
		return err
	default:
		buf[0] = 0xff
		binary.LittleEndian.PutUint64(buf[1:], val)
		_, err := w.Write(buf[:9])
		return err
	}
}

// ReadVarInt reads a compact-size varint, rejecting non-canonical
// encodings.
func ReadVarInt(r io.Reader) (uint64, error) {
	var buf [8]byte
	if err := readFull(r, buf[:1]); err != nil {
		return 0, err
	}
	switch buf[0] {
	case 0xfd:
		if err := readFull(r, buf[:2]); err != nil {
			return 0, err
		}
		val := uint64(binary.LittleEndian.Uint16(buf[:2]))
		if val < 0xfd {
			return 0, ErrBadVarint
		}
		return val, nil
	case 0xfe:
		if err := readFull(r, buf[:4]); err != nil {
			return 0, err
		}
		val := uint64(binary.LittleEndian.Uint32(buf[:4]))
		if val <= 0xffff {
			return 0, ErrBadVarint
		}
		return val, nil
	case 0xff:
		if err := readFull(r, buf[:8]); err != nil {
			return 0, err
		}
		val := binary.LittleEndian.Uint64(buf[:8])
		if val <= 0xffffffff {
			return 0, ErrBadVarint
		}
		return val, nil
	default:
		return uint64(buf[0]), nil
	}
}

func writeVarBytes(w io.Writer, b []byte) error {
	if err := WriteVarInt(w, uint64(len(b))); err != nil {
		return err
	}
	_, err := w.Write(b)
	return err
}

func readVarBytes(r io.Reader, maxLen uint64, fieldName string) ([]byte, error) {
	count, err := ReadVarInt(r)
	if err != nil {
		return nil, err
	}
	if count > maxLen {
		return nil, fmt.Errorf("readVarBytes: %s length %d exceeds limit %d",
			fieldName, count, maxLen)
	}
	if count == 0 {
		return nil, nil
	}
	b := make([]byte, count)
	if err := readFull(r, b); err != nil {
		return nil, err
	}
	return b, nil
}

func writePublicKey(w io.Writer, p *PublicKey) error {
	_, err := w.Write(p[:])
	return err
}

func readPublicKey(r io.Reader) (*PublicKey, error) {
	var p PublicKey
	if err := readFull(r, p[:]); err != nil {
		return nil, err
	}
	if _, err := secp256k1.ParsePubKey(p[:]); err != nil {
		return nil, ErrBadPoint
	}
	return &p, nil
}

func readCommitment(r io.Reader) (*Commitment, error) {
	var c Commitment
	if err := readFull(r, c[:]); err != nil {
		return nil, err
	}
	if _, err := c.point(); err != nil {
		return nil, ErrBadPoint
	}
	return &c, nil
}

func readSignature(r io.Reader, s *Signature) error {
	return readFull(r, s[:])
}

// OutputMessage serialization	begin

func (m *OutputMessage) Serialize(w io.Writer) error {
	if _, err := w.Write([]byte{m.Features}); err != nil {
		return err
	}
	if m.Features&OutputMessageStandardFieldsFeatureBit > 0 {
		if err := writePublicKey(w, &m.KeyExchangePubKey); err != nil {
			return err
		}
		if _, err := w.Write([]byte{m.ViewTag}); err != nil {
			return err
		}
		if err := binary.Write(w, binary.BigEndian, m.MaskedValue); err != nil {
			return err
		}
		if _, err := w.Write(m.MaskedNonce[:]); err != nil {
			return err
		}
	}
	if m.Features&OutputMessageExtraDataFeatureBit > 0 {
		if err := writeVarBytes(w, m.ExtraData); err != nil {
			return err
		}
	}
	return nil
}

func (m *OutputMessage) Deserialize(r io.Reader) error {
	var feat [1]byte
	if err := readFull(r, feat[:]); err != nil {
		return err
	}
	if feat[0]&^byte(OutputMessageAllFeatureBits) != 0 {
		return fmt.Errorf("OutputMessage.Deserialize: unknown feature bits %#02x: %w",
			feat[0], ErrUnknownFlag)
	}
	m.Features = feat[0]
	if m.Features&OutputMessageStandardFieldsFeatureBit > 0 {
		ke, err := readPublicKey(r)
		if err != nil {
			return err
		}
		m.KeyExchangePubKey = *ke
		if err := readFull(r, feat[:]); err != nil {
			return err
		}
		m.ViewTag = feat[0]
		if err := binary.Read(r, binary.BigEndian, &m.MaskedValue); err != nil {
			return ErrTruncatedStream
		}
		if err := readFull(r, m.MaskedNonce[:]); err != nil {
			return err
		}
	}
	if m.Features&OutputMessageExtraDataFeatureBit > 0 {
		extra, err := readVarBytes(r, maxExtraDataSize, "OutputMessage.ExtraData")
		if err != nil {
			return err
		}
		m.ExtraData = extra
	}
	return nil
}

// Output serialization

func (o *Output) Serialize(w io.Writer) error {
	if _, err := w.Write(o.Commitment[:]); err != nil {
		return err
	}
	if err := writePublicKey(w, &o.SenderPubKey); err != nil {
		return err
	}
	if err := writePublicKey(w, &o.ReceiverPubKey); err != nil {
		return err
	}
	if err := o.Message.Serialize(w); err != nil {
		return err
	}
	if err := writeVarBytes(w, o.RangeProof[:]); err != nil {
		return err
	}
	_, err := w.Write(o.Signature[:])
	return err
}

func (o *Output) Deserialize(r io.Reader) error {
	commit, err := readCommitment(r)
	if err != nil {
		return err
	}
	o.Commitment = *commit
	sender, err := readPublicKey(r)
	if err != nil {
		return err
	}
	o.SenderPubKey = *sender
	receiver, err := readPublicKey(r)
	if err != nil {
		return err
	}
	o.ReceiverPubKey = *receiver
	if err := o.Message.Deserialize(r); err != nil {
		return err
	}
	proofLen, err := ReadVarInt(r)
	if err != nil {
		return err
	}
	if proofLen > RangeProofSize {
		return ErrOversizedProof
	}
	if proofLen != RangeProofSize {
		return ErrMalformedProof
	}
	o.RangeProof = &RangeProof{}
	if err := readFull(r, o.RangeProof[:]); err != nil {
		return err
	}
	return readSignature(r, &o.Signature)
}

// Input serialization

func (i *Input) Serialize(w io.Writer) error {
	if _, err := w.Write([]byte{i.Features}); err != nil {
		return err
	}
	if _, err := w.Write(i.OutputId[:]); err != nil {
		return err
	}
	if _, err := w.Write(i.Commitment[:]); err != nil {
		return err
	}
	if i.Features&InputStealthKeyFeatureBit > 0 {
		if err := writePublicKey(w, i.InputPubKey); err != nil {
			return err
		}
	}
	if err := writePublicKey(w, &i.OutputPubKey); err != nil {
		return err
	}
	if i.Features&InputExtraDataFeatureBit > 0 {
		if err := writeVarBytes(w, i.ExtraData); err != nil {
			return err
		}
	}
	_, err := w.Write(i.Signature[:])
	return err
}

func (i *Input) Deserialize(r io.Reader) error {
	var feat [1]byte
	if err := readFull(r, feat[:]); err != nil {
		return err
	}
	if feat[0]&^byte(InputAllFeatureBits) != 0 {
		return fmt.Errorf("Input.Deserialize: unknown feature bits %#02x: %w",
			feat[0], ErrUnknownFlag)
	}
	i.Features = feat[0]
	if err := readFull(r, i.OutputId[:]); err != nil {
		return err
	}
	commit, err := readCommitment(r)
	if err != nil {
		return err
	}
	i.Commitment = *commit
	if i.Features&InputStealthKeyFeatureBit > 0 {
		if i.InputPubKey, err = readPublicKey(r); err != nil {
			return err
		}
	}
	outputPubKey, err := readPublicKey(r)
	if err != nil {
		return err
	}
	i.OutputPubKey = *outputPubKey
	if i.Features&InputExtraDataFeatureBit > 0 {
		if i.ExtraData, err = readVarBytes(r, maxExtraDataSize, "Input.ExtraData"); err != nil {
			return err
		}
	}
	return readSignature(r, &i.Signature)
}

// Kernel serialization

// serializeMessageFields writes everything the excess key signs: the
// feature byte and the conditional metadata fields, without excess and
// signature.
func (k *Kernel) serializeMessageFields(w io.Writer) error {
	if _, err := w.Write([]byte{k.Features}); err != nil {
		return err
	}
	if k.Features&KernelFeeFeatureBit > 0 {
		if err := binary.Write(w, binary.BigEndian, k.Fee); err != nil {
			return err
		}
	}
	if k.Features&KernelPeginFeatureBit > 0 {
		if err := binary.Write(w, binary.BigEndian, k.Pegin); err != nil {
			return err
		}
	}
	if k.Features&KernelPegoutFeatureBit > 0 {
		if err := WriteVarInt(w, uint64(len(k.Pegouts))); err != nil {
			return err
		}
		for _, p := range k.Pegouts {
			if err := binary.Write(w, binary.BigEndian, p.Value); err != nil {
				return err
			}
			if err := writeVarBytes(w, p.PkScript); err != nil {
				return err
			}
		}
	}
	if k.Features&KernelHeightLockFeatureBit > 0 {
		if err := binary.Write(w, binary.BigEndian, k.LockHeight); err != nil {
			return err
		}
	}
	if k.Features&KernelStealthExcessFeatureBit > 0 {
		if err := writePublicKey(w, &k.StealthExcess); err != nil {
			return err
		}
	}
	if k.Features&KernelExtraDataFeatureBit > 0 {
		if err := writeVarBytes(w, k.ExtraData); err != nil {
			return err
		}
	}
	return nil
}

func (k *Kernel) Serialize(w io.Writer) error {
	if err := k.serializeMessageFields(w); err != nil {
		return err
	}
	if _, err := w.Write(k.Excess[:]); err != nil {
		return err
	}
	_, err := w.Write(k.Signature[:])
	return err
}

func (k *Kernel) Deserialize(r io.Reader) error {
	var feat [1]byte
	if err := readFull(r, feat[:]); err != nil {
		return err
	}
	if feat[0]&^byte(KernelAllFeatureBits) != 0 {
		return fmt.Errorf("Kernel.Deserialize: unknown feature bits %#02x: %w",
			feat[0], ErrUnknownFlag)
	}
	k.Features = feat[0]
	if k.Features&KernelFeeFeatureBit > 0 {
		if err := binary.Read(r, binary.BigEndian, &k.Fee); err != nil {
			return ErrTruncatedStream
		}
	}
	if k.Features&KernelPeginFeatureBit > 0 {
		if err := binary.Read(r, binary.BigEndian, &k.Pegin); err != nil {
			return ErrTruncatedStream
		}
	}
	if k.Features&KernelPegoutFeatureBit > 0 {
		count, err := ReadVarInt(r)
		if err != nil {
			return err
		}
		if count > maxBodyElements {
			return fmt.Errorf("Kernel.Deserialize: %d pegouts exceeds limit", count)
		}
		if count == 0 {
			return fmt.Errorf("Kernel.Deserialize: pegout feature bit with no pegouts: %w",
				ErrUnknownFlag)
		}
		k.Pegouts = make([]*Pegout, count)
		for i := range k.Pegouts {
			p := &Pegout{}
			if err := binary.Read(r, binary.BigEndian, &p.Value); err != nil {
				return ErrTruncatedStream
			}
			if p.PkScript, err = readVarBytes(r, maxScriptSize, "Pegout.PkScript"); err != nil {
				return err
			}
			k.Pegouts[i] = p
		}
	}
	if k.Features&KernelHeightLockFeatureBit > 0 {
		if err := binary.Read(r, binary.BigEndian, &k.LockHeight); err != nil {
			return ErrTruncatedStream
		}
	}
	if k.Features&KernelStealthExcessFeatureBit > 0 {
		stealth, err := readPublicKey(r)
		if err != nil {
			return err
		}
		k.StealthExcess = *stealth
	}
	if k.Features&KernelExtraDataFeatureBit > 0 {
		extra, err := readVarBytes(r, maxExtraDataSize, "Kernel.ExtraData")
		if err != nil {
			return err
		}
		k.ExtraData = extra
	}
	excess, err := readCommitment(r)
	if err != nil {
		return err
	}
	k.Excess = *excess
	return readSignature(r, &k.Signature)
}

// TxBody serialization

func (b *TxBody) Serialize(w io.Writer) error {
	if err := WriteVarInt(w, uint64(len(b.Inputs))); err != nil {
		return err
	}
	for _, input := range b.Inputs {
		if err := input.Serialize(w); err != nil {
			return err
		}
	}
	if err := WriteVarInt(w, uint64(len(b.Outputs))); err != nil {
		return err
	}
	for _, output := range b.Outputs {
		if err := output.Serialize(w); err != nil {
			return err
		}
	}
	if err := WriteVarInt(w, uint64(len(b.Kernels))); err != nil {
		return err
	}
	for _, kernel := range b.Kernels {
		if err := kernel.Serialize(w); err != nil {
			return err
		}
	}
	return nil
}

func (b *TxBody) Deserialize(r io.Reader) error {
	count, err := ReadVarInt(r)
	if err != nil {
		return err
	}
	if count > maxBodyElements {
		return fmt.Errorf("TxBody.Deserialize: %d inputs exceeds limit", count)
	}
	if count > 0 {
		b.Inputs = make([]*Input, count)
		for i := range b.Inputs {
			b.Inputs[i] = &Input{}
			if err := b.Inputs[i].Deserialize(r); err != nil {
				return err
			}
		}
	}
	if count, err = ReadVarInt(r); err != nil {
		return err
	}
	if count > maxBodyElements {
		return fmt.Errorf("TxBody.Deserialize: %d outputs exceeds limit", count)
	}
	if count > 0 {
		b.Outputs = make([]*Output, count)
		for i := range b.Outputs {
			b.Outputs[i] = &Output{}
			if err := b.Outputs[i].Deserialize(r); err != nil {
				return err
			}
		}
	}
	if count, err = ReadVarInt(r); err != nil {
		return err
	}
	if count > maxBodyElements {
		return fmt.Errorf("TxBody.Deserialize: %d kernels exceeds limit", count)
	}
	if count > 0 {
		b.Kernels = make([]*Kernel, count)
		for i := range b.Kernels {
			b.Kernels[i] = &Kernel{}
			if err := b.Kernels[i].Deserialize(r); err != nil {
				return err
			}
		}
	}
	return nil
}

// Transaction serialization

func (t *Transaction) Serialize(w io.Writer) error {
	if _, err := w.Write(t.KernelOffset[:]); err != nil {
		return err
	}
	if _, err := w.Write(t.StealthOffset[:]); err != nil {
		return err
	}
	return t.Body.Serialize(w)
}

func (t *Transaction) Deserialize(r io.Reader) error {
	if err := readFull(r, t.KernelOffset[:]); err != nil {
		return err
	}
	if err := readFull(r, t.StealthOffset[:]); err != nil {
		return err
	}
	t.Body = &TxBody{}
	return t.Body.Deserialize(r)
}

// ParseTransaction decodes a bare MWEB transaction from raw bytes,
// requiring the whole input to be consumed.
func ParseTransaction(raw []byte) (*Transaction, error) {
	r := bytes.NewReader(raw)
	tx := &Transaction{}
	if err := tx.Deserialize(r); err != nil {
		return nil, err
	}
	if r.Len() != 0 {
		return nil, fmt.Errorf("ParseTransaction: %d trailing bytes", r.Len())
	}
	return tx, nil
}

// Outer Litecoin envelope

// TxIn is a non-MWEB transaction input.
type TxIn struct {
	PrevOutHash     [32]byte
	PrevOutIndex    uint32
	SignatureScript []byte
	Witness         [][]byte
	Sequence        uint32
}

// TxOut is a non-MWEB transaction output.
type TxOut struct {
	Value    int64
	PkScript []byte
}

// RawTransaction is the outer Litecoin transaction: a standard transaction
// optionally extended by the witness flag 0x01 and the MWEB flag 0x08.
type RawTransaction struct {
	Version int32
	// Flags records the extension flag byte, zero for a legacy layout. A
	// set MWEB bit with a zero MwebVersion is the integrating (HogEx)
	// transaction, which carries no payload.
	Flags       byte
	TxIns       []*TxIn
	TxOuts      []*TxOut
	MwebVersion byte
	Mweb        *Transaction
	LockTime    uint32
}

// ParseRawTransaction decodes an outer transaction, requiring the whole
// input to be consumed.
func ParseRawTransaction(raw []byte) (*RawTransaction, error) {
	r := bytes.NewReader(raw)
	tx := &RawTransaction{}
	if err := tx.Deserialize(r); err != nil {
		return nil, err
	}
	if r.Len() != 0 {
		return nil, fmt.Errorf("ParseRawTransaction: %d trailing bytes", r.Len())
	}
	return tx, nil
}

func (t *RawTransaction) Deserialize(r *bytes.Reader) error {
	if err := binary.Read(r, binary.LittleEndian, &t.Version); err != nil {
		return ErrTruncatedStream
	}

	var flags byte
	marker, err := r.ReadByte()
	if err != nil {
		return ErrTruncatedStream
	}
	if marker == 0x00 {
		if flags, err = r.ReadByte(); err != nil {
			return ErrTruncatedStream
		}
		if flags == 0 || flags&^byte(txFlagWitness|txFlagMweb) != 0 {
			return fmt.Errorf("RawTransaction.Deserialize: flag byte %#02x: %w",
				flags, ErrUnknownFlag)
		}
	} else if err := r.UnreadByte(); err != nil {
		return err
	}
	t.Flags = flags

	count, err := ReadVarInt(r)
	if err != nil {
		return err
	}
	if count > maxBodyElements {
		return fmt.Errorf("RawTransaction.Deserialize: %d inputs exceeds limit", count)
	}
	if count > 0 {
		t.TxIns = make([]*TxIn, count)
	}
	for i := range t.TxIns {
		in := &TxIn{}
		if err := readFull(r, in.PrevOutHash[:]); err != nil {
			return err
		}
		if err := binary.Read(r, binary.LittleEndian, &in.PrevOutIndex); err != nil {
			return ErrTruncatedStream
		}
		if in.SignatureScript, err = readVarBytes(r, maxScriptSize, "TxIn.SignatureScript"); err != nil {
			return err
		}
		if err := binary.Read(r, binary.LittleEndian, &in.Sequence); err != nil {
			return ErrTruncatedStream
		}
		t.TxIns[i] = in
	}

	if count, err = ReadVarInt(r); err != nil {
		return err
	}
	if count > maxBodyElements {
		return fmt.Errorf("RawTransaction.Deserialize: %d outputs exceeds limit", count)
	}
	if count > 0 {
		t.TxOuts = make([]*TxOut, count)
	}
	for i := range t.TxOuts {
		out := &TxOut{}
		if err := binary.Read(r, binary.LittleEndian, &out.Value); err != nil {
			return ErrTruncatedStream
		}
		if out.PkScript, err = readVarBytes(r, maxScriptSize, "TxOut.PkScript"); err != nil {
			return err
		}
		t.TxOuts[i] = out
	}

	if flags&txFlagWitness > 0 {
		for _, in := range t.TxIns {
			items, err := ReadVarInt(r)
			if err != nil {
				return err
			}
			if items > maxBodyElements {
				return fmt.Errorf("RawTransaction.Deserialize: %d witness items exceeds limit", items)
			}
			if items > 0 {
				in.Witness = make([][]byte, items)
			}
			for j := range in.Witness {
				if in.Witness[j], err = readVarBytes(r, maxScriptSize, "TxIn.Witness"); err != nil {
					return err
				}
			}
		}
	}

	if flags&txFlagMweb > 0 {
		if t.MwebVersion, err = r.ReadByte(); err != nil {
			return ErrTruncatedStream
		}
		// A zero version marks the integrating (HogEx) transaction,
		// which carries no MWEB payload of its own.
		if t.MwebVersion != 0 {
			t.Mweb = &Transaction{}
			if err := t.Mweb.Deserialize(r); err != nil {
				return err
			}
		}
	}

	if err := binary.Read(r, binary.LittleEndian, &t.LockTime); err != nil {
		return ErrTruncatedStream
	}
	return nil
}

func (t *RawTransaction) Serialize(w io.Writer) error {
	if err := binary.Write(w, binary.LittleEndian, t.Version); err != nil {
		return err
	}

	flags := t.Flags
	for _, in := range t.TxIns {
		if len(in.Witness) > 0 {
			flags |= txFlagWitness
		}
	}
	if t.Mweb != nil || t.MwebVersion != 0 {
		flags |= txFlagMweb
	}
	if flags != 0 {
		if _, err := w.Write([]byte{0x00, flags}); err != nil {
			return err
		}
	}

	if err := WriteVarInt(w, uint64(len(t.TxIns))); err != nil {
		return err
	}
	for _, in := range t.TxIns {
		if _, err := w.Write(in.PrevOutHash[:]); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, in.PrevOutIndex); err != nil {
			return err
		}
		if err := writeVarBytes(w, in.SignatureScript); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, in.Sequence); err != nil {
			return err
		}
	}

	if err := WriteVarInt(w, uint64(len(t.TxOuts))); err != nil {
		return err
	}
	for _, out := range t.TxOuts {
		if err := binary.Write(w, binary.LittleEndian, out.Value); err != nil {
			return err
		}
		if err := writeVarBytes(w, out.PkScript); err != nil {
			return err
		}
	}

	if flags&txFlagWitness > 0 {
		for _, in := range t.TxIns {
			if err := WriteVarInt(w, uint64(len(in.Witness))); err != nil {
				return err
			}
			for _, item := range in.Witness {
				if err := writeVarBytes(w, item); err != nil {
					return err
				}
			}
		}
	}

	if flags&txFlagMweb > 0 {
		version := t.MwebVersion
		if t.Mweb != nil && version == 0 {
			version = 1
		}
		if _, err := w.Write([]byte{version}); err != nil {
			return err
		}
		if t.Mweb != nil {
			if err := t.Mweb.Serialize(w); err != nil {
				return err
			}
		}
	}

	return binary.Write(w, binary.LittleEndian, t.LockTime)
}
