package mwebctx

import (
	"bytes"
	"errors"
	"reflect"
	"testing"
)

func TestVarIntRoundTrip(t *testing.T) {
	values := []uint64{0, 1, 0xfc, 0xfd, 0xffff, 0x10000, 0xffffffff,
		0x100000000, ^uint64(0)}
	for _, val := range values {
		var buf bytes.Buffer
		if err := WriteVarInt(&buf, val); err != nil {
			t.Fatal(err)
		}
		if buf.Len() != VarIntSerializeSize(val) {
			t.Fatalf("value %d: size %d != predicted %d",
				val, buf.Len(), VarIntSerializeSize(val))
		}
		got, err := ReadVarInt(&buf)
		if err != nil {
			t.Fatal(err)
		}
		if got != val {
			t.Fatalf("round trip %d -> %d", val, got)
		}
	}
}

func TestVarIntRejectsNonCanonical(t *testing.T) {
	encodings := [][]byte{
		{0xfd, 0x01, 0x00},             // 1 as 3 bytes
		{0xfd, 0xfc, 0x00},             // 0xfc as 3 bytes
		{0xfe, 0xff, 0xff, 0x00, 0x00}, // 0xffff as 5 bytes
		{0xff, 0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}, // 1 as 9 bytes
	}
	for _, enc := range encodings {
		if _, err := ReadVarInt(bytes.NewReader(enc)); !errors.Is(err, ErrBadVarint) {
			t.Fatalf("encoding %x: expected ErrBadVarint, got %v", enc, err)
		}
	}
}

func TestVarIntTruncated(t *testing.T) {
	if _, err := ReadVarInt(bytes.NewReader([]byte{0xfd, 0x01})); !errors.Is(err, ErrTruncatedStream) {
		t.Fatalf("expected ErrTruncatedStream, got %v", err)
	}
}

func testTransaction(t *testing.T) *Transaction {
	t.Helper()
	w, err := NewWallet(make([]byte, 32), 0)
	if err != nil {
		t.Fatal(err)
	}
	tx, err := w.BuildPegin(1000000, 100, counterRand())
	if err != nil {
		t.Fatal(err)
	}
	return tx
}

func TestOutputSerializationRoundTrip(t *testing.T) {
	tx := testTransaction(t)
	output := tx.Body.Outputs[0]

	var buf bytes.Buffer
	if err := output.Serialize(&buf); err != nil {
		t.Fatal(err)
	}
	var got Output
	if err := got.Deserialize(bytes.NewReader(buf.Bytes())); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(&got, output) {
		t.Fatal("output round trip mismatch")
	}
}

func TestKernelSerializationRoundTrip(t *testing.T) {
	fee, pegin := uint64(1000), uint64(0)
	lockHeight := int32(120000)
	kernel := CreateKernel(testBlind(0x21), testBlind(0x22), &fee, &pegin,
		[]*Pegout{{Value: 5000, PkScript: []byte{0x51}}}, &lockHeight)

	var buf bytes.Buffer
	if err := kernel.Serialize(&buf); err != nil {
		t.Fatal(err)
	}
	var got Kernel
	if err := got.Deserialize(bytes.NewReader(buf.Bytes())); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(&got, kernel) {
		t.Fatal("kernel round trip mismatch")
	}
	if got.Features&KernelPeginFeatureBit != 0 {
		t.Fatal("zero pegin must not set the pegin feature bit")
	}
}

func TestInputSerializationRoundTrip(t *testing.T) {
	coin := &Coin{
		Blind:    testBlind(0x31),
		Value:    777,
		OutputId: Hash{1, 2, 3},
		SpendKey: testNonce(0x32),
	}
	input := CreateInput(coin, testNonce(0x33))

	var buf bytes.Buffer
	if err := input.Serialize(&buf); err != nil {
		t.Fatal(err)
	}
	var got Input
	if err := got.Deserialize(bytes.NewReader(buf.Bytes())); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(&got, input) {
		t.Fatal("input round trip mismatch")
	}
}

func TestTransactionSerializationRoundTrip(t *testing.T) {
	tx := testTransaction(t)

	var buf bytes.Buffer
	if err := tx.Serialize(&buf); err != nil {
		t.Fatal(err)
	}
	got, err := ParseTransaction(buf.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, tx) {
		t.Fatal("transaction round trip mismatch")
	}
}

func TestTransactionRejectsTrailingBytes(t *testing.T) {
	tx := testTransaction(t)
	var buf bytes.Buffer
	tx.Serialize(&buf)
	buf.WriteByte(0x00)
	if _, err := ParseTransaction(buf.Bytes()); err == nil {
		t.Fatal("trailing byte accepted")
	}
}

func TestOutputRejectsUnknownFeatureBits(t *testing.T) {
	tx := testTransaction(t)
	output := tx.Body.Outputs[0]
	var buf bytes.Buffer
	output.Serialize(&buf)

	raw := buf.Bytes()
	raw[99] |= 0x80 // message feature byte follows the three keys
	var got Output
	if err := got.Deserialize(bytes.NewReader(raw)); !errors.Is(err, ErrUnknownFlag) {
		t.Fatalf("expected ErrUnknownFlag, got %v", err)
	}
}

func TestKernelRejectsUnknownFeatureBits(t *testing.T) {
	fee := uint64(5)
	kernel := CreateKernel(testBlind(0x41), nil, &fee, nil, nil, nil)
	var buf bytes.Buffer
	kernel.Serialize(&buf)

	raw := buf.Bytes()
	raw[0] |= 0x40
	var got Kernel
	if err := got.Deserialize(bytes.NewReader(raw)); !errors.Is(err, ErrUnknownFlag) {
		t.Fatalf("expected ErrUnknownFlag, got %v", err)
	}
}

func TestOutputRejectsOversizedProof(t *testing.T) {
	tx := testTransaction(t)
	output := tx.Body.Outputs[0]

	var buf bytes.Buffer
	buf.Write(output.Commitment[:])
	buf.Write(output.SenderPubKey[:])
	buf.Write(output.ReceiverPubKey[:])
	output.Message.Serialize(&buf)
	WriteVarInt(&buf, RangeProofSize+1)
	buf.Write(make([]byte, RangeProofSize+1))
	buf.Write(output.Signature[:])

	var got Output
	if err := got.Deserialize(bytes.NewReader(buf.Bytes())); !errors.Is(err, ErrOversizedProof) {
		t.Fatalf("expected ErrOversizedProof, got %v", err)
	}
}

func TestOutputRejectsBadPoint(t *testing.T) {
	tx := testTransaction(t)
	output := tx.Body.Outputs[0]
	var buf bytes.Buffer
	output.Serialize(&buf)

	raw := buf.Bytes()
	raw[33] = 0x05 // invalid pubkey prefix for the sender key
	var got Output
	if err := got.Deserialize(bytes.NewReader(raw)); !errors.Is(err, ErrBadPoint) {
		t.Fatalf("expected ErrBadPoint, got %v", err)
	}
}

func TestRawTransactionMwebRoundTrip(t *testing.T) {
	mweb := testTransaction(t)
	tx := &RawTransaction{
		Version: 2,
		TxOuts: []*TxOut{
			{Value: 50000, PkScript: []byte{0x00, 0x14, 0xaa}},
		},
		MwebVersion: 1,
		Mweb:        mweb,
		LockTime:    0,
	}

	var buf bytes.Buffer
	if err := tx.Serialize(&buf); err != nil {
		t.Fatal(err)
	}
	got, err := ParseRawTransaction(buf.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	if got.Mweb == nil {
		t.Fatal("mweb payload lost in round trip")
	}
	if !reflect.DeepEqual(got.Mweb, mweb) {
		t.Fatal("mweb payload mismatch")
	}
	if got.Flags&txFlagMweb == 0 {
		t.Fatal("mweb flag not recorded")
	}
}

func TestRawTransactionHogEx(t *testing.T) {
	tx := &RawTransaction{
		Version:  2,
		Flags:    txFlagMweb,
		TxIns:    []*TxIn{{Sequence: 0xffffffff}},
		TxOuts:   []*TxOut{{Value: 1, PkScript: []byte{0x51}}},
		LockTime: 0,
	}
	var buf bytes.Buffer
	if err := tx.Serialize(&buf); err != nil {
		t.Fatal(err)
	}
	got, err := ParseRawTransaction(buf.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	if got.Mweb != nil || got.MwebVersion != 0 {
		t.Fatal("HogEx must carry no MWEB payload")
	}
	if got.Flags&txFlagMweb == 0 {
		t.Fatal("mweb flag lost")
	}

	var again bytes.Buffer
	if err := got.Serialize(&again); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(buf.Bytes(), again.Bytes()) {
		t.Fatal("HogEx reserialization differs")
	}
}

func TestRawTransactionRejectsUnknownFlag(t *testing.T) {
	raw := []byte{
		0x02, 0x00, 0x00, 0x00, // version
		0x00, 0x04, // marker + unknown flag bit
	}
	if _, err := ParseRawTransaction(raw); !errors.Is(err, ErrUnknownFlag) {
		t.Fatalf("expected ErrUnknownFlag, got %v", err)
	}
}

func TestRawTransactionLegacyLayout(t *testing.T) {
	tx := &RawTransaction{
		Version: 1,
		TxIns: []*TxIn{{
			PrevOutIndex:    1,
			SignatureScript: []byte{0x51},
			Sequence:        0xfffffffe,
		}},
		TxOuts:   []*TxOut{{Value: 99, PkScript: []byte{0x52}}},
		LockTime: 101,
	}
	var buf bytes.Buffer
	if err := tx.Serialize(&buf); err != nil {
		t.Fatal(err)
	}
	got, err := ParseRawTransaction(buf.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, tx) {
		t.Fatal("legacy transaction round trip mismatch")
	}
}
