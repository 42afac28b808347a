package mwebctx

import (
	"bytes"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

// ValidateTransaction fully checks a transaction: every range proof and
// signature in the body, the kernel balance and the stealth balance.
func ValidateTransaction(tx *Transaction) error {
	if err := ValidateTransactionBody(tx.Body); err != nil {
		return err
	}
	if err := ValidateKernelSums(tx); err != nil {
		return err
	}
	return ValidateStealthSum(tx)
}

// ValidateTransactionBody checks each component in isolation: output range
// proofs and sender signatures, input signatures and kernel signatures.
func ValidateTransactionBody(body *TxBody) error {
	for _, output := range body.Outputs {
		if err := validateOutput(output); err != nil {
			return err
		}
	}
	for _, input := range body.Inputs {
		if err := validateInput(input); err != nil {
			return err
		}
	}
	for _, kernel := range body.Kernels {
		if err := validateKernel(kernel); err != nil {
			return err
		}
	}
	return nil
}

func validateOutput(output *Output) error {
	if _, err := output.Commitment.point(); err != nil {
		return ErrNotOnCurve
	}
	if !output.SenderPubKey.Valid() || !output.ReceiverPubKey.Valid() {
		return ErrNotOnCurve
	}
	if output.RangeProof == nil {
		return ErrMalformedProof
	}
	var messageBuf bytes.Buffer
	output.Message.Serialize(&messageBuf)
	if err := output.RangeProof.Verify(&output.Commitment, messageBuf.Bytes()); err != nil {
		return fmt.Errorf("output %x: %w", output.Hash()[:4], err)
	}
	if !output.Signature.Verify(&output.SenderPubKey, output.SignatureMessage()[:]) {
		return fmt.Errorf("output %x sender signature: %w",
			output.Hash()[:4], ErrSignatureInvalid)
	}
	return nil
}

func validateInput(input *Input) error {
	if _, err := input.Commitment.point(); err != nil {
		return ErrNotOnCurve
	}
	if !input.OutputPubKey.Valid() {
		return ErrNotOnCurve
	}
	sigPubKey := &input.OutputPubKey
	if input.Features&InputStealthKeyFeatureBit > 0 {
		if input.InputPubKey == nil || !input.InputPubKey.Valid() {
			return ErrNotOnCurve
		}
		// k_agg*G = K_i + Blake3(K_i || K_o)*K_o
		h := newBlake3()
		h.Write(input.InputPubKey[:])
		h.Write(input.OutputPubKey[:])
		keyHash := (*SecretKey)(blake3Sum(h))
		sigPubKey = input.OutputPubKey.Mul(keyHash).Add(input.InputPubKey)
	}
	if !input.Signature.Verify(sigPubKey, input.SignatureMessage()[:]) {
		return fmt.Errorf("input %x: %w", input.OutputId[:4], ErrSignatureInvalid)
	}
	return nil
}

func validateKernel(kernel *Kernel) error {
	excessPubKey := kernel.Excess.PubKey()
	sigPubKey := excessPubKey
	if kernel.Features&KernelStealthExcessFeatureBit > 0 {
		if !kernel.StealthExcess.Valid() {
			return ErrNotOnCurve
		}
		// e'*G = Blake3(E || S)*E + S
		h := newBlake3()
		h.Write(excessPubKey[:])
		h.Write(kernel.StealthExcess[:])
		keyHash := (*SecretKey)(blake3Sum(h))
		sigPubKey = excessPubKey.Mul(keyHash).Add(&kernel.StealthExcess)
	}
	if !kernel.Signature.Verify(sigPubKey, kernel.MessageHash()[:]) {
		return fmt.Errorf("kernel %x: %w", kernel.Hash()[:4], ErrSignatureInvalid)
	}
	return nil
}

func addCommitment(acc *secp256k1.JacobianPoint, c *Commitment, negate bool) error {
	p, err := c.point()
	if err != nil {
		return ErrNotOnCurve
	}
	if negate {
		p.Y.Negate(1).Normalize()
	}
	secp256k1.AddNonConst(acc, p, acc)
	return nil
}

func addPubKey(acc *secp256k1.JacobianPoint, pub *PublicKey, negate bool) error {
	if !pub.Valid() {
		return ErrNotOnCurve
	}
	p := pub.point()
	if negate {
		p.Y.Negate(1).Normalize()
	}
	secp256k1.AddNonConst(acc, p, acc)
	return nil
}

// ValidateKernelSums checks the balance identity
// sum(C_out) - sum(C_in) = sum(E) + offset*G + (pegin - fee - pegout)*H.
func ValidateKernelSums(tx *Transaction) error {
	var acc secp256k1.JacobianPoint
	for _, output := range tx.Body.Outputs {
		if err := addCommitment(&acc, &output.Commitment, false); err != nil {
			return err
		}
	}
	for _, input := range tx.Body.Inputs {
		if err := addCommitment(&acc, &input.Commitment, true); err != nil {
			return err
		}
	}
	for _, kernel := range tx.Body.Kernels {
		if err := addCommitment(&acc, &kernel.Excess, true); err != nil {
			return err
		}
	}

	var offset, net secp256k1.ModNScalar
	offset.NegateVal(tx.KernelOffset.scalar())
	var tmpj secp256k1.JacobianPoint
	secp256k1.ScalarBaseMultNonConst(&offset, &tmpj)
	secp256k1.AddNonConst(&acc, &tmpj, &acc)

	// net = fee + pegout - pegin, added on the H axis.
	setScalarFromUint64(&net, tx.Body.TotalFee()+tx.Body.TotalPegout())
	var peginScalar secp256k1.ModNScalar
	setScalarFromUint64(&peginScalar, tx.Body.TotalPegin())
	net.Add(peginScalar.Negate())
	secp256k1.ScalarMultNonConst(&net, generatorH(), &tmpj)
	secp256k1.AddNonConst(&acc, &tmpj, &acc)

	if !isInfinity(&acc) {
		return ErrKernelSumMismatch
	}
	return nil
}

// ValidateStealthSum checks
// sum(sender pubkeys) + sum(K_i - K_o) = stealth_offset*G + sum(S).
func ValidateStealthSum(tx *Transaction) error {
	var acc secp256k1.JacobianPoint
	for _, output := range tx.Body.Outputs {
		if err := addPubKey(&acc, &output.SenderPubKey, false); err != nil {
			return err
		}
	}
	for _, input := range tx.Body.Inputs {
		if input.Features&InputStealthKeyFeatureBit == 0 {
			continue
		}
		if input.InputPubKey == nil {
			return ErrStealthSumMismatch
		}
		if err := addPubKey(&acc, input.InputPubKey, false); err != nil {
			return err
		}
		if err := addPubKey(&acc, &input.OutputPubKey, true); err != nil {
			return err
		}
	}
	for _, kernel := range tx.Body.Kernels {
		if kernel.Features&KernelStealthExcessFeatureBit == 0 {
			continue
		}
		if err := addPubKey(&acc, &kernel.StealthExcess, true); err != nil {
			return err
		}
	}

	var offset secp256k1.ModNScalar
	offset.NegateVal(tx.StealthOffset.scalar())
	var tmpj secp256k1.JacobianPoint
	secp256k1.ScalarBaseMultNonConst(&offset, &tmpj)
	secp256k1.AddNonConst(&acc, &tmpj, &acc)

	if !isInfinity(&acc) {
		return ErrStealthSumMismatch
	}
	return nil
}

func setScalarFromUint64(s *secp256k1.ModNScalar, val uint64) {
	var buf [8]byte
	buf[0] = byte(val >> 56)
	buf[1] = byte(val >> 48)
	buf[2] = byte(val >> 40)
	buf[3] = byte(val >> 32)
	buf[4] = byte(val >> 24)
	buf[5] = byte(val >> 16)
	buf[6] = byte(val >> 8)
	buf[7] = byte(val)
	s.SetByteSlice(buf[:])
}
