package mwebctx

import (
	"errors"
	"sort"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

// newRandomKey draws a uniformly random scalar via randFunc, reduced mod
// the group order.
func newRandomKey(randFunc RandFunc) (*SecretKey, error) {
	var buf [32]byte
	if err := randFunc(buf[:]); err != nil {
		return nil, err
	}
	var s secp256k1.ModNScalar
	s.SetBytes(&buf)
	return secretKeyFromScalar(&s), nil
}

func newRandomBlind(randFunc RandFunc) (*BlindingFactor, error) {
	key, err := newRandomKey(randFunc)
	if err != nil {
		return nil, err
	}
	return (*BlindingFactor)(key), nil
}

// NewTransaction builds a complete MWEB transaction spending the given
// coins to the recipients, optionally pegging value in or out. All
// randomness flows through randFunc; nil selects crypto/rand.
func NewTransaction(coins []*Coin, recipients []*Recipient, fee, pegin uint64,
	pegouts []*Pegout, randFunc RandFunc) (*Transaction, []*Coin, error) {

	var sumCoins, sumRecipients, sumPegouts uint64
	for _, coin := range coins {
		if coin.SpendKey == nil {
			return nil, nil, ErrNoSpendKey
		}
		if coin.Blind == nil {
			return nil, nil, errors.New("NewTransaction: input coin has no blind")
		}
		sumCoins += coin.Value
	}
	for _, recipient := range recipients {
		sumRecipients += recipient.Value
	}
	for _, pegout := range pegouts {
		sumPegouts += pegout.Value
	}
	if sumCoins+pegin != sumRecipients+sumPegouts+fee {
		return nil, nil, errors.New("NewTransaction: total amount mismatch")
	}

	if randFunc == nil {
		randFunc = cryptoRand
	}

	outputs, newCoins, outputBlind, outputKey, err := createOutputs(recipients, randFunc)
	if err != nil {
		return nil, nil, err
	}

	// The total kernel offset is split between the published
	// kernel_offset and the kernel's blinding factor:
	// sum(output.blind) - sum(input.blind) = kernel_offset + kernel.blind
	kernelOffset, err := newRandomBlind(randFunc)
	if err != nil {
		return nil, nil, err
	}
	kernelBlind := outputBlind.Sub(kernelOffset)
	for _, coin := range coins {
		kernelBlind = kernelBlind.Sub(BlindSwitch(coin.Blind, coin.Value))
	}

	inputs, kernel, stealthOffset, err := createInputsAndKernel(
		coins, outputKey, kernelBlind, fee, pegin, pegouts, randFunc)
	if err != nil {
		return nil, nil, err
	}

	txBody := &TxBody{
		Inputs:  inputs,
		Outputs: outputs,
		Kernels: []*Kernel{kernel},
	}
	txBody.Sort()
	return &Transaction{
		KernelOffset:  *kernelOffset,
		StealthOffset: *stealthOffset,
		Body:          txBody,
	}, newCoins, nil
}

func createOutputs(recipients []*Recipient, randFunc RandFunc) (
	outputs []*Output, coins []*Coin,
	totalBlind *BlindingFactor, totalKey *SecretKey, err error) {

	totalBlind = &BlindingFactor{}
	totalKey = &SecretKey{}
	for _, recipient := range recipients {
		ephemeralKey, err := newRandomKey(randFunc)
		if err != nil {
			return nil, nil, nil, nil, err
		}
		privateNonce, err := newRandomKey(randFunc)
		if err != nil {
			return nil, nil, nil, nil, err
		}
		output, blind, shared := CreateOutput(recipient, ephemeralKey)
		SignOutput(output, recipient.Value, blind, shared, ephemeralKey, privateNonce)
		totalBlind = totalBlind.Add(BlindSwitch(blind, recipient.Value))
		totalKey = totalKey.Add(ephemeralKey)
		outputs = append(outputs, output)

		coins = append(coins, &Coin{
			AddressIndex: UnknownIndex,
			Blind:        blind,
			Value:        recipient.Value,
			OutputId:     *output.Hash(),
			SenderKey:    ephemeralKey,
			Address:      recipient.Address,
			SharedSecret: shared,
		})
	}
	return outputs, coins, totalBlind, totalKey, nil
}

func createInputsAndKernel(coins []*Coin, outputKey *SecretKey,
	kernelBlind *BlindingFactor, fee, pegin uint64, pegouts []*Pegout,
	randFunc RandFunc) (inputs []*Input, kernel *Kernel,
	stealthOffset *BlindingFactor, err error) {

	inputKey := &SecretKey{}
	for _, coin := range coins {
		ephemeralKey, err := newRandomKey(randFunc)
		if err != nil {
			return nil, nil, nil, err
		}
		inputs = append(inputs, CreateInput(coin, ephemeralKey))
		inputKey = inputKey.Add(ephemeralKey).Sub(coin.SpendKey)
	}

	stealthBlind, err := newRandomBlind(randFunc)
	if err != nil {
		return nil, nil, nil, err
	}
	kernel = CreateKernel(kernelBlind, stealthBlind, &fee, &pegin, pegouts, nil)
	stealthOffset = (*BlindingFactor)(outputKey.Add(inputKey)).Sub(stealthBlind)
	return inputs, kernel, stealthOffset, nil
}

// CreateInput spends a coin with a fresh stealth input key (feature bit 1).
// The signature key aggregates the ephemeral and one-time spend keys:
// k_agg = k_i + Blake3(K_i || K_o) * k_o.
func CreateInput(coin *Coin, inputKey *SecretKey) *Input {
	features := byte(InputStealthKeyFeatureBit)
	inputPubKey := inputKey.PubKey()
	outputPubKey := coin.SpendKey.PubKey()

	h := newBlake3()
	h.Write(inputPubKey[:])
	h.Write(outputPubKey[:])
	keyHash := (*SecretKey)(blake3Sum(h))

	sigKey := coin.SpendKey.Mul(keyHash).Add(inputKey)

	input := &Input{
		Features:     features,
		OutputId:     coin.OutputId,
		Commitment:   *SwitchCommit(coin.Blind, coin.Value),
		InputPubKey:  inputPubKey,
		OutputPubKey: *outputPubKey,
	}
	input.Signature = Sign(sigKey, input.SignatureMessage()[:])
	return input
}

// CreateKernel assembles and signs the kernel. With a stealth blind the
// signing key is tweaked to commit to both excesses:
// e' = e * Blake3(E || S) + s.
func CreateKernel(blind, stealthBlind *BlindingFactor, fee, pegin *uint64,
	pegouts []*Pegout, lockHeight *int32) *Kernel {

	k := &Kernel{Excess: *NewCommitment(blind, 0)}
	sigKey := (*SecretKey)(blind)

	if fee != nil {
		k.Features |= KernelFeeFeatureBit
		k.Fee = *fee
	}
	if pegin != nil && *pegin > 0 {
		k.Features |= KernelPeginFeatureBit
		k.Pegin = *pegin
	}
	if len(pegouts) > 0 {
		k.Features |= KernelPegoutFeatureBit
		k.Pegouts = pegouts
	}
	if lockHeight != nil {
		k.Features |= KernelHeightLockFeatureBit
		k.LockHeight = *lockHeight
	}
	if stealthBlind != nil {
		k.Features |= KernelStealthExcessFeatureBit
		k.StealthExcess = *(*SecretKey)(stealthBlind).PubKey()

		h := newBlake3()
		h.Write(k.Excess.PubKey()[:])
		h.Write(k.StealthExcess[:])

		sigKey = sigKey.Mul((*SecretKey)(blake3Sum(h))).
			Add((*SecretKey)(stealthBlind))
	}

	k.Signature = Sign(sigKey, k.MessageHash()[:])
	return k
}

// SelectCoins picks the smallest-amount prefix of the coins whose sum
// covers target, and returns the selection with its total.
func SelectCoins(coins []*Coin, target uint64) ([]*Coin, uint64, error) {
	sorted := make([]*Coin, len(coins))
	copy(sorted, coins)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Value < sorted[j].Value
	})
	var sum uint64
	for i, coin := range sorted {
		sum += coin.Value
		if sum >= target {
			return sorted[:i+1], sum, nil
		}
	}
	return nil, 0, ErrInsufficientFunds
}
