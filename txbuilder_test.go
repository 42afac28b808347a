package mwebctx

import (
	"errors"
	"testing"
)

// counterRand is a deterministic RandFunc for tests: every call fills the
// buffer with the next counter value.
func counterRand() RandFunc {
	var counter byte
	return func(b []byte) error {
		counter++
		for i := range b {
			b[i] = counter
		}
		return nil
	}
}

// Build + rewind round trip over a pegin: the wallet that built the
// transaction recognizes exactly one coin, at the pegin index, for the
// pegged-in amount net of fee.
func TestBuildPeginRewindRoundTrip(t *testing.T) {
	const amount, fee = uint64(1_000_000_00), uint64(1000)

	w, err := NewWallet(make([]byte, 32), 0)
	if err != nil {
		t.Fatal(err)
	}
	tx, err := w.BuildPegin(amount, fee, counterRand())
	if err != nil {
		t.Fatal(err)
	}

	if len(tx.Body.Inputs) != 0 {
		t.Errorf("pegin should have no inputs, has %d", len(tx.Body.Inputs))
	}
	if len(tx.Body.Kernels) != 1 {
		t.Fatalf("expected one kernel, have %d", len(tx.Body.Kernels))
	}
	kernel := tx.Body.Kernels[0]
	if kernel.Features&KernelPeginFeatureBit == 0 || kernel.Pegin != amount+fee {
		t.Errorf("kernel pegin: got %d want %d", kernel.Pegin, amount+fee)
	}
	if len(kernel.Pegouts) != 0 {
		t.Error("pegin kernel must carry no pegouts")
	}
	if kernel.Fee != fee {
		t.Errorf("kernel fee: got %d want %d", kernel.Fee, fee)
	}

	coins := w.Update(tx)
	if len(coins) != 1 {
		t.Fatalf("expected exactly one owned coin, got %d", len(coins))
	}
	if coins[0].Value != amount {
		t.Errorf("coin value: got %d want %d", coins[0].Value, amount)
	}
	if coins[0].AddressIndex != PeginIndex {
		t.Errorf("coin index: got %#x want pegin index", coins[0].AddressIndex)
	}

	if err := ValidateTransaction(tx); err != nil {
		t.Errorf("built pegin does not validate: %v", err)
	}
}

// Kernel-sum identity must hold for every built transaction.
func TestBuiltTransactionKernelSums(t *testing.T) {
	w, err := NewWallet(make([]byte, 32), 1)
	if err != nil {
		t.Fatal(err)
	}
	tx, err := w.BuildPegin(50_000, 500, counterRand())
	if err != nil {
		t.Fatal(err)
	}
	if err := ValidateKernelSums(tx); err != nil {
		t.Fatalf("kernel sum: %v", err)
	}
	if err := ValidateStealthSum(tx); err != nil {
		t.Fatalf("stealth sum: %v", err)
	}
}

func TestBuildSendWithChange(t *testing.T) {
	rand := counterRand()
	w, err := NewWallet(make([]byte, 32), 3)
	if err != nil {
		t.Fatal(err)
	}
	peginTx, err := w.BuildPegin(100_000, 100, rand)
	if err != nil {
		t.Fatal(err)
	}
	w.Update(peginTx)

	other, err := NewWallet([]byte("recipient wallet seed, 32 bytes!"), 3)
	if err != nil {
		t.Fatal(err)
	}
	recipients := []*Recipient{{Value: 60_000, Address: other.Address(0)}}
	sendTx, err := w.BuildSend(recipients, 100, rand)
	if err != nil {
		t.Fatal(err)
	}

	if len(sendTx.Body.Inputs) != 1 {
		t.Fatalf("expected one input, have %d", len(sendTx.Body.Inputs))
	}
	if len(sendTx.Body.Outputs) != 2 {
		t.Fatalf("expected recipient+change outputs, have %d", len(sendTx.Body.Outputs))
	}
	if err := ValidateTransaction(sendTx); err != nil {
		t.Fatalf("send does not validate: %v", err)
	}

	// Recipient sees their coin.
	theirCoins := other.Update(sendTx)
	if len(theirCoins) != 1 || theirCoins[0].Value != 60_000 {
		t.Fatalf("recipient coins: %v", theirCoins)
	}

	// We see the change at the change index and our balance updates.
	ourCoins := w.Update(sendTx)
	if len(ourCoins) != 1 {
		t.Fatalf("expected one change coin, got %d", len(ourCoins))
	}
	change := ourCoins[0]
	if change.AddressIndex != ChangeIndex {
		t.Errorf("change index: got %#x", change.AddressIndex)
	}
	if change.Value != 100_000-60_000-100 {
		t.Errorf("change value: got %d", change.Value)
	}
	if w.Balance() != change.Value {
		t.Errorf("balance: got %d want %d", w.Balance(), change.Value)
	}
}

func TestBuildPegout(t *testing.T) {
	rand := counterRand()
	w, err := NewWallet(make([]byte, 32), 0)
	if err != nil {
		t.Fatal(err)
	}
	peginTx, err := w.BuildPegin(80_000, 100, rand)
	if err != nil {
		t.Fatal(err)
	}
	w.Update(peginTx)

	pegouts := []*Pegout{{Value: 30_000, PkScript: []byte{0x00, 0x14, 0x99}}}
	tx, err := w.BuildPegout(pegouts, 100, rand)
	if err != nil {
		t.Fatal(err)
	}
	kernel := tx.Body.Kernels[0]
	if kernel.Features&KernelPegoutFeatureBit == 0 || len(kernel.Pegouts) != 1 {
		t.Fatal("pegout kernel metadata missing")
	}
	if kernel.Pegouts[0].Value != 30_000 {
		t.Errorf("pegout amount: got %d", kernel.Pegouts[0].Value)
	}
	if err := ValidateTransaction(tx); err != nil {
		t.Fatalf("pegout does not validate: %v", err)
	}
}

func TestBuildAmountMismatch(t *testing.T) {
	addr := testKeychain(t, 0).StealthAddress(0)
	_, _, err := NewTransaction(nil, []*Recipient{{Value: 10, Address: addr}},
		1, 10, nil, counterRand())
	if err == nil {
		t.Fatal("unbalanced build accepted")
	}
}

func TestBuildRequiresSpendKey(t *testing.T) {
	addr := testKeychain(t, 0).StealthAddress(0)
	coin := &Coin{Blind: testBlind(1), Value: 100, OutputId: Hash{1}}
	_, _, err := NewTransaction([]*Coin{coin},
		[]*Recipient{{Value: 90, Address: addr}}, 10, 0, nil, counterRand())
	if !errors.Is(err, ErrNoSpendKey) {
		t.Fatalf("expected ErrNoSpendKey, got %v", err)
	}
}

func TestSelectCoins(t *testing.T) {
	coins := []*Coin{
		{Value: 500}, {Value: 100}, {Value: 300},
	}
	selected, total, err := SelectCoins(coins, 350)
	if err != nil {
		t.Fatal(err)
	}
	// Ascending greedy: 100 + 300 covers 350.
	if len(selected) != 2 || total != 400 {
		t.Fatalf("selection: %d coins totaling %d", len(selected), total)
	}
	if selected[0].Value != 100 || selected[1].Value != 300 {
		t.Fatal("selection is not the smallest-amount prefix")
	}

	if _, _, err := SelectCoins(coins, 1000); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
}

func TestBuildInsufficientFunds(t *testing.T) {
	w, err := NewWallet(make([]byte, 32), 0)
	if err != nil {
		t.Fatal(err)
	}
	recipients := []*Recipient{{Value: 10, Address: w.Address(0)}}
	if _, err := w.BuildSend(recipients, 1, counterRand()); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
}
