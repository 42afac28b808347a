package mwebctx

import (
	"sync"
)

// Wallet tracks owned coins across observed transactions and builds new
// transactions from them. All key material lives in the key chain; the
// wallet itself only holds rewound coins.
type Wallet struct {
	keychain *Keychain

	mtx   sync.Mutex
	coins map[Hash]*Coin
}

func NewWallet(seed []byte, maxUsedIndex uint32) (*Wallet, error) {
	keychain, err := NewKeychain(seed, maxUsedIndex)
	if err != nil {
		return nil, err
	}
	return &Wallet{
		keychain: keychain,
		coins:    make(map[Hash]*Coin),
	}, nil
}

// Keychain exposes the wallet's key chain.
func (w *Wallet) Keychain() *Keychain { return w.keychain }

// Address returns the stealth address at the given index.
func (w *Wallet) Address(index uint32) *StealthAddress {
	return w.keychain.StealthAddress(index)
}

// Update rewinds every output of the transaction, claiming the ones the
// key chain recognizes, and marks coins spent by the inputs. Ownership is
// established purely by rewinding; caller-supplied coins are never
// trusted.
func (w *Wallet) Update(tx *Transaction) []*Coin {
	var claimed []*Coin
	for _, output := range tx.Body.Outputs {
		coin, err := w.keychain.RewindOutput(output)
		if coin == nil || err != nil {
			continue
		}
		claimed = append(claimed, coin)
	}

	w.mtx.Lock()
	defer w.mtx.Unlock()
	for _, coin := range claimed {
		w.coins[coin.OutputId] = coin
	}
	for _, input := range tx.Body.Inputs {
		if coin, ok := w.coins[input.OutputId]; ok {
			coin.Spent = true
		}
	}
	return claimed
}

// UnspentCoins returns the coins not yet consumed by a built or observed
// transaction.
func (w *Wallet) UnspentCoins() []*Coin {
	w.mtx.Lock()
	defer w.mtx.Unlock()
	var coins []*Coin
	for _, coin := range w.coins {
		if !coin.Spent {
			coins = append(coins, coin)
		}
	}
	return coins
}

// Balance sums the unspent coin values.
func (w *Wallet) Balance() (balance uint64) {
	for _, coin := range w.UnspentCoins() {
		balance += coin.Value
	}
	return
}

// markSpent flags the given coins as consumed.
func (w *Wallet) markSpent(coins []*Coin) {
	w.mtx.Lock()
	defer w.mtx.Unlock()
	for _, coin := range coins {
		coin.Spent = true
	}
}

// BuildPegin builds a transaction pegging amount into the extension block,
// paying the wallet's own pegin address. The pegged-in value covers the
// amount plus the fee.
func (w *Wallet) BuildPegin(amount, fee uint64, randFunc RandFunc) (*Transaction, error) {
	recipients := []*Recipient{{
		Value:   amount,
		Address: w.Address(PeginIndex),
	}}
	tx, _, err := NewTransaction(nil, recipients, fee, amount+fee, nil, randFunc)
	return tx, err
}

// BuildSend builds an MWEB-to-MWEB spend to the recipients, selecting the
// smallest sufficient unspent coins and returning change to the wallet's
// change address.
func (w *Wallet) BuildSend(recipients []*Recipient, fee uint64, randFunc RandFunc) (*Transaction, error) {
	var amount uint64
	for _, recipient := range recipients {
		amount += recipient.Value
	}

	selected, total, err := w.selectSpendable(amount + fee)
	if err != nil {
		return nil, err
	}
	if total > amount+fee {
		recipients = append(recipients, &Recipient{
			Value:   total - amount - fee,
			Address: w.Address(ChangeIndex),
		})
	}

	tx, _, err := NewTransaction(selected, recipients, fee, 0, nil, randFunc)
	if err != nil {
		return nil, err
	}
	w.markSpent(selected)
	return tx, nil
}

// BuildPegout builds a transaction pegging value out to a Litecoin script.
func (w *Wallet) BuildPegout(pegouts []*Pegout, fee uint64, randFunc RandFunc) (*Transaction, error) {
	var amount uint64
	for _, pegout := range pegouts {
		amount += pegout.Value
	}

	selected, total, err := w.selectSpendable(amount + fee)
	if err != nil {
		return nil, err
	}
	var recipients []*Recipient
	if total > amount+fee {
		recipients = append(recipients, &Recipient{
			Value:   total - amount - fee,
			Address: w.Address(ChangeIndex),
		})
	}

	tx, _, err := NewTransaction(selected, recipients, fee, 0, pegouts, randFunc)
	if err != nil {
		return nil, err
	}
	w.markSpent(selected)
	return tx, nil
}

// selectSpendable picks input coins and fills in spend keys for coins
// rewound at reserved indices.
func (w *Wallet) selectSpendable(target uint64) ([]*Coin, uint64, error) {
	selected, total, err := SelectCoins(w.UnspentCoins(), target)
	if err != nil {
		return nil, 0, err
	}
	for _, coin := range selected {
		if coin.SpendKey == nil && coin.SharedSecret != nil {
			if coin.SpendKey, err = w.keychain.SpendKeyAt(coin); err != nil {
				return nil, 0, err
			}
		}
	}
	return selected, total, nil
}
