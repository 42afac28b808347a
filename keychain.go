package mwebctx

import (
	"encoding/binary"
	"errors"
	"sync"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"

	"github.com/mwebsuite/mwebctx/internal/hasher"
)

// KeyChain is the wallet-facing key interface. The full implementation can
// spend; a read-only scanner implements the same surface without the spend
// master and yields coins with no spend key.
type KeyChain interface {
	StealthAddress(index uint32) *StealthAddress
	RewindOutput(output *Output) (*Coin, error)
	PrivateScanKey() *SecretKey
}

// Keychain derives all wallet keys from a BIP32 seed along
// m/0'/100'/{0',1'}: child 0' is the scan key a, child 1' the spend
// master b0. Per-index spend keys are b0 + Blake3_A(index, a).
type Keychain struct {
	scanKey     SecretKey
	spendKey    SecretKey
	spendPubKey PublicKey

	// spendPubKeys maps the compressed per-index spend pubkey B_i back to
	// its index. Insert-only; guarded for cross-thread scanning.
	mtx          sync.Mutex
	spendPubKeys map[PublicKey]uint32
	maxIndex     uint32
}

// NewKeychain builds a key chain from a raw seed, eagerly indexing spend
// pubkeys for all ordinary indices up to and including maxUsedIndex plus
// the reserved change and pegin indices.
func NewKeychain(seed []byte, maxUsedIndex uint32) (*Keychain, error) {
	master, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
	if err != nil {
		return nil, err
	}
	account, err := master.Derive(hdkeychain.HardenedKeyStart + 0)
	if err != nil {
		return nil, err
	}
	purpose, err := account.Derive(hdkeychain.HardenedKeyStart + 100)
	if err != nil {
		return nil, err
	}
	scan, err := purpose.Derive(hdkeychain.HardenedKeyStart + 0)
	if err != nil {
		return nil, err
	}
	spend, err := purpose.Derive(hdkeychain.HardenedKeyStart + 1)
	if err != nil {
		return nil, err
	}

	k := &Keychain{spendPubKeys: make(map[PublicKey]uint32)}
	scanPriv, err := scan.ECPrivKey()
	if err != nil {
		return nil, err
	}
	copy(k.scanKey[:], scanPriv.Serialize())
	spendPriv, err := spend.ECPrivKey()
	if err != nil {
		return nil, err
	}
	copy(k.spendKey[:], spendPriv.Serialize())
	k.spendPubKey = *k.spendKey.PubKey()

	k.maxIndex = maxUsedIndex
	for i := uint32(0); i <= maxUsedIndex; i++ {
		k.spendPubKeys[*k.spendPubKeyAt(i)] = i
	}
	k.spendPubKeys[*k.spendPubKeyAt(ChangeIndex)] = ChangeIndex
	k.spendPubKeys[*k.spendPubKeyAt(PeginIndex)] = PeginIndex
	return k, nil
}

// mi derives the per-index tweak m_i = Blake3_A(index, a).
func (k *Keychain) mi(index uint32) *SecretKey {
	h := hasher.NewTagged(hasher.TagAddress)
	binary.Write(h, binary.LittleEndian, index)
	h.Write(k.scanKey[:])
	sum := h.Sum()
	return (*SecretKey)(&sum)
}

// spendPubKeyAt returns B_i = B0 + m_i*G.
func (k *Keychain) spendPubKeyAt(index uint32) *PublicKey {
	return k.spendPubKey.Add(k.mi(index).PubKey())
}

// spendSecretKeyAt returns b_i = b0 + m_i.
func (k *Keychain) spendSecretKeyAt(index uint32) *SecretKey {
	return k.spendKey.Add(k.mi(index))
}

// StealthAddress returns (A_i, B_i) for the index.
func (k *Keychain) StealthAddress(index uint32) *StealthAddress {
	Bi := k.spendPubKeyAt(index)
	return &StealthAddress{Scan: Bi.Mul(&k.scanKey), Spend: Bi}
}

// PrivateScanKey returns the scan scalar a.
func (k *Keychain) PrivateScanKey() *SecretKey {
	key := k.scanKey
	return &key
}

// EnsureIndices extends the spend-pubkey table monotonically so lookups
// cover every ordinary index up to and including maxUsedIndex.
func (k *Keychain) EnsureIndices(maxUsedIndex uint32) {
	k.mtx.Lock()
	defer k.mtx.Unlock()
	for i := k.maxIndex + 1; i <= maxUsedIndex; i++ {
		k.spendPubKeys[*k.spendPubKeyAt(i)] = i
	}
	if maxUsedIndex > k.maxIndex {
		k.maxIndex = maxUsedIndex
	}
}

func (k *Keychain) lookupIndex(pub *PublicKey) (uint32, bool) {
	k.mtx.Lock()
	defer k.mtx.Unlock()
	index, ok := k.spendPubKeys[*pub]
	return index, ok
}

// RewindOutput reconstructs the coin an output pays to this wallet, or
// (nil, nil) when the output is not ours. For ordinary indices the
// one-time spend key (b0 + m_i) * H(T_outkey, t) is attached.
func (k *Keychain) RewindOutput(output *Output) (*Coin, error) {
	coin, err := rewindOutput(output, &k.scanKey, k.lookupIndex)
	if coin == nil || err != nil {
		return coin, err
	}
	if coin.AddressIndex < firstReservedIndex {
		osum := hasher.Hashed(hasher.TagOutKey, coin.SharedSecret[:])
		coin.SpendKey = k.spendSecretKeyAt(coin.AddressIndex).Mul((*SecretKey)(&osum))
	}
	return coin, nil
}

// SpendKeyAt exposes the one-time spend key for a coin the wallet rewound
// at a reserved pseudo-index, where RewindOutput leaves SpendKey unset.
func (k *Keychain) SpendKeyAt(coin *Coin) (*SecretKey, error) {
	if coin.SharedSecret == nil {
		return nil, errors.New("SpendKeyAt: coin has no shared secret")
	}
	osum := hasher.Hashed(hasher.TagOutKey, coin.SharedSecret[:])
	return k.spendSecretKeyAt(coin.AddressIndex).Mul((*SecretKey)(&osum)), nil
}

// ReadOnlyKeychain scans with the private scan key and the spend master
// pubkey only; it can recognize and value coins but never spend them.
type ReadOnlyKeychain struct {
	scanKey     SecretKey
	spendPubKey PublicKey

	mtx          sync.Mutex
	spendPubKeys map[PublicKey]uint32
	maxIndex     uint32
}

// ReadOnly derives the watch-only view of a key chain.
func (k *Keychain) ReadOnly() *ReadOnlyKeychain {
	k.mtx.Lock()
	defer k.mtx.Unlock()
	ro := &ReadOnlyKeychain{
		scanKey:      k.scanKey,
		spendPubKey:  k.spendPubKey,
		spendPubKeys: make(map[PublicKey]uint32, len(k.spendPubKeys)),
		maxIndex:     k.maxIndex,
	}
	for pub, index := range k.spendPubKeys {
		ro.spendPubKeys[pub] = index
	}
	return ro
}

func (k *ReadOnlyKeychain) mi(index uint32) *SecretKey {
	h := hasher.NewTagged(hasher.TagAddress)
	binary.Write(h, binary.LittleEndian, index)
	h.Write(k.scanKey[:])
	sum := h.Sum()
	return (*SecretKey)(&sum)
}

func (k *ReadOnlyKeychain) spendPubKeyAt(index uint32) *PublicKey {
	return k.spendPubKey.Add(k.mi(index).PubKey())
}

func (k *ReadOnlyKeychain) StealthAddress(index uint32) *StealthAddress {
	Bi := k.spendPubKeyAt(index)
	return &StealthAddress{Scan: Bi.Mul(&k.scanKey), Spend: Bi}
}

func (k *ReadOnlyKeychain) PrivateScanKey() *SecretKey {
	key := k.scanKey
	return &key
}

func (k *ReadOnlyKeychain) lookupIndex(pub *PublicKey) (uint32, bool) {
	k.mtx.Lock()
	defer k.mtx.Unlock()
	index, ok := k.spendPubKeys[*pub]
	return index, ok
}

// RewindOutput recognizes owned outputs; the returned coins never carry a
// spend key.
func (k *ReadOnlyKeychain) RewindOutput(output *Output) (*Coin, error) {
	return rewindOutput(output, &k.scanKey, k.lookupIndex)
}
