// Package api exposes hex-level entry points over the mwebctx core for
// callers that hold raw transaction strings rather than parsed objects.
package api

import (
	"bytes"
	"encoding/hex"

	"github.com/mwebsuite/mwebctx"
)

// ParseRawTransactionHex decodes a full Litecoin transaction, including any
// MWEB extension payload.
func ParseRawTransactionHex(rawHex string) (*mwebctx.RawTransaction, error) {
	raw, err := hex.DecodeString(rawHex)
	if err != nil {
		return nil, err
	}
	return mwebctx.ParseRawTransaction(raw)
}

// ParseTransactionHex decodes a bare MWEB transaction.
func ParseTransactionHex(rawHex string) (*mwebctx.Transaction, error) {
	raw, err := hex.DecodeString(rawHex)
	if err != nil {
		return nil, err
	}
	return mwebctx.ParseTransaction(raw)
}

// SerializeTransactionHex encodes an MWEB transaction back to wire hex.
func SerializeTransactionHex(tx *mwebctx.Transaction) (string, error) {
	var buf bytes.Buffer
	if err := tx.Serialize(&buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf.Bytes()), nil
}

// RewindTransactionHex parses a raw transaction and rewinds its MWEB
// outputs against the wallet, returning any claimed coins.
func RewindTransactionHex(w *mwebctx.Wallet, rawHex string) ([]*mwebctx.Coin, error) {
	tx, err := ParseRawTransactionHex(rawHex)
	if err != nil {
		return nil, err
	}
	if tx.Mweb == nil {
		return nil, nil
	}
	return w.Update(tx.Mweb), nil
}
