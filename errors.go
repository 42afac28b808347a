package mwebctx

import "errors"

// Parse errors abort the transaction being decoded.
var (
	ErrUnknownFlag     = errors.New("unknown transaction flag bit")
	ErrTruncatedStream = errors.New("truncated stream")
	ErrBadVarint       = errors.New("non-canonical varint")
	ErrBadPoint        = errors.New("point encoding does not decompress")
	ErrOversizedProof  = errors.New("range proof exceeds maximum size")
)

// Crypto errors.
var (
	ErrNotOnCurve       = errors.New("point is not on the curve")
	ErrScalarOutOfRange = errors.New("scalar is not below the group order")
	ErrMalformedProof   = errors.New("malformed range proof")
)

// Verification errors reject the transaction but leave the caller free to
// continue with others.
var (
	ErrRangeProofInvalid  = errors.New("range proof does not verify")
	ErrSignatureInvalid   = errors.New("signature does not verify")
	ErrKernelSumMismatch  = errors.New("kernel sums do not balance")
	ErrStealthSumMismatch = errors.New("stealth sums do not balance")
)

// Build errors.
var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrNoSpendKey        = errors.New("coin carries no spend key")
	ErrValueOutOfRange   = errors.New("value out of range")
)
