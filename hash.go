package mwebctx

import (
	"github.com/mwebsuite/mwebctx/internal/hasher"
)

func newBlake3() *hasher.Hasher { return hasher.New() }

func blake3Sum(h *hasher.Hasher) *Hash {
	sum := h.Sum()
	return (*Hash)(&sum)
}

func blake3Hash(data []byte) *Hash {
	h := hasher.New()
	h.Write(data)
	return blake3Sum(h)
}
