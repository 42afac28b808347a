package mwebctx

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"golang.org/x/crypto/chacha20"
)

// RandFunc fills the given slice with randomness. Builders accept one so
// tests can substitute deterministic nonces; nil means crypto/rand.
type RandFunc func([]byte) error

func cryptoRand(b []byte) error {
	_, err := rand.Read(b)
	return err
}

// RandomBytes returns a byte array with given length from crypto/rand.Reader.
func RandomBytes(length int) []byte {
	res := make([]byte, 0, length)

	neededLen := length
	var tmp []byte
	for neededLen > 0 {
		tmp = make([]byte, neededLen)
		// n == len(b) if and only if err == nil.
		n, err := rand.Read(tmp)
		if err != nil {
			continue
		}
		res = append(res, tmp[:n]...)
		neededLen -= n
	}
	return res
}

// Rfc6979HmacSha256 is the HMAC-SHA256 deterministic byte generator of
// RFC 6979 section 3.2. The first Generate call skips the K/V retry step;
// every later call performs it.
type Rfc6979HmacSha256 struct {
	k, v  [32]byte
	retry bool
}

func NewRfc6979HmacSha256(key []byte) *Rfc6979HmacSha256 {
	d := &Rfc6979HmacSha256{}
	for i := range d.v {
		d.v[i] = 0x01 // RFC6979 3.2.b
	}
	// d.k is already zero per RFC6979 3.2.c

	// RFC6979 3.2.d
	h := hmac.New(sha256.New, d.k[:])
	h.Write(d.v[:])
	h.Write([]byte{0x00})
	h.Write(key)
	h.Sum(d.k[:0])
	h = hmac.New(sha256.New, d.k[:])
	h.Write(d.v[:])
	h.Sum(d.v[:0])

	// RFC6979 3.2.f
	h = hmac.New(sha256.New, d.k[:])
	h.Write(d.v[:])
	h.Write([]byte{0x01})
	h.Write(key)
	h.Sum(d.k[:0])
	h = hmac.New(sha256.New, d.k[:])
	h.Write(d.v[:])
	h.Sum(d.v[:0])
	return d
}

// Generate fills out with the next bytes of the stream, in 32-byte chunks.
func (d *Rfc6979HmacSha256) Generate(out []byte) {
	if d.retry {
		h := hmac.New(sha256.New, d.k[:])
		h.Write(d.v[:])
		h.Write([]byte{0x00})
		h.Sum(d.k[:0])
		h = hmac.New(sha256.New, d.k[:])
		h.Write(d.v[:])
		h.Sum(d.v[:0])
	}
	for len(out) > 0 {
		h := hmac.New(sha256.New, d.k[:])
		h.Write(d.v[:])
		h.Sum(d.v[:0])
		n := copy(out, d.v[:])
		out = out[n:]
	}
	d.retry = true
}

// Zero clears the generator state.
func (d *Rfc6979HmacSha256) Zero() {
	for i := range d.k {
		d.k[i] = 0
		d.v[i] = 0
	}
}

// scalarChaCha20 expands (seed, index) into two scalars below the group
// order. The block counter carries the low half of index and the first
// nonce word the high half; the last nonce word is an over-counter bumped
// until neither 32-byte half of the keystream block overflows the order.
func scalarChaCha20(seed *SecretKey, index uint64) (k1, k2 secp256k1.ModNScalar) {
	var nonce [chacha20.NonceSize]byte
	binary.LittleEndian.PutUint32(nonce[0:4], uint32(index>>32))
	for overCount := uint32(0); ; overCount++ {
		binary.LittleEndian.PutUint32(nonce[8:12], overCount)
		c, err := chacha20.NewUnauthenticatedCipher(seed[:], nonce[:])
		if err != nil {
			panic(err)
		}
		c.SetCounter(uint32(index))
		buf := make([]byte, 64)
		c.XORKeyStream(buf, buf)
		if !k1.SetByteSlice(buf[:32]) && !k2.SetByteSlice(buf[32:]) {
			return
		}
	}
}
