// Package proxy implements ProxySession: the per-connection orchestration
// that applies spec.md §4.8's per-packet action table while forwarding
// frames between a locally-accepted player connection and the real
// upstream server, grounded throughout on dune_lib/src/record.rs::Proxy.
package proxy

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/x509"
	"errors"
	"fmt"
	"math/big"
)

// cfb8Stream is a 1-byte-feedback CFB mode cipher.Stream: Go's standard
// crypto/cipher.NewCFBEncrypter implements CFB with a feedback segment
// equal to the block size (CFB128 for AES), but the Minecraft protocol
// requires CFB8 (the `cfb8` crate on the Rust side). No library in the
// example corpus provides this narrower mode, so it is hand-rolled here
// directly on top of the stdlib block cipher — the one piece of this
// package built on the standard library rather than a pack dependency
// (see DESIGN.md).
type cfb8Stream struct {
	block     cipher.Block
	shift     []byte // block-sized shift register, seeded with the IV
	encrypt   bool
	blockSize int
}

func newCFB8(block cipher.Block, iv []byte, encrypt bool) *cfb8Stream {
	bs := block.BlockSize()
	shift := make([]byte, bs)
	copy(shift, iv)
	return &cfb8Stream{block: block, shift: shift, encrypt: encrypt, blockSize: bs}
}

// XORKeyStream implements cipher.Stream for one byte at a time: encrypt
// the current shift register, XOR its first byte with the input byte,
// then slide the shift register left by one, appending the cipher byte
// (CFB8's defining property — the feedback is the ciphertext, one byte
// per step, regardless of which direction this instance runs).
func (s *cfb8Stream) XORKeyStream(dst, src []byte) {
	tmp := make([]byte, s.blockSize)
	for i := range src {
		s.block.Encrypt(tmp, s.shift)
		var cipherByte byte
		if s.encrypt {
			cipherByte = src[i] ^ tmp[0]
			dst[i] = cipherByte
		} else {
			cipherByte = src[i]
			dst[i] = cipherByte ^ tmp[0]
		}
		copy(s.shift, s.shift[1:])
		s.shift[s.blockSize-1] = cipherByte
	}
}

// Crypt bundles the two independent CFB8 streams (encrypt/decrypt) one
// AES-128 shared secret establishes, matching dune_lib::record::Encryption
// (the original keys both streams with the same key and uses the key
// itself as the IV, per the vanilla Minecraft protocol's quirk of setting
// IV = shared secret).
type Crypt struct {
	enc cipher.Stream
	dec cipher.Stream
}

// NewCrypt builds both directions of AES-128-CFB8 keyed (and IV'd) by
// sharedSecret, the 16-byte value exchanged during EncryptionBegin.
func NewCrypt(sharedSecret []byte) (*Crypt, error) {
	if len(sharedSecret) != 16 {
		return nil, errors.New("proxy: shared secret must be 16 bytes for AES-128")
	}
	encBlock, err := aes.NewCipher(sharedSecret)
	if err != nil {
		return nil, err
	}
	decBlock, err := aes.NewCipher(sharedSecret)
	if err != nil {
		return nil, err
	}
	return &Crypt{
		enc: newCFB8(encBlock, sharedSecret, true),
		dec: newCFB8(decBlock, sharedSecret, false),
	}, nil
}

// Encrypt encrypts buf in place.
func (c *Crypt) Encrypt(buf []byte) { c.enc.XORKeyStream(buf, buf) }

// Decrypt decrypts buf in place.
func (c *Crypt) Decrypt(buf []byte) { c.dec.XORKeyStream(buf, buf) }

// RandomSharedSecret generates a fresh 16-byte AES-128 key, the Go
// equivalent of `rand::random::<[u8; 16]>()` in record.rs.
func RandomSharedSecret() ([16]byte, error) {
	var key [16]byte
	_, err := rand.Read(key[:])
	return key, err
}

// RSAEncryptPKCS1v15 encrypts data under the DER-encoded SubjectPublicKeyInfo
// key (as sent in EncryptionBeginResponse.PublicKey) using PKCS#1 v1.5
// padding, matching rsa::PaddingScheme::new_pkcs1v15_encrypt() in
// record.rs.
func RSAEncryptPKCS1v15(derKey []byte, data []byte) ([]byte, error) {
	pub, err := x509.ParsePKIXPublicKey(derKey)
	if err != nil {
		return nil, fmt.Errorf("proxy: parse server public key: %w", err)
	}
	rsaPub, ok := pub.(*rsa.PublicKey)
	if !ok {
		return nil, errors.New("proxy: server public key is not RSA")
	}
	return rsa.EncryptPKCS1v15(rand.Reader, rsaPub, data)
}

// MojangServerHash computes the non-standard signed-big-endian-two's-
// complement hex digest the Mojang session server expects as serverId:
// SHA-1(serverIdPrefix || sharedSecret || publicKeyDER), then interpreted
// as a signed big-endian integer and rendered in lowercase hex (no
// leading zeros, a leading '-' if negative) — the one-liner
// `BigInt::from_signed_bytes_be(&hash).to_str_radix(16)` in record.rs has
// no stdlib equivalent in Go, so it's reproduced directly with math/big.
func MojangServerHash(serverIDPrefix string, sharedSecret, publicKeyDER []byte) string {
	h := sha1.New()
	h.Write([]byte(serverIDPrefix))
	h.Write(sharedSecret)
	h.Write(publicKeyDER)
	digest := h.Sum(nil)

	negative := digest[0]&0x80 != 0
	if negative {
		// Two's-complement negation: invert every bit, then add one,
		// matching how a negative BigInt's magnitude is recovered from
		// its signed big-endian byte representation.
		inverted := make([]byte, len(digest))
		for i, b := range digest {
			inverted[i] = ^b
		}
		mag := new(big.Int).SetBytes(inverted)
		mag.Add(mag, big.NewInt(1))
		return "-" + mag.Text(16)
	}
	return new(big.Int).SetBytes(digest).Text(16)
}
