package proxy

import (
	"bytes"
	"testing"
)

func TestCFB8RoundTrip(t *testing.T) {
	secret, err := RandomSharedSecret()
	if err != nil {
		t.Fatalf("RandomSharedSecret: %v", err)
	}

	enc, err := NewCrypt(secret[:])
	if err != nil {
		t.Fatalf("NewCrypt (enc side): %v", err)
	}
	dec, err := NewCrypt(secret[:])
	if err != nil {
		t.Fatalf("NewCrypt (dec side): %v", err)
	}

	plaintext := []byte("the quick brown fox jumps over the lazy dog, 0123456789")
	ciphertext := make([]byte, len(plaintext))
	copy(ciphertext, plaintext)
	enc.Encrypt(ciphertext)
	if bytes.Equal(ciphertext, plaintext) {
		t.Fatalf("Encrypt left the buffer unchanged")
	}

	recovered := make([]byte, len(ciphertext))
	copy(recovered, ciphertext)
	dec.Decrypt(recovered)
	if !bytes.Equal(recovered, plaintext) {
		t.Fatalf("CFB8 round trip mismatch: got %q, want %q", recovered, plaintext)
	}
}

func TestCFB8StreamsBytewise(t *testing.T) {
	secret, _ := RandomSharedSecret()
	enc1, _ := NewCrypt(secret[:])
	enc2, _ := NewCrypt(secret[:])

	plaintext := []byte("streaming one byte at a time must match one bulk call")

	bulk := make([]byte, len(plaintext))
	copy(bulk, plaintext)
	enc1.Encrypt(bulk)

	piecewise := make([]byte, len(plaintext))
	copy(piecewise, plaintext)
	for i := range piecewise {
		enc2.Encrypt(piecewise[i : i+1])
	}

	if !bytes.Equal(bulk, piecewise) {
		t.Fatalf("CFB8 is not a true byte stream: bulk=%x piecewise=%x", bulk, piecewise)
	}
}

func TestMojangServerHashNonEmpty(t *testing.T) {
	secret := bytes.Repeat([]byte{0x01}, 16)
	pub := []byte("not-a-real-der-key-but-hash-only-cares-about-bytes")
	hash := MojangServerHash("", secret, pub)
	if hash == "" {
		t.Fatal("MojangServerHash returned an empty string")
	}
}

func TestMojangServerHashDeterministic(t *testing.T) {
	secret := bytes.Repeat([]byte{0xAB}, 16)
	pub := []byte("server-public-key-der-bytes")
	h1 := MojangServerHash("serverid", secret, pub)
	h2 := MojangServerHash("serverid", secret, pub)
	if h1 != h2 {
		t.Fatalf("MojangServerHash not deterministic: %q != %q", h1, h2)
	}
}

func TestEncodeEncryptionBeginRequestShape(t *testing.T) {
	secret := bytes.Repeat([]byte{0x02}, 16)
	token := []byte{0x03, 0x04, 0x05, 0x06}
	out := encodeEncryptionBeginRequest(secret, token)

	// Outer varint size prefix, then packet id 0x01, then a varint-len
	// secret, then a varint-len token — spelled out by hand rather than
	// reusing appendVarInt so the test doesn't just restate the function
	// under test.
	if len(out) == 0 {
		t.Fatal("encodeEncryptionBeginRequest produced no bytes")
	}
	// Outer length byte: body is 1 (id) + 1 (secret len) + 16 (secret) + 1 (token len) + 4 (token) = 23.
	if out[0] != 23 {
		t.Fatalf("outer size byte = %d, want 23", out[0])
	}
	if out[1] != 0x01 {
		t.Fatalf("packet id byte = %#x, want 0x01", out[1])
	}
	if out[2] != 16 {
		t.Fatalf("secret length byte = %d, want 16", out[2])
	}
	if !bytes.Equal(out[3:19], secret) {
		t.Fatalf("secret bytes mismatch: got %x, want %x", out[3:19], secret)
	}
	if out[19] != 4 {
		t.Fatalf("token length byte = %d, want 4", out[19])
	}
	if !bytes.Equal(out[20:24], token) {
		t.Fatalf("token bytes mismatch: got %x, want %x", out[20:24], token)
	}
}
