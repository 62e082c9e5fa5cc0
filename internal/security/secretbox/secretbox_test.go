package secretbox

import (
	"encoding/base64"
	"strings"
	"testing"
)

func testKey(seed byte) string {
	raw := make([]byte, 32)
	for i := range raw {
		raw[i] = seed + byte(i)
	}
	return base64.StdEncoding.EncodeToString(raw)
}

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	box, err := New(testKey(1))
	if err != nil {
		t.Fatalf("New err: %v", err)
	}
	msg := "hola mundo ✓ — secreto"
	ct, err := box.Encrypt(msg)
	if err != nil {
		t.Fatalf("Encrypt err: %v", err)
	}
	pt, err := box.Decrypt(ct)
	if err != nil {
		t.Fatalf("Decrypt err: %v", err)
	}
	if pt != msg {
		t.Fatalf("plaintext mismatch: got %q want %q", pt, msg)
	}
}

func TestEncrypt_NonceVaries(t *testing.T) {
	box, _ := New(testKey(7))
	a, _ := box.Encrypt("x")
	b, _ := box.Encrypt("x")
	if a == b {
		t.Fatal("dos Encrypt del mismo valor no deberían coincidir (nonce aleatorio)")
	}
}

func TestDecrypt_DetectsTamper(t *testing.T) {
	box, _ := New(testKey(100))
	ct, err := box.Encrypt("top secret")
	if err != nil {
		t.Fatal(err)
	}
	parts := strings.Split(ct, "|")
	if len(parts) != 2 {
		t.Fatalf("formato inesperado: %q", ct)
	}
	bs, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		t.Fatal(err)
	}
	bs[0] ^= 0x01 // flip
	corrupted := parts[0] + "|" + base64.StdEncoding.EncodeToString(bs)

	if _, err := box.Decrypt(corrupted); err == nil {
		t.Fatal("esperaba fallo de autenticación GCM, no hubo error")
	}
}

func TestNew_RejectsBadKey(t *testing.T) {
	if _, err := New("demasiado corta"); err == nil {
		t.Fatal("esperaba ErrBadKey")
	}
	// raw de 32 bytes también vale
	if _, err := New(strings.Repeat("k", 32)); err != nil {
		t.Fatalf("clave raw de 32 bytes rechazada: %v", err)
	}
}

func TestDecrypt_MalformedInput(t *testing.T) {
	box, _ := New(testKey(42))
	for _, ct := range []string{"", "sin-separador", "a|b", "!!!|###"} {
		if _, err := box.Decrypt(ct); err == nil {
			t.Fatalf("Decrypt(%q) debería fallar", ct)
		}
	}
}
