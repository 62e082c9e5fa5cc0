package tokens

import (
	"strings"
	"testing"
)

func TestGenerateOpaqueToken(t *testing.T) {
	a, err := GenerateOpaqueToken(32)
	if err != nil {
		t.Fatalf("GenerateOpaqueToken err: %v", err)
	}
	b, err := GenerateOpaqueToken(32)
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Fatal("dos tokens opacos no deberían coincidir")
	}
	// 32 bytes -> 43 chars base64url sin padding
	if len(a) != 43 {
		t.Fatalf("largo inesperado: %d", len(a))
	}
	if strings.ContainsAny(a, "+/=") {
		t.Fatalf("esperaba base64url sin padding: %q", a)
	}
}

func TestSHA256Base64URL_Stable(t *testing.T) {
	if SHA256Base64URL("abc") != SHA256Base64URL("abc") {
		t.Fatal("hash inestable")
	}
	if SHA256Base64URL("abc") == SHA256Base64URL("abd") {
		t.Fatal("entradas distintas, mismo hash")
	}
	// sha256 -> 32 bytes -> 43 chars base64url sin padding
	if got := len(SHA256Base64URL("x")); got != 43 {
		t.Fatalf("largo inesperado: %d", got)
	}
}
