package totp

import (
	"strings"
	"testing"
	"time"
)

func TestGenerateSecret_Shape(t *testing.T) {
	raw, b32, err := GenerateSecret()
	if err != nil {
		t.Fatalf("GenerateSecret err: %v", err)
	}
	if len(raw) != 20 {
		t.Fatalf("esperaba 20 bytes de entropía, hay %d", len(raw))
	}
	if strings.Contains(b32, "=") {
		t.Fatalf("base32 con padding: %q", b32)
	}
	back, err := DecodeSecret(b32)
	if err != nil {
		t.Fatalf("DecodeSecret err: %v", err)
	}
	if string(back) != string(raw) {
		t.Fatal("DecodeSecret no revierte GenerateSecret")
	}
}

func TestVerify_WithinOneStep(t *testing.T) {
	raw, _, err := GenerateSecret()
	if err != nil {
		t.Fatal(err)
	}
	now := time.Date(2024, 6, 1, 10, 30, 15, 0, time.UTC)
	code := Code(raw, now)

	// mismo step y +/- un step de drift
	for _, at := range []time.Time{now, now.Add(-30 * time.Second), now.Add(30 * time.Second)} {
		if !Verify(raw, code, at, 1) {
			t.Fatalf("código generado en %v rechazado al verificar en %v", now, at)
		}
	}
}

func TestVerify_RejectsFarSteps(t *testing.T) {
	raw, _, err := GenerateSecret()
	if err != nil {
		t.Fatal(err)
	}
	now := time.Date(2024, 6, 1, 10, 30, 15, 0, time.UTC)
	code := Code(raw, now)

	// 3+ steps de distancia: afuera de la ventana
	for _, at := range []time.Time{now.Add(-120 * time.Second), now.Add(120 * time.Second)} {
		if Verify(raw, code, at, 1) {
			t.Fatalf("código de %v aceptado en %v", now, at)
		}
	}
}

func TestVerify_RejectsGarbage(t *testing.T) {
	raw, _, _ := GenerateSecret()
	now := time.Now()
	for _, code := range []string{"", "12345", "1234567", "abcdef"} {
		if Verify(raw, code, now, 1) {
			t.Fatalf("código %q aceptado", code)
		}
	}
}

func TestOTPAuthURL(t *testing.T) {
	u := OTPAuthURL("TaskNest", "ana@example.com", "JBSWY3DPEHPK3PXP")
	if !strings.HasPrefix(u, "otpauth://totp/") {
		t.Fatalf("scheme inesperado: %q", u)
	}
	for _, want := range []string{"secret=JBSWY3DPEHPK3PXP", "issuer=TaskNest", "digits=6", "period=30", "algorithm=SHA1"} {
		if !strings.Contains(u, want) {
			t.Fatalf("falta %q en %q", want, u)
		}
	}
}
