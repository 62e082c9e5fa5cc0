package identity

import (
	"testing"
	"time"
)

func TestDerive_Deterministic(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	a := Derive("1990-01-01", "5551234567", at)
	b := Derive("1990-01-01", "5551234567", at)
	if a != b {
		t.Fatalf("misma entrada, distinto ID: %q vs %q", a, b)
	}
}

func TestDerive_EightDigits(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	cases := []struct{ dob, phone string }{
		{"1990-01-01", "5551234567"},
		{"2000-12-31", "1112223333"},
		{"", "github-subject-123"},
	}
	for _, c := range cases {
		id := Derive(c.dob, c.phone, at)
		if len(id) != 8 {
			t.Fatalf("Derive(%q,%q) = %q, esperaba 8 dígitos", c.dob, c.phone, id)
		}
		for _, r := range id {
			if r < '0' || r > '9' {
				t.Fatalf("Derive(%q,%q) = %q tiene un no-dígito", c.dob, c.phone, id)
			}
		}
	}
}

func TestDerive_InputSensitivity(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	base := Derive("1990-01-01", "5551234567", at)
	if Derive("1990-01-02", "5551234567", at) == base &&
		Derive("1990-01-01", "5551234568", at) == base &&
		Derive("1990-01-01", "5551234567", at.Add(time.Millisecond)) == base {
		t.Fatal("cambiar cualquier entrada debería mover el ID casi siempre")
	}
}
