package password

import (
	"strings"
	"testing"
)

func TestHashVerify_RoundTrip(t *testing.T) {
	// cost bajo para que el test no tarde
	h, err := Hash("SuperSecreta1!", 4)
	if err != nil {
		t.Fatalf("Hash err: %v", err)
	}
	if h == "SuperSecreta1!" {
		t.Fatal("hash igual al plaintext")
	}
	if !Verify("SuperSecreta1!", h) {
		t.Fatal("Verify con el password correcto dio false")
	}
	if Verify("otra-cosa", h) {
		t.Fatal("Verify con password incorrecto dio true")
	}
}

func TestHash_DistinctSalts(t *testing.T) {
	a, err := Hash("mismo password", 4)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Hash("mismo password", 4)
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Fatal("dos hashes del mismo password no deberían coincidir (salt)")
	}
}

func TestHash_EmptyPassword(t *testing.T) {
	if _, err := Hash("", DefaultCost); err == nil {
		t.Fatal("esperaba error con password vacío")
	}
}

func TestVerify_EmptyHash(t *testing.T) {
	if Verify("lo que sea", "") {
		t.Fatal("Verify con hash vacío dio true")
	}
}

func TestPolicy_Validate(t *testing.T) {
	p := Policy{MinLength: 8, RequireUpper: true, RequireDigit: true}

	if ok, _ := p.Validate("Abcdefg1"); !ok {
		t.Fatal("password válido rechazado")
	}
	ok, reasons := p.Validate("corta")
	if ok {
		t.Fatal("password débil aceptado")
	}
	joined := strings.Join(reasons, ",")
	for _, want := range []string{"too_short", "missing_upper", "missing_digit"} {
		if !strings.Contains(joined, want) {
			t.Fatalf("falta razón %q en %q", want, joined)
		}
	}
}
