package password

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Costos bcrypt. El path de reset usa un factor más alto a propósito:
// es el camino más sensible a ataque offline.
const (
	DefaultCost = 10
	ResetCost   = 11
)

// Hash genera un hash bcrypt con salt aleatorio.
// cost < bcrypt.MinCost cae en DefaultCost.
func Hash(plain string, cost int) (string, error) {
	if plain == "" {
		return "", fmt.Errorf("empty password")
	}
	if cost < bcrypt.MinCost {
		cost = DefaultCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", fmt.Errorf("bcrypt: %w", err)
	}
	return string(b), nil
}

// Verify compara plaintext contra un hash bcrypt. Nunca loguea el plaintext.
func Verify(plain, hash string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
