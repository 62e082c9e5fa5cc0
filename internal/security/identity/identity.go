// Package identity deriva el ID público de 8 dígitos que el usuario usa
// para loguearse (distinto del ID interno del store).
package identity

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"time"
)

// Derive es una función pura: mismos (dob, phone, instant) => mismo ID.
// sha256("dob-phone-millis"), primeros 8 bytes como uint64, módulo 1e8,
// con padding a 8 dígitos. No garantiza unicidad global: eso lo asegura
// el índice único del store, que reporta el choque como conflicto.
func Derive(dateOfBirth, phoneNumber string, at time.Time) string {
	input := fmt.Sprintf("%s-%s-%d", dateOfBirth, phoneNumber, at.UnixMilli())
	sum := sha256.Sum256([]byte(input))
	n := binary.BigEndian.Uint64(sum[:8])
	return fmt.Sprintf("%08d", n%100000000)
}
