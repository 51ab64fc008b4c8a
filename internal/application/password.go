package application

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// PasswordVerifier compares a stored hash with a candidate password.
type PasswordVerifier func(hashedPassword, password string) error

// HashPassword derives the stored form of a password. The scheme is an
// unsalted SHA-256 hex digest, matching every credential already present in
// the database.
func HashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

// VerifyPassword compares a stored hash with a candidate password in constant
// time.
func VerifyPassword(hashedPassword, password string) error {
	candidate := HashPassword(password)
	if subtle.ConstantTimeCompare([]byte(hashedPassword), []byte(candidate)) == 1 {
		return nil
	}
	return ErrInvalidCredentials
}
