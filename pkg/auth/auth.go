// Package auth implements the bcrypt-backed Basic Auth credential
// check that gates the /state endpoint when configured (spec §6).
// Grounded on pkg/auth/auth.go's HashPassword/CheckPassword pair from
// the teacher repo; the JWT/session/role machinery in that file has no
// analog here (a blackbox monitoring daemon has no login flow) and is
// dropped, see DESIGN.md.
package auth

import (
	"crypto/subtle"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// BasicAuth checks a single username/password pair configured at
// startup. An empty Hash disables the check entirely (unauthenticated
// access, matching spec §6's "requires Basic auth when configured").
type BasicAuth struct {
	Username string
	Hash     string
}

// NewBasicAuth builds a checker from a plaintext password, hashing it
// once at startup the way a config loader would hash a credential
// read from an operator-supplied file.
func NewBasicAuth(username, password string) (*BasicAuth, error) {
	if username == "" || password == "" {
		return &BasicAuth{}, nil
	}
	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}
	return &BasicAuth{Username: username, Hash: hash}, nil
}

// Enabled reports whether credentials were configured at all.
func (a *BasicAuth) Enabled() bool { return a.Hash != "" }

// Check verifies a presented username/password pair against the
// configured credential. Always returns true when auth is disabled.
func (a *BasicAuth) Check(username, password string) bool {
	if !a.Enabled() {
		return true
	}
	if subtle.ConstantTimeCompare([]byte(username), []byte(a.Username)) != 1 {
		return false
	}
	return CheckPassword(password, a.Hash) == nil
}

// HashPassword hashes a password using bcrypt.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("auth: failed to hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword compares a password against its bcrypt hash.
func CheckPassword(password, hash string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}
