package identity

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// SecretDigester hashes and checks every secret the package stores:
// passwords and the remember, activation and reset tokens.
type SecretDigester interface {
	Digest(secret string) (string, error)
	// Verify reports whether candidate matches stored. An empty stored digest
	// is a plain mismatch; a malformed one returns ErrCorruptDigest.
	Verify(stored, candidate string) (bool, error)
}

// BcryptDigester is the bcrypt SecretDigester.
type BcryptDigester struct {
	Cost int
}

var _ SecretDigester = BcryptDigester{}

// NewBcryptDigester clamps cost into the range bcrypt accepts.
func NewBcryptDigester(cost int) BcryptDigester {
	switch {
	case cost < bcrypt.MinCost:
		cost = bcrypt.MinCost
	case cost > bcrypt.MaxCost:
		cost = bcrypt.MaxCost
	}
	return BcryptDigester{Cost: cost}
}

// Digest will generate a salted hash for secret
func (d BcryptDigester) Digest(secret string) (string, error) {
	if secret == "" {
		return "", ErrNoEmptyString
	}

	cost := d.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}

	h, err := bcrypt.GenerateFromPassword([]byte(secret), cost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// Verify compares candidate with the stored digest
func (d BcryptDigester) Verify(stored, candidate string) (bool, error) {
	if stored == "" {
		return false, nil
	}

	err := bcrypt.CompareHashAndPassword([]byte(stored), []byte(candidate))
	if err == nil {
		return true, nil
	}

	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}

	return false, corruptDigest("", err)
}
