package identity

import (
	"crypto/rand"
	"encoding/base64"
	"io"

	goerrors "github.com/goliatone/go-errors"
)

// tokenBytes is 256 bits of entropy per token.
const tokenBytes = 32

// TokenGenerator produces opaque, URL safe secrets.
type TokenGenerator interface {
	NewToken() (string, error)
}

// RandomTokenGenerator reads from crypto/rand unless Source is set.
type RandomTokenGenerator struct {
	Source io.Reader
}

var _ TokenGenerator = RandomTokenGenerator{}

func (g RandomTokenGenerator) NewToken() (string, error) {
	src := g.Source
	if src == nil {
		src = rand.Reader
	}

	buf := make([]byte, tokenBytes)
	if _, err := io.ReadFull(src, buf); err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, ErrTokenGeneration.Message).
			WithTextCode(TextCodeTokenGenerationFailed)
	}

	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// NewToken returns a random URL safe token.
func NewToken() (string, error) {
	return RandomTokenGenerator{}.NewToken()
}
