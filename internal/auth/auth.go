// Package auth hashes and verifies account passwords.
//
// Two schemes exist. The legacy scheme is an unsalted SHA-256 hex digest and
// remains the default so that existing databases keep working. The bcrypt
// scheme is salted; when it is configured, legacy digests are upgraded the
// next time their owner logs in.
package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/mesh-intelligence/marquee/pkg/types"
)

// bcryptPrefix starts every bcrypt digest ($2a$, $2b$, $2y$).
const bcryptPrefix = "$2"

// MaxBcryptPassword is the longest plaintext, in bytes, bcrypt accepts.
const MaxBcryptPassword = 72

// Hash returns the lowercase hex SHA-256 digest of plaintext.
func Hash(plaintext string) string {
	sum := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(sum[:])
}

// Verify reports whether plaintext matches digest. The scheme is detected
// from the digest itself.
func Verify(digest, plaintext string) bool {
	if isBcrypt(digest) {
		return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
	}
	want := Hash(plaintext)
	return subtle.ConstantTimeCompare([]byte(strings.ToLower(digest)), []byte(want)) == 1
}

func isBcrypt(digest string) bool {
	return strings.HasPrefix(digest, bcryptPrefix)
}

// Hasher produces digests in one configured scheme.
type Hasher struct {
	scheme string
	cost   int
}

// NewHasher returns a Hasher for scheme. An empty scheme selects
// types.SchemeSHA256.
func NewHasher(scheme string) (*Hasher, error) {
	switch scheme {
	case "":
		scheme = types.SchemeSHA256
	case types.SchemeSHA256, types.SchemeBcrypt:
	default:
		return nil, fmt.Errorf("%w: %q", types.ErrPasswordSchemeUnknown, scheme)
	}
	return &Hasher{scheme: scheme, cost: bcrypt.DefaultCost}, nil
}

// Scheme returns the configured scheme name.
func (h *Hasher) Scheme() string { return h.scheme }

// Digest hashes plaintext in the configured scheme. Under bcrypt a
// plaintext longer than MaxBcryptPassword bytes is types.ErrInvalidPassword.
func (h *Hasher) Digest(plaintext string) (string, error) {
	if h.scheme == types.SchemeBcrypt {
		if len(plaintext) > MaxBcryptPassword {
			return "", fmt.Errorf("%w: longer than %d bytes", types.ErrInvalidPassword, MaxBcryptPassword)
		}
		b, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
		if err != nil {
			return "", fmt.Errorf("bcrypt: %w", err)
		}
		return string(b), nil
	}
	return Hash(plaintext), nil
}

// NeedsUpgrade reports whether digest is weaker than the configured scheme.
func (h *Hasher) NeedsUpgrade(digest string) bool {
	return h.scheme == types.SchemeBcrypt && !isBcrypt(digest)
}
