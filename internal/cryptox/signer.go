package cryptox

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"strings"

	"github.com/dmitrijs2005/cardkeep/internal/common"
)

const (
	// SessionIDBytes is the entropy of a session identifier.
	SessionIDBytes = 32
	// SigningKeyBytes is the size of a generated signing key.
	SigningKeyBytes = 32
)

var errEmptyKey = errors.New("signing key must not be empty")

// Signer binds values to an HMAC-SHA256 tag so tampering is detectable.
// Tokens look like value + "." + base64url(tag) without padding.
type Signer struct {
	key []byte
}

// NewSigner returns a signer over key. The key is copied.
func NewSigner(key []byte) (*Signer, error) {
	if len(key) == 0 {
		return nil, errEmptyKey
	}
	return &Signer{key: append([]byte(nil), key...)}, nil
}

// NewRandomSigner returns a signer with a fresh random key. Tokens it issues
// do not survive a restart.
func NewRandomSigner() *Signer {
	return &Signer{key: common.GenerateRandByteArray(SigningKeyBytes)}
}

// Sign returns value + "." + tag.
func (s *Signer) Sign(value string) string {
	return value + "." + base64.RawURLEncoding.EncodeToString(s.mac(value))
}

// Unsign checks token and returns the embedded value. Anything other than an
// intact token issued under the same key gives ok=false.
func (s *Signer) Unsign(token string) (string, bool) {
	i := strings.LastIndexByte(token, '.')
	if i <= 0 || i == len(token)-1 {
		return "", false
	}
	value, encodedTag := token[:i], token[i+1:]

	tag, err := base64.RawURLEncoding.Strict().DecodeString(encodedTag)
	if err != nil || len(tag) != sha256.Size {
		return "", false
	}
	if !hmac.Equal(tag, s.mac(value)) {
		return "", false
	}
	return value, true
}

func (s *Signer) mac(value string) []byte {
	m := hmac.New(sha256.New, s.key)
	m.Write([]byte(value))
	return m.Sum(nil)
}

// NewSessionID returns 32 random bytes as unpadded base64url.
func NewSessionID() string {
	return common.MakeRandURLString(SessionIDBytes)
}
