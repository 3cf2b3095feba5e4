// Package cryptox holds the password hasher and the session token signer.
package cryptox

import (
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/cardkeep/internal/common"
	"golang.org/x/crypto/argon2"
)

// ErrMalformedHash is returned by Verify for anything that is not a
// well-formed argon2id PHC string.
var ErrMalformedHash = errors.New("malformed password hash")

// HashParams is the Argon2id cost policy.
type HashParams struct {
	Time        uint32 // iterations
	Memory      uint32 // KiB
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultHashParams returns t=3, m=64 MiB, p=2 with a 16 byte salt and a
// 32 byte key.
func DefaultHashParams() HashParams {
	return HashParams{
		Time:        3,
		Memory:      64 * 1024,
		Parallelism: 2,
		SaltLength:  16,
		KeyLength:   32,
	}
}

// Floors for the largest parameters Verify will run with. The effective
// ceiling is the larger of these and limitFactor times the configured policy.
const (
	maxMemoryFloor    = 1 << 20 // KiB
	maxTimeFloor      = 16
	maxKeyLengthFloor = 64
	limitFactor       = 4
)

// PasswordHasher hashes and verifies passwords. The pepper is appended to
// every password and is never part of the encoded output.
type PasswordHasher struct {
	params HashParams
	pepper []byte
}

func NewPasswordHasher(params HashParams, pepper string) *PasswordHasher {
	return &PasswordHasher{params: params, pepper: []byte(pepper)}
}

// Hash encodes password as $argon2id$v=19$m=..,t=..,p=..$salt$digest.
func (h *PasswordHasher) Hash(password string) (string, error) {
	salt := common.GenerateRandByteArray(int(h.params.SaltLength))

	input := h.peppered(password)
	defer common.WipeByteArray(input)

	key := argon2.IDKey(input, salt, h.params.Time, h.params.Memory, h.params.Parallelism, h.params.KeyLength)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		h.params.Memory,
		h.params.Time,
		h.params.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify recomputes the digest with the parameters embedded in encoded and
// compares in constant time. Malformed input yields false and ErrMalformedHash.
func (h *PasswordHasher) Verify(encoded, password string) (bool, error) {
	d, err := decodeHash(encoded)
	if err != nil {
		return false, err
	}
	if !h.withinLimits(d.params) {
		return false, ErrMalformedHash
	}

	input := h.peppered(password)
	defer common.WipeByteArray(input)

	key := argon2.IDKey(input, d.salt, d.params.Time, d.params.Memory, d.params.Parallelism, d.params.KeyLength)
	return subtle.ConstantTimeCompare(key, d.key) == 1, nil
}

// NeedsRehash reports whether encoded was produced under a different policy
// than the current one. Unparseable hashes always need a rehash.
func (h *PasswordHasher) NeedsRehash(encoded string) bool {
	d, err := decodeHash(encoded)
	if err != nil {
		return true
	}
	return d.version != argon2.Version ||
		d.params.Memory != h.params.Memory ||
		d.params.Time != h.params.Time ||
		d.params.Parallelism != h.params.Parallelism ||
		d.params.KeyLength != h.params.KeyLength
}

// withinLimits bounds the work a stored hash can demand from Verify.
func (h *PasswordHasher) withinLimits(p HashParams) bool {
	return uint64(p.Memory) <= limit(h.params.Memory, maxMemoryFloor) &&
		uint64(p.Time) <= limit(h.params.Time, maxTimeFloor) &&
		uint64(p.KeyLength) <= limit(h.params.KeyLength, maxKeyLengthFloor)
}

func limit(policy uint32, floor uint64) uint64 {
	return max(limitFactor*uint64(policy), floor)
}

func (h *PasswordHasher) peppered(password string) []byte {
	b := make([]byte, 0, len(password)+len(h.pepper))
	b = append(b, password...)
	return append(b, h.pepper...)
}

type decodedHash struct {
	version int
	params  HashParams
	salt    []byte
	key     []byte
}

func decodeHash(encoded string) (*decodedHash, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return nil, ErrMalformedHash
	}

	v, ok := strings.CutPrefix(parts[2], "v=")
	if !ok {
		return nil, ErrMalformedHash
	}
	version, err := strconv.Atoi(v)
	if err != nil || version != argon2.Version {
		return nil, ErrMalformedHash
	}

	params, err := parseParams(parts[3])
	if err != nil {
		return nil, err
	}

	b64 := base64.RawStdEncoding.Strict()
	salt, err := b64.DecodeString(parts[4])
	if err != nil || len(salt) == 0 {
		return nil, ErrMalformedHash
	}
	key, err := b64.DecodeString(parts[5])
	if err != nil || len(key) < 4 {
		return nil, ErrMalformedHash
	}
	params.SaltLength = uint32(len(salt))
	params.KeyLength = uint32(len(key))

	return &decodedHash{version: version, params: params, salt: salt, key: key}, nil
}

// parseParams reads "m=..,t=..,p=.." in exactly that order.
func parseParams(s string) (HashParams, error) {
	var p HashParams
	fields := strings.Split(s, ",")
	if len(fields) != 3 {
		return p, ErrMalformedHash
	}

	values := make([]uint64, 3)
	for i, name := range []string{"m", "t", "p"} {
		raw, ok := strings.CutPrefix(fields[i], name+"=")
		if !ok {
			return p, ErrMalformedHash
		}
		bits := 32
		if name == "p" {
			bits = 8
		}
		n, err := strconv.ParseUint(raw, 10, bits)
		if err != nil {
			return p, ErrMalformedHash
		}
		values[i] = n
	}

	p.Memory = uint32(values[0])
	p.Time = uint32(values[1])
	p.Parallelism = uint8(values[2])

	// argon2 panics on zero rounds; memory below 8*p is clamped silently,
	// which would make the stored parameters lie.
	if p.Time < 1 || p.Parallelism < 1 || p.Memory < 8*uint32(p.Parallelism) {
		return p, ErrMalformedHash
	}
	return p, nil
}
