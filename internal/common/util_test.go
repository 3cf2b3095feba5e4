package common

import (
	"encoding/base64"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMakeRandURLString_DecodesToSize(t *testing.T) {
	s := MakeRandURLString(32)
	assert.Len(t, s, 43)
	assert.NotContains(t, s, "=")
	assert.NotContains(t, s, ".")

	raw, err := base64.RawURLEncoding.DecodeString(s)
	require.NoError(t, err)
	assert.Len(t, raw, 32)
}

func TestMakeRandURLString_Distinct(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		s := MakeRandURLString(32)
		_, dup := seen[s]
		require.False(t, dup, "duplicate random string %q", s)
		seen[s] = struct{}{}
	}
}

func TestWipeByteArray(t *testing.T) {
	buf := []byte{1, 2, 3, 4, 5}
	WipeByteArray(buf)
	assert.Equal(t, []byte{0, 0, 0, 0, 0}, buf)

	WipeByteArray(nil)
}

func TestGenerateRandByteArray(t *testing.T) {
	a := GenerateRandByteArray(24)
	b := GenerateRandByteArray(24)
	require.Len(t, a, 24)
	require.Len(t, b, 24)
	if string(a) == string(b) {
		t.Logf("warning: two GenerateRandByteArray(24) results are identical; extremely unlikely")
	}
}

func TestPersistenceWrapping_KeepsBothSentinels(t *testing.T) {
	err := fmt.Errorf("%w: %w", ErrPersistence, ErrorNotFound)
	assert.True(t, errors.Is(err, ErrPersistence))
	assert.True(t, errors.Is(err, ErrorNotFound))
	assert.False(t, errors.Is(err, ErrInvalidCredentials))
}
