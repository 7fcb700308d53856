package sealbox

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSealOpen(t *testing.T) {
	box, err := New("a secret that is long enough")
	require.NoError(t, err)

	sealed, err := box.Seal("900101-1234567")
	require.NoError(t, err)
	assert.NotContains(t, sealed, "1234567")

	again, err := box.Seal("900101-1234567")
	require.NoError(t, err)
	assert.NotEqual(t, sealed, again, "nonce must be random")

	opened, err := box.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, "900101-1234567", opened)
}

func TestOpenWithOtherKey(t *testing.T) {
	box1, err := New("secret one")
	require.NoError(t, err)
	box2, err := New("secret two")
	require.NoError(t, err)

	sealed, err := box1.Seal("1234567890123")
	require.NoError(t, err)

	_, err = box2.Open(sealed)
	assert.ErrorIs(t, err, ErrOpen)
}

func TestOpenMalformed(t *testing.T) {
	box, err := New("secret")
	require.NoError(t, err)

	for _, s := range []string{"", "not base64 !!", "c2hvcnQ"} {
		_, err := box.Open(s)
		assert.ErrorIs(t, err, ErrMalformed, s)
	}
}

func TestNewEmptySecret(t *testing.T) {
	_, err := New("")
	assert.ErrorIs(t, err, ErrEmptySecret)
}

func TestMask(t *testing.T) {
	assert.Equal(t, "******-*******", Mask("900101-1234567", 0))
	assert.Equal(t, "*********0123", Mask("1234567890123", 4))
	assert.Equal(t, "abc", Mask("abc", 5))
}
