package cryptox

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSealOpen_RoundTrip(t *testing.T) {
	key := DeriveKey([]byte("passphrase"), []byte("container-salt"))
	plain := []byte(`{"id":"abc","title":"Café"}`)

	sealed, err := Seal(plain, key)
	require.NoError(t, err)
	assert.NotEqual(t, plain, sealed)

	got, err := Open(sealed, key)
	require.NoError(t, err)
	assert.Equal(t, plain, got)
}

func TestOpen_WrongKeyFails(t *testing.T) {
	key := DeriveKey([]byte("right"), []byte("salt"))
	other := DeriveKey([]byte("wrong"), []byte("salt"))

	sealed, err := Seal([]byte("secret"), key)
	require.NoError(t, err)

	_, err = Open(sealed, other)
	require.Error(t, err)
}

func TestOpen_TruncatedCiphertext(t *testing.T) {
	key := DeriveKey([]byte("p"), []byte("s"))
	_, err := Open([]byte{0x01, 0x02}, key)
	assert.ErrorIs(t, err, ErrCiphertextTooShort)
}

func TestDeriveKey_Deterministic(t *testing.T) {
	a := DeriveKey([]byte("p"), []byte("s"))
	b := DeriveKey([]byte("p"), []byte("s"))
	c := DeriveKey([]byte("p"), []byte("other"))

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 32)
}
