package cryptox

import (
	"bytes"
	"encoding/base64"
	"encoding/hex"
	"testing"

	"github.com/dmitrijs2005/chatkeeper/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveMasterKey_Deterministic(t *testing.T) {
	password := []byte("secret-password")
	salt := []byte("fixed-salt")

	key1 := DeriveMasterKey(password, salt)
	key2 := DeriveMasterKey(password, salt)

	if !bytes.Equal(key1, key2) {
		t.Errorf("expected same result for same inputs, got different")
	}

	// snapshot
	expectedHex := "34f7a1c64df63ab1ad5b5ee06e64db5713b35f81839823304db63e8e5e6a6a39"
	if hex.EncodeToString(key1) != expectedHex {
		t.Errorf("expected %s, got %s", expectedHex, hex.EncodeToString(key1))
	}
}

func TestDeriveMasterKey_DifferentInputs(t *testing.T) {
	password := []byte("secret-password")

	key1 := DeriveMasterKey(password, []byte("salt-1"))
	key2 := DeriveMasterKey(password, []byte("salt-2"))

	if bytes.Equal(key1, key2) {
		t.Errorf("expected different results for different salts, got same")
	}
}

func TestEncryptDecryptString_RoundTrip(t *testing.T) {
	key := GenerateKey()
	require.Len(t, key, KeySize)

	for _, s := range []string{"", "hello", "Grüße 🌍", "https://example.com?x=1"} {
		enc, err := EncryptString(s, key)
		require.NoError(t, err)
		if s != "" {
			assert.NotContains(t, enc, s)
		}

		dec, err := DecryptString(enc, key)
		require.NoError(t, err)
		assert.Equal(t, s, dec)
	}
}

func TestEncryptString_FreshNonce(t *testing.T) {
	key := GenerateKey()
	a, err := EncryptString("same", key)
	require.NoError(t, err)
	b, err := EncryptString("same", key)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)

	raw, err := base64.StdEncoding.DecodeString(a)
	require.NoError(t, err)
	assert.Len(t, raw, nonceSize+len("same")+16)
}

func TestDecryptString_Failures(t *testing.T) {
	key := GenerateKey()
	enc, err := EncryptString("secret", key)
	require.NoError(t, err)

	_, err = DecryptString(enc, GenerateKey())
	assert.ErrorIs(t, err, common.ErrDecrypt)

	_, err = DecryptString("not base64!!", key)
	assert.ErrorIs(t, err, common.ErrDecrypt)

	_, err = DecryptString(base64.StdEncoding.EncodeToString([]byte("short")), key)
	assert.ErrorIs(t, err, common.ErrDecrypt)
}

func TestSeal_RejectsBadKey(t *testing.T) {
	_, err := Seal([]byte("x"), []byte("short"))
	require.Error(t, err)
}
