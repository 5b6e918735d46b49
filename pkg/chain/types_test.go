package chain

import (
	"encoding/hex"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBytesJSON(t *testing.T) {
	t.Run("Hex string", func(tt *testing.T) {
		var b Bytes
		require.NoError(tt, json.Unmarshal([]byte(`"0x40a1ff"`), &b))
		assert.Equal(tt, Bytes{0x40, 0xa1, 0xff}, b)
	})

	t.Run("Number array", func(tt *testing.T) {
		var b Bytes
		require.NoError(tt, json.Unmarshal([]byte(`[64, 161, 255]`), &b))
		assert.Equal(tt, Bytes{0x40, 0xa1, 0xff}, b)
	})

	t.Run("Out of range number", func(tt *testing.T) {
		var b Bytes
		assert.ErrorContains(tt, json.Unmarshal([]byte(`[64, 256]`), &b), "out of range")
	})

	t.Run("Null", func(tt *testing.T) {
		var b *Bytes
		require.NoError(tt, json.Unmarshal([]byte(`null`), &b))
		assert.Nil(tt, b)
	})

	t.Run("Bad hex", func(tt *testing.T) {
		var b Bytes
		assert.Error(tt, json.Unmarshal([]byte(`"0xzz"`), &b))
	})

	t.Run("Marshals as hex", func(tt *testing.T) {
		out, err := json.Marshal(Bytes{0x01, 0x02})
		require.NoError(tt, err)
		assert.JSONEq(tt, `"0x0102"`, string(out))
	})
}

func TestAccountIDJSON(t *testing.T) {
	alice, err := hex.DecodeString(alicePublicKey)
	require.NoError(t, err)

	t.Run("SS58", func(tt *testing.T) {
		var a AccountID
		require.NoError(tt, json.Unmarshal([]byte(`"`+aliceAddress+`"`), &a))
		assert.Equal(tt, AccountID(alice), a)
	})

	t.Run("Hex", func(tt *testing.T) {
		var a AccountID
		require.NoError(tt, json.Unmarshal([]byte(`"0x`+alicePublicKey+`"`), &a))
		assert.Equal(tt, AccountID(alice), a)
	})

	t.Run("Wrong length", func(tt *testing.T) {
		var a AccountID
		assert.ErrorContains(tt, json.Unmarshal([]byte(`"0x0102"`), &a), "expected 32")
	})

	t.Run("Key info response", func(tt *testing.T) {
		var info KeyInfoResponse
		payload := `{"msa_id": 13972, "msa_keys": ["` + aliceAddress + `"]}`
		require.NoError(tt, json.Unmarshal([]byte(payload), &info))
		assert.Equal(tt, uint64(13972), info.MsaID)
		require.Len(tt, info.MsaKeys, 1)
		assert.Equal(tt, AccountID(alice), info.MsaKeys[0])
	})
}

func TestHex(t *testing.T) {
	assert.Equal(t, "0x", EncodeHex(nil))
	decoded, err := DecodeHex("abcd")
	require.NoError(t, err)
	assert.Equal(t, []byte{0xab, 0xcd}, decoded)
}
