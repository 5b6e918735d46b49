package storagekey

import (
	"encoding/binary"
	"encoding/hex"
	"testing"

	"github.com/cespare/xxhash/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTwox(t *testing.T) {
	t.Run("well known System.Account prefix", func(tt *testing.T) {
		m := NewMap("System", "Account")
		assert.Equal(tt, "26aa394eea5630e07c48ae0c9558cef7b99d880ec681799c0cf30e8886371da9", hex.EncodeToString(m.Prefix()))
	})

	t.Run("twox64 is seed zero little-endian", func(tt *testing.T) {
		data := []byte("dsnp")
		expected := make([]byte, 8)
		binary.LittleEndian.PutUint64(expected, xxhash.Sum64(data))
		assert.Equal(tt, expected, Twox64(data))
		assert.Equal(tt, expected, Twox128(data)[:8])
	})
}

func TestMapKey(t *testing.T) {
	t.Run("layout is prefix, hash of id, id", func(tt *testing.T) {
		key := PublicKeyCount.Key(13972)
		require.Len(tt, key, 48)

		id := EncodeUserID(13972)
		assert.Equal(tt, []byte{0, 0, 0, 0, 0, 0, 0x36, 0x94}, id)
		assert.Equal(tt, PublicKeyCount.Prefix(), key[:32])
		assert.Equal(tt, Twox64(id), key[32:40])
		assert.Equal(tt, id, key[40:])
	})

	t.Run("maps share the suffix scheme but not the prefix", func(tt *testing.T) {
		count := PublicKeyCount.Key(42)
		name := DisplayName.Key(42)
		assert.NotEqual(tt, count[:32], name[:32])
		assert.Equal(tt, count[32:], name[32:])
	})

	t.Run("hex form", func(tt *testing.T) {
		key := DisplayName.KeyHex(1)
		assert.Equal(tt, "0x"+hex.EncodeToString(DisplayName.Key(1)), key)
		assert.Len(tt, key, 2+96)
	})

	t.Run("byte order can be switched", func(tt *testing.T) {
		le := PublicKeyCount.WithByteOrder(binary.LittleEndian)
		key := le.Key(1)
		assert.Equal(tt, []byte{1, 0, 0, 0, 0, 0, 0, 0}, key[40:])
		assert.Equal(tt, []byte{0, 0, 0, 0, 0, 0, 0, 1}, PublicKeyCount.Key(1)[40:])
		assert.Equal(tt, "Msa", le.Module())
		assert.Equal(tt, "PublicKeyCountForMsaId", le.Method())
	})

	t.Run("prefix is a copy", func(tt *testing.T) {
		p := PublicKeyCount.Prefix()
		p[0] ^= 0xff
		assert.NotEqual(tt, p, PublicKeyCount.Prefix())
	})
}
