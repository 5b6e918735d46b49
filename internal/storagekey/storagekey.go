// Package storagekey derives Substrate storage keys for maps keyed by an MSA id.
package storagekey

import (
	"encoding/binary"
	"encoding/hex"

	"github.com/cespare/xxhash/v2"
)

var (
	// PublicKeyCount is the Msa::PublicKeyCountForMsaId map. A non-zero count is the
	// authoritative existence check for an MSA.
	PublicKeyCount = NewMap("Msa", "PublicKeyCountForMsaId")

	// DisplayName is the Handles::MSAIdToDisplayName map.
	DisplayName = NewMap("Handles", "MSAIdToDisplayName")
)

// Map identifies a single storage map by its module and method hash prefix.
type Map struct {
	module string
	method string
	prefix []byte
	order  binary.ByteOrder
}

// NewMap computes the prefix twox128(module) ++ twox128(method) for a storage map.
func NewMap(module, method string) Map {
	prefix := make([]byte, 0, 32)
	prefix = append(prefix, Twox128([]byte(module))...)
	prefix = append(prefix, Twox128([]byte(method))...)
	return Map{module: module, method: method, prefix: prefix, order: binary.BigEndian}
}

// WithByteOrder returns a copy of the map that encodes user ids with the given byte order.
func (m Map) WithByteOrder(order binary.ByteOrder) Map {
	if order == nil {
		order = binary.BigEndian
	}
	m.order = order
	return m
}

func (m Map) Module() string {
	return m.module
}

func (m Map) Method() string {
	return m.method
}

// Prefix returns a copy of the 32 byte map prefix.
func (m Map) Prefix() []byte {
	return append([]byte(nil), m.prefix...)
}

// Key returns prefix ++ twox64(id) ++ id, where id is the fixed width encoding of userID.
// The layout has to match the chain exactly; a wrong key reads as an absent value.
func (m Map) Key(userID uint64) []byte {
	id := encodeUserID(userID, m.order)
	key := make([]byte, 0, len(m.prefix)+16)
	key = append(key, m.prefix...)
	key = append(key, Twox64(id)...)
	key = append(key, id...)
	return key
}

// KeyHex is Key encoded as a 0x prefixed hex string, the form state_getStorage expects.
func (m Map) KeyHex(userID uint64) string {
	return "0x" + hex.EncodeToString(m.Key(userID))
}

// EncodeUserID returns the 8 byte big-endian encoding of a user id.
func EncodeUserID(userID uint64) []byte {
	return encodeUserID(userID, binary.BigEndian)
}

func encodeUserID(userID uint64, order binary.ByteOrder) []byte {
	b := make([]byte, 8)
	order.PutUint64(b, userID)
	return b
}

// Twox64 is xxhash64 with seed 0, serialized little-endian.
func Twox64(data []byte) []byte {
	return twox(data, 1)
}

// Twox128 is two xxhash64 rounds with seeds 0 and 1, each serialized little-endian.
func Twox128(data []byte) []byte {
	return twox(data, 2)
}

func twox(data []byte, rounds int) []byte {
	out := make([]byte, 8*rounds)
	for seed := 0; seed < rounds; seed++ {
		d := xxhash.NewWithSeed(uint64(seed))
		_, _ = d.Write(data)
		binary.LittleEndian.PutUint64(out[8*seed:], d.Sum64())
	}
	return out
}
