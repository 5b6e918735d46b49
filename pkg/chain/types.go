package chain

import (
	"encoding/hex"
	"strings"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"
)

// Bytes decodes a Vec<u8> the way node RPCs serialize it: a 0x prefixed hex string or,
// for runtime APIs without hex serde, an array of numbers.
type Bytes []byte

func (b *Bytes) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*b = nil
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		decoded, err := DecodeHex(s)
		if err != nil {
			return err
		}
		*b = decoded
		return nil
	}
	var numbers []uint16
	if err := json.Unmarshal(data, &numbers); err != nil {
		return errors.Wrap(err, "bytes must be a hex string or an array of numbers")
	}
	out := make([]byte, len(numbers))
	for i, n := range numbers {
		if n > 0xff {
			return errors.Errorf("byte %d out of range: %d", i, n)
		}
		out[i] = byte(n)
	}
	*b = out
	return nil
}

func (b Bytes) MarshalJSON() ([]byte, error) {
	return json.Marshal(EncodeHex(b))
}

// AccountID is a 32 byte account public key, serialized by the node in SS58 form.
type AccountID []byte

func (a *AccountID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return errors.Wrap(err, "account id must be a string")
	}
	var (
		decoded []byte
		err     error
	)
	if strings.HasPrefix(s, "0x") {
		decoded, err = DecodeHex(s)
	} else {
		decoded, _, err = DecodeSS58(s)
	}
	if err != nil {
		return err
	}
	if len(decoded) != AccountIDSize {
		return errors.Errorf("account id has %d bytes, expected %d", len(decoded), AccountIDSize)
	}
	*a = decoded
	return nil
}

func (a AccountID) MarshalJSON() ([]byte, error) {
	return json.Marshal(EncodeHex(a))
}

// KeyInfoResponse is the result of msa_getKeysByMsaId.
type KeyInfoResponse struct {
	MsaID   uint64      `json:"msa_id"`
	MsaKeys []AccountID `json:"msa_keys"`
}

// ItemizedStorageResponse is one item of an itemized storage page.
type ItemizedStorageResponse struct {
	Index   uint16 `json:"index"`
	Payload Bytes  `json:"payload"`
}

// ItemizedStoragePageResponse is the result of statefulStorage_getItemizedStorage.
type ItemizedStoragePageResponse struct {
	MsaID       uint64                    `json:"msa_id"`
	SchemaID    uint16                    `json:"schema_id"`
	ContentHash uint32                    `json:"content_hash"`
	Nonce       uint32                    `json:"nonce"`
	Items       []ItemizedStorageResponse `json:"items"`
}

// SchemaVersionResponse is one entry of schemas_getVersions.
type SchemaVersionResponse struct {
	SchemaName    string `json:"schema_name"`
	SchemaVersion uint16 `json:"schema_version"`
	SchemaID      uint16 `json:"schema_id"`
}

// EncodeHex returns b as a 0x prefixed hex string.
func EncodeHex(b []byte) string {
	return "0x" + hex.EncodeToString(b)
}

// DecodeHex decodes a hex string with or without the 0x prefix.
func DecodeHex(s string) ([]byte, error) {
	decoded, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return nil, errors.Wrapf(err, "decoding hex<%s>", s)
	}
	return decoded, nil
}
