// Package multikey turns public keys read from chain into multibase encoded Multikey values.
package multikey

import (
	"bytes"

	"github.com/hamba/avro/v2"
	"github.com/multiformats/go-multibase"
	"github.com/multiformats/go-multicodec"
	"github.com/multiformats/go-varint"
	"github.com/pkg/errors"
)

// PublicKeySchema is the DSNP public key record stored in itemized storage for both the
// key-agreement and assertion-method schemas.
const PublicKeySchema = `{
	"type": "record",
	"name": "PublicKey",
	"namespace": "org.dsnp",
	"fields": [
		{
			"name": "publicKey",
			"doc": "Multicodec public key",
			"type": "bytes"
		}
	]
}`

// untaggedKeySize is the length of keys stored before multicodec tagging was required.
const untaggedKeySize = 32

var publicKeySchema = avro.MustParse(PublicKeySchema)

// PublicKey mirrors the org.dsnp.PublicKey record.
type PublicKey struct {
	PublicKey []byte `avro:"publicKey"`
}

// DecodeError reports a stored payload that does not match the expected binary layout.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return "decoding public key payload: " + e.Err.Error()
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// DecodePublicKey decodes an Avro encoded PublicKey record and returns the raw key bytes.
func DecodePublicKey(payload []byte) ([]byte, error) {
	if len(payload) == 0 {
		return nil, &DecodeError{Err: errors.New("empty payload")}
	}
	var record PublicKey
	if err := avro.Unmarshal(publicKeySchema, payload, &record); err != nil {
		return nil, &DecodeError{Err: err}
	}

	// the record has one field, so re-encoding tells us whether anything trailed it
	encoded, err := avro.Marshal(publicKeySchema, record)
	if err != nil {
		return nil, &DecodeError{Err: err}
	}
	if !bytes.Equal(encoded, payload) {
		return nil, &DecodeError{Err: errors.Errorf("%d trailing bytes after record", len(payload)-len(encoded))}
	}
	return record.PublicKey, nil
}

// EncodePublicKey is the inverse of DecodePublicKey.
func EncodePublicKey(key []byte) ([]byte, error) {
	return avro.Marshal(publicKeySchema, PublicKey{PublicKey: key})
}

// Encode prefixes key with the varint of codec and encodes the result as base58btc multibase.
func Encode(codec multicodec.Code, key []byte) (string, error) {
	tagged := append(varint.ToUvarint(uint64(codec)), key...)
	return EncodeRaw(tagged)
}

// EncodeRaw encodes already tagged bytes as base58btc multibase.
func EncodeRaw(data []byte) (string, error) {
	encoded, err := multibase.Encode(multibase.Base58BTC, data)
	if err != nil {
		return "", errors.Wrap(err, "multibase encoding")
	}
	return encoded, nil
}

// EncodeItemizedKey encodes a key read from itemized storage. 32 byte keys were stored
// without a multicodec tag and are assumed to be x25519 keys; every other length is
// expected to carry its own tag and is encoded as-is.
// TODO: drop the untagged branch once all stored keys carry a multicodec tag.
func EncodeItemizedKey(raw []byte) (string, error) {
	if len(raw) == untaggedKeySize {
		return Encode(multicodec.X25519Pub, raw)
	}
	return EncodeRaw(raw)
}

// EncodeAccountKey encodes an MSA control key, which is always an sr25519 public key.
func EncodeAccountKey(raw []byte) (string, error) {
	return Encode(multicodec.Sr25519Pub, raw)
}

// DecodeItemizedPayload decodes an itemized storage payload into its multibase key.
func DecodeItemizedPayload(payload []byte) (string, error) {
	key, err := DecodePublicKey(payload)
	if err != nil {
		return "", err
	}
	return EncodeItemizedKey(key)
}
