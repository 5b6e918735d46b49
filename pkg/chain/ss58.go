package chain

import (
	"bytes"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"golang.org/x/crypto/blake2b"
)

const (
	// AccountIDSize is the length of an AccountId32.
	AccountIDSize = 32

	ss58ChecksumSize = 2
)

var ss58Prefix = []byte("SS58PRE")

// DecodeSS58 decodes an SS58 address into its account bytes and network prefix,
// verifying the blake2b-512 checksum.
func DecodeSS58(address string) ([]byte, uint16, error) {
	raw, err := base58.Decode(address)
	if err != nil {
		return nil, 0, errors.Wrapf(err, "decoding ss58 address<%s>", address)
	}
	if len(raw) < 1+ss58ChecksumSize+1 {
		return nil, 0, errors.Errorf("ss58 address<%s> is too short", address)
	}

	var (
		network    uint16
		prefixSize int
	)
	switch {
	case raw[0] < 64:
		network = uint16(raw[0])
		prefixSize = 1
	case raw[0] < 128:
		// two byte form: lower six bits of the first byte and the second byte
		first := uint16(raw[0]&0b0011_1111)<<2 | uint16(raw[1]>>6)
		second := uint16(raw[1] & 0b0011_1111)
		network = first | second<<8
		prefixSize = 2
	default:
		return nil, 0, errors.Errorf("ss58 address<%s> has a reserved prefix", address)
	}

	body := raw[:len(raw)-ss58ChecksumSize]
	checksum := raw[len(raw)-ss58ChecksumSize:]
	expected := ss58Checksum(body)
	if !bytes.Equal(checksum, expected[:ss58ChecksumSize]) {
		return nil, 0, errors.Errorf("ss58 address<%s> has an invalid checksum", address)
	}
	return body[prefixSize:], network, nil
}

// EncodeSS58 encodes account bytes under a network prefix below 64.
func EncodeSS58(account []byte, network uint8) (string, error) {
	if network >= 64 {
		return "", errors.Errorf("network prefix %d needs the two byte form", network)
	}
	body := append([]byte{network}, account...)
	checksum := ss58Checksum(body)
	return base58.Encode(append(body, checksum[:ss58ChecksumSize]...)), nil
}

func ss58Checksum(body []byte) [blake2b.Size]byte {
	data := make([]byte, 0, len(ss58Prefix)+len(body))
	data = append(data, ss58Prefix...)
	data = append(data, body...)
	return blake2b.Sum512(data)
}
