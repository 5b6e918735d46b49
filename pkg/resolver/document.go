package resolver

import (
	"strconv"
	"strings"
)

const (
	// Method is the DID method this resolver serves.
	Method = "dsnp"

	DIDContext      = "https://www.w3.org/ns/did/v1"
	MultikeyContext = "https://w3id.org/security/multikey/v1"
	MultikeyType    = "Multikey"

	// HandleAliasPrefix precedes a Frequency handle in alsoKnownAs.
	HandleAliasPrefix = "did:frqcy:handle:"

	didPrefix = "did:" + Method + ":"
)

// VerificationMethod is a Multikey verification method controlled by a DSNP user.
type VerificationMethod struct {
	Context            string `json:"@context"`
	ID                 string `json:"id"`
	Type               string `json:"type"`
	Controller         string `json:"controller"`
	PublicKeyMultibase string `json:"publicKeyMultibase"`
}

func newVerificationMethod(controller, publicKeyMultibase string) VerificationMethod {
	return VerificationMethod{
		Context:            MultikeyContext,
		ID:                 controller + "#" + publicKeyMultibase,
		Type:               MultikeyType,
		Controller:         controller,
		PublicKeyMultibase: publicKeyMultibase,
	}
}

// Document is the DID document of a DSNP user. Every list is present in JSON, empty or not.
type Document struct {
	Context         []string             `json:"@context"`
	ID              string               `json:"id"`
	Authentication  []VerificationMethod `json:"authentication"`
	AssertionMethod []VerificationMethod `json:"assertionMethod"`
	KeyAgreement    []VerificationMethod `json:"keyAgreement"`
	AlsoKnownAs     []string             `json:"alsoKnownAs"`
}

func newDocument(controller string) *Document {
	return &Document{
		Context:         []string{DIDContext},
		ID:              controller,
		Authentication:  []VerificationMethod{},
		AssertionMethod: []VerificationMethod{},
		KeyAgreement:    []VerificationMethod{},
		AlsoKnownAs:     []string{},
	}
}

// DID returns the did:dsnp identifier of a user.
func DID(userID uint64) string {
	return didPrefix + strconv.FormatUint(userID, 10)
}

// ParseDID extracts the user id from a did:dsnp identifier.
func ParseDID(did string) (uint64, error) {
	if !strings.HasPrefix(did, didPrefix) {
		return 0, &InvalidDIDError{DID: did, Reason: "not a did:" + Method + " identifier"}
	}
	id := strings.TrimPrefix(did, didPrefix)
	userID, err := strconv.ParseUint(id, 10, 64)
	if err != nil || (len(id) > 1 && id[0] == '0') {
		return 0, &InvalidDIDError{DID: did, Reason: "user id must be a base 10 unsigned 64-bit integer"}
	}
	return userID, nil
}
