package resolver

import (
	"github.com/pkg/errors"
)

// ErrNotFound is returned by the DID resolution surfaces when a user has no account on chain.
// Resolve itself reports this as a nil document.
var ErrNotFound = errors.New("did not found")

// ConfigError reports invalid construction options. It is returned before any network activity.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return "invalid resolver config " + e.Field + ": " + e.Reason
}

// InvalidDIDError reports an identifier that is not a well formed did:dsnp.
type InvalidDIDError struct {
	DID    string
	Reason string
}

func (e *InvalidDIDError) Error() string {
	return "invalid did<" + e.DID + ">: " + e.Reason
}
