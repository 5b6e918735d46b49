// Package schema maps DSNP key purposes to the schema ids a Frequency chain registered them under.
package schema

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/dsnp/frequency-resolver/pkg/chain"
)

// ID is an on-chain schema id.
type ID uint16

// Purpose is the DSNP name of a public key schema, without the "dsnp." namespace.
type Purpose string

const (
	KeyAgreement    Purpose = "public-key-key-agreement"
	AssertionMethod Purpose = "public-key-assertion-method"
)

// DSNP versions of the public key schemas the resolver reads.
const (
	KeyAgreementVersion    = "1.2"
	AssertionMethodVersion = "1.3"
)

// Name is the fully qualified schema name registered on chain.
func (p Purpose) Name() string {
	return "dsnp." + string(p)
}

// Network identifies which Frequency deployment a provider points at.
type Network string

const (
	Local   Network = "local"
	Testnet Network = "testnet"
	Mainnet Network = "mainnet"
)

func ParseNetwork(s string) (Network, error) {
	switch n := Network(strings.ToLower(strings.TrimSpace(s))); n {
	case Local, Testnet, Mainnet:
		return n, nil
	default:
		return "", errors.Errorf(`network must be one of "local", "testnet", "mainnet", got %q`, s)
	}
}

// Strategy selects how schema ids are found.
type Strategy string

const (
	// Dynamic asks the connected chain.
	Dynamic Strategy = "dynamic"
	// Static reads a table keyed by network name.
	Static Strategy = "static"
	// Fallback asks the chain and uses the table only when the chain lookup fails.
	Fallback Strategy = "fallback"
)

func ParseStrategy(s string) (Strategy, error) {
	switch st := Strategy(strings.ToLower(strings.TrimSpace(s))); st {
	case "":
		return Dynamic, nil
	case Dynamic, Static, Fallback:
		return st, nil
	default:
		return "", errors.Errorf(`schema strategy must be one of "dynamic", "static", "fallback", got %q`, s)
	}
}

// Resolver finds the schema id for a purpose and DSNP version. A false result means the
// chain has no such schema, which is not an error.
type Resolver interface {
	ResolveSchemaID(ctx context.Context, conn *chain.Connection, purpose Purpose, version string) (ID, bool, error)
}

// NewResolver builds the Resolver for a strategy.
func NewResolver(strategy Strategy, network Network, table StaticTable) (Resolver, error) {
	switch strategy {
	case Dynamic, "":
		return NewDynamicResolver(), nil
	case Static:
		return NewStaticResolver(network, table), nil
	case Fallback:
		return NewFallbackResolver(NewDynamicResolver(), NewStaticResolver(network, table)), nil
	default:
		return nil, errors.Errorf("unknown schema strategy: %s", strategy)
	}
}
