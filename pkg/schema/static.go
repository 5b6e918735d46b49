package schema

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/dsnp/frequency-resolver/pkg/chain"
)

// Pair holds the schema ids of both public key purposes on one network.
type Pair struct {
	KeyAgreement    ID `toml:"key_agreement"`
	AssertionMethod ID `toml:"assertion_method"`
}

func (p Pair) get(purpose Purpose) (ID, error) {
	switch purpose {
	case KeyAgreement:
		return p.KeyAgreement, nil
	case AssertionMethod:
		return p.AssertionMethod, nil
	default:
		return 0, errors.Errorf("no static schema id for purpose %s", purpose)
	}
}

// StaticTable holds well known schema ids. Testnet has its own registrations; every other
// network uses the mainnet ids.
type StaticTable struct {
	Testnet Pair `toml:"testnet"`
	Mainnet Pair `toml:"mainnet"`
}

// DefaultStaticTable matches the registrations of the public Frequency deployments.
var DefaultStaticTable = StaticTable{
	Testnet: Pair{KeyAgreement: 18, AssertionMethod: 105},
	Mainnet: Pair{KeyAgreement: 7, AssertionMethod: 100},
}

// WithDefaults fills every id left at zero from DefaultStaticTable.
func (t StaticTable) WithDefaults() StaticTable {
	t.Testnet = t.Testnet.withDefaults(DefaultStaticTable.Testnet)
	t.Mainnet = t.Mainnet.withDefaults(DefaultStaticTable.Mainnet)
	return t
}

func (p Pair) withDefaults(defaults Pair) Pair {
	if p.KeyAgreement == 0 {
		p.KeyAgreement = defaults.KeyAgreement
	}
	if p.AssertionMethod == 0 {
		p.AssertionMethod = defaults.AssertionMethod
	}
	return p
}

// StaticResolver answers from a StaticTable without touching the chain.
type StaticResolver struct {
	pair Pair
}

var _ Resolver = (*StaticResolver)(nil)

func NewStaticResolver(network Network, table StaticTable) *StaticResolver {
	if network == Testnet {
		return &StaticResolver{pair: table.Testnet}
	}
	return &StaticResolver{pair: table.Mainnet}
}

// ResolveSchemaID finds every id except zero, which no schema is registered under. The
// version is not consulted.
func (r *StaticResolver) ResolveSchemaID(_ context.Context, _ *chain.Connection, purpose Purpose, _ string) (ID, bool, error) {
	id, err := r.pair.get(purpose)
	if err != nil {
		return 0, false, err
	}
	return id, id != 0, nil
}

// FallbackResolver tries the primary resolver and asks the secondary only when the primary fails.
type FallbackResolver struct {
	primary   Resolver
	secondary Resolver
}

var _ Resolver = (*FallbackResolver)(nil)

func NewFallbackResolver(primary, secondary Resolver) *FallbackResolver {
	return &FallbackResolver{primary: primary, secondary: secondary}
}

func (r *FallbackResolver) ResolveSchemaID(ctx context.Context, conn *chain.Connection, purpose Purpose, version string) (ID, bool, error) {
	id, ok, err := r.primary.ResolveSchemaID(ctx, conn, purpose, version)
	if err == nil {
		return id, ok, nil
	}
	logrus.WithError(err).WithField("schema", purpose.Name()).Warn("schema lookup failed, using fallback")
	return r.secondary.ResolveSchemaID(ctx, conn, purpose, version)
}
