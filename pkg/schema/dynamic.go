package schema

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/dsnp/frequency-resolver/pkg/chain"
)

// DefaultVersionMap pins DSNP schema versions to the on-chain version that implements them.
var DefaultVersionMap = map[Purpose]map[string]uint16{
	KeyAgreement:    {KeyAgreementVersion: 1},
	AssertionMethod: {AssertionMethodVersion: 1},
}

// DynamicResolver looks schema ids up on the connected chain through schemas_getVersions.
type DynamicResolver struct {
	versions map[Purpose]map[string]uint16
}

var _ Resolver = (*DynamicResolver)(nil)

func NewDynamicResolver() *DynamicResolver {
	return &DynamicResolver{versions: DefaultVersionMap}
}

// WithVersionMap replaces the DSNP to on-chain version mapping.
func (r *DynamicResolver) WithVersionMap(versions map[Purpose]map[string]uint16) *DynamicResolver {
	return &DynamicResolver{versions: versions}
}

// ResolveSchemaID returns the registration matching the mapped on-chain version. An
// unmapped DSNP version takes the latest registration.
func (r *DynamicResolver) ResolveSchemaID(ctx context.Context, conn *chain.Connection, purpose Purpose, version string) (ID, bool, error) {
	if conn == nil {
		return 0, false, errors.New("connection cannot be nil")
	}
	registrations, err := conn.GetSchemaVersions(ctx, purpose.Name())
	if err != nil {
		return 0, false, errors.Wrapf(err, "resolving schema id for %s", purpose)
	}
	if len(registrations) == 0 {
		return 0, false, nil
	}

	if want, ok := r.versions[purpose][version]; ok {
		for _, reg := range registrations {
			if reg.SchemaVersion == want {
				return ID(reg.SchemaID), true, nil
			}
		}
		logrus.WithFields(logrus.Fields{
			"schema":  purpose.Name(),
			"version": version,
		}).Debug("mapped schema version not registered on chain")
		return 0, false, nil
	}

	latest := registrations[0]
	for _, reg := range registrations[1:] {
		if reg.SchemaVersion > latest.SchemaVersion {
			latest = reg
		}
	}
	return ID(latest.SchemaID), true, nil
}
