package did

import (
	"fmt"

	didsdk "github.com/TBD54566975/ssi-sdk/did"
	"github.com/TBD54566975/ssi-sdk/did/key"
	"github.com/TBD54566975/ssi-sdk/did/peer"
	"github.com/TBD54566975/ssi-sdk/did/pkh"
	"github.com/TBD54566975/ssi-sdk/did/resolution"
	"github.com/TBD54566975/ssi-sdk/did/web"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/dsnp/frequency-resolver/pkg/resolver"
)

// BuildMultiMethodResolver builds a multi method DID resolver from a list of methods to support resolution for.
// The dsnp method resolves through the given Frequency resolver, which may be nil when dsnp is not listed.
func BuildMultiMethodResolver(methods []string, dsnp *resolver.Resolver) (*resolution.MultiMethodResolver, error) {
	if len(methods) == 0 {
		return nil, errors.New("no methods provided")
	}
	resolvers := make([]resolution.Resolver, 0, len(methods))
	for _, method := range methods {
		r, err := getKnownResolver(method, dsnp)
		if err != nil {
			// if we can't create a resolver for a method, we just skip it since not all methods are supported locally
			logrus.WithError(err).Errorf("failed to create resolver for method %s", method)
			continue
		}
		resolvers = append(resolvers, r)
	}
	if len(resolvers) == 0 {
		return nil, errors.New("no resolvers created")
	}
	return resolution.NewResolver(resolvers...)
}

// all possible resolvers for the DID service
func getKnownResolver(method string, dsnp *resolver.Resolver) (resolution.Resolver, error) {
	switch didsdk.Method(method) {
	case resolver.Method:
		if dsnp == nil {
			return nil, errors.New("no frequency resolver configured")
		}
		return resolver.NewMethodResolver(dsnp), nil
	case didsdk.KeyMethod:
		return new(key.Resolver), nil
	case didsdk.WebMethod:
		return new(web.Resolver), nil
	case didsdk.PKHMethod:
		return new(pkh.Resolver), nil
	case didsdk.PeerMethod:
		return new(peer.Resolver), nil
	}
	return nil, fmt.Errorf("unsupported method: %s", method)
}
