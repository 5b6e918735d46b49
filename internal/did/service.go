package did

import (
	"context"
	"net/http"

	didsdk "github.com/TBD54566975/ssi-sdk/did"
	"github.com/TBD54566975/ssi-sdk/did/resolution"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/dsnp/frequency-resolver/internal/util"
	"github.com/dsnp/frequency-resolver/pkg/resolver"
	svcframework "github.com/dsnp/frequency-resolver/pkg/service/framework"
)

// ServiceResolver resolves the locally configured methods in process and hands every other method
// to a universal resolver, when one is configured.
type ServiceResolver struct {
	local        *resolution.MultiMethodResolver
	localMethods map[didsdk.Method]bool
	ur           *universalResolver
}

var (
	_ resolution.Resolver  = (*ServiceResolver)(nil)
	_ svcframework.Service = (*ServiceResolver)(nil)
)

// NewServiceResolver creates a resolver for localMethods, falling back to universalResolverURL
// when it is not empty. A nil client uses an instrumented default.
func NewServiceResolver(localMethods []string, dsnp *resolver.Resolver, universalResolverURL string, client *http.Client) (*ServiceResolver, error) {
	local, err := BuildMultiMethodResolver(localMethods, dsnp)
	if err != nil {
		return nil, errors.Wrap(err, "instantiating local DID resolver")
	}
	sr := &ServiceResolver{local: local, localMethods: make(map[didsdk.Method]bool)}
	for _, m := range local.Methods() {
		sr.localMethods[m] = true
	}

	if universalResolverURL != "" {
		if sr.ur, err = newUniversalResolver(universalResolverURL, client); err != nil {
			return nil, errors.Wrap(err, "instantiating universal resolver")
		}
	}
	return sr, nil
}

// Resolve resolves locally when the method is configured, otherwise through the universal resolver.
// Local failures are returned as is so that not found stays distinguishable.
func (sr *ServiceResolver) Resolve(ctx context.Context, did string, opts ...resolution.Option) (*resolution.Result, error) {
	method, err := util.GetMethodForDID(did)
	if err != nil {
		return nil, errors.Wrap(err, "getting method DID")
	}
	if sr.localMethods[method] {
		return sr.local.Resolve(ctx, did, opts...)
	}
	if sr.ur == nil {
		return nil, errors.Errorf("unsupported method: %s", method)
	}
	return sr.ur.Resolve(ctx, did, opts...)
}

// Methods lists the local methods followed by those the universal resolver reports.
func (sr *ServiceResolver) Methods() []didsdk.Method {
	ctx, cancel := context.WithTimeout(context.Background(), universalTimeout)
	defer cancel()
	return sr.MethodsContext(ctx)
}

// MethodsContext is Methods with the universal resolver lookup bound to ctx. A lookup that
// fails or runs out of time lists the local methods only.
func (sr *ServiceResolver) MethodsContext(ctx context.Context) []didsdk.Method {
	methods := sr.local.Methods()
	if sr.ur == nil {
		return methods
	}
	universal, err := sr.ur.methods(ctx)
	if err != nil {
		logrus.WithError(err).Warn("listing universal resolver methods")
	}
	for _, m := range universal {
		if !sr.localMethods[m] {
			methods = append(methods, m)
		}
	}
	return methods
}

// Supports reports whether method resolves here. Local methods answer without asking the
// universal resolver.
func (sr *ServiceResolver) Supports(ctx context.Context, method didsdk.Method) bool {
	if sr.localMethods[method] {
		return true
	}
	for _, m := range sr.MethodsContext(ctx) {
		if m == method {
			return true
		}
	}
	return false
}

func (sr *ServiceResolver) Type() svcframework.Type {
	return svcframework.Universal
}

// Status is ready when there is no universal resolver or it answers its methods listing.
func (sr *ServiceResolver) Status(ctx context.Context) svcframework.Status {
	if sr.ur == nil {
		return svcframework.Status{Status: svcframework.StatusReady, Message: "local resolution only"}
	}
	if _, err := sr.ur.methods(ctx); err != nil {
		return svcframework.Status{Status: svcframework.StatusNotReady, Message: err.Error()}
	}
	return svcframework.Status{Status: svcframework.StatusReady}
}
