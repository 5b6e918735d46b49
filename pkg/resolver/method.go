package resolver

import (
	"context"

	didsdk "github.com/TBD54566975/ssi-sdk/did"
	"github.com/TBD54566975/ssi-sdk/did/resolution"
	"github.com/pkg/errors"
)

// ResolutionContext is the JSON-LD context of a DID resolution result.
const ResolutionContext = "https://w3id.org/did-resolution/v1"

// methodResolver plugs a Resolver into ssi-sdk's multi-method resolution.
type methodResolver struct {
	resolver *Resolver
}

var _ resolution.Resolver = (*methodResolver)(nil)

// NewMethodResolver exposes r as the ssi-sdk resolver for did:dsnp.
func NewMethodResolver(r *Resolver) resolution.Resolver {
	return &methodResolver{resolver: r}
}

func (m *methodResolver) Resolve(ctx context.Context, did string, _ ...resolution.Option) (*resolution.Result, error) {
	doc, err := m.resolver.ResolveDID(ctx, did)
	if err != nil {
		return nil, errors.Wrapf(err, "resolving %s", did)
	}
	if doc == nil {
		return nil, errors.Wrapf(ErrNotFound, "resolving %s", did)
	}
	return &resolution.Result{
		Context:  ResolutionContext,
		Document: doc.SDKDocument(),
	}, nil
}

func (m *methodResolver) Methods() []didsdk.Method {
	return []didsdk.Method{Method}
}

// SDKDocument converts the document into ssi-sdk's model. ssi-sdk holds a single alias, so
// only the first alsoKnownAs entry is carried over.
func (d *Document) SDKDocument() didsdk.Document {
	doc := didsdk.Document{
		Context:         d.Context,
		ID:              d.ID,
		Authentication:  verificationMethodSets(d.Authentication),
		AssertionMethod: verificationMethodSets(d.AssertionMethod),
		KeyAgreement:    verificationMethodSets(d.KeyAgreement),
	}
	if len(d.AlsoKnownAs) > 0 {
		doc.AlsoKnownAs = d.AlsoKnownAs[0]
	}
	return doc
}

func verificationMethodSets(methods []VerificationMethod) []didsdk.VerificationMethodSet {
	sets := make([]didsdk.VerificationMethodSet, 0, len(methods))
	for _, method := range methods {
		sets = append(sets, method)
	}
	return sets
}
