package router

import (
	"context"
	"fmt"
	"net/http"
	"time"

	didsdk "github.com/TBD54566975/ssi-sdk/did"
	"github.com/TBD54566975/ssi-sdk/did/resolution"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"github.com/dsnp/frequency-resolver/internal/util"
	"github.com/dsnp/frequency-resolver/pkg/chain"
	"github.com/dsnp/frequency-resolver/pkg/resolver"
	"github.com/dsnp/frequency-resolver/pkg/server/framework"
)

const (
	IDParam = "id"

	// error codes returned alongside resolution failures
	CodeNotFound          = "notFound"
	CodeInvalidDID        = "invalidDid"
	CodeUnsupportedMethod = "methodNotSupported"
	CodeChainConnection   = "chainUnavailable"
	CodeResolutionFailed  = "resolutionFailed"

	// ResolutionContentType is the media type of a returned did document.
	ResolutionContentType = "application/did+ld+json"
)

// ResolverRouter serves did resolution over HTTP.
type ResolverRouter struct {
	dsnp    *resolver.Resolver
	methods resolution.Resolver
	timeout time.Duration
}

// NewResolverRouter creates a router resolving did:dsnp natively and every other method through
// methods. A zero timeout leaves request deadlines to the caller.
func NewResolverRouter(dsnp *resolver.Resolver, methods resolution.Resolver, timeout time.Duration) (*ResolverRouter, error) {
	if dsnp == nil {
		return nil, errors.New("dsnp resolver cannot be nil")
	}
	if methods == nil {
		return nil, errors.New("multi method resolver cannot be nil")
	}
	return &ResolverRouter{dsnp: dsnp, methods: methods, timeout: timeout}, nil
}

type ResolutionMetadata struct {
	ContentType string `json:"contentType"`
}

// ResolveDSNPResponse is a did resolution result carrying the native did:dsnp document.
type ResolveDSNPResponse struct {
	Context             string             `json:"@context"`
	DIDDocument         *resolver.Document `json:"didDocument"`
	ResolutionMetadata  ResolutionMetadata `json:"didResolutionMetadata"`
	DIDDocumentMetadata map[string]any     `json:"didDocumentMetadata"`
}

// ResolveDSNP godoc
//
// @Summary     Resolve a did:dsnp identifier
// @Description Reads the document of a DSNP user from Frequency chain state
// @Tags        UniversalResolverDriver
// @Produce     json
// @Param       id  path     string true "did:dsnp:<userId>"
// @Success     200 {object} ResolveDSNPResponse
// @Failure     400 {object} framework.ErrorResponse "Invalid did"
// @Failure     404 {object} framework.ErrorResponse "Not found"
// @Failure     503 {object} framework.ErrorResponse "Chain unavailable"
// @Router      /1.0/identifiers/{id} [get]
func (rr ResolverRouter) ResolveDSNP(c *gin.Context) {
	id := c.Param(IDParam)
	ctx, cancel := rr.requestContext(c)
	defer cancel()

	doc, err := rr.dsnp.ResolveDID(ctx, id)
	if err != nil {
		respondResolutionError(c, err, id, http.StatusInternalServerError)
		return
	}
	if doc == nil {
		respondResolutionError(c, resolver.ErrNotFound, id, http.StatusNotFound)
		return
	}

	resp := ResolveDSNPResponse{
		Context:             resolver.ResolutionContext,
		DIDDocument:         doc,
		ResolutionMetadata:  ResolutionMetadata{ContentType: ResolutionContentType},
		DIDDocumentMetadata: map[string]any{},
	}
	framework.Respond(c, resp, http.StatusOK)
}

// ResolveDID godoc
//
// @Summary     Resolve a DID
// @Description Resolve a DID of any configured method
// @Tags        DecentralizedIdentityAPI
// @Produce     json
// @Param       id  path     string true "ID"
// @Success     200 {object} resolution.Result
// @Failure     400 {object} framework.ErrorResponse "Bad request"
// @Failure     404 {object} framework.ErrorResponse "Not found"
// @Router      /v1/dids/resolver/{id} [get]
func (rr ResolverRouter) ResolveDID(c *gin.Context) {
	id := c.Param(IDParam)
	if id == "" {
		framework.LoggingRespondErrMsg(c, "resolve DID request missing id parameter", http.StatusBadRequest)
		return
	}
	method, err := util.GetMethodForDID(id)
	if err != nil {
		framework.LoggingRespondCodedErr(c, err, fmt.Sprintf("invalid DID: %s", util.SanitizeLog(id)), http.StatusBadRequest, CodeInvalidDID)
		return
	}
	ctx, cancel := rr.requestContext(c)
	defer cancel()

	if !rr.supports(ctx, method) {
		framework.LoggingRespondCodedErr(c, errors.Errorf("method<%s> not configured", method),
			fmt.Sprintf("unsupported DID method: %s", util.SanitizeLog(string(method))), http.StatusBadRequest, CodeUnsupportedMethod)
		return
	}

	result, err := rr.methods.Resolve(ctx, id)
	if err != nil {
		// other methods report malformed identifiers as plain errors
		respondResolutionError(c, err, id, http.StatusBadRequest)
		return
	}
	framework.Respond(c, result, http.StatusOK)
}

// methodSupporter checks a method within a request's deadline.
type methodSupporter interface {
	Supports(ctx context.Context, method didsdk.Method) bool
}

func (rr ResolverRouter) supports(ctx context.Context, method didsdk.Method) bool {
	if supporter, ok := rr.methods.(methodSupporter); ok {
		return supporter.Supports(ctx, method)
	}
	for _, m := range rr.methods.Methods() {
		if m == method {
			return true
		}
	}
	return false
}

func (rr ResolverRouter) requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	if rr.timeout <= 0 {
		return context.WithCancel(c.Request.Context())
	}
	return context.WithTimeout(c.Request.Context(), rr.timeout)
}

// respondResolutionError maps resolver failures onto status codes, using fallback for anything
// unrecognized. Only the fixed message reaches the caller; the cause is logged.
func respondResolutionError(c *gin.Context, err error, id string, fallback int) {
	id = util.SanitizeLog(id)
	var (
		invalid *resolver.InvalidDIDError
		connErr *chain.ConnectionError
	)
	switch {
	case errors.Is(err, resolver.ErrNotFound):
		framework.LoggingRespondCodedErr(c, err, fmt.Sprintf("could not find DID: %s", id), http.StatusNotFound, CodeNotFound)
	case errors.As(err, &invalid):
		framework.LoggingRespondCodedErr(c, err, fmt.Sprintf("invalid DID: %s", id), http.StatusBadRequest, CodeInvalidDID)
	case errors.As(err, &connErr), chain.IsTransportFailure(err), errors.Is(err, context.DeadlineExceeded):
		framework.LoggingRespondCodedErr(c, err, "chain node unavailable", http.StatusServiceUnavailable, CodeChainConnection)
	default:
		framework.LoggingRespondCodedErr(c, err, fmt.Sprintf("could not resolve DID: %s", id), fallback, CodeResolutionFailed)
	}
}
