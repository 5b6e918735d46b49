package did

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	didsdk "github.com/TBD54566975/ssi-sdk/did"
	"github.com/TBD54566975/ssi-sdk/did/resolution"
	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/dsnp/frequency-resolver/internal/util"
	"github.com/dsnp/frequency-resolver/pkg/resolver"
)

// universalTimeout bounds every universal resolver request the caller does not bound itself.
const universalTimeout = 30 * time.Second

// universalResolver resolves DIDs through a universal resolver instance, see
// https://github.com/decentralized-identity/universal-resolver.
type universalResolver struct {
	client *http.Client
	url    string

	mu               sync.Mutex
	supportedMethods []didsdk.Method
}

var _ resolution.Resolver = (*universalResolver)(nil)

func newUniversalResolver(url string, client *http.Client) (*universalResolver, error) {
	if url == "" {
		return nil, errors.New("universal resolver url cannot be empty")
	}
	if client == nil {
		client = &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport), Timeout: universalTimeout}
	}
	return &universalResolver{client: client, url: strings.TrimSuffix(url, "/")}, nil
}

// Resolve does a GET on <url>/1.0/identifiers/<did>. A 404 is reported as resolver.ErrNotFound.
func (ur *universalResolver) Resolve(ctx context.Context, did string, _ ...resolution.Option) (*resolution.Result, error) {
	var result resolution.Result
	status, err := ur.get(ctx, "/1.0/identifiers/"+did, &result)
	if status == http.StatusNotFound {
		return nil, errors.Wrapf(resolver.ErrNotFound, "universal resolver could not find %s", did)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "resolving %s with universal resolver", did)
	}
	return &result, nil
}

// Methods returns the methods the universal resolver supports, caching them after the first
// successful lookup.
func (ur *universalResolver) Methods() []didsdk.Method {
	ctx, cancel := context.WithTimeout(context.Background(), universalTimeout)
	defer cancel()
	methods, _ := ur.methods(ctx)
	return methods
}

func (ur *universalResolver) methods(ctx context.Context) ([]didsdk.Method, error) {
	ur.mu.Lock()
	defer ur.mu.Unlock()
	if len(ur.supportedMethods) > 0 {
		return ur.supportedMethods, nil
	}

	var methods []didsdk.Method
	if _, err := ur.get(ctx, "/1.0/methods", &methods); err != nil {
		return nil, errors.Wrap(err, "listing universal resolver methods")
	}
	ur.supportedMethods = methods
	return methods, nil
}

func (ur *universalResolver) get(ctx context.Context, path string, out any) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ur.url+path, nil)
	if err != nil {
		return 0, errors.Wrap(err, "creating request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := ur.client.Do(req)
	if err != nil {
		return 0, errors.Wrap(err, "performing http get")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, errors.Wrap(err, "reading response body")
	}
	if !util.Is2xxResponse(resp.StatusCode) {
		return resp.StatusCode, errors.Errorf("unexpected status<%d>: %s", resp.StatusCode, util.SanitizeLog(string(respBody)))
	}
	if err = json.Unmarshal(respBody, out); err != nil {
		return resp.StatusCode, errors.Wrap(err, "unmarshalling JSON")
	}
	return resp.StatusCode, nil
}
