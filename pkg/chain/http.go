package chain

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"sync/atomic"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/dsnp/frequency-resolver/internal/util"
)

// httpClient sends every call as its own POST to the node's HTTP RPC endpoint.
type httpClient struct {
	url    string
	client *http.Client
	nextID atomic.Uint64
}

var _ Client = (*httpClient)(nil)

// NewHTTPClient creates a Client for an http:// or https:// node endpoint. A nil
// http.Client gets one with an otel instrumented transport.
func NewHTTPClient(url string, client *http.Client) (Client, error) {
	if url == "" {
		return nil, errors.New("url cannot be empty")
	}
	if client == nil {
		client = &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	}
	return &httpClient{url: url, client: client}, nil
}

func (c *httpClient) Call(ctx context.Context, result any, method string, params ...any) error {
	payload, err := json.Marshal(newRequest(c.nextID.Add(1), method, params))
	if err != nil {
		return errors.Wrapf(err, "encoding %s request", method)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return errors.Wrap(err, "creating request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return errors.Wrapf(err, "performing %s request", method)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "reading response body")
	}
	if !util.Is2xxResponse(resp.StatusCode) {
		return errors.Errorf("%s request failed with status %d: %s", method, resp.StatusCode, util.SanitizeLog(string(body)))
	}

	var r response
	if err = json.Unmarshal(body, &r); err != nil {
		return errors.Wrapf(err, "decoding %s response", method)
	}
	return r.decode(method, result)
}

func (c *httpClient) Close() error {
	c.client.CloseIdleConnections()
	return nil
}
