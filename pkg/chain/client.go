// Package chain owns the connection to a Frequency node and the read-only RPC calls the
// resolver makes over it.
package chain

import (
	"context"
	"net/url"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"
)

const jsonRPCVersion = "2.0"

// ErrClientClosed is returned by calls on a client after Close.
var ErrClientClosed = errors.New("chain client is closed")

// TransportError reports a call that broke the underlying connection. The client that
// returned it is closed.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsTransportFailure reports whether err means the client can no longer be used.
func IsTransportFailure(err error) bool {
	var transportErr *TransportError
	return errors.As(err, &transportErr) || errors.Is(err, ErrClientClosed)
}

// Client is a JSON-RPC connection to a node. Implementations must be safe for concurrent use.
type Client interface {
	// Call invokes method with params and decodes the result into result, which may be nil.
	Call(ctx context.Context, result any, method string, params ...any) error
	Close() error
}

// Dialer opens a Client for a provider URI.
type Dialer func(ctx context.Context, uri string) (Client, error)

// Dial picks a transport from the URI scheme: ws and wss use a websocket, http and https
// send one request per call.
func Dial(ctx context.Context, uri string) (Client, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing provider uri<%s>", uri)
	}
	switch u.Scheme {
	case "ws", "wss":
		return DialWebsocket(ctx, uri)
	case "http", "https":
		return NewHTTPClient(uri, nil)
	default:
		return nil, errors.Errorf("unsupported provider scheme: %q", u.Scheme)
	}
}

type request struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      *uint64         `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *RPCError       `json:"error"`
}

func newRequest(id uint64, method string, params []any) request {
	if params == nil {
		params = []any{}
	}
	return request{JSONRPC: jsonRPCVersion, ID: id, Method: method, Params: params}
}

// decode unpacks a response envelope into result.
func (r response) decode(method string, result any) error {
	if r.Error != nil {
		return r.Error
	}
	if result == nil || len(r.Result) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Result, result); err != nil {
		return errors.Wrapf(err, "decoding result of %s", method)
	}
	return nil
}

// RPCError is a JSON-RPC error object returned by the node.
type RPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	msg := "rpc error " + strconv.Itoa(e.Code) + ": " + e.Message
	if len(e.Data) > 0 {
		msg += " (" + string(e.Data) + ")"
	}
	return msg
}
