// Package testutil provides an in-memory Frequency node for tests, reachable in-process or
// over the real websocket and HTTP transports.
package testutil

import (
	"context"
	"encoding/binary"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/dsnp/frequency-resolver/internal/storagekey"
	"github.com/dsnp/frequency-resolver/pkg/chain"
)

// DefaultGenesisHash is the genesis hash a new FakeChain reports.
const DefaultGenesisHash = "0x4a587bf17a404e3572747add7aab7bbe56e805a5479c6c436f07f36fcc8d3ae1"

// genericSS58Prefix is the substrate generic address format.
const genericSS58Prefix = 42

// FakeChain holds the subset of Frequency state the resolver reads.
type FakeChain struct {
	mu sync.Mutex

	genesisHash string
	failing     map[string]bool
	byteOrder   binary.ByteOrder
	storage     map[string][]byte
	keys        map[uint64][][]byte
	items       map[uint64]map[uint16][][]byte
	schemas     map[string][]chain.SchemaVersionResponse
	calls       map[string]int
	delays      map[string]time.Duration
}

func NewFakeChain() *FakeChain {
	return &FakeChain{
		genesisHash: DefaultGenesisHash,
		failing:     make(map[string]bool),
		byteOrder:   binary.BigEndian,
		storage:     make(map[string][]byte),
		keys:        make(map[uint64][][]byte),
		items:       make(map[uint64]map[uint16][][]byte),
		schemas:     make(map[string][]chain.SchemaVersionResponse),
		calls:       make(map[string]int),
		delays:      make(map[string]time.Duration),
	}
}

func (f *FakeChain) SetGenesisHash(hash string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.genesisHash = hash
}

// FailHandshake makes chain_getBlockHash return an error.
func (f *FakeChain) FailHandshake(fail bool) {
	f.FailMethod("chain_getBlockHash", fail)
}

// FailMethod makes every call of method return an RPC error.
func (f *FakeChain) FailMethod(method string, fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failing[method] = fail
}

// DelayNext holds back the answer to the next call of method by d.
func (f *FakeChain) DelayNext(method string, d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.delays[method] = d
}

func (f *FakeChain) takeDelay(method string) time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	d := f.delays[method]
	delete(f.delays, method)
	return d
}

// SetByteOrder changes how user ids are encoded in storage keys written after the call.
func (f *FakeChain) SetByteOrder(order binary.ByteOrder) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byteOrder = order
}

// AddMSA registers an MSA with the given control keys and a matching key count.
func (f *FakeChain) AddMSA(id uint64, keys ...[]byte) {
	f.SetKeyCount(id, uint8(len(keys)))
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keys[id] = keys
}

// SetKeyCount writes the raw u8 key count for an MSA.
func (f *FakeChain) SetKeyCount(id uint64, count uint8) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.storage[storagekey.PublicKeyCount.WithByteOrder(f.byteOrder).KeyHex(id)] = []byte{count}
}

// SetHandle stores a display name for an MSA, claimed at block 1000.
func (f *FakeChain) SetHandle(id uint64, name string) {
	value := []byte{byte(len(name) << 2)}
	value = append(value, name...)
	value = append(value, 0xe8, 0x03, 0x00, 0x00)
	f.SetRawHandle(id, value)
}

// SetRawHandle stores an arbitrary display name value.
func (f *FakeChain) SetRawHandle(id uint64, value []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.storage[storagekey.DisplayName.WithByteOrder(f.byteOrder).KeyHex(id)] = value
}

// AddItem appends a payload to the itemized storage of an MSA under a schema.
func (f *FakeChain) AddItem(id uint64, schemaID uint16, payload []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.items[id] == nil {
		f.items[id] = make(map[uint16][][]byte)
	}
	f.items[id][schemaID] = append(f.items[id][schemaID], payload)
}

// RegisterSchema adds a schema version under a name, as schemas_getVersions lists them.
func (f *FakeChain) RegisterSchema(name string, version, id uint16) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.schemas[name] = append(f.schemas[name], chain.SchemaVersionResponse{
		SchemaName:    name,
		SchemaVersion: version,
		SchemaID:      id,
	})
}

// Calls returns how many times method was invoked.
func (f *FakeChain) Calls(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

// Handle answers one JSON-RPC call.
func (f *FakeChain) Handle(method string, params []json.RawMessage) (any, *chain.RPCError) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[method]++
	if f.failing[method] {
		return nil, &chain.RPCError{Code: -32000, Message: "node is syncing"}
	}

	switch method {
	case "chain_getBlockHash":
		return f.genesisHash, nil
	case "state_getStorage":
		var key string
		if err := param(params, 0, &key); err != nil {
			return nil, err
		}
		value, ok := f.storage[strings.ToLower(key)]
		if !ok {
			return nil, nil
		}
		return chain.Bytes(value), nil
	case "msa_getKeysByMsaId":
		var id uint64
		if err := param(params, 0, &id); err != nil {
			return nil, err
		}
		keys, ok := f.keys[id]
		if !ok {
			return nil, nil
		}
		addresses := make([]string, 0, len(keys))
		for _, key := range keys {
			address, err := chain.EncodeSS58(key, genericSS58Prefix)
			if err != nil {
				return nil, &chain.RPCError{Code: -32602, Message: err.Error()}
			}
			addresses = append(addresses, address)
		}
		return map[string]any{"msa_id": id, "msa_keys": addresses}, nil
	case "statefulStorage_getItemizedStorage":
		var (
			id       uint64
			schemaID uint16
		)
		if err := param(params, 0, &id); err != nil {
			return nil, err
		}
		if err := param(params, 1, &schemaID); err != nil {
			return nil, err
		}
		page := chain.ItemizedStoragePageResponse{MsaID: id, SchemaID: schemaID, Items: []chain.ItemizedStorageResponse{}}
		for i, payload := range f.items[id][schemaID] {
			page.Items = append(page.Items, chain.ItemizedStorageResponse{Index: uint16(i), Payload: payload})
		}
		return page, nil
	case "schemas_getVersions":
		var name string
		if err := param(params, 0, &name); err != nil {
			return nil, err
		}
		versions, ok := f.schemas[name]
		if !ok {
			return nil, nil
		}
		return versions, nil
	default:
		return nil, &chain.RPCError{Code: -32601, Message: "Method not found"}
	}
}

func param(params []json.RawMessage, i int, v any) *chain.RPCError {
	if len(params) <= i {
		return &chain.RPCError{Code: -32602, Message: "missing parameter"}
	}
	if err := json.Unmarshal(params[i], v); err != nil {
		return &chain.RPCError{Code: -32602, Message: err.Error()}
	}
	return nil
}

type rpcRequest struct {
	ID     uint64            `json:"id"`
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  any             `json:"result"`
	Error   *chain.RPCError `json:"error,omitempty"`
}

func (f *FakeChain) respond(payload []byte) []byte {
	var req rpcRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		out, _ := json.Marshal(rpcResponse{JSONRPC: "2.0", Error: &chain.RPCError{Code: -32700, Message: "Parse error"}})
		return out
	}
	if d := f.takeDelay(req.Method); d > 0 {
		time.Sleep(d)
	}
	result, rpcErr := f.Handle(req.Method, req.Params)
	resp := rpcResponse{JSONRPC: "2.0", ID: req.ID, Result: result, Error: rpcErr}
	if rpcErr != nil {
		resp.Result = nil
	}
	out, _ := json.Marshal(resp)
	return out
}

// Client returns an in-process chain.Client backed by the fake chain.
func (f *FakeChain) Client() *FakeClient {
	return &FakeClient{chain: f}
}

// FakeClient calls a FakeChain through the same JSON encoding a real node uses.
type FakeClient struct {
	mu     sync.Mutex
	chain  *FakeChain
	closed bool
	nextID uint64
}

var _ chain.Client = (*FakeClient)(nil)

func (c *FakeClient) Call(ctx context.Context, result any, method string, params ...any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return chain.ErrClientClosed
	}
	c.nextID++
	id := c.nextID
	c.mu.Unlock()

	if params == nil {
		params = []any{}
	}
	payload, err := json.Marshal(map[string]any{"jsonrpc": "2.0", "id": id, "method": method, "params": params})
	if err != nil {
		return err
	}
	var resp struct {
		Result json.RawMessage `json:"result"`
		Error  *chain.RPCError `json:"error"`
	}
	if err = json.Unmarshal(c.chain.respond(payload), &resp); err != nil {
		return err
	}
	if resp.Error != nil {
		return resp.Error
	}
	if result == nil {
		return nil
	}
	return json.Unmarshal(resp.Result, result)
}

func (c *FakeClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *FakeClient) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// WebsocketURL serves the fake chain over a websocket and returns its ws:// URL.
func (f *FakeChain) WebsocketURL(t *testing.T) string {
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			messageType, payload, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if err = conn.WriteMessage(messageType, f.respond(payload)); err != nil {
				return
			}
		}
	}))
	t.Cleanup(server.Close)
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

// HTTPURL serves the fake chain over plain HTTP POSTs and returns its URL.
func (f *FakeChain) HTTPURL(t *testing.T) string {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body json.RawMessage
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(f.respond(body))
	}))
	t.Cleanup(server.Close)
	return server.URL
}

// TestNodes runs the same fake chain through every transport.
var TestNodes = []struct {
	Name string
	Dial func(t *testing.T, f *FakeChain) chain.Dialer
}{
	{
		Name: "In-process client",
		Dial: func(_ *testing.T, f *FakeChain) chain.Dialer {
			return func(context.Context, string) (chain.Client, error) {
				return f.Client(), nil
			}
		},
	},
	{
		Name: "Websocket transport",
		Dial: func(t *testing.T, f *FakeChain) chain.Dialer {
			url := f.WebsocketURL(t)
			return func(ctx context.Context, _ string) (chain.Client, error) {
				return chain.DialWebsocket(ctx, url)
			}
		},
	},
	{
		Name: "HTTP transport",
		Dial: func(t *testing.T, f *FakeChain) chain.Dialer {
			url := f.HTTPURL(t)
			return func(context.Context, string) (chain.Client, error) {
				return chain.NewHTTPClient(url, nil)
			}
		},
	},
}

// RequireCalls asserts the number of invocations of a method.
func RequireCalls(t *testing.T, f *FakeChain, method string, n int) {
	require.Equal(t, n, f.Calls(method), "calls to %s", method)
}
