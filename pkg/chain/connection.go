package chain

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// ConnectionError reports a connection that could not be established or is no longer available.
type ConnectionError struct {
	URI string
	Err error
}

func (e *ConnectionError) Error() string {
	if e.URI == "" {
		return "chain connection: " + e.Err.Error()
	}
	return "chain connection to " + e.URI + ": " + e.Err.Error()
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// Connection is an established node connection along with the identity of the chain behind it.
type Connection struct {
	client      Client
	genesisHash string
	onFailure   func(*Connection)
}

// NewConnection performs the handshake on an open client: it fetches the genesis hash,
// which both proves the node answers and identifies the chain.
func NewConnection(ctx context.Context, client Client) (*Connection, error) {
	if client == nil {
		return nil, errors.New("client cannot be nil")
	}
	var genesis string
	if err := client.Call(ctx, &genesis, "chain_getBlockHash", 0); err != nil {
		return nil, errors.Wrap(err, "fetching genesis hash")
	}
	if genesis == "" {
		return nil, errors.New("node returned an empty genesis hash")
	}
	return &Connection{client: client, genesisHash: genesis}, nil
}

// GenesisHash is the 0x prefixed hash of block zero.
func (c *Connection) GenesisHash() string {
	return c.genesisHash
}

func (c *Connection) Client() Client {
	return c.client
}

// Manager lazily opens one connection and hands it to every caller until it is released.
type Manager struct {
	mu       sync.Mutex
	uri      string
	dial     Dialer
	injected Client
	conn     *Connection
}

// NewManager creates a Manager that dials uri on first use. A nil dialer uses Dial.
func NewManager(uri string, dial Dialer) *Manager {
	if dial == nil {
		dial = Dial
	}
	return &Manager{uri: uri, dial: dial}
}

// NewManagerWithClient creates a Manager around an already open client. The Manager owns
// the client: Disconnect closes it and it cannot be reopened afterwards.
func NewManagerWithClient(client Client) *Manager {
	return &Manager{injected: client}
}

// Acquire returns the shared connection, creating it if needed. Concurrent first callers
// wait for a single handshake.
func (m *Manager) Acquire(ctx context.Context) (*Connection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.conn != nil {
		return m.conn, nil
	}

	client, err := m.open(ctx)
	if err != nil {
		return nil, &ConnectionError{URI: m.uri, Err: err}
	}
	conn, err := NewConnection(ctx, client)
	if err != nil {
		if closeErr := client.Close(); closeErr != nil {
			logrus.WithError(closeErr).Warn("closing client after failed handshake")
		}
		return nil, &ConnectionError{URI: m.uri, Err: err}
	}

	logrus.WithField("genesis", conn.GenesisHash()).Debug("connected to chain")
	conn.onFailure = m.release
	m.conn = conn
	return conn, nil
}

func (m *Manager) open(ctx context.Context) (Client, error) {
	if m.injected != nil {
		client := m.injected
		m.injected = nil
		return client, nil
	}
	if m.uri == "" {
		return nil, errors.New("no provider uri configured")
	}
	return m.dial(ctx, m.uri)
}

// release forgets a connection whose client failed, so the next Acquire redials. A
// connection that was already replaced or disconnected is left alone.
func (m *Manager) release(conn *Connection) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.conn != conn {
		return
	}
	m.conn = nil
	logrus.WithField("uri", m.uri).Warn("dropping failed chain connection")
	if err := conn.client.Close(); err != nil {
		logrus.WithError(err).Debug("closing failed chain client")
	}
}

// Connected reports whether a connection is currently held.
func (m *Manager) Connected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.conn != nil
}

// Disconnect closes the connection if there is one. Calling it again is a no-op, and the
// next Acquire reconnects. A connection whose transport failed is dropped the same way
// without a Disconnect.
func (m *Manager) Disconnect() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.conn == nil {
		return nil
	}
	client := m.conn.client
	m.conn = nil
	if err := client.Close(); err != nil {
		return errors.Wrap(err, "closing chain connection")
	}
	return nil
}
