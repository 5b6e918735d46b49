package chain

import (
	"context"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// wsConn is the part of a websocket connection the client needs.
type wsConn interface {
	WriteMessage(messageType int, data []byte) error
	ReadMessage() (messageType int, p []byte, err error)
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// wsClient runs calls one at a time over a single socket. Nothing reads the socket
// between calls; the resolver never subscribes, so every frame answers a request.
// A failed read or write leaves the socket unusable, so the client closes itself and
// every later call returns ErrClientClosed.
type wsClient struct {
	mu     sync.Mutex
	conn   wsConn
	nextID uint64
	closed bool
}

var _ Client = (*wsClient)(nil)

// DialWebsocket connects to a ws:// or wss:// node endpoint.
func DialWebsocket(ctx context.Context, uri string) (Client, error) {
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, uri, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, errors.Wrapf(err, "dialing %s", uri)
	}
	return &wsClient{conn: conn}, nil
}

func (c *wsClient) Call(ctx context.Context, result any, method string, params ...any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClientClosed
	}

	c.nextID++
	id := c.nextID
	payload, err := json.Marshal(newRequest(id, method, params))
	if err != nil {
		return errors.Wrapf(err, "encoding %s request", method)
	}

	deadline, _ := ctx.Deadline()
	if err = c.conn.SetWriteDeadline(deadline); err != nil {
		return c.fail(errors.Wrap(err, "setting write deadline"))
	}
	if err = c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		return c.fail(errors.Wrapf(err, "sending %s request", method))
	}

	if err = c.conn.SetReadDeadline(deadline); err != nil {
		return c.fail(errors.Wrap(err, "setting read deadline"))
	}
	for {
		// a reply that arrives after this returns is skipped by id on the next call
		if err = ctx.Err(); err != nil {
			return err
		}
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			return c.fail(errors.Wrapf(err, "reading %s response", method))
		}
		var resp response
		if err = json.Unmarshal(frame, &resp); err != nil {
			return errors.Wrapf(err, "decoding %s response", method)
		}
		if resp.ID == nil || *resp.ID != id {
			logrus.WithField("method", method).Debug("skipping websocket frame for another request")
			continue
		}
		return resp.decode(method, result)
	}
}

// fail closes a socket that gorilla will no longer read from or write to. The caller
// holds c.mu.
func (c *wsClient) fail(err error) error {
	c.closed = true
	if closeErr := c.conn.Close(); closeErr != nil {
		logrus.WithError(closeErr).Debug("closing failed websocket")
	}
	return &TransportError{Err: err}
}

func (c *wsClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return c.conn.Close()
}
