package chain

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/h2non/gock.v1"
)

const testNodeURL = "https://rpc.testnet.example"

func TestHTTPClient(t *testing.T) {
	t.Run("Empty url", func(tt *testing.T) {
		_, err := NewHTTPClient("", nil)
		assert.Error(tt, err)
	})

	t.Run("Decodes the result", func(tt *testing.T) {
		defer gock.Off()
		httpClient := &http.Client{}
		gock.InterceptClient(httpClient)
		gock.New(testNodeURL).
			Post("/").
			MatchType("json").
			BodyString(`"method":"chain_getBlockHash"`).
			Reply(200).
			JSON(map[string]any{"jsonrpc": "2.0", "id": 1, "result": "0xabcd"})

		client, err := NewHTTPClient(testNodeURL, httpClient)
		require.NoError(tt, err)

		var genesis string
		require.NoError(tt, client.Call(context.Background(), &genesis, "chain_getBlockHash", 0))
		assert.Equal(tt, "0xabcd", genesis)
		assert.True(tt, gock.IsDone())
	})

	t.Run("RPC error", func(tt *testing.T) {
		defer gock.Off()
		httpClient := &http.Client{}
		gock.InterceptClient(httpClient)
		gock.New(testNodeURL).
			Post("/").
			Reply(200).
			JSON(map[string]any{"jsonrpc": "2.0", "id": 1, "error": map[string]any{"code": -32601, "message": "Method not found"}})

		client, err := NewHTTPClient(testNodeURL, httpClient)
		require.NoError(tt, err)

		err = client.Call(context.Background(), nil, "msa_getKeysByMsaId", 1)
		var rpcErr *RPCError
		require.ErrorAs(tt, err, &rpcErr)
		assert.Equal(tt, -32601, rpcErr.Code)
	})

	t.Run("Non 2xx status", func(tt *testing.T) {
		defer gock.Off()
		httpClient := &http.Client{}
		gock.InterceptClient(httpClient)
		gock.New(testNodeURL).
			Post("/").
			Reply(503).
			BodyString("unavailable\r\n")

		client, err := NewHTTPClient(testNodeURL, httpClient)
		require.NoError(tt, err)

		err = client.Call(context.Background(), nil, "state_getStorage", "0x00")
		assert.ErrorContains(tt, err, "status 503: unavailable")
	})

	t.Run("Null result", func(tt *testing.T) {
		defer gock.Off()
		httpClient := &http.Client{}
		gock.InterceptClient(httpClient)
		gock.New(testNodeURL).
			Post("/").
			Reply(200).
			BodyString(`{"jsonrpc":"2.0","id":1,"result":null}`)

		client, err := NewHTTPClient(testNodeURL, httpClient)
		require.NoError(tt, err)

		var value *Bytes
		require.NoError(tt, client.Call(context.Background(), &value, "state_getStorage", "0x00"))
		assert.Nil(tt, value)
	})
}

func TestDial(t *testing.T) {
	t.Run("Unsupported scheme", func(tt *testing.T) {
		_, err := Dial(context.Background(), "ftp://node.example")
		assert.ErrorContains(tt, err, "unsupported provider scheme")
	})

	t.Run("HTTP does not connect eagerly", func(tt *testing.T) {
		client, err := Dial(context.Background(), testNodeURL)
		require.NoError(tt, err)
		assert.NoError(tt, client.Close())
	})
}
