package chain_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dsnp/frequency-resolver/internal/storagekey"
	"github.com/dsnp/frequency-resolver/pkg/chain"
	"github.com/dsnp/frequency-resolver/pkg/testutil"
)

func TestManager(t *testing.T) {
	for _, node := range testutil.TestNodes {
		t.Run(node.Name, func(t *testing.T) {
			t.Run("Acquire is lazy and shared", func(tt *testing.T) {
				fake := testutil.NewFakeChain()
				manager := chain.NewManager("ws://node.example", node.Dial(tt, fake))
				assert.False(tt, manager.Connected())
				testutil.RequireCalls(tt, fake, "chain_getBlockHash", 0)

				first, err := manager.Acquire(context.Background())
				require.NoError(tt, err)
				second, err := manager.Acquire(context.Background())
				require.NoError(tt, err)

				assert.Same(tt, first, second)
				assert.Equal(tt, testutil.DefaultGenesisHash, first.GenesisHash())
				assert.True(tt, manager.Connected())
				testutil.RequireCalls(tt, fake, "chain_getBlockHash", 1)
				require.NoError(tt, manager.Disconnect())
			})

			t.Run("Disconnect is idempotent and Acquire reconnects", func(tt *testing.T) {
				fake := testutil.NewFakeChain()
				manager := chain.NewManager("ws://node.example", node.Dial(tt, fake))

				require.NoError(tt, manager.Disconnect())
				_, err := manager.Acquire(context.Background())
				require.NoError(tt, err)
				require.NoError(tt, manager.Disconnect())
				require.NoError(tt, manager.Disconnect())
				assert.False(tt, manager.Connected())

				_, err = manager.Acquire(context.Background())
				require.NoError(tt, err)
				testutil.RequireCalls(tt, fake, "chain_getBlockHash", 2)
				require.NoError(tt, manager.Disconnect())
			})

			t.Run("Failed handshake", func(tt *testing.T) {
				fake := testutil.NewFakeChain()
				fake.FailHandshake(true)
				manager := chain.NewManager("ws://node.example", node.Dial(tt, fake))

				_, err := manager.Acquire(context.Background())
				var connErr *chain.ConnectionError
				require.ErrorAs(tt, err, &connErr)
				assert.Equal(tt, "ws://node.example", connErr.URI)
				assert.False(tt, manager.Connected())
			})

			t.Run("Reads", func(tt *testing.T) {
				fake := testutil.NewFakeChain()
				key := make([]byte, chain.AccountIDSize)
				key[31] = 0x07
				fake.AddMSA(13972, key)
				fake.AddItem(13972, 7, []byte{0x40, 0x01})
				fake.RegisterSchema("dsnp.public-key-key-agreement", 1, 7)

				manager := chain.NewManager("ws://node.example", node.Dial(tt, fake))
				defer manager.Disconnect()
				conn, err := manager.Acquire(context.Background())
				require.NoError(tt, err)

				count, err := conn.GetStorage(context.Background(), storagekey.PublicKeyCount.Key(13972))
				require.NoError(tt, err)
				assert.Equal(tt, []byte{1}, count)

				missing, err := conn.GetStorage(context.Background(), storagekey.PublicKeyCount.Key(1))
				require.NoError(tt, err)
				assert.Nil(tt, missing)

				keys, err := conn.GetKeysByMsaID(context.Background(), 13972)
				require.NoError(tt, err)
				assert.Equal(tt, [][]byte{key}, keys)

				none, err := conn.GetKeysByMsaID(context.Background(), 1)
				require.NoError(tt, err)
				assert.Empty(tt, none)

				items, err := conn.GetItemizedStorage(context.Background(), 13972, 7)
				require.NoError(tt, err)
				require.Len(tt, items, 1)
				assert.Equal(tt, chain.Bytes{0x40, 0x01}, items[0].Payload)

				versions, err := conn.GetSchemaVersions(context.Background(), "dsnp.public-key-key-agreement")
				require.NoError(tt, err)
				assert.Equal(tt, []chain.SchemaVersionResponse{{
					SchemaName:    "dsnp.public-key-key-agreement",
					SchemaVersion: 1,
					SchemaID:      7,
				}}, versions)

				unknown, err := conn.GetSchemaVersions(context.Background(), "dsnp.unknown")
				require.NoError(tt, err)
				assert.Nil(tt, unknown)
			})
		})
	}
}

func TestManagerTransportFailure(t *testing.T) {
	t.Run("Timed out websocket call is redialed", func(tt *testing.T) {
		fake := testutil.NewFakeChain()
		fake.AddMSA(13972, make([]byte, chain.AccountIDSize))
		url := fake.WebsocketURL(tt)
		manager := chain.NewManager(url, nil)
		defer manager.Disconnect()

		first, err := manager.Acquire(context.Background())
		require.NoError(tt, err)

		fake.DelayNext("state_getStorage", 200*time.Millisecond)
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		_, err = first.GetStorage(ctx, storagekey.PublicKeyCount.Key(13972))
		require.Error(tt, err)
		assert.True(tt, chain.IsTransportFailure(err))
		assert.False(tt, manager.Connected())

		second, err := manager.Acquire(context.Background())
		require.NoError(tt, err)
		assert.NotSame(tt, first, second)

		count, err := second.GetStorage(context.Background(), storagekey.PublicKeyCount.Key(13972))
		require.NoError(tt, err)
		assert.Equal(tt, []byte{1}, count)
		testutil.RequireCalls(tt, fake, "chain_getBlockHash", 2)
	})

	t.Run("Stale connection does not drop its replacement", func(tt *testing.T) {
		fake := testutil.NewFakeChain()
		manager := chain.NewManager("ws://node.example", func(context.Context, string) (chain.Client, error) {
			return fake.Client(), nil
		})
		defer manager.Disconnect()

		stale, err := manager.Acquire(context.Background())
		require.NoError(tt, err)
		require.NoError(tt, manager.Disconnect())
		current, err := manager.Acquire(context.Background())
		require.NoError(tt, err)

		_, err = stale.GetStorage(context.Background(), storagekey.PublicKeyCount.Key(1))
		assert.ErrorIs(tt, err, chain.ErrClientClosed)
		assert.True(tt, manager.Connected())

		again, err := manager.Acquire(context.Background())
		require.NoError(tt, err)
		assert.Same(tt, current, again)
	})
}

func TestManagerWithClient(t *testing.T) {
	t.Run("Injected client is consumed once", func(tt *testing.T) {
		fake := testutil.NewFakeChain()
		client := fake.Client()
		manager := chain.NewManagerWithClient(client)

		_, err := manager.Acquire(context.Background())
		require.NoError(tt, err)
		require.NoError(tt, manager.Disconnect())
		assert.True(tt, client.Closed())

		_, err = manager.Acquire(context.Background())
		var connErr *chain.ConnectionError
		require.ErrorAs(tt, err, &connErr)
		assert.ErrorContains(tt, err, "no provider uri configured")
	})

	t.Run("Dial failure", func(tt *testing.T) {
		dialErr := errors.New("connection refused")
		manager := chain.NewManager("ws://node.example", func(context.Context, string) (chain.Client, error) {
			return nil, dialErr
		})
		_, err := manager.Acquire(context.Background())
		assert.ErrorIs(tt, err, dialErr)
	})

	t.Run("Closed client after failed handshake", func(tt *testing.T) {
		fake := testutil.NewFakeChain()
		fake.FailHandshake(true)
		client := fake.Client()
		_, err := chain.NewManagerWithClient(client).Acquire(context.Background())
		assert.Error(tt, err)
		assert.True(tt, client.Closed())
	})
}
