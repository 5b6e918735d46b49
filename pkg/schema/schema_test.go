package schema_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dsnp/frequency-resolver/pkg/chain"
	"github.com/dsnp/frequency-resolver/pkg/schema"
	"github.com/dsnp/frequency-resolver/pkg/testutil"
)

func newConnection(t *testing.T, fake *testutil.FakeChain) (*chain.Connection, *testutil.FakeClient) {
	client := fake.Client()
	conn, err := chain.NewConnection(context.Background(), client)
	require.NoError(t, err)
	return conn, client
}

func TestParse(t *testing.T) {
	t.Run("Networks", func(tt *testing.T) {
		for _, s := range []string{"local", "testnet", "mainnet", " Testnet "} {
			_, err := schema.ParseNetwork(s)
			assert.NoError(tt, err, s)
		}
		_, err := schema.ParseNetwork("rococo")
		assert.ErrorContains(tt, err, `"local", "testnet", "mainnet"`)
	})

	t.Run("Strategies", func(tt *testing.T) {
		strategy, err := schema.ParseStrategy("")
		require.NoError(tt, err)
		assert.Equal(tt, schema.Dynamic, strategy)

		strategy, err = schema.ParseStrategy("FALLBACK")
		require.NoError(tt, err)
		assert.Equal(tt, schema.Fallback, strategy)

		_, err = schema.ParseStrategy("random")
		assert.Error(tt, err)
	})

	t.Run("Purpose names", func(tt *testing.T) {
		assert.Equal(tt, "dsnp.public-key-key-agreement", schema.KeyAgreement.Name())
		assert.Equal(tt, "dsnp.public-key-assertion-method", schema.AssertionMethod.Name())
	})
}

func TestDynamicResolver(t *testing.T) {
	ctx := context.Background()
	r := schema.NewDynamicResolver()

	t.Run("Mapped version", func(tt *testing.T) {
		fake := testutil.NewFakeChain()
		fake.RegisterSchema(schema.KeyAgreement.Name(), 1, 7)
		fake.RegisterSchema(schema.KeyAgreement.Name(), 2, 19)
		conn, _ := newConnection(tt, fake)

		id, ok, err := r.ResolveSchemaID(ctx, conn, schema.KeyAgreement, schema.KeyAgreementVersion)
		require.NoError(tt, err)
		assert.True(tt, ok)
		assert.Equal(tt, schema.ID(7), id)
	})

	t.Run("Mapped version not registered", func(tt *testing.T) {
		fake := testutil.NewFakeChain()
		fake.RegisterSchema(schema.AssertionMethod.Name(), 2, 101)
		conn, _ := newConnection(tt, fake)

		_, ok, err := r.ResolveSchemaID(ctx, conn, schema.AssertionMethod, schema.AssertionMethodVersion)
		require.NoError(tt, err)
		assert.False(tt, ok)
	})

	t.Run("Unmapped version takes the latest", func(tt *testing.T) {
		fake := testutil.NewFakeChain()
		fake.RegisterSchema(schema.AssertionMethod.Name(), 3, 120)
		fake.RegisterSchema(schema.AssertionMethod.Name(), 1, 100)
		conn, _ := newConnection(tt, fake)

		id, ok, err := r.ResolveSchemaID(ctx, conn, schema.AssertionMethod, "9.9")
		require.NoError(tt, err)
		assert.True(tt, ok)
		assert.Equal(tt, schema.ID(120), id)
	})

	t.Run("Custom version map", func(tt *testing.T) {
		fake := testutil.NewFakeChain()
		fake.RegisterSchema(schema.KeyAgreement.Name(), 1, 7)
		fake.RegisterSchema(schema.KeyAgreement.Name(), 2, 19)
		conn, _ := newConnection(tt, fake)

		custom := r.WithVersionMap(map[schema.Purpose]map[string]uint16{
			schema.KeyAgreement: {schema.KeyAgreementVersion: 2},
		})
		id, ok, err := custom.ResolveSchemaID(ctx, conn, schema.KeyAgreement, schema.KeyAgreementVersion)
		require.NoError(tt, err)
		assert.True(tt, ok)
		assert.Equal(tt, schema.ID(19), id)
	})

	t.Run("No registrations", func(tt *testing.T) {
		conn, _ := newConnection(tt, testutil.NewFakeChain())

		_, ok, err := r.ResolveSchemaID(ctx, conn, schema.KeyAgreement, schema.KeyAgreementVersion)
		require.NoError(tt, err)
		assert.False(tt, ok)
	})

	t.Run("RPC failure", func(tt *testing.T) {
		conn, client := newConnection(tt, testutil.NewFakeChain())
		require.NoError(tt, client.Close())

		_, _, err := r.ResolveSchemaID(ctx, conn, schema.KeyAgreement, schema.KeyAgreementVersion)
		assert.ErrorIs(tt, err, chain.ErrClientClosed)
	})

	t.Run("Nil connection", func(tt *testing.T) {
		_, _, err := r.ResolveSchemaID(ctx, nil, schema.KeyAgreement, schema.KeyAgreementVersion)
		assert.Error(tt, err)
	})
}

func TestStaticResolver(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		network   schema.Network
		agreement schema.ID
		assertion schema.ID
	}{
		{network: schema.Testnet, agreement: 18, assertion: 105},
		{network: schema.Mainnet, agreement: 7, assertion: 100},
		{network: schema.Local, agreement: 7, assertion: 100},
	}
	for _, test := range tests {
		t.Run(string(test.network), func(tt *testing.T) {
			r := schema.NewStaticResolver(test.network, schema.DefaultStaticTable)

			id, ok, err := r.ResolveSchemaID(ctx, nil, schema.KeyAgreement, schema.KeyAgreementVersion)
			require.NoError(tt, err)
			assert.True(tt, ok)
			assert.Equal(tt, test.agreement, id)

			id, ok, err = r.ResolveSchemaID(ctx, nil, schema.AssertionMethod, schema.AssertionMethodVersion)
			require.NoError(tt, err)
			assert.True(tt, ok)
			assert.Equal(tt, test.assertion, id)
		})
	}

	t.Run("Zero id is absent", func(tt *testing.T) {
		table := schema.StaticTable{Testnet: schema.Pair{KeyAgreement: 18, AssertionMethod: 105}}
		r := schema.NewStaticResolver(schema.Mainnet, table)

		_, ok, err := r.ResolveSchemaID(ctx, nil, schema.KeyAgreement, schema.KeyAgreementVersion)
		require.NoError(tt, err)
		assert.False(tt, ok)
	})

	t.Run("Defaults fill missing ids", func(tt *testing.T) {
		table := schema.StaticTable{Testnet: schema.Pair{KeyAgreement: 40}}.WithDefaults()
		assert.Equal(tt, schema.Pair{KeyAgreement: 40, AssertionMethod: 105}, table.Testnet)
		assert.Equal(tt, schema.DefaultStaticTable.Mainnet, table.Mainnet)
	})

	t.Run("Unknown purpose", func(tt *testing.T) {
		r := schema.NewStaticResolver(schema.Mainnet, schema.DefaultStaticTable)
		_, _, err := r.ResolveSchemaID(ctx, nil, schema.Purpose("profile"), "1.0")
		assert.Error(tt, err)
	})
}

func TestFallbackResolver(t *testing.T) {
	ctx := context.Background()
	table := schema.StaticTable{Mainnet: schema.Pair{KeyAgreement: 70, AssertionMethod: 71}}

	t.Run("Primary failure uses the table", func(tt *testing.T) {
		conn, client := newConnection(tt, testutil.NewFakeChain())
		require.NoError(tt, client.Close())

		r, err := schema.NewResolver(schema.Fallback, schema.Mainnet, table)
		require.NoError(tt, err)
		id, ok, err := r.ResolveSchemaID(ctx, conn, schema.KeyAgreement, schema.KeyAgreementVersion)
		require.NoError(tt, err)
		assert.True(tt, ok)
		assert.Equal(tt, schema.ID(70), id)
	})

	t.Run("Primary absence is kept", func(tt *testing.T) {
		conn, _ := newConnection(tt, testutil.NewFakeChain())

		r, err := schema.NewResolver(schema.Fallback, schema.Mainnet, table)
		require.NoError(tt, err)
		_, ok, err := r.ResolveSchemaID(ctx, conn, schema.KeyAgreement, schema.KeyAgreementVersion)
		require.NoError(tt, err)
		assert.False(tt, ok)
	})

	t.Run("Unknown strategy", func(tt *testing.T) {
		_, err := schema.NewResolver(schema.Strategy("random"), schema.Mainnet, table)
		assert.Error(tt, err)
	})
}
