package server

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dsnp/frequency-resolver/config"
	"github.com/dsnp/frequency-resolver/pkg/chain"
	"github.com/dsnp/frequency-resolver/pkg/resolver"
	"github.com/dsnp/frequency-resolver/pkg/server/middleware"
	"github.com/dsnp/frequency-resolver/pkg/server/router"
	svcframework "github.com/dsnp/frequency-resolver/pkg/service/framework"
	"github.com/dsnp/frequency-resolver/pkg/testutil"
)

func testConfig() config.ResolverConfig {
	return config.ResolverConfig{
		Server: config.ServerConfig{
			Environment:        config.EnvironmentTest,
			APIHost:            "127.0.0.1:0",
			EnableAllowAllCORS: true,
		},
		Frequency: config.FrequencyConfig{Network: "local"},
		DID:       config.DIDConfig{ResolutionMethods: []string{"dsnp", "key"}},
	}
}

func newTestServer(t *testing.T) (*ResolverServer, *testutil.FakeClient) {
	fake := testutil.NewFakeChain()
	fake.AddMSA(13972, bytes.Repeat([]byte{0x01}, chain.AccountIDSize))
	client := fake.Client()
	dsnp, err := resolver.New(resolver.Options{Client: client, Network: "local"})
	require.NoError(t, err)

	shutdown := make(chan os.Signal, 1)
	server, err := NewResolverServer(shutdown, testConfig(), dsnp)
	require.NoError(t, err)
	require.NotEmpty(t, server)
	t.Cleanup(func() { _ = server.RunShutdownHooks(context.Background()) })
	return server, client
}

func serve(server *ResolverServer, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	server.Handler.ServeHTTP(w, req)
	return w
}

func TestNewResolverServer(t *testing.T) {
	t.Run("Missing dsnp resolver", func(tt *testing.T) {
		_, err := NewResolverServer(make(chan os.Signal, 1), testConfig(), nil)
		assert.ErrorContains(tt, err, "dsnp resolver cannot be nil")
	})

	t.Run("No usable resolution methods", func(tt *testing.T) {
		dsnp, err := resolver.New(resolver.Options{Client: testutil.NewFakeChain().Client(), Network: "local"})
		require.NoError(tt, err)
		cfg := testConfig()
		cfg.DID.ResolutionMethods = []string{"unsupported"}
		_, err = NewResolverServer(make(chan os.Signal, 1), cfg, dsnp)
		assert.Error(tt, err)
	})
}

func TestHealthCheckAPI(t *testing.T) {
	server, _ := newTestServer(t)

	w := serve(server, httptest.NewRequest(http.MethodGet, "https://resolver.example/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	var resp router.GetHealthCheckResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, router.HealthOK, resp.Status)
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
}

func TestReadinessAPI(t *testing.T) {
	server, _ := newTestServer(t)

	w := serve(server, httptest.NewRequest(http.MethodGet, "https://resolver.example/readiness", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	var resp router.GetReadinessResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, svcframework.StatusReady, resp.Status.Status)
	assert.Len(t, resp.ServiceStatuses, 2)
	assert.Equal(t, svcframework.StatusReady, resp.ServiceStatuses[svcframework.DSNP].Status)
	assert.Equal(t, svcframework.StatusReady, resp.ServiceStatuses[svcframework.Universal].Status)
}

func TestResolutionAPI(t *testing.T) {
	t.Run("Driver route", func(tt *testing.T) {
		server, _ := newTestServer(tt)

		w := serve(server, httptest.NewRequest(http.MethodGet, "https://resolver.example/1.0/identifiers/did:dsnp:13972", nil))
		require.Equal(tt, http.StatusOK, w.Code)

		var resp router.ResolveDSNPResponse
		require.NoError(tt, json.NewDecoder(w.Body).Decode(&resp))
		require.NotNil(tt, resp.DIDDocument)
		assert.Equal(tt, "did:dsnp:13972", resp.DIDDocument.ID)
		assert.Len(tt, resp.DIDDocument.Authentication, 1)
	})

	t.Run("Multi method route", func(tt *testing.T) {
		server, _ := newTestServer(tt)

		w := serve(server, httptest.NewRequest(http.MethodGet, "https://resolver.example/v1/dids/resolver/did:dsnp:7", nil))
		assert.Equal(tt, http.StatusNotFound, w.Code)
	})

	t.Run("CORS", func(tt *testing.T) {
		server, _ := newTestServer(tt)

		req := httptest.NewRequest(http.MethodGet, "https://resolver.example/1.0/identifiers/did:dsnp:13972", nil)
		req.Header.Set("Origin", "https://wallet.example")
		w := serve(server, req)
		assert.Equal(tt, "*", w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("Unknown route", func(tt *testing.T) {
		server, _ := newTestServer(tt)

		w := serve(server, httptest.NewRequest(http.MethodPost, "https://resolver.example/1.0/identifiers/did:dsnp:13972", nil))
		assert.Equal(tt, http.StatusNotFound, w.Code)
	})
}

func TestShutdown(t *testing.T) {
	server, client := newTestServer(t)

	w := serve(server, httptest.NewRequest(http.MethodGet, "https://resolver.example/1.0/identifiers/did:dsnp:13972", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.False(t, client.Closed())

	require.NoError(t, server.RunShutdownHooks(context.Background()))
	assert.True(t, client.Closed())

	// hooks run again without error once disconnected
	assert.NoError(t, server.RunShutdownHooks(context.Background()))
}
