// Package server contains the full set of handler functions and routes
// supported by the http api
package server

import (
	"context"
	"os"

	sdkutil "github.com/TBD54566975/ssi-sdk/util"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/dsnp/frequency-resolver/config"
	"github.com/dsnp/frequency-resolver/internal/did"
	"github.com/dsnp/frequency-resolver/pkg/resolver"
	"github.com/dsnp/frequency-resolver/pkg/server/framework"
	"github.com/dsnp/frequency-resolver/pkg/server/middleware"
	"github.com/dsnp/frequency-resolver/pkg/server/router"
	svcframework "github.com/dsnp/frequency-resolver/pkg/service/framework"
)

const (
	HealthPrefix      = "/health"
	ReadinessPrefix   = "/readiness"
	UniversalPrefix   = "/1.0"
	IdentifiersPrefix = "/identifiers"
	V1Prefix          = "/v1"
	DIDsPrefix        = "/dids"
	ResolverPrefix    = "/resolver"
)

// ResolverServer exposes all dependencies needed to run the resolver over http
type ResolverServer struct {
	*config.ServerConfig
	*framework.Server

	DSNP     *resolver.Resolver
	Resolver *did.ServiceResolver
}

// NewResolverServer builds the engine, registers the resolution routes and arranges for the chain
// connection to be released on shutdown.
func NewResolverServer(shutdown chan os.Signal, cfg config.ResolverConfig, dsnp *resolver.Resolver) (*ResolverServer, error) {
	if dsnp == nil {
		return nil, errors.New("dsnp resolver cannot be nil")
	}

	engine := setUpEngine(cfg.Server, shutdown)
	httpServer := framework.NewServer(cfg.Server, engine, shutdown)

	serviceResolver, err := did.NewServiceResolver(cfg.DID.ResolutionMethods, dsnp, cfg.DID.UniversalResolverURL, nil)
	if err != nil {
		return nil, sdkutil.LoggingErrorMsg(err, "unable to instantiate DID resolver")
	}
	services := []svcframework.Service{dsnp, serviceResolver}

	// service-level routers
	engine.GET(HealthPrefix, router.Health)
	engine.GET(ReadinessPrefix, router.Readiness(services, cfg.Frequency.CallTimeout))

	resolverRouter, err := router.NewResolverRouter(dsnp, serviceResolver, cfg.Frequency.CallTimeout)
	if err != nil {
		return nil, sdkutil.LoggingErrorMsg(err, "creating resolver router")
	}
	UniversalResolverDriverAPI(engine.Group(UniversalPrefix), resolverRouter)
	DecentralizedIdentityAPI(engine.Group(V1Prefix), resolverRouter)

	httpServer.OnShutdown(func(context.Context) error {
		return dsnp.Disconnect()
	})

	return &ResolverServer{
		ServerConfig: &cfg.Server,
		Server:       httpServer,
		DSNP:         dsnp,
		Resolver:     serviceResolver,
	}, nil
}

// setUpEngine creates the gin engine and sets up the middleware based on config
func setUpEngine(cfg config.ServerConfig, shutdown chan os.Signal) *gin.Engine {
	switch cfg.Environment {
	case config.EnvironmentDev:
		gin.SetMode(gin.DebugMode)
	case config.EnvironmentTest:
		gin.SetMode(gin.TestMode)
	case config.EnvironmentProd:
		gin.SetMode(gin.ReleaseMode)
	}

	middlewares := gin.HandlersChain{
		middleware.Panics(),
		otelgin.Middleware(config.ServiceName),
		middleware.Logger(logrus.StandardLogger()),
		middleware.Errors(shutdown),
		middleware.Metrics(),
	}
	if cfg.EnableAllowAllCORS {
		middlewares = append(middlewares, middleware.CORS())
	}

	// set up engine and middleware
	engine := gin.New()
	engine.Use(middlewares...)
	return engine
}

// UniversalResolverDriverAPI registers the did:dsnp driver route as universal resolver drivers expose it
func UniversalResolverDriverAPI(rg *gin.RouterGroup, rr *router.ResolverRouter) {
	rg.GET(IdentifiersPrefix+"/:"+router.IDParam, rr.ResolveDSNP)
}

// DecentralizedIdentityAPI registers multi method resolution
func DecentralizedIdentityAPI(rg *gin.RouterGroup, rr *router.ResolverRouter) {
	didAPI := rg.Group(DIDsPrefix)
	didAPI.GET(ResolverPrefix+"/:"+router.IDParam, rr.ResolveDID)
}
