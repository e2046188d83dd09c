package router

import (
	"github.com/fasthttp/router"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"

	apiHandler "github.com/fastygo/rentledger/api/handler"
)

type Handlers struct {
	Agreement *apiHandler.AgreementHandler
	Health    *apiHandler.HealthHandler
}

// Options toggles the optional surfaces.
type Options struct {
	// Metrics is served on /metrics when non-nil.
	Metrics prometheus.Gatherer
}

func New(handlers Handlers, authMiddleware func(fasthttp.RequestHandler) fasthttp.RequestHandler, opts Options) *router.Router {
	r := router.New()

	r.GET("/health", handlers.Health.Check)
	if opts.Metrics != nil {
		r.GET("/metrics", fasthttpadaptor.NewFastHTTPHandler(
			promhttp.HandlerFor(opts.Metrics, promhttp.HandlerOpts{}),
		))
	}

	// Protected routes
	r.POST("/api/v1/agreements", authMiddleware(handlers.Agreement.Create))
	r.GET("/api/v1/agreements/{id}", authMiddleware(handlers.Agreement.Get))
	r.GET("/api/v1/stats/agreements", authMiddleware(handlers.Agreement.Count))

	return r
}
