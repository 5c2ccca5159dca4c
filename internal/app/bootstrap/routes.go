// internal/app/bootstrap/routes.go
package bootstrap

import (
	"errors"
	"net/http"

	auditlogfeature "github.com/dalemusser/tripjournal/internal/app/features/auditlog"
	errorsfeature "github.com/dalemusser/tripjournal/internal/app/features/errors"
	feedsfeature "github.com/dalemusser/tripjournal/internal/app/features/feeds"
	healthfeature "github.com/dalemusser/tripjournal/internal/app/features/health"
	membersfeature "github.com/dalemusser/tripjournal/internal/app/features/members"
	recordsfeature "github.com/dalemusser/tripjournal/internal/app/features/records"
	usersfeature "github.com/dalemusser/tripjournal/internal/app/features/users"
	"github.com/dalemusser/tripjournal/internal/app/system/auth"
	"github.com/dalemusser/tripjournal/internal/app/system/ratelimit"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// Startup have completed, so deps.Runtime already holds the services.
//
// Every route reads the acting user from the X-User-ID header. /health and
// /metrics are open; everything else answers 401 without an actor.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	rt := deps.Runtime
	if rt == nil || rt.Records == nil {
		return nil, errors.New("build handler: services not started")
	}

	// Create error logger for handlers.
	errLog := errorsfeature.NewErrorLogger(logger)

	r := chi.NewRouter()

	// Global actor middleware: makes the caller available via auth.CurrentActor(r).
	r.Use(auth.LoadActor)
	r.Use(ratelimit.Writes(rt.Limiter, actorKey, logger))

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.Store, deps.Driver, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	r.Handle("/metrics", promhttp.HandlerFor(rt.Registry, promhttp.HandlerOpts{}))

	usersHandler := usersfeature.NewHandler(rt.Users, errLog, logger)
	r.Mount("/users", usersfeature.Routes(usersHandler, logger))

	feedsHandler := feedsfeature.NewHandler(rt.Feeds, errLog, logger)
	membersHandler := membersfeature.NewHandler(rt.Membership, errLog, logger)
	recordsHandler := recordsfeature.NewHandler(rt.Records, errLog, logger)

	r.Route("/feeds", func(fr chi.Router) {
		fr.Use(auth.RequireActor(logger))
		feedsfeature.Register(fr, feedsHandler)
		membersfeature.Register(fr, membersHandler)
		recordsfeature.Register(fr, recordsHandler)
		if rt.Audit != nil {
			auditHandler := auditlogfeature.NewHandler(deps.Store, rt.Audit, errLog, logger)
			auditlogfeature.Register(fr, auditHandler)
		}
	})

	r.Mount("/records", recordsfeature.Routes(recordsHandler, logger))

	return otelhttp.NewHandler(r, "tripjournal"), nil
}

func actorKey(r *http.Request) string {
	id, _ := auth.CurrentActor(r)
	return id
}
