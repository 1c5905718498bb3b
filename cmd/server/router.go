package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/jobscout-api/internal/api"
	apiMiddleware "github.com/phrazzld/jobscout-api/internal/api/middleware"
)

// setupRouter creates the router with every route and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(apiMiddleware.NewTraceMiddleware(app.logger))
	r.Use(apiMiddleware.RequestLogger(app.logger))
	r.Use(middleware.Recoverer)

	signupHandler := api.NewSignupHandler(app.emitter, app.config.Server.MaxUploadMB, app.logger)
	unsubscribeHandler := api.NewUnsubscribeHandler(app.subscriptions, app.logger)
	systemHandler := api.NewSystemHandler(app.manager, app.correlator)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/signup", http.StatusSeeOther)
	})
	r.Get("/signup", signupHandler.Form)
	r.Post("/signup", signupHandler.Submit)
	r.Get("/success", api.SuccessPage)
	r.Get("/error", api.ErrorPage)
	r.Get("/unsubscribe", unsubscribeHandler.Unsubscribe)

	r.Get("/ping", systemHandler.Ping)
	r.Get("/health", systemHandler.Health)
	r.Get("/health/queues", systemHandler.QueueStats)

	return r
}
