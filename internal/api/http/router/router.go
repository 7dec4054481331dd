package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/surrlabs/surr/internal/api/http/handler"
	"github.com/surrlabs/surr/internal/api/http/middleware"
	"github.com/surrlabs/surr/internal/config"
	"github.com/surrlabs/surr/internal/logger"
)

// Router wires handlers and middleware into an HTTP handler.
type Router struct {
	auth         *handler.Auth
	authenticate *middleware.Authenticate
	rateLimit    *middleware.RateLimit
	limits       config.RateLimit
	logger       *logger.Logger
}

// New creates a Router with the given handlers and middleware.
func New(
	auth *handler.Auth,
	authenticate *middleware.Authenticate,
	rateLimit *middleware.RateLimit,
	limits config.RateLimit,
	logger *logger.Logger,
) *Router {
	return &Router{
		auth:         auth,
		authenticate: authenticate,
		rateLimit:    rateLimit,
		limits:       limits,
		logger:       logger,
	}
}

// Register builds the route tree. Login and signup carry per-route
// fixed-window limits; refresh and logout are throttled by their token
// requirements instead.
func (r *Router) Register() http.Handler {
	mux := chi.NewRouter()

	mux.Use(chimiddleware.Recoverer)
	mux.Use(middleware.NewLogging(r.logger).Handle)

	mux.Route("/api/v1/auth", func(mux chi.Router) {
		mux.With(r.rateLimit.Limit(r.limits.LoginRequests, r.limits.LoginWindow)).
			Post("/login", r.auth.Login)
		mux.With(r.rateLimit.Limit(r.limits.SignupRequests, r.limits.SignupWindow)).
			Post("/signup", r.auth.Signup)
		mux.Post("/refresh", r.auth.Refresh)
		mux.Post("/logout", r.auth.Logout)
	})

	mux.Route("/api/v1/users", func(mux chi.Router) {
		mux.Use(r.authenticate.RequireAccessToken)
		mux.Get("/me", r.auth.Me)
	})

	return mux
}
