package main

import (
	"context"
	"net/http"
	"time"

	"bookreviews/internal/auth"
	"bookreviews/internal/book"
	"bookreviews/internal/config"
	"bookreviews/internal/httpx"
	"bookreviews/internal/platform/health"
	"bookreviews/internal/profile"
	"bookreviews/internal/rating"
	"bookreviews/internal/review"
	"bookreviews/internal/session"
	"bookreviews/internal/storage"
	"bookreviews/internal/user"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

type app struct {
	cfg      config.Config
	sessions *session.Service

	books    *book.HTTPHandler
	reviews  *review.HTTPHandler
	ratings  *rating.HTTPHandler
	users    *user.HTTPHandler
	auth     *auth.HTTPHandler
	sessionH *session.HTTPHandler
	profiles *profile.HTTPHandler
	ready    http.HandlerFunc
}

// newApp wires services over the opened stores. Every review write reaches
// the book aggregate through the one rating.Aggregator built here.
func newApp(cfg config.Config, st *storage.Stores) *app {
	aggregator := rating.NewAggregator(st.Reviews, st.Books)

	reviewSvc := review.NewService(st.Reviews, st.Books, aggregator)
	bookSvc := book.NewService(st.Books, reviewSvc)
	ratingSvc := rating.NewService(st.Books, st.Reviews)
	userSvc := user.NewService(st.Users)
	sessionSvc := session.NewService(st.Sessions, st.Blacklist)
	authSvc := auth.NewService(cfg.JWTSecret, cfg.AccessTokenTTL, userSvc, sessionSvc)
	profileSvc := profile.NewService(userSvc, reviewSvc)

	return &app{
		cfg:      cfg,
		sessions: sessionSvc,
		books:    book.NewHTTPHandler(bookSvc),
		reviews:  review.NewHTTPHandler(reviewSvc),
		ratings:  rating.NewHTTPHandler(ratingSvc),
		users:    user.NewHTTPHandler(userSvc),
		auth:     auth.NewHTTPHandler(authSvc),
		sessionH: session.NewHTTPHandler(sessionSvc),
		profiles: profile.NewHTTPHandler(profileSvc),
		ready:    health.Ready(2*time.Second, st.Checks...),
	}
}

func (a *app) routes() *http.ServeMux {
	mux := http.NewServeMux()
	protect := httpx.AuthMiddleware(a.cfg.JWTSecret, a.sessions)
	authed := func(h http.HandlerFunc) http.Handler { return protect(h) }

	mux.HandleFunc("GET /healthz", health.Live)
	mux.HandleFunc("GET /readyz", a.ready)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /v1/books", a.books.List)
	mux.Handle("POST /v1/books", authed(a.books.Create))
	mux.HandleFunc("GET /v1/books/{id}", a.books.Get)
	mux.Handle("PATCH /v1/books/{id}", authed(a.books.Update))
	mux.Handle("DELETE /v1/books/{id}", authed(a.books.Delete))
	mux.HandleFunc("GET /v1/books/{id}/rating", a.ratings.GetSummary)

	mux.HandleFunc("GET /v1/books/{id}/reviews", a.reviews.ListByBook)
	mux.Handle("POST /v1/books/{id}/reviews", authed(a.reviews.Create))
	mux.HandleFunc("GET /v1/reviews/{id}", a.reviews.Get)
	mux.Handle("PATCH /v1/reviews/{id}", authed(a.reviews.Update))
	mux.Handle("DELETE /v1/reviews/{id}", authed(a.reviews.Delete))

	mux.HandleFunc("POST /v1/users/register", a.users.RegisterUser)
	mux.HandleFunc("POST /v1/users/login", a.auth.Login)
	mux.HandleFunc("GET /v1/users/{id}/reviews", a.reviews.ListByUser)
	mux.HandleFunc("GET /v1/users/{id}/profile", a.profiles.GetPublicProfile)

	mux.HandleFunc("POST /v1/auth/refresh", a.auth.RefreshToken)
	mux.Handle("POST /v1/auth/logout", authed(a.auth.Logout))

	mux.Handle("GET /v1/me", authed(a.users.GetCurrentUser))
	mux.Handle("GET /v1/me/profile", authed(a.profiles.GetOwnProfile))
	mux.Handle("PATCH /v1/me/profile", authed(a.profiles.UpdateProfile))
	mux.Handle("GET /v1/me/sessions", authed(a.sessionH.ListSessions))
	mux.Handle("DELETE /v1/me/sessions/{id}", authed(a.sessionH.DeleteSession))

	return mux
}

// handler wraps the router in the middleware chain, outermost first.
func (a *app) handler(ctx context.Context, log zerolog.Logger) http.Handler {
	// Validate already rejected malformed entries.
	trusted, _ := a.cfg.TrustedProxyPrefixes()
	rateLimiter := httpx.NewRateLimitMiddleware(ctx, a.cfg.RateLimitRPS, a.cfg.RateLimitBurst, trusted)
	return httpx.Chain(a.routes(),
		httpx.RecoveryMiddleware,
		httpx.RequestIDMiddleware,
		httpx.AccessLogMiddleware(log),
		httpx.MetricsMiddleware,
		httpx.SecurityHeadersMiddleware(a.cfg.EnableHSTS),
		httpx.CORSMiddleware(a.cfg.CORSAllowedOrigins),
		httpx.RequestSizeLimitMiddleware(a.cfg.MaxBodyBytes),
		rateLimiter.Middleware,
	)
}
