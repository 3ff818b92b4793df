// Package server wires the store, services, handlers and middleware into
// one HTTP server.
//
// ROUTES:
//
//	pages     /, /ideas/*, /implementation/*, /comments/*, /@{username}, /profile/*
//	auth      /register, /login, /logout
//	admin     /admin/moderation, /admin/verify/{id}
//	api       /api/v1/ideas, /api/v1/auth/login
//	ops       /metrics, /healthz
//
// MIDDLEWARE ORDER:
//  1. RequestID, RealIP: chi built-ins
//  2. Logger: one line per request, tagged with the request id
//  3. Recoverer: a panicking handler becomes a 500
//  4. Instrument: Prometheus request metrics by route pattern
//  5. Authenticate: resolves the session cookie or bearer token
//
// Routes that need a user sit behind auth.RequireLogin (pages) or
// auth.RequireToken (API); finer permission checks happen in the services.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/reqimple/reqimple/internal/auth"
	"github.com/reqimple/reqimple/internal/config"
	"github.com/reqimple/reqimple/internal/handler"
	"github.com/reqimple/reqimple/internal/metrics"
	"github.com/reqimple/reqimple/internal/middleware"
	"github.com/reqimple/reqimple/internal/repository"
	"github.com/reqimple/reqimple/internal/service"
	"github.com/reqimple/reqimple/internal/view"
)

// shutdownTimeout bounds how long in-flight requests may run after a stop
// is requested.
const shutdownTimeout = 30 * time.Second

type Server struct {
	router  *chi.Mux
	config  *config.Config
	logger  *slog.Logger
	store   repository.Store
	metrics *metrics.Metrics
}

// New builds the router. The caller owns store and closes it after the
// server stops.
func New(cfg *config.Config, store repository.Store, m *metrics.Metrics, logger *slog.Logger) (*Server, error) {
	s := &Server{
		router:  chi.NewRouter(),
		config:  cfg,
		logger:  logger,
		store:   store,
		metrics: m,
	}
	if err := s.setupRoutes(); err != nil {
		return nil, fmt.Errorf("setting up routes: %w", err)
	}
	return s, nil
}

func (s *Server) setupRoutes() error {
	tokens, err := auth.NewTokenService(s.config.SecretKey)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	views, err := view.New(s.logger)
	if err != nil {
		return fmt.Errorf("parsing templates: %w", err)
	}
	var github *auth.GitHubProvider
	if s.config.GitHubEnabled() {
		github = auth.NewGitHubProvider(s.config.GitHub.ClientID, s.config.GitHub.ClientSecret, s.config.GitHub.CallbackURL)
	}

	// === Services ===
	passwords := auth.NewPasswordService(auth.DefaultCost)
	authService := service.NewAuthService(s.store, tokens, passwords, s.metrics, s.logger, s.config.SessionTTL)
	ideaService := service.NewIdeaService(s.store, s.metrics, s.logger)
	implService := service.NewImplementationService(s.store, s.metrics, s.logger)
	commentService := service.NewCommentService(s.store, s.metrics, s.logger)
	profileService := service.NewProfileService(s.store, s.logger)

	// === Handlers ===
	opts := handler.Options{Views: views, Logger: s.logger, SecureCookies: s.config.CookieSecure}
	authHandler := handler.NewAuthHandler(authService, profileService, github, opts)
	ideaHandler := handler.NewIdeaHandler(ideaService, opts)
	implHandler := handler.NewImplementationHandler(implService, ideaService, opts)
	commentHandler := handler.NewCommentHandler(commentService, ideaService, implService, opts)
	profileHandler := handler.NewProfileHandler(profileService, github != nil, opts)
	apiHandler := handler.NewAPIHandler(authService, ideaService, s.logger)

	// === Global middleware ===
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(s.metrics.Instrument)
	s.router.Use(auth.Authenticate(authService, s.logger))

	s.router.NotFound(handler.NotFound(opts))

	// === Operational ===
	s.router.Handle("/metrics", s.metrics.Handler())
	s.router.Get("/healthz", s.handleHealth)

	// === Public pages ===
	s.router.Get("/", ideaHandler.Index)
	s.router.Get("/ideas/{id}", ideaHandler.Detail)
	s.router.Get("/implementation/{id}", implHandler.Detail)
	s.router.Get("/@{username}", profileHandler.Show)
	s.router.Get("/register", authHandler.ShowRegister)
	s.router.Post("/register", authHandler.Register)
	s.router.Get("/login", authHandler.ShowLogin)
	s.router.Post("/login", authHandler.Login)
	s.router.Get("/logout", authHandler.Logout)

	// === Pages behind a login ===
	s.router.Group(func(r chi.Router) {
		r.Use(auth.RequireLogin)

		r.Get("/create/idea", ideaHandler.ShowCreate)
		r.Post("/create/idea", ideaHandler.Create)
		r.Get("/ideas/{id}/edit", ideaHandler.ShowEdit)
		r.Post("/ideas/{id}/edit", ideaHandler.Edit)
		r.Post("/ideas/{id}/delete", ideaHandler.Delete)
		r.Get("/ideas/{id}/create-implementation", implHandler.ShowCreate)
		r.Post("/ideas/{id}/create-implementation", implHandler.Create)

		r.Post("/ideas/{id}/comment", commentHandler.AddToIdea)
		r.Post("/comments/{id}/delete", commentHandler.DeleteFromIdea)
		r.Post("/implementation/{id}/comment", commentHandler.AddToImplementation)
		r.Post("/implementation/comments/{id}/delete", commentHandler.DeleteFromImplementation)

		r.Get("/admin/moderation", implHandler.Moderation)
		r.Get("/admin/verify/{id}", implHandler.Verify)

		r.Get("/profile/edit", profileHandler.ShowEdit)
		r.Post("/profile/edit", profileHandler.Edit)
		r.Post("/profile/delete", profileHandler.Delete)
		r.Get("/profile/github/connect", authHandler.GitHubConnect)
		r.Get("/profile/github/callback", authHandler.GitHubCallback)
	})

	// === JSON API ===
	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/ideas", apiHandler.ListIdeas)
		r.Post("/auth/login", apiHandler.Login)
		r.With(auth.RequireToken).Post("/ideas", apiHandler.CreateIdea)
	})

	return nil
}

// Handler exposes the router, for tests and for embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if err := s.store.Ping(ctx); err != nil {
		s.logger.Error("health check failed", slog.String("error", err.Error()))
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprintln(w, "database unavailable")
		return
	}
	fmt.Fprintln(w, "ok")
}

// Start serves until ctx is cancelled, then drains in-flight requests for
// up to 30 seconds.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.config.Addr(),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.String("addr", srv.Addr),
			slog.Bool("github", s.config.GitHubEnabled()),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
		s.logger.Info("shutdown requested")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}
	return nil
}
