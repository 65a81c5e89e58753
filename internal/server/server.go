// Package server wires the application together: store, repositories,
// reconciler, services, handlers, and routes.
//
// This is the composition root — every dependency is constructed here and
// injected downward, so no other package reaches for globals. main.go stays
// minimal: load config, build the server, start it.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/loyalty-club/internal/auth"
	"github.com/sakif/loyalty-club/internal/config"
	"github.com/sakif/loyalty-club/internal/handler"
	"github.com/sakif/loyalty-club/internal/middleware"
	"github.com/sakif/loyalty-club/internal/repository/record"
	"github.com/sakif/loyalty-club/internal/service"
	"github.com/sakif/loyalty-club/internal/store"
	"github.com/sakif/loyalty-club/internal/syncer"
)

// Server owns the router, the store, and the startup reconciliation.
type Server struct {
	router *chi.Mux
	config config.Config
	logger *slog.Logger
	store  *store.Store
	sync   *syncer.Reconciler
}

// New builds the full dependency chain. The store is opened (and migrated)
// here; reconciliation runs later, in Start, before the listener accepts the
// first request.
func New(cfg config.Config, logger *slog.Logger) (*Server, error) {
	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	repos := record.New(st)

	tokens, err := auth.NewTokenService(cfg.JWTSecret)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("creating token service: %w", err)
	}
	passwords := auth.NewPasswordService()

	loyalty := service.NewLoyaltyService(repos.Users, repos.Promos, repos.Pending, passwords, logger)

	var rec *syncer.Reconciler
	if cfg.RemoteBaseURL != "" {
		rec = syncer.New(cfg.RemoteBaseURL, cfg.RemoteTimeout,
			repos.Users, repos.Promos, repos.Meta, logger)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		store:  st,
		sync:   rec,
	}
	s.setupRoutes(loyalty, repos, passwords, tokens)

	return s, nil
}

// setupRoutes configures middleware and route handlers.
//
// Reads (member lookup, promo list) are open: the member-facing screen has
// no login beyond knowing an id or phone. Everything that mutates state, and
// the full member list, sits behind the staff session.
func (s *Server) setupRoutes(
	loyalty *service.LoyaltyService,
	repos *record.Repositories,
	passwords *auth.PasswordService,
	tokens *auth.TokenService,
) {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	userHandler := handler.NewUserHandler(loyalty, s.logger)
	promoHandler := handler.NewPromoHandler(loyalty, s.logger)
	syncHandler := handler.NewSyncHandler(loyalty, repos.Meta, s.logger)
	authHandler := handler.NewAuthHandler(passwords, tokens, s.config.AdminHash, s.logger)

	s.router.Post("/auth/login", authHandler.HandleLogin)
	s.router.Post("/auth/logout", authHandler.HandleLogout)

	s.router.Route("/api", func(r chi.Router) {
		// Public reads for the member screen.
		r.Get("/users/lookup", userHandler.HandleFind)
		r.Get("/users/{id}", userHandler.HandleGet)
		r.Get("/promos", promoHandler.HandleList)
		r.Get("/sync/status", syncHandler.HandleStatus)

		// Staff-only management and mutations.
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireStaff(tokens))

			r.Get("/users", userHandler.HandleList)
			r.Post("/users", userHandler.HandleCreate)
			r.Put("/users/{id}", userHandler.HandleUpdate)
			r.Post("/users/{id}/visits", userHandler.HandleAddVisit)
			r.Post("/users/{id}/redeem", userHandler.HandleRedeem)

			r.Get("/sync/actions", syncHandler.HandleActions)
			r.Get("/sync/export", syncHandler.HandleExport)
			r.Post("/sync/flush", syncHandler.HandleFlush)
		})
	})
}

// Start reconciles with the remote snapshot, then serves HTTP until SIGINT
// or SIGTERM, shutting down gracefully and closing the store.
func (s *Server) Start() error {
	defer s.store.Close()

	// Reconciliation runs to completion (or fails soft to offline) before
	// any request is served — domain operations never race the merge.
	if s.sync != nil {
		online, err := s.sync.Run(context.Background())
		if err != nil {
			return fmt.Errorf("reconciliation: %w", err)
		}
		s.logger.Info("startup reconciliation finished", slog.Bool("online", online))
	} else {
		s.logger.Info("no remote configured, running local-only")
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
