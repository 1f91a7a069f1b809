package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/georgemunganga/stockpdv/internal/config"
	"github.com/georgemunganga/stockpdv/internal/database"
	"github.com/georgemunganga/stockpdv/internal/handlerutils"
	"github.com/georgemunganga/stockpdv/internal/modules/auth"
	"github.com/georgemunganga/stockpdv/internal/modules/catalog"
	"github.com/georgemunganga/stockpdv/internal/modules/inventory"
	"github.com/georgemunganga/stockpdv/internal/modules/pos"
	"github.com/georgemunganga/stockpdv/internal/modules/reports"
	"github.com/georgemunganga/stockpdv/internal/modules/user"
)

// sweepInterval is how often abandoned carts are dropped.
const sweepInterval = 10 * time.Minute

func serve(c *cli.Context) error {
	cfg, db, err := bootstrap(c.Context)
	if err != nil {
		return err
	}
	defer db.Close()

	if c.Bool("migrate") {
		if err := database.MigrateUp(db); err != nil {
			return err
		}
	}

	sessions := pos.NewSessionStore()
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           newRouter(cfg, db, sessions),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.WithField("addr", srv.Addr).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down, waiting for pending requests")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
		return nil
	})

	// Carts live only in memory. Drop the ones whose token has surely expired.
	g.Go(func() error {
		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				if n := sessions.Sweep(cfg.JWTTTL); n > 0 {
					log.WithField("carts", n).Info("dropped idle carts")
				}
			}
		}
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("server stopped")
	return nil
}

func newRouter(cfg *config.Config, db *sql.DB, sessions *pos.SessionStore) http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(handlerutils.RequestLogger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.StripSlashes)

	// ── Identity ────────────────────────────────────────────
	userRepo := user.NewPostgresRepository(db)
	userHandler := user.NewHandler(user.NewService(userRepo))

	authService := auth.NewService(userRepo, cfg.JWTSecret, cfg.JWTTTL)
	authMiddleware := auth.NewMiddleware(authService)
	authHandler := auth.NewHandler(authService, authMiddleware)

	// ── Ledger & Catalog ────────────────────────────────────
	ledger := inventory.NewService(inventory.NewPostgresRepository(db), cfg.HistoryLimit)
	inventoryHandler := inventory.NewHandler(ledger)

	catalogService := catalog.NewService(catalog.NewPostgresRepository(db), ledger)
	catalogHandler := catalog.NewHandler(catalogService)

	// ── Point of sale & Reports ─────────────────────────────
	posService := pos.NewService(pos.NewPostgresRepository(db), catalogService, ledger, sessions)
	posHandler := pos.NewHandler(posService)

	reportsService := reports.NewService(reports.NewPostgresRepository(db), cfg.Location(), cfg.NearExpiryDays)
	reportsHandler := reports.NewHandler(reportsService)

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			if err := database.Ping(r.Context(), db); err != nil {
				handlerutils.RespondError(w, r, err)
				return
			}
			handlerutils.Respond(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		userHandler.RegisterRoutes(r)
		authHandler.RegisterRoutes(r)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)
			catalogHandler.RegisterRoutes(r)
			inventoryHandler.RegisterRoutes(r)
			posHandler.RegisterRoutes(r)

			r.Group(func(r chi.Router) {
				r.Use(authMiddleware.RequireRole(user.RoleAdmin))
				userHandler.RegisterAdminRoutes(r)
				catalogHandler.RegisterAdminRoutes(r)
				inventoryHandler.RegisterAdminRoutes(r)
				reportsHandler.RegisterRoutes(r)
			})
		})
	})

	return router
}
