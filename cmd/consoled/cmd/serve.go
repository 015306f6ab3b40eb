package cmd

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pallavilagisetti/admin-control-sub001/internal/auth"
	"github.com/pallavilagisetti/admin-control-sub001/internal/config"
	"github.com/pallavilagisetti/admin-control-sub001/internal/db/bunx"
	consolemw "github.com/pallavilagisetti/admin-control-sub001/internal/middleware"
	"github.com/pallavilagisetti/admin-control-sub001/internal/repository"
	"github.com/pallavilagisetti/admin-control-sub001/internal/server"
)

// version is stamped at build time via -ldflags.
var version = "dev"

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the console API server",
	Long:  `Starts the HTTP server exposing the admin panel's JSON API.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Connect to database
		db, err := bunx.NewDB(cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer bunx.Close(db)

		log.Printf("Connected to database")

		repos := server.Repositories{
			Users:    repository.NewBunUserRepository(db),
			Resumes:  repository.NewBunResumeRepository(db),
			Jobs:     repository.NewBunJobRepository(db),
			Skills:   repository.NewBunSkillRepository(db),
			Payments: repository.NewBunPaymentRepository(db),
		}

		expander, err := auth.NewRoleExpander()
		if err != nil {
			return fmt.Errorf("failed to build role expander: %w", err)
		}

		var rolesClaim, permsClaim string
		if cfg.IdP != nil {
			rolesClaim = cfg.IdP.RolesClaim
			permsClaim = cfg.IdP.PermissionsClaim
		} else {
			rolesClaim = config.DefaultRolesClaim
			permsClaim = config.DefaultPermissionsClaim
		}
		mock := auth.NewMockIssuer(cfg.SessionSecret, cfg.ServerURL, rolesClaim, permsClaim)

		gateDeps := consolemw.AuthGateDeps{Mock: mock, Expander: expander}

		var keys *auth.KeysetCache
		if cfg.IdPConfigured() {
			keys = auth.NewKeysetCache(cfg.IdP.Domain)
			gateDeps.Verifier = auth.NewVerifier(cfg.IdP, keys)
			log.Printf("Token verification enabled for %s", cfg.IdP.Domain)
		} else if cfg.DevBypassEnabled() {
			log.Printf("WARNING: dev bypass active, requests without tokens get a synthetic admin")
		}

		gate, err := consolemw.NewAuthGate(cfg, gateDeps)
		if err != nil {
			return fmt.Errorf("failed to build auth gate: %w", err)
		}

		limiter := consolemw.NewLimiter(cfg.RateLimit)
		defer limiter.Close()

		handler := server.NewH2CHandler(server.RouterOptions{
			Cfg:        cfg,
			Repos:      repos,
			Mock:       mock,
			Keys:       keys,
			DB:         db,
			Version:    version,
			Middleware: []func(http.Handler) http.Handler{limiter.Middleware(), gate},
		})

		srv := &http.Server{
			Addr:         cfg.ServerAddr,
			Handler:      handler,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		}

		// Start server in goroutine
		serverErrors := make(chan error, 1)
		go func() {
			log.Printf("Starting server on %s (env=%s)", cfg.ServerAddr, cfg.Env)
			serverErrors <- srv.ListenAndServe()
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		// SIGHUP drops the cached JWKS so rotated keys are picked up
		// immediately instead of at TTL expiry.
		keyRefresh := make(chan os.Signal, 1)
		signal.Notify(keyRefresh, syscall.SIGHUP)

		for {
			select {
			case err := <-serverErrors:
				return fmt.Errorf("server error: %w", err)

			case sig := <-keyRefresh:
				if keys != nil {
					keys.Purge()
					log.Printf("Received signal %v, purged identity provider key cache", sig)
				} else {
					log.Printf("WARNING: received %v but no identity provider is configured", sig)
				}

			case sig := <-shutdown:
				log.Printf("Received signal %v, shutting down gracefully", sig)

				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()

				if err := srv.Shutdown(ctx); err != nil {
					srv.Close()
					return fmt.Errorf("graceful shutdown failed: %w", err)
				}

				log.Printf("Server stopped")
				return nil
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
