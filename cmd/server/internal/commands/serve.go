package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/wolfeidau/khuwani/internal/auth"
	"github.com/wolfeidau/khuwani/internal/khuwani"
	"github.com/wolfeidau/khuwani/internal/logger"
	"github.com/wolfeidau/khuwani/internal/server"
	"github.com/wolfeidau/khuwani/internal/store"
	memorystore "github.com/wolfeidau/khuwani/internal/store/memory"
	postgresstore "github.com/wolfeidau/khuwani/internal/store/postgres"
	"github.com/wolfeidau/khuwani/internal/telemetry"
)

// shutdownDrainWindow is how long in-flight requests get to finish after
// SIGINT/SIGTERM before the listener is torn down.
const shutdownDrainWindow = 10 * time.Second

type ServeCmd struct {
	// Server configuration
	Listen string `help:"HTTP server listen address" default:"localhost:8080" env:"KHUWANI_LISTEN"`
	Cert   string `help:"path to TLS cert file; empty serves plain HTTP" default:"" env:"KHUWANI_TLS_CERT"`
	Key    string `help:"path to TLS key file" default:"" env:"KHUWANI_TLS_KEY"`

	// CORS configuration
	CORSOrigins []string `help:"allowed CORS origins for the public participant API; empty allows any" env:"KHUWANI_CORS_ORIGINS"`

	// Session configuration
	SessionSecret string        `help:"secret for signing session cookies (minimum 32 bytes)" env:"KHUWANI_SESSION_SECRET"`
	SessionTTL    time.Duration `help:"session TTL" default:"168h" env:"KHUWANI_SESSION_TTL"`

	// Operational modes
	Tracing bool `help:"enable tracing" default:"false" env:"KHUWANI_TRACING"`

	// Store configuration
	StoreType     string             `help:"store type (memory or postgres)" default:"memory" env:"KHUWANI_STORE_TYPE" enum:"memory,postgres"`
	PostgresStore PostgresStoreFlags `embed:"" prefix:"postgres-"`
}

func (c *ServeCmd) Run(globals *Globals) error {
	log := logger.Setup(globals.Debug)
	ctx := context.Background()

	log.Info().Str("version", globals.Version).Bool("debug", globals.Debug).Msg("Starting server")

	if len(c.SessionSecret) < 32 {
		return errors.New("session secret must be at least 32 bytes (--session-secret or KHUWANI_SESSION_SECRET)")
	}

	// Setup telemetry if enabled
	if c.Tracing {
		log.Info().Msg("Tracing is enabled")
		shutdown, err := telemetry.InitTelemetry(ctx, "khuwani-server", globals.Version)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to initialize telemetry, continuing without metrics")
			shutdown = func(ctx context.Context) error { return nil }
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("Failed to shutdown telemetry")
			}
		}()
	}

	// Create stores based on store type
	var (
		organizerStore store.OrganizerStore
		khuwaniStore   store.KhuwaniStore
		claimStore     store.ClaimStore
		sessionStore   store.SessionStore
	)

	switch c.StoreType {
	case "postgres":
		if err := c.PostgresStore.Validate(); err != nil {
			return err
		}

		stores, err := postgresstore.NewStores(ctx, &postgresstore.Config{
			Pool: &postgresstore.PoolConfig{
				ConnString:      c.PostgresStore.ConnString,
				MaxConns:        c.PostgresStore.MaxConns,
				MinConns:        c.PostgresStore.MinConns,
				MaxConnLifetime: c.PostgresStore.MaxConnLifetime,
				MaxConnIdleTime: c.PostgresStore.MaxConnIdleTime,
			},
			AutoMigrate: c.PostgresStore.AutoMigrate,
		})
		if err != nil {
			return fmt.Errorf("failed to create postgres stores: %w", err)
		}
		defer stores.Close()

		organizerStore = stores.Organizers
		khuwaniStore = stores.Khuwanies
		claimStore = stores.Claims
		sessionStore = stores.Sessions

		log.Info().Msg("Using PostgreSQL stores with shared connection pool")

	default:
		memClaims := memorystore.NewClaimStore()
		memKhuwanies := memorystore.NewKhuwaniStore()
		memKhuwanies.SetClaimStore(memClaims)

		organizerStore = memorystore.NewOrganizerStore()
		khuwaniStore = memKhuwanies
		claimStore = memClaims
		sessionStore = memorystore.NewSessionStore()

		log.Warn().Msg("Using in-memory stores, all data is lost on restart")
	}

	useTLS := c.Cert != "" && c.Key != ""
	if useTLS {
		if _, err := os.Stat(c.Cert); err != nil {
			return fmt.Errorf("TLS certificate not found at %s: %w", c.Cert, err)
		}
		if _, err := os.Stat(c.Key); err != nil {
			return fmt.Errorf("TLS key not found at %s: %w", c.Key, err)
		}
	}

	gate := auth.NewGate(organizerStore, 0)

	sessions, err := auth.NewSessions(sessionStore, []byte(c.SessionSecret), c.SessionTTL, useTLS)
	if err != nil {
		return fmt.Errorf("failed to create session manager: %w", err)
	}

	service := khuwani.NewService(khuwaniStore, claimStore)

	handler := server.NewServer(server.Config{
		AllowedOrigins: c.CORSOrigins,
	}, service, gate, sessions).Handler(log)

	httpServer := configureHTTPServer(c.Listen, handler)

	// Serve until interrupted, then drain in-flight requests.
	signalCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", c.Listen).Bool("tls", useTLS).Msg("Listening")
		if useTLS {
			errCh <- httpServer.ListenAndServeTLS(c.Cert, c.Key)
		} else {
			errCh <- httpServer.ListenAndServe()
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-signalCtx.Done():
	}

	log.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownDrainWindow)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down cleanly: %w", err)
	}

	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
