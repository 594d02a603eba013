package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Config holds everything needed to stand up the PostgreSQL backend.
type Config struct {
	Pool *PoolConfig

	// AutoMigrate runs pending migrations before the stores are handed out.
	AutoMigrate bool
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.Pool == nil {
		return fmt.Errorf("pool config is required")
	}
	return c.Pool.Validate()
}

// Stores bundles the PostgreSQL-backed stores built over one shared pool.
type Stores struct {
	Organizers *OrganizerStore
	Khuwanies  *KhuwaniStore
	Claims     *ClaimStore
	Sessions   *SessionStore

	pool *pgxpool.Pool
}

// NewStores connects, optionally migrates, and returns all stores over a
// shared connection pool.
func NewStores(ctx context.Context, cfg *Config) (*Stores, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	pool, err := NewPool(ctx, cfg.Pool)
	if err != nil {
		return nil, err
	}

	if cfg.AutoMigrate {
		if err := Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
	}

	return &Stores{
		Organizers: NewOrganizerStore(pool),
		Khuwanies:  NewKhuwaniStore(pool),
		Claims:     NewClaimStore(pool),
		Sessions:   NewSessionStore(pool),
		pool:       pool,
	}, nil
}

// Close releases the underlying connection pool.
func (s *Stores) Close() {
	s.pool.Close()
}
