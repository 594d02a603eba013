package commands

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/wolfeidau/khuwani/internal/auth"
	"github.com/wolfeidau/khuwani/internal/khuwani"
	"github.com/wolfeidau/khuwani/internal/logger"
	"github.com/wolfeidau/khuwani/internal/store"
	postgresstore "github.com/wolfeidau/khuwani/internal/store/postgres"
	"gopkg.in/yaml.v3"
)

// SeedCmd loads a YAML fixture through the real registration and lifecycle
// code paths, so seeded data obeys the same validation and uniqueness rules
// as live traffic. Dev and demo tooling, not a bulk importer.
type SeedCmd struct {
	File string `help:"path to the YAML fixture file" arg:"" type:"existingfile"`

	PostgresStore PostgresStoreFlags `embed:"" prefix:"postgres-"`
}

type seedFixture struct {
	Organizers []seedOrganizer `yaml:"organizers"`
}

type seedOrganizer struct {
	Email     string        `yaml:"email"`
	Password  string        `yaml:"password"`
	Khuwanies []seedKhuwani `yaml:"khuwanies"`
}

type seedKhuwani struct {
	DedicateeName  string      `yaml:"dedicatee_name"`
	ExtraInstances int         `yaml:"extra_instances"`
	Claims         []seedClaim `yaml:"claims"`
}

type seedClaim struct {
	QuranNumber     int    `yaml:"quran_number"`
	SiparaNumber    int    `yaml:"sipara_number"`
	ParticipantName string `yaml:"participant_name"`
}

func (c *SeedCmd) Run(globals *Globals) error {
	log := logger.Setup(globals.Debug)
	ctx := context.Background()

	if err := c.PostgresStore.Validate(); err != nil {
		return err
	}

	raw, err := os.ReadFile(c.File)
	if err != nil {
		return fmt.Errorf("failed to read fixture file: %w", err)
	}

	var fixture seedFixture
	if err := yaml.Unmarshal(raw, &fixture); err != nil {
		return fmt.Errorf("failed to parse fixture file: %w", err)
	}

	stores, err := postgresstore.NewStores(ctx, &postgresstore.Config{
		Pool: &postgresstore.PoolConfig{
			ConnString: c.PostgresStore.ConnString,
		},
		AutoMigrate: c.PostgresStore.AutoMigrate,
	})
	if err != nil {
		return fmt.Errorf("failed to create postgres stores: %w", err)
	}
	defer stores.Close()

	gate := auth.NewGate(stores.Organizers, 0)
	service := khuwani.NewService(stores.Khuwanies, stores.Claims)

	for _, seed := range fixture.Organizers {
		organizer, err := gate.Register(ctx, seed.Email, seed.Password, seed.Password)
		if err != nil {
			if !errors.Is(err, store.ErrOrganizerExists) {
				return fmt.Errorf("failed to register %s: %w", seed.Email, err)
			}
			// Re-running against the same database is fine.
			organizer, err = stores.Organizers.GetByEmail(ctx, auth.NormalizeEmail(seed.Email))
			if err != nil {
				return fmt.Errorf("failed to look up %s: %w", seed.Email, err)
			}
			log.Info().Str("email", organizer.Email).Msg("Organizer already exists")
		}

		for _, sk := range seed.Khuwanies {
			created, err := service.Create(ctx, organizer.OrganizerID, sk.DedicateeName)
			if err != nil {
				return fmt.Errorf("failed to create khuwani %q: %w", sk.DedicateeName, err)
			}

			for range sk.ExtraInstances {
				if err := service.AddQuranInstance(ctx, created.KhuwaniID, organizer.OrganizerID); err != nil {
					return fmt.Errorf("failed to add instance to %q: %w", sk.DedicateeName, err)
				}
			}

			for _, sc := range sk.Claims {
				_, err := service.Claim(ctx, created.Slug, sc.QuranNumber, sc.SiparaNumber, sc.ParticipantName)
				if err != nil {
					return fmt.Errorf("failed to seed claim on %q (quran %d sipara %d): %w",
						sk.DedicateeName, sc.QuranNumber, sc.SiparaNumber, err)
				}
			}

			log.Info().
				Str("slug", created.Slug).
				Str("dedicatee", sk.DedicateeName).
				Int("claims", len(sk.Claims)).
				Msg("Seeded khuwani")
		}
	}

	log.Info().Int("organizers", len(fixture.Organizers)).Msg("Seed complete")
	return nil
}
