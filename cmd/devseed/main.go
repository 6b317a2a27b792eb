// Command devseed loads sample properties into a development database and
// prints access tokens for sample users so the API can be exercised by hand.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"gopkg.in/yaml.v3"

	"dormhub-backend/internal/config"
	"dormhub-backend/internal/domain"
	"dormhub-backend/internal/security"
)

type SeedProperty struct {
	ID                string `yaml:"id"`
	LandlordID        string `yaml:"landlord_id"`
	Title             string `yaml:"title"`
	RentAmount        int64  `yaml:"rent_amount"`
	AllowReservations *bool  `yaml:"allow_reservations"`
	EnableDownpayment bool   `yaml:"enable_downpayment"`
	DownpaymentAmount int64  `yaml:"downpayment_amount"`
	IsAvailable       *bool  `yaml:"is_available"`
}

type SeedUser struct {
	ID    string `yaml:"id"`
	Name  string `yaml:"name"`
	Email string `yaml:"email"`
	Role  string `yaml:"role"`
	Tier  string `yaml:"tier"`
}

type SeedData struct {
	Properties []SeedProperty `yaml:"properties"`
	Users      []SeedUser     `yaml:"users"`
}

func main() {
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	seedPath := flag.String("seed", "config/seed.dev.yaml", "Path to seed data file")
	tokenTTL := flag.Duration("token-ttl", 24*time.Hour, "Lifetime of the printed access tokens")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	data, err := readSeedFile(*seedPath)
	if err != nil {
		log.Fatalf("Failed to read seed file: %v", err)
	}

	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}

	if err := populateProperties(context.Background(), db, data.Properties); err != nil {
		log.Fatalf("Failed to populate properties: %v", err)
	}
	log.Printf("Seeded %d properties", len(data.Properties))

	tokens := security.NewTokenManager(cfg.JWT.Secret)
	for _, u := range data.Users {
		user, err := u.toDomain()
		if err != nil {
			log.Fatalf("Invalid seed user %q: %v", u.Email, err)
		}
		tok, err := tokens.GenerateAccessToken(user, *tokenTTL)
		if err != nil {
			log.Fatalf("Failed to issue token for %s: %v", u.Email, err)
		}
		fmt.Printf("%s\t%s\t%s\t%s\n", user.Email, user.Role, user.Tier, tok)
	}
}

func readSeedFile(filename string) (*SeedData, error) {
	raw, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	var data SeedData
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

func (u SeedUser) toDomain() (*domain.User, error) {
	id, err := uuid.Parse(u.ID)
	if err != nil {
		return nil, fmt.Errorf("id: %w", err)
	}
	role := domain.UserRole(u.Role)
	switch role {
	case domain.UserRoleStudent, domain.UserRoleLandlord, domain.UserRoleAdmin:
	default:
		return nil, fmt.Errorf("unknown role %q", u.Role)
	}
	tier := domain.SubscriptionTierFree
	if u.Tier == string(domain.SubscriptionTierPremium) {
		tier = domain.SubscriptionTierPremium
	}
	return &domain.User{ID: id, Name: u.Name, Email: u.Email, Role: role, Tier: tier}, nil
}

// populateProperties upserts every property in one transaction so the seed
// can be rerun after editing the file.
func populateProperties(ctx context.Context, db *sql.DB, props []SeedProperty) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, p := range props {
		id, err := uuid.Parse(p.ID)
		if err != nil {
			return fmt.Errorf("property %q: %w", p.Title, err)
		}
		landlordID, err := uuid.Parse(p.LandlordID)
		if err != nil {
			return fmt.Errorf("property %q landlord: %w", p.Title, err)
		}
		var downpayment sql.NullInt64
		if p.EnableDownpayment {
			downpayment = sql.NullInt64{Int64: p.DownpaymentAmount, Valid: true}
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO properties (id, landlord_id, title, rent_amount, allow_reservations, enable_downpayment, downpayment_amount, is_available)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (id) DO UPDATE SET
				landlord_id = EXCLUDED.landlord_id,
				title = EXCLUDED.title,
				rent_amount = EXCLUDED.rent_amount,
				allow_reservations = EXCLUDED.allow_reservations,
				enable_downpayment = EXCLUDED.enable_downpayment,
				downpayment_amount = EXCLUDED.downpayment_amount,
				is_available = EXCLUDED.is_available
		`, id, landlordID, p.Title, p.RentAmount, boolOr(p.AllowReservations, true), p.EnableDownpayment, downpayment, boolOr(p.IsAvailable, true))
		if err != nil {
			return fmt.Errorf("failed to upsert property %q: %w", p.Title, err)
		}
	}
	return tx.Commit()
}

func boolOr(b *bool, def bool) bool {
	if b == nil {
		return def
	}
	return *b
}
