package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/fruteira-pos/terminal/internal/auth"
	"github.com/fruteira-pos/terminal/internal/config"
	"github.com/fruteira-pos/terminal/internal/enum"
	"github.com/fruteira-pos/terminal/internal/sale"
	"github.com/fruteira-pos/terminal/internal/store"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// fruits is the starter catalog of a fresh terminal database.
var fruits = []sale.Product{
	{ID: "banana-prata", Name: "Banana prata", Price: decimal.RequireFromString("6.99"), PricingMode: enum.PricingByWeight, ImageRef: "🍌"},
	{ID: "maca-gala", Name: "Maçã gala", Price: decimal.RequireFromString("9.90"), PricingMode: enum.PricingByWeight, ImageRef: "🍎"},
	{ID: "laranja-pera", Name: "Laranja pera", Price: decimal.RequireFromString("4.49"), PricingMode: enum.PricingByWeight, ImageRef: "🍊"},
	{ID: "uva-thompson", Name: "Uva thompson", Price: decimal.RequireFromString("14.90"), PricingMode: enum.PricingByWeight, ImageRef: "🍇"},
	{ID: "abacaxi", Name: "Abacaxi pérola", Price: decimal.RequireFromString("7.50"), PricingMode: enum.PricingByUnit, ImageRef: "🍍"},
	{ID: "melancia", Name: "Melancia", Price: decimal.RequireFromString("18.00"), PricingMode: enum.PricingByUnit, ImageRef: "🍉"},
	{ID: "coco-verde", Name: "Coco verde", Price: decimal.RequireFromString("5.00"), PricingMode: enum.PricingByUnit, ImageRef: "🥥"},
}

func main() {
	// CLI flags
	email := flag.String("email", "", "Operator email address")
	password := flag.String("password", "", "Operator password")
	name := flag.String("name", "", "Operator full name")
	role := flag.String("role", enum.UserRoleAdmin, "Operator role (admin or usuario)")
	flag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	log := logger.Sugar()

	// Fall back to environment variables, then defaults
	*email = firstNonEmpty(*email, os.Getenv("SEED_EMAIL"), "admin@fruteira.local")
	*name = firstNonEmpty(*name, os.Getenv("SEED_NAME"), "Administrador")
	*password = firstNonEmpty(*password, os.Getenv("SEED_PASSWORD"))
	if *password == "" {
		*password = "password123"
		log.Warn("using default password 'password123'; change it before going live")
	}
	if *role != enum.UserRoleAdmin && *role != enum.UserRoleOperator {
		log.Fatalf("unknown role %q", *role)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("unable to connect to database: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("unable to ping database: %v", err)
	}
	if err := store.Migrate(ctx, pool); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	log.Info("connected to database")

	// Seed in a transaction (catalog and operator or neither)
	tx, err := pool.Begin(ctx)
	if err != nil {
		log.Fatalf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback(ctx)

	q := store.New(tx)
	for _, p := range fruits {
		if err := store.SeedProduct(ctx, q, p); err != nil {
			log.Fatalf("seed product: %v", err)
		}
	}

	operatorID, err := seedOperator(ctx, q, *email, *password, *name, *role)
	if err != nil {
		log.Fatalf("seed operator: %v", err)
	}

	if err := tx.Commit(ctx); err != nil {
		log.Fatalf("failed to commit: %v", err)
	}

	// Without TERMINAL_ID the token is valid on any terminal.
	terminalID := uuid.Nil
	if os.Getenv("TERMINAL_ID") != "" {
		terminalID = cfg.TerminalID
	}
	token, err := auth.GenerateToken(cfg.JWTSecret, operatorID, *name, *role, terminalID, auth.DefaultTTL)
	if err != nil {
		log.Fatalf("generate token: %v", err)
	}

	log.Infow("seed completed",
		"products", len(fruits),
		"operator_id", operatorID,
		"terminal_id", terminalID,
	)
	fmt.Println(token)
}

// seedOperator creates the operator or refreshes its password and role.
func seedOperator(ctx context.Context, q *store.Queries, email, password, fullName, role string) (uuid.UUID, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return uuid.Nil, fmt.Errorf("hash password: %w", err)
	}

	return q.UpsertOperator(ctx, store.UpsertOperatorParams{
		Email:          email,
		FullName:       fullName,
		HashedPassword: string(hashed),
		Role:           role,
	})
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
