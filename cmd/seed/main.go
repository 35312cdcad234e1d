package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/ArthurLoboLobo/projeto-estudos/internal/config"
	"github.com/ArthurLoboLobo/projeto-estudos/internal/repository/postgres"
	postgresStudy "github.com/ArthurLoboLobo/projeto-estudos/internal/repository/postgres/study"
	"github.com/ArthurLoboLobo/projeto-estudos/internal/seed"
)

func main() {
	_ = godotenv.Load()

	dropTables := flag.Bool("drop-tables", false, "Drop all tables before seeding (fresh start)")
	schemaOnly := flag.Bool("schema-only", false, "Only set up schema, don't seed sessions")
	clearData := flag.Bool("clear-data", false, "Delete the user's sessions (keep schema)")
	userID := flag.String("user", os.Getenv("TEST_USER_ID"), "Owner of the seeded sessions (defaults to TEST_USER_ID)")
	flag.Parse()

	cfg := config.Load()

	// SAFETY: Prevent destructive operations in production
	if cfg.Environment == "prod" && (*dropTables || *clearData) {
		log.Fatalf("🚫 BLOCKED: Cannot run destructive operations (--drop-tables or --clear-data) in production environment")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	switch {
	case *clearData:
		log.Printf("🧹 Clearing data only (environment: %s, prefix: %s)", cfg.Environment, cfg.TablePrefix)
	case *schemaOnly:
		log.Printf("🏗️  Setting up schema only (environment: %s, prefix: %s)", cfg.Environment, cfg.TablePrefix)
	default:
		log.Printf("🌱 Seeding database (environment: %s, prefix: %s)", cfg.Environment, cfg.TablePrefix)
	}

	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.SupabaseDBURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	tables := postgres.NewTableNames(cfg.TablePrefix)

	if *dropTables {
		log.Println("🗑️  Dropping all tables...")
		if err := postgres.DropAllTables(ctx, pool, tables); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
		log.Println("✅ Tables dropped")
	}

	log.Println("📋 Ensuring database schema is up to date...")
	if err := postgres.EnsureSchema(ctx, pool, tables, cfg.TablePrefix, logger); err != nil {
		log.Fatalf("Failed to run schema: %v", err)
	}
	log.Println("✅ Schema ready")

	if *schemaOnly {
		log.Println("✅ Schema setup complete (schema-only mode)")
		return
	}

	if *userID == "" {
		log.Fatalf("A user is required: pass --user or set TEST_USER_ID")
	}

	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}
	seeder := seed.NewStudySeeder(postgresStudy.NewSessionRepository(repoConfig), logger)

	log.Println("🧹 Clearing existing sessions...")
	n, err := seeder.ClearSessions(ctx, *userID)
	if err != nil {
		log.Fatalf("Failed to clear data: %v", err)
	}
	log.Printf("✅ Removed %d sessions", n)

	if *clearData {
		return
	}

	log.Println("📝 Seeding sessions...")
	sessions, err := seeder.SeedSessions(ctx, *userID)
	if err != nil {
		log.Fatalf("Failed to seed sessions: %v", err)
	}
	for i, s := range sessions {
		log.Printf("✅ Created session %d/%d: %s (ID: %s, Status: %s)", i+1, len(sessions), s.Title, s.ID, s.Status)
	}

	log.Println("🎉 Seeding complete!")
}
