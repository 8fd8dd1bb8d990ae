package main

import (
	"bytes"
	"context"
	_ "embed"
	"flag"
	"log"

	"branchvid/internal/config"
	"branchvid/internal/repository/postgres"
	postgresVideo "branchvid/internal/repository/postgres/videotree"
	"branchvid/internal/seed"
	"branchvid/internal/service"
	serviceAuth "branchvid/internal/service/auth"
	serviceVideo "branchvid/internal/service/videotree"

	"github.com/joho/godotenv"
)

//go:embed fixtures.yaml
var defaultFixtures []byte

func main() {
	dropTables := flag.Bool("drop-tables", false, "Drop all tables before seeding (fresh start)")
	schemaOnly := flag.Bool("schema-only", false, "Only set up schema, don't seed trees")
	clearData := flag.Bool("clear-data", false, "Delete all rows (keep schema)")
	fixturesPath := flag.String("fixtures", "", "YAML fixtures file (defaults to the built-in set)")
	flag.Parse()

	_ = godotenv.Load()

	cfg := config.Load()

	// SAFETY: Prevent destructive operations in production
	if cfg.Environment == "prod" && (*dropTables || *clearData) {
		log.Fatalf("BLOCKED: cannot run destructive operations (--drop-tables or --clear-data) in production")
	}

	logger, logCloser := config.NewLogger(cfg)
	defer logCloser.Close()

	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	tables := postgres.NewTableNames(cfg.TablePrefix)

	if *dropTables {
		logger.Info("dropping all tables", "prefix", cfg.TablePrefix)
		if err := postgres.DropSchema(ctx, pool, tables); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
	}

	if err := postgres.EnsureSchema(ctx, pool, tables, cfg.TablePrefix, cfg.SearchLanguage); err != nil {
		log.Fatalf("Failed to run schema: %v", err)
	}
	logger.Info("schema ready", "prefix", cfg.TablePrefix)

	if *schemaOnly {
		return
	}

	if *clearData {
		if err := postgres.ClearData(ctx, pool, tables); err != nil {
			log.Fatalf("Failed to clear data: %v", err)
		}
		logger.Info("data cleared")
		return
	}

	var fixtures *seed.Fixtures
	if *fixturesPath != "" {
		fixtures, err = seed.LoadFile(*fixturesPath)
	} else {
		fixtures, err = seed.Load(bytes.NewReader(defaultFixtures))
	}
	if err != nil {
		log.Fatalf("Failed to load fixtures: %v", err)
	}

	repoConfig := &postgres.RepositoryConfig{
		Pool:           pool,
		Tables:         tables,
		Logger:         logger,
		SearchLanguage: cfg.SearchLanguage,
	}
	treeRepo := postgresVideo.NewTreeRepository(repoConfig)
	nodeRepo := postgresVideo.NewNodeRepository(repoConfig)
	historyRepo := postgresVideo.NewHistoryRepository(repoConfig)
	txManager := postgres.NewTransactionManager(pool, logger)

	authorizer := serviceAuth.NewOwnerBasedAuthorizer(treeRepo, nodeRepo)
	nodeService := serviceVideo.NewNodeService(nodeRepo, authorizer, logger)
	historyService := serviceVideo.NewHistoryService(historyRepo, treeRepo, logger)
	treeService := serviceVideo.NewTreeService(treeRepo, nodeService, historyService, txManager, authorizer, logger)
	userService := service.NewUserService(postgres.NewUserRepository(repoConfig), logger)

	seeder := seed.NewSeeder(treeService, userService, logger)
	if err := seeder.Seed(ctx, fixtures); err != nil {
		log.Fatalf("Failed to seed: %v", err)
	}

	logger.Info("seed complete", "users", len(fixtures.Users), "trees", len(fixtures.Trees))
}
