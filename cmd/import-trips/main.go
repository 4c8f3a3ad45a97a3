package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/you/bixi-explorer/internal/config"
	"github.com/you/bixi-explorer/internal/logging"
	"github.com/you/bixi-explorer/internal/repository"
	"github.com/you/bixi-explorer/internal/trips"
)

type tripStore interface {
	EnsureSchema(ctx context.Context) error
	ReplaceSource(ctx context.Context, sourceFile string, records []trips.Record) (string, error)
}

func main() {
	_ = godotenv.Load(".env")
	_ = godotenv.Overload(".env.local")

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	target := flag.String("target", config.SourceSQLite, "Store to import into: sqlite or postgres")
	dbPath := flag.String("db", cfg.SQLitePath, "Path to SQLite database")
	databaseURL := flag.String("database-url", cfg.DatabaseURL, "PostgreSQL connection string")
	dataDir := flag.String("data-dir", cfg.DataDir, "Directory containing OD_<year>-<month>.csv files")
	year := flag.Int("year", cfg.DataYear, "Year of the monthly files")
	months := flag.String("months", "", "Months to import, e.g. 4-10 (default from config)")
	flag.Parse()

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	monthList := cfg.DataMonths
	if *months != "" {
		monthList, err = config.ParseMonths(*months)
		if err != nil {
			logger.Fatal("invalid -months", zap.Error(err))
		}
	}

	ctx := context.Background()

	var store tripStore
	switch *target {
	case config.SourceSQLite:
		s, err := repository.OpenSQLite(*dbPath)
		if err != nil {
			logger.Fatal("failed to open database", zap.String("path", *dbPath), zap.Error(err))
		}
		defer s.Close()
		store = s
		logger.Info("connected to database", zap.String("path", *dbPath))
	case config.SourcePostgres:
		if *databaseURL == "" {
			logger.Fatal("-database-url or DATABASE_URL is required for postgres")
		}
		s, err := repository.NewPostgresTripStore(ctx, *databaseURL)
		if err != nil {
			logger.Fatal("failed to connect to postgres", zap.Error(err))
		}
		defer s.Close()
		store = s
		logger.Info("connected to postgres")
	default:
		logger.Fatal("unknown target", zap.String("target", *target))
	}

	if err := store.EnsureSchema(ctx); err != nil {
		logger.Fatal("failed to ensure schema", zap.Error(err))
	}

	imported, failed := 0, 0
	for _, path := range trips.MonthPaths(*dataDir, *year, monthList) {
		name := filepath.Base(path)

		records, err := trips.ParseFile(path)
		if err != nil {
			logger.Error("failed to parse file", zap.String("file", name), zap.Error(err))
			failed++
			continue
		}

		batchID, err := store.ReplaceSource(ctx, name, records)
		if err != nil {
			logger.Error("failed to import file", zap.String("file", name), zap.Error(err))
			failed++
			continue
		}

		logger.Info("imported file",
			zap.String("file", name),
			zap.Int("trips", len(records)),
			zap.String("batch_id", batchID),
		)
		imported += len(records)
	}

	logger.Info("import finished", zap.Int("trips", imported), zap.Int("failed_files", failed))
	if failed > 0 {
		logger.Sync()
		os.Exit(1)
	}
}
