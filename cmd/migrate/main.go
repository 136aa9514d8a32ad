package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"

	"github.com/mes/backend/internal/infrastructure/config"
	"github.com/mes/backend/internal/infrastructure/logger"

	"go.uber.org/zap"
)

func main() {
	var (
		configPath = flag.String("config", "", "config directory")
		source     = flag.String("source", "file://migrations", "migration source")
		direction  = flag.String("direction", "up", "up, down or version")
		steps      = flag.Int("steps", 0, "number of steps (0 = all)")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	log, err := logger.New(cfg.Logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	m, err := migrate.New(*source, cfg.Database.DSN)
	if err != nil {
		log.Fatal("create migrator", zap.Error(err))
	}
	defer m.Close()

	switch *direction {
	case "up":
		if *steps > 0 {
			err = m.Steps(*steps)
		} else {
			err = m.Up()
		}
	case "down":
		if *steps > 0 {
			err = m.Steps(-*steps)
		} else {
			err = m.Down()
		}
	case "version":
		version, dirty, verr := m.Version()
		if verr != nil {
			log.Fatal("read version", zap.Error(verr))
		}
		log.Info("migration version", zap.Uint("version", version), zap.Bool("dirty", dirty))
		return
	default:
		log.Fatal("unknown direction", zap.String("direction", *direction))
	}

	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		log.Fatal("migration failed", zap.Error(err))
	}
	log.Info("migrations applied", zap.String("direction", *direction))
}
