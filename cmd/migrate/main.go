package main

import (
	"flag"

	"go-pos-backoffice/internal/config"
	"go-pos-backoffice/migrations"
	"go-pos-backoffice/pkg/database"
	"go-pos-backoffice/pkg/logger"
)

func main() {
	down := flag.Bool("down", false, "roll migrations back instead of applying them")
	steps := flag.Int("steps", 0, "number of migrations to apply (0 = all)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format)

	if err := database.Migrate(migrations.Files, cfg.Database.MigrateURL(), *down, *steps, log); err != nil {
		log.WithError(err).Fatal("Migration failed")
	}
}
