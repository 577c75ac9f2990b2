// Command purge-drafts deletes expired drafts from the SQLite key-value table. Expired rows are
// already invisible to readers; this reclaims their space. Run it from cron.
package main

import (
	"context"
	"flag"
	"time"

	"github.com/debemdeboas/homestead/internal/config"
	"github.com/debemdeboas/homestead/internal/db"
	"github.com/debemdeboas/homestead/internal/kv"
	"github.com/debemdeboas/homestead/internal/logger"
)

func main() {
	configPath := flag.String("config", config.DefaultConfigPath, "Path to config.yaml")
	timeout := flag.Duration("timeout", time.Minute, "Maximum time to spend purging")
	flag.Parse()

	l := logger.New("info")
	config.SetLogger(logger.Component(l, "config"))
	db.SetLogger(logger.Component(l, "db"))
	kv.SetLogger(logger.Component(l, "kv"))

	if err := config.LoadConfig(*configPath); err != nil {
		l.Fatal().Err(err).Msg("Failed to load config")
	}
	if backend := config.AppConfig.Storage.Backend; backend != config.StorageSQLite {
		l.Warn().Str("backend", backend).Msg("Drafts are not stored in SQLite, nothing to purge")
		return
	}

	database := db.NewSQLite(config.AppConfig.Storage.SQLitePath)
	if err := database.InitDB(); err != nil {
		l.Fatal().Err(err).Msgf(config.ErrInitializeDatabaseFmt, err)
	}
	defer database.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	n, err := kv.NewSQLiteStore(database).PurgeExpired(ctx)
	if err != nil {
		l.Error().Err(err).Msg("Purge failed")
		return
	}
	l.Info().Int64("purged", n).Msg("Expired drafts purged")
}
