package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/woodline-crm/woodquota/internal/app"
	"github.com/woodline-crm/woodquota/internal/config"

	log "github.com/sirupsen/logrus"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	migrateOnly := flag.Bool("migrate", false, "run database migrations and exit")
	flag.Parse()

	cfg, errLoad := config.Load(*configPath)
	if errLoad != nil {
		log.WithError(errLoad).Fatal("load config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *migrateOnly {
		if errMigrate := app.Migrate(ctx, cfg); errMigrate != nil {
			log.WithError(errMigrate).Fatal("migrate")
		}
		return
	}

	if errRun := app.RunServer(ctx, cfg); errRun != nil {
		log.WithError(errRun).Error("server stopped")
		os.Exit(1)
	}
}
