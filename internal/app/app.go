// Package app wires configuration, storage, and the HTTP surface into a
// runnable server.
package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/woodline-crm/woodquota/internal/config"
	"github.com/woodline-crm/woodquota/internal/db"
	"github.com/woodline-crm/woodquota/internal/http/api"
	"github.com/woodline-crm/woodquota/internal/logging"
	"github.com/woodline-crm/woodquota/internal/quota"
	"github.com/woodline-crm/woodquota/internal/settings"
	"github.com/woodline-crm/woodquota/internal/store"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// shutdownTimeout bounds how long in-flight requests may drain.
const shutdownTimeout = 10 * time.Second

// Migrate opens the database and runs migrations.
func Migrate(ctx context.Context, cfg config.Config) error {
	conn, errOpen := db.Open(cfg.Database.DSN)
	if errOpen != nil {
		return errOpen
	}
	return db.Migrate(conn)
}

// RunServer boots the quota server and blocks until ctx is cancelled.
func RunServer(ctx context.Context, cfg config.Config) error {
	logging.Setup(cfg)

	conn, errOpen := db.Open(cfg.Database.DSN)
	if errOpen != nil {
		return errOpen
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		return errMigrate
	}
	if errBoot := bootstrap(ctx, conn); errBoot != nil {
		return errBoot
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "site": settings.SiteName()})
	})
	api.RegisterRoutes(router, conn, cfg)

	server := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithFields(log.Fields{
			"addr":    cfg.Server.Addr,
			"dialect": db.DialectName(conn),
		}).Info("server listening")
		if errServe := server.ListenAndServe(); errServe != nil && !errors.Is(errServe, http.ErrServerClosed) {
			errCh <- errServe
			return
		}
		errCh <- nil
	}()

	select {
	case errServe := <-errCh:
		return errServe
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if errShutdown := server.Shutdown(shutdownCtx); errShutdown != nil {
		return errShutdown
	}
	return <-errCh
}

// bootstrap seeds role defaults and loads the settings snapshot. Both are
// idempotent.
func bootstrap(ctx context.Context, conn *gorm.DB) error {
	overrides := store.NewOverrideStore(conn)
	if errSeed := overrides.SeedDefaults(ctx, quota.DefaultLimit); errSeed != nil {
		return errSeed
	}
	return settings.RefreshDBConfigSnapshot(ctx, conn)
}
