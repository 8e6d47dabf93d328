// Package api mounts the HTTP surface: the employee claim flow under /v0
// and the admin surface under /v0/admin.
package api

import (
	"github.com/woodline-crm/woodquota/internal/broadcast"
	"github.com/woodline-crm/woodquota/internal/config"
	"github.com/woodline-crm/woodquota/internal/export"
	"github.com/woodline-crm/woodquota/internal/http/api/handlers"
	"github.com/woodline-crm/woodquota/internal/quota"
	"github.com/woodline-crm/woodquota/internal/report"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// RegisterRoutes wires every route onto r.
func RegisterRoutes(r *gin.Engine, db *gorm.DB, cfg config.Config) {
	if r == nil || db == nil {
		return
	}

	quotaSvc := quota.NewService(db)
	aggregator := report.NewAggregator(db)
	exporter := export.NewExporter(cfg.TZOffsetHours)
	broadcastSvc := broadcast.NewService(db)

	claimHandler := handlers.NewClaimHandler(db, quotaSvc)
	userHandler := handlers.NewUserHandler(db)
	limitHandler := handlers.NewLimitHandler(quotaSvc)
	reportHandler := handlers.NewReportHandler(db, aggregator, exporter)
	announcementHandler := handlers.NewAnnouncementHandler(broadcastSvc)
	settingsHandler := handlers.NewSettingsHandler(db)

	v0 := r.Group("/v0")

	v0.POST("/users", userHandler.Create)
	v0.GET("/users/:id", userHandler.Get)
	v0.GET("/users/:id/status", claimHandler.Status)
	v0.GET("/users/:id/history", claimHandler.History)
	v0.POST("/claims", claimHandler.Take)
	v0.POST("/claims/return", claimHandler.Return)

	admin := v0.Group("/admin")
	admin.Use(adminMiddleware(db, cfg))

	admin.GET("/users", userHandler.List)
	admin.GET("/users/:id", userHandler.Get)
	admin.PATCH("/users/:id", userHandler.Update)
	admin.DELETE("/users/:id", userHandler.Delete)

	admin.PUT("/limits/role", limitHandler.SetRoleLimit)
	admin.PUT("/limits/user", limitHandler.SetPersonalLimit)
	admin.DELETE("/limits/user/:id", limitHandler.RemovePersonalLimit)
	admin.POST("/claims/return", limitHandler.Return)

	admin.GET("/months", reportHandler.Months)
	admin.GET("/summary", reportHandler.Summary)
	admin.GET("/returns", reportHandler.Returns)
	admin.GET("/export", reportHandler.Export)

	admin.POST("/announcements", announcementHandler.Create)
	admin.GET("/announcements", announcementHandler.List)
	admin.PUT("/announcements/:id/delivery", announcementHandler.RecordDelivery)

	admin.GET("/settings", settingsHandler.Get)
	admin.PUT("/settings", settingsHandler.Update)
}
