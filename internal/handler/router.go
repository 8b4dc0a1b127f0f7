package handler

import "github.com/gin-gonic/gin"

// Handlers groups the API handlers mounted under the API prefix.
type Handlers struct {
	Admin      *AdminHandler
	Events     *EventHandler
	Rules      *RuleHandler
	Compliance *ComplianceHandler
	Collector  *CollectorHandler
	Metrics    *MetricsHandler
}

// RegisterRoutes mounts the API. Mutating routes sit behind adminGate.
func RegisterRoutes(api *gin.RouterGroup, h Handlers, adminGate gin.HandlerFunc) {
	api.POST("/admin/unlock", h.Admin.Unlock)

	api.GET("/gyms", h.Compliance.Gyms)
	api.GET("/validation", h.Compliance.Validation)
	api.GET("/compliance", h.Compliance.Overview)
	api.GET("/compliance/export", h.Compliance.Export)
	api.GET("/compliance/:gymId", h.Compliance.Gym)
	api.GET("/requirements", h.Compliance.Requirements)

	api.GET("/events", h.Events.List)
	api.GET("/events/:id", h.Events.Get)
	api.GET("/events/:id/audit", h.Events.EventAudit)
	api.GET("/audit", h.Events.RecentAudit)

	api.GET("/rules", h.Rules.List)

	api.GET("/collector/runs", h.Collector.List)
	api.GET("/collector/runs/:id", h.Collector.Get)

	api.GET("/system/metrics", h.Metrics.System)

	admin := api.Group("")
	admin.Use(adminGate)
	admin.POST("/events", h.Events.Create)
	admin.POST("/events/import", h.Events.Import)
	admin.PUT("/events/:id", h.Events.Update)
	admin.DELETE("/events/:id", h.Events.Delete)

	admin.POST("/rules", h.Rules.Create)
	admin.PUT("/rules/:id", h.Rules.Update)
	admin.DELETE("/rules/:id", h.Rules.Delete)

	admin.PUT("/requirements/:eventType", h.Compliance.UpsertRequirement)

	admin.POST("/collector/runs", h.Collector.Trigger)
}
