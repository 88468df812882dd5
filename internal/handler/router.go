package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/fleet-compliance-api/internal/middleware"
	"github.com/noah-isme/fleet-compliance-api/internal/models"
)

// Handlers groups every API handler mounted by RegisterRoutes.
type Handlers struct {
	Companies     *CompanyHandler
	Drivers       *DriverHandler
	Vehicles      *VehicleHandler
	Inspections   *InspectionHandler
	Inspectors    *InspectorHandler
	DVIRs         *DVIRHandler
	Trips         *TripHandler
	Users         *UserHandler
	Compliance    *ComplianceHandler
	Reports       *ReportHandler
	Notifications *NotificationHandler
}

// RouteDeps carries the cross-cutting pieces routes are wrapped with.
type RouteDeps struct {
	Auth    middleware.TokenValidator
	Audit   middleware.AuditRecorder
	Limiter *middleware.RateLimiter
	Logger  *zap.Logger
}

var (
	superAdmin = middleware.RequireRoles(models.RoleSuperAdmin)
	admins     = middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin)
	managers   = middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin, models.RoleManager)
	inspectors = middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin, models.RoleManager, models.RoleInspector)
	dispatch   = middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin, models.RoleManager, models.RoleDriver)
)

// RegisterRoutes mounts the API on group. The export download sits outside the JWT guard
// because its signed token is the credential.
func RegisterRoutes(group *gin.RouterGroup, h Handlers, deps RouteDeps) {
	group.Use(middleware.RateLimit(deps.Limiter))
	group.GET("/export/:token", h.Reports.Download)

	api := group.Group("")
	api.Use(middleware.JWT(deps.Auth))

	audit := func(action, resource string) gin.HandlerFunc {
		if deps.Audit == nil {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.Audit(deps.Audit, deps.Logger, action, resource)
	}

	companies := api.Group("/companies")
	companies.GET("", h.Companies.List)
	companies.GET("/:id", h.Companies.Get)
	companies.POST("", superAdmin, audit(models.AuditActionCreate, "company"), h.Companies.Create)
	companies.PUT("/:id", admins, audit(models.AuditActionUpdate, "company"), h.Companies.Update)
	companies.DELETE("/:id", superAdmin, audit(models.AuditActionDelete, "company"), h.Companies.Delete)

	drivers := api.Group("/drivers")
	drivers.GET("", h.Drivers.List)
	drivers.GET("/:id", h.Drivers.Get)
	drivers.POST("", managers, audit(models.AuditActionCreate, "driver"), h.Drivers.Create)
	drivers.PUT("/:id", managers, audit(models.AuditActionUpdate, "driver"), h.Drivers.Update)
	drivers.DELETE("/:id", managers, audit(models.AuditActionDelete, "driver"), h.Drivers.Delete)

	vehicles := api.Group("/vehicles")
	vehicles.GET("", h.Vehicles.List)
	vehicles.GET("/:id", h.Vehicles.Get)
	vehicles.POST("", managers, audit(models.AuditActionCreate, "vehicle"), h.Vehicles.Create)
	vehicles.PUT("/:id", managers, audit(models.AuditActionUpdate, "vehicle"), h.Vehicles.Update)
	vehicles.DELETE("/:id", managers, audit(models.AuditActionDelete, "vehicle"), h.Vehicles.Delete)

	inspections := api.Group("/inspections")
	inspections.GET("", h.Inspections.List)
	inspections.GET("/:id", h.Inspections.Get)
	inspections.POST("", inspectors, audit(models.AuditActionCreate, "inspection"), h.Inspections.Create)
	inspections.PUT("/:id", inspectors, audit(models.AuditActionUpdate, "inspection"), h.Inspections.Update)
	inspections.DELETE("/:id", managers, audit(models.AuditActionDelete, "inspection"), h.Inspections.Delete)

	qualified := api.Group("/inspectors")
	qualified.GET("", h.Inspectors.List)
	qualified.GET("/:id", h.Inspectors.Get)
	qualified.POST("", managers, audit(models.AuditActionCreate, "inspector"), h.Inspectors.Create)
	qualified.PUT("/:id", managers, audit(models.AuditActionUpdate, "inspector"), h.Inspectors.Update)
	qualified.DELETE("/:id", managers, audit(models.AuditActionDelete, "inspector"), h.Inspectors.Delete)

	dvirs := api.Group("/dvirs")
	dvirs.GET("", h.DVIRs.List)
	dvirs.GET("/:id", h.DVIRs.Get)
	dvirs.POST("", audit(models.AuditActionCreate, "dvir"), h.DVIRs.Create)
	dvirs.POST("/:id/review", inspectors, audit(models.AuditActionReview, "dvir"), h.DVIRs.Review)

	trips := api.Group("/trips")
	trips.GET("", h.Trips.List)
	trips.GET("/:id", h.Trips.Get)
	trips.GET("/:id/eligibility", h.Trips.Eligibility)
	trips.POST("", managers, audit(models.AuditActionCreate, "trip"), h.Trips.Create)
	trips.POST("/:id/start", dispatch, audit(models.AuditActionStart, "trip"), h.Trips.Start)
	trips.POST("/:id/complete", dispatch, audit(models.AuditActionComplete, "trip"), h.Trips.Complete)
	trips.POST("/:id/cancel", managers, audit(models.AuditActionCancel, "trip"), h.Trips.Cancel)

	users := api.Group("/users", admins)
	users.GET("", h.Users.List)
	users.GET("/:id", h.Users.Get)
	users.POST("", h.Users.Create)
	users.PUT("/:id", h.Users.Update)
	users.DELETE("/:id", h.Users.Delete)

	compliance := api.Group("/compliance")
	compliance.GET("/summary", h.Compliance.Summary)
	compliance.GET("/drivers", h.Compliance.Drivers)
	compliance.GET("/vehicles", h.Compliance.Vehicles)
	compliance.GET("/inspectors", h.Compliance.Inspectors)
	compliance.GET("/alerts", h.Compliance.Alerts)

	reports := api.Group("/reports", managers)
	reports.POST("", h.Reports.Create)
	reports.GET("/:id", h.Reports.Status)

	notifications := api.Group("/notifications")
	notifications.GET("", h.Notifications.List)
	notifications.POST("/:id/read", h.Notifications.MarkRead)
}
