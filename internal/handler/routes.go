package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/hosteldesk/facility-api/internal/middleware"
	"github.com/hosteldesk/facility-api/internal/models"
)

// Handlers bundles every HTTP handler for route registration.
type Handlers struct {
	Auth        *AuthHandler
	Complaint   *ComplaintHandler
	Warden      *WardenHandler
	Cleaner     *CleanerHandler
	Electrician *ElectricianHandler
	Admin       *AdminHandler
	Dashboard   *DashboardHandler
	Metrics     *MetricsHandler
}

// RegisterRoutes mounts the API surface under the provided group. The auth
// middleware is injected so tests can substitute a claim-seeding stub.
func RegisterRoutes(api *gin.RouterGroup, h Handlers, auth gin.HandlerFunc) {
	authGroup := api.Group("/auth")
	authGroup.POST("/register", h.Auth.Register)
	authGroup.POST("/login", h.Auth.Login)
	authGroup.POST("/refresh", h.Auth.Refresh)
	authGroup.POST("/logout", auth, h.Auth.Logout)
	authGroup.POST("/change-password", auth, h.Auth.ChangePassword)
	authGroup.GET("/me", auth, h.Auth.Me)

	complaints := api.Group("/complaints", auth, middleware.RequireRoles(models.RoleStudent))
	complaints.POST("", h.Complaint.File)
	complaints.GET("/my-complaints", h.Complaint.MyComplaints)

	warden := api.Group("/warden", auth, middleware.RequireRoles(models.RoleWarden))
	warden.GET("/complaints", h.Warden.ListComplaints)
	warden.POST("/tickets", h.Warden.CreateTicket)
	warden.POST("/complaints/:id/approve-cleaning", h.Warden.ApproveCleaning)
	warden.POST("/complaints/:id/reject", h.Warden.RejectComplaint)
	warden.GET("/cleaners", h.Warden.ListCleaners)

	cleaner := api.Group("/cleaner", auth, middleware.RequireRoles(models.RoleCleaner))
	cleaner.GET("/tasks", h.Cleaner.Tasks)
	cleaner.POST("/tasks/:id/complete", h.Cleaner.CompleteTask)

	electrician := api.Group("/electrician", auth, middleware.RequireRoles(models.RoleElectrician))
	electrician.GET("/tickets", h.Electrician.Tickets)
	electrician.PATCH("/tickets/:id/resolve", h.Electrician.ResolveTicket)

	admin := api.Group("/admin", auth, middleware.RequireRoles(models.RoleAdmin))
	admin.POST("/users", h.Admin.CreateUser)
	admin.GET("/users/all", h.Admin.ListAllUsers)
	admin.GET("/complaints/all", h.Admin.ListComplaintsWithTickets)
	admin.GET("/complaints/export", h.Admin.ExportComplaints)
	admin.GET("/perf", h.Admin.Performance)

	// Wardens may query role rosters (cleaner/electrician assignment pickers).
	api.GET("/admin/users", auth, middleware.RequireRoles(models.RoleAdmin, models.RoleWarden), h.Admin.ListUsersByRole)

	dashboard := api.Group("/dashboard", auth, middleware.RequireRoles(models.RoleAdmin, models.RoleWarden))
	dashboard.GET("/stats", h.Dashboard.Stats)
}
