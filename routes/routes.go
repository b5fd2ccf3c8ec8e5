package routes

import (
	"net/http"

	"labdesk/app"
	"labdesk/controllers"
	"labdesk/models"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func RegisterRoutes(r *gin.Engine, a *app.App) {
	s := controllers.GetSrv(a)

	// shared middleware
	authMW := app.AuthRequired(a.Tokens, a.Repo)
	seenMW := app.TouchLastSeen(a.Repo, a.RDB, a.Config.SeenThrottle)
	staffMW := app.RequireRole(models.RoleAdmin, models.RoleTeacher)
	adminMW := app.RequireRole(models.RoleAdmin)

	r.GET("/healthz", func(c *app.Ctx) { c.JSON(http.StatusOK, app.H{"ok": true}) })
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(a.Registry, promhttp.HandlerOpts{})))

	// ------------------------------
	// Auth
	// ------------------------------
	r.POST("/api/auth/login", s.Login)
	auth := r.Group("/api/auth", authMW, seenMW)
	{
		auth.POST("/logout", s.Logout)
		auth.GET("/me", s.Me)
	}

	api := r.Group("/api", authMW, seenMW)

	// ------------------------------
	// Borrow / return
	// ------------------------------
	borrow := api.Group("/borrow")
	{
		borrow.GET("", s.ListBorrowRequests) // ?status=&userId=&equipmentId=
		borrow.GET("/:id", s.GetBorrowRequest)
		borrow.POST("", s.SubmitBorrowRequest)
		borrow.PATCH("/:id/status", staffMW, s.DecideBorrowRequest)
		borrow.PATCH("/:id/return", staffMW, s.ReturnBorrowedEquipment)
	}

	// ------------------------------
	// Room schedules
	// ------------------------------
	schedules := api.Group("/schedules")
	{
		schedules.GET("", s.ListSchedules) // ?date=&room=&status=
		schedules.GET("/:id", s.GetSchedule)
		schedules.POST("", staffMW, s.CreateSchedule)
		schedules.PATCH("/:id/status", staffMW, s.SetScheduleStatus)
		schedules.DELETE("/:id", staffMW, s.DeleteSchedule)
	}

	// ------------------------------
	// Equipment
	// ------------------------------
	equipment := api.Group("/equipment")
	{
		equipment.GET("", s.ListEquipment) // ?status=&type=&search=
		equipment.GET("/stats", s.EquipmentStats)
		equipment.GET("/:id", s.GetEquipment)
		equipment.POST("", staffMW, s.CreateEquipment)
		equipment.PUT("/:id", staffMW, s.UpdateEquipment)
		equipment.DELETE("/:id", adminMW, s.DeleteEquipment)
	}

	// ------------------------------
	// Users (admin only)
	// ------------------------------
	users := api.Group("/users", adminMW)
	{
		users.GET("", s.ListUsers) // ?role=&status=&search=&page=&size=
		users.POST("", s.CreateUser)
		users.PATCH("/:id/status", s.SetUserStatus)
		users.DELETE("/:id", s.DeleteUser)
	}

	// ------------------------------
	// Dashboard
	// ------------------------------
	api.GET("/dashboard/stats", s.DashboardStats)
	api.GET("/activity", staffMW, s.ListActivity)
}
