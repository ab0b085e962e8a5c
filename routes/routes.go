package routes

import (
	"github.com/luiz3283/HELP-PRO/controllers"
	"github.com/luiz3283/HELP-PRO/entity"
	"github.com/luiz3283/HELP-PRO/middlewares"
	"github.com/luiz3283/HELP-PRO/ws"

	"github.com/gin-gonic/gin"
)

type Handlers struct {
	JWTSecret string
	Auth      *controllers.AuthController
	Shifts    *controllers.ShiftController
	Admin     *controllers.AdminController
	Hub       *ws.ShiftHub
}

func RegisterRoutes(r *gin.Engine, h Handlers) {
	r.Use(middlewares.CORSMiddleware())
	r.GET("/health", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })

	motoboy, admin := string(entity.RoleMotoboy), string(entity.RoleAdmin)

	// Auth (public)
	a := r.Group("/auth")
	{
		a.POST("/register", h.Auth.Register)
		a.POST("/login", h.Auth.Login)
	}

	// Rider panel
	rider := r.Group("/rider", middlewares.AuthMiddleware(h.JWTSecret, motoboy, admin))
	{
		rider.GET("/today", h.Shifts.Today)
		rider.POST("/captures", h.Shifts.Capture)
		rider.DELETE("/captures", h.Shifts.Discard)
		rider.POST("/shifts", h.Shifts.Submit)
		rider.GET("/export", h.Shifts.Export) // ?month=
	}

	// Admin panel
	adm := r.Group("/admin", middlewares.AuthMiddleware(h.JWTSecret, admin))
	{
		adm.GET("/dashboard", h.Admin.Dashboard)
		adm.GET("/logs", h.Admin.Logs) // ?date=&month=&riderId=&q=
		adm.DELETE("/logs/:id", h.Admin.DeleteLog)
		adm.GET("/export/xlsx", h.Admin.ExportSpreadsheet)
		adm.GET("/export/photos", h.Admin.ExportPhotos)

		adm.GET("/riders", h.Admin.ListRiders)
		adm.POST("/riders", h.Admin.CreateRider)
		adm.PUT("/riders/:id", h.Admin.UpdateRider)
		adm.DELETE("/riders/:id", h.Admin.DeleteRider)
		adm.GET("/riders/:id/export", h.Admin.RiderExport) // ?month=
	}

	// the websocket handshake carries the token in the query string
	r.GET("/admin/ws", middlewares.WSAuthMiddleware(h.JWTSecret, admin), h.Hub.HandleWebSocket)
}
