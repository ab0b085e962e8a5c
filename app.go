package main

import (
	"context"

	"github.com/luiz3283/HELP-PRO/configs"
	"github.com/luiz3283/HELP-PRO/controllers"
	"github.com/luiz3283/HELP-PRO/pkg/geocode"
	"github.com/luiz3283/HELP-PRO/pkg/odometer"
	"github.com/luiz3283/HELP-PRO/repository"
	"github.com/luiz3283/HELP-PRO/routes"
	"github.com/luiz3283/HELP-PRO/services"
	"github.com/luiz3283/HELP-PRO/ws"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// app holds the wired services for one process.
type app struct {
	cfg *configs.Config
	log *zap.Logger
	db  *gorm.DB

	hub      *ws.ShiftHub
	shifts   *services.ShiftService
	captures *services.CaptureService
	reports  *services.ReportService
	riders   *services.RiderService
}

func newApp(ctx context.Context, cfg *configs.Config, log *zap.Logger) (*app, error) {
	db, err := configs.OpenDB(cfg.DBSource)
	if err != nil {
		return nil, err
	}
	kv := repository.NewKVRepository(db)
	logs := repository.NewShiftLogRepository(kv)
	riderRepo := repository.NewRiderRepository(kv)
	zone := cfg.Zone()

	hub := ws.NewShiftHub(log.Named("ws"))
	shifts := services.NewShiftService(logs, riderRepo, hub, log.Named("shifts"), zone)
	hint := odometer.New(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, log.Named("odometer"))
	geocoder := geocode.New(cfg.GeocodeURL, cfg.GeocodeUserAgent, cfg.GeocodeTimeout)

	return &app{
		cfg:      cfg,
		log:      log,
		db:       db,
		hub:      hub,
		shifts:   shifts,
		captures: services.NewCaptureService(shifts, geocoder, hint, cfg.GeocodeTimeout, log.Named("capture")),
		reports:  services.NewReportService(logs, riderRepo, zone),
		riders:   services.NewRiderService(riderRepo, cfg.JWTSecret, cfg.JWTTTL),
	}, nil
}

func (a *app) router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(a.log))
	routes.RegisterRoutes(r, routes.Handlers{
		JWTSecret: a.cfg.JWTSecret,
		Auth:      controllers.NewAuthController(a.riders),
		Shifts:    controllers.NewShiftController(a.shifts, a.captures, a.reports),
		Admin:     controllers.NewAdminController(a.shifts, a.reports, a.riders),
		Hub:       a.hub,
	})
	return r
}

func (a *app) close() {
	if sqlDB, err := a.db.DB(); err == nil {
		sqlDB.Close()
	}
}

// requestLogger replaces gin's text logger with zap.
func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		log.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.String("ip", c.ClientIP()))
	}
}
