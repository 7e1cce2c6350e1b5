package api

import (
	"context"
	"fmt"

	"github.com/brpaz/echozap"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/pulseox-org/pulseox/auth"
	"github.com/pulseox-org/pulseox/config"
	"github.com/pulseox-org/pulseox/errors"
	"github.com/pulseox-org/pulseox/logger"
	"github.com/pulseox-org/pulseox/patients"
	"github.com/pulseox-org/pulseox/physicians"
	"github.com/pulseox-org/pulseox/readings"
	"github.com/pulseox-org/pulseox/stats"
	"github.com/pulseox-org/pulseox/store"
)

// PublicRoutes do not require a bearer token. Registration, login and
// password resets have nothing to authenticate against yet, and readings
// are pushed by devices which hold no credentials.
var PublicRoutes = []string{
	"/ready",
	"/v1/patients",
	"/v1/patients/login",
	"/v1/patients/password-reset",
	"/v1/physicians",
	"/v1/physicians/login",
	"/v1/physicians/password-reset",
	"/v1/readings",
}

func NewConfig() (*config.Config, error) {
	cfg := config.New()
	if err := cfg.LoadFromEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Start(e *echo.Echo, cfg *config.Config, logger *zap.SugaredLogger, lifecycle fx.Lifecycle) {
	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := e.Start(fmt.Sprintf(":%d", cfg.HttpPort)); err != nil {
					logger.Infow("http server stopped", "error", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return e.Shutdown(ctx)
		},
	})
}

func SetReady(healthCheck *HealthCheck, db *mongo.Database, lifecycle fx.Lifecycle) {
	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := db.Client().Ping(ctx, nil); err != nil {
				return err
			}

			// It's important this is set after mongo is initialized, which is ensured
			// by taking a dependency on mongo in the constructor, because lifecycle hooks
			// are executed in topological order
			healthCheck.SetReady(true)
			return nil
		},
		OnStop: nil,
	})
}

func NewServer(handler *Handler, healthCheck *HealthCheck, authenticator auth.Authenticator, zapLogger *zap.Logger) (*echo.Echo, error) {
	e := echo.New()
	e.HideBanner = true

	// Skip auth and logging for readiness probe and public routes
	skipper := RouteSkipper(PublicRoutes)
	authMiddleware := auth.NewAuthMiddleware(authenticator, auth.AuthMiddlewareOpts{
		Skipper: skipper,
	})

	e.Use(middleware.Recover())
	e.Use(echozap.ZapLogger(zapLogger))
	e.Use(authMiddleware)

	e.HTTPErrorHandler = errors.CustomHTTPErrorHandler

	e.GET("/ready", healthCheck.Ready)
	RegisterRoutes(e, handler)

	return e, nil
}

func RegisterRoutes(e *echo.Echo, handler *Handler) {
	e.POST("/v1/readings", handler.CreateReadings)

	e.POST("/v1/patients", handler.RegisterPatient)
	e.POST("/v1/patients/login", handler.LoginPatient)
	e.POST("/v1/patients/password-reset", handler.ResetPatientPassword)
	e.GET("/v1/patients/me", handler.GetCurrentPatient)
	e.PUT("/v1/patients/me", handler.UpdateCurrentPatient)
	e.GET("/v1/patients/me/devices", handler.ListPatientDevices)
	e.POST("/v1/patients/me/devices", handler.RegisterPatientDevice)
	e.PUT("/v1/patients/me/devices/:serialNumber", handler.UpdatePatientDeviceSettings)
	e.DELETE("/v1/patients/me/devices/:serialNumber", handler.RemovePatientDevice)
	e.GET("/v1/patients/me/stats/daily", handler.GetCurrentPatientDailyStats)

	e.GET("/v1/physicians", handler.ListPhysicians)
	e.POST("/v1/physicians", handler.RegisterPhysician)
	e.POST("/v1/physicians/login", handler.LoginPhysician)
	e.POST("/v1/physicians/password-reset", handler.ResetPhysicianPassword)
	e.GET("/v1/physicians/me", handler.GetCurrentPhysician)
	e.PUT("/v1/physicians/me", handler.UpdateCurrentPhysician)
	e.GET("/v1/physicians/me/patients", handler.ListPhysicianPatients)
	e.GET("/v1/physicians/me/patients/stats/weekly", handler.GetPhysicianPatientsWeeklyStats)
	e.GET("/v1/physicians/me/patients/stats/weekly.xlsx", handler.DownloadPhysicianPatientsWeeklyReport)
	e.GET("/v1/physicians/me/patients/:email/stats/daily", handler.GetPhysicianPatientDailyStats)
	e.GET("/v1/physicians/me/patients/:email/devices/:serialNumber", handler.GetPhysicianPatientDeviceSettings)
	e.PUT("/v1/physicians/me/patients/:email/devices/:serialNumber", handler.UpdatePhysicianPatientDeviceSettings)
	e.GET("/v1/physicians/me/patients/:email/devices/:serialNumber/readings", handler.ListPhysicianPatientDeviceReadings)
}

// Dependencies is the provider graph shared by the http server and the
// command line tools.
func Dependencies() []fx.Option {
	return []fx.Option{
		fx.Provide(
			logger.NewProductionLogger,
			logger.Sugar,
			NewConfig,
			store.NewConfig,
			store.GetConnectionString,
			store.NewClient,
			store.NewDatabase,
			readings.NewRepository,
			patients.NewRepository,
			patients.NewService,
			physicians.NewRepository,
			physicians.NewService,
			stats.NewService,
			auth.NewConfig,
			auth.NewAuthenticator,
			auth.NewTokenIssuer,
			NewHealthCheck,
			NewHandler,
			NewServer,
		),
	}
}

func MainLoop() {
	opts := append(
		Dependencies(),
		fx.Invoke(SetReady),
		fx.Invoke(Start),
	)
	fx.New(opts...).Run()
}
