package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-maintenance/internal/auth"
	"github.com/ukydev/fleet-maintenance/internal/config"
	"github.com/ukydev/fleet-maintenance/internal/db"
	"github.com/ukydev/fleet-maintenance/internal/events"
	"github.com/ukydev/fleet-maintenance/internal/handlers"
	"github.com/ukydev/fleet-maintenance/internal/metrics"
	"github.com/ukydev/fleet-maintenance/internal/middleware"
	"github.com/ukydev/fleet-maintenance/internal/models"
	"github.com/ukydev/fleet-maintenance/internal/service"
)

type routes struct {
	auth    *handlers.AuthHandler
	tasks   *handlers.TaskHandler
	fleet   *handlers.FleetHandler
	authMW  *middleware.AuthMiddleware
	limiter *middleware.RateLimitMiddleware
}

// newRouter registers every endpoint and wraps the mux in the shared middleware chain.
func newRouter(rt routes) http.Handler {
	mux := http.NewServeMux()

	protect := func(action string, h http.HandlerFunc) http.Handler {
		return rt.authMW.RequirePermission(action)(h)
	}

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	mux.Handle("GET /metrics", metrics.Handler())

	mux.HandleFunc("POST /api/auth/login", rt.auth.Login)
	mux.HandleFunc("POST /api/auth/register", rt.auth.Register)
	mux.HandleFunc("GET /api/auth/profile", rt.auth.GetProfile)

	mux.Handle("GET /api/vehicles", protect(models.ActionViewVehicles, rt.fleet.ListVehicles))
	mux.Handle("POST /api/vehicles", protect(models.ActionManageVehicles, rt.fleet.CreateVehicle))
	mux.Handle("PUT /api/vehicles/{id}", protect(models.ActionManageVehicles, rt.fleet.UpdateVehicle))

	mux.Handle("GET /api/technicians", protect(models.ActionViewTechnicians, rt.fleet.ListTechnicians))
	mux.Handle("POST /api/technicians", protect(models.ActionManageTechnicians, rt.fleet.CreateTechnician))

	mux.Handle("GET /api/tasks", protect(models.ActionViewTasks, rt.tasks.ListTasks))
	mux.Handle("POST /api/tasks", protect(models.ActionGenerateTasks, rt.tasks.CreateTasks))
	mux.Handle("POST /api/tasks/generate", protect(models.ActionGenerateTasks, rt.tasks.Generate))
	mux.Handle("POST /api/tasks/assign", protect(models.ActionAssignTasks, rt.tasks.AutoAssign))
	mux.Handle("POST /api/tasks/{id}/assign", protect(models.ActionAssignTasks, rt.tasks.AssignTask))
	mux.Handle("POST /api/tasks/{id}/start", protect(models.ActionWorkTasks, rt.tasks.StartTask))
	mux.Handle("POST /api/tasks/{id}/complete", protect(models.ActionWorkTasks, rt.tasks.CompleteTask))

	mux.Handle("GET /api/dashboard", protect(models.ActionViewDashboard, rt.fleet.Dashboard))

	return middleware.RequestLogger(rt.limiter.RateLimit(rt.authMW.Authenticate(mux)))
}

func newPublisher(cfg config.MQTTConfig) events.Publisher {
	if cfg.BrokerURL == "" {
		log.Info("MQTT broker not configured, task events disabled")
		return events.NoopPublisher{}
	}
	publisher, err := events.NewMQTTPublisher(cfg.BrokerURL, cfg.ClientID, cfg.TopicPrefix)
	if err != nil {
		log.WithError(err).Warn("Failed to connect to MQTT broker, task events disabled")
		return events.NoopPublisher{}
	}
	return publisher
}

func main() {
	cfg := config.Load()
	cfg.Log.Configure()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	client, err := db.ConnectMongo(ctx, cfg.Mongo.URI)
	cancel()
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to MongoDB")
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			log.WithError(err).Warn("Failed to disconnect from MongoDB")
		}
	}()
	log.WithField("database", cfg.Mongo.Database).Info("Connected to MongoDB")

	store := db.NewStore(client.Database(cfg.Mongo.Database))
	ctx, cancel = context.WithTimeout(context.Background(), 10*time.Second)
	if err := store.EnsureIndexes(ctx); err != nil {
		log.WithError(err).Warn("Failed to create indexes")
	}
	cancel()

	publisher := newPublisher(cfg.MQTT)
	defer publisher.Close()

	maintenance := service.New(store.Vehicles, store.Technicians, store.Tasks, publisher)
	authService := auth.NewService(cfg.JWT.Secret, cfg.JWT.Expiry)

	router := newRouter(routes{
		auth:    handlers.NewAuthHandler(authService, store.Users, store.Technicians),
		tasks:   handlers.NewTaskHandler(maintenance),
		fleet:   handlers.NewFleetHandler(maintenance),
		authMW:  middleware.NewAuthMiddleware(authService),
		limiter: middleware.NewRateLimitMiddleware(cfg.RateLimit.Requests, cfg.RateLimit.Window()),
	})

	server := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithField("port", cfg.Server.Port).Info("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("HTTP server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info("Shutting down")
	ctx, cancel = context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.WithError(err).Error("Graceful shutdown failed")
	}
}
