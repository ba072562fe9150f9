package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"acadex/internal/apps"
	"acadex/internal/attendance"
	"acadex/internal/config"
	"acadex/internal/geo"
	"acadex/internal/httpapi"
	"acadex/internal/httpmiddleware"
	"acadex/internal/queue"
	"acadex/internal/session"
	"acadex/internal/store"
	"acadex/internal/tasks"
	"acadex/internal/users"
	"acadex/internal/verify"
	"acadex/internal/watch"
)

func main() {
	cfg := config.Load()

	if cfg.Env == "production" || cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg); err != nil {
		log.Fatalf("http server failed: %v", err)
	}
}

func runHTTP(cfg config.App) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Printf("warning: db not reachable: %v", err)
	}
	defer func() {
		if db != nil {
			_ = db.Close()
		}
	}()

	redisClient := store.NewRedis(cfg.RedisAddr)

	hub := watch.NewHub(redisClient.Client)
	go func() {
		if err := hub.Run(ctx); err != nil && ctx.Err() == nil {
			log.Printf("watch hub stopped: %v", err)
		}
	}()

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "acadex:queue")
	}

	userRepo := users.NewRepository(db.Client)
	userSvc := users.NewService(userRepo, q)

	sessionRepo := session.NewRepository(db.Client)
	sessionSvc := session.NewService(sessionRepo, hub)

	attendanceRepo := attendance.NewRepository(db.Client)
	attendanceSvc := attendance.NewService(attendanceRepo, hub)

	policy := geo.Policy{
		Enabled:      cfg.GeoEnabled,
		Center:       geo.Point{Lat: cfg.GeoLat, Lng: cfg.GeoLng},
		RadiusMeters: cfg.GeoRadiusMeters,
	}
	gate := verify.NewGate(sessionRepo, userRepo, attendanceRepo, policy, hub, q)

	appRepo := apps.NewRepository(db.Client)
	appSvc := apps.NewService(appRepo, userSvc, hub)

	taskRepo := tasks.NewRepository(db.Client)
	taskSvc := tasks.NewService(taskRepo)

	if err := userSvc.EnsureSuperAdmin(ctx, cfg.SuperAdminEmail, cfg.SuperAdminPassword); err != nil {
		log.Printf("warning: super-admin seed failed: %v", err)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(corsMiddleware())
	r.Use(securityHeaders())
	r.Use(httpmiddleware.NewTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin).GinMiddleware())

	api := httpapi.New(cfg, userSvc, sessionSvc, attendanceSvc, gate, appSvc, taskSvc, db, redisClient)
	api.Routes(r)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting server on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")
	cancel()

	// Give outstanding requests 10 seconds to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced shutdown: %v", err)
	}

	log.Println("Server exited")
	return nil
}

// CORS middleware for browser requests
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}

		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// Security headers middleware
func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-XSS-Protection", "1; mode=block")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		// Only add HSTS in production
		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}
