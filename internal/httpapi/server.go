// Package httpapi wires the domain services to gin routes.
package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"acadex/internal/apps"
	"acadex/internal/attendance"
	"acadex/internal/auth"
	"acadex/internal/config"
	"acadex/internal/session"
	"acadex/internal/store"
	"acadex/internal/tasks"
	"acadex/internal/users"
	"acadex/internal/verify"
)

// Server holds handler dependencies.
type Server struct {
	cfg        config.App
	users      *users.Service
	sessions   *session.Service
	attendance *attendance.Service
	gate       *verify.Gate
	apps       *apps.Service
	tasks      *tasks.Service
	db         *store.DB
	redis      *store.Redis
}

// New creates a server.
func New(cfg config.App, us *users.Service, ss *session.Service, as *attendance.Service,
	gate *verify.Gate, ap *apps.Service, ts *tasks.Service, db *store.DB, rdb *store.Redis) *Server {
	return &Server{
		cfg:        cfg,
		users:      us,
		sessions:   ss,
		attendance: as,
		gate:       gate,
		apps:       ap,
		tasks:      ts,
		db:         db,
		redis:      rdb,
	}
}

const (
	roleStudent    = string(users.RoleStudent)
	roleTeacher    = string(users.RoleTeacher)
	roleInstAdmin  = string(users.RoleInstituteAdmin)
	roleSuperAdmin = string(users.RoleSuperAdmin)
)

// Routes registers every endpoint on the engine.
func (s *Server) Routes(r *gin.Engine) {
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/healthz", s.healthz)

	// Public surface.
	r.POST("/v1/auth/signup", s.signup)
	r.POST("/v1/auth/login", s.login)
	r.POST("/v1/auth/refresh", s.refresh)
	r.POST("/v1/applications", s.submitApplication)
	r.GET("/v1/applications/status", s.applicationStatus)

	bearer := auth.Bearer(s.cfg.JWTSigningKey, s.cfg.JWTIssuer)

	// Legacy paths kept verbatim from the original backend contract.
	r.POST("/createUser", bearer, auth.RequireRole(roleInstAdmin, roleSuperAdmin), s.createUser)
	r.POST("/markAttendance", bearer, auth.RequireRole(roleStudent), s.markAttendance)

	super := r.Group("/v1", bearer, auth.RequireRole(roleSuperAdmin))
	super.GET("/applications", s.listApplications)
	super.POST("/applications/:id/approve", s.approveApplication)
	super.POST("/applications/:id/deny", s.denyApplication)
	super.POST("/applications/:id/invite", s.resendInvite)

	teacher := r.Group("/v1", bearer, auth.RequireRole(roleTeacher))
	teacher.POST("/sessions", s.startSession)
	teacher.POST("/sessions/:id/end", s.endSession)
	teacher.GET("/sessions/active", s.activeSession)
	teacher.GET("/sessions/:id/qr", s.sessionQR)
	teacher.GET("/sessions/:id/attendance", s.listAttendance)
	teacher.GET("/attendance/export", s.exportAttendance)
	teacher.POST("/tasks", s.createTask)
	teacher.GET("/tasks/mine", s.myTasks)
	teacher.DELETE("/tasks/:id", s.deleteTask)

	student := r.Group("/v1", bearer, auth.RequireRole(roleStudent))
	student.GET("/sessions/discover", s.discoverSession)
	student.POST("/tasks/:id/complete", s.completeTask)
	student.GET("/tasks/completed", s.completedTasks)

	admin := r.Group("/v1", bearer, auth.RequireRole(roleInstAdmin, roleSuperAdmin))
	admin.GET("/users", s.listUsers)

	authed := r.Group("/v1", bearer)
	authed.GET("/tasks", s.listTasks)

	// WebSocket snapshot streams authenticate inside the handler so browser
	// clients can pass the token as a query parameter.
	r.GET("/v1/sessions/discover/watch", s.watchDiscovery)
	r.GET("/v1/sessions/:id/attendance/watch", s.watchAttendance)
	r.GET("/v1/applications/watch", s.watchApplications)
}

func (s *Server) healthz(c *gin.Context) {
	redisHealthy := s.redis.Healthy(c.Request.Context())
	dbHealthy := s.db != nil && s.db.Client != nil && s.db.Client.PingContext(c.Request.Context()) == nil
	status := http.StatusOK
	if !redisHealthy || !dbHealthy {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"status": "ok", "redis": redisHealthy, "db": dbHealthy})
}
