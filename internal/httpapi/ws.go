package httpapi

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"acadex/internal/apps"
	"acadex/internal/attendance"
	"acadex/internal/auth"
	"acadex/internal/session"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// CORS already gates browser access; the token is the real check.
		return true
	},
}

// wsClaims authenticates a watch request. Browsers cannot set headers on a
// WebSocket handshake, so ?token= is accepted alongside the bearer header.
func (s *Server) wsClaims(c *gin.Context) (auth.Claims, bool) {
	tokenStr := c.Query("token")
	if tokenStr == "" {
		authz := c.GetHeader("Authorization")
		if strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			tokenStr = strings.TrimSpace(authz[len("bearer "):])
		}
	}
	if tokenStr == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return auth.Claims{}, false
	}
	claims, err := auth.Parse(tokenStr, s.cfg.JWTSigningKey, s.cfg.JWTIssuer)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return auth.Claims{}, false
	}
	return claims, true
}

// streamSnapshots upgrades the connection and writes every snapshot produced
// by next until the client goes away. A read pump watches for the close
// frame; cancel tears down the producer.
func streamSnapshots[T any](c *gin.Context, ch <-chan T, cancel func(), wrap func(T) any) {
	defer cancel()

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for snap := range ch {
		if err := conn.WriteJSON(wrap(snap)); err != nil {
			return
		}
	}
}

// watchDiscovery streams the student's active-session view: the current
// session (or null) now, then again after every change in the tenant.
func (s *Server) watchDiscovery(c *gin.Context) {
	claims, ok := s.wsClaims(c)
	if !ok {
		return
	}
	if claims.Role != roleStudent {
		c.JSON(http.StatusForbidden, gin.H{"error": "insufficient role"})
		return
	}

	ch, cancel := s.sessions.WatchActiveForInstitute(c.Request.Context(), claims.InstituteID)
	streamSnapshots(c, ch, cancel, func(snap *session.Session) any {
		return gin.H{"session": snap}
	})
}

// watchAttendance streams the teacher's live list for one session.
func (s *Server) watchAttendance(c *gin.Context) {
	claims, ok := s.wsClaims(c)
	if !ok {
		return
	}
	if claims.Role != roleTeacher {
		c.JSON(http.StatusForbidden, gin.H{"error": "insufficient role"})
		return
	}

	id := c.Param("id")
	sess, err := s.sessions.GetByID(c.Request.Context(), id)
	if err != nil || sess == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	if sess.TeacherID != claims.Subject {
		c.JSON(http.StatusForbidden, gin.H{"error": "not your session"})
		return
	}

	ch, cancel := s.attendance.WatchSession(c.Request.Context(), id)
	streamSnapshots(c, ch, cancel, func(snap []attendance.Record) any {
		return gin.H{"records": snap}
	})
}

// watchApplications streams the super-admin review queue.
func (s *Server) watchApplications(c *gin.Context) {
	claims, ok := s.wsClaims(c)
	if !ok {
		return
	}
	if claims.Role != roleSuperAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "insufficient role"})
		return
	}

	ch, cancel := s.apps.WatchAll(c.Request.Context())
	streamSnapshots(c, ch, cancel, func(snap []apps.Application) any {
		return gin.H{"applications": snap}
	})
}
