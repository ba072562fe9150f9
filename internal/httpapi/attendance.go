package httpapi

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"acadex/internal/auth"
	"acadex/internal/geo"
	"acadex/internal/verify"
)

// markAttendance is the scan endpoint. The student identity comes from the
// token, never from the body; all checks run server-side in the gate.
func (s *Server) markAttendance(c *gin.Context) {
	var req struct {
		SessionID       string     `json:"sessionId" binding:"required"`
		StudentLocation *geo.Point `json:"studentLocation"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	claims := auth.FromContext(c)
	rec, err := s.gate.VerifyAndRecord(c.Request.Context(), req.SessionID, claims.Subject, req.StudentLocation)
	if err != nil {
		switch {
		case errors.Is(err, verify.ErrSessionNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, verify.ErrSessionInactive):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, verify.ErrLocationRejected):
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		case errors.Is(err, verify.ErrProfileNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "attendance failed"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"record": rec})
}

func (s *Server) listAttendance(c *gin.Context) {
	id := c.Param("id")
	claims := auth.FromContext(c)

	sess, err := s.sessions.GetByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "session lookup failed"})
		return
	}
	if sess == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	if sess.TeacherID != claims.Subject {
		c.JSON(http.StatusForbidden, gin.H{"error": "not your session"})
		return
	}

	records, err := s.attendance.ListBySession(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": records})
}

func (s *Server) exportAttendance(c *gin.Context) {
	sessionID := c.Query("sessionId")

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", `attachment; filename="attendance.csv"`)
	c.Status(http.StatusOK)
	if err := s.attendance.ExportCSV(c.Request.Context(), c.Writer, sessionID); err != nil {
		// Headers are already out; the truncated download is the signal.
		log.Printf("attendance export failed: %v", err)
	}
}
