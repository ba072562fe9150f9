package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"acadex/internal/auth"
	"acadex/internal/qr"
	"acadex/internal/session"
)

func (s *Server) startSession(c *gin.Context) {
	var req struct {
		Subject string `json:"subject"`
	}
	// Body is optional; subject defaults server-side.
	_ = c.ShouldBindJSON(&req)

	claims := auth.FromContext(c)
	teacherName := ""
	if u, err := s.users.GetByUID(c.Request.Context(), claims.Subject); err == nil && u != nil {
		teacherName = u.FirstName + " " + u.LastName
	}

	sess, err := s.sessions.Start(c.Request.Context(), session.StartInput{
		TeacherID:   claims.Subject,
		InstituteID: claims.InstituteID,
		TeacherName: teacherName,
		Subject:     req.Subject,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "session start failed"})
		return
	}
	c.JSON(http.StatusCreated, sess)
}

// endSession deactivates the teacher's session. Ending a session that is
// already over returns 200 as well.
func (s *Server) endSession(c *gin.Context) {
	id := c.Param("id")
	claims := auth.FromContext(c)

	sess, err := s.sessions.GetByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "session lookup failed"})
		return
	}
	if sess != nil && sess.TeacherID != claims.Subject {
		c.JSON(http.StatusForbidden, gin.H{"error": "not your session"})
		return
	}

	if err := s.sessions.End(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "session end failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ended"})
}

func (s *Server) activeSession(c *gin.Context) {
	claims := auth.FromContext(c)
	sess, err := s.sessions.ActiveForTeacher(c.Request.Context(), claims.Subject)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": sess})
}

func (s *Server) sessionQR(c *gin.Context) {
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

	png, err := qr.EncodePNG(sess.ID, 0)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "qr render failed"})
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

// discoverSession is the student's view: the one active session in their
// institute, or null when class is not in session.
func (s *Server) discoverSession(c *gin.Context) {
	claims := auth.FromContext(c)
	sess, err := s.sessions.ActiveForInstitute(c.Request.Context(), claims.InstituteID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": sess})
}
