package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"acadex/internal/apps"
)

func (s *Server) submitApplication(c *gin.Context) {
	var req struct {
		InstituteName string `json:"instituteName"`
		ContactName   string `json:"contactName"`
		Email         string `json:"email"`
		Phone         string `json:"phone"`
		Message       string `json:"message"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	a, err := s.apps.Submit(c.Request.Context(), apps.SubmitInput{
		InstituteName: req.InstituteName,
		ContactName:   req.ContactName,
		Email:         req.Email,
		Phone:         req.Phone,
		Message:       req.Message,
	})
	if err != nil {
		if errors.Is(err, apps.ErrMissingFields) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "submit failed"})
		return
	}
	c.JSON(http.StatusCreated, a)
}

// applicationStatus is the public check-status lookup, keyed by the email
// used on the application form.
func (s *Server) applicationStatus(c *gin.Context) {
	email := c.Query("email")
	if email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email query parameter required"})
		return
	}

	a, err := s.apps.StatusByEmail(c.Request.Context(), email)
	if err != nil {
		if errors.Is(err, apps.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no application for that email"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": a.Status, "submittedAt": a.SubmittedAt})
}

func (s *Server) listApplications(c *gin.Context) {
	list, err := s.apps.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"applications": list})
}

func (s *Server) approveApplication(c *gin.Context) {
	a, err := s.apps.Approve(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.applicationError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

func (s *Server) denyApplication(c *gin.Context) {
	if err := s.apps.Deny(c.Request.Context(), c.Param("id")); err != nil {
		s.applicationError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": apps.StatusDenied})
}

func (s *Server) resendInvite(c *gin.Context) {
	if err := s.apps.ResendInvite(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, apps.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "invite queued"})
}

func (s *Server) applicationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, apps.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, apps.ErrAlreadyDecided):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "decision failed"})
	}
}
