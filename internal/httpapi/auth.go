package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"acadex/internal/auth"
	"acadex/internal/users"
)

func (s *Server) issueTokens(c *gin.Context, u users.User) (gin.H, bool) {
	tokens, err := auth.Issue(u.UID, string(u.Role), u.InstituteID, s.cfg.JWTIssuer, s.cfg.JWTSigningKey, s.cfg.AccessTTL, s.cfg.RefreshTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token issue failed"})
		return nil, false
	}
	if err := s.users.SaveRefreshToken(c.Request.Context(), u.UID, tokens.RefreshToken, tokens.RefreshExp); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token issue failed"})
		return nil, false
	}
	return gin.H{
		"user":          u,
		"access_token":  tokens.AccessToken,
		"refresh_token": tokens.RefreshToken,
		"expires_at":    tokens.AccessExp.Unix(),
	}, true
}

func (s *Server) signup(c *gin.Context) {
	var req struct {
		Email         string `json:"email" binding:"required"`
		Password      string `json:"password" binding:"required"`
		Role          string `json:"role" binding:"required"`
		FirstName     string `json:"firstName"`
		LastName      string `json:"lastName"`
		RollNo        string `json:"rollNo"`
		Subject       string `json:"subject"`
		Qualification string `json:"qualification"`
		InstituteName string `json:"instituteName"`
		InstituteID   string `json:"instituteId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	u, err := s.users.Signup(c.Request.Context(), users.SignupInput{
		Email:         req.Email,
		Password:      req.Password,
		Role:          users.ParseRole(req.Role),
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		RollNo:        req.RollNo,
		Subject:       req.Subject,
		Qualification: req.Qualification,
		InstituteName: req.InstituteName,
		InstituteID:   req.InstituteID,
	})
	if err != nil {
		switch {
		case errors.Is(err, users.ErrEmailTaken):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, users.ErrValidation):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "signup failed"})
		}
		return
	}

	body, ok := s.issueTokens(c, u)
	if !ok {
		return
	}
	c.JSON(http.StatusCreated, body)
}

func (s *Server) login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	u, err := s.users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, users.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}

	body, ok := s.issueTokens(c, u)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, body)
}

func (s *Server) refresh(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	claims, err := auth.Parse(req.RefreshToken, s.cfg.JWTSigningKey, s.cfg.JWTIssuer)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}
	ok, err := s.users.RotateRefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "refresh failed"})
		return
	}
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "token expired or already used"})
		return
	}

	u, err := s.users.GetByUID(c.Request.Context(), claims.Subject)
	if err != nil || u == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	body, ok := s.issueTokens(c, *u)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, body)
}

// createUser is the privileged provisioning endpoint: an admin creating an
// account on someone's behalf. Institute admins always provision into their
// own tenant; super admins pick one.
func (s *Server) createUser(c *gin.Context) {
	var req struct {
		Email         string `json:"email" binding:"required"`
		Password      string `json:"password" binding:"required"`
		FirstName     string `json:"firstName"`
		LastName      string `json:"lastName"`
		Role          string `json:"role" binding:"required"`
		InstituteID   string `json:"instituteId"`
		RollNo        string `json:"rollNo"`
		Subject       string `json:"subject"`
		Qualification string `json:"qualification"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	claims := auth.FromContext(c)
	instituteID := req.InstituteID
	if claims.Role != roleSuperAdmin {
		instituteID = claims.InstituteID
	}

	u, err := s.users.Provision(c.Request.Context(), users.ProvisionInput{
		Email:         req.Email,
		Password:      req.Password,
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		Role:          users.ParseRole(req.Role),
		InstituteID:   instituteID,
		RollNo:        req.RollNo,
		Subject:       req.Subject,
		Qualification: req.Qualification,
	})
	if err != nil {
		switch {
		case errors.Is(err, users.ErrEmailTaken):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, users.ErrValidation):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "provisioning failed"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"user": u})
}
