package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"acadex/internal/auth"
	"acadex/internal/tasks"
)

func (s *Server) createTask(c *gin.Context) {
	var req struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Link        string `json:"link"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	claims := auth.FromContext(c)
	teacherName := ""
	if u, err := s.users.GetByUID(c.Request.Context(), claims.Subject); err == nil && u != nil {
		teacherName = u.FirstName + " " + u.LastName
	}

	task, err := s.tasks.Create(c.Request.Context(), tasks.CreateInput{
		TeacherID:   claims.Subject,
		TeacherName: teacherName,
		Title:       req.Title,
		Description: req.Description,
		Link:        req.Link,
	})
	if err != nil {
		if errors.Is(err, tasks.ErrMissingFields) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}
	c.JSON(http.StatusCreated, task)
}

func (s *Server) listTasks(c *gin.Context) {
	list, err := s.tasks.ListAll(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": list})
}

func (s *Server) myTasks(c *gin.Context) {
	claims := auth.FromContext(c)
	list, err := s.tasks.ListByTeacher(c.Request.Context(), claims.Subject)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": list})
}

func (s *Server) deleteTask(c *gin.Context) {
	claims := auth.FromContext(c)
	if err := s.tasks.Delete(c.Request.Context(), c.Param("id"), claims.Subject); err != nil {
		if errors.Is(err, tasks.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func (s *Server) completeTask(c *gin.Context) {
	claims := auth.FromContext(c)
	if err := s.tasks.Complete(c.Request.Context(), c.Param("id"), claims.Subject); err != nil {
		if errors.Is(err, tasks.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "complete failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "completed"})
}

func (s *Server) completedTasks(c *gin.Context) {
	claims := auth.FromContext(c)
	ids, err := s.tasks.CompletedIDs(c.Request.Context(), claims.Subject)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	if ids == nil {
		ids = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"taskIds": ids})
}
