package httpapi

import (
	"net/http"
	"sort"
	"strconv"

	"github.com/gin-gonic/gin"

	"acadex/internal/auth"
	"acadex/internal/users"
)

// listUsers backs the manage-users page: one tenant's teachers and students,
// students in roll-number order. Institute admins see their own tenant;
// super admins pick one with ?instituteId=.
func (s *Server) listUsers(c *gin.Context) {
	claims := auth.FromContext(c)
	instituteID := claims.InstituteID
	if claims.Role == roleSuperAdmin {
		instituteID = c.Query("instituteId")
	}
	if instituteID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "institute id required"})
		return
	}

	list, err := s.users.ListByInstitute(c.Request.Context(), instituteID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}

	teachers := []users.User{}
	students := []users.User{}
	for _, u := range list {
		switch u.Role {
		case users.RoleTeacher:
			teachers = append(teachers, u)
		case users.RoleStudent:
			students = append(students, u)
		}
	}
	sort.SliceStable(students, func(i, j int) bool {
		return rollValue(students[i].RollNo) < rollValue(students[j].RollNo)
	})

	c.JSON(http.StatusOK, gin.H{"teachers": teachers, "students": students})
}

func rollValue(roll string) int {
	n, err := strconv.Atoi(roll)
	if err != nil {
		return 0
	}
	return n
}
