package response

import (
	"log"
	"net/http"

	"anoa.com/facultydir/internal/entity"
	"anoa.com/facultydir/pkg/apperror"
	"github.com/gin-gonic/gin"
)

// GetActor retrieves the authenticated actor from the context.
func GetActor(c *gin.Context) (entity.Actor, error) {
	id, exists := c.Get("user_id")
	if !exists {
		return entity.Actor{}, apperror.ErrUnauthorized
	}

	userID, ok := id.(uint)
	if !ok {
		return entity.Actor{}, apperror.ErrUnauthorized
	}

	role, _ := c.Get("user_role")
	roleName, _ := role.(string)

	return entity.Actor{ID: userID, Role: roleName}, nil
}

// Error writes a standardized error response.
func Error(c *gin.Context, err error) {
	code := apperror.MapErrorToStatus(err)

	// Log internal errors
	if code == http.StatusInternalServerError {
		log.Printf("[Internal Error]: %v", err)
	}

	c.JSON(code, gin.H{"error": err.Error()})
}
