package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// UUIDValidator проверяет, что path-параметр является корректным UUID,
// до того как запрос дойдёт до хендлера.
func UUIDValidator(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := uuid.Parse(c.Param(param)); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "невалидный идентификатор"})
			return
		}
		c.Next()
	}
}
