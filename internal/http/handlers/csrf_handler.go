package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/studmarket/studmarket-backend/internal/http/handlers/common"
	"github.com/studmarket/studmarket-backend/internal/http/middleware"
)

// CSRFHandler выдаёт анти-CSRF токены авторизованным пользователям.
type CSRFHandler struct {
	secret []byte
	ttl    time.Duration
}

func NewCSRFHandler(secret []byte, ttl time.Duration) *CSRFHandler {
	return &CSRFHandler{secret: secret, ttl: ttl}
}

// IssueToken GET /csrf
func (h *CSRFHandler) IssueToken(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	token := middleware.IssueCSRFToken(h.secret, userID, h.ttl)
	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"expires_in": int64(h.ttl.Seconds()),
	})
}
