package middleware

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Анти-CSRF токен для форм (открытие спора). Stateless double-submit:
// токен привязан к пользователю и сроку действия через HMAC-SHA256,
// на сервере ничего не хранится.
//
// Формат токена: "<unix expiry>.<hex hmac(secret, userID|expiry)>".

const CSRFHeader = "X-CSRF-Token"

// IssueCSRFToken выпускает токен для пользователя со сроком действия ttl.
func IssueCSRFToken(secret []byte, userID uuid.UUID, ttl time.Duration) string {
	expiry := time.Now().Add(ttl).Unix()
	return fmt.Sprintf("%d.%s", expiry, csrfSignature(secret, userID, expiry))
}

// ValidateCSRFToken проверяет подпись и срок действия токена.
func ValidateCSRFToken(secret []byte, userID uuid.UUID, token string) bool {
	parts := strings.SplitN(token, ".", 2)
	if len(parts) != 2 {
		return false
	}

	expiry, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil || time.Now().Unix() > expiry {
		return false
	}

	expected := csrfSignature(secret, userID, expiry)
	return hmac.Equal([]byte(expected), []byte(parts[1]))
}

func csrfSignature(secret []byte, userID uuid.UUID, expiry int64) string {
	mac := hmac.New(sha256.New, secret)
	fmt.Fprintf(mac, "%s|%d", userID.String(), expiry)
	return hex.EncodeToString(mac.Sum(nil))
}

// CSRFMiddleware требует валидный токен из заголовка X-CSRF-Token на
// изменяющих запросах. Вешается после AuthMiddleware.
func CSRFMiddleware(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}

		raw, exists := c.Get(ContextUserIDKey)
		userID, ok := raw.(uuid.UUID)
		if !exists || !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "требуется авторизация"})
			return
		}

		token := c.GetHeader(CSRFHeader)
		if token == "" || !ValidateCSRFToken(secret, userID, token) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "невалидный или истёкший CSRF токен"})
			return
		}

		c.Next()
	}
}
