package middleware

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// UserEmailHeader - заголовок, в котором клиент передает заявленный email
const UserEmailHeader = "x-user-email"

// UserEmailContextKey - ключ контекста gin с подтвержденным email
const UserEmailContextKey = "user_email"

// Authenticator проверяет, что заявленный email принадлежит известному пользователю
type Authenticator interface {
	Authenticate(email string) error
}

// RequireUserEmail пропускает запрос только если email из заголовка x-user-email
// точно совпадает с email существующего пользователя. Это идентификация, а не
// аутентификация: заголовок никак не защищен.
func RequireUserEmail(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		email := c.GetHeader(UserEmailHeader)
		if email == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Email header (x-user-email) required"})
			c.Abort()
			return
		}

		if err := auth.Authenticate(email); err != nil {
			log.Printf("[IdentityMiddleware] Отклонен запрос %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "User not logged in"})
			c.Abort()
			return
		}

		c.Set(UserEmailContextKey, email)
		c.Next()
	}
}

// UserEmail возвращает email, подтвержденный RequireUserEmail
func UserEmail(c *gin.Context) (string, bool) {
	value, exists := c.Get(UserEmailContextKey)
	if !exists {
		return "", false
	}
	email, ok := value.(string)
	return email, ok
}
