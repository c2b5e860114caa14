package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// corsAllowMethods はクロスオリジンで受け付けるAPIのメソッド。
const corsAllowMethods = "GET, POST, PUT, DELETE"

// corsAllowHeaders はクロスオリジンで受け付けるリクエストヘッダー。
const corsAllowHeaders = "Authorization, Content-Type"

// CORS は許可されたオリジンからのCookie付きリクエストを受け付けるGinミドルウェアを返す。
//
// プリフライトリクエストはセッションCookieを伴わないため、Gateより前に配置して
// ここで応答する。許可されていないオリジンのプリフライトは403で拒否する。
// Cookieを送信させるためAllow-Originには常に具体的なオリジンを返し、
// 許可リストの "*" は無視する。
func CORS(allowedOrigins []string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o == "" || o == "*" {
			continue
		}
		allowed[o] = struct{}{}
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin == "" {
			c.Next()
			return
		}
		c.Writer.Header().Add("Vary", "Origin")

		preflight := c.Request.Method == http.MethodOptions &&
			c.GetHeader("Access-Control-Request-Method") != ""
		if _, ok := allowed[origin]; !ok {
			if preflight {
				c.AbortWithStatus(http.StatusForbidden)
				return
			}
			c.Next()
			return
		}

		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", origin)
		h.Set("Access-Control-Allow-Credentials", "true")
		if preflight {
			h.Set("Access-Control-Allow-Methods", corsAllowMethods)
			h.Set("Access-Control-Allow-Headers", corsAllowHeaders)
			h.Set("Access-Control-Max-Age", "600")
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
