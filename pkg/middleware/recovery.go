package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Recovery はパニックから回復し500を返すGinミドルウェアを返す。
// ログにはリクエストと認証済みユーザーを記録する。/api 配下にはJSONで、
// ページにはテキストで応答する。
func Recovery(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			logger.Error().
				Str("method", c.Request.Method).
				Str("path", c.Request.URL.Path).
				Int64("user_id", GetUserID(c)).
				Interface("panic", r).
				Msg("panic recovered")

			if strings.HasPrefix(c.Request.URL.Path, "/api/") {
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error": "内部サーバーエラーが発生しました",
				})
				return
			}
			c.Abort()
			c.String(http.StatusInternalServerError, "Error interno del servidor")
		}()
		c.Next()
	}
}
