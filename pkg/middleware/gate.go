package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/visor360/pkg/gate"
	"github.com/nao1215/visor360/pkg/session"
)

// contextKeyClaims はGinコンテキストにセッションクレームを格納するキー。
const contextKeyClaims = "session_claims"

// Gate は認証ゲートをGinミドルウェアとして適用する。
// ゲート対象外のパス（Rules.Matchesがfalse）はそのまま通過させる。
// 未認証の保護パスはログインページへ307でリダイレクトする。
func Gate(g *gate.Gate) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if !g.Rules().Matches(path) {
			c.Next()
			return
		}

		d := g.Decide(c.Request.Context(), path, session.TokenFromRequest(c.Request))
		if d.Outcome == gate.Redirect {
			c.Redirect(http.StatusTemporaryRedirect, g.LoginURL(c.Request))
			c.Abort()
			return
		}

		if d.Claims != nil {
			SetClaims(c, d.Claims)
		}
		c.Next()
	}
}

// SetClaims はGinコンテキストにセッションクレームを設定する。
// クレームはレスポンスヘッダーには出力しない。
func SetClaims(c *gin.Context, claims *session.Claims) {
	c.Set(contextKeyClaims, claims)
}

// GetClaims はGinコンテキストからセッションクレームを取得する。
// ゲートで認証されていないリクエストではnilを返す。
func GetClaims(c *gin.Context) *session.Claims {
	v, ok := c.Get(contextKeyClaims)
	if !ok {
		return nil
	}
	claims, _ := v.(*session.Claims)
	return claims
}

// GetUserID はGinコンテキストから認証済みユーザーのIDを取得する。
// 認証されていない場合は0を返す。
func GetUserID(c *gin.Context) int64 {
	if claims := GetClaims(c); claims != nil {
		return claims.UserID
	}
	return 0
}
