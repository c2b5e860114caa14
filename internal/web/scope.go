package web

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/visor360/pkg/httpclient"
	"github.com/nao1215/visor360/pkg/middleware"
	"github.com/nao1215/visor360/pkg/session"
	"github.com/rs/zerolog"
)

// Scope はページ描画1回分のリクエストスコープ。
// セッション、APIクライアント、ロガーをまとめてページの描画処理に渡す。
type Scope struct {
	// ctx は呼び出し元のセッショントークンを保持するコンテキスト。
	ctx context.Context
	// Claims は認証済みユーザーのクレーム。ゲート対象外のページではnil。
	Claims *session.Claims
	// API はREST APIクライアント。
	API *httpclient.Client
	// Logger はリクエスト情報を付与したロガー。
	Logger zerolog.Logger
}

// newScope はリクエストからScopeを生成する。
func (s *Server) newScope(c *gin.Context) *Scope {
	claims := middleware.GetClaims(c)
	logCtx := s.logger.With().Str("path", c.Request.URL.Path)
	if claims != nil {
		logCtx = logCtx.Int64("user_id", claims.UserID)
	}
	return &Scope{
		ctx:    httpclient.WithSessionToken(c.Request.Context(), session.TokenFromRequest(c.Request)),
		Claims: claims,
		API:    s.api,
		Logger: logCtx.Logger(),
	}
}

// Context はAPI呼び出しに使用するコンテキストを返す。
func (sc *Scope) Context() context.Context {
	return sc.ctx
}

// UserName は表示用のユーザー名を返す。
func (sc *Scope) UserName() string {
	if sc.Claims == nil {
		return ""
	}
	if sc.Claims.Name != "" {
		return sc.Claims.Name
	}
	return sc.Claims.Email
}
