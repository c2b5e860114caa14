package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/visor360/internal/store"
	"github.com/nao1215/visor360/pkg/session"
	"golang.org/x/crypto/bcrypt"
)

// loginRequest はログインリクエスト。JSONとフォームの両方を受け付ける。
type loginRequest struct {
	// Email はログインに使用するメールアドレス。
	Email string `json:"email" form:"email" binding:"required"`
	// Password は平文のパスワード。
	Password string `json:"password" form:"password" binding:"required"`
	// CallbackURL はフォームログイン成功後の遷移先。
	CallbackURL string `json:"callbackUrl" form:"callbackUrl"`
}

// sessionUser はセッションに含まれるユーザー情報。
type sessionUser struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// loginFailedQuery はフォームログイン失敗時にログインページへ付与するクエリ。
const loginFailedQuery = "?error=CredentialsSignin"

// handleLogin はメールアドレスとパスワードでログインするハンドラを返す。
// 成功するとセッションCookieを設定する。JSONリクエストにはトークンを返し、
// フォーム送信は遷移先（既定は /home）へリダイレクトする。
func (s *Server) handleLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		isJSON := c.ContentType() == gin.MIMEJSON

		var req loginRequest
		if err := c.ShouldBind(&req); err != nil {
			if !isJSON {
				c.Redirect(http.StatusSeeOther, "/login"+loginFailedQuery)
				return
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": "メールアドレスとパスワードは必須です"})
			return
		}

		user, err := s.authenticate(c, req.Email, req.Password)
		if err != nil {
			s.logger.Info().Str("email", req.Email).Msg("ログインに失敗")
			if !isJSON {
				c.Redirect(http.StatusSeeOther, "/login"+loginFailedQuery)
				return
			}
			c.JSON(http.StatusUnauthorized, gin.H{"error": "メールアドレスまたはパスワードが正しくありません"})
			return
		}

		token, err := session.Issue(s.secret, session.Subject{
			UserID: user.ID,
			Email:  user.Email,
			Name:   user.Name,
			Role:   user.Role,
		}, s.ttl)
		if err != nil {
			if errors.Is(err, session.ErrSecretMissing) {
				s.logger.Error().Err(err).Msg("セッションを発行できません")
				c.JSON(http.StatusServiceUnavailable, gin.H{"error": "認証が設定されていません"})
				return
			}
			s.logger.Error().Err(err).Msg("トークン生成に失敗")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "トークン生成に失敗しました"})
			return
		}

		session.SetCookie(c.Writer, c.Request, token, s.ttl)
		s.logger.Info().Int64("user_id", user.ID).Msg("ログインしました")

		if !isJSON {
			c.Redirect(http.StatusSeeOther, safeCallback(req.CallbackURL))
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"token": token,
			"user":  toSessionUser(user),
		})
	}
}

// authenticate はメールアドレスとパスワードを照合する。
func (s *Server) authenticate(c *gin.Context, email, password string) (store.User, error) {
	user, err := s.store.GetUserByEmail(c.Request.Context(), strings.TrimSpace(email))
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.logger.Error().Err(err).Msg("ユーザー取得に失敗")
		}
		return store.User{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return store.User{}, err
	}
	return user, nil
}

// safeCallback は同一オリジン内のパスのみを遷移先として許可する。
func safeCallback(u string) string {
	if u == "" || !strings.HasPrefix(u, "/") || strings.HasPrefix(u, "//") || strings.HasPrefix(u, "/\\") {
		return "/home"
	}
	return u
}

func toSessionUser(u store.User) sessionUser {
	return sessionUser{ID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role}
}

// handleLogout はセッションCookieを削除するハンドラを返す。
// フォーム送信の場合はログインページへリダイレクトする。
func (s *Server) handleLogout() gin.HandlerFunc {
	return func(c *gin.Context) {
		session.ClearCookie(c.Writer, c.Request)
		if c.ContentType() != gin.MIMEJSON && c.GetHeader("Accept") != gin.MIMEJSON {
			c.Redirect(http.StatusSeeOther, "/login")
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

// handleSession は現在のセッション情報を返すハンドラを返す。
// 未認証の場合は空のオブジェクトを返す。
func (s *Server) handleSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := s.verifier.Verify(c.Request.Context(), session.TokenFromRequest(c.Request))
		if err != nil {
			c.JSON(http.StatusOK, gin.H{})
			return
		}
		resp := gin.H{
			"user": sessionUser{
				ID:    claims.UserID,
				Email: claims.Email,
				Name:  claims.Name,
				Role:  claims.Role,
			},
		}
		if claims.ExpiresAt != nil {
			resp["expires"] = claims.ExpiresAt.Time.UTC().Format("2006-01-02T15:04:05Z")
		}
		c.JSON(http.StatusOK, resp)
	}
}
