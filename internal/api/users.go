package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/visor360/internal/store"
	"golang.org/x/crypto/bcrypt"
)

// defaultRole は作成時にロールが指定されなかったユーザーのロール。
const defaultRole = "viewer"

// userRequest はユーザー作成・更新リクエスト。
type userRequest struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required,email"`
	// Password は平文のパスワード。更新時に空の場合は変更しない。
	Password string `json:"password"`
	Role     string `json:"role"`
}

// HashPassword はパスワードをbcryptでハッシュ化する。
func HashPassword(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

func (s *Server) handleListUsers() gin.HandlerFunc {
	return func(c *gin.Context) {
		users, err := s.store.ListUsers(c.Request.Context())
		if err != nil {
			s.respondError(c, err, "")
			return
		}
		c.JSON(http.StatusOK, users)
	}
}

func (s *Server) handleGetUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c, "id")
		if !ok {
			return
		}
		user, err := s.store.GetUser(c.Request.Context(), id)
		if err != nil {
			s.respondError(c, err, "ユーザーが見つかりません")
			return
		}
		c.JSON(http.StatusOK, user)
	}
}

// handleCreateUser はユーザーを作成するハンドラを返す。パスワードは必須。
func (s *Server) handleCreateUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req userRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "リクエストが不正です: " + err.Error()})
			return
		}
		if req.Password == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "パスワードは必須です"})
			return
		}
		hash, err := HashPassword(req.Password)
		if err != nil {
			s.respondError(c, err, "")
			return
		}
		role := strings.TrimSpace(req.Role)
		if role == "" {
			role = defaultRole
		}

		user, err := s.store.CreateUser(c.Request.Context(), store.CreateUserParams{
			Name:         strings.TrimSpace(req.Name),
			Email:        strings.TrimSpace(req.Email),
			PasswordHash: hash,
			Role:         role,
		})
		if err != nil {
			s.respondError(c, err, "")
			return
		}
		c.JSON(http.StatusCreated, user)
	}
}

func (s *Server) handleUpdateUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c, "id")
		if !ok {
			return
		}
		var req userRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "リクエストが不正です: " + err.Error()})
			return
		}

		params := store.UpdateUserParams{
			ID:    id,
			Name:  strings.TrimSpace(req.Name),
			Email: strings.TrimSpace(req.Email),
			Role:  strings.TrimSpace(req.Role),
		}
		if params.Role == "" {
			params.Role = defaultRole
		}
		if req.Password != "" {
			hash, err := HashPassword(req.Password)
			if err != nil {
				s.respondError(c, err, "")
				return
			}
			params.PasswordHash = hash
		}

		user, err := s.store.UpdateUser(c.Request.Context(), params)
		if err != nil {
			s.respondError(c, err, "ユーザーが見つかりません")
			return
		}
		c.JSON(http.StatusOK, user)
	}
}

func (s *Server) handleDeleteUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c, "id")
		if !ok {
			return
		}
		if err := s.store.DeleteUser(c.Request.Context(), id); err != nil {
			s.respondError(c, err, "ユーザーが見つかりません")
			return
		}
		c.Status(http.StatusNoContent)
	}
}
