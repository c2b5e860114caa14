package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/visor360/internal/store"
)

// tagRequest はタグ作成・更新リクエスト。Colorは "#" の有無を問わない。
type tagRequest struct {
	Name  string `json:"name" binding:"required"`
	Color string `json:"color"`
}

func (r tagRequest) params() store.TagParams {
	return store.TagParams{Name: strings.TrimSpace(r.Name), Color: r.Color}
}

func (s *Server) handleListTags() gin.HandlerFunc {
	return func(c *gin.Context) {
		tags, err := s.store.ListTags(c.Request.Context())
		if err != nil {
			s.respondError(c, err, "")
			return
		}
		c.JSON(http.StatusOK, tags)
	}
}

func (s *Server) handleGetTag() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c, "id")
		if !ok {
			return
		}
		tag, err := s.store.GetTag(c.Request.Context(), id)
		if err != nil {
			s.respondError(c, err, "タグが見つかりません")
			return
		}
		c.JSON(http.StatusOK, tag)
	}
}

func (s *Server) handleCreateTag() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req tagRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "リクエストが不正です: " + err.Error()})
			return
		}
		tag, err := s.store.CreateTag(c.Request.Context(), req.params())
		if err != nil {
			s.respondError(c, err, "")
			return
		}
		c.JSON(http.StatusCreated, tag)
	}
}

func (s *Server) handleUpdateTag() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c, "id")
		if !ok {
			return
		}
		var req tagRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "リクエストが不正です: " + err.Error()})
			return
		}
		tag, err := s.store.UpdateTag(c.Request.Context(), id, req.params())
		if err != nil {
			s.respondError(c, err, "タグが見つかりません")
			return
		}
		c.JSON(http.StatusOK, tag)
	}
}

func (s *Server) handleDeleteTag() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c, "id")
		if !ok {
			return
		}
		if err := s.store.DeleteTag(c.Request.Context(), id); err != nil {
			s.respondError(c, err, "タグが見つかりません")
			return
		}
		c.Status(http.StatusNoContent)
	}
}
