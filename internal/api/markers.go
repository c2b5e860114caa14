package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/visor360/internal/store"
)

// markerRequest はマーカー作成・更新リクエスト。
type markerRequest struct {
	Name  string `json:"name" binding:"required"`
	Icon  string `json:"icon"`
	Color string `json:"color"`
}

func (r markerRequest) params() store.MarkerParams {
	return store.MarkerParams{Name: strings.TrimSpace(r.Name), Icon: r.Icon, Color: r.Color}
}

func (s *Server) handleListMarkers() gin.HandlerFunc {
	return func(c *gin.Context) {
		markers, err := s.store.ListMarkers(c.Request.Context())
		if err != nil {
			s.respondError(c, err, "")
			return
		}
		c.JSON(http.StatusOK, markers)
	}
}

func (s *Server) handleGetMarker() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c, "id")
		if !ok {
			return
		}
		marker, err := s.store.GetMarker(c.Request.Context(), id)
		if err != nil {
			s.respondError(c, err, "マーカーが見つかりません")
			return
		}
		c.JSON(http.StatusOK, marker)
	}
}

func (s *Server) handleCreateMarker() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req markerRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "リクエストが不正です: " + err.Error()})
			return
		}
		marker, err := s.store.CreateMarker(c.Request.Context(), req.params())
		if err != nil {
			s.respondError(c, err, "")
			return
		}
		c.JSON(http.StatusCreated, marker)
	}
}

func (s *Server) handleUpdateMarker() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c, "id")
		if !ok {
			return
		}
		var req markerRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "リクエストが不正です: " + err.Error()})
			return
		}
		marker, err := s.store.UpdateMarker(c.Request.Context(), id, req.params())
		if err != nil {
			s.respondError(c, err, "マーカーが見つかりません")
			return
		}
		c.JSON(http.StatusOK, marker)
	}
}

func (s *Server) handleDeleteMarker() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c, "id")
		if !ok {
			return
		}
		if err := s.store.DeleteMarker(c.Request.Context(), id); err != nil {
			s.respondError(c, err, "マーカーが見つかりません")
			return
		}
		c.Status(http.StatusNoContent)
	}
}
