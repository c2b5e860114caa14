package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/visor360/internal/store"
)

// projectRequest はプロジェクト作成・更新リクエスト。
type projectRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

func (r projectRequest) params() store.ProjectParams {
	return store.ProjectParams{Name: strings.TrimSpace(r.Name), Description: r.Description}
}

func (s *Server) handleListProjects() gin.HandlerFunc {
	return func(c *gin.Context) {
		projects, err := s.store.ListProjects(c.Request.Context())
		if err != nil {
			s.respondError(c, err, "")
			return
		}
		c.JSON(http.StatusOK, projects)
	}
}

// handleGetProject はプロジェクトとそのコメント一覧を返すハンドラを返す。
func (s *Server) handleGetProject() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c, "id")
		if !ok {
			return
		}
		project, err := s.store.GetProject(c.Request.Context(), id)
		if err != nil {
			s.respondError(c, err, "プロジェクトが見つかりません")
			return
		}
		markers, err := s.store.ListPointMarkers(c.Request.Context(), id)
		if err != nil {
			s.respondError(c, err, "")
			return
		}
		c.JSON(http.StatusOK, store.ProjectDetail{Project: project, PointMarker: markers})
	}
}

func (s *Server) handleCreateProject() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req projectRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "リクエストが不正です: " + err.Error()})
			return
		}
		project, err := s.store.CreateProject(c.Request.Context(), req.params())
		if err != nil {
			s.respondError(c, err, "")
			return
		}
		c.JSON(http.StatusCreated, project)
	}
}

func (s *Server) handleUpdateProject() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c, "id")
		if !ok {
			return
		}
		var req projectRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "リクエストが不正です: " + err.Error()})
			return
		}
		project, err := s.store.UpdateProject(c.Request.Context(), id, req.params())
		if err != nil {
			s.respondError(c, err, "プロジェクトが見つかりません")
			return
		}
		c.JSON(http.StatusOK, project)
	}
}

func (s *Server) handleDeleteProject() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c, "id")
		if !ok {
			return
		}
		if err := s.store.DeleteProject(c.Request.Context(), id); err != nil {
			s.respondError(c, err, "プロジェクトが見つかりません")
			return
		}
		c.Status(http.StatusNoContent)
	}
}
