package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/visor360/internal/store"
	"github.com/nao1215/visor360/pkg/middleware"
)

// pointMarkerRequest は地図上のコメント作成リクエスト。
type pointMarkerRequest struct {
	Comment   string   `json:"comment" binding:"required"`
	URLFile   *string  `json:"urlFile"`
	ProjectID int64    `json:"projectId" binding:"required"`
	MarkerID  *int64   `json:"markerId"`
	Lat       *float64 `json:"lat" binding:"required"`
	Lon       *float64 `json:"lon" binding:"required"`
	Tags      []int64  `json:"tags"`
}

// replyRequest はコメントへの返信作成リクエスト。
type replyRequest struct {
	ParentID int64   `json:"parentId" binding:"required"`
	Comment  string  `json:"comment" binding:"required"`
	URLFile  *string `json:"urlFile"`
	Tags     []int64 `json:"tags"`
}

// blankToNil は空文字列のURLをnilに変換する。
func blankToNil(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return s
}

// requireUserID はセッションのユーザーIDを返す。未認証の場合は401を返してfalseを返す。
func requireUserID(c *gin.Context) (int64, bool) {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "ユーザーIDが取得できません"})
		return 0, false
	}
	return userID, true
}

// handleListPointMarkers はプロジェクトのコメント一覧（返信を含む）を返すハンドラを返す。
func (s *Server) handleListPointMarkers() gin.HandlerFunc {
	return func(c *gin.Context) {
		projectID, err := strconv.ParseInt(c.Query("projectId"), 10, 64)
		if err != nil || projectID <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "projectIdは必須です"})
			return
		}
		list, err := s.store.ListPointMarkers(c.Request.Context(), projectID)
		if err != nil {
			s.respondError(c, err, "")
			return
		}
		c.JSON(http.StatusOK, list)
	}
}

func (s *Server) handleGetPointMarker() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c, "id")
		if !ok {
			return
		}
		pm, err := s.store.GetPointMarker(c.Request.Context(), id)
		if err != nil {
			s.respondError(c, err, "コメントが見つかりません")
			return
		}
		c.JSON(http.StatusOK, pm)
	}
}

// handleCreatePointMarker は地図上にコメントを作成するハンドラを返す。
// 作成者はセッションのユーザーとする。
func (s *Server) handleCreatePointMarker() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUserID(c)
		if !ok {
			return
		}
		var req pointMarkerRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "リクエストが不正です: " + err.Error()})
			return
		}

		pm, err := s.store.CreatePointMarker(c.Request.Context(), store.CreatePointMarkerParams{
			ProjectID:   req.ProjectID,
			MarkerID:    req.MarkerID,
			Comment:     strings.TrimSpace(req.Comment),
			URLFile:     blankToNil(req.URLFile),
			Lat:         *req.Lat,
			Lon:         *req.Lon,
			CreatedByID: userID,
			TagIDs:      req.Tags,
		})
		if err != nil {
			s.respondError(c, err, "")
			return
		}
		s.logger.Info().Int64("point_marker_id", pm.ID).Int64("user_id", userID).Msg("コメントを作成しました")
		c.JSON(http.StatusCreated, pm)
	}
}

// handleCreateReply はコメントへの返信を作成するハンドラを返す。
func (s *Server) handleCreateReply() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUserID(c)
		if !ok {
			return
		}
		var req replyRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "リクエストが不正です: " + err.Error()})
			return
		}

		pm, err := s.store.CreateReply(c.Request.Context(), store.CreateReplyParams{
			ParentID:    req.ParentID,
			Comment:     strings.TrimSpace(req.Comment),
			URLFile:     blankToNil(req.URLFile),
			CreatedByID: userID,
			TagIDs:      req.Tags,
		})
		if err != nil {
			s.respondError(c, err, "返信先のコメントが見つかりません")
			return
		}
		c.JSON(http.StatusCreated, pm)
	}
}

func (s *Server) handleDeletePointMarker() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c, "id")
		if !ok {
			return
		}
		if err := s.store.DeletePointMarker(c.Request.Context(), id); err != nil {
			s.respondError(c, err, "コメントが見つかりません")
			return
		}
		c.Status(http.StatusNoContent)
	}
}
