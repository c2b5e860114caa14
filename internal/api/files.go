package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/visor360/internal/gallery"
	"github.com/nao1215/visor360/internal/store"
)

// fileRequest はギャラリーファイル作成・更新リクエスト。
type fileRequest struct {
	FileName   string   `json:"fileName" binding:"required"`
	StartPlace *float64 `json:"startPlace"`
	ProjectID  *int64   `json:"projectId"`
	// Tags は付与するタグのID。
	Tags []int64 `json:"tags"`
}

func (r fileRequest) params() store.FileParams {
	return store.FileParams{
		FileName:   strings.TrimSpace(r.FileName),
		StartPlace: r.StartPlace,
		ProjectID:  r.ProjectID,
		TagIDs:     r.Tags,
	}
}

// gpsPointRequest はGPSポイント1件分のリクエスト。
type gpsPointRequest struct {
	Second        *float64 `json:"second" binding:"required"`
	Lat           *float64 `json:"lat" binding:"required"`
	Lon           *float64 `json:"lon" binding:"required"`
	TotalDistance float64  `json:"totalDistance"`
}

// replaceGpsPointsRequest はGPSトラック置換リクエスト。
type replaceGpsPointsRequest struct {
	Points []gpsPointRequest `json:"points" binding:"dive"`
}

// handleListFiles はファイル一覧を返すハンドラを返す。
// クエリ projectId が指定された場合はそのプロジェクトのファイルのみ返す。
func (s *Server) handleListFiles() gin.HandlerFunc {
	return func(c *gin.Context) {
		var projectID int64
		if v := c.Query("projectId"); v != "" {
			id, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "projectIdが不正です"})
				return
			}
			projectID = id
		}
		files, err := s.store.ListFiles(c.Request.Context(), projectID)
		if err != nil {
			s.respondError(c, err, "")
			return
		}
		c.JSON(http.StatusOK, files)
	}
}

// handleGetFileDetail はギャラリー詳細ページ用のファイル情報を返すハンドラを返す。
func (s *Server) handleGetFileDetail() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c, "id")
		if !ok {
			return
		}
		detail, err := s.store.GetFileDetail(c.Request.Context(), id)
		if err != nil {
			s.respondError(c, err, "ファイルが見つかりません")
			return
		}
		c.JSON(http.StatusOK, detail)
	}
}

func (s *Server) handleCreateFile() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req fileRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "リクエストが不正です: " + err.Error()})
			return
		}
		file, err := s.store.CreateFile(c.Request.Context(), req.params())
		if err != nil {
			s.respondError(c, err, "")
			return
		}
		c.JSON(http.StatusCreated, file)
	}
}

func (s *Server) handleUpdateFile() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c, "id")
		if !ok {
			return
		}
		var req fileRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "リクエストが不正です: " + err.Error()})
			return
		}
		file, err := s.store.UpdateFile(c.Request.Context(), id, req.params())
		if err != nil {
			s.respondError(c, err, "ファイルが見つかりません")
			return
		}
		c.JSON(http.StatusOK, file)
	}
}

func (s *Server) handleDeleteFile() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c, "id")
		if !ok {
			return
		}
		if err := s.store.DeleteFile(c.Request.Context(), id); err != nil {
			s.respondError(c, err, "ファイルが見つかりません")
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// handleReplaceGpsPoints はファイルのGPSトラックを置き換えるハンドラを返す。
func (s *Server) handleReplaceGpsPoints() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c, "id")
		if !ok {
			return
		}
		var req replaceGpsPointsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "リクエストが不正です: " + err.Error()})
			return
		}

		points := make([]store.GpsPointParams, 0, len(req.Points))
		for _, p := range req.Points {
			points = append(points, store.GpsPointParams{
				Second:        *p.Second,
				Lat:           *p.Lat,
				Lon:           *p.Lon,
				TotalDistance: p.TotalDistance,
			})
		}
		if err := s.store.ReplaceGpsPoints(c.Request.Context(), id, points); err != nil {
			s.respondError(c, err, "ファイルが見つかりません")
			return
		}

		saved, err := s.store.ListGpsPoints(c.Request.Context(), id)
		if err != nil {
			s.respondError(c, err, "")
			return
		}
		c.JSON(http.StatusOK, saved)
	}
}

// handleSearchPoints はキロポスト表記でGPSポイントを検索するハンドラを返す。
// 結果は最大 gallery.MaxSuggestions 件。
func (s *Server) handleSearchPoints() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c, "id")
		if !ok {
			return
		}
		file, err := s.store.GetFile(c.Request.Context(), id)
		if err != nil {
			s.respondError(c, err, "ファイルが見つかりません")
			return
		}
		points, err := s.store.ListGpsPoints(c.Request.Context(), id)
		if err != nil {
			s.respondError(c, err, "")
			return
		}
		c.JSON(http.StatusOK, gallery.Suggest(points, gallery.StartKm(file), c.Query("q")))
	}
}
