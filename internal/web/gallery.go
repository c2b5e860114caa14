package web

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/visor360/internal/gallery"
	"github.com/nao1215/visor360/internal/storage"
	"github.com/nao1215/visor360/internal/store"
	"golang.org/x/sync/errgroup"
)

// maxFormSize はコメントフォーム（添付ファイルを含む）の最大サイズ。
const maxFormSize = 32 << 20

// galleryPage はギャラリー詳細ページの表示データ。
type galleryPage struct {
	base
	File store.FileDetail
	// Tags はコメントに付与できるタグ。取得に失敗した場合は空。
	Tags []store.Tag
	// Query は距離検索の検索語。
	Query       string
	Suggestions []gallery.Suggestion
	// Second は動画の現在の再生位置。
	Second float64
	// Current は現在の再生位置のGPSポイント。
	Current *store.GpsPoint
	// CurrentLabel は現在位置のキロポスト表記。
	CurrentLabel string
	Comments     []store.PointMarker
	// ProjectID はコメントの投稿先プロジェクト。0の場合は投稿できない。
	ProjectID int64
	// AttachmentsEnabled は添付ファイルのアップロードが可能かどうか。
	AttachmentsEnabled bool
}

// handleGallery はギャラリー詳細ページのハンドラを返す。
// ファイル詳細とタグ一覧を並行して取得する。タグの取得失敗はログに記録するのみで、
// ページはタグの選択肢なしで表示する。
func (s *Server) handleGallery() gin.HandlerFunc {
	return func(c *gin.Context) {
		sc := s.newScope(c)
		id, ok := parsePathID(c)
		if !ok {
			s.renderError(c, sc, http.StatusNotFound, "Página no encontrada")
			return
		}

		var (
			detail store.FileDetail
			tags   []store.Tag
		)
		g, ctx := errgroup.WithContext(sc.Context())
		g.Go(func() error {
			return sc.API.GetJSON(ctx, fmt.Sprintf("/api/file/%d", id), &detail)
		})
		g.Go(func() error {
			if err := sc.API.GetJSON(ctx, "/api/tag", &tags); err != nil {
				sc.Logger.Warn().Err(err).Msg("タグ一覧の取得に失敗")
				tags = nil
			}
			return nil
		})
		if err := g.Wait(); err != nil {
			sc.Logger.Error().Err(err).Int64("file_id", id).Msg("ファイルの取得に失敗")
			status, msg := apiErrorStatus(err)
			s.renderError(c, sc, status, "Error cargando datos: "+msg)
			return
		}

		page := galleryPage{
			base:               base{Title: detail.FileName, User: sc.UserName()},
			File:               detail,
			Tags:               tags,
			Query:              strings.TrimSpace(c.Query("q")),
			AttachmentsEnabled: s.uploader != nil,
		}
		if v, err := strconv.ParseFloat(c.Query("t"), 64); err == nil && v >= 0 {
			page.Second = v
		}
		if page.Query != "" {
			page.Suggestions = gallery.Suggest(detail.GpsPoints, gallery.StartKm(detail.File), page.Query)
		}
		if p, ok := gallery.PointAt(detail.GpsPoints, page.Second); ok {
			page.Current = &p
			page.CurrentLabel = gallery.FormatDistance(gallery.StartKm(detail.File) + p.TotalDistance)
		}
		if detail.Project != nil {
			page.ProjectID = detail.Project.ID
			page.Comments = detail.Project.PointMarker
		}

		s.render(c, http.StatusOK, "gallery", page)
	}
}

// formError はフォーム入力の誤りを表す。
type formError struct {
	status  int
	message string
}

func (e *formError) Error() string {
	return e.message
}

// commentPayload はコメント作成APIへのリクエスト。
type commentPayload struct {
	Comment   string  `json:"comment"`
	URLFile   *string `json:"urlFile"`
	ProjectID int64   `json:"projectId"`
	MarkerID  *int64  `json:"markerId,omitempty"`
	Lat       float64 `json:"lat"`
	Lon       float64 `json:"lon"`
	Tags      []int64 `json:"tags"`
}

func (p *commentPayload) attach(url *string) { p.URLFile = url }

// replyPayload は返信作成APIへのリクエスト。
type replyPayload struct {
	ParentID int64   `json:"parentId"`
	Comment  string  `json:"comment"`
	URLFile  *string `json:"urlFile"`
	Tags     []int64 `json:"tags"`
}

func (p *replyPayload) attach(url *string) { p.URLFile = url }

// commentForm は検証済みのフォーム内容。添付ファイルのURLは検証後に設定する。
type commentForm interface {
	attach(url *string)
}

// handleCreateComment はギャラリー詳細ページのコメントフォームを処理するハンドラを返す。
func (s *Server) handleCreateComment() gin.HandlerFunc {
	return s.handleCommentForm("/api/point-marker", func(c *gin.Context, tags []int64) (commentForm, error) {
		projectID, err := formInt(c, "projectId", true)
		if err != nil {
			return nil, err
		}
		lat, err := formFloat(c, "lat")
		if err != nil {
			return nil, err
		}
		lon, err := formFloat(c, "lon")
		if err != nil {
			return nil, err
		}
		p := &commentPayload{
			Comment:   strings.TrimSpace(c.PostForm("comment")),
			ProjectID: projectID,
			Lat:       lat,
			Lon:       lon,
			Tags:      tags,
		}
		markerID, err := formInt(c, "markerId", false)
		if err != nil {
			return nil, err
		}
		if markerID != 0 {
			p.MarkerID = &markerID
		}
		return p, nil
	})
}

// handleCreateReply はコメントへの返信フォームを処理するハンドラを返す。
func (s *Server) handleCreateReply() gin.HandlerFunc {
	return s.handleCommentForm("/api/point-marker/reply", func(c *gin.Context, tags []int64) (commentForm, error) {
		parentID, err := formInt(c, "parentId", true)
		if err != nil {
			return nil, err
		}
		return &replyPayload{
			ParentID: parentID,
			Comment:  strings.TrimSpace(c.PostForm("comment")),
			Tags:     tags,
		}, nil
	})
}

// handleCommentForm はコメントと返信のフォーム処理の共通部分。
// フォームを検証してから添付のPDFをアップロードし、APIを呼び出す。成功したらギャラリー詳細へ戻る。
func (s *Server) handleCommentForm(apiPath string, build func(*gin.Context, []int64) (commentForm, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		sc := s.newScope(c)
		id, ok := parsePathID(c)
		if !ok {
			s.renderError(c, sc, http.StatusNotFound, "Página no encontrada")
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxFormSize)

		if strings.TrimSpace(c.PostForm("comment")) == "" {
			s.renderError(c, sc, http.StatusBadRequest, "El comentario es obligatorio")
			return
		}
		tags, err := formTags(c)
		if err != nil {
			s.renderFormError(c, sc, err)
			return
		}
		payload, err := build(c, tags)
		if err != nil {
			s.renderFormError(c, sc, err)
			return
		}
		urlFile, err := s.uploadAttachment(c, sc)
		if err != nil {
			s.renderFormError(c, sc, err)
			return
		}
		payload.attach(urlFile)

		if err := sc.API.PostJSON(sc.Context(), apiPath, payload, nil); err != nil {
			sc.Logger.Error().Err(err).Str("api", apiPath).Msg("コメントの保存に失敗")
			status, msg := apiErrorStatus(err)
			s.renderError(c, sc, status, "Error guardando comentario: "+msg)
			return
		}

		back := fmt.Sprintf("/gallery/%d", id)
		if t := c.PostForm("t"); t != "" {
			if _, err := strconv.ParseFloat(t, 64); err == nil {
				back += "?t=" + t
			}
		}
		c.Redirect(http.StatusSeeOther, back)
	}
}

func (s *Server) renderFormError(c *gin.Context, sc *Scope, err error) {
	var fe *formError
	if errors.As(err, &fe) {
		s.renderError(c, sc, fe.status, fe.message)
		return
	}
	sc.Logger.Error().Err(err).Msg("フォームの処理に失敗")
	s.renderError(c, sc, http.StatusBadGateway, "Error subiendo archivo: "+err.Error())
}

// uploadAttachment はフォームの "file" に添付されたPDFをアップロードしてURLを返す。
// 添付が無い場合はnilを返す。
func (s *Server) uploadAttachment(c *gin.Context, sc *Scope) (*string, error) {
	fh, err := c.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	if err != nil {
		return nil, &formError{status: http.StatusBadRequest, message: "Archivo inválido"}
	}
	if fh.Size == 0 && fh.Filename == "" {
		return nil, nil
	}
	if !storage.IsPDF(fh.Filename, fh.Header.Get("Content-Type")) {
		return nil, &formError{status: http.StatusBadRequest, message: "Solo se permiten archivos PDF"}
	}
	if s.uploader == nil {
		return nil, &formError{status: http.StatusServiceUnavailable, message: "Los adjuntos no están disponibles"}
	}

	f, err := fh.Open()
	if err != nil {
		return nil, &formError{status: http.StatusBadRequest, message: "Archivo inválido"}
	}
	defer f.Close()

	url, err := s.uploader.Upload(sc.Context(), fh.Filename, storage.PDFContentType, f)
	if err != nil {
		return nil, err
	}
	sc.Logger.Info().Str("url", url).Msg("添付ファイルをアップロードしました")
	return &url, nil
}

func formInt(c *gin.Context, name string, required bool) (int64, error) {
	v := strings.TrimSpace(c.PostForm(name))
	if v == "" {
		if required {
			return 0, &formError{status: http.StatusBadRequest, message: "Falta el campo " + name}
		}
		return 0, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n < 0 {
		return 0, &formError{status: http.StatusBadRequest, message: "Valor inválido para " + name}
	}
	return n, nil
}

func formFloat(c *gin.Context, name string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(c.PostForm(name)), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &formError{status: http.StatusBadRequest, message: "Valor inválido para " + name}
	}
	return v, nil
}

func formTags(c *gin.Context) ([]int64, error) {
	values := c.PostFormArray("tags")
	tags := make([]int64, 0, len(values))
	for _, v := range values {
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return nil, &formError{status: http.StatusBadRequest, message: "Etiqueta inválida"}
		}
		tags = append(tags, n)
	}
	return tags, nil
}
