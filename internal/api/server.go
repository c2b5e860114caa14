package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/visor360/internal/storage"
	"github.com/nao1215/visor360/internal/store"
	"github.com/nao1215/visor360/pkg/session"
	"github.com/rs/zerolog"
)

// maxUploadSize はアップロードを受け付けるファイルの最大サイズ。
const maxUploadSize = 32 << 20

// Deps はAPIサーバーの依存関係。
type Deps struct {
	// Store はデータベースアクセス。
	Store *store.Store
	// Secret はセッショントークンの署名用シークレット。
	Secret string
	// TTL はセッショントークンの有効期間。
	TTL time.Duration
	// Uploader は添付ファイルのアップロード先。nilの場合はアップロードを無効にする。
	Uploader storage.Uploader
	// Logger はAPIのロガー。
	Logger zerolog.Logger
}

// Server はREST APIのハンドラ群。
type Server struct {
	// store はデータベースアクセス。
	store *store.Store
	// secret はトークン署名用シークレット。
	secret string
	// ttl はセッションの有効期間。
	ttl time.Duration
	// verifier はセッショントークンの検証器。
	verifier *session.Verifier
	// uploader は添付ファイルのアップロード先。
	uploader storage.Uploader
	// logger はAPIのロガー。
	logger zerolog.Logger
}

// NewServer は新しいAPIサーバーを生成する。
func NewServer(deps Deps) *Server {
	ttl := deps.TTL
	if ttl <= 0 {
		ttl = session.DefaultTTL
	}
	return &Server{
		store:    deps.Store,
		secret:   deps.Secret,
		ttl:      ttl,
		verifier: session.NewVerifier(deps.Secret),
		uploader: deps.Uploader,
		logger:   deps.Logger.With().Str("component", "api").Logger(),
	}
}

// Register はAPIルーティングを設定する。
func (s *Server) Register(router gin.IRouter) {
	// 認証エンドポイント（ゲート対象外）
	auth := router.Group("/api/auth")
	{
		auth.POST("/login", s.handleLogin())
		auth.POST("/logout", s.handleLogout())
		auth.GET("/session", s.handleSession())
	}

	api := router.Group("/api")
	{
		users := api.Group("/user")
		{
			users.GET("", s.handleListUsers())
			users.POST("", s.handleCreateUser())
			users.GET("/:id", s.handleGetUser())
			users.PUT("/:id", s.handleUpdateUser())
			users.DELETE("/:id", s.handleDeleteUser())
		}

		projects := api.Group("/project")
		{
			projects.GET("", s.handleListProjects())
			projects.POST("", s.handleCreateProject())
			projects.GET("/:id", s.handleGetProject())
			projects.PUT("/:id", s.handleUpdateProject())
			projects.DELETE("/:id", s.handleDeleteProject())
		}

		markers := api.Group("/marker")
		{
			markers.GET("", s.handleListMarkers())
			markers.POST("", s.handleCreateMarker())
			markers.GET("/:id", s.handleGetMarker())
			markers.PUT("/:id", s.handleUpdateMarker())
			markers.DELETE("/:id", s.handleDeleteMarker())
		}

		tags := api.Group("/tag")
		{
			tags.GET("", s.handleListTags())
			tags.POST("", s.handleCreateTag())
			tags.GET("/:id", s.handleGetTag())
			tags.PUT("/:id", s.handleUpdateTag())
			tags.DELETE("/:id", s.handleDeleteTag())
		}

		files := api.Group("/file")
		{
			files.GET("", s.handleListFiles())
			files.POST("", s.handleCreateFile())
			// ファイル詳細（GPSポイント、タグ、プロジェクトのコメントを含む）
			files.GET("/:id", s.handleGetFileDetail())
			files.PUT("/:id", s.handleUpdateFile())
			files.DELETE("/:id", s.handleDeleteFile())
			// GPSトラックの一括置換
			files.POST("/:id/gps-points", s.handleReplaceGpsPoints())
			// キロポスト検索
			files.GET("/:id/search", s.handleSearchPoints())
		}

		pointMarkers := api.Group("/point-marker")
		{
			pointMarkers.GET("", s.handleListPointMarkers())
			pointMarkers.POST("", s.handleCreatePointMarker())
			pointMarkers.POST("/reply", s.handleCreateReply())
			pointMarkers.GET("/:id", s.handleGetPointMarker())
			pointMarkers.DELETE("/:id", s.handleDeletePointMarker())
		}

		api.POST("/upload", s.handleUpload())
	}

	// ヘルスチェック
	router.GET("/health", s.handleHealth())
}

// handleHealth はデータベース接続を含むヘルスチェックのハンドラを返す。
func (s *Server) handleHealth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := s.store.Ping(c.Request.Context()); err != nil {
			s.logger.Error().Err(err).Msg("ヘルスチェックに失敗")
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "service": "visor360"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "visor360"})
	}
}

// parseID はパスパラメータのIDを解釈する。不正な場合は400を返してfalseを返す。
func parseID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "IDが不正です"})
		return 0, false
	}
	return id, true
}

// respondError はストアのエラーをHTTPステータスに変換して返す。
// notFound は対象が存在しない場合のメッセージ。
func (s *Server) respondError(c *gin.Context, err error, notFound string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": notFound})
	case errors.Is(err, store.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "既に登録されています"})
	case errors.Is(err, store.ErrInvalidReference) && c.Request.Method == http.MethodDelete:
		c.JSON(http.StatusConflict, gin.H{"error": "他のレコードから参照されているため削除できません"})
	case errors.Is(err, store.ErrInvalidReference):
		c.JSON(http.StatusBadRequest, gin.H{"error": "参照先のレコードが存在しません"})
	default:
		s.logger.Error().Err(err).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Msg("リクエストの処理に失敗")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "内部エラーが発生しました"})
	}
}
