package web

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"
	"github.com/nao1215/visor360/internal/gallery"
	"github.com/nao1215/visor360/internal/storage"
	"github.com/nao1215/visor360/pkg/httpclient"
	"github.com/rs/zerolog"
)

//go:embed templates/*.html
var templatesFS embed.FS

// pageNames はlayout.htmlと組み合わせて読み込むページテンプレート。
var pageNames = []string{"home", "login", "gallery", "list", "error"}

// Deps はページサーバーの依存関係。
type Deps struct {
	// APIBaseURL はデータ取得に使用するREST APIのベースURL。
	APIBaseURL string
	// Uploader はコメント添付ファイルのアップロード先。nilの場合は添付を受け付けない。
	Uploader storage.Uploader
	// Logger はページのロガー。
	Logger zerolog.Logger
}

// Server はページのハンドラ群。
type Server struct {
	// api はREST APIクライアント。
	api *httpclient.Client
	// uploader は添付ファイルのアップロード先。
	uploader storage.Uploader
	// logger はページのロガー。
	logger zerolog.Logger
	// pages はページ名ごとのテンプレート。
	pages map[string]*template.Template
}

// NewServer は新しいページサーバーを生成する。
func NewServer(deps Deps) (*Server, error) {
	pages, err := parsePages()
	if err != nil {
		return nil, err
	}
	return &Server{
		api:      httpclient.New(deps.APIBaseURL),
		uploader: deps.Uploader,
		logger:   deps.Logger.With().Str("component", "web").Logger(),
		pages:    pages,
	}, nil
}

var templateFuncs = template.FuncMap{
	"distance": gallery.FormatDistance,
	"color": func(c string) string {
		if c == "" {
			return "#6b7280"
		}
		return "#" + c
	},
	"addKm": func(a, b float64) float64 { return a + b },
	"deref": func(v *float64) float64 {
		if v == nil {
			return 0
		}
		return *v
	},
}

func parsePages() (map[string]*template.Template, error) {
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		t, err := template.New(name).Funcs(templateFuncs).ParseFS(templatesFS,
			"templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("テンプレート %s の読み込みに失敗: %w", name, err)
		}
		pages[name] = t
	}
	return pages, nil
}

// Register はページのルーティングを設定する。
func (s *Server) Register(router gin.IRouter) {
	router.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusTemporaryRedirect, "/home")
	})
	router.GET("/home", s.handleHome())
	router.GET("/login", s.handleLogin())

	router.GET("/user", s.handleUserList())
	router.GET("/marker", s.handleMarkerList())
	router.GET("/project", s.handleProjectList())
	router.GET("/gallery", s.handleGalleryList())

	detail := router.Group("/gallery/:id")
	{
		detail.GET("", s.handleGallery())
		detail.POST("/comments", s.handleCreateComment())
		detail.POST("/replies", s.handleCreateReply())
	}
}

// base は全ページ共通の表示データ。
type base struct {
	Title string
	// User はログイン中のユーザー名。未認証の場合は空。
	User string
}

// errorPage はエラー表示のデータ。
type errorPage struct {
	base
	Message string
}

// render はlayout.htmlを使ってページを描画する。
func (s *Server) render(c *gin.Context, status int, page string, data any) {
	t, ok := s.pages[page]
	if !ok {
		s.logger.Error().Str("page", page).Msg("テンプレートが存在しません")
		c.String(http.StatusInternalServerError, "internal error")
		return
	}
	c.Render(status, render.HTML{Template: t, Name: "layout", Data: data})
}

// renderError はエラーページを描画する。
func (s *Server) renderError(c *gin.Context, sc *Scope, status int, message string) {
	user := ""
	if sc != nil {
		user = sc.UserName()
	}
	s.render(c, status, "error", errorPage{
		base:    base{Title: http.StatusText(status), User: user},
		Message: message,
	})
}

// apiErrorStatus はAPI呼び出しのエラーを表示用のステータスとメッセージに変換する。
func apiErrorStatus(err error) (int, string) {
	var se *httpclient.StatusError
	if errors.As(err, &se) {
		return se.StatusCode, se.Message
	}
	return http.StatusBadGateway, err.Error()
}

// parsePathID はパスの :id を解釈する。数値でない場合は0とfalseを返す。
func parsePathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
