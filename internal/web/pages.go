package web

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/visor360/internal/gallery"
	"github.com/nao1215/visor360/internal/store"
)

// menuItem はホーム画面のメニュー項目。
type menuItem struct {
	Label string
	Href  string
}

// homeMenu はホーム画面に表示するメニュー。
var homeMenu = []menuItem{
	{Label: "Usuarios", Href: "/user"},
	{Label: "Galería", Href: "/gallery"},
	{Label: "Marcadores", Href: "/marker"},
	{Label: "Proyectos", Href: "/project"},
}

type homePage struct {
	base
	Menu []menuItem
}

func (s *Server) handleHome() gin.HandlerFunc {
	return func(c *gin.Context) {
		sc := s.newScope(c)
		s.render(c, http.StatusOK, "home", homePage{
			base: base{Title: "Inicio", User: sc.UserName()},
			Menu: homeMenu,
		})
	}
}

type loginPage struct {
	base
	Error       string
	CallbackURL string
}

// handleLogin はログインフォームを表示するハンドラを返す。
func (s *Server) handleLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		page := loginPage{
			base:        base{Title: "Iniciar sesión"},
			CallbackURL: c.Query("callbackUrl"),
		}
		if c.Query("error") != "" {
			page.Error = "Credenciales inválidas"
		}
		s.render(c, http.StatusOK, "login", page)
	}
}

// listRow は一覧表の1行。
type listRow struct {
	Href  string
	Cells []string
}

type listPage struct {
	base
	Columns []string
	Rows    []listRow
}

// handleList はAPIから一覧を取得して表として表示するハンドラを返す。
func handleList[T any](s *Server, title, path string, columns []string, row func(T) listRow) gin.HandlerFunc {
	return func(c *gin.Context) {
		sc := s.newScope(c)

		var items []T
		if err := sc.API.GetJSON(sc.Context(), path, &items); err != nil {
			sc.Logger.Error().Err(err).Str("api", path).Msg("一覧の取得に失敗")
			status, msg := apiErrorStatus(err)
			s.renderError(c, sc, status, "Error cargando datos: "+msg)
			return
		}

		rows := make([]listRow, 0, len(items))
		for _, it := range items {
			rows = append(rows, row(it))
		}
		s.render(c, http.StatusOK, "list", listPage{
			base:    base{Title: title, User: sc.UserName()},
			Columns: columns,
			Rows:    rows,
		})
	}
}

func (s *Server) handleUserList() gin.HandlerFunc {
	return handleList(s, "Usuarios", "/api/user", []string{"ID", "Nombre", "Email", "Rol"},
		func(u store.User) listRow {
			return listRow{Cells: []string{strconv.FormatInt(u.ID, 10), u.Name, u.Email, u.Role}}
		})
}

func (s *Server) handleMarkerList() gin.HandlerFunc {
	return handleList(s, "Marcadores", "/api/marker", []string{"ID", "Nombre", "Icono", "Color"},
		func(m store.Marker) listRow {
			return listRow{Cells: []string{strconv.FormatInt(m.ID, 10), m.Name, m.Icon, m.Color}}
		})
}

func (s *Server) handleProjectList() gin.HandlerFunc {
	return handleList(s, "Proyectos", "/api/project", []string{"ID", "Nombre", "Descripción"},
		func(p store.Project) listRow {
			return listRow{Cells: []string{strconv.FormatInt(p.ID, 10), p.Name, p.Description}}
		})
}

func (s *Server) handleGalleryList() gin.HandlerFunc {
	return handleList(s, "Galería", "/api/file", []string{"ID", "Archivo", "Inicio", "Creado"},
		func(f store.File) listRow {
			start := ""
			if f.StartPlace != nil {
				start = gallery.FormatDistance(*f.StartPlace)
			}
			return listRow{
				Href:  fmt.Sprintf("/gallery/%d", f.ID),
				Cells: []string{strconv.FormatInt(f.ID, 10), f.FileName, start, f.CreatedAt.Format("2006-01-02")},
			}
		})
}
