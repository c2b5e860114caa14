package web

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/visor360/internal/store"
	"github.com/nao1215/visor360/pkg/session"
	"github.com/rs/zerolog"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeAPI はREST APIのモック。受け取ったリクエストを記録する。
type fakeAPI struct {
	mu        sync.Mutex
	auth      []string
	posted    map[string][]byte
	tagsFails bool
}

func (f *fakeAPI) handler(t *testing.T) http.Handler {
	t.Helper()

	start := 12.0
	projectID := int64(7)
	detail := store.FileDetail{
		File: store.File{
			ID:         1,
			FileName:   "tramo1.mp4",
			StartPlace: &start,
			ProjectID:  &projectID,
			CreatedAt:  time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
			Tags:       []store.Tag{},
		},
		GpsPoints: []store.GpsPoint{
			{ID: 1, FileID: 1, Second: 0, Lat: -33.0, Lon: -70.0, TotalDistance: 0},
			{ID: 2, FileID: 1, Second: 5, Lat: -33.1, Lon: -70.1, TotalDistance: 0.345},
		},
		Project: &store.ProjectDetail{
			Project: store.Project{ID: projectID, Name: "Ruta 5"},
			PointMarker: []store.PointMarker{
				{ID: 10, Comment: "Bache profundo", Replies: []store.PointMarker{{ID: 11, Comment: "Reparado"}}},
			},
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/file/1", func(w http.ResponseWriter, r *http.Request) {
		f.record(r, nil)
		json.NewEncoder(w).Encode(detail)
	})
	mux.HandleFunc("GET /api/file/2", func(w http.ResponseWriter, r *http.Request) {
		f.record(r, nil)
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"ファイルが見つかりません"}`))
	})
	mux.HandleFunc("GET /api/file", func(w http.ResponseWriter, r *http.Request) {
		f.record(r, nil)
		json.NewEncoder(w).Encode([]store.File{detail.File})
	})
	mux.HandleFunc("GET /api/tag", func(w http.ResponseWriter, r *http.Request) {
		f.record(r, nil)
		if f.tagsFails {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"error":"内部エラーが発生しました"}`))
			return
		}
		json.NewEncoder(w).Encode([]store.Tag{{ID: 3, Name: "Señalética", Color: "ff0000"}})
	})
	for _, p := range []string{"/api/point-marker", "/api/point-marker/reply"} {
		mux.HandleFunc("POST "+p, func(w http.ResponseWriter, r *http.Request) {
			body, _ := io.ReadAll(r.Body)
			f.record(r, body)
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{}`))
		})
	}
	return mux
}

func (f *fakeAPI) record(r *http.Request, body []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.auth = append(f.auth, r.Header.Get("Authorization"))
	if body != nil {
		if f.posted == nil {
			f.posted = map[string][]byte{}
		}
		f.posted[r.URL.Path] = body
	}
}

// fakeUploader はアップロード内容を記録するテスト用のUploader。
type fakeUploader struct {
	name string
}

func (u *fakeUploader) Upload(_ context.Context, name, _ string, _ io.Reader) (string, error) {
	u.name = name
	return "https://cdn.example.com/" + name, nil
}

// setupTestServer はモックAPIに接続したページサーバーを構築する。
func setupTestServer(t *testing.T, api *fakeAPI, uploader *fakeUploader) *gin.Engine {
	t.Helper()

	ts := httptest.NewServer(api.handler(t))
	t.Cleanup(ts.Close)

	deps := Deps{APIBaseURL: ts.URL, Logger: zerolog.Nop()}
	if uploader != nil {
		deps.Uploader = uploader
	}
	s, err := NewServer(deps)
	if err != nil {
		t.Fatalf("NewServer()でエラーが発生: %v", err)
	}
	router := gin.New()
	s.Register(router)
	return router
}

func get(router *gin.Engine, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.AddCookie(&http.Cookie{Name: session.CookieName, Value: "tok"})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// TestPages は静的なページを検証する。
func TestPages(t *testing.T) {
	t.Parallel()

	router := setupTestServer(t, &fakeAPI{}, nil)

	t.Run("ルートは/homeへリダイレクトすること", func(t *testing.T) {
		t.Parallel()

		w := get(router, "/")
		if w.Code != http.StatusTemporaryRedirect || w.Header().Get("Location") != "/home" {
			t.Errorf("status = %d, Location = %q", w.Code, w.Header().Get("Location"))
		}
	})

	t.Run("ホームにメニューが表示されること", func(t *testing.T) {
		t.Parallel()

		w := get(router, "/home")
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
		}
		for _, want := range []string{`href="/user"`, `href="/gallery"`, `href="/marker"`, `href="/project"`, "Galería"} {
			if !strings.Contains(w.Body.String(), want) {
				t.Errorf("ホームに %q が含まれていない", want)
			}
		}
	})

	t.Run("ログインフォームがAPIへ送信されること", func(t *testing.T) {
		t.Parallel()

		w := get(router, "/login?error=CredentialsSignin")
		body := w.Body.String()
		if !strings.Contains(body, `action="/api/auth/login"`) {
			t.Error("ログインフォームの送信先が不正")
		}
		if !strings.Contains(body, "Credenciales inválidas") {
			t.Error("エラーメッセージが表示されていない")
		}
	})

	t.Run("ギャラリー一覧に詳細へのリンクが表示されること", func(t *testing.T) {
		t.Parallel()

		w := get(router, "/gallery")
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
		}
		if !strings.Contains(w.Body.String(), `href="/gallery/1"`) {
			t.Errorf("詳細へのリンクが無い: %s", w.Body.String())
		}
	})
}

// TestGallery はギャラリー詳細ページを検証する。
func TestGallery(t *testing.T) {
	t.Parallel()

	t.Run("ファイルとタグを取得して表示すること", func(t *testing.T) {
		t.Parallel()

		api := &fakeAPI{}
		router := setupTestServer(t, api, nil)

		w := get(router, "/gallery/1?t=6")
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d, body=%s", w.Code, http.StatusOK, w.Body.String())
		}
		body := w.Body.String()
		for _, want := range []string{"tramo1.mp4", "Ruta 5", "Bache profundo", "Reparado", "Señalética", `class="km">12&#43;345`} {
			if !strings.Contains(body, want) {
				t.Errorf("ページに %q が含まれていない", want)
			}
		}

		api.mu.Lock()
		defer api.mu.Unlock()
		if len(api.auth) != 2 {
			t.Fatalf("API呼び出し回数 = %d, want 2", len(api.auth))
		}
		for _, a := range api.auth {
			if a != "Bearer tok" {
				t.Errorf("Authorization = %q, want %q", a, "Bearer tok")
			}
		}
	})

	t.Run("距離検索の候補が表示されること", func(t *testing.T) {
		t.Parallel()

		router := setupTestServer(t, &fakeAPI{}, nil)
		w := get(router, "/gallery/1?q="+url.QueryEscape("12+3"))
		if !strings.Contains(w.Body.String(), `href="/gallery/1?t=5">12&#43;345</a>`) &&
			!strings.Contains(w.Body.String(), `href="/gallery/1?t=5">12+345</a>`) {
			t.Errorf("検索候補が表示されていない: %s", w.Body.String())
		}
	})

	t.Run("タグの取得に失敗してもページを表示すること", func(t *testing.T) {
		t.Parallel()

		router := setupTestServer(t, &fakeAPI{tagsFails: true}, nil)
		w := get(router, "/gallery/1")
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
		}
		if strings.Contains(w.Body.String(), "Señalética") {
			t.Error("タグの選択肢は表示されないべき")
		}
	})

	t.Run("ファイルの取得に失敗した場合はエラーを表示すること", func(t *testing.T) {
		t.Parallel()

		router := setupTestServer(t, &fakeAPI{}, nil)
		w := get(router, "/gallery/2")
		if w.Code != http.StatusNotFound {
			t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
		}
		if !strings.Contains(w.Body.String(), "Error cargando datos: ファイルが見つかりません") {
			t.Errorf("エラーメッセージが表示されていない: %s", w.Body.String())
		}
	})

	t.Run("数値でないIDは404を返すこと", func(t *testing.T) {
		t.Parallel()

		api := &fakeAPI{}
		router := setupTestServer(t, api, nil)
		w := get(router, "/gallery/abc")
		if w.Code != http.StatusNotFound {
			t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
		}
		api.mu.Lock()
		defer api.mu.Unlock()
		if len(api.auth) != 0 {
			t.Error("APIを呼び出すべきでない")
		}
	})
}

// multipartForm はフォームの値と任意の添付ファイルからリクエストを生成する。
func multipartForm(t *testing.T, path string, values map[string][]string, fileName string) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, vs := range values {
		for _, v := range vs {
			mw.WriteField(k, v)
		}
	}
	if fileName != "" {
		part, err := mw.CreateFormFile("file", fileName)
		if err != nil {
			t.Fatalf("multipartの作成に失敗: %v", err)
		}
		part.Write([]byte("%PDF-1.4"))
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.AddCookie(&http.Cookie{Name: session.CookieName, Value: "tok"})
	return req
}

// TestCommentForms はコメントと返信のフォーム送信を検証する。
func TestCommentForms(t *testing.T) {
	t.Parallel()

	t.Run("PDFを添付したコメントを作成できること", func(t *testing.T) {
		t.Parallel()

		api := &fakeAPI{}
		up := &fakeUploader{}
		router := setupTestServer(t, api, up)

		req := multipartForm(t, "/gallery/1/comments", map[string][]string{
			"comment":   {"Bache"},
			"projectId": {"7"},
			"lat":       {"-33.1"},
			"lon":       {"-70.1"},
			"tags":      {"3"},
			"t":         {"5"},
		}, "informe.pdf")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusSeeOther {
			t.Fatalf("status = %d, want %d, body=%s", w.Code, http.StatusSeeOther, w.Body.String())
		}
		if got := w.Header().Get("Location"); got != "/gallery/1?t=5" {
			t.Errorf("Location = %q, want /gallery/1?t=5", got)
		}
		if up.name != "informe.pdf" {
			t.Errorf("アップロードされたファイル = %q, want informe.pdf", up.name)
		}

		api.mu.Lock()
		defer api.mu.Unlock()
		var sent commentPayload
		if err := json.Unmarshal(api.posted["/api/point-marker"], &sent); err != nil {
			t.Fatalf("APIへのリクエストのパースに失敗: %v", err)
		}
		if sent.Comment != "Bache" || sent.ProjectID != 7 || sent.Lat != -33.1 || len(sent.Tags) != 1 {
			t.Errorf("送信内容 = %+v", sent)
		}
		if sent.URLFile == nil || *sent.URLFile != "https://cdn.example.com/informe.pdf" {
			t.Errorf("URLFile = %v", sent.URLFile)
		}
	})

	t.Run("添付なしで返信を作成できること", func(t *testing.T) {
		t.Parallel()

		api := &fakeAPI{}
		router := setupTestServer(t, api, nil)

		form := url.Values{"comment": {"Reparado"}, "parentId": {"10"}}
		req := httptest.NewRequest(http.MethodPost, "/gallery/1/replies", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusSeeOther {
			t.Fatalf("status = %d, want %d, body=%s", w.Code, http.StatusSeeOther, w.Body.String())
		}
		api.mu.Lock()
		defer api.mu.Unlock()
		var sent replyPayload
		if err := json.Unmarshal(api.posted["/api/point-marker/reply"], &sent); err != nil {
			t.Fatalf("APIへのリクエストのパースに失敗: %v", err)
		}
		if sent.ParentID != 10 || sent.URLFile != nil {
			t.Errorf("送信内容 = %+v", sent)
		}
	})

	t.Run("PDF以外の添付は400を返すこと", func(t *testing.T) {
		t.Parallel()

		router := setupTestServer(t, &fakeAPI{}, &fakeUploader{})
		req := multipartForm(t, "/gallery/1/replies", map[string][]string{
			"comment":  {"x"},
			"parentId": {"10"},
		}, "foto.png")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
		}
	})

	t.Run("コメントが空の場合は400を返すこと", func(t *testing.T) {
		t.Parallel()

		router := setupTestServer(t, &fakeAPI{}, nil)
		req := multipartForm(t, "/gallery/1/comments", map[string][]string{"projectId": {"7"}}, "")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
		}
	})

	t.Run("座標が無いコメントは400を返すこと", func(t *testing.T) {
		t.Parallel()

		router := setupTestServer(t, &fakeAPI{}, nil)
		req := multipartForm(t, "/gallery/1/comments", map[string][]string{
			"comment":   {"x"},
			"projectId": {"7"},
		}, "")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
		}
	})

	t.Run("座標が無い場合は添付ファイルをアップロードしないこと", func(t *testing.T) {
		t.Parallel()

		api := &fakeAPI{}
		up := &fakeUploader{}
		router := setupTestServer(t, api, up)
		req := multipartForm(t, "/gallery/1/comments", map[string][]string{
			"comment":   {"Bache"},
			"projectId": {"7"},
		}, "informe.pdf")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
		}
		if up.name != "" {
			t.Errorf("検証前にアップロードされた: %q", up.name)
		}
		api.mu.Lock()
		defer api.mu.Unlock()
		if _, ok := api.posted["/api/point-marker"]; ok {
			t.Error("APIが呼び出された")
		}
	})

	t.Run("返信先が無い場合は添付ファイルをアップロードしないこと", func(t *testing.T) {
		t.Parallel()

		up := &fakeUploader{}
		router := setupTestServer(t, &fakeAPI{}, up)
		req := multipartForm(t, "/gallery/1/replies", map[string][]string{"comment": {"x"}}, "informe.pdf")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
		}
		if up.name != "" {
			t.Errorf("検証前にアップロードされた: %q", up.name)
		}
	})

	t.Run("有限でない座標は400を返すこと", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			name string
			lat  string
			lon  string
		}{
			{name: "NaN", lat: "NaN", lon: "-70.1"},
			{name: "Inf", lat: "-33.1", lon: "Inf"},
			{name: "-Inf", lat: "-Inf", lon: "-70.1"},
		}
		for _, tt := range tests {
			router := setupTestServer(t, &fakeAPI{}, nil)
			req := multipartForm(t, "/gallery/1/comments", map[string][]string{
				"comment":   {"x"},
				"projectId": {"7"},
				"lat":       {tt.lat},
				"lon":       {tt.lon},
			}, "")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != http.StatusBadRequest {
				t.Errorf("%s: status = %d, want %d", tt.name, w.Code, http.StatusBadRequest)
			}
		}
	})
}
