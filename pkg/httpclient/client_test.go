package httpclient

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// pointMarker はテスト用APIがやり取りするコメント。
type pointMarker struct {
	ID        int64   `json:"id"`
	Comment   string  `json:"comment"`
	Lat       float64 `json:"lat"`
	Lon       float64 `json:"lon"`
	CreatedBy string  `json:"createdBy"`
}

// fakeAPI は {"error": "..."} 形式でエラーを返すREST APIのモック。
type fakeAPI struct {
	mu   sync.Mutex
	auth []string
}

func (f *fakeAPI) authHeaders() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.auth...)
}

// newTestAPI はモックAPIを起動し、接続済みのクライアントを返す。
func newTestAPI(t *testing.T) (*Client, *fakeAPI) {
	t.Helper()

	f := &fakeAPI{}
	router := gin.New()
	router.Use(func(c *gin.Context) {
		f.mu.Lock()
		f.auth = append(f.auth, c.GetHeader("Authorization"))
		f.mu.Unlock()
		c.Next()
	})
	router.GET("/api/file/:id", func(c *gin.Context) {
		if c.Param("id") != "1" {
			c.JSON(http.StatusNotFound, gin.H{"error": "ファイルが見つかりません"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": 1, "fileName": "tramo1.mp4"})
	})
	router.POST("/api/point-marker", func(c *gin.Context) {
		token, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !ok || token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "ログインが必要です"})
			return
		}
		if c.ContentType() != "application/json" {
			c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": "JSONのみ受け付けます"})
			return
		}
		var req pointMarker
		if err := c.ShouldBindJSON(&req); err != nil || req.Comment == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "commentは必須です"})
			return
		}
		req.ID = 10
		req.CreatedBy = token
		c.JSON(http.StatusCreated, req)
	})
	router.GET("/api/tag", func(c *gin.Context) {
		c.String(http.StatusInternalServerError, "  upstream exploded\n")
	})
	router.GET("/api/marker", func(c *gin.Context) {
		c.Status(http.StatusBadGateway)
	})
	router.GET("/api/project", func(c *gin.Context) {
		c.String(http.StatusOK, "<html>no json</html>")
	})

	ts := httptest.NewServer(router)
	t.Cleanup(ts.Close)
	return New(ts.URL + "/"), f
}

// TestClient_Success はAPI呼び出しの成功時の動作を検証する。
func TestClient_Success(t *testing.T) {
	t.Parallel()

	t.Run("ベースURL末尾のスラッシュが除去されること", func(t *testing.T) {
		t.Parallel()

		c, _ := newTestAPI(t)
		if strings.HasSuffix(c.BaseURL(), "/") {
			t.Errorf("BaseURL() = %q", c.BaseURL())
		}
	})

	t.Run("GETのレスポンスがデコードされること", func(t *testing.T) {
		t.Parallel()

		c, _ := newTestAPI(t)
		var file struct {
			ID       int64  `json:"id"`
			FileName string `json:"fileName"`
		}
		if err := c.GetJSON(context.Background(), "/api/file/1", &file); err != nil {
			t.Fatalf("GetJSON()でエラーが発生: %v", err)
		}
		if file.ID != 1 || file.FileName != "tramo1.mp4" {
			t.Errorf("file = %+v", file)
		}
	})

	t.Run("POSTのボディがJSONで送信されレスポンスがデコードされること", func(t *testing.T) {
		t.Parallel()

		c, _ := newTestAPI(t)
		ctx := WithSessionToken(context.Background(), "tok-ana")
		var created pointMarker
		err := c.PostJSON(ctx, "/api/point-marker", pointMarker{Comment: "Bache", Lat: -33.1, Lon: -70.1}, &created)
		if err != nil {
			t.Fatalf("PostJSON()でエラーが発生: %v", err)
		}
		if created.ID != 10 || created.Comment != "Bache" || created.Lat != -33.1 || created.CreatedBy != "tok-ana" {
			t.Errorf("created = %+v", created)
		}
	})

	t.Run("resultがnilの場合はボディを読まないこと", func(t *testing.T) {
		t.Parallel()

		c, _ := newTestAPI(t)
		ctx := WithSessionToken(context.Background(), "tok")
		if err := c.PostJSON(ctx, "/api/point-marker", pointMarker{Comment: "x"}, nil); err != nil {
			t.Errorf("PostJSON()でエラーが発生: %v", err)
		}
	})

	t.Run("JSONでないレスポンスはデコードエラーになること", func(t *testing.T) {
		t.Parallel()

		c, _ := newTestAPI(t)
		var out []any
		err := c.GetJSON(context.Background(), "/api/project", &out)
		if err == nil {
			t.Fatal("エラーが返るべき")
		}
		var se *StatusError
		if errors.As(err, &se) {
			t.Errorf("2xxのデコード失敗がStatusErrorになっている: %v", err)
		}
	})
}

// TestWithSessionToken はセッショントークンの伝播を検証する。
func TestWithSessionToken(t *testing.T) {
	t.Parallel()

	t.Run("GETとPOSTの両方でBearerヘッダーとして送信されること", func(t *testing.T) {
		t.Parallel()

		c, api := newTestAPI(t)
		ctx := WithSessionToken(context.Background(), "tok-1")
		if err := c.GetJSON(ctx, "/api/file/1", nil); err != nil {
			t.Fatalf("GetJSON()でエラーが発生: %v", err)
		}
		if err := c.PostJSON(ctx, "/api/point-marker", pointMarker{Comment: "x"}, nil); err != nil {
			t.Fatalf("PostJSON()でエラーが発生: %v", err)
		}
		got := api.authHeaders()
		if len(got) != 2 || got[0] != "Bearer tok-1" || got[1] != "Bearer tok-1" {
			t.Errorf("Authorization = %v", got)
		}
	})

	t.Run("トークンが無い場合は送信せずAPIの401がStatusErrorになること", func(t *testing.T) {
		t.Parallel()

		c, api := newTestAPI(t)
		err := c.PostJSON(WithSessionToken(context.Background(), ""), "/api/point-marker", pointMarker{Comment: "x"}, nil)
		if !IsStatus(err, http.StatusUnauthorized) {
			t.Fatalf("err = %v, want 401", err)
		}
		if got := api.authHeaders(); len(got) != 1 || got[0] != "" {
			t.Errorf("Authorization = %v", got)
		}
		var se *StatusError
		if errors.As(err, &se) && se.Message != "ログインが必要です" {
			t.Errorf("Message = %q", se.Message)
		}
	})

	t.Run("後から設定したトークンが優先されること", func(t *testing.T) {
		t.Parallel()

		c, api := newTestAPI(t)
		ctx := WithSessionToken(WithSessionToken(context.Background(), "viejo"), "nuevo")
		if err := c.GetJSON(ctx, "/api/file/1", nil); err != nil {
			t.Fatalf("GetJSON()でエラーが発生: %v", err)
		}
		if got := api.authHeaders(); got[0] != "Bearer nuevo" {
			t.Errorf("Authorization = %v", got)
		}
	})
}

// TestStatusError はAPIのエラーレスポンスがStatusErrorに変換されることを検証する。
func TestStatusError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		method     string
		path       string
		body       any
		wantStatus int
		wantMsg    string
	}{
		{name: "404のerrorフィールド", method: http.MethodGet, path: "/api/file/2", wantStatus: http.StatusNotFound, wantMsg: "ファイルが見つかりません"},
		{name: "400のerrorフィールド", method: http.MethodPost, path: "/api/point-marker", body: pointMarker{}, wantStatus: http.StatusBadRequest, wantMsg: "commentは必須です"},
		{name: "テキストのボディは前後の空白を除いたもの", method: http.MethodGet, path: "/api/tag", wantStatus: http.StatusInternalServerError, wantMsg: "upstream exploded"},
		{name: "空のボディ", method: http.MethodGet, path: "/api/marker", wantStatus: http.StatusBadGateway, wantMsg: ""},
		{name: "未登録のパス", method: http.MethodGet, path: "/api/nada", wantStatus: http.StatusNotFound, wantMsg: "404 page not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c, _ := newTestAPI(t)
			ctx := WithSessionToken(context.Background(), "tok")
			var err error
			if tt.method == http.MethodPost {
				err = c.PostJSON(ctx, tt.path, tt.body, nil)
			} else {
				err = c.GetJSON(ctx, tt.path, nil)
			}

			var se *StatusError
			if !errors.As(err, &se) {
				t.Fatalf("err = %v, want *StatusError", err)
			}
			if se.StatusCode != tt.wantStatus || se.Message != tt.wantMsg {
				t.Errorf("StatusError = %+v, want status=%d message=%q", se, tt.wantStatus, tt.wantMsg)
			}
			if !IsStatus(err, tt.wantStatus) {
				t.Errorf("IsStatus(err, %d) = false", tt.wantStatus)
			}
			if !strings.Contains(se.Error(), tt.wantMsg) {
				t.Errorf("Error() = %q", se.Error())
			}
		})
	}
}

// TestErrorMessage はエラーボディからのメッセージ抽出を検証する。
func TestErrorMessage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "errorフィールド", body: `{"error":"IDが不正です"}`, want: "IDが不正です"},
		{name: "errorフィールドが空", body: `{"error":""}`, want: `{"error":""}`},
		{name: "errorフィールドが無いJSON", body: `{"message":"x"}`, want: `{"message":"x"}`},
		{name: "errorが文字列でない", body: `{"error":{"code":1}}`, want: `{"error":{"code":1}}`},
		{name: "HTML", body: "\n<h1>Bad Gateway</h1>\n", want: "<h1>Bad Gateway</h1>"},
		{name: "空", body: "", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := errorMessage([]byte(tt.body)); got != tt.want {
				t.Errorf("errorMessage(%q) = %q, want %q", tt.body, got, tt.want)
			}
		})
	}
}

// TestIsStatus はIsStatusの判定を検証する。
func TestIsStatus(t *testing.T) {
	t.Parallel()

	wrapped := errors.Join(errors.New("ページ描画"), &StatusError{StatusCode: http.StatusConflict})
	if !IsStatus(wrapped, http.StatusConflict) {
		t.Error("ラップされたStatusErrorを判定できない")
	}
	if IsStatus(wrapped, http.StatusNotFound) {
		t.Error("異なるステータスでtrueになっている")
	}
	if IsStatus(errors.New("接続失敗"), http.StatusConflict) {
		t.Error("StatusError以外でtrueになっている")
	}
	if IsStatus(nil, http.StatusOK) {
		t.Error("nilでtrueになっている")
	}
}

// TestClient_RequestErrors はリクエスト送信前後の失敗を検証する。
func TestClient_RequestErrors(t *testing.T) {
	t.Parallel()

	t.Run("シリアライズできない座標ではリクエストを送信しないこと", func(t *testing.T) {
		t.Parallel()

		c, api := newTestAPI(t)
		err := c.PostJSON(context.Background(), "/api/point-marker", pointMarker{Comment: "x", Lat: math.NaN()}, nil)
		if err == nil {
			t.Fatal("エラーが返るべき")
		}
		if got := api.authHeaders(); len(got) != 0 {
			t.Errorf("リクエストが送信された: %v", got)
		}
	})

	t.Run("キャンセルされたコンテキストではエラーになること", func(t *testing.T) {
		t.Parallel()

		c, _ := newTestAPI(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := c.GetJSON(ctx, "/api/file/1", nil)
		if !errors.Is(err, context.Canceled) {
			t.Errorf("err = %v, want context.Canceled", err)
		}
	})

	t.Run("接続できないサーバーではStatusError以外のエラーになること", func(t *testing.T) {
		t.Parallel()

		ts := httptest.NewServer(http.NotFoundHandler())
		url := ts.URL
		ts.Close()

		err := New(url).GetJSON(context.Background(), "/api/file/1", nil)
		if err == nil {
			t.Fatal("エラーが返るべき")
		}
		if IsStatus(err, http.StatusNotFound) {
			t.Errorf("接続エラーがStatusErrorになっている: %v", err)
		}
	})
}
