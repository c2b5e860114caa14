package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/visor360/internal/api"
	"github.com/nao1215/visor360/internal/config"
	"github.com/nao1215/visor360/internal/logging"
	"github.com/nao1215/visor360/internal/storage"
	"github.com/nao1215/visor360/internal/store"
	"github.com/nao1215/visor360/internal/web"
	"github.com/nao1215/visor360/pkg/gate"
	"github.com/nao1215/visor360/pkg/middleware"
	"github.com/nao1215/visor360/pkg/session"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// shutdownTimeout はシャットダウン時に処理中のリクエストを待つ時間。
const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "HTTPサーバーを起動する",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := logging.New(logging.Config{
				Level:  cfg.Logging.Level,
				Format: cfg.Logging.Format,
				Output: cmd.ErrOrStderr(),
			})

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, logger)
		},
	}
}

// serve は依存関係を組み立ててHTTPサーバーを起動し、ctxが終了するまで待つ。
func serve(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	if !cfg.SecretConfigured() {
		logger.Error().Msg("SESSION_SECRET（またはNEXTAUTH_SECRET）が未設定です。保護されたページはすべてログインページへリダイレクトされます")
	}

	st, err := store.Open(ctx, cfg.Database.Path, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	var uploader storage.Uploader
	if cfg.Storage.Bucket != "" {
		u, err := storage.NewS3Uploader(ctx, storage.S3Config{
			Bucket:    cfg.Storage.Bucket,
			Region:    cfg.Storage.Region,
			Endpoint:  cfg.Storage.Endpoint,
			PublicURL: cfg.Storage.PublicURL,
		})
		if err != nil {
			return err
		}
		uploader = u
	} else {
		logger.Warn().Msg("S3_BUCKETが未設定のため添付ファイルのアップロードは無効です")
	}

	router, err := newRouter(cfg, st, uploader, logger)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().Str("addr", srv.Addr).Msg("visor360を起動します")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTPサーバーの起動に失敗: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("シャットダウンします")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// newRouter は認証ゲート、REST API、ページを1つのGinエンジンにまとめる。
func newRouter(cfg *config.Config, st *store.Store, uploader storage.Uploader, logger zerolog.Logger) (*gin.Engine, error) {
	rules := gate.DefaultRules()
	rules.DotHeuristic = cfg.Gate.DotHeuristic
	if len(cfg.Gate.PublicPaths) > 0 {
		rules.PublicPaths = cfg.Gate.PublicPaths
	}
	g := gate.New(rules, session.NewVerifier(cfg.Session.Secret), logger)

	router := gin.New()
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.CORS(cfg.Server.CORSOrigins))
	router.Use(middleware.Gate(g))

	api.NewServer(api.Deps{
		Store:    st,
		Secret:   cfg.Session.Secret,
		TTL:      cfg.Session.TTL,
		Uploader: uploader,
		Logger:   logger,
	}).Register(router)

	apiBaseURL := cfg.Server.APIBaseURL
	if apiBaseURL == "" {
		apiBaseURL = "http://127.0.0.1:" + cfg.Server.Port
	}
	pages, err := web.NewServer(web.Deps{
		APIBaseURL: apiBaseURL,
		Uploader:   uploader,
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}
	pages.Register(router)

	return router, nil
}
