// Package logging はzerologベースのロガーを構築する。
//
// 構築したロガーはゲート、API、ページの各コンポーネントに明示的に渡して使用する。
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Config はロガーの設定。
type Config struct {
	// Level は最小ログレベル（debug, info, warn, error）。
	Level string
	// Format は出力形式（json または console）。
	Format string
	// Output はログの出力先。nilの場合は標準エラー出力。
	Output io.Writer
}

// New は設定からロガーを生成する。不明なレベルはinfoとして扱う。
func New(cfg Config) zerolog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	if strings.EqualFold(cfg.Format, "console") {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(cfg.Level)))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	return zerolog.New(out).Level(level).With().Timestamp().Str("service", "visor360").Logger()
}
