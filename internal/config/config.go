// Package config はvisor360の設定を読み込む。
//
// 設定は組み込みのデフォルト値の上に環境変数を重ねて構築する（ENV > デフォルト）。
// セッション署名用シークレットが未設定でもエラーにはせず、認証ゲートが
// すべての保護パスをログインページへリダイレクトする状態で起動する。
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// Config はアプリケーション全体の設定。
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Session  SessionConfig  `koanf:"session"`
	Gate     GateConfig     `koanf:"gate"`
	Logging  LoggingConfig  `koanf:"logging"`
	Storage  StorageConfig  `koanf:"storage"`
}

// ServerConfig はHTTPサーバーの設定。
type ServerConfig struct {
	// Port はリッスンポート。
	Port string `koanf:"port"`
	// APIBaseURL はページがデータ取得に使用するREST APIのベースURL。
	// 空の場合は自プロセスのAPIを使用する。
	APIBaseURL string `koanf:"api_base_url"`
	// CORSOrigins はクロスオリジンアクセスを許可するオリジン。
	CORSOrigins []string `koanf:"cors_origins"`
}

// DatabaseConfig はSQLiteの設定。
type DatabaseConfig struct {
	Path string `koanf:"path"`
}

// SessionConfig はセッショントークンの設定。
type SessionConfig struct {
	// Secret はトークン署名用のシークレット。
	Secret string `koanf:"secret"`
	// LegacySecret はNEXTAUTH_SECRETから読み込んだシークレット。Secretが空の場合に使用する。
	LegacySecret string `koanf:"legacy_secret"`
	// TTL はトークンの有効期間。
	TTL time.Duration `koanf:"ttl"`
}

// GateConfig は認証ゲートの設定。
type GateConfig struct {
	// DotHeuristic が有効な場合、"." を含むパスを静的ファイルとして認証を省略する。
	DotHeuristic bool `koanf:"dot_heuristic"`
	// PublicPaths は認証不要のパス。
	PublicPaths []string `koanf:"public_paths"`
}

// LoggingConfig はログ出力の設定。
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// StorageConfig は添付ファイルのアップロード先の設定。Bucketが空の場合はアップロードを無効にする。
type StorageConfig struct {
	Bucket    string `koanf:"bucket"`
	Region    string `koanf:"region"`
	Endpoint  string `koanf:"endpoint"`
	PublicURL string `koanf:"public_url"`
}

// SecretConfigured はセッション署名用シークレットが設定されているかを返す。
func (c *Config) SecretConfigured() bool {
	return c.Session.Secret != ""
}

func defaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Port:        "8080",
			CORSOrigins: []string{"http://localhost:3000"},
		},
		Database: DatabaseConfig{Path: "/data/visor360.db"},
		Session:  SessionConfig{TTL: 30 * 24 * time.Hour},
		Gate: GateConfig{
			DotHeuristic: true,
			PublicPaths:  []string{"/login"},
		},
		Logging: LoggingConfig{Level: "info", Format: "json"},
		Storage: StorageConfig{Region: "us-east-1"},
	}
}

// envKeys は環境変数名と設定キーの対応。
var envKeys = map[string]string{
	"port":               "server.port",
	"api_base_url":       "server.api_base_url",
	"cors_origins":       "server.cors_origins",
	"database_path":      "database.path",
	"session_secret":     "session.secret",
	"nextauth_secret":    "session.legacy_secret",
	"session_ttl":        "session.ttl",
	"gate_dot_heuristic": "gate.dot_heuristic",
	"gate_public_paths":  "gate.public_paths",
	"log_level":          "logging.level",
	"log_format":         "logging.format",
	"s3_bucket":          "storage.bucket",
	"s3_region":          "storage.region",
	"s3_endpoint":        "storage.endpoint",
	"s3_public_url":      "storage.public_url",
}

// sliceKeys はカンマ区切りでスライスとして解釈する設定キー。
var sliceKeys = map[string]bool{
	"server.cors_origins": true,
	"gate.public_paths":   true,
}

// envTransform は環境変数を設定キーに変換する。対応表に無い環境変数は無視する。
func envTransform(key, value string) (string, any) {
	path, ok := envKeys[strings.ToLower(key)]
	if !ok {
		return "", nil
	}
	if sliceKeys[path] {
		return path, splitList(value)
	}
	return path, value
}

func splitList(v string) []string {
	out := []string{}
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Load はデフォルト値と環境変数から設定を読み込む。
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("デフォルト設定の読み込みに失敗: %w", err)
	}
	if err := k.Load(env.ProviderWithValue("", ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("環境変数の読み込みに失敗: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("設定の変換に失敗: %w", err)
	}
	if cfg.Session.Secret == "" {
		cfg.Session.Secret = cfg.Session.LegacySecret
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("設定の検証に失敗: %w", err)
	}
	return cfg, nil
}

// Validate は設定値を検証する。シークレットの未設定はエラーにしない。
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port == "" {
		errs = append(errs, errors.New("PORTが空です"))
	}
	if c.Database.Path == "" {
		errs = append(errs, errors.New("DATABASE_PATHが空です"))
	}
	if c.Session.TTL <= 0 {
		errs = append(errs, fmt.Errorf("SESSION_TTLは正の値である必要があります: %s", c.Session.TTL))
	}
	for _, p := range c.Gate.PublicPaths {
		if !strings.HasPrefix(p, "/") {
			errs = append(errs, fmt.Errorf("GATE_PUBLIC_PATHSは/で始まる必要があります: %q", p))
		}
	}
	return errors.Join(errs...)
}
