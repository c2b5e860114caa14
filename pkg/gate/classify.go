package gate

import "strings"

// Classification はリクエストパスの分類結果を表す。
type Classification int

const (
	// Protected は認証が必要なパス。
	Protected Classification = iota
	// ExemptStatic はフレームワーク内部アセットや静的ファイルのパス。
	ExemptStatic
	// ExemptAuth は認証APIのパス。
	ExemptAuth
	// ExemptPublic は公開パス許可リストに完全一致したパス。
	ExemptPublic
)

// String は分類名を返す。ログ出力に使用する。
func (c Classification) String() string {
	switch c {
	case ExemptStatic:
		return "exempt_static"
	case ExemptAuth:
		return "exempt_auth"
	case ExemptPublic:
		return "exempt_public"
	default:
		return "protected"
	}
}

// Exempt は認証チェックを省略してよい分類かどうかを返す。
func (c Classification) Exempt() bool {
	return c != Protected
}

const (
	// DefaultFrameworkPrefix はフレームワーク内部アセットのパス接頭辞。
	DefaultFrameworkPrefix = "/_app"
	// DefaultStaticPrefix は静的アセットのパス接頭辞。
	DefaultStaticPrefix = "/static"
	// DefaultAuthAPIPrefix は認証APIのパス接頭辞。
	DefaultAuthAPIPrefix = "/api/auth"
	// DefaultLoginPath はログインページのパス。
	DefaultLoginPath = "/login"
)

// Rules はパス分類の規則。プロセス起動時に一度だけ構築し、以後変更しない。
type Rules struct {
	// FrameworkPrefix はフレームワーク内部アセットのパス接頭辞。
	FrameworkPrefix string
	// StaticPrefix は静的アセットのパス接頭辞。
	StaticPrefix string
	// AuthAPIPrefix は認証APIのパス接頭辞。
	AuthAPIPrefix string
	// PublicPaths は認証不要で完全一致させるパスの許可リスト。
	PublicPaths []string
	// LoginPath は未認証時のリダイレクト先。
	LoginPath string
	// DotHeuristic が有効な場合、"." を含むパスをファイルとみなして除外する。
	DotHeuristic bool
}

// DefaultRules はデフォルトの分類規則を返す。
func DefaultRules() Rules {
	return Rules{
		FrameworkPrefix: DefaultFrameworkPrefix,
		StaticPrefix:    DefaultStaticPrefix,
		AuthAPIPrefix:   DefaultAuthAPIPrefix,
		PublicPaths:     []string{DefaultLoginPath},
		LoginPath:       DefaultLoginPath,
		DotHeuristic:    true,
	}
}

// Classify はリクエストパスを分類する。
func (r Rules) Classify(path string) Classification {
	switch {
	case hasPrefix(path, r.FrameworkPrefix), hasPrefix(path, r.StaticPrefix):
		return ExemptStatic
	case hasPrefix(path, r.AuthAPIPrefix):
		return ExemptAuth
	case r.DotHeuristic && strings.Contains(path, "."):
		return ExemptStatic
	}
	for _, p := range r.PublicPaths {
		if path == p {
			return ExemptPublic
		}
	}
	return Protected
}

// Matches はゲートを適用するパスかどうかを返す。
// ログインページ、フレームワーク内部パス、認証API、静的アセットで始まるパスは
// ルーティング段階でゲートの対象外とする。
func (r Rules) Matches(path string) bool {
	rest := strings.TrimPrefix(path, "/")
	for _, p := range []string{r.LoginPath, r.FrameworkPrefix, r.AuthAPIPrefix, r.StaticPrefix} {
		p = strings.TrimPrefix(p, "/")
		if p != "" && strings.HasPrefix(rest, p) {
			return false
		}
	}
	return true
}

// hasPrefix は空の接頭辞を一致とみなさないstrings.HasPrefix。
func hasPrefix(path, prefix string) bool {
	return prefix != "" && strings.HasPrefix(path, prefix)
}
