package gate

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/nao1215/visor360/pkg/session"
	"github.com/rs/zerolog"
)

// Outcome はゲートの判定結果を表す。
type Outcome int

const (
	// Allow はリクエストをそのまま次のハンドラに渡す。
	Allow Outcome = iota
	// Redirect はログインページにリダイレクトする。
	Redirect
)

// String は判定結果の名前を返す。
func (o Outcome) String() string {
	if o == Redirect {
		return "redirect"
	}
	return "allow"
}

// TokenVerifier はセッショントークンを検証する。
// 検証に失敗した場合はエラーを返す。
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*session.Claims, error)
}

// Decision は1リクエストに対するゲートの判定。
type Decision struct {
	// Outcome は通過かリダイレクトか。
	Outcome Outcome
	// Classification はパスの分類結果。
	Classification Classification
	// Claims は認証済みの場合のみ設定される。
	Claims *session.Claims
	// Reason は保護パスで検証に失敗した理由。
	Reason error
}

// Gate はリクエストごとに通過かリダイレクトかを決定する。
// 生成後は不変であり、複数のゴルーチンから同時に使用できる。
type Gate struct {
	rules    Rules
	verifier TokenVerifier
	logger   zerolog.Logger
}

// New は新しいGateを生成する。
func New(rules Rules, verifier TokenVerifier, logger zerolog.Logger) *Gate {
	return &Gate{
		rules:    rules,
		verifier: verifier,
		logger:   logger.With().Str("component", "gate").Logger(),
	}
}

// Rules はゲートの分類規則を返す。
func (g *Gate) Rules() Rules {
	return g.rules
}

// Decide はパスとセッショントークンから判定を下す。
// どのような入力に対してもpanicやエラーにはならず、検証できない場合は
// 必ずRedirectを返す。
func (g *Gate) Decide(ctx context.Context, path, token string) Decision {
	g.logger.Debug().Str("path", path).Msg("gate start")

	class := g.rules.Classify(path)
	if class.Exempt() {
		g.logger.Debug().Str("path", path).Stringer("class", class).Msg("gate bypass")
		return Decision{Outcome: Allow, Classification: class}
	}

	claims, err := g.verify(ctx, token)
	if err != nil {
		if errors.Is(err, session.ErrSecretMissing) {
			g.logger.Error().Str("path", path).Msg("セッション署名用シークレットが設定されていません")
		}
		g.logger.Debug().Str("path", path).Err(err).Msg("gate redirect")
		return Decision{Outcome: Redirect, Classification: class, Reason: err}
	}

	g.logger.Debug().Str("path", path).Int64("user_id", claims.UserID).Msg("gate authorized")
	return Decision{Outcome: Allow, Classification: class, Claims: claims}
}

// verify はトークン検証を行う。検証器がnilの場合や検証器自体がpanicした場合も
// 検証失敗として扱う。
func (g *Gate) verify(ctx context.Context, token string) (claims *session.Claims, err error) {
	if g.verifier == nil {
		return nil, session.ErrSecretMissing
	}
	defer func() {
		if r := recover(); r != nil {
			g.logger.Error().Interface("panic", r).Msg("トークン検証中にpanicが発生しました")
			claims, err = nil, session.ErrInvalidToken
		}
	}()

	claims, err = g.verifier.Verify(ctx, token)
	if err == nil && claims == nil {
		err = session.ErrInvalidToken
	}
	return claims, err
}

// LoginURL はリクエストのオリジンを基にログインページのURLを構築する。
func (g *Gate) LoginURL(r *http.Request) string {
	scheme := "http"
	if session.IsSecure(r) {
		scheme = "https"
	}
	u := url.URL{Scheme: scheme, Host: r.Host, Path: g.rules.LoginPath}
	return u.String()
}
