package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Issuer はセッショントークンの発行者名。
const Issuer = "visor360"

// DefaultTTL はセッショントークンのデフォルト有効期間。
const DefaultTTL = 30 * 24 * time.Hour

var (
	// ErrSecretMissing は署名用シークレットが設定されていないことを表す。
	ErrSecretMissing = errors.New("session: 署名用シークレットが設定されていません")
	// ErrNoToken はリクエストにセッショントークンが含まれていないことを表す。
	ErrNoToken = errors.New("session: トークンがありません")
	// ErrInvalidToken はトークンの署名や有効期限が不正であることを表す。
	ErrInvalidToken = errors.New("session: トークンが無効です")
)

// Claims はセッショントークンのクレーム。
type Claims struct {
	jwt.RegisteredClaims
	// UserID は認証済みユーザーのID。
	UserID int64 `json:"user_id"`
	// Email はユーザーのメールアドレス。
	Email string `json:"email"`
	// Name はユーザーの表示名。
	Name string `json:"name"`
	// Role はユーザーのロール。
	Role string `json:"role"`
}

// Subject はトークンを発行する対象ユーザー。
type Subject struct {
	UserID int64
	Email  string
	Name   string
	Role   string
}

// Issue はユーザー情報からセッショントークンを生成する。
func Issue(secret string, sub Subject, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", ErrSecretMissing
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   strconv.FormatInt(sub.UserID, 10),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    Issuer,
		},
		UserID: sub.UserID,
		Email:  sub.Email,
		Name:   sub.Name,
		Role:   sub.Role,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("セッショントークンの署名に失敗: %w", err)
	}
	return signed, nil
}

// Verifier はプロセス全体で共有する署名用シークレットでトークンを検証する。
type Verifier struct {
	secret []byte
}

// NewVerifier は新しいVerifierを生成する。secretが空でも生成でき、その場合は
// すべての検証がErrSecretMissingで失敗する。
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// SecretConfigured は署名用シークレットが設定されているかを返す。
func (v *Verifier) SecretConfigured() bool {
	return len(v.secret) > 0
}

// Verify はトークンを検証し、クレームを返す。
func (v *Verifier) Verify(_ context.Context, tokenString string) (*Claims, error) {
	if !v.SecretConfigured() {
		return nil, ErrSecretMissing
	}
	if tokenString == "" {
		return nil, ErrNoToken
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(_ *jwt.Token) (any, error) {
		return v.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return claims, nil
}
