package session

import (
	"net/http"
	"strings"
	"time"
)

const (
	// CookieName はセッショントークンを格納するCookie名。
	CookieName = "visor360.session-token"
	// SecureCookieName はHTTPS配信時に使用するCookie名。
	SecureCookieName = "__Secure-" + CookieName
)

// TokenFromRequest はリクエストからセッショントークンを取り出す。
// Cookieを優先し、無ければAuthorizationヘッダーのBearerトークンを返す。
func TokenFromRequest(r *http.Request) string {
	for _, name := range []string{SecureCookieName, CookieName} {
		if c, err := r.Cookie(name); err == nil && c.Value != "" {
			return c.Value
		}
	}
	if token, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); found {
		return strings.TrimSpace(token)
	}
	return ""
}

// IsSecure はリクエストがHTTPSで配信されているかを返す。
// リバースプロキシ経由の場合はX-Forwarded-Protoを参照する。
func IsSecure(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	return strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}

// SetCookie はセッショントークンをCookieに設定する。
func SetCookie(w http.ResponseWriter, r *http.Request, token string, ttl time.Duration) {
	secure := IsSecure(r)
	name := CookieName
	if secure {
		name = SecureCookieName
	}
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookie はセッションCookieを削除する。
func ClearCookie(w http.ResponseWriter, r *http.Request) {
	for _, name := range []string{CookieName, SecureCookieName} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   name == SecureCookieName,
			SameSite: http.SameSiteLaxMode,
		})
	}
}
