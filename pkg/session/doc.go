// Package session はセッショントークン（HS256署名のJWT）の発行・検証と
// セッションCookieの読み書きを提供する。
package session
