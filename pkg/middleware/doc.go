// Package middleware はGinベースのHTTPサーバーで使用する共通ミドルウェアを提供する。
//
// 認証ゲートの適用、構造化リクエストログ、パニックリカバリ、
// CORS設定など、APIとページの両方で共通して使用するミドルウェアを含む。
package middleware
