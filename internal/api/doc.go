// Package api はvisor360のREST APIを提供する。
//
// ユーザー、プロジェクト、マーカー、タグ、ギャラリーファイル、ポイントマーカーのCRUDと、
// ログイン・ログアウト、添付ファイルのアップロードを扱う。/api/auth 以外のエンドポイントは
// 認証ゲートを通過したリクエストのみが到達する。
package api
