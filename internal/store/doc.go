// Package store はvisor360のSQLite永続化層を提供する。
//
// ユーザー、プロジェクト、マーカー、タグ、ファイル（ギャラリー）、GPSポイント、
// ポイントマーカー（コメントと返信）を管理する。スキーマはembedされた
// マイグレーションファイルとしてpkg/migrationで適用する。
package store
