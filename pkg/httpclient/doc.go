// Package httpclient はページ描画時にREST APIを呼び出すHTTPクライアントを提供する。
//
// 呼び出し元のセッショントークンをコンテキスト経由でAPIへ伝播し、
// APIのエラーレスポンスはステータスコードを保持した StatusError として返す。
package httpclient
