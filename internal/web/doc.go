// Package web はvisor360のサーバーサイドレンダリングのページを提供する。
//
// 各ページはリクエストごとに Scope を生成し、呼び出し元のセッショントークンを
// 付けてREST APIからデータを取得する。地図や360度動画の描画は行わず、
// データを表やリストとして表示する。
package web
