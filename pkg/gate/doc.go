// Package gate はすべてのHTTPリクエストに対する認証ゲートを提供する。
//
// リクエストパスを分類し、除外パスであれば無条件に通過させ、
// 保護パスであればセッショントークンを検証して通過かログインページへの
// リダイレクトかを決定する。判定はリクエストごとに独立した純粋関数であり、
// 共有される可変状態を持たない。
package gate
