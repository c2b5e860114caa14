// Package gallery はギャラリー詳細で使用する距離表記とGPSポイント検索を提供する。
package gallery
