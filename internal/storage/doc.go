// Package storage はコメントの添付ファイルをオブジェクトストレージに保存する。
package storage
