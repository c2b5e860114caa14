package store

import "time"

// User はシステムのユーザー。
type User struct {
	// ID はユーザーの一意識別子。
	ID int64 `json:"id"`
	// Name は表示名。
	Name string `json:"name"`
	// Email はログインに使用するメールアドレス。
	Email string `json:"email"`
	// PasswordHash はbcryptハッシュ。JSONには出力しない。
	PasswordHash string `json:"-"`
	// Role はユーザーのロール。
	Role string `json:"role"`
	// CreatedAt は作成日時。
	CreatedAt time.Time `json:"createdAt"`
}

// Project はルートをまとめるプロジェクト。
type Project struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Marker はポイントマーカーの種類（地図の凡例）。
type Marker struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Icon  string `json:"icon"`
	Color string `json:"color"`
}

// Tag はファイルやコメントに付与するタグ。
type Tag struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	// Color は先頭の # を含まない16進カラーコード。
	Color string `json:"color"`
}

// File はギャラリーに表示する360度動画ファイル。
type File struct {
	ID       int64  `json:"id"`
	FileName string `json:"fileName"`
	// StartPlace はルート開始地点のキロポスト（km）。未設定の場合はnil。
	StartPlace *float64  `json:"startPlace"`
	ProjectID  *int64    `json:"projectId"`
	CreatedAt  time.Time `json:"createdAt"`
	Tags       []Tag     `json:"tags"`
}

// GpsPoint は動画の再生位置とGPS座標の対応。
type GpsPoint struct {
	ID     int64 `json:"id"`
	FileID int64 `json:"fileId"`
	// Second は動画の再生位置（秒）。
	Second float64 `json:"second"`
	Lat    float64 `json:"lat"`
	Lon    float64 `json:"lon"`
	// TotalDistance はファイル先頭からの累積距離（km）。
	TotalDistance float64 `json:"totalDistance"`
}

// PointMarker は地図上のコメント。ParentIDが設定されている場合は返信を表す。
type PointMarker struct {
	ID          int64         `json:"id"`
	ProjectID   *int64        `json:"projectId"`
	MarkerID    *int64        `json:"markerId"`
	ParentID    *int64        `json:"parentId"`
	Comment     string        `json:"comment"`
	URLFile     *string       `json:"urlFile"`
	Lat         *float64      `json:"lat"`
	Lon         *float64      `json:"lon"`
	CreatedByID int64         `json:"createdById"`
	CreatedAt   time.Time     `json:"createdAt"`
	Marker      *Marker       `json:"marker"`
	Tags        []Tag         `json:"tags"`
	Replies     []PointMarker `json:"replies"`
}

// ProjectDetail はプロジェクトとそのポイントマーカー。
type ProjectDetail struct {
	Project
	PointMarker []PointMarker `json:"PointMarker"`
}

// FileDetail はギャラリー詳細ページで使用するファイルの全情報。
type FileDetail struct {
	File
	GpsPoints []GpsPoint     `json:"gpsPoints"`
	Project   *ProjectDetail `json:"project"`
}
