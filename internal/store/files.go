package store

import (
	"context"
	"database/sql"
	"fmt"
)

// FileParams はファイルの作成・更新パラメータ。
type FileParams struct {
	FileName   string
	StartPlace *float64
	ProjectID  *int64
	TagIDs     []int64
}

const fileColumns = `id, file_name, start_place, project_id, created_at`

func scanFile(row interface{ Scan(...any) error }) (File, error) {
	var (
		f          File
		startPlace sql.NullFloat64
		projectID  sql.NullInt64
	)
	if err := row.Scan(&f.ID, &f.FileName, &startPlace, &projectID, &f.CreatedAt); err != nil {
		return File{}, err
	}
	if startPlace.Valid {
		f.StartPlace = &startPlace.Float64
	}
	if projectID.Valid {
		f.ProjectID = &projectID.Int64
	}
	f.Tags = []Tag{}
	return f, nil
}

// CreateFile はファイルを作成し、タグを関連付ける。
func (s *Store) CreateFile(ctx context.Context, p FileParams) (File, error) {
	var id int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO files (file_name, start_place, project_id) VALUES (?, ?, ?)`,
			p.FileName, p.StartPlace, p.ProjectID)
		if err != nil {
			return fmt.Errorf("ファイルの作成に失敗: %w", translateError(err))
		}
		if id, err = res.LastInsertId(); err != nil {
			return err
		}
		return replaceTags(ctx, tx, "file_tags", "file_id", id, p.TagIDs)
	})
	if err != nil {
		return File{}, err
	}
	return s.GetFile(ctx, id)
}

// GetFile はIDでファイルとそのタグを取得する。
func (s *Store) GetFile(ctx context.Context, id int64) (File, error) {
	f, err := scanFile(s.db.QueryRowContext(ctx, `SELECT `+fileColumns+` FROM files WHERE id = ?`, id))
	if err != nil {
		return File{}, translateError(err)
	}
	if f.Tags, err = s.fileTags(ctx, id); err != nil {
		return File{}, err
	}
	return f, nil
}

// ListFiles はギャラリーのファイル一覧を新しい順に取得する。
// projectIDが0でない場合はそのプロジェクトのファイルのみ返す。
func (s *Store) ListFiles(ctx context.Context, projectID int64) ([]File, error) {
	query := `SELECT ` + fileColumns + ` FROM files ORDER BY created_at DESC, id DESC`
	var args []any
	if projectID != 0 {
		query = `SELECT ` + fileColumns + ` FROM files WHERE project_id = ? ORDER BY created_at DESC, id DESC`
		args = append(args, projectID)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ファイル一覧の取得に失敗: %w", err)
	}
	files := []File{}
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		files = append(files, f)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// 接続を1本に制限している場合に備え、行の読み込みを終えてからタグを取得する
	for i := range files {
		if files[i].Tags, err = s.fileTags(ctx, files[i].ID); err != nil {
			return nil, err
		}
	}
	return files, nil
}

// UpdateFile はファイルを更新し、タグの関連を置き換える。
func (s *Store) UpdateFile(ctx context.Context, id int64, p FileParams) (File, error) {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE files SET file_name = ?, start_place = ?, project_id = ? WHERE id = ?`,
			p.FileName, p.StartPlace, p.ProjectID, id)
		if err != nil {
			return fmt.Errorf("ファイルの更新に失敗: %w", translateError(err))
		}
		if err := affectedOrNotFound(res); err != nil {
			return err
		}
		return replaceTags(ctx, tx, "file_tags", "file_id", id, p.TagIDs)
	})
	if err != nil {
		return File{}, err
	}
	return s.GetFile(ctx, id)
}

// DeleteFile はファイルを削除する。GPSポイントとタグの関連も削除される。
func (s *Store) DeleteFile(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM files WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("ファイルの削除に失敗: %w", translateError(err))
	}
	return affectedOrNotFound(res)
}

func (s *Store) fileTags(ctx context.Context, fileID int64) ([]Tag, error) {
	return queryTags(ctx, s.db, `
		SELECT t.id, t.name, t.color FROM tags t
		JOIN file_tags ft ON ft.tag_id = t.id
		WHERE ft.file_id = ? ORDER BY t.name`, fileID)
}

// GpsPointParams はGPSポイントの登録パラメータ。
type GpsPointParams struct {
	Second        float64
	Lat           float64
	Lon           float64
	TotalDistance float64
}

// ReplaceGpsPoints はファイルのGPSトラックを置き換える。
func (s *Store) ReplaceGpsPoints(ctx context.Context, fileID int64, points []GpsPointParams) error {
	if _, err := s.GetFile(ctx, fileID); err != nil {
		return err
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM gps_points WHERE file_id = ?`, fileID); err != nil {
			return fmt.Errorf("GPSポイントの削除に失敗: %w", err)
		}
		for _, p := range points {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO gps_points (file_id, second, lat, lon, total_distance) VALUES (?, ?, ?, ?, ?)`,
				fileID, p.Second, p.Lat, p.Lon, p.TotalDistance); err != nil {
				return fmt.Errorf("GPSポイントの登録に失敗: %w", err)
			}
		}
		return nil
	})
}

// ListGpsPoints はファイルのGPSポイントを再生位置順に取得する。
func (s *Store) ListGpsPoints(ctx context.Context, fileID int64) ([]GpsPoint, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, file_id, second, lat, lon, total_distance FROM gps_points
		WHERE file_id = ? ORDER BY second, id`, fileID)
	if err != nil {
		return nil, fmt.Errorf("GPSポイントの取得に失敗: %w", err)
	}
	defer rows.Close()

	points := []GpsPoint{}
	for rows.Next() {
		var p GpsPoint
		if err := rows.Scan(&p.ID, &p.FileID, &p.Second, &p.Lat, &p.Lon, &p.TotalDistance); err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

// GetFileDetail はギャラリー詳細ページ用に、ファイル、GPSポイント、タグ、
// プロジェクトとそのポイントマーカー（マーカー種別・タグ・返信付き）をまとめて取得する。
func (s *Store) GetFileDetail(ctx context.Context, id int64) (FileDetail, error) {
	f, err := s.GetFile(ctx, id)
	if err != nil {
		return FileDetail{}, err
	}
	points, err := s.ListGpsPoints(ctx, id)
	if err != nil {
		return FileDetail{}, err
	}

	detail := FileDetail{File: f, GpsPoints: points}
	if f.ProjectID == nil {
		return detail, nil
	}

	project, err := s.GetProject(ctx, *f.ProjectID)
	if err != nil {
		return FileDetail{}, err
	}
	markers, err := s.ListPointMarkers(ctx, project.ID)
	if err != nil {
		return FileDetail{}, err
	}
	detail.Project = &ProjectDetail{Project: project, PointMarker: markers}
	return detail, nil
}
