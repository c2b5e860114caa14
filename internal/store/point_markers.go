package store

import (
	"context"
	"database/sql"
	"fmt"
)

// CreatePointMarkerParams は地図上のコメント作成パラメータ。
type CreatePointMarkerParams struct {
	ProjectID   int64
	MarkerID    *int64
	Comment     string
	URLFile     *string
	Lat         float64
	Lon         float64
	CreatedByID int64
	TagIDs      []int64
}

// CreateReplyParams はコメントへの返信作成パラメータ。
type CreateReplyParams struct {
	ParentID    int64
	Comment     string
	URLFile     *string
	CreatedByID int64
	TagIDs      []int64
}

const pointMarkerColumns = `pm.id, pm.project_id, pm.marker_id, pm.parent_id, pm.comment, pm.url_file,
	pm.lat, pm.lon, pm.created_by_id, pm.created_at,
	m.id, m.name, m.icon, m.color`

const pointMarkerFrom = ` FROM point_markers pm LEFT JOIN markers m ON m.id = pm.marker_id`

func scanPointMarker(row interface{ Scan(...any) error }) (PointMarker, error) {
	var (
		pm                   PointMarker
		projectID, markerID  sql.NullInt64
		parentID             sql.NullInt64
		urlFile              sql.NullString
		lat, lon             sql.NullFloat64
		mID                  sql.NullInt64
		mName, mIcon, mColor sql.NullString
	)
	err := row.Scan(&pm.ID, &projectID, &markerID, &parentID, &pm.Comment, &urlFile,
		&lat, &lon, &pm.CreatedByID, &pm.CreatedAt,
		&mID, &mName, &mIcon, &mColor)
	if err != nil {
		return PointMarker{}, err
	}
	if projectID.Valid {
		pm.ProjectID = &projectID.Int64
	}
	if markerID.Valid {
		pm.MarkerID = &markerID.Int64
	}
	if parentID.Valid {
		pm.ParentID = &parentID.Int64
	}
	if urlFile.Valid {
		pm.URLFile = &urlFile.String
	}
	if lat.Valid {
		pm.Lat = &lat.Float64
	}
	if lon.Valid {
		pm.Lon = &lon.Float64
	}
	if mID.Valid {
		pm.Marker = &Marker{ID: mID.Int64, Name: mName.String, Icon: mIcon.String, Color: mColor.String}
	}
	pm.Tags = []Tag{}
	pm.Replies = []PointMarker{}
	return pm, nil
}

// CreatePointMarker はプロジェクトの地図上にコメントを作成する。
func (s *Store) CreatePointMarker(ctx context.Context, p CreatePointMarkerParams) (PointMarker, error) {
	var id int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO point_markers (project_id, marker_id, comment, url_file, lat, lon, created_by_id)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			p.ProjectID, p.MarkerID, p.Comment, p.URLFile, p.Lat, p.Lon, p.CreatedByID)
		if err != nil {
			return fmt.Errorf("コメントの作成に失敗: %w", translateError(err))
		}
		if id, err = res.LastInsertId(); err != nil {
			return err
		}
		return replaceTags(ctx, tx, "point_marker_tags", "point_marker_id", id, p.TagIDs)
	})
	if err != nil {
		return PointMarker{}, err
	}
	return s.GetPointMarker(ctx, id)
}

// CreateReply はコメントに返信する。返信は親コメントのプロジェクトと位置を引き継ぐ。
// 返信への返信は、元のコメントへの返信として登録する。
func (s *Store) CreateReply(ctx context.Context, p CreateReplyParams) (PointMarker, error) {
	parent, err := s.GetPointMarker(ctx, p.ParentID)
	if err != nil {
		return PointMarker{}, err
	}
	rootID := parent.ID
	if parent.ParentID != nil {
		rootID = *parent.ParentID
	}

	var id int64
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO point_markers (project_id, marker_id, parent_id, comment, url_file, lat, lon, created_by_id)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			parent.ProjectID, parent.MarkerID, rootID, p.Comment, p.URLFile, parent.Lat, parent.Lon, p.CreatedByID)
		if err != nil {
			return fmt.Errorf("返信の作成に失敗: %w", translateError(err))
		}
		if id, err = res.LastInsertId(); err != nil {
			return err
		}
		return replaceTags(ctx, tx, "point_marker_tags", "point_marker_id", id, p.TagIDs)
	})
	if err != nil {
		return PointMarker{}, err
	}
	return s.GetPointMarker(ctx, id)
}

// GetPointMarker はIDでコメントを取得する。タグと返信も含む。
func (s *Store) GetPointMarker(ctx context.Context, id int64) (PointMarker, error) {
	pm, err := scanPointMarker(s.db.QueryRowContext(ctx,
		`SELECT `+pointMarkerColumns+pointMarkerFrom+` WHERE pm.id = ?`, id))
	if err != nil {
		return PointMarker{}, translateError(err)
	}
	if err := s.fillPointMarkers(ctx, []*PointMarker{&pm}); err != nil {
		return PointMarker{}, err
	}
	if pm.Replies, err = s.listPointMarkers(ctx, `pm.parent_id = ?`, pm.ID); err != nil {
		return PointMarker{}, err
	}
	return pm, nil
}

// ListPointMarkers はプロジェクトのコメント（返信を除く）を作成順に取得する。
// 各コメントには返信が作成順に含まれる。
func (s *Store) ListPointMarkers(ctx context.Context, projectID int64) ([]PointMarker, error) {
	roots, err := s.listPointMarkers(ctx, `pm.project_id = ? AND pm.parent_id IS NULL`, projectID)
	if err != nil {
		return nil, err
	}
	replies, err := s.listPointMarkers(ctx, `pm.project_id = ? AND pm.parent_id IS NOT NULL`, projectID)
	if err != nil {
		return nil, err
	}

	index := make(map[int64]int, len(roots))
	for i, r := range roots {
		index[r.ID] = i
	}
	for _, r := range replies {
		if i, ok := index[*r.ParentID]; ok {
			roots[i].Replies = append(roots[i].Replies, r)
		}
	}
	return roots, nil
}

// DeletePointMarker はコメントを削除する。返信も削除される。
func (s *Store) DeletePointMarker(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM point_markers WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("コメントの削除に失敗: %w", translateError(err))
	}
	return affectedOrNotFound(res)
}

func (s *Store) listPointMarkers(ctx context.Context, where string, args ...any) ([]PointMarker, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+pointMarkerColumns+pointMarkerFrom+` WHERE `+where+` ORDER BY pm.created_at, pm.id`, args...)
	if err != nil {
		return nil, fmt.Errorf("コメントの取得に失敗: %w", err)
	}
	list := []PointMarker{}
	for rows.Next() {
		pm, err := scanPointMarker(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		list = append(list, pm)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	ptrs := make([]*PointMarker, len(list))
	for i := range list {
		ptrs[i] = &list[i]
	}
	if err := s.fillPointMarkers(ctx, ptrs); err != nil {
		return nil, err
	}
	return list, nil
}

// fillPointMarkers は各コメントのタグを読み込む。
func (s *Store) fillPointMarkers(ctx context.Context, list []*PointMarker) error {
	for _, pm := range list {
		tags, err := queryTags(ctx, s.db, `
			SELECT t.id, t.name, t.color FROM tags t
			JOIN point_marker_tags pt ON pt.tag_id = t.id
			WHERE pt.point_marker_id = ? ORDER BY t.name`, pm.ID)
		if err != nil {
			return err
		}
		pm.Tags = tags
	}
	return nil
}
