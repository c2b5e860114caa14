package store

import (
	"context"
	"fmt"
)

// MarkerParams はマーカーの作成・更新パラメータ。
type MarkerParams struct {
	Name  string
	Icon  string
	Color string
}

// CreateMarker はマーカーを作成する。
func (s *Store) CreateMarker(ctx context.Context, p MarkerParams) (Marker, error) {
	res, err := s.db.ExecContext(ctx, `INSERT INTO markers (name, icon, color) VALUES (?, ?, ?)`, p.Name, p.Icon, p.Color)
	if err != nil {
		return Marker{}, fmt.Errorf("マーカーの作成に失敗: %w", translateError(err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Marker{}, err
	}
	return s.GetMarker(ctx, id)
}

// GetMarker はIDでマーカーを取得する。
func (s *Store) GetMarker(ctx context.Context, id int64) (Marker, error) {
	var m Marker
	err := s.db.QueryRowContext(ctx, `SELECT id, name, icon, color FROM markers WHERE id = ?`, id).
		Scan(&m.ID, &m.Name, &m.Icon, &m.Color)
	if err != nil {
		return Marker{}, translateError(err)
	}
	return m, nil
}

// ListMarkers はすべてのマーカーを取得する。
func (s *Store) ListMarkers(ctx context.Context) ([]Marker, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, icon, color FROM markers ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("マーカー一覧の取得に失敗: %w", err)
	}
	defer rows.Close()

	markers := []Marker{}
	for rows.Next() {
		var m Marker
		if err := rows.Scan(&m.ID, &m.Name, &m.Icon, &m.Color); err != nil {
			return nil, err
		}
		markers = append(markers, m)
	}
	return markers, rows.Err()
}

// UpdateMarker はマーカーを更新する。
func (s *Store) UpdateMarker(ctx context.Context, id int64, p MarkerParams) (Marker, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE markers SET name = ?, icon = ?, color = ? WHERE id = ?`, p.Name, p.Icon, p.Color, id)
	if err != nil {
		return Marker{}, fmt.Errorf("マーカーの更新に失敗: %w", translateError(err))
	}
	if err := affectedOrNotFound(res); err != nil {
		return Marker{}, err
	}
	return s.GetMarker(ctx, id)
}

// DeleteMarker はマーカーを削除する。
func (s *Store) DeleteMarker(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM markers WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("マーカーの削除に失敗: %w", translateError(err))
	}
	return affectedOrNotFound(res)
}
