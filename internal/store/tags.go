package store

import (
	"context"
	"fmt"
	"strings"
)

// TagParams はタグの作成・更新パラメータ。
type TagParams struct {
	Name  string
	Color string
}

// CreateTag はタグを作成する。
func (s *Store) CreateTag(ctx context.Context, p TagParams) (Tag, error) {
	res, err := s.db.ExecContext(ctx, `INSERT INTO tags (name, color) VALUES (?, ?)`, p.Name, normalizeColor(p.Color))
	if err != nil {
		return Tag{}, fmt.Errorf("タグの作成に失敗: %w", translateError(err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Tag{}, err
	}
	return s.GetTag(ctx, id)
}

// GetTag はIDでタグを取得する。
func (s *Store) GetTag(ctx context.Context, id int64) (Tag, error) {
	var t Tag
	err := s.db.QueryRowContext(ctx, `SELECT id, name, color FROM tags WHERE id = ?`, id).Scan(&t.ID, &t.Name, &t.Color)
	if err != nil {
		return Tag{}, translateError(err)
	}
	return t, nil
}

// ListTags はすべてのタグを名前順に取得する。
func (s *Store) ListTags(ctx context.Context) ([]Tag, error) {
	return queryTags(ctx, s.db, `SELECT id, name, color FROM tags ORDER BY name`)
}

// UpdateTag はタグを更新する。
func (s *Store) UpdateTag(ctx context.Context, id int64, p TagParams) (Tag, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE tags SET name = ?, color = ? WHERE id = ?`, p.Name, normalizeColor(p.Color), id)
	if err != nil {
		return Tag{}, fmt.Errorf("タグの更新に失敗: %w", translateError(err))
	}
	if err := affectedOrNotFound(res); err != nil {
		return Tag{}, err
	}
	return s.GetTag(ctx, id)
}

// DeleteTag はタグを削除する。
func (s *Store) DeleteTag(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tags WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("タグの削除に失敗: %w", translateError(err))
	}
	return affectedOrNotFound(res)
}

func queryTags(ctx context.Context, q queryer, query string, args ...any) ([]Tag, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("タグの取得に失敗: %w", err)
	}
	defer rows.Close()

	tags := []Tag{}
	for rows.Next() {
		var t Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Color); err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

// replaceTags は中間テーブルの関連を指定されたタグIDで置き換える。
func replaceTags(ctx context.Context, q queryer, table, column string, ownerID int64, tagIDs []int64) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM `+table+` WHERE `+column+` = ?`, ownerID); err != nil {
		return fmt.Errorf("タグ関連の削除に失敗: %w", err)
	}
	for _, tagID := range tagIDs {
		if _, err := q.ExecContext(ctx,
			`INSERT OR IGNORE INTO `+table+` (`+column+`, tag_id) VALUES (?, ?)`, ownerID, tagID); err != nil {
			return fmt.Errorf("タグ関連の追加に失敗: %w", translateError(err))
		}
	}
	return nil
}

// normalizeColor はカラーコードから先頭の # を取り除き小文字にする。
func normalizeColor(c string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(c), "#"))
}
