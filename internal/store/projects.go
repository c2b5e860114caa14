package store

import (
	"context"
	"fmt"
)

// ProjectParams はプロジェクトの作成・更新パラメータ。
type ProjectParams struct {
	Name        string
	Description string
}

// CreateProject はプロジェクトを作成する。
func (s *Store) CreateProject(ctx context.Context, p ProjectParams) (Project, error) {
	res, err := s.db.ExecContext(ctx, `INSERT INTO projects (name, description) VALUES (?, ?)`, p.Name, p.Description)
	if err != nil {
		return Project{}, fmt.Errorf("プロジェクトの作成に失敗: %w", translateError(err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Project{}, err
	}
	return s.GetProject(ctx, id)
}

// GetProject はIDでプロジェクトを取得する。
func (s *Store) GetProject(ctx context.Context, id int64) (Project, error) {
	var p Project
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, description, created_at FROM projects WHERE id = ?`, id).
		Scan(&p.ID, &p.Name, &p.Description, &p.CreatedAt)
	if err != nil {
		return Project{}, translateError(err)
	}
	return p, nil
}

// ListProjects はすべてのプロジェクトを取得する。
func (s *Store) ListProjects(ctx context.Context) ([]Project, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, description, created_at FROM projects ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("プロジェクト一覧の取得に失敗: %w", err)
	}
	defer rows.Close()

	projects := []Project{}
	for rows.Next() {
		var p Project
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.CreatedAt); err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// UpdateProject はプロジェクトを更新する。
func (s *Store) UpdateProject(ctx context.Context, id int64, p ProjectParams) (Project, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE projects SET name = ?, description = ? WHERE id = ?`, p.Name, p.Description, id)
	if err != nil {
		return Project{}, fmt.Errorf("プロジェクトの更新に失敗: %w", translateError(err))
	}
	if err := affectedOrNotFound(res); err != nil {
		return Project{}, err
	}
	return s.GetProject(ctx, id)
}

// DeleteProject はプロジェクトを削除する。関連するポイントマーカーも削除される。
func (s *Store) DeleteProject(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("プロジェクトの削除に失敗: %w", translateError(err))
	}
	return affectedOrNotFound(res)
}
