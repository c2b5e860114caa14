package store

import (
	"context"
	"fmt"
)

const userColumns = `id, name, email, password_hash, role, created_at`

// CreateUserParams はユーザー作成のパラメータ。
type CreateUserParams struct {
	Name         string
	Email        string
	PasswordHash string
	Role         string
}

// UpdateUserParams はユーザー更新のパラメータ。PasswordHashが空の場合はパスワードを変更しない。
type UpdateUserParams struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	Role         string
}

func scanUser(row interface{ Scan(...any) error }) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt)
	return u, err
}

// CreateUser はユーザーを作成する。
func (s *Store) CreateUser(ctx context.Context, p CreateUserParams) (User, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (name, email, password_hash, role) VALUES (?, ?, ?, ?)`,
		p.Name, p.Email, p.PasswordHash, p.Role)
	if err != nil {
		return User{}, fmt.Errorf("ユーザーの作成に失敗: %w", translateError(err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return User{}, fmt.Errorf("ユーザーIDの取得に失敗: %w", err)
	}
	return s.GetUser(ctx, id)
}

// GetUser はIDでユーザーを取得する。
func (s *Store) GetUser(ctx context.Context, id int64) (User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if err != nil {
		return User{}, translateError(err)
	}
	return u, nil
}

// GetUserByEmail はメールアドレスでユーザーを取得する。
func (s *Store) GetUserByEmail(ctx context.Context, email string) (User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email))
	if err != nil {
		return User{}, translateError(err)
	}
	return u, nil
}

// ListUsers はすべてのユーザーをID順に取得する。
func (s *Store) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("ユーザー一覧の取得に失敗: %w", err)
	}
	defer rows.Close()

	users := []User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// UpdateUser はユーザーを更新する。
func (s *Store) UpdateUser(ctx context.Context, p UpdateUserParams) (User, error) {
	query := `UPDATE users SET name = ?, email = ?, role = ? WHERE id = ?`
	args := []any{p.Name, p.Email, p.Role, p.ID}
	if p.PasswordHash != "" {
		query = `UPDATE users SET name = ?, email = ?, role = ?, password_hash = ? WHERE id = ?`
		args = []any{p.Name, p.Email, p.Role, p.PasswordHash, p.ID}
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return User{}, fmt.Errorf("ユーザーの更新に失敗: %w", translateError(err))
	}
	if err := affectedOrNotFound(res); err != nil {
		return User{}, err
	}
	return s.GetUser(ctx, p.ID)
}

// DeleteUser はユーザーを削除する。
func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("ユーザーの削除に失敗: %w", translateError(err))
	}
	return affectedOrNotFound(res)
}
