// Package migration はSQLiteデータベースのスキーマを版管理する。
//
// "000001_init.up.sql" 形式のファイルを fs.FS から読み込み、schema_migrations
// テーブルに記録されていない版だけをトランザクション内で適用する。
package migration

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

const upSuffix = ".up.sql"

// Step は1つのマイグレーションファイル。
type Step struct {
	Version int
	Name    string
	path    string
}

// Run はdir配下の未適用マイグレーションを版の昇順に適用し、適用した版を返す。
func Run(ctx context.Context, db *sql.DB, fsys fs.FS, dir string, logger zerolog.Logger) ([]int, error) {
	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME NOT NULL DEFAULT (datetime('now'))
		)`); err != nil {
		return nil, fmt.Errorf("マイグレーション管理テーブルの作成に失敗: %w", err)
	}

	done, err := appliedVersions(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("適用済みバージョンの取得に失敗: %w", err)
	}
	steps, err := Collect(fsys, dir)
	if err != nil {
		return nil, err
	}

	var applied []int
	for _, st := range steps {
		if done[st.Version] {
			continue
		}
		if err := apply(ctx, db, fsys, st); err != nil {
			return applied, fmt.Errorf("マイグレーション %06d の適用に失敗: %w", st.Version, err)
		}
		applied = append(applied, st.Version)
		logger.Info().Int("version", st.Version).Str("name", st.Name).Msg("マイグレーションを適用しました")
	}
	return applied, nil
}

// Collect はdir配下の up.sql を版の昇順で返す。版番号が重複している場合はエラー。
// 版番号として解釈できないファイルは無視する。
func Collect(fsys fs.FS, dir string) ([]Step, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("マイグレーションファイルの収集に失敗: %w", err)
	}

	var steps []Step
	seen := make(map[int]string)
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), upSuffix) {
			continue
		}
		num, name, ok := strings.Cut(strings.TrimSuffix(e.Name(), upSuffix), "_")
		if !ok {
			continue
		}
		v, err := strconv.Atoi(num)
		if err != nil {
			continue
		}
		if prev, dup := seen[v]; dup {
			return nil, fmt.Errorf("マイグレーションの版 %06d が重複しています: %s, %s", v, prev, e.Name())
		}
		seen[v] = e.Name()
		steps = append(steps, Step{Version: v, Name: name, path: path.Join(dir, e.Name())})
	}

	slices.SortFunc(steps, func(a, b Step) int { return a.Version - b.Version })
	return steps, nil
}

func appliedVersions(ctx context.Context, db *sql.DB) (map[int]bool, error) {
	rows, err := db.QueryContext(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	done := make(map[int]bool)
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		done[v] = true
	}
	return done, rows.Err()
}

func apply(ctx context.Context, db *sql.DB, fsys fs.FS, st Step) error {
	body, err := fs.ReadFile(fsys, st.path)
	if err != nil {
		return fmt.Errorf("ファイル読み込みに失敗: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, string(body)); err != nil {
		return fmt.Errorf("SQL実行に失敗: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES (?)`, st.Version); err != nil {
		return fmt.Errorf("バージョン記録に失敗: %w", err)
	}
	return tx.Commit()
}
