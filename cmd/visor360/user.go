package main

import (
	"errors"
	"fmt"

	"github.com/nao1215/visor360/internal/api"
	"github.com/nao1215/visor360/internal/config"
	"github.com/nao1215/visor360/internal/store"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func newUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "ユーザーを管理する",
	}
	cmd.AddCommand(newUserAddCmd())
	return cmd
}

func newUserAddCmd() *cobra.Command {
	var (
		dbPath   string
		name     string
		email    string
		password string
		role     string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "ログイン可能なユーザーを作成する",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if email == "" || password == "" {
				return errors.New("--email と --password は必須です")
			}
			if dbPath == "" {
				cfg, err := config.Load()
				if err != nil {
					return err
				}
				dbPath = cfg.Database.Path
			}
			if name == "" {
				name = email
			}

			st, err := store.Open(cmd.Context(), dbPath, zerolog.Nop())
			if err != nil {
				return err
			}
			defer st.Close()

			hash, err := api.HashPassword(password)
			if err != nil {
				return fmt.Errorf("パスワードのハッシュ化に失敗: %w", err)
			}
			u, err := st.CreateUser(cmd.Context(), store.CreateUserParams{
				Name:         name,
				Email:        email,
				PasswordHash: hash,
				Role:         role,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ユーザーを作成しました: id=%d email=%s role=%s\n", u.ID, u.Email, u.Role)
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "SQLiteデータベースのパス（既定はDATABASE_PATH）")
	cmd.Flags().StringVar(&name, "name", "", "表示名（既定はメールアドレス）")
	cmd.Flags().StringVar(&email, "email", "", "ログインに使用するメールアドレス")
	cmd.Flags().StringVar(&password, "password", "", "パスワード")
	cmd.Flags().StringVar(&role, "role", "admin", "ロール")
	return cmd
}
