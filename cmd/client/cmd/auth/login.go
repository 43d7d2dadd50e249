// cmd/client/cmd/auth/login.go
package auth

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"pacekeeper/cmd/client/cmd/output"
	"pacekeeper/internal/app/client"
	"pacekeeper/internal/domain/user"
)

var skipSync bool

var LoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Войти в систему PaceKeeper",
	Long: `Аутентификация на сервере PaceKeeper.

После входа токен сохраняется локально, а записи, сделанные без входа,
переходят к пользователю и отправляются на сервер.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := client.FromContext(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Println("=== Вход в систему ===")
		fmt.Println()

		fmt.Print("Логин: ")
		var login string
		_, _ = fmt.Scanln(&login)

		fmt.Print("Пароль: ")
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err != nil {
			return fmt.Errorf("ошибка чтения пароля: %w", err)
		}
		fmt.Println()

		fmt.Println("Аутентификация...")
		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		adopted, err := app.Login(ctx, user.BaseRequest{
			Login:    login,
			Password: string(password),
		})
		if err != nil {
			return fmt.Errorf("ошибка аутентификации: %w", err)
		}

		fmt.Println()
		output.Success(os.Stdout, "Вход выполнен успешно!")
		if adopted > 0 {
			fmt.Printf("Записей с устройства передано пользователю: %d\n", adopted)
		}

		if skipSync {
			return nil
		}

		fmt.Println("Синхронизация данных...")
		result, err := app.Sync(ctx)
		switch {
		case err != nil:
			output.Warn(os.Stdout, "Ошибка синхронизации: %v", err)
			output.Hint(os.Stdout, "Записи сохранены на устройстве и будут отправлены позже")
		case !result.Success:
			output.Warn(os.Stdout, "Синхронизация завершена с ошибками (%d)", len(result.Errors))
		default:
			output.Success(os.Stdout, "Данные синхронизированы (%d)", result.Total())
		}

		return nil
	},
}

func init() {
	LoginCmd.Flags().BoolVar(&skipSync, "no-sync", false, "не запускать синхронизацию после входа")
}
