// cmd/client/cmd/auth/register.go
package auth

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"pacekeeper/cmd/client/cmd/output"
	"pacekeeper/internal/app/client"
	"pacekeeper/internal/domain/user"
)

var RegisterCmd = &cobra.Command{
	Use:   "register",
	Short: "Зарегистрировать нового пользователя",
	Long: `Регистрация нового пользователя на сервере PaceKeeper.

После регистрации и входа записи с устройства начнут отправляться на сервер.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := client.FromContext(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Println("=== Регистрация нового пользователя ===")
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

		fmt.Print("Повторите пароль: ")
		passwordConfirm, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err != nil {
			return fmt.Errorf("ошибка чтения пароля: %w", err)
		}
		fmt.Println()

		if string(password) != string(passwordConfirm) {
			return fmt.Errorf("пароли не совпадают")
		}

		req := user.BaseRequest{Login: login, Password: string(password)}
		if err = user.NewCredentialsValidator().ValidateRegister(req.Login, req.Password); err != nil {
			return err
		}

		fmt.Println("Регистрация...")
		if _, err = app.Register(cmd.Context(), req); err != nil {
			return fmt.Errorf("ошибка регистрации: %w", err)
		}

		fmt.Println()
		output.Success(os.Stdout, "Регистрация успешно завершена!")
		output.Hint(os.Stdout, "Теперь вы можете войти в систему: pacekeeper auth login")

		return nil
	},
}
