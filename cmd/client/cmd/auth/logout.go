package auth

import (
	"os"

	"github.com/spf13/cobra"

	"pacekeeper/cmd/client/cmd/output"
	"pacekeeper/internal/app/client"
)

var LogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Выйти из системы",
	Long: `Удаляет сохранённый токен. Записи остаются в локальном кэше,
новые записи сохраняются только на устройстве.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := client.FromContext(cmd.Context())
		if err != nil {
			return err
		}

		if err = app.ClearToken(); err != nil {
			return err
		}

		output.Success(os.Stdout, "Выход выполнен")
		return nil
	},
}
