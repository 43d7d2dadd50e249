// cmd/client/cmd/init.go
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"pacekeeper/cmd/client/cmd/activity"
	"pacekeeper/cmd/client/cmd/auth"
	"pacekeeper/cmd/client/cmd/output"
	"pacekeeper/cmd/client/cmd/premium"
	"pacekeeper/cmd/client/cmd/sync"
	"pacekeeper/cmd/client/cmd/workout"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Проверить настройку клиента",
	Long: `Команда init показывает, где клиент хранит данные, какая личность
сейчас активна и доступен ли сервер.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		fmt.Println("=== Инициализация PaceKeeper ===")
		fmt.Println()
		fmt.Printf("Каталог данных: %s\n", cfg.ConfigDir)
		fmt.Printf("Локальный кэш:  %s\n", cfg.CachePath)
		fmt.Printf("Сервер:         %s\n", cfg.ServerAddress)

		identity := app.Identity(cmd.Context())
		fmt.Printf("Личность:       %s (%s)\n", identity.ID, identity.Kind)
		fmt.Println()

		if err := app.CheckConnection(); err != nil {
			output.Warn(os.Stdout, "Сервер недоступен: %v", err)
			output.Hint(os.Stdout, "Записи сохраняются на устройстве и будут отправлены позже.")
		} else {
			output.Success(os.Stdout, "Соединение с сервером установлено")
		}

		fmt.Println()
		fmt.Println("Что дальше:")
		fmt.Println("1. Зарегистрируйтесь: pacekeeper auth register")
		fmt.Println("2. Войдите: pacekeeper auth login")
		fmt.Println("3. Сохраните тренировку: pacekeeper activity publish --distance 5 --duration 25:00")

		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)

	rootCmd.AddCommand(auth.AuthCmd)
	auth.AuthCmd.AddCommand(auth.RegisterCmd)
	auth.AuthCmd.AddCommand(auth.LoginCmd)
	auth.AuthCmd.AddCommand(auth.LogoutCmd)

	rootCmd.AddCommand(activity.ActivityCmd)
	activity.ActivityCmd.AddCommand(activity.PublishCmd)
	activity.ActivityCmd.AddCommand(activity.ListCmd)

	rootCmd.AddCommand(workout.WorkoutCmd)
	workout.WorkoutCmd.AddCommand(workout.PlanImportCmd)
	workout.WorkoutCmd.AddCommand(workout.PlanShowCmd)
	workout.WorkoutCmd.AddCommand(workout.CompleteCmd)
	workout.WorkoutCmd.AddCommand(workout.ListCmd)

	rootCmd.AddCommand(premium.PremiumCmd)
	premium.PremiumCmd.AddCommand(premium.StatusCmd)
	premium.PremiumCmd.AddCommand(premium.ActivateCmd)
	premium.PremiumCmd.AddCommand(premium.RestoreCmd)

	rootCmd.AddCommand(sync.SyncCmd)
}
