// cmd/client/cmd/activity/publish.go
package activity

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"pacekeeper/cmd/client/cmd/output"
	"pacekeeper/internal/app/client"
	"pacekeeper/internal/domain/activity"
)

var (
	title       string
	description string
	kind        string
	distance    float64
	duration    string
	public      bool
)

var PublishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Сохранить тренировку",
	Long: `Сохраняет тренировку на устройстве и сразу пытается отправить её на сервер.

Длительность задаётся как HH:MM:SS, MM:SS или число секунд. Если сервер
недоступен, запись ждёт следующей синхронизации.`,
	Example: `  pacekeeper activity publish --title "Утренний бег" --distance 5.2 --duration 27:40`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := client.FromContext(cmd.Context())
		if err != nil {
			return err
		}

		seconds, err := activity.ParseDuration(duration)
		if err != nil {
			return fmt.Errorf("неверная длительность: %w", err)
		}

		rec := activity.Record{
			Title:           title,
			Description:     description,
			Type:            kind,
			DistanceKm:      distance,
			DurationSeconds: seconds,
			IsPublic:        public,
		}

		id, err := app.PublishActivity(cmd.Context(), rec)
		if err != nil {
			return fmt.Errorf("ошибка сохранения тренировки: %w", err)
		}

		if output.JSON(cmd) {
			return output.PrintJSON(map[string]string{"id": id})
		}

		output.Success(os.Stdout, "Тренировка сохранена: %s", id)
		return nil
	},
}

func init() {
	PublishCmd.Flags().StringVarP(&title, "title", "t", "", "название тренировки")
	PublishCmd.Flags().StringVar(&description, "description", "", "описание")
	PublishCmd.Flags().StringVar(&kind, "type", "run", "вид тренировки")
	PublishCmd.Flags().Float64VarP(&distance, "distance", "d", 0, "дистанция, км")
	PublishCmd.Flags().StringVar(&duration, "duration", "0", "длительность")
	PublishCmd.Flags().BoolVar(&public, "public", false, "показывать тренировку другим")
}
