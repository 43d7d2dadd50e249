// cmd/client/cmd/workout/complete.go
package workout

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"pacekeeper/cmd/client/cmd/output"
	"pacekeeper/internal/app/client"
	"pacekeeper/internal/domain/activity"
	"pacekeeper/internal/domain/workout"
)

var (
	workoutID string
	planID    string
	week      int
	distance  float64
	duration  string
	date      string
)

var CompleteCmd = &cobra.Command{
	Use:   "complete",
	Short: "Отметить тренировку плана выполненной",
	Long: `Отмечает тренировку плана выполненной.

Если указаны дистанция или длительность, сначала сохраняется сама тренировка,
а отметка ссылается на неё. Повторная отметка той же тренировки плана
заменяет предыдущую.`,
	Example: `  pacekeeper workout complete --workout w3d2 --plan 10k --distance 6.2 --duration 33:00`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := client.FromContext(cmd.Context())
		if err != nil {
			return err
		}

		if planID == "" {
			if plan, ok, err := app.CurrentPlan(); err == nil && ok {
				planID = plan.ID
				if s, found := plan.Session(workoutID); found && week == 0 {
					week = s.Week
				}
			}
		}

		var id string
		if distance > 0 || duration != "" {
			seconds := 0
			if duration != "" {
				if seconds, err = activity.ParseDuration(duration); err != nil {
					return fmt.Errorf("неверная длительность: %w", err)
				}
			}
			rec := activity.Record{
				Title:           fmt.Sprintf("Тренировка %s", workoutID),
				Type:            "run",
				DistanceKm:      distance,
				DurationSeconds: seconds,
			}
			id, err = app.CompleteWithActivity(cmd.Context(), rec, workoutID, planID, week)
		} else {
			c := workout.Completion{
				WorkoutID:     workoutID,
				PlanID:        planID,
				CompletedDate: date,
			}
			if week > 0 {
				c.WeekNumber = &week
			}
			id, err = app.CompleteWorkout(cmd.Context(), c)
		}
		if err != nil {
			return fmt.Errorf("ошибка отметки о выполнении: %w", err)
		}

		if output.JSON(cmd) {
			return output.PrintJSON(map[string]string{"id": id})
		}

		output.Success(os.Stdout, "Тренировка %s отмечена выполненной", workoutID)
		return nil
	},
}

func init() {
	CompleteCmd.Flags().StringVar(&workoutID, "workout", "", "идентификатор тренировки плана")
	CompleteCmd.Flags().StringVar(&planID, "plan", "", "идентификатор плана (по умолчанию текущий)")
	CompleteCmd.Flags().IntVar(&week, "week", 0, "номер недели")
	CompleteCmd.Flags().Float64Var(&distance, "distance", 0, "фактическая дистанция, км")
	CompleteCmd.Flags().StringVar(&duration, "duration", "", "фактическая длительность")
	CompleteCmd.Flags().StringVar(&date, "date", "", "дата выполнения, YYYY-MM-DD (по умолчанию сегодня)")
	_ = CompleteCmd.MarkFlagRequired("workout")
}
