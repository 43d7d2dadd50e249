// cmd/client/cmd/workout/plan.go
package workout

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"pacekeeper/cmd/client/cmd/output"
	"pacekeeper/internal/app/client"
	"pacekeeper/internal/domain/workout"
)

var PlanImportCmd = &cobra.Command{
	Use:   "plan-import <file>",
	Short: "Импортировать тренировочный план из JSON",
	Long: `Читает план из JSON-файла и сохраняет его как текущий.

Сессии плана отправляются на сервер вместе с планом.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := client.FromContext(cmd.Context())
		if err != nil {
			return err
		}

		raw, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("ошибка чтения файла плана: %w", err)
		}

		var plan workout.Plan
		if err = json.Unmarshal(raw, &plan); err != nil {
			return fmt.Errorf("ошибка разбора плана: %w", err)
		}

		saved, err := app.ImportPlan(cmd.Context(), plan)
		if err != nil {
			return fmt.Errorf("ошибка сохранения плана: %w", err)
		}

		if output.JSON(cmd) {
			return output.PrintJSON(saved)
		}

		output.Success(os.Stdout, "План %q сохранён: %d недель, %d тренировок", saved.Title, saved.Weeks, len(saved.Sessions))
		fmt.Printf("Статус: %s\n", output.Status(saved.SyncStatus))
		return nil
	},
}

var PlanShowCmd = &cobra.Command{
	Use:   "plan",
	Short: "Показать текущий план",
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := client.FromContext(cmd.Context())
		if err != nil {
			return err
		}

		plan, ok, err := app.CurrentPlan()
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("План не импортирован. Используйте: pacekeeper workout plan-import <file>")
			return nil
		}

		if output.JSON(cmd) {
			return output.PrintJSON(plan)
		}

		fmt.Printf("%s (%s)\n", plan.Title, output.Status(plan.SyncStatus))
		if plan.Goal != "" {
			fmt.Printf("Цель: %s\n", plan.Goal)
		}
		fmt.Println()

		sessions := append([]workout.Session(nil), plan.Sessions...)
		sort.SliceStable(sessions, func(i, j int) bool {
			if sessions[i].Week != sessions[j].Week {
				return sessions[i].Week < sessions[j].Week
			}
			return sessions[i].Day < sessions[j].Day
		})

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "ID\tНеделя\tДень\tВид\tКм\tОписание\t\n")
		for _, s := range sessions {
			fmt.Fprintf(w, "%s\t%d\t%d\t%s\t%.1f\t%s\t\n",
				s.ID, s.Week, s.Day, s.Kind, s.DistanceKm, output.Truncate(s.Description, 40))
		}
		return w.Flush()
	},
}
