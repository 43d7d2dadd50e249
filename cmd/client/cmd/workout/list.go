package workout

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"pacekeeper/cmd/client/cmd/output"
	"pacekeeper/internal/app/client"
)

var ListCmd = &cobra.Command{
	Use:   "list",
	Short: "Выполненные тренировки плана",
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := client.FromContext(cmd.Context())
		if err != nil {
			return err
		}

		items, err := app.ListCompletions(cmd.Context())
		if err != nil {
			return fmt.Errorf("ошибка получения отметок: %w", err)
		}

		if output.JSON(cmd) {
			return output.PrintJSON(items)
		}
		if len(items) == 0 {
			fmt.Println("Отметок о выполнении нет")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "Дата\tТренировка\tПлан\tНеделя\tКм\tСтатус\t\n")
		fmt.Fprintf(w, "---\t---\t---\t---\t---\t---\t\n")
		for _, c := range items {
			weekLabel, km := "-", "-"
			if c.WeekNumber != nil {
				weekLabel = fmt.Sprint(*c.WeekNumber)
			}
			if c.ActualDistanceKm != nil {
				km = fmt.Sprintf("%.2f", *c.ActualDistanceKm)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t\n",
				c.CompletedDate, c.WorkoutID, c.PlanID, weekLabel, km, output.Status(c.SyncStatus))
		}
		if err = w.Flush(); err != nil {
			return err
		}
		fmt.Printf("\nВсего отметок: %d\n", len(items))
		return nil
	},
}
