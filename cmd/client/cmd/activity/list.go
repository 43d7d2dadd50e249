// cmd/client/cmd/activity/list.go
package activity

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"pacekeeper/cmd/client/cmd/output"
	"pacekeeper/internal/app/client"
	"pacekeeper/internal/domain/activity"
)

var limit int

var ListCmd = &cobra.Command{
	Use:   "list",
	Short: "Список тренировок",
	Long: `Тренировки текущего пользователя, новые первыми.

Если сервер доступен, список обновляется с сервера; иначе показывается
локальная копия.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := client.FromContext(cmd.Context())
		if err != nil {
			return err
		}

		items, err := app.ListActivities(cmd.Context())
		if err != nil {
			return fmt.Errorf("ошибка получения списка тренировок: %w", err)
		}
		if limit > 0 && len(items) > limit {
			items = items[:limit]
		}

		if output.JSON(cmd) {
			return output.PrintJSON(items)
		}
		return printTable(items)
	},
}

func printTable(items []activity.Record) error {
	if len(items) == 0 {
		fmt.Println("Тренировки не найдены")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Дата\tНазвание\tВид\tКм\tВремя\tТемп\tСтатус\t\n")
	fmt.Fprintf(w, "---\t---\t---\t---\t---\t---\t---\t\n")

	for _, rec := range items {
		pace := "-"
		if p := rec.PaceSecondsPerKm(); p > 0 {
			pace = fmt.Sprintf("%d:%02d", p/60, p%60)
		}

		fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\t%s\t%s\t%s\t\n",
			rec.CreatedAt.Local().Format("2006-01-02 15:04"),
			output.Truncate(rec.Title, 30),
			rec.Type,
			rec.DistanceKm,
			rec.DurationLabel(),
			pace,
			output.Status(rec.SyncStatus),
		)
	}

	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("\nВсего тренировок: %d\n", len(items))
	return nil
}

func init() {
	ListCmd.Flags().IntVar(&limit, "limit", 50, "ограничение количества записей")
}
