package sync

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"pacekeeper/cmd/client/cmd/output"
	"pacekeeper/internal/app/client"
	"pacekeeper/internal/domain/syncstate"
)

var (
	watch      bool
	syncStatus bool
	resetStats bool
)

var SyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Управление синхронизацией",
	Long: `Отправляет на сервер записи, ожидающие синхронизации.

С флагом --watch сверка повторяется по расписанию до Ctrl+C.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := client.FromContext(cmd.Context())
		if err != nil {
			return err
		}

		switch {
		case syncStatus:
			return showSyncStatus(cmd, app)
		case resetStats:
			app.Reconciler().ResetStats()
			output.Success(os.Stdout, "Статистика синхронизации сброшена")
			return nil
		case watch:
			if !app.IsAuthenticated() {
				return fmt.Errorf("требуется аутентификация. Выполните: pacekeeper auth login")
			}
			fmt.Println("Автоматическая синхронизация запущена, Ctrl+C для выхода")
			return app.Run()
		}

		return runSync(cmd.Context(), app)
	},
}

func runSync(ctx context.Context, app *client.App) error {
	fmt.Println("=== Синхронизация данных ===")

	if !app.IsAuthenticated() {
		return fmt.Errorf("требуется аутентификация. Выполните: pacekeeper auth login")
	}

	fmt.Println("Проверка соединения с сервером...")
	if err := app.CheckConnection(); err != nil {
		return fmt.Errorf("сервер недоступен: %v", err)
	}

	result, err := app.Sync(ctx)
	if result == nil {
		return fmt.Errorf("ошибка синхронизации: %w", err)
	}

	fmt.Println()
	if result.Success {
		output.Success(os.Stdout, "Синхронизация завершена!")
	} else {
		output.Warn(os.Stdout, "Синхронизация завершена с ошибками")
	}
	fmt.Printf("Время выполнения: %v\n", result.Duration.Round(time.Millisecond))
	for _, key := range sortedKeys(result.Uploaded) {
		fmt.Printf("  %s: отправлено %d\n", key, result.Uploaded[key])
	}

	for i, e := range result.Errors {
		if i == 3 {
			fmt.Printf("  ... и еще %d ошибок\n", len(result.Errors)-3)
			break
		}
		fmt.Printf("  • %s: %s\n", e.Collection, e.Error)
	}

	return err
}

func showSyncStatus(cmd *cobra.Command, app *client.App) error {
	status, err := app.SyncStatus(cmd.Context())
	if err != nil {
		return err
	}

	if output.JSON(cmd) {
		return output.PrintJSON(status)
	}

	fmt.Println("=== Статус синхронизации ===")
	fmt.Printf("Личность: %s (%s)\n", status.Identity.ID, status.Identity.Kind)
	fmt.Println()

	fmt.Println("📦 Локальные записи:")
	for _, key := range sortedKeys(status.Collections) {
		fmt.Printf("  %s:\n", key)
		for _, s := range []syncstate.Status{syncstate.Synced, syncstate.Pending, syncstate.LocalOnly} {
			if n := status.Collections[key][s]; n > 0 {
				fmt.Printf("    %s: %d\n", output.Status(s), n)
			}
		}
	}

	stats := status.Stats
	fmt.Println()
	fmt.Println("📊 Статистика:")
	fmt.Printf("  Всего синхронизаций: %d\n", stats.TotalSyncs)
	fmt.Printf("  С ошибками: %d\n", stats.TotalErrors)
	fmt.Printf("  Отправлено на сервер: %d записей\n", stats.TotalUploaded)
	fmt.Printf("  Среднее время: %.2f сек\n", stats.AvgSyncDuration)
	if !stats.LastSuccessful.IsZero() {
		fmt.Printf("  Последняя успешная: %s\n", stats.LastSuccessful.Local().Format("2006-01-02 15:04:05"))
	}
	if !stats.LastFailed.IsZero() {
		fmt.Printf("  Последняя неудачная: %s\n", stats.LastFailed.Local().Format("2006-01-02 15:04:05"))
	}

	fmt.Printf("\n🌐 Соединение с сервером: ")
	if err := app.CheckConnection(); err != nil {
		fmt.Printf("❌ Ошибка: %v\n", err)
	} else {
		fmt.Printf("✅ OK\n")
	}

	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func init() {
	SyncCmd.Flags().BoolVarP(&watch, "watch", "w", false, "синхронизировать по расписанию до Ctrl+C")
	SyncCmd.Flags().BoolVar(&syncStatus, "status", false, "показать статус синхронизации")
	SyncCmd.Flags().BoolVar(&resetStats, "reset", false, "сбросить статистику синхронизации")
	SyncCmd.Flags().String("metrics-addr", "", "адрес /metrics в режиме --watch, например :9091")
	_ = viper.BindPFlag("METRICS_ADDR", SyncCmd.Flags().Lookup("metrics-addr"))
}
