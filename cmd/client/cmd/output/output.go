// Package output общие функции вывода для команд клиента.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"pacekeeper/internal/domain/syncstate"
)

var (
	success = color.New(color.FgGreen, color.Bold)
	warning = color.New(color.FgYellow)
	faint   = color.New(color.Faint)
)

// JSON включён ли глобальный флаг --json
func JSON(cmd *cobra.Command) bool {
	v, err := cmd.Flags().GetBool("json")
	return err == nil && v
}

// Success печатает сообщение об успехе
func Success(w io.Writer, format string, args ...any) {
	_, _ = success.Fprintf(w, "✓ "+format+"\n", args...)
}

// Warn печатает предупреждение
func Warn(w io.Writer, format string, args ...any) {
	_, _ = warning.Fprintf(w, "⚠️  "+format+"\n", args...)
}

// Hint печатает подсказку приглушённым цветом
func Hint(w io.Writer, format string, args ...any) {
	_, _ = faint.Fprintf(w, format+"\n", args...)
}

// Status раскрашивает статус синхронизации
func Status(s syncstate.Status) string {
	switch s {
	case syncstate.Synced:
		return color.GreenString(s.DisplayName())
	case syncstate.Pending:
		return color.YellowString(s.DisplayName())
	default:
		return color.CyanString(s.DisplayName())
	}
}

// PrintJSON печатает значение с отступами
func PrintJSON(v any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("ошибка вывода JSON: %w", err)
	}
	return nil
}

// Truncate обрезает строку до length рун
func Truncate(s string, length int) string {
	r := []rune(s)
	if len(r) <= length {
		return s
	}
	return string(r[:length-3]) + "..."
}
