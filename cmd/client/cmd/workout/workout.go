package workout

import (
	"github.com/spf13/cobra"
)

// WorkoutCmd - родительская команда для плана и отметок о выполнении
var WorkoutCmd = &cobra.Command{
	Use:     "workout",
	Aliases: []string{"w"},
	Short:   "Тренировочный план",
	Long:    `Импорт тренировочного плана и отметки о выполнении его тренировок.`,
}
