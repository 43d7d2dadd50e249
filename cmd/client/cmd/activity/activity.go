package activity

import (
	"github.com/spf13/cobra"
)

// ActivityCmd - родительская команда для работы с тренировками
var ActivityCmd = &cobra.Command{
	Use:     "activity",
	Aliases: []string{"activities", "a"},
	Short:   "Тренировки",
	Long:    `Сохранение и просмотр выполненных тренировок.`,
}
