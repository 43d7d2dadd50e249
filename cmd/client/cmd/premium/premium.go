// cmd/client/cmd/premium/premium.go
package premium

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"pacekeeper/cmd/client/cmd/output"
	"pacekeeper/internal/app/client"
)

var (
	productID string
	restored  int
)

// PremiumCmd - родительская команда для премиум-доступа
var PremiumCmd = &cobra.Command{
	Use:   "premium",
	Short: "Премиум-доступ",
	Long: `Статус премиум-доступа и применение результатов покупки.

Статус хранится на устройстве; после входа он также записывается в профиль
на сервере.`,
}

var StatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Показать статус премиум-доступа",
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := client.FromContext(cmd.Context())
		if err != nil {
			return err
		}

		ent, err := app.Premium(cmd.Context())
		if err != nil {
			return err
		}

		if output.JSON(cmd) {
			return output.PrintJSON(ent)
		}

		printEntitlement(ent)
		return nil
	},
}

var ActivateCmd = &cobra.Command{
	Use:   "activate",
	Short: "Применить успешную покупку",
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := client.FromContext(cmd.Context())
		if err != nil {
			return err
		}

		ent, err := app.ApplyPurchase(cmd.Context(), client.PurchaseResult{Success: true, ProductID: productID})
		if err != nil {
			return fmt.Errorf("ошибка активации: %w", err)
		}

		if output.JSON(cmd) {
			return output.PrintJSON(ent)
		}

		output.Success(os.Stdout, "Премиум-доступ активирован")
		printEntitlement(ent)
		return nil
	},
}

var RestoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Применить восстановленные покупки",
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := client.FromContext(cmd.Context())
		if err != nil {
			return err
		}

		ent, err := app.ApplyRestore(cmd.Context(), client.RestoreResult{Success: restored > 0, Count: restored})
		if err != nil {
			return fmt.Errorf("ошибка восстановления: %w", err)
		}

		if output.JSON(cmd) {
			return output.PrintJSON(ent)
		}

		output.Success(os.Stdout, "Восстановлено покупок: %d", ent.RestoredCount)
		return nil
	},
}

func printEntitlement(ent client.Entitlement) {
	if !ent.Premium {
		fmt.Println("Премиум-доступ не активирован")
		return
	}

	fmt.Println("Премиум-доступ: активен")
	if ent.ProductID != "" {
		fmt.Printf("Продукт: %s\n", ent.ProductID)
	}
	if !ent.ActivatedAt.IsZero() {
		fmt.Printf("Активирован: %s\n", ent.ActivatedAt.Local().Format("2006-01-02 15:04"))
	}
	if ent.ProfileSync != "" {
		fmt.Printf("Профиль на сервере: %s\n", output.Status(ent.ProfileSync))
	}
}

func init() {
	ActivateCmd.Flags().StringVar(&productID, "product", "premium_monthly", "идентификатор продукта")
	RestoreCmd.Flags().IntVar(&restored, "count", 1, "количество восстановленных покупок")
}
