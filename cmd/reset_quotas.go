package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aulins/invoice-api/internal/config"
	"github.com/aulins/invoice-api/internal/db"
	"github.com/aulins/invoice-api/internal/repository"
)

// Run from cron at the start of each month. Invoice numbering is untouched;
// it restarts per month on its own via the counters table.
var resetQuotasCmd = &cobra.Command{
	Use:   "reset-quotas",
	Short: "Zero quota_used for all merchants (monthly cron)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		sqlDB, err := db.NewMySQLConnection(cfg.MySQL.DSN, db.MySQLOpts{
			MaxOpenConns:    cfg.MySQL.MaxOpenConns,
			MaxIdleConns:    cfg.MySQL.MaxIdleConns,
			ConnMaxLifetime: cfg.MySQL.ConnMaxLifetime,
			ConnMaxIdleTime: cfg.MySQL.ConnMaxIdleTime,
			PingTimeout:     cfg.MySQL.PingTimeout,
		})
		if err != nil {
			return fmt.Errorf("mysql connect: %w", err)
		}
		defer sqlDB.Close()

		store := repository.NewSQLStore(sqlDB)
		n, err := store.ResetAllQuotas(cmd.Context())
		if err != nil {
			return fmt.Errorf("reset quotas: %w", err)
		}

		fmt.Printf(">> Quotas reset for %d merchants\n", n)
		return nil
	},
}
