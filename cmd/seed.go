package cmd

import (
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"github.com/aulins/invoice-api/internal/auth"
	"github.com/aulins/invoice-api/internal/config"
	"github.com/aulins/invoice-api/internal/db"
	"github.com/aulins/invoice-api/internal/model"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with demo merchants",
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

		log.Println(">> Seeding demo merchants...")

		if err := seedMerchants(sqlDB); err != nil {
			return err
		}

		log.Println(">> Seed completed")
		return nil
	},
}

type demoMerchant struct {
	id     string
	name   string
	email  string
	plan   model.Plan
	keyID  string
	secret string // dev only, printed so local clients can authenticate
}

// seedMerchants inserts deterministic demo merchants with known API keys
// (idempotent).
func seedMerchants(dbx *sqlx.DB) error {
	demos := []demoMerchant{
		{
			id:     "mrc_demo_warung_kopi",
			name:   "Warung Kopi Sumatra",
			email:  "owner@warungkopi.example",
			plan:   model.PlanFree,
			keyID:  "key_demo_warung_kopi",
			secret: auth.SecretPrefix + "demo_warung_kopi_0000000000000001",
		},
		{
			id:     "mrc_demo_batik_store",
			name:   "Batik Nusantara Store",
			email:  "billing@batiknusantara.example",
			plan:   model.PlanStarter,
			keyID:  "key_demo_batik_store",
			secret: auth.SecretPrefix + "demo_batik_store_0000000000000002",
		},
		{
			id:     "mrc_demo_logistics",
			name:   "Cepat Kirim Logistics",
			email:  "finance@cepatkirim.example",
			plan:   model.PlanPro,
			keyID:  "key_demo_logistics",
			secret: auth.SecretPrefix + "demo_logistics_00000000000000003",
		},
	}

	for _, d := range demos {
		quota := d.plan.Quota()
		if _, err := dbx.Exec(`
			INSERT INTO merchants (id, name, email, plan, quota_limit, quota_used, is_active, created_at)
			VALUES (?, ?, ?, ?, ?, 0, 1, NOW())
			ON DUPLICATE KEY UPDATE name = VALUES(name), plan = VALUES(plan), quota_limit = VALUES(quota_limit)
		`, d.id, d.name, d.email, d.plan.String(), quota); err != nil {
			return fmt.Errorf("seed merchant %s: %w", d.id, err)
		}

		hash := auth.HashSecret(d.secret)
		prefix := d.secret[:len(auth.SecretPrefix)+4]
		if _, err := dbx.Exec(`
			INSERT INTO api_keys (id, merchant_id, key_hash, key_prefix, name, is_active, created_at)
			VALUES (?, ?, ?, ?, 'default', 1, NOW())
			ON DUPLICATE KEY UPDATE key_hash = VALUES(key_hash), key_prefix = VALUES(key_prefix), is_active = 1
		`, d.keyID, d.id, hash, prefix); err != nil {
			return fmt.Errorf("seed api key %s: %w", d.keyID, err)
		}

		log.Printf("   %-24s plan=%-10s key=%s", d.name, d.plan, d.secret)
	}

	return nil
}
