package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jayjaytrn/refund-desk/config"
	"github.com/jayjaytrn/refund-desk/internal/apperrors"
	"github.com/jayjaytrn/refund-desk/internal/db"
	"github.com/jayjaytrn/refund-desk/internal/lifecycle"
	"github.com/jayjaytrn/refund-desk/logging"
	"github.com/jayjaytrn/refund-desk/models"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// orderFile is the import document:
//
//	orders:
//	  - productName: Kettle
//	    quantity: 1
//	    price: 1200
//	    address: 12 Lake Road
type orderFile struct {
	Orders []models.NewOrder `yaml:"orders"`
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.FromEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	if uri, _ := cmd.Flags().GetString("database-uri"); uri != "" {
		cfg.DatabaseURI = uri
	}
	return cfg, nil
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			// NewManager migrates on connect.
			database, err := db.NewManager(cfg)
			if err != nil {
				return err
			}
			defer database.Close()

			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
}

func importCmd() *cobra.Command {
	var (
		file   string
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import unallotted orders from a YAML file",
		Long: `Import unallotted orders from a YAML file.

Every order is validated before any is written; one bad entry stops the import.

Examples:
  refunddeskctl import --file orders.yaml
  refunddeskctl import --file orders.yaml --dry-run`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(file)
			if err != nil {
				return fmt.Errorf("failed to open order file: %w", err)
			}
			defer f.Close()

			orders, err := readOrders(f)
			if err != nil {
				return err
			}
			if err = validateOrders(orders); err != nil {
				return err
			}
			if dryRun {
				fmt.Fprintf(cmd.OutOrStdout(), "%d order(s) are valid, nothing written\n", len(orders))
				return nil
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			database, err := db.NewManager(cfg)
			if err != nil {
				return err
			}
			defer database.Close()

			logger := logging.GetSugaredLogger()
			defer logger.Sync()

			n, err := importOrders(cmd.Context(), lifecycle.NewService(database, logger), orders)
			fmt.Fprintf(cmd.OutOrStdout(), "%d order(s) imported\n", n)
			return err
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML file with an orders list")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "validate the file without writing")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func readOrders(r io.Reader) ([]models.NewOrder, error) {
	var doc orderFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse order file: %w", err)
	}
	if len(doc.Orders) == 0 {
		return nil, fmt.Errorf("order file lists no orders")
	}
	return doc.Orders, nil
}

// validateOrders also catches a code repeated inside the file, which the store
// would only report after the earlier orders were written.
func validateOrders(orders []models.NewOrder) error {
	seen := make(map[string]int)
	for i, o := range orders {
		if err := lifecycle.ValidateNewOrder(o); err != nil {
			return fmt.Errorf("order %d: %w", i+1, err)
		}
		code := strings.ToUpper(strings.TrimSpace(o.OrderCode))
		if code == "" {
			continue
		}
		if first, ok := seen[code]; ok {
			return fmt.Errorf("order %d: %w", i+1,
				apperrors.Validation("orderId %s repeats order %d", o.OrderCode, first))
		}
		seen[code] = i + 1
	}
	return nil
}

func importOrders(ctx context.Context, svc *lifecycle.Service, orders []models.NewOrder) (int, error) {
	for i, o := range orders {
		if _, err := svc.Import(ctx, o); err != nil {
			return i, fmt.Errorf("order %d: %w", i+1, err)
		}
	}
	return len(orders), nil
}
