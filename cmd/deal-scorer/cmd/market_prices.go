package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/donaldgifford/deal-scorer/internal/pricecache"
	"github.com/donaldgifford/deal-scorer/internal/store"
)

func marketPricesCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "market-prices",
		Short: "Manage reference market prices",
	}
	root.AddCommand(marketPricesImportCmd(), marketPricesListCmd())
	return root
}

func marketPricesImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.yaml>",
		Short: "Upsert market prices from a YAML file",
		Long: "Writes the records into the market_prices table and drops the shared\n" +
			"Redis copy. Running servers pick the new prices up when their local\n" +
			"snapshot expires or is invalidated through the API.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := pricecache.LoadFile(args[0])
			if err != nil {
				return err
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			log := newLogger(cfg)
			ctx := cmd.Context()

			pg, err := store.NewPostgresStore(ctx, cfg.Database.DSN(), 2)
			if err != nil {
				return fmt.Errorf("connecting to database: %w", err)
			}
			defer pg.Close()

			if err := pg.UpsertMarketPrices(ctx, records); err != nil {
				return fmt.Errorf("importing market prices: %w", err)
			}
			log.Info("market prices imported", "records", len(records))

			if cfg.Redis.Enabled {
				rc, err := store.ConnectRedis(cfg.Redis.URL)
				if err != nil {
					return err
				}
				defer rc.Close()
				if err := store.NewRedisMarketPrices(rc, pg).Invalidate(ctx); err != nil {
					log.Warn("shared market price cache not cleared", "error", err)
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d market prices.\n", len(records))
			return nil
		},
	}
}

func marketPricesListCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored market prices",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			pg, err := store.NewPostgresStore(ctx, cfg.Database.DSN(), 2)
			if err != nil {
				return fmt.Errorf("connecting to database: %w", err)
			}
			defer pg.Close()

			records, err := pg.ListMarketPrices(ctx)
			if err != nil {
				return fmt.Errorf("listing market prices: %w", err)
			}

			if jsonOutput {
				return outputJSON(cmd.OutOrStdout(), records)
			}
			if len(records) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No market prices found.")
				return nil
			}
			return printMarketPrices(cmd.OutOrStdout(), records)
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")

	return cmd
}
