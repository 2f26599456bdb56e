package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	domain "github.com/donaldgifford/deal-scorer/pkg/types"
)

func marketPricesCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "market-prices",
		Short: "Inspect the server's market price cache",
	}

	root.AddCommand(
		marketPricesStatusCmd(),
		marketPricesResolveCmd(),
		marketPricesInvalidateCmd(),
	)

	return root
}

func marketPricesStatusCmd() *cobra.Command {
	var records bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show snapshot size, age, and freshness",
		RunE: func(_ *cobra.Command, _ []string) error {
			c := newClient()
			st, err := c.MarketPriceStatus(context.Background(), records)
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(st)
			}
			if err := printMarketPriceStatus(st); err != nil {
				return err
			}
			if len(st.Records) > 0 {
				fmt.Println()
				return printMarketPricesTable(st.Records)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&records, "records", false, "include every cached record")

	return cmd
}

func marketPricesResolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "resolve <brand> <model>",
		Short:   "Show the reference price used for a brand and model",
		Example: `  dsctl market-prices resolve Rolex "Submariner Date"`,
		Args:    cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			c := newClient()
			m, err := c.ResolveMarketPrice(context.Background(), args[0], args[1])
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(m)
			}
			fmt.Printf("Matched %s (%s)\n\n", m.Record.Key(), m.Level)
			return printMarketPricesTable([]domain.MarketPriceRecord{m.Record})
		},
	}
}

func marketPricesInvalidateCmd() *cobra.Command {
	var reload bool

	cmd := &cobra.Command{
		Use:   "invalidate",
		Short: "Drop cached market prices",
		Long: "Drops the server's market price snapshot and the shared Redis copy.\n" +
			"Run after the market price aggregates have been recomputed.",
		RunE: func(_ *cobra.Command, _ []string) error {
			c := newClient()
			st, err := c.InvalidateMarketPrices(context.Background(), reload)
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(st)
			}
			return printMarketPriceStatus(st)
		},
	}
	cmd.Flags().BoolVar(&reload, "reload", false, "rebuild the snapshot before returning")

	return cmd
}
