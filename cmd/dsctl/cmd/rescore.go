package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/donaldgifford/deal-scorer/internal/engine"
)

func rescoreCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "rescore",
		Short: "Rescore listings",
		Long: "Recomputes deal scores using the current market prices. By default\n" +
			"only listings without a score are processed.",
		Example: `  dsctl rescore
  dsctl rescore --all`,
		RunE: func(_ *cobra.Command, _ []string) error {
			mode := engine.RescoreUnscored
			if all {
				mode = engine.RescoreAll
			}

			c := newClient()
			res, err := c.Rescore(context.Background(), mode)
			if err != nil {
				return err
			}

			if jsonOutput() {
				return outputJSON(res)
			}

			fmt.Printf("Rescored %d listings (%d failed) in %s.\n",
				res.Scored, len(res.Failures), res.Duration)
			for _, f := range res.Failures {
				fmt.Printf("  %s: %s\n", f.ListingID, f.Error)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "rescore every listing, not only unscored ones")

	return cmd
}
