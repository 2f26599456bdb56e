package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/donaldgifford/deal-scorer/internal/engine"
)

func rescoreCmd() *cobra.Command {
	var (
		mode       string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "rescore",
		Short: "Rescore stored listings once and exit",
		Long: "Loads the current market prices and recalculates deal scores directly\n" +
			"against the database, without a running server.",
		Example: `  deal-scorer rescore
  deal-scorer rescore --mode all --json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := engine.ParseRescoreMode(mode)
			if err != nil {
				return err
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			log := newLogger(cfg)

			c, err := buildComponents(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer c.close(log)

			res, err := c.engine.Rescore(cmd.Context(), m)
			if err != nil {
				return fmt.Errorf("rescoring: %w", err)
			}

			if jsonOutput {
				return outputJSON(cmd.OutOrStdout(), res)
			}
			return printRescoreResult(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringVar(&mode, "mode", string(engine.RescoreUnscored), "which listings to rescore (unscored, all)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")

	return cmd
}
