package cmd

import (
	"github.com/spf13/cobra"

	score "github.com/donaldgifford/deal-scorer/pkg/scorer"
)

func gradesCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "grades",
		Short: "Print the grade bands",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if jsonOutput {
				return outputJSON(cmd.OutOrStdout(), score.Thresholds())
			}
			return printGrades(cmd.OutOrStdout(), score.Thresholds())
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")

	return cmd
}
