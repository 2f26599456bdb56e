package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func scoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "score <listing.json|->",
		Short: "Score a listing without storing it",
		Long: "Sends a listing to the server, which scores it against the current\n" +
			"market prices and returns the breakdown. Nothing is persisted.",
		Example: `  dsctl score listing.json
  dsctl score - --output json < listing.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := readListingBody(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}

			c := newClient()
			res, err := c.Score(context.Background(), body)
			if err != nil {
				return err
			}

			if jsonOutput() {
				return outputJSON(res)
			}

			if body.Title != "" {
				fmt.Println(body.Title)
			}
			return printScoreResult(res)
		},
	}
}

func gradesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "grades",
		Short: "Show the grade bands",
		RunE: func(_ *cobra.Command, _ []string) error {
			c := newClient()
			thresholds, err := c.Grades(context.Background())
			if err != nil {
				return err
			}

			if jsonOutput() {
				return outputJSON(thresholds)
			}
			return printGradesTable(thresholds)
		},
	}
}
