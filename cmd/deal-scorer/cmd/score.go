package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/donaldgifford/deal-scorer/internal/pricecache"
	score "github.com/donaldgifford/deal-scorer/pkg/scorer"
	domain "github.com/donaldgifford/deal-scorer/pkg/types"
)

func scoreCmd() *cobra.Command {
	var (
		pricesFile string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "score <listing.json|->",
		Short: "Score listings offline",
		Long: "Scores one listing or a JSON array of listings without a database.\n" +
			"Market prices come from a YAML fixture; without one the price\n" +
			"category scores neutral.",
		Example: `  deal-scorer score listing.json --market-prices prices.yaml
  cat listings.json | deal-scorer score - --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			listings, err := readListings(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}

			loader := pricecache.StaticLoader{}
			if pricesFile != "" {
				if loader, err = pricecache.LoadFile(pricesFile); err != nil {
					return err
				}
			}

			sc := score.New(pricecache.New(loader))

			results := make([]*score.Result, 0, len(listings))
			for i := range listings {
				res, err := sc.Score(cmd.Context(), &listings[i])
				if err != nil {
					return fmt.Errorf("scoring listing %d: %w", i, err)
				}
				results = append(results, res)
			}

			out := cmd.OutOrStdout()
			if jsonOutput {
				if len(results) == 1 {
					return outputJSON(out, results[0])
				}
				return outputJSON(out, results)
			}
			for i, res := range results {
				if i > 0 {
					fmt.Fprintln(out)
				}
				if err := printResult(out, &listings[i], res); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&pricesFile, "market-prices", "", "YAML market price fixture")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")

	return cmd
}

// readListings decodes a single listing object or an array of listings.
func readListings(stdin io.Reader, path string) ([]domain.Listing, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path) //nolint:gosec // path from CLI argument
	}
	if err != nil {
		return nil, fmt.Errorf("reading listings: %w", err)
	}

	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("reading listings: empty input")
	}

	if data[0] == '[' {
		var listings []domain.Listing
		if err := json.Unmarshal(data, &listings); err != nil {
			return nil, fmt.Errorf("decoding listings: %w", err)
		}
		return listings, nil
	}

	var l domain.Listing
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("decoding listing: %w", err)
	}
	return []domain.Listing{l}, nil
}
