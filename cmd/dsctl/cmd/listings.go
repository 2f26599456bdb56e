package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	apiclient "github.com/donaldgifford/deal-scorer/internal/api/client"
	"github.com/donaldgifford/deal-scorer/internal/api/handlers"
)

func listingsCmd() *cobra.Command {
	listingsRoot := &cobra.Command{
		Use:   "listings",
		Short: "Ingest and query listings",
		Long: "Ingest scraped listings and inspect the deal scores\n" +
			"the server has stored for them.",
	}

	listingsRoot.AddCommand(
		listingsListCmd(),
		listingsGetCmd(),
		listingsIngestCmd(),
	)

	return listingsRoot
}

func listingsListCmd() *cobra.Command {
	var params apiclient.ListListingsParams

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List listings with optional filters",
		Long: "List stored listings with optional filters for score range, grade,\n" +
			"marketplace, and brand, with sorting and pagination.",
		Example: `  # Best deals first
  dsctl listings list --order-by score

  # Great and better Rolex listings
  dsctl listings list --brand rolex --min-score 75

  # Listings still waiting for a score
  dsctl listings list --unscored`,
		RunE: func(_ *cobra.Command, _ []string) error {
			c := newClient()
			resp, err := c.ListListings(context.Background(), &params)
			if err != nil {
				return err
			}

			if jsonOutput() {
				return outputJSON(resp)
			}

			if len(resp.Listings) == 0 {
				fmt.Println("No listings found.")
				return nil
			}

			fmt.Printf("Showing %d of %d listings\n\n", len(resp.Listings), resp.Total)
			return printListingsTable(resp.Listings)
		},
	}
	cmd.Flags().IntVar(&params.MinScore, "min-score", 0, "minimum score filter")
	cmd.Flags().IntVar(&params.MaxScore, "max-score", 0, "maximum score filter")
	cmd.Flags().StringVar(&params.Grade, "grade", "", "grade filter (e.g. great)")
	cmd.Flags().StringVar(&params.Source, "source", "", "marketplace filter")
	cmd.Flags().StringVar(&params.Brand, "brand", "", "brand filter")
	cmd.Flags().BoolVar(&params.Unscored, "unscored", false, "only listings without a score")
	cmd.Flags().IntVar(&params.Limit, "limit", 50, "number of results")
	cmd.Flags().IntVar(&params.Offset, "offset", 0, "result offset")
	cmd.Flags().
		StringVar(&params.OrderBy, "order-by", "", "sort order (score, price, first_seen_at, scored_at)")

	return cmd
}

func listingsGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "get <id>",
		Short:   "Show listing details",
		Example: `  dsctl listings get 7b6a0c1e-...`,
		Args:    cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			c := newClient()
			l, err := c.GetListing(context.Background(), args[0])
			if err != nil {
				return err
			}

			if jsonOutput() {
				return outputJSON(l)
			}

			return printListingDetail(l)
		},
	}
}

func listingsIngestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ingest <listing.json|->",
		Short: "Store and score a listing",
		Example: `  dsctl listings ingest listing.json
  scraper --once | dsctl listings ingest -`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := readListingBody(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}

			c := newClient()
			l, err := c.IngestListing(context.Background(), body)
			if err != nil {
				return err
			}

			if jsonOutput() {
				return outputJSON(l)
			}

			return printListingDetail(l)
		},
	}
}

// readListingBody decodes a listing from a file, or stdin when path is "-".
func readListingBody(stdin io.Reader, path string) (*handlers.ListingBody, error) {
	r := stdin
	if path != "-" {
		f, err := os.Open(path) //nolint:gosec // path from CLI argument
		if err != nil {
			return nil, fmt.Errorf("opening listing: %w", err)
		}
		defer f.Close()
		r = f
	}

	var body handlers.ListingBody
	if err := json.NewDecoder(r).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding listing: %w", err)
	}
	return &body, nil
}
