package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var catalogsCmd = &cobra.Command{
	Use:   "catalogs",
	Short: "Read catalogs",
}

var catalogsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List catalogs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		if limit < 1 {
			return errors.New("invalid limit value, must be a positive number")
		}

		client, err := newShopifyClient(cmd)
		if err != nil {
			return err
		}

		fmt.Printf("\nCatalogs from %s\n\n", client.Shop().Name)
		catalogs, err := client.ListCatalogs(context.Background(), limit)
		if err != nil {
			return err
		}
		if len(catalogs) == 0 {
			fmt.Println("No catalogs found")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "ID\tTITLE\tSTATUS\t")
		for _, c := range catalogs {
			title := c.Title
			if title == "" {
				title = "(no title)"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t\n", c.ID, title, c.Status)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(catalogsCmd)
	catalogsCmd.AddCommand(catalogsListCmd)
	catalogsListCmd.Flags().IntP("limit", "n", 50, "Number of catalogs to list")
}
