package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/shopadmin-cli/shopadmin/internal/utils"
	"github.com/spf13/cobra"
)

var productsCmd = &cobra.Command{
	Use:   "products",
	Short: "Read products",
}

var productsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the most recently updated products",
	RunE: func(cmd *cobra.Command, _ []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		if limit < 1 {
			return errors.New("invalid limit value, must be a positive number")
		}

		client, err := newShopifyClient(cmd)
		if err != nil {
			return err
		}

		fmt.Printf("\nProducts from %s\n\n", client.Shop().Name)
		products, err := client.ListProducts(context.Background(), limit)
		if err != nil {
			return err
		}
		if len(products) == 0 {
			fmt.Println("No products found")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "TITLE\tHANDLE\tSTATUS\tUPDATED\t")
		for _, p := range products {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t\n",
				utils.Truncate(p.Title, 40, "..."),
				utils.Truncate(p.Handle, 30, "..."),
				p.Status,
				p.UpdatedAt.Local().Format("Jan 2, 2006"))
		}
		return w.Flush()
	},
}

var productsGetCmd = &cobra.Command{
	Use:   "get <handle|gid>",
	Short: "Print one product as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newShopifyClient(cmd)
		if err != nil {
			return err
		}

		product, err := client.GetProduct(context.Background(), args[0])
		if err != nil {
			return err
		}
		fmt.Println(product)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(productsCmd)
	productsCmd.AddCommand(productsListCmd)
	productsCmd.AddCommand(productsGetCmd)
	productsListCmd.Flags().IntP("limit", "n", 5, "Number of products to list")
}
