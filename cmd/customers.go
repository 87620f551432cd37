package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopadmin-cli/shopadmin/internal/utils"
	"github.com/shopadmin-cli/shopadmin/pkg/shopify"
	"github.com/spf13/cobra"
)

var customersCmd = &cobra.Command{
	Use:   "customers",
	Short: "Read customers",
}

var customersDownloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Export every customer with orders, and their orders, to a JSON file",
	RunE: func(cmd *cobra.Command, _ []string) error {
		output, _ := cmd.Flags().GetString("output")

		client, err := newShopifyClient(cmd)
		if err != nil {
			return err
		}
		ctx := context.Background()

		fmt.Printf("\nFetching customers with orders from %s...\n\n", client.Shop().Name)
		customers, err := client.CustomersWithOrders(ctx)
		if err != nil {
			return err
		}
		if len(customers) == 0 {
			fmt.Println("No customers with orders found.")
			return nil
		}
		fmt.Printf("✓ Found %d customers with orders\n", len(customers))
		fmt.Println("Fetching order details...")

		for i := range customers {
			utils.Log.Debugf("Fetching orders for customer %s", customers[i].Email)
			orders, err := client.CustomerOrders(ctx, customers[i].ID)
			if err != nil {
				return fmt.Errorf("orders of customer %s: %w", utils.LastPathSegment(customers[i].ID), err)
			}
			customers[i].Orders = orders
			if (i+1)%10 == 0 {
				fmt.Printf("Progress: %d/%d customers processed\n", i+1, len(customers))
			}
		}
		fmt.Printf("✓ Fetched orders for all %d customers\n", len(customers))

		path, err := writeExport(output, shopify.BuildExport(customers))
		if err != nil {
			return err
		}

		totalOrders := 0
		for _, c := range customers {
			totalOrders += c.NumberOfOrders
		}
		fmt.Println("\n✓ Customer data exported successfully")
		fmt.Printf("  File: %s\n", path)
		fmt.Printf("  Customers: %d\n", len(customers))
		fmt.Printf("  Total orders: %d\n", totalOrders)
		return nil
	},
}

// writeExport writes doc as indented JSON and returns the absolute path.
func writeExport(output string, doc []shopify.ExportCustomer) (string, error) {
	if output == "" {
		output = fmt.Sprintf("customers-%d.json", time.Now().UnixMilli())
	}
	path, err := filepath.Abs(output)
	if err != nil {
		return "", err
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("writing export: %w", err)
	}
	return path, nil
}

func init() {
	rootCmd.AddCommand(customersCmd)
	customersCmd.AddCommand(customersDownloadCmd)
	customersDownloadCmd.Flags().StringP("output", "o", "", "Output file (default: customers-<timestamp>.json)")
}
