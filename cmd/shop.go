package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopadmin-cli/shopadmin/internal/utils"
	"github.com/spf13/cobra"
)

var shopCmd = &cobra.Command{
	Use:   "shop",
	Short: "Inspect the selected shop",
}

var shopInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show information about the shop",
	RunE: func(cmd *cobra.Command, _ []string) error {
		client, err := newShopifyClient(cmd)
		if err != nil {
			return err
		}

		fmt.Println("\nFetching shop information...")
		info, err := client.ShopInfo(context.Background())
		if err != nil {
			return err
		}
		shop := client.Shop()

		fmt.Println(strings.Repeat("═", 80))
		fmt.Printf("\nShop Information: %s\n\n", shop.Name)
		fmt.Println(strings.Repeat("─", 80))

		fmt.Println("Basic Information:")
		fmt.Printf("  Store Name: %s\n", info.Name)
		fmt.Printf("  Shop ID: %s\n", utils.LastPathSegment(info.ID))
		fmt.Printf("  Email: %s\n", info.Email)
		fmt.Printf("  Primary Domain: %s\n", info.PrimaryDomain)
		fmt.Printf("  MyShopify Domain: %s\n", info.MyshopifyDomain)
		fmt.Printf("  Created: %s\n", info.CreatedAt.Local().Format("2006-01-02"))

		fmt.Println("\nPlan Information:")
		fmt.Printf("  Plan: %s\n", info.Plan)
		fmt.Printf("  Shopify Plus: %s\n", yesNo(info.ShopifyPlus, "Yes", "No"))
		fmt.Printf("  Partner Development: %s\n", yesNo(info.PartnerDevelopment, "Yes", "No"))

		fmt.Println("\nSettings:")
		fmt.Printf("  Currency: %s\n", info.CurrencyCode)
		fmt.Printf("  Timezone: %s\n", info.TimezoneAbbreviation)
		fmt.Printf("  Unit System: %s\n", info.UnitSystem)
		fmt.Printf("  Weight Unit: %s\n", info.WeightUnit)

		if info.Location != "" {
			fmt.Println("\nLocation:")
			fmt.Printf("  Address: %s\n", info.Location)
		}

		fmt.Println("\nFeatures:")
		fmt.Printf("  Storefront: %s\n", yesNo(info.Storefront, "Enabled", "Disabled"))

		fmt.Println("\nLocal Configuration:")
		fmt.Printf("  Config Name: %s\n", shop.Name)
		fmt.Printf("  API URL: %s\n", shop.URL)
		fmt.Printf("  Token: %s\n", shop.MaskedToken())
		if !shop.AddedAt.IsZero() {
			fmt.Printf("  Added: %s\n", shop.AddedAt.Local().Format("2006-01-02 15:04:05"))
		}

		fmt.Println("\n" + strings.Repeat("═", 80))
		return nil
	},
}

func yesNo(b bool, yes, no string) string {
	if b {
		return "✓ " + yes
	}
	return "✗ " + no
}

func init() {
	rootCmd.AddCommand(shopCmd)
	shopCmd.AddCommand(shopInfoCmd)
}
