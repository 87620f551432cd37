package cmd

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/shopadmin-cli/shopadmin/internal/utils"
	"github.com/shopadmin-cli/shopadmin/pkg/prompt"
	"github.com/shopadmin-cli/shopadmin/pkg/shopify"
	"github.com/shopadmin-cli/shopadmin/pkg/shops"
	"github.com/shopadmin-cli/shopadmin/pkg/storage"
	"github.com/shopadmin-cli/shopadmin/pkg/whttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// currentShopName is used in error suggestions once a shop is resolved.
var currentShopName string

func shopStore() *shops.ViperStore {
	return shops.NewViperStore(viper.GetViper())
}

// resolveShop picks the shop from --shop, the config default, the only
// configured shop or an interactive selection.
func resolveShop(cmd *cobra.Command) (shops.Shop, error) {
	name, _ := cmd.Flags().GetString("shop")
	shop, err := shops.Resolve(shopStore(), name, prompt.NewTerminal().ChooseShop)
	if err != nil {
		return shops.Shop{}, err
	}
	currentShopName = shop.Name
	utils.Log.Debugf("Using shop: %s (%s)", shop.Name, shop.URL)
	return shop, nil
}

func newHTTPClient(cmd *cobra.Command) (*whttp.Client, error) {
	opts := []whttp.Option{
		whttp.WithRateLimit(viper.GetFloat64("http.rate_limit")),
		whttp.WithRetryMax(viper.GetInt("http.retry_max")),
	}
	if proxy, _ := cmd.Flags().GetString("proxy"); proxy != "" {
		proxyURL, err := url.Parse(proxy)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy URL: %w", err)
		}
		opts = append(opts, whttp.WithProxy(proxyURL))
	}
	return whttp.NewClient(opts...), nil
}

// newShopifyClient resolves the shop and builds an Admin API client for it.
func newShopifyClient(cmd *cobra.Command) (*shopify.Client, error) {
	shop, err := resolveShop(cmd)
	if err != nil {
		return nil, err
	}
	apiVersion, err := shopStore().APIVersion()
	if err != nil {
		return nil, err
	}
	hc, err := newHTTPClient(cmd)
	if err != nil {
		return nil, err
	}

	opts := []shopify.Option{shopify.WithHTTPClient(hc)}
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		opts = append(opts, shopify.WithVerbose(os.Stderr))
	}
	return shopify.NewClient(shop, apiVersion, opts...)
}

func openJournal() (*storage.DB, error) {
	dbPath, err := utils.GetAbsDBPath(viper.GetString("journal.path"))
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o700); err != nil {
		return nil, err
	}
	utils.Log.Debugf("Journal: %s", dbPath)
	return storage.Open(dbPath)
}
