package shopify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

const (
	CustomerPageSize = 250
	OrderPageSize    = 100

	customersWithOrdersFilter = "orders_count:>0"
)

var ErrProductNotFound = errors.New("product not found")

type ShopInfo struct {
	ID                   string
	Name                 string
	Email                string
	MyshopifyDomain      string
	PrimaryDomain        string
	CreatedAt            time.Time
	Plan                 string
	ShopifyPlus          bool
	PartnerDevelopment   bool
	CurrencyCode         string
	TimezoneAbbreviation string
	UnitSystem           string
	WeightUnit           string
	Storefront           bool
	// Location is "city, province, country" with empty parts left out.
	Location string
}

func (c *Client) ShopInfo(ctx context.Context) (ShopInfo, error) {
	data, err := c.Do(ctx, "shop", shopInfoQuery, nil)
	if err != nil {
		return ShopInfo{}, err
	}
	s := data.Get("shop")
	if !s.Exists() {
		return ShopInfo{}, fmt.Errorf("shop: %w", ErrMalformedResponse)
	}

	info := ShopInfo{
		ID:                   s.Get("id").String(),
		Name:                 s.Get("name").String(),
		Email:                s.Get("email").String(),
		MyshopifyDomain:      s.Get("myshopifyDomain").String(),
		PrimaryDomain:        s.Get("primaryDomain.host").String(),
		CreatedAt:            s.Get("createdAt").Time(),
		Plan:                 s.Get("plan.displayName").String(),
		ShopifyPlus:          s.Get("plan.shopifyPlus").Bool(),
		PartnerDevelopment:   s.Get("plan.partnerDevelopment").Bool(),
		CurrencyCode:         s.Get("currencyCode").String(),
		TimezoneAbbreviation: s.Get("timezoneAbbreviation").String(),
		UnitSystem:           s.Get("unitSystem").String(),
		WeightUnit:           s.Get("weightUnit").String(),
		Storefront:           s.Get("features.storefront").Bool(),
	}

	var parts []string
	for _, p := range []string{"city", "province", "country"} {
		if v := s.Get("billingAddress." + p).String(); v != "" {
			parts = append(parts, v)
		}
	}
	info.Location = strings.Join(parts, ", ")
	return info, nil
}

type ProductSummary struct {
	ID        string
	Title     string
	Handle    string
	Status    string
	Vendor    string
	UpdatedAt time.Time
}

// ListProducts returns the most recently updated products first.
func (c *Client) ListProducts(ctx context.Context, limit int) ([]ProductSummary, error) {
	data, err := c.Do(ctx, "products", listProductsQuery, map[string]interface{}{
		"first":   limit,
		"sortKey": "UPDATED_AT",
		"reverse": true,
	})
	if err != nil {
		return nil, err
	}

	var products []ProductSummary
	for _, node := range data.Get("products.edges.#.node").Array() {
		products = append(products, ProductSummary{
			ID:        node.Get("id").String(),
			Title:     node.Get("title").String(),
			Handle:    node.Get("handle").String(),
			Status:    node.Get("status").String(),
			Vendor:    node.Get("vendor").String(),
			UpdatedAt: node.Get("updatedAt").Time(),
		})
	}
	return products, nil
}

// GetProduct looks a product up by gid or handle and returns it as JSON
// with every connection flattened to a plain array.
func (c *Client) GetProduct(ctx context.Context, handleOrID string) (string, error) {
	var (
		data gjson.Result
		err  error
		path string
	)
	if strings.HasPrefix(handleOrID, "gid://") {
		path = "product"
		data, err = c.Do(ctx, path, productByIDQuery, map[string]interface{}{"id": handleOrID})
	} else {
		path = "productByHandle"
		data, err = c.Do(ctx, path, productByHandleQuery, map[string]interface{}{"handle": handleOrID})
	}
	if err != nil {
		return "", err
	}

	product := data.Get(path)
	if !product.Exists() || product.Type == gjson.Null {
		return "", fmt.Errorf("%w: %s", ErrProductNotFound, handleOrID)
	}
	return FlattenProduct(product.Raw)
}

// FlattenProduct replaces the media, variants and metafields connections
// (and each variant's metafields) with arrays of their nodes.
func FlattenProduct(raw string) (string, error) {
	out := raw
	var err error
	for _, conn := range []string{"media", "metafields"} {
		out, err = flattenConnection(out, conn)
		if err != nil {
			return "", err
		}
	}

	variants := "[]"
	for _, node := range gjson.Get(raw, "variants.edges.#.node").Array() {
		v, err := flattenConnection(node.Raw, "metafields")
		if err != nil {
			return "", err
		}
		variants, err = sjson.SetRaw(variants, "-1", v)
		if err != nil {
			return "", err
		}
	}
	out, err = sjson.SetRaw(out, "variants", variants)
	if err != nil {
		return "", err
	}
	return gjson.Get(out, "@pretty").Raw, nil
}

func flattenConnection(raw, name string) (string, error) {
	nodes := gjson.Get(raw, name+".edges.#.node").Raw
	if nodes == "" {
		nodes = "[]"
	}
	return sjson.SetRaw(raw, name, nodes)
}

type Catalog struct {
	ID     string
	Title  string
	Status string
}

func (c *Client) ListCatalogs(ctx context.Context, limit int) ([]Catalog, error) {
	data, err := c.Do(ctx, "catalogs", listCatalogsQuery, map[string]interface{}{"first": limit})
	if err != nil {
		return nil, err
	}
	var catalogs []Catalog
	for _, node := range data.Get("catalogs.edges.#.node").Array() {
		catalogs = append(catalogs, Catalog{
			ID:     node.Get("id").String(),
			Title:  node.Get("title").String(),
			Status: node.Get("status").String(),
		})
	}
	return catalogs, nil
}
