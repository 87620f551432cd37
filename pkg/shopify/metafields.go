package shopify

import (
	"context"
	"fmt"

	"github.com/shopadmin-cli/shopadmin/pkg/metafields"
	"github.com/tidwall/gjson"
)

var (
	_ metafields.PageFetcher        = (*Client)(nil)
	_ metafields.DefinitionRegistry = (*Client)(nil)
)

// FetchPage returns one page of products or variants with their metafields.
func (c *Client) FetchPage(ctx context.Context, rt metafields.ResourceType, cursor string) (metafields.Page, error) {
	query, connection, first := productsWithMetafieldsQuery, "products", metafields.ProductPageSize
	if rt == metafields.Variant {
		query, connection, first = variantsWithMetafieldsQuery, "productVariants", metafields.VariantPageSize
	}

	data, err := c.Do(ctx, connection, query, map[string]interface{}{
		"first":      first,
		"metafields": metafields.MetafieldPageSize,
		"cursor":     cursorVar(cursor),
	})
	if err != nil {
		return metafields.Page{}, err
	}

	conn := data.Get(connection)
	if !conn.Exists() {
		return metafields.Page{}, fmt.Errorf("%s: %w: missing connection", connection, ErrMalformedResponse)
	}

	var page metafields.Page
	for _, edge := range conn.Get("edges").Array() {
		page.Resources = append(page.Resources, parseResource(rt, edge.Get("node")))
	}
	page.HasNextPage = conn.Get("pageInfo.hasNextPage").Bool()
	page.EndCursor = conn.Get("pageInfo.endCursor").String()
	return page, nil
}

func parseResource(rt metafields.ResourceType, node gjson.Result) metafields.Resource {
	res := metafields.Resource{
		Kind:         rt,
		ID:           node.Get("id").String(),
		Title:        node.Get("title").String(),
		Handle:       node.Get("handle").String(),
		SKU:          node.Get("sku").String(),
		ParentTitle:  node.Get("product.title").String(),
		ParentHandle: node.Get("product.handle").String(),
	}
	for _, edge := range node.Get("metafields.edges").Array() {
		mf := edge.Get("node")
		res.Metafields = append(res.Metafields, metafields.Metafield{
			ID:           mf.Get("id").String(),
			Namespace:    mf.Get("namespace").String(),
			Key:          mf.Get("key").String(),
			Type:         mf.Get("type").String(),
			Value:        mf.Get("value").String(),
			DefinitionID: mf.Get("definition.id").String(),
		})
	}
	return res
}

// FindDefinition returns the id of the definition for namespace:key on owner,
// or "" when there is none.
func (c *Client) FindDefinition(ctx context.Context, namespace, key string, owner metafields.OwnerType) (string, error) {
	data, err := c.Do(ctx, "metafieldDefinitions", metafieldDefinitionsQuery, map[string]interface{}{
		"namespace": namespace,
		"key":       key,
		"ownerType": string(owner),
	})
	if err != nil {
		return "", err
	}
	conn := data.Get("metafieldDefinitions")
	if missing(conn) {
		return "", fmt.Errorf("metafieldDefinitions: %w: missing connection", ErrMalformedResponse)
	}
	return conn.Get("edges.0.node.id").String(), nil
}

// CreateDefinition creates a definition named "namespace key".
func (c *Client) CreateDefinition(ctx context.Context, namespace, key, typ string, owner metafields.OwnerType) (string, error) {
	const op = "metafieldDefinitionCreate"
	data, err := c.Do(ctx, op, createMetafieldDefinitionMutation, map[string]interface{}{
		"definition": map[string]interface{}{
			"name":      namespace + " " + key,
			"namespace": namespace,
			"key":       key,
			"type":      typ,
			"ownerType": string(owner),
		},
	})
	if err != nil {
		return "", err
	}

	result := data.Get(op)
	if missing(result) {
		return "", fmt.Errorf("%s: %w: missing payload", op, ErrMalformedResponse)
	}
	if err := userErrors(op, result.Get("userErrors")); err != nil {
		return "", err
	}
	id := result.Get("createdDefinition.id").String()
	if id == "" {
		return "", fmt.Errorf("%s: %w: no definition id", op, ErrMalformedResponse)
	}
	return id, nil
}

func (c *Client) DeleteDefinition(ctx context.Context, id string, cascade bool) error {
	const op = "metafieldDefinitionDelete"
	data, err := c.Do(ctx, op, deleteMetafieldDefinitionMutation, map[string]interface{}{
		"id":                            id,
		"deleteAllAssociatedMetafields": cascade,
	})
	if err != nil {
		return err
	}
	result := data.Get(op)
	if missing(result) {
		return fmt.Errorf("%s: %w: missing payload", op, ErrMalformedResponse)
	}
	return userErrors(op, result.Get("userErrors"))
}

func missing(r gjson.Result) bool {
	return !r.Exists() || r.Type == gjson.Null
}
