package shopify

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopadmin-cli/shopadmin/pkg/apierr"
	"github.com/shopadmin-cli/shopadmin/pkg/metafields"
	"github.com/shopadmin-cli/shopadmin/pkg/shops"
	"github.com/shopadmin-cli/shopadmin/pkg/whttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

var testShop = shops.Shop{Name: "acme", URL: "https://acme.myshopify.com", AccessToken: "shpat_secret"}

type recorder struct {
	mu       sync.Mutex
	bodies   []gjson.Result
	tokens   []string
	response func(body gjson.Result) (int, string)
}

func (r *recorder) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	raw, _ := io.ReadAll(req.Body)
	body := gjson.ParseBytes(raw)

	r.mu.Lock()
	r.bodies = append(r.bodies, body)
	r.tokens = append(r.tokens, req.Header.Get(ACCESS_TOKEN_HEADER))
	r.mu.Unlock()

	status, out := r.response(body)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(out))
}

func newTestClient(t *testing.T, respond func(body gjson.Result) (int, string), opts ...Option) (*Client, *recorder) {
	t.Helper()
	rec := &recorder{response: respond}
	srv := httptest.NewServer(rec)
	t.Cleanup(srv.Close)

	hc := whttp.NewClient(whttp.WithRateLimit(0), whttp.WithRetryMax(0))
	opts = append([]Option{WithEndpoint(srv.URL), WithHTTPClient(hc)}, opts...)
	c, err := NewClient(testShop, "2025-10", opts...)
	require.NoError(t, err)
	return c, rec
}

func ok(data string) (int, string) {
	return http.StatusOK, `{"data":` + data + `}`
}

func TestNewClientEndpoint(t *testing.T) {
	c, err := NewClient(testShop, "2025-10")
	require.NoError(t, err)
	assert.Equal(t, "https://acme.myshopify.com/admin/api/2025-10/graphql.json", c.Endpoint())

	_, err = NewClient(testShop, "")
	assert.ErrorIs(t, err, shops.ErrAPIVersion)

	_, err = NewClient(shops.Shop{Name: "bad", URL: "https://myshopify.com"}, "2025-10")
	assert.Error(t, err)
}

func TestDoSendsTokenAndVariables(t *testing.T) {
	c, rec := newTestClient(t, func(body gjson.Result) (int, string) {
		return ok(`{"shop":{"name":"Acme"}}`)
	})

	data, err := c.Do(context.Background(), "shop", "query { shop { name } }", map[string]interface{}{"n": 3, "cursor": nil})
	require.NoError(t, err)
	assert.Equal(t, "Acme", data.Get("shop.name").String())

	require.Len(t, rec.bodies, 1)
	assert.Equal(t, "shpat_secret", rec.tokens[0])
	assert.Equal(t, "query { shop { name } }", rec.bodies[0].Get("query").String())
	assert.Equal(t, int64(3), rec.bodies[0].Get("variables.n").Int())
	assert.Equal(t, gjson.Null, rec.bodies[0].Get("variables.cursor").Type)
}

func TestDoGraphQLErrors(t *testing.T) {
	c, _ := newTestClient(t, func(body gjson.Result) (int, string) {
		return http.StatusOK, `{"errors":[{"message":"Throttled","extensions":{"code":"THROTTLED"}}]}`
	})

	_, err := c.Do(context.Background(), "products", "query {}", nil)
	var gqlErr *GraphQLError
	require.ErrorAs(t, err, &gqlErr)
	assert.Equal(t, "Throttled", gqlErr.Payload().Get("0.message").String())

	info := apierr.ClassifyError(err, "acme")
	assert.Equal(t, apierr.RateLimit, info.Kind)
	assert.True(t, info.Fatal())
}

func TestDoUnauthorized(t *testing.T) {
	c, _ := newTestClient(t, func(body gjson.Result) (int, string) {
		return http.StatusUnauthorized, `{"errors":"[API] Invalid API key or access token (unrecognized login or wrong password)"}`
	})

	_, err := c.Do(context.Background(), "shop", "query {}", nil)
	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Status())

	info := apierr.ClassifyError(err, "acme")
	assert.Equal(t, apierr.Authentication, info.Kind)
	assert.Contains(t, info.Suggestion, `"acme"`)
}

func TestDoMalformed(t *testing.T) {
	responses := []string{`not json`, `{"data":null}`, `{}`}
	for _, resp := range responses {
		c, _ := newTestClient(t, func(body gjson.Result) (int, string) {
			return http.StatusOK, resp
		})
		_, err := c.Do(context.Background(), "shop", "query {}", nil)
		assert.ErrorIs(t, err, ErrMalformedResponse, resp)
	}
}

func TestDoVerboseEcho(t *testing.T) {
	var buf bytes.Buffer
	c, _ := newTestClient(t, func(body gjson.Result) (int, string) {
		return ok(`{"shop":{"name":"Acme"}}`)
	}, WithVerbose(&buf))

	_, err := c.Do(context.Background(), "shop", "query { shop { name } }", nil)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "GraphQL Request (shop):")
	assert.Contains(t, buf.String(), "GraphQL Response (shop):")
	assert.Contains(t, buf.String(), `"name": "Acme"`)
}

func TestFetchPageProducts(t *testing.T) {
	c, rec := newTestClient(t, func(body gjson.Result) (int, string) {
		return ok(`{"products":{
			"pageInfo":{"hasNextPage":true,"endCursor":"abc"},
			"edges":[{"node":{"id":"gid://shopify/Product/1","title":"Shirt","handle":"shirt",
				"metafields":{"edges":[
					{"node":{"id":"m1","namespace":"custom","key":"color","value":"red","type":"string","definition":null}},
					{"node":{"id":"m2","namespace":"global","key":"title_tag","value":"x","type":"single_line_text_field","definition":{"id":"gid://shopify/MetafieldDefinition/9"}}}
				]}}}]}}`)
	})

	page, err := c.FetchPage(context.Background(), metafields.Product, "")
	require.NoError(t, err)

	body := rec.bodies[0]
	assert.Contains(t, body.Get("query").String(), "products(first: $first, after: $cursor)")
	assert.Equal(t, int64(metafields.ProductPageSize), body.Get("variables.first").Int())
	assert.Equal(t, int64(metafields.MetafieldPageSize), body.Get("variables.metafields").Int())
	assert.Equal(t, gjson.Null, body.Get("variables.cursor").Type)

	assert.True(t, page.HasNextPage)
	assert.Equal(t, "abc", page.EndCursor)
	require.Len(t, page.Resources, 1)
	res := page.Resources[0]
	assert.Equal(t, metafields.Product, res.Kind)
	assert.Equal(t, "Shirt", res.DisplayTitle())
	require.Len(t, res.Metafields, 2)
	unstructured := res.Unstructured()
	require.Len(t, unstructured, 1)
	assert.Equal(t, "custom:color", unstructured[0].LedgerKey())
	assert.Equal(t, "string", unstructured[0].Type)
}

func TestFetchPageVariants(t *testing.T) {
	c, rec := newTestClient(t, func(body gjson.Result) (int, string) {
		return ok(`{"productVariants":{
			"pageInfo":{"hasNextPage":false,"endCursor":null},
			"edges":[{"node":{"id":"gid://shopify/ProductVariant/7","title":"","sku":"SH-L",
				"product":{"title":"Shirt","handle":"shirt"},
				"metafields":{"edges":[]}}}]}}`)
	})

	page, err := c.FetchPage(context.Background(), metafields.Variant, "xyz")
	require.NoError(t, err)
	assert.Equal(t, "xyz", rec.bodies[0].Get("variables.cursor").String())
	assert.Contains(t, rec.bodies[0].Get("query").String(), "productVariants(")

	assert.False(t, page.HasNextPage)
	require.Len(t, page.Resources, 1)
	assert.Equal(t, "Shirt - SH-L", page.Resources[0].DisplayTitle())
	assert.Equal(t, "shirt", page.Resources[0].DisplayHandle())
}

func TestFetchPageMissingConnection(t *testing.T) {
	c, _ := newTestClient(t, func(body gjson.Result) (int, string) {
		return ok(`{"shop":{}}`)
	})
	_, err := c.FetchPage(context.Background(), metafields.Product, "")
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestFindDefinition(t *testing.T) {
	found := true
	c, rec := newTestClient(t, func(body gjson.Result) (int, string) {
		if found {
			return ok(`{"metafieldDefinitions":{"edges":[{"node":{"id":"gid://Definition/55"}}]}}`)
		}
		return ok(`{"metafieldDefinitions":{"edges":[]}}`)
	})

	id, err := c.FindDefinition(context.Background(), "custom", "color", metafields.OwnerProductVariant)
	require.NoError(t, err)
	assert.Equal(t, "gid://Definition/55", id)
	vars := rec.bodies[0].Get("variables")
	assert.Equal(t, "custom", vars.Get("namespace").String())
	assert.Equal(t, "color", vars.Get("key").String())
	assert.Equal(t, "PRODUCTVARIANT", vars.Get("ownerType").String())

	found = false
	id, err = c.FindDefinition(context.Background(), "custom", "color", metafields.OwnerProduct)
	require.NoError(t, err)
	assert.Empty(t, id)
}

func TestCreateDefinition(t *testing.T) {
	c, rec := newTestClient(t, func(body gjson.Result) (int, string) {
		return ok(`{"metafieldDefinitionCreate":{"createdDefinition":{"id":"gid://shopify/MetafieldDefinition/77"},"userErrors":[]}}`)
	})

	id, err := c.CreateDefinition(context.Background(), "custom", "color", "single_line_text_field", metafields.OwnerProduct)
	require.NoError(t, err)
	assert.Equal(t, "gid://shopify/MetafieldDefinition/77", id)

	def := rec.bodies[0].Get("variables.definition")
	assert.Equal(t, "custom color", def.Get("name").String())
	assert.Equal(t, "single_line_text_field", def.Get("type").String())
	assert.Equal(t, "PRODUCT", def.Get("ownerType").String())
}

func TestCreateDefinitionUserErrors(t *testing.T) {
	c, _ := newTestClient(t, func(body gjson.Result) (int, string) {
		return ok(`{"metafieldDefinitionCreate":{"createdDefinition":null,"userErrors":[{"field":["definition","type"],"message":"Type is invalid"}]}}`)
	})

	_, err := c.CreateDefinition(context.Background(), "custom", "color", "bogus", metafields.OwnerProduct)
	var ue *apierr.UserErrors
	require.ErrorAs(t, err, &ue)
	require.Len(t, ue.Errors, 1)
	assert.Equal(t, []string{"definition", "type"}, ue.Errors[0].Field)
	assert.Equal(t, "metafieldDefinitionCreate: definition.type: Type is invalid", err.Error())
	assert.False(t, apierr.ClassifyError(err, "acme").Fatal())
}

func TestDeleteDefinition(t *testing.T) {
	c, rec := newTestClient(t, func(body gjson.Result) (int, string) {
		if body.Get("variables.id").String() == "gid://missing" {
			return ok(`{"metafieldDefinitionDelete":{"deletedDefinitionId":null,"userErrors":[{"field":["id"],"message":"Definition not found"}]}}`)
		}
		return ok(`{"metafieldDefinitionDelete":{"deletedDefinitionId":"gid://Definition/55","userErrors":[]}}`)
	})

	require.NoError(t, c.DeleteDefinition(context.Background(), "gid://Definition/55", true))
	assert.True(t, rec.bodies[0].Get("variables.deleteAllAssociatedMetafields").Bool())

	err := c.DeleteDefinition(context.Background(), "gid://missing", true)
	var ue *apierr.UserErrors
	assert.True(t, errors.As(err, &ue))
}

func TestReclaimerAgainstServer(t *testing.T) {
	var mu sync.Mutex
	deleted := false
	c, rec := newTestClient(t, func(body gjson.Result) (int, string) {
		mu.Lock()
		defer mu.Unlock()
		q := body.Get("query").String()
		switch {
		case strings.Contains(q, "ProductsWithMetafields"):
			mf := `{"node":{"id":"m1","namespace":"custom","key":"color","value":"red","type":"string","definition":null}}`
			if deleted {
				mf = ""
			}
			return ok(`{"products":{"pageInfo":{"hasNextPage":false,"endCursor":"c1"},
				"edges":[{"node":{"id":"gid://shopify/Product/1","title":"Shirt","handle":"shirt","metafields":{"edges":[` + mf + `]}}}]}}`)
		case strings.Contains(q, "MetafieldDefinitions"):
			return ok(`{"metafieldDefinitions":{"edges":[]}}`)
		case strings.Contains(q, "CreateMetafieldDefinition"):
			return ok(`{"metafieldDefinitionCreate":{"createdDefinition":{"id":"gid://tmp/1"},"userErrors":[]}}`)
		case strings.Contains(q, "DeleteMetafieldDefinition"):
			deleted = true
			return ok(`{"metafieldDefinitionDelete":{"deletedDefinitionId":"gid://tmp/1","userErrors":[]}}`)
		}
		return http.StatusBadRequest, `{"errors":"unexpected query"}`
	})

	var out bytes.Buffer
	r := metafields.NewReclaimer(c, c, nil, metafields.Options{Force: true, Shop: "acme", Out: &out, Sleep: func(d time.Duration) {}})
	summary, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Deleted)
	assert.Equal(t, 1, summary.Restarts)
	assert.Len(t, rec.bodies, 5)
}

func TestDefinitionPayloadMissing(t *testing.T) {
	tests := []struct {
		name string
		data string
		call func(c *Client) error
	}{
		{"find null connection", `{"metafieldDefinitions":null}`, func(c *Client) error {
			_, err := c.FindDefinition(context.Background(), "custom", "color", metafields.OwnerProduct)
			return err
		}},
		{"find missing connection", `{}`, func(c *Client) error {
			_, err := c.FindDefinition(context.Background(), "custom", "color", metafields.OwnerProduct)
			return err
		}},
		{"create null payload", `{"metafieldDefinitionCreate":null}`, func(c *Client) error {
			_, err := c.CreateDefinition(context.Background(), "custom", "color", "single_line_text_field", metafields.OwnerProduct)
			return err
		}},
		{"delete null payload", `{"metafieldDefinitionDelete":null}`, func(c *Client) error {
			return c.DeleteDefinition(context.Background(), "gid://Definition/55", true)
		}},
		{"delete missing payload", `{}`, func(c *Client) error {
			return c.DeleteDefinition(context.Background(), "gid://Definition/55", true)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, func(body gjson.Result) (int, string) {
				return ok(tt.data)
			})
			err := tt.call(c)
			assert.ErrorIs(t, err, ErrMalformedResponse)
			assert.False(t, apierr.ClassifyError(err, "acme").Fatal())
		})
	}
}

func TestReclaimerNullDeletePayloadCountsAsFailure(t *testing.T) {
	c, rec := newTestClient(t, func(body gjson.Result) (int, string) {
		q := body.Get("query").String()
		switch {
		case strings.Contains(q, "ProductsWithMetafields"):
			return ok(`{"products":{"pageInfo":{"hasNextPage":false,"endCursor":"c1"},
				"edges":[{"node":{"id":"gid://shopify/Product/1","title":"Shirt","handle":"shirt","metafields":{"edges":[
					{"node":{"id":"m1","namespace":"custom","key":"color","value":"red","type":"string","definition":null}}]}}}]}}`)
		case strings.Contains(q, "MetafieldDefinitions"):
			return ok(`{"metafieldDefinitions":{"edges":[{"node":{"id":"gid://Definition/55"}}]}}`)
		case strings.Contains(q, "DeleteMetafieldDefinition"):
			return ok(`{"metafieldDefinitionDelete":null}`)
		}
		return http.StatusBadRequest, `{"errors":"unexpected query"}`
	})

	var out bytes.Buffer
	r := metafields.NewReclaimer(c, c, nil, metafields.Options{Force: true, Shop: "acme", Out: &out, Sleep: func(d time.Duration) {}})
	summary, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Deleted)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 0, summary.Restarts)
	assert.False(t, r.Ledger().Has("custom:color"))
	assert.Len(t, rec.bodies, 3)
}
