// Package shopify talks to the Admin GraphQL API of one store.
package shopify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/shopadmin-cli/shopadmin/internal/utils"
	"github.com/shopadmin-cli/shopadmin/pkg/apierr"
	"github.com/shopadmin-cli/shopadmin/pkg/shops"
	"github.com/shopadmin-cli/shopadmin/pkg/whttp"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

const ACCESS_TOKEN_HEADER = "X-Shopify-Access-Token"

// GraphQLError carries the "errors" member of a response.
type GraphQLError struct {
	Operation string
	payload   gjson.Result
}

func (e *GraphQLError) Error() string {
	return e.Operation + ": " + apierr.Message(e.payload)
}

func (e *GraphQLError) Payload() gjson.Result { return e.payload }

// HTTPError is a non-2xx answer from the endpoint.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, utils.Truncate(e.Body, 200, "..."))
}

func (e *HTTPError) Status() int { return e.StatusCode }

// ErrMalformedResponse is returned when a response lacks the expected data.
var ErrMalformedResponse = errors.New("malformed response")

type Client struct {
	shop     shops.Shop
	endpoint string
	http     *whttp.Client
	verbose  io.Writer
}

type Option func(*Client)

// WithEndpoint overrides the GraphQL URL derived from the shop.
func WithEndpoint(endpoint string) Option {
	return func(c *Client) { c.endpoint = endpoint }
}

func WithHTTPClient(hc *whttp.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithVerbose echoes every request and response body to w.
func WithVerbose(w io.Writer) Option {
	return func(c *Client) { c.verbose = w }
}

// NewClient returns a client for shop using the given API version.
func NewClient(shop shops.Shop, apiVersion string, opts ...Option) (*Client, error) {
	c := &Client{shop: shop}
	for _, opt := range opts {
		opt(c)
	}

	if c.endpoint == "" {
		if apiVersion == "" {
			return nil, shops.ErrAPIVersion
		}
		domain, err := shop.Domain()
		if err != nil {
			return nil, err
		}
		c.endpoint = "https://" + domain + "/admin/api/" + apiVersion + "/graphql.json"
	}
	if c.http == nil {
		c.http = whttp.NewClient()
	}
	return c, nil
}

func (c *Client) Shop() shops.Shop { return c.shop }

func (c *Client) Endpoint() string { return c.endpoint }

// Do runs one GraphQL operation and returns its "data" member.
func (c *Client) Do(ctx context.Context, operation, query string, variables map[string]interface{}) (gjson.Result, error) {
	body, err := sjson.SetBytes([]byte(`{}`), "query", query)
	if err != nil {
		return gjson.Result{}, err
	}
	if len(variables) > 0 {
		body, err = sjson.SetBytes(body, "variables", variables)
		if err != nil {
			return gjson.Result{}, fmt.Errorf("%s: encoding variables: %w", operation, err)
		}
	}

	if c.verbose != nil {
		fmt.Fprintf(c.verbose, "GraphQL Request (%s):\n%s\n", operation, gjson.GetBytes(body, "@pretty").Raw)
	}
	utils.Log.Debugf("POST %s (%s)", c.endpoint, operation)

	res, err := c.http.Send(ctx, &whttp.WHTTPReq{
		Method: http.MethodPost,
		URL:    c.endpoint,
		Headers: []whttp.WHTTPHeader{
			{Name: ACCESS_TOKEN_HEADER, Value: c.shop.AccessToken},
		},
		Body: body,
	})
	if err != nil {
		return gjson.Result{}, fmt.Errorf("%s: %w", operation, err)
	}

	if c.verbose != nil {
		pretty := res.BodyString
		if gjson.Valid(pretty) {
			pretty = gjson.Get(pretty, "@pretty").Raw
		}
		fmt.Fprintf(c.verbose, "GraphQL Response (%s):\n%s\n", operation, pretty)
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return gjson.Result{}, fmt.Errorf("%s: %w", operation, &HTTPError{StatusCode: res.StatusCode, Body: res.BodyString})
	}
	if !gjson.Valid(res.BodyString) {
		return gjson.Result{}, fmt.Errorf("%s: %w: body is not JSON", operation, ErrMalformedResponse)
	}

	if errs := gjson.Get(res.BodyString, "errors"); hasErrors(errs) {
		return gjson.Result{}, &GraphQLError{Operation: operation, payload: errs}
	}

	data := gjson.Get(res.BodyString, "data")
	if !data.Exists() || data.Type == gjson.Null {
		return gjson.Result{}, fmt.Errorf("%s: %w: no data", operation, ErrMalformedResponse)
	}
	return data, nil
}

func hasErrors(errs gjson.Result) bool {
	if !errs.Exists() || errs.Type == gjson.Null {
		return false
	}
	if errs.IsArray() {
		return len(errs.Array()) > 0
	}
	return errs.String() != ""
}

// userErrors turns a mutation's userErrors array into an error, or nil when
// the array is empty.
func userErrors(operation string, list gjson.Result) error {
	items := list.Array()
	if len(items) == 0 {
		return nil
	}
	ue := &apierr.UserErrors{Operation: operation}
	for _, item := range items {
		var field []string
		for _, f := range item.Get("field").Array() {
			field = append(field, f.String())
		}
		ue.Errors = append(ue.Errors, apierr.UserError{Field: field, Message: item.Get("message").String()})
	}
	return ue
}

func cursorVar(cursor string) interface{} {
	if cursor == "" {
		return nil
	}
	return cursor
}
