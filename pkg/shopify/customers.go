package shopify

import (
	"context"
	"fmt"
	"time"

	"github.com/shopadmin-cli/shopadmin/internal/utils"
	"github.com/tidwall/gjson"
)

type Money struct {
	Amount       string
	CurrencyCode string
}

type SelectedOption struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type LineItem struct {
	ID           string
	Title        string
	SKU          string
	Quantity     int
	Price        Money
	VariantID    string
	VariantTitle string
	Options      []SelectedOption
}

type Order struct {
	ID         string
	Name       string
	CreatedAt  time.Time
	TotalPrice Money
	LineItems  []LineItem
}

type Customer struct {
	ID             string
	Email          string
	FirstName      string
	LastName       string
	NumberOfOrders int
	Orders         []Order
}

// CustomersWithOrders pages through every customer that placed at least one
// order. Orders are not loaded.
func (c *Client) CustomersWithOrders(ctx context.Context) ([]Customer, error) {
	var (
		customers []Customer
		cursor    string
		page      int
	)
	for {
		page++
		utils.Log.Debugf("Fetching customers page %d", page)

		data, err := c.Do(ctx, "customers", customersWithOrdersQuery, map[string]interface{}{
			"first":  CustomerPageSize,
			"cursor": cursorVar(cursor),
			"query":  customersWithOrdersFilter,
		})
		if err != nil {
			return customers, err
		}

		conn := data.Get("customers")
		for _, node := range conn.Get("edges.#.node").Array() {
			customers = append(customers, Customer{
				ID:             node.Get("id").String(),
				Email:          node.Get("email").String(),
				FirstName:      node.Get("firstName").String(),
				LastName:       node.Get("lastName").String(),
				NumberOfOrders: int(node.Get("numberOfOrders").Int()),
			})
		}

		if !conn.Get("pageInfo.hasNextPage").Bool() {
			break
		}
		cursor = conn.Get("pageInfo.endCursor").String()
	}
	return customers, nil
}

// CustomerOrders pages through all orders of one customer.
func (c *Client) CustomerOrders(ctx context.Context, customerID string) ([]Order, error) {
	var (
		orders []Order
		cursor string
	)
	for {
		data, err := c.Do(ctx, "customer", customerOrdersQuery, map[string]interface{}{
			"customerId": customerID,
			"first":      OrderPageSize,
			"cursor":     cursorVar(cursor),
		})
		if err != nil {
			return orders, err
		}

		conn := data.Get("customer.orders")
		if !conn.Exists() {
			return orders, fmt.Errorf("customer %s: %w", customerID, ErrMalformedResponse)
		}
		for _, node := range conn.Get("edges.#.node").Array() {
			orders = append(orders, parseOrder(node))
		}

		if !conn.Get("pageInfo.hasNextPage").Bool() {
			break
		}
		cursor = conn.Get("pageInfo.endCursor").String()
	}
	return orders, nil
}

func parseOrder(node gjson.Result) Order {
	o := Order{
		ID:        node.Get("id").String(),
		Name:      node.Get("name").String(),
		CreatedAt: node.Get("createdAt").Time(),
		TotalPrice: Money{
			Amount:       node.Get("totalPriceSet.shopMoney.amount").String(),
			CurrencyCode: node.Get("totalPriceSet.shopMoney.currencyCode").String(),
		},
	}
	for _, item := range node.Get("lineItems.edges.#.node").Array() {
		li := LineItem{
			ID:       item.Get("id").String(),
			Title:    item.Get("title").String(),
			SKU:      item.Get("sku").String(),
			Quantity: int(item.Get("quantity").Int()),
			Price: Money{
				Amount:       item.Get("originalUnitPriceSet.shopMoney.amount").String(),
				CurrencyCode: item.Get("originalUnitPriceSet.shopMoney.currencyCode").String(),
			},
			VariantID:    item.Get("variant.id").String(),
			VariantTitle: item.Get("variant.title").String(),
		}
		for _, opt := range item.Get("variant.selectedOptions").Array() {
			li.Options = append(li.Options, SelectedOption{Name: opt.Get("name").String(), Value: opt.Get("value").String()})
		}
		o.LineItems = append(o.LineItems, li)
	}
	return o
}

// Export document written by "customers download".

type ExportItem struct {
	Title        string           `json:"title"`
	SKU          *string          `json:"sku"`
	Quantity     int              `json:"quantity"`
	Price        string           `json:"price"`
	Currency     string           `json:"currency"`
	VariantTitle *string          `json:"variantTitle"`
	Options      []SelectedOption `json:"options"`
}

type ExportOrder struct {
	Name       string       `json:"name"`
	CreatedAt  time.Time    `json:"createdAt"`
	TotalPrice string       `json:"totalPrice"`
	Currency   string       `json:"currency"`
	Items      []ExportItem `json:"items"`
}

type ExportCustomer struct {
	ID          string        `json:"id"`
	TotalOrders int           `json:"totalOrders"`
	Orders      []ExportOrder `json:"orders"`
}

// BuildExport converts customers with loaded orders into the export format.
// Ids are reduced to their numeric part and empty SKUs or variant titles
// become null.
func BuildExport(customers []Customer) []ExportCustomer {
	out := make([]ExportCustomer, 0, len(customers))
	for _, c := range customers {
		ec := ExportCustomer{
			ID:          utils.LastPathSegment(c.ID),
			TotalOrders: c.NumberOfOrders,
			Orders:      make([]ExportOrder, 0, len(c.Orders)),
		}
		for _, o := range c.Orders {
			eo := ExportOrder{
				Name:       o.Name,
				CreatedAt:  o.CreatedAt,
				TotalPrice: o.TotalPrice.Amount,
				Currency:   o.TotalPrice.CurrencyCode,
				Items:      make([]ExportItem, 0, len(o.LineItems)),
			}
			for _, li := range o.LineItems {
				options := li.Options
				if options == nil {
					options = []SelectedOption{}
				}
				eo.Items = append(eo.Items, ExportItem{
					Title:        li.Title,
					SKU:          nullable(li.SKU),
					Quantity:     li.Quantity,
					Price:        li.Price.Amount,
					Currency:     li.Price.CurrencyCode,
					VariantTitle: nullable(li.VariantTitle),
					Options:      options,
				})
			}
			ec.Orders = append(ec.Orders, eo)
		}
		out = append(out, ec)
	}
	return out
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
