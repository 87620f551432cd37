// Package metafields finds metafields that have no definition and deletes
// every instance of them store-wide.
package metafields

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopadmin-cli/shopadmin/internal/utils"
)

const (
	ProductPageSize   = 100
	VariantPageSize   = 100
	MetafieldPageSize = 250

	PreviewLength = 200
	PreviewSuffix = "..."

	ForceModeWarmUp = 2 * time.Second
)

type ResourceType string

const (
	Product ResourceType = "product"
	Variant ResourceType = "variant"
)

// ParseResourceType accepts "product" or "variant", singular or plural. An
// empty string means Product.
func ParseResourceType(s string) (ResourceType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "product", "products", "":
		return Product, nil
	case "variant", "variants":
		return Variant, nil
	}
	return "", fmt.Errorf("unknown resource type %q (available: product, variant)", s)
}

type OwnerType string

const (
	OwnerProduct        OwnerType = "PRODUCT"
	OwnerProductVariant OwnerType = "PRODUCTVARIANT"
)

func (rt ResourceType) OwnerType() OwnerType {
	if rt == Variant {
		return OwnerProductVariant
	}
	return OwnerProduct
}

// Plural is used in user-facing messages.
func (rt ResourceType) Plural() string {
	if rt == Variant {
		return "variants"
	}
	return "products"
}

// Title is the capitalised singular form.
func (rt ResourceType) Title() string {
	if rt == Variant {
		return "Variant"
	}
	return "Product"
}

type Metafield struct {
	ID        string
	Namespace string
	Key       string
	Type      string
	Value     string
	// DefinitionID is empty for unstructured metafields.
	DefinitionID string
}

func (m Metafield) Structured() bool { return m.DefinitionID != "" }

// LedgerKey identifies a metafield store-wide as namespace:key.
func (m Metafield) LedgerKey() string { return m.Namespace + ":" + m.Key }

// Preview returns the value as shown to the operator.
func (m Metafield) Preview() string { return Preview(m.Value) }

// Preview keeps the first PreviewLength characters of value and marks the cut.
func Preview(value string) string {
	return utils.Truncate(value, PreviewLength, PreviewSuffix)
}

// Resource is a product or a product variant as seen on one page.
type Resource struct {
	Kind   ResourceType
	ID     string
	Title  string
	Handle string
	SKU    string
	// Parent fields are only set on variants.
	ParentTitle  string
	ParentHandle string
	Metafields   []Metafield
}

func (r Resource) IsVariant() bool { return r.Kind == Variant }

func (r Resource) DisplayTitle() string {
	if !r.IsVariant() {
		return r.Title
	}
	name := r.Title
	if name == "" {
		name = r.SKU
	}
	return r.ParentTitle + " - " + name
}

func (r Resource) DisplayHandle() string {
	if r.IsVariant() {
		return r.ParentHandle
	}
	return r.Handle
}

// Unstructured returns the metafields without a definition, in order.
func (r Resource) Unstructured() []Metafield {
	var out []Metafield
	for _, mf := range r.Metafields {
		if !mf.Structured() {
			out = append(out, mf)
		}
	}
	return out
}

type Page struct {
	Resources   []Resource
	HasNextPage bool
	EndCursor   string
}

// PageFetcher returns one page of resources with their metafields. An empty
// cursor means the first page.
type PageFetcher interface {
	FetchPage(ctx context.Context, rt ResourceType, cursor string) (Page, error)
}

// DefinitionRegistry looks up, creates and deletes metafield definitions.
type DefinitionRegistry interface {
	// FindDefinition returns "" when no definition exists.
	FindDefinition(ctx context.Context, namespace, key string, owner OwnerType) (string, error)
	CreateDefinition(ctx context.Context, namespace, key, typ string, owner OwnerType) (string, error)
	// DeleteDefinition with cascade also removes every metafield using it.
	DeleteDefinition(ctx context.Context, id string, cascade bool) error
}

type Confirmer interface {
	Confirm(message string, def bool) (bool, error)
}

// Deletion describes one committed cascade delete.
type Deletion struct {
	Shop         string
	ResourceType ResourceType
	Namespace    string
	Key          string
	Type         string
	DefinitionID string
	// Temporary is true when the definition was created only to delete it.
	Temporary bool
	DeletedAt time.Time
}

// Journal records committed deletions.
type Journal interface {
	RecordDeletion(ctx context.Context, d Deletion) error
}
