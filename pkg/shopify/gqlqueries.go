package shopify

var productsWithMetafieldsQuery = `
query ProductsWithMetafields($first: Int!, $metafields: Int!, $cursor: String) {
  products(first: $first, after: $cursor) {
    pageInfo {
      hasNextPage
      endCursor
    }
    edges {
      node {
        id
        title
        handle
        metafields(first: $metafields) {
          edges {
            node {
              id
              namespace
              key
              value
              type
              definition {
                id
              }
            }
          }
        }
      }
    }
  }
}
`

var variantsWithMetafieldsQuery = `
query VariantsWithMetafields($first: Int!, $metafields: Int!, $cursor: String) {
  productVariants(first: $first, after: $cursor) {
    pageInfo {
      hasNextPage
      endCursor
    }
    edges {
      node {
        id
        title
        sku
        product {
          title
          handle
        }
        metafields(first: $metafields) {
          edges {
            node {
              id
              namespace
              key
              value
              type
              definition {
                id
              }
            }
          }
        }
      }
    }
  }
}
`

var metafieldDefinitionsQuery = `
query MetafieldDefinitions($namespace: String!, $key: String!, $ownerType: MetafieldOwnerType!) {
  metafieldDefinitions(first: 1, namespace: $namespace, key: $key, ownerType: $ownerType) {
    edges {
      node {
        id
        namespace
        key
        name
      }
    }
  }
}
`

var createMetafieldDefinitionMutation = `
mutation CreateMetafieldDefinition($definition: MetafieldDefinitionInput!) {
  metafieldDefinitionCreate(definition: $definition) {
    createdDefinition {
      id
      name
      namespace
      key
    }
    userErrors {
      field
      message
    }
  }
}
`

var deleteMetafieldDefinitionMutation = `
mutation DeleteMetafieldDefinition($id: ID!, $deleteAllAssociatedMetafields: Boolean!) {
  metafieldDefinitionDelete(id: $id, deleteAllAssociatedMetafields: $deleteAllAssociatedMetafields) {
    deletedDefinitionId
    userErrors {
      field
      message
    }
  }
}
`

var shopInfoQuery = `
query ShopInfo {
  shop {
    id
    name
    email
    myshopifyDomain
    createdAt
    currencyCode
    timezoneAbbreviation
    unitSystem
    weightUnit
    primaryDomain {
      host
      url
    }
    plan {
      displayName
      partnerDevelopment
      shopifyPlus
    }
    features {
      storefront
    }
    billingAddress {
      country
      province
      city
    }
  }
}
`

var listProductsQuery = `
query ListProducts($first: Int!, $sortKey: ProductSortKeys!, $reverse: Boolean!) {
  products(first: $first, sortKey: $sortKey, reverse: $reverse) {
    edges {
      node {
        id
        title
        handle
        status
        vendor
        updatedAt
      }
    }
  }
}
`

var productFields = `
  id
  title
  description
  descriptionHtml
  handle
  status
  vendor
  productType
  tags
  createdAt
  updatedAt
  publishedAt
  onlineStoreUrl
  featuredImage {
    id
    url
    altText
    width
    height
  }
  media(first: 250) {
    edges {
      node {
        ... on MediaImage {
          id
          image {
            url
            altText
            width
            height
          }
          mediaContentType
        }
      }
    }
  }
  variants(first: 250) {
    edges {
      node {
        id
        title
        price
        compareAtPrice
        sku
        barcode
        position
        availableForSale
        inventoryPolicy
        inventoryQuantity
        inventoryItem {
          id
          tracked
        }
        selectedOptions {
          name
          value
        }
        metafields(first: 250) {
          edges {
            node {
              id
              namespace
              key
              value
              type
              description
              createdAt
              updatedAt
            }
          }
        }
      }
    }
  }
  metafields(first: 250) {
    edges {
      node {
        id
        namespace
        key
        value
        type
        description
        createdAt
        updatedAt
      }
    }
  }
  options {
    id
    name
    values
    position
  }
  seo {
    title
    description
  }
`

var productByHandleQuery = `
query ProductByHandle($handle: String!) {
  productByHandle(handle: $handle) {` + productFields + `}
}
`

var productByIDQuery = `
query ProductByID($id: ID!) {
  product(id: $id) {` + productFields + `}
}
`

var listCatalogsQuery = `
query ListCatalogs($first: Int!) {
  catalogs(first: $first) {
    edges {
      node {
        id
        title
        status
      }
    }
  }
}
`

var customersWithOrdersQuery = `
query CustomersWithOrders($first: Int!, $cursor: String, $query: String) {
  customers(first: $first, after: $cursor, query: $query) {
    edges {
      node {
        id
        email
        firstName
        lastName
        numberOfOrders
      }
    }
    pageInfo {
      hasNextPage
      endCursor
    }
  }
}
`

var customerOrdersQuery = `
query CustomerOrders($customerId: ID!, $first: Int!, $cursor: String) {
  customer(id: $customerId) {
    id
    orders(first: $first, after: $cursor) {
      edges {
        node {
          id
          name
          createdAt
          totalPriceSet {
            shopMoney {
              amount
              currencyCode
            }
          }
          lineItems(first: 250) {
            edges {
              node {
                id
                title
                sku
                quantity
                originalUnitPriceSet {
                  shopMoney {
                    amount
                    currencyCode
                  }
                }
                variant {
                  id
                  title
                  selectedOptions {
                    name
                    value
                  }
                }
              }
            }
          }
        }
      }
      pageInfo {
        hasNextPage
        endCursor
      }
    }
  }
}
`
