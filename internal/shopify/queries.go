package shopify

const (
	ordersPageSize = 50

	qOrders = `query Orders($first: Int!, $after: String, $query: String!) {
  orders(first: $first, after: $after, query: $query, sortKey: CREATED_AT, reverse: false) {
    pageInfo {
      hasNextPage
      endCursor
    }
    nodes {
      id
      name
      createdAt
      displayFinancialStatus
      displayFulfillmentStatus
      tags
      customer {
        email
      }
      shippingAddress {
        firstName
        lastName
        company
        address1
        address2
        city
        zip
        countryCodeV2
        phone
      }
      billingAddress {
        firstName
        lastName
        company
        address1
        address2
        city
        zip
        countryCodeV2
        phone
      }
      totalPriceSet {
        shopMoney {
          amount
          currencyCode
        }
      }
      totalTaxSet {
        shopMoney {
          amount
          currencyCode
        }
      }
      totalShippingPriceSet {
        shopMoney {
          amount
          currencyCode
        }
      }
      lineItems(first: 100) {
        nodes {
          title
          quantity
          sku
          variant {
            sku
          }
          fulfilledQuantity
          fulfillmentStatus
        }
      }
    }
  }
}`
)

type pageInfo struct {
	HasNextPage bool   `json:"hasNextPage"`
	EndCursor   string `json:"endCursor"`
}

type ordersData struct {
	Orders struct {
		PageInfo pageInfo `json:"pageInfo"`
		Nodes    []Order  `json:"nodes"`
	} `json:"orders"`
}
