package shopify

const (
	FinancialStatusPaid        = "PAID"
	FulfillmentStatusFulfilled = "FULFILLED"
)

type Order struct {
	ID                    string              `json:"id"`
	Name                  string              `json:"name"`
	CreatedAt             string              `json:"createdAt"`
	FinancialStatus       string              `json:"displayFinancialStatus"`
	FulfillmentStatus     string              `json:"displayFulfillmentStatus"`
	Tags                  []string            `json:"tags"`
	Customer              *Customer           `json:"customer"`
	ShippingAddress       *Address            `json:"shippingAddress"`
	BillingAddress        *Address            `json:"billingAddress"`
	TotalPriceSet         *MoneyBag           `json:"totalPriceSet"`
	TotalTaxSet           *MoneyBag           `json:"totalTaxSet"`
	TotalShippingPriceSet *MoneyBag           `json:"totalShippingPriceSet"`
	LineItems             *LineItemConnection `json:"lineItems"`
}

type Customer struct {
	Email string `json:"email"`
}

type Address struct {
	FirstName     string `json:"firstName"`
	LastName      string `json:"lastName"`
	Company       string `json:"company"`
	Address1      string `json:"address1"`
	Address2      string `json:"address2"`
	City          string `json:"city"`
	Zip           string `json:"zip"`
	CountryCodeV2 string `json:"countryCodeV2"`
	CountryCode   string `json:"countryCode"`
	Phone         string `json:"phone"`
}

// MoneyBag mirrors the platform's MoneyBag; only the shop currency is used.
type MoneyBag struct {
	ShopMoney *MoneyV2 `json:"shopMoney"`
}

// MoneyV2 keeps both fields nullable so "absent" and "empty" stay distinct.
type MoneyV2 struct {
	Amount       *string `json:"amount"`
	CurrencyCode *string `json:"currencyCode"`
}

type LineItemConnection struct {
	Nodes []LineItem `json:"nodes"`
}

type LineItem struct {
	Title             string   `json:"title"`
	Quantity          int      `json:"quantity"`
	SKU               string   `json:"sku"`
	Variant           *Variant `json:"variant"`
	FulfilledQuantity int      `json:"fulfilledQuantity"`
	FulfillmentStatus string   `json:"fulfillmentStatus"`
}

type Variant struct {
	SKU string `json:"sku"`
}

// Items returns the line item nodes; a missing container yields none.
func (o Order) Items() []LineItem {
	if o.LineItems == nil {
		return nil
	}
	return o.LineItems.Nodes
}
