// Package everstox maps enriched orders into the everstox order schema and
// prepares (or sends) the order import request.
package everstox

import (
	"github.com/shopspring/decimal"

	"github.com/mrussa/orderbridge/internal/filter"
	"github.com/mrussa/orderbridge/internal/shopify"
)

const (
	UnknownEmail = "UNKNOWN_EMAIL"
	UnknownSKU   = "UNKNOWN_SKU"

	minPriority = 1
	maxPriority = 99
)

// Order is one entry of the import body. Every key is always serialised.
type Order struct {
	ShopInstanceID  string         `json:"shop_instance_id"`
	OrderNumber     string         `json:"order_number"`
	OrderDate       string         `json:"order_date"`
	FinancialStatus string         `json:"financial_status"`
	OrderPriority   *int           `json:"order_priority"`
	CustomerEmail   string         `json:"customer_email"`
	ShippingAddress *Address       `json:"shipping_address"`
	BillingAddress  *Address       `json:"billing_address"`
	ShippingPrice   *ShippingPrice `json:"shipping_price"`
	Totals          *Totals        `json:"totals"`
	OrderItems      []OrderItem    `json:"order_items"`
}

type Address struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Company     string `json:"company"`
	Address1    string `json:"address_1"`
	Address2    string `json:"address_2"`
	City        string `json:"city"`
	Zip         string `json:"zip"`
	CountryCode string `json:"country_code"`
	Phone       string `json:"phone"`
}

type ShippingPrice struct {
	Currency *string `json:"currency"`
	Price    float64 `json:"price"`
	Tax      float64 `json:"tax"`
	Net      float64 `json:"net"`
}

type Totals struct {
	Currency *string `json:"currency"`
	Total    float64 `json:"total"`
	Tax      float64 `json:"tax"`
}

type OrderItem struct {
	Quantity int     `json:"quantity"`
	Product  Product `json:"product"`
}

type Product struct {
	SKU string `json:"sku"`
}

// ToPayload transforms every order, keeping their order.
func ToPayload(orders []filter.EnrichedOrder, shopInstanceID string) []Order {
	out := make([]Order, 0, len(orders))
	for _, o := range orders {
		out = append(out, TransformOrder(o, shopInstanceID))
	}
	return out
}

func TransformOrder(o filter.EnrichedOrder, shopInstanceID string) Order {
	return Order{
		ShopInstanceID:  shopInstanceID,
		OrderNumber:     o.Name,
		OrderDate:       o.CreatedAt,
		FinancialStatus: o.FinancialStatus,
		OrderPriority:   payloadPriority(o.Priority),
		CustomerEmail:   customerEmail(o.Customer),
		ShippingAddress: mapAddress(o.ShippingAddress),
		BillingAddress:  mapAddress(o.BillingAddress),
		ShippingPrice:   shippingPrice(o.TotalShippingPriceSet),
		Totals:          totals(o.TotalPriceSet, o.TotalTaxSet),
		OrderItems:      orderItems(o.RemainingLineItems),
	}
}

// payloadPriority narrows the enrichment range to the schema's 1-99.
func payloadPriority(p *int) *int {
	if p == nil {
		return nil
	}
	v := min(max(*p, minPriority), maxPriority)
	return &v
}

func customerEmail(c *shopify.Customer) string {
	if c == nil || c.Email == "" {
		return UnknownEmail
	}
	return c.Email
}

func mapAddress(a *shopify.Address) *Address {
	if a == nil {
		return nil
	}
	return &Address{
		FirstName:   a.FirstName,
		LastName:    a.LastName,
		Company:     a.Company,
		Address1:    a.Address1,
		Address2:    a.Address2,
		City:        a.City,
		Zip:         a.Zip,
		CountryCode: countryCode(a),
		Phone:       a.Phone,
	}
}

func countryCode(a *shopify.Address) string {
	if a.CountryCodeV2 != "" {
		return a.CountryCodeV2
	}
	return a.CountryCode
}

func itemSKU(it shopify.LineItem) string {
	if it.SKU != "" {
		return it.SKU
	}
	if it.Variant != nil && it.Variant.SKU != "" {
		return it.Variant.SKU
	}
	return UnknownSKU
}

func orderItems(items []filter.RemainingLineItem) []OrderItem {
	out := make([]OrderItem, 0, len(items))
	for _, it := range items {
		if it.RemainingQty <= 0 {
			continue
		}
		out = append(out, OrderItem{Quantity: it.RemainingQty, Product: Product{SKU: itemSKU(it.LineItem)}})
	}
	return out
}

func shippingPrice(bag *shopify.MoneyBag) *ShippingPrice {
	m := shopMoney(bag)
	if m == nil {
		return nil
	}
	return &ShippingPrice{Currency: m.CurrencyCode, Price: toFloat(m.Amount)}
}

func totals(total, tax *shopify.MoneyBag) *Totals {
	m := shopMoney(total)
	if m == nil {
		return nil
	}
	t := &Totals{Currency: m.CurrencyCode, Total: toFloat(m.Amount)}
	if tm := shopMoney(tax); tm != nil {
		t.Tax = toFloat(tm.Amount)
	}
	return t
}

// shopMoney returns nil when the block is missing or carries neither amount
// nor currency.
func shopMoney(bag *shopify.MoneyBag) *shopify.MoneyV2 {
	if bag == nil || bag.ShopMoney == nil {
		return nil
	}
	if bag.ShopMoney.Amount == nil && bag.ShopMoney.CurrencyCode == nil {
		return nil
	}
	return bag.ShopMoney
}

func toFloat(amount *string) float64 {
	if amount == nil {
		return 0
	}
	d, err := decimal.NewFromString(*amount)
	if err != nil {
		return 0
	}
	return d.InexactFloat64()
}
