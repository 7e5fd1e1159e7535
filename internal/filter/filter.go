// Package filter decides which fetched orders are eligible for fulfilment and
// enriches them with a tag priority and their still-open line items.
package filter

import (
	"fmt"

	"github.com/mrussa/orderbridge/internal/shopify"
	"github.com/mrussa/orderbridge/internal/tags"
)

// ExcludeReason is the filter verdict. The zero value means included; the
// remaining values are listed in evaluation order.
type ExcludeReason uint8

const (
	Included ExcludeReason = iota
	ReasonNotPaid
	ReasonFulfilled
	ReasonTagExcluded
	ReasonNoRemainingItems
)

var reasonNames = [...]string{
	Included:               "",
	ReasonNotPaid:          "not_paid",
	ReasonFulfilled:        "fulfilled",
	ReasonTagExcluded:      "tag_excluded",
	ReasonNoRemainingItems: "no_remaining_items",
}

func (r ExcludeReason) String() string {
	if int(r) < len(reasonNames) {
		return reasonNames[r]
	}
	return fmt.Sprintf("reason(%d)", uint8(r))
}

func (r ExcludeReason) MarshalText() ([]byte, error) {
	if int(r) >= len(reasonNames) {
		return nil, fmt.Errorf("filter: unknown exclude reason %d", uint8(r))
	}
	return []byte(reasonNames[r]), nil
}

func (r ExcludeReason) Excluded() bool { return r != Included }

type RemainingLineItem struct {
	shopify.LineItem
	RemainingQty int `json:"remaining_qty"`
}

// EnrichedOrder is a copy of the fetched order plus derived fields.
// RemainingLineItems is only set for included orders.
type EnrichedOrder struct {
	shopify.Order
	Priority           *int                `json:"order_priority"`
	RemainingLineItems []RemainingLineItem `json:"remaining_line_items,omitempty"`
	ExcludeReason      ExcludeReason       `json:"exclude_reason,omitempty"`
}

// Evaluate returns the verdict and the derived fields for one order.
func Evaluate(o shopify.Order, rules tags.Rules) EnrichedOrder {
	e := EnrichedOrder{Order: o}
	if p, ok := tags.ParseOrderPriority(o.Tags); ok {
		e.Priority = &p
	}

	switch {
	case o.FinancialStatus != shopify.FinancialStatusPaid:
		e.ExcludeReason = ReasonNotPaid
	case o.FulfillmentStatus == shopify.FulfillmentStatusFulfilled:
		e.ExcludeReason = ReasonFulfilled
	case rules.Excludes(o.Tags):
		e.ExcludeReason = ReasonTagExcluded
	}
	if e.ExcludeReason.Excluded() {
		return e
	}

	remaining := RemainingItems(o.Items())
	if len(remaining) == 0 {
		e.ExcludeReason = ReasonNoRemainingItems
		return e
	}
	e.RemainingLineItems = remaining
	return e
}

// RemainingItems keeps the line items with quantity left to fulfil.
func RemainingItems(items []shopify.LineItem) []RemainingLineItem {
	var out []RemainingLineItem
	for _, it := range items {
		if qty := it.Quantity - it.FulfilledQuantity; qty > 0 {
			out = append(out, RemainingLineItem{LineItem: it, RemainingQty: qty})
		}
	}
	return out
}

// Split evaluates every order and returns the included and excluded ones, each
// in input order.
func Split(orders []shopify.Order, rules tags.Rules) (included, excluded []EnrichedOrder) {
	for _, o := range orders {
		e := Evaluate(o, rules)
		if e.ExcludeReason.Excluded() {
			excluded = append(excluded, e)
			continue
		}
		included = append(included, e)
	}
	return included, excluded
}

// CountReasons tallies excluded orders per reason.
func CountReasons(excluded []EnrichedOrder) map[ExcludeReason]int {
	if len(excluded) == 0 {
		return nil
	}
	counts := make(map[ExcludeReason]int)
	for _, e := range excluded {
		counts[e.ExcludeReason]++
	}
	return counts
}
