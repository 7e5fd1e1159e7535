package shopify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

const DefaultLookbackDays = 14

// CreatedSinceFilter builds the orders search expression for everything
// created at or after since, in UTC with second precision.
func CreatedSinceFilter(since time.Time) string {
	return "created_at:>=" + since.UTC().Truncate(time.Second).Format(time.RFC3339)
}

// FetchRecentOrders pages through all orders created in the last days days.
// Paging stops when the server reports no next page or omits the cursor.
func (c *Client) FetchRecentOrders(ctx context.Context, days int) ([]Order, error) {
	if days <= 0 {
		days = DefaultLookbackDays
	}
	filter := CreatedSinceFilter(c.now().AddDate(0, 0, -days))

	orders := make([]Order, 0, ordersPageSize)
	var cursor *string
	pages := 0
	for {
		vars := map[string]any{
			"first": ordersPageSize,
			"after": cursor,
			"query": filter,
		}
		data, err := c.RunQuery(ctx, qOrders, vars)
		if err != nil {
			return nil, fmt.Errorf("fetch orders page %d: %w", pages+1, err)
		}

		var od ordersData
		if err := json.Unmarshal(data, &od); err != nil {
			return nil, fmt.Errorf("decode orders page %d: %w", pages+1, err)
		}
		orders = append(orders, od.Orders.Nodes...)
		pages++

		pi := od.Orders.PageInfo
		if !pi.HasNextPage || pi.EndCursor == "" {
			break
		}
		next := pi.EndCursor
		cursor = &next
	}

	c.logf("[SHOPIFY] fetched %d orders in %d page(s) (%s)", len(orders), pages, filter)
	return orders, nil
}
