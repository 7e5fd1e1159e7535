package importer

import (
	"context"

	"github.com/mrussa/orderbridge/internal/shopify"
)

// ShopifySource opens a fresh GraphQL client per run.
func ShopifySource(store, token, apiVersion string, opts ...shopify.Option) SourceFactory {
	return func(context.Context) (OrderSource, error) {
		c, err := shopify.NewClient(store, token, apiVersion, opts...)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
}
