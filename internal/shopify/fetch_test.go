package shopify

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func fixedNow() time.Time {
	return time.Date(2024, 3, 15, 12, 30, 45, 987, time.UTC)
}

func Test_CreatedSinceFilter(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	since := time.Date(2024, 3, 1, 13, 0, 0, 500, loc)
	require.Equal(t, "created_at:>=2024-03-01T12:00:00Z", CreatedSinceFilter(since))
}

func Test_FetchRecentOrders_StopsOnHasNextWithoutCursor(t *testing.T) {
	s := &scripted{responses: []func(http.ResponseWriter){
		jsonResp(http.StatusOK, `{"data":{"orders":{"pageInfo":{"hasNextPage":true,"endCursor":"c1"},
			"nodes":[{"id":"gid://shopify/Order/1","name":"#1001"},{"id":"gid://shopify/Order/2","name":"#1002"}]}}}`),
		jsonResp(http.StatusOK, `{"data":{"orders":{"pageInfo":{"hasNextPage":true,"endCursor":"c2"},
			"nodes":[{"id":"gid://shopify/Order/3","name":"#1003"}]}}}`),
		jsonResp(http.StatusOK, `{"data":{"orders":{"pageInfo":{"hasNextPage":true,"endCursor":null},
			"nodes":[{"id":"gid://shopify/Order/4","name":"#1004"}]}}}`),
		jsonResp(http.StatusOK, `{"data":{"orders":{"pageInfo":{"hasNextPage":false,"endCursor":null},"nodes":[]}}}`),
	}}
	c, _ := newTestClient(t, s, WithClock(fixedNow))

	orders, err := c.FetchRecentOrders(context.Background(), 14)
	require.NoError(t, err)
	require.Len(t, s.seen, 3)

	names := make([]string, 0, len(orders))
	for _, o := range orders {
		names = append(names, o.Name)
	}
	require.Equal(t, []string{"#1001", "#1002", "#1003", "#1004"}, names)

	require.Nil(t, s.seen[0].Body.Variables["after"])
	require.Equal(t, "c1", s.seen[1].Body.Variables["after"])
	require.Equal(t, "c2", s.seen[2].Body.Variables["after"])
	for _, req := range s.seen {
		require.Equal(t, qOrders, req.Body.Query)
		require.EqualValues(t, ordersPageSize, req.Body.Variables["first"])
		require.Equal(t, "created_at:>=2024-03-01T12:30:45Z", req.Body.Variables["query"])
	}
}

func Test_FetchRecentOrders_EmptyCursorString(t *testing.T) {
	s := &scripted{responses: []func(http.ResponseWriter){
		jsonResp(http.StatusOK, `{"data":{"orders":{"pageInfo":{"hasNextPage":true,"endCursor":""},"nodes":[{"id":"1"}]}}}`),
	}}
	c, _ := newTestClient(t, s)

	orders, err := c.FetchRecentOrders(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	require.Len(t, s.seen, 1)
}

func Test_FetchRecentOrders_DefaultWindow(t *testing.T) {
	s := &scripted{responses: []func(http.ResponseWriter){
		jsonResp(http.StatusOK, `{"data":{"orders":{"pageInfo":{"hasNextPage":false},"nodes":[]}}}`),
	}}
	c, _ := newTestClient(t, s, WithClock(fixedNow))

	orders, err := c.FetchRecentOrders(context.Background(), 0)
	require.NoError(t, err)
	require.Empty(t, orders)
	require.Equal(t, "created_at:>=2024-03-01T12:30:45Z", s.seen[0].Body.Variables["query"])
}

func Test_FetchRecentOrders_DecodesOrderFields(t *testing.T) {
	s := &scripted{responses: []func(http.ResponseWriter){
		jsonResp(http.StatusOK, `{"data":{"orders":{"pageInfo":{"hasNextPage":false},"nodes":[{
			"id":"gid://shopify/Order/9","name":"#9","createdAt":"2024-03-10T08:00:00Z",
			"displayFinancialStatus":"PAID","displayFulfillmentStatus":"PARTIALLY_FULFILLED",
			"tags":["vip"," urgent "],
			"customer":{"email":"a@example.com"},
			"shippingAddress":{"firstName":"Ann","countryCodeV2":"DE"},
			"billingAddress":null,
			"totalPriceSet":{"shopMoney":{"amount":"12.50","currencyCode":"EUR"}},
			"totalTaxSet":null,
			"lineItems":{"nodes":[{"title":"Mug","quantity":3,"sku":null,"variant":{"sku":"MUG-1"},"fulfilledQuantity":1}]}
		}]}}}`),
	}}
	c, _ := newTestClient(t, s)

	orders, err := c.FetchRecentOrders(context.Background(), 14)
	require.NoError(t, err)
	require.Len(t, orders, 1)

	o := orders[0]
	require.Equal(t, FinancialStatusPaid, o.FinancialStatus)
	require.Equal(t, []string{"vip", " urgent "}, o.Tags)
	require.Equal(t, "a@example.com", o.Customer.Email)
	require.Equal(t, "DE", o.ShippingAddress.CountryCodeV2)
	require.Nil(t, o.BillingAddress)
	require.Equal(t, "12.50", *o.TotalPriceSet.ShopMoney.Amount)
	require.Nil(t, o.TotalTaxSet)
	require.Nil(t, o.TotalShippingPriceSet)

	items := o.Items()
	require.Len(t, items, 1)
	require.Equal(t, "", items[0].SKU)
	require.Equal(t, "MUG-1", items[0].Variant.SKU)
	require.Equal(t, 3, items[0].Quantity)
	require.Equal(t, 1, items[0].FulfilledQuantity)
}

func Test_FetchRecentOrders_PropagatesErrors(t *testing.T) {
	s := &scripted{responses: []func(http.ResponseWriter){
		jsonResp(http.StatusOK, `{"data":{"orders":{"pageInfo":{"hasNextPage":true,"endCursor":"c1"},"nodes":[{"id":"1"}]}}}`),
		jsonResp(http.StatusUnauthorized, `{"errors":"Invalid API key or access token"}`),
	}}
	c, _ := newTestClient(t, s)

	orders, err := c.FetchRecentOrders(context.Background(), 14)
	require.Nil(t, orders)
	require.ErrorContains(t, err, "fetch orders page 2")

	var httpErr *HTTPError
	require.True(t, errors.As(err, &httpErr))
	require.Equal(t, http.StatusUnauthorized, httpErr.StatusCode)
}

func Test_Order_ItemsWithoutContainer(t *testing.T) {
	require.Empty(t, Order{}.Items())
	require.Empty(t, Order{LineItems: &LineItemConnection{}}.Items())
}
