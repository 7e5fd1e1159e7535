package everstox

import (
	"fmt"
	"net/http"
	"net/url"
)

const (
	DefaultAPIHost        = "api.demo.everstox.com"
	DefaultShopInstanceID = "SHOP_INSTANCE_UUID"
)

// PreparedRequest describes the import call; building one never touches the
// network.
type PreparedRequest struct {
	Method  string            `json:"method"`
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers"`
	Body    []Order           `json:"json"`
}

// ShopInstanceID returns id or the placeholder used when none is configured.
func ShopInstanceID(id string) string {
	if id == "" {
		return DefaultShopInstanceID
	}
	return id
}

func OrdersURL(apiHost, shopInstanceID string) string {
	if apiHost == "" {
		apiHost = DefaultAPIHost
	}
	return fmt.Sprintf("https://%s/shops/%s/orders", apiHost, url.PathEscape(shopInstanceID))
}

func BuildRequest(apiHost, shopInstanceID string, payload []Order) PreparedRequest {
	if payload == nil {
		payload = []Order{}
	}
	return PreparedRequest{
		Method:  http.MethodPost,
		URL:     OrdersURL(apiHost, shopInstanceID),
		Headers: map[string]string{"Content-Type": "application/json"},
		Body:    payload,
	}
}
