package shopify

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrRetriesExhausted = errors.New("shopify: retries exhausted")
	ErrNoData           = errors.New("shopify: response without data")
	ErrEmptyStore       = errors.New("shopify: empty store identifier")
)

const bodySnippetLen = 300

type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("shopify: http status %d: %s", e.StatusCode, e.Body)
}

type GQLError struct {
	Message    string         `json:"message"`
	Path       []any          `json:"path,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

type GraphQLError struct {
	Errors []GQLError
}

func (e *GraphQLError) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, ge := range e.Errors {
		msgs = append(msgs, ge.Message)
	}
	return "shopify: graphql errors: " + strings.Join(msgs, "; ")
}

// Throttled reports whether any of the errors is a throttling error.
func (e *GraphQLError) Throttled() bool {
	for _, ge := range e.Errors {
		if strings.Contains(strings.ToLower(ge.Message), "throttl") {
			return true
		}
	}
	return false
}

func snippet(b []byte) string {
	if len(b) > bodySnippetLen {
		return string(b[:bodySnippetLen]) + "..."
	}
	return string(b)
}
