package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestWithRequestID_Middleware(t *testing.T) {
	t.Parallel()
	base := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{
			"rid": RequestID(r),
		})
	})
	h := WithRequestID(base)

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(headerRequestID, "abcd-1234")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.Equal(t, "abcd-1234", rr.Header().Get(headerRequestID))

	var m map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &m))
	require.Equal(t, "abcd-1234", m["rid"])

	rr2 := httptest.NewRecorder()
	h.ServeHTTP(rr2, httptest.NewRequest(http.MethodGet, "/y", nil))
	gen := rr2.Header().Get(headerRequestID)
	_, err := uuid.Parse(gen)
	require.NoError(t, err)

	m = map[string]string{}
	require.NoError(t, json.Unmarshal(rr2.Body.Bytes(), &m))
	require.Equal(t, gen, m["rid"])
}

func TestWithRequestID_OversizedReplaced(t *testing.T) {
	t.Parallel()
	h := WithRequestID(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(headerRequestID, strings.Repeat("a", maxRequestIDLen+1))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.Len(t, rr.Header().Get(headerRequestID), 36)
}

func TestNewID_UUID(t *testing.T) {
	t.Parallel()
	id, err := uuid.Parse(newID())
	require.NoError(t, err)
	require.Equal(t, uuid.Version(4), id.Version())
}

func TestRequestID_NoMiddleware(t *testing.T) {
	t.Parallel()
	req := httptest.NewRequest(http.MethodGet, "/z", nil)
	require.Equal(t, "", RequestID(req))
}
