package rest

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"bazaar-dashboard/internal/domain"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c := NewClient(srv.URL, 2*time.Second, 0, 1)
	c.backoff = time.Millisecond
	return c
}

func userCtx(id, token string) context.Context {
	return context.WithValue(context.Background(), domain.UserContextKey, &domain.User{ID: id, Role: domain.RoleSeller, Token: token})
}

func TestClient_ForwardsBearerAndUnwrapsEnvelope(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/orders/o1/status", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "shipped", body["status"])

		_, _ = io.WriteString(w, `{"data":{"id":"o1","status":"shipped","paymentMethod":"cod","totalPrice":250}}`)
	})

	got, err := NewOrderRepository(c).UpdateStatus(userCtx("s1", "tok-1"), "o1", domain.OrderStatusShipped)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, domain.OrderStatusShipped, got.Status)
	assert.Equal(t, "250", got.TotalPrice.String())
}

func TestClient_BareBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[{"id":"o1","status":"pending"},{"id":"o2","status":"delivered"}]`)
	})

	got, err := NewOrderRepository(c).ListMine(userCtx("c1", "tok"))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, domain.OrderStatusDelivered, got[1].Status)
}

func TestClient_EmptyBodyYieldsNil(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	got, err := NewOrderRepository(c).ApproveCancel(userCtx("a1", "tok"), "o1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestClient_ServerRejectionCarriesMessage(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"error field", `{"error":"Insufficient balance"}`, "Insufficient balance"},
		{"message field", `{"message":"Order already shipped"}`, "Order already shipped"},
		{"no body", ``, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnprocessableEntity)
				_, _ = io.WriteString(w, tt.body)
			})

			_, err := NewWithdrawalRepository(c).Request(userCtx("s1", "tok"), domain.WithdrawalRequest{})
			var rejected *domain.ServerRejectedError
			require.ErrorAs(t, err, &rejected)
			assert.Equal(t, http.StatusUnprocessableEntity, rejected.StatusCode)
			assert.Equal(t, tt.want, rejected.Message)
		})
	}
}

func TestClient_UnauthorizedRunsHook(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	var cleared string
	c.OnUnauthorized(func(ctx context.Context, userID string) { cleared = userID })

	_, err := NewReturnRepository(c).ListMine(userCtx("c9", "expired"))
	require.ErrorIs(t, err, domain.ErrUnauthorized)
	assert.Equal(t, "c9", cleared)
}

func TestClient_RetriesReadsOnly(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = io.WriteString(w, `[]`)
	})

	_, err := NewSellerRepository(c).List(userCtx("a1", "tok"))
	require.NoError(t, err)
	assert.EqualValues(t, 3, calls.Load())

	calls.Store(0)
	_, err = NewSellerRepository(c).SetStatus(userCtx("a1", "tok"), "s1", domain.SellerActionApprove, "")
	var rejected *domain.ServerRejectedError
	require.ErrorAs(t, err, &rejected)
	assert.EqualValues(t, 1, calls.Load())
}

func TestClient_NetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := NewClient(url, time.Second, 0, 1)
	c.backoff = time.Millisecond
	_, err := NewProductRepository(c).BulkApprove(userCtx("a1", "tok"), []string{"p1"})
	var netErr *domain.NetworkFailureError
	require.ErrorAs(t, err, &netErr)
}

func TestClient_PagedAdminList(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "paid", r.URL.Query().Get("status"))
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		_, _ = io.WriteString(w, `{"data":[{"id":"w1","status":"completed","amount":"100"}],"pagination":{"totalItems":41}}`)
	})

	items, total, err := NewWithdrawalRepository(c).AdminList(userCtx("a1", "tok"),
		domain.WithdrawalFilter{Page: 2, Limit: 20, Status: "paid"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.EqualValues(t, 41, total)
	assert.Equal(t, "w1", items[0].ID)
}

func TestClient_BulkResultShapes(t *testing.T) {
	bodies := []string{
		`[{"id":"p1","success":true},{"id":"p2","success":false,"error":"already approved"}]`,
		`{"data":{"results":[{"id":"p1","success":true},{"id":"p2","success":false,"error":"already approved"}]}}`,
	}
	for _, body := range bodies {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			var req bulkBody
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, []string{"p1", "p2"}, req.ProductIDs)
			assert.Equal(t, "blurry photos", req.Reason)
			_, _ = io.WriteString(w, body)
		})

		got, err := NewProductRepository(c).BulkReject(userCtx("a1", "tok"), []string{"p1", "p2"}, "blurry photos")
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.False(t, got[1].Success)
		assert.Equal(t, "already approved", got[1].Error)
	}
}
