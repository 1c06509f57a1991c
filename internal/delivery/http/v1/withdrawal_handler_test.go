package v1

import (
	"net/http"
	"testing"
	"time"

	"bazaar-dashboard/internal/domain"
	infraCache "bazaar-dashboard/internal/infrastructure/cache"
	"bazaar-dashboard/internal/repository/rest"
	"bazaar-dashboard/internal/usecase"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newWithdrawalHandler(up *upstream) (*WithdrawalHandler, *usecase.WithdrawalUsecase) {
	uc := usecase.NewWithdrawalUsecase(rest.NewWithdrawalRepository(up.client), nil,
		infraCache.NewMemoryCache(time.Minute, time.Minute), time.Minute, time.Second)
	return NewWithdrawalHandler(uc), uc
}

func TestWithdrawalHandler_SellerBalanceAndRequest(t *testing.T) {
	up := newUpstream(t)
	up.on("GET /withdrawals/my", `[
		{"id":"w1","amount":"300","status":"processed","paymentMethod":"upi"},
		{"id":"w2","amount":"100","status":"rejected","paymentMethod":"upi"}]`)
	up.on("GET /withdrawals/earnings", `{"data":[{"id":"e1","amount":"1000"}]}`)
	up.on("POST /withdrawals/request", `{"data":{"id":"w3","amount":"500","status":"pending","paymentMethod":"upi","paymentDetails":{"upiId":"asha@okaxis"}}}`)

	h, uc := newWithdrawalHandler(up)

	rec := serve(h.GetMine, http.MethodGet, "/api/v1/withdrawals/my", seller, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	mine := decodeData[sellerWithdrawals](t, rec)
	assert.True(t, mine.AvailableBalance.Equal(decimal.NewFromInt(700)), mine.AvailableBalance.String())
	require.Len(t, mine.Withdrawals, 2)

	statuses := map[string]domain.Status{}
	for _, w := range mine.Withdrawals {
		statuses[w.ID] = w.Status
	}
	assert.Equal(t, domain.WithdrawalStatusPaid, statuses["w1"])

	t.Run("over the balance", func(t *testing.T) {
		writes := up.writes.Load()
		rec := serve(h.Request, http.MethodPost, "/api/v1/withdrawals/request", seller,
			`{"amount":"800","paymentMethod":"upi","paymentDetails":{"upiId":"asha@okaxis"}}`)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, errorMessage(t, rec), "insufficient balance")
		assert.Equal(t, writes, up.writes.Load())
	})

	t.Run("bad details", func(t *testing.T) {
		rec := serve(h.Request, http.MethodPost, "/api/v1/withdrawals/request", seller,
			`{"amount":"10","paymentMethod":"bank","paymentDetails":{"accountHolder":"Asha"}}`)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	rec = serve(h.Request, http.MethodPost, "/api/v1/withdrawals/request", seller,
		`{"amount":"500","paymentMethod":"UPI","paymentDetails":{"upiId":"asha@okaxis"}}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "w3", decodeData[domain.Withdrawal](t, rec).ID)
	assert.True(t, uc.AvailableBalance("s1").Equal(decimal.NewFromInt(200)))

	t.Run("paid requests cannot be withdrawn", func(t *testing.T) {
		rec := serve(h.DeleteMine, http.MethodDelete, "/api/v1/withdrawals/w1", seller, "", "id", "w1")
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("unknown request", func(t *testing.T) {
		rec := serve(h.DeleteMine, http.MethodDelete, "/api/v1/withdrawals/zz", seller, "", "id", "zz")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestWithdrawalHandler_AdminStatusAliases(t *testing.T) {
	up := newUpstream(t)
	up.mux.HandleFunc("GET /withdrawals/admin", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "paid", r.URL.Query().Get("status"))
		_, _ = w.Write([]byte(`{"data":[{"id":"w7","sellerId":"s1","amount":"50","status":"approved"}],"total":1}`))
	})
	up.on("PUT /withdrawals/admin/w7/status", `{"data":{"id":"w7","sellerId":"s1","amount":"50","status":"completed","transactionId":"TXN-1"}}`)

	h, _ := newWithdrawalHandler(up)

	rec := serve(h.AdminList, http.MethodGet, "/api/v1/admin/withdrawals?status=Processed", admin, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = serve(h.AdminUpdateStatus, http.MethodPut, "/api/v1/admin/withdrawals/w7/status", admin, `{"status":"paid"}`, "id", "w7")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, "paying out needs a transaction id")

	rec = serve(h.AdminUpdateStatus, http.MethodPut, "/api/v1/admin/withdrawals/w7/status", admin, `{"status":"paid","transactionId":"TXN-1"}`, "id", "w7")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, domain.WithdrawalStatusPaid, decodeData[domain.Withdrawal](t, rec).Status)

	rec = serve(h.AdminUpdateStatus, http.MethodPut, "/api/v1/admin/withdrawals/w7/status", admin, `{"status":"rejected"}`, "id", "w7")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}
