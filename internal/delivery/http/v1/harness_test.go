package v1

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"bazaar-dashboard/internal/domain"
	"bazaar-dashboard/internal/repository/rest"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"
)

var (
	customer = &domain.User{ID: "c1", Role: domain.RoleCustomer, Token: "tok-c1"}
	seller   = &domain.User{ID: "s1", Role: domain.RoleSeller, Token: "tok-s1"}
	admin    = &domain.User{ID: "a1", Role: domain.RoleAdmin, Token: "tok-a1"}
)

// upstream is a fake marketplace API. Every non-GET call is counted so tests
// can assert that client-side rejections never reach it.
type upstream struct {
	mux    *http.ServeMux
	writes atomic.Int32
	client *rest.Client
}

func newUpstream(t *testing.T) *upstream {
	t.Helper()
	u := &upstream{mux: http.NewServeMux()}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			u.writes.Add(1)
		}
		u.mux.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)
	u.client = rest.NewClient(srv.URL, 2*time.Second, 0, 1)
	return u
}

func (u *upstream) on(pattern, body string) {
	u.onStatus(pattern, http.StatusOK, body)
}

func (u *upstream) onStatus(pattern string, status int, body string) {
	u.mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		if body != "" {
			w.Header().Set("Content-Type", "application/json")
		}
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	})
}

// serve runs h the way the mux would after the auth chain: user in the
// context, path values set.
func serve(h http.HandlerFunc, method, target string, user *domain.User, body string, pathValues ...string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if user != nil {
		req = req.WithContext(context.WithValue(req.Context(), domain.UserContextKey, user))
	}
	for i := 0; i+1 < len(pathValues); i += 2 {
		req.SetPathValue(pathValues[i], pathValues[i+1])
	}
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func decodeData[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var env struct {
		Data T `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env.Data
}

func decodeInto(rec *httptest.ResponseRecorder, v any) error {
	return json.Unmarshal(rec.Body.Bytes(), v)
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body.Error
}

// memoryHistory is an in-process TransitionRecorder.
type memoryHistory struct {
	mu   sync.Mutex
	recs []domain.TransitionRecord
}

func (m *memoryHistory) Record(_ context.Context, rec domain.TransitionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec.ID = int64(len(m.recs) + 1)
	m.recs = append(m.recs, rec)
	return nil
}

func (m *memoryHistory) RecordBatch(ctx context.Context, recs []domain.TransitionRecord) error {
	for _, rec := range recs {
		if err := m.Record(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}

func (m *memoryHistory) ListByEntity(_ context.Context, entity domain.EntityType, id string) ([]domain.TransitionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.TransitionRecord
	for _, rec := range m.recs {
		if rec.Entity == entity && rec.EntityID == id {
			out = append(out, rec)
		}
	}
	return out, nil
}
