package ledger

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FinDesk/internal/metrics"
	"FinDesk/internal/model"
)

// fakeBackend is an in-memory PascalCase transactions store.
type fakeBackend struct {
	mu       sync.Mutex
	requests int
	nextID   int
	rows     map[int]map[string]any
	failWith int
	gate     chan struct{}
	lastUser string
	garble   bool // answer writes with an unreadable body
}

func newFakeBackend(t *testing.T) (*fakeBackend, *httptest.Server) {
	t.Helper()
	fb := &fakeBackend{nextID: 100, rows: make(map[int]map[string]any)}
	srv := httptest.NewServer(http.HandlerFunc(fb.serve))
	t.Cleanup(srv.Close)
	return fb, srv
}

func (fb *fakeBackend) serve(w http.ResponseWriter, r *http.Request) {
	fb.mu.Lock()
	fb.requests++
	fb.lastUser = r.Header.Get("userId")
	fail, gate := fb.failWith, fb.gate
	fb.mu.Unlock()
	if gate != nil {
		<-gate
	}
	if fail != 0 {
		http.Error(w, `{"message":"boom"}`, fail)
		return
	}

	fb.mu.Lock()
	defer fb.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	switch {
	case r.Method == http.MethodGet:
		out := []map[string]any{}
		for _, row := range fb.rows {
			out = append(out, row)
		}
		_ = json.NewEncoder(w).Encode(out)
	case r.Method == http.MethodPost:
		var row map[string]any
		_ = json.NewDecoder(r.Body).Decode(&row)
		fb.nextID++
		row["Id"] = fb.nextID
		if d, ok := row["Date"].(string); ok {
			row["Date"] = d + "T00:00:00"
		}
		fb.rows[fb.nextID] = row
		w.WriteHeader(http.StatusCreated)
		if fb.garble {
			_, _ = w.Write([]byte(`{"Id":`))
			return
		}
		_ = json.NewEncoder(w).Encode(row)
	case r.Method == http.MethodPut:
		id, _ := strconv.Atoi(parts[len(parts)-1])
		var row map[string]any
		_ = json.NewDecoder(r.Body).Decode(&row)
		row["Id"] = id
		fb.rows[id] = row
		if fb.garble {
			_, _ = w.Write([]byte(`<html>ok</html>`))
			return
		}
		_ = json.NewEncoder(w).Encode(row)
	case r.Method == http.MethodDelete:
		id, _ := strconv.Atoi(parts[len(parts)-1])
		delete(fb.rows, id)
		w.WriteHeader(http.StatusNoContent)
	}
}

func (fb *fakeBackend) row(id int) map[string]any {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return fb.rows[id]
}

func (fb *fakeBackend) count() int {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return fb.requests
}

func newService(url string) (*Service, *metrics.Metrics) {
	m := metrics.New()
	return NewService(NewClient(url, "", 2*time.Second), nil, m), m
}

func expense() model.Transaction {
	return model.Transaction{
		Description: "  Groceries ",
		Amount:      decimal.NewFromInt(-50),
		Date:        "2024-05-01",
		CategoryID:  3,
	}
}

func TestCreateTransaction_Expense(t *testing.T) {
	fb, srv := newFakeBackend(t)
	svc, m := newService(srv.URL)

	created, err := svc.Transactions.Create(context.Background(), "user-1", expense())
	require.NoError(t, err)
	assert.Equal(t, 101, created.ID)
	assert.Equal(t, "Groceries", created.Description)
	assert.True(t, created.Amount.Equal(decimal.NewFromInt(-50)))
	assert.Equal(t, "2024-05-01", created.Date)
	fb.mu.Lock()
	assert.Equal(t, "user-1", fb.lastUser)
	fb.mu.Unlock()

	items := svc.Transactions.Items("user-1")
	require.Len(t, items, 1)
	assert.Equal(t, created, items[0])
	assert.Empty(t, svc.Transactions.Items("user-2"))

	// backend stored PascalCase fields
	row := fb.row(101)
	assert.Equal(t, "Groceries", row["Description"])
	assert.Equal(t, -50.0, row["Amount"])
	assert.EqualValues(t, 3, row["CategoryId"])
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LedgerMutations.WithLabelValues("transactions", "CREATE", "OK")))
}

func TestCreateTransaction_ValidationBeforeNetwork(t *testing.T) {
	fb, srv := newFakeBackend(t)
	svc, m := newService(srv.URL)

	tests := []struct {
		name   string
		mutate func(*model.Transaction)
		field  string
	}{
		{"missing description", func(tx *model.Transaction) { tx.Description = "   " }, "description"},
		{"zero amount", func(tx *model.Transaction) { tx.Amount = decimal.Zero }, "amount"},
		{"bad date", func(tx *model.Transaction) { tx.Date = "05/01/2024" }, "date"},
		{"no category", func(tx *model.Transaction) { tx.CategoryID = 0 }, "categoryId"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := expense()
			tt.mutate(&tx)
			_, err := svc.Transactions.Create(context.Background(), "user-1", tx)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			require.Len(t, verr.Fields, 1)
			assert.Equal(t, tt.field, verr.Fields[0].Field)
		})
	}
	assert.Equal(t, 0, fb.count())
	assert.Empty(t, svc.Transactions.Items("user-1"))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.LedgerMutations.WithLabelValues("transactions", "CREATE", "INVALID")))
}

func TestCreate_RollbackOnServerError(t *testing.T) {
	fb, srv := newFakeBackend(t)
	svc, _ := newService(srv.URL)

	first, err := svc.Transactions.Create(context.Background(), "u", expense())
	require.NoError(t, err)
	before := svc.Transactions.Items("u")

	fb.mu.Lock()
	fb.failWith = http.StatusInternalServerError
	fb.gate = make(chan struct{})
	gate := fb.gate
	fb.mu.Unlock()

	done := make(chan error, 1)
	go func() {
		_, err := svc.Transactions.Create(context.Background(), "u", expense())
		done <- err
	}()
	// optimistic entry is visible while the request is in flight
	require.Eventually(t, func() bool { return len(svc.Transactions.Items("u")) == 2 }, time.Second, 5*time.Millisecond)
	pending := svc.Transactions.Items("u")[1]
	assert.Negative(t, pending.ID)

	close(gate)
	err = <-done
	var serr *ServerError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, http.StatusInternalServerError, serr.Status)
	assert.Equal(t, before, svc.Transactions.Items("u"))
	assert.Equal(t, first.ID, svc.Transactions.Items("u")[0].ID)
}

func TestUpdate_RollbackRestoresPrevious(t *testing.T) {
	fb, srv := newFakeBackend(t)
	svc, _ := newService(srv.URL)
	created, err := svc.Transactions.Create(context.Background(), "u", expense())
	require.NoError(t, err)

	fb.mu.Lock()
	fb.failWith = http.StatusBadRequest
	fb.mu.Unlock()

	changed := created
	changed.Description = "Rent"
	_, err = svc.Transactions.Update(context.Background(), "u", created.ID, changed)
	require.Error(t, err)
	assert.Equal(t, []model.Transaction{created}, svc.Transactions.Items("u"))

	fb.mu.Lock()
	fb.failWith = 0
	fb.mu.Unlock()
	updated, err := svc.Transactions.Update(context.Background(), "u", created.ID, changed)
	require.NoError(t, err)
	assert.Equal(t, "Rent", updated.Description)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, []model.Transaction{updated}, svc.Transactions.Items("u"))
}

func TestDelete_Pessimistic(t *testing.T) {
	fb, srv := newFakeBackend(t)
	svc, _ := newService(srv.URL)
	created, err := svc.Transactions.Create(context.Background(), "u", expense())
	require.NoError(t, err)

	fb.mu.Lock()
	fb.failWith = http.StatusServiceUnavailable
	fb.mu.Unlock()
	require.Error(t, svc.Transactions.Delete(context.Background(), "u", created.ID))
	assert.Len(t, svc.Transactions.Items("u"), 1)

	fb.mu.Lock()
	fb.failWith = 0
	fb.mu.Unlock()
	require.NoError(t, svc.Transactions.Delete(context.Background(), "u", created.ID))
	assert.Empty(t, svc.Transactions.Items("u"))
}

func TestList_ReplacesCache(t *testing.T) {
	fb, srv := newFakeBackend(t)
	svc, _ := newService(srv.URL)
	fb.rows[7] = map[string]any{"Id": 7, "Description": "Salary", "Amount": 2500.5, "Date": "2024-04-30T00:00:00", "CategoryId": 1}

	items, err := svc.Transactions.List(context.Background(), "u")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 7, items[0].ID)
	assert.Equal(t, "2024-04-30", items[0].Date)
	assert.True(t, items[0].Amount.Equal(decimal.RequireFromString("2500.5")))
	assert.Equal(t, items, svc.Transactions.Items("u"))
}

func TestBackendUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	svc, m := newService(url)

	_, err := svc.Transactions.Create(context.Background(), "u", expense())
	assert.ErrorIs(t, err, ErrBackendUnavailable)
	assert.Empty(t, svc.Transactions.Items("u"))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LedgerMutations.WithLabelValues("transactions", "CREATE", "UNAVAILABLE")))
}

func TestMissingUser(t *testing.T) {
	fb, srv := newFakeBackend(t)
	svc, _ := newService(srv.URL)
	_, err := svc.Transactions.Create(context.Background(), "", expense())
	assert.ErrorIs(t, err, ErrMissingUser)
	_, err = svc.Categories.List(context.Background(), "")
	assert.ErrorIs(t, err, ErrMissingUser)
	assert.Equal(t, 0, fb.count())
}

func TestInvestmentAndCategoryValidation(t *testing.T) {
	_, srv := newFakeBackend(t)
	svc, _ := newService(srv.URL)

	_, err := svc.Investments.Create(context.Background(), "u", model.Investment{
		Symbol: "aapl", Shares: decimal.Zero, PurchasePrice: decimal.NewFromInt(-1), PurchaseDate: "2024-01-02",
	})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	fields := []string{}
	for _, f := range verr.Fields {
		fields = append(fields, f.Field)
	}
	assert.ElementsMatch(t, []string{"shares", "purchasePrice"}, fields)

	inv, err := svc.Investments.Create(context.Background(), "u", model.Investment{
		Symbol: " aapl ", Shares: decimal.NewFromFloat(1.5), PurchasePrice: decimal.NewFromInt(180), PurchaseDate: "2024-01-02",
	})
	require.NoError(t, err)
	assert.Equal(t, "AAPL", inv.Symbol)

	_, err = svc.Categories.Create(context.Background(), "u", model.Category{Name: "Food", Kind: "spending"})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "kind", verr.Fields[0].Field)

	cat, err := svc.Categories.Create(context.Background(), "u", model.Category{Name: "Food", Kind: "Expense", Color: "#ff8800"})
	require.NoError(t, err)
	assert.Equal(t, model.CategoryExpense, cat.Kind)
}

func TestCreate_UnreadableSuccessKeepsEntry(t *testing.T) {
	fb, srv := newFakeBackend(t)
	svc, m := newService(srv.URL)
	fb.mu.Lock()
	fb.garble = true
	fb.mu.Unlock()

	_, err := svc.Transactions.Create(context.Background(), "u", expense())
	require.NoError(t, err)

	// the cache was refreshed with the row the backend stored
	items := svc.Transactions.Items("u")
	require.Len(t, items, 1)
	assert.Equal(t, 101, items[0].ID)
	assert.Equal(t, "Groceries", items[0].Description)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LedgerMutations.WithLabelValues("transactions", "CREATE", "OK")))
}

func TestCreate_UnreadableSuccessWithoutRefreshKeepsPending(t *testing.T) {
	var posts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			posts.Add(1)
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte("created"))
			return
		}
		http.Error(w, "list down", http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)
	svc, _ := newService(srv.URL)

	created, err := svc.Transactions.Create(context.Background(), "u", expense())
	require.NoError(t, err)
	assert.EqualValues(t, 1, posts.Load())
	assert.Negative(t, created.ID)
	assert.Equal(t, []model.Transaction{created}, svc.Transactions.Items("u"))
}

func TestUpdate_UnreadableSuccessKeepsChange(t *testing.T) {
	fb, srv := newFakeBackend(t)
	svc, _ := newService(srv.URL)
	created, err := svc.Transactions.Create(context.Background(), "u", expense())
	require.NoError(t, err)

	fb.mu.Lock()
	fb.garble = true
	fb.mu.Unlock()
	changed := created
	changed.Description = "Rent"
	updated, err := svc.Transactions.Update(context.Background(), "u", created.ID, changed)
	require.NoError(t, err)
	assert.Equal(t, "Rent", updated.Description)

	items := svc.Transactions.Items("u")
	require.Len(t, items, 1)
	assert.Equal(t, "Rent", items[0].Description)
	assert.Equal(t, created.ID, items[0].ID)
}
