package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderdesk/internal/clock"
	"orderdesk/internal/closing"
	"orderdesk/internal/database"
	"orderdesk/internal/events"
	"orderdesk/internal/service"
)

const secret = "test-secret"

// Monday 2026-01-05 10:00 UTC.
var now = time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)

func token(t *testing.T, userID int64, roles ...string) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := tok.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

type testAPI struct {
	t      *testing.T
	server *httptest.Server
	bus    *events.EventBus
}

func newTestAPI(t *testing.T, rps float64, burst int) *testAPI {
	t.Helper()
	logger := zerolog.Nop()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "api.db"), &logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	bus := events.NewEventBus()
	clk := clock.NewFixed(now)
	db.SetClock(clk)
	holidays := new(closing.Shared)

	router := NewRouter(Deps{
		Restaurants:       service.NewRestaurantService(db, nil, bus, clk, holidays, &logger),
		Products:          service.NewProductService(db, db, &logger),
		Orders:            service.NewOrderService(db, db, db, bus, clk, holidays, &logger),
		Tokens:            NewTokenValidator(secret, ""),
		Logger:            logger,
		RequestsPerSecond: rps,
		Burst:             burst,
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return &testAPI{t: t, server: srv, bus: bus}
}

func (a *testAPI) do(method, path, bearer string, body any) (*http.Response, []byte) {
	a.t.Helper()
	var rd io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rd = bytes.NewBufferString(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(a.t, err)
		rd = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, a.server.URL+path, rd)
	require.NoError(a.t, err)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp, err := a.server.Client().Do(req)
	require.NoError(a.t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(a.t, err)
	return resp, data
}

func restaurantBody() map[string]any {
	return map[string]any{
		"name":  "Trattoria",
		"phone": "+39 06 1234",
		"email": "info@trattoria.example",
		"address": map[string]any{
			"street": "Via Roma 1", "city": "Roma", "zip_code": "00100", "country": "IT",
		},
		"is_public": true,
		"is_open":   true,
		"place_windows": []map[string]any{
			{"day_of_week": 1, "offset_minutes": 540, "duration_minutes": 480},
		},
		"order_windows": []map[string]any{
			{"day_of_week": 1, "offset_minutes": 660, "duration_minutes": 180},
		},
		"closing_dates": []string{"2026-12-25"},
	}
}

func decode[T any](t *testing.T, data []byte) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(data, &out), string(data))
	return out
}

type idOnly struct {
	ID int64 `json:"id"`
}

func TestAPI_OrderLifecycle(t *testing.T) {
	a := newTestAPI(t, 0, 0)
	admin := token(t, 10, "restaurant_admin")
	customer := token(t, 20, "customer")

	var (
		mu       sync.Mutex
		notified []string
	)
	a.bus.Subscribe(events.OrderStatusChanged, func(ev events.Event) error {
		mu.Lock()
		defer mu.Unlock()
		notified = append(notified, ev.Type)
		return nil
	})

	resp, body := a.do(http.MethodPost, "/api/restaurants", admin, restaurantBody())
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	created := decode[struct {
		ID           int64 `json:"id"`
		AdminID      int64 `json:"admin_id"`
		IsPublished  bool  `json:"is_published"`
		Availability struct {
			OpenInPlace bool `json:"open_in_place"`
			OpenToOrder bool `json:"open_to_order"`
		} `json:"availability"`
	}](t, body)
	assert.Equal(t, int64(10), created.AdminID)
	assert.True(t, created.IsPublished)
	assert.True(t, created.Availability.OpenInPlace)
	assert.False(t, created.Availability.OpenToOrder)

	rid := created.ID
	resp, body = a.do(http.MethodPost, fmt.Sprintf("/api/restaurants/%d/products", rid), admin, map[string]any{
		"name": "Pizza", "price_cents": 900, "is_active": true, "allergens": []string{"gluten"},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	pid := decode[idOnly](t, body).ID

	resp, body = a.do(http.MethodGet, "/api/restaurants", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]idOnly](t, body), 1)

	resp, body = a.do(http.MethodGet, fmt.Sprintf("/api/restaurants/%d/products", rid), "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]idOnly](t, body), 1)

	resp, body = a.do(http.MethodPost, "/api/orders", customer, map[string]any{
		"restaurant_id": rid,
		"product_ids":   []int64{pid, pid},
		"reserved_for":  "2026-01-05T12:30:00Z",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	placed := decode[struct {
		ID              int64 `json:"id"`
		TotalPriceCents int64 `json:"total_price_cents"`
	}](t, body)
	assert.Equal(t, int64(1800), placed.TotalPriceCents)

	resp, _ = a.do(http.MethodGet, fmt.Sprintf("/api/orders/%d", placed.ID), customer, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = a.do(http.MethodGet, fmt.Sprintf("/api/orders/%d", placed.ID), token(t, 21, "customer"), nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	statusPath := fmt.Sprintf("/api/restaurants/%d/orders/status", rid)
	update := map[string]any{"order_ids": []int64{placed.ID}, "state": "acknowledged"}
	resp, body = a.do(http.MethodPost, statusPath, admin, update)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	mu.Lock()
	assert.Equal(t, []string{events.OrderStatusChanged}, notified)
	mu.Unlock()

	resp, body = a.do(http.MethodPost, statusPath, admin, update)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	conflict := decode[errorBody](t, body)
	assert.Equal(t, "illegal_transition", conflict.Error)
	assert.Equal(t, placed.ID, conflict.OrderID)

	resp, body = a.do(http.MethodGet, fmt.Sprintf("/api/restaurants/%d/orders", rid), admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]idOnly](t, body), 1)

	resp, body = a.do(http.MethodGet, fmt.Sprintf("/api/restaurants/%d/orders/export?month=2026-01", rid), admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "trattoria_2026-01_orders.xlsx")
	assert.Equal(t, "PK", string(body[:2]))
}

func TestAPI_Errors(t *testing.T) {
	a := newTestAPI(t, 0, 0)
	admin := token(t, 10, "restaurant_admin")
	customer := token(t, 20, "customer")

	cases := []struct {
		name   string
		method string
		path   string
		bearer string
		body   any
		status int
		code   string
	}{
		{"no token", http.MethodPost, "/api/orders", "", map[string]any{"restaurant_id": 1}, http.StatusUnauthorized, "unauthenticated"},
		{"bad token", http.MethodGet, "/api/restaurants", "not-a-jwt", nil, http.StatusUnauthorized, "unauthenticated"},
		{"wrong role", http.MethodPost, "/api/restaurants", customer, restaurantBody(), http.StatusForbidden, "forbidden"},
		{"unknown field", http.MethodPost, "/api/restaurants", admin, `{"name":"x","colour":"red"}`, http.StatusBadRequest, "bad_request"},
		{"bad id", http.MethodGet, "/api/restaurants/abc", "", nil, http.StatusBadRequest, "bad_request"},
		{"missing restaurant", http.MethodGet, "/api/restaurants/404", "", nil, http.StatusNotFound, "not_found"},
		{"bad closing date", http.MethodPost, "/api/restaurants", admin, map[string]any{"name": "x", "closing_dates": []string{"25/12/2026"}},
			http.StatusUnprocessableEntity, "validation_failed"},
		{"unknown state", http.MethodPost, "/api/restaurants/1/orders/status", admin, `{"order_ids":[1],"state":"cooking"}`,
			http.StatusBadRequest, "bad_request"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, body := a.do(tc.method, tc.path, tc.bearer, tc.body)
			assert.Equal(t, tc.status, resp.StatusCode, string(body))
			assert.Equal(t, tc.code, decode[errorBody](t, body).Error)
		})
	}
}

func TestAPI_OverlappingWindowsRejected(t *testing.T) {
	a := newTestAPI(t, 0, 0)
	body := restaurantBody()
	body["order_windows"] = []map[string]any{
		{"day_of_week": 1, "offset_minutes": 660, "duration_minutes": 60},
		{"day_of_week": 1, "offset_minutes": 720, "duration_minutes": 60},
	}
	resp, data := a.do(http.MethodPost, "/api/restaurants", token(t, 10, "restaurant_admin"), body)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode, string(data))
}

func TestAPI_RateLimit(t *testing.T) {
	a := newTestAPI(t, 1, 1)

	resp, _ := a.do(http.MethodGet, "/api/restaurants", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	resp, body := a.do(http.MethodGet, "/api/restaurants", "", nil)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "rate_limited", decode[errorBody](t, body).Error)
}

func TestTokenValidator(t *testing.T) {
	v := NewTokenValidator(secret, "orderdesk")

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject: "5", Issuer: "orderdesk", ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
	}})
	signed, err := expired.SignedString([]byte(secret))
	require.NoError(t, err)
	_, err = v.Validate(signed)
	assert.Error(t, err)

	good := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Roles:            []string{"customer", "superuser"},
		RegisteredClaims: jwt.RegisteredClaims{Subject: "5", Issuer: "orderdesk"},
	})
	signed, err = good.SignedString([]byte(secret))
	require.NoError(t, err)
	p, err := v.Validate(signed)
	require.NoError(t, err)
	assert.Equal(t, "5[customer]", p.String())

	_, err = NewTokenValidator(secret, "someone-else").Validate(signed)
	assert.Error(t, err)

	_, err = v.Validate(token(t, 5, "customer"))
	assert.Error(t, err, "issuer is required when configured")
}

func TestBearerToken(t *testing.T) {
	tok, ok := bearerToken("Bearer abc")
	assert.True(t, ok)
	assert.Equal(t, "abc", tok)

	_, ok = bearerToken("Basic abc")
	assert.False(t, ok)
}
