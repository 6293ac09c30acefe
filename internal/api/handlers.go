package api

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"orderdesk/internal/apperr"
	"orderdesk/internal/closing"
	"orderdesk/internal/models"
	"orderdesk/internal/order"
	"orderdesk/internal/schedule"
)

type restaurantRequest struct {
	Name         string            `json:"name"`
	Phone        string            `json:"phone"`
	Email        string            `json:"email"`
	Address      models.Address    `json:"address"`
	Description  string            `json:"description"`
	IsPublic     bool              `json:"is_public"`
	IsOpen       bool              `json:"is_open"`
	PlaceWindows []schedule.Window `json:"place_windows"`
	OrderWindows []schedule.Window `json:"order_windows"`
	ClosingDates []string          `json:"closing_dates"` // YYYY-MM-DD
}

func (req restaurantRequest) model() (*models.Restaurant, error) {
	r := &models.Restaurant{
		Name:         req.Name,
		Phone:        req.Phone,
		Email:        req.Email,
		Address:      req.Address,
		Description:  req.Description,
		IsPublic:     req.IsPublic,
		IsOpen:       req.IsOpen,
		PlaceWindows: req.PlaceWindows,
		OrderWindows: req.OrderWindows,
	}
	for _, raw := range req.ClosingDates {
		d, err := closing.ParseDate(strings.TrimSpace(raw))
		if err != nil {
			return nil, apperr.Invalid("closing_dates", fmt.Sprintf("%q is not YYYY-MM-DD", raw))
		}
		r.ClosingDates = append(r.ClosingDates, models.ClosingDate{Date: d})
	}
	return r, nil
}

type productRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	PriceCents  int64    `json:"price_cents"`
	Allergens   []string `json:"allergens"`
	Tags        []string `json:"tags"`
	IsActive    bool     `json:"is_active"`
}

func (req productRequest) model() *models.Product {
	return &models.Product{
		Name:        req.Name,
		Description: req.Description,
		PriceCents:  req.PriceCents,
		Allergens:   req.Allergens,
		Tags:        req.Tags,
		IsActive:    req.IsActive,
	}
}

type orderRequest struct {
	RestaurantID int64     `json:"restaurant_id"`
	ProductIDs   []int64   `json:"product_ids"`
	ReservedFor  time.Time `json:"reserved_for"`
	Comment      string    `json:"comment"`
}

type statusRequest struct {
	OrderIDs []int64            `json:"order_ids"`
	State    *models.OrderState `json:"state"`
}

type openRequest struct {
	IsOpen *bool `json:"is_open"`
}

func pathID(r *http.Request) (int64, error) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid id %q", errBadRequest, raw)
	}
	return id, nil
}

func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer", errBadRequest, name)
	}
	return n, nil
}

func orderFilter(r *http.Request) (models.OrderFilter, error) {
	var f models.OrderFilter
	var err error
	if f.Limit, err = queryInt(r, "limit", 50); err != nil {
		return f, err
	}
	if f.Offset, err = queryInt(r, "offset", 0); err != nil {
		return f, err
	}
	for name, dst := range map[string]*time.Time{"from": &f.From, "to": &f.To} {
		raw := r.URL.Query().Get(name)
		if raw == "" {
			continue
		}
		t, perr := time.Parse(time.RFC3339, raw)
		if perr != nil {
			return f, fmt.Errorf("%w: %s must be RFC 3339", errBadRequest, name)
		}
		*dst = t
	}
	return f, nil
}

func (h *Handler) listRestaurants(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 50)
	if err != nil {
		writeError(w, r, err)
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		writeError(w, r, err)
		return
	}
	list, err := h.restaurants.ListPublished(r.Context(), limit, offset)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) listMyRestaurants(w http.ResponseWriter, r *http.Request) {
	list, err := h.restaurants.ListMine(r.Context(), principal(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) getRestaurant(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	view, err := h.restaurants.Get(r.Context(), principal(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handler) createRestaurant(w http.ResponseWriter, r *http.Request) {
	var req restaurantRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	m, err := req.model()
	if err != nil {
		writeError(w, r, err)
		return
	}
	view, err := h.restaurants.Create(r.Context(), principal(r), m)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

func (h *Handler) updateRestaurant(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req restaurantRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	m, err := req.model()
	if err != nil {
		writeError(w, r, err)
		return
	}
	view, err := h.restaurants.Update(r.Context(), principal(r), id, m)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handler) setRestaurantOpen(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req openRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.IsOpen == nil {
		writeError(w, r, apperr.Invalid("is_open", "is required"))
		return
	}
	view, err := h.restaurants.SetOpen(r.Context(), principal(r), id, *req.IsOpen)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	list, err := h.products.List(r.Context(), principal(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if list == nil {
		list = []models.Product{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req productRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	p, err := h.products.Create(r.Context(), principal(r), id, req.model())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req productRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	p, err := h.products.Update(r.Context(), principal(r), id, req.model())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req orderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	o, err := h.orders.Create(r.Context(), principal(r), order.Request{
		RestaurantID: req.RestaurantID,
		ProductIDs:   req.ProductIDs,
		ReservedFor:  req.ReservedFor,
		Comment:      req.Comment,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, o)
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	o, err := h.orders.Get(r.Context(), principal(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *Handler) listMyOrders(w http.ResponseWriter, r *http.Request) {
	f, err := orderFilter(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	list, err := h.orders.ListMine(r.Context(), principal(r), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(list))
}

func (h *Handler) listRestaurantOrders(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	f, err := orderFilter(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	list, err := h.orders.ListForRestaurant(r.Context(), principal(r), id, f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(list))
}

func (h *Handler) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req statusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.State == nil {
		writeError(w, r, apperr.Invalid("state", "is required"))
		return
	}
	updated, err := h.orders.UpdateStatus(r.Context(), principal(r), id, req.OrderIDs, *req.State)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *Handler) exportOrders(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var buf bytes.Buffer
	name, err := h.orders.ExportMonth(r.Context(), principal(r), id, r.URL.Query().Get("month"), &buf)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func nonNil(list []*models.Order) []*models.Order {
	if list == nil {
		return []*models.Order{}
	}
	return list
}
