package httpx

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/licenca-shop/licenca/internal/auth"
	kafkax "github.com/licenca-shop/licenca/internal/kafka"
	"github.com/licenca-shop/licenca/internal/orders"
	"github.com/licenca-shop/licenca/internal/redisx"
	"github.com/licenca-shop/licenca/internal/tenant"
	"github.com/licenca-shop/licenca/internal/users"
)

type CheckoutService interface {
	Checkout(ctx context.Context, userID string, t tenant.Tenant, externalID string) (orders.Order, []orders.Item, bool, error)
}

type OrderReader interface {
	ListByUser(ctx context.Context, userID, tenantID string) ([]orders.Order, error)
	Get(ctx context.Context, orderID string) (orders.Order, []orders.Item, error)
}

type OrdersHandler struct {
	Checkout CheckoutService
	Orders   OrderReader
	Redis    *redis.Client
	Producer *kafkax.Producer
	Ops      *Ops
	Service  string
}

func (h *OrdersHandler) Register(r chi.Router) {
	r.Post("/orders", h.create)
	r.Get("/orders", h.list)
	r.Get("/orders/{id}", h.get)
}

type createOrderReq struct {
	ExternalID string `json:"external_id"`
}

type createOrderResp struct {
	Order      orders.Order  `json:"order"`
	Items      []orders.Item `json:"items,omitempty"`
	Idempotent bool          `json:"idempotent"`
}

func (h *OrdersHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createOrderReq
	if r.ContentLength > 0 && !decode(r, &req) {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	sess, t := session(r)

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	// fast-path idempotency via Redis; the DB check inside the transaction
	// stays the source of truth
	if req.ExternalID != "" {
		idemKey := fmt.Sprintf(redisx.KeyIdemOrderCreate, req.ExternalID)
		if ok, _ := redisx.Exists(ctx, h.Redis, idemKey); ok {
			if o, _, _, err := h.Checkout.Checkout(ctx, sess.UserID, t, req.ExternalID); err == nil {
				writeJSON(w, http.StatusOK, createOrderResp{Order: o, Idempotent: true})
				return
			}
		}
	}

	o, items, existed, err := h.Checkout.Checkout(ctx, sess.UserID, t, req.ExternalID)
	if err != nil {
		domainError(w, err)
		return
	}
	if existed {
		writeJSON(w, http.StatusOK, createOrderResp{Order: o, Idempotent: true})
		return
	}

	if req.ExternalID != "" {
		idemKey := fmt.Sprintf(redisx.KeyIdemOrderCreate, req.ExternalID)
		_ = h.Redis.Set(ctx, idemKey, o.ID, redisx.TTLIdempotency).Err()
	}
	statusKey := fmt.Sprintf(redisx.KeyOrderStatus, o.ID)
	_ = h.Redis.Set(ctx, statusKey, fmt.Sprintf(`{"status":%q}`, o.Status), redisx.TTLStatusCache).Err()

	if h.Ops != nil {
		h.Ops.OrdersCreated.Add(1)
	}
	h.publishCreated(r, o, len(items))

	writeJSON(w, http.StatusCreated, createOrderResp{Order: o, Items: items, Idempotent: false})
}

func (h *OrdersHandler) publishCreated(r *http.Request, o orders.Order, itemCount int) {
	ev := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     orders.EventOrderCreated,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      h.Service,
		TraceID:       r.Header.Get("X-Request-Id"),
		CorrelationID: o.ID,
		Payload: kafkax.MustMarshal(orders.OrderCreatedPayload{
			OrderID:     o.ID,
			OrderNumber: o.OrderNumber,
			UserID:      o.UserID,
			TenantID:    o.TenantID,
			Currency:    o.Currency,
			FinalAmount: o.FinalAmount.StringFixed(2),
			ItemCount:   itemCount,
		}),
	}
	h.Producer.Publish(orders.PartitionKey(o.ID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(orders.EventOrderCreated)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}

func (h *OrdersHandler) list(w http.ResponseWriter, r *http.Request) {
	sess, t := session(r)
	os, err := h.Orders.ListByUser(r.Context(), sess.UserID, t.Code)
	if err != nil {
		domainError(w, err)
		return
	}
	if os == nil {
		os = []orders.Order{}
	}
	writeJSON(w, http.StatusOK, os)
}

func (h *OrdersHandler) get(w http.ResponseWriter, r *http.Request) {
	sess, _ := auth.From(r.Context())
	o, items, err := h.Orders.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		domainError(w, err)
		return
	}
	// owners see their orders; admins see all
	if o.UserID != sess.UserID && sess.Role != users.RoleAdmin {
		writeError(w, http.StatusNotFound, "order not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"order": o, "items": items})
}
