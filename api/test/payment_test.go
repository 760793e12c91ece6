package test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"

	"github.com/gorilla/mux"
	"github.com/irsalhamdi/ecolearn/api/web"
	"github.com/plutov/paypal/v4"
	mock "github.com/stripe/stripe-mock/param"
)

type mockPaypal struct {
	mu             sync.Mutex
	n              int
	expectedAmount string
	declined       map[string]bool
}

func (m *mockPaypal) decline(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.declined[id] = true
}

func (m *mockPaypal) expect(amount string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expectedAmount = amount
}

func (m *mockPaypal) handle() http.Handler {
	token := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tok := map[string]any{
			"access_token": "mock-access-token",
			"token_type":   "Bearer",
			"expires_in":   3600,
		}
		web.Respond(context.Background(), w, tok, 200)
	})

	checkout := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var pu struct {
			Units []paypal.PurchaseUnitRequest `json:"purchase_units"`
		}
		if err := json.NewDecoder(r.Body).Decode(&pu); err != nil {
			web.Respond(context.Background(), w, nil, 400)
			return
		}

		if len(pu.Units) != 1 || len(pu.Units[0].Items) != 1 {
			web.Respond(context.Background(), w, nil, 400)
			return
		}

		m.mu.Lock()
		defer m.mu.Unlock()

		if pu.Units[0].Amount == nil || pu.Units[0].Amount.Value != m.expectedAmount {
			web.Respond(context.Background(), w, nil, 400)
			return
		}

		m.n++
		id := fmt.Sprintf("PAYPAL-%d", m.n)
		ord := paypal.Order{
			ID:     id,
			Status: "CREATED",
			Links: []paypal.Link{
				{Href: "https://paypal.test/checkoutnow?token=" + id, Rel: "approve"},
			},
		}
		web.Respond(context.Background(), w, ord, 201)
	})

	capture := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]

		m.mu.Lock()
		declined := m.declined[id]
		m.mu.Unlock()

		if declined {
			body := map[string]any{
				"name":    "UNPROCESSABLE_ENTITY",
				"message": "The instrument presented was declined.",
			}
			web.Respond(context.Background(), w, body, 422)
			return
		}

		ord := paypal.CaptureOrderResponse{ID: id, Status: "COMPLETED"}
		web.Respond(context.Background(), w, ord, 201)
	})

	r := mux.NewRouter()
	r.Handle("/v1/oauth2/token", token).Methods("POST")
	r.Handle("/v2/checkout/orders", checkout).Methods("POST")
	r.Handle("/v2/checkout/orders/{id}/capture", capture).Methods("POST")
	return r
}

type mockStripe struct {
	mu             sync.Mutex
	n              int
	expectedAmount int64
	sessions       map[string]bool
	unpaid         map[string]bool
}

func (m *mockStripe) expect(amount int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expectedAmount = amount
}

func (m *mockStripe) markUnpaid(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unpaid[id] = true
}

func (m *mockStripe) handle() http.Handler {
	checkout := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		params, err := mock.ParseParams(r)
		if err != nil {
			web.Respond(context.Background(), w, nil, 400)
			return
		}

		if params["client_reference_id"] == nil {
			web.Respond(context.Background(), w, nil, 400)
			return
		}

		lines, ok := params["line_items"].(map[string]any)
		if !ok || len(lines) != 1 {
			web.Respond(context.Background(), w, nil, 400)
			return
		}

		m.mu.Lock()
		defer m.mu.Unlock()

		for _, li := range lines {
			it := li.(map[string]any)

			if it["quantity"] != "1" {
				web.Respond(context.Background(), w, nil, 400)
				return
			}

			pd := it["price_data"].(map[string]any)
			amount, err := strconv.ParseInt(pd["unit_amount"].(string), 10, 64)
			if err != nil || amount != m.expectedAmount {
				web.Respond(context.Background(), w, nil, 400)
				return
			}
		}

		m.n++
		id := fmt.Sprintf("cs_test_%d", m.n)
		if m.sessions == nil {
			m.sessions = map[string]bool{}
		}
		m.sessions[id] = true

		sess := map[string]any{
			"id":             id,
			"object":         "checkout.session",
			"mode":           "payment",
			"payment_status": "unpaid",
			"url":            "https://checkout.stripe.test/pay/" + id,
		}
		web.Respond(context.Background(), w, sess, 200)
	})

	get := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]

		m.mu.Lock()
		known, unpaid := m.sessions[id], m.unpaid[id]
		m.mu.Unlock()

		if !known {
			body := map[string]any{"error": map[string]any{
				"type":    "invalid_request_error",
				"message": "No such checkout.session: " + id,
			}}
			web.Respond(context.Background(), w, body, 404)
			return
		}

		status := "paid"
		if unpaid {
			status = "unpaid"
		}
		sess := map[string]any{
			"id":             id,
			"object":         "checkout.session",
			"mode":           "payment",
			"payment_status": status,
		}
		web.Respond(context.Background(), w, sess, 200)
	})

	r := mux.NewRouter()
	r.Handle("/v1/checkout/sessions", checkout).Methods("POST")
	r.Handle("/v1/checkout/sessions/{id}", get).Methods("GET")
	return r
}
