package httpserver

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/shopfront/internal/payments"
	"github.com/Skotchmaster/shopfront/internal/payments/paymentstest"
	"github.com/Skotchmaster/shopfront/internal/testsupport"
	"github.com/Skotchmaster/shopfront/internal/transport"
)

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	assert.Equal(t, http.StatusOK, env.doJSONRequest(http.MethodGet, "/health/live", nil).Code)
	assert.Equal(t, http.StatusOK, env.doJSONRequest(http.MethodGet, "/health/ready", nil).Code)
}

func TestCart_AnonymousVisitorGetsSession(t *testing.T) {
	env := newTestEnv(t)
	p := testsupport.CreateProduct(t, env.DB, "Mug", "10.00", 5)

	rec := env.doJSONRequest(http.MethodPost, "/api/v1/cart/add_item", map[string]any{"product_id": p.ID, "quantity": 2})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var sid *http.Cookie
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == "sessionid" {
			sid = ck
		}
	}
	require.NotNil(t, sid, "session cookie is issued")
	assert.True(t, sid.HttpOnly)

	rec = env.doJSONRequest(http.MethodGet, "/api/v1/cart/", nil, session(sid.Value))
	require.Equal(t, http.StatusOK, rec.Code)

	cart := decode[map[string]any](t, rec)
	assert.Equal(t, "20.00", cart["total"])
	assert.EqualValues(t, 2, cart["items_count"])
}

func TestCart_ErrorResponses(t *testing.T) {
	env := newTestEnv(t)
	p := testsupport.CreateProduct(t, env.DB, "Mug", "10.00", 1)
	sid := session("sess-errors")

	tests := []struct {
		name string
		body any
		code int
		msg  string
	}{
		{"bad json", `{"product_id":`, http.StatusBadRequest, "invalid body"},
		{"zero quantity", map[string]any{"product_id": p.ID, "quantity": 0}, http.StatusBadRequest, "invalid request"},
		{"unknown product", map[string]any{"product_id": 999}, http.StatusNotFound, "product not found"},
		{"too many", map[string]any{"product_id": p.ID, "quantity": 2}, http.StatusBadRequest, "Insufficient stock for Mug"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.doJSONRequest(http.MethodPost, "/api/v1/cart/add_item", tt.body, sid)
			require.Equal(t, tt.code, rec.Code, rec.Body.String())
			assert.Equal(t, tt.msg, decode[errorBody](t, rec).Error)
		})
	}
}

func TestOrders_PlaceAndAccess(t *testing.T) {
	env := newTestEnv(t)
	p := testsupport.CreateProduct(t, env.DB, "Mug", "10.00", 5)
	u := testsupport.CreateUser(t, env.DB, "alice", "pw", "user")
	auth := env.login(u.ID, "user")

	rec := env.doJSONRequest(http.MethodPost, "/api/v1/orders", contactBody(), auth)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Cart is empty", decode[errorBody](t, rec).Error)

	missing := contactBody()
	delete(missing, "phone")
	rec = env.doJSONRequest(http.MethodPost, "/api/v1/orders", missing, auth)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[errorBody](t, rec).Fields, "phone")

	require.Equal(t, http.StatusOK, env.doJSONRequest(http.MethodPost, "/api/v1/cart/add_item", map[string]any{"product_id": p.ID, "quantity": 2}, auth).Code)
	rec = env.doJSONRequest(http.MethodPost, "/api/v1/orders", contactBody(), auth)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	order := decode[map[string]any](t, rec)
	assert.Equal(t, "20.00", order["total_amount"])
	assert.Equal(t, "pending", order["status"])

	rec = env.doJSONRequest(http.MethodGet, "/api/v1/orders/my_orders", nil, auth)
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode[struct {
		Data []map[string]any `json:"data"`
	}](t, rec)
	require.Len(t, page.Data, 1)

	assert.Equal(t, http.StatusUnauthorized, env.doJSONRequest(http.MethodGet, "/api/v1/orders", nil, session("anon")).Code)
	assert.Equal(t, http.StatusForbidden, env.doJSONRequest(http.MethodPost, "/api/v1/orders/1/update_status", map[string]string{"status": "shipped"}, auth).Code)

	admin := env.login(testsupport.CreateUser(t, env.DB, "root", "pw", "admin").ID, "admin")
	rec = env.doJSONRequest(http.MethodPost, "/api/v1/orders/1/update_status", map[string]string{"status": "bogus"}, admin)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = env.doJSONRequest(http.MethodPost, "/api/v1/orders/1/update_status", map[string]string{"status": "shipped"}, admin)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Shipped", decode[map[string]any](t, rec)["status_display"])
}

func TestPayments_IntentConfirmAndWebhook(t *testing.T) {
	env := newTestEnv(t)
	p := testsupport.CreateProduct(t, env.DB, "Mug", "10.00", 5)
	sid := session("sess-pay")

	require.Equal(t, http.StatusOK, env.doJSONRequest(http.MethodPost, "/api/v1/cart/add_item", map[string]any{"product_id": p.ID}, sid).Code)
	rec := env.doJSONRequest(http.MethodPost, "/api/v1/orders", contactBody(), sid)
	require.Equal(t, http.StatusCreated, rec.Code)
	orderID := uint(decode[map[string]any](t, rec)["id"].(float64))

	rec = env.doJSONRequest(http.MethodPost, "/api/v1/payments/create_payment_intent", map[string]any{"order_id": orderID}, session("someone-else"))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.doJSONRequest(http.MethodPost, "/api/v1/payments/create_payment_intent", map[string]any{"order_id": orderID}, sid)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	intent := decode[transport.IntentResponse](t, rec)
	assert.Equal(t, "pk_test", intent.PublishableKey)
	assert.Equal(t, "10.00", intent.Amount.StringFixed(2))

	rec = env.doJSONRequest(http.MethodPost, "/api/v1/payments/webhook/", string(paymentstest.EventPayload(payments.EventIntentSucceeded, payments.Intent{ID: intent.PaymentIntentID})))
	assert.Equal(t, http.StatusBadRequest, rec.Code, "missing signature")

	env.Fake.SetIntent(payments.Intent{ID: intent.PaymentIntentID, Status: payments.IntentSucceeded})
	rec = env.doJSONRequest(http.MethodPost, "/api/v1/payments/confirm_payment", map[string]string{"payment_intent_id": intent.PaymentIntentID}, sid)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	confirm := decode[transport.ConfirmResponse](t, rec)
	assert.Equal(t, "success", confirm.Status)
	assert.Equal(t, orderID, confirm.OrderID)

	rec = env.doJSONRequest(http.MethodPost, "/api/v1/payments/create_payment_intent", map[string]any{"order_id": orderID}, sid)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Order already paid", decode[errorBody](t, rec).Error)
}

func TestPayments_WebhookRejectsOversizedBody(t *testing.T) {
	env := newTestEnv(t)
	body := strings.Repeat("x", maxWebhookBody+1)

	rec := env.doJSONRequestWithHeader(http.MethodPost, "/api/v1/payments/webhook", body, signatureHeader, paymentstest.ValidSignature)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, "Payload too large", decode[errorBody](t, rec).Error)
}

func TestPayments_WebhookAcknowledgesUnmatched(t *testing.T) {
	env := newTestEnv(t)
	body := string(paymentstest.EventPayload(payments.EventIntentSucceeded, payments.Intent{ID: "pi_unknown"}))

	rec := env.doJSONRequestWithHeader(http.MethodPost, "/api/v1/payments/webhook", body, signatureHeader, paymentstest.ValidSignature)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestChat_RESTFlow(t *testing.T) {
	env := newTestEnv(t)
	sid := session("0123456789abcdef")

	rec := env.doJSONRequest(http.MethodGet, "/api/v1/chat/user", nil, sid)
	require.Equal(t, http.StatusOK, rec.Code)
	room := decode[transport.RoomView](t, rec)
	assert.Equal(t, "Guest 01234567", room.UserName)

	rec = env.doJSONRequest(http.MethodPost, "/api/v1/chat/user/send_message", map[string]string{"message": " "}, sid)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Message cannot be empty", decode[errorBody](t, rec).Error)

	rec = env.doJSONRequest(http.MethodPost, "/api/v1/chat/user/send_message", map[string]string{"message": "need help"}, sid)
	require.Equal(t, http.StatusCreated, rec.Code)

	assert.Equal(t, http.StatusUnauthorized, env.doJSONRequest(http.MethodGet, "/api/v1/chat/admin", nil, sid).Code)

	admin := env.login(testsupport.CreateUser(t, env.DB, "root", "pw", "admin").ID, "admin")
	rec = env.doJSONRequest(http.MethodGet, "/api/v1/chat/admin", nil, admin)
	require.Equal(t, http.StatusOK, rec.Code)
	rooms := decode[[]transport.RoomView](t, rec)
	require.Len(t, rooms, 1)
	assert.Equal(t, 1, rooms[0].UnreadCount)

	rec = env.doJSONRequest(http.MethodPost, "/api/v1/chat/admin/9999/close_chat", nil, admin)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAuth_LoginSetsAccessCookie(t *testing.T) {
	env := newTestEnv(t)
	testsupport.CreateUser(t, env.DB, "alice", "s3cret", "user")

	rec := env.doJSONRequest(http.MethodPost, "/api/v1/auth/login", map[string]string{"username": "alice", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid username or password", decode[errorBody](t, rec).Error)

	rec = env.doJSONRequest(http.MethodPost, "/api/v1/auth/login", map[string]string{"username": "alice", "password": "s3cret"})
	require.Equal(t, http.StatusOK, rec.Code)

	var access *http.Cookie
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == "accessToken" {
			access = ck
		}
	}
	require.NotNil(t, access)

	rec = env.doJSONRequest(http.MethodGet, "/api/v1/orders/my_orders", nil, access)
	assert.Equal(t, http.StatusOK, rec.Code)
}
