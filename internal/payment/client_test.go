package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCreateCheckoutSession(t *testing.T) {
	var gotAuth, gotIdemKey string
	var gotParams CreateSessionParams

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/checkout/sessions", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		gotIdemKey = r.Header.Get("Idempotency-Key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotParams))

		json.NewEncoder(w).Encode(CheckoutSession{
			ID:              "cs_test_1",
			PaymentIntentID: "pi_test_1",
			URL:             "https://pay.example.com/cs_test_1",
			PaymentStatus:   "unpaid",
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "sk_test_key")
	session, err := client.CreateCheckoutSession(context.Background(), CreateSessionParams{
		LineItems: []LineItem{
			{Name: "Clean Code", UnitAmount: 2500, Currency: "usd", Quantity: 2},
		},
		SuccessURL: "https://shop.example.com/orders/1/payment-confirmation",
		CancelURL:  "https://shop.example.com/cart",
	})
	require.NoError(t, err)

	require.Equal(t, "cs_test_1", session.ID)
	require.Equal(t, "pi_test_1", session.PaymentIntentID)
	require.Equal(t, "https://pay.example.com/cs_test_1", session.URL)

	require.Equal(t, "Bearer sk_test_key", gotAuth)
	require.NotEmpty(t, gotIdemKey, "POSTs must carry an idempotency key")
	require.Len(t, gotParams.LineItems, 1)
	require.Equal(t, int64(2500), gotParams.LineItems[0].UnitAmount)
}

func TestGetCheckoutSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/v1/checkout/sessions/cs_test_1", r.URL.Path)
		require.Empty(t, r.Header.Get("Idempotency-Key"))

		json.NewEncoder(w).Encode(CheckoutSession{
			ID:            "cs_test_1",
			PaymentStatus: "paid",
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "sk_test_key")
	session, err := client.GetCheckoutSession(context.Background(), "cs_test_1")
	require.NoError(t, err)
	require.Equal(t, "paid", session.PaymentStatus)
}

func TestCreateRefund(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/refunds", r.URL.Path)

		var params RefundParams
		require.NoError(t, json.NewDecoder(r.Body).Decode(&params))
		require.Equal(t, "pi_test_1", params.PaymentIntentID)
		require.Equal(t, ReasonRequestedByCustomer, params.Reason)

		json.NewEncoder(w).Encode(Refund{
			ID:              "re_test_1",
			PaymentIntentID: params.PaymentIntentID,
			Status:          "succeeded",
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "sk_test_key")
	refund, err := client.CreateRefund(context.Background(), RefundParams{
		PaymentIntentID: "pi_test_1",
		Reason:          ReasonRequestedByCustomer,
	})
	require.NoError(t, err)
	require.Equal(t, "succeeded", refund.Status)
}

func TestGatewayErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "sk_test_key")
	_, err := client.GetCheckoutSession(context.Background(), "cs_missing")
	require.Error(t, err)
	require.Contains(t, err.Error(), "502")
}
