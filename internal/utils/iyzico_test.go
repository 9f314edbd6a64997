package utils

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIyzicoAuthorization_Format(t *testing.T) {
	t.Parallel()

	h := IyzicoAuthorization("key", "secret", "123", "/p", []byte(`{}`))
	require.True(t, strings.HasPrefix(h, "IYZWSv2 "))

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(h, "IYZWSv2 "))
	require.NoError(t, err)
	plain := string(raw)
	assert.True(t, strings.HasPrefix(plain, "apiKey:key&randomKey:123&signature:"))
	sig := strings.TrimPrefix(plain, "apiKey:key&randomKey:123&signature:")
	assert.Len(t, sig, 64)

	// same inputs sign identically, different body does not
	assert.Equal(t, h, IyzicoAuthorization("key", "secret", "123", "/p", []byte(`{}`)))
	assert.NotEqual(t, h, IyzicoAuthorization("key", "secret", "123", "/p", []byte(`{"a":1}`)))
}

func TestIyzicoClient_InitializeCheckout(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, iyzicoInitializePath, r.URL.Path)
		assert.NotEmpty(t, r.Header.Get("x-iyzi-rnd"))

		body, _ := io.ReadAll(r.Body)
		want := IyzicoAuthorization("k", "s", r.Header.Get("x-iyzi-rnd"), r.URL.Path, body)
		assert.Equal(t, want, r.Header.Get("Authorization"))

		var req CheckoutRequest
		require.NoError(t, json.Unmarshal(body, &req))
		assert.Equal(t, "basket_u1", req.BasketID)

		_, _ = w.Write([]byte(`{"status":"success","token":"tok-1","paymentPageUrl":"https://pay/1","conversationId":"user_u1_1"}`))
	}))
	defer srv.Close()

	c := NewIyzicoClient("k", "s", srv.URL)
	sess, err := c.InitializeCheckout(context.Background(), CheckoutRequest{BasketID: "basket_u1", ConversationID: "user_u1_1"})
	require.NoError(t, err)
	assert.Equal(t, "tok-1", sess.Token)
	assert.Equal(t, "https://pay/1", sess.PaymentPageURL)
}

func TestIyzicoClient_InitializeCheckout_Failure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"failure","errorCode":"1001","errorMessage":"api bilgileri bulunamadı"}`))
	}))
	defer srv.Close()

	c := NewIyzicoClient("k", "s", srv.URL)
	_, err := c.InitializeCheckout(context.Background(), CheckoutRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1001")
}

func TestIyzicoClient_RetrieveCheckout(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, iyzicoRetrievePath, r.URL.Path)
		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "tok-9", req["token"])
		_, _ = w.Write([]byte(`{"status":"success","paymentStatus":"SUCCESS","paymentId":"p-1","basketId":"basket_u1","paidPrice":79.99,"currency":"EUR"}`))
	}))
	defer srv.Close()

	c := NewIyzicoClient("k", "s", srv.URL)
	res, err := c.RetrieveCheckout(context.Background(), "tok-9")
	require.NoError(t, err)
	assert.True(t, res.Succeeded())
	assert.Equal(t, "basket_u1", res.BasketID)
	assert.Equal(t, "79.99", res.PaidPrice.String())
}

func TestIyzicoClient_RetrieveCheckout_FailedPaymentIsNotAnError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"success","paymentStatus":"FAILURE","basketId":"basket_u1"}`))
	}))
	defer srv.Close()

	res, err := NewIyzicoClient("k", "s", srv.URL).RetrieveCheckout(context.Background(), "t")
	require.NoError(t, err)
	assert.False(t, res.Succeeded())
}

func TestIyzicoClient_ServerError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewIyzicoClient("k", "s", srv.URL).RetrieveCheckout(context.Background(), "t")
	require.Error(t, err)
}
