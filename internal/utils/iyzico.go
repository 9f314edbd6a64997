package utils

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strings"
	"time"
)

const (
	iyzicoInitializePath = "/payment/iyzipos/checkoutform/initialize/auth/ecom"
	iyzicoRetrievePath   = "/payment/iyzipos/checkoutform/auth/ecom/detail"

	iyzicoStatusSuccess  = "success"
	iyzicoPaymentSuccess = "SUCCESS"
)

// IyzicoClient talks to the iyzico hosted checkout-form API.
type IyzicoClient struct {
	APIKey    string
	SecretKey string
	BaseURL   string
	HTTP      *http.Client
}

func NewIyzicoClient(apiKey, secretKey, baseURL string) *IyzicoClient {
	if baseURL == "" {
		baseURL = "https://api.iyzipay.com"
	}
	return &IyzicoClient{
		APIKey:    apiKey,
		SecretKey: secretKey,
		BaseURL:   strings.TrimRight(baseURL, "/"),
		HTTP:      &http.Client{Timeout: 20 * time.Second},
	}
}

type Buyer struct {
	ID                  string `json:"id"`
	Name                string `json:"name"`
	Surname             string `json:"surname"`
	GsmNumber           string `json:"gsmNumber"`
	Email               string `json:"email"`
	IdentityNumber      string `json:"identityNumber"`
	LastLoginDate       string `json:"lastLoginDate"`
	RegistrationDate    string `json:"registrationDate"`
	RegistrationAddress string `json:"registrationAddress"`
	IP                  string `json:"ip"`
	City                string `json:"city"`
	Country             string `json:"country"`
	ZipCode             string `json:"zipCode"`
}

type Address struct {
	ContactName string `json:"contactName"`
	City        string `json:"city"`
	Country     string `json:"country"`
	Address     string `json:"address"`
	ZipCode     string `json:"zipCode"`
}

type BasketItem struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Category1 string `json:"category1"`
	Category2 string `json:"category2"`
	ItemType  string `json:"itemType"`
	Price     string `json:"price"`
}

type CheckoutRequest struct {
	Locale              string       `json:"locale"`
	ConversationID      string       `json:"conversationId"`
	Price               string       `json:"price"`
	PaidPrice           string       `json:"paidPrice"`
	Currency            string       `json:"currency"`
	BasketID            string       `json:"basketId"`
	PaymentGroup        string       `json:"paymentGroup"`
	CallbackURL         string       `json:"callbackUrl"`
	EnabledInstallments []int        `json:"enabledInstallments"`
	Buyer               Buyer        `json:"buyer"`
	ShippingAddress     Address      `json:"shippingAddress"`
	BillingAddress      Address      `json:"billingAddress"`
	BasketItems         []BasketItem `json:"basketItems"`
}

type CheckoutSession struct {
	Status         string `json:"status"`
	ErrorCode      string `json:"errorCode"`
	ErrorMessage   string `json:"errorMessage"`
	ConversationID string `json:"conversationId"`
	Token          string `json:"token"`
	PaymentPageURL string `json:"paymentPageUrl"`
	TokenExpire    int    `json:"tokenExpireTime"`
}

type CheckoutResult struct {
	Status           string      `json:"status"`
	ErrorCode        string      `json:"errorCode"`
	ErrorMessage     string      `json:"errorMessage"`
	PaymentStatus    string      `json:"paymentStatus"`
	PaymentID        string      `json:"paymentId"`
	GatewayPaymentID string      `json:"iyzicoPaymentId"`
	ConversationID   string      `json:"conversationId"`
	BasketID         string      `json:"basketId"`
	Token            string      `json:"token"`
	Price            json.Number `json:"price"`
	PaidPrice        json.Number `json:"paidPrice"`
	Currency         string      `json:"currency"`
}

// Succeeded is true only when both the API call and the payment itself succeeded.
func (r *CheckoutResult) Succeeded() bool {
	return r.Status == iyzicoStatusSuccess && r.PaymentStatus == iyzicoPaymentSuccess
}

// InitializeCheckout creates a hosted checkout session. A non-success API status is an error.
func (c *IyzicoClient) InitializeCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	var out CheckoutSession
	if err := c.post(ctx, iyzicoInitializePath, req, &out); err != nil {
		return nil, err
	}
	if out.Status != iyzicoStatusSuccess {
		return nil, fmt.Errorf("iyzico initialize failed: code=%s msg=%s", out.ErrorCode, out.ErrorMessage)
	}
	if out.Token == "" || out.PaymentPageURL == "" {
		return nil, fmt.Errorf("iyzico initialize: empty token or payment page url")
	}
	return &out, nil
}

// RetrieveCheckout fetches the authoritative result for a checkout token. A failed payment
// is returned as a result, not an error; only transport and decoding problems are errors.
func (c *IyzicoClient) RetrieveCheckout(ctx context.Context, token string) (*CheckoutResult, error) {
	req := map[string]string{"locale": "tr", "token": token}
	var out CheckoutResult
	if err := c.post(ctx, iyzicoRetrievePath, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *IyzicoClient) post(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("iyzico marshal: %w", err)
	}
	rnd, err := iyzicoRandomKey()
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("iyzico request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("x-iyzi-rnd", rnd)
	req.Header.Set("Authorization", IyzicoAuthorization(c.APIKey, c.SecretKey, rnd, path, body))

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("iyzico %s: %w", path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("iyzico read body: %w", err)
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("iyzico %s: http %d", path, resp.StatusCode)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("iyzico parse response: %w", err)
	}
	return nil
}

// IyzicoAuthorization builds the IYZWSv2 header value:
// base64("apiKey:K&randomKey:R&signature:hex(HMAC-SHA256(secret, R+path+body)))").
func IyzicoAuthorization(apiKey, secretKey, randomKey, path string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secretKey))
	mac.Write([]byte(randomKey))
	mac.Write([]byte(path))
	mac.Write(body)
	sig := hex.EncodeToString(mac.Sum(nil))

	plain := "apiKey:" + apiKey + "&randomKey:" + randomKey + "&signature:" + sig
	return "IYZWSv2 " + base64.StdEncoding.EncodeToString([]byte(plain))
}

func iyzicoRandomKey() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000_000))
	if err != nil {
		return "", fmt.Errorf("iyzico random key: %w", err)
	}
	return fmt.Sprintf("%d%09d", time.Now().UnixMilli(), n.Int64()), nil
}
