package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"practico/internal/models"
	"practico/internal/services"
)

// PaymentHandler — оплата членства через iyzico checkout form.
type PaymentHandler struct {
	payments   services.PaymentService
	landingURL string
}

func NewPaymentHandler(payments services.PaymentService, landingURL string) *PaymentHandler {
	return &PaymentHandler{payments: payments, landingURL: landingURL}
}

type checkStatusRequest struct {
	UserID string `json:"userId"`
}

type callbackRequest struct {
	Token string `json:"token" form:"token"`
}

// @Summary      Начать оплату
// @Tags         Payments
// @Accept       json
// @Produce      json
// @Param        body  body      models.InitializePaymentRequest  true  "Buyer and consent"
// @Success      200   {object}  services.CheckoutHandle
// @Router       /payment/initialize [post]
func (h *PaymentHandler) Initialize(c *gin.Context) {
	var req models.InitializePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		failMsg(c, http.StatusOK, "Missing required fields")
		return
	}
	handle, err := h.payments.Initialize(c.Request.Context(), services.InitializeRequest{
		InitializePaymentRequest: req,
		ClientIP:                 c.ClientIP(),
	})
	if err != nil {
		respondError(c, "[payment][initialize]", err, nil)
		return
	}
	ok(c, gin.H{
		"paymentPageUrl": handle.PaymentPageURL,
		"token":          handle.Token,
		"conversationId": handle.ConversationID,
		"currency":       handle.Currency,
		"amount":         handle.Amount,
		"country":        handle.Country,
	})
}

// Callback is where the gateway sends the buyer back. The outcome is applied
// from the retrieved checkout, never from the request itself, and the buyer is
// always sent on to the landing page.
//
// @Summary      iyzico callback
// @Tags         Payments
// @Accept       x-www-form-urlencoded
// @Param        token  formData  string  false  "Checkout token"
// @Success      302
// @Router       /payment/callback [post]
// @Router       /payment/callback [get]
func (h *PaymentHandler) Callback(c *gin.Context) {
	token := callbackToken(c)
	if token != "" {
		// шлюз не ждёт ответа, обработка не должна обрываться вместе с запросом
		h.payments.HandleCallback(context.WithoutCancel(c.Request.Context()), token)
	}
	status := http.StatusFound
	if c.Request.Method == http.MethodPost {
		status = http.StatusSeeOther
	}
	c.Redirect(status, h.landingURL)
}

func callbackToken(c *gin.Context) string {
	if t := strings.TrimSpace(c.Query("token")); t != "" {
		return t
	}
	if t := strings.TrimSpace(c.PostForm("token")); t != "" {
		return t
	}
	if strings.HasPrefix(c.ContentType(), "application/json") {
		var req callbackRequest
		if err := c.ShouldBindJSON(&req); err == nil {
			return strings.TrimSpace(req.Token)
		}
	}
	return ""
}

// @Summary      Статус оплаты
// @Tags         Payments
// @Accept       json
// @Produce      json
// @Param        body  body      checkStatusRequest  true  "User id"
// @Success      200   {object}  models.PaymentSnapshot
// @Router       /payment/check-status [post]
func (h *PaymentHandler) CheckStatus(c *gin.Context) {
	var req checkStatusRequest
	_ = c.ShouldBindJSON(&req)
	snap, err := h.payments.CheckStatus(c.Request.Context(), req.UserID)
	if err != nil {
		respondError(c, "[payment][status]", err, nil)
		return
	}
	ok(c, gin.H{
		"status":                         snap.Status,
		"isPaid":                         snap.IsPaid,
		"isPaidMember":                   snap.IsPaidMember,
		"membershipExpiryDate":           snap.MembershipExpiryDate,
		"acceptedTerms":                  snap.AcceptedTerms,
		"acceptedPreliminaryInformation": snap.AcceptedPreliminaryInformation,
		"termsAcceptanceDate":            snap.TermsAcceptanceDate,
		"lastPayment":                    snap.LastPayment,
	})
}
