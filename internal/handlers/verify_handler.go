package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"practico/internal/services"
)

// VerifyHandler — подтверждение email при регистрации.
type VerifyHandler struct {
	accounts services.AccountService
}

func NewVerifyHandler(accounts services.AccountService) *VerifyHandler {
	return &VerifyHandler{accounts: accounts}
}

type emailRequest struct {
	Email string `json:"email"`
}

type otpRequest struct {
	UserID string `json:"userId"`
	OTP    string `json:"otp"`
}

type resendRequest struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
}

// @Summary  Send email verification code
// @Tags     Verification
// @Accept   json
// @Produce  json
// @Param    body  body      emailRequest  true  "Account email"
// @Success  200   {object}  map[string]interface{}
// @Failure  429   {object}  map[string]interface{}
// @Router   /send-otp [post]
func (h *VerifyHandler) SendOTP(c *gin.Context) {
	var req emailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		failMsg(c, http.StatusOK, "Email required")
		return
	}
	user, err := h.accounts.SendVerificationOTP(c.Request.Context(), req.Email)
	if err != nil {
		respondError(c, "[verify][send]", err, nil)
		return
	}
	ok(c, gin.H{"msg": "Verification code sent to your email", "userId": user.ID})
}

// @Summary  Verify email with code
// @Tags     Verification
// @Accept   json
// @Produce  json
// @Param    body  body      otpRequest  true  "User id and code"
// @Success  200   {object}  map[string]interface{}
// @Router   /verify-otp [post]
func (h *VerifyHandler) VerifyOTP(c *gin.Context) {
	var req otpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		failMsg(c, http.StatusOK, "Empty OTP details")
		return
	}
	if err := h.accounts.VerifyEmail(c.Request.Context(), req.UserID, req.OTP); err != nil {
		respondError(c, "[verify][check]", err, nil)
		return
	}
	ok(c, gin.H{"msg": "Email verified successfully"})
}

// @Summary  Resend email verification code
// @Tags     Verification
// @Accept   json
// @Produce  json
// @Param    body  body      resendRequest  true  "User id and email"
// @Success  200   {object}  map[string]interface{}
// @Failure  429   {object}  map[string]interface{}
// @Router   /resend-otp [post]
func (h *VerifyHandler) ResendOTP(c *gin.Context) {
	var req resendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		failMsg(c, http.StatusOK, "Empty user details")
		return
	}
	if err := h.accounts.ResendVerificationOTP(c.Request.Context(), req.UserID, req.Email); err != nil {
		respondError(c, "[verify][resend]", err, nil)
		return
	}
	ok(c, gin.H{"msg": "Verification code resent"})
}
