package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"practico/internal/services"
)

type PasswordResetHandler struct {
	accounts services.AccountService
}

func NewPasswordResetHandler(accounts services.AccountService) *PasswordResetHandler {
	return &PasswordResetHandler{accounts: accounts}
}

type resetRequest struct {
	UserID      string `json:"userId"`
	NewPassword string `json:"newPassword"`
}

var resetMessages = messages{
	services.ErrUserNotFound: "No account found with this email",
	services.ErrOTPNotFound:  "No password reset request found or code already used",
	services.ErrOTPExpired:   "Code has expired. Please request a new one",
	services.ErrOTPMismatch:  "Invalid code. Please check and try again",
}

// @Summary  Send password reset code
// @Tags     PasswordReset
// @Accept   json
// @Produce  json
// @Param    body  body      emailRequest  true  "Account email"
// @Success  200   {object}  map[string]interface{}
// @Failure  429   {object}  map[string]interface{}
// @Router   /password-reset/send-otp [post]
func (h *PasswordResetHandler) SendOTP(c *gin.Context) {
	var req emailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		failMsg(c, http.StatusOK, "Email required")
		return
	}
	user, err := h.accounts.SendPasswordResetOTP(c.Request.Context(), req.Email)
	if err != nil {
		respondError(c, "[reset][send]", err, resetMessages)
		return
	}
	ok(c, gin.H{"msg": "Password reset code sent to your email", "userId": user.ID})
}

// @Summary  Verify password reset code
// @Tags     PasswordReset
// @Accept   json
// @Produce  json
// @Param    body  body      otpRequest  true  "User id and code"
// @Success  200   {object}  map[string]interface{}
// @Router   /password-reset/verify-otp [post]
func (h *PasswordResetHandler) VerifyOTP(c *gin.Context) {
	var req otpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		failMsg(c, http.StatusOK, "Missing required fields")
		return
	}
	if err := h.accounts.VerifyPasswordResetOTP(c.Request.Context(), req.UserID, req.OTP); err != nil {
		respondError(c, "[reset][verify]", err, resetMessages)
		return
	}
	ok(c, gin.H{"msg": "Code verified successfully", "userId": req.UserID})
}

// @Summary  Set a new password after a verified code
// @Tags     PasswordReset
// @Accept   json
// @Produce  json
// @Param    body  body      resetRequest  true  "User id and new password"
// @Success  200   {object}  map[string]interface{}
// @Router   /password-reset/reset [post]
func (h *PasswordResetHandler) Reset(c *gin.Context) {
	var req resetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		failMsg(c, http.StatusOK, "Missing required fields")
		return
	}
	if err := h.accounts.ResetPassword(c.Request.Context(), req.UserID, req.NewPassword); err != nil {
		respondError(c, "[reset][apply]", err, resetMessages)
		return
	}
	ok(c, gin.H{"msg": "Password reset successfully. You can now login with your new password"})
}
