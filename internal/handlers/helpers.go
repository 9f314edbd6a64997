package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"practico/internal/middleware"
	"practico/internal/models"
	"practico/internal/services"
)

// messages overrides the client-facing text of known errors per endpoint.
type messages map[error]string

// domain errors reported as {success:false} with 200, like validation
var softErrors = messages{
	services.ErrUserNotFound:     "User not found",
	services.ErrUserExists:       "User already exists",
	services.ErrAlreadyVerified:  "Email already verified",
	services.ErrOTPNotFound:      "Account record doesn't exist or has been verified already",
	services.ErrOTPExpired:       "Code has expired. Please request again",
	services.ErrOTPMismatch:      "Invalid code. Check your inbox",
	services.ErrResetNotVerified: "Please verify the reset code first",
	services.ErrTermsNotAccepted: "You must accept Terms of Service, Privacy Policy, and Distance Sales Agreement to proceed",
	services.ErrEmailNotVerified: "Please verify your email first",
	services.ErrAlreadyPaid:      "You already have an active membership",
	services.ErrGateway:          "Payment initialization failed",
	services.ErrContentNotFound:  "Test not found",
	services.ErrContentExists:    "Test already exists",
}

func ok(c *gin.Context, body gin.H) {
	if body == nil {
		body = gin.H{}
	}
	body["success"] = true
	c.JSON(http.StatusOK, body)
}

func failMsg(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"success": false, "msg": msg})
}

// respondError maps service errors onto the response contract. Unknown errors
// are logged and become a 500 "Server error".
func respondError(c *gin.Context, op string, err error, override messages) {
	var refusal *services.LoginRefusal
	switch {
	case services.IsValidation(err):
		failMsg(c, http.StatusOK, err.Error())
		return

	case errors.As(err, &refusal):
		body := gin.H{
			"success": false,
			"userId":  refusal.User.ID,
			"email":   refusal.User.Email,
		}
		if errors.Is(err, services.ErrEmailNotVerified) {
			body["msg"] = "Please verify your email before logging in"
			body["needsVerification"] = true
		} else {
			body["msg"] = "Please complete payment to access your account"
			body["needsPayment"] = true
		}
		c.JSON(http.StatusForbidden, body)
		return

	case errors.Is(err, services.ErrInvalidCredentials):
		failMsg(c, http.StatusForbidden, "Invalid email or password")
		return

	case errors.Is(err, services.ErrSessionMismatch),
		errors.Is(err, services.ErrSessionExpired),
		errors.Is(err, services.ErrUnauthenticated):
		status, body := middleware.SessionFailure(err)
		c.JSON(status, body)
		return

	case errors.Is(err, services.ErrOTPThrottled):
		failMsg(c, http.StatusTooManyRequests, lookup(err, override, "Please wait before requesting another code"))
		return

	case errors.Is(err, services.ErrTutorUnavailable):
		log.Printf("%s ai failure: %v", op, err)
		failMsg(c, http.StatusInternalServerError, lookup(err, override, "AI request failed"))
		return
	}

	if msg := lookup(err, override, ""); msg != "" {
		failMsg(c, http.StatusOK, msg)
		return
	}
	if msg := lookup(err, softErrors, ""); msg != "" {
		failMsg(c, http.StatusOK, msg)
		return
	}

	log.Printf("%s error: %v", op, err)
	failMsg(c, http.StatusInternalServerError, "Server error")
}

func lookup(err error, table messages, fallback string) string {
	for target, msg := range table {
		if errors.Is(err, target) {
			return msg
		}
	}
	return fallback
}

// sessionUser returns the user resolved by middleware.RequireSession.
func sessionUser(c *gin.Context) (*models.User, bool) {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		failMsg(c, http.StatusUnauthorized, "No token provided")
	}
	return u, ok
}

func paramInt(c *gin.Context, name string) (int, bool) {
	n, err := strconv.Atoi(c.Param(name))
	return n, err == nil
}
