package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"practico/internal/middleware"
	"practico/internal/models"
	"practico/internal/services"
)

type AuthHandler struct {
	sessions services.SessionService
	accounts services.AccountService
	users    services.UserService
}

func NewAuthHandler(sessions services.SessionService, accounts services.AccountService, users services.UserService) *AuthHandler {
	return &AuthHandler{sessions: sessions, accounts: accounts, users: users}
}

// @Summary      Регистрация
// @Description  Creates an unverified account and emails a verification code
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        user  body      models.RegisterRequest  true  "New account"
// @Success      200   {object}  map[string]interface{}
// @Failure      500   {object}  map[string]interface{}
// @Router       /adduser [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Printf("[auth][register] bad request: bind json failed: err=%v", err)
		failMsg(c, http.StatusOK, "Enter all fields")
		return
	}
	user, err := h.accounts.Register(c.Request.Context(), req)
	if err != nil {
		respondError(c, "[auth][register]", err, nil)
		return
	}
	ok(c, gin.H{
		"msg":             "Account created! Please verify your email",
		"userId":          user.ID,
		"email":           user.Email,
		"isDarkMode":      user.IsDarkMode,
		"practicesSolved": user.PracticesSolved,
	})
}

// @Summary      Вход в систему
// @Description  Opens the single live session of the user; an existing session is closed
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        login  body      models.LoginRequest  true  "Credentials"
// @Success      200    {object}  map[string]interface{}
// @Failure      403    {object}  map[string]interface{}
// @Failure      500    {object}  map[string]interface{}
// @Router       /authenticate [post]
func (h *AuthHandler) Authenticate(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Printf("[auth][login] bad request: bind json failed: err=%v", err)
		failMsg(c, http.StatusForbidden, "Invalid email or password")
		return
	}

	res, err := h.sessions.Login(c.Request.Context(), req.Email, req.Password, c.GetHeader("User-Agent"))
	if err != nil {
		respondError(c, "[auth][login]", err, nil)
		return
	}
	results, err := h.users.ListResults(c.Request.Context(), res.User)
	if err != nil {
		// сессия уже открыта, результаты не критичны
		log.Printf("[auth][login] load results failed userID=%s: %v", res.User.ID, err)
		results = []models.PracticeTestResult{}
	}

	ok(c, gin.H{
		"token":                 res.Token,
		"isDarkMode":            res.User.IsDarkMode,
		"practicesSolved":       res.User.PracticesSolved,
		"practiceTestResults":   results,
		"previousSessionClosed": res.PreviousSessionClosed,
	})
}

// @Summary      Heartbeat
// @Tags         Auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  map[string]interface{}
// @Router       /heartbeat [post]
func (h *AuthHandler) Heartbeat(c *gin.Context) {
	tok := middleware.BearerToken(c)
	if tok == "" {
		failMsg(c, http.StatusUnauthorized, "No token provided")
		return
	}
	if err := h.sessions.Heartbeat(c.Request.Context(), tok); err != nil {
		respondError(c, "[auth][heartbeat]", err, nil)
		return
	}
	ok(c, gin.H{"msg": "Heartbeat received"})
}

// @Summary      Выход
// @Tags         Auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  map[string]interface{}
// @Router       /logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	tok := middleware.BearerToken(c)
	if tok == "" {
		failMsg(c, http.StatusUnauthorized, "No token provided")
		return
	}
	if err := h.sessions.Logout(c.Request.Context(), tok); err != nil {
		respondError(c, "[auth][logout]", err, nil)
		return
	}
	ok(c, gin.H{"msg": "Logged out successfully"})
}
