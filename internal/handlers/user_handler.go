package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"practico/internal/services"
)

// UserHandler — профиль текущей сессии: настройки, прогресс, результаты тестов.
type UserHandler struct {
	users services.UserService
}

func NewUserHandler(users services.UserService) *UserHandler {
	return &UserHandler{users: users}
}

type darkModeRequest struct {
	IsDarkMode *bool `json:"isDarkMode"`
}

type practicesSolvedRequest struct {
	PracticesSolved []bool `json:"practicesSolved"`
}

type profileResponse struct {
	Success bool `json:"success"`
	*services.Profile
}

type deleteResultRequest struct {
	TestNumber int `json:"testNumber"`
}

// @Summary      Профиль пользователя
// @Tags         Users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  services.Profile
// @Failure      401  {object}  map[string]interface{}
// @Router       /getinfo [get]
func (h *UserHandler) GetInfo(c *gin.Context) {
	u, found := sessionUser(c)
	if !found {
		return
	}
	p, err := h.users.Profile(c.Request.Context(), u)
	if err != nil {
		respondError(c, "[users][info]", err, nil)
		return
	}
	c.JSON(http.StatusOK, profileResponse{Success: true, Profile: p})
}

// @Summary      Toggle dark mode
// @Tags         Users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      darkModeRequest  true  "Preference"
// @Success      200   {object}  map[string]interface{}
// @Router       /updateDarkMode [post]
func (h *UserHandler) UpdateDarkMode(c *gin.Context) {
	u, found := sessionUser(c)
	if !found {
		return
	}
	var req darkModeRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.IsDarkMode == nil {
		failMsg(c, http.StatusOK, "isDarkMode required")
		return
	}
	updated, err := h.users.UpdateDarkMode(c.Request.Context(), u, *req.IsDarkMode)
	if err != nil {
		respondError(c, "[users][dark_mode]", err, nil)
		return
	}
	ok(c, gin.H{"isDarkMode": updated.IsDarkMode})
}

// @Summary      Save practice progress
// @Tags         Users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      practicesSolvedRequest  true  "Solved flags"
// @Success      200   {object}  map[string]interface{}
// @Router       /updatePracticesSolved [post]
func (h *UserHandler) UpdatePracticesSolved(c *gin.Context) {
	u, found := sessionUser(c)
	if !found {
		return
	}
	var req practicesSolvedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		failMsg(c, http.StatusOK, "practicesSolved required")
		return
	}
	updated, err := h.users.UpdatePracticesSolved(c.Request.Context(), u, req.PracticesSolved)
	if err != nil {
		respondError(c, "[users][practices]", err, nil)
		return
	}
	ok(c, gin.H{"msg": "Practices updated successfully", "practicesSolved": updated.PracticesSolved})
}

// @Summary      Сохранить результат пробного теста
// @Tags         PracticeResults
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      services.ResultInput  true  "Result"
// @Success      200   {object}  map[string]interface{}
// @Router       /practice-test-results/update [post]
func (h *UserHandler) UpdateResults(c *gin.Context) {
	u, found := sessionUser(c)
	if !found {
		return
	}
	var req services.ResultInput
	if err := c.ShouldBindJSON(&req); err != nil {
		failMsg(c, http.StatusOK, "Missing required fields")
		return
	}
	results, err := h.users.UpsertResult(c.Request.Context(), u, req)
	if err != nil {
		respondError(c, "[results][update]", err, nil)
		return
	}
	ok(c, gin.H{"msg": "Practice test results updated successfully", "practiceTestResults": results})
}

// @Summary      List practice test results
// @Tags         PracticeResults
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{}
// @Router       /practice-test-results [get]
func (h *UserHandler) GetResults(c *gin.Context) {
	u, found := sessionUser(c)
	if !found {
		return
	}
	results, err := h.users.ListResults(c.Request.Context(), u)
	if err != nil {
		respondError(c, "[results][list]", err, nil)
		return
	}
	ok(c, gin.H{"practiceTestResults": results})
}

// @Summary      Удалить результат пробного теста
// @Tags         PracticeResults
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      deleteResultRequest  true  "Test number"
// @Success      200   {object}  map[string]interface{}
// @Router       /practice-test-results/delete [post]
func (h *UserHandler) DeleteResult(c *gin.Context) {
	u, found := sessionUser(c)
	if !found {
		return
	}
	var req deleteResultRequest
	_ = c.ShouldBindJSON(&req)
	results, err := h.users.DeleteResult(c.Request.Context(), u, req.TestNumber)
	if err != nil {
		respondError(c, "[results][delete]", err, nil)
		return
	}
	ok(c, gin.H{"msg": "Practice test result deleted successfully", "practiceTestResults": results})
}
