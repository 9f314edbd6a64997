package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"practico/internal/services"
)

type TutorHandler struct {
	tutor services.TutorService
}

func NewTutorHandler(tutor services.TutorService) *TutorHandler {
	return &TutorHandler{tutor: tutor}
}

type analyzeRequest struct {
	ImageURL            string                 `json:"questionImageUrl"`
	ConversationHistory []services.ChatMessage `json:"conversationHistory"`
}

type chatRequest struct {
	ImageURL            string                 `json:"questionImageUrl"`
	Message             string                 `json:"userMessage"`
	ConversationHistory []services.ChatMessage `json:"conversationHistory"`
}

var (
	analyzeMessages = messages{services.ErrTutorUnavailable: "AI analysis failed"}
	chatMessages    = messages{services.ErrTutorUnavailable: "Chat failed"}
)

// @Summary      Разбор вопроса по картинке
// @Tags         AI
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      analyzeRequest  true  "Question image and history"
// @Success      200   {object}  map[string]interface{}
// @Failure      500   {object}  map[string]interface{}
// @Router       /ai/analyze-question [post]
func (h *TutorHandler) Analyze(c *gin.Context) {
	if _, found := sessionUser(c); !found {
		return
	}
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.ImageURL == "" {
		failMsg(c, http.StatusOK, "Question image URL required")
		return
	}
	reply, err := h.tutor.Analyze(c.Request.Context(), req.ImageURL, req.ConversationHistory)
	if err != nil {
		respondError(c, "[ai][analyze]", err, analyzeMessages)
		return
	}
	ok(c, gin.H{"analysis": reply.Text, "usage": reply.Usage})
}

// @Summary      Chat with the tutor
// @Tags         AI
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      chatRequest  true  "Message and history"
// @Success      200   {object}  map[string]interface{}
// @Failure      500   {object}  map[string]interface{}
// @Router       /ai/chat [post]
func (h *TutorHandler) Chat(c *gin.Context) {
	if _, found := sessionUser(c); !found {
		return
	}
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		failMsg(c, http.StatusOK, "Message required")
		return
	}
	reply, err := h.tutor.Chat(c.Request.Context(), req.ImageURL, req.Message, req.ConversationHistory)
	if err != nil {
		respondError(c, "[ai][chat]", err, chatMessages)
		return
	}
	ok(c, gin.H{"response": reply.Text, "usage": reply.Usage})
}
