package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"practico/internal/services"
)

type ContentHandler struct {
	content services.ContentService
}

func NewContentHandler(content services.ContentService) *ContentHandler {
	return &ContentHandler{content: content}
}

// @Summary      Добавить пробный тест
// @Tags         Content
// @Accept       json
// @Produce      json
// @Security     AdminKey
// @Param        body  body      services.PracticeTestInput  true  "Practice test"
// @Success      200   {object}  map[string]interface{}
// @Failure      403   {object}  map[string]interface{}
// @Router       /practice/add [post]
func (h *ContentHandler) AddPracticeTest(c *gin.Context) {
	var req services.PracticeTestInput
	if err := c.ShouldBindJSON(&req); err != nil {
		failMsg(c, http.StatusOK, "Missing fields")
		return
	}
	t, err := h.content.AddPracticeTest(c.Request.Context(), req)
	if err != nil {
		respondError(c, "[content][practice_add]", err, nil)
		return
	}
	ok(c, gin.H{"msg": "Practice test created", "test": t})
}

// @Summary      List practice tests
// @Tags         Content
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /practice [get]
func (h *ContentHandler) ListPracticeTests(c *gin.Context) {
	tests, err := h.content.ListPracticeTests(c.Request.Context())
	if err != nil {
		respondError(c, "[content][practice_list]", err, nil)
		return
	}
	ok(c, gin.H{"tests": tests})
}

// @Summary      Get practice test
// @Tags         Content
// @Produce      json
// @Param        index  path      int  true  "Test index"
// @Success      200    {object}  map[string]interface{}
// @Router       /practice/{index} [get]
func (h *ContentHandler) GetPracticeTest(c *gin.Context) {
	index, valid := paramInt(c, "index")
	if !valid {
		failMsg(c, http.StatusOK, "Test not found")
		return
	}
	t, err := h.content.GetPracticeTest(c.Request.Context(), index)
	if err != nil {
		respondError(c, "[content][practice_get]", err, nil)
		return
	}
	ok(c, gin.H{"test": t})
}

// @Summary      Добавить тест по предмету
// @Tags         Content
// @Accept       json
// @Produce      json
// @Security     AdminKey
// @Param        body  body      services.SubjectTestInput  true  "Subject test"
// @Success      200   {object}  map[string]interface{}
// @Failure      403   {object}  map[string]interface{}
// @Router       /subject/add [post]
func (h *ContentHandler) AddSubjectTest(c *gin.Context) {
	var req services.SubjectTestInput
	if err := c.ShouldBindJSON(&req); err != nil {
		failMsg(c, http.StatusOK, "Missing fields")
		return
	}
	t, err := h.content.AddSubjectTest(c.Request.Context(), req)
	if err != nil {
		respondError(c, "[content][subject_add]", err, nil)
		return
	}
	ok(c, gin.H{"msg": "Subject test created", "test": t})
}

// @Summary      List subject tests
// @Tags         Content
// @Produce      json
// @Param        subject  path      string  true  "Subject"
// @Success      200      {object}  map[string]interface{}
// @Router       /subject/{subject} [get]
func (h *ContentHandler) ListSubjectTests(c *gin.Context) {
	tests, err := h.content.ListSubjectTests(c.Request.Context(), c.Param("subject"))
	if err != nil {
		respondError(c, "[content][subject_list]", err, nil)
		return
	}
	ok(c, gin.H{"tests": tests})
}

// @Summary      Get subject test
// @Tags         Content
// @Produce      json
// @Param        subject  path      string  true  "Subject"
// @Param        index    path      int     true  "Test index"
// @Success      200      {object}  map[string]interface{}
// @Router       /subject/{subject}/{index} [get]
func (h *ContentHandler) GetSubjectTest(c *gin.Context) {
	index, valid := paramInt(c, "index")
	if !valid {
		failMsg(c, http.StatusOK, "Test not found")
		return
	}
	t, err := h.content.GetSubjectTest(c.Request.Context(), c.Param("subject"), index)
	if err != nil {
		respondError(c, "[content][subject_get]", err, nil)
		return
	}
	ok(c, gin.H{"test": t})
}
