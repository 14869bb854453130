package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"studymate/internal/app"
	"studymate/internal/transport/http/response"
)

type StudyHandler struct {
	studyService *app.StudyService
}

type GenerateQuestionsRequest struct {
	Difficulty string `json:"difficulty"`
	Count      int    `json:"count"`
}

type RetrieveRequest struct {
	Query       string `json:"query" binding:"required"`
	DocumentIDs []uint `json:"document_ids" binding:"required,min=1"`
	TopK        int    `json:"top_k"`
}

func NewStudyHandler(studyService *app.StudyService) *StudyHandler {
	return &StudyHandler{studyService: studyService}
}

func (h *StudyHandler) Summarize(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	documentID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	summary, err := h.studyService.Summarize(c.Request.Context(), userID, documentID)
	if err != nil {
		writeServiceError(c, err, "summarize failed")
		return
	}

	response.OK(c, gin.H{"document_id": documentID, "summary": summary})
}

func (h *StudyHandler) GenerateQuestions(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	documentID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req GenerateQuestionsRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
			return
		}
	}

	questions, err := h.studyService.GenerateQuestions(c.Request.Context(), app.GenerateQuestionsInput{
		UserID:     userID,
		DocumentID: documentID,
		Difficulty: req.Difficulty,
		Count:      req.Count,
	})
	if err != nil {
		writeServiceError(c, err, "generate questions failed")
		return
	}

	response.OK(c, questions)
}

func (h *StudyHandler) ListQuestions(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var documentID uint
	if raw := c.Query("document_id"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid document_id")
			return
		}
		documentID = uint(parsed)
	}

	questions, err := h.studyService.ListQuestions(c.Request.Context(), userID, documentID)
	if err != nil {
		writeServiceError(c, err, "list questions failed")
		return
	}

	response.OK(c, questions)
}

func (h *StudyHandler) Retrieve(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req RetrieveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "query and document_ids are required")
		return
	}

	entries, err := h.studyService.Retrieve(c.Request.Context(), app.RetrieveInput{
		UserID:      userID,
		Query:       req.Query,
		DocumentIDs: req.DocumentIDs,
		TopK:        req.TopK,
	})
	if err != nil {
		writeServiceError(c, err, "retrieve failed")
		return
	}

	response.OK(c, entries)
}
