package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"studymate/internal/app"
	"studymate/internal/transport/http/response"
)

type DocumentHandler struct {
	documentService *app.DocumentService
	maxUploadBytes  int64
}

type CreateTextDocumentRequest struct {
	Title       string `json:"title" binding:"max=256"`
	Subject     string `json:"subject" binding:"max=128"`
	Description string `json:"description" binding:"max=1024"`
	Content     string `json:"content" binding:"required"`
}

func NewDocumentHandler(documentService *app.DocumentService, maxUploadBytes int64) *DocumentHandler {
	return &DocumentHandler{documentService: documentService, maxUploadBytes: maxUploadBytes}
}

func (h *DocumentHandler) Upload(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "missing file")
		return
	}
	if h.maxUploadBytes > 0 && file.Size > h.maxUploadBytes {
		writeServiceError(c, app.ErrFileTooLarge, "")
		return
	}

	f, err := file.Open()
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "failed to read file")
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "failed to read file")
		return
	}

	doc, err := h.documentService.Upload(c.Request.Context(), app.UploadInput{
		UserID:      userID,
		Filename:    file.Filename,
		MIMEType:    file.Header.Get("Content-Type"),
		Title:       c.PostForm("title"),
		Subject:     c.PostForm("subject"),
		Description: c.PostForm("description"),
		Data:        data,
	})
	if err != nil {
		writeServiceError(c, err, "upload document failed")
		return
	}

	response.OK(c, doc)
}

func (h *DocumentHandler) CreateText(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req CreateTextDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	doc, err := h.documentService.CreateFromText(c.Request.Context(), app.CreateTextInput{
		UserID:      userID,
		Title:       req.Title,
		Subject:     req.Subject,
		Description: req.Description,
		Content:     req.Content,
	})
	if err != nil {
		writeServiceError(c, err, "create document failed")
		return
	}

	response.OK(c, doc)
}

func (h *DocumentHandler) List(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	docs, err := h.documentService.List(c.Request.Context(), userID)
	if err != nil {
		writeServiceError(c, err, "list documents failed")
		return
	}

	response.OK(c, docs)
}

func (h *DocumentHandler) Get(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	documentID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	detail, err := h.documentService.Get(c.Request.Context(), userID, documentID)
	if err != nil {
		writeServiceError(c, err, "get document failed")
		return
	}

	response.OK(c, detail)
}

func (h *DocumentHandler) Delete(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	documentID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.documentService.Delete(c.Request.Context(), userID, documentID); err != nil {
		writeServiceError(c, err, "delete document failed")
		return
	}

	response.OK(c, gin.H{"deleted_document_id": documentID})
}

func (h *DocumentHandler) Reindex(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	documentID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.documentService.Reindex(c.Request.Context(), userID, documentID); err != nil {
		writeServiceError(c, err, "reindex document failed")
		return
	}

	response.OK(c, gin.H{"document_id": documentID, "status": "queued"})
}
