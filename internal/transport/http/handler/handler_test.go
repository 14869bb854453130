package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studymate/internal/app"
	"studymate/internal/bootstrap"
	"studymate/internal/config"
	"studymate/internal/model"
	"studymate/internal/platform/database"
	"studymate/internal/repository"
	"studymate/internal/retrieval"
	"studymate/internal/transport/http/middleware"
	"studymate/internal/transport/http/response"
)

type stubCompleter struct {
	reply string
	err   error
}

func (s stubCompleter) Complete(context.Context, string, string) (string, error) {
	return s.reply, s.err
}

type noopDispatcher struct{}

func (noopDispatcher) Dispatch(context.Context, uint) error { return nil }

type offlineEmbedder struct{}

func (offlineEmbedder) Embed(context.Context, string) ([]float32, error) {
	return nil, errors.New("offline")
}

type testServer struct {
	router    *gin.Engine
	documents *repository.DocumentRepository
}

func newTestServer(t *testing.T, completer app.Completer) testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.New(context.Background(), "sqlite", ":memory:")
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	docs := repository.NewDocumentRepository(db)
	passages := repository.NewPassageRepository(db)
	retriever := retrieval.NewRetriever(offlineEmbedder{}, passages, docs, retrieval.RetrieverConfig{})

	documentHandler := NewDocumentHandler(app.NewDocumentService(docs, passages, noopDispatcher{}, 1<<20), 1<<20)
	chatHandler := NewChatHandler(app.NewChatService(docs, repository.NewConversationRepository(db), repository.NewMessageRepository(db), retriever, completer, nil, nil, 5))
	studyHandler := NewStudyHandler(app.NewStudyService(docs, repository.NewQuestionRepository(db), retriever, completer))
	healthHandler := NewHealthHandler(&bootstrap.App{Config: &config.Config{App: config.AppConfig{Name: "studymate", Env: "test"}}, DB: db, StartedAt: time.Now()})

	r := gin.New()
	r.GET("/healthz", healthHandler.Check)
	api := r.Group("/api", func(c *gin.Context) {
		if raw := c.GetHeader("X-User"); raw == "1" {
			c.Set(middleware.ContextUserIDKey, uint(1))
		} else if raw == "2" {
			c.Set(middleware.ContextUserIDKey, uint(2))
		}
		c.Next()
	})
	api.POST("/documents", documentHandler.Upload)
	api.POST("/documents/text", documentHandler.CreateText)
	api.GET("/documents", documentHandler.List)
	api.GET("/documents/:id", documentHandler.Get)
	api.DELETE("/documents/:id", documentHandler.Delete)
	api.POST("/documents/:id/summary", studyHandler.Summarize)
	api.POST("/documents/:id/questions", studyHandler.GenerateQuestions)
	api.POST("/chat", chatHandler.Ask)
	api.GET("/chat/conversations/:id/messages", chatHandler.GetHistory)
	api.GET("/questions", studyHandler.ListQuestions)
	api.POST("/retrieve", studyHandler.Retrieve)

	return testServer{router: r, documents: docs}
}

func (s testServer) do(t *testing.T, method, path, user string, body any) (*httptest.ResponseRecorder, response.APIResponse) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set("X-User", user)
	}
	return s.serve(t, req)
}

func (s testServer) serve(t *testing.T, req *http.Request) (*httptest.ResponseRecorder, response.APIResponse) {
	t.Helper()
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	var env response.APIResponse
	if rec.Header().Get("Content-Type") != "" && rec.Body.Len() > 0 {
		_ = json.Unmarshal(rec.Body.Bytes(), &env)
	}
	return rec, env
}

func (s testServer) seed(t *testing.T, userID uint, content string) *model.Document {
	t.Helper()
	doc := &model.Document{UserID: userID, Title: "Notes", Content: content}
	require.NoError(t, s.documents.Create(context.Background(), doc))
	return doc
}

func multipartUpload(t *testing.T, filename, contentType string, data []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	header.Set("Content-Type", contentType)
	part, err := w.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.WriteField("subject", "Biology"))
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/documents", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("X-User", "1")
	return req
}

func TestUploadEndpoint(t *testing.T) {
	s := newTestServer(t, stubCompleter{})

	rec, env := s.serve(t, multipartUpload(t, "cells.txt", "text/plain", []byte("Cells divide.")))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, response.CodeOK, env.Code)
	data := env.Data.(map[string]any)
	assert.Equal(t, "cells", data["title"])
	assert.Equal(t, "Biology", data["subject"])
	assert.NotContains(t, data, "content")

	rec, env = s.serve(t, multipartUpload(t, "deck.pptx", "application/vnd.openxmlformats-officedocument.presentationml.presentation", []byte("PK\x03\x04")))
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
	assert.Equal(t, response.CodeUnsupportedFormat, env.Code)
}

func TestDocumentEndpointsRequireUser(t *testing.T) {
	s := newTestServer(t, stubCompleter{})
	rec, env := s.do(t, http.MethodGet, "/api/documents", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, response.CodeUnauthorized, env.Code)
}

func TestGetDocumentOwnership(t *testing.T) {
	s := newTestServer(t, stubCompleter{})
	doc := s.seed(t, 1, "Private.")

	rec, env := s.do(t, http.MethodGet, "/api/documents/1", "2", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, response.CodeDocumentNotFound, env.Code)

	rec, env = s.do(t, http.MethodGet, "/api/documents/abc", "1", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, env = s.do(t, http.MethodGet, "/api/documents/1", "1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Private.", env.Data.(map[string]any)["content"])
	assert.EqualValues(t, doc.ID, env.Data.(map[string]any)["id"])
}

func TestAskEndpoint(t *testing.T) {
	s := newTestServer(t, stubCompleter{reply: "Mitochondria [1]."})
	mine := s.seed(t, 1, "Mitochondria make ATP.")
	theirs := s.seed(t, 2, "Secret.")

	rec, env := s.do(t, http.MethodPost, "/api/chat", "1", gin.H{"message": "What makes ATP?"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, response.CodeBadRequest, env.Code)

	rec, env = s.do(t, http.MethodPost, "/api/chat", "1", gin.H{"message": "q", "document_ids": []uint{mine.ID, theirs.ID}})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, response.CodeForbidden, env.Code)

	rec, env = s.do(t, http.MethodPost, "/api/chat", "1", gin.H{"message": "What makes ATP?", "document_ids": []uint{mine.ID}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	data := env.Data.(map[string]any)
	assert.Equal(t, "Mitochondria [1].", data["answer"])
	contexts := data["context"].([]any)
	require.Len(t, contexts, 1)
	assert.Equal(t, 1.0, contexts[0].(map[string]any)["similarity"])

	rec, env = s.do(t, http.MethodGet, "/api/chat/conversations/1/messages", "1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, env.Data.([]any), 2)
}

func TestSummaryGenerationFailure(t *testing.T) {
	s := newTestServer(t, stubCompleter{err: errors.New("upstream 500")})
	s.seed(t, 1, "Text.")

	rec, env := s.do(t, http.MethodPost, "/api/documents/1/summary", "1", nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, response.CodeGeneration, env.Code)
}

func TestQuestionsEndpoints(t *testing.T) {
	reply := `[{"question":"Q?","options":["A) a","B) b","C) c","D) d"],"answer":"A) a","difficulty":"easy"}]`
	s := newTestServer(t, stubCompleter{reply: reply})
	s.seed(t, 1, "Text.")

	rec, env := s.do(t, http.MethodPost, "/api/documents/1/questions", "1", gin.H{"difficulty": "easy", "count": 1})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	questions := env.Data.([]any)
	require.Len(t, questions, 1)
	assert.Len(t, questions[0].(map[string]any)["options"], 4)

	rec, _ = s.do(t, http.MethodPost, "/api/documents/1/questions", "1", gin.H{"count": 50})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, env = s.do(t, http.MethodGet, "/api/questions?document_id=1", "1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, env.Data.([]any), 1)
}

func TestRetrieveEndpoint(t *testing.T) {
	s := newTestServer(t, stubCompleter{})
	doc := s.seed(t, 1, "Photosynthesis uses light.")

	rec, env := s.do(t, http.MethodPost, "/api/retrieve", "1", gin.H{"query": "light", "document_ids": []uint{doc.ID}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	entries := env.Data.([]any)
	require.Len(t, entries, 1)
	assert.Equal(t, "[1] Photosynthesis uses light.", entries[0].(map[string]any)["content"])

	rec, _ = s.do(t, http.MethodPost, "/api/retrieve", "2", gin.H{"query": "light", "document_ids": []uint{doc.ID}})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(t, stubCompleter{})
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Dependencies map[string]dependencyStatus `json:"dependencies"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Dependencies["database"].OK)
	assert.Equal(t, "disabled", body.Dependencies["redis"].Message)
	assert.True(t, body.Dependencies["rabbitmq"].OK)
}
