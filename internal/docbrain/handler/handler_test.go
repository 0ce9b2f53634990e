package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/docbrain/internal/docbrain/biz"
	"github.com/kart-io/docbrain/internal/docbrain/router"
	"github.com/kart-io/docbrain/internal/docbrain/store"
	"github.com/kart-io/docbrain/internal/model"
	"github.com/kart-io/docbrain/internal/pkg/ranker"
	"github.com/kart-io/docbrain/internal/pkg/vectorizer"
)

type stubProvider struct {
	answer string
}

func (p *stubProvider) Generate(context.Context, string, string) (string, error) {
	return p.answer, nil
}

func (p *stubProvider) Name() string { return "stub" }

func newTestEngine(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	factory, err := store.NewSQLiteFactory(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = factory.Close() })

	vec := vectorizer.New(nil)
	authSvc := biz.NewAuthService(factory, &biz.AuthConfig{
		JWTKey:      "test-signing-key",
		TokenExpiry: time.Hour,
	})
	docSvc := biz.NewDocumentService(factory, vec, 0)
	ragSvc, err := biz.NewRAGService(factory, vec, ranker.New(nil),
		&stubProvider{answer: "Paris is the capital of France."}, nil, nil)
	require.NoError(t, err)
	t.Cleanup(ragSvc.Close)

	engine := gin.New()
	router.Register(engine, authSvc, docSvc, ragSvc)
	return engine
}

func doJSON(engine *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func doForm(engine *gin.Engine, path, token string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func register(t *testing.T, engine *gin.Engine, username, password string) model.AuthResponse {
	t.Helper()
	w := doJSON(engine, http.MethodPost, "/api/auth/register", "",
		gin.H{"username": username, "password": password})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp model.AuthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.True(t, resp.Success)
	return resp
}

func TestRegisterAndLogin(t *testing.T) {
	engine := newTestEngine(t)

	resp := register(t, engine, "alice", "pw1")
	assert.Equal(t, "Registration successful!", resp.Message)
	assert.NotEmpty(t, resp.Token)
	assert.True(t, strings.HasPrefix(resp.APIKey, "sk-docbrain-"))

	t.Run("duplicate username", func(t *testing.T) {
		w := doJSON(engine, http.MethodPost, "/api/auth/register", "",
			gin.H{"username": "alice", "password": "other"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "Username already exists")
	})

	t.Run("login", func(t *testing.T) {
		w := doJSON(engine, http.MethodPost, "/api/auth/login", "",
			gin.H{"username": "alice", "password": "pw1"})
		require.Equal(t, http.StatusOK, w.Code)

		var loginResp model.AuthResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &loginResp))
		assert.Equal(t, resp.UserID, loginResp.UserID)
		assert.Equal(t, "Login successful!", loginResp.Message)
	})

	t.Run("wrong password", func(t *testing.T) {
		w := doJSON(engine, http.MethodPost, "/api/auth/login", "",
			gin.H{"username": "alice", "password": "wrong"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "Invalid username or password")
	})
}

func TestTextUpload(t *testing.T) {
	engine := newTestEngine(t)
	auth := register(t, engine, "alice", "pw1")

	content := strings.Repeat("The cat sat on the mat. ", 100)
	w := doForm(engine, "/api/documents/text", auth.Token,
		url.Values{"title": {"cats"}, "content": {content}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Message    string `json:"message"`
		DocumentID string `json:"document_id"`
		ChunkCount int    `json:"chunk_count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Text document processed successfully", resp.Message)
	assert.NotEmpty(t, resp.DocumentID)
	assert.GreaterOrEqual(t, resp.ChunkCount, 2)

	t.Run("listed with filename", func(t *testing.T) {
		w := doJSON(engine, http.MethodGet, "/api/documents", auth.Token, nil)
		require.Equal(t, http.StatusOK, w.Code)

		var docs []model.DocumentSummary
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &docs))
		require.Len(t, docs, 1)
		assert.Equal(t, "cats.txt", docs[0].Filename)
		assert.Equal(t, model.StatusCompleted, docs[0].Status)
		assert.GreaterOrEqual(t, docs[0].ChunkCount, 2)
	})

	t.Run("empty content rejected", func(t *testing.T) {
		w := doForm(engine, "/api/documents/text", auth.Token,
			url.Values{"title": {"blank"}, "content": {"   "}})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "Content cannot be empty")
	})
}

func TestUploadRejectsNonPDF(t *testing.T) {
	engine := newTestEngine(t)
	auth := register(t, engine, "alice", "pw1")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "notes.docx")
	require.NoError(t, err)
	_, err = part.Write([]byte("not a pdf"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/documents/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+auth.Token)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Only PDF files are supported")
}

func TestQuery(t *testing.T) {
	engine := newTestEngine(t)
	auth := register(t, engine, "alice", "pw1")

	t.Run("no documents", func(t *testing.T) {
		w := doJSON(engine, http.MethodPost, "/api/query", auth.Token,
			gin.H{"question": "What is the capital of France?"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "No documents found")
	})

	w := doForm(engine, "/api/documents/text", auth.Token, url.Values{
		"title":   {"france"},
		"content": {"Paris is the capital of France. It is known for the Eiffel Tower."},
	})
	require.Equal(t, http.StatusOK, w.Code)

	t.Run("answers with sources", func(t *testing.T) {
		w := doJSON(engine, http.MethodPost, "/api/query", auth.Token,
			gin.H{"question": "What is the capital of France?"})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var resp model.QueryResult
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "Paris is the capital of France.", resp.Answer)
		require.NotEmpty(t, resp.Sources)
		assert.Equal(t, "france.txt", resp.Sources[0].Filename)
		assert.Equal(t, 0, resp.Sources[0].ChunkIndex)
		assert.Greater(t, resp.Sources[0].RelevanceScore, 0.1)
	})

	t.Run("requires token", func(t *testing.T) {
		w := doJSON(engine, http.MethodPost, "/api/query", "",
			gin.H{"question": "anything"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("rejects garbage token", func(t *testing.T) {
		w := doJSON(engine, http.MethodPost, "/api/query", "garbage",
			gin.H{"question": "anything"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestExternalQuery(t *testing.T) {
	engine := newTestEngine(t)
	auth := register(t, engine, "alice", "pw1")

	w := doForm(engine, "/api/documents/text", auth.Token, url.Values{
		"title":   {"france"},
		"content": {"Paris is the capital of France."},
	})
	require.Equal(t, http.StatusOK, w.Code)

	t.Run("valid api key", func(t *testing.T) {
		w := doForm(engine, "/api/external/query", "", url.Values{
			"api_key":  {auth.APIKey},
			"question": {"What is the capital of France?"},
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var resp model.QueryResult
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.NotEmpty(t, resp.Sources)
	})

	t.Run("unknown api key", func(t *testing.T) {
		w := doForm(engine, "/api/external/query", "", url.Values{
			"api_key":  {"sk-docbrain-unknown"},
			"question": {"anything"},
		})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "Invalid API key")
	})
}
