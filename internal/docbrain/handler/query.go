package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"

	"github.com/kart-io/docbrain/internal/docbrain/biz"
)

// queryTimeout bounds retrieval plus generation for one question.
const queryTimeout = 60 * time.Second

// QueryHandler handles question answering requests.
type QueryHandler struct {
	rag  *biz.RAGService
	auth *biz.AuthService
}

// NewQueryHandler creates a new QueryHandler.
func NewQueryHandler(rag *biz.RAGService, auth *biz.AuthService) *QueryHandler {
	return &QueryHandler{rag: rag, auth: auth}
}

// QueryRequest is the request body for a query.
type QueryRequest struct {
	Question string `json:"question" binding:"required"`
}

// Query answers a question from the authenticated user's documents.
func (h *QueryHandler) Query(c *gin.Context) {
	var req QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, err.Error())
		return
	}

	h.answer(c, userID(c), req.Question)
}

// ExternalQueryRequest is the form body for an API-key query.
type ExternalQueryRequest struct {
	APIKey   string `form:"api_key" binding:"required"`
	Question string `form:"question" binding:"required"`
}

// ExternalQuery answers a question authenticated by API key instead of
// a session token.
func (h *QueryHandler) ExternalQuery(c *gin.Context) {
	var req ExternalQueryRequest
	if err := c.ShouldBind(&req); err != nil {
		writeError(c, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.auth.UserByAPIKey(c.Request.Context(), req.APIKey)
	if err != nil {
		writeError(c, http.StatusUnauthorized, biz.ErrInvalidAPIKey.Error())
		return
	}

	h.answer(c, user.UserID, req.Question)
}

func (h *QueryHandler) answer(c *gin.Context, userID, question string) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), queryTimeout)
	defer cancel()

	result, err := h.rag.Query(ctx, userID, question)
	if err != nil {
		if errors.Is(err, biz.ErrNoDocuments) {
			writeError(c, http.StatusBadRequest, err.Error())
			return
		}
		logger.Errorf("Query failed: %v", err)
		writeError(c, http.StatusInternalServerError, "Query failed")
		return
	}

	c.JSON(http.StatusOK, result)
}
