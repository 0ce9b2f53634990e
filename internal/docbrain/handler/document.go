package handler

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"

	"github.com/kart-io/docbrain/internal/docbrain/biz"
	"github.com/kart-io/docbrain/internal/docbrain/middleware"
	"github.com/kart-io/docbrain/internal/pkg/extract"
)

// DocumentHandler handles document upload and listing requests.
type DocumentHandler struct {
	svc *biz.DocumentService
}

// NewDocumentHandler creates a new DocumentHandler.
func NewDocumentHandler(svc *biz.DocumentService) *DocumentHandler {
	return &DocumentHandler{svc: svc}
}

// UploadResponse is returned after a successful ingestion.
type UploadResponse struct {
	Message    string `json:"message"`
	DocumentID string `json:"document_id"`
	ChunkCount int    `json:"chunk_count"`
}

// Upload handles a multipart PDF upload.
func (h *DocumentHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		writeError(c, http.StatusBadRequest, "file is required")
		return
	}

	if !strings.HasSuffix(strings.ToLower(fileHeader.Filename), ".pdf") {
		writeError(c, http.StatusBadRequest, "Only PDF files are supported")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		writeError(c, http.StatusBadRequest, "failed to read uploaded file")
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		writeError(c, http.StatusBadRequest, "failed to read uploaded file")
		return
	}

	text, err := extract.PDFText(content)
	if err != nil {
		writeError(c, http.StatusBadRequest, "Error processing PDF: "+err.Error())
		return
	}
	if strings.TrimSpace(text) == "" {
		writeError(c, http.StatusBadRequest, "Could not extract text from PDF")
		return
	}

	doc, err := h.svc.Ingest(c.Request.Context(), userID(c), fileHeader.Filename, text)
	if err != nil {
		if errors.Is(err, biz.ErrEmptyDocument) {
			writeError(c, http.StatusBadRequest, "Could not extract text from PDF")
			return
		}
		logger.Errorf("Upload failed: %v", err)
		writeError(c, http.StatusInternalServerError, "Failed to save document")
		return
	}

	c.JSON(http.StatusOK, UploadResponse{
		Message:    "Document uploaded and processed successfully",
		DocumentID: doc.ID,
		ChunkCount: doc.ChunkCount,
	})
}

// TextRequest is the form body for a plain text upload.
type TextRequest struct {
	Title   string `form:"title" binding:"required"`
	Content string `form:"content"`
}

// UploadText handles a plain text upload.
func (h *DocumentHandler) UploadText(c *gin.Context) {
	var req TextRequest
	if err := c.ShouldBind(&req); err != nil {
		writeError(c, http.StatusBadRequest, err.Error())
		return
	}

	if strings.TrimSpace(req.Content) == "" {
		writeError(c, http.StatusBadRequest, "Content cannot be empty")
		return
	}

	doc, err := h.svc.Ingest(c.Request.Context(), userID(c), req.Title+".txt", req.Content)
	if err != nil {
		if errors.Is(err, biz.ErrEmptyDocument) {
			writeError(c, http.StatusBadRequest, "Content cannot be empty")
			return
		}
		logger.Errorf("Text upload failed: %v", err)
		writeError(c, http.StatusInternalServerError, "Failed to save document")
		return
	}

	c.JSON(http.StatusOK, UploadResponse{
		Message:    "Text document processed successfully",
		DocumentID: doc.ID,
		ChunkCount: doc.ChunkCount,
	})
}

// List returns the user's documents, newest first.
func (h *DocumentHandler) List(c *gin.Context) {
	summaries, err := h.svc.List(c.Request.Context(), userID(c))
	if err != nil {
		logger.Errorf("List documents failed: %v", err)
		writeError(c, http.StatusInternalServerError, "Failed to list documents")
		return
	}

	c.JSON(http.StatusOK, summaries)
}

func userID(c *gin.Context) string {
	return c.GetString(middleware.UserIDKey)
}
