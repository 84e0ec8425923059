package handler

import (
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"tenantbot/internal/app"
	"tenantbot/internal/transport/http/response"
)

const maxPDFSize = 10 << 20 // 10 MB

// KBHandler serves the knowledge-base surface of the dashboard:
// document upload, listing, deletion and the two ingestion entry
// points.
type KBHandler struct {
	documents *app.DocumentService
	ingest    *app.IngestService
}

func NewKBHandler(documents *app.DocumentService, ingest *app.IngestService) *KBHandler {
	return &KBHandler{documents: documents, ingest: ingest}
}

// Upload accepts a multipart form with "file" (PDF), "bot_id" and an
// optional "title". The document lands in uploaded state; processing
// is a separate call.
func (h *KBHandler) Upload(c *gin.Context) {
	tc, ok := tenantContextFrom(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	botID := strings.TrimSpace(c.PostForm("bot_id"))
	if botID == "" {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "missing bot_id")
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "missing file")
		return
	}
	if file.Size > maxPDFSize {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "file too large (max 10MB)")
		return
	}
	if ext := strings.ToLower(filepath.Ext(file.Filename)); ext != ".pdf" {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "only PDF files are allowed")
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

	title := strings.TrimSpace(c.PostForm("title"))
	if title == "" {
		title = strings.TrimSuffix(file.Filename, filepath.Ext(file.Filename))
	}

	doc, err := h.documents.Upload(c.Request.Context(), tc, botID, title, data)
	if err != nil {
		writeAppError(c, err)
		return
	}
	response.OK(c, doc)
}

func (h *KBHandler) List(c *gin.Context) {
	tc, ok := tenantContextFrom(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}
	docs, err := h.documents.List(tc, strings.TrimSpace(c.Query("bot_id")))
	if err != nil {
		writeAppError(c, err)
		return
	}
	response.OK(c, docs)
}

func (h *KBHandler) Delete(c *gin.Context) {
	tc, ok := tenantContextFrom(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}
	botID := strings.TrimSpace(c.Query("bot_id"))
	docID := c.Param("id")
	if err := h.documents.Delete(c.Request.Context(), tc, botID, docID); err != nil {
		writeAppError(c, err)
		return
	}
	response.OK(c, gin.H{"deleted_document_id": docID})
}

// Process runs the PDF pipeline: download, extract, fragment, embed.
func (h *KBHandler) Process(c *gin.Context) {
	tc, ok := tenantContextFrom(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}
	result, err := h.ingest.ProcessDocument(c.Request.Context(), tc, strings.TrimSpace(c.Query("bot_id")), c.Param("id"))
	if err != nil {
		writeAppError(c, err)
		return
	}
	response.OK(c, result)
}

// Reembed rebuilds fragments from the document's stored text.
func (h *KBHandler) Reembed(c *gin.Context) {
	tc, ok := tenantContextFrom(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}
	result, err := h.ingest.ReembedDocument(c.Request.Context(), tc, strings.TrimSpace(c.Query("bot_id")), c.Param("id"))
	if err != nil {
		writeAppError(c, err)
		return
	}
	response.OK(c, result)
}
