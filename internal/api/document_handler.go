package api

import (
	"errors"
	"fmt"
	"net/http"

	app_errors "socratic-coach/backend/internal/errors"
	"socratic-coach/backend/internal/interfaces"
)

// uploadField is the multipart field carrying the document.
const uploadField = "document"

// multipartOverhead leaves room for the multipart framing around the file.
const multipartOverhead = 64 * 1024

type DocumentHandler struct {
	documents interfaces.DocumentService
}

func NewDocumentHandler(svc interfaces.DocumentService) *DocumentHandler {
	return &DocumentHandler{documents: svc}
}

// HandleUploadDocument godoc
// @Summary      Extract text from an uploaded document
// @Description  Accepts plain text, PDF, Word (.doc) and Word (.docx). The text is truncated to the configured character limit.
// @Tags         Documents
// @Accept       multipart/form-data
// @Produce      json
// @Param        document  formData  file  true  "Document to extract"
// @Success      200       {object}  document.Result
// @Failure      400       {object}  api.ErrorResponse
// @Failure      500       {object}  api.ErrorResponse
// @Router       /upload-document [post]
func (h *DocumentHandler) HandleUploadDocument(w http.ResponseWriter, r *http.Request) {
	limit := h.documents.MaxBytes()
	r.Body = http.MaxBytesReader(w, r.Body, limit+multipartOverhead)

	// Parts beyond 1 MiB are spooled to disk by the multipart reader.
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondWithError(w, fmt.Errorf("%w: file exceeds the %d byte limit", app_errors.ErrValidation, limit))
			return
		}
		respondWithError(w, fmt.Errorf("%w: invalid multipart body: %s", app_errors.ErrValidation, err.Error()))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile(uploadField)
	if err != nil {
		respondWithError(w, fmt.Errorf("%w: no file uploaded", app_errors.ErrValidation))
		return
	}
	defer file.Close()

	result, err := h.documents.Extract(r.Context(), header.Filename, header.Header.Get("Content-Type"), file)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}
