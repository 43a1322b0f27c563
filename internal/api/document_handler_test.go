package api_test

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"socratic-coach/backend/internal/api"
	"socratic-coach/backend/internal/document"
	"socratic-coach/backend/internal/interfaces/mocks"
	"socratic-coach/backend/internal/service"
)

func multipartUpload(t *testing.T, field, filename string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload-document", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestDocumentHandler_HandleUploadDocument(t *testing.T) {
	t.Run("Long text is truncated", func(t *testing.T) {
		// ARRANGE
		tempDir := t.TempDir()
		handler := api.NewDocumentHandler(service.NewDocumentService(5*1024*1024, 5000, tempDir, nil))
		req := multipartUpload(t, "document", "notes.txt", []byte(strings.Repeat("a", 6000)))
		rr := httptest.NewRecorder()

		// ACT
		handler.HandleUploadDocument(rr, req)

		// ASSERT
		assert.Equal(t, http.StatusOK, rr.Code)
		body := decodeBody(t, rr)
		assert.Equal(t, strings.Repeat("a", 5000)+document.TruncationMarker, body["content"])
		assert.EqualValues(t, 6000, body["originalLength"])
		assert.Equal(t, true, body["truncated"])

		entries, err := os.ReadDir(tempDir)
		require.NoError(t, err)
		assert.Empty(t, entries, "temporary upload must be removed")
	})

	t.Run("Unsupported type", func(t *testing.T) {
		handler := api.NewDocumentHandler(service.NewDocumentService(1024, 5000, t.TempDir(), nil))
		req := multipartUpload(t, "document", "image.png", []byte{0x89, 'P', 'N', 'G'})
		rr := httptest.NewRecorder()

		handler.HandleUploadDocument(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("Oversized body", func(t *testing.T) {
		mockDocs := mocks.NewMockDocumentService(t)
		mockDocs.On("MaxBytes").Return(int64(10)).Once()
		handler := api.NewDocumentHandler(mockDocs)
		req := multipartUpload(t, "document", "big.txt", bytes.Repeat([]byte("x"), 200*1024))
		rr := httptest.NewRecorder()

		handler.HandleUploadDocument(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, decodeBody(t, rr)["error"], "exceeds")
	})

	t.Run("Missing file field", func(t *testing.T) {
		mockDocs := mocks.NewMockDocumentService(t)
		mockDocs.On("MaxBytes").Return(int64(1024)).Once()
		handler := api.NewDocumentHandler(mockDocs)
		req := multipartUpload(t, "file", "notes.txt", []byte("hello"))
		rr := httptest.NewRecorder()

		handler.HandleUploadDocument(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		mockDocs.AssertNotCalled(t, "Extract", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}
