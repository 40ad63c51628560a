package handler

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vidiria/verilo-ai/pkg/logger"
)

// allowedUploadTypes is the attachment mime-type whitelist.
var allowedUploadTypes = map[string]bool{
	"image/jpeg":         true,
	"image/png":          true,
	"image/gif":          true,
	"application/pdf":    true,
	"text/plain":         true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
}

// UploadHandler stores attachment files and returns their URLs.
type UploadHandler struct {
	uploadDir     string
	maxUploadSize int64
	logger        *logger.Logger
}

// NewUploadHandler creates a new upload handler.
func NewUploadHandler(uploadDir string, maxUploadSize int64, log *logger.Logger) *UploadHandler {
	return &UploadHandler{
		uploadDir:     uploadDir,
		maxUploadSize: maxUploadSize,
		logger:        log,
	}
}

// Upload handles POST /api/v1/upload (multipart, field "file")
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "no file uploaded")
		return
	}
	defer file.Close()

	mimeType := header.Header.Get("Content-Type")
	if !allowedUploadTypes[mimeType] {
		writeError(w, http.StatusBadRequest, "invalid file type")
		return
	}

	if err := os.MkdirAll(h.uploadDir, 0o755); err != nil {
		h.logger.Error("failed to create upload directory", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to store file")
		return
	}

	// Stored name keeps the original extension but not the original name,
	// so uploads cannot collide or traverse paths.
	name := uuid.New().String() + filepath.Ext(filepath.Base(header.Filename))
	dst, err := os.Create(filepath.Join(h.uploadDir, name))
	if err != nil {
		h.logger.Error("failed to create upload file", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to store file")
		return
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		h.logger.Error("failed to write upload file", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to store file")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"url":  fmt.Sprintf("/uploads/%s", name),
		"name": header.Filename,
		"type": mimeType,
	})
}
