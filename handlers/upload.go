package handlers

import (
	"errors"
	"net/http"

	"github.com/kevinaaaquil/bookstore/backend/service"
)

type UploadHandler struct {
	Files    FileStore
	MaxBytes int64
}

type UploadResponse struct {
	Message string `json:"message"`
	FileURL string `json:"fileUrl"`
}

// Upload stores the multipart "file" under the folder named by the "page" form field.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if h.MaxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.MaxBytes)
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "File too large")
			return
		}
		writeError(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer file.Close()

	if h.Files == nil {
		writeError(w, http.StatusServiceUnavailable, "File storage is not configured")
		return
	}
	url, err := h.Files.Upload(r.Context(), r.FormValue("page"), header.Filename, file, header.Size, header.Header.Get("Content-Type"))
	if errors.Is(err, service.ErrStorageDisabled) {
		writeError(w, http.StatusServiceUnavailable, "File storage is not configured")
		return
	}
	if err != nil {
		writeFailure(w, r, "Failed to upload file", err)
		return
	}
	writeJSON(w, http.StatusOK, UploadResponse{Message: "File uploaded successfully", FileURL: url})
}
