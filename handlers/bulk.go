package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/kevinaaaquil/bookstore/backend/service"
	"github.com/kevinaaaquil/bookstore/backend/store"
	"github.com/rs/zerolog/log"
)

// BookImporter imports an uploaded spreadsheet.
type BookImporter interface {
	ImportFile(ctx context.Context, r io.Reader, filename string) (*service.Report, error)
}

type ImportHandler struct {
	Importer BookImporter
	MaxBytes int64
}

type importResponse struct {
	Message string `json:"message"`
	*service.Report
}

// BulkImport reads the multipart field "file". All rows inserted gives 200, some rows rejected 207. A store failure
// part way through still answers with the report, which lists the rows that were not written.
func (h *ImportHandler) BulkImport(w http.ResponseWriter, r *http.Request) {
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

	report, err := h.Importer.ImportFile(r.Context(), file, header.Filename)
	switch {
	case errors.Is(err, service.ErrInvalidFile):
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "Failed to import books", Error: err.Error()})
		return
	case errors.Is(err, store.ErrDuplicateISBN):
		writeJSON(w, http.StatusConflict, importResponse{Message: "Import aborted: duplicate ISBN", Report: report})
		return
	case errors.Is(err, service.ErrRowsRejected):
		writeJSON(w, http.StatusBadRequest, importResponse{Message: "Import aborted: invalid rows", Report: report})
		return
	case err != nil && report != nil:
		log.Error().Err(err).Int("inserted", report.Inserted).Int("failed", len(report.Failed)).Msg("bulk import interrupted")
		writeJSON(w, http.StatusInternalServerError, importResponse{Message: "Failed to import books", Report: report})
		return
	case err != nil:
		writeFailure(w, r, "Failed to import books", err)
		return
	}

	if len(report.Failed) > 0 {
		writeJSON(w, http.StatusMultiStatus, importResponse{Message: "Bulk import partially successful", Report: report})
		return
	}
	writeJSON(w, http.StatusOK, importResponse{Message: "Bulk import successful", Report: report})
}
