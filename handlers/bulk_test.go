package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kevinaaaquil/bookstore/backend/config"
	"github.com/kevinaaaquil/bookstore/backend/models"
	"github.com/kevinaaaquil/bookstore/backend/service"
	"github.com/kevinaaaquil/bookstore/backend/spreadsheet"
	"github.com/kevinaaaquil/bookstore/backend/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBulkImportStatuses(t *testing.T) {
	full := &service.Report{Mode: config.ImportReport, TotalRows: 2, Inserted: 2, Failed: []service.RowFailure{}}
	partial := &service.Report{Mode: config.ImportReport, TotalRows: 2, Inserted: 1, Failed: []service.RowFailure{
		{Row: 3, ISBN: "978", Error: store.ErrDuplicateISBN.Error()},
	}}
	aborted := &service.Report{Mode: config.ImportTransaction, TotalRows: 2, Failed: []service.RowFailure{
		{Row: 2, ISBN: "978", Error: store.ErrDuplicateISBN.Error()},
	}}
	interrupted := &service.Report{Mode: config.ImportReport, TotalRows: 150, Inserted: 100, Failed: []service.RowFailure{
		{Row: 102, ISBN: "979", Error: "not written: connection reset"},
	}}

	cases := []struct {
		name   string
		report *service.Report
		err    error
		want   int
		body   string
	}{
		{"all inserted", full, nil, http.StatusOK, `"inserted":2`},
		{"some rows failed", partial, nil, http.StatusMultiStatus, `"row":3`},
		{"unreadable file", nil, fmt.Errorf("%w: %w", service.ErrInvalidFile, spreadsheet.ErrUnsupportedFormat), http.StatusBadRequest, `"message":"Failed to import books"`},
		{"transaction duplicate", aborted, fmt.Errorf("%w: %w", service.ErrImportAborted, store.ErrDuplicateISBN), http.StatusConflict, `"mode":"transaction"`},
		{"transaction invalid rows", aborted, fmt.Errorf("%w: %w", service.ErrImportAborted, service.ErrRowsRejected), http.StatusBadRequest, `"failed"`},
		{"store failure", nil, errors.New("connection reset"), http.StatusInternalServerError, `"message":"Failed to import books"`},
		{"interrupted import keeps the report", interrupted, errors.New("insert rows 102-151: connection reset"), http.StatusInternalServerError, `"inserted":100`},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			ts := newTestServer(nil)
			ts.importer.report, ts.importer.err = c.report, c.err

			body, ct := multipartBody(t, nil, "file", "books.xlsx", []byte("data"))
			rec := ts.do(adminRequest(t, http.MethodPost, "/api/books/bulk-import", body, ct))
			assert.Equal(t, c.want, rec.Code, rec.Body.String())
			assert.Contains(t, rec.Body.String(), c.body)
			assert.Equal(t, "books.xlsx", ts.importer.name)
		})
	}
}

// flakyCatalog stores every batch until the failAt-th InsertBooks call, which fails.
type flakyCatalog struct {
	stored []models.Book
	calls  int
	failAt int
}

func (f *flakyCatalog) InsertBooks(_ context.Context, books []models.Book) (int, []store.WriteFailure, error) {
	f.calls++
	if f.calls == f.failAt {
		return 0, nil, errors.New("connection reset")
	}
	f.stored = append(f.stored, books...)
	return len(books), nil, nil
}

func (f *flakyCatalog) InsertBooksAtomic(context.Context, []models.Book, int) error { return nil }

func (f *flakyCatalog) ExistingISBNs(context.Context, []string) (map[string]bool, error) {
	return map[string]bool{}, nil
}

func TestBulkImportReportsRowsLeftUnwritten(t *testing.T) {
	catalog := &flakyCatalog{failAt: 2}
	h := &ImportHandler{Importer: service.NewImporter(catalog, config.ImportReport, 100)}

	var csv strings.Builder
	csv.WriteString("ISBN,Title\n")
	for i := 0; i < 150; i++ {
		fmt.Fprintf(&csv, "978%010d,Book %d\n", i, i)
	}
	body, ct := multipartBody(t, nil, "file", "books.csv", []byte(csv.String()))
	req := httptest.NewRequest(http.MethodPost, "/api/books/bulk-import", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	h.BulkImport(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Len(t, catalog.stored, 100)

	var resp struct {
		Message string               `json:"message"`
		Total   int                  `json:"totalRows"`
		Insert  int                  `json:"inserted"`
		Failed  []service.RowFailure `json:"failed"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Failed to import books", resp.Message)
	assert.Equal(t, 150, resp.Total)
	assert.Equal(t, 100, resp.Insert)
	require.Len(t, resp.Failed, 50)
	assert.Equal(t, 102, resp.Failed[0].Row)
	assert.Contains(t, resp.Failed[0].Error, "connection reset")
}

func TestBulkImportWithoutFile(t *testing.T) {
	ts := newTestServer(nil)
	body, ct := multipartBody(t, map[string]string{"note": "x"}, "", "", nil)
	rec := ts.do(adminRequest(t, http.MethodPost, "/api/books/bulk-import", body, ct))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, ts.importer.name)
}

func TestBulkImportTooLarge(t *testing.T) {
	importer := &fakeImporter{}
	h := &ImportHandler{Importer: importer, MaxBytes: 64}
	body, ct := multipartBody(t, nil, "file", "books.csv", bytes.Repeat([]byte("a"), 1024))
	req := httptest.NewRequest(http.MethodPost, "/api/books/bulk-import", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	h.BulkImport(rec, req)
	assert.Contains(t, []int{http.StatusRequestEntityTooLarge, http.StatusBadRequest}, rec.Code)
	assert.Empty(t, importer.name)
}

func TestUpload(t *testing.T) {
	ts := newTestServer(nil)
	body, ct := multipartBody(t, map[string]string{"page": "covers"}, "file", "front.jpg", []byte("jpg"))
	rec := ts.do(adminRequest(t, http.MethodPost, "/upload", body, ct))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"File uploaded successfully","fileUrl":"https://cdn.test/covers/front.jpg"}`, rec.Body.String())

	body, ct = multipartBody(t, map[string]string{"page": "covers"}, "", "", nil)
	rec = ts.do(adminRequest(t, http.MethodPost, "/upload", body, ct))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"message":"No file uploaded"}`, rec.Body.String())
}

func TestRootAndHealth(t *testing.T) {
	ts := newTestServer(nil)
	rec := ts.do(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.JSONEq(t, `{"message":"Book Store Server is running!"}`, rec.Body.String())

	rec = ts.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = ts.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests_total")
}
