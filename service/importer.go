package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/kevinaaaquil/bookstore/backend/config"
	"github.com/kevinaaaquil/bookstore/backend/models"
	"github.com/kevinaaaquil/bookstore/backend/spreadsheet"
	"github.com/kevinaaaquil/bookstore/backend/store"
	"github.com/rs/zerolog/log"
)

const DefaultChunkSize = 100

var (
	// ErrInvalidFile wraps every failure to read the uploaded file.
	ErrInvalidFile = errors.New("invalid import file")
	// ErrImportAborted means a transactional import wrote nothing.
	ErrImportAborted = errors.New("import aborted, nothing was inserted")
	// ErrRowsRejected means at least one row failed validation.
	ErrRowsRejected = errors.New("rows rejected")
)

// BookWriter is the part of the catalog store the importer needs.
type BookWriter interface {
	InsertBooks(ctx context.Context, books []models.Book) (int, []store.WriteFailure, error)
	InsertBooksAtomic(ctx context.Context, books []models.Book, chunkSize int) error
	ExistingISBNs(ctx context.Context, isbns []string) (map[string]bool, error)
}

// ImportObserver receives the outcome of every import.
type ImportObserver interface {
	ObserveImport(inserted, failed int)
}

type RowFailure struct {
	Row   int    `json:"row"`
	ISBN  string `json:"isbn,omitempty"`
	Error string `json:"error"`
}

type Report struct {
	Mode      string       `json:"mode"`
	TotalRows int          `json:"totalRows"`
	Inserted  int          `json:"inserted"`
	Failed    []RowFailure `json:"failed"`
}

type Importer struct {
	Store     BookWriter
	Mode      string
	ChunkSize int
	Observer  ImportObserver
}

func NewImporter(w BookWriter, mode string, chunkSize int) *Importer {
	if mode != config.ImportTransaction {
		mode = config.ImportReport
	}
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &Importer{Store: w, Mode: mode, ChunkSize: chunkSize}
}

// ImportFile parses r as the named spreadsheet and imports its rows.
func (im *Importer) ImportFile(ctx context.Context, r io.Reader, filename string) (*Report, error) {
	rows, err := spreadsheet.Parse(r, filename)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFile, err)
	}
	return im.Import(ctx, rows)
}

// Import validates rows and writes the valid ones. In report mode every row that could not be written is listed
// in the report, and the error is only set when the store itself failed; the report still comes back with it.
// In transaction mode any rejected row aborts the whole import.
func (im *Importer) Import(ctx context.Context, rows []spreadsheet.Row) (*Report, error) {
	report := &Report{Mode: im.Mode, TotalRows: len(rows), Failed: []RowFailure{}}
	valid := im.validate(rows, report)

	checked, err := im.flagExisting(ctx, valid, report)
	if err != nil {
		for _, row := range valid {
			notWritten(report, row, err)
		}
		sort.SliceStable(report.Failed, func(i, j int) bool { return report.Failed[i].Row < report.Failed[j].Row })
		return report, err
	}
	valid = checked

	if im.Mode == config.ImportTransaction {
		err = im.importAtomic(ctx, valid, report)
	} else {
		err = im.importChunks(ctx, valid, report)
	}
	sort.SliceStable(report.Failed, func(i, j int) bool { return report.Failed[i].Row < report.Failed[j].Row })

	if im.Observer != nil {
		im.Observer.ObserveImport(report.Inserted, report.TotalRows-report.Inserted)
	}
	log.Info().
		Str("mode", im.Mode).
		Int("total_rows", report.TotalRows).
		Int("inserted", report.Inserted).
		Int("failed", len(report.Failed)).
		Msg("bulk import finished")
	return report, err
}

func (im *Importer) validate(rows []spreadsheet.Row, report *Report) []spreadsheet.Row {
	seen := make(map[string]int, len(rows))
	valid := make([]spreadsheet.Row, 0, len(rows))
	for _, row := range rows {
		if err := row.Book.Validate(); err != nil {
			report.Failed = append(report.Failed, RowFailure{Row: row.Number, ISBN: row.Book.ISBN, Error: err.Error()})
			continue
		}
		if first, dup := seen[row.Book.ISBN]; dup {
			report.Failed = append(report.Failed, RowFailure{
				Row:   row.Number,
				ISBN:  row.Book.ISBN,
				Error: fmt.Sprintf("duplicate ISBN in file (first seen on row %d)", first),
			})
			continue
		}
		seen[row.Book.ISBN] = row.Number
		valid = append(valid, row)
	}
	return valid
}

// flagExisting reports rows whose ISBN is already stored and returns the rest.
func (im *Importer) flagExisting(ctx context.Context, rows []spreadsheet.Row, report *Report) ([]spreadsheet.Row, error) {
	if len(rows) == 0 {
		return rows, nil
	}
	isbns := make([]string, len(rows))
	for i, row := range rows {
		isbns[i] = row.Book.ISBN
	}
	existing, err := im.Store.ExistingISBNs(ctx, isbns)
	if err != nil {
		return nil, fmt.Errorf("check existing isbns: %w", err)
	}
	if len(existing) == 0 {
		return rows, nil
	}
	kept := make([]spreadsheet.Row, 0, len(rows))
	for _, row := range rows {
		if existing[row.Book.ISBN] {
			report.Failed = append(report.Failed, RowFailure{Row: row.Number, ISBN: row.Book.ISBN, Error: store.ErrDuplicateISBN.Error()})
			continue
		}
		kept = append(kept, row)
	}
	return kept, nil
}

// importChunks writes rows chunk by chunk. When the store fails, the rows it did not write are added to the
// report with the cause, so the report always accounts for every row.
func (im *Importer) importChunks(ctx context.Context, rows []spreadsheet.Row, report *Report) error {
	for start := 0; start < len(rows); start += im.ChunkSize {
		end := min(start+im.ChunkSize, len(rows))
		chunk := rows[start:end]
		books := make([]models.Book, len(chunk))
		for i, row := range chunk {
			books[i] = row.Book
		}
		inserted, failures, err := im.Store.InsertBooks(ctx, books)
		report.Inserted += inserted
		rejected := make(map[int]bool, len(failures))
		for _, f := range failures {
			if f.Index < 0 || f.Index >= len(chunk) {
				continue
			}
			rejected[f.Index] = true
			msg := f.Message
			if f.Duplicate {
				msg = store.ErrDuplicateISBN.Error()
			}
			report.Failed = append(report.Failed, RowFailure{Row: chunk[f.Index].Number, ISBN: chunk[f.Index].Book.ISBN, Error: msg})
		}
		if err == nil {
			continue
		}
		err = fmt.Errorf("insert rows %d-%d: %w", chunk[0].Number, chunk[len(chunk)-1].Number, err)
		if inserted == 0 {
			for i, row := range chunk {
				if !rejected[i] {
					notWritten(report, row, err)
				}
			}
		}
		for _, row := range rows[end:] {
			notWritten(report, row, err)
		}
		return err
	}
	return nil
}

func notWritten(report *Report, row spreadsheet.Row, cause error) {
	report.Failed = append(report.Failed, RowFailure{Row: row.Number, ISBN: row.Book.ISBN, Error: "not written: " + cause.Error()})
}

func (im *Importer) importAtomic(ctx context.Context, rows []spreadsheet.Row, report *Report) error {
	if len(report.Failed) > 0 {
		for _, f := range report.Failed {
			if f.Error == store.ErrDuplicateISBN.Error() {
				return fmt.Errorf("%w: %w", ErrImportAborted, store.ErrDuplicateISBN)
			}
		}
		return fmt.Errorf("%w: %w: %d invalid rows", ErrImportAborted, ErrRowsRejected, len(report.Failed))
	}
	books := make([]models.Book, len(rows))
	for i, row := range rows {
		books[i] = row.Book
	}
	if err := im.Store.InsertBooksAtomic(ctx, books, im.ChunkSize); err != nil {
		return fmt.Errorf("%w: %w", ErrImportAborted, err)
	}
	report.Inserted = len(books)
	return nil
}
