// Package spreadsheet turns catalog upload files into normalized book records.
package spreadsheet

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/kevinaaaquil/bookstore/backend/models"
	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
	"github.com/xuri/excelize/v2"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrEmptySheet        = errors.New("file has no data rows")
)

// Column headers of the catalog template.
const (
	ColISBN            = "ISBN"
	ColFormat          = "Format"
	ColTitle           = "Title"
	ColAuthor1         = "Author 1"
	ColAuthor2         = "Author 2"
	ColAuthor3         = "Author 3"
	ColCategory1       = "Category 1"
	ColCategory2       = "Category 2"
	ColCategory3       = "Category 3"
	ColCategory4       = "Category 4"
	ColCategory5       = "Category 5"
	ColPublisher       = "Publisher"
	ColLanguage        = "Language"
	ColPages           = "Pages"
	ColISBN10ASINSKU   = "ISBN 10/ASIN/SKU"
	ColReleaseDate     = "Release Date"
	ColWeight          = "Weight"
	ColDimensions      = "Dimensions"
	ColReviews         = "Reviews"
	ColSeriesName      = "Series Name"
	ColCurrencyName    = "Currency Name"
	ColPrice           = "Price (MRP)"
	ColSellingPrice    = "Selling Price"
	ColAboutTheBook    = "About the Book"
	ColAboutTheAuthor  = "About the Author"
	ColSampleChapters  = "Sample Chapters"
	ColRelatedKeywords = "Related Keywords"
	ColRelatedSearches = "Related Searches"
	ColImageLinks      = "Image Links"
	ColStatus          = "Status"
)

// Headers lists every recognised column in template order.
var Headers = []string{
	ColISBN, ColFormat, ColTitle, ColAuthor1, ColAuthor2, ColAuthor3,
	ColCategory1, ColCategory2, ColCategory3, ColCategory4, ColCategory5,
	ColPublisher, ColLanguage, ColPages, ColISBN10ASINSKU, ColReleaseDate, ColWeight, ColDimensions,
	ColReviews, ColSeriesName, ColCurrencyName, ColPrice, ColSellingPrice,
	ColAboutTheBook, ColAboutTheAuthor, ColSampleChapters,
	ColRelatedKeywords, ColRelatedSearches, ColImageLinks, ColStatus,
}

// Row is one normalized record and the 1-based sheet row it came from.
type Row struct {
	Number int
	Book   models.Book
}

// Parse reads an .xlsx or .csv upload. filename only selects the reader.
func Parse(r io.Reader, filename string) ([]Row, error) {
	var (
		records [][]string
		err     error
	)
	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".xlsx", ".xlsm", ".xltx":
		records, err = readWorkbook(r)
	case ".csv":
		records, err = readCSV(r)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, err
	}
	return FromRecords(records)
}

func readWorkbook(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptySheet
	}
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}

func readCSV(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(records) > 0 && len(records[0]) > 0 {
		records[0][0] = strings.TrimPrefix(records[0][0], "\ufeff")
	}
	return records, nil
}

// FromRecords maps a header row plus data rows onto books. Blank rows are skipped.
func FromRecords(records [][]string) ([]Row, error) {
	if len(records) < 2 {
		return nil, ErrEmptySheet
	}
	cols := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		key := strings.ToLower(strings.TrimSpace(name))
		if _, dup := cols[key]; !dup && key != "" {
			cols[key] = i
		}
	}

	rows := make([]Row, 0, len(records)-1)
	for i, record := range records[1:] {
		if blank(record) {
			continue
		}
		get := func(name string) string {
			if idx, ok := cols[strings.ToLower(name)]; ok && idx < len(record) {
				return strings.TrimSpace(record[idx])
			}
			return ""
		}
		rows = append(rows, Row{Number: i + 2, Book: toBook(get)})
	}
	return rows, nil
}

func toBook(get func(string) string) models.Book {
	b := models.Book{
		ISBN:            get(ColISBN),
		Format:          get(ColFormat),
		Title:           get(ColTitle),
		Authors:         []string{get(ColAuthor1), get(ColAuthor2), get(ColAuthor3)},
		Categories:      []string{get(ColCategory1), get(ColCategory2), get(ColCategory3), get(ColCategory4), get(ColCategory5)},
		Publisher:       get(ColPublisher),
		Language:        get(ColLanguage),
		Pages:           ParseInt(get(ColPages)),
		ISBN10ASINSKU:   get(ColISBN10ASINSKU),
		ReleaseDate:     ParseDate(get(ColReleaseDate)),
		Weight:          get(ColWeight),
		Dimensions:      get(ColDimensions),
		Reviews:         ParseInt(get(ColReviews)),
		SeriesName:      get(ColSeriesName),
		CurrencyName:    get(ColCurrencyName),
		Price:           ParsePrice(get(ColPrice)),
		SellingPrice:    ParsePrice(get(ColSellingPrice)),
		AboutTheBook:    get(ColAboutTheBook),
		AboutTheAuthor:  get(ColAboutTheAuthor),
		SampleChapters:  get(ColSampleChapters),
		RelatedKeywords: models.SplitList(get(ColRelatedKeywords)),
		RelatedSearches: models.SplitList(get(ColRelatedSearches)),
		ImageLinks:      models.SplitList(get(ColImageLinks)),
		Status:          get(ColStatus),
	}
	b.Normalize()
	return b
}

func blank(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// ParseInt reads a whole number, dropping any fraction. Anything unreadable, infinite or out of range is 0.
func ParseInt(s string) int {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0
	}
	f, err := cast.ToFloat64E(s)
	if err != nil || math.IsNaN(f) || f >= math.MaxInt64 || f <= math.MinInt64 {
		return 0
	}
	return int(f)
}

// ParsePrice reads a money amount rounded to cents. Thousands separators are accepted; anything unreadable
// ("N/A", "-") is 0.
func ParsePrice(s string) float64 {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0
	}
	return d.Round(2).InexactFloat64()
}

var yearOnly = regexp.MustCompile(`^\d{4}$`)

// maxExcelSerial is 9999-12-31, the last date a workbook can hold.
const maxExcelSerial = 2958465

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"02-Jan-2006",
	"2 Jan 2006",
	"02 Jan 2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 January 2006",
	"January 2006",
}

// ParseDate accepts an Excel serial date, a bare year or one of the common textual layouts.
// It returns nil when the value is blank or unreadable.
func ParseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if yearOnly.MatchString(s) {
		year, _ := strconv.Atoi(s)
		t := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
		return &t
	}
	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		if math.IsNaN(serial) || serial <= 0 || serial > maxExcelSerial {
			return nil
		}
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return nil
		}
		t = t.UTC()
		return &t
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}
