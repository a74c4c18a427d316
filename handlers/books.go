package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/kevinaaaquil/bookstore/backend/models"
	"github.com/kevinaaaquil/bookstore/backend/query"
	"github.com/kevinaaaquil/bookstore/backend/store"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Default page sizes per listing endpoint.
const (
	bulkLimit        = 60
	facetLimit       = 10
	newReleasesLimit = 20
	categoryLimit    = 20
)

// BookStore is the catalog access the book handlers need.
type BookStore interface {
	InsertBook(ctx context.Context, book *models.Book) (primitive.ObjectID, error)
	BookByID(ctx context.Context, id primitive.ObjectID) (*models.Book, error)
	FindBooks(ctx context.Context, filter, sort bson.D, skip, limit int64) ([]models.Book, int64, error)
	UpdateBook(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.Book, error)
	DeleteBook(ctx context.Context, id primitive.ObjectID) (*models.Book, error)
	Facets(ctx context.Context, field store.FacetField, order string, skip, limit int64) ([]models.Facet, int64, error)
	PopularSeries(ctx context.Context) ([]string, error)
}

type BooksHandler struct {
	Store BookStore
}

type bookResponse struct {
	Message string       `json:"message"`
	Book    *models.Book `json:"book"`
}

type bulkListResponse struct {
	Books       []models.Book `json:"books"`
	TotalBooks  int64         `json:"totalBooks"`
	TotalPages  int64         `json:"totalPages"`
	CurrentPage int           `json:"currentPage"`
}

type browseResponse struct {
	Total int64         `json:"total"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
	Books []models.Book `json:"books"`
}

type seriesResponse struct {
	Total  int      `json:"total"`
	Series []string `json:"series"`
}

func (h *BooksHandler) Create(w http.ResponseWriter, r *http.Request) {
	var book models.Book
	if err := decodeJSON(r, &book); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid book data")
		return
	}
	book.ID = primitive.NilObjectID
	book.Normalize()
	if err := book.Validate(); err != nil {
		writeValidation(w, "Invalid book data", err)
		return
	}
	if _, err := h.Store.InsertBook(r.Context(), &book); err != nil {
		if errors.Is(err, store.ErrDuplicateISBN) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		writeFailure(w, r, "Failed to create book", err)
		return
	}
	writeJSON(w, http.StatusCreated, bookResponse{Message: "Book posted successfully", Book: &book})
}

func (h *BooksHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := objectIDParam(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid book id")
		return
	}
	book, err := h.Store.BookByID(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Book not Found!")
		return
	}
	if err != nil {
		writeFailure(w, r, "Failed to fetch book", err)
		return
	}
	writeJSON(w, http.StatusOK, book)
}

// BookUpdate is a partial update: nil fields are left untouched.
type BookUpdate struct {
	ISBN            *string    `json:"ISBN"`
	Format          *string    `json:"format"`
	Title           *string    `json:"title"`
	Authors         []string   `json:"authors"`
	Categories      []string   `json:"categories"`
	Publisher       *string    `json:"publisher"`
	Language        *string    `json:"language"`
	Pages           *int       `json:"pages"`
	ISBN10ASINSKU   *string    `json:"ISBN10_ASIN_SKU"`
	ReleaseDate     *time.Time `json:"releaseDate"`
	Weight          *string    `json:"weight"`
	Dimensions      *string    `json:"dimensions"`
	Reviews         *int       `json:"reviews"`
	SeriesName      *string    `json:"seriesName"`
	CurrencyName    *string    `json:"currencyName"`
	Price           *float64   `json:"price"`
	SellingPrice    *float64   `json:"sellingPrice"`
	AboutTheBook    *string    `json:"aboutTheBook"`
	AboutTheAuthor  *string    `json:"aboutTheAuthor"`
	SampleChapters  *string    `json:"sampleChapters"`
	RelatedKeywords []string   `json:"relatedKeywords"`
	RelatedSearches []string   `json:"relatedSearches"`
	ImageLinks      []string   `json:"imageLinks"`
	Status          *string    `json:"status"`
}

func (u BookUpdate) Validate() error {
	return validation.ValidateStruct(&u,
		validation.Field(&u.ISBN, notBlank),
		validation.Field(&u.Title, notBlank),
		validation.Field(&u.Status, validation.NilOrNotEmpty, validation.By(func(v interface{}) error {
			if s, _ := v.(*string); s != nil {
				if _, ok := models.ParseBookStatus(*s); !ok {
					return errors.New("must be Active or Inactive")
				}
			}
			return nil
		})),
		validation.Field(&u.Pages, validation.Min(0)),
		validation.Field(&u.Reviews, validation.Min(0)),
		validation.Field(&u.Price, validation.Min(0.0)),
		validation.Field(&u.SellingPrice, validation.Min(0.0)),
	)
}

// Set returns the $set document for the present fields. List fields are cleaned the same way imports are.
func (u BookUpdate) Set() bson.M {
	set := bson.M{}
	str := func(key string, v *string) {
		if v != nil {
			set[key] = strings.TrimSpace(*v)
		}
	}
	list := func(key string, v []string) {
		if v != nil {
			set[key] = models.CleanList(v)
		}
	}
	str("ISBN", u.ISBN)
	str("format", u.Format)
	str("title", u.Title)
	str("publisher", u.Publisher)
	str("language", u.Language)
	str("ISBN10_ASIN_SKU", u.ISBN10ASINSKU)
	str("weight", u.Weight)
	str("dimensions", u.Dimensions)
	str("seriesName", u.SeriesName)
	str("currencyName", u.CurrencyName)
	str("aboutTheBook", u.AboutTheBook)
	str("aboutTheAuthor", u.AboutTheAuthor)
	str("sampleChapters", u.SampleChapters)
	list("authors", u.Authors)
	list("categories", u.Categories)
	list("relatedKeywords", u.RelatedKeywords)
	list("relatedSearches", u.RelatedSearches)
	list("imageLinks", u.ImageLinks)
	if u.Pages != nil {
		set["pages"] = *u.Pages
	}
	if u.Reviews != nil {
		set["reviews"] = *u.Reviews
	}
	if u.Price != nil {
		set["price"] = *u.Price
	}
	if u.SellingPrice != nil {
		set["sellingPrice"] = *u.SellingPrice
	}
	if u.ReleaseDate != nil {
		set["releaseDate"] = u.ReleaseDate.UTC()
	}
	if u.Status != nil {
		status, _ := models.ParseBookStatus(*u.Status)
		set["status"] = status
	}
	return set
}

func (h *BooksHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := objectIDParam(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid book id")
		return
	}
	var req BookUpdate
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid book data")
		return
	}
	if err := req.Validate(); err != nil {
		writeValidation(w, "Invalid book data", err)
		return
	}
	book, err := h.Store.UpdateBook(r.Context(), id, req.Set())
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "Book is not Found!")
		return
	case errors.Is(err, store.ErrDuplicateISBN):
		writeError(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		writeFailure(w, r, "Failed to update a book", err)
		return
	}
	writeJSON(w, http.StatusOK, bookResponse{Message: "Book updated successfully", Book: book})
}

func (h *BooksHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := objectIDParam(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid book id")
		return
	}
	book, err := h.Store.DeleteBook(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Book is not Found!")
		return
	}
	if err != nil {
		writeFailure(w, r, "Failed to delete a book", err)
		return
	}
	writeJSON(w, http.StatusOK, bookResponse{Message: "Book deleted successfully", Book: book})
}

// ListBulk serves the admin catalog listing: every status, newest first unless sort says otherwise.
func (h *BooksHandler) ListBulk(w http.ResponseWriter, r *http.Request) {
	p := query.FromValues(r.URL.Query(), "sort", bulkLimit)
	books, total, err := h.find(r, p, query.ByCreatedDesc)
	if err != nil {
		writeFailure(w, r, "Failed to fetch books", err)
		return
	}
	writeJSON(w, http.StatusOK, bulkListResponse{
		Books:       books,
		TotalBooks:  total,
		TotalPages:  query.TotalPages(total, p.Limit),
		CurrentPage: p.Page,
	})
}

func (h *BooksHandler) NewReleases(w http.ResponseWriter, r *http.Request) {
	p := query.FromValues(r.URL.Query(), "sortBy", newReleasesLimit)
	p.Search, p.Category = "", ""
	h.browse(w, r, p)
}

func (h *BooksHandler) Category(w http.ResponseWriter, r *http.Request) {
	p := query.FromValues(r.URL.Query(), "sortBy", categoryLimit)
	h.browse(w, r, p)
}

func (h *BooksHandler) browse(w http.ResponseWriter, r *http.Request, p query.Params) {
	p.ActiveOnly = true
	books, total, err := h.find(r, p, query.ByReleaseDesc)
	if err != nil {
		writeFailure(w, r, "Failed to fetch books", err)
		return
	}
	writeJSON(w, http.StatusOK, browseResponse{Total: total, Page: p.Page, Limit: p.Limit, Books: books})
}

func (h *BooksHandler) find(r *http.Request, p query.Params, def query.Sort) ([]models.Book, int64, error) {
	sort := query.ResolveSort(p.Sort, def)
	return h.Store.FindBooks(r.Context(), p.Filter(), sort.SortDoc(), p.Skip(), int64(p.Limit))
}

func (h *BooksHandler) Authors(w http.ResponseWriter, r *http.Request) {
	h.facets(w, r, store.FacetAuthors, "totalAuthors", "Failed to fetch authors")
}

func (h *BooksHandler) Publishers(w http.ResponseWriter, r *http.Request) {
	h.facets(w, r, store.FacetPublisher, "totalPublishers", "Failed to fetch publishers")
}

func (h *BooksHandler) facets(w http.ResponseWriter, r *http.Request, field store.FacetField, totalKey, failure string) {
	v := r.URL.Query()
	page := query.PositiveInt(v.Get("page"), 1)
	limit := query.ClampLimit(query.PositiveInt(v.Get("limit"), facetLimit))
	order := store.FacetMostPopular
	if v.Get("sort") == store.FacetNameAZ {
		order = store.FacetNameAZ
	}
	data, total, err := h.Store.Facets(r.Context(), field, order, int64(page-1)*int64(limit), int64(limit))
	if err != nil {
		writeFailure(w, r, failure, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"data":        data,
		totalKey:      total,
		"totalPages":  query.TotalPages(total, limit),
		"currentPage": page,
	})
}

func (h *BooksHandler) PopularSeries(w http.ResponseWriter, r *http.Request) {
	series, err := h.Store.PopularSeries(r.Context())
	if err != nil {
		writeFailure(w, r, "Failed to fetch series", err)
		return
	}
	writeJSON(w, http.StatusOK, seriesResponse{Total: len(series), Series: series})
}
