package handlers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kevinaaaquil/bookstore/backend/middleware"
	"github.com/kevinaaaquil/bookstore/backend/models"
	"github.com/kevinaaaquil/bookstore/backend/service"
	"github.com/kevinaaaquil/bookstore/backend/store"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const testSecret = "handler-secret"

type fakeBooks struct {
	books     []models.Book
	insertErr error
	lastQuery struct {
		filter, sort bson.D
		skip, limit  int64
	}
	lastFacet struct {
		field store.FacetField
		order string
		skip  int64
		limit int64
	}
	facets []models.Facet
	series []string
}

func (f *fakeBooks) InsertBook(_ context.Context, b *models.Book) (primitive.ObjectID, error) {
	if f.insertErr != nil {
		return primitive.NilObjectID, f.insertErr
	}
	for _, existing := range f.books {
		if existing.ISBN == b.ISBN {
			return primitive.NilObjectID, store.ErrDuplicateISBN
		}
	}
	b.ID = primitive.NewObjectID()
	f.books = append(f.books, *b)
	return b.ID, nil
}

func (f *fakeBooks) BookByID(_ context.Context, id primitive.ObjectID) (*models.Book, error) {
	for i := range f.books {
		if f.books[i].ID == id {
			b := f.books[i]
			return &b, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeBooks) FindBooks(_ context.Context, filter, sort bson.D, skip, limit int64) ([]models.Book, int64, error) {
	f.lastQuery.filter, f.lastQuery.sort, f.lastQuery.skip, f.lastQuery.limit = filter, sort, skip, limit
	total := int64(len(f.books))
	page := []models.Book{}
	for i := skip; i < total && i < skip+limit; i++ {
		page = append(page, f.books[i])
	}
	return page, total, nil
}

func (f *fakeBooks) UpdateBook(_ context.Context, id primitive.ObjectID, set bson.M) (*models.Book, error) {
	for i := range f.books {
		if f.books[i].ID != id {
			continue
		}
		if title, ok := set["title"].(string); ok {
			f.books[i].Title = title
		}
		if isbn, ok := set["ISBN"].(string); ok {
			for j := range f.books {
				if j != i && f.books[j].ISBN == isbn {
					return nil, store.ErrDuplicateISBN
				}
			}
			f.books[i].ISBN = isbn
		}
		b := f.books[i]
		return &b, nil
	}
	return nil, store.ErrNotFound
}

func (f *fakeBooks) DeleteBook(_ context.Context, id primitive.ObjectID) (*models.Book, error) {
	for i := range f.books {
		if f.books[i].ID == id {
			b := f.books[i]
			f.books = append(f.books[:i], f.books[i+1:]...)
			return &b, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeBooks) Facets(_ context.Context, field store.FacetField, order string, skip, limit int64) ([]models.Facet, int64, error) {
	f.lastFacet.field, f.lastFacet.order, f.lastFacet.skip, f.lastFacet.limit = field, order, skip, limit
	return f.facets, int64(len(f.facets)), nil
}

func (f *fakeBooks) PopularSeries(context.Context) ([]string, error) {
	return f.series, nil
}

func seedBooks(n int) *fakeBooks {
	f := &fakeBooks{}
	for i := 0; i < n; i++ {
		f.books = append(f.books, models.Book{
			ID:     primitive.NewObjectID(),
			ISBN:   fmt.Sprintf("978%010d", i),
			Title:  fmt.Sprintf("Book %02d", i),
			Status: models.StatusActive,
		})
	}
	return f
}

type fakeBanners struct {
	banners []models.Banner
}

func (f *fakeBanners) InsertBanner(_ context.Context, b *models.Banner) error {
	b.ID = primitive.NewObjectID()
	f.banners = append(f.banners, *b)
	return nil
}

func (f *fakeBanners) BannersByPage(_ context.Context, page string) ([]models.Banner, error) {
	out := []models.Banner{}
	for _, b := range f.banners {
		if b.Page == page {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeBanners) BannerByID(_ context.Context, id primitive.ObjectID) (*models.Banner, error) {
	for i := range f.banners {
		if f.banners[i].ID == id {
			b := f.banners[i]
			return &b, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeBanners) UpdateBanner(_ context.Context, id primitive.ObjectID, set bson.M) (*models.Banner, error) {
	for i := range f.banners {
		if f.banners[i].ID != id {
			continue
		}
		if v, ok := set["name"].(string); ok {
			f.banners[i].Name = v
		}
		if v, ok := set["bannerUrl"].(string); ok {
			f.banners[i].BannerURL = v
		}
		if v, ok := set["status"].(string); ok {
			f.banners[i].Status = v
		}
		b := f.banners[i]
		return &b, nil
	}
	return nil, store.ErrNotFound
}

func (f *fakeBanners) DeleteBanner(_ context.Context, id primitive.ObjectID) (*models.Banner, error) {
	for i := range f.banners {
		if f.banners[i].ID == id {
			b := f.banners[i]
			f.banners = append(f.banners[:i], f.banners[i+1:]...)
			return &b, nil
		}
	}
	return nil, store.ErrNotFound
}

type fakeFiles struct {
	uploads []string
	removed []string
	folder  string
	err     error
}

func (f *fakeFiles) Upload(_ context.Context, folder, filename string, body io.Reader, _ int64, _ string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if _, err := io.ReadAll(body); err != nil {
		return "", err
	}
	f.folder = folder
	url := "https://cdn.test/" + folder + "/" + filename
	f.uploads = append(f.uploads, url)
	return url, nil
}

func (f *fakeFiles) Remove(_ context.Context, url string) error {
	f.removed = append(f.removed, url)
	return nil
}

type fakeUsers struct {
	users   []models.AdminUser
	created int
}

func (f *fakeUsers) AdminsCount(context.Context) (int64, error) {
	var n int64
	for _, u := range f.users {
		if u.Role == models.RoleAdmin {
			n++
		}
	}
	return n, nil
}

func (f *fakeUsers) UserByUsername(_ context.Context, username string) (*models.AdminUser, error) {
	for i := range f.users {
		if f.users[i].Username == username {
			u := f.users[i]
			return &u, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeUsers) CreateUser(_ context.Context, u *models.AdminUser) (primitive.ObjectID, error) {
	u.ID = primitive.NewObjectID()
	f.users = append(f.users, *u)
	f.created++
	return u.ID, nil
}

type fakeImporter struct {
	report *service.Report
	err    error
	name   string
}

func (f *fakeImporter) ImportFile(_ context.Context, r io.Reader, filename string) (*service.Report, error) {
	f.name = filename
	if _, err := io.ReadAll(r); err != nil {
		return nil, err
	}
	return f.report, f.err
}

type fakeStats struct {
	stats *models.AdminStats
	err   error
}

func (f *fakeStats) AdminStats(context.Context) (*models.AdminStats, error) {
	return f.stats, f.err
}

type testServer struct {
	books    *fakeBooks
	banners  *fakeBanners
	files    *fakeFiles
	users    *fakeUsers
	importer *fakeImporter
	stats    *fakeStats
	handler  http.Handler
}

func newTestServer(books *fakeBooks) *testServer {
	if books == nil {
		books = &fakeBooks{}
	}
	ts := &testServer{
		books:    books,
		banners:  &fakeBanners{},
		files:    &fakeFiles{},
		users:    &fakeUsers{},
		importer: &fakeImporter{},
		stats:    &fakeStats{},
	}
	srv := &Server{
		Books:   &BooksHandler{Store: ts.books},
		Import:  &ImportHandler{Importer: ts.importer},
		Auth:    &AuthHandler{Users: ts.users, JWTSecret: testSecret},
		Admin:   &AdminHandler{Source: ts.stats},
		Banners: &BannersHandler{Store: ts.banners, Files: ts.files},
		Upload:  &UploadHandler{Files: ts.files},
		Metrics: middleware.NewMetrics(),

		JWTSecret:   testSecret,
		CORSOrigins: []string{"http://localhost:3000"},
	}
	ts.handler = srv.Routes()
	return ts
}

func adminToken(t *testing.T) string {
	t.Helper()
	tok, err := middleware.IssueToken(testSecret, &models.AdminUser{
		ID: primitive.NewObjectID(), Username: "admin", Role: models.RoleAdmin,
	}, time.Now())
	require.NoError(t, err)
	return "Bearer " + tok
}

func (ts *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}
