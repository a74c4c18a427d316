package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/kevinaaaquil/bookstore/backend/middleware"
)

// Server groups the handlers behind the HTTP API.
type Server struct {
	Books   *BooksHandler
	Import  *ImportHandler
	Auth    *AuthHandler
	Admin   *AdminHandler
	Banners *BannersHandler
	Upload  *UploadHandler
	Metrics *middleware.Metrics

	JWTSecret   string
	CORSOrigins []string
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimw.Recoverer)
	r.Use(s.Metrics.Instrument)
	r.Use(middleware.CORS(s.CORSOrigins))

	admin := middleware.Admin(s.JWTSecret)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"message": "Book Store Server is running!"})
	})
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if s.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.Metrics.Handler())
	}

	r.With(admin).Post("/upload", s.Upload.Upload)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/admin", s.Auth.Login)

		r.Route("/books", func(r chi.Router) {
			r.Get("/bulk", s.Books.ListBulk)
			r.Get("/authors", s.Books.Authors)
			r.Get("/publishers", s.Books.Publishers)
			r.Get("/new-releases", s.Books.NewReleases)
			r.Get("/category", s.Books.Category)
			r.Get("/popular/series", s.Books.PopularSeries)
			r.Get("/{id}", s.Books.Get)

			r.Group(func(r chi.Router) {
				r.Use(admin)
				r.Post("/create-book", s.Books.Create)
				r.Post("/bulk-import", s.Import.BulkImport)
				r.Put("/edit/{id}", s.Books.Update)
				r.Delete("/{id}", s.Books.Delete)
			})
		})

		r.With(admin).Get("/admin", s.Admin.Stats)

		r.Route("/banners", func(r chi.Router) {
			r.Get("/{page}", s.Banners.ListByPage)

			r.Group(func(r chi.Router) {
				r.Use(admin)
				r.Post("/upload", s.Banners.Create)
				r.Post("/create", s.Banners.Create)
				r.Patch("/edit/{id}", s.Banners.Edit)
				r.Delete("/delete/{id}", s.Banners.Delete)
			})
		})
	})
	return r
}
