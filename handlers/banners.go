package handlers

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/kevinaaaquil/bookstore/backend/models"
	"github.com/kevinaaaquil/bookstore/backend/service"
	"github.com/kevinaaaquil/bookstore/backend/store"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cast"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const bannerField = "banner"

type BannerStore interface {
	InsertBanner(ctx context.Context, banner *models.Banner) error
	BannersByPage(ctx context.Context, page string) ([]models.Banner, error)
	BannerByID(ctx context.Context, id primitive.ObjectID) (*models.Banner, error)
	UpdateBanner(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.Banner, error)
	DeleteBanner(ctx context.Context, id primitive.ObjectID) (*models.Banner, error)
}

// FileStore puts uploaded files in object storage. *service.Uploader implements it.
type FileStore interface {
	Upload(ctx context.Context, folder, filename string, body io.Reader, size int64, contentType string) (string, error)
	Remove(ctx context.Context, url string) error
}

type BannersHandler struct {
	Store    BannerStore
	Files    FileStore
	MaxBytes int64
}

// BannerRequest carries banner fields from a JSON body or multipart form values. Nil means absent.
type BannerRequest struct {
	Name       *string `json:"name"`
	Page       *string `json:"page"`
	Link       *string `json:"link"`
	BannerURL  *string `json:"bannerUrl"`
	Status     *string `json:"status"`
	IsVerified *bool   `json:"isVerified"`
}

func (req BannerRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.Name, notBlank),
		validation.Field(&req.Page, notBlank, validation.In(models.PageHome, models.PageProduct)),
		validation.Field(&req.Status, validation.NilOrNotEmpty, validation.In(models.BannerActive, models.BannerBanned)),
	)
}

func (req BannerRequest) validateCreate() error {
	if err := req.Validate(); err != nil {
		return err
	}
	return validation.ValidateStruct(&req,
		validation.Field(&req.Name, validation.Required),
		validation.Field(&req.Page, validation.Required),
	)
}

// trim strips surrounding spaces from every present field, matching how form values are read.
func (req *BannerRequest) trim() {
	for _, p := range []*string{req.Name, req.Page, req.Link, req.BannerURL, req.Status} {
		if p != nil {
			*p = strings.TrimSpace(*p)
		}
	}
}

type bannerResponse struct {
	Message string         `json:"message"`
	Banner  *models.Banner `json:"banner,omitempty"`
}

type uploadedFile struct {
	file   multipart.File
	header *multipart.FileHeader
}

func (f *uploadedFile) Close() {
	if f != nil {
		f.file.Close()
	}
}

// readBannerRequest accepts JSON or multipart. In multipart mode the optional "banner" file part is returned.
func (h *BannersHandler) readBannerRequest(w http.ResponseWriter, r *http.Request) (BannerRequest, *uploadedFile, error) {
	var req BannerRequest
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if r.ContentLength == 0 {
			return req, nil, nil
		}
		if err := decodeJSON(r, &req); err != nil {
			return req, nil, err
		}
		req.trim()
		return req, nil, nil
	}
	if h.MaxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.MaxBytes)
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		return req, nil, err
	}
	str := func(key string) *string {
		if vs, ok := r.MultipartForm.Value[key]; ok && len(vs) > 0 {
			v := strings.TrimSpace(vs[0])
			return &v
		}
		return nil
	}
	req.Name = str("name")
	req.Page = str("page")
	req.Link = str("link")
	req.BannerURL = str("bannerUrl")
	req.Status = str("status")
	if v := str("isVerified"); v != nil {
		b, err := cast.ToBoolE(*v)
		if err != nil {
			return req, nil, errors.New("isVerified must be a boolean")
		}
		req.IsVerified = &b
	}

	file, header, err := r.FormFile(bannerField)
	if errors.Is(err, http.ErrMissingFile) {
		return req, nil, nil
	}
	if err != nil {
		return req, nil, err
	}
	return req, &uploadedFile{file: file, header: header}, nil
}

func (h *BannersHandler) upload(r *http.Request, f *uploadedFile) (string, error) {
	if h.Files == nil {
		return "", service.ErrStorageDisabled
	}
	return h.Files.Upload(r.Context(), bannerFolder(r), f.header.Filename, f.file, f.header.Size, f.header.Header.Get("Content-Type"))
}

// bannerFolder stores banner images under their page name so each page's images stay together.
func bannerFolder(r *http.Request) string {
	if r.MultipartForm != nil {
		if vs := r.MultipartForm.Value["page"]; len(vs) > 0 && strings.TrimSpace(vs[0]) != "" {
			return vs[0]
		}
	}
	return service.DefaultFolder
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (h *BannersHandler) writeUploadError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, service.ErrStorageDisabled) {
		writeError(w, http.StatusServiceUnavailable, "File storage is not configured")
		return
	}
	writeFailure(w, r, "Failed to upload banner", err)
}

// Create serves both POST /api/banners/upload and POST /api/banners/create. An uploaded file wins over the link.
func (h *BannersHandler) Create(w http.ResponseWriter, r *http.Request) {
	req, file, err := h.readBannerRequest(w, r)
	defer file.Close()
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid banner data")
		return
	}
	if file == nil && deref(req.Link) == "" && deref(req.BannerURL) == "" {
		writeError(w, http.StatusBadRequest, "Either upload a file or provide a banner link")
		return
	}
	if err := req.validateCreate(); err != nil {
		writeValidation(w, "Invalid banner data", err)
		return
	}

	banner := &models.Banner{
		Name:   *req.Name,
		Page:   *req.Page,
		Status: models.BannerActive,
	}
	if req.Link != nil {
		banner.Link = *req.Link
	}
	if req.Status != nil {
		banner.Status = *req.Status
	}
	if req.IsVerified != nil {
		banner.IsVerified = *req.IsVerified
	}

	switch {
	case file != nil:
		url, err := h.upload(r, file)
		if err != nil {
			h.writeUploadError(w, r, err)
			return
		}
		banner.BannerURL = url
	case deref(req.BannerURL) != "":
		banner.BannerURL = *req.BannerURL
	default:
		banner.BannerURL = banner.Link
	}

	if err := h.Store.InsertBanner(r.Context(), banner); err != nil {
		writeFailure(w, r, "Failed to create banner", err)
		return
	}
	writeJSON(w, http.StatusCreated, bannerResponse{Message: "Banner created successfully", Banner: banner})
}

func (h *BannersHandler) ListByPage(w http.ResponseWriter, r *http.Request) {
	page := chi.URLParam(r, "page")
	if err := validation.Validate(page, validation.In(models.PageHome, models.PageProduct)); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid banner page")
		return
	}
	banners, err := h.Store.BannersByPage(r.Context(), page)
	if err != nil {
		writeFailure(w, r, "Failed to fetch banners", err)
		return
	}
	writeJSON(w, http.StatusOK, banners)
}

// Edit applies a partial update. A new "banner" file replaces the stored image, which is then removed from the
// bucket.
func (h *BannersHandler) Edit(w http.ResponseWriter, r *http.Request) {
	id, ok := objectIDParam(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid banner id")
		return
	}
	req, file, err := h.readBannerRequest(w, r)
	defer file.Close()
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid banner data")
		return
	}
	if err := req.Validate(); err != nil {
		writeValidation(w, "Invalid banner data", err)
		return
	}

	current, err := h.Store.BannerByID(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Banner not found")
		return
	}
	if err != nil {
		writeFailure(w, r, "Failed to update banner", err)
		return
	}

	set := bson.M{}
	for key, v := range map[string]*string{
		"name":      req.Name,
		"page":      req.Page,
		"link":      req.Link,
		"bannerUrl": req.BannerURL,
		"status":    req.Status,
	} {
		if v != nil {
			set[key] = *v
		}
	}
	if req.IsVerified != nil {
		set["isVerified"] = *req.IsVerified
	}
	if file != nil {
		url, err := h.upload(r, file)
		if err != nil {
			h.writeUploadError(w, r, err)
			return
		}
		set["bannerUrl"] = url
	}

	updated, err := h.Store.UpdateBanner(r.Context(), id, set)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Banner not found")
		return
	}
	if err != nil {
		writeFailure(w, r, "Failed to update banner", err)
		return
	}
	if current.BannerURL != "" && current.BannerURL != updated.BannerURL {
		h.removeObject(r, current.BannerURL)
	}
	writeJSON(w, http.StatusOK, bannerResponse{Message: "Banner updated successfully", Banner: updated})
}

func (h *BannersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := objectIDParam(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid banner id")
		return
	}
	deleted, err := h.Store.DeleteBanner(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Banner not found")
		return
	}
	if err != nil {
		writeFailure(w, r, "Failed to delete banner", err)
		return
	}
	h.removeObject(r, deleted.BannerURL)
	writeJSON(w, http.StatusOK, bannerResponse{Message: "Banner deleted successfully"})
}

// removeObject deletes a replaced image. Failures are logged only; the banner change has already been stored.
func (h *BannersHandler) removeObject(r *http.Request, url string) {
	if h.Files == nil {
		return
	}
	if err := h.Files.Remove(r.Context(), url); err != nil {
		log.Warn().Err(err).Str("url", url).Msg("remove banner object")
	}
}
