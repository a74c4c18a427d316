package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/kevinaaaquil/bookstore/backend/middleware"
	"github.com/kevinaaaquil/bookstore/backend/models"
	"github.com/kevinaaaquil/bookstore/backend/store"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

type UserStore interface {
	AdminsCount(ctx context.Context) (int64, error)
	UserByUsername(ctx context.Context, username string) (*models.AdminUser, error)
	CreateUser(ctx context.Context, user *models.AdminUser) (primitive.ObjectID, error)
}

type AuthHandler struct {
	Users     UserStore
	JWTSecret string
	// Bootstrap admin from config; created on first login when no admin exists yet.
	DefaultUsername string
	DefaultPassword string
	Now             func() time.Time
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (req LoginRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.Username, validation.Required),
		validation.Field(&req.Password, validation.Required),
	)
}

type loginUser struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}

type LoginResponse struct {
	Message string    `json:"message"`
	Token   string    `json:"token"`
	User    loginUser `json:"user"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if err := req.Validate(); err != nil {
		writeValidation(w, "Username and password are required", err)
		return
	}

	if err := h.ensureDefaultAdmin(r.Context()); err != nil {
		writeFailure(w, r, "Failed to login as admin", err)
		return
	}

	user, err := h.Users.UserByUsername(r.Context(), req.Username)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Admin not found!")
		return
	}
	if err != nil {
		writeFailure(w, r, "Failed to login as admin", err)
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		writeError(w, http.StatusUnauthorized, "Invalid password!")
		return
	}

	token, err := middleware.IssueToken(h.JWTSecret, user, h.now())
	if err != nil {
		writeFailure(w, r, "Failed to login as admin", err)
		return
	}
	writeJSON(w, http.StatusOK, LoginResponse{
		Message: "Authentication successful",
		Token:   token,
		User:    loginUser{Username: user.Username, Role: user.Role},
	})
}

// ensureDefaultAdmin seeds the configured admin when the users collection has no admin at all.
func (h *AuthHandler) ensureDefaultAdmin(ctx context.Context) error {
	if h.DefaultUsername == "" || h.DefaultPassword == "" {
		return nil
	}
	n, err := h.Users.AdminsCount(ctx)
	if err != nil || n > 0 {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(h.DefaultPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	admin := &models.AdminUser{
		Username:  h.DefaultUsername,
		Password:  string(hash),
		Role:      models.RoleAdmin,
		CreatedAt: h.now().UTC(),
	}
	if _, err := h.Users.CreateUser(ctx, admin); err != nil {
		return err
	}
	log.Info().Str("username", admin.Username).Msg("created bootstrap admin")
	return nil
}

func (h *AuthHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}
