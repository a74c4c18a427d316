package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type errorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
	Errors  error  `json:"errors,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("encode response")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Message: message})
}

// writeFailure logs err and answers 500 with message.
func writeFailure(w http.ResponseWriter, r *http.Request, message string, err error) {
	log.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg(message)
	writeError(w, http.StatusInternalServerError, message)
}

// writeValidation answers 400 and lists per-field messages when err came from ozzo-validation.
func writeValidation(w http.ResponseWriter, message string, err error) {
	var fields validation.Errors
	if errors.As(err, &fields) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: message, Errors: fields})
		return
	}
	writeJSON(w, http.StatusBadRequest, errorResponse{Message: message, Error: err.Error()})
}

// notBlank rejects a present string that is empty once trimmed. Absent (nil) values pass.
var notBlank = validation.By(func(v interface{}) error {
	if s, _ := v.(*string); s != nil && strings.TrimSpace(*s) == "" {
		return errors.New("cannot be blank")
	}
	return nil
})

func objectIDParam(r *http.Request, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, name))
	return id, err == nil
}

func decodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	return dec.Decode(v)
}
