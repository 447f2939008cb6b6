package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi"
	"github.com/go-playground/validator/v10"

	"github.com/gamenight/backend/internal/logging"
	"github.com/gamenight/backend/internal/repositories"
	"github.com/gamenight/backend/internal/sessions"
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decodeAndValidate reads a JSON body into dst and checks its validate tags.
// It writes a 400 response and returns false when the body is unusable.
func decodeAndValidate(v *validator.Validate, w http.ResponseWriter, r *http.Request, dst any) bool {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		logger.Warn("invalid request payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return false
	}

	if err := v.Struct(dst); err != nil {
		message := "invalid request body"
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			message = fmt.Sprintf("%s failed %s validation", fieldErrs[0].Field(), fieldErrs[0].Tag())
		}
		logger.Warn("request validation failed", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": message})
		return false
	}
	return true
}

// pathID parses a positive integer URL parameter. It writes a 400 response
// and returns false when the parameter is malformed.
func pathID(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	raw := chi.URLParam(r, name)
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		respondJSON(r.Context(), w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("invalid %s", name)})
		return 0, false
	}
	return id, true
}

// respondError maps err onto a status code. Coordinator errors carry their own
// message; anything unclassified becomes a 500 with the fallback message.
func respondError(ctx context.Context, w http.ResponseWriter, err error, fallback string) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, repositories.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, repositories.ErrInvalidArgument), errors.Is(err, repositories.ErrInvalidTransition):
		status = http.StatusBadRequest
	}

	message := fallback
	var coordErr *sessions.Error
	if errors.As(err, &coordErr) {
		message = coordErr.Message
	} else if status != http.StatusInternalServerError {
		message = err.Error()
	}

	if status == http.StatusInternalServerError {
		logging.FromContext(ctx).Error(fallback, "error", err)
	}
	respondJSON(ctx, w, status, map[string]string{"error": message})
}

func respondJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.FromContext(ctx).Error("encode response body", "status", status, "error", err)
		return
	}

	logger := logging.FromContext(ctx)
	switch {
	case status >= http.StatusInternalServerError:
		logger.Error("request failed", "status", status, "response", payload)
	case status >= http.StatusBadRequest:
		logger.Warn("request returned client error", "status", status, "response", payload)
	}
}

func tooManyRequests(ctx context.Context, w http.ResponseWriter) {
	respondJSON(ctx, w, http.StatusTooManyRequests, map[string]string{"error": "too many requests"})
}
