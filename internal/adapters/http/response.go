package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/SAMZalaf/bmomtm/internal/domain"
	"github.com/SAMZalaf/bmomtm/internal/observability"
	"github.com/SAMZalaf/bmomtm/internal/ui"
	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const maxBodyBytes = 16 << 20

const (
	codeValidation   = "VALIDATION_ERROR"
	codeUnauthorized = "UNAUTHORIZED"
	codeNotFound     = "NOT_FOUND"
	codeConflict     = "CONFLICT"
	codeIntegrity    = "INTEGRITY_ERROR"
	codeInternal     = "INTERNAL_ERROR"
)

var statusForCode = map[string]int{
	codeValidation:   http.StatusBadRequest,
	codeUnauthorized: http.StatusUnauthorized,
	codeNotFound:     http.StatusNotFound,
	codeConflict:     http.StatusConflict,
	codeIntegrity:    http.StatusUnprocessableEntity,
	codeInternal:     http.StatusInternalServerError,
}

type errorBody struct {
	Error   string              `json:"error"`
	Code    string              `json:"code"`
	Details []domain.FieldError `json:"details,omitempty"`
}

func errorCode(err error) string {
	switch {
	case domain.IsValidation(err):
		return codeValidation
	case errors.Is(err, domain.ErrUnauthorized):
		return codeUnauthorized
	case errors.Is(err, domain.ErrNotFound):
		return codeNotFound
	case errors.Is(err, domain.ErrConflict):
		return codeConflict
	case errors.Is(err, domain.ErrIntegrity):
		return codeIntegrity
	}
	return codeInternal
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError maps domain errors to statuses. Internal errors are logged and
// replaced by a generic message.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := errorCode(err)
	body := errorBody{Error: err.Error(), Code: code}
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		body.Details = verr.Fields
	}
	if code == codeInternal {
		observability.LoggerFrom(r.Context(), h.log).Error("request failed", zap.Error(err))
		body.Error = "internal server error"
	}
	writeJSON(w, statusForCode[code], body)
}

// decodeJSON reads the request body into dst. An empty body leaves dst as is.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return domain.Invalid("body", "invalid JSON: "+err.Error())
	}
	return nil
}

func readBody(r *http.Request) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
}

func pathID(r *http.Request, name string) (uint, error) {
	id, err := strconv.ParseUint(chi.URLParam(r, name), 10, 64)
	if err != nil || id == 0 {
		return 0, domain.Invalid(name, "must be a positive integer")
	}
	return uint(id), nil
}

// optionalParent reads a parent id from the query: absent, empty or "root"
// mean the top level.
func optionalParent(r *http.Request, name string) (*uint, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" || raw == "root" || raw == "null" {
		return nil, nil
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return nil, domain.Invalid(name, "must be a positive integer or root")
	}
	v := uint(id)
	return &v, nil
}

func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domain.Invalid(name, "must be an integer")
	}
	return v, nil
}

func renderHTMLFragments(ctx context.Context, w http.ResponseWriter, status int, fragments ...templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	for _, fragment := range fragments {
		if fragment == nil {
			continue
		}
		_ = fragment.Render(ctx, w)
	}
}

func renderFlash(ctx context.Context, w http.ResponseWriter, status int, message string) {
	level := "info"
	if status >= 400 {
		level = "error"
	}
	renderHTMLFragments(ctx, w, status, ui.Flash(message, level))
}
