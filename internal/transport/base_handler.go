package transport

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/frahmantamala/construction-dashboard/internal"
	"github.com/frahmantamala/construction-dashboard/pkg/logger"
	"github.com/go-chi/chi"
)

// BaseHandler provides common functionality for HTTP handlers
type BaseHandler struct {
	Logger *slog.Logger
}

// NewBaseHandler creates a base handler with logger
func NewBaseHandler(lg *slog.Logger) *BaseHandler {
	if lg == nil {
		lg = logger.LoggerWrapper()
	}
	return &BaseHandler{Logger: lg}
}

// WriteJSON writes a JSON response
func (h *BaseHandler) WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.Logger.Error("failed to encode JSON response", "error", err)
	}
}

// ErrorResponse is the inline error body of every failed dashboard call.
type ErrorResponse struct {
	Error   string                     `json:"error"`
	Code    internal.ErrorCode         `json:"code,omitempty"`
	Details []internal.ValidationError `json:"details,omitempty"`
}

// WriteError writes an error response
func (h *BaseHandler) WriteError(w http.ResponseWriter, status int, message string) {
	h.Logger.Warn("http error", "status", status, "message", message)
	h.WriteJSON(w, status, ErrorResponse{Error: message})
}

// WriteAppError writes appErr with its status and field details.
func (h *BaseHandler) WriteAppError(w http.ResponseWriter, appErr *internal.AppError) {
	status := appErr.StatusCode
	if status == 0 {
		status = http.StatusInternalServerError
	}
	resp := ErrorResponse{Error: appErr.GetDetailedMessage(), Code: appErr.Code}
	if details, ok := appErr.Details.(internal.ValidationErrors); ok {
		resp.Details = details.Errors
	}
	if status >= http.StatusInternalServerError {
		h.Logger.Error("http error", "status", status, "code", appErr.Code, "error", appErr)
	} else {
		h.Logger.Warn("http error", "status", status, "code", appErr.Code, "message", resp.Error)
	}
	h.WriteJSON(w, status, resp)
}

// maxMultipartMemory bounds the in-memory part of a multipart form.
const maxMultipartMemory = 1 << 20

// formParser returns the parser filling PostForm for contentType, or nil when
// the body is not a form.
func formParser(contentType string) func(r *http.Request) error {
	switch {
	case strings.HasPrefix(contentType, "application/x-www-form-urlencoded"):
		return (*http.Request).ParseForm
	case strings.HasPrefix(contentType, "multipart/form-data"):
		return func(r *http.Request) error {
			return r.ParseMultipartForm(maxMultipartMemory)
		}
	}
	return nil
}

// DecodeBody reads a JSON body, or a form body when the request is
// url-encoded or multipart.
func (h *BaseHandler) DecodeBody(r *http.Request, dst interface{}, form func(values map[string][]string)) error {
	if parse := formParser(r.Header.Get("Content-Type")); form != nil && parse != nil {
		if err := parse(r); err != nil {
			return internal.NewValidationError("invalid form body", internal.ErrCodeValidationFailed).WithCause(err)
		}
		form(r.PostForm)
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return internal.NewValidationError("invalid request body", internal.ErrCodeValidationFailed).WithCause(err)
	}
	return nil
}

// PathID parses a positive numeric chi URL parameter.
func (h *BaseHandler) PathID(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, internal.NewValidationFieldError(name, fmt.Sprintf("%s must be a positive id", name), internal.ErrCodeInvalidID)
	}
	return id, nil
}
