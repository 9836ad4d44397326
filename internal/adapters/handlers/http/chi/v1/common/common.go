package common

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"ecolink/internal/core/domain"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// OwnerHeader carries the caller identity set by the upstream gateway
const OwnerHeader = "X-Owner-ID"

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// OwnerID reads the caller from OwnerHeader
func OwnerID(r *http.Request) (uuid.UUID, error) {
	raw := r.Header.Get(OwnerHeader)
	if raw == "" {
		return uuid.Nil, fmt.Errorf("%w: missing %s header", domain.ErrValidation, OwnerHeader)
	}
	id, err := uuid.Parse(raw)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, fmt.Errorf("%w: invalid %s header", domain.ErrValidation, OwnerHeader)
	}
	return id, nil
}

// PathID parses a uuid path parameter
func PathID(r *http.Request, name string) (uuid.UUID, error) {
	raw := chi.URLParam(r, name)
	if raw == "" {
		return uuid.Nil, fmt.Errorf("%w: %s is required", domain.ErrValidation, name)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %s is not a valid id", domain.ErrValidation, name)
	}
	return id, nil
}

// DecodeAndValidate reads a JSON body into dst and runs its validate tags
func DecodeAndValidate(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: malformed body: %w", domain.ErrValidation, err)
	}
	return Validate(dst)
}

// Validate runs the validate tags of v
func Validate(v any) error {
	if err := validate.Struct(v); err != nil {
		return &FieldError{err: err}
	}
	return nil
}

// FieldError wraps validator errors so they map to ErrValidation
type FieldError struct {
	err error
}

func (e *FieldError) Error() string {
	return domain.ErrValidation.Error() + ": " + e.err.Error()
}

func (e *FieldError) Unwrap() []error {
	return []error{domain.ErrValidation, e.err}
}

// Fields lists the failing field names with the rule they broke
func (e *FieldError) Fields() map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(e.err, &verrs) {
		return nil
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		fields[fe.Field()] = rule
	}
	return fields
}

// StatusFor maps domain errors to an HTTP status
func StatusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrFileSizeTooBig):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, domain.ErrForeignStorageKey):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrAssetNotFound), errors.Is(err, domain.ErrObjectNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidTransition), errors.Is(err, domain.ErrAlreadyExists):
		return http.StatusConflict
	default:
		return http.StatusServiceUnavailable
	}
}

// WriteError writes err as an ErrorResponse. Unmapped errors are logged and hidden.
func WriteError(w http.ResponseWriter, logger *slog.Logger, err error) {
	status := StatusFor(err)
	resp := ErrorResponse{Error: err.Error()}

	var fe *FieldError
	if errors.As(err, &fe) {
		resp.Error = domain.ErrValidation.Error()
		resp.Fields = fe.Fields()
	}
	if status == http.StatusServiceUnavailable {
		logger.Error("request failed", "error", err)
		resp.Error = "service unavailable"
	}

	WriteJSON(w, logger, status, resp)
}

// WriteJSON encodes body with status
func WriteJSON(w http.ResponseWriter, logger *slog.Logger, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("error encoding response", "error", err)
	}
}
