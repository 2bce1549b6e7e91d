package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	apierrors "shipdash/internal/errors"
)

// QueryRules maps a query parameter name to validator/v10 tags
type QueryRules map[string]string

// QueryParamValidator validates query parameters against validator tags
// before the handler runs
type QueryParamValidator struct {
	validator    *validator.Validate
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewQueryParamValidator creates a new query parameter validator
func NewQueryParamValidator(logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *QueryParamValidator {
	if logger == nil {
		logger = slog.Default()
	}
	if errorHandler == nil {
		errorHandler = apierrors.NewErrorHandler(logger, false)
	}

	v := validator.New()
	v.RegisterValidation("alignment", isAlignment)
	v.RegisterValidation("entity", isEntityName)

	return &QueryParamValidator{
		validator:    v,
		logger:       logger.With(slog.String("component", "query_validator")),
		errorHandler: errorHandler,
	}
}

// Validate returns middleware that rejects a request whose query parameters
// break the rules. Parameters not named in rules pass through.
func (v *QueryParamValidator) Validate(rules QueryRules) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			query := r.URL.Query()

			var failures []apierrors.ValidationError
			for param, tag := range rules {
				if err := v.validator.Var(query.Get(param), tag); err != nil {
					verrs, ok := err.(validator.ValidationErrors)
					if !ok {
						failures = append(failures, apierrors.ValidationError{Field: param, Message: err.Error()})
						continue
					}
					for _, fe := range verrs {
						failures = append(failures, apierrors.ValidationError{
							Field:   param,
							Message: formatValidationError(param, fe),
						})
					}
				}
			}

			if len(failures) > 0 {
				v.logger.DebugContext(r.Context(), "query validation failed",
					slog.String("path", r.URL.Path),
					slog.Int("failures", len(failures)))
				if len(failures) == 1 {
					v.errorHandler.HandleError(w, r, apierrors.ErrValidation(failures[0].Field, failures[0].Message))
				} else {
					v.errorHandler.HandleError(w, r, apierrors.NewValidationErrors(failures))
				}
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// formatValidationError formats validation error messages
func formatValidationError(field string, err validator.FieldError) string {
	param := err.Param()

	switch err.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, param)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(param, " ", ", "))
	case "alignment":
		return fmt.Sprintf("%s must be one of: listwise, pairwise", field)
	case "entity":
		return fmt.Sprintf("%s must be a printable company name", field)
	default:
		return fmt.Sprintf("%s failed %s validation", field, err.Tag())
	}
}

// isAlignment accepts the correlation alignments, in any case
func isAlignment(fl validator.FieldLevel) bool {
	switch strings.ToLower(strings.TrimSpace(fl.Field().String())) {
	case "listwise", "pairwise":
		return true
	}
	return false
}

// isEntityName rejects control characters in company names
func isEntityName(fl validator.FieldLevel) bool {
	name := fl.Field().String()
	if strings.TrimSpace(name) == "" {
		return false
	}
	for _, ch := range name {
		if unicode.IsControl(ch) {
			return false
		}
	}
	return true
}
