package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	apierrors "invdash/internal/errors"
	"invdash/internal/selection"
)

// SelectionQuery is a dashboard selection as it arrives in the query
// string. Every list parameter may be repeated.
type SelectionQuery struct {
	Agents        []string `json:"agent" validate:"dive,agent"`
	OrderType     string   `json:"order_type" validate:"omitempty,order_type"`
	Sensitivities []string `json:"sensitivity" validate:"dive,sensitivity"`
	Disruptions   []string `json:"disruption" validate:"dive,disruption"`
	Metrics       []string `json:"metric" validate:"dive,metric"`
	View          string   `json:"view" validate:"omitempty,oneof=charts detail summary"`
}

// vocabularies maps each custom tag to its allowed values.
var vocabularies = map[string][]string{
	"agent":       strs(selection.Agents),
	"order_type":  strs(selection.OrderTypes),
	"sensitivity": strs(selection.Sensitivities),
	"disruption":  strs(selection.Disruptions),
	"metric":      strs(selection.Metrics),
}

func strs[T ~string](in []T) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = string(v)
	}
	return out
}

// ValidationMiddleware validates dashboard queries against the selection
// vocabularies.
type ValidationMiddleware struct {
	validator    *validator.Validate
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewValidationMiddleware creates a new validation middleware
func NewValidationMiddleware(logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *ValidationMiddleware {
	v := validator.New()

	for tag, allowed := range vocabularies {
		allowed := allowed
		v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
			return contains(allowed, fl.Field().String())
		})
	}

	// Use JSON tag names in error messages
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &ValidationMiddleware{
		validator:    v,
		logger:       logger.With(slog.String("component", "validation_middleware")),
		errorHandler: errorHandler,
	}
}

// ParseQuery reads a SelectionQuery from the request. Blank values are
// dropped.
func ParseQuery(r *http.Request) SelectionQuery {
	q := r.URL.Query()
	list := func(key string) []string {
		var out []string
		for _, v := range q[key] {
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, v)
			}
		}
		return out
	}
	return SelectionQuery{
		Agents:        list("agent"),
		OrderType:     strings.TrimSpace(q.Get("order_type")),
		Sensitivities: list("sensitivity"),
		Disruptions:   list("disruption"),
		Metrics:       list("metric"),
		View:          strings.TrimSpace(q.Get("view")),
	}
}

// Selections validates the request's query and converts it. An absent
// order type falls back to defaultOrder. The returned error is an
// *apierrors.APIError listing every rejected field.
func (m *ValidationMiddleware) Selections(r *http.Request, defaultOrder selection.OrderType) (selection.Selections, selection.View, error) {
	q := ParseQuery(r)
	if err := m.ValidateStruct(q); err != nil {
		m.logger.DebugContext(r.Context(), "selection rejected",
			slog.String("query", r.URL.RawQuery),
			slog.String("error", err.Error()))
		return selection.Selections{}, "", err
	}

	sel := selection.Selections{OrderType: defaultOrder}
	if q.OrderType != "" {
		sel.OrderType = selection.OrderType(q.OrderType)
	}
	for _, a := range q.Agents {
		sel.Agents = append(sel.Agents, selection.Agent(a))
	}
	for _, s := range q.Sensitivities {
		sel.Sensitivities = append(sel.Sensitivities, selection.Sensitivity(s))
	}
	for _, d := range q.Disruptions {
		sel.Disruptions = append(sel.Disruptions, selection.Disruption(d))
	}
	for _, mt := range q.Metrics {
		sel.Metrics = append(sel.Metrics, selection.Metric(mt))
	}

	view := selection.ViewCharts
	if q.View != "" {
		view = selection.View(q.View)
	}
	return sel, view, nil
}

// ValidateStruct validates a struct and returns validation errors
func (m *ValidationMiddleware) ValidateStruct(v interface{}) error {
	err := m.validator.Struct(v)
	if err == nil {
		return nil
	}
	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return apierrors.InvalidRequestWithError(err)
	}

	validationErrors := make([]apierrors.ValidationError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		validationErrors = append(validationErrors, apierrors.ValidationError{
			Field:   fe.Field(),
			Value:   fmt.Sprintf("%v", fe.Value()),
			Message: m.formatValidationError(fe),
		})
	}
	return apierrors.NewValidationErrors(validationErrors)
}

// formatValidationError formats validation error messages
func (m *ValidationMiddleware) formatValidationError(err validator.FieldError) string {
	field := err.Field()
	if i := strings.IndexByte(field, '['); i > 0 {
		field = field[:i]
	}

	if allowed, ok := vocabularies[err.Tag()]; ok {
		return fmt.Sprintf("%s must be one of: %s", field, strings.Join(allowed, ", "))
	}
	switch err.Tag() {
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(err.Param(), " ", ", "))
	case "required":
		return fmt.Sprintf("%s is required", field)
	default:
		return fmt.Sprintf("%s failed %s validation", field, err.Tag())
	}
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// QueryParamValidator validates scalar query parameters and answers the
// request itself on failure.
type QueryParamValidator struct {
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewQueryParamValidator creates a new query parameter validator
func NewQueryParamValidator(logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *QueryParamValidator {
	return &QueryParamValidator{
		logger:       logger.With(slog.String("component", "query_validator")),
		errorHandler: errorHandler,
	}
}

// ValidateInt validates an integer query parameter
func (v *QueryParamValidator) ValidateInt(w http.ResponseWriter, r *http.Request, param string, min, max int, defaultValue int) (int, bool) {
	value := r.URL.Query().Get(param)
	if value == "" {
		return defaultValue, true
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		v.errorHandler.HandleError(w, r, apierrors.ErrValidation(param, fmt.Sprintf("%s must be a valid integer", param)))
		return 0, false
	}
	if intValue < min || intValue > max {
		v.errorHandler.HandleError(w, r, apierrors.ErrValidation(param, fmt.Sprintf("%s must be between %d and %d", param, min, max)))
		return 0, false
	}
	return intValue, true
}

// ValidateEnum validates an enum query parameter
func (v *QueryParamValidator) ValidateEnum(w http.ResponseWriter, r *http.Request, param string, allowed []string, defaultValue string) (string, bool) {
	value := r.URL.Query().Get(param)
	if value == "" {
		return defaultValue, true
	}
	if contains(allowed, value) {
		return value, true
	}

	v.errorHandler.HandleError(w, r, apierrors.ErrValidation(param, fmt.Sprintf("%s must be one of: %s", param, strings.Join(allowed, ", "))))
	return "", false
}
