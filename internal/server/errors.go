package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	auditdomain "github.com/smallbiznis/provisora/internal/audit/domain"
	contractdomain "github.com/smallbiznis/provisora/internal/contract/domain"
	costledgerdomain "github.com/smallbiznis/provisora/internal/costledger/domain"
	"github.com/smallbiznis/provisora/internal/export"
	provisiondomain "github.com/smallbiznis/provisora/internal/provision/domain"
	workforcedomain "github.com/smallbiznis/provisora/internal/workforce/domain"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrNotFound       = errors.New("not_found")
	ErrInvalidRequest = errors.New("invalid_request")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if isValidationError(err) {
		code := validationErrorCode(err)
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  fieldErrors(err, code),
		}
	}

	switch {
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, provisiondomain.ErrDuplicatePeriod):
		return http.StatusConflict, errorPayload{
			Type:    "duplicate_period",
			Message: "a provision already exists for this contract and period",
		}
	case errors.Is(err, provisiondomain.ErrConcurrentUpdate),
		errors.Is(err, costledgerdomain.ErrConcurrentUpdate):
		return http.StatusConflict, errorPayload{
			Type:    "concurrent_update",
			Message: "the record was modified concurrently, reload and retry",
		}
	case errors.Is(err, provisiondomain.ErrInvalidTransition),
		errors.Is(err, costledgerdomain.ErrInvalidTransition),
		errors.Is(err, costledgerdomain.ErrEntryPaid):
		return http.StatusUnprocessableEntity, errorPayload{
			Type:    "invalid_transition",
			Message: "status change rejected",
			Errors:  fieldErrors(err, "invalid_transition"),
		}
	case errors.Is(err, provisiondomain.ErrInconsistentState):
		return http.StatusUnprocessableEntity, errorPayload{
			Type:    "inconsistent_state",
			Message: "the change conflicts with amounts already recorded",
			Errors:  fieldErrors(err, "inconsistent_state"),
		}
	case errors.Is(err, provisiondomain.ErrStoreUnavailable),
		errors.Is(err, costledgerdomain.ErrStoreUnavailable):
		return http.StatusServiceUnavailable, errorPayload{
			Type:    "service_unavailable",
			Message: "service unavailable",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

// fieldErrors expands a domain field error into one entry per named field.
func fieldErrors(err error, code string) []ValidationError {
	var fields []string
	var pErr *provisiondomain.FieldError
	var cErr *costledgerdomain.FieldError
	switch {
	case errors.As(err, &pErr):
		fields = pErr.Fields
	case errors.As(err, &cErr):
		fields = cErr.Fields
	}
	if len(fields) == 0 {
		return []ValidationError{{
			Field:   validationErrorField(code),
			Code:    code,
			Message: validationErrorMessage(code),
		}}
	}

	out := make([]ValidationError, 0, len(fields))
	for _, field := range fields {
		out = append(out, ValidationError{
			Field:   field,
			Code:    code,
			Message: validationErrorMessage(code),
		})
	}
	return out
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

var validationSentinels = []error{
	ErrInvalidRequest,
	provisiondomain.ErrInvalidAmount,
	provisiondomain.ErrInvalidPeriod,
	provisiondomain.ErrInvalidStatus,
	provisiondomain.ErrInvalidContract,
	provisiondomain.ErrInvalidHeadcount,
	provisiondomain.ErrInvalidID,
	costledgerdomain.ErrInvalidRequest,
	costledgerdomain.ErrInvalidAmount,
	costledgerdomain.ErrInvalidCategory,
	costledgerdomain.ErrInvalidStatus,
	costledgerdomain.ErrInvalidContract,
	costledgerdomain.ErrInvalidPeriod,
	costledgerdomain.ErrInvalidPageToken,
	auditdomain.ErrInvalidPageToken,
	auditdomain.ErrInvalidTarget,
	contractdomain.ErrInvalidID,
	workforcedomain.ErrInvalidContract,
	export.ErrUnsupportedFormat,
}

func isValidationError(err error) bool {
	return matchSentinel(err) != nil
}

func matchSentinel(err error) error {
	for _, sentinel := range validationSentinels {
		if errors.Is(err, sentinel) {
			return sentinel
		}
	}
	return nil
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, provisiondomain.ErrNotFound),
		errors.Is(err, costledgerdomain.ErrNotFound),
		errors.Is(err, contractdomain.ErrNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func validationErrorCode(err error) string {
	if sentinel := matchSentinel(err); sentinel != nil {
		return sentinel.Error()
	}
	return "invalid_request"
}

func validationErrorField(code string) string {
	switch code {
	case "invalid_request":
		return "request"
	case "invalid_amount":
		return "amount"
	case "invalid_headcount":
		return "efetivo"
	case "invalid_transition", "inconsistent_state", "invalid_status":
		return "status"
	case "invalid_contract":
		return "contract_id"
	case "invalid_period":
		return "period"
	case "unsupported_export_format":
		return "format"
	}
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	return ""
}

func validationErrorMessage(code string) string {
	switch code {
	case "invalid_request":
		return "invalid request"
	case "invalid_amount":
		return "amounts must be non-negative numbers with at most two decimal places"
	case "invalid_period":
		return "month must be 1-12 and year four digits"
	case "invalid_status":
		return "unknown status"
	case "invalid_contract":
		return "unknown contract"
	case "invalid_transition":
		return "status change not allowed"
	case "inconsistent_state":
		return "received amount requires status nf_emitida"
	default:
		return "invalid value"
	}
}

// classifyErrorForLog reports the error type and code used in request logs.
func classifyErrorForLog(err error) (string, string) {
	status, payload := mapError(err)
	code := payload.Type
	if len(payload.Errors) > 0 {
		code = payload.Errors[0].Code
	}
	if status >= http.StatusInternalServerError {
		return "server", code
	}
	return "client", code
}
