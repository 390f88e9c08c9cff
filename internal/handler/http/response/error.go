package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/hris-portal-go/internal/pkg/apperror"
	"github.com/cmlabs-hris/hris-portal-go/internal/pkg/validator"
)

var kindStatus = map[apperror.Kind]struct {
	status int
	code   string
}{
	apperror.KindValidation:    {http.StatusBadRequest, "BAD_REQUEST"},
	apperror.KindConflict:      {http.StatusConflict, "CONFLICT"},
	apperror.KindPermission:    {http.StatusForbidden, "FORBIDDEN"},
	apperror.KindNotFound:      {http.StatusNotFound, "NOT_FOUND"},
	apperror.KindDataIntegrity: {http.StatusInternalServerError, "DATA_INTEGRITY"},
}

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	kind := apperror.KindOf(err)
	mapped, ok := kindStatus[kind]
	if !ok {
		slog.Error("Unhandled error", "error", err)
		fail(w, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", apperror.KindUnknown, "An unexpected error occurred", nil)
		return
	}
	if kind == apperror.KindDataIntegrity {
		slog.Error("Data integrity violation", "error", err)
	}
	fail(w, mapped.status, mapped.code, kind, err.Error(), nil)
}
