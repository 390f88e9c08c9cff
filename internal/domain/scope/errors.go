package scope

import "github.com/cmlabs-hris/hris-portal-go/internal/pkg/apperror"

var (
	ErrUnknownResource = apperror.Validation("unknown resource type")
	ErrOutOfScope      = apperror.Permission("record is outside your access scope")
)
