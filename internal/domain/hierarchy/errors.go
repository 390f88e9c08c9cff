package hierarchy

import "github.com/cmlabs-hris/hris-portal-go/internal/pkg/apperror"

var ErrCycleDetected = apperror.DataIntegrity("reporting hierarchy contains a cycle")
