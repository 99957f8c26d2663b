// path: pipeline/errors.go
package pipeline

import "errors"

// Submission error taxonomy. Handlers map these onto HTTP statuses.
var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrDetectionFailed   = errors.New("detection failed")
	ErrDetectionTimeout  = errors.New("detection timed out")
	ErrPersistenceFailed = errors.New("persistence failed")
)
