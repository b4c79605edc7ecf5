package usecase

import "errors"

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("resource not found")
	ErrReportNotReady        = errors.New("report not ready")
	ErrReportFileMissing     = errors.New("report file not found")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
)
