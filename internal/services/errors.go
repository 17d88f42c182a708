package services

import "errors"

var (
	// ErrBlocked is returned when a selection cannot be rendered until the
	// user changes it. The guidance travels in the AppError context.
	ErrBlocked = errors.New("selection cannot be rendered")

	// ErrUnknownExport names an export kind the service does not produce.
	ErrUnknownExport = errors.New("unknown export kind")
)
