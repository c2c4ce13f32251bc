package feed

import "errors"

var (
	ErrInvalidInput         = errors.New("invalid_input")
	ErrNotFound             = errors.New("not_found")
	ErrOperationInProgress  = errors.New("operation_in_progress")
	ErrFetch                = errors.New("fetch_failed")
	ErrCreate               = errors.New("create_failed")
	ErrDelete               = errors.New("delete_failed")
	ErrReaction             = errors.New("reaction_failed")
	ErrUnsupportedMediaType = errors.New("unsupported_media_type")
	ErrFileTooLarge         = errors.New("file_too_large")
	ErrDuplicateKey         = errors.New("duplicate_key")
)
