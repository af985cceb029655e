package errors

import "errors"

var (
	ErrNotFound       = errors.New("not found")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrInvalid        = errors.New("invalid")
	ErrTooMany        = errors.New("too many requests")
	ErrInternal       = errors.New("internal")
	ErrInvalidURL     = errors.New("invalid url")
	ErrInvalidFile    = errors.New("invalid file")
	ErrFileTooLarge   = errors.New("file too large")
	ErrNoContent      = errors.New("no content extracted")
	ErrUploadLimit    = errors.New("upload limit reached")
	ErrGenerateFailed = errors.New("failed to generate response")
)

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsNoContent(err error) bool {
	return errors.Is(err, ErrNoContent)
}
