package errors

import "errors"

var (
	ErrNotFound    = errors.New("not found")
	ErrInvalid     = errors.New("invalid")
	ErrTooMany     = errors.New("too many requests")
	ErrBusy        = errors.New("question already in flight for this session")
	ErrNoDocuments = errors.New("no documents found")
	ErrInvalidFile = errors.New("invalid file")
	ErrEmptyQuery  = errors.New("query is empty")
	ErrGenerate    = errors.New("answer generation failed")
)
