// Package apperr описывает виды ошибок, которые сервис показывает пользователю.
package apperr

import "errors"

// Виды ошибок. Проверяются через errors.Is.
var (
	ErrValidation        = errors.New("validation error")
	ErrDuplicateKey      = errors.New("duplicate key")
	ErrReferenceNotFound = errors.New("reference not found")
	ErrNotFound          = errors.New("not found")
	ErrOrderNotFound     = errors.New("order not found")
	ErrClientDataMissing = errors.New("client data missing")
	ErrEmptyInput        = errors.New("empty input")
)

// Error описывает ошибку с видом и сообщением для конечного пользователя.
type Error struct {
	Kind    error
	Field   string
	Message string
	Err     error
}

// New создаёт ошибку указанного вида.
func New(kind error, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap создаёт ошибку указанного вида с исходной причиной.
func Wrap(kind error, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Err: cause}
}

// Validation создаёт ошибку валидации для поля.
func Validation(field, message string) *Error {
	return &Error{Kind: ErrValidation, Field: field, Message: message}
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Kind.Error()
	}
	return e.Kind.Error() + ": " + e.Message
}

// Unwrap позволяет сопоставлять ошибку и с видом, и с причиной.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Code возвращает короткое имя вида ошибки для ответов API.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return "validation_error"
	case errors.Is(err, ErrDuplicateKey):
		return "duplicate_key"
	case errors.Is(err, ErrReferenceNotFound):
		return "reference_not_found"
	case errors.Is(err, ErrOrderNotFound):
		return "order_not_found"
	case errors.Is(err, ErrClientDataMissing):
		return "client_data_missing"
	case errors.Is(err, ErrEmptyInput):
		return "empty_input"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	default:
		return "internal_error"
	}
}

// Message возвращает сообщение для пользователя, если оно есть.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return ""
}
