package errors

import (
	"errors"
	"fmt"
)

// Kind классифицирует ошибку для транспортного слоя.
type Kind string

const (
	KindValidation Kind = "validation"
	KindNotFound   Kind = "not_found"
	KindTooLarge   Kind = "too_large"
	KindModel      Kind = "model"
	KindStorage    Kind = "storage"
	KindTransport  Kind = "transport"
	KindConfig     Kind = "config"
	KindInternal   Kind = "internal"
)

// Error несёт вид ошибки, операцию и исходную причину.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.Kind, e.Op, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Kind, e.Op, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Wrap оборачивает err; уже типизированная ошибка возвращается как есть.
func Wrap(kind Kind, op, message string, err error) error {
	if err == nil {
		return nil
	}

	var typed *Error
	if errors.As(err, &typed) {
		return typed
	}

	return &Error{
		Kind:    kind,
		Op:      op,
		Message: message,
		Cause:   err,
	}
}

func New(kind Kind, op, message string) error {
	return &Error{
		Kind:    kind,
		Op:      op,
		Message: message,
	}
}

// IsKind проверяет вид первой типизированной ошибки в цепочке.
func IsKind(err error, kind Kind) bool {
	var target *Error
	if errors.As(err, &target) {
		return target.Kind == kind
	}
	return false
}

// KindOf возвращает вид ошибки или KindInternal для нетипизированных.
func KindOf(err error) Kind {
	var target *Error
	if errors.As(err, &target) {
		return target.Kind
	}
	return KindInternal
}

// MessageOf возвращает сообщение без префикса вида и операции.
func MessageOf(err error) string {
	var target *Error
	if errors.As(err, &target) {
		if target.Cause != nil && target.Kind != KindValidation && target.Kind != KindNotFound {
			return fmt.Sprintf("%s: %v", target.Message, target.Cause)
		}
		return target.Message
	}
	return err.Error()
}
