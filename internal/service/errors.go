// errors.go — ошибки бизнес-логики сервисного слоя.
package service

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound — подразделение не найдено.
	ErrNotFound = errors.New("подразделение не найдено")
	// ErrValidation — ошибка валидации входных данных.
	ErrValidation = errors.New("ошибка валидации")
)

// Причины ошибок валидации. Совпадают с суффиксами ключей i18n "validation.*".
const (
	ReasonRequired      = "required"
	ReasonInvalidStatus = "invalid_status"
	ReasonInvalidFlag   = "invalid_flag"
	ReasonInvalidDate   = "invalid_date"
)

// FieldError — ошибка валидации конкретного поля.
// errors.Is(err, ErrValidation) истинно для любой FieldError.
type FieldError struct {
	// Field — имя поля (model.Field*)
	Field string
	// Reason — машиночитаемая причина (Reason*)
	Reason string
	// Value — отклонённое значение (пусто для ReasonRequired)
	Value string
}

func (e *FieldError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("ошибка валидации: %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("ошибка валидации: %s: %s (%q)", e.Field, e.Reason, e.Value)
}

func (e *FieldError) Unwrap() error {
	return ErrValidation
}
