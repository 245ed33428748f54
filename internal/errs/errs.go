// Package errs define la taxonomía de errores de los servicios de dominio.
package errs

import (
	"errors"
	"fmt"
)

// Kind clasifica un error de dominio
type Kind string

const (
	KindValidation   Kind = "validation"
	KindNotFound     Kind = "not_found"
	KindBusinessRule Kind = "business_rule"
	KindStorage      Kind = "storage"
)

// Códigos de reglas de negocio
const (
	CodeInsufficientStock   = "insufficient_stock"
	CodeCreditLimitExceeded = "credit_limit_exceeded"
	CodeAlreadyCancelled    = "already_cancelled"
	CodeAlreadyPaid         = "already_paid"
	CodeInvalidState        = "invalid_state"
	CodeOverpayment         = "overpayment"
	CodeRegisterClosed      = "register_closed"
	CodeRegisterAlreadyOpen = "register_already_open"
	CodeDuplicate           = "duplicate"
	CodeNegativeDebt        = "negative_debt"
	CodeInvalidAmount       = "invalid_amount"
)

// Error es el error que devuelven los servicios
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Field   string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Validation crea un error de validación sobre un campo
func Validation(field, message string) *Error {
	return &Error{Kind: KindValidation, Code: "invalid_field", Field: field, Message: message}
}

// NotFound crea un error "X no encontrado"
func NotFound(entity, id string) *Error {
	return &Error{
		Kind:    KindNotFound,
		Code:    "not_found",
		Message: fmt.Sprintf("%s no encontrado: %s", entity, id),
	}
}

// BusinessRule crea un error de regla de negocio
func BusinessRule(code, message string) *Error {
	return &Error{Kind: KindBusinessRule, Code: code, Message: message}
}

// Storage envuelve un error del almacenamiento sin alterarlo
func Storage(op string, err error) *Error {
	return &Error{Kind: KindStorage, Code: "storage", Message: "error de almacenamiento en " + op, Err: err}
}

// KindOf devuelve la clase del error, o "" si no es un error de dominio
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// CodeOf devuelve el código del error, o "" si no es un error de dominio
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

func IsNotFound(err error) bool   { return KindOf(err) == KindNotFound }
func IsValidation(err error) bool { return KindOf(err) == KindValidation }

// Is reporta si err es una violación de regla de negocio con el código dado
func Is(err error, code string) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == KindBusinessRule && e.Code == code
}

// Wrap devuelve err sin tocar si ya es de dominio y lo envuelve como Storage si no
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return Storage(op, err)
}
