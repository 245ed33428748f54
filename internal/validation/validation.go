// Package validation valida entidades antes de cada escritura y reporta
// el primer campo que viola una restricción.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"retail-erp/internal/errs"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// Validator envuelve validator.Validate con las reglas del dominio
type Validator struct {
	v *validator.Validate
}

// New crea un validador que nombra los campos por su tag json
// y compara montos decimal como números.
func New() *Validator {
	v := validator.New()

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})

	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})

	return &Validator{v: v}
}

// Struct valida s y devuelve un errs.Validation con el primer campo inválido
func (val *Validator) Struct(s interface{}) error {
	err := val.v.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return errs.Validation("", err.Error())
	}

	fe := fieldErrs[0]
	field := fieldPath(fe)
	return errs.Validation(field, message(field, fe))
}

// fieldPath quita el nombre del struct raíz: "Sale.items[0].quantity" -> "items[0].quantity"
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func message(field string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s es obligatorio", field)
	case "email":
		return fmt.Sprintf("%s: email inválido", field)
	case "oneof":
		return fmt.Sprintf("%s debe ser uno de: %s", field, fe.Param())
	case "min":
		if isLength(fe.Kind()) {
			return fmt.Sprintf("%s: longitud mínima %s no alcanzada", field, fe.Param())
		}
		return fmt.Sprintf("%s debe ser al menos %s", field, fe.Param())
	case "max":
		if isLength(fe.Kind()) {
			return fmt.Sprintf("%s: longitud máxima %s excedida", field, fe.Param())
		}
		return fmt.Sprintf("%s no puede superar %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s debe ser mayor o igual a %s", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s debe ser mayor a %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s no cumple la regla %s", field, fe.Tag())
	}
}

func isLength(k reflect.Kind) bool {
	return k == reflect.String || k == reflect.Slice || k == reflect.Map || k == reflect.Array
}
