package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindAndCodeSurviveWrapping(t *testing.T) {
	base := BusinessRule(CodeInsufficientStock, "stock insuficiente para Arroz")
	wrapped := fmt.Errorf("failed to create sale: %w", base)

	assert.Equal(t, KindBusinessRule, KindOf(wrapped))
	assert.Equal(t, CodeInsufficientStock, CodeOf(wrapped))
	assert.True(t, Is(wrapped, CodeInsufficientStock))
	assert.False(t, Is(wrapped, CodeOverpayment))
}

func TestWrapKeepsDomainErrors(t *testing.T) {
	nf := NotFound("cliente", "c-1")
	assert.Same(t, nf, Wrap("get", nf))

	raw := errors.New("disk full")
	err := Wrap("update", raw)
	assert.Equal(t, KindStorage, KindOf(err))
	assert.ErrorIs(t, err, raw)

	assert.Nil(t, Wrap("noop", nil))
}

func TestMessages(t *testing.T) {
	assert.Equal(t, "producto no encontrado: p-9", NotFound("producto", "p-9").Error())
	v := Validation("email", "email inválido")
	assert.Equal(t, "email", v.Field)
	assert.True(t, IsValidation(v))
	assert.Empty(t, KindOf(errors.New("plain")))
}
