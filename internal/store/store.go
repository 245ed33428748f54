// Package store es el almacenamiento genérico por colecciones que consumen
// los servicios: registros JSON con clave primaria, índices secundarios
// declarados y unidades atómicas.
package store

import (
	"context"
	"errors"
)

var (
	// ErrDuplicate la clave primaria ya existe
	ErrDuplicate = errors.New("registro duplicado")
	// ErrConstraint un índice único rechazó la escritura
	ErrConstraint = errors.New("violación de índice único")
	// ErrUnknownIndex el índice no está declarado en el esquema
	ErrUnknownIndex = errors.New("índice no declarado")
	// ErrUnknownCollection la colección no está declarada en el esquema
	ErrUnknownCollection = errors.New("colección no declarada")
)

// Store almacena registros JSON por colección.
//
// Get devuelve (nil, nil) cuando el registro no existe. GetAll y GetByIndex
// devuelven los registros en orden de inserción.
type Store interface {
	Add(ctx context.Context, collection, id string, data []byte) error
	Update(ctx context.Context, collection, id string, data []byte) error
	Delete(ctx context.Context, collection, id string) error
	Get(ctx context.Context, collection, id string) ([]byte, error)
	GetAll(ctx context.Context, collection string) ([][]byte, error)
	GetByIndex(ctx context.Context, collection, index, value string) ([][]byte, error)
	Count(ctx context.Context, collection string) (int, error)
	Clear(ctx context.Context, collection string) error

	// Atomic ejecuta fn como una unidad: o se aplican todas sus escrituras o ninguna.
	Atomic(ctx context.Context, fn func(tx Store) error) error
	// Lock serializa las unidades atómicas que piden la misma clave hasta que terminan.
	Lock(ctx context.Context, key string) error

	Ping(ctx context.Context) error
	Close() error
}

// Index índice secundario sobre un campo JSON de primer nivel
type Index struct {
	Field  string
	Unique bool
}

// Schema índices declarados por colección
type Schema map[string][]Index

func (s Schema) index(collection, field string) (Index, error) {
	idx, ok := s[collection]
	if !ok {
		return Index{}, ErrUnknownCollection
	}
	for _, i := range idx {
		if i.Field == field {
			return i, nil
		}
	}
	return Index{}, ErrUnknownIndex
}

func (s Schema) has(collection string) bool {
	_, ok := s[collection]
	return ok
}
