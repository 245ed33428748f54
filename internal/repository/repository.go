// Package repository expone colecciones tipadas sobre el store.
package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"retail-erp/internal/store"
)

// Entity es todo lo que se guarda en una colección
type Entity interface {
	GetID() string
}

// Collection colección tipada. Cada operación usa la unidad atómica abierta en ctx si la hay.
type Collection[T Entity] struct {
	store store.Store
	name  string
	newT  func() T
}

// NewCollection crea una colección sobre s
func NewCollection[T Entity](s store.Store, name string, newT func() T) *Collection[T] {
	return &Collection[T]{store: s, name: name, newT: newT}
}

func (c *Collection[T]) Add(ctx context.Context, v T) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", c.name, err)
	}
	if err := store.Resolve(ctx, c.store).Add(ctx, c.name, v.GetID(), data); err != nil {
		return fmt.Errorf("failed to add %s: %w", c.name, err)
	}
	return nil
}

// Put reemplaza el registro completo (o lo crea)
func (c *Collection[T]) Put(ctx context.Context, v T) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", c.name, err)
	}
	if err := store.Resolve(ctx, c.store).Update(ctx, c.name, v.GetID(), data); err != nil {
		return fmt.Errorf("failed to update %s: %w", c.name, err)
	}
	return nil
}

func (c *Collection[T]) Delete(ctx context.Context, id string) error {
	if err := store.Resolve(ctx, c.store).Delete(ctx, c.name, id); err != nil {
		return fmt.Errorf("failed to delete %s: %w", c.name, err)
	}
	return nil
}

// Get devuelve el valor cero de T (nil) si el registro no existe
func (c *Collection[T]) Get(ctx context.Context, id string) (T, error) {
	var zero T
	raw, err := store.Resolve(ctx, c.store).Get(ctx, c.name, id)
	if err != nil {
		return zero, fmt.Errorf("failed to get %s: %w", c.name, err)
	}
	if raw == nil {
		return zero, nil
	}
	return c.decode(raw)
}

// All devuelve todos los registros en orden de inserción
func (c *Collection[T]) All(ctx context.Context) ([]T, error) {
	raw, err := store.Resolve(ctx, c.store).GetAll(ctx, c.name)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", c.name, err)
	}
	return c.decodeAll(raw)
}

func (c *Collection[T]) ByIndex(ctx context.Context, index, value string) ([]T, error) {
	raw, err := store.Resolve(ctx, c.store).GetByIndex(ctx, c.name, index, value)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s by %s: %w", c.name, index, err)
	}
	return c.decodeAll(raw)
}

// First devuelve el primer registro con index=value, o nil
func (c *Collection[T]) First(ctx context.Context, index, value string) (T, error) {
	var zero T
	all, err := c.ByIndex(ctx, index, value)
	if err != nil || len(all) == 0 {
		return zero, err
	}
	return all[0], nil
}

func (c *Collection[T]) Count(ctx context.Context) (int, error) {
	n, err := store.Resolve(ctx, c.store).Count(ctx, c.name)
	if err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", c.name, err)
	}
	return n, nil
}

func (c *Collection[T]) Clear(ctx context.Context) error {
	if err := store.Resolve(ctx, c.store).Clear(ctx, c.name); err != nil {
		return fmt.Errorf("failed to clear %s: %w", c.name, err)
	}
	return nil
}

// Filter devuelve los registros para los que keep es verdadero
func (c *Collection[T]) Filter(ctx context.Context, keep func(T) bool) ([]T, error) {
	all, err := c.All(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(all))
	for _, v := range all {
		if keep(v) {
			out = append(out, v)
		}
	}
	return out, nil
}

func (c *Collection[T]) decode(raw []byte) (T, error) {
	v := c.newT()
	if err := json.Unmarshal(raw, v); err != nil {
		var zero T
		return zero, fmt.Errorf("failed to decode %s: %w", c.name, err)
	}
	return v, nil
}

func (c *Collection[T]) decodeAll(raw [][]byte) ([]T, error) {
	out := make([]T, 0, len(raw))
	for _, r := range raw {
		v, err := c.decode(r)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
