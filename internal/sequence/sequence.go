// Package sequence entrega números de documento correlativos (venta, compra, factura).
package sequence

import (
	"context"
	"encoding/json"
	"fmt"

	"retail-erp/internal/repository"
	"retail-erp/internal/store"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// SeedFunc devuelve el mayor número ya usado; se consulta sólo la primera vez
// que se pide una secuencia, para continuar datos existentes.
type SeedFunc func(ctx context.Context) (int64, error)

// Sequencer entrega el siguiente número de una secuencia
type Sequencer interface {
	Next(ctx context.Context, name string, seed SeedFunc) (int64, error)
}

type counter struct {
	ID    string `json:"id"`
	Value int64  `json:"value"`
}

// StoreSequencer guarda los contadores en la colección counters.
// El incremento ocurre en la unidad atómica del llamador: si ésta falla, el
// número no se consume y la numeración serial no tiene huecos.
type StoreSequencer struct {
	store  store.Store
	logger *zap.Logger
}

func NewStoreSequencer(s store.Store, logger *zap.Logger) *StoreSequencer {
	return &StoreSequencer{store: s, logger: logger}
}

func (q *StoreSequencer) Next(ctx context.Context, name string, seed SeedFunc) (int64, error) {
	var next int64
	err := store.RunAtomic(ctx, q.store, func(ctx context.Context) error {
		tx := store.Resolve(ctx, q.store)
		if err := tx.Lock(ctx, "sequence:"+name); err != nil {
			return err
		}

		raw, err := tx.Get(ctx, repository.Counters, name)
		if err != nil {
			return fmt.Errorf("failed to read counter %s: %w", name, err)
		}

		c := counter{ID: name}
		if raw != nil {
			if err := json.Unmarshal(raw, &c); err != nil {
				return fmt.Errorf("failed to decode counter %s: %w", name, err)
			}
		} else if seed != nil {
			if c.Value, err = seed(ctx); err != nil {
				return fmt.Errorf("failed to seed counter %s: %w", name, err)
			}
			q.logger.Info("Secuencia inicializada", zap.String("sequence", name), zap.Int64("seed", c.Value))
		}

		c.Value++
		data, err := json.Marshal(c)
		if err != nil {
			return err
		}
		if err := tx.Update(ctx, repository.Counters, name, data); err != nil {
			return fmt.Errorf("failed to write counter %s: %w", name, err)
		}
		next = c.Value
		return nil
	})
	return next, err
}

// RedisSequencer usa INCR de Redis. Es atómico entre procesos, pero un número
// tomado por una unidad que luego falla queda consumido.
type RedisSequencer struct {
	client *redis.Client
	prefix string
	logger *zap.Logger
}

func NewRedisSequencer(client *redis.Client, prefix string, logger *zap.Logger) *RedisSequencer {
	return &RedisSequencer{client: client, prefix: prefix, logger: logger}
}

func (q *RedisSequencer) Next(ctx context.Context, name string, seed SeedFunc) (int64, error) {
	key := q.prefix + name

	exists, err := q.client.Exists(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to check sequence %s: %w", name, err)
	}
	if exists == 0 && seed != nil {
		start, err := seed(ctx)
		if err != nil {
			return 0, fmt.Errorf("failed to seed sequence %s: %w", name, err)
		}
		// SETNX: si otro proceso ya la sembró, se respeta su valor
		if ok, err := q.client.SetNX(ctx, key, start, 0).Result(); err != nil {
			return 0, fmt.Errorf("failed to seed sequence %s: %w", name, err)
		} else if ok {
			q.logger.Info("Secuencia inicializada en Redis", zap.String("sequence", name), zap.Int64("seed", start))
		}
	}

	next, err := q.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to increment sequence %s: %w", name, err)
	}
	return next, nil
}
