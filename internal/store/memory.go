package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"sync"
)

type record struct {
	id     string
	seq    int64
	data   []byte
	fields map[string]string
}

// MemoryStore guarda todo en memoria del proceso.
//
// Las unidades atómicas se serializan detrás de un único escritor y sus
// escrituras se acumulan en un overlay que sólo se publica al confirmar;
// los lectores de fuera nunca ven un estado intermedio.
type MemoryStore struct {
	schema Schema

	writer sync.Mutex
	mu     sync.RWMutex
	data   map[string]map[string]*record
	seq    int64
}

// NewMemoryStore crea un store vacío con las colecciones del esquema
func NewMemoryStore(schema Schema) *MemoryStore {
	m := &MemoryStore{
		schema: schema,
		data:   make(map[string]map[string]*record),
	}
	for collection := range schema {
		m.data[collection] = make(map[string]*record)
	}
	return m
}

func (m *MemoryStore) Add(ctx context.Context, collection, id string, data []byte) error {
	return m.Atomic(ctx, func(tx Store) error { return tx.Add(ctx, collection, id, data) })
}

func (m *MemoryStore) Update(ctx context.Context, collection, id string, data []byte) error {
	return m.Atomic(ctx, func(tx Store) error { return tx.Update(ctx, collection, id, data) })
}

func (m *MemoryStore) Delete(ctx context.Context, collection, id string) error {
	return m.Atomic(ctx, func(tx Store) error { return tx.Delete(ctx, collection, id) })
}

func (m *MemoryStore) Clear(ctx context.Context, collection string) error {
	return m.Atomic(ctx, func(tx Store) error { return tx.Clear(ctx, collection) })
}

func (m *MemoryStore) Get(ctx context.Context, collection, id string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	coll, err := m.collection(collection)
	if err != nil {
		return nil, err
	}
	if r, ok := coll[id]; ok {
		return r.data, nil
	}
	return nil, nil
}

func (m *MemoryStore) GetAll(ctx context.Context, collection string) ([][]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	coll, err := m.collection(collection)
	if err != nil {
		return nil, err
	}
	return payloads(sorted(coll, nil, false), "", ""), nil
}

func (m *MemoryStore) GetByIndex(ctx context.Context, collection, index, value string) ([][]byte, error) {
	if _, err := m.schema.index(collection, index); err != nil {
		return nil, fmt.Errorf("%s.%s: %w", collection, index, err)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	return payloads(sorted(m.data[collection], nil, false), index, value), nil
}

func (m *MemoryStore) Count(ctx context.Context, collection string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	coll, err := m.collection(collection)
	if err != nil {
		return 0, err
	}
	return len(coll), nil
}

// Atomic corre fn con el escritor tomado. Si fn falla nada se publica.
func (m *MemoryStore) Atomic(ctx context.Context, fn func(tx Store) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.writer.Lock()
	defer m.writer.Unlock()

	tx := &memoryTx{
		m:       m,
		overlay: make(map[string]map[string]*record),
		cleared: make(map[string]bool),
	}
	if err := fn(tx); err != nil {
		return err
	}
	tx.commit()
	return nil
}

// Lock no hace nada: el escritor único ya serializa las unidades atómicas.
func (m *MemoryStore) Lock(ctx context.Context, key string) error { return nil }

func (m *MemoryStore) Ping(ctx context.Context) error { return ctx.Err() }

func (m *MemoryStore) Close() error { return nil }

func (m *MemoryStore) collection(name string) (map[string]*record, error) {
	coll, ok := m.data[name]
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, ErrUnknownCollection)
	}
	return coll, nil
}

// memoryTx es la vista de una unidad atómica: base publicada + overlay propio.
// Un valor nil en el overlay marca un registro borrado.
type memoryTx struct {
	m       *MemoryStore
	overlay map[string]map[string]*record
	cleared map[string]bool
}

func (tx *memoryTx) get(collection, id string) *record {
	if ov, ok := tx.overlay[collection]; ok {
		if r, ok := ov[id]; ok {
			return r
		}
	}
	if tx.cleared[collection] {
		return nil
	}
	return tx.m.data[collection][id]
}

func (tx *memoryTx) view(collection string) []*record {
	var base map[string]*record
	if !tx.cleared[collection] {
		base = tx.m.data[collection]
	}
	return sorted(base, tx.overlay[collection], true)
}

// taken reporta si otro registro visible en la unidad ya tiene field=value
func (tx *memoryTx) taken(collection, field, value, selfID string) bool {
	ov := tx.overlay[collection]
	for id, r := range ov {
		if r != nil && id != selfID && r.fields[field] == value {
			return true
		}
	}
	if tx.cleared[collection] {
		return false
	}
	for id, r := range tx.m.data[collection] {
		if _, shadowed := ov[id]; shadowed || id == selfID {
			continue
		}
		if r.fields[field] == value {
			return true
		}
	}
	return false
}

func (tx *memoryTx) put(collection, id string, r *record) {
	ov, ok := tx.overlay[collection]
	if !ok {
		ov = make(map[string]*record)
		tx.overlay[collection] = ov
	}
	ov[id] = r
}

func (tx *memoryTx) write(collection, id string, data []byte, mustBeNew bool) error {
	if !tx.m.schema.has(collection) {
		return fmt.Errorf("%s: %w", collection, ErrUnknownCollection)
	}

	existing := tx.get(collection, id)
	if existing != nil && mustBeNew {
		return fmt.Errorf("%s/%s: %w", collection, id, ErrDuplicate)
	}

	fields, err := indexFields(tx.m.schema[collection], data)
	if err != nil {
		return fmt.Errorf("%s/%s: %w", collection, id, err)
	}

	for _, idx := range tx.m.schema[collection] {
		v := fields[idx.Field]
		if !idx.Unique || v == "" {
			continue
		}
		// El estado visible ya respeta el índice; sin cambio de valor no hay nada que revisar
		if existing != nil && existing.fields[idx.Field] == v {
			continue
		}
		if tx.taken(collection, idx.Field, v, id) {
			return fmt.Errorf("%s.%s=%q: %w", collection, idx.Field, v, ErrConstraint)
		}
	}

	var seq int64
	if existing != nil {
		seq = existing.seq
	} else {
		tx.m.seq++
		seq = tx.m.seq
	}

	buf := make([]byte, len(data))
	copy(buf, data)
	tx.put(collection, id, &record{id: id, seq: seq, data: buf, fields: fields})
	return nil
}

func (tx *memoryTx) Add(ctx context.Context, collection, id string, data []byte) error {
	return tx.write(collection, id, data, true)
}

func (tx *memoryTx) Update(ctx context.Context, collection, id string, data []byte) error {
	return tx.write(collection, id, data, false)
}

func (tx *memoryTx) Delete(ctx context.Context, collection, id string) error {
	if !tx.m.schema.has(collection) {
		return fmt.Errorf("%s: %w", collection, ErrUnknownCollection)
	}
	tx.put(collection, id, nil)
	return nil
}

func (tx *memoryTx) Clear(ctx context.Context, collection string) error {
	if !tx.m.schema.has(collection) {
		return fmt.Errorf("%s: %w", collection, ErrUnknownCollection)
	}
	tx.cleared[collection] = true
	delete(tx.overlay, collection)
	return nil
}

func (tx *memoryTx) Get(ctx context.Context, collection, id string) ([]byte, error) {
	if !tx.m.schema.has(collection) {
		return nil, fmt.Errorf("%s: %w", collection, ErrUnknownCollection)
	}
	if r := tx.get(collection, id); r != nil {
		return r.data, nil
	}
	return nil, nil
}

func (tx *memoryTx) GetAll(ctx context.Context, collection string) ([][]byte, error) {
	if !tx.m.schema.has(collection) {
		return nil, fmt.Errorf("%s: %w", collection, ErrUnknownCollection)
	}
	return payloads(tx.view(collection), "", ""), nil
}

func (tx *memoryTx) GetByIndex(ctx context.Context, collection, index, value string) ([][]byte, error) {
	if _, err := tx.m.schema.index(collection, index); err != nil {
		return nil, fmt.Errorf("%s.%s: %w", collection, index, err)
	}
	return payloads(tx.view(collection), index, value), nil
}

func (tx *memoryTx) Count(ctx context.Context, collection string) (int, error) {
	if !tx.m.schema.has(collection) {
		return 0, fmt.Errorf("%s: %w", collection, ErrUnknownCollection)
	}
	return len(tx.view(collection)), nil
}

// Atomic dentro de una unidad se une a ella
func (tx *memoryTx) Atomic(ctx context.Context, fn func(tx Store) error) error {
	return fn(tx)
}

func (tx *memoryTx) Lock(ctx context.Context, key string) error { return nil }

func (tx *memoryTx) Ping(ctx context.Context) error { return tx.m.Ping(ctx) }

func (tx *memoryTx) Close() error { return nil }

func (tx *memoryTx) commit() {
	tx.m.mu.Lock()
	defer tx.m.mu.Unlock()

	for collection := range tx.cleared {
		tx.m.data[collection] = make(map[string]*record)
	}
	for collection, ov := range tx.overlay {
		coll := tx.m.data[collection]
		for id, r := range ov {
			if r == nil {
				delete(coll, id)
				continue
			}
			coll[id] = r
		}
	}
}

// sorted mezcla base y overlay en orden de inserción
func sorted(base, overlay map[string]*record, merge bool) []*record {
	out := make([]*record, 0, len(base)+len(overlay))
	for id, r := range base {
		if merge {
			if _, shadowed := overlay[id]; shadowed {
				continue
			}
		}
		out = append(out, r)
	}
	for _, r := range overlay {
		if r != nil {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].seq < out[j].seq })
	return out
}

func payloads(records []*record, index, value string) [][]byte {
	out := make([][]byte, 0, len(records))
	for _, r := range records {
		if index != "" && r.fields[index] != value {
			continue
		}
		out = append(out, r.data)
	}
	return out
}

// indexFields extrae como texto los campos indexados, igual que data->>'campo' en PostgreSQL
func indexFields(indexes []Index, data []byte) (map[string]string, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var doc map[string]interface{}
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("registro no es un objeto JSON: %w", err)
	}

	fields := make(map[string]string, len(indexes))
	for _, idx := range indexes {
		switch v := doc[idx.Field].(type) {
		case string:
			fields[idx.Field] = v
		case json.Number:
			fields[idx.Field] = v.String()
		case bool:
			fields[idx.Field] = strconv.FormatBool(v)
		}
	}
	return fields, nil
}
