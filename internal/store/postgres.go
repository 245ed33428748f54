package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

const pgUniqueViolation = "23505"

var identRe = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// execer es lo común entre *sql.DB y *sql.Tx
type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// PostgresStore guarda cada registro como una fila JSONB de la tabla records.
// Los índices del esquema se crean como índices de expresión sobre data->>'campo'.
type PostgresStore struct {
	db     *sql.DB
	q      execer
	inTx   bool
	schema Schema
	logger *zap.Logger
}

// NewPostgresStore usa un pool ya abierto y crea tabla e índices si faltan
func NewPostgresStore(ctx context.Context, db *sql.DB, schema Schema, logger *zap.Logger) (*PostgresStore, error) {
	s := &PostgresStore{db: db, q: db, schema: schema, logger: logger}
	if err := s.migrate(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS records (
			collection TEXT NOT NULL,
			id         TEXT NOT NULL,
			data       JSONB NOT NULL,
			seq        BIGSERIAL,
			PRIMARY KEY (collection, id)
		)`,
		`CREATE INDEX IF NOT EXISTS records_collection_seq_idx ON records (collection, seq)`,
	}

	for collection, indexes := range s.schema {
		for _, idx := range indexes {
			if !identRe.MatchString(collection) || !identRe.MatchString(idx.Field) {
				return fmt.Errorf("invalid index name %s.%s", collection, idx.Field)
			}
			name := fmt.Sprintf("records_%s_%s_idx", collection, idx.Field)
			if idx.Unique {
				stmts = append(stmts, fmt.Sprintf(
					`CREATE UNIQUE INDEX IF NOT EXISTS %s ON records ((data->>'%s')) WHERE collection = '%s' AND COALESCE(data->>'%s', '') <> ''`,
					name, idx.Field, collection, idx.Field))
				continue
			}
			stmts = append(stmts, fmt.Sprintf(
				`CREATE INDEX IF NOT EXISTS %s ON records ((data->>'%s')) WHERE collection = '%s'`,
				name, idx.Field, collection))
		}
	}

	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to migrate records table: %w", err)
		}
	}

	s.logger.Info("Records table ready", zap.Int("collections", len(s.schema)))
	return nil
}

func (s *PostgresStore) check(collection string) error {
	if !s.schema.has(collection) {
		return fmt.Errorf("%s: %w", collection, ErrUnknownCollection)
	}
	return nil
}

func (s *PostgresStore) Add(ctx context.Context, collection, id string, data []byte) error {
	if err := s.check(collection); err != nil {
		return err
	}
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO records (collection, id, data) VALUES ($1, $2, $3)`,
		collection, id, string(data))
	return translate(collection, id, err)
}

func (s *PostgresStore) Update(ctx context.Context, collection, id string, data []byte) error {
	if err := s.check(collection); err != nil {
		return err
	}
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO records (collection, id, data) VALUES ($1, $2, $3)
		 ON CONFLICT (collection, id) DO UPDATE SET data = EXCLUDED.data`,
		collection, id, string(data))
	return translate(collection, id, err)
}

func (s *PostgresStore) Delete(ctx context.Context, collection, id string) error {
	if err := s.check(collection); err != nil {
		return err
	}
	if _, err := s.q.ExecContext(ctx, `DELETE FROM records WHERE collection = $1 AND id = $2`, collection, id); err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *PostgresStore) Clear(ctx context.Context, collection string) error {
	if err := s.check(collection); err != nil {
		return err
	}
	if _, err := s.q.ExecContext(ctx, `DELETE FROM records WHERE collection = $1`, collection); err != nil {
		return fmt.Errorf("failed to clear %s: %w", collection, err)
	}
	return nil
}

// Get dentro de una transacción bloquea la fila hasta el commit
func (s *PostgresStore) Get(ctx context.Context, collection, id string) ([]byte, error) {
	if err := s.check(collection); err != nil {
		return nil, err
	}
	query := `SELECT data FROM records WHERE collection = $1 AND id = $2`
	if s.inTx {
		query += ` FOR UPDATE`
	}

	var data []byte
	err := s.q.QueryRowContext(ctx, query, collection, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s/%s: %w", collection, id, err)
	}
	return data, nil
}

func (s *PostgresStore) GetAll(ctx context.Context, collection string) ([][]byte, error) {
	if err := s.check(collection); err != nil {
		return nil, err
	}
	return s.query(ctx, `SELECT data FROM records WHERE collection = $1 ORDER BY seq`, collection)
}

func (s *PostgresStore) GetByIndex(ctx context.Context, collection, index, value string) ([][]byte, error) {
	if _, err := s.schema.index(collection, index); err != nil {
		return nil, fmt.Errorf("%s.%s: %w", collection, index, err)
	}
	return s.query(ctx,
		fmt.Sprintf(`SELECT data FROM records WHERE collection = $1 AND data->>'%s' = $2 ORDER BY seq`, index),
		collection, value)
}

func (s *PostgresStore) Count(ctx context.Context, collection string) (int, error) {
	if err := s.check(collection); err != nil {
		return 0, err
	}
	var n int
	if err := s.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM records WHERE collection = $1`, collection).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", collection, err)
	}
	return n, nil
}

func (s *PostgresStore) query(ctx context.Context, query string, args ...interface{}) ([][]byte, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	var out [][]byte
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		out = append(out, data)
	}
	return out, rows.Err()
}

// Atomic abre una transacción SQL; dentro de una ya abierta, fn se une a ella
func (s *PostgresStore) Atomic(ctx context.Context, fn func(tx Store) error) error {
	if s.inTx {
		return fn(s)
	}

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	tx := &PostgresStore{db: s.db, q: sqlTx, inTx: true, schema: s.schema, logger: s.logger}
	if err := fn(tx); err != nil {
		if rbErr := sqlTx.Rollback(); rbErr != nil {
			s.logger.Error("Rollback failed", zap.Error(rbErr))
		}
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Lock toma un advisory lock de transacción; fuera de una transacción no hace nada
func (s *PostgresStore) Lock(ctx context.Context, key string) error {
	if !s.inTx {
		return nil
	}
	if _, err := s.q.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, key); err != nil {
		return fmt.Errorf("failed to lock %s: %w", key, err)
	}
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) Close() error {
	if s.inTx {
		return nil
	}
	return s.db.Close()
}

// Stats expone el pool para el monitoreo
func (s *PostgresStore) Stats() sql.DBStats {
	return s.db.Stats()
}

func translate(collection, id string, err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pgUniqueViolation {
		if pqErr.Constraint == "records_pkey" {
			return fmt.Errorf("%s/%s: %w", collection, id, ErrDuplicate)
		}
		return fmt.Errorf("%s/%s (%s): %w", collection, id, pqErr.Constraint, ErrConstraint)
	}
	return fmt.Errorf("failed to write %s/%s: %w", collection, id, err)
}
