package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

// memoryRow is the single-row table backing the memory document in Postgres.
type memoryRow struct {
	bun.BaseModel `bun:"table:assistant_memory"`

	ID        int64     `bun:"id,pk"`
	Payload   []byte    `bun:"payload,type:jsonb,notnull"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}

const memoryRowID = 1

type PostgresConfig struct {
	DSN     string        `envconfig:"DSN" split_words:"true"`
	Timeout time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"10s"`
}

// PostgresStore persists the memory document in a single jsonb row.
type PostgresStore struct {
	db     *bun.DB
	closed atomic.Bool
}

func NewPostgresStore(ctx context.Context, cfg PostgresConfig) (*PostgresStore, error) {
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, errors.New("postgres dsn is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(
		pgdriver.WithDSN(dsn),
		pgdriver.WithTimeout(timeout),
	))
	db := bun.NewDB(sqldb, pgdialect.New())

	if _, err := db.NewCreateTable().
		Model((*memoryRow)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return nil, fmt.Errorf("create memory table: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Load(ctx context.Context) (*Document, error) {
	if s.closed.Load() {
		return nil, ErrStoreClosed
	}
	row := new(memoryRow)
	err := s.db.NewSelect().
		Model(row).
		Where("id = ?", memoryRowID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDocumentNotFound
		}
		return nil, fmt.Errorf("load memory row: %w", err)
	}

	var doc Document
	if err := json.Unmarshal(row.Payload, &doc); err != nil {
		return nil, fmt.Errorf("decode memory row: %w", err)
	}
	return &doc, nil
}

func (s *PostgresStore) Save(ctx context.Context, doc *Document) error {
	if s.closed.Load() {
		return ErrStoreClosed
	}
	if doc == nil {
		return ErrNilDocument
	}

	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode memory document: %w", err)
	}

	row := &memoryRow{
		ID:        memoryRowID,
		Payload:   payload,
		UpdatedAt: time.Now().UTC(),
	}
	_, err = s.db.NewInsert().
		Model(row).
		On("CONFLICT (id) DO UPDATE").
		Set("payload = EXCLUDED.payload").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("save memory row: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.db.Close()
}
