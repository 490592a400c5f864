package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/themodeller/modeller/pkg/diagfile"
)

// PGStore implements Store using PostgreSQL via pgx.
type PGStore struct {
	db *pgxpool.Pool
}

// NewPGStore creates a PGStore backed by the given pgx connection pool.
func NewPGStore(db *pgxpool.Pool) *PGStore {
	return &PGStore{db: db}
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS diagrams (
    id         TEXT PRIMARY KEY,
    name       TEXT NOT NULL DEFAULT '',
    document   JSONB NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_diagrams_updated ON diagrams(updated_at);
`

// CreateSchema creates the diagrams table if it doesn't exist.
func (s *PGStore) CreateSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, schemaSQL)
	return err
}

// DropSchema drops the diagrams table.
func (s *PGStore) DropSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `DROP TABLE IF EXISTS diagrams CASCADE;`)
	return err
}

// SaveDiagram validates the document and upserts the record. New records
// get a fresh UUID.
func (s *PGStore) SaveDiagram(ctx context.Context, rec *DiagramRecord) error {
	if _, err := diagfile.ParseDocument(rec.Document); err != nil {
		return fmt.Errorf("store: %w", err)
	}
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}

	row := s.db.QueryRow(ctx, `
		INSERT INTO diagrams (id, name, document)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			document = EXCLUDED.document,
			updated_at = NOW()
		RETURNING created_at, updated_at`,
		rec.ID.String(), rec.Name, rec.Document)
	if err := row.Scan(&rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return fmt.Errorf("store: save diagram %s: %w", rec.ID, err)
	}
	return nil
}

// GetDiagram retrieves a stored diagram by ID.
func (s *PGStore) GetDiagram(ctx context.Context, id uuid.UUID) (*DiagramRecord, error) {
	rec := &DiagramRecord{ID: id}
	row := s.db.QueryRow(ctx, `
		SELECT name, document, created_at, updated_at
		FROM diagrams WHERE id = $1`, id.String())
	err := row.Scan(&rec.Name, &rec.Document, &rec.CreatedAt, &rec.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrDiagramNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: get diagram %s: %w", id, err)
	}
	return rec, nil
}

// ListDiagrams returns listing info for all stored diagrams, most recently
// updated first.
func (s *PGStore) ListDiagrams(ctx context.Context) ([]DiagramInfo, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, name, updated_at FROM diagrams ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("store: list diagrams: %w", err)
	}
	defer rows.Close()

	var infos []DiagramInfo
	for rows.Next() {
		var idText string
		var info DiagramInfo
		if err := rows.Scan(&idText, &info.Name, &info.UpdatedAt); err != nil {
			return nil, fmt.Errorf("store: scan diagram row: %w", err)
		}
		info.ID, err = uuid.Parse(idText)
		if err != nil {
			return nil, fmt.Errorf("store: bad diagram id %q: %w", idText, err)
		}
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

// DeleteDiagram removes a stored diagram.
func (s *PGStore) DeleteDiagram(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM diagrams WHERE id = $1`, id.String())
	if err != nil {
		return fmt.Errorf("store: delete diagram %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrDiagramNotFound
	}
	return nil
}
