// Package store persists design documents for shared access.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrDiagramNotFound is returned when a requested diagram does not exist.
var ErrDiagramNotFound = errors.New("diagram not found")

// DiagramRecord is a stored design document with its metadata.
type DiagramRecord struct {
	ID        uuid.UUID
	Name      string
	Document  []byte
	CreatedAt time.Time
	UpdatedAt time.Time
}

// DiagramInfo is the listing view of a stored diagram.
type DiagramInfo struct {
	ID        uuid.UUID
	Name      string
	UpdatedAt time.Time
}

// Store persists diagrams. SaveDiagram assigns an ID to new records and
// upserts existing ones; the document is validated before it is written.
type Store interface {
	SaveDiagram(ctx context.Context, rec *DiagramRecord) error
	GetDiagram(ctx context.Context, id uuid.UUID) (*DiagramRecord, error)
	ListDiagrams(ctx context.Context) ([]DiagramInfo, error)
	DeleteDiagram(ctx context.Context, id uuid.UUID) error
}
