package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/themodeller/modeller/pkg/diagfile"
)

// MemStore is an in-memory Store. It backs tests and database-less serving.
type MemStore struct {
	mu      sync.RWMutex
	records map[uuid.UUID]*DiagramRecord
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{records: make(map[uuid.UUID]*DiagramRecord)}
}

func (s *MemStore) SaveDiagram(ctx context.Context, rec *DiagramRecord) error {
	if _, err := diagfile.ParseDocument(rec.Document); err != nil {
		return fmt.Errorf("store: %w", err)
	}
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if existing, ok := s.records[rec.ID]; ok {
		rec.CreatedAt = existing.CreatedAt
	} else {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now

	stored := *rec
	stored.Document = append([]byte(nil), rec.Document...)
	s.records[rec.ID] = &stored
	return nil
}

func (s *MemStore) GetDiagram(ctx context.Context, id uuid.UUID) (*DiagramRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, ok := s.records[id]
	if !ok {
		return nil, ErrDiagramNotFound
	}
	rec := *stored
	rec.Document = append([]byte(nil), stored.Document...)
	return &rec, nil
}

func (s *MemStore) ListDiagrams(ctx context.Context) ([]DiagramInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	infos := make([]DiagramInfo, 0, len(s.records))
	for _, rec := range s.records {
		infos = append(infos, DiagramInfo{ID: rec.ID, Name: rec.Name, UpdatedAt: rec.UpdatedAt})
	}
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].UpdatedAt.After(infos[j].UpdatedAt)
	})
	return infos, nil
}

func (s *MemStore) DeleteDiagram(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[id]; !ok {
		return ErrDiagramNotFound
	}
	delete(s.records, id)
	return nil
}
