package repo

import (
	"context"
	"errors"
	"sync"
	"time"
)

var ErrNotFound = errors.New("not found")

// Record is a stored archive. ID is derived from Data, so saving the same
// archive twice is a no-op.
type Record struct {
	ID        string
	Symbols   uint64
	Data      []byte
	CreatedAt time.Time
}

type ArchiveRepo interface {
	Save(ctx context.Context, rec *Record) error
	FindByID(ctx context.Context, id string) (*Record, error)
}

type archiveRepoInMemory struct {
	mu    sync.RWMutex
	store map[string]*Record
}

func NewArchiveRepoInMemory() ArchiveRepo {
	return &archiveRepoInMemory{store: make(map[string]*Record)}
}

func (r *archiveRepoInMemory) Save(_ context.Context, rec *Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.store[rec.ID]; ok {
		return nil
	}
	cp := *rec
	cp.Data = append([]byte(nil), rec.Data...)
	r.store[rec.ID] = &cp
	return nil
}

func (r *archiveRepoInMemory) FindByID(_ context.Context, id string) (*Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.store[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *rec
	return &cp, nil
}
