package repository

import (
	"sync"
	"time"
)

type MemoryDraftRepository struct {
	drafts sync.Map
}

func NewMemoryDraftRepository() *MemoryDraftRepository {
	return &MemoryDraftRepository{}
}

func (r *MemoryDraftRepository) Save(d *Draft) error {
	if old, ok := r.drafts.Load(d.ID); ok && d.ID != "" && d.CreatedAt.IsZero() {
		d.CreatedAt = old.(*Draft).CreatedAt
	}
	if _, err := d.prepare(time.Now().UTC()); err != nil {
		return err
	}
	r.drafts.Store(d.ID, d.clone())
	return nil
}

func (r *MemoryDraftRepository) Get(id DraftID) (*Draft, error) {
	if draft, ok := r.drafts.Load(id); ok {
		return draft.(*Draft).clone(), nil
	}
	return nil, ErrDraftNotFound
}

func (r *MemoryDraftRepository) Delete(id DraftID) error {
	if _, ok := r.drafts.LoadAndDelete(id); !ok {
		return ErrDraftNotFound
	}
	return nil
}

func (r *MemoryDraftRepository) List() ([]Draft, error) {
	drafts := make([]Draft, 0)
	r.drafts.Range(func(_, v any) bool {
		drafts = append(drafts, *v.(*Draft).clone())
		return true
	})
	sortDrafts(drafts)
	return drafts, nil
}
