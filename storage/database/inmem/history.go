package inmemdb

import (
	"context"

	"github.com/trezcool/admission/core/history"
)

type historyRepository struct {
	db *historyTable
}

var _ history.Repository = (*historyRepository)(nil) // interface compliance check

func NewHistoryRepository(db *DB) history.Repository {
	return &historyRepository{db: db.history}
}

func (repo *historyRepository) Add(_ context.Context, e history.Entry) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.db.t = append(repo.db.t, clone(e))
	return nil
}

func (repo *historyRepository) Search(_ context.Context, propositionID string, tags ...history.Tag) ([]history.Entry, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	entries := make([]history.Entry, 0)
outer:
	for _, e := range repo.db.t {
		if e.PropositionID != propositionID {
			continue
		}
		for _, tag := range tags {
			if !e.HasTag(tag) {
				continue outer
			}
		}
		entries = append(entries, clone(e))
	}
	return entries, nil
}
