package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/admission/core/document"
)

type documentRepository struct {
	db *documentTable
}

var _ document.Repository = (*documentRepository)(nil) // interface compliance check

func NewDocumentRepository(db *DB) document.Repository {
	return &documentRepository{db: db.document}
}

func (repo *documentRepository) Search(_ context.Context, propositionIDs []string, statuses ...document.Status) ([]document.Request, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	ids := propositionIDs
	if len(ids) == 0 {
		ids = make([]string, 0, len(repo.db.t))
		for id := range repo.db.t {
			ids = append(ids, id)
		}
	}
	reqs := make([]document.Request, 0)
	for _, id := range ids {
		for _, r := range repo.db.t[id] {
			if hasStatus(r, statuses) {
				reqs = append(reqs, clone(r))
			}
		}
	}
	sort.Slice(reqs, func(i, j int) bool {
		if reqs[i].PropositionID != reqs[j].PropositionID {
			return reqs[i].PropositionID < reqs[j].PropositionID
		}
		return reqs[i].Slot < reqs[j].Slot
	})
	return reqs, nil
}

func hasStatus(r document.Request, statuses []document.Status) bool {
	if len(statuses) == 0 {
		return true
	}
	for _, s := range statuses {
		if r.Status == s {
			return true
		}
	}
	return false
}

func (repo *documentRepository) SaveMultiple(_ context.Context, requests []document.Request, _ string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, r := range requests {
		slots, ok := repo.db.t[r.PropositionID]
		if !ok {
			slots = make(map[string]document.Request)
			repo.db.t[r.PropositionID] = slots
		}
		slots[r.Slot] = clone(r)
	}
	return nil
}

func (repo *documentRepository) Delete(_ context.Context, propositionID string, slots ...string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, slot := range slots {
		delete(repo.db.t[propositionID], slot)
	}
	return nil
}
