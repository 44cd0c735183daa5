package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/trezcool/admission/core"
	"github.com/trezcool/admission/core/proposition"
)

type propositionRepository struct {
	db *propositionTable
}

var _ proposition.Repository = (*propositionRepository)(nil) // interface compliance check

func NewPropositionRepository(db *DB) proposition.Repository {
	return &propositionRepository{db: db.proposition}
}

func (repo *propositionRepository) Get(_ context.Context, id string) (*proposition.Proposition, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	p, ok := repo.db.t[id]
	if !ok {
		return nil, proposition.ErrPropositionNotFound
	}
	c := clone(*p)
	return &c, nil
}

func (repo *propositionRepository) Save(_ context.Context, p *proposition.Proposition) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	stored, ok := repo.db.t[p.ID]
	switch {
	case ok && stored.Version != p.Version:
		return proposition.ErrConcurrentModification
	case !ok && p.Version != 0:
		return proposition.ErrConcurrentModification
	}
	p.Version++
	c := clone(*p)
	repo.db.t[p.ID] = &c
	return nil
}

func matches(p proposition.Proposition, f proposition.Filter) bool {
	if f.ApplicantID != "" && p.ApplicantID != f.ApplicantID {
		return false
	}
	if f.ProgramID != "" && p.ProgramID != f.ProgramID {
		return false
	}
	if f.Kind != "" && p.ProgramKind != f.Kind {
		return false
	}
	if f.ManagerInCharge != "" && p.ManagerInCharge != f.ManagerInCharge {
		return false
	}
	if f.Reference != "" && !strings.Contains(p.FormattedReference(), strings.ToUpper(f.Reference)) {
		return false
	}
	if len(f.Statuses) > 0 {
		for _, s := range f.Statuses {
			if p.Status == s {
				return true
			}
		}
		return false
	}
	return true
}

func less(a, b proposition.Proposition, ordering []core.DBOrdering) bool {
	for _, ord := range ordering {
		var cmp int
		switch ord.Field {
		case "reference":
			cmp = compare(a.Reference, b.Reference)
		case "created_at":
			cmp = compare(a.CreatedAt.UnixNano(), b.CreatedAt.UnixNano())
		case "updated_at":
			cmp = compare(a.UpdatedAt.UnixNano(), b.UpdatedAt.UnixNano())
		case "status":
			cmp = strings.Compare(string(a.Status), string(b.Status))
		}
		if cmp != 0 {
			return (cmp < 0) == ord.Ascending
		}
	}
	return a.Reference < b.Reference
}

func compare(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func (repo *propositionRepository) Search(_ context.Context, f proposition.Filter) ([]proposition.Proposition, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	props := make([]proposition.Proposition, 0)
	for _, p := range repo.db.t {
		if matches(*p, f) {
			props = append(props, clone(*p))
		}
	}
	sort.Slice(props, func(i, j int) bool { return less(props[i], props[j], f.Ordering) })
	if f.Limit > 0 && len(props) > f.Limit {
		props = props[:f.Limit]
	}
	return props, nil
}

func (repo *propositionRepository) CountOpen(_ context.Context, applicantID string) (int, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var n int
	for _, p := range repo.db.t {
		if p.ApplicantID == applicantID && p.Status.Open() {
			n++
		}
	}
	return n, nil
}

func (repo *propositionRepository) NextReference(context.Context) (int64, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	ref := repo.db.nextRef
	repo.db.nextRef++
	return ref, nil
}
