package inmemdb

import (
	"context"

	"github.com/trezcool/admission/core/supervision"
)

type groupRepository struct {
	db *groupTable
}

var _ supervision.Repository = (*groupRepository)(nil) // interface compliance check

func NewGroupRepository(db *DB) supervision.Repository {
	return &groupRepository{db: db.group}
}

func (repo *groupRepository) GetByPropositionID(_ context.Context, propositionID string) (*supervision.Group, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	g, ok := repo.db.t[propositionID]
	if !ok {
		return nil, supervision.ErrGroupNotFound
	}
	c := clone(*g)
	return &c, nil
}

func (repo *groupRepository) Save(_ context.Context, g *supervision.Group) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	c := clone(*g)
	repo.db.t[g.PropositionID] = &c
	return nil
}

func (repo *groupRepository) find(groupID string) (*supervision.Group, bool) {
	for _, g := range repo.db.t {
		if g.ID == groupID {
			return g, true
		}
	}
	return nil, false
}

func (repo *groupRepository) AddMember(_ context.Context, groupID string, sig supervision.Signature) (string, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	g, ok := repo.find(groupID)
	if !ok {
		return "", supervision.ErrGroupNotFound
	}
	g.Signatures = append(g.Signatures, clone(sig))
	return sig.Actor.ID, nil
}

func (repo *groupRepository) RemoveMember(_ context.Context, groupID, actorID string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	g, ok := repo.find(groupID)
	if !ok {
		return supervision.ErrGroupNotFound
	}
	for i, s := range g.Signatures {
		if s.Actor.ID == actorID {
			g.Signatures = append(g.Signatures[:i:i], g.Signatures[i+1:]...)
			if g.ReferencePromoterID == actorID {
				g.ReferencePromoterID = ""
			}
			return nil
		}
	}
	return supervision.ErrMemberNotFound
}
