package supervision

import "context"

type Repository interface {
	// GetByPropositionID fails with ErrGroupNotFound.
	GetByPropositionID(ctx context.Context, propositionID string) (*Group, error)
	// Save upserts the group and all of its signatures.
	Save(ctx context.Context, group *Group) error
	// AddMember stores a single new signature of groupID and returns its actor id.
	AddMember(ctx context.Context, groupID string, sig Signature) (string, error)
	RemoveMember(ctx context.Context, groupID, actorID string) error
}
