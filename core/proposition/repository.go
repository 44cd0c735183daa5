package proposition

import (
	"context"

	"github.com/trezcool/admission/core"
	"github.com/trezcool/admission/core/catalog"
)

type Filter struct {
	ApplicantID     string
	ProgramID       string
	Kind            catalog.ProgramKind
	Statuses        []Status
	ManagerInCharge string
	Reference       string // matched against the formatted reference
	Ordering        []core.DBOrdering
	Limit           int
}

type Repository interface {
	// Get fails with ErrPropositionNotFound.
	Get(ctx context.Context, id string) (*Proposition, error)
	// Save inserts or updates p, failing with ErrConcurrentModification when the stored
	// version is not p.Version. p.Version is incremented on success.
	Save(ctx context.Context, p *Proposition) error
	Search(ctx context.Context, f Filter) ([]Proposition, error)
	CountOpen(ctx context.Context, applicantID string) (int, error)
	NextReference(ctx context.Context) (int64, error)
}
