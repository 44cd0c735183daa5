package document

import "context"

type Repository interface {
	// Search returns the requests of propositionIDs (every proposition when empty),
	// restricted to statuses when given.
	Search(ctx context.Context, propositionIDs []string, statuses ...Status) ([]Request, error)
	// SaveMultiple upserts requests, keyed by proposition and slot.
	SaveMultiple(ctx context.Context, requests []Request, actor string) error
	Delete(ctx context.Context, propositionID string, slots ...string) error
}
