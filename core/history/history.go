// Package history keeps the append-only, bilingual log of what happened to a proposition.
package history

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/admission/core"
)

type Tag string

const (
	TagProposition  Tag = "proposition"
	TagSupervision  Tag = "supervision"
	TagDocuments    Tag = "documents"
	TagStatusChange Tag = "status-change"
	TagDecision     Tag = "decision"
)

var ErrEmptyEntry = core.NewBusinessError(core.KindValidation, "empty_history_entry", "a history entry needs a message in every language and an author")

type Entry struct {
	ID            string    `json:"id"`
	PropositionID string    `json:"proposition_id"`
	MessageFR     string    `json:"message_fr"`
	MessageEN     string    `json:"message_en"`
	Author        string    `json:"author"`
	Tags          []Tag     `json:"tags"`
	CreatedAt     time.Time `json:"created_at"`
}

// Message returns the message in lang, English by default.
func (e Entry) Message(lang string) string {
	if lang == "fr" {
		return e.MessageFR
	}
	return e.MessageEN
}

func (e Entry) HasTag(tag Tag) bool {
	for _, t := range e.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

type Repository interface {
	Add(ctx context.Context, e Entry) error
	// Search returns the entries of propositionID, oldest first, having every tag given.
	Search(ctx context.Context, propositionID string, tags ...Tag) ([]Entry, error)
}

type Historian interface {
	Record(ctx context.Context, propositionID, messageFR, messageEN, author string, tags ...Tag) error
}

// Service is the repository backed Historian.
type Service struct {
	repo Repository
}

var _ Historian = (*Service)(nil) // interface compliance check

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Record(ctx context.Context, propositionID, messageFR, messageEN, author string, tags ...Tag) error {
	e := Entry{
		ID:            uuid.NewString(),
		PropositionID: propositionID,
		MessageFR:     core.CleanString(messageFR),
		MessageEN:     core.CleanString(messageEN),
		Author:        core.CleanString(author),
		Tags:          tags,
		CreatedAt:     core.Now(),
	}
	if e.PropositionID == "" || e.MessageFR == "" || e.MessageEN == "" || e.Author == "" {
		return ErrEmptyEntry
	}
	if e.Tags == nil {
		e.Tags = []Tag{}
	}
	if err := svc.repo.Add(ctx, e); err != nil {
		return errors.Wrap(err, "recording history entry")
	}
	return nil
}

func (svc *Service) List(ctx context.Context, propositionID string, tags ...Tag) ([]Entry, error) {
	entries, err := svc.repo.Search(ctx, propositionID, tags...)
	if err != nil {
		return nil, errors.Wrap(err, "listing history entries")
	}
	return entries, nil
}
