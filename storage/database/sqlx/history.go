package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/admission/core/history"
)

type historyRow struct {
	ID            string         `db:"id"`
	PropositionID string         `db:"proposition_id"`
	MessageFR     string         `db:"message_fr"`
	MessageEN     string         `db:"message_en"`
	Author        string         `db:"author"`
	Tags          pq.StringArray `db:"tags"`
	CreatedAt     time.Time      `db:"created_at"`
}

type historyRepository struct {
	db *DB
}

var _ history.Repository = (*historyRepository)(nil) // interface compliance check

func NewHistoryRepository(db *DB) history.Repository {
	return &historyRepository{db: db}
}

func tagStrings(tags []history.Tag) pq.StringArray {
	s := make(pq.StringArray, len(tags))
	for i, t := range tags {
		s[i] = string(t)
	}
	return s
}

func (repo *historyRepository) Add(ctx context.Context, e history.Entry) error {
	row := historyRow{
		ID:            e.ID,
		PropositionID: e.PropositionID,
		MessageFR:     e.MessageFR,
		MessageEN:     e.MessageEN,
		Author:        e.Author,
		Tags:          tagStrings(e.Tags),
		CreatedAt:     e.CreatedAt.UTC(),
	}
	q := `INSERT INTO history_entry (id, proposition_id, message_fr, message_en, author, tags, created_at)
	VALUES (:id, :proposition_id, :message_fr, :message_en, :author, :tags, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, repo.db.ext(ctx), q, row); err != nil {
		return errors.Wrap(err, "adding history entry")
	}
	return nil
}

func (repo *historyRepository) Search(ctx context.Context, propositionID string, tags ...history.Tag) ([]history.Entry, error) {
	var rows []historyRow
	q := `SELECT id, proposition_id, message_fr, message_en, author, tags, created_at FROM history_entry
	WHERE proposition_id = $1 AND tags @> $2 ORDER BY created_at, seq`
	if err := sqlx.SelectContext(ctx, repo.db.ext(ctx), &rows, q, propositionID, tagStrings(tags)); err != nil {
		return nil, errors.Wrap(err, "searching history entries")
	}

	entries := make([]history.Entry, 0, len(rows))
	for _, row := range rows {
		e := history.Entry{
			ID:            row.ID,
			PropositionID: row.PropositionID,
			MessageFR:     row.MessageFR,
			MessageEN:     row.MessageEN,
			Author:        row.Author,
			Tags:          make([]history.Tag, len(row.Tags)),
			CreatedAt:     row.CreatedAt.UTC(),
		}
		for i, t := range row.Tags {
			e.Tags[i] = history.Tag(t)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
