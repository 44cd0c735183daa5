package sqlxrepos

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/admission/core/document"
)

const documentColumns = `proposition_id, slot, kind, status, body, timing, requested_by, requested_at,
	deadline, message, files, answer, completed_by, completed_at`

const upsertDocument = `INSERT INTO document_request (` + documentColumns + `, modified_by) VALUES (
	:proposition_id, :slot, :kind, :status, :body, :timing, :requested_by, :requested_at,
	:deadline, :message, :files, :answer, :completed_by, :completed_at, :modified_by)
	ON CONFLICT (proposition_id, slot) DO UPDATE SET
	kind = EXCLUDED.kind, status = EXCLUDED.status, body = EXCLUDED.body, timing = EXCLUDED.timing,
	requested_by = EXCLUDED.requested_by, requested_at = EXCLUDED.requested_at, deadline = EXCLUDED.deadline,
	message = EXCLUDED.message, files = EXCLUDED.files, answer = EXCLUDED.answer,
	completed_by = EXCLUDED.completed_by, completed_at = EXCLUDED.completed_at, modified_by = EXCLUDED.modified_by`

type documentRow struct {
	PropositionID string         `db:"proposition_id"`
	Slot          string         `db:"slot"`
	Kind          string         `db:"kind"`
	Status        string         `db:"status"`
	Body          null.String    `db:"body"`
	Timing        null.String    `db:"timing"`
	RequestedBy   null.String    `db:"requested_by"`
	RequestedAt   null.Time      `db:"requested_at"`
	Deadline      null.Time      `db:"deadline"`
	Message       string         `db:"message"`
	Files         types.JSONText `db:"files"`
	Answer        string         `db:"answer"`
	CompletedBy   null.String    `db:"completed_by"`
	CompletedAt   null.Time      `db:"completed_at"`
	ModifiedBy    string         `db:"modified_by"`
}

type documentRepository struct {
	db *DB
}

var _ document.Repository = (*documentRepository)(nil) // interface compliance check

func NewDocumentRepository(db *DB) document.Repository {
	return &documentRepository{db: db}
}

func toDocumentRow(r document.Request, actor string) (documentRow, error) {
	row := documentRow{
		PropositionID: r.PropositionID,
		Slot:          r.Slot,
		Kind:          string(r.Kind),
		Status:        string(r.Status),
		Body:          nullString(string(r.Body)),
		Timing:        nullString(string(r.Timing)),
		RequestedBy:   nullString(r.RequestedBy),
		RequestedAt:   null.NewTime(r.RequestedAt.UTC(), !r.RequestedAt.IsZero()),
		Deadline:      null.NewTime(r.Deadline.UTC(), !r.Deadline.IsZero()),
		Message:       r.Message,
		Answer:        r.Answer,
		CompletedBy:   nullString(r.CompletedBy),
		CompletedAt:   null.NewTime(r.CompletedAt.UTC(), !r.CompletedAt.IsZero()),
		ModifiedBy:    actor,
	}
	files := r.Files
	if files == nil {
		files = []string{}
	}
	var err error
	row.Files, err = toJSON(files)
	return row, err
}

func (row documentRow) request() (document.Request, error) {
	r := document.Request{
		PropositionID: row.PropositionID,
		Slot:          row.Slot,
		Kind:          document.Kind(row.Kind),
		Status:        document.Status(row.Status),
		Body:          document.Body(row.Body.String),
		Timing:        document.Timing(row.Timing.String),
		RequestedBy:   row.RequestedBy.String,
		Message:       row.Message,
		Answer:        row.Answer,
		CompletedBy:   row.CompletedBy.String,
	}
	if row.RequestedAt.Valid {
		r.RequestedAt = row.RequestedAt.Time.UTC()
	}
	if row.Deadline.Valid {
		r.Deadline = row.Deadline.Time.UTC()
	}
	if row.CompletedAt.Valid {
		r.CompletedAt = row.CompletedAt.Time.UTC()
	}
	if err := fromJSON(row.Files, &r.Files); err != nil {
		return r, err
	}
	if len(r.Files) == 0 {
		r.Files = nil
	}
	return r, nil
}

func (repo *documentRepository) Search(ctx context.Context, propositionIDs []string, statuses ...document.Status) ([]document.Request, error) {
	var (
		where []string
		args  []interface{}
	)
	if len(propositionIDs) > 0 {
		args = append(args, pq.Array(propositionIDs))
		where = append(where, fmt.Sprintf("proposition_id = ANY($%d::uuid[])", len(args)))
	}
	if len(statuses) > 0 {
		st := make([]string, len(statuses))
		for i, s := range statuses {
			st[i] = string(s)
		}
		args = append(args, pq.Array(st))
		where = append(where, fmt.Sprintf("status = ANY($%d)", len(args)))
	}

	q := `SELECT ` + documentColumns + ` FROM document_request`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY proposition_id, slot"

	var rows []documentRow
	if err := sqlx.SelectContext(ctx, repo.db.ext(ctx), &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "searching document requests")
	}
	reqs := make([]document.Request, 0, len(rows))
	for _, row := range rows {
		r, err := row.request()
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, r)
	}
	return reqs, nil
}

func (repo *documentRepository) SaveMultiple(ctx context.Context, requests []document.Request, actor string) error {
	return repo.db.WithinTx(ctx, func(ctx context.Context) error {
		ext := repo.db.ext(ctx)
		for _, r := range requests {
			row, err := toDocumentRow(r, actor)
			if err != nil {
				return err
			}
			if _, err = sqlx.NamedExecContext(ctx, ext, upsertDocument, row); err != nil {
				return errors.Wrapf(err, "saving document request %s", r.Slot)
			}
		}
		return nil
	})
}

func (repo *documentRepository) Delete(ctx context.Context, propositionID string, slots ...string) error {
	if len(slots) == 0 {
		return nil
	}
	q := `DELETE FROM document_request WHERE proposition_id = $1 AND slot = ANY($2)`
	if _, err := repo.db.ext(ctx).ExecContext(ctx, q, propositionID, pq.Array(slots)); err != nil {
		return errors.Wrap(err, "deleting document requests")
	}
	return nil
}
