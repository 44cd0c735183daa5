package sqlxrepos

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/admission/core"
	"github.com/trezcool/admission/core/catalog"
	"github.com/trezcool/admission/core/proposition"
)

const propositionColumns = `id, reference, applicant_id, program_id, program_kind, admission_type, justification,
	commission, status, request_type, project, financing, accounting, curriculum, specific_answers,
	approval_details, refusal_reasons, manager_in_charge, created_at, updated_at, submitted_at,
	last_modified_by, version`

const (
	insertProposition = `INSERT INTO proposition (` + propositionColumns + `) VALUES (
	:id, :reference, :applicant_id, :program_id, :program_kind, :admission_type, :justification,
	:commission, :status, :request_type, :project, :financing, :accounting, :curriculum, :specific_answers,
	:approval_details, :refusal_reasons, :manager_in_charge, :created_at, :updated_at, :submitted_at,
	:last_modified_by, :version)`

	updateProposition = `UPDATE proposition SET
	justification = :justification, commission = :commission, status = :status, request_type = :request_type,
	project = :project, financing = :financing, accounting = :accounting, curriculum = :curriculum,
	specific_answers = :specific_answers, approval_details = :approval_details, refusal_reasons = :refusal_reasons,
	manager_in_charge = :manager_in_charge, updated_at = :updated_at, submitted_at = :submitted_at,
	last_modified_by = :last_modified_by, version = :version
	WHERE id = :id AND version = :expected_version`

	// formattedReference matches proposition.FormattedReference.
	formattedReference = `(CASE WHEN program_kind = 'DOCTORAL' THEN 'M-' ELSE 'L-' END)
	|| (reference / 1000)::text || '.' || lpad((reference % 1000)::text, 3, '0')`
)

// orderable maps the fields a search may be ordered by to their column.
var orderable = map[string]string{
	"reference":  "reference",
	"created_at": "created_at",
	"updated_at": "updated_at",
	"status":     "status",
}

type propositionRow struct {
	ID              string         `db:"id"`
	Reference       int64          `db:"reference"`
	ApplicantID     string         `db:"applicant_id"`
	ProgramID       string         `db:"program_id"`
	ProgramKind     string         `db:"program_kind"`
	AdmissionType   string         `db:"admission_type"`
	Justification   string         `db:"justification"`
	Commission      string         `db:"commission"`
	Status          string         `db:"status"`
	RequestType     null.String    `db:"request_type"`
	Project         types.JSONText `db:"project"`
	Financing       types.JSONText `db:"financing"`
	Accounting      types.JSONText `db:"accounting"`
	Curriculum      types.JSONText `db:"curriculum"`
	SpecificAnswers types.JSONText `db:"specific_answers"`
	ApprovalDetails null.JSON      `db:"approval_details"`
	RefusalReasons  null.JSON      `db:"refusal_reasons"`
	ManagerInCharge null.String    `db:"manager_in_charge"`
	CreatedAt       time.Time      `db:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at"`
	SubmittedAt     null.Time      `db:"submitted_at"`
	LastModifiedBy  string         `db:"last_modified_by"`
	Version         int            `db:"version"`
}

type propositionRepository struct {
	db *DB
}

var _ proposition.Repository = (*propositionRepository)(nil) // interface compliance check

func NewPropositionRepository(db *DB) proposition.Repository {
	return &propositionRepository{db: db}
}

func toPropositionRow(p *proposition.Proposition) (propositionRow, error) {
	row := propositionRow{
		ID:              p.ID,
		Reference:       p.Reference,
		ApplicantID:     p.ApplicantID,
		ProgramID:       p.ProgramID,
		ProgramKind:     string(p.ProgramKind),
		AdmissionType:   string(p.AdmissionType),
		Justification:   p.Justification,
		Commission:      p.Commission,
		Status:          string(p.Status),
		RequestType:     nullString(string(p.RequestType)),
		ManagerInCharge: nullString(p.ManagerInCharge),
		CreatedAt:       p.CreatedAt.UTC(),
		UpdatedAt:       p.UpdatedAt.UTC(),
		SubmittedAt:     null.TimeFromPtr(p.SubmittedAt),
		LastModifiedBy:  p.LastModifiedBy,
		Version:         p.Version,
	}
	answers := p.SpecificAnswers
	if answers == nil {
		answers = map[string]string{}
	}

	var err error
	for _, c := range []struct {
		dest *types.JSONText
		v    interface{}
	}{
		{&row.Project, p.Project},
		{&row.Financing, p.Financing},
		{&row.Accounting, p.Accounting},
		{&row.Curriculum, p.Curriculum},
		{&row.SpecificAnswers, answers},
	} {
		if *c.dest, err = toJSON(c.v); err != nil {
			return row, err
		}
	}
	if row.ApprovalDetails, err = toNullJSON(p.ApprovalDetails, p.ApprovalDetails != nil); err != nil {
		return row, err
	}
	if row.RefusalReasons, err = toNullJSON(p.RefusalReasons, p.RefusalReasons != nil); err != nil {
		return row, err
	}
	return row, nil
}

func (row propositionRow) proposition() (proposition.Proposition, error) {
	p := proposition.Proposition{
		ID:              row.ID,
		Reference:       row.Reference,
		ApplicantID:     row.ApplicantID,
		ProgramID:       row.ProgramID,
		ProgramKind:     catalog.ProgramKind(row.ProgramKind),
		AdmissionType:   proposition.AdmissionType(row.AdmissionType),
		Justification:   row.Justification,
		Commission:      row.Commission,
		Status:          proposition.Status(row.Status),
		RequestType:     proposition.RequestType(row.RequestType.String),
		ManagerInCharge: row.ManagerInCharge.String,
		CreatedAt:       row.CreatedAt.UTC(),
		UpdatedAt:       row.UpdatedAt.UTC(),
		LastModifiedBy:  row.LastModifiedBy,
		Version:         row.Version,
	}
	if row.SubmittedAt.Valid {
		at := row.SubmittedAt.Time.UTC()
		p.SubmittedAt = &at
	}
	for _, c := range []struct {
		j    types.JSONText
		dest interface{}
	}{
		{row.Project, &p.Project},
		{row.Financing, &p.Financing},
		{row.Accounting, &p.Accounting},
		{row.Curriculum, &p.Curriculum},
		{row.SpecificAnswers, &p.SpecificAnswers},
	} {
		if err := fromJSON(c.j, c.dest); err != nil {
			return p, err
		}
	}
	if row.ApprovalDetails.Valid {
		p.ApprovalDetails = new(proposition.ApprovalDetails)
		if err := json.Unmarshal(row.ApprovalDetails.JSON, p.ApprovalDetails); err != nil {
			return p, errors.Wrap(err, "decoding approval details")
		}
	}
	if row.RefusalReasons.Valid {
		p.RefusalReasons = new(proposition.RefusalReasons)
		if err := json.Unmarshal(row.RefusalReasons.JSON, p.RefusalReasons); err != nil {
			return p, errors.Wrap(err, "decoding refusal reasons")
		}
	}
	return p, nil
}

func (repo *propositionRepository) Get(ctx context.Context, id string) (*proposition.Proposition, error) {
	var row propositionRow
	q := `SELECT ` + propositionColumns + ` FROM proposition WHERE id = $1`
	if err := sqlx.GetContext(ctx, repo.db.ext(ctx), &row, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, proposition.ErrPropositionNotFound
		}
		return nil, errors.Wrap(err, "getting proposition")
	}
	p, err := row.proposition()
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (repo *propositionRepository) Save(ctx context.Context, p *proposition.Proposition) error {
	row, err := toPropositionRow(p)
	if err != nil {
		return err
	}
	row.Version = p.Version + 1

	if p.Version == 0 {
		if _, err = sqlx.NamedExecContext(ctx, repo.db.ext(ctx), insertProposition, row); err != nil {
			if isUniqueViolation(err) {
				return proposition.ErrConcurrentModification
			}
			return errors.Wrap(err, "inserting proposition")
		}
	} else {
		arg := struct {
			propositionRow
			ExpectedVersion int `db:"expected_version"`
		}{row, p.Version}
		res, err := sqlx.NamedExecContext(ctx, repo.db.ext(ctx), updateProposition, arg)
		if err != nil {
			return errors.Wrap(err, "updating proposition")
		}
		if n, err := res.RowsAffected(); err != nil {
			return errors.Wrap(err, "updating proposition")
		} else if n == 0 {
			return proposition.ErrConcurrentModification
		}
	}
	p.Version++
	return nil
}

func (repo *propositionRepository) Search(ctx context.Context, f proposition.Filter) ([]proposition.Proposition, error) {
	var (
		where []string
		args  []interface{}
	)
	cond := func(expr string, arg interface{}) {
		args = append(args, arg)
		where = append(where, fmt.Sprintf(expr, len(args)))
	}
	if f.ApplicantID != "" {
		cond("applicant_id = $%d", f.ApplicantID)
	}
	if f.ProgramID != "" {
		cond("program_id = $%d", f.ProgramID)
	}
	if f.Kind != "" {
		cond("program_kind = $%d", string(f.Kind))
	}
	if f.ManagerInCharge != "" {
		cond("manager_in_charge = $%d", f.ManagerInCharge)
	}
	if f.Reference != "" {
		cond(formattedReference+" LIKE '%%' || $%d || '%%'", strings.ToUpper(core.CleanString(f.Reference)))
	}
	if len(f.Statuses) > 0 {
		statuses := make([]string, len(f.Statuses))
		for i, s := range f.Statuses {
			statuses[i] = string(s)
		}
		cond("status = ANY($%d)", pq.Array(statuses))
	}

	q := `SELECT ` + propositionColumns + ` FROM proposition`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	order := make([]string, 0, len(f.Ordering)+1)
	for _, ord := range f.Ordering {
		if col, ok := orderable[ord.Field]; ok {
			order = append(order, core.DBOrdering{Field: col, Ascending: ord.Ascending}.String())
		}
	}
	q += " ORDER BY " + strings.Join(append(order, "reference ASC"), ", ")
	if f.Limit > 0 {
		q += fmt.Sprintf(" LIMIT %d", f.Limit)
	}

	var rows []propositionRow
	if err := sqlx.SelectContext(ctx, repo.db.ext(ctx), &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "searching propositions")
	}
	props := make([]proposition.Proposition, 0, len(rows))
	for _, row := range rows {
		p, err := row.proposition()
		if err != nil {
			return nil, err
		}
		props = append(props, p)
	}
	return props, nil
}

func (repo *propositionRepository) CountOpen(ctx context.Context, applicantID string) (int, error) {
	open := proposition.OpenStatuses()
	statuses := make([]string, len(open))
	for i, s := range open {
		statuses[i] = string(s)
	}

	var n int
	q := `SELECT count(*) FROM proposition WHERE applicant_id = $1 AND status = ANY($2)`
	if err := sqlx.GetContext(ctx, repo.db.ext(ctx), &n, q, applicantID, pq.Array(statuses)); err != nil {
		return 0, errors.Wrap(err, "counting open propositions")
	}
	return n, nil
}

func (repo *propositionRepository) NextReference(ctx context.Context) (int64, error) {
	var ref int64
	if err := sqlx.GetContext(ctx, repo.db.ext(ctx), &ref, `SELECT nextval('proposition_reference_seq')`); err != nil {
		return 0, errors.Wrap(err, "generating proposition reference")
	}
	return ref, nil
}
