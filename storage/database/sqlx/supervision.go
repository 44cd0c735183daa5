package sqlxrepos

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/admission/core/supervision"
)

const signatureColumns = `actor_id, group_id, position, role, matricule, external, state,
	internal_comment, external_comment, rejection_reason, pdf, updated_at`

const (
	upsertGroup = `INSERT INTO supervision_group (id, proposition_id, reference_promoter_id, cotutelle, locked)
	VALUES (:id, :proposition_id, :reference_promoter_id, :cotutelle, :locked)
	ON CONFLICT (id) DO UPDATE SET
	reference_promoter_id = EXCLUDED.reference_promoter_id, cotutelle = EXCLUDED.cotutelle, locked = EXCLUDED.locked`

	upsertSignature = `INSERT INTO supervision_signature (` + signatureColumns + `) VALUES (
	:actor_id, :group_id, :position, :role, :matricule, :external, :state,
	:internal_comment, :external_comment, :rejection_reason, :pdf, :updated_at)
	ON CONFLICT (actor_id) DO UPDATE SET
	position = EXCLUDED.position, state = EXCLUDED.state, internal_comment = EXCLUDED.internal_comment,
	external_comment = EXCLUDED.external_comment, rejection_reason = EXCLUDED.rejection_reason,
	pdf = EXCLUDED.pdf, updated_at = EXCLUDED.updated_at`
)

type (
	groupRow struct {
		ID                  string      `db:"id"`
		PropositionID       string      `db:"proposition_id"`
		ReferencePromoterID null.String `db:"reference_promoter_id"`
		Cotutelle           null.JSON   `db:"cotutelle"`
		Locked              bool        `db:"locked"`
	}

	signatureRow struct {
		ActorID         string         `db:"actor_id"`
		GroupID         string         `db:"group_id"`
		Position        int            `db:"position"`
		Role            string         `db:"role"`
		Matricule       null.String    `db:"matricule"`
		External        null.JSON      `db:"external"`
		State           string         `db:"state"`
		InternalComment string         `db:"internal_comment"`
		ExternalComment string         `db:"external_comment"`
		RejectionReason string         `db:"rejection_reason"`
		PDF             types.JSONText `db:"pdf"`
		UpdatedAt       time.Time      `db:"updated_at"`
	}
)

type groupRepository struct {
	db *DB
}

var _ supervision.Repository = (*groupRepository)(nil) // interface compliance check

func NewGroupRepository(db *DB) supervision.Repository {
	return &groupRepository{db: db}
}

func toSignatureRow(groupID string, position int, sig supervision.Signature) (signatureRow, error) {
	row := signatureRow{
		ActorID:         sig.Actor.ID,
		GroupID:         groupID,
		Position:        position,
		Role:            string(sig.Actor.Role),
		Matricule:       nullString(sig.Actor.Matricule),
		State:           string(sig.State),
		InternalComment: sig.InternalComment,
		ExternalComment: sig.ExternalComment,
		RejectionReason: sig.RejectionReason,
		UpdatedAt:       sig.UpdatedAt.UTC(),
	}
	pdf := sig.PDF
	if pdf == nil {
		pdf = []string{}
	}
	var err error
	if row.PDF, err = toJSON(pdf); err != nil {
		return row, err
	}
	row.External, err = toNullJSON(sig.Actor.External, sig.Actor.External != nil)
	return row, err
}

func (row signatureRow) signature() (supervision.Signature, error) {
	sig := supervision.Signature{
		Actor: supervision.Actor{
			ID:        row.ActorID,
			Role:      supervision.Role(row.Role),
			Matricule: row.Matricule.String,
		},
		State:           supervision.SignatureState(row.State),
		InternalComment: row.InternalComment,
		ExternalComment: row.ExternalComment,
		RejectionReason: row.RejectionReason,
		UpdatedAt:       row.UpdatedAt.UTC(),
	}
	if row.External.Valid {
		sig.Actor.External = new(supervision.ExternalIdentity)
		if err := json.Unmarshal(row.External.JSON, sig.Actor.External); err != nil {
			return sig, errors.Wrap(err, "decoding external identity")
		}
	}
	if err := fromJSON(row.PDF, &sig.PDF); err != nil {
		return sig, err
	}
	if len(sig.PDF) == 0 {
		sig.PDF = nil
	}
	return sig, nil
}

func (repo *groupRepository) GetByPropositionID(ctx context.Context, propositionID string) (*supervision.Group, error) {
	ext := repo.db.ext(ctx)

	var row groupRow
	q := `SELECT id, proposition_id, reference_promoter_id, cotutelle, locked FROM supervision_group WHERE proposition_id = $1`
	if err := sqlx.GetContext(ctx, ext, &row, q, propositionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, supervision.ErrGroupNotFound
		}
		return nil, errors.Wrap(err, "getting supervision group")
	}
	g := &supervision.Group{
		ID:                  row.ID,
		PropositionID:       row.PropositionID,
		ReferencePromoterID: row.ReferencePromoterID.String,
		Locked:              row.Locked,
		Signatures:          []supervision.Signature{},
	}
	if row.Cotutelle.Valid {
		g.Cotutelle = new(supervision.Cotutelle)
		if err := json.Unmarshal(row.Cotutelle.JSON, g.Cotutelle); err != nil {
			return nil, errors.Wrap(err, "decoding cotutelle")
		}
	}

	var sigs []signatureRow
	q = `SELECT ` + signatureColumns + ` FROM supervision_signature WHERE group_id = $1 ORDER BY position`
	if err := sqlx.SelectContext(ctx, ext, &sigs, q, g.ID); err != nil {
		return nil, errors.Wrap(err, "listing signatures")
	}
	for _, s := range sigs {
		sig, err := s.signature()
		if err != nil {
			return nil, err
		}
		g.Signatures = append(g.Signatures, sig)
	}
	return g, nil
}

func (repo *groupRepository) Save(ctx context.Context, g *supervision.Group) error {
	row := groupRow{
		ID:                  g.ID,
		PropositionID:       g.PropositionID,
		ReferencePromoterID: nullString(g.ReferencePromoterID),
		Locked:              g.Locked,
	}
	var err error
	if row.Cotutelle, err = toNullJSON(g.Cotutelle, g.Cotutelle != nil); err != nil {
		return err
	}

	return repo.db.WithinTx(ctx, func(ctx context.Context) error {
		ext := repo.db.ext(ctx)
		if _, err := sqlx.NamedExecContext(ctx, ext, upsertGroup, row); err != nil {
			return errors.Wrap(err, "saving supervision group")
		}

		ids := make([]string, len(g.Signatures))
		for i, sig := range g.Signatures {
			ids[i] = sig.Actor.ID
		}
		q := `DELETE FROM supervision_signature WHERE group_id = $1 AND NOT (actor_id = ANY($2::uuid[]))`
		if _, err := ext.ExecContext(ctx, q, g.ID, pq.Array(ids)); err != nil {
			return errors.Wrap(err, "pruning signatures")
		}
		for i, sig := range g.Signatures {
			srow, err := toSignatureRow(g.ID, i, sig)
			if err != nil {
				return err
			}
			if _, err = sqlx.NamedExecContext(ctx, ext, upsertSignature, srow); err != nil {
				return errors.Wrap(err, "saving signature")
			}
		}
		return nil
	})
}

func (repo *groupRepository) AddMember(ctx context.Context, groupID string, sig supervision.Signature) (string, error) {
	if sig.Actor.ID == "" {
		sig.Actor.ID = uuid.NewString()
	}
	ext := repo.db.ext(ctx)

	var position int
	q := `SELECT coalesce(max(position) + 1, 0) FROM supervision_signature WHERE group_id = $1`
	if err := sqlx.GetContext(ctx, ext, &position, q, groupID); err != nil {
		return "", errors.Wrap(err, "computing signature position")
	}
	row, err := toSignatureRow(groupID, position, sig)
	if err != nil {
		return "", err
	}
	if _, err = sqlx.NamedExecContext(ctx, ext, upsertSignature, row); err != nil {
		return "", errors.Wrap(err, "adding signature")
	}
	return sig.Actor.ID, nil
}

func (repo *groupRepository) RemoveMember(ctx context.Context, groupID, actorID string) error {
	res, err := repo.db.ext(ctx).ExecContext(ctx,
		`DELETE FROM supervision_signature WHERE group_id = $1 AND actor_id = $2`, groupID, actorID)
	if err != nil {
		return errors.Wrap(err, "removing signature")
	}
	if n, err := res.RowsAffected(); err != nil {
		return errors.Wrap(err, "removing signature")
	} else if n == 0 {
		return supervision.ErrMemberNotFound
	}
	return nil
}
