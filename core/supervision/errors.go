package supervision

import "github.com/trezcool/admission/core"

var (
	ErrGroupNotFound  = core.NewNotFoundError("group_not_found", "supervision group not found")
	ErrMemberNotFound = core.NewNotFoundError("member_not_found", "supervision group member not found")

	ErrDuplicateActor      = core.NewConflictError("duplicate_actor", "this person is already a member of the supervision group")
	ErrGroupAlreadyLocked  = core.NewConflictError("group_locked", "signatures have already been requested for this supervision group")
	ErrSignatureNotInvited = core.NewConflictError("signature_not_invited", "this member has not been invited to sign or has already decided")

	ErrInvalidExternalActor    = core.NewBusinessError(core.KindValidation, "invalid_external_actor", "the external member identity is incomplete")
	ErrActorIdentityRequired   = core.NewBusinessError(core.KindValidation, "actor_identity_required", "a member is either internal (matricule) or external, not both nor none")
	ErrInvalidRole             = core.NewBusinessError(core.KindValidation, "invalid_role", "unknown supervision role")
	ErrNotAPromoter            = core.NewBusinessError(core.KindValidation, "not_a_promoter", "the reference promoter must be a promoter of the supervision group")
	ErrRejectionReasonRequired = core.NewBusinessError(core.KindValidation, "rejection_reason_required", "a reason is required to decline")
	ErrInvalidVerdict          = core.NewBusinessError(core.KindValidation, "invalid_verdict", "the decision must be APPROVED or DECLINED")
	ErrPDFRequired             = core.NewBusinessError(core.KindValidation, "pdf_required", "the signed approval document is required")

	// signatories
	ErrNotEligibleForSignature  = core.NewBusinessError(core.KindValidation, "signatories_incomplete", "the supervision group is not ready for signature")
	ErrPromoterMissing          = core.NewBusinessError(core.KindValidation, "promoter_missing", "the supervision group must have at least one promoter")
	ErrCommitteeMemberMissing   = core.NewBusinessError(core.KindValidation, "committee_member_missing", "the supervision group does not have enough committee members")
	ErrReferencePromoterMissing = core.NewBusinessError(core.KindValidation, "reference_promoter_missing", "a reference promoter must be designated")
	ErrCotutelleIncomplete      = core.NewBusinessError(core.KindValidation, "cotutelle_incomplete", "the cotutelle declaration is incomplete")
	ErrCotutelleInstitution     = core.NewBusinessError(core.KindValidation, "cotutelle_institution", "the cotutelle institution is either listed or described, not both")
	ErrCotutellePromoterMissing = core.NewBusinessError(core.KindValidation, "cotutelle_external_promoter", "a cotutelle requires an external promoter")
)
