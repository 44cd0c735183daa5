package proposition

import (
	"fmt"

	"github.com/trezcool/admission/core"
)

var (
	ErrPropositionNotFound = core.NewNotFoundError("proposition_not_found", "proposition not found")

	ErrMaxConcurrentPropositionsExceeded = core.NewConflictError("max_propositions_exceeded", "the maximum number of open propositions has been reached")
	ErrConcurrentModification            = core.NewConflictError("concurrent_modification", "the proposition was modified by someone else, please reload it")

	ErrCannotLeaveClosedStatus = core.NewBusinessError(core.KindTransition, "cannot_leave_closed", "a closed proposition cannot change anymore")
	ErrIllegalTransition       = core.NewBusinessError(core.KindTransition, "illegal_transition", "this action is not possible in the current status")
	ErrDoctoralOnly            = core.NewBusinessError(core.KindTransition, "doctoral_only", "this action only applies to doctoral propositions")

	// initiation & self-loops
	ErrInvalidData              = core.NewBusinessError(core.KindValidation, "invalid_data", "some fields are invalid")
	ErrJustificationRequired    = core.NewBusinessError(core.KindValidation, "justification_required", "a pre-admission requires a justification")
	ErrCommissionInconsistent   = core.NewBusinessError(core.KindValidation, "commission_inconsistent", "the commission does not belong to the program")
	ErrCommissionRequired       = core.NewBusinessError(core.KindValidation, "commission_required", "a proximity commission must be chosen for this program")
	ErrInvalidAdmissionType     = core.NewBusinessError(core.KindValidation, "invalid_admission_type", "unknown admission type")
	ErrProjectFieldRequired     = core.NewBusinessError(core.KindValidation, "project_field_required", "this project field is required")
	ErrInvalidLanguage          = core.NewBusinessError(core.KindValidation, "invalid_language", "the language must be a two-letter code")
	ErrInvalidFinancingType     = core.NewBusinessError(core.KindValidation, "invalid_financing_type", "unknown financing type")
	ErrContractTypeRequired     = core.NewBusinessError(core.KindValidation, "contract_type_required", "a work contract requires its type")
	ErrInvalidFTE               = core.NewBusinessError(core.KindValidation, "invalid_fte", "a work contract requires a full-time equivalent between 0 and 1")
	ErrScholarshipRequired      = core.NewBusinessError(core.KindValidation, "scholarship_required", "a scholarship must be chosen")
	ErrInvalidScholarshipDates  = core.NewBusinessError(core.KindValidation, "invalid_scholarship_dates", "the scholarship must end after it starts")
	ErrAccountHolderRequired    = core.NewBusinessError(core.KindValidation, "account_holder_required", "a bank account requires its holder")
	ErrAssimilationDocsRequired = core.NewBusinessError(core.KindValidation, "assimilation_documents_required", "the assimilation situation requires supporting documents")
	ErrUnknownAccessTitle       = core.NewBusinessError(core.KindValidation, "unknown_access_title", "the access title is not one of the candidate qualifications")

	// eligibility
	ErrNotEligible                = core.NewBusinessError(core.KindValidation, "not_eligible", "the proposition does not meet every requirement yet")
	ErrCurriculumIncomplete       = core.NewBusinessError(core.KindValidation, "curriculum_incomplete", "the curriculum is incomplete")
	ErrAccountingIncomplete       = core.NewBusinessError(core.KindValidation, "accounting_incomplete", "the accounting information is incomplete")
	ErrSpecificQuestionUnanswered = core.NewBusinessError(core.KindValidation, "specific_question_unanswered", "a specific question of the program is not answered")
	ErrAccessTitleMissing         = core.NewBusinessError(core.KindValidation, "access_title_missing", "at least one access title must be selected")
	ErrProjectIncomplete          = core.NewBusinessError(core.KindValidation, "project_incomplete", "the research project is incomplete")
	ErrFinancingMissing           = core.NewBusinessError(core.KindValidation, "financing_missing", "the financing must be specified")
	ErrSignaturesMissing          = core.NewBusinessError(core.KindValidation, "signatures_missing", "every member of the supervision group must have approved")

	// final decisions
	ErrApprovalIncomplete       = core.NewBusinessError(core.KindValidation, "approval_incomplete", "the approval details are inconsistent")
	ErrProgramDurationRequired  = core.NewBusinessError(core.KindValidation, "program_duration_required", "the program duration is required")
	ErrPrerequisiteFlagRequired = core.NewBusinessError(core.KindValidation, "prerequisite_flag_required", "tell whether prerequisite courses are required")
	ErrPrerequisiteCourses      = core.NewBusinessError(core.KindValidation, "prerequisite_courses_inconsistent", "the prerequisite courses do not match the prerequisite flag")
	ErrConditionsFlagRequired   = core.NewBusinessError(core.KindValidation, "conditions_flag_required", "tell whether additional conditions apply")
	ErrAdditionalConditions     = core.NewBusinessError(core.KindValidation, "additional_conditions_inconsistent", "the additional conditions do not match the conditions flag")
	ErrRefusalReasonRequired    = core.NewBusinessError(core.KindValidation, "refusal_reason_required", "at least one refusal reason is required")
	ErrThesisInstituteRequired  = core.NewBusinessError(core.KindValidation, "thesis_institute_required", "the reference promoter must specify the thesis institute")
)

// TransitionError reports a status change that is not reachable from the current status.
type TransitionError struct {
	Transition Transition
	From       Status
	Err        error
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: cannot %s from status %s", e.Err, e.Transition, e.From)
}

func (e *TransitionError) Unwrap() error { return e.Err }

func (e *TransitionError) Kind() core.ErrorKind { return core.KindTransition }
