package document

import (
	"github.com/pkg/errors"

	"github.com/trezcool/admission/core"
)

var (
	ErrSlotAlreadyCompleted = core.NewConflictError("slot_already_completed", "the document has already been provided")
	ErrSlotNotRequested     = core.NewConflictError("slot_not_requested", "the document is not requested")
	ErrIncompleteSubmission = core.NewBusinessError(core.KindValidation, "incomplete_document_submission", "some requested documents are missing")
	ErrDeadlinePassed       = core.NewBusinessError(core.KindValidation, "deadline_passed", "the deadline must be in the future")
	ErrNoSlot               = core.NewBusinessError(core.KindValidation, "no_slot", "at least one document is required")
	ErrUnknownKind          = core.NewBusinessError(core.KindValidation, "unknown_kind", "unknown document kind")
	ErrInvalidCatalogue     = errors.New("invalid document catalogue")
)

// SlotsOf returns the slots listed by an aggregated tracker error.
func SlotsOf(err error) []string {
	var verr *core.ValidationError
	if !errors.As(err, &verr) {
		return nil
	}
	slots := make([]string, 0, len(verr.Fields))
	for _, f := range verr.Fields {
		slots = append(slots, f.Field)
	}
	return slots
}
