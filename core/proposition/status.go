package proposition

import "sort"

type Status string

const (
	StatusDraft                Status = "DRAFT"
	StatusSigningInProgress    Status = "SIGNING_IN_PROGRESS"
	StatusSigned               Status = "SIGNED"
	StatusSubmitted            Status = "SUBMITTED"
	StatusInReviewFaculty      Status = "IN_REVIEW_FACULTY"
	StatusInReviewSIC          Status = "IN_REVIEW_SIC"
	StatusToCompleteForFaculty Status = "TO_COMPLETE_FOR_FACULTY"
	StatusToCompleteForSIC     Status = "TO_COMPLETE_FOR_SIC"
	StatusCompletedForFaculty  Status = "COMPLETED_FOR_FACULTY"
	StatusCompletedForSIC      Status = "COMPLETED_FOR_SIC"
	StatusApproved             Status = "APPROVED"
	StatusRefused              Status = "REFUSED"
	StatusClosed               Status = "CLOSED"
	StatusCancelled            Status = "CANCELLED"
)

var Statuses = []Status{
	StatusDraft, StatusSigningInProgress, StatusSigned, StatusSubmitted,
	StatusInReviewFaculty, StatusInReviewSIC,
	StatusToCompleteForFaculty, StatusToCompleteForSIC,
	StatusCompletedForFaculty, StatusCompletedForSIC,
	StatusApproved, StatusRefused, StatusClosed, StatusCancelled,
}

func (s Status) Valid() bool {
	for _, st := range Statuses {
		if s == st {
			return true
		}
	}
	return false
}

var statusLabels = map[Status][2]string{ // {fr, en}
	StatusDraft:                {"brouillon", "draft"},
	StatusSigningInProgress:    {"en cours de signature", "signing in progress"},
	StatusSigned:               {"signée", "signed"},
	StatusSubmitted:            {"soumise", "submitted"},
	StatusInReviewFaculty:      {"en examen par la faculté", "in review by the faculty"},
	StatusInReviewSIC:          {"en examen par le SIC", "in review by the SIC"},
	StatusToCompleteForFaculty: {"à compléter pour la faculté", "to complete for the faculty"},
	StatusToCompleteForSIC:     {"à compléter pour le SIC", "to complete for the SIC"},
	StatusCompletedForFaculty:  {"complétée pour la faculté", "completed for the faculty"},
	StatusCompletedForSIC:      {"complétée pour le SIC", "completed for the SIC"},
	StatusApproved:             {"acceptée", "approved"},
	StatusRefused:              {"refusée", "refused"},
	StatusClosed:               {"clôturée", "closed"},
	StatusCancelled:            {"annulée", "cancelled"},
}

// Label returns the status as shown to people, in French for "fr" and in English otherwise.
func (s Status) Label(lang string) string {
	l, ok := statusLabels[s]
	if !ok {
		return string(s)
	}
	if lang == "fr" {
		return l[0]
	}
	return l[1]
}

// Terminal reports whether no transition leaves s.
func (s Status) Terminal() bool {
	switch s {
	case StatusApproved, StatusRefused, StatusClosed, StatusCancelled:
		return true
	}
	return false
}

// Open reports whether the proposition counts against the applicant's open propositions.
func (s Status) Open() bool { return !s.Terminal() }

// OpenStatuses returns every non-terminal status.
func OpenStatuses() []Status {
	open := make([]Status, 0, len(Statuses))
	for _, s := range Statuses {
		if s.Open() {
			open = append(open, s)
		}
	}
	return open
}

type Transition string

const (
	TransitionCompleteProject       Transition = "complete_project"
	TransitionCompleteFinancing     Transition = "complete_financing"
	TransitionCompleteAccounting    Transition = "complete_accounting"
	TransitionCompleteCurriculum    Transition = "complete_curriculum"
	TransitionAnswerQuestions       Transition = "answer_specific_questions"
	TransitionLockForSignature      Transition = "lock_for_signature"
	TransitionApproveSignatures     Transition = "approve"
	TransitionUnlock                Transition = "refuse"
	TransitionSubmit                Transition = "submit"
	TransitionRouteToFaculty        Transition = "route_to_faculty"
	TransitionRouteToSIC            Transition = "route_to_sic"
	TransitionTakeInCharge          Transition = "take_in_charge"
	TransitionRequestDocuments      Transition = "request_documents"
	TransitionCancelDocumentRequest Transition = "cancel_document_request"
	TransitionCompleteDocuments     Transition = "complete_documents"
	TransitionApproveByFaculty      Transition = "approve_by_faculty"
	TransitionApproveFinal          Transition = "approve_final"
	TransitionRefuseFinal           Transition = "refuse_final"
	TransitionClose                 Transition = "close"
	TransitionWithdraw              Transition = "withdraw"

	// checked against an explicit list of statuses
	TransitionEditSupervision      Transition = "edit_supervision"
	TransitionRecordDecision       Transition = "record_decision"
	TransitionRecalculateDocuments Transition = "recalculate_documents"
)

var inReview = []Status{
	StatusSubmitted, StatusInReviewFaculty, StatusInReviewSIC,
	StatusToCompleteForFaculty, StatusToCompleteForSIC,
	StatusCompletedForFaculty, StatusCompletedForSIC,
}

// sources lists the statuses each transition may start from.
var sources = map[Transition][]Status{
	TransitionCompleteProject:       {StatusDraft},
	TransitionCompleteFinancing:     {StatusDraft},
	TransitionCompleteAccounting:    {StatusDraft},
	TransitionCompleteCurriculum:    {StatusDraft},
	TransitionAnswerQuestions:       {StatusDraft},
	TransitionLockForSignature:      {StatusDraft},
	TransitionApproveSignatures:     {StatusSigningInProgress},
	TransitionUnlock:                {StatusSigningInProgress},
	TransitionSubmit:                {StatusSigned, StatusDraft},
	TransitionRouteToFaculty:        {StatusSubmitted, StatusInReviewSIC, StatusCompletedForFaculty},
	TransitionRouteToSIC:            {StatusSubmitted, StatusInReviewFaculty, StatusCompletedForSIC},
	TransitionTakeInCharge:          inReview,
	TransitionRequestDocuments:      {StatusSubmitted, StatusInReviewFaculty, StatusInReviewSIC, StatusToCompleteForFaculty, StatusToCompleteForSIC},
	TransitionCancelDocumentRequest: {StatusToCompleteForFaculty, StatusToCompleteForSIC},
	TransitionCompleteDocuments:     {StatusToCompleteForFaculty, StatusToCompleteForSIC},
	TransitionApproveByFaculty:      {StatusInReviewFaculty},
	TransitionApproveFinal:          {StatusInReviewSIC},
	TransitionRefuseFinal:           {StatusInReviewFaculty, StatusInReviewSIC},
	TransitionClose:                 append([]Status{StatusDraft, StatusSigningInProgress, StatusSigned}, inReview...),
	TransitionWithdraw:              {StatusDraft, StatusSigningInProgress, StatusSigned},
}

func (p *Proposition) can(t Transition, from ...Status) error {
	if p.Status == StatusClosed {
		return &TransitionError{Transition: t, From: p.Status, Err: ErrCannotLeaveClosedStatus}
	}
	if len(from) == 0 {
		from = p.sourcesOf(t)
	}
	for _, s := range from {
		if p.Status == s {
			return nil
		}
	}
	return &TransitionError{Transition: t, From: p.Status, Err: ErrIllegalTransition}
}

// Check fails with a *TransitionError unless t may start from the current status,
// or from one of `from` when given.
func (p *Proposition) Check(t Transition, from ...Status) error {
	return p.can(t, from...)
}

// CheckSupervision is Check for operations on the supervision group of a doctoral proposition.
func (p *Proposition) CheckSupervision(t Transition, from ...Status) error {
	if err := p.can(t, from...); err != nil {
		return err
	}
	return p.doctoral(t)
}

// Allowed lists the transitions that may start from the current status, sorted by name.
// Eligibility is not evaluated.
func (p *Proposition) Allowed() []Transition {
	var allowed []Transition
	for t := range sources {
		if p.can(t) == nil && (p.IsDoctoral() || !doctoralOnly(t)) {
			allowed = append(allowed, t)
		}
	}
	sort.Slice(allowed, func(i, j int) bool { return allowed[i] < allowed[j] })
	return allowed
}

func (p *Proposition) sourcesOf(t Transition) []Status {
	if t == TransitionSubmit {
		if p.IsDoctoral() {
			return []Status{StatusSigned}
		}
		return []Status{StatusDraft}
	}
	return sources[t]
}

func doctoralOnly(t Transition) bool {
	switch t {
	case TransitionCompleteProject, TransitionCompleteFinancing, TransitionLockForSignature,
		TransitionApproveSignatures, TransitionUnlock:
		return true
	}
	return false
}
