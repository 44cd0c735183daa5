package proposition

import (
	"github.com/trezcool/admission/core"
	"github.com/trezcool/admission/core/catalog"
	"github.com/trezcool/admission/core/document"
)

func (p *Proposition) moveTo(s Status, by string) {
	p.Status = s
	p.touch(by)
}

func (p *Proposition) doctoral(t Transition) error {
	if !p.IsDoctoral() {
		return &TransitionError{Transition: t, From: p.Status, Err: ErrDoctoralOnly}
	}
	return nil
}

func (p *Proposition) CompleteProject(pr Project, by string) error {
	if err := p.can(TransitionCompleteProject); err != nil {
		return err
	}
	if err := p.doctoral(TransitionCompleteProject); err != nil {
		return err
	}
	if err := pr.validate(); err != nil {
		return err
	}
	pr.Title = core.CleanString(pr.Title)
	pr.Language = core.CleanString(pr.Language, true)
	pr.Documents = core.CleanStrings(pr.Documents)
	pr.Gantt = core.CleanStrings(pr.Gantt)
	p.Project = pr
	p.touch(by)
	return nil
}

// CompleteFinancing expects the scholarship, if any, to have been resolved by the caller.
func (p *Proposition) CompleteFinancing(f Financing, by string) error {
	if err := p.can(TransitionCompleteFinancing); err != nil {
		return err
	}
	if err := p.doctoral(TransitionCompleteFinancing); err != nil {
		return err
	}
	if err := f.validate(); err != nil {
		return err
	}
	if f.Type != FinancingWorkContract {
		f.WorkContractType, f.FTE = "", 0
	}
	if f.Type != FinancingSearchScholarship {
		f.ScholarshipID = ""
	}
	p.Financing = f
	p.touch(by)
	return nil
}

func (p *Proposition) CompleteAccounting(a Accounting, by string) error {
	if err := p.can(TransitionCompleteAccounting); err != nil {
		return err
	}
	if err := a.validate(); err != nil {
		return err
	}
	p.Accounting = a
	p.touch(by)
	return nil
}

func (p *Proposition) CompleteCurriculum(c Curriculum, profile catalog.CandidateProfile, by string) error {
	if err := p.can(TransitionCompleteCurriculum); err != nil {
		return err
	}
	if err := c.validate(profile); err != nil {
		return err
	}
	c.Files = core.CleanStrings(c.Files)
	c.AccessTitles = core.CleanStrings(c.AccessTitles)
	p.Curriculum = c
	p.touch(by)
	return nil
}

// AnswerSpecificQuestions merges answers into the current ones; a blank answer removes it.
func (p *Proposition) AnswerSpecificQuestions(answers map[string]string, by string) error {
	if err := p.can(TransitionAnswerQuestions); err != nil {
		return err
	}
	if p.SpecificAnswers == nil {
		p.SpecificAnswers = make(map[string]string, len(answers))
	}
	for q, a := range answers {
		if a = core.CleanString(a); a == "" {
			delete(p.SpecificAnswers, q)
		} else {
			p.SpecificAnswers[q] = a
		}
	}
	p.touch(by)
	return nil
}

// LockForSignature freezes a doctoral proposition while its supervision group signs it.
func (p *Proposition) LockForSignature(e Eligibility, by string) error {
	if err := p.can(TransitionLockForSignature); err != nil {
		return err
	}
	if err := p.doctoral(TransitionLockForSignature); err != nil {
		return err
	}
	if err := p.Verify(e); err != nil {
		return err
	}
	p.moveTo(StatusSigningInProgress, by)
	return nil
}

// MarkSigned is applied once every member of the supervision group approved.
func (p *Proposition) MarkSigned(by string) error {
	if err := p.can(TransitionApproveSignatures); err != nil {
		return err
	}
	p.moveTo(StatusSigned, by)
	return nil
}

// Unlock sends a proposition being signed back to DRAFT.
// It reports false, and does nothing, when the proposition is already a DRAFT.
func (p *Proposition) Unlock(by string) (bool, error) {
	if p.Status == StatusDraft {
		return false, nil
	}
	if err := p.can(TransitionUnlock); err != nil {
		return false, err
	}
	p.moveTo(StatusDraft, by)
	return true, nil
}

// SupplyThesisInstitute is called when the reference promoter approves:
// the thesis institute must be known by then.
func (p *Proposition) SupplyThesisInstitute(institute, by string) error {
	if err := p.can(TransitionApproveSignatures); err != nil {
		return err
	}
	if institute = core.CleanString(institute); institute != "" {
		p.Project.Institute = institute
		p.touch(by)
	}
	if p.Project.Institute == "" {
		return ErrThesisInstituteRequired
	}
	return nil
}

// Submit verifies the proposition once more and hands it over to the managers.
func (p *Proposition) Submit(e Eligibility, by string) error {
	if err := p.can(TransitionSubmit); err != nil {
		return err
	}
	if err := p.Verify(e); err != nil {
		return err
	}
	now := core.Now()
	p.RequestType = DetermineRequestType(e.Profile)
	p.SubmittedAt = &now
	p.moveTo(StatusSubmitted, by)
	return nil
}

func (p *Proposition) RouteToFaculty(by string) error {
	if err := p.can(TransitionRouteToFaculty); err != nil {
		return err
	}
	p.moveTo(StatusInReviewFaculty, by)
	return nil
}

func (p *Proposition) RouteToSIC(by string) error {
	if err := p.can(TransitionRouteToSIC); err != nil {
		return err
	}
	p.moveTo(StatusInReviewSIC, by)
	return nil
}

// TakeInCharge assigns the proposition to manager without changing its status.
func (p *Proposition) TakeInCharge(manager string) error {
	if err := p.can(TransitionTakeInCharge); err != nil {
		return err
	}
	p.ManagerInCharge = manager
	p.touch(manager)
	return nil
}

func toComplete(body document.Body) Status {
	if body == document.BodyFAC {
		return StatusToCompleteForFaculty
	}
	return StatusToCompleteForSIC
}

func inReviewBy(body document.Body) Status {
	if body == document.BodyFAC {
		return StatusInReviewFaculty
	}
	return StatusInReviewSIC
}

// RequestDocuments moves the proposition to the body's "to complete" status.
// The faculty may ask while reviewing it, the SIC from submission onwards.
func (p *Proposition) RequestDocuments(body document.Body, by string) error {
	from := []Status{StatusInReviewSIC, StatusSubmitted, StatusToCompleteForSIC}
	if body == document.BodyFAC {
		from = []Status{StatusInReviewFaculty, StatusToCompleteForFaculty}
	}
	if err := p.can(TransitionRequestDocuments, from...); err != nil {
		return err
	}
	p.moveTo(toComplete(body), by)
	return nil
}

// CancelDocumentRequest returns to review once the body has no pending request anymore.
func (p *Proposition) CancelDocumentRequest(body document.Body, by string) error {
	if err := p.can(TransitionCancelDocumentRequest, toComplete(body)); err != nil {
		return err
	}
	p.moveTo(inReviewBy(body), by)
	return nil
}

// CompleteDocuments is applied once the candidate answered every request of the body.
func (p *Proposition) CompleteDocuments(body document.Body, by string) error {
	if err := p.can(TransitionCompleteDocuments, toComplete(body)); err != nil {
		return err
	}
	if body == document.BodyFAC {
		p.moveTo(StatusCompletedForFaculty, by)
	} else {
		p.moveTo(StatusCompletedForSIC, by)
	}
	return nil
}

// ApproveByFaculty records the faculty approval and hands the proposition over to the SIC.
func (p *Proposition) ApproveByFaculty(d ApprovalDetails, by string) error {
	if err := p.can(TransitionApproveByFaculty); err != nil {
		return err
	}
	if err := d.Validate(); err != nil {
		return err
	}
	p.ApprovalDetails = &d
	p.moveTo(StatusInReviewSIC, by)
	return nil
}

// ApproveFinal approves with d, or with the faculty approval details when d is nil.
func (p *Proposition) ApproveFinal(d *ApprovalDetails, by string) error {
	if err := p.can(TransitionApproveFinal); err != nil {
		return err
	}
	if d == nil {
		d = p.ApprovalDetails
	}
	if d == nil {
		return (&ApprovalDetails{}).Validate()
	}
	if err := d.Validate(); err != nil {
		return err
	}
	details := *d
	p.ApprovalDetails = &details
	p.moveTo(StatusApproved, by)
	return nil
}

func (p *Proposition) RefuseFinal(r RefusalReasons, by string) error {
	if err := p.can(TransitionRefuseFinal); err != nil {
		return err
	}
	if r.Empty() {
		return ErrRefusalReasonRequired
	}
	r.Reasons = core.CleanStrings(r.Reasons)
	r.Other = core.CleanStrings(r.Other)
	p.RefusalReasons = &r
	p.moveTo(StatusRefused, by)
	return nil
}

// Close ends the proposition administratively. Nothing can leave CLOSED.
func (p *Proposition) Close(by string) error {
	if err := p.can(TransitionClose); err != nil {
		return err
	}
	p.moveTo(StatusClosed, by)
	return nil
}

// Withdraw cancels a proposition the candidate no longer wants to submit.
func (p *Proposition) Withdraw(by string) error {
	if err := p.can(TransitionWithdraw); err != nil {
		return err
	}
	p.moveTo(StatusCancelled, by)
	return nil
}
