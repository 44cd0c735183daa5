package workflow

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/admission/core/catalog"
	"github.com/trezcool/admission/core/document"
	"github.com/trezcool/admission/core/history"
	"github.com/trezcool/admission/core/proposition"
	"github.com/trezcool/admission/core/supervision"
)

// Initiate starts a DRAFT proposition, with its empty supervision group when doctoral
// and the document slots its profile requires.
func (svc *Service) Initiate(ctx context.Context, in proposition.NewProposition) (*proposition.Proposition, error) {
	var p *proposition.Proposition
	err := svc.withLock(ctx, "applicant:"+in.ApplicantID, func() error {
		program, err := svc.deps.Programs.GetProgram(ctx, in.ProgramID)
		if err != nil {
			return err
		}
		if _, err = svc.deps.Profiles.GetProfile(ctx, in.ApplicantID); err != nil {
			return err
		}
		open, err := svc.deps.Propositions.CountOpen(ctx, in.ApplicantID)
		if err != nil {
			return errors.Wrap(err, "counting open propositions")
		}

		if p, err = proposition.New(in, program, open, svc.deps.Config.MaxConcurrentPropositions); err != nil {
			return err
		}
		if p.Reference, err = svc.deps.Propositions.NextReference(ctx); err != nil {
			return errors.Wrap(err, "generating reference")
		}
		var g *supervision.Group
		if p.IsDoctoral() {
			g = supervision.NewGroup(p.ID)
		}
		docs, _, err := svc.recalculate(ctx, p, document.NewTracker(p.ID, nil))
		if err != nil {
			return err
		}

		if err = svc.save(ctx, p, g, docs, in.ApplicantID); err != nil {
			return err
		}
		svc.record(ctx, p, msgf(
			"Proposition %s initiée pour la formation %s.",
			"Proposition %s initiated for program %s.",
			p.FormattedReference(), program.Acronym,
		), in.ApplicantID, history.TagProposition)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// update runs a DRAFT self-loop: no status change, no notification.
func (svc *Service) update(ctx context.Context, id, by string, what message, apply func(p *proposition.Proposition) error, recalc bool) (*proposition.Proposition, error) {
	var p *proposition.Proposition
	err := svc.withLock(ctx, propositionKey(id), func() error {
		var err error
		if p, err = svc.deps.Propositions.Get(ctx, id); err != nil {
			return err
		}
		if err = apply(p); err != nil {
			return err
		}

		var (
			docs []document.Request
			diff document.Diff
		)
		if recalc {
			tracker, err := svc.loadTracker(ctx, id)
			if err != nil {
				return err
			}
			if docs, diff, err = svc.recalculate(ctx, p, tracker); err != nil {
				return err
			}
		}
		err = svc.deps.Tx.WithinTx(ctx, func(ctx context.Context) error {
			if err := svc.saveDocuments(ctx, id, diff); err != nil {
				return err
			}
			return svc.save(ctx, p, nil, docs, by)
		})
		if err != nil {
			return err
		}
		svc.record(ctx, p, what, by, history.TagProposition)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (svc *Service) CompleteProject(ctx context.Context, id string, project proposition.Project, by string) (*proposition.Proposition, error) {
	return svc.update(ctx, id, by, message{"Projet de recherche complété.", "Research project completed."},
		func(p *proposition.Proposition) error { return p.CompleteProject(project, by) }, false)
}

// CompleteFinancing resolves the chosen scholarship before recording the financing.
func (svc *Service) CompleteFinancing(ctx context.Context, id string, f proposition.Financing, by string) (*proposition.Proposition, error) {
	if f.Type == proposition.FinancingSearchScholarship && f.ScholarshipID != "" {
		if _, err := svc.deps.Scholarships.GetScholarship(ctx, f.ScholarshipID); err != nil {
			return nil, err
		}
	}
	return svc.update(ctx, id, by, message{"Financement complété.", "Financing completed."},
		func(p *proposition.Proposition) error { return p.CompleteFinancing(f, by) }, true)
}

func (svc *Service) CompleteAccounting(ctx context.Context, id string, a proposition.Accounting, by string) (*proposition.Proposition, error) {
	return svc.update(ctx, id, by, message{"Informations comptables complétées.", "Accounting completed."},
		func(p *proposition.Proposition) error { return p.CompleteAccounting(a, by) }, true)
}

func (svc *Service) CompleteCurriculum(ctx context.Context, id string, c proposition.Curriculum, by string) (*proposition.Proposition, error) {
	return svc.update(ctx, id, by, message{"Curriculum complété.", "Curriculum completed."},
		func(p *proposition.Proposition) error {
			profile, err := svc.deps.Profiles.GetProfile(ctx, p.ApplicantID)
			if err != nil {
				return err
			}
			return p.CompleteCurriculum(c, profile, by)
		}, false)
}

func (svc *Service) AnswerSpecificQuestions(ctx context.Context, id string, answers map[string]string, by string) (*proposition.Proposition, error) {
	return svc.update(ctx, id, by, message{"Questions spécifiques complétées.", "Specific questions answered."},
		func(p *proposition.Proposition) error { return p.AnswerSpecificQuestions(answers, by) }, false)
}

// Submit verifies the proposition and hands it over to the managers.
func (svc *Service) Submit(ctx context.Context, id, by string) (*proposition.Proposition, error) {
	var p *proposition.Proposition
	err := svc.withLock(ctx, propositionKey(id), func() error {
		var err error
		if p, err = svc.deps.Propositions.Get(ctx, id); err != nil {
			return err
		}
		var g *supervision.Group
		if p.IsDoctoral() {
			if g, err = svc.deps.Groups.GetByPropositionID(ctx, id); err != nil {
				return err
			}
		}
		e, err := svc.eligibility(ctx, p, g)
		if err != nil {
			return err
		}
		from := p.Status
		if err = p.Submit(e, by); err != nil {
			return err
		}

		tracker, err := svc.loadTracker(ctx, id)
		if err != nil {
			return err
		}
		docs, diff, err := svc.recalculate(ctx, p, tracker)
		if err != nil {
			return err
		}
		err = svc.deps.Tx.WithinTx(ctx, func(ctx context.Context) error {
			if err := svc.saveDocuments(ctx, id, diff); err != nil {
				return err
			}
			return svc.save(ctx, p, nil, docs, by)
		})
		if err != nil {
			return err
		}

		svc.notify("submission", svc.deps.Notifier.NotifySubmission(ctx, p), p)
		svc.record(ctx, p, statusChange(from, p.Status), by, history.TagProposition, history.TagStatusChange)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// transition runs a status change that only involves the proposition itself.
func (svc *Service) transition(ctx context.Context, id, by string, apply func(p *proposition.Proposition) error, tags ...history.Tag) (*proposition.Proposition, error) {
	var p *proposition.Proposition
	err := svc.withLock(ctx, propositionKey(id), func() error {
		var err error
		if p, err = svc.deps.Propositions.Get(ctx, id); err != nil {
			return err
		}
		from, manager := p.Status, p.ManagerInCharge
		if err = apply(p); err != nil {
			return err
		}
		if p.Status == from && p.ManagerInCharge == manager {
			// nothing changed
			return nil
		}
		if err = svc.save(ctx, p, nil, nil, by); err != nil {
			return err
		}

		svc.statusChanged(ctx, p, from)
		msg := statusChange(from, p.Status)
		if p.Status == from {
			msg = msgf("Dossier pris en charge par %s.", "Taken in charge by %s.", p.ManagerInCharge)
		} else {
			tags = append(tags, history.TagStatusChange)
		}
		svc.record(ctx, p, msg, by, append([]history.Tag{history.TagProposition}, tags...)...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (svc *Service) RouteToFaculty(ctx context.Context, id, by string) (*proposition.Proposition, error) {
	return svc.transition(ctx, id, by, func(p *proposition.Proposition) error { return p.RouteToFaculty(by) })
}

func (svc *Service) RouteToSIC(ctx context.Context, id, by string) (*proposition.Proposition, error) {
	return svc.transition(ctx, id, by, func(p *proposition.Proposition) error { return p.RouteToSIC(by) })
}

// TakeInCharge assigns the proposition to the manager `by`.
func (svc *Service) TakeInCharge(ctx context.Context, id, by string) (*proposition.Proposition, error) {
	return svc.transition(ctx, id, by, func(p *proposition.Proposition) error { return p.TakeInCharge(by) })
}

func (svc *Service) ApproveByFaculty(ctx context.Context, id string, d proposition.ApprovalDetails, by string) (*proposition.Proposition, error) {
	return svc.transition(ctx, id, by, func(p *proposition.Proposition) error { return p.ApproveByFaculty(d, by) }, history.TagDecision)
}

// ApproveFinal approves with d, or with the faculty approval details when d is nil.
func (svc *Service) ApproveFinal(ctx context.Context, id string, d *proposition.ApprovalDetails, by string) (*proposition.Proposition, error) {
	return svc.transition(ctx, id, by, func(p *proposition.Proposition) error { return p.ApproveFinal(d, by) }, history.TagDecision)
}

func (svc *Service) RefuseFinal(ctx context.Context, id string, r proposition.RefusalReasons, by string) (*proposition.Proposition, error) {
	return svc.transition(ctx, id, by, func(p *proposition.Proposition) error { return p.RefuseFinal(r, by) }, history.TagDecision)
}

func (svc *Service) Close(ctx context.Context, id, by string) (*proposition.Proposition, error) {
	return svc.transition(ctx, id, by, func(p *proposition.Proposition) error { return p.Close(by) })
}

func (svc *Service) Withdraw(ctx context.Context, id, by string) (*proposition.Proposition, error) {
	return svc.transition(ctx, id, by, func(p *proposition.Proposition) error { return p.Withdraw(by) })
}

func (svc *Service) Get(ctx context.Context, id string) (*proposition.Proposition, error) {
	return svc.deps.Propositions.Get(ctx, id)
}

func (svc *Service) Search(ctx context.Context, f proposition.Filter) ([]proposition.Proposition, error) {
	props, err := svc.deps.Propositions.Search(ctx, f)
	if err != nil {
		return nil, errors.Wrap(err, "searching propositions")
	}
	return props, nil
}

func (svc *Service) History(ctx context.Context, id string, tags ...history.Tag) ([]history.Entry, error) {
	if _, err := svc.deps.Propositions.Get(ctx, id); err != nil {
		return nil, err
	}
	return svc.deps.History.List(ctx, id, tags...)
}

// Program resolves the program of a proposition, for the delivery layers.
func (svc *Service) Program(ctx context.Context, p *proposition.Proposition) (catalog.Program, error) {
	return svc.deps.Programs.GetProgram(ctx, p.ProgramID)
}
