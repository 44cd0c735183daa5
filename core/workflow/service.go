// Package workflow orchestrates the admission use cases: each one loads the proposition,
// applies a domain operation, saves the result, then notifies people and records history.
package workflow

import (
	"context"
	"strconv"

	"github.com/pkg/errors"

	"github.com/trezcool/admission/core"
	"github.com/trezcool/admission/core/catalog"
	"github.com/trezcool/admission/core/document"
	"github.com/trezcool/admission/core/history"
	"github.com/trezcool/admission/core/proposition"
	"github.com/trezcool/admission/core/supervision"
)

var ErrBusy = core.NewConflictError("proposition_busy", "the proposition is being modified by someone else, please retry in a moment")

type (
	// Notifier tells people about changes. Failures are logged, never returned to the caller.
	Notifier interface {
		NotifySignatureRequest(ctx context.Context, p *proposition.Proposition, invited []supervision.Signature) error
		NotifyDecision(ctx context.Context, p *proposition.Proposition, sig supervision.Signature) error
		NotifySubmission(ctx context.Context, p *proposition.Proposition) error
		NotifyDocumentRequest(ctx context.Context, p *proposition.Proposition, requests []document.Request) error
		NotifyDocumentCompletion(ctx context.Context, p *proposition.Proposition, requests []document.Request) error
		NotifyStatusChange(ctx context.Context, p *proposition.Proposition, from proposition.Status) error
	}

	// Locker serializes the mutations of one proposition.
	Locker interface {
		// Lock blocks until key is held, failing with ErrBusy when it cannot be acquired in time.
		Lock(ctx context.Context, key string) (unlock func(), err error)
	}

	HistoryLog interface {
		history.Historian
		List(ctx context.Context, propositionID string, tags ...history.Tag) ([]history.Entry, error)
	}
)

type Deps struct {
	Propositions proposition.Repository
	Groups       supervision.Repository
	Documents    document.Repository
	History      HistoryLog
	Tx           core.Transactor
	Locker       Locker
	Notifier     Notifier

	Programs     catalog.Programs
	Scholarships catalog.Scholarships
	Calendar     catalog.Calendar
	Actors       catalog.Actors
	Profiles     catalog.Profiles
	Catalogue    *document.Catalogue

	Logger core.Logger
	Config core.AdmissionConfig
}

type Service struct {
	deps Deps
}

func NewService(deps Deps) *Service {
	return &Service{deps: deps}
}

func propositionKey(id string) string { return "proposition:" + id }

// withLock runs fn while holding the lock of key.
func (svc *Service) withLock(ctx context.Context, key string, fn func() error) error {
	unlock, err := svc.deps.Locker.Lock(ctx, key)
	if err != nil {
		return err
	}
	defer unlock()
	return fn()
}

// save persists what a use case changed within one transaction. nil aggregates are skipped.
func (svc *Service) save(ctx context.Context, p *proposition.Proposition, g *supervision.Group, docs []document.Request, by string) error {
	return svc.deps.Tx.WithinTx(ctx, func(ctx context.Context) error {
		if p != nil {
			if err := svc.deps.Propositions.Save(ctx, p); err != nil {
				return errors.Wrap(err, "saving proposition")
			}
		}
		if g != nil {
			if err := svc.deps.Groups.Save(ctx, g); err != nil {
				return errors.Wrap(err, "saving supervision group")
			}
		}
		if len(docs) > 0 {
			if err := svc.deps.Documents.SaveMultiple(ctx, docs, by); err != nil {
				return errors.Wrap(err, "saving document requests")
			}
		}
		return nil
	})
}

func (svc *Service) notify(what string, err error, p *proposition.Proposition) {
	if err != nil {
		svc.deps.Logger.Error("notifying "+what, err, map[string]interface{}{"proposition": p.ID})
	}
}

func (svc *Service) record(ctx context.Context, p *proposition.Proposition, msg message, by string, tags ...history.Tag) {
	if err := svc.deps.History.Record(ctx, p.ID, msg.fr, msg.en, by, tags...); err != nil {
		svc.deps.Logger.Error("recording history", err, map[string]interface{}{"proposition": p.ID})
	}
}

func (svc *Service) statusChanged(ctx context.Context, p *proposition.Proposition, from proposition.Status) {
	if p.Status != from {
		svc.notify("status change", svc.deps.Notifier.NotifyStatusChange(ctx, p, from), p)
	}
}

func (svc *Service) loadTracker(ctx context.Context, propositionID string) (*document.Tracker, error) {
	reqs, err := svc.deps.Documents.Search(ctx, []string{propositionID})
	if err != nil {
		return nil, errors.Wrap(err, "loading document requests")
	}
	return document.NewTracker(propositionID, reqs), nil
}

// eligibility resolves everything the proposition is verified against.
func (svc *Service) eligibility(ctx context.Context, p *proposition.Proposition, g *supervision.Group) (proposition.Eligibility, error) {
	e := proposition.Eligibility{
		Group:               g,
		MaxOpen:             svc.deps.Config.MaxConcurrentPropositions,
		MinCommitteeMembers: svc.deps.Config.MinCommitteeMembers,
	}
	var err error
	if e.Program, err = svc.deps.Programs.GetProgram(ctx, p.ProgramID); err != nil {
		return e, err
	}
	if e.Profile, err = svc.deps.Profiles.GetProfile(ctx, p.ApplicantID); err != nil {
		return e, err
	}
	if _, err = svc.deps.Calendar.DeterminePool(ctx, p.ProgramID, core.Now()); err != nil {
		if !errors.Is(err, catalog.ErrNoPoolOpen) {
			return e, err
		}
		e.PoolErr = err
	}
	if e.Open, err = svc.deps.Propositions.CountOpen(ctx, p.ApplicantID); err != nil {
		return e, errors.Wrap(err, "counting open propositions")
	}
	return e, nil
}

// documentProfile flattens the facts the required documents depend on.
func documentProfile(p *proposition.Proposition, profile catalog.CandidateProfile) document.Profile {
	dp := make(document.Profile, len(profile.Attributes)+8)
	for k, v := range profile.Attributes {
		dp[k] = v
	}
	dp["program_kind"] = string(p.ProgramKind)
	dp["admission_type"] = string(p.AdmissionType)
	dp["nationality"] = profile.Nationality
	dp["nationality_eu"] = strconv.FormatBool(profile.NationalityEUEquivalent)
	dp["request_type"] = string(proposition.DetermineRequestType(profile))
	dp["financing_type"] = string(p.Financing.Type)
	dp["scholarship"] = p.Financing.ScholarshipID
	dp["assimilation"] = p.Accounting.AssimilationSituation
	return dp
}

// recalculate aligns the document slots of p with its current profile, and returns the
// requests to save and the diff applied.
func (svc *Service) recalculate(ctx context.Context, p *proposition.Proposition, tracker *document.Tracker) ([]document.Request, document.Diff, error) {
	profile, err := svc.deps.Profiles.GetProfile(ctx, p.ApplicantID)
	if err != nil {
		return nil, document.Diff{}, err
	}
	required := svc.deps.Catalogue.RequiredSlots(documentProfile(p, profile))
	diff := tracker.Recalculate(required, core.Now())
	if diff.Empty() {
		return nil, diff, nil
	}
	tracker.Apply(diff, required)

	added := make([]document.Request, 0, len(diff.ToAdd))
	for _, slot := range diff.ToAdd {
		if r, ok := tracker.Get(slot); ok {
			added = append(added, r)
		}
	}
	return added, diff, nil
}

// saveDocuments persists a recalculation next to the other changes of a use case.
func (svc *Service) saveDocuments(ctx context.Context, propositionID string, diff document.Diff) error {
	if len(diff.ToRemove) == 0 {
		return nil
	}
	return errors.Wrap(svc.deps.Documents.Delete(ctx, propositionID, diff.ToRemove...), "deleting document requests")
}
