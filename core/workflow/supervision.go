package workflow

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/admission/core/history"
	"github.com/trezcool/admission/core/proposition"
	"github.com/trezcool/admission/core/supervision"
)

// loadSupervision loads a doctoral proposition and its group, checking t may start from one of `from`.
func (svc *Service) loadSupervision(ctx context.Context, id string, t proposition.Transition, from ...proposition.Status) (*proposition.Proposition, *supervision.Group, error) {
	p, err := svc.deps.Propositions.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if err = p.CheckSupervision(t, from...); err != nil {
		return nil, nil, err
	}
	g, err := svc.deps.Groups.GetByPropositionID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return p, g, nil
}

// AddMember adds a promoter or a committee member to the supervision group.
// Internal members are looked up in the people directory.
func (svc *Service) AddMember(ctx context.Context, id string, actor supervision.Actor, by string) (supervision.Signature, error) {
	var sig supervision.Signature
	err := svc.withLock(ctx, propositionKey(id), func() error {
		p, g, err := svc.loadSupervision(ctx, id, proposition.TransitionEditSupervision, proposition.StatusDraft)
		if err != nil {
			return err
		}
		if actor.Matricule != "" && actor.External == nil {
			if _, err = svc.deps.Actors.GetPerson(ctx, actor.Matricule); err != nil {
				return err
			}
		}
		if sig, err = g.AddMember(actor); err != nil {
			return err
		}

		err = svc.deps.Tx.WithinTx(ctx, func(ctx context.Context) error {
			actorID, err := svc.deps.Groups.AddMember(ctx, g.ID, sig)
			if err != nil {
				return errors.Wrap(err, "adding supervision member")
			}
			sig.Actor.ID = actorID
			return nil
		})
		if err != nil {
			return err
		}
		who := memberLabel(sig)
		svc.record(ctx, p, memberf(who, "Ajout de %s.", "Added %s."), by, history.TagSupervision)
		return nil
	})
	return sig, err
}

// RemoveMember removes a member from the group. While signatures are collected it is an
// administrative action, and removing the last member still waiting completes the signature.
func (svc *Service) RemoveMember(ctx context.Context, id, actorID, by string) error {
	return svc.withLock(ctx, propositionKey(id), func() error {
		p, g, err := svc.loadSupervision(ctx, id, proposition.TransitionEditSupervision,
			proposition.StatusDraft, proposition.StatusSigningInProgress)
		if err != nil {
			return err
		}
		removed, discarded, err := g.RemoveMember(actorID)
		if err != nil {
			return err
		}
		from := p.Status
		if p.Status == proposition.StatusSigningInProgress && g.IsFullySigned() {
			if err = p.MarkSigned(by); err != nil {
				return err
			}
		}

		err = svc.deps.Tx.WithinTx(ctx, func(ctx context.Context) error {
			if err := svc.deps.Groups.RemoveMember(ctx, g.ID, actorID); err != nil {
				return errors.Wrap(err, "removing supervision member")
			}
			if p.Status != from {
				return svc.save(ctx, p, g, nil, by)
			}
			return nil
		})
		if err != nil {
			return err
		}

		who := memberLabel(removed)
		msg := memberf(who, "Retrait de %s.", "Removed %s.")
		if discarded {
			msg = memberf(who, "Retrait de %s, sa décision est écartée.", "Removed %s, their decision is discarded.")
		}
		if from != proposition.StatusDraft {
			svc.deps.Logger.Warn("supervision member removed while signing", map[string]interface{}{
				"proposition": p.ID, "actor": actorID, "by": by, "discarded": discarded,
			})
		}
		svc.record(ctx, p, msg, by, history.TagSupervision)
		svc.statusChanged(ctx, p, from)
		return nil
	})
}

func (svc *Service) DesignateReferencePromoter(ctx context.Context, id, actorID, by string) error {
	return svc.withLock(ctx, propositionKey(id), func() error {
		p, g, err := svc.loadSupervision(ctx, id, proposition.TransitionEditSupervision, proposition.StatusDraft)
		if err != nil {
			return err
		}
		if err = g.DesignateReferencePromoter(actorID); err != nil {
			return err
		}
		if err = svc.save(ctx, nil, g, nil, by); err != nil {
			return err
		}
		sig, _ := g.Get(actorID)
		who := memberLabel(sig)
		svc.record(ctx, p, memberf(who, "Désignation de %s comme promoteur de référence.", "Designated %s as reference promoter."), by, history.TagSupervision)
		return nil
	})
}

// DefineCotutelle sets the cotutelle declaration, or removes it when c is nil.
func (svc *Service) DefineCotutelle(ctx context.Context, id string, c *supervision.Cotutelle, by string) error {
	return svc.withLock(ctx, propositionKey(id), func() error {
		p, g, err := svc.loadSupervision(ctx, id, proposition.TransitionEditSupervision, proposition.StatusDraft)
		if err != nil {
			return err
		}
		if err = g.DefineCotutelle(c); err != nil {
			return err
		}
		if err = svc.save(ctx, nil, g, nil, by); err != nil {
			return err
		}
		msg := message{"Cotutelle définie.", "Cotutelle defined."}
		if c == nil {
			msg = message{"Cotutelle retirée.", "Cotutelle removed."}
		}
		svc.record(ctx, p, msg, by, history.TagSupervision)
		return nil
	})
}

// RequestSignatures verifies the proposition, locks it and invites the members to sign.
func (svc *Service) RequestSignatures(ctx context.Context, id, by string) ([]supervision.Signature, error) {
	var invited []supervision.Signature
	err := svc.withLock(ctx, propositionKey(id), func() error {
		p, g, err := svc.loadSupervision(ctx, id, proposition.TransitionLockForSignature, proposition.StatusDraft)
		if err != nil {
			return err
		}
		e, err := svc.eligibility(ctx, p, g)
		if err != nil {
			return err
		}
		from := p.Status
		if err = p.LockForSignature(e, by); err != nil {
			return err
		}
		if invited, err = g.RequestSignatures(); err != nil {
			return err
		}
		// every member kept an approval given before the last unlock
		if len(invited) == 0 && g.IsFullySigned() {
			if err = p.MarkSigned(by); err != nil {
				return err
			}
		}
		if err = svc.save(ctx, p, g, nil, by); err != nil {
			return err
		}

		if len(invited) > 0 {
			svc.notify("signature request", svc.deps.Notifier.NotifySignatureRequest(ctx, p, invited), p)
			svc.record(ctx, p, message{"Demande de signatures envoyée.", "Signatures requested."}, by,
				history.TagProposition, history.TagSupervision, history.TagStatusChange)
		} else {
			svc.record(ctx, p, message{
				"Toutes les signatures sont déjà acquises. La proposition est signée.",
				"Every signature is already given. The proposition is signed.",
			}, by, history.TagProposition, history.TagSupervision, history.TagStatusChange)
		}
		svc.statusChanged(ctx, p, from)
		return nil
	})
	return invited, err
}

// RecordDecision records the answer of a member to the signature request.
// The first decline sends the proposition back to DRAFT and unlocks the group; the approval
// of the last member waiting marks it SIGNED. The reference promoter approving must give
// the thesis institute when the project does not have one yet.
func (svc *Service) RecordDecision(ctx context.Context, id, actorID string, d supervision.Decision, institute, by string) (supervision.Signature, error) {
	return svc.decide(ctx, id, actorID, by, func(p *proposition.Proposition, g *supervision.Group) (supervision.Signature, bool, error) {
		if d.Verdict == supervision.VerdictApproved && g.IsReferencePromoter(actorID) && p.Status == proposition.StatusSigningInProgress {
			if err := p.SupplyThesisInstitute(institute, by); err != nil {
				return supervision.Signature{}, false, err
			}
		}
		return g.RecordDecision(actorID, d)
	})
}

// RecordDecisionViaPDF approves on behalf of a member with the document they signed,
// uploaded by the candidate.
func (svc *Service) RecordDecisionViaPDF(ctx context.Context, id, actorID string, pdf []string, by string) (supervision.Signature, error) {
	return svc.decide(ctx, id, actorID, by, func(_ *proposition.Proposition, g *supervision.Group) (supervision.Signature, bool, error) {
		return g.RecordDecisionViaPDF(actorID, pdf)
	})
}

func (svc *Service) decide(
	ctx context.Context, id, actorID, by string,
	apply func(p *proposition.Proposition, g *supervision.Group) (supervision.Signature, bool, error),
) (supervision.Signature, error) {
	var sig supervision.Signature
	err := svc.withLock(ctx, propositionKey(id), func() error {
		p, g, err := svc.loadSupervision(ctx, id, proposition.TransitionRecordDecision,
			proposition.StatusSigningInProgress, proposition.StatusDraft)
		if err != nil {
			return err
		}
		from := p.Status
		var last bool
		if sig, last, err = apply(p, g); err != nil {
			return err
		}

		unlocked := false
		switch {
		case sig.State == supervision.StateDeclined:
			if unlocked, err = p.Unlock(by); err != nil {
				return err
			}
			if unlocked {
				g.Unlock()
			}
		case last && p.Status == proposition.StatusSigningInProgress:
			if err = p.MarkSigned(by); err != nil {
				return err
			}
		}
		if err = svc.save(ctx, p, g, nil, by); err != nil {
			return err
		}

		svc.notify("decision", svc.deps.Notifier.NotifyDecision(ctx, p, sig), p)
		who := memberLabel(sig)
		switch {
		case unlocked:
			svc.record(ctx, p, memberf(who,
				"Refus de %s : « %s ». La proposition repasse en brouillon.",
				"Declined by %s: %q. The proposition is back to draft.",
				sig.RejectionReason,
			), by, history.TagProposition, history.TagSupervision)
		case sig.State == supervision.StateDeclined:
			svc.record(ctx, p, memberf(who, "Refus de %s : « %s ».", "Declined by %s: %q.", sig.RejectionReason), by, history.TagSupervision)
		case p.Status != from:
			svc.record(ctx, p, memberf(who,
				"Approbation de %s. La proposition est signée.",
				"Approved by %s. The proposition is signed.",
			), by, history.TagProposition, history.TagSupervision)
		default:
			svc.record(ctx, p, memberf(who, "Approbation de %s.", "Approved by %s."), by, history.TagSupervision)
		}
		svc.statusChanged(ctx, p, from)
		return nil
	})
	return sig, err
}

// Group returns the supervision group of a doctoral proposition.
func (svc *Service) Group(ctx context.Context, id string) (*supervision.Group, error) {
	if _, err := svc.deps.Propositions.Get(ctx, id); err != nil {
		return nil, err
	}
	return svc.deps.Groups.GetByPropositionID(ctx, id)
}
