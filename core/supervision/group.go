package supervision

import (
	"github.com/google/uuid"

	"github.com/trezcool/admission/core"
)

// NewGroup returns the empty supervision group of a proposition.
func NewGroup(propositionID string) *Group {
	return &Group{
		ID:            uuid.NewString(),
		PropositionID: propositionID,
		Signatures:    []Signature{},
	}
}

// AddMember adds actor to the group, not yet invited to sign.
func (g *Group) AddMember(actor Actor) (Signature, error) {
	if g.Locked {
		return Signature{}, ErrGroupAlreadyLocked
	}
	if err := validateActor(actor); err != nil {
		return Signature{}, err
	}
	key := actor.Key()
	for _, s := range g.Signatures {
		if s.Actor.Key() == key {
			return Signature{}, ErrDuplicateActor
		}
	}

	if actor.ID == "" {
		actor.ID = uuid.NewString()
	}
	sig := Signature{
		Actor:     actor,
		State:     StateNotInvited,
		UpdatedAt: core.Now(),
	}
	g.Signatures = append(g.Signatures, sig)
	return sig, nil
}

// RemoveMember removes actorID from the group, whatever its lock state.
// discarded reports that an approval or a decline was thrown away with the member.
func (g *Group) RemoveMember(actorID string) (removed Signature, discarded bool, err error) {
	i, ok := g.find(actorID)
	if !ok {
		return Signature{}, false, ErrMemberNotFound
	}
	removed = g.Signatures[i]
	g.Signatures = append(g.Signatures[:i:i], g.Signatures[i+1:]...)
	if g.ReferencePromoterID == actorID {
		g.ReferencePromoterID = ""
	}
	return removed, removed.Decided(), nil
}

func (g *Group) DesignateReferencePromoter(actorID string) error {
	i, ok := g.find(actorID)
	if !ok || g.Signatures[i].Actor.Role != RolePromoter {
		return ErrNotAPromoter
	}
	g.ReferencePromoterID = actorID
	return nil
}

// RequestSignatures invites every member who has not been invited yet, or who declined
// before the group got unlocked, then locks the group.
func (g *Group) RequestSignatures() ([]Signature, error) {
	if g.Locked {
		return nil, ErrGroupAlreadyLocked
	}
	now := core.Now()
	invited := make([]Signature, 0, len(g.Signatures))
	for i := range g.Signatures {
		sig := &g.Signatures[i]
		if sig.State == StateNotInvited || sig.State == StateDeclined {
			sig.State = StateInvited
			sig.InternalComment = ""
			sig.ExternalComment = ""
			sig.RejectionReason = ""
			sig.UpdatedAt = now
			invited = append(invited, *sig)
		}
	}
	g.Locked = true
	return invited, nil
}

// Unlock allows membership edits again.
func (g *Group) Unlock() {
	g.Locked = false
}

// RecordDecision records the verdict of an invited member.
// last reports that no invited member is left waiting.
func (g *Group) RecordDecision(actorID string, d Decision) (sig Signature, last bool, err error) {
	i, ok := g.find(actorID)
	if !ok {
		return Signature{}, false, ErrMemberNotFound
	}
	if g.Signatures[i].State != StateInvited {
		return Signature{}, false, ErrSignatureNotInvited
	}

	var state SignatureState
	switch d.Verdict {
	case VerdictApproved:
		state = StateApproved
	case VerdictDeclined:
		if core.CleanString(d.RejectionReason) == "" {
			return Signature{}, false, ErrRejectionReasonRequired
		}
		state = StateDeclined
	default:
		return Signature{}, false, ErrInvalidVerdict
	}

	s := &g.Signatures[i]
	s.State = state
	s.InternalComment = core.CleanString(d.InternalComment)
	s.ExternalComment = core.CleanString(d.ExternalComment)
	s.RejectionReason = core.CleanString(d.RejectionReason)
	s.PDF = d.PDF
	s.UpdatedAt = core.Now()
	return *s, g.Outstanding() == 0, nil
}

// RecordDecisionViaPDF approves on behalf of actorID with the uploaded signed document,
// whether or not the member was invited.
func (g *Group) RecordDecisionViaPDF(actorID string, pdf []string) (sig Signature, last bool, err error) {
	i, ok := g.find(actorID)
	if !ok {
		return Signature{}, false, ErrMemberNotFound
	}
	pdf = core.CleanStrings(pdf)
	if len(pdf) == 0 {
		return Signature{}, false, ErrPDFRequired
	}

	s := &g.Signatures[i]
	s.State = StateApproved
	s.RejectionReason = ""
	s.PDF = pdf
	s.UpdatedAt = core.Now()
	return *s, g.Outstanding() == 0, nil
}

// DefineCotutelle sets or clears (nil) the cotutelle declaration.
func (g *Group) DefineCotutelle(c *Cotutelle) error {
	if c != nil {
		if err := c.Validate(); err != nil {
			return err
		}
	}
	g.Cotutelle = c
	return nil
}
