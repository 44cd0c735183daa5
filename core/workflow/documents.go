package workflow

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/admission/core"
	"github.com/trezcool/admission/core/document"
	"github.com/trezcool/admission/core/history"
	"github.com/trezcool/admission/core/proposition"
)

// DocumentRequest is what a manager asks the candidate for.
type DocumentRequest struct {
	Body     document.Body          `json:"body" validate:"required,oneof=SIC FAC"`
	Slots    []document.SlotRequest `json:"slots" validate:"required,min=1,dive"`
	Deadline *time.Time             `json:"deadline"` // end of day after the default delay when nil
	Message  string                 `json:"message"`
	Reopen   bool                   `json:"reopen"`
}

// blocking reports whether pending requests of body still hold the proposition back.
func blocking(tracker *document.Tracker, body document.Body) bool {
	for _, r := range tracker.PendingFor(body) {
		if r.Timing != document.TimingLaterNonBlocking {
			return true
		}
	}
	return false
}

// RequestDocuments asks the candidate for documents and puts the proposition
// "to complete" for the requesting body. Asking again for slots already pending changes nothing.
func (svc *Service) RequestDocuments(ctx context.Context, id string, in DocumentRequest, by string) ([]document.Request, error) {
	var requested []document.Request
	err := svc.withLock(ctx, propositionKey(id), func() error {
		p, err := svc.deps.Propositions.Get(ctx, id)
		if err != nil {
			return err
		}
		from := p.Status
		if err = p.RequestDocuments(in.Body, by); err != nil {
			return err
		}

		deadline := document.EndOfDay(core.Now().Add(svc.deps.Config.DefaultRequestDelay))
		if in.Deadline != nil {
			deadline = *in.Deadline
		}
		tracker, err := svc.loadTracker(ctx, id)
		if err != nil {
			return err
		}
		if requested, err = tracker.Request(in.Slots, by, in.Body, deadline, in.Message, in.Reopen); err != nil {
			return err
		}
		if len(requested) == 0 {
			return nil
		}
		if err = svc.save(ctx, p, nil, requested, by); err != nil {
			return err
		}

		svc.notify("document request", svc.deps.Notifier.NotifyDocumentRequest(ctx, p, requested), p)
		slots := make([]string, len(requested))
		for i, r := range requested {
			slots[i] = r.Slot
		}
		tags := []history.Tag{history.TagDocuments}
		if p.Status != from {
			tags = append(tags, history.TagStatusChange)
		}
		svc.record(ctx, p, msgf(
			"Documents demandés par le %s pour le %s : %s.",
			"Documents requested by %s due %s: %s.",
			in.Body, deadline.Format("2006-01-02"), slotList(slots),
		), by, tags...)
		svc.statusChanged(ctx, p, from)
		return nil
	})
	return requested, err
}

// CancelDocumentRequest withdraws one pending request. The proposition goes back in review
// once nothing is pending for that body anymore.
func (svc *Service) CancelDocumentRequest(ctx context.Context, id, slot, by string) (document.Request, error) {
	var cancelled document.Request
	err := svc.withLock(ctx, propositionKey(id), func() error {
		p, err := svc.deps.Propositions.Get(ctx, id)
		if err != nil {
			return err
		}
		if err = p.Check(proposition.TransitionCancelDocumentRequest, proposition.OpenStatuses()...); err != nil {
			return err
		}
		tracker, err := svc.loadTracker(ctx, id)
		if err != nil {
			return err
		}
		pending, _ := tracker.Get(slot)
		if cancelled, err = tracker.CancelRequest(slot, by); err != nil {
			return err
		}

		from := p.Status
		if len(tracker.PendingFor(pending.Body)) == 0 {
			// illegal when the other body is the one waiting
			if err = p.CancelDocumentRequest(pending.Body, by); err != nil && !errors.Is(err, proposition.ErrIllegalTransition) {
				return err
			}
		}
		var changed *proposition.Proposition
		if p.Status != from {
			changed = p
		}
		if err = svc.save(ctx, changed, nil, []document.Request{cancelled}, by); err != nil {
			return err
		}

		tags := []history.Tag{history.TagDocuments}
		if p.Status != from {
			tags = append(tags, history.TagStatusChange)
		}
		svc.record(ctx, p, msgf("Demande du document %s annulée.", "Request for document %s cancelled.", slot), by, tags...)
		svc.statusChanged(ctx, p, from)
		return nil
	})
	return cancelled, err
}

// CompleteDocuments stores the candidate's answers. A body gets its proposition back as
// "completed" once none of its blocking requests is pending.
func (svc *Service) CompleteDocuments(ctx context.Context, id string, answers map[string]document.Answer, by string) ([]document.Request, error) {
	var completed []document.Request
	err := svc.withLock(ctx, propositionKey(id), func() error {
		p, err := svc.deps.Propositions.Get(ctx, id)
		if err != nil {
			return err
		}
		// non-blocking requests stay answerable once the blocking ones are done
		if err = p.Check(proposition.TransitionCompleteDocuments, proposition.OpenStatuses()...); err != nil {
			return err
		}
		tracker, err := svc.loadTracker(ctx, id)
		if err != nil {
			return err
		}
		if completed, err = tracker.Complete(answers, by); err != nil {
			return err
		}

		from := p.Status
		for _, body := range []document.Body{document.BodySIC, document.BodyFAC} {
			if blocking(tracker, body) || p.Check(proposition.TransitionCompleteDocuments) != nil {
				continue
			}
			if err = p.CompleteDocuments(body, by); err != nil && !errors.Is(err, proposition.ErrIllegalTransition) {
				return err
			}
		}
		var changed *proposition.Proposition
		if p.Status != from {
			changed = p
		}
		if err = svc.save(ctx, changed, nil, completed, by); err != nil {
			return err
		}

		svc.notify("document completion", svc.deps.Notifier.NotifyDocumentCompletion(ctx, p, completed), p)
		slots := make([]string, len(completed))
		for i, r := range completed {
			slots[i] = r.Slot
		}
		tags := []history.Tag{history.TagDocuments}
		if p.Status != from {
			tags = append(tags, history.TagStatusChange)
		}
		svc.record(ctx, p, msgf("Documents fournis : %s.", "Documents provided: %s.", slotList(slots)), by, tags...)
		svc.statusChanged(ctx, p, from)
		return nil
	})
	return completed, err
}

// RecalculateDocuments realigns the document slots with the candidate's current data.
func (svc *Service) RecalculateDocuments(ctx context.Context, id, by string) (document.Diff, error) {
	var diff document.Diff
	err := svc.withLock(ctx, propositionKey(id), func() error {
		p, err := svc.deps.Propositions.Get(ctx, id)
		if err != nil {
			return err
		}
		if err = p.Check(proposition.TransitionRecalculateDocuments, proposition.OpenStatuses()...); err != nil {
			return err
		}
		tracker, err := svc.loadTracker(ctx, id)
		if err != nil {
			return err
		}
		var added []document.Request
		if added, diff, err = svc.recalculate(ctx, p, tracker); err != nil {
			return err
		}
		if diff.Empty() {
			return nil
		}
		err = svc.deps.Tx.WithinTx(ctx, func(ctx context.Context) error {
			if err := svc.saveDocuments(ctx, id, diff); err != nil {
				return err
			}
			return svc.save(ctx, nil, nil, added, by)
		})
		if err != nil {
			return err
		}
		svc.record(ctx, p, msgf(
			"Documents recalculés : ajoutés [%s], retirés [%s].",
			"Documents recalculated: added [%s], removed [%s].",
			slotList(diff.ToAdd), slotList(diff.ToRemove),
		), by, history.TagDocuments)
		return nil
	})
	return diff, err
}

// Documents returns the document slots of a proposition, sorted by slot.
func (svc *Service) Documents(ctx context.Context, id string) ([]document.Request, error) {
	if _, err := svc.deps.Propositions.Get(ctx, id); err != nil {
		return nil, err
	}
	tracker, err := svc.loadTracker(ctx, id)
	if err != nil {
		return nil, err
	}
	return tracker.Requests, nil
}

// OverdueDocuments returns every pending request whose deadline has passed.
func (svc *Service) OverdueDocuments(ctx context.Context) ([]document.Request, error) {
	reqs, err := svc.deps.Documents.Search(ctx, nil, document.StatusRequested)
	if err != nil {
		return nil, errors.Wrap(err, "searching pending document requests")
	}
	now := core.Now()
	overdue := make([]document.Request, 0, len(reqs))
	for _, r := range reqs {
		if r.IsOverdue(now) {
			overdue = append(overdue, r)
		}
	}
	return overdue, nil
}
