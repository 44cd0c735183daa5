package document

import (
	"sort"
	"time"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/trezcool/admission/core"
)

// Tracker holds the document slots of one proposition.
type Tracker struct {
	PropositionID string
	Requests      []Request
}

func NewTracker(propositionID string, requests []Request) *Tracker {
	reqs := make([]Request, len(requests))
	copy(reqs, requests)
	sort.Slice(reqs, func(i, j int) bool { return reqs[i].Slot < reqs[j].Slot })
	return &Tracker{PropositionID: propositionID, Requests: reqs}
}

func (t *Tracker) find(slot string) (int, bool) {
	for i, r := range t.Requests {
		if r.Slot == slot {
			return i, true
		}
	}
	return -1, false
}

// Get returns the request of slot.
func (t *Tracker) Get(slot string) (Request, bool) {
	i, ok := t.find(slot)
	if !ok {
		return Request{}, false
	}
	return t.Requests[i], true
}

func (t *Tracker) upsert(r Request) {
	if i, ok := t.find(r.Slot); ok {
		t.Requests[i] = r
		return
	}
	t.Requests = append(t.Requests, r)
	sort.Slice(t.Requests, func(i, j int) bool { return t.Requests[i].Slot < t.Requests[j].Slot })
}

// Request asks the candidate for slots by deadline. Slots already requested are kept as they are;
// completed slots are only requested again when reopen is set.
// It returns the newly requested slots.
func (t *Tracker) Request(slots []SlotRequest, by string, body Body, deadline time.Time, message string, reopen bool) ([]Request, error) {
	if len(slots) == 0 {
		return nil, ErrNoSlot
	}
	now := core.Now()
	if !deadline.After(now) {
		return nil, ErrDeadlinePassed
	}

	var unknown, completed core.Violations
	for _, s := range slots {
		if !s.Kind.Valid() {
			unknown.Add(s.Slot, ErrUnknownKind)
		}
		if r, ok := t.Get(s.Slot); ok && r.Status == StatusCompleted && !reopen {
			completed.Add(s.Slot, ErrSlotAlreadyCompleted)
		}
	}
	if err := unknown.Err(ErrUnknownKind); err != nil {
		return nil, err
	}
	if err := completed.Err(ErrSlotAlreadyCompleted); err != nil {
		return nil, err
	}

	requested := make([]Request, 0, len(slots))
	for _, s := range slots {
		if r, ok := t.Get(s.Slot); ok && r.Status == StatusRequested {
			continue
		}
		timing := s.Timing
		if timing == "" {
			timing = TimingImmediately
		}
		r := Request{
			PropositionID: t.PropositionID,
			Slot:          s.Slot,
			Kind:          s.Kind,
			Status:        StatusRequested,
			Body:          body,
			Timing:        timing,
			RequestedBy:   by,
			RequestedAt:   now,
			Deadline:      deadline,
			Message:       core.CleanString(message),
		}
		t.upsert(r)
		requested = append(requested, r)
	}
	return requested, nil
}

// CancelRequest withdraws a pending request.
func (t *Tracker) CancelRequest(slot, by string) (Request, error) {
	i, ok := t.find(slot)
	if !ok || t.Requests[i].Status != StatusRequested {
		return Request{}, ErrSlotNotRequested
	}
	r := &t.Requests[i]
	r.Status = StatusNotRequested
	r.RequestedBy = by
	r.RequestedAt = core.Now()
	r.Deadline = time.Time{}
	r.Message = ""
	return *r, nil
}

// Complete stores the candidate's answers. Either every answered slot gets completed,
// or none does and the error lists every offending slot.
func (t *Tracker) Complete(answers map[string]Answer, by string) ([]Request, error) {
	if len(answers) == 0 {
		return nil, ErrNoSlot
	}
	slots := sortedKeys(answers)

	var notRequested core.Violations
	for _, slot := range slots {
		if r, ok := t.Get(slot); !ok || r.Status != StatusRequested {
			notRequested.Add(slot, ErrSlotNotRequested)
		}
	}
	if err := notRequested.Err(ErrSlotNotRequested); err != nil {
		return nil, err
	}

	var incomplete core.Violations
	for _, slot := range slots {
		r, _ := t.Get(slot)
		a := answers[slot]
		if r.Kind == KindFreeText {
			if core.CleanString(a.Text) == "" {
				incomplete.Add(slot, ErrIncompleteSubmission)
			}
		} else if len(core.CleanStrings(a.Files)) == 0 {
			incomplete.Add(slot, ErrIncompleteSubmission)
		}
	}
	if err := incomplete.Err(ErrIncompleteSubmission); err != nil {
		return nil, err
	}

	now := core.Now()
	completed := make([]Request, 0, len(slots))
	for _, slot := range slots {
		i, _ := t.find(slot)
		r := &t.Requests[i]
		a := answers[slot]
		r.Status = StatusCompleted
		r.Files = core.CleanStrings(a.Files)
		r.Answer = core.CleanString(a.Text)
		r.CompletedBy = by
		r.CompletedAt = now
		completed = append(completed, *r)
	}
	return completed, nil
}

// Recalculate compares the existing slots with the ones required now.
// Completed slots and free slots asked by a body are never dropped. Neither is a pending
// request whose deadline has not passed: those are cancelled by hand.
func (t *Tracker) Recalculate(required []SlotRequest, now time.Time) Diff {
	existing := make([]string, 0, len(t.Requests))
	for _, r := range t.Requests {
		existing = append(existing, r.Slot)
	}
	wanted := uniqueSlots(required)

	diff := Diff{ToAdd: []string{}, ToRemove: []string{}, Unchanged: []string{}}
	var dropped []string
	m := difflib.NewMatcher(existing, wanted)
	for _, op := range m.GetOpCodes() {
		switch op.Tag {
		case 'e':
			diff.Unchanged = append(diff.Unchanged, existing[op.I1:op.I2]...)
		case 'd':
			dropped = append(dropped, existing[op.I1:op.I2]...)
		case 'i':
			diff.ToAdd = append(diff.ToAdd, wanted[op.J1:op.J2]...)
		case 'r':
			dropped = append(dropped, existing[op.I1:op.I2]...)
			diff.ToAdd = append(diff.ToAdd, wanted[op.J1:op.J2]...)
		}
	}
	for _, slot := range dropped {
		if r, _ := t.Get(slot); r.kept(now) {
			diff.Unchanged = append(diff.Unchanged, slot)
		} else {
			diff.ToRemove = append(diff.ToRemove, slot)
		}
	}
	sort.Strings(diff.ToAdd)
	sort.Strings(diff.ToRemove)
	sort.Strings(diff.Unchanged)
	return diff
}

// kept reports whether r survives a recalculation that no longer requires its slot.
func (r Request) kept(now time.Time) bool {
	switch {
	case r.Status == StatusCompleted:
		return true
	case r.Kind != KindNonFree && r.Body != "":
		return true
	default:
		return r.Status == StatusRequested && !r.IsOverdue(now)
	}
}

// Apply adds the slots to add as not yet requested and drops the ones to remove.
func (t *Tracker) Apply(diff Diff, required []SlotRequest) {
	kinds := make(map[string]SlotRequest, len(required))
	for _, r := range required {
		kinds[r.Slot] = r
	}
	for _, slot := range diff.ToAdd {
		sr := kinds[slot]
		t.upsert(Request{
			PropositionID: t.PropositionID,
			Slot:          slot,
			Kind:          sr.Kind,
			Timing:        sr.Timing,
			Status:        StatusNotRequested,
		})
	}
	for _, slot := range diff.ToRemove {
		if i, ok := t.find(slot); ok {
			t.Requests = append(t.Requests[:i:i], t.Requests[i+1:]...)
		}
	}
}

// Pending returns the requests still waiting for the candidate.
func (t *Tracker) Pending() []Request {
	var pending []Request
	for _, r := range t.Requests {
		if r.Status == StatusRequested {
			pending = append(pending, r)
		}
	}
	return pending
}

// PendingFor returns the pending requests issued by body.
func (t *Tracker) PendingFor(body Body) []Request {
	var pending []Request
	for _, r := range t.Pending() {
		if r.Body == body {
			pending = append(pending, r)
		}
	}
	return pending
}

// Overdue returns the pending requests whose deadline has passed at now.
func (t *Tracker) Overdue(now time.Time) []Request {
	var overdue []Request
	for _, r := range t.Requests {
		if r.IsOverdue(now) {
			overdue = append(overdue, r)
		}
	}
	return overdue
}

func uniqueSlots(reqs []SlotRequest) []string {
	seen := make(map[string]bool, len(reqs))
	slots := make([]string, 0, len(reqs))
	for _, r := range reqs {
		if !seen[r.Slot] {
			seen[r.Slot] = true
			slots = append(slots, r.Slot)
		}
	}
	sort.Strings(slots)
	return slots
}
