package document

import (
	"sort"
	"time"
)

type (
	Status string
	Kind   string
	Body   string
	Timing string
)

const (
	StatusNotRequested Status = "NOT_REQUESTED"
	StatusRequested    Status = "REQUESTED"
	StatusCompleted    Status = "COMPLETED"

	KindNonFree  Kind = "NON_FREE"  // mandatory upload
	KindFree     Kind = "FREE"      // upload requested ad hoc by a manager
	KindFreeText Kind = "FREE_TEXT" // written answer

	BodySIC Body = "SIC"
	BodyFAC Body = "FAC"

	TimingImmediately      Timing = "IMMEDIATELY"
	TimingLaterBlocking    Timing = "LATER_BLOCKING"
	TimingLaterNonBlocking Timing = "LATER_NON_BLOCKING"
)

func (k Kind) Valid() bool {
	return k == KindNonFree || k == KindFree || k == KindFreeText
}

func (b Body) Valid() bool {
	return b == BodySIC || b == BodyFAC
}

func (t Timing) Valid() bool {
	return t == TimingImmediately || t == TimingLaterBlocking || t == TimingLaterNonBlocking
}

type (
	// Request is one document slot of a proposition.
	Request struct {
		PropositionID string    `json:"proposition_id"`
		Slot          string    `json:"slot"`
		Kind          Kind      `json:"kind"`
		Status        Status    `json:"status"`
		Body          Body      `json:"body,omitempty"`
		Timing        Timing    `json:"timing,omitempty"`
		RequestedBy   string    `json:"requested_by,omitempty"`
		RequestedAt   time.Time `json:"requested_at,omitempty"`
		Deadline      time.Time `json:"deadline,omitempty"`
		Message       string    `json:"message,omitempty"`
		Files         []string  `json:"files,omitempty"`
		Answer        string    `json:"answer,omitempty"`
		CompletedBy   string    `json:"completed_by,omitempty"`
		CompletedAt   time.Time `json:"completed_at,omitempty"`
	}

	// SlotRequest names a slot to request and how it must be answered.
	SlotRequest struct {
		Slot   string `json:"slot" validate:"required,slot"`
		Kind   Kind   `json:"kind" validate:"required,oneof=NON_FREE FREE FREE_TEXT"`
		Timing Timing `json:"timing,omitempty" validate:"omitempty,oneof=IMMEDIATELY LATER_BLOCKING LATER_NON_BLOCKING"`
	}

	// Answer is what the candidate submits for one slot.
	Answer struct {
		Files []string `json:"files"`
		Text  string   `json:"text,omitempty"`
	}

	// Diff is the outcome of a recalculation, every list sorted.
	Diff struct {
		ToAdd     []string `json:"to_add"`
		ToRemove  []string `json:"to_remove"`
		Unchanged []string `json:"unchanged"`
	}
)

// IsOverdue reports whether a pending request's deadline has passed at now.
func (r Request) IsOverdue(now time.Time) bool {
	return r.Status == StatusRequested && !r.Deadline.IsZero() && now.After(r.Deadline)
}

// EndOfDay returns the last second of t's day, the deadline of a request due on that date.
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 23, 59, 59, 0, time.UTC)
}

func (d Diff) Empty() bool {
	return len(d.ToAdd) == 0 && len(d.ToRemove) == 0
}

func sortedKeys(m map[string]Answer) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
