package document

import (
	"reflect"
	"testing"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/admission/core"
)

func freezeTime(t *testing.T, now time.Time) {
	t.Helper()
	orig := core.NowFunc
	core.NowFunc = func() time.Time { return now }
	t.Cleanup(func() { core.NowFunc = orig })
}

func nonFree(slots ...string) []SlotRequest {
	reqs := make([]SlotRequest, 0, len(slots))
	for _, s := range slots {
		reqs = append(reqs, SlotRequest{Slot: s, Kind: KindNonFree})
	}
	return reqs
}

func TestTracker_Complete_incompleteBatch(t *testing.T) {
	freezeTime(t, time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC))
	deadline := EndOfDay(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))

	tr := NewTracker("prop-1", nil)
	if _, err := tr.Request(nonFree("transcript", "id_card"), "manager", BodySIC, deadline, "please", false); err != nil {
		t.Fatalf("Request() error = %v", err)
	}

	_, err := tr.Complete(map[string]Answer{"transcript": {Files: []string{}}}, "candidate")
	if !errors.Is(err, ErrIncompleteSubmission) {
		t.Fatalf("Complete() error = %v, wantErr %v", err, ErrIncompleteSubmission)
	}
	if got := SlotsOf(err); !reflect.DeepEqual(got, []string{"transcript"}) {
		t.Errorf("SlotsOf() = %v, want [transcript]", got)
	}
	for _, r := range tr.Requests {
		if r.Status == StatusCompleted {
			t.Errorf("slot %s completed by a rejected batch", r.Slot)
		}
	}
}

func TestTracker_Complete(t *testing.T) {
	freezeTime(t, time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC))
	deadline := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	newTracker := func(t *testing.T) *Tracker {
		tr := NewTracker("prop-1", []Request{{PropositionID: "prop-1", Slot: "old", Kind: KindNonFree, Status: StatusCompleted}})
		slots := append(nonFree("a", "b"), SlotRequest{Slot: "motivation", Kind: KindFreeText})
		if _, err := tr.Request(slots, "manager", BodyFAC, deadline, "", false); err != nil {
			t.Fatalf("Request() error = %v", err)
		}
		return tr
	}

	tests := []struct {
		name      string
		answers   map[string]Answer
		wantErr   error
		wantSlots []string
	}{
		{name: "nothing", answers: map[string]Answer{}, wantErr: ErrNoSlot},
		{
			name:      "every file missing is listed",
			answers:   map[string]Answer{"a": {}, "b": {Files: []string{" "}}, "motivation": {Text: "because"}},
			wantErr:   ErrIncompleteSubmission,
			wantSlots: []string{"a", "b"},
		},
		{
			name:      "free text needs an answer",
			answers:   map[string]Answer{"a": {Files: []string{"f"}}, "motivation": {Files: []string{"f"}}},
			wantErr:   ErrIncompleteSubmission,
			wantSlots: []string{"motivation"},
		},
		{
			name:      "slots not requested",
			answers:   map[string]Answer{"old": {Files: []string{"f"}}, "ghost": {Files: []string{"f"}}, "a": {Files: []string{"f"}}},
			wantErr:   ErrSlotNotRequested,
			wantSlots: []string{"ghost", "old"},
		},
		{
			name:      "partial batch",
			answers:   map[string]Answer{"a": {Files: []string{"f1", "f2"}}, "motivation": {Text: " because "}},
			wantSlots: []string{"a", "motivation"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := newTracker(t)
			completed, err := tr.Complete(tt.answers, "candidate")
			if !errors.Is(err, tt.wantErr) && !(err == nil && tt.wantErr == nil) {
				t.Fatalf("Complete() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				if tt.wantSlots != nil && !reflect.DeepEqual(SlotsOf(err), tt.wantSlots) {
					t.Errorf("SlotsOf() = %v, want %v", SlotsOf(err), tt.wantSlots)
				}
				if len(tr.Pending()) != 3 {
					t.Errorf("Pending() = %d after failure, want 3", len(tr.Pending()))
				}
				return
			}
			got := make([]string, 0, len(completed))
			for _, r := range completed {
				got = append(got, r.Slot)
				if r.Status != StatusCompleted || r.CompletedBy != "candidate" || r.CompletedAt.IsZero() {
					t.Errorf("completed request = %+v", r)
				}
			}
			if !reflect.DeepEqual(got, tt.wantSlots) {
				t.Errorf("Complete() slots = %v, want %v", got, tt.wantSlots)
			}
			if r, _ := tr.Get("motivation"); r.Answer != "because" {
				t.Errorf("Answer = %q", r.Answer)
			}
			if len(tr.Pending()) != 1 {
				t.Errorf("Pending() = %d, want 1", len(tr.Pending()))
			}
		})
	}
}

func TestTracker_Request(t *testing.T) {
	now := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	freezeTime(t, now)
	deadline := now.Add(48 * time.Hour)

	tr := NewTracker("prop-1", []Request{
		{Slot: "done", Kind: KindNonFree, Status: StatusCompleted, Files: []string{"f"}},
		{Slot: "pending", Kind: KindNonFree, Status: StatusRequested, Message: "first", Deadline: deadline},
	})

	tests := []struct {
		name          string
		slots         []SlotRequest
		deadline      time.Time
		reopen        bool
		wantErr       error
		wantRequested []string
	}{
		{name: "no slot", deadline: deadline, wantErr: ErrNoSlot},
		{name: "past deadline", slots: nonFree("new"), deadline: now, wantErr: ErrDeadlinePassed},
		{name: "unknown kind", slots: []SlotRequest{{Slot: "x", Kind: "PAPER"}}, deadline: deadline, wantErr: ErrUnknownKind},
		{name: "completed without reopen", slots: nonFree("new", "done"), deadline: deadline, wantErr: ErrSlotAlreadyCompleted},
		{name: "already pending is kept", slots: nonFree("pending", "new"), deadline: deadline, wantRequested: []string{"new"}},
		{name: "reopen completed", slots: nonFree("done"), deadline: deadline, reopen: true, wantRequested: []string{"done"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			requested, err := tr.Request(tt.slots, "manager", BodySIC, tt.deadline, "second", tt.reopen)
			if !errors.Is(err, tt.wantErr) && !(err == nil && tt.wantErr == nil) {
				t.Fatalf("Request() error = %v, wantErr %v", err, tt.wantErr)
			}
			got := make([]string, 0, len(requested))
			for _, r := range requested {
				got = append(got, r.Slot)
			}
			if err == nil && !reflect.DeepEqual(got, tt.wantRequested) {
				t.Errorf("Request() = %v, want %v", got, tt.wantRequested)
			}
		})
	}

	if r, _ := tr.Get("pending"); r.Message != "first" {
		t.Errorf("pending request overwritten: %+v", r)
	}
	if r, _ := tr.Get("new"); r.Status != StatusRequested || r.Timing != TimingImmediately || r.Body != BodySIC {
		t.Errorf("new request = %+v", r)
	}
}

func TestTracker_CancelRequest(t *testing.T) {
	tr := NewTracker("prop-1", []Request{
		{Slot: "done", Status: StatusCompleted},
		{Slot: "pending", Status: StatusRequested, Deadline: time.Now().Add(time.Hour), Message: "m"},
	})

	tests := []struct {
		name    string
		slot    string
		wantErr error
	}{
		{name: "unknown", slot: "ghost", wantErr: ErrSlotNotRequested},
		{name: "completed", slot: "done", wantErr: ErrSlotNotRequested},
		{name: "pending", slot: "pending"},
		{name: "pending twice", slot: "pending", wantErr: ErrSlotNotRequested},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := tr.CancelRequest(tt.slot, "manager")
			if err != tt.wantErr {
				t.Fatalf("CancelRequest() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && (r.Status != StatusNotRequested || !r.Deadline.IsZero() || r.Message != "") {
				t.Errorf("CancelRequest() = %+v", r)
			}
		})
	}
}

func TestTracker_Recalculate(t *testing.T) {
	now := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)

	tr := NewTracker("prop-1", []Request{
		{Slot: "accounting_proof", Status: StatusRequested, Deadline: now.Add(72 * time.Hour)},
		{Slot: "diploma", Status: StatusCompleted},
		{Slot: "id_card", Status: StatusNotRequested},
		{Slot: "old_overdue", Status: StatusRequested, Deadline: now.Add(-time.Hour)},
		{Slot: "work_contract", Status: StatusNotRequested},
	})
	required := nonFree("diploma", "id_card", "language_cert", "scholarship_proof")

	got := tr.Recalculate(required, now)
	want := Diff{
		ToAdd:     []string{"language_cert", "scholarship_proof"},
		ToRemove:  []string{"old_overdue", "work_contract"},
		Unchanged: []string{"accounting_proof", "diploma", "id_card"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Recalculate() = %+v, want %+v", got, want)
	}

	tr.Apply(got, required)
	slots := make([]string, 0, len(tr.Requests))
	for _, r := range tr.Requests {
		slots = append(slots, r.Slot)
	}
	wantSlots := []string{"accounting_proof", "diploma", "id_card", "language_cert", "scholarship_proof"}
	if !reflect.DeepEqual(slots, wantSlots) {
		t.Errorf("slots after Apply() = %v, want %v", slots, wantSlots)
	}
	if r, _ := tr.Get("language_cert"); r.Status != StatusNotRequested || r.Kind != KindNonFree {
		t.Errorf("added request = %+v", r)
	}

	if again := tr.Recalculate(required, now); !again.Empty() {
		t.Errorf("Recalculate() after Apply() = %+v, want empty", again)
	}
}

func TestTracker_Recalculate_keepsAnswered(t *testing.T) {
	now := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)

	tr := NewTracker("prop-1", []Request{
		{Slot: "extra_note", Kind: KindFreeText, Body: BodyFAC, Status: StatusRequested, Deadline: now.Add(-time.Hour)},
		{Slot: "extra_proof", Kind: KindFree, Body: BodySIC, Status: StatusCompleted, Files: []string{"proof.pdf"}},
		{Slot: "id_card", Kind: KindNonFree, Status: StatusNotRequested},
		{Slot: "old_diploma", Kind: KindNonFree, Body: BodySIC, Status: StatusCompleted, Files: []string{"diploma.pdf"}},
		{Slot: "work_contract", Kind: KindNonFree, Status: StatusNotRequested},
	})
	required := nonFree("id_card")

	got := tr.Recalculate(required, now)
	want := Diff{
		ToAdd:     []string{},
		ToRemove:  []string{"work_contract"},
		Unchanged: []string{"extra_note", "extra_proof", "id_card", "old_diploma"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Recalculate() = %+v, want %+v", got, want)
	}

	tr.Apply(got, required)
	if r, ok := tr.Get("extra_proof"); !ok || r.Status != StatusCompleted || !reflect.DeepEqual(r.Files, []string{"proof.pdf"}) {
		t.Errorf("extra_proof after Apply() = %+v, %v", r, ok)
	}
	if again := tr.Recalculate(required, now); !again.Empty() {
		t.Errorf("Recalculate() after Apply() = %+v, want empty", again)
	}
}

func TestTracker_Overdue(t *testing.T) {
	now := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	tr := NewTracker("prop-1", []Request{
		{Slot: "a", Status: StatusRequested, Deadline: now.Add(-time.Minute)},
		{Slot: "b", Status: StatusRequested, Deadline: now.Add(time.Minute)},
		{Slot: "c", Status: StatusCompleted, Deadline: now.Add(-time.Hour)},
	})

	overdue := tr.Overdue(now)
	if len(overdue) != 1 || overdue[0].Slot != "a" {
		t.Errorf("Overdue() = %+v, want [a]", overdue)
	}
	if len(tr.Overdue(now.Add(time.Hour))) != 2 {
		t.Errorf("Overdue() one hour later should list a and b")
	}
}
