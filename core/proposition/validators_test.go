package proposition

import (
	"testing"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/admission/core"
	"github.com/trezcool/admission/core/catalog"
	"github.com/trezcool/admission/core/supervision"
)

func violations(t *testing.T, err error) *core.ValidationError {
	t.Helper()
	var verr *core.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error = %v (%T), want *core.ValidationError", err, err)
	}
	return verr
}

func TestProposition_Submit_reportsEveryViolation(t *testing.T) {
	p := completed(t, generalProgram)
	p.Accounting.AcceptedConditions = false
	p.SpecificAnswers = nil
	e := eligibility(generalProgram, nil)
	e.Profile.CurriculumComplete = false

	err := p.Submit(e, "candidate")
	if !errors.Is(err, ErrNotEligible) {
		t.Fatalf("Submit() error = %v, wantErr %v", err, ErrNotEligible)
	}
	verr := violations(t, err)
	if len(verr.Fields) != 3 {
		t.Errorf("Submit() violations = %+v, want 3", verr.Fields)
	}
	for _, cause := range []error{ErrCurriculumIncomplete, ErrAccountingIncomplete, ErrSpecificQuestionUnanswered} {
		if !verr.Has(cause) {
			t.Errorf("Submit() violations miss %v", cause)
		}
	}
	if p.Status != StatusDraft || p.SubmittedAt != nil {
		t.Errorf("rejected Submit() changed the proposition: %+v", p)
	}
}

func TestProposition_Verify(t *testing.T) {
	tests := []struct {
		name      string
		program   catalog.Program
		setup     func(p *Proposition, e *Eligibility)
		wantCause []error
	}{
		{name: "eligible general", program: generalProgram, setup: func(*Proposition, *Eligibility) {}},
		{name: "eligible doctoral", program: doctoralProgram, setup: func(*Proposition, *Eligibility) {}},
		{
			name:    "no pool and too many propositions",
			program: generalProgram,
			setup: func(_ *Proposition, e *Eligibility) {
				e.PoolErr = catalog.ErrNoPoolOpen
				e.Open = 6
			},
			wantCause: []error{catalog.ErrNoPoolOpen, ErrMaxConcurrentPropositionsExceeded},
		},
		{
			name:      "access titles",
			program:   generalProgram,
			setup:     func(p *Proposition, _ *Eligibility) { p.Curriculum.AccessTitles = nil },
			wantCause: []error{ErrAccessTitleMissing},
		},
		{
			name:      "unknown access title",
			program:   generalProgram,
			setup:     func(p *Proposition, _ *Eligibility) { p.Curriculum.AccessTitles = []string{"q1", "q9"} },
			wantCause: []error{ErrUnknownAccessTitle},
		},
		{
			name:    "doctoral project, financing and signatories",
			program: doctoralProgram,
			setup: func(p *Proposition, e *Eligibility) {
				p.Project.Documents = nil
				p.Financing = Financing{}
				e.MinCommitteeMembers = 3
				e.Group.ReferencePromoterID = ""
			},
			wantCause: []error{ErrProjectIncomplete, ErrFinancingMissing, supervision.ErrCommitteeMemberMissing, supervision.ErrReferencePromoterMissing},
		},
		{
			name:      "doctoral without group",
			program:   doctoralProgram,
			setup:     func(_ *Proposition, e *Eligibility) { e.Group = nil },
			wantCause: []error{supervision.ErrPromoterMissing},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := completed(t, tt.program)
			e := eligibility(tt.program, signableGroup(t, p.ID))
			tt.setup(p, &e)

			err := p.Verify(e)
			if len(tt.wantCause) == 0 {
				if err != nil {
					t.Fatalf("Verify() error = %v", err)
				}
				return
			}
			verr := violations(t, err)
			if len(verr.Fields) != len(tt.wantCause) {
				t.Errorf("Verify() violations = %+v, want %d", verr.Fields, len(tt.wantCause))
			}
			for _, c := range tt.wantCause {
				if !verr.Has(c) {
					t.Errorf("Verify() misses %v", c)
				}
			}
		})
	}
}

func TestProposition_LockForSignature(t *testing.T) {
	general := completed(t, generalProgram)
	if err := general.LockForSignature(eligibility(generalProgram, nil), "c"); !errors.Is(err, ErrDoctoralOnly) {
		t.Errorf("LockForSignature() error = %v, wantErr %v", err, ErrDoctoralOnly)
	}

	p := completed(t, doctoralProgram)
	e := eligibility(doctoralProgram, signableGroup(t, p.ID))
	e.Profile.CurriculumComplete = false
	p.Accounting = Accounting{}
	err := p.LockForSignature(e, "c")
	if verr := violations(t, err); len(verr.Fields) != 2 {
		t.Errorf("LockForSignature() violations = %+v, want 2", verr.Fields)
	}
	if p.Status != StatusDraft {
		t.Errorf("Status = %s, want DRAFT", p.Status)
	}
}

func TestDetermineRequestType(t *testing.T) {
	be := catalog.Qualification{ID: "be", Country: "BE"}
	fr := catalog.Qualification{ID: "fr", Country: "FR"}

	tests := []struct {
		name    string
		profile catalog.CandidateProfile
		want    RequestType
	}{
		{name: "EU with Belgian diplomas", profile: catalog.CandidateProfile{NationalityEUEquivalent: true, Qualifications: []catalog.Qualification{be}}, want: RequestTypeEnrollment},
		{name: "EU without diplomas", profile: catalog.CandidateProfile{NationalityEUEquivalent: true}, want: RequestTypeEnrollment},
		{name: "EU with a foreign diploma", profile: catalog.CandidateProfile{NationalityEUEquivalent: true, Qualifications: []catalog.Qualification{be, fr}}, want: RequestTypeAdmission},
		{name: "non EU with Belgian diplomas", profile: catalog.CandidateProfile{Qualifications: []catalog.Qualification{be}}, want: RequestTypeAdmission},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetermineRequestType(tt.profile); got != tt.want {
				t.Errorf("DetermineRequestType() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestApprovalDetails_Validate(t *testing.T) {
	tests := []struct {
		name      string
		details   ApprovalDetails
		wantCause []error
	}{
		{
			name:    "consistent",
			details: ApprovalDetails{ProgramDuration: 2, HasPrerequisiteCourses: boolPtr(true), PrerequisiteCourses: []string{"A"}, HasAdditionalConditions: boolPtr(false)},
		},
		{
			name:      "everything missing",
			details:   ApprovalDetails{},
			wantCause: []error{ErrProgramDurationRequired, ErrPrerequisiteFlagRequired, ErrConditionsFlagRequired},
		},
		{
			name:      "flags contradict lists",
			details:   ApprovalDetails{ProgramDuration: 1, HasPrerequisiteCourses: boolPtr(true), HasAdditionalConditions: boolPtr(false), AdditionalConditions: []string{"B"}},
			wantCause: []error{ErrPrerequisiteCourses, ErrAdditionalConditions},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.details.Validate()
			if len(tt.wantCause) == 0 {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}
			if !errors.Is(err, ErrApprovalIncomplete) {
				t.Fatalf("Validate() error = %v, wantErr %v", err, ErrApprovalIncomplete)
			}
			verr := violations(t, err)
			if len(verr.Fields) != len(tt.wantCause) {
				t.Errorf("Validate() violations = %+v, want %d", verr.Fields, len(tt.wantCause))
			}
			for _, c := range tt.wantCause {
				if !verr.Has(c) {
					t.Errorf("Validate() misses %v", c)
				}
			}
		})
	}
}

func TestProposition_selfLoops(t *testing.T) {
	start := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(-1, 0, 0)

	tests := []struct {
		name      string
		apply     func(p *Proposition) error
		wantCause []error
	}{
		{
			name: "work contract",
			apply: func(p *Proposition) error {
				return p.CompleteFinancing(Financing{Type: FinancingWorkContract, FTE: 1.5}, "c")
			},
			wantCause: []error{ErrContractTypeRequired, ErrInvalidFTE},
		},
		{
			name: "scholarship",
			apply: func(p *Proposition) error {
				return p.CompleteFinancing(Financing{Type: FinancingSearchScholarship, ScholarshipStart: &start, ScholarshipEnd: &end}, "c")
			},
			wantCause: []error{ErrScholarshipRequired, ErrInvalidScholarshipDates},
		},
		{
			name:      "unknown financing",
			apply:     func(p *Proposition) error { return p.CompleteFinancing(Financing{Type: "LOTTERY"}, "c") },
			wantCause: []error{ErrInvalidFinancingType},
		},
		{
			name: "self funding drops contract fields",
			apply: func(p *Proposition) error {
				if err := p.CompleteFinancing(Financing{Type: FinancingSelfFunding, WorkContractType: "x", FTE: 1}, "c"); err != nil {
					return err
				}
				if p.Financing.WorkContractType != "" || p.Financing.FTE != 0 {
					t.Errorf("Financing = %+v", p.Financing)
				}
				return nil
			},
		},
		{
			name:      "project",
			apply:     func(p *Proposition) error { return p.CompleteProject(Project{Title: "T", Language: "english"}, "c") },
			wantCause: []error{ErrProjectFieldRequired, ErrInvalidLanguage},
		},
		{
			name: "accounting",
			apply: func(p *Proposition) error {
				return p.CompleteAccounting(Accounting{IBAN: "BE68539007547034", AssimilationSituation: "REFUGEE"}, "c")
			},
			wantCause: []error{ErrAccountHolderRequired, ErrAssimilationDocsRequired},
		},
		{
			name: "curriculum",
			apply: func(p *Proposition) error {
				return p.CompleteCurriculum(Curriculum{AccessTitles: []string{"q1", "nope"}}, profile, "c")
			},
			wantCause: []error{ErrUnknownAccessTitle},
		},
		{
			name: "answers",
			apply: func(p *Proposition) error {
				if err := p.AnswerSpecificQuestions(map[string]string{"motivation": " ", "other": "yes"}, "c"); err != nil {
					return err
				}
				if _, ok := p.SpecificAnswers["motivation"]; ok || p.SpecificAnswers["other"] != "yes" {
					t.Errorf("SpecificAnswers = %v", p.SpecificAnswers)
				}
				return nil
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := completed(t, doctoralProgram)
			before := p.Status
			err := tt.apply(p)
			if p.Status != before {
				t.Errorf("Status = %s, want %s", p.Status, before)
			}
			if len(tt.wantCause) == 0 {
				if err != nil {
					t.Fatalf("error = %v", err)
				}
				return
			}
			verr := violations(t, err)
			if len(verr.Fields) != len(tt.wantCause) {
				t.Errorf("violations = %+v, want %d", verr.Fields, len(tt.wantCause))
			}
			for _, c := range tt.wantCause {
				if !verr.Has(c) {
					t.Errorf("misses %v", c)
				}
			}
		})
	}
}

func TestCheckMaxConcurrent(t *testing.T) {
	tests := []struct {
		name          string
		open, maxOpen int
		wantErr       error
	}{
		{name: "below", open: 2, maxOpen: 3},
		{name: "reached", open: 3, maxOpen: 3, wantErr: ErrMaxConcurrentPropositionsExceeded},
		{name: "no limit", open: 30, maxOpen: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := CheckMaxConcurrent(tt.open, tt.maxOpen); err != tt.wantErr {
				t.Errorf("CheckMaxConcurrent() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
