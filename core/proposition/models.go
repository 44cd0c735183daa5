package proposition

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/admission/core"
	"github.com/trezcool/admission/core/catalog"
)

// ReferenceBase is the first sequential reference handed out.
const ReferenceBase = 300000

type AdmissionType string

const (
	AdmissionTypeAdmission    AdmissionType = "ADMISSION"
	AdmissionTypePreAdmission AdmissionType = "PRE_ADMISSION"
)

func (t AdmissionType) Valid() bool {
	return t == AdmissionTypeAdmission || t == AdmissionTypePreAdmission
}

// RequestType is computed on submission from the candidate profile.
type RequestType string

const (
	RequestTypeAdmission  RequestType = "ADMISSION"
	RequestTypeEnrollment RequestType = "ENROLLMENT"
)

type FinancingType string

const (
	FinancingWorkContract      FinancingType = "WORK_CONTRACT"
	FinancingSearchScholarship FinancingType = "SEARCH_SCHOLARSHIP"
	FinancingSelfFunding       FinancingType = "SELF_FUNDING"
)

func (t FinancingType) Valid() bool {
	switch t {
	case FinancingWorkContract, FinancingSearchScholarship, FinancingSelfFunding:
		return true
	}
	return false
}

type (
	Project struct {
		Title     string   `json:"title"`
		Abstract  string   `json:"abstract"`
		Language  string   `json:"language"`
		Institute string   `json:"institute,omitempty"`
		Location  string   `json:"location,omitempty"`
		Documents []string `json:"documents,omitempty"`
		Gantt     []string `json:"gantt,omitempty"`
	}

	Financing struct {
		Type             FinancingType `json:"type"`
		WorkContractType string        `json:"work_contract_type,omitempty"`
		FTE              float64       `json:"fte,omitempty"` // full-time equivalent, in ]0, 1]
		ScholarshipID    string        `json:"scholarship_id,omitempty"`
		ScholarshipStart *time.Time    `json:"scholarship_start,omitempty"`
		ScholarshipEnd   *time.Time    `json:"scholarship_end,omitempty"`
		PlannedDuration  int           `json:"planned_duration,omitempty"` // months
		Comment          string        `json:"comment,omitempty"`
	}

	Accounting struct {
		SchoolDebtCertificates []string `json:"school_debt_certificates,omitempty"`
		AssimilationSituation  string   `json:"assimilation_situation,omitempty"`
		AssimilationDocuments  []string `json:"assimilation_documents,omitempty"`
		IBAN                   string   `json:"iban,omitempty"`
		AccountHolder          string   `json:"account_holder,omitempty"`
		AcceptedConditions     bool     `json:"accepted_conditions"`
	}

	Curriculum struct {
		Files []string `json:"files,omitempty"`

		// ids of the candidate qualifications giving access to the program
		AccessTitles []string `json:"access_titles"`
	}

	ApprovalDetails struct {
		ProgramDuration         int      `json:"program_duration"` // years
		HasPrerequisiteCourses  *bool    `json:"has_prerequisite_courses"`
		PrerequisiteCourses     []string `json:"prerequisite_courses,omitempty"`
		HasAdditionalConditions *bool    `json:"has_additional_conditions"`
		AdditionalConditions    []string `json:"additional_conditions,omitempty"`
	}

	RefusalReasons struct {
		Reasons []string `json:"reasons,omitempty"`
		Other   []string `json:"other,omitempty"`
	}
)

func (r RefusalReasons) Empty() bool {
	return len(core.CleanStrings(r.Reasons)) == 0 && len(core.CleanStrings(r.Other)) == 0
}

type Proposition struct {
	ID          string              `json:"id"`
	Reference   int64               `json:"reference"`
	ApplicantID string              `json:"applicant_id"`
	ProgramID   string              `json:"program_id"`
	ProgramKind catalog.ProgramKind `json:"program_kind"`

	AdmissionType AdmissionType `json:"admission_type"`
	Justification string        `json:"justification,omitempty"`
	Commission    string        `json:"commission,omitempty"`

	Status      Status      `json:"status"`
	RequestType RequestType `json:"request_type,omitempty"`

	Project         Project           `json:"project"`
	Financing       Financing         `json:"financing"`
	Accounting      Accounting        `json:"accounting"`
	Curriculum      Curriculum        `json:"curriculum"`
	SpecificAnswers map[string]string `json:"specific_answers,omitempty"`

	ApprovalDetails *ApprovalDetails `json:"approval_details,omitempty"`
	RefusalReasons  *RefusalReasons  `json:"refusal_reasons,omitempty"`
	ManagerInCharge string           `json:"manager_in_charge,omitempty"`

	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	SubmittedAt    *time.Time `json:"submitted_at,omitempty"`
	LastModifiedBy string     `json:"last_modified_by"`
	Version        int        `json:"version"`
}

// NewProposition holds what a candidate provides to start an application.
type NewProposition struct {
	ApplicantID   string        `json:"-"`
	ProgramID     string        `json:"program_id" validate:"required"`
	AdmissionType AdmissionType `json:"admission_type" validate:"required,oneof=ADMISSION PRE_ADMISSION"`
	Justification string        `json:"justification"`
	Commission    string        `json:"commission"`
}

// New starts a DRAFT proposition for program.
// openCount is the number of propositions the applicant already has open.
func New(in NewProposition, program catalog.Program, openCount, maxOpen int) (*Proposition, error) {
	if err := CheckMaxConcurrent(openCount, maxOpen); err != nil {
		return nil, err
	}

	p := &Proposition{
		ID:              uuid.NewString(),
		ApplicantID:     in.ApplicantID,
		ProgramID:       program.ID,
		ProgramKind:     program.Kind,
		AdmissionType:   in.AdmissionType,
		Justification:   core.CleanString(in.Justification),
		Commission:      core.CleanString(in.Commission),
		Status:          StatusDraft,
		SpecificAnswers: map[string]string{},
	}
	if err := p.validateInitiation(program); err != nil {
		return nil, err
	}

	now := core.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
	p.LastModifiedBy = in.ApplicantID
	return p, nil
}

func (p *Proposition) IsDoctoral() bool { return p.ProgramKind == catalog.KindDoctoral }

// FormattedReference returns the reference as shown to people, e.g. "M-300.012".
func (p *Proposition) FormattedReference() string {
	prefix := "L"
	if p.IsDoctoral() {
		prefix = "M"
	}
	return fmt.Sprintf("%s-%d.%03d", prefix, p.Reference/1000, p.Reference%1000)
}

func (p *Proposition) touch(by string) {
	p.UpdatedAt = core.Now()
	p.LastModifiedBy = by
}
