package proposition

import (
	"regexp"

	"github.com/trezcool/admission/core"
	"github.com/trezcool/admission/core/catalog"
	"github.com/trezcool/admission/core/supervision"
)

var languageRgx = regexp.MustCompile(`^[a-z]{2}$`)

// CheckMaxConcurrent fails when an applicant with `open` open propositions may not start another one.
// A non-positive maxOpen means no limit.
func CheckMaxConcurrent(open, maxOpen int) error {
	if maxOpen > 0 && open >= maxOpen {
		return ErrMaxConcurrentPropositionsExceeded
	}
	return nil
}

// DetermineRequestType classifies the request as an enrollment when the candidate has an
// EU (or equivalent) nationality and every prior qualification is Belgian, as an admission otherwise.
func DetermineRequestType(profile catalog.CandidateProfile) RequestType {
	if !profile.NationalityEUEquivalent {
		return RequestTypeAdmission
	}
	for _, q := range profile.Qualifications {
		if !q.Belgian() {
			return RequestTypeAdmission
		}
	}
	return RequestTypeEnrollment
}

func (p *Proposition) validateInitiation(program catalog.Program) error {
	var v core.Violations
	if !p.AdmissionType.Valid() {
		v.Add("admission_type", ErrInvalidAdmissionType)
	}
	if p.AdmissionType == AdmissionTypePreAdmission && p.Justification == "" {
		v.Add("justification", ErrJustificationRequired)
	}
	v.Add("commission", checkCommission(p.Commission, program))
	return v.Err(ErrInvalidData)
}

func checkCommission(commission string, program catalog.Program) error {
	switch {
	case commission != "" && !program.HasCommission(commission):
		return ErrCommissionInconsistent
	case commission == "" && program.IsDoctoral() && len(program.Commissions) > 0:
		return ErrCommissionRequired
	}
	return nil
}

func (pr Project) validate() error {
	var v core.Violations
	if core.CleanString(pr.Title) == "" {
		v.Add("title", ErrProjectFieldRequired)
	}
	if core.CleanString(pr.Abstract) == "" {
		v.Add("abstract", ErrProjectFieldRequired)
	}
	if lang := core.CleanString(pr.Language, true); lang == "" {
		v.Add("language", ErrProjectFieldRequired)
	} else if !languageRgx.MatchString(lang) {
		v.Add("language", ErrInvalidLanguage)
	}
	return v.Err(ErrInvalidData)
}

func (pr Project) complete() bool {
	return pr.validate() == nil && len(core.CleanStrings(pr.Documents)) > 0
}

func (f Financing) validate() error {
	var v core.Violations
	switch f.Type {
	case FinancingWorkContract:
		if core.CleanString(f.WorkContractType) == "" {
			v.Add("work_contract_type", ErrContractTypeRequired)
		}
		if f.FTE <= 0 || f.FTE > 1 {
			v.Add("fte", ErrInvalidFTE)
		}
	case FinancingSearchScholarship:
		if core.CleanString(f.ScholarshipID) == "" {
			v.Add("scholarship_id", ErrScholarshipRequired)
		}
	case FinancingSelfFunding:
	default:
		v.Add("type", ErrInvalidFinancingType)
	}
	if f.ScholarshipStart != nil && f.ScholarshipEnd != nil && !f.ScholarshipEnd.After(*f.ScholarshipStart) {
		v.Add("scholarship_end", ErrInvalidScholarshipDates)
	}
	return v.Err(ErrInvalidData)
}

func (a Accounting) validate() error {
	var v core.Violations
	if core.CleanString(a.IBAN) != "" && core.CleanString(a.AccountHolder) == "" {
		v.Add("account_holder", ErrAccountHolderRequired)
	}
	if core.CleanString(a.AssimilationSituation) != "" && len(core.CleanStrings(a.AssimilationDocuments)) == 0 {
		v.Add("assimilation_documents", ErrAssimilationDocsRequired)
	}
	return v.Err(ErrInvalidData)
}

func (a Accounting) complete() bool {
	return a.AcceptedConditions && a.validate() == nil
}

func (c Curriculum) validate(profile catalog.CandidateProfile) error {
	var v core.Violations
	for _, t := range core.CleanStrings(c.AccessTitles) {
		if !profile.HasQualification(t) {
			v.Add("access_titles", ErrUnknownAccessTitle)
		}
	}
	return v.Err(ErrInvalidData)
}

// Validate checks the approval bundle: a program duration, and each flag consistent with its list.
func (d ApprovalDetails) Validate() error {
	var v core.Violations
	if d.ProgramDuration <= 0 {
		v.Add("program_duration", ErrProgramDurationRequired)
	}
	v.Add("prerequisite_courses", flagMatchesList(d.HasPrerequisiteCourses, d.PrerequisiteCourses, ErrPrerequisiteFlagRequired, ErrPrerequisiteCourses))
	v.Add("additional_conditions", flagMatchesList(d.HasAdditionalConditions, d.AdditionalConditions, ErrConditionsFlagRequired, ErrAdditionalConditions))
	return v.Err(ErrApprovalIncomplete)
}

func flagMatchesList(flag *bool, list []string, errFlag, errList error) error {
	if flag == nil {
		return errFlag
	}
	if *flag != (len(core.CleanStrings(list)) > 0) {
		return errList
	}
	return nil
}

// Eligibility gathers what the proposition is verified against before signing and submission.
type Eligibility struct {
	Profile catalog.CandidateProfile
	Program catalog.Program

	// PoolErr is the outcome of the calendar lookup, nil when a pool is open.
	PoolErr error

	// Open counts the applicant's open propositions, this one included.
	Open    int
	MaxOpen int

	// doctoral only
	Group               *supervision.Group
	MinCommitteeMembers int
}

// Verify runs every eligibility rule and reports all the failing ones in one *core.ValidationError.
func (p *Proposition) Verify(e Eligibility) error {
	var v core.Violations
	if !e.Profile.CurriculumComplete {
		v.Add("curriculum", ErrCurriculumIncomplete)
	}
	if !p.Accounting.complete() {
		v.Add("accounting", ErrAccountingIncomplete)
	}
	for _, q := range e.Program.SpecificQuestions {
		if core.CleanString(p.SpecificAnswers[q]) == "" {
			v.Add("specific_questions."+q, ErrSpecificQuestionUnanswered)
		}
	}
	if len(core.CleanStrings(p.Curriculum.AccessTitles)) == 0 {
		v.Add("access_titles", ErrAccessTitleMissing)
	} else {
		v.Add("access_titles", p.Curriculum.validate(e.Profile))
	}
	if e.PoolErr != nil {
		v.Add("pool", e.PoolErr)
	}
	if e.MaxOpen > 0 && e.Open > e.MaxOpen {
		v.Add("propositions", ErrMaxConcurrentPropositionsExceeded)
	}

	if p.IsDoctoral() {
		if !p.Project.complete() {
			v.Add("project", ErrProjectIncomplete)
		}
		if p.Financing.Type == "" {
			v.Add("financing", ErrFinancingMissing)
		}
		if e.Group == nil {
			v.Add("supervision", supervision.ErrPromoterMissing)
		} else {
			v.Add("supervision", e.Group.CheckSignatories(e.MinCommitteeMembers))
		}
	}
	return v.Err(ErrNotEligible)
}
