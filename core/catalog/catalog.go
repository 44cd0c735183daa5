// Package catalog holds the read-only lookups the workflow needs from the rest of the
// information system: training programs, scholarships, the academic calendar, the people
// directory and the candidate profiles.
package catalog

import (
	"context"
	"time"

	"github.com/trezcool/admission/core"
)

var (
	ErrProgramNotFound     = core.NewNotFoundError("program_not_found", "training program not found")
	ErrScholarshipNotFound = core.NewNotFoundError("scholarship_not_found", "scholarship not found")
	ErrActorNotFound       = core.NewNotFoundError("actor_not_found", "person not found")
	ErrCandidateNotFound   = core.NewNotFoundError("candidate_not_found", "candidate not found")
	ErrNoPoolOpen          = core.NewBusinessError(core.KindValidation, "no_pool_open", "applications for this program are not open at the moment")
)

type ProgramKind string

const (
	KindDoctoral ProgramKind = "DOCTORAL"
	KindGeneral  ProgramKind = "GENERAL"
)

type (
	Program struct {
		ID      string      `json:"id" yaml:"id"`
		Acronym string      `json:"acronym" yaml:"acronym"`
		Title   string      `json:"title" yaml:"title"`
		Year    int         `json:"year" yaml:"year"`
		Kind    ProgramKind `json:"kind" yaml:"kind"`

		// proximity commissions (CDD) the doctoral propositions are assigned to
		Commissions       []string `json:"commissions,omitempty" yaml:"commissions,omitempty"`
		SpecificQuestions []string `json:"specific_questions,omitempty" yaml:"specific_questions,omitempty"`
	}

	Scholarship struct {
		ID        string `json:"id" yaml:"id"`
		ShortName string `json:"short_name" yaml:"short_name"`
		LongName  string `json:"long_name" yaml:"long_name"`
	}

	// Pool is an application window of the academic calendar.
	Pool struct {
		ID    string    `json:"id" yaml:"id"`
		Start time.Time `json:"start" yaml:"start"`
		End   time.Time `json:"end" yaml:"end"`
	}

	Person struct {
		Matricule string `json:"matricule" yaml:"matricule"`
		FirstName string `json:"first_name" yaml:"first_name"`
		LastName  string `json:"last_name" yaml:"last_name"`
		Email     string `json:"email" yaml:"email"`
		Language  string `json:"language" yaml:"language"`
	}

	Qualification struct {
		ID      string `json:"id" yaml:"id"`
		Title   string `json:"title" yaml:"title"`
		Country string `json:"country" yaml:"country"`
	}

	CandidateProfile struct {
		Person                  `yaml:",inline"`
		Nationality             string          `json:"nationality" yaml:"nationality"`
		NationalityEUEquivalent bool            `json:"nationality_eu_equivalent" yaml:"nationality_eu_equivalent"`
		CurriculumComplete      bool            `json:"curriculum_complete" yaml:"curriculum_complete"`
		Qualifications          []Qualification `json:"qualifications" yaml:"qualifications"`

		// extra facts the required documents depend on
		Attributes map[string]string `json:"attributes,omitempty" yaml:"attributes,omitempty"`
	}
)

func (p Program) HasCommission(c string) bool {
	for _, cc := range p.Commissions {
		if cc == c {
			return true
		}
	}
	return false
}

func (p Program) IsDoctoral() bool { return p.Kind == KindDoctoral }

// Belgian reports whether the qualification was obtained in Belgium.
func (q Qualification) Belgian() bool { return q.Country == "BE" }

func (p CandidateProfile) HasQualification(id string) bool {
	for _, q := range p.Qualifications {
		if q.ID == id {
			return true
		}
	}
	return false
}

type (
	Programs interface {
		// GetProgram fails with ErrProgramNotFound.
		GetProgram(ctx context.Context, id string) (Program, error)
	}

	Scholarships interface {
		// GetScholarship fails with ErrScholarshipNotFound.
		GetScholarship(ctx context.Context, id string) (Scholarship, error)
	}

	Calendar interface {
		// DeterminePool returns the application window of programID open at `at`, ErrNoPoolOpen otherwise.
		DeterminePool(ctx context.Context, programID string, at time.Time) (Pool, error)
	}

	Actors interface {
		// GetPerson fails with ErrActorNotFound.
		GetPerson(ctx context.Context, matricule string) (Person, error)
	}

	Profiles interface {
		// GetProfile fails with ErrCandidateNotFound.
		GetProfile(ctx context.Context, applicantID string) (CandidateProfile, error)
	}
)
