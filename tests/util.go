package testutil

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/trezcool/admission/core"
	"github.com/trezcool/admission/core/catalog"
	"github.com/trezcool/admission/core/document"
	"github.com/trezcool/admission/core/history"
	"github.com/trezcool/admission/core/proposition"
	"github.com/trezcool/admission/core/supervision"
	"github.com/trezcool/admission/core/workflow"
	appfs "github.com/trezcool/admission/fs"
	locksvc "github.com/trezcool/admission/services/lock"
	inmemdb "github.com/trezcool/admission/storage/database/inmem"
)

const (
	Candidate = "candidate"
	Manager   = "manager"

	DoctoralProgram = "SC3DP"
	GeneralProgram  = "SINF1BA"
	Scholarship     = "FNRS"

	Promoter  = "00000001"
	Promoter2 = "00000002"
	Member1   = "00000011"
	Member2   = "00000012"
)

// Config is the admission configuration used by the tests.
var Config = core.AdmissionConfig{
	MaxConcurrentPropositions: 5,
	MinCommitteeMembers:       2,
	DefaultRequestDelay:       15 * 24 * time.Hour,
}

func Profile() catalog.CandidateProfile {
	return catalog.CandidateProfile{
		Person:                  catalog.Person{FirstName: "John", LastName: "Doe", Email: "john@example.org", Language: "fr"},
		Nationality:             "BE",
		NationalityEUEquivalent: true,
		CurriculumComplete:      true,
		Qualifications:          []catalog.Qualification{{ID: "q1", Title: "Master in physics", Country: "BE"}},
	}
}

// SeedCatalog adds the programs, people and profiles the tests refer to.
func SeedCatalog(c *inmemdb.Catalog) {
	c.AddPrograms(
		catalog.Program{ID: DoctoralProgram, Acronym: "SC3DP", Title: "Doctorate in sciences", Year: 2026, Kind: catalog.KindDoctoral, Commissions: []string{"CDSS", "SCIENCES"}},
		catalog.Program{ID: GeneralProgram, Acronym: "SINF1BA", Title: "Bachelor in computer science", Year: 2026, Kind: catalog.KindGeneral, SpecificQuestions: []string{"motivation"}},
	)
	c.AddScholarships(catalog.Scholarship{ID: Scholarship, ShortName: "FNRS", LongName: "Fonds de la recherche scientifique"})
	c.AddPools("", catalog.Pool{
		ID:    "continuing",
		Start: time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2100, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	for _, m := range []string{Promoter, Promoter2, Member1, Member2} {
		c.AddPeople(catalog.Person{Matricule: m, FirstName: "First" + m, LastName: "Last" + m, Email: m + "@example.org", Language: "en"})
	}
	c.AddProfile(Candidate, Profile())
}

// Catalogue loads the embedded document catalogue.
func Catalogue(t *testing.T) *document.Catalogue {
	t.Helper()
	f, err := appfs.FS.Open(appfs.DocumentCatalogue)
	if err != nil {
		t.Fatalf("opening document catalogue: %v", err)
	}
	defer func() { _ = f.Close() }()
	c, err := document.LoadCatalogue(f)
	if err != nil {
		t.Fatalf("loading document catalogue: %v", err)
	}
	return c
}

type (
	// Call is one notification sent.
	Call struct {
		Kind        string
		Proposition string
		Status      proposition.Status
		Actors      []string
		Slots       []string
	}

	// Notifier records what it is asked to send, failing with Err when set.
	Notifier struct {
		mu    sync.Mutex
		calls []Call
		Err   error
	}
)

var _ workflow.Notifier = (*Notifier)(nil) // interface compliance check

func (n *Notifier) add(c Call) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, c)
	return n.Err
}

func (n *Notifier) Calls(kind string) []Call {
	n.mu.Lock()
	defer n.mu.Unlock()
	var calls []Call
	for _, c := range n.calls {
		if kind == "" || c.Kind == kind {
			calls = append(calls, c)
		}
	}
	return calls
}

func actorIDs(sigs []supervision.Signature) []string {
	ids := make([]string, len(sigs))
	for i, s := range sigs {
		ids[i] = s.Actor.ID
	}
	return ids
}

func slots(reqs []document.Request) []string {
	s := make([]string, len(reqs))
	for i, r := range reqs {
		s[i] = r.Slot
	}
	return s
}

func (n *Notifier) NotifySignatureRequest(_ context.Context, p *proposition.Proposition, invited []supervision.Signature) error {
	return n.add(Call{Kind: "signature_request", Proposition: p.ID, Status: p.Status, Actors: actorIDs(invited)})
}

func (n *Notifier) NotifyDecision(_ context.Context, p *proposition.Proposition, sig supervision.Signature) error {
	return n.add(Call{Kind: "decision", Proposition: p.ID, Status: p.Status, Actors: []string{sig.Actor.ID}})
}

func (n *Notifier) NotifySubmission(_ context.Context, p *proposition.Proposition) error {
	return n.add(Call{Kind: "submission", Proposition: p.ID, Status: p.Status})
}

func (n *Notifier) NotifyDocumentRequest(_ context.Context, p *proposition.Proposition, reqs []document.Request) error {
	return n.add(Call{Kind: "document_request", Proposition: p.ID, Status: p.Status, Slots: slots(reqs)})
}

func (n *Notifier) NotifyDocumentCompletion(_ context.Context, p *proposition.Proposition, reqs []document.Request) error {
	return n.add(Call{Kind: "document_completion", Proposition: p.ID, Status: p.Status, Slots: slots(reqs)})
}

func (n *Notifier) NotifyStatusChange(_ context.Context, p *proposition.Proposition, _ proposition.Status) error {
	return n.add(Call{Kind: "status_change", Proposition: p.ID, Status: p.Status})
}

// Logger keeps the messages logged at error level.
type Logger struct {
	mu     sync.Mutex
	Errors []string
}

var _ core.Logger = (*Logger)(nil) // interface compliance check

func (l *Logger) Debug(string, ...interface{}) {}
func (l *Logger) Info(string, ...interface{})  {}
func (l *Logger) Warn(string, ...interface{})  {}
func (l *Logger) Fatal(msg string, args ...interface{}) {
	panic(fmt.Sprint(append([]interface{}{msg}, args...)...))
}

func (l *Logger) Error(msg string, _ ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Errors = append(l.Errors, msg)
}

// Env is a workflow service running on the in-memory storage.
type Env struct {
	DB           *inmemdb.DB
	Catalog      *inmemdb.Catalog
	Propositions proposition.Repository
	Groups       supervision.Repository
	Documents    document.Repository
	History      *history.Service
	Notifier     *Notifier
	Logger       *Logger
	Service      *workflow.Service
}

func NewEnv(t *testing.T) *Env {
	t.Helper()
	db := inmemdb.Open()
	env := &Env{
		DB:           db,
		Catalog:      inmemdb.NewCatalog(db),
		Propositions: inmemdb.NewPropositionRepository(db),
		Groups:       inmemdb.NewGroupRepository(db),
		Documents:    inmemdb.NewDocumentRepository(db),
		History:      history.NewService(inmemdb.NewHistoryRepository(db)),
		Notifier:     &Notifier{},
		Logger:       &Logger{},
	}
	SeedCatalog(env.Catalog)
	env.Service = workflow.NewService(env.Deps(t))
	return env
}

// Deps returns the dependencies of env.Service, for tests that replace some of them.
func (env *Env) Deps(t *testing.T) workflow.Deps {
	return workflow.Deps{
		Propositions: env.Propositions,
		Groups:       env.Groups,
		Documents:    env.Documents,
		History:      env.History,
		Tx:           inmemdb.NewTransactor(),
		Locker:       locksvc.NewMemory(time.Second),
		Notifier:     env.Notifier,
		Programs:     env.Catalog,
		Scholarships: env.Catalog,
		Calendar:     env.Catalog,
		Actors:       env.Catalog,
		Profiles:     env.Catalog,
		Catalogue:    Catalogue(t),
		Logger:       env.Logger,
		Config:       Config,
	}
}

// DoctoralDraft is a doctoral proposition ready for signature.
type DoctoralDraft struct {
	ID                               string
	PromoterID, Member1ID, Member2ID string
}

// NewDoctoralDraft initiates a doctoral proposition and completes everything signing requires:
// a promoter designated as reference and two committee members.
func NewDoctoralDraft(t *testing.T, env *Env) DoctoralDraft {
	t.Helper()
	ctx := context.Background()
	svc := env.Service

	p, err := svc.Initiate(ctx, proposition.NewProposition{
		ApplicantID:   Candidate,
		ProgramID:     DoctoralProgram,
		AdmissionType: proposition.AdmissionTypeAdmission,
		Commission:    "CDSS",
	})
	must(t, err)
	_, err = svc.CompleteProject(ctx, p.ID, proposition.Project{
		Title:     "Quantum gravity",
		Abstract:  "A study.",
		Language:  "en",
		Documents: []string{"project.pdf"},
	}, Candidate)
	must(t, err)
	_, err = svc.CompleteFinancing(ctx, p.ID, proposition.Financing{Type: proposition.FinancingSelfFunding}, Candidate)
	must(t, err)
	_, err = svc.CompleteAccounting(ctx, p.ID, proposition.Accounting{AcceptedConditions: true}, Candidate)
	must(t, err)
	_, err = svc.CompleteCurriculum(ctx, p.ID, proposition.Curriculum{AccessTitles: []string{"q1"}}, Candidate)
	must(t, err)

	d := DoctoralDraft{ID: p.ID}
	add := func(role supervision.Role, matricule string) string {
		sig, err := svc.AddMember(ctx, p.ID, supervision.Actor{Role: role, Matricule: matricule}, Candidate)
		must(t, err)
		return sig.Actor.ID
	}
	d.PromoterID = add(supervision.RolePromoter, Promoter)
	d.Member1ID = add(supervision.RoleCommitteeMember, Member1)
	d.Member2ID = add(supervision.RoleCommitteeMember, Member2)
	must(t, svc.DesignateReferencePromoter(ctx, p.ID, d.PromoterID, Candidate))
	return d
}

// NewGeneralSubmitted initiates a general proposition, completes it and submits it to the SIC.
func NewGeneralSubmitted(t *testing.T, env *Env) string {
	t.Helper()
	ctx := context.Background()
	svc := env.Service

	p, err := svc.Initiate(ctx, proposition.NewProposition{
		ApplicantID:   Candidate,
		ProgramID:     GeneralProgram,
		AdmissionType: proposition.AdmissionTypeAdmission,
	})
	must(t, err)
	_, err = svc.CompleteAccounting(ctx, p.ID, proposition.Accounting{AcceptedConditions: true}, Candidate)
	must(t, err)
	_, err = svc.CompleteCurriculum(ctx, p.ID, proposition.Curriculum{AccessTitles: []string{"q1"}}, Candidate)
	must(t, err)
	_, err = svc.AnswerSpecificQuestions(ctx, p.ID, map[string]string{"motivation": "I like computers."}, Candidate)
	must(t, err)
	_, err = svc.Submit(ctx, p.ID, Candidate)
	must(t, err)
	return p.ID
}

func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %+v", err)
	}
}

// FreezeTime sets core.Now to `at` for the duration of the test.
func FreezeTime(t *testing.T, at time.Time) {
	prev := core.NowFunc
	core.NowFunc = func() time.Time { return at }
	t.Cleanup(func() { core.NowFunc = prev })
}
