package notifier

import (
	"context"
	"net/mail"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/admission/core"
	"github.com/trezcool/admission/core/catalog"
	"github.com/trezcool/admission/core/document"
	"github.com/trezcool/admission/core/proposition"
	"github.com/trezcool/admission/core/supervision"
	appfs "github.com/trezcool/admission/fs"
	emailsvc "github.com/trezcool/admission/services/email"
	inmemdb "github.com/trezcool/admission/storage/database/inmem"
	testutil "github.com/trezcool/admission/tests"
)

var conf = &core.Config{
	AppName:          "Admission",
	TestMode:         true,
	FrontendBaseURL:  "https://admission.example.org",
	DefaultFromEmail: mail.Address{Name: "Admission", Address: "noreply@example.org"},
}

func setup(t *testing.T) (*EmailNotifier, *emailsvc.ConsoleServiceMock) {
	t.Helper()
	if err := core.ParseEmailTemplates(appfs.FS, appfs.EmailTemplatesDir, conf); err != nil {
		t.Fatalf("ParseEmailTemplates() error = %v", err)
	}
	c := inmemdb.NewCatalog(inmemdb.Open())
	testutil.SeedCatalog(c)
	email := emailsvc.NewConsoleServiceMock(conf, &testutil.Logger{})
	return NewEmailNotifier(email, c, c, c, testutil.Catalogue(t), conf), email
}

func doctoral(status proposition.Status) *proposition.Proposition {
	return &proposition.Proposition{
		ID:          "prop-1",
		Reference:   proposition.ReferenceBase + 1,
		ApplicantID: testutil.Candidate,
		ProgramID:   testutil.DoctoralProgram,
		ProgramKind: catalog.KindDoctoral,
		Status:      status,
	}
}

func TestEmailNotifier_NotifySignatureRequest(t *testing.T) {
	n, email := setup(t)
	p := doctoral(proposition.StatusSigningInProgress)
	invited := []supervision.Signature{
		{Actor: supervision.Actor{ID: "a1", Role: supervision.RolePromoter, Matricule: testutil.Promoter}},
		{Actor: supervision.Actor{ID: "a2", Role: supervision.RoleCommitteeMember, External: &supervision.ExternalIdentity{
			FirstName: "Anne", LastName: "Leroy", Email: "anne@uni.example", Institution: "Uni", Country: "FR", Language: "fr",
		}}},
	}

	if err := n.NotifySignatureRequest(context.Background(), p, invited); err != nil {
		t.Fatalf("NotifySignatureRequest() error = %v", err)
	}
	sent := email.Messages()
	if !assert.Len(t, sent, 2) {
		return
	}

	tests := []struct {
		to       string
		template string
		subject  string
		link     string
	}{
		{to: testutil.Promoter + "@example.org", template: "signature_request_en", subject: "Signature requested: ", link: "/supervision/a1"},
		{to: "anne@uni.example", template: "signature_request_fr", subject: "Demande de signature : ", link: "/supervision/a2"},
	}
	for i, tt := range tests {
		msg := sent[i]
		assert.Equal(t, tt.to, msg.To[0].Address)
		assert.Equal(t, tt.template, msg.TemplateName)
		assert.Equal(t, tt.subject+p.FormattedReference(), msg.Subject)
		assert.Contains(t, msg.TextContent, conf.FrontendBaseURL+"/propositions/prop-1"+tt.link)
		assert.Contains(t, msg.TextContent, "SC3DP")
	}
}

func TestEmailNotifier_candidateNotices(t *testing.T) {
	ctx := context.Background()
	deadline := time.Date(2026, 11, 2, 23, 59, 59, 0, time.UTC)
	reqs := []document.Request{
		{Slot: "ID_CARD", Deadline: deadline, Message: "Merci de faire vite."},
		{Slot: "AD_HOC"},
	}

	tests := []struct {
		name     string
		notify   func(n *EmailNotifier, p *proposition.Proposition) error
		template string
		contains []string
	}{
		{
			name: "decision",
			notify: func(n *EmailNotifier, p *proposition.Proposition) error {
				return n.NotifyDecision(ctx, p, supervision.Signature{
					Actor:           supervision.Actor{Matricule: testutil.Member1},
					State:           supervision.StateDeclined,
					RejectionReason: "Hors de mon domaine.",
				})
			},
			template: "decision_fr",
			contains: []string{testutil.Member1, "Hors de mon domaine."},
		},
		{
			name:     "submission",
			notify:   func(n *EmailNotifier, p *proposition.Proposition) error { return n.NotifySubmission(ctx, p) },
			template: "submission_fr",
		},
		{
			name:     "document request",
			notify:   func(n *EmailNotifier, p *proposition.Proposition) error { return n.NotifyDocumentRequest(ctx, p, reqs) },
			template: "document_request_fr",
			contains: []string{"2026-11-02", "- Carte d'identité ou passeport", "- AD_HOC", "Merci de faire vite."},
		},
		{
			name:     "document completion",
			notify:   func(n *EmailNotifier, p *proposition.Proposition) error { return n.NotifyDocumentCompletion(ctx, p, reqs[:1]) },
			template: "document_completion_fr",
			contains: []string{"Carte d'identité ou passeport"},
		},
		{
			name: "status change",
			notify: func(n *EmailNotifier, p *proposition.Proposition) error {
				return n.NotifyStatusChange(ctx, p, proposition.StatusSigningInProgress)
			},
			template: "status_change_fr",
			contains: []string{"signée", "en cours de signature"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, email := setup(t)
			p := doctoral(proposition.StatusSigned)
			if err := tt.notify(n, p); err != nil {
				t.Fatalf("error = %v", err)
			}
			sent := email.Messages()
			if !assert.Len(t, sent, 1) {
				return
			}
			msg := sent[0]
			assert.Equal(t, "john@example.org", msg.To[0].Address)
			assert.Equal(t, tt.template, msg.TemplateName)
			assert.Contains(t, msg.TextContent, "John Doe")
			assert.Contains(t, msg.TextContent, p.FormattedReference())
			for _, want := range tt.contains {
				assert.Contains(t, msg.TextContent, want)
			}
			assert.True(t, strings.HasSuffix(strings.TrimSpace(msg.TextContent), conf.FrontendBaseURL))
		})
	}
}

func TestEmailNotifier_failures(t *testing.T) {
	ctx := context.Background()
	n, email := setup(t)

	p := doctoral(proposition.StatusSubmitted)
	p.ApplicantID = "nobody"
	if err := n.NotifySubmission(ctx, p); !errors.Is(err, catalog.ErrCandidateNotFound) {
		t.Errorf("NotifySubmission() error = %v, want %v", err, catalog.ErrCandidateNotFound)
	}

	unknown := []supervision.Signature{{Actor: supervision.Actor{ID: "a1", Matricule: "99999999"}}}
	if err := n.NotifySignatureRequest(ctx, doctoral(proposition.StatusSigningInProgress), unknown); !errors.Is(err, catalog.ErrActorNotFound) {
		t.Errorf("NotifySignatureRequest() error = %v, want %v", err, catalog.ErrActorNotFound)
	}

	if err := n.NotifyDocumentRequest(ctx, doctoral(proposition.StatusToCompleteForSIC), nil); err != nil {
		t.Errorf("NotifyDocumentRequest(nil) error = %v", err)
	}
	assert.Empty(t, email.Messages())
}
