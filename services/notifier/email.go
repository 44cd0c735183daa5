// Package notifier tells candidates and signatories about their propositions by email.
package notifier

import (
	"context"
	"fmt"
	"net/mail"

	"github.com/pkg/errors"

	"github.com/trezcool/admission/core"
	"github.com/trezcool/admission/core/catalog"
	"github.com/trezcool/admission/core/document"
	"github.com/trezcool/admission/core/proposition"
	"github.com/trezcool/admission/core/supervision"
	"github.com/trezcool/admission/core/workflow"
)

const defaultLanguage = "en"

type (
	EmailNotifier struct {
		email     core.EmailService
		profiles  catalog.Profiles
		actors    catalog.Actors
		programs  catalog.Programs
		catalogue *document.Catalogue
		baseURL   string
	}

	// notice is the data of every email template.
	notice struct {
		Name           string
		Reference      string
		Program        string
		Link           string
		Status         string
		PreviousStatus string
		Member         string
		Verdict        string
		Reason         string
		Deadline       string
		Documents      []string
	}

	recipient struct {
		address  mail.Address
		language string
	}
)

var _ workflow.Notifier = (*EmailNotifier)(nil) // interface compliance check

func NewEmailNotifier(
	email core.EmailService,
	profiles catalog.Profiles,
	actors catalog.Actors,
	programs catalog.Programs,
	catalogue *document.Catalogue,
	conf *core.Config,
) *EmailNotifier {
	return &EmailNotifier{
		email:     email,
		profiles:  profiles,
		actors:    actors,
		programs:  programs,
		catalogue: catalogue,
		baseURL:   conf.FrontendBaseURL,
	}
}

func language(lang string) string {
	if lang == "fr" {
		return lang
	}
	return defaultLanguage
}

func (n *EmailNotifier) candidate(ctx context.Context, p *proposition.Proposition) (recipient, error) {
	profile, err := n.profiles.GetProfile(ctx, p.ApplicantID)
	if err != nil {
		return recipient{}, errors.Wrap(err, "resolving candidate")
	}
	return personRecipient(profile.Person), nil
}

func personRecipient(person catalog.Person) recipient {
	return recipient{
		address:  mail.Address{Name: person.FirstName + " " + person.LastName, Address: person.Email},
		language: language(person.Language),
	}
}

func (n *EmailNotifier) signatory(ctx context.Context, a supervision.Actor) (recipient, error) {
	if a.External != nil {
		return recipient{
			address:  mail.Address{Name: a.External.FirstName + " " + a.External.LastName, Address: a.External.Email},
			language: language(a.External.Language),
		}, nil
	}
	person, err := n.actors.GetPerson(ctx, a.Matricule)
	if err != nil {
		return recipient{}, errors.Wrapf(err, "resolving actor %s", a.Matricule)
	}
	return personRecipient(person), nil
}

func (n *EmailNotifier) notice(ctx context.Context, p *proposition.Proposition, to recipient) notice {
	program := p.ProgramID
	if prg, err := n.programs.GetProgram(ctx, p.ProgramID); err == nil {
		program = prg.Acronym
	}
	return notice{
		Name:      to.address.Name,
		Reference: p.FormattedReference(),
		Program:   program,
		Link:      fmt.Sprintf("%s/propositions/%s", n.baseURL, p.ID),
		Status:    p.Status.Label(to.language),
	}
}

func message(to recipient, template, subject string, data notice) *core.EmailMessage {
	return &core.EmailMessage{
		To:           []mail.Address{to.address},
		Subject:      subject,
		TemplateName: template + "_" + to.language,
		TemplateData: data,
	}
}

func subject(lang, fr, en string, args ...interface{}) string {
	if lang == "fr" {
		return fmt.Sprintf(fr, args...)
	}
	return fmt.Sprintf(en, args...)
}

func (n *EmailNotifier) labels(requests []document.Request, lang string) []string {
	labels := make([]string, len(requests))
	for i, r := range requests {
		labels[i] = n.catalogue.Label(r.Slot, lang)
	}
	return labels
}

func (n *EmailNotifier) NotifySignatureRequest(ctx context.Context, p *proposition.Proposition, invited []supervision.Signature) error {
	msgs := make([]*core.EmailMessage, 0, len(invited))
	for _, sig := range invited {
		to, err := n.signatory(ctx, sig.Actor)
		if err != nil {
			return err
		}
		data := n.notice(ctx, p, to)
		data.Link = fmt.Sprintf("%s/propositions/%s/supervision/%s", n.baseURL, p.ID, sig.Actor.ID)
		msgs = append(msgs, message(to, "signature_request",
			subject(to.language, "Demande de signature : %s", "Signature requested: %s", data.Reference), data))
	}
	n.email.SendMessages(msgs...)
	return nil
}

func (n *EmailNotifier) NotifyDecision(ctx context.Context, p *proposition.Proposition, sig supervision.Signature) error {
	to, err := n.candidate(ctx, p)
	if err != nil {
		return err
	}
	data := n.notice(ctx, p, to)
	data.Member = sig.Actor.DisplayName()
	data.Verdict = string(sig.State)
	data.Reason = sig.RejectionReason
	n.email.SendMessages(message(to, "decision",
		subject(to.language, "Décision de %s", "Decision of %s", data.Member), data))
	return nil
}

func (n *EmailNotifier) NotifySubmission(ctx context.Context, p *proposition.Proposition) error {
	to, err := n.candidate(ctx, p)
	if err != nil {
		return err
	}
	data := n.notice(ctx, p, to)
	n.email.SendMessages(message(to, "submission",
		subject(to.language, "Proposition %s soumise", "Proposition %s submitted", data.Reference), data))
	return nil
}

func (n *EmailNotifier) NotifyDocumentRequest(ctx context.Context, p *proposition.Proposition, requests []document.Request) error {
	if len(requests) == 0 {
		return nil
	}
	to, err := n.candidate(ctx, p)
	if err != nil {
		return err
	}
	data := n.notice(ctx, p, to)
	data.Documents = n.labels(requests, to.language)
	data.Deadline = requests[0].Deadline.Format("2006-01-02")
	data.Reason = requests[0].Message
	n.email.SendMessages(message(to, "document_request",
		subject(to.language, "Documents demandés : %s", "Documents requested: %s", data.Reference), data))
	return nil
}

func (n *EmailNotifier) NotifyDocumentCompletion(ctx context.Context, p *proposition.Proposition, requests []document.Request) error {
	if len(requests) == 0 {
		return nil
	}
	to, err := n.candidate(ctx, p)
	if err != nil {
		return err
	}
	data := n.notice(ctx, p, to)
	data.Documents = n.labels(requests, to.language)
	n.email.SendMessages(message(to, "document_completion",
		subject(to.language, "Documents reçus : %s", "Documents received: %s", data.Reference), data))
	return nil
}

func (n *EmailNotifier) NotifyStatusChange(ctx context.Context, p *proposition.Proposition, from proposition.Status) error {
	to, err := n.candidate(ctx, p)
	if err != nil {
		return err
	}
	data := n.notice(ctx, p, to)
	data.PreviousStatus = from.Label(to.language)
	n.email.SendMessages(message(to, "status_change",
		subject(to.language, "Proposition %s : %s", "Proposition %s: %s", data.Reference, data.Status), data))
	return nil
}
