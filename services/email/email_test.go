package emailsvc

import (
	"net/mail"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/admission/core"
)

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

var conf = &core.Config{
	AppName:          "Admission",
	DefaultFromEmail: mail.Address{Name: "Admission", Address: "noreply@example.org"},
}

func TestConsoleServiceMock_SendMessages(t *testing.T) {
	svc := NewConsoleServiceMock(conf, nopLogger{})
	svc.SendMessages(
		&core.EmailMessage{To: []mail.Address{{Address: "jane@example.org"}}, Subject: "Hi", BodyStr: "hello"},
		&core.EmailMessage{Subject: "no recipient", BodyStr: "hello"},
		&core.EmailMessage{To: []mail.Address{{Address: "jane@example.org"}}, Subject: "no content"},
	)

	sent := svc.Messages()
	if assert.Len(t, sent, 1) {
		assert.Equal(t, "Hi", sent[0].Subject)
		assert.Equal(t, "hello", sent[0].TextContent)
	}
}

func TestConsoleService_format(t *testing.T) {
	svc := consoleService{defaultFromEmail: conf.DefaultFromEmail, subjPrefix: "[Admission] "}
	out, err := svc.format(core.EmailMessage{
		To:          []mail.Address{{Name: "Jane", Address: "jane@example.org"}},
		Subject:     "Signature requested",
		TextContent: "please sign",
		HTMLContent: "<p>please sign</p>",
	})
	if err != nil {
		t.Fatalf("format() error = %v", err)
	}
	for _, want := range []string{
		"Subject: [Admission] Signature requested\r\n",
		`To: "Jane" <jane@example.org>`,
		"text/plain",
		"<p>please sign</p>",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("format() output misses %q", want)
		}
	}
	assert.NotContains(t, out, "CC:")
}

func TestSendgridService_prepare(t *testing.T) {
	svc := NewSendgridService(conf, nopLogger{}).(*sendgridService)
	m := svc.prepare(core.EmailMessage{
		To:          []mail.Address{{Address: "jane@example.org"}},
		Cc:          []mail.Address{{Address: "john@example.org"}},
		Subject:     "Decision",
		TextContent: "approved",
	})

	assert.Equal(t, "noreply@example.org", m.From.Address)
	if assert.Len(t, m.Personalizations, 1) {
		p := m.Personalizations[0]
		assert.Equal(t, "[Admission] Decision", p.Subject)
		assert.Len(t, p.To, 1)
		assert.Len(t, p.CC, 1)
	}
	if assert.Len(t, m.Content, 1) {
		assert.Equal(t, "text/plain", m.Content[0].Type)
	}
}
