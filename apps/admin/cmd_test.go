package main

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/admission/core"
	"github.com/trezcool/admission/core/auth"
	"github.com/trezcool/admission/core/document"
	"github.com/trezcool/admission/core/proposition"
	"github.com/trezcool/admission/core/workflow"
	testutil "github.com/trezcool/admission/tests"
)

var conf = &core.Config{
	AppName:   "Admission",
	TestMode:  true,
	SecretKey: "secret",
	Server:    core.ServerConfig{JWTExpirationDelta: time.Hour},
}

func setup(t *testing.T) (*commandLine, *testutil.Env, *bytes.Buffer) {
	env := testutil.NewEnv(t)
	out := new(bytes.Buffer)
	return &commandLine{
		conf: conf,
		db:   new(sql.DB),
		svc:  env.Service,
		out:  out,
	}, env, out
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	extra      interface{}
}

func runCLI(t *testing.T, cli *commandLine, tt cliTest) error {
	t.Helper()
	args := append([]string{"admin"}, tt.args...)
	err := cli.run(args)
	switch {
	case err == nil:
		if tt.wantErr != nil || tt.wantErrStr != "" {
			t.Errorf("cli.run() error = nil, wantErr %v%s", tt.wantErr, tt.wantErrStr)
		}
	case tt.wantErr != nil:
		if !errors.Is(err, tt.wantErr) {
			t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
		}
	case tt.wantErrStr != "":
		if err.Error() != tt.wantErrStr {
			t.Errorf("cli.run() error.Error() = %s, wantErrStr %s", err.Error(), tt.wantErrStr)
		}
	default:
		t.Errorf("cli.run() unexpected error = %v", err)
	}
	return err
}

func Test_commandLine_usage(t *testing.T) {
	cli, _, out := setup(t)

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out.Reset()
			runCLI(t, cli, tt)
			assert.Contains(t, out.String(), "Usage:")
		})
	}
}

func Test_commandLine_migrate(t *testing.T) {
	cli, _, _ := setup(t)

	runMigrationsFunc = func(db *sql.DB, command string, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to":
			if len(args) == 0 {
				return fmt.Errorf("up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION")
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		case "create":
			if len(args) == 0 {
				return fmt.Errorf("create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]")
			}
		case "down-to":
			if len(args) == 0 {
				return fmt.Errorf("down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION")
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "create: no args", args: []string{"migrate", "create"}, wantErrStr: "create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION"},
		{name: "down-to: non-int arg", args: []string{"migrate", "down-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-by-one", args: []string{"migrate", "up-by-one"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "redo", args: []string{"migrate", "redo"}},
		{name: "reset", args: []string{"migrate", "reset"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "version", args: []string{"migrate", "version"}},
		{name: "create", args: []string{"migrate", "create", "signatures", "sql"}},
		{name: "fix", args: []string{"migrate", "fix"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runCLI(t, cli, tt)
		})
	}

	t.Run("memory engine", func(t *testing.T) {
		cli.db = nil
		runCLI(t, cli, cliTest{args: []string{"migrate", "up"}, wantErr: errNoDatabase})
	})
}

func Test_commandLine_token(t *testing.T) {
	cli, _, out := setup(t)

	type extra struct {
		secret string
	}
	tests := []cliTest{
		{name: "no args", args: []string{"token"}, wantErr: errHelp},
		{name: "no role", args: []string{"token", "-subject", testutil.Candidate}, wantErr: errHelp},
		{name: "unknown flag", args: []string{"token", "-lol"}, wantErr: errHelp},
		{name: "unknown role", args: []string{"token", "-subject", testutil.Candidate, "-role", "dean"}, wantErr: auth.ErrUnknownRole},
		{name: "configured secret", args: []string{"token", "-subject", testutil.Candidate, "-role", auth.RoleCandidate}},
		{name: "prompted secret", args: []string{"token", "-subject", testutil.Promoter, "-name", "Jane", "-role", auth.RolePromoter, "-role", auth.RoleCommittee},
			extra: extra{secret: "other"}},
	}
	for _, tt := range tests {
		readPasswordFunc = func(fd int) ([]byte, error) {
			if extra, ok := tt.extra.(extra); ok {
				return []byte(extra.secret), nil
			}
			return nil, nil
		}

		t.Run(tt.name, func(t *testing.T) {
			out.Reset()
			if err := runCLI(t, cli, tt); err != nil {
				return
			}

			lines := strings.Split(strings.TrimSpace(out.String()), "\n")
			secret := conf.SecretKey
			if extra, ok := tt.extra.(extra); ok {
				secret = extra.secret
			}
			claims, err := auth.ParseToken(lines[len(lines)-1], secret)
			if err != nil {
				t.Fatalf("ParseToken() error = %v", err)
			}
			assert.Equal(t, tt.args[2], claims.Subject)
			assert.True(t, claims.HasAnyRole(tt.args[len(tt.args)-1]))
		})
	}
}

func Test_commandLine_overdue(t *testing.T) {
	cli, env, out := setup(t)
	now := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)
	testutil.FreezeTime(t, now)

	runCLI(t, cli, cliTest{args: []string{"overdue"}})
	assert.Contains(t, out.String(), "no overdue document request")

	id := testutil.NewGeneralSubmitted(t, env)
	_, err := env.Service.RequestDocuments(context.Background(), id, workflow.DocumentRequest{
		Body:  document.BodySIC,
		Slots: []document.SlotRequest{{Slot: "ID_CARD", Kind: document.KindNonFree}},
	}, testutil.Manager)
	if err != nil {
		t.Fatalf("RequestDocuments() error = %v", err)
	}

	testutil.FreezeTime(t, now.Add(30*24*time.Hour))
	out.Reset()
	runCLI(t, cli, cliTest{args: []string{"overdue"}})
	assert.Contains(t, out.String(), id)
	assert.Contains(t, out.String(), "ID_CARD")
	assert.Contains(t, out.String(), "2026-10-16")
}

func Test_commandLine_close(t *testing.T) {
	cli, env, out := setup(t)
	id := testutil.NewGeneralSubmitted(t, env)

	tests := []cliTest{
		{name: "no args", args: []string{"close"}, wantErr: errHelp},
		{name: "invalid body", args: []string{"close", "-id", id, "-body", "dean"}, wantErr: errInvalidBody},
		{name: "unknown proposition", args: []string{"close", "-id", "lol"}, wantErr: proposition.ErrPropositionNotFound},
		{name: "close", args: []string{"close", "-id", id, "-body", "fac"}},
		{name: "closed already", args: []string{"close", "-id", id}, wantErr: proposition.ErrCannotLeaveClosedStatus},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runCLI(t, cli, tt)
		})
	}

	p, err := env.Service.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	assert.Equal(t, proposition.StatusClosed, p.Status)
	assert.Equal(t, "admin:FAC", p.LastModifiedBy)
	assert.Contains(t, out.String(), "closed")
}
