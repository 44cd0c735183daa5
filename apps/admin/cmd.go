package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/trezcool/admission/core"
	"github.com/trezcool/admission/core/auth"
	"github.com/trezcool/admission/core/workflow"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	conf *core.Config
	db   *sql.DB // nil with the memory engine
	svc  *workflow.Service
	out  io.Writer
}

// rolesFlag collects a repeatable -role flag.
type rolesFlag []string

func (r *rolesFlag) String() string { return strings.Join(*r, ",") }

func (r *rolesFlag) Set(v string) error {
	*r = append(*r, v)
	return nil
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS] - run a goose command over the database (up, down, status, version...)")
	fmt.Fprintln(cli.out, "  token -subject ID [-name NAME] -role ROLE [-role ROLE] - generate an API token, the signing secret is prompted")
	fmt.Fprintln(cli.out, "  overdue - list the document requests past their deadline")
	fmt.Fprintln(cli.out, "  close -id PROPOSITION -body SIC|FAC - close a proposition administratively")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	tokenCmd := flag.NewFlagSet("token", flag.ContinueOnError)
	tokenSubject := tokenCmd.String("subject", "", "The token subject: a candidate id or a matricule.")
	tokenName := tokenCmd.String("name", "", "The display name carried by the token.")
	var tokenRoles rolesFlag
	tokenCmd.Var(&tokenRoles, "role", "A role granted by the token, repeatable: "+strings.Join(auth.Roles, ", "))

	closeCmd := flag.NewFlagSet("close", flag.ContinueOnError)
	closeID := closeCmd.String("id", "", "The proposition to close.")
	closeBody := closeCmd.String("body", "SIC", "The body on behalf of which the proposition is closed.")

	for _, fs := range []*flag.FlagSet{tokenCmd, closeCmd} {
		fs.SetOutput(cli.out)
	}

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])

	case "token":
		if err := tokenCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *tokenSubject == "" || len(tokenRoles) == 0 {
			tokenCmd.Usage()
			return errHelp
		}
		fmt.Fprint(cli.out, "Enter signing secret (empty for the configured one):")
		secret, err := readPasswordFunc(int(syscall.Stdin))
		fmt.Fprintln(cli.out)
		if err != nil {
			return err
		}
		return cli.token(*tokenSubject, *tokenName, string(secret), tokenRoles)

	case "overdue":
		return cli.overdue()

	case "close":
		if err := closeCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *closeID == "" {
			closeCmd.Usage()
			return errHelp
		}
		return cli.close(*closeID, *closeBody)

	default:
		cli.printUsage()
		return errHelp
	}
}
