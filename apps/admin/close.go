package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/admission/core/document"
)

var errInvalidBody = errors.New("body must be SIC or FAC")

// close ends a proposition on behalf of body, recorded as authored by "admin:<body>".
func (cli *commandLine) close(id, body string) error {
	b := document.Body(strings.ToUpper(strings.TrimSpace(body)))
	if !b.Valid() {
		return errors.Wrap(errInvalidBody, body)
	}
	p, err := cli.svc.Close(context.Background(), id, "admin:"+string(b))
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "proposition %s closed\n", p.FormattedReference())
	return nil
}
