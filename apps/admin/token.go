package main

import (
	"fmt"

	"github.com/trezcool/admission/core/auth"
)

// token prints a signed API token. An empty secret falls back to the configured one.
func (cli *commandLine) token(subject, name, secret string, roles []string) error {
	claims, err := auth.NewClaims(cli.conf, subject, name, roles...)
	if err != nil {
		return err
	}
	if secret == "" {
		secret = cli.conf.SecretKey
	}
	token, err := auth.GenerateToken(claims, secret)
	if err != nil {
		return err
	}
	fmt.Fprintln(cli.out, token)
	return nil
}
