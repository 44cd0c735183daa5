// Package sqlxrepos stores propositions, supervision groups, document requests and history in postgres.
package sqlxrepos

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/admission/core"
)

const uniqueViolation = "23505"

type txKey struct{}

// DB runs the queries of every repository, on the transaction carried by ctx when there is one.
type DB struct {
	conn *sqlx.DB
}

var _ core.Transactor = (*DB)(nil) // interface compliance check

func NewDB(db *sql.DB) *DB {
	return &DB{conn: sqlx.NewDb(db, "postgres")}
}

func (db *DB) ext(ctx context.Context) sqlx.ExtContext {
	if tx, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return tx
	}
	return db.conn
}

// WithinTx runs fn in a transaction, or in the one ctx already carries.
func (db *DB) WithinTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if _, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return fn(ctx)
	}

	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err = fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		_ = tx.Rollback()
		return err
	}
	return errors.Wrap(tx.Commit(), "committing transaction")
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

func toJSON(v interface{}) (types.JSONText, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "encoding json column")
	}
	return types.JSONText(b), nil
}

// toNullJSON stores v, or NULL when it is not valid.
func toNullJSON(v interface{}, valid bool) (null.JSON, error) {
	if !valid {
		return null.JSON{}, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return null.JSON{}, errors.Wrap(err, "encoding json column")
	}
	return null.JSONFrom(b), nil
}

func fromJSON(j types.JSONText, dest interface{}) error {
	if len(j) == 0 {
		return nil
	}
	return errors.Wrap(j.Unmarshal(dest), "decoding json column")
}

func nullString(s string) null.String {
	return null.NewString(s, s != "")
}
