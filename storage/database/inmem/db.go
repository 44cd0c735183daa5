// Package inmemdb keeps every repository and catalog in memory, for tests and local runs.
package inmemdb

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/trezcool/admission/core"
	"github.com/trezcool/admission/core/catalog"
	"github.com/trezcool/admission/core/document"
	"github.com/trezcool/admission/core/history"
	"github.com/trezcool/admission/core/proposition"
	"github.com/trezcool/admission/core/supervision"
)

type (
	DB struct {
		proposition *propositionTable
		group       *groupTable
		document    *documentTable
		history     *historyTable
		catalog     *catalogTables
	}

	propositionTable struct {
		t       map[string]*proposition.Proposition
		nextRef int64
		mutex   sync.RWMutex
	}

	groupTable struct {
		t     map[string]*supervision.Group // by proposition id
		mutex sync.RWMutex
	}

	documentTable struct {
		t     map[string]map[string]document.Request // {proposition id: {slot: request}}
		mutex sync.RWMutex
	}

	historyTable struct {
		t     []history.Entry
		mutex sync.RWMutex
	}

	catalogTables struct {
		programs     map[string]catalog.Program
		scholarships map[string]catalog.Scholarship
		pools        map[string][]catalog.Pool // by program id, "" for every program
		people       map[string]catalog.Person
		profiles     map[string]catalog.CandidateProfile
		mutex        sync.RWMutex
	}
)

func Open() *DB {
	return &DB{
		proposition: &propositionTable{
			t:       make(map[string]*proposition.Proposition),
			nextRef: proposition.ReferenceBase,
		},
		group:    &groupTable{t: make(map[string]*supervision.Group)},
		document: &documentTable{t: make(map[string]map[string]document.Request)},
		history:  &historyTable{},
		catalog: &catalogTables{
			programs:     make(map[string]catalog.Program),
			scholarships: make(map[string]catalog.Scholarship),
			pools:        make(map[string][]catalog.Pool),
			people:       make(map[string]catalog.Person),
			profiles:     make(map[string]catalog.CandidateProfile),
		},
	}
}

// clone deep copies v, so that callers never share memory with the tables.
func clone[T any](v T) T {
	var c T
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	if err = json.Unmarshal(b, &c); err != nil {
		panic(err)
	}
	return c
}

type transactor struct{}

var _ core.Transactor = transactor{} // interface compliance check

// NewTransactor returns a Transactor without rollback: every table write is applied at once.
func NewTransactor() core.Transactor {
	return transactor{}
}

func (transactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
