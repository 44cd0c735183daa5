package logsvc

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/trezcool/admission/core"
)

func TestRollbarLogger_prepare(t *testing.T) {
	obs, logs := observer.New(zap.DebugLevel)
	l := RollbarLogger{local: zap.New(obs)}
	l.Enable(false)

	boom := errors.New("boom")
	l.Warn("notifying decision", boom, map[string]interface{}{"proposition": "p1"}, core.Person{ID: "u1"}, core.Person{ID: "u2"})

	entries := logs.All()
	if assert.Len(t, entries, 1) {
		e := entries[0]
		assert.Equal(t, "notifying decision", e.Message)
		ctx := e.ContextMap()
		assert.Equal(t, "p1", ctx["proposition"])
		assert.Equal(t, "u1", ctx["person"])
		assert.Equal(t, "boom", ctx["error0"])
	}
}
