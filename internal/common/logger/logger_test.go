package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("debug"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("WARN"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("warning"))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel(""))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("verbose"))
}

func TestZapAdapter_Fields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewZapAdapter(zap.New(core)).WithFields(map[string]interface{}{"taskType": "parse-property-query"})

	log.Info("filters parsed", map[string]interface{}{"bedrooms": 3})
	log.WithError(errors.New("boom")).Error("search failed", nil)

	entries := logs.All()
	if assert.Len(t, entries, 2) {
		assert.Equal(t, "filters parsed", entries[0].Message)
		ctx := entries[0].ContextMap()
		assert.Equal(t, "parse-property-query", ctx["taskType"])
		assert.EqualValues(t, 3, ctx["bedrooms"])

		assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
		assert.Equal(t, "boom", entries[1].ContextMap()["error"])
	}
}

func TestMapToZapFields_Errors(t *testing.T) {
	fields := mapToZapFields(map[string]interface{}{"cause": errors.New("timeout")})
	if assert.Len(t, fields, 1) {
		assert.Equal(t, "cause", fields[0].Key)
		assert.Equal(t, zapcore.ErrorType, fields[0].Type)
	}
	assert.Nil(t, mapToZapFields(nil))
}

func TestNewNoOpLogger(t *testing.T) {
	assert.NotPanics(t, func() {
		NewNoOpLogger().With(map[string]interface{}{"k": "v"}).Warn("ignored", nil)
	})
}
