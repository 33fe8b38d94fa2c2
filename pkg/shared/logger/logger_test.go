package logger

import (
	"bytes"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"

	"github.com/gushphp/gush-bitbucket/pkg/shared/config"
)

func TestDetermineLogLevel(t *testing.T) {
	t.Setenv(LevelEnv, "")

	assert.Equal(t, hclog.Info, determineLogLevel(nil))
	assert.Equal(t, hclog.Debug, determineLogLevel(&config.Config{Logger: config.Logger{Level: "debug"}}))
	assert.Equal(t, hclog.Info, determineLogLevel(&config.Config{Logger: config.Logger{Level: "chatty"}}))

	t.Setenv(LevelEnv, "error")
	assert.Equal(t, hclog.Error, determineLogLevel(&config.Config{Logger: config.Logger{Level: "debug"}}))
}

func TestNewLoggerWritesJSON(t *testing.T) {
	t.Setenv(LevelEnv, "")
	yes := true

	var buf bytes.Buffer
	l := newLogger(&config.Config{Logger: config.Logger{Level: "warn", JSONFormat: &yes}}, "bitbucket", &buf)

	l.Info("hidden")
	l.Warn("shown", "issue", 7)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"@message":"shown"`)
	assert.Contains(t, out, `"issue":7`)
	assert.Contains(t, out, `"@module":"bitbucket"`)
}
