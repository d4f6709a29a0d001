package logger

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup_JSONWithComponent(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultConfig()
	cfg.Output = &buf
	cfg.Level = "debug"

	require.NoError(t, Setup(cfg))
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	log := WithActor(WithComponent("ledger"), "collector-1")
	log.Debug().Str("wallet_id", "w-1").Msg("transaction applied")

	out := buf.String()
	assert.Contains(t, out, `"component":"ledger"`)
	assert.Contains(t, out, `"actor_id":"collector-1"`)
	assert.Contains(t, out, `"wallet_id":"w-1"`)
	assert.Contains(t, out, `"message":"transaction applied"`)
}

func TestSetup_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultConfig()
	cfg.Output = &buf
	cfg.Level = "warn"

	require.NoError(t, Setup(cfg))
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	log := WithComponent("route")
	log.Info().Msg("hidden")
	log.Warn().Msg("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestSetup_InvalidLevel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Level = "loud"

	assert.Error(t, Setup(cfg))
}
