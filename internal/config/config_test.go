package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSensitiveAllowListDefaultsToPasswordReset(t *testing.T) {
	cfg := Load()

	assert.Equal(t, []string{"password_reset"}, cfg.Pipeline.SensitiveAllowList)
}

func TestSensitiveAllowListParsesCommaSeparatedEnv(t *testing.T) {
	t.Setenv("SENSITIVE_ALLOW_LIST", "password_reset, card_activation,")

	cfg := Load()

	assert.Equal(t, []string{"password_reset", "card_activation"}, cfg.Pipeline.SensitiveAllowList)
}

func TestGetEnvAsListIgnoresBlankEntries(t *testing.T) {
	t.Setenv("SENSITIVE_ALLOW_LIST", " , ,")

	cfg := Load()

	assert.Empty(t, cfg.Pipeline.SensitiveAllowList)
}
