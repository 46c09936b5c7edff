package route

import (
	"testing"

	"contactiq-be/pkg/pipeline"

	"github.com/stretchr/testify/assert"
)

func TestRouteTotalMapping(t *testing.T) {
	router := NewRouter(DefaultConfig(), nil)

	modes := []pipeline.Mode{pipeline.ModeCustomer, pipeline.ModeBanker}
	categories := []pipeline.Category{
		pipeline.CategoryAutomatable,
		pipeline.CategorySensitive,
		pipeline.CategoryHumanOnly,
	}

	// Every (mode, category) pair resolves to a domain, no gaps.
	for _, mode := range modes {
		for _, category := range categories {
			result, err := router.Route(mode, category)
			assert.NoError(t, err)
			assert.NotEmpty(t, result.Domain)
			assert.False(t, result.PolicyGap)
		}
	}
}

func TestRouteDomainsByMode(t *testing.T) {
	router := NewRouter(DefaultConfig(), nil)

	result, err := router.Route(pipeline.ModeCustomer, pipeline.CategoryAutomatable)
	assert.NoError(t, err)
	assert.Equal(t, "customer_kb", result.Domain)

	result, err = router.Route(pipeline.ModeBanker, pipeline.CategoryAutomatable)
	assert.NoError(t, err)
	assert.Equal(t, "banker_kb", result.Domain)
}

func TestRouteMandatoryEscalation(t *testing.T) {
	router := NewRouter(DefaultConfig(), nil)

	result, err := router.Route(pipeline.ModeCustomer, pipeline.CategoryHumanOnly)
	assert.NoError(t, err)
	assert.True(t, result.MandatoryEscalation)
	// human_only still gets a domain so the handoff carries context.
	assert.Equal(t, "customer_kb", result.Domain)

	result, err = router.Route(pipeline.ModeCustomer, pipeline.CategoryAutomatable)
	assert.NoError(t, err)
	assert.False(t, result.MandatoryEscalation)
}

func TestRouteInvalidMode(t *testing.T) {
	router := NewRouter(DefaultConfig(), nil)

	_, err := router.Route(pipeline.Mode("admin"), pipeline.CategoryAutomatable)
	assert.ErrorIs(t, err, pipeline.ErrInvalidMode)
}

func TestRoutePolicyGapFallsBackToModeDefault(t *testing.T) {
	config := Config{
		Domains: map[pipeline.Mode]map[pipeline.Category]string{
			pipeline.ModeCustomer: {
				pipeline.CategoryAutomatable: "customer_kb",
			},
		},
		Defaults: map[pipeline.Mode]string{
			pipeline.ModeCustomer: "customer_kb",
			pipeline.ModeBanker:   "banker_kb",
		},
	}
	router := NewRouter(config, nil)

	result, err := router.Route(pipeline.ModeCustomer, pipeline.CategorySensitive)
	assert.NoError(t, err)
	assert.True(t, result.PolicyGap)
	assert.Equal(t, "customer_kb", result.Domain)

	result, err = router.Route(pipeline.ModeBanker, pipeline.CategoryAutomatable)
	assert.NoError(t, err)
	assert.True(t, result.PolicyGap)
	assert.Equal(t, "banker_kb", result.Domain)
}
