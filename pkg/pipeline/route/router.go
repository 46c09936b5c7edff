// Package route maps a classified query onto a knowledge domain and the
// policy that governs it. Pure logic, no I/O.
package route

import (
	"contactiq-be/internal/pkg/logger"
	"contactiq-be/pkg/pipeline"
)

// Config is the domain table for the closed mode and category sets. A
// missing (mode, category) cell falls back to the mode default.
type Config struct {
	Domains  map[pipeline.Mode]map[pipeline.Category]string
	Defaults map[pipeline.Mode]string
}

// DefaultConfig maps each mode onto its single knowledge base.
func DefaultConfig() Config {
	return Config{
		Domains: map[pipeline.Mode]map[pipeline.Category]string{
			pipeline.ModeCustomer: {
				pipeline.CategoryAutomatable: "customer_kb",
				pipeline.CategorySensitive:   "customer_kb",
				pipeline.CategoryHumanOnly:   "customer_kb",
			},
			pipeline.ModeBanker: {
				pipeline.CategoryAutomatable: "banker_kb",
				pipeline.CategorySensitive:   "banker_kb",
				pipeline.CategoryHumanOnly:   "banker_kb",
			},
		},
		Defaults: map[pipeline.Mode]string{
			pipeline.ModeCustomer: "customer_kb",
			pipeline.ModeBanker:   "banker_kb",
		},
	}
}

type Router struct {
	config Config
	logger logger.ILogger
}

func NewRouter(config Config, log logger.ILogger) *Router {
	if log == nil {
		log = logger.NewNoopLogger()
	}
	return &Router{
		config: config,
		logger: log,
	}
}

// Route resolves the knowledge domain for a mode and category. Retrieval is
// always attempted before escalation, so even human_only traffic gets a
// domain: grounded context improves the handoff. Escalation is mandatory
// for human_only regardless of what downstream stages produce.
func (r *Router) Route(mode pipeline.Mode, category pipeline.Category) (*pipeline.Route, error) {
	if _, err := pipeline.ParseMode(string(mode)); err != nil {
		return nil, err
	}

	result := &pipeline.Route{
		MandatoryEscalation: category == pipeline.CategoryHumanOnly,
	}

	if domains, ok := r.config.Domains[mode]; ok {
		if domain, ok := domains[category]; ok && domain != "" {
			result.Domain = domain
			return result, nil
		}
	}

	// Policy gap: no domain configured for this category. Fall back to the
	// mode default and flag it for tuning.
	result.Domain = r.config.Defaults[mode]
	result.PolicyGap = true
	r.logger.Warn("ROUTER", "No domain configured for category, using mode default", map[string]interface{}{
		"mode":     string(mode),
		"category": string(category),
		"fallback": result.Domain,
	})
	return result, nil
}
