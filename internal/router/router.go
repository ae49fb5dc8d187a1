// internal/router/router.go
package router

import (
	"sync/atomic"

	"query-orchestrator/internal/common/logger"
	"query-orchestrator/internal/models"
)

// Router maps intent categories to retrieval sources. The rule table is an
// immutable snapshot swapped atomically on configuration refresh; lookups
// never block and never fail.
type Router struct {
	rules  atomic.Pointer[map[models.Category]models.RoutingRule]
	logger logger.Logger
}

func New(log logger.Logger) *Router {
	r := &Router{
		logger: log.With(map[string]interface{}{"stage": "router"}),
	}
	r.install(DefaultRules())
	return r
}

// ApplyConfig swaps in remote routing rules. An empty rule set keeps the
// compiled-in table.
func (r *Router) ApplyConfig(rc models.RemoteConfig) {
	if len(rc.RoutingRules) == 0 {
		return
	}
	r.install(rc.RoutingRules)
	r.logger.Info("routing rules refreshed", map[string]interface{}{
		"rules": len(rc.RoutingRules),
	})
}

func (r *Router) install(rules []models.RoutingRule) {
	table := make(map[models.Category]models.RoutingRule, len(rules))
	for _, rule := range rules {
		// First registration wins on duplicates.
		if _, ok := table[rule.Category]; !ok {
			table[rule.Category] = rule
		}
	}
	r.rules.Store(&table)
}

// Route returns the routing rule for a classification. Unknown and
// unconfigured categories fall back to the generic web-search rule.
func (r *Router) Route(cls models.IntentClassification) models.RoutingRule {
	table := *r.rules.Load()
	if rule, ok := table[cls.Category]; ok {
		return rule
	}

	r.logger.Debug("no routing rule for category, using default", map[string]interface{}{
		"category": string(cls.Category),
	})
	return DefaultRule(cls.Category)
}
