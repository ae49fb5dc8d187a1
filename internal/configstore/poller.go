// internal/configstore/poller.go
package configstore

import (
	"context"
	"time"

	"query-orchestrator/internal/common/logger"
	"query-orchestrator/internal/models"
)

// Applier consumes a configuration snapshot. Implementations swap their
// internal state atomically.
type Applier interface {
	ApplyConfig(models.RemoteConfig)
}

// Poller refreshes configuration on an interval. A failed fetch keeps the
// last applied snapshot; the pipeline never degrades below its compiled-in
// defaults.
type Poller struct {
	client   *Client
	interval time.Duration
	applier  Applier
	logger   logger.Logger
}

func NewPoller(client *Client, interval time.Duration, applier Applier, log logger.Logger) *Poller {
	if interval <= 0 {
		interval = 60 * time.Second
	}
	return &Poller{
		client:   client,
		interval: interval,
		applier:  applier,
		logger:   log.With(map[string]interface{}{"component": "config-poller"}),
	}
}

// Run fetches once immediately, then on every tick until ctx is done.
func (p *Poller) Run(ctx context.Context) {
	p.refresh(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.refresh(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (p *Poller) refresh(ctx context.Context) {
	rc, err := p.client.Fetch(ctx)
	if err != nil {
		p.logger.Warn("refresh failed, keeping last snapshot", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	p.applier.ApplyConfig(rc)
	p.logger.Info("configuration refreshed", map[string]interface{}{
		"categories":   len(rc.Categories),
		"routingRules": len(rc.RoutingRules),
	})
}
