// internal/fusion/fusion.go
package fusion

import (
	"net/url"
	"sort"
	"strings"
	"sync/atomic"

	"query-orchestrator/internal/common/logger"
	"query-orchestrator/internal/models"
)

// Fusion deduplicates and merges results from multiple providers into a
// ranked list. Corroboration raises confidence; it never invents content.
type Fusion struct {
	similarityThreshold float64
	sourceBonus         float64
	bonusCap            float64
	weights             atomic.Pointer[map[string]map[models.Category]float64]
	logger              logger.Logger
}

func New(similarityThreshold, sourceBonus, bonusCap float64, log logger.Logger) *Fusion {
	if similarityThreshold <= 0 {
		similarityThreshold = 0.8
	}
	f := &Fusion{
		similarityThreshold: similarityThreshold,
		sourceBonus:         sourceBonus,
		bonusCap:            bonusCap,
		logger:              log.With(map[string]interface{}{"stage": "fusion"}),
	}
	weights := DefaultAuthorityWeights()
	f.weights.Store(&weights)
	return f
}

// ApplyConfig swaps in remote authority weights. Empty keeps defaults.
func (f *Fusion) ApplyConfig(rc models.RemoteConfig) {
	if len(rc.AuthorityWeights) == 0 {
		return
	}
	f.weights.Store(&rc.AuthorityWeights)
}

// Fuse clusters duplicates, picks one canonical result per cluster and
// returns the survivors ranked by fused confidence. Input order is the
// first-seen order used for the final tie-break.
func (f *Fusion) Fuse(category models.Category, results []models.SearchResult) []models.FusedResult {
	if len(results) == 0 {
		return nil
	}

	weights := *f.weights.Load()
	var clusters []*cluster

	for i, r := range results {
		placed := false
		for _, c := range clusters {
			if c.matches(r, f.similarityThreshold) {
				c.add(r, i)
				placed = true
				break
			}
		}
		if !placed {
			clusters = append(clusters, newCluster(r, i))
		}
	}

	fused := make([]models.FusedResult, 0, len(clusters))
	for _, c := range clusters {
		fused = append(fused, c.fuse(weights, category, f.sourceBonus, f.bonusCap))
	}

	sort.SliceStable(fused, func(i, j int) bool {
		return fused[i].FusedConfidence > fused[j].FusedConfidence
	})

	f.logger.Debug("fused results", map[string]interface{}{
		"in":  len(results),
		"out": len(fused),
	})
	return fused
}

// cluster is one group of results judged to describe the same fact.
type cluster struct {
	members []models.SearchResult
	order   []int // first-seen positions, parallel to members
	urls    map[string]bool
}

func newCluster(r models.SearchResult, pos int) *cluster {
	c := &cluster{urls: make(map[string]bool)}
	c.add(r, pos)
	return c
}

func (c *cluster) add(r models.SearchResult, pos int) {
	c.members = append(c.members, r)
	c.order = append(c.order, pos)
	if u := normalizeURL(r.URL); u != "" {
		c.urls[u] = true
	}
}

// matches reports whether a result belongs to this cluster, by normalized
// URL equality or text similarity above the threshold.
func (c *cluster) matches(r models.SearchResult, threshold float64) bool {
	if u := normalizeURL(r.URL); u != "" && c.urls[u] {
		return true
	}
	for _, m := range c.members {
		if similarity(m, r) >= threshold {
			return true
		}
	}
	return false
}

// fuse picks the canonical member (authority, then confidence, then
// first-seen) and applies the corroboration bonus. Fused confidence never
// exceeds 1.0.
func (c *cluster) fuse(weights map[string]map[models.Category]float64, category models.Category, bonus, bonusCap float64) models.FusedResult {
	best := 0
	for i := 1; i < len(c.members); i++ {
		ai, ab := authority(weights, c.members[i].Source, category), authority(weights, c.members[best].Source, category)
		switch {
		case ai > ab:
			best = i
		case ai == ab && c.members[i].Confidence > c.members[best].Confidence:
			best = i
		case ai == ab && c.members[i].Confidence == c.members[best].Confidence && c.order[i] < c.order[best]:
			best = i
		}
	}

	sources := make([]string, 0, len(c.members))
	seen := make(map[string]bool)
	for _, m := range c.members {
		if !seen[m.Source] {
			seen[m.Source] = true
			sources = append(sources, m.Source)
		}
	}

	extra := float64(len(sources)-1) * bonus
	if extra > bonusCap {
		extra = bonusCap
	}
	confidence := c.members[best].Confidence + extra
	if confidence > 1.0 {
		confidence = 1.0
	}

	return models.FusedResult{
		SearchResult:    c.members[best],
		FusedConfidence: confidence,
		Sources:         sources,
	}
}

// normalizeURL strips scheme, www prefix, query, fragment and trailing
// slash so syntactic variants of one page compare equal.
func normalizeURL(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(strings.ToLower(raw))
	if err != nil {
		return strings.ToLower(raw)
	}
	host := strings.TrimPrefix(u.Host, "www.")
	path := strings.TrimSuffix(u.Path, "/")
	return host + path
}

// similarity is token Jaccard over title plus snippet.
func similarity(a, b models.SearchResult) float64 {
	ta := tokens(a.Title + " " + a.Snippet)
	tb := tokens(b.Title + " " + b.Snippet)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	intersection := 0
	for tok := range ta {
		if tb[tok] {
			intersection++
		}
	}
	union := len(ta) + len(tb) - intersection
	return float64(intersection) / float64(union)
}

func tokens(text string) map[string]bool {
	out := make(map[string]bool)
	for _, tok := range strings.Fields(models.Normalize(text)) {
		out[tok] = true
	}
	return out
}
