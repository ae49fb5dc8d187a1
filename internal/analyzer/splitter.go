// internal/analyzer/splitter.go
package analyzer

import (
	"regexp"
	"strings"

	"query-orchestrator/internal/common/logger"
	"query-orchestrator/internal/models"
)

var conjunctions = []string{"and", "then", "also", "plus"}

// Splitter breaks compound queries into fragments. It is deliberately
// conservative: a missed split degrades to one broader answer, a wrong
// split produces two broken ones.
type Splitter struct {
	compoundNouns []string
	multiEntity   []*regexp.Regexp
	minWords      int
	logger        logger.Logger
}

func NewSplitter(compoundNouns, multiEntityPatterns []string, minWords int, log logger.Logger) *Splitter {
	if minWords <= 0 {
		minWords = 3
	}

	compiled := make([]*regexp.Regexp, 0, len(multiEntityPatterns))
	for _, src := range multiEntityPatterns {
		re, err := regexp.Compile(src)
		if err != nil {
			log.Warn("skipping invalid multi-entity pattern", map[string]interface{}{
				"pattern": src,
				"error":   err.Error(),
			})
			continue
		}
		compiled = append(compiled, re)
	}

	return &Splitter{
		compoundNouns: compoundNouns,
		multiEntity:   compiled,
		minWords:      minWords,
		logger:        log,
	}
}

// Split returns the normalized fragments of a compound query, or a
// single-element slice with the normalized original when no safe split
// exists.
func (s *Splitter) Split(raw string) []string {
	work := models.Normalize(raw)
	single := []string{work}

	if !s.hasConjunction(work) {
		return single
	}

	for _, noun := range s.compoundNouns {
		if strings.Contains(work, noun) {
			return single
		}
	}

	for _, re := range s.multiEntity {
		if re.MatchString(work) {
			return single
		}
	}

	fragments := []string{work}
	for _, conj := range conjunctions {
		sep := " " + conj + " "
		var next []string
		for _, frag := range fragments {
			for _, part := range strings.Split(frag, sep) {
				part = strings.TrimSpace(part)
				if part != "" {
					next = append(next, part)
				}
			}
		}
		fragments = next
	}

	if len(fragments) < 2 {
		return single
	}
	for _, frag := range fragments {
		if len(strings.Fields(frag)) < s.minWords {
			return single
		}
	}

	s.logger.Debug("split compound query", map[string]interface{}{
		"fragments": len(fragments),
	})
	return fragments
}

func (s *Splitter) hasConjunction(text string) bool {
	for _, conj := range conjunctions {
		if strings.Contains(text, " "+conj+" ") {
			return true
		}
	}
	return false
}
