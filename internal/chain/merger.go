// internal/chain/merger.go
package chain

import (
	"fmt"
	"strings"
)

// Merge composes per-sub-intent answers into one response, preserving
// order. The second return value reports escalation: a sentinel anywhere
// means the whole query goes to the generation collaborator instead.
func Merge(answers []string) (string, bool) {
	kept := make([]string, 0, len(answers))
	for _, a := range answers {
		if a == EscalationSentinel {
			return "", true
		}
		if strings.TrimSpace(a) == "" {
			continue
		}
		kept = append(kept, strings.TrimSpace(a))
	}

	switch len(kept) {
	case 0:
		return "", false
	case 1:
		return kept[0], false
	case 2:
		return fmt.Sprintf("%s. %s", strings.TrimSuffix(kept[0], "."), kept[1]), false
	default:
		var b strings.Builder
		b.WriteString("Here's what I found:")
		for i, a := range kept {
			b.WriteString(fmt.Sprintf("\n%d. %s", i+1, a))
		}
		return b.String(), false
	}
}
