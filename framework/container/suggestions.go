package container

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
)

// "Did you mean" support for NotFoundError: rank registered ids by string
// similarity to the id that failed to resolve.

const (
	maxSuggestions      = 5
	similarityThreshold = 0.4

	// score assigned when the Levenshtein ratio falls below the threshold
	// but one id contains the other; containment is a strong hint for
	// ids of very different lengths ("mail" vs "mail.queue.default").
	containmentScore = 0.5
)

// suggestions returns up to five registered ids similar to target.
func (c *Container) suggestions(target string) []string {
	c.mu.RLock()
	candidates := c.registeredKeysLocked()
	c.mu.RUnlock()
	return rankSimilar(target, candidates)
}

func rankSimilar(target string, candidates []string) []string {
	type scored struct {
		id    string
		score float64
	}

	ranked := make([]scored, 0, len(candidates))
	for _, id := range candidates {
		if id == target {
			continue
		}
		if s := similarity(target, id); s > similarityThreshold {
			ranked = append(ranked, scored{id: id, score: s})
		}
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].id < ranked[j].id
	})

	if len(ranked) > maxSuggestions {
		ranked = ranked[:maxSuggestions]
	}
	out := make([]string, len(ranked))
	for i, r := range ranked {
		out[i] = r.id
	}
	return out
}

// similarity computes a [0,1] Levenshtein ratio, falling back to substring
// containment when the edit distance alone scores too low.
func similarity(a, b string) float64 {
	la, lb := strings.ToLower(a), strings.ToLower(b)
	if la == lb {
		return 1
	}

	longest := len(la)
	if len(lb) > longest {
		longest = len(lb)
	}
	if longest == 0 {
		return 0
	}

	ratio := 1 - float64(levenshtein.ComputeDistance(la, lb))/float64(longest)
	if ratio > similarityThreshold {
		return ratio
	}
	if strings.Contains(la, lb) || strings.Contains(lb, la) {
		return containmentScore
	}
	return ratio
}
