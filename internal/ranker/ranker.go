// Package ranker orders content ideas for consumption by operators and
// automation. Ranking is pure: it never mutates idea state.
package ranker

import (
	"sort"

	"github.com/scribeworks/contentq/internal/domain"
)

// Rank returns ideas ordered by urgency descending, estimated reach
// descending, then created_at ascending. The tie-break on age guarantees a
// deterministic total order and keeps old ideas from starving behind newer
// ones with identical urgency and reach.
//
// The input slice is not modified. This ordering must match the SQL ORDER BY
// the idea repository uses for pending scans.
func Rank(ideas []domain.ContentIdea) []domain.ContentIdea {
	ranked := make([]domain.ContentIdea, len(ideas))
	copy(ranked, ideas)

	sort.SliceStable(ranked, func(i, j int) bool {
		return Less(&ranked[i], &ranked[j])
	})

	return ranked
}

// Less reports whether idea a ranks strictly before idea b.
func Less(a, b *domain.ContentIdea) bool {
	if a.Urgency.Weight() != b.Urgency.Weight() {
		return a.Urgency.Weight() > b.Urgency.Weight()
	}
	if a.EstimatedReach != b.EstimatedReach {
		return a.EstimatedReach > b.EstimatedReach
	}
	return a.CreatedAt.Before(b.CreatedAt)
}
